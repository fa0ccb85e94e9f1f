package pipeline

import (
	"sync"

	"github.com/relabs-tech/imu_viewer/internal/imu"
	"github.com/relabs-tech/imu_viewer/internal/orientation"
)

// PoseUpdate carries one world-frame pose to the renderer.
//
// Every update is a freshly allocated value. Browser-side scene bindings
// detect change by object identity, not deep equality: resending a mutated
// shared container is silently coalesced and the on-screen object freezes
// while data keeps arriving. Seq makes the freshness visible on the wire
// too, so even a value-equal pose registers as new on the client.
type PoseUpdate struct {
	Seq   uint64     `json:"seq"`
	WXYZ  [4]float64 `json:"wxyz"`
	Roll  float64    `json:"roll"`
	Pitch float64    `json:"pitch"`
	Yaw   float64    `json:"yaw"`

	// Position in world meters. Nil means "unchanged": the consumer keeps
	// whatever position it last applied. PoseSync never invents a default.
	Position *imu.Vec3 `json:"position,omitempty"`
}

// PoseSync tracks the current pose and hands out fresh PoseUpdate values.
// The acquisition loop is the only caller of Update; Last may be called
// from renderer goroutines when a client (re)connects.
type PoseSync struct {
	mu      sync.RWMutex
	seq     uint64
	have    bool
	current orientation.Orientation
	lastPos *imu.Vec3
}

// NewPoseSync returns an empty PoseSync.
func NewPoseSync() *PoseSync {
	return &PoseSync{}
}

// Update records the new orientation (and position, when supplied) and
// returns a newly allocated PoseUpdate. Two calls with identical inputs
// return equal values in two distinct allocations — that is the contract,
// not an accident.
func (s *PoseSync) Update(o orientation.Orientation, pos *imu.Vec3) *PoseUpdate {
	s.mu.Lock()
	s.seq++
	s.have = true
	s.current = o
	if pos != nil {
		p := *pos
		s.lastPos = &p
	}
	seq := s.seq
	s.mu.Unlock()

	u := &PoseUpdate{
		Seq:   seq,
		WXYZ:  [4]float64{o.Quat.W, o.Quat.X, o.Quat.Y, o.Quat.Z},
		Roll:  o.Roll,
		Pitch: o.Pitch,
		Yaw:   o.Yaw,
	}
	if pos != nil {
		p := *pos
		u.Position = &p
	}
	return u
}

// Last returns a fresh copy of the most recent pose, including the
// last-known position, for clients that join mid-stream. Returns nil
// before the first update.
func (s *PoseSync) Last() *PoseUpdate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.have {
		return nil
	}
	u := &PoseUpdate{
		Seq:   s.seq,
		WXYZ:  [4]float64{s.current.Quat.W, s.current.Quat.X, s.current.Quat.Y, s.current.Quat.Z},
		Roll:  s.current.Roll,
		Pitch: s.current.Pitch,
		Yaw:   s.current.Yaw,
	}
	if s.lastPos != nil {
		p := *s.lastPos
		u.Position = &p
	}
	return u
}
