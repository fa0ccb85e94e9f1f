package pipeline

import (
	"testing"

	"github.com/relabs-tech/imu_viewer/internal/imu"
	"github.com/relabs-tech/imu_viewer/internal/orientation"
)

func TestPoseSyncFreshAllocations(t *testing.T) {
	s := NewPoseSync()
	o := orientation.Orientation{Quat: orientation.Identity()}

	a := s.Update(o, nil)
	b := s.Update(o, nil)
	if a == b {
		t.Fatal("consecutive updates returned the same allocation")
	}
	if a.WXYZ != b.WXYZ || a.Roll != b.Roll {
		t.Errorf("identical inputs produced different poses: %+v vs %+v", a, b)
	}
	if b.Seq != a.Seq+1 {
		t.Errorf("Seq did not increase: %d then %d", a.Seq, b.Seq)
	}
}

func TestPoseSyncLastBeforeFirstUpdate(t *testing.T) {
	if got := NewPoseSync().Last(); got != nil {
		t.Errorf("Last before any update = %+v, want nil", got)
	}
}

func TestPoseSyncRetainsPosition(t *testing.T) {
	s := NewPoseSync()
	o := orientation.Orientation{Quat: orientation.Identity()}

	u := s.Update(o, &imu.Vec3{X: 1, Y: 2, Z: 3})
	if u.Position == nil || u.Position.X != 1 {
		t.Fatalf("position not carried on update: %+v", u.Position)
	}

	// nil position means "unchanged": the update itself omits it, but
	// late joiners still get the last known value.
	u = s.Update(o, nil)
	if u.Position != nil {
		t.Errorf("nil position leaked into update: %+v", u.Position)
	}
	last := s.Last()
	if last.Position == nil || last.Position.Y != 2 {
		t.Errorf("Last dropped retained position: %+v", last.Position)
	}

	// The copy handed out must not alias internal state.
	last.Position.X = 99
	if s.Last().Position.X != 1 {
		t.Error("mutating a returned pose changed internal state")
	}
}
