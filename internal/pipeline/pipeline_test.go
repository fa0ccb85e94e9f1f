// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package pipeline

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/relabs-tech/imu_viewer/internal/imu"
	"github.com/relabs-tech/imu_viewer/internal/orientation"
)

// fakeRenderer records every call so tests can assert on exactly what the
// pipeline pushed and when.
type fakeRenderer struct {
	mu    sync.Mutex
	poses []*PoseUpdate
	plots []PlotSnapshot
}

func (f *fakeRenderer) SyncPose(u *PoseUpdate) {
	f.mu.Lock()
	f.poses = append(f.poses, u)
	f.mu.Unlock()
}

func (f *fakeRenderer) PushPlots(s PlotSnapshot) {
	f.mu.Lock()
	f.plots = append(f.plots, s)
	f.mu.Unlock()
}

var testStart = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

// frameAt builds a valid identity-orientation frame whose gyro X encodes
// the 1-based sample index, 25 ms apart.
func frameAt(i int) imu.RawFrame {
	return imu.RawFrame{
		QuatW: 1,
		Gyro:  imu.Vec3{X: float64(i)},
		Time:  testStart.Add(time.Duration(i-1) * 25 * time.Millisecond),
	}
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	if _, err := New(Options{BufferCapacity: -1}, nil); err == nil {
		t.Error("negative capacity accepted")
	}
	if _, err := New(Options{PlotDivisor: -2}, nil); err == nil {
		t.Error("negative divisor accepted")
	}
}

func TestNewDefaults(t *testing.T) {
	p, err := New(Options{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := p.Convention().Name; got != "identity" {
		t.Errorf("default convention = %q, want identity", got)
	}
}

func TestUpdateEndToEnd(t *testing.T) {
	r := &fakeRenderer{}
	p, err := New(Options{BufferCapacity: 4, PlotDivisor: 2}, r)
	if err != nil {
		t.Fatal(err)
	}

	for i := 1; i <= 6; i++ {
		if _, err := p.Update(frameAt(i), nil); err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
	}

	// Pose syncs on every sample, plots on every second one.
	if len(r.poses) != 6 {
		t.Errorf("got %d pose syncs, want 6", len(r.poses))
	}
	if len(r.plots) != 3 {
		t.Errorf("got %d plot pushes, want 3", len(r.plots))
	}
	for i := 1; i < len(r.poses); i++ {
		if r.poses[i].Seq != r.poses[i-1].Seq+1 {
			t.Errorf("pose seq not monotonic: %d after %d", r.poses[i].Seq, r.poses[i-1].Seq)
		}
	}

	// Capacity 4, six samples: the history holds the last four.
	gyro := p.Snapshot().Gyro
	want := []float64{3, 4, 5, 6}
	if len(gyro) != len(want) {
		t.Fatalf("gyro history length %d, want %d", len(gyro), len(want))
	}
	for i, w := range want {
		if gyro[i].X != w {
			t.Errorf("gyro[%d].X = %v, want %v", i, gyro[i].X, w)
		}
	}

	// Timestamps are relative to the first sample, 25 ms apart.
	if math.Abs(gyro[0].T-0.050) > 1e-9 || math.Abs(gyro[3].T-0.125) > 1e-9 {
		t.Errorf("relative times = %v, %v; want 0.050, 0.125", gyro[0].T, gyro[3].T)
	}
}

func TestUpdateMalformedFrameMutatesNothing(t *testing.T) {
	r := &fakeRenderer{}
	p, err := New(Options{BufferCapacity: 4, PlotDivisor: 1}, r)
	if err != nil {
		t.Fatal(err)
	}

	bad := []imu.RawFrame{
		{QuatW: math.NaN()},
		{}, // zero-norm quaternion
		{QuatW: 1, Accel: imu.Vec3{Z: math.Inf(1)}},
		{QuatW: 1, Mag: imu.Vec3{X: math.NaN()}},
	}
	for i, f := range bad {
		if _, err := p.Update(f, nil); !errors.Is(err, imu.ErrMalformedFrame) {
			t.Errorf("frame %d: error = %v, want ErrMalformedFrame", i, err)
		}
	}

	if len(r.poses) != 0 || len(r.plots) != 0 {
		t.Errorf("renderer called for malformed frames: %d poses, %d plots", len(r.poses), len(r.plots))
	}
	if p.LastPose() != nil {
		t.Error("pose state set by malformed frame")
	}
	if n := len(p.Snapshot().Gyro); n != 0 {
		t.Errorf("buffers touched by malformed frame: %d samples", n)
	}

	// A good frame after the bad ones goes straight through.
	o, err := p.Update(frameAt(1), nil)
	if err != nil {
		t.Fatal(err)
	}
	if o.Quat != orientation.Identity() {
		t.Errorf("orientation = %+v, want identity", o.Quat)
	}
	if p.LastPose() == nil || p.LastPose().Seq != 1 {
		t.Errorf("first good frame should be seq 1, got %+v", p.LastPose())
	}
}

func TestUpdateHeadlessRenderer(t *testing.T) {
	p, err := New(Options{BufferCapacity: 4, PlotDivisor: 1}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Update(frameAt(1), &imu.Vec3{X: 0.5}); err != nil {
		t.Fatal(err)
	}
	last := p.LastPose()
	if last == nil || last.Position == nil || last.Position.X != 0.5 {
		t.Errorf("headless update lost state: %+v", last)
	}
}

func TestUpdateAppliesConvention(t *testing.T) {
	conv, err := orientation.ConventionByName("flip_z")
	if err != nil {
		t.Fatal(err)
	}
	p, err := New(Options{Convention: conv}, nil)
	if err != nil {
		t.Fatal(err)
	}

	// Flipping Z negates rotations about X: a 60° roll reads back as -60°.
	f := frameAt(1)
	f.QuatW = math.Cos(math.Pi / 6)
	f.QuatX = math.Sin(math.Pi / 6)
	o, err := p.Update(f, nil)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(o.Roll-(-60)) > 1e-6 {
		t.Errorf("roll = %v, want -60", o.Roll)
	}
}
