package estimate

import (
	"math"
	"testing"

	"github.com/relabs-tech/imu_viewer/internal/imu"
	"github.com/relabs-tech/imu_viewer/internal/orientation"
)

func TestUpdateSingleStep(t *testing.T) {
	e := NewVelocityEstimator(Options{Leakage: 0.005, BiasAlpha: 0.001})
	v := e.Update(imu.Vec3{X: 2}, orientation.Identity(), 0.025)

	// First step from rest: v = (a - alpha*a) * dt.
	want := 2 * (1 - 0.001) * 0.025
	if math.Abs(v.X-want) > 1e-12 {
		t.Errorf("v.X = %v, want %v", v.X, want)
	}
	if v.Y != 0 || v.Z != 0 {
		t.Errorf("lateral velocity from axial accel: %+v", v)
	}
}

func TestUpdateRotatesIntoWorldFrame(t *testing.T) {
	e := NewVelocityEstimator(Options{})

	// Body +X acceleration under a 90° yaw accumulates world +Y velocity.
	yaw90 := orientation.Quaternion{W: math.Cos(math.Pi / 4), Z: math.Sin(math.Pi / 4)}
	var v imu.Vec3
	for i := 0; i < 10; i++ {
		v = e.Update(imu.Vec3{X: 1}, yaw90, 0.025)
	}
	if v.Y < 0.1 {
		t.Errorf("v.Y = %v, expected forward motion along world Y", v.Y)
	}
	if math.Abs(v.X) > 1e-6 {
		t.Errorf("v.X = %v, expected ~0", v.X)
	}
}

func TestLeakageDecaysVelocity(t *testing.T) {
	e := NewVelocityEstimator(Options{Leakage: 0.05, BiasAlpha: 1e-9})
	e.Update(imu.Vec3{X: 10}, orientation.Identity(), 0.025)
	v0 := e.Velocity().X

	for i := 0; i < 200; i++ {
		e.Update(imu.Vec3{}, orientation.Identity(), 0.025)
	}
	if got := e.Velocity().X; math.Abs(got) > v0*0.01 {
		t.Errorf("velocity did not decay: started %v, still %v", v0, got)
	}
}

func TestZeroVZ(t *testing.T) {
	e := NewVelocityEstimator(Options{ZeroVZ: true})
	v := e.Update(imu.Vec3{Z: 5}, orientation.Identity(), 0.025)
	if v.Z != 0 {
		t.Errorf("v.Z = %v with ZeroVZ set", v.Z)
	}
	if e.Position().Z != 0 {
		t.Errorf("position.Z = %v with ZeroVZ set", e.Position().Z)
	}
}

func TestBiasConverges(t *testing.T) {
	e := NewVelocityEstimator(Options{Leakage: 0.005, BiasAlpha: 0.01})
	for i := 0; i < 2000; i++ {
		e.Update(imu.Vec3{X: 0.3}, orientation.Identity(), 0.025)
	}
	if got := e.Bias().X; math.Abs(got-0.3) > 0.01 {
		t.Errorf("bias.X = %v, want ~0.3", got)
	}
}

func TestReset(t *testing.T) {
	e := NewVelocityEstimator(Options{})
	e.Update(imu.Vec3{X: 1, Y: 2, Z: 3}, orientation.Identity(), 0.025)
	e.Reset()
	if e.Velocity() != (imu.Vec3{}) || e.Bias() != (imu.Vec3{}) || e.Position() != (imu.Vec3{}) {
		t.Error("Reset left state behind")
	}
}
