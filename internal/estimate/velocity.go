// Package estimate derives world-frame linear velocity (and, by
// integration, position) from body-mounted IMU data. The sensor's fusion
// already removes gravity from linear acceleration; what remains is frame
// rotation and drift control.
//
// Velocity from pure integration drifts without bound: sensor noise
// accumulates, small bias errors compound, and there is no external
// reference (no GPS, no zero-velocity updates). A leaky integrator keeps
// the estimate bounded:
//
//	v ← (1-λ)·v + a·dt
//
// which decays velocity toward zero when no acceleration is present — a
// reasonable assumption for short-horizon estimation.
package estimate

import (
	"github.com/relabs-tech/imu_viewer/internal/imu"
	"github.com/relabs-tech/imu_viewer/internal/orientation"
)

// Default tuning for a 40 Hz loop: with Leakage 0.005 velocity halves in
// roughly 139 samples; BiasAlpha 0.001 converges in about 1000 samples.
const (
	DefaultLeakage   = 0.005
	DefaultBiasAlpha = 0.001
)

// Options tunes a VelocityEstimator.
type Options struct {
	// Leakage is the velocity decay factor λ in (0, 1). Higher values
	// suppress drift harder but dull response to real acceleration.
	Leakage float64
	// BiasAlpha is the EMA coefficient for the world-frame acceleration
	// bias estimate. Lower adapts slower.
	BiasAlpha float64
	// ZeroVZ constrains vertical velocity to zero (ground-robot
	// assumption).
	ZeroVZ bool
}

// VelocityEstimator holds the integrator state. Not safe for concurrent
// use; the acquisition loop owns it.
type VelocityEstimator struct {
	leakage   float64
	biasAlpha float64
	zeroVZ    bool

	velocity imu.Vec3 // world frame, m/s
	bias     imu.Vec3 // world frame, m/s²
	position imu.Vec3 // world frame, m
}

// NewVelocityEstimator creates an estimator; zero option fields get the
// defaults above.
func NewVelocityEstimator(opts Options) *VelocityEstimator {
	if opts.Leakage == 0 {
		opts.Leakage = DefaultLeakage
	}
	if opts.BiasAlpha == 0 {
		opts.BiasAlpha = DefaultBiasAlpha
	}
	return &VelocityEstimator{
		leakage:   opts.Leakage,
		biasAlpha: opts.BiasAlpha,
		zeroVZ:    opts.ZeroVZ,
	}
}

// Update advances the estimate by one sample. accelBody is the
// gravity-compensated linear acceleration in the body frame (m/s²), q the
// world-frame orientation for the same sample, dt the step in seconds.
// Returns the updated world-frame velocity.
func (e *VelocityEstimator) Update(accelBody imu.Vec3, q orientation.Quaternion, dt float64) imu.Vec3 {
	// Rotate acceleration into the world frame.
	aw := q.Rotate(accelBody)

	// Slow EMA bias: captures DC offsets left over after gravity removal.
	e.bias = imu.Vec3{
		X: (1-e.biasAlpha)*e.bias.X + e.biasAlpha*aw.X,
		Y: (1-e.biasAlpha)*e.bias.Y + e.biasAlpha*aw.Y,
		Z: (1-e.biasAlpha)*e.bias.Z + e.biasAlpha*aw.Z,
	}

	// Leaky integration of bias-corrected acceleration.
	e.velocity = imu.Vec3{
		X: (1-e.leakage)*e.velocity.X + (aw.X-e.bias.X)*dt,
		Y: (1-e.leakage)*e.velocity.Y + (aw.Y-e.bias.Y)*dt,
		Z: (1-e.leakage)*e.velocity.Z + (aw.Z-e.bias.Z)*dt,
	}
	if e.zeroVZ {
		e.velocity.Z = 0
	}

	e.position = imu.Vec3{
		X: e.position.X + e.velocity.X*dt,
		Y: e.position.Y + e.velocity.Y*dt,
		Z: e.position.Z + e.velocity.Z*dt,
	}

	return e.velocity
}

// Velocity returns the current estimate without updating.
func (e *VelocityEstimator) Velocity() imu.Vec3 { return e.velocity }

// Bias returns the current acceleration bias estimate.
func (e *VelocityEstimator) Bias() imu.Vec3 { return e.bias }

// Position returns the integrated position. It inherits the velocity
// estimate's drift characteristics, so treat it as short-horizon only.
func (e *VelocityEstimator) Position() imu.Vec3 { return e.position }

// Reset zeroes velocity, bias and position.
func (e *VelocityEstimator) Reset() {
	e.velocity = imu.Vec3{}
	e.bias = imu.Vec3{}
	e.position = imu.Vec3{}
}
