// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import (
	"errors"
	"math"
	"time"
)

// Sentinel errors for the acquisition path. Callers classify with errors.Is.
var (
	// ErrMalformedFrame marks a frame whose quaternion is non-finite or has
	// near-zero norm. Such frames are skipped; pipeline state is untouched.
	ErrMalformedFrame = errors.New("malformed frame")

	// ErrSensorRead wraps failures propagated from a FrameSource.
	ErrSensorRead = errors.New("sensor read")
)

// Vec3 is a three-axis reading.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Finite reports whether all components are finite numbers.
func (v Vec3) Finite() bool {
	return finite(v.X) && finite(v.Y) && finite(v.Z)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// RawFrame is one sample from a 9-axis IMU with onboard fusion:
// the fused rotation-vector quaternion plus the raw sensor channels.
// Quaternion components are in the sensor's own axis convention; the
// orientation package maps them to the world frame.
type RawFrame struct {
	QuatX float64 `json:"qx"` // rotation vector, sensor frame
	QuatY float64 `json:"qy"`
	QuatZ float64 `json:"qz"`
	QuatW float64 `json:"qw"`

	Gyro     Vec3 `json:"gyro"`         // rad/s
	Accel    Vec3 `json:"accel"`        // m/s²
	Mag      Vec3 `json:"mag"`          // µT
	LinAccel Vec3 `json:"linear_accel"` // m/s², gravity removed

	Time time.Time `json:"-"`
}

// FrameSource is anything that can produce raw frames over time:
// a real sensor over I2C, a microcontroller streaming over serial,
// a mock source, maybe a replay source from file later.
type FrameSource interface {
	ReadFrame() (RawFrame, error)
}
