// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"
	"time"

	"github.com/relabs-tech/imu_viewer/internal/imu"
)

type mockSource struct {
	start time.Time
}

// NewMockSource creates a mock frame source that generates smooth changing
// values: a slow spin about Z with gentle roll/pitch oscillation, plus
// plausible gyro/accel/mag channels derived from the same motion.
func NewMockSource() imu.FrameSource {
	return &mockSource{start: time.Now()}
}

func (m *mockSource) ReadFrame() (imu.RawFrame, error) {
	now := time.Now()
	t := now.Sub(m.start).Seconds()

	yaw := t * 1.0
	pitch := 0.3 * math.Sin(t*0.5)
	roll := 0.2 * math.Cos(t*0.7)

	cy, sy := math.Cos(yaw/2), math.Sin(yaw/2)
	cp, sp := math.Cos(pitch/2), math.Sin(pitch/2)
	cr, sr := math.Cos(roll/2), math.Sin(roll/2)

	return imu.RawFrame{
		QuatW: cy*cp*cr + sy*sp*sr,
		QuatX: cy*cp*sr - sy*sp*cr,
		QuatY: sy*cp*sr + cy*sp*cr,
		QuatZ: sy*cp*cr - cy*sp*sr,

		Gyro: imu.Vec3{
			X: 0.2 * 0.7 * -math.Sin(t*0.7),
			Y: 0.3 * 0.5 * math.Cos(t*0.5),
			Z: 1.0,
		},
		Accel: imu.Vec3{
			X: 9.81 * math.Sin(pitch),
			Y: -9.81 * math.Sin(roll),
			Z: 9.81 * math.Cos(pitch) * math.Cos(roll),
		},
		Mag: imu.Vec3{
			X: 20 * math.Cos(yaw),
			Y: -20 * math.Sin(yaw),
			Z: 40,
		},
		LinAccel: imu.Vec3{
			X: 0.1 * math.Sin(t),
			Y: 0.1 * math.Cos(t),
		},

		Time: now,
	}, nil
}
