// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/relabs-tech/imu_viewer/internal/imu"
	"github.com/relabs-tech/imu_viewer/internal/orientation"
)

func TestParseFrameLineQuaternionOnly(t *testing.T) {
	frame, ok := parseFrameLine("0.1,0.2,0.3,0.9")
	if !ok {
		t.Fatal("valid 4-field line rejected")
	}
	if frame.QuatX != 0.1 || frame.QuatY != 0.2 || frame.QuatZ != 0.3 || frame.QuatW != 0.9 {
		t.Errorf("quaternion fields wrong: %+v", frame)
	}
	if frame.Gyro != (imu.Vec3{}) {
		t.Errorf("short line set raw channels: %+v", frame.Gyro)
	}
}

func TestParseFrameLineFullFrame(t *testing.T) {
	frame, ok := parseFrameLine("0,0,0,1, 0.01,0.02,0.03, 9.7,0.1,0.2, 22,-5,40, 0.5,0.6,0.7")
	if !ok {
		t.Fatal("valid 16-field line rejected")
	}
	if frame.QuatW != 1 {
		t.Errorf("QuatW = %v, want 1", frame.QuatW)
	}
	if frame.Gyro != (imu.Vec3{X: 0.01, Y: 0.02, Z: 0.03}) {
		t.Errorf("gyro = %+v", frame.Gyro)
	}
	if frame.Accel != (imu.Vec3{X: 9.7, Y: 0.1, Z: 0.2}) {
		t.Errorf("accel = %+v", frame.Accel)
	}
	if frame.Mag != (imu.Vec3{X: 22, Y: -5, Z: 40}) {
		t.Errorf("mag = %+v", frame.Mag)
	}
	if frame.LinAccel != (imu.Vec3{X: 0.5, Y: 0.6, Z: 0.7}) {
		t.Errorf("linear accel = %+v", frame.LinAccel)
	}
}

func TestParseFrameLineRejectsGarbage(t *testing.T) {
	lines := []string{
		"",
		"0.1,0.2,0.3",          // too few fields
		"0.1,0.2,0.3,0.9,1.0",  // field count between the two shapes
		"a,b,c,d",              // not numbers
		"0.1,0.2,0.3,",         // trailing empty field
	}
	for _, line := range lines {
		if _, ok := parseFrameLine(line); ok {
			t.Errorf("line %q accepted", line)
		}
	}
}

// putReport writes a 4-byte report header followed by int16 components.
func putReport(buf []byte, off int, id byte, components ...int16) {
	buf[off] = id
	for i, c := range components {
		binary.LittleEndian.PutUint16(buf[off+4+2*i:], uint16(c))
	}
}

func TestParseReportsUpdatesLatestValues(t *testing.T) {
	// One cargo with a timebase, a gyro report and an accel report.
	buf := make([]byte, 5+10+10)
	buf[0] = reportTimebase
	putReport(buf, 5, reportGyroscope, 1<<qGyro, 0, -(1 << qGyro))    // 1, 0, -1 rad/s
	putReport(buf, 15, reportAccelerometer, 1<<qAccel, 2<<qAccel, 0) // 1, 2, 0 m/s²

	var s BNO080Source
	s.parseReports(buf)

	if s.last.Gyro != (imu.Vec3{X: 1, Z: -1}) {
		t.Errorf("gyro = %+v, want (1, 0, -1)", s.last.Gyro)
	}
	if s.last.Accel != (imu.Vec3{X: 1, Y: 2}) {
		t.Errorf("accel = %+v, want (1, 2, 0)", s.last.Accel)
	}
}

func TestParseReportsStopsAtUnknownID(t *testing.T) {
	buf := make([]byte, 20)
	buf[0] = 0x7F // unknown report
	putReport(buf, 10, reportGyroscope, 1<<qGyro, 0, 0)

	var s BNO080Source
	s.parseReports(buf)
	if s.last.Gyro != (imu.Vec3{}) {
		t.Errorf("parser read past unknown report: %+v", s.last.Gyro)
	}
}

// TestRotationVectorWireOrder pins the i,j,k,real component order of the
// rotation vector report. A 90° rotation about Z has quaternion
// (w, x, y, z) = (0.7071, 0, 0, 0.7071); on the wire the Z component comes
// third and the scalar last. Decoding with any other ordering turns this
// fixture into a rotation about the wrong axis, which the Euler check
// catches.
func TestRotationVectorWireOrder(t *testing.T) {
	half := int16(math.Round(math.Sqrt2 / 2 * (1 << qRotation)))

	buf := make([]byte, 14)
	putReport(buf, 0, reportRotationVector, 0, 0, half, half) // x, y, z, w

	var s BNO080Source
	s.parseReports(buf)

	o, err := orientation.Transform(orientation.Quaternion{
		W: s.last.QuatW, X: s.last.QuatX, Y: s.last.QuatY, Z: s.last.QuatZ,
	}, orientation.IdentityConvention())
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(o.Yaw-90) > 0.1 || math.Abs(o.Roll) > 0.1 || math.Abs(o.Pitch) > 0.1 {
		t.Errorf("decoded rotation = (%v, %v, %v), want yaw 90", o.Roll, o.Pitch, o.Yaw)
	}
}

func TestFixedPoint(t *testing.T) {
	buf := make([]byte, 2)
	raw := int16(-(1 << qRotation))
	binary.LittleEndian.PutUint16(buf, uint16(raw))
	if got := fixedPoint(buf, 0, qRotation); got != -1 {
		t.Errorf("fixedPoint = %v, want -1", got)
	}
}
