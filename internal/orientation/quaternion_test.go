package orientation

import (
	"errors"
	"math"
	"testing"

	"github.com/relabs-tech/imu_viewer/internal/imu"
)

const tol = 1e-9

func quatClose(a, b Quaternion, eps float64) bool {
	// q and -q are the same rotation.
	dot := a.W*b.W + a.X*b.X + a.Y*b.Y + a.Z*b.Z
	return math.Abs(math.Abs(dot)-1) < eps
}

// aboutAxis builds the unit quaternion for a rotation of angle radians
// about the given (unit) axis.
func aboutAxis(x, y, z, angle float64) Quaternion {
	s := math.Sin(angle / 2)
	return Quaternion{W: math.Cos(angle / 2), X: x * s, Y: y * s, Z: z * s}
}

func TestNormalized(t *testing.T) {
	q, err := Quaternion{W: 2}.Normalized()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(q.Norm()-1) > tol {
		t.Errorf("norm = %v, want 1", q.Norm())
	}
	if math.Abs(q.W-1) > tol {
		t.Errorf("W = %v, want 1", q.W)
	}
}

func TestNormalizedMalformed(t *testing.T) {
	cases := []struct {
		name string
		q    Quaternion
	}{
		{"zero", Quaternion{}},
		{"nan", Quaternion{W: math.NaN(), X: 0.5}},
		{"inf", Quaternion{W: 1, Z: math.Inf(1)}},
		{"tiny", Quaternion{W: 1e-12}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.q.Normalized(); !errors.Is(err, imu.ErrMalformedFrame) {
				t.Errorf("error = %v, want ErrMalformedFrame", err)
			}
		})
	}
}

func TestRotationMatrixRoundTrip(t *testing.T) {
	quats := []Quaternion{
		Identity(),
		aboutAxis(1, 0, 0, 0.3),
		aboutAxis(0, 1, 0, -1.2),
		aboutAxis(0, 0, 1, 2.5),
		aboutAxis(0.267261, 0.534522, 0.801784, 1.1),
	}
	for _, q := range quats {
		got := FromRotationMatrix(q.RotationMatrix())
		if !quatClose(got, q, 1e-9) {
			t.Errorf("round trip of %+v = %+v", q, got)
		}
		if math.Abs(got.Norm()-1) > 1e-9 {
			t.Errorf("round trip of %+v has norm %v", q, got.Norm())
		}
	}
}

func TestEulersKnownRotations(t *testing.T) {
	cases := []struct {
		name             string
		q                Quaternion
		roll, pitch, yaw float64
	}{
		{"identity", Identity(), 0, 0, 0},
		{"roll90", aboutAxis(1, 0, 0, math.Pi/2), 90, 0, 0},
		{"pitch45", aboutAxis(0, 1, 0, math.Pi/4), 0, 45, 0},
		{"yaw90", aboutAxis(0, 0, 1, math.Pi/2), 0, 0, 90},
		{"yawNeg30", aboutAxis(0, 0, 1, -math.Pi/6), 0, 0, -30},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			roll, pitch, yaw := tc.q.Eulers()
			if math.Abs(roll-tc.roll) > 1e-6 || math.Abs(pitch-tc.pitch) > 1e-6 || math.Abs(yaw-tc.yaw) > 1e-6 {
				t.Errorf("eulers = (%v, %v, %v), want (%v, %v, %v)",
					roll, pitch, yaw, tc.roll, tc.pitch, tc.yaw)
			}
		})
	}
}

func TestRotate(t *testing.T) {
	// Yaw of 90° carries body +X to world +Y.
	q := aboutAxis(0, 0, 1, math.Pi/2)
	v := q.Rotate(imu.Vec3{X: 1})
	if math.Abs(v.X) > 1e-9 || math.Abs(v.Y-1) > 1e-9 || math.Abs(v.Z) > 1e-9 {
		t.Errorf("rotated vector = %+v, want (0, 1, 0)", v)
	}
}
