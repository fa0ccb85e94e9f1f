package orientation

import (
	"fmt"
	"math"

	"github.com/relabs-tech/imu_viewer/internal/imu"
)

// minQuatNorm is the smallest quaternion norm we accept before declaring a
// frame malformed: anything smaller cannot be normalized meaningfully.
const minQuatNorm = 1e-9

// Quaternion is a rotation in (w, x, y, z) scalar-first form.
//
// Note the sensor wire order is different: BNO08x rotation-vector reports
// carry the components as (x, y, z, w), i.e. (i, j, k, real). The sensors
// package fixes that ordering at parse time; everything above it uses this
// scalar-first struct. Getting this wrong produces a valid-looking but
// physically wrong rotation, so the ordering is pinned by a fixture test.
type Quaternion struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Identity is the no-rotation quaternion.
func Identity() Quaternion {
	return Quaternion{W: 1}
}

// Norm returns the Euclidean norm of the quaternion.
func (q Quaternion) Norm() float64 {
	return math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
}

// Finite reports whether all four components are finite numbers.
func (q Quaternion) Finite() bool {
	for _, f := range [4]float64{q.W, q.X, q.Y, q.Z} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// Normalized returns the unit quaternion with the same direction.
// A non-finite or near-zero input is malformed.
func (q Quaternion) Normalized() (Quaternion, error) {
	if !q.Finite() {
		return Quaternion{}, fmt.Errorf("%w: non-finite quaternion (%g, %g, %g, %g)",
			imu.ErrMalformedFrame, q.W, q.X, q.Y, q.Z)
	}
	n := q.Norm()
	if n < minQuatNorm {
		return Quaternion{}, fmt.Errorf("%w: quaternion norm %g below %g",
			imu.ErrMalformedFrame, n, minQuatNorm)
	}
	return Quaternion{W: q.W / n, X: q.X / n, Y: q.Y / n, Z: q.Z / n}, nil
}

// Mul returns the Hamilton product q*r (apply r first, then q).
func (q Quaternion) Mul(r Quaternion) Quaternion {
	return Quaternion{
		W: q.W*r.W - q.X*r.X - q.Y*r.Y - q.Z*r.Z,
		X: q.W*r.X + q.X*r.W + q.Y*r.Z - q.Z*r.Y,
		Y: q.W*r.Y - q.X*r.Z + q.Y*r.W + q.Z*r.X,
		Z: q.W*r.Z + q.X*r.Y - q.Y*r.X + q.Z*r.W,
	}
}

// RotationMatrix converts a unit quaternion to a 3x3 rotation matrix R with
// v_world = R · v_body.
func (q Quaternion) RotationMatrix() Matrix3 {
	w2, x2, y2, z2 := q.W*q.W, q.X*q.X, q.Y*q.Y, q.Z*q.Z
	xy, xz, xw := q.X*q.Y, q.X*q.Z, q.X*q.W
	yz, yw, zw := q.Y*q.Z, q.Y*q.W, q.Z*q.W

	return Matrix3{
		{w2 + x2 - y2 - z2, 2 * (xy - zw), 2 * (xz + yw)},
		{2 * (xy + zw), w2 - x2 + y2 - z2, 2 * (yz - xw)},
		{2 * (xz - yw), 2 * (yz + xw), w2 - x2 - y2 + z2},
	}
}

// FromRotationMatrix extracts a unit quaternion from a rotation matrix using
// Shepperd's method: pick the largest of the four squared components to keep
// the division well conditioned.
func FromRotationMatrix(m Matrix3) Quaternion {
	tr := m[0][0] + m[1][1] + m[2][2]

	var q Quaternion
	switch {
	case tr > 0:
		s := math.Sqrt(tr+1) * 2
		q = Quaternion{
			W: s / 4,
			X: (m[2][1] - m[1][2]) / s,
			Y: (m[0][2] - m[2][0]) / s,
			Z: (m[1][0] - m[0][1]) / s,
		}
	case m[0][0] > m[1][1] && m[0][0] > m[2][2]:
		s := math.Sqrt(1+m[0][0]-m[1][1]-m[2][2]) * 2
		q = Quaternion{
			W: (m[2][1] - m[1][2]) / s,
			X: s / 4,
			Y: (m[0][1] + m[1][0]) / s,
			Z: (m[0][2] + m[2][0]) / s,
		}
	case m[1][1] > m[2][2]:
		s := math.Sqrt(1+m[1][1]-m[0][0]-m[2][2]) * 2
		q = Quaternion{
			W: (m[0][2] - m[2][0]) / s,
			X: (m[0][1] + m[1][0]) / s,
			Y: s / 4,
			Z: (m[1][2] + m[2][1]) / s,
		}
	default:
		s := math.Sqrt(1+m[2][2]-m[0][0]-m[1][1]) * 2
		q = Quaternion{
			W: (m[1][0] - m[0][1]) / s,
			X: (m[0][2] + m[2][0]) / s,
			Y: (m[1][2] + m[2][1]) / s,
			Z: s / 4,
		}
	}

	// Canonical sign: scalar part non-negative. q and -q are the same
	// rotation; keeping one representative makes comparisons stable.
	if q.W < 0 {
		q = Quaternion{W: -q.W, X: -q.X, Y: -q.Y, Z: -q.Z}
	}
	return q
}

// Eulers returns the ZYX (yaw-pitch-roll) decomposition of q in degrees:
// roll about world X, pitch about world Y, yaw about world Z.
func (q Quaternion) Eulers() (roll, pitch, yaw float64) {
	// roll
	sinrCosp := 2 * (q.W*q.X + q.Y*q.Z)
	cosrCosp := 1 - 2*(q.X*q.X+q.Y*q.Y)
	roll = math.Atan2(sinrCosp, cosrCosp)

	// pitch, clamped at the gimbal singularity
	sinp := 2 * (q.W*q.Y - q.Z*q.X)
	if math.Abs(sinp) >= 1 {
		pitch = math.Copysign(math.Pi/2, sinp)
	} else {
		pitch = math.Asin(sinp)
	}

	// yaw
	sinyCosp := 2 * (q.W*q.Z + q.X*q.Y)
	cosyCosp := 1 - 2*(q.Y*q.Y+q.Z*q.Z)
	yaw = math.Atan2(sinyCosp, cosyCosp)

	const degPerRad = 180 / math.Pi
	return roll * degPerRad, pitch * degPerRad, yaw * degPerRad
}

// Rotate applies the rotation to a body-frame vector, returning its
// world-frame image. Assumes q is a unit quaternion.
func (q Quaternion) Rotate(v imu.Vec3) imu.Vec3 {
	m := q.RotationMatrix()
	return imu.Vec3{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}
