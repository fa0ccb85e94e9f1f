package orientation

// Orientation is the canonical world-frame attitude for your app: the
// transformed unit quaternion plus its ZYX Euler decomposition in degrees
// for display.
type Orientation struct {
	Quat  Quaternion `json:"quat"`
	Roll  float64    `json:"roll"`
	Pitch float64    `json:"pitch"`
	Yaw   float64    `json:"yaw"`
}

// Transform maps a sensor-frame quaternion into the world frame under the
// given axis convention and derives its Euler angles. Pure function: the
// only failure is a malformed input quaternion (non-finite or near-zero
// norm), reported as imu.ErrMalformedFrame.
func Transform(raw Quaternion, c Convention) (Orientation, error) {
	q, err := raw.Normalized()
	if err != nil {
		return Orientation{}, err
	}

	if !c.IsIdentity() {
		// Conjugate the rotation matrix by the axis-remap matrix and
		// re-extract a quaternion. Going through the matrix keeps
		// reflection presets (det -1) correct.
		q = FromRotationMatrix(c.Apply(q.RotationMatrix()))
	}

	roll, pitch, yaw := q.Eulers()
	return Orientation{Quat: q, Roll: roll, Pitch: pitch, Yaw: yaw}, nil
}
