package gps

import (
	"math"

	"github.com/relabs-tech/imu_viewer/internal/imu"
)

// WGS-84 mean earth radius, meters.
const earthRadiusM = 6371008.8

// LocalFrame maps GPS fixes onto a local east-north-up tangent plane in
// meters, anchored at the first valid fix it sees. Over the few hundred
// meters a viewer session covers, the equirectangular approximation is
// well below sensor noise.
type LocalFrame struct {
	origin     Fix
	haveOrigin bool
}

// NewLocalFrame returns an unanchored frame; the first valid fix passed to
// Position becomes the origin.
func NewLocalFrame() *LocalFrame {
	return &LocalFrame{}
}

// Anchored reports whether an origin has been established.
func (f *LocalFrame) Anchored() bool { return f.haveOrigin }

// Position converts a fix into ENU meters relative to the origin.
// Invalid fixes are ignored; ok is false until the frame is anchored and
// the fix is usable.
func (f *LocalFrame) Position(fix Fix) (pos imu.Vec3, ok bool) {
	if !fix.Valid {
		return imu.Vec3{}, false
	}
	if !f.haveOrigin {
		f.origin = fix
		f.haveOrigin = true
	}

	lat0 := f.origin.Latitude * math.Pi / 180
	dLat := (fix.Latitude - f.origin.Latitude) * math.Pi / 180
	dLon := (fix.Longitude - f.origin.Longitude) * math.Pi / 180

	return imu.Vec3{
		X: earthRadiusM * dLon * math.Cos(lat0), // east
		Y: earthRadiusM * dLat,                  // north
		Z: fix.AltitudeM - f.origin.AltitudeM,   // up
	}, true
}
