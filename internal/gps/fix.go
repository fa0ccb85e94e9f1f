package gps

import "time"

// Fix is a single GPS fix suitable for JSON and MQTT.
type Fix struct {
	Time       time.Time `json:"time"`
	Latitude   float64   `json:"lat"`         // decimal degrees
	Longitude  float64   `json:"lon"`         // decimal degrees
	AltitudeM  float64   `json:"alt_m"`       // meters above MSL, 0 when unknown
	SpeedKnots float64   `json:"speed_knots"` // speed over ground
	CourseDeg  float64   `json:"course_deg"`  // course over ground
	Valid      bool      `json:"valid"`
}
