package propagation

import "github.com/rotor/rotorgo/internal/transform"

// State is the geocentric output of a single prediction. Predict returns a
// fresh State per call instead of mutating shared fields, so callers may
// predict concurrently against the same element set and keep old states
// around for comparison.
type State struct {
	Position  transform.Vec3 // km, Earth-fixed geocentric frame
	Velocity  transform.Vec3 // km/s
	RangeKm   float64        // geocentric radius A·(1 − e·cos E)
	RevNumber float64        // revolution count since launch
}

// GroundTrack returns the sub-satellite latitude/longitude in degrees.
func (s State) GroundTrack() (latDeg, lonDeg float64) {
	return transform.GroundTrack(s.Position, s.RangeKm)
}

// Look returns observer-relative look angles for this state.
func (s State) Look(obs *transform.Observer) transform.LookAngles {
	return transform.Look(obs, s.Position)
}

// AltitudeKm returns the height of the satellite above the (spherical)
// Earth surface. Rough figure for display and sanity checks only.
func (s State) AltitudeKm() float64 {
	return s.RangeKm - transform.EarthRadiusKm
}
