// Package sun computes a low-precision solar ephemeris: the Sun's direction
// in the celestial and Earth-fixed geocentric frames at a given instant.
//
// The model is the two-harmonic equation-of-center expansion from the same
// algorithm family as the orbit propagator, accurate to roughly a hundredth
// of a degree over a few decades around its 2014 reference epoch. That is
// plenty for eclipse and illumination decisions; it is not an almanac.
package sun

import (
	"math"

	"github.com/rotor/rotorgo/internal/epoch"
	"github.com/rotor/rotorgo/internal/transform"
)

// refEpochDN anchors the linear hour-angle and mean-anomaly advances.
var refEpochDN = epoch.DayNumber(transform.SunRefYear, 1, 0)

// State is the Sun's geometry at one instant. Celestial and Geocentric are
// unit vectors; Position is the geocentric direction scaled to one
// astronomical unit so it can feed the same observer look-angle math as a
// satellite position (a unit-length "position" a kilometer from Earth's
// center would produce garbage angles).
type State struct {
	Celestial  transform.Vec3 // unit vector, celestial frame
	Geocentric transform.Vec3 // unit vector, Earth-fixed frame
	Position   transform.Vec3 // km, Earth-fixed frame, one AU from center
}

// Predict computes the Sun's direction at t.
func Predict(t epoch.DayTime) State {
	// Whole plus fractional days since the reference epoch.
	td := float64(t.DN-refEpochDN) + t.TN

	ghae := transform.Radians(transform.GHAAries0) + td*transform.SiderealRate

	// Mean right ascension of the fictitious mean Sun, plus π because the
	// expansion tracks Earth's heliocentric longitude.
	mrse := transform.Radians(transform.GHAAries0) + td*transform.SolarRate + math.Pi
	mase := transform.Radians(transform.SunMA0 + td*transform.SunMADay)

	// True longitude via the equation of center.
	tas := mrse + transform.SunEQC1*math.Sin(mase) + transform.SunEQC2*math.Sin(2*mase)

	c, s := math.Cos(tas), math.Sin(tas)
	cel := transform.Vec3{
		X: c,
		Y: s * transform.CosObliquity,
		Z: s * transform.SinObliquity,
	}
	geo := cel.RotateZ(-ghae)

	return State{
		Celestial:  cel,
		Geocentric: geo,
		Position:   geo.Scale(transform.AstronomicalUnitKm),
	}
}

// Look returns the Sun's look angles from an observer. The range field is
// the nominal one-AU distance, not a measured range.
func (s State) Look(obs *transform.Observer) transform.LookAngles {
	return transform.Look(obs, s.Position)
}

// SubsolarPoint returns the latitude/longitude (degrees) where the Sun is
// at zenith.
func (s State) SubsolarPoint() (latDeg, lonDeg float64) {
	return transform.GroundTrack(s.Geocentric, 1)
}

// AltitudeDeg returns the Sun's elevation above the observer's horizon in
// degrees. Negative values mean the Sun is below the horizon; the observer
// counts as dark below -6 (civil twilight).
func AltitudeDeg(obs *transform.Observer, t epoch.DayTime) float64 {
	return Predict(t).Look(obs).AltitudeDeg
}
