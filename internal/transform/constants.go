package transform

import "math"

// Physical constants of the Plan-13 orbit model. These must be reproduced
// exactly; downstream ground-station tooling depends on bit-compatible
// predictions.
const (
	// EarthRadiusKm is the equatorial radius of the oblate spheroid (km).
	EarthRadiusKm = 6378.137
	// Flattening is the oblateness of the spheroid.
	Flattening = 1.0 / 298.257224
	// GM is Earth's gravitational parameter (km³/s²).
	GM = 3.986e5
	// J2 is the second zonal harmonic coefficient.
	J2 = 1.08263e-3

	daysPerJulianYear   = 365.25
	daysPerTropicalYear = 365.2421874

	// SolarRate is Earth's mean angular rate about the Sun (rad/day).
	SolarRate = 2 * math.Pi / daysPerTropicalYear
	// SiderealRate is Earth's rotation rate relative to the stars (rad/day).
	SiderealRate = 2*math.Pi + SolarRate
	// RotationRate is the sidereal rotation rate in rad/s.
	RotationRate = SiderealRate / 86400.0
)

// Solar ephemeris constants referenced to the start of 2014 (valid for the
// 2014+ era per the model's documented correction).
const (
	// SunRefYear anchors the linear hour-angle and mean-anomaly advances.
	SunRefYear = 2014
	// GHAAries0 is the Greenwich hour angle of Aries at the reference epoch (deg).
	GHAAries0 = 99.5828
	// SunMA0 is the Sun's mean anomaly at the reference epoch (deg).
	SunMA0 = 356.4105
	// SunMADay is the daily advance of the Sun's mean anomaly (deg/day).
	SunMADay = 0.98560028
	// SunEQC1 and SunEQC2 are the equation-of-center harmonics (rad).
	SunEQC1 = 0.03340
	SunEQC2 = 0.00035
)

// Obliquity of the ecliptic used by the solar model.
var (
	obliquity    = Radians(23.4375)
	CosObliquity = math.Cos(obliquity)
	SinObliquity = math.Sin(obliquity)
)

// AstronomicalUnitKm is the mean Earth–Sun distance (km), used to place the
// solar ephemeris unit vector at a physical range.
const AstronomicalUnitKm = 1.495979e8

// Radians converts degrees to radians.
func Radians(deg float64) float64 { return deg * math.Pi / 180.0 }

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 { return rad * 180.0 / math.Pi }
