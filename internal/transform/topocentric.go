package transform

import "math"

// LookAngles holds observer-relative pointing angles for a geocentric
// position. Azimuth is measured clockwise from North in [0, 360); altitude
// is degrees above the horizon in [-90, 90].
type LookAngles struct {
	AzimuthDeg  float64
	AltitudeDeg float64
	RangeKm     float64
}

// Look computes look angles from an observer to a geocentric position (km).
// The line-of-sight vector is projected onto the observer's up/east/north
// basis. The same transform serves satellites and the Sun; only the supplied
// position differs.
func Look(obs *Observer, pos Vec3) LookAngles {
	los := pos.Sub(obs.Position)
	rng := los.Norm()
	unit := los.Scale(1.0 / rng)

	u := unit.Dot(obs.Up)
	e := unit.Dot(obs.East)
	n := unit.Dot(obs.North)

	az := Degrees(math.Atan2(e, n))
	if az < 0 {
		az += 360.0
	}

	return LookAngles{
		AzimuthDeg:  az,
		AltitudeDeg: Degrees(math.Asin(u)),
		RangeKm:     rng,
	}
}

// GroundTrack converts a geocentric position and its radius into sub-point
// latitude/longitude in degrees. Latitude is in [-90, 90], longitude in
// (-180, 180].
func GroundTrack(pos Vec3, radiusKm float64) (latDeg, lonDeg float64) {
	latDeg = Degrees(math.Asin(pos.Z / radiusKm))
	lonDeg = Degrees(math.Atan2(pos.Y, pos.X))
	return latDeg, lonDeg
}
