package transform

import "math"

// Observer is a fixed ground site. Construction converts latitude/longitude
// to radians and height to kilometers, then derives the local topocentric
// basis and the site's geocentric position and rotational velocity on the
// oblate spheroid. All fields are immutable after construction; a moved site
// needs a new Observer.
type Observer struct {
	Name     string
	LatRad   float64
	LonRad   float64
	HeightKm float64

	// Up, East, North form the topocentric unit-vector basis.
	Up    Vec3
	East  Vec3
	North Vec3

	// Position is the site's geocentric position (km); Velocity is its
	// velocity due to Earth's rotation (km/s).
	Position Vec3
	Velocity Vec3
}

// NewObserver creates an Observer from geodetic coordinates.
// Latitude and longitude are in degrees, height in meters above the spheroid.
func NewObserver(name string, latDeg, lonDeg, heightM float64) *Observer {
	lat := Radians(latDeg)
	lon := Radians(lonDeg)
	hgt := heightM / 1000.0

	cosLat := math.Cos(lat)
	sinLat := math.Sin(lat)
	cosLon := math.Cos(lon)
	sinLon := math.Sin(lon)

	up := Vec3{cosLat * cosLon, cosLat * sinLon, sinLat}
	east := Vec3{-sinLon, cosLon, 0}
	north := Vec3{-sinLat * cosLon, -sinLat * sinLon, cosLat}

	// Geocentric radius components on the oblate spheroid.
	polar := EarthRadiusKm * (1 - Flattening)
	xx := EarthRadiusKm * EarthRadiusKm
	zz := polar * polar
	d := math.Sqrt(xx*cosLat*cosLat + zz*sinLat*sinLat)
	rx := xx/d + hgt
	rz := zz/d + hgt

	pos := Vec3{rx * up.X, rx * up.Y, rz * up.Z}

	// Velocity is Ω × Position with Ω along the polar axis.
	vel := Vec3{-pos.Y * RotationRate, pos.X * RotationRate, 0}

	return &Observer{
		Name:     name,
		LatRad:   lat,
		LonRad:   lon,
		HeightKm: hgt,
		Up:       up,
		East:     east,
		North:    north,
		Position: pos,
		Velocity: vel,
	}
}
