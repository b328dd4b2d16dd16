package sun

import (
	"math"
	"testing"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/sidereal"
	"github.com/soniakeys/meeus/v3/solar"

	"github.com/rotor/rotorgo/internal/epoch"
	"github.com/rotor/rotorgo/internal/transform"
)

// separationDeg returns the angle between two unit vectors in degrees.
func separationDeg(a, b transform.Vec3) float64 {
	d := a.Dot(b) / (a.Norm() * b.Norm())
	if d > 1 {
		d = 1
	} else if d < -1 {
		d = -1
	}
	return transform.Degrees(math.Acos(d))
}

// TestPredict_AgainstMeeus cross-validates the solar direction against the
// meeus VSOP-based apparent position. The two differ by nutation, aberration
// and the truncated equation of center, so agreement within a few tenths of
// a degree is the expectation, not arc-second identity.
func TestPredict_AgainstMeeus(t *testing.T) {
	times := []time.Time{
		time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2008, 9, 20, 12, 25, 40, 0, time.UTC),
		time.Date(2020, 6, 20, 21, 44, 0, 0, time.UTC),
		time.Date(2020, 12, 21, 10, 2, 0, 0, time.UTC),
		time.Date(2026, 3, 20, 14, 46, 0, 0, time.UTC),
		time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC),
	}

	const tolerance = 0.3 // degrees

	for _, at := range times {
		st := Predict(epoch.FromTime(at))
		jd := julian.TimeToJD(at)

		ra, dec := solar.ApparentEquatorial(jd)
		ref := transform.Vec3{
			X: dec.Cos() * ra.Cos(),
			Y: dec.Cos() * ra.Sin(),
			Z: dec.Sin(),
		}

		if sep := separationDeg(st.Celestial, ref); sep > tolerance {
			t.Errorf("%v: celestial direction off by %.4f deg", at, sep)
		}

		// Rotate the reference into the Earth-fixed frame with meeus
		// sidereal time and compare the geocentric direction too.
		gmst := sidereal.Apparent0UT(jd).Angle().Rad()
		refGeo := ref.RotateZ(-gmst)
		if sep := separationDeg(st.Geocentric, refGeo); sep > tolerance {
			t.Errorf("%v: geocentric direction off by %.4f deg", at, sep)
		}
	}
}

func TestPredict_VectorShapes(t *testing.T) {
	st := Predict(mustEpoch(t, 2026, 8, 30, 12, 0, 0))

	if n := st.Celestial.Norm(); math.Abs(n-1) > 1e-12 {
		t.Errorf("|Celestial| = %v, want 1", n)
	}
	if n := st.Geocentric.Norm(); math.Abs(n-1) > 1e-12 {
		t.Errorf("|Geocentric| = %v, want 1", n)
	}
	if n := st.Position.Norm(); math.Abs(n-transform.AstronomicalUnitKm) > 1 {
		t.Errorf("|Position| = %v, want %v", n, transform.AstronomicalUnitKm)
	}
}

func TestSubsolarPoint_Seasons(t *testing.T) {
	tests := []struct {
		name    string
		at      epoch.DayTime
		wantLat float64
		latTol  float64
	}{
		{"june solstice", mustEpoch(t, 2020, 6, 20, 21, 44, 0), 23.43, 0.5},
		{"december solstice", mustEpoch(t, 2020, 12, 21, 10, 2, 0), -23.43, 0.5},
		{"march equinox", mustEpoch(t, 2026, 3, 20, 14, 46, 0), 0, 0.5},
		{"september equinox", mustEpoch(t, 2026, 9, 22, 18, 5, 0), 0, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, lon := Predict(tt.at).SubsolarPoint()
			if math.Abs(lat-tt.wantLat) > tt.latTol {
				t.Errorf("latitude = %.3f, want %.2f ± %.2f", lat, tt.wantLat, tt.latTol)
			}
			if lon <= -180.0001 || lon > 180.0001 {
				t.Errorf("longitude %.3f outside (-180,180]", lon)
			}
		})
	}
}

func TestSubsolarPoint_NoonMeridian(t *testing.T) {
	// At 12:00 UT the subsolar longitude sits near the prime meridian,
	// offset only by the equation of time (under 4 degrees).
	lat, lon := Predict(mustEpoch(t, 2026, 4, 15, 12, 0, 0)).SubsolarPoint()
	if math.Abs(lon) > 5 {
		t.Errorf("subsolar longitude at 12:00 UT = %.3f, want within ±5", lon)
	}
	if math.Abs(lat) > 23.5 {
		t.Errorf("subsolar latitude = %.3f, want within obliquity bounds", lat)
	}
}

func TestAltitudeDeg_DayNight(t *testing.T) {
	obs := transform.NewObserver("gulf of guinea", 0, 0, 0)

	if alt := AltitudeDeg(obs, mustEpoch(t, 2026, 3, 20, 12, 0, 0)); alt < 60 {
		t.Errorf("equinox noon altitude = %.2f, want above 60", alt)
	}
	if alt := AltitudeDeg(obs, mustEpoch(t, 2026, 3, 20, 0, 0, 0)); alt > -60 {
		t.Errorf("equinox midnight altitude = %.2f, want below -60", alt)
	}
}

func mustEpoch(t *testing.T, y, mo, d, h, mi, s int) epoch.DayTime {
	t.Helper()
	dt, err := epoch.New(y, mo, d, h, mi, s)
	if err != nil {
		t.Fatalf("epoch.New: %v", err)
	}
	return dt
}

// Golden fixture from an independent double-precision run of the published
// Plan-13 solar model: Sun look angles from New York City and the subsolar
// point at a fixed historical instant.
func TestPredict_GoldenFixture(t *testing.T) {
	at := mustEpoch(t, 2008, 9, 20, 13, 0, 0)
	obs := transform.NewObserver("nyc", 40.7128, -74.006, 10)

	la := Predict(at).Look(obs)
	if diff := math.Abs(la.AzimuthDeg - 112.0713); diff > 0.5 {
		t.Errorf("azimuth = %.4f, want 112.0713 (±0.5)", la.AzimuthDeg)
	}
	if diff := math.Abs(la.AltitudeDeg - 24.7407); diff > 0.5 {
		t.Errorf("altitude = %.4f, want 24.7407 (±0.5)", la.AltitudeDeg)
	}

	lat, lon := Predict(at).SubsolarPoint()
	if diff := math.Abs(lat - 0.8211); diff > 0.5 {
		t.Errorf("subsolar lat = %.4f, want 0.8211 (±0.5)", lat)
	}
	if diff := math.Abs(lon - (-16.6832)); diff > 0.5 {
		t.Errorf("subsolar lon = %.4f, want -16.6832 (±0.5)", lon)
	}
}
