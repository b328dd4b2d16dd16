package propagation

import (
	"errors"
	"math"
	"testing"

	"github.com/rotor/rotorgo/internal/epoch"
	"github.com/rotor/rotorgo/internal/tle"
	"github.com/rotor/rotorgo/internal/transform"
)

const (
	issName  = "ISS (ZARYA)"
	issLine1 = "1 25544U 98067A   08264.51782528 -.00002182  00000-0 -11606-4 0  2927"
	issLine2 = "2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.72125391563537"
)

func issElements(t *testing.T) *tle.Elements {
	t.Helper()
	el, err := tle.ParseElements(issName, issLine1, issLine2)
	if err != nil {
		t.Fatalf("ParseElements: %v", err)
	}
	return el
}

func TestPredict_AtEpochPhysicalSanity(t *testing.T) {
	el := issElements(t)

	st, err := Predict(el, el.Epoch)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}

	// Geocentric radius must sit between perigee and apogee.
	perigee := el.SemiMajorKm * (1 - el.Eccentricity)
	apogee := el.SemiMajorKm * (1 + el.Eccentricity)
	if st.RangeKm < perigee-1 || st.RangeKm > apogee+1 {
		t.Errorf("RangeKm = %.3f, want within [%.3f, %.3f]", st.RangeKm, perigee, apogee)
	}

	// Position magnitude equals the plane-frame radius (rotations preserve norm).
	if diff := math.Abs(st.Position.Norm() - st.RangeKm); diff > 1e-6 {
		t.Errorf("|Position| − RangeKm = %v, want ~0", diff)
	}

	// ISS altitude ~350 km, speed ~7.7 km/s.
	if alt := st.AltitudeKm(); alt < 300 || alt > 430 {
		t.Errorf("AltitudeKm = %.1f, want 300-430", alt)
	}
	if speed := st.Velocity.Norm(); speed < 7.5 || speed > 7.9 {
		t.Errorf("speed = %.3f km/s, want 7.5-7.9", speed)
	}

	// At epoch no revolutions have accumulated.
	if st.RevNumber != float64(el.RevNumber) {
		t.Errorf("RevNumber = %v, want %d", st.RevNumber, el.RevNumber)
	}
}

func TestPredict_Deterministic(t *testing.T) {
	el := issElements(t)
	at := el.Epoch.Add(0.123456)

	first, err := Predict(el, at)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	second, err := Predict(el, at)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}

	if first != second {
		t.Errorf("identical inputs produced different states:\n%+v\n%+v", first, second)
	}
}

func TestPredict_RevolutionTracking(t *testing.T) {
	el := issElements(t)
	period := 2 * math.Pi / el.MeanMotion // days

	for _, n := range []float64{1, 5, 16} {
		st, err := Predict(el, el.Epoch.Add(n*period))
		if err != nil {
			t.Fatalf("Predict: %v", err)
		}
		if got, want := st.RevNumber, float64(el.RevNumber)+n; got != want {
			t.Errorf("after %v periods RevNumber = %v, want %v", n, got, want)
		}
	}
}

func TestPredict_GroundTrackPeriodicity(t *testing.T) {
	el := issElements(t)
	period := 2 * math.Pi / el.MeanMotion

	st0, err := Predict(el, el.Epoch)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	st1, err := Predict(el, el.Epoch.Add(period))
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}

	lat0, _ := st0.GroundTrack()
	lat1, _ := st1.GroundTrack()

	// A near-circular orbit returns to roughly the same latitude one period
	// later; precession over a single period is small.
	if diff := math.Abs(lat1 - lat0); diff > 1.0 {
		t.Errorf("latitude after one period differs by %.3f deg", diff)
	}

	// The sub-point latitude never exceeds the inclination.
	for _, st := range []State{st0, st1} {
		lat, lon := st.GroundTrack()
		if math.Abs(lat) > transform.Degrees(el.Inclination)+0.01 {
			t.Errorf("latitude %.3f exceeds inclination", lat)
		}
		if lon <= -180.0001 || lon > 180.0001 {
			t.Errorf("longitude %.3f outside (-180,180]", lon)
		}
	}
}

func TestPredict_LookAnglesNormalized(t *testing.T) {
	el := issElements(t)
	obs := transform.NewObserver("site", 39.7392, -104.9903, 1609)

	// Sample many instants across several orbits.
	for i := 0; i < 200; i++ {
		st, err := Predict(el, el.Epoch.Add(float64(i)*0.001))
		if err != nil {
			t.Fatalf("Predict: %v", err)
		}
		la := st.Look(obs)
		if la.AzimuthDeg < 0 || la.AzimuthDeg >= 360 {
			t.Fatalf("azimuth %v outside [0,360)", la.AzimuthDeg)
		}
		if la.AltitudeDeg < -90 || la.AltitudeDeg > 90 {
			t.Fatalf("altitude %v outside [-90,90]", la.AltitudeDeg)
		}
		if la.RangeKm <= 0 {
			t.Fatalf("range %v not positive", la.RangeKm)
		}
	}
}

func TestSolveKepler_Converges(t *testing.T) {
	for _, ecc := range []float64{0, 0.1, 0.3, 0.5, 0.7, 0.85, 0.89} {
		for m := 0.0; m < 2*math.Pi; m += 0.3 {
			sol, err := solveKepler(m, ecc)
			if err != nil {
				t.Fatalf("solveKepler(M=%v, e=%v): %v", m, ecc, err)
			}
			residual := math.Abs(sol.EA - ecc*math.Sin(sol.EA) - m)
			if residual > keplerTolerance {
				t.Errorf("solveKepler(M=%v, e=%v): residual %v", m, ecc, residual)
			}
			if sol.Iterations > maxKeplerIterations {
				t.Errorf("solveKepler(M=%v, e=%v): %d iterations", m, ecc, sol.Iterations)
			}
		}
	}
}

func TestSolveKepler_CircularIsImmediate(t *testing.T) {
	sol, err := solveKepler(1.234, 0)
	if err != nil {
		t.Fatal(err)
	}
	if sol.EA != 1.234 {
		t.Errorf("EA = %v, want mean anomaly unchanged for e=0", sol.EA)
	}
	if sol.Iterations != 1 {
		t.Errorf("Iterations = %d, want 1", sol.Iterations)
	}
}

func TestSolveKepler_CorruptInputFailsBounded(t *testing.T) {
	// A NaN eccentricity can never satisfy the stopping rule; the iteration
	// bound must convert that into an error instead of hanging.
	_, err := solveKepler(1.0, math.NaN())
	var ce *ConvergenceError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConvergenceError, got %v", err)
	}
	if ce.Iterations != maxKeplerIterations {
		t.Errorf("Iterations = %d, want %d", ce.Iterations, maxKeplerIterations)
	}
}

func TestPredict_ElementsUntouched(t *testing.T) {
	el := issElements(t)
	before := *el

	if _, err := Predict(el, el.Epoch.Add(3.7)); err != nil {
		t.Fatalf("Predict: %v", err)
	}

	if *el != before {
		t.Errorf("Predict mutated the element set")
	}
}

func TestPredict_BeforeEpoch(t *testing.T) {
	el := issElements(t)

	// Prediction into the past is valid; revolution count decreases.
	st, err := Predict(el, el.Epoch.Add(-1.0))
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if st.RevNumber >= float64(el.RevNumber) {
		t.Errorf("RevNumber = %v, want below %d for a past instant", st.RevNumber, el.RevNumber)
	}
	if alt := st.AltitudeKm(); alt < 250 || alt > 500 {
		t.Errorf("AltitudeKm = %.1f, want a plausible ISS altitude", alt)
	}
}

func TestPredict_EpochFromCalendar(t *testing.T) {
	// The parsed epoch and a hand-built calendar DayTime agree.
	el := issElements(t)
	cal, err := epoch.New(2008, 9, 20, 12, 25, 40)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(cal.Sub(el.Epoch)) > 1.0/86400.0 {
		t.Errorf("calendar epoch differs from parsed epoch by %v days", cal.Sub(el.Epoch))
	}
}
