package tle

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"
)

var testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

// Canonical ISS element set used throughout the propagation literature.
const (
	issName  = "ISS (ZARYA)"
	issLine1 = "1 25544U 98067A   08264.51782528 -.00002182  00000-0 -11606-4 0  2927"
	issLine2 = "2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.72125391563537"
)

func TestParseElements_ISS(t *testing.T) {
	el, err := ParseElements(issName, issLine1, issLine2)
	if err != nil {
		t.Fatalf("ParseElements: %v", err)
	}

	if el.Name != "ISS (ZARYA)" {
		t.Errorf("Name = %q", el.Name)
	}
	if el.CatalogNum != 25544 {
		t.Errorf("CatalogNum = %d, want 25544", el.CatalogNum)
	}
	if el.EpochYear != 2008 {
		t.Errorf("EpochYear = %d, want 2008", el.EpochYear)
	}
	if math.Abs(el.EpochDay-264.51782528) > 1e-9 {
		t.Errorf("EpochDay = %v, want 264.51782528", el.EpochDay)
	}
	if math.Abs(el.Eccentricity-0.0006703) > 1e-12 {
		t.Errorf("Eccentricity = %v, want 0.0006703", el.Eccentricity)
	}

	angles := []struct {
		name string
		got  float64
		deg  float64
	}{
		{"Inclination", el.Inclination, 51.6416},
		{"RAAN", el.RAAN, 247.4627},
		{"ArgPerigee", el.ArgPerigee, 130.5360},
		{"MeanAnomaly", el.MeanAnomaly, 325.0288},
	}
	for _, a := range angles {
		want := a.deg * math.Pi / 180.0
		if math.Abs(a.got-want) > 1e-12 {
			t.Errorf("%s = %v rad, want %v", a.name, a.got, want)
		}
	}

	// Mean motion and decay both carry the 2π scaling, not deg→rad.
	if want := 2 * math.Pi * 15.72125391; math.Abs(el.MeanMotion-want) > 1e-9 {
		t.Errorf("MeanMotion = %v rad/day, want %v", el.MeanMotion, want)
	}
	if want := 2 * math.Pi * -0.00002182; math.Abs(el.DecayRate-want) > 1e-12 {
		t.Errorf("DecayRate = %v, want %v", el.DecayRate, want)
	}
	if el.RevNumber != 56353 {
		t.Errorf("RevNumber = %d, want 56353", el.RevNumber)
	}
}

func TestParseElements_Derived(t *testing.T) {
	el, err := ParseElements(issName, issLine1, issLine2)
	if err != nil {
		t.Fatalf("ParseElements: %v", err)
	}

	// Epoch renders back to the documented calendar instant.
	if got, want := el.Epoch.String(), "2008/09/20 12:25:40"; got != want {
		t.Errorf("Epoch = %q, want %q", got, want)
	}

	// Kepler's third law: a ≈ 6730 km for a 15.72 rev/day orbit.
	if el.SemiMajorKm < 6700 || el.SemiMajorKm > 6760 {
		t.Errorf("SemiMajorKm = %.1f, want ~6730", el.SemiMajorKm)
	}
	if el.SemiMinorKm > el.SemiMajorKm {
		t.Errorf("SemiMinorKm %.3f > SemiMajorKm %.3f", el.SemiMinorKm, el.SemiMajorKm)
	}

	// 51.6° inclination: node regresses westward, perigee advances.
	if el.NodePrecession >= 0 {
		t.Errorf("NodePrecession = %v, want negative for prograde orbit", el.NodePrecession)
	}
	if el.PerigeePrecession <= 0 {
		t.Errorf("PerigeePrecession = %v, want positive below the critical inclination", el.PerigeePrecession)
	}

	// Negative decay here means DragCoeff is positive.
	if el.DragCoeff <= 0 {
		t.Errorf("DragCoeff = %v, want positive for negative decay rate", el.DragCoeff)
	}
}

func TestParseElements_EpochYearCutover(t *testing.T) {
	tests := []struct {
		field string
		want  int
	}{
		{"57", 2057},
		{"58", 1958},
		{"00", 2000},
		{"99", 1999},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			line1 := issLine1[:18] + tt.field + issLine1[20:]
			el, err := ParseElements(issName, line1, issLine2)
			if err != nil {
				t.Fatalf("ParseElements: %v", err)
			}
			if el.EpochYear != tt.want {
				t.Errorf("EpochYear for %q = %d, want %d", tt.field, el.EpochYear, tt.want)
			}
		})
	}
}

func TestParseElements_Malformed(t *testing.T) {
	tests := []struct {
		name      string
		line1     string
		line2     string
		wantLine  int
		wantField string
	}{
		{"short line1", issLine1[:50], issLine2, 1, "line_length"},
		{"short line2", issLine1, issLine2[:68], 2, "line_length"},
		{"wrong line1 number", "9" + issLine1[1:], issLine2, 1, "line_number"},
		{"wrong line2 number", issLine1, "1" + issLine2[1:], 2, "line_number"},
		{"garbage inclination", issLine1, issLine2[:8] + "xx.yyyy " + issLine2[16:], 2, "inclination"},
		{"garbage decay", issLine1[:33] + "-.000x2182" + issLine1[43:], issLine2, 1, "mean_motion_decay"},
		{"blank mean motion", issLine1, issLine2[:52] + "           " + issLine2[63:], 2, "mean_motion"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseElements(issName, tt.line1, tt.line2)
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if pe.Line != tt.wantLine || pe.Field != tt.wantField {
				t.Errorf("error = line %d field %s, want line %d field %s",
					pe.Line, pe.Field, tt.wantLine, tt.wantField)
			}
		})
	}
}

func TestParse_MultiEntry(t *testing.T) {
	text := issName + "\n" + issLine1 + "\n" + issLine2 + "\n" +
		"JUNK LINE\n" +
		issName + "\n" + issLine1 + "\n" + issLine2 + "\n"

	sets, err := Parse(strings.NewReader(text), testLogger)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(sets) != 2 {
		t.Fatalf("parsed %d element sets, want 2", len(sets))
	}
	for _, el := range sets {
		if el.CatalogNum != 25544 {
			t.Errorf("CatalogNum = %d, want 25544", el.CatalogNum)
		}
	}
}

func TestParse_SkipsUnparseable(t *testing.T) {
	bad1 := "1 25544U 98067A   08264.51782528 -.00ZZ2182  00000-0 -11606-4 0  2927"
	text := "BROKEN\n" + bad1 + "\n" + issLine2 + "\n" +
		issName + "\n" + issLine1 + "\n" + issLine2 + "\n"

	sets, err := Parse(strings.NewReader(text), testLogger)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(sets) != 1 {
		t.Fatalf("parsed %d element sets, want 1", len(sets))
	}
	if sets[0].Name != "ISS (ZARYA)" {
		t.Errorf("Name = %q", sets[0].Name)
	}
}
