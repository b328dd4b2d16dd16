// Package tle parses NORAD two-line element sets into the compact orbital
// element form used by the propagator, and provides the service-side store,
// fetcher, and disk cache that feed it.
//
// Field extraction is fixed-column per the standard TLE layout. Checksums
// are not validated, but every numeric field is parsed strictly: a malformed
// field fails the whole element set with a *ParseError naming the field, so
// no partially-populated Elements ever escapes.
package tle

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/rotor/rotorgo/internal/epoch"
	"github.com/rotor/rotorgo/internal/transform"
)

// ParseError reports a malformed two-line element field.
type ParseError struct {
	Line  int    // 1 or 2
	Field string // e.g. "mean_motion"
	Value string // offending text
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("tle: line %d field %s: bad value %q", e.Line, e.Field, e.Value)
}

// TLE column ranges, 0-indexed half-open [lo, hi).
//
//	line 1: catalog 2:7, epoch year 18:20, epoch day 20:32, decay rate 33:43
//	line 2: inclination 8:16, RAAN 17:25, eccentricity 26:33,
//	        arg perigee 34:42, mean anomaly 43:51, mean motion 52:63,
//	        rev number 63:68
const lineLen = 69

// ParseElements parses one named two-line element set and computes the
// derived constants. Any malformed field is fatal: the returned error is a
// *ParseError and no Elements value is produced.
func ParseElements(name, line1, line2 string) (*Elements, error) {
	if len(line1) != lineLen {
		return nil, &ParseError{Line: 1, Field: "line_length", Value: strconv.Itoa(len(line1))}
	}
	if len(line2) != lineLen {
		return nil, &ParseError{Line: 2, Field: "line_length", Value: strconv.Itoa(len(line2))}
	}
	if line1[0] != '1' {
		return nil, &ParseError{Line: 1, Field: "line_number", Value: line1[:1]}
	}
	if line2[0] != '2' {
		return nil, &ParseError{Line: 2, Field: "line_number", Value: line2[:1]}
	}

	el := &Elements{Name: strings.TrimSpace(name)}

	var err error
	if el.CatalogNum, err = intField(line2, 2, 2, 7, "catalog_number"); err != nil {
		return nil, err
	}

	// Two-digit epoch year expands per the historical TLE convention:
	// <58 → 2000s, otherwise 1900s. TLEs epoched 2058 or later will be
	// misread; preserved deliberately because upstream data sources
	// assume the same cutover.
	yy, err := intField(line1, 1, 18, 20, "epoch_year")
	if err != nil {
		return nil, err
	}
	if yy < 58 {
		el.EpochYear = int(yy) + 2000
	} else {
		el.EpochYear = int(yy) + 1900
	}

	if el.EpochDay, err = floatField(line1, 1, 20, 32, "epoch_day"); err != nil {
		return nil, err
	}

	// The decay term carries the same 2π rev→rad scaling as the mean
	// motion so the drag arithmetic downstream stays unit-consistent.
	m2, err := floatField(line1, 1, 33, 43, "mean_motion_decay")
	if err != nil {
		return nil, err
	}
	el.DecayRate = 2 * math.Pi * m2

	var deg float64
	if deg, err = floatField(line2, 2, 8, 16, "inclination"); err != nil {
		return nil, err
	}
	el.Inclination = transform.Radians(deg)

	if deg, err = floatField(line2, 2, 17, 25, "raan"); err != nil {
		return nil, err
	}
	el.RAAN = transform.Radians(deg)

	// Eccentricity has an implied leading decimal point.
	ecc, err := floatField(line2, 2, 26, 33, "eccentricity")
	if err != nil {
		return nil, err
	}
	el.Eccentricity = ecc / 1e7

	if deg, err = floatField(line2, 2, 34, 42, "arg_perigee"); err != nil {
		return nil, err
	}
	el.ArgPerigee = transform.Radians(deg)

	if deg, err = floatField(line2, 2, 43, 51, "mean_anomaly"); err != nil {
		return nil, err
	}
	el.MeanAnomaly = transform.Radians(deg)

	revPerDay, err := floatField(line2, 2, 52, 63, "mean_motion")
	if err != nil {
		return nil, err
	}
	el.MeanMotion = 2 * math.Pi * revPerDay

	if el.RevNumber, err = intField(line2, 2, 63, 68, "rev_number"); err != nil {
		return nil, err
	}

	el.derive()
	return el, nil
}

// derive computes the cached constants from the parsed fields. Called once
// at parse time; predictions only ever read these.
func (el *Elements) derive() {
	dayFrac := el.EpochDay - math.Floor(el.EpochDay)
	el.Epoch = epoch.DayTime{
		DN: epoch.DayNumber(el.EpochYear, 1, 0) + int64(el.EpochDay),
		TN: dayFrac,
	}

	el.MeanMotionRadSec = el.MeanMotion / 86400.0
	el.SemiMajorKm = math.Pow(transform.GM/(el.MeanMotionRadSec*el.MeanMotionRadSec), 1.0/3.0)
	el.SemiMinorKm = el.SemiMajorKm * math.Sqrt(1-el.Eccentricity*el.Eccentricity)

	pc := transform.EarthRadiusKm * el.SemiMajorKm / (el.SemiMinorKm * el.SemiMinorKm)
	el.PrecessionConst = 1.5 * transform.J2 * pc * pc * el.MeanMotion

	ci := math.Cos(el.Inclination)
	el.NodePrecession = -el.PrecessionConst * ci
	el.PerigeePrecession = el.PrecessionConst * (5*ci*ci - 1) / 2
	el.DragCoeff = -2 * el.DecayRate / (3 * el.MeanMotion)
}

func floatField(line string, lineNo, lo, hi int, name string) (float64, error) {
	s := strings.TrimSpace(line[lo:hi])
	if s == "" {
		return 0, &ParseError{Line: lineNo, Field: name, Value: line[lo:hi]}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &ParseError{Line: lineNo, Field: name, Value: line[lo:hi]}
	}
	return v, nil
}

func intField(line string, lineNo, lo, hi int, name string) (int64, error) {
	s := strings.TrimSpace(line[lo:hi])
	if s == "" {
		return 0, &ParseError{Line: lineNo, Field: name, Value: line[lo:hi]}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, &ParseError{Line: lineNo, Field: name, Value: line[lo:hi]}
	}
	return v, nil
}

// Parse reads 3-line NORAD TLE format from r and returns the element sets
// that parse cleanly. Malformed entries are skipped with a warning log.
func Parse(r io.Reader, logger *slog.Logger) ([]*Elements, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading TLE data: %w", err)
	}

	var sets []*Elements
	for i := 0; i+2 < len(lines); {
		name := lines[i]
		line1 := lines[i+1]
		line2 := lines[i+2]

		if !strings.HasPrefix(line1, "1 ") || !strings.HasPrefix(line2, "2 ") {
			// Resync on the next candidate triplet.
			logger.Warn("skipping malformed TLE entry", "line_index", i, "name", name)
			i++
			continue
		}

		el, err := ParseElements(name, line1, line2)
		if err != nil {
			logger.Warn("skipping unparseable TLE entry", "name", name, "error", err)
			i += 3
			continue
		}

		sets = append(sets, el)
		i += 3
	}

	return sets, nil
}
