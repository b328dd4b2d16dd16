package tle

import (
	"time"

	"github.com/rotor/rotorgo/internal/epoch"
)

// Elements is one tracked object's orbital element set: the fields parsed
// directly from the two-line element text plus the derived constants the
// propagator reuses on every prediction. Derived fields are a pure function
// of the parsed fields, computed exactly once at parse time; nothing here is
// mutated afterwards, so an *Elements may be shared across goroutines.
type Elements struct {
	Name       string
	CatalogNum int64

	// Parsed from the TLE.
	EpochYear    int     // four-digit year after cutover expansion
	EpochDay     float64 // fractional day of year, 1-based
	DecayRate    float64 // mean-motion decay, rad/day² (2π-scaled)
	Inclination  float64 // rad
	RAAN         float64 // right ascension of ascending node, rad
	Eccentricity float64
	ArgPerigee   float64 // rad
	MeanAnomaly  float64 // rad at epoch
	MeanMotion   float64 // rad/day
	RevNumber    int64   // revolution number at epoch

	// Derived at parse time.
	Epoch             epoch.DayTime
	MeanMotionRadSec  float64 // rad/s
	SemiMajorKm       float64
	SemiMinorKm       float64
	PrecessionConst   float64 // oblateness perturbation coefficient, rad/day
	NodePrecession    float64 // RAAN precession rate, rad/day
	PerigeePrecession float64 // argument-of-perigee precession rate, rad/day
	DragCoeff         float64 // (angular momentum rate)/(angular momentum), day⁻¹
}

// EpochRange is the span of element epochs in a dataset.
type EpochRange struct {
	Min epoch.DayTime
	Max epoch.DayTime
}

// Dataset is a complete set of element sets from one source.
type Dataset struct {
	Source     string
	FetchedAt  time.Time
	EpochRange EpochRange
	Satellites []*Elements
}

// NewDataset assembles a Dataset from parsed element sets, computing the
// epoch range over the members.
func NewDataset(source string, fetchedAt time.Time, sats []*Elements) *Dataset {
	ds := &Dataset{
		Source:     source,
		FetchedAt:  fetchedAt,
		Satellites: sats,
	}
	for i, e := range sats {
		if i == 0 || e.Epoch.Sub(ds.EpochRange.Min) < 0 {
			ds.EpochRange.Min = e.Epoch
		}
		if i == 0 || e.Epoch.Sub(ds.EpochRange.Max) > 0 {
			ds.EpochRange.Max = e.Epoch
		}
	}
	return ds
}

// ByCatalog returns the element set with the given catalog number, or nil.
func (d *Dataset) ByCatalog(num int64) *Elements {
	for _, e := range d.Satellites {
		if e.CatalogNum == num {
			return e
		}
	}
	return nil
}
