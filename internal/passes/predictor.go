// Package passes scans a time horizon for intervals when a satellite is
// above an observer's horizon and reports each interval as a pass with its
// rise, peak and set geometry.
package passes

import (
	"context"
	"fmt"
	"time"

	"github.com/rotor/rotorgo/internal/epoch"
	"github.com/rotor/rotorgo/internal/propagation"
	"github.com/rotor/rotorgo/internal/sun"
	"github.com/rotor/rotorgo/internal/tle"
	"github.com/rotor/rotorgo/internal/transform"
)

// GroundTrackPoint is a sub-satellite position at a specific time during a pass.
type GroundTrackPoint struct {
	Time      time.Time `json:"time"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Altitude  float64   `json:"altitude_km"`
	Elevation float64   `json:"elevation"` // degrees above the observer's horizon
}

// PassEvent describes a single satellite pass over an observer location.
// ObserverDark reports whether the Sun sat below civil-plus twilight at the
// moment of peak elevation, the cheap proxy for a visually observable pass.
type PassEvent struct {
	StartTime        time.Time          `json:"start_time"`
	MaxElevationTime time.Time          `json:"max_elevation_time"`
	EndTime          time.Time          `json:"end_time"`
	DurationSeconds  float64            `json:"duration_seconds"`
	MaxElevation     float64            `json:"max_elevation"`
	AzimuthAtMax     float64            `json:"azimuth_at_max"`
	StartAzimuth     float64            `json:"start_azimuth"`
	EndAzimuth       float64            `json:"end_azimuth"`
	SunAltitudeDeg   float64            `json:"sun_altitude"`
	ObserverDark     bool               `json:"observer_dark"`
	GroundTrack      []GroundTrackPoint `json:"ground_track"`
}

// Request holds the parameters for a pass prediction request.
type Request struct {
	Observer     *transform.Observer
	Elements     *tle.Elements
	Start        epoch.DayTime
	HorizonHours float64
	MinElevation float64 // degrees
	MaxPasses    int
}

// Scan cadences, in fractional days.
const (
	coarseStep      = 30.0 / 86400.0
	fineStep        = 1.0 / 86400.0
	groundTrackStep = 10 // seconds between ground track samples
	minPassDur      = 10.0 / 86400.0

	// Sun altitude below which the observer counts as dark (civil
	// twilight boundary).
	darknessAltitudeDeg = -6.0
)

// Predict finds passes of one satellite over one observer within the
// requested horizon. The scan runs coarse 30-second steps and refines each
// above-horizon hit at 1-second resolution, aligned to whole steps from the
// rounded start so repeated calls with the same request sample the same
// instants.
func Predict(ctx context.Context, req Request) ([]PassEvent, error) {
	if req.Elements == nil {
		return nil, fmt.Errorf("predict passes: no element set")
	}
	if req.MaxPasses <= 0 {
		req.MaxPasses = 10
	}

	start := req.Start.RoundUp(coarseStep)
	end := req.Start.Add(req.HorizonHours / 24.0)

	var passes []PassEvent
	t := start
	for t.Sub(end) < 0 && len(passes) < req.MaxPasses {
		if err := ctx.Err(); err != nil {
			return passes, err
		}

		la, _, err := lookAt(req.Elements, req.Observer, t)
		if err != nil {
			return passes, fmt.Errorf("predict passes: %w", err)
		}

		if la.AltitudeDeg > req.MinElevation {
			pass, windowEnd, err := refinePass(ctx, req, t, end)
			if err != nil {
				return passes, err
			}
			if pass != nil && pass.EndTime.Sub(pass.StartTime).Seconds() >= minPassDur*86400 {
				passes = append(passes, *pass)
			}
			t = windowEnd.Add(coarseStep)
		} else {
			t = t.Add(coarseStep)
		}
	}

	return passes, nil
}

// refinePass scans at fine resolution around a coarse above-horizon hit:
// back up one coarse step to catch the true rise, then walk forward to the
// set. Returns the pass and the instant the window closed.
func refinePass(ctx context.Context, req Request, coarseHit, windowEnd epoch.DayTime) (*PassEvent, epoch.DayTime, error) {
	searchStart := coarseHit.Add(-coarseStep)
	if searchStart.Sub(req.Start) < 0 {
		searchStart = req.Start
	}

	var (
		riseTime    epoch.DayTime
		riseAz      float64
		setTime     epoch.DayTime
		setAz       float64
		maxEl       float64
		maxElTime   epoch.DayTime
		maxElAz     float64
		wasAbove    bool
		foundRise   bool
		foundSet    bool
		groundTrack []GroundTrackPoint
	)

	t := searchStart
	for t.Sub(windowEnd) < 0 {
		if err := ctx.Err(); err != nil {
			return nil, t, err
		}

		la, st, err := lookAt(req.Elements, req.Observer, t)
		if err != nil {
			return nil, t, fmt.Errorf("refine pass: %w", err)
		}

		above := la.AltitudeDeg >= req.MinElevation

		if above && !wasAbove {
			riseTime = t
			riseAz = la.AzimuthDeg
			foundRise = true
			maxEl = la.AltitudeDeg
			maxElTime = t
			maxElAz = la.AzimuthDeg
		}

		if above && foundRise {
			if la.AltitudeDeg > maxEl {
				maxEl = la.AltitudeDeg
				maxElTime = t
				maxElAz = la.AzimuthDeg
			}
			secSinceRise := int(t.Sub(riseTime)*86400 + 0.5)
			if secSinceRise%groundTrackStep == 0 {
				lat, lon := st.GroundTrack()
				groundTrack = append(groundTrack, GroundTrackPoint{
					Time:      t.Time(),
					Latitude:  lat,
					Longitude: lon,
					Altitude:  st.AltitudeKm(),
					Elevation: la.AltitudeDeg,
				})
			}
		}

		if !above && wasAbove && foundRise {
			setTime = t
			setAz = la.AzimuthDeg
			foundSet = true
			break
		}

		wasAbove = above
		t = t.Add(fineStep)
	}

	// Satellite still above the horizon at the window edge: close there.
	if foundRise && !foundSet && wasAbove {
		la, _, err := lookAt(req.Elements, req.Observer, t)
		if err != nil {
			return nil, t, err
		}
		setTime = t
		setAz = la.AzimuthDeg
		foundSet = true
		if la.AltitudeDeg > maxEl {
			maxEl = la.AltitudeDeg
			maxElTime = t
			maxElAz = la.AzimuthDeg
		}
	}

	if !foundRise || !foundSet {
		return nil, t, nil
	}

	sunAlt := sun.AltitudeDeg(req.Observer, maxElTime)

	return &PassEvent{
		StartTime:        riseTime.Time(),
		MaxElevationTime: maxElTime.Time(),
		EndTime:          setTime.Time(),
		DurationSeconds:  setTime.Sub(riseTime) * 86400,
		MaxElevation:     maxEl,
		AzimuthAtMax:     maxElAz,
		StartAzimuth:     riseAz,
		EndAzimuth:       setAz,
		SunAltitudeDeg:   sunAlt,
		ObserverDark:     observerDark(sunAlt),
		GroundTrack:      groundTrack,
	}, setTime, nil
}

// observerDark reports whether a site with the Sun at the given altitude
// counts as dark for pass visibility. The boundary is civil twilight.
func observerDark(sunAltDeg float64) bool {
	return sunAltDeg < darknessAltitudeDeg
}

func lookAt(el *tle.Elements, obs *transform.Observer, t epoch.DayTime) (transform.LookAngles, propagation.State, error) {
	st, err := propagation.Predict(el, t)
	if err != nil {
		return transform.LookAngles{}, propagation.State{}, err
	}
	return st.Look(obs), st, nil
}
