// Package propagation advances a parsed orbital element set to an arbitrary
// instant using the Plan-13 first-order secular/drag perturbation model.
//
// The model is deliberately simpler than SGP4: mean elements are advanced
// linearly with a quadratic drag correction, Kepler's equation is solved by
// Newton–Raphson, and the orbital-plane state is rotated through the
// celestial frame into Earth-fixed geocentric coordinates via a linearly
// advancing Greenwich hour angle. Constants and conventions follow the
// published algorithm exactly so predictions stay compatible with existing
// ground-station tooling.
package propagation

import (
	"math"
	"time"

	"github.com/rotor/rotorgo/internal/epoch"
	"github.com/rotor/rotorgo/internal/metrics"
	"github.com/rotor/rotorgo/internal/tle"
	"github.com/rotor/rotorgo/internal/transform"
)

// refEpochDN is the day number of the astronomical reference epoch that
// anchors the Greenwich hour angle model.
var refEpochDN = epoch.DayNumber(transform.SunRefYear, 1, 0)

// Predict computes the satellite's geocentric position and velocity at t.
// It never mutates el; all scratch state is local and the result is a fresh
// value. A non-converging Kepler solve fails this single prediction with a
// *ConvergenceError and has no other effect.
func Predict(el *tle.Elements, t epoch.DayTime) (State, error) {
	start := time.Now()
	st, err := predict(el, t)
	metrics.RecordPredict(time.Since(start), err)
	return st, err
}

func predict(el *tle.Elements, t epoch.DayTime) (State, error) {
	// Greenwich hour angle of Aries at the element epoch.
	teg := float64(el.Epoch.DN-refEpochDN) + el.Epoch.TN
	ghae := transform.Radians(transform.GHAAries0) + teg*transform.SiderealRate

	// Elapsed days since the element epoch, and the linear drag factor with
	// its two correction multipliers.
	td := t.Sub(el.Epoch)
	dt := el.DragCoeff * td / 2
	kd := 1 + 4*dt
	kdp := 1 - 7*dt

	// Mean anomaly with quadratic drag correction, reduced into [0, 2π);
	// whole revolutions accumulate onto the epoch revolution number.
	ma := el.MeanAnomaly + el.MeanMotion*td*(1-3*dt)
	dr := math.Trunc(ma / (2 * math.Pi))
	ma -= dr * 2 * math.Pi
	rev := float64(el.RevNumber) + dr

	sol, err := solveKepler(ma, el.Eccentricity)
	metrics.ObserveKeplerIterations(sol.Iterations)
	if err != nil {
		return State{}, err
	}

	// Drag-corrected ellipse axes and the in-plane state.
	a := el.SemiMajorKm * kd
	b := el.SemiMinorKm * kd
	rs := a * sol.Dnom

	sx := a * (sol.CosEA - el.Eccentricity)
	sy := b * sol.SinEA
	vx := -a * sol.SinEA / sol.Dnom * el.MeanMotionRadSec
	vy := b * sol.CosEA / sol.Dnom * el.MeanMotionRadSec

	// Precessed argument of perigee and ascending node.
	ap := el.ArgPerigee + el.PerigeePrecession*td*kdp
	raan := el.RAAN + el.NodePrecession*td*kdp

	cw, sw := math.Cos(ap), math.Sin(ap)
	cq, sq := math.Cos(raan), math.Sin(raan)
	ci, si := math.Cos(el.Inclination), math.Sin(el.Inclination)

	// Rows of the rotation from orbital-plane to celestial coordinates.
	cx := transform.Vec3{X: cw*cq - sw*ci*sq, Y: -sw*cq - cw*ci*sq, Z: si * sq}
	cy := transform.Vec3{X: cw*sq + sw*ci*cq, Y: -sw*sq + cw*ci*cq, Z: -si * cq}
	cz := transform.Vec3{X: sw * si, Y: cw * si, Z: ci}

	satCel := transform.Vec3{
		X: sx*cx.X + sy*cx.Y,
		Y: sx*cy.X + sy*cy.Y,
		Z: sx*cz.X + sy*cz.Y,
	}
	velCel := transform.Vec3{
		X: vx*cx.X + vy*cx.Y,
		Y: vx*cy.X + vy*cy.Y,
		Z: vx*cz.X + vy*cz.Y,
	}

	// Rotate by the current Greenwich hour angle into the Earth-fixed frame.
	ghaa := ghae + transform.SiderealRate*td

	return State{
		Position:  satCel.RotateZ(-ghaa),
		Velocity:  velCel.RotateZ(-ghaa),
		RangeKm:   rs,
		RevNumber: rev,
	}, nil
}
