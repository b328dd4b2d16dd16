package propagation

import (
	"fmt"
	"math"
)

// Kepler-solve stopping rule and iteration bound. The 1e-5 radian tolerance
// is part of the published algorithm's contract; the bound is a hardening
// addition so pathological eccentricities fail the prediction instead of
// looping forever.
const (
	keplerTolerance     = 1e-5
	maxKeplerIterations = 100
)

// ConvergenceError reports a Kepler solve that failed to reach the stopping
// tolerance within the iteration bound.
type ConvergenceError struct {
	Eccentricity float64
	MeanAnomaly  float64
	Iterations   int
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("kepler solve did not converge after %d iterations (e=%g, M=%g)",
		e.Iterations, e.Eccentricity, e.MeanAnomaly)
}

// keplerSolution carries the converged eccentric anomaly together with the
// trigonometric intermediates the position/velocity formulas reuse.
type keplerSolution struct {
	EA         float64 // eccentric anomaly, rad
	CosEA      float64
	SinEA      float64
	Dnom       float64 // 1 − e·cos E
	Iterations int
}

// solveKepler solves E − e·sin(E) = M for E by Newton–Raphson iteration
// starting from E₀ = M, stopping when the correction magnitude drops below
// keplerTolerance. The returned intermediates are those of the final
// iteration before the last correction, matching the reference algorithm.
func solveKepler(m, ecc float64) (keplerSolution, error) {
	sol := keplerSolution{EA: m}
	for {
		sol.Iterations++
		sol.CosEA = math.Cos(sol.EA)
		sol.SinEA = math.Sin(sol.EA)
		sol.Dnom = 1 - ecc*sol.CosEA

		d := (sol.EA - ecc*sol.SinEA - m) / sol.Dnom
		sol.EA -= d
		if math.Abs(d) < keplerTolerance {
			return sol, nil
		}
		if sol.Iterations >= maxKeplerIterations {
			return sol, &ConvergenceError{
				Eccentricity: ecc,
				MeanAnomaly:  m,
				Iterations:   sol.Iterations,
			}
		}
	}
}
