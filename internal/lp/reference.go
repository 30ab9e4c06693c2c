package lp

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	gonumlp "gonum.org/v1/gonum/optimize/convex/lp"
)

// ReferenceSolve solves the same slack-augmented system the tableau method
// works on with gonum's two-phase simplex. It gives an independent check of
// Solve's optimum; it reads every row as "<=" just like Build.
func ReferenceSolve(p *LinearProgram, tol float64) (*Solution, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	n, m := p.VariablesCount(), p.ConstraintsCount()
	c := make([]float64, n+m)
	for j, v := range ToReducedCostRow(p.Objective, p.Coefficients) {
		c[j] = v
	}

	A := mat.NewDense(m, n+m, nil)
	b := make([]float64, m)
	for i, row := range p.Constraints {
		for j, v := range row.Coefficients {
			A.Set(i, j, v)
		}
		A.Set(i, n+i, 1)
		b[i] = row.Value
	}

	optF, optX, err := gonumlp.Simplex(c, A, b, tol, nil)
	switch {
	case errors.Is(err, gonumlp.ErrUnbounded):
		return &Solution{Status: Unbounded}, nil
	case err != nil:
		return nil, &Error{Message: "reference simplex failed", Op: "reference", Component: "gonum", Err: err}
	}

	// gonum minimizes c·x, the negation of what the tableau maximizes.
	objective := -optF
	if p.Objective == Minimize {
		objective = optF
	}
	if objective == 0 {
		objective = math.Abs(objective)
	}

	return &Solution{
		Status:         Optimal,
		Values:         append([]float64(nil), optX[:n]...),
		ObjectiveValue: objective,
	}, nil
}
