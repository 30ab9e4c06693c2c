package lp

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

const testTol = 1e-9

// textbookProgram is max 3x1 + 2x2 s.t. x1 + x2 <= 4, x1 + 3x2 <= 6.
func textbookProgram() *LinearProgram {
	return &LinearProgram{
		Objective:    Maximize,
		Coefficients: []float64{3, 2},
		Constraints: []Constraint{
			{Coefficients: []float64{1, 1}, Relation: LessEqual, Value: 4},
			{Coefficients: []float64{1, 3}, Relation: LessEqual, Value: 6},
		},
	}
}

// wyndorProgram is max 3x1 + 5x2 s.t. x1 <= 4, 2x2 <= 12, 3x1 + 2x2 <= 18.
// Bland's rule needs three pivots to reach x = (2, 6), z = 36.
func wyndorProgram() *LinearProgram {
	return &LinearProgram{
		Objective:    Maximize,
		Coefficients: []float64{3, 5},
		Constraints: []Constraint{
			{Coefficients: []float64{1, 0}, Value: 4},
			{Coefficients: []float64{0, 2}, Value: 12},
			{Coefficients: []float64{3, 2}, Value: 18},
		},
	}
}

// unboundedProgram is max x1 s.t. x1 - x2 <= 1.
func unboundedProgram() *LinearProgram {
	return &LinearProgram{
		Objective:    Maximize,
		Coefficients: []float64{1, 0},
		Constraints: []Constraint{
			{Coefficients: []float64{1, -1}, Value: 1},
		},
	}
}

// assertFloat64SlicesEqual checks if two float64 slices are approximately equal
func assertFloat64SlicesEqual(t *testing.T, got, want []float64, tol float64) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}

	for i := range got {
		if math.Abs(got[i]-want[i]) > tol {
			t.Fatalf("at index %d: got %v, want %v (tolerance %v)", i, got[i], want[i], tol)
		}
	}
}

// assertMatEqual checks if two matrices are approximately equal
func assertMatEqual(t *testing.T, got, want mat.Matrix, tol float64) {
	t.Helper()

	rg, cg := got.Dims()
	rw, cw := want.Dims()
	if rg != rw || cg != cw {
		t.Fatalf("matrix dimensions mismatch: got %dx%d, want %dx%d", rg, cg, rw, cw)
	}

	for i := 0; i < rg; i++ {
		for j := 0; j < cg; j++ {
			g := got.At(i, j)
			w := want.At(i, j)
			if math.Abs(g-w) > tol {
				t.Fatalf("at (%d,%d): got %v, want %v (tolerance %v)", i, j, g, w, tol)
			}
		}
	}
}
