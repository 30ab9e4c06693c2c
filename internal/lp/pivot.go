package lp

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// DefaultTolerance is the epsilon used for sign and unit-column checks when
// no tolerance is configured.
const DefaultTolerance = 1e-9

// CanImprove reports whether row 0 has an entry below -tol outside the
// right-hand side.
func CanImprove(t *Tableau, tol float64) bool {
	_, ok := PivotColumn(t, tol)
	return ok
}

// PivotColumn returns the lowest-indexed column whose reduced cost is below
// -tol (Bland's rule for the entering variable).
func PivotColumn(t *Tableau, tol float64) (int, bool) {
	rhs := t.RHSColumn()
	for j := 0; j < rhs; j++ {
		if t.m.At(0, j) < -tol {
			return j, true
		}
	}
	return -1, false
}

// PivotRow runs the minimum-ratio test on column col. Only rows with an
// entry above tol take part. Ties keep the first row found. The second
// result is false when no row qualifies, which means the program is
// unbounded along col.
func PivotRow(t *Tableau, col int, tol float64) (int, bool) {
	rows, _ := t.m.Dims()
	rhs := t.RHSColumn()

	best := -1
	var bestRatio float64
	for i := 1; i < rows; i++ {
		entry := t.m.At(i, col)
		if entry <= tol {
			continue
		}
		ratio := t.m.At(i, rhs) / entry
		if best == -1 || ratio < bestRatio {
			best = i
			bestRatio = ratio
		}
	}
	return best, best != -1
}

// Pivot performs Gauss-Jordan elimination around (row, col) in place. The
// pivot row is scaled so the pivot element is 1, then a multiple of it is
// subtracted from every other row to clear column col. The pivot column is
// stored as an exact unit column afterwards.
//
// row must be a constraint row and col a variable or slack column holding a
// non-zero element; otherwise ErrInvalidPivot is returned and t is left
// unchanged. If the elimination produces an infinite or NaN entry,
// ErrNumericOverflow is returned and t must be discarded.
func (t *Tableau) Pivot(row, col int) error {
	rows, _ := t.m.Dims()
	if row < 1 || row >= rows || col < 0 || col >= t.RHSColumn() {
		return newErrorf(ErrInvalidPivot, "position (%d, %d) is outside rows 1..%d, columns 0..%d",
			row, col, rows-1, t.RHSColumn()-1).WithOperation("pivot").WithComponent("tableau")
	}

	pivotRow := t.m.RawRowView(row)
	if pivotRow[col] == 0 {
		return newErrorf(ErrInvalidPivot, "zero element at (%d, %d)", row, col).
			WithOperation("pivot").WithComponent("tableau")
	}
	floats.Scale(1/pivotRow[col], pivotRow)
	pivotRow[col] = 1

	for r := 0; r < rows; r++ {
		if r == row {
			continue
		}
		current := t.m.RawRowView(r)
		factor := current[col]
		if factor == 0 {
			continue
		}
		floats.AddScaled(current, -factor, pivotRow)
		current[col] = 0
	}

	return t.checkFinite()
}

func (t *Tableau) checkFinite() error {
	rows, cols := t.m.Dims()
	for i := 0; i < rows; i++ {
		for j, v := range t.m.RawRowView(i) {
			if math.IsInf(v, 0) || math.IsNaN(v) {
				return newErrorf(ErrNumericOverflow, "entry (%d, %d) is %g in a %dx%d tableau", i, j, v, rows, cols).
					WithOperation("pivot").WithComponent("tableau")
			}
		}
	}
	return nil
}
