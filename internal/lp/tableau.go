package lp

import (
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Tableau is the simplex matrix of a program in standard form.
//
// Row 0 holds the reduced costs, rows 1..m the constraints. Columns are the
// n decision variables, then one slack per constraint, then the right-hand
// side.
type Tableau struct {
	m           *mat.Dense
	variables   int
	constraints int
}

// ToReducedCostRow encodes the objective into row 0 of a tableau.
//
// Maximize coefficients are negated so that "some entry is negative" means
// the objective can still grow. Minimize coefficients are copied as they
// are, which makes the tableau maximize their negation.
func ToReducedCostRow(objective ObjectiveType, coefficients []float64) []float64 {
	row := make([]float64, len(coefficients))
	for j, c := range coefficients {
		if objective == Maximize {
			row[j] = -c
		} else {
			row[j] = c
		}
	}
	return row
}

// Build converts p into its initial tableau with every slack basic.
//
// Every constraint is read as "<=" regardless of its Relation.
func Build(p *LinearProgram) (*Tableau, error) {
	if err := p.Validate(); err != nil {
		if e, ok := AsError(err); ok {
			e.WithOperation("build").WithComponent("tableau")
		}
		return nil, err
	}

	n, m := p.VariablesCount(), p.ConstraintsCount()
	t := &Tableau{
		m:           mat.NewDense(m+1, n+m+1, nil),
		variables:   n,
		constraints: m,
	}

	for j, v := range ToReducedCostRow(p.Objective, p.Coefficients) {
		t.m.Set(0, j, v)
	}
	rhs := t.RHSColumn()
	for i, c := range p.Constraints {
		row := i + 1
		for j, v := range c.Coefficients {
			t.m.Set(row, j, v)
		}
		t.m.Set(row, n+i, 1)
		t.m.Set(row, rhs, c.Value)
	}
	return t, nil
}

// NewTableau wraps a raw matrix. The matrix must have constraints+1 rows and
// variables+constraints+1 columns.
func NewTableau(variables, constraints int, data []float64) (*Tableau, error) {
	rows, cols := constraints+1, variables+constraints+1
	if variables < 1 || constraints < 1 {
		return nil, newErrorf(ErrEmptyProgram, "%d variables, %d constraints", variables, constraints).
			WithComponent("tableau")
	}
	if len(data) != rows*cols {
		return nil, newErrorf(ErrShapeMismatch, "got %d values, want %dx%d", len(data), rows, cols).
			WithComponent("tableau")
	}
	return &Tableau{
		m:           mat.NewDense(rows, cols, append([]float64(nil), data...)),
		variables:   variables,
		constraints: constraints,
	}, nil
}

// Dims returns the number of rows and columns.
func (t *Tableau) Dims() (rows, cols int) {
	return t.m.Dims()
}

// At returns the entry at row i, column j.
func (t *Tableau) At(i, j int) float64 {
	return t.m.At(i, j)
}

// Variables is the number of decision-variable columns.
func (t *Tableau) Variables() int { return t.variables }

// Constraints is the number of constraint rows.
func (t *Tableau) Constraints() int { return t.constraints }

// RHSColumn is the index of the right-hand-side column.
func (t *Tableau) RHSColumn() int {
	_, c := t.m.Dims()
	return c - 1
}

// Matrix exposes the tableau as a read-only gonum matrix.
func (t *Tableau) Matrix() mat.Matrix {
	return t.m
}

// Row returns a copy of row i.
func (t *Tableau) Row(i int) []float64 {
	return mat.Row(nil, i, t.m)
}

// Rows returns a copy of the matrix as a slice of rows.
func (t *Tableau) Rows() [][]float64 {
	r, _ := t.m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = t.Row(i)
	}
	return out
}

// Clone returns a deep copy that shares nothing with t.
func (t *Tableau) Clone() *Tableau {
	return &Tableau{
		m:           mat.DenseCopyOf(t.m),
		variables:   t.variables,
		constraints: t.constraints,
	}
}

// ColumnLabels names the columns x1..xn, s1..sm, rhs.
func (t *Tableau) ColumnLabels() []string {
	labels := make([]string, 0, t.variables+t.constraints+1)
	for j := 1; j <= t.variables; j++ {
		labels = append(labels, fmt.Sprintf("x%d", j))
	}
	for i := 1; i <= t.constraints; i++ {
		labels = append(labels, fmt.Sprintf("s%d", i))
	}
	return append(labels, "rhs")
}

// String renders the matrix with gonum's formatter.
func (t *Tableau) String() string {
	return fmt.Sprintf("%v", mat.Formatted(t.m, mat.Squeeze()))
}

// MarshalJSON encodes the column labels and rows.
func (t *Tableau) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Columns []string    `json:"columns"`
		Rows    [][]float64 `json:"rows"`
	}{
		Columns: t.ColumnLabels(),
		Rows:    t.Rows(),
	})
}
