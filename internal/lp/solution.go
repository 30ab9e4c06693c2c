package lp

import (
	"encoding/json"
	"fmt"
	"math"
)

// Status is the outcome of a solve.
type Status int

const (
	Optimal Status = iota
	Unbounded
)

// String returns "optimal" or "unbounded".
func (s Status) String() string {
	switch s {
	case Optimal:
		return "optimal"
	case Unbounded:
		return "unbounded"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// MarshalJSON encodes the status as its name.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Solution is the result read off a terminal tableau. Values and
// ObjectiveValue are only meaningful when Status is Optimal.
type Solution struct {
	Status         Status    `json:"status"`
	Values         []float64 `json:"values,omitempty"`
	ObjectiveValue float64   `json:"objective_value"`
}

// MarshalJSON omits values and objective_value unless the status is Optimal.
func (s Solution) MarshalJSON() ([]byte, error) {
	out := struct {
		Status         Status    `json:"status"`
		Values         []float64 `json:"values,omitempty"`
		ObjectiveValue *float64  `json:"objective_value,omitempty"`
	}{Status: s.Status}
	if s.Status == Optimal {
		out.Values = s.Values
		out.ObjectiveValue = &s.ObjectiveValue
	}
	return json.Marshal(out)
}

// IsOptimal returns true if an optimum was found.
func (s *Solution) IsOptimal() bool {
	return s.Status == Optimal
}

// IsUnbounded returns true if the objective can grow without limit.
func (s *Solution) IsUnbounded() bool {
	return s.Status == Unbounded
}

// Extract reads the decision-variable values and objective off a terminal
// tableau. A variable is basic when its column, over the constraint rows, is
// a unit column within tol; it then takes that row's right-hand side,
// otherwise it is zero.
func Extract(t *Tableau, p *LinearProgram, tol float64) *Solution {
	rows, _ := t.m.Dims()
	rhs := t.RHSColumn()

	values := make([]float64, p.VariablesCount())
	for j := range values {
		if j >= t.variables {
			break
		}
		basicRow := -1
		unit := true
		for i := 1; i < rows; i++ {
			v := t.m.At(i, j)
			switch {
			case math.Abs(v-1) <= tol && basicRow == -1:
				basicRow = i
			case math.Abs(v) <= tol:
			default:
				unit = false
			}
			if !unit {
				break
			}
		}
		if unit && basicRow != -1 {
			values[j] = t.m.At(basicRow, rhs)
		}
	}

	// Row 0's right-hand side holds the maximized quantity: the objective
	// itself for maximize, its negation for minimize.
	objective := t.m.At(0, rhs)
	if p.Objective == Minimize {
		objective = 0 - objective
	}

	return &Solution{
		Status:         Optimal,
		Values:         values,
		ObjectiveValue: objective,
	}
}
