// Package lp implements a tableau simplex solver for small linear programs,
// with a replayable history of every pivot and the primal to dual
// transformation.
package lp

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ObjectiveType is the optimization direction of a program.
type ObjectiveType int

const (
	Maximize ObjectiveType = iota
	Minimize
)

// String returns "maximize" or "minimize".
func (o ObjectiveType) String() string {
	switch o {
	case Maximize:
		return "maximize"
	case Minimize:
		return "minimize"
	default:
		return fmt.Sprintf("ObjectiveType(%d)", int(o))
	}
}

// Opposite returns the other direction.
func (o ObjectiveType) Opposite() ObjectiveType {
	if o == Maximize {
		return Minimize
	}
	return Maximize
}

// MarshalJSON encodes the direction as its name.
func (o ObjectiveType) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// UnmarshalJSON accepts "maximize"/"max" and "minimize"/"min".
func (o *ObjectiveType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch strings.ToLower(s) {
	case "maximize", "max":
		*o = Maximize
	case "minimize", "min":
		*o = Minimize
	default:
		return fmt.Errorf("unknown objective type %q", s)
	}
	return nil
}

// Relation is the comparison of a constraint row against its value.
type Relation int

const (
	LessEqual Relation = iota
	Equal
	GreaterEqual
)

// String returns "<=", "=" or ">=".
func (r Relation) String() string {
	switch r {
	case LessEqual:
		return "<="
	case Equal:
		return "="
	case GreaterEqual:
		return ">="
	default:
		return fmt.Sprintf("Relation(%d)", int(r))
	}
}

// MarshalJSON encodes the relation as its symbol.
func (r Relation) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON accepts the ASCII and unicode symbols.
func (r *Relation) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "<=", "≤", "le":
		*r = LessEqual
	case "=", "==", "eq":
		*r = Equal
	case ">=", "≥", "ge":
		*r = GreaterEqual
	default:
		return fmt.Errorf("unknown relation %q", s)
	}
	return nil
}

// Constraint is one row: Coefficients · x Relation Value.
type Constraint struct {
	Coefficients []float64 `json:"coefficients"`
	Relation     Relation  `json:"relation"`
	Value        float64   `json:"value"`
}

// LinearProgram is an objective over named decision variables x1..xn and a
// set of linear constraints. Values are treated as immutable by the solver;
// the editing helpers below return modified copies.
type LinearProgram struct {
	Objective    ObjectiveType `json:"objective"`
	Coefficients []float64     `json:"coefficients"`
	Constraints  []Constraint  `json:"constraints"`
}

// VariablesCount is the number of decision variables.
func (p *LinearProgram) VariablesCount() int {
	return len(p.Coefficients)
}

// ConstraintsCount is the number of constraint rows.
func (p *LinearProgram) ConstraintsCount() int {
	return len(p.Constraints)
}

// Validate checks the shape invariants the tableau builder relies on.
func (p *LinearProgram) Validate() error {
	if p.VariablesCount() < 1 || p.ConstraintsCount() < 1 {
		return newErrorf(ErrEmptyProgram, "%d variables, %d constraints",
			p.VariablesCount(), p.ConstraintsCount()).WithOperation("validate")
	}
	for i, c := range p.Constraints {
		if len(c.Coefficients) != p.VariablesCount() {
			return newErrorf(ErrShapeMismatch, "constraint %d has %d coefficients, want %d",
				i, len(c.Coefficients), p.VariablesCount()).WithOperation("validate")
		}
	}
	return nil
}

// Clone returns a deep copy.
func (p *LinearProgram) Clone() *LinearProgram {
	out := &LinearProgram{
		Objective:    p.Objective,
		Coefficients: append([]float64(nil), p.Coefficients...),
		Constraints:  make([]Constraint, len(p.Constraints)),
	}
	for i, c := range p.Constraints {
		out.Constraints[i] = Constraint{
			Coefficients: append([]float64(nil), c.Coefficients...),
			Relation:     c.Relation,
			Value:        c.Value,
		}
	}
	return out
}

// AddVariable returns a copy with one more variable whose objective
// coefficient is cost and whose constraint coefficients are zero.
func (p *LinearProgram) AddVariable(cost float64) *LinearProgram {
	out := p.Clone()
	out.Coefficients = append(out.Coefficients, cost)
	for i := range out.Constraints {
		out.Constraints[i].Coefficients = append(out.Constraints[i].Coefficients, 0)
	}
	return out
}

// RemoveVariable returns a copy without variable k. The last remaining
// variable cannot be removed.
func (p *LinearProgram) RemoveVariable(k int) (*LinearProgram, error) {
	if k < 0 || k >= p.VariablesCount() {
		return nil, fmt.Errorf("variable %d out of range [0,%d)", k, p.VariablesCount())
	}
	if p.VariablesCount() == 1 {
		return nil, newErrorf(ErrEmptyProgram, "cannot remove the only variable").WithOperation("remove variable")
	}
	out := p.Clone()
	out.Coefficients = append(out.Coefficients[:k], out.Coefficients[k+1:]...)
	for i := range out.Constraints {
		row := out.Constraints[i].Coefficients
		if k < len(row) {
			out.Constraints[i].Coefficients = append(row[:k], row[k+1:]...)
		}
	}
	return out, nil
}

// AddConstraint returns a copy with c appended.
func (p *LinearProgram) AddConstraint(c Constraint) (*LinearProgram, error) {
	if len(c.Coefficients) != p.VariablesCount() {
		return nil, newErrorf(ErrShapeMismatch, "constraint has %d coefficients, want %d",
			len(c.Coefficients), p.VariablesCount()).WithOperation("add constraint")
	}
	out := p.Clone()
	out.Constraints = append(out.Constraints, Constraint{
		Coefficients: append([]float64(nil), c.Coefficients...),
		Relation:     c.Relation,
		Value:        c.Value,
	})
	return out, nil
}

// RemoveConstraint returns a copy without constraint i. The last remaining
// constraint cannot be removed.
func (p *LinearProgram) RemoveConstraint(i int) (*LinearProgram, error) {
	if i < 0 || i >= p.ConstraintsCount() {
		return nil, fmt.Errorf("constraint %d out of range [0,%d)", i, p.ConstraintsCount())
	}
	if p.ConstraintsCount() == 1 {
		return nil, newErrorf(ErrEmptyProgram, "cannot remove the only constraint").WithOperation("remove constraint")
	}
	out := p.Clone()
	out.Constraints = append(out.Constraints[:i], out.Constraints[i+1:]...)
	return out, nil
}

// SetObjectiveCoefficient returns a copy with the cost of variable k set to v.
func (p *LinearProgram) SetObjectiveCoefficient(k int, v float64) (*LinearProgram, error) {
	if k < 0 || k >= p.VariablesCount() {
		return nil, fmt.Errorf("variable %d out of range [0,%d)", k, p.VariablesCount())
	}
	out := p.Clone()
	out.Coefficients[k] = v
	return out, nil
}

// SetConstraintCoefficient returns a copy with coefficient k of constraint i set to v.
func (p *LinearProgram) SetConstraintCoefficient(i, k int, v float64) (*LinearProgram, error) {
	if i < 0 || i >= p.ConstraintsCount() {
		return nil, fmt.Errorf("constraint %d out of range [0,%d)", i, p.ConstraintsCount())
	}
	if k < 0 || k >= len(p.Constraints[i].Coefficients) {
		return nil, fmt.Errorf("variable %d out of range [0,%d)", k, len(p.Constraints[i].Coefficients))
	}
	out := p.Clone()
	out.Constraints[i].Coefficients[k] = v
	return out, nil
}
