package lp

// Dual derives the dual of a canonical program: a maximize program with "<="
// rows becomes a minimize program with ">=" rows and vice versa. The
// coefficient matrix is transposed, constraint values become objective
// coefficients and objective coefficients become constraint values.
//
// Mixed relations are not handled; each row is assumed to already match the
// objective direction.
func Dual(p *LinearProgram) *LinearProgram {
	relation := LessEqual
	if p.Objective == Maximize {
		relation = GreaterEqual
	}

	dual := &LinearProgram{
		Objective:    p.Objective.Opposite(),
		Coefficients: make([]float64, p.ConstraintsCount()),
		Constraints:  make([]Constraint, p.VariablesCount()),
	}
	for i, c := range p.Constraints {
		dual.Coefficients[i] = c.Value
	}
	for k := range dual.Constraints {
		row := make([]float64, p.ConstraintsCount())
		for i, c := range p.Constraints {
			if k < len(c.Coefficients) {
				row[i] = c.Coefficients[k]
			}
		}
		dual.Constraints[k] = Constraint{
			Coefficients: row,
			Relation:     relation,
			Value:        p.Coefficients[k],
		}
	}
	return dual
}

// DualVariableSign returns the sign restriction on every dual variable:
// ">=" (non-negative) when p maximizes, "<=" (non-positive) otherwise.
func DualVariableSign(p *LinearProgram) Relation {
	if p.Objective == Maximize {
		return GreaterEqual
	}
	return LessEqual
}
