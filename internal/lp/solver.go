package lp

import (
	"context"

	"go.uber.org/zap"
)

// DefaultIterationFactor scales the iteration cap with problem size when no
// explicit cap is set.
const DefaultIterationFactor = 50

// SolverConfig contains configuration for the solver.
type SolverConfig struct {
	// Tolerance for zero, one and sign checks. Defaults to DefaultTolerance.
	Tolerance float64

	// MaxIterations caps the number of pivots. Zero derives the cap from
	// IterationFactor × (variables + constraints).
	MaxIterations int

	// IterationFactor is used when MaxIterations is zero.
	IterationFactor int

	// Strict rejects rows that are not "<=" and negative right-hand sides
	// instead of reading every row as "<=".
	Strict bool

	// Logger receives pivot-level debug logs. Defaults to a no-op logger.
	Logger *zap.Logger
}

// Result contains the outcome of one solve together with its replayable
// history.
type Result struct {
	Solution   *Solution `json:"solution"`
	Steps      []Step    `json:"steps"`
	Iterations int       `json:"iterations"`
}

// Solver runs the tableau method.
type Solver struct {
	config SolverConfig
	logger *zap.Logger
}

// NewSolver creates a solver, filling in defaults for unset fields.
func NewSolver(config SolverConfig) *Solver {
	if config.Tolerance <= 0 {
		config.Tolerance = DefaultTolerance
	}
	if config.IterationFactor < 1 {
		config.IterationFactor = DefaultIterationFactor
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Solver{
		config: config,
		logger: logger.Named("simplex"),
	}
}

// Config returns the effective configuration.
func (s *Solver) Config() SolverConfig {
	return s.config
}

// IterationLimit returns the pivot cap applied to p.
func (s *Solver) IterationLimit(p *LinearProgram) int {
	if s.config.MaxIterations > 0 {
		return s.config.MaxIterations
	}
	return s.config.IterationFactor * (p.VariablesCount() + p.ConstraintsCount())
}

// Solve builds the tableau for p and pivots until it is optimal or
// unbounded. Unboundedness is reported through Solution.Status, not as an
// error. The returned history is complete and independent of later solves.
func (s *Solver) Solve(ctx context.Context, p *LinearProgram) (*Result, error) {
	t, err := Build(p)
	if err != nil {
		return nil, err
	}
	if s.config.Strict {
		if err := checkStandardForm(p); err != nil {
			return nil, err
		}
	}

	tol := s.config.Tolerance
	limit := s.IterationLimit(p)
	rec := NewRecorder()
	rec.Initial(t)

	log := s.logger.With(
		zap.Int("variables", p.VariablesCount()),
		zap.Int("constraints", p.ConstraintsCount()),
		zap.String("objective", p.Objective.String()),
	)

	iteration := 0
	for {
		col, ok := PivotColumn(t, tol)
		if !ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		row, ok := PivotRow(t, col, tol)
		if !ok {
			rec.Unbounded(t, iteration+1, col)
			log.Info("program is unbounded", zap.Int("column", col), zap.Int("pivots", iteration))
			return &Result{
				Solution:   &Solution{Status: Unbounded},
				Steps:      rec.Steps(),
				Iterations: iteration,
			}, nil
		}

		if iteration >= limit {
			log.Warn("iteration cap reached", zap.Int("limit", limit))
			return nil, newErrorf(ErrDidNotConverge, "no optimum after %d pivots", limit).
				WithOperation("solve").WithComponent("simplex")
		}

		iteration++
		rec.Selected(t, iteration, PivotPosition{Row: row, Column: col})
		if err := t.Pivot(row, col); err != nil {
			log.Warn("pivot failed", zap.Int("iteration", iteration), zap.Error(err))
			return nil, err
		}
		rec.Applied(t, iteration)

		log.Debug("pivot applied",
			zap.Int("iteration", iteration),
			zap.Int("row", row),
			zap.Int("column", col),
			zap.Float64("objective_rhs", t.At(0, t.RHSColumn())),
		)
	}

	rec.Optimal(t, iteration)
	solution := Extract(t, p, tol)
	log.Info("optimal solution found",
		zap.Int("pivots", iteration),
		zap.Float64("objective_value", solution.ObjectiveValue),
	)

	return &Result{
		Solution:   solution,
		Steps:      rec.Steps(),
		Iterations: iteration,
	}, nil
}

// checkStandardForm rejects programs whose all-slack start is not a valid
// basic feasible solution.
func checkStandardForm(p *LinearProgram) error {
	for i, c := range p.Constraints {
		if c.Relation != LessEqual {
			return newErrorf(ErrUnsupportedRelation, "constraint %d uses %q", i, c.Relation).
				WithOperation("solve").WithComponent("simplex")
		}
		if c.Value < 0 {
			return newErrorf(ErrInfeasibleStart, "constraint %d has right-hand side %g", i, c.Value).
				WithOperation("solve").WithComponent("simplex")
		}
	}
	return nil
}
