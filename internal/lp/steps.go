package lp

import (
	"encoding/json"
	"fmt"
)

// StepKind tags what a recorded snapshot represents.
type StepKind int

const (
	StepInitial StepKind = iota
	StepPivotSelected
	StepPivotApplied
	StepOptimal
	StepUnbounded
)

// String returns the kind's name.
func (k StepKind) String() string {
	switch k {
	case StepInitial:
		return "initial"
	case StepPivotSelected:
		return "pivot_selected"
	case StepPivotApplied:
		return "pivot_applied"
	case StepOptimal:
		return "optimal"
	case StepUnbounded:
		return "unbounded"
	default:
		return fmt.Sprintf("StepKind(%d)", int(k))
	}
}

// MarshalJSON encodes the kind as its name.
func (k StepKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// PivotPosition is a (row, column) location in a tableau.
type PivotPosition struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

// Step is one immutable snapshot of the tableau during a solve.
type Step struct {
	Kind        StepKind       `json:"kind"`
	Iteration   int            `json:"iteration"`
	Description string         `json:"description"`
	Pivot       *PivotPosition `json:"pivot,omitempty"`
	Tableau     *Tableau       `json:"tableau"`
}

// Recorder is an append-only log of snapshots.
type Recorder struct {
	steps []Step
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{steps: make([]Step, 0, 8)}
}

// Initial records the tableau before any pivot.
func (r *Recorder) Initial(t *Tableau) {
	r.append(Step{Kind: StepInitial, Description: "Initial tableau"}, t)
}

// Selected records the tableau with the pivot chosen for iteration, before
// it is applied.
func (r *Recorder) Selected(t *Tableau, iteration int, pivot PivotPosition) {
	r.append(Step{
		Kind:        StepPivotSelected,
		Iteration:   iteration,
		Description: fmt.Sprintf("Iteration %d: pivot on row %d, column %d", iteration, pivot.Row, pivot.Column),
		Pivot:       &pivot,
	}, t)
}

// Applied records the tableau right after the pivot of iteration.
func (r *Recorder) Applied(t *Tableau, iteration int) {
	r.append(Step{
		Kind:        StepPivotApplied,
		Iteration:   iteration,
		Description: fmt.Sprintf("Iteration %d: after pivot operation", iteration),
	}, t)
}

// Unbounded records the terminal tableau of an unbounded program.
func (r *Recorder) Unbounded(t *Tableau, iteration, col int) {
	r.append(Step{
		Kind:        StepUnbounded,
		Iteration:   iteration,
		Description: fmt.Sprintf("Unbounded: no positive entry in column %d", col),
	}, t)
}

// Optimal records the terminal tableau of a solved program.
func (r *Recorder) Optimal(t *Tableau, iteration int) {
	r.append(Step{
		Kind:        StepOptimal,
		Iteration:   iteration,
		Description: "Optimal solution found",
	}, t)
}

func (r *Recorder) append(s Step, t *Tableau) {
	s.Tableau = t.Clone()
	r.steps = append(r.steps, s)
}

// Len returns the number of recorded steps.
func (r *Recorder) Len() int {
	return len(r.steps)
}

// Steps returns the recorded history.
func (r *Recorder) Steps() []Step {
	return r.steps
}

// Cursor navigates a finished step history. It is not safe for concurrent
// use.
type Cursor struct {
	steps []Step
	index int
}

// NewCursor positions a cursor on the first step.
func NewCursor(steps []Step) *Cursor {
	return &Cursor{steps: steps}
}

// Index returns the current position.
func (c *Cursor) Index() int { return c.index }

// Len returns the number of steps.
func (c *Cursor) Len() int { return len(c.steps) }

// Current returns the step under the cursor.
func (c *Cursor) Current() (Step, bool) {
	if len(c.steps) == 0 {
		return Step{}, false
	}
	return c.steps[c.index], true
}

// Advance moves one step forward. It does nothing on the last step.
func (c *Cursor) Advance() bool {
	if c.index >= len(c.steps)-1 {
		return false
	}
	c.index++
	return true
}

// Retreat moves one step back. It does nothing on the first step.
func (c *Cursor) Retreat() bool {
	if c.index == 0 {
		return false
	}
	c.index--
	return true
}

// First jumps to the first step.
func (c *Cursor) First() {
	c.index = 0
}

// Last jumps to the last step.
func (c *Cursor) Last() {
	if len(c.steps) > 0 {
		c.index = len(c.steps) - 1
	}
}

// Seek jumps to step i.
func (c *Cursor) Seek(i int) error {
	if i < 0 || i >= len(c.steps) {
		return newErrorf(ErrStepOutOfRange, "step %d of %d", i, len(c.steps)).WithComponent("cursor")
	}
	c.index = i
	return nil
}
