package lp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearProgramJSON(t *testing.T) {
	input := `{
		"objective": "max",
		"coefficients": [3, 2],
		"constraints": [
			{"coefficients": [1, 1], "relation": "<=", "value": 4},
			{"coefficients": [1, 3], "relation": "≥", "value": 6}
		]
	}`

	var p LinearProgram
	require.NoError(t, json.Unmarshal([]byte(input), &p))
	assert.Equal(t, Maximize, p.Objective)
	assert.Equal(t, GreaterEqual, p.Constraints[1].Relation)
	require.NoError(t, p.Validate())

	out, err := json.Marshal(&p)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"objective":"maximize"`)
	assert.Contains(t, string(out), `"relation":">="`)

	assert.Error(t, json.Unmarshal([]byte(`{"objective":"sideways"}`), &p))
	assert.Error(t, json.Unmarshal([]byte(`{"constraints":[{"relation":"<>"}]}`), &p))
}

func TestEditingReturnsCopies(t *testing.T) {
	p := textbookProgram()

	added := p.AddVariable(7)
	assert.Equal(t, 2, p.VariablesCount())
	assert.Equal(t, 3, added.VariablesCount())
	assert.Equal(t, []float64{1, 1, 0}, added.Constraints[0].Coefficients)
	require.NoError(t, added.Validate())

	removed, err := added.RemoveVariable(0)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 7}, removed.Coefficients)
	assert.Equal(t, []float64{3, 0}, removed.Constraints[1].Coefficients)
	assert.Equal(t, []float64{3, 2, 7}, added.Coefficients)

	withRow, err := p.AddConstraint(Constraint{Coefficients: []float64{2, 1}, Value: 5})
	require.NoError(t, err)
	assert.Equal(t, 3, withRow.ConstraintsCount())
	assert.Equal(t, 2, p.ConstraintsCount())

	_, err = p.AddConstraint(Constraint{Coefficients: []float64{1}})
	assert.ErrorIs(t, err, ErrShapeMismatch)

	fewer, err := withRow.RemoveConstraint(0)
	require.NoError(t, err)
	assert.Equal(t, 6.0, fewer.Constraints[0].Value)

	edited, err := p.SetObjectiveCoefficient(1, 9)
	require.NoError(t, err)
	assert.Equal(t, 9.0, edited.Coefficients[1])
	assert.Equal(t, 2.0, p.Coefficients[1])

	edited, err = p.SetConstraintCoefficient(1, 0, -4)
	require.NoError(t, err)
	assert.Equal(t, -4.0, edited.Constraints[1].Coefficients[0])
	assert.Equal(t, 1.0, p.Constraints[1].Coefficients[0])

	_, err = p.SetConstraintCoefficient(5, 0, 1)
	assert.Error(t, err)
}

func TestEditingKeepsOneVariableAndConstraint(t *testing.T) {
	p := unboundedProgram()

	_, err := p.RemoveConstraint(0)
	assert.ErrorIs(t, err, ErrEmptyProgram)

	one, err := p.RemoveVariable(1)
	require.NoError(t, err)
	_, err = one.RemoveVariable(0)
	assert.ErrorIs(t, err, ErrEmptyProgram)

	_, err = p.RemoveVariable(3)
	assert.Error(t, err)
}
