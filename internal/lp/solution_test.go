package lp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolutionJSON(t *testing.T) {
	tests := []struct {
		name     string
		solution *Solution
		want     string
	}{
		{
			name:     "optimal",
			solution: &Solution{Status: Optimal, Values: []float64{4, 0}, ObjectiveValue: 12},
			want:     `{"status":"optimal","values":[4,0],"objective_value":12}`,
		},
		{
			name:     "optimal at zero",
			solution: &Solution{Status: Optimal, Values: []float64{0, 0}},
			want:     `{"status":"optimal","values":[0,0],"objective_value":0}`,
		},
		{
			name:     "unbounded",
			solution: &Solution{Status: Unbounded, ObjectiveValue: 3},
			want:     `{"status":"unbounded"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.solution)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

func TestExtractReadsBasicColumns(t *testing.T) {
	tab, err := Build(textbookProgram())
	require.NoError(t, err)
	require.NoError(t, tab.Pivot(1, 0))

	sol := Extract(tab, textbookProgram(), testTol)
	assert.True(t, sol.IsOptimal())
	assertFloat64SlicesEqual(t, sol.Values, []float64{4, 0}, testTol)
	assert.InDelta(t, 12, sol.ObjectiveValue, testTol)
}
