package sweep

import (
	"context"
	"math"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"project_finance/pkg/core/params"
	"project_finance/pkg/core/search"
)

func newSweeper() *Sweeper {
	log, _ := test.NewNullLogger()
	return New(search.NewSolver(search.DefaultConfig, log), log, 0)
}

func TestIRRGrid(t *testing.T) {
	s := newSweeper()
	rows := Axis{Field: params.FieldPrice, Values: []float64{0.25, 0.2829, 0.32}}
	cols := Axis{Field: params.FieldAEP, Values: []float64{2500, 3000}}

	g, err := s.IRRGrid(context.Background(), params.Default(), rows, cols)
	require.NoError(t, err)
	require.Len(t, g.Equity, 3)
	require.Len(t, g.Equity[0], 2)
	assert.Empty(t, g.Failures)
	assert.NotEmpty(t, g.RunID)

	for i := range rows.Values {
		for j := range cols.Values {
			assert.Greater(t, g.PreTax[i][j], g.PostTax[i][j])
			if i > 0 {
				assert.Greater(t, g.Equity[i][j], g.Equity[i-1][j], "price should raise equity IRR")
			}
			if j > 0 {
				assert.Greater(t, g.PreTax[i][j], g.PreTax[i][j-1], "hours should raise project IRR")
			}
		}
	}
	assert.InDelta(t, 0.1334, g.PreTax[1][1], 1e-3)

	// A second pass is served from the memo.
	_, misses := s.Stats()
	_, err = s.IRRGrid(context.Background(), params.Default(), rows, cols)
	require.NoError(t, err)
	hits, misses2 := s.Stats()
	assert.Equal(t, misses, misses2)
	assert.Equal(t, 6, hits)
}

func TestIRRGrid_FailedCellsAreNaN(t *testing.T) {
	s := newSweeper()
	rows := Axis{Field: params.FieldAEP, Values: []float64{0, 2500}}
	cols := Axis{Field: params.FieldPrice, Values: []float64{0.2829}}

	g, err := s.IRRGrid(context.Background(), params.Default(), rows, cols)
	require.NoError(t, err)
	require.Len(t, g.Failures, 1)
	assert.Equal(t, 0, g.Failures[0].Row)
	assert.ErrorIs(t, g.Failures[0].Err, params.ErrInvalidParameter)
	assert.True(t, math.IsNaN(g.PreTax[0][0]))
	assert.False(t, math.IsNaN(g.PreTax[1][0]))
}

func TestIRRGrid_RejectsBadAxes(t *testing.T) {
	s := newSweeper()
	ok := Axis{Field: params.FieldPrice, Values: []float64{0.3}}

	_, err := s.IRRGrid(context.Background(), params.Default(), Axis{Field: params.FieldAEP}, ok)
	assert.ErrorIs(t, err, ErrEmptyAxis)

	_, err = s.IRRGrid(context.Background(), params.Default(), ok, Axis{Field: "workers", Values: []float64{1}})
	assert.Error(t, err)
}

func TestIRRCube(t *testing.T) {
	s := newSweeper()
	sheets := Axis{Field: params.FieldUnitInvestment, Values: []float64{4500, 5500}}
	rows := Axis{Field: params.FieldPrice, Values: []float64{0.2829}}
	cols := Axis{Field: params.FieldAEP, Values: []float64{2800}}

	cube, err := s.IRRCube(context.Background(), params.Default(), sheets, rows, cols)
	require.NoError(t, err)
	require.Len(t, cube, 2)
	assert.Equal(t, cube[0].RunID, cube[1].RunID)
	assert.Greater(t, cube[0].Equity[0][0], cube[1].Equity[0][0], "cheaper plant earns more")
}

func TestCriticalGrid(t *testing.T) {
	s := newSweeper()
	rows := Axis{Field: params.FieldAEP, Values: []float64{2500, 3000}}
	cols := Axis{Field: params.FieldUnitInvestment, Values: []float64{4500, 5000}}

	g, err := s.CriticalGrid(context.Background(), params.Default(), rows, cols,
		search.Price, search.EquityOnly, search.Targets{EquityIRR: 0.15})
	require.NoError(t, err)
	assert.Empty(t, g.Failures)

	for i := range rows.Values {
		for j := range cols.Values {
			assert.Greater(t, g.Values[i][j], 0.0)
		}
	}
	assert.Less(t, g.Values[1][0], g.Values[0][0], "more hours need a lower tariff")
	assert.Greater(t, g.Values[0][1], g.Values[0][0], "dearer plant needs a higher tariff")
}

func TestCriticalGrid_LowEquityTarget(t *testing.T) {
	s := newSweeper()
	rows := Axis{Field: params.FieldAEP, Values: []float64{2500, 3000}}
	cols := Axis{Field: params.FieldUnitInvestment, Values: []float64{4500, 5000}}

	g, err := s.CriticalGrid(context.Background(), params.Default(), rows, cols,
		search.Price, search.EquityOnly, search.Targets{EquityIRR: 0.05})
	require.NoError(t, err)
	assert.Empty(t, g.Failures)

	want := [][]float64{{0.1958, 0.2154}, {0.1632, 0.1795}}
	for i := range want {
		for j := range want[i] {
			assert.InDelta(t, want[i][j], g.Values[i][j], 2*search.DefaultConfig.PriceTolerance)
			assert.Less(t, g.Values[i][j], params.Default().Price)
		}
	}
}

func TestCriticalGrid_RecordsNonConvergence(t *testing.T) {
	s := newSweeper()
	rows := Axis{Field: params.FieldPrice, Values: []float64{0.2829}}
	cols := Axis{Field: params.FieldUnitInvestment, Values: []float64{5000}}

	g, err := s.CriticalGrid(context.Background(), params.Default(), rows, cols,
		search.AEP, search.EquityOnly, search.Targets{EquityIRR: 10})
	require.NoError(t, err)
	require.Len(t, g.Failures, 1)
	assert.ErrorIs(t, g.Failures[0].Err, search.ErrNotConverged)
	assert.True(t, math.IsNaN(g.Values[0][0]))
}

func TestAxisLabels(t *testing.T) {
	a := Axis{Field: params.FieldAEP, Values: []float64{2000, 2500.5}}
	assert.Equal(t, []string{"aep=2000", "aep=2500.5"}, a.Labels())
}
