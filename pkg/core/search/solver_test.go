package search

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"project_finance/pkg/core/calc"
	"project_finance/pkg/core/params"
	"project_finance/pkg/core/projection"
)

func scenario() params.Parameters {
	p := params.Default()
	p.AEP = 3000
	p.StaticInvestment = 5000 * p.Capacity
	return p
}

func newSolver(t *testing.T) *Solver {
	t.Helper()
	log, _ := test.NewNullLogger()
	return NewSolver(DefaultConfig, log)
}

func equityIRR(t *testing.T, p params.Parameters) float64 {
	t.Helper()
	flows, err := projection.Project(p)
	require.NoError(t, err)
	irr, err := calc.IRR(flows.Equity)
	require.NoError(t, err)
	return irr
}

func TestSolve_PriceEquityOnly(t *testing.T) {
	s := newSolver(t)
	base := scenario()
	baseline := equityIRR(t, base)
	require.InDelta(t, 0.3078, baseline, 1e-3)

	tests := []struct {
		name   string
		target float64
		lower  bool
	}{
		{"lower target", 0.25, true},
		{"higher target", 0.35, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Solve(context.Background(), Request{
				Params:  base,
				Kind:    Price,
				Mode:    EquityOnly,
				Targets: Targets{EquityIRR: tt.target},
			})
			require.NoError(t, err)

			if tt.lower {
				assert.Less(t, res.Value, base.Price)
			} else {
				assert.Greater(t, res.Value, base.Price)
			}
			assert.True(t, res.Increasing)
			assert.LessOrEqual(t, res.Iterations, DefaultConfig.MaxIterations)

			// Re-running the engine at the returned price meets the target.
			at := base
			at.Price = res.Value
			irr := equityIRR(t, at)
			assert.GreaterOrEqual(t, irr, tt.target)
			assert.InDelta(t, tt.target, irr, 0.002)
			assert.InDelta(t, irr, res.EquityIRR, 1e-12)

			// One tolerance lower no longer meets it.
			at.Price = res.Value - DefaultConfig.PriceTolerance
			assert.Less(t, equityIRR(t, at), tt.target)
		})
	}

	// The caller's snapshot is untouched.
	assert.Equal(t, scenario(), base)
}

func TestSolve_ProjectOnlyAndBoth(t *testing.T) {
	s := newSolver(t)
	base := scenario()

	project, err := s.Solve(context.Background(), Request{
		Params: base, Kind: Price, Mode: ProjectOnly,
		Targets: Targets{ProjectIRR: 0.08},
	})
	require.NoError(t, err)
	assert.Less(t, project.Value, base.Price)
	assert.GreaterOrEqual(t, project.ProjectIRR, 0.08)
	assert.InDelta(t, 0.08, project.ProjectIRR, 0.001)

	equity, err := s.Solve(context.Background(), Request{
		Params: base, Kind: Price, Mode: EquityOnly,
		Targets: Targets{EquityIRR: 0.15},
	})
	require.NoError(t, err)

	both, err := s.Solve(context.Background(), Request{
		Params: base, Kind: Price, Mode: Both,
		Targets: Targets{ProjectIRR: 0.08, EquityIRR: 0.15},
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, both.ProjectIRR, 0.08)
	assert.GreaterOrEqual(t, both.EquityIRR, 0.15)

	// Both constraints together bind at the stricter of the two.
	stricter := project.Value
	if equity.Value > stricter {
		stricter = equity.Value
	}
	assert.InDelta(t, stricter, both.Value, 2*DefaultConfig.PriceTolerance)
}

func TestSolve_PostTaxBasisNeedsHigherPrice(t *testing.T) {
	log, _ := test.NewNullLogger()
	pre := NewSolver(DefaultConfig, log)
	cfg := DefaultConfig
	cfg.ProjectBasis = PostTax
	post := NewSolver(cfg, log)

	req := Request{Params: scenario(), Kind: Price, Mode: ProjectOnly, Targets: Targets{ProjectIRR: 0.08}}
	a, err := pre.Solve(context.Background(), req)
	require.NoError(t, err)
	b, err := post.Solve(context.Background(), req)
	require.NoError(t, err)
	assert.Greater(t, b.Value, a.Value)
}

func TestSolve_AEP(t *testing.T) {
	s := newSolver(t)
	res, err := s.Solve(context.Background(), Request{
		Params: scenario(), Kind: AEP, Mode: EquityOnly,
		Targets: Targets{EquityIRR: 0.15},
	})
	require.NoError(t, err)
	assert.Less(t, res.Value, 3000.0)
	assert.Greater(t, res.Value, 0.0)
	assert.GreaterOrEqual(t, res.EquityIRR, 0.15)
	assert.Equal(t, res.Value, res.Params.AEP)
}

func TestSolve_UnitInvestmentDecreasesReturns(t *testing.T) {
	s := newSolver(t)
	base := scenario()
	res, err := s.Solve(context.Background(), Request{
		Params: base, Kind: UnitInvestment, Mode: EquityOnly,
		Targets: Targets{EquityIRR: 0.15},
	})
	require.NoError(t, err)
	assert.False(t, res.Increasing)
	assert.Greater(t, res.Value, base.UnitInvestment())
	assert.InDelta(t, res.Value*base.Capacity, res.Params.StaticInvestment, 1e-6)
	assert.GreaterOrEqual(t, res.EquityIRR, 0.15)
}

// Low equity targets push the search through values where debt service and the
// end of the tax holiday dip single years below zero, so the equity flows change
// sign several times on the way to the boundary.
func TestSolve_LowTargetsStepPastDippingEquityFlows(t *testing.T) {
	s := newSolver(t)
	base := scenario()

	dipping, err := base.With(params.FieldPrice, 0.1741)
	require.NoError(t, err)
	flows, err := projection.Project(dipping)
	require.NoError(t, err)
	require.Greater(t, calc.SignChanges(flows.Equity), 1)

	tests := []struct {
		name   string
		kind   Kind
		target float64
		want   float64
		delta  float64
	}{
		{"price", Price, 0.05, 0.1795, 2 * DefaultConfig.PriceTolerance},
		{"unit investment", UnitInvestment, 0.08, 7489, 2 * DefaultConfig.InvestmentTolerance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Solve(context.Background(), Request{
				Params: base, Kind: tt.kind, Mode: EquityOnly,
				Targets: Targets{EquityIRR: tt.target},
			})
			require.NoError(t, err)
			assert.InDelta(t, tt.want, res.Value, tt.delta)
			assert.InDelta(t, tt.target, res.EquityIRR, 0.002)

			at, err := projection.Project(res.Params)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, calc.NPV(at.Equity, tt.target), 0.0)

			// One tolerance toward lower returns misses the target.
			step := DefaultConfig.Tolerance(tt.kind)
			if !res.Increasing {
				step = -step
			}
			past, err := res.Params.With(tt.kind.Field(), res.Value-step)
			require.NoError(t, err)
			pastFlows, err := projection.Project(past)
			require.NoError(t, err)
			assert.Less(t, calc.NPV(pastFlows.Equity, tt.target), 0.0)
		})
	}
}

func TestSolve_InfeasibleTargetReportsNonConvergence(t *testing.T) {
	s := newSolver(t)
	res, err := s.Solve(context.Background(), Request{
		Params: scenario(), Kind: AEP, Mode: EquityOnly,
		Targets: Targets{EquityIRR: 10.0},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotConverged))

	// The partial result stops at the top of the AEP range.
	assert.Equal(t, 8760.0, res.Value)
	assert.Equal(t, 8760.0, res.Params.AEP)
	assert.Greater(t, res.Iterations, 2)
}

func TestSolve_IterationBound(t *testing.T) {
	log, _ := test.NewNullLogger()
	cfg := DefaultConfig
	cfg.MaxIterations = 4
	s := NewSolver(cfg, log)

	res, err := s.Solve(context.Background(), Request{
		Params: scenario(), Kind: Price, Mode: EquityOnly,
		Targets: Targets{EquityIRR: 0.25},
	})
	assert.ErrorIs(t, err, ErrNotConverged)
	assert.Equal(t, 4, res.Iterations)
	assert.Equal(t, Price, res.Kind)
	assert.Equal(t, res.Value, res.Params.Price)
	assert.Less(t, res.Value, scenario().Price)
}

func TestSolve_InvalidRequests(t *testing.T) {
	s := newSolver(t)
	bad := scenario()
	bad.Capacity = 0

	tests := []struct {
		name string
		req  Request
	}{
		{"invalid params", Request{Params: bad, Kind: Price, Mode: EquityOnly}},
		{"unknown kind", Request{Params: scenario(), Kind: Kind(9), Mode: EquityOnly}},
		{"unknown mode", Request{Params: scenario(), Kind: Price, Mode: Mode(9)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Solve(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}

	_, err := s.Solve(context.Background(), Request{Params: bad, Kind: Price, Mode: EquityOnly})
	assert.ErrorIs(t, err, params.ErrInvalidParameter)
}

func TestSolve_Cancelled(t *testing.T) {
	s := newSolver(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Solve(ctx, Request{Params: scenario(), Kind: Price, Mode: EquityOnly, Targets: Targets{EquityIRR: 0.2}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSolve_LogsSteps(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	s := NewSolver(DefaultConfig, log)

	res, err := s.Solve(context.Background(), Request{
		Params: scenario(), Kind: Price, Mode: EquityOnly, Targets: Targets{EquityIRR: 0.25},
	})
	require.NoError(t, err)
	require.NotEmpty(t, hook.AllEntries())
	assert.Equal(t, res.Iterations+1, len(hook.AllEntries()))
	assert.Equal(t, "boundary found", hook.LastEntry().Message)
	assert.Equal(t, "price", hook.LastEntry().Data["kind"])
}

func TestParseNames(t *testing.T) {
	k, err := ParseKind("AEP")
	require.NoError(t, err)
	assert.Equal(t, AEP, k)

	m, err := ParseMode("both")
	require.NoError(t, err)
	assert.Equal(t, Both, m)

	b, err := ParseBasis("post_tax")
	require.NoError(t, err)
	assert.Equal(t, PostTax, b)

	_, err = ParseKind("capacity")
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = ParseMode("neither")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}
