package search

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"project_finance/pkg/core/calc"
	"project_finance/pkg/core/params"
	"project_finance/pkg/core/projection"
)

// Solver runs boundary searches. It holds no per-search state and may be reused.
type Solver struct {
	cfg Config
	log logrus.FieldLogger
}

// NewSolver creates a solver. Zero-valued limits fall back to DefaultConfig.
func NewSolver(cfg Config, log logrus.FieldLogger) *Solver {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultConfig.MaxIterations
	}
	if cfg.PriceTolerance <= 0 {
		cfg.PriceTolerance = DefaultConfig.PriceTolerance
	}
	if cfg.AEPTolerance <= 0 {
		cfg.AEPTolerance = DefaultConfig.AEPTolerance
	}
	if cfg.InvestmentTolerance <= 0 {
		cfg.InvestmentTolerance = DefaultConfig.InvestmentTolerance
	}
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		log = l
	}
	return &Solver{cfg: cfg, log: log}
}

// Config returns the effective limits.
func (s *Solver) Config() Config {
	return s.cfg
}

// point is one evaluated value of the searched parameter. The gaps are the NPVs
// of the governing flows discounted at their target rates; the IRRs are NaN when
// the flows have no unique rate.
type point struct {
	value      float64
	params     params.Parameters
	project    float64
	equity     float64
	projectGap float64
	equityGap  float64
	feasible   bool
}

// run tracks one search.
type run struct {
	s     *Solver
	req   Request
	log   logrus.FieldLogger
	iters int
	last  *point
}

// Solve finds the critical value for req.
//
// ALGORITHM:
//  1. Evaluate the starting snapshot and probe once, one step away, whether the
//     governing IRR rises or falls with the value.
//  2. Step away from the start (doubling the step) until feasibility flips,
//     where feasible means the NPV of every governing flow at its target rate
//     is non-negative. For flows with a single sign change this is IRR >= target;
//     it stays defined when mid-life dips give the flows several sign changes.
//  3. Bisect the bracket until it is no wider than the tolerance and return
//     its feasible end.
//
// On failure after the search has started, the returned Result describes the
// last evaluated point and Iterations counts the evaluations spent.
func (s *Solver) Solve(ctx context.Context, req Request) (Result, error) {
	if err := s.check(req); err != nil {
		return Result{}, err
	}

	tol := s.cfg.Tolerance(req.Kind)
	lo, hi := req.Kind.bounds(tol)
	r := &run{
		s:   s,
		req: req,
		log: s.log.WithFields(logrus.Fields{"kind": req.Kind.String(), "mode": req.Mode.String()}),
	}

	start, err := req.Params.Get(req.Kind.Field())
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if start < lo || start > hi {
		return Result{}, fmt.Errorf("%w: start %s=%g outside [%g, %g]", ErrInvalidRequest, req.Kind, start, lo, hi)
	}

	// 1. Starting point and direction probe
	origin, err := r.evaluate(ctx, start)
	if err != nil {
		return r.partial(), err
	}

	step := tol * initialStepFactor
	probeAt := start + step
	if probeAt > hi {
		probeAt = clamp(start-step, lo, hi)
	}
	probe, err := r.evaluate(ctx, probeAt)
	if err != nil {
		return r.partial(), err
	}
	increasing := r.direction(origin, probe)

	// Move toward feasibility when infeasible, away from it otherwise.
	dir := 1.0
	if !increasing {
		dir = -1
	}
	if origin.feasible {
		dir = -dir
	}

	// 2. Bracket
	a := origin
	var b point
	for {
		next := clamp(a.value+dir*step, lo, hi)
		b, err = r.evaluate(ctx, next)
		if err != nil {
			return r.partial(), err
		}
		if b.feasible != a.feasible {
			break
		}
		if next == lo || next == hi {
			return r.partial(), fmt.Errorf("%w: %s range exhausted at %g after %d evaluations",
				ErrNotConverged, req.Kind, next, r.iters)
		}
		a = b
		step *= 2
	}

	feasible, infeasible := a, b
	if !a.feasible {
		feasible, infeasible = b, a
	}

	// 3. Bisection
	for math.Abs(feasible.value-infeasible.value) > tol {
		mid, err := r.evaluate(ctx, feasible.value+(infeasible.value-feasible.value)/2)
		if err != nil {
			return r.partial(), err
		}
		if mid.feasible {
			feasible = mid
		} else {
			infeasible = mid
		}
	}

	r.log.WithFields(logrus.Fields{
		"value":       feasible.value,
		"project_irr": feasible.project,
		"equity_irr":  feasible.equity,
		"iterations":  r.iters,
	}).Debug("boundary found")

	res := r.result(feasible)
	res.Increasing = increasing
	return res, nil
}

func (r *run) result(pt point) Result {
	return Result{
		Kind:       r.req.Kind,
		Mode:       r.req.Mode,
		Value:      pt.value,
		Params:     pt.params,
		ProjectIRR: pt.project,
		EquityIRR:  pt.equity,
		Iterations: r.iters,
	}
}

// partial reports the last evaluated point of an unfinished search.
func (r *run) partial() Result {
	if r.last == nil {
		return Result{Kind: r.req.Kind, Mode: r.req.Mode, Value: math.NaN(),
			ProjectIRR: math.NaN(), EquityIRR: math.NaN(), Iterations: r.iters}
	}
	return r.result(*r.last)
}

func (s *Solver) check(req Request) error {
	switch req.Kind {
	case Price, AEP, UnitInvestment:
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidRequest, int(req.Kind))
	}
	switch req.Mode {
	case EquityOnly, ProjectOnly, Both:
	default:
		return fmt.Errorf("%w: unknown mode %d", ErrInvalidRequest, int(req.Mode))
	}
	if req.Mode.needsProject() && !finite(req.Targets.ProjectIRR) {
		return fmt.Errorf("%w: project IRR target %v", ErrInvalidRequest, req.Targets.ProjectIRR)
	}
	if req.Mode.needsEquity() && !finite(req.Targets.EquityIRR) {
		return fmt.Errorf("%w: equity IRR target %v", ErrInvalidRequest, req.Targets.EquityIRR)
	}
	if err := req.Params.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}

// evaluate projects one value of the searched parameter. Every call counts
// against the iteration bound.
func (r *run) evaluate(ctx context.Context, value float64) (point, error) {
	if err := ctx.Err(); err != nil {
		return point{}, err
	}
	if r.iters >= r.s.cfg.MaxIterations {
		return point{}, fmt.Errorf("%w: exceeded %d evaluations", ErrNotConverged, r.s.cfg.MaxIterations)
	}
	r.iters++

	p, err := r.req.Params.With(r.req.Kind.Field(), value)
	if err != nil {
		return point{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	flows, err := projection.Project(p)
	if err != nil {
		return point{}, fmt.Errorf("search at %s=%g: %w", r.req.Kind, value, err)
	}

	pt := point{value: value, params: p, project: math.NaN(), equity: math.NaN(), feasible: true}
	if r.req.Mode.needsProject() {
		project := flows.PreTax
		if r.s.cfg.ProjectBasis == PostTax {
			project = flows.PostTax
		}
		pt.project = rateOrNaN(project)
		pt.projectGap = calc.NPV(project, r.req.Targets.ProjectIRR)
		pt.feasible = pt.feasible && pt.projectGap >= 0
	}
	if r.req.Mode.needsEquity() {
		pt.equity = rateOrNaN(flows.Equity)
		pt.equityGap = calc.NPV(flows.Equity, r.req.Targets.EquityIRR)
		pt.feasible = pt.feasible && pt.equityGap >= 0
	}
	r.last = &pt

	r.log.WithFields(logrus.Fields{
		"iteration":   r.iters,
		"value":       value,
		"project_irr": pt.project,
		"equity_irr":  pt.equity,
		"project_npv": pt.projectGap,
		"equity_npv":  pt.equityGap,
		"feasible":    pt.feasible,
	}).Debug("search step")

	return pt, nil
}

// direction reports whether the governing NPV gap rises with the value, falling
// back to the kind's usual behaviour when the probe shows no change.
func (r *run) direction(origin, probe point) bool {
	gap := func(pt point) float64 {
		if r.req.Mode == ProjectOnly {
			return pt.projectGap
		}
		return pt.equityGap
	}
	dm := gap(probe) - gap(origin)
	dv := probe.value - origin.value
	if math.IsNaN(dm) || dm == 0 || dv == 0 {
		return r.req.Kind.naturallyIncreasing()
	}
	return (dm > 0) == (dv > 0)
}

// rateOrNaN is the IRR for reporting; NaN when the flows have no unique rate.
func rateOrNaN(flows []float64) float64 {
	irr, err := calc.IRR(flows)
	if err != nil {
		return math.NaN()
	}
	return irr
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
