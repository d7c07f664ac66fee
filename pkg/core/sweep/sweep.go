// Package sweep runs sensitivity grids over the projection engine and the
// boundary search: IRR matrices over two parameter axes, stacks of such
// matrices over a third axis, and critical-value matrices.
//
// Failed cells hold NaN and are listed in Failures; a grid never aborts on a
// single cell.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"project_finance/pkg/core/calc"
	"project_finance/pkg/core/params"
	"project_finance/pkg/core/projection"
	"project_finance/pkg/core/search"
)

// ErrEmptyAxis is returned when an axis has no values.
var ErrEmptyAxis = errors.New("sweep axis has no values")

// Axis is one swept parameter and its values.
type Axis struct {
	Field  params.Field
	Values []float64
}

// Labels renders the axis values for report headers.
func (a Axis) Labels() []string {
	out := make([]string, len(a.Values))
	for i, v := range a.Values {
		out[i] = fmt.Sprintf("%s=%g", a.Field, v)
	}
	return out
}

func (a Axis) check() error {
	if len(a.Values) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyAxis, a.Field)
	}
	if _, err := params.ParseField(string(a.Field)); err != nil {
		return err
	}
	return nil
}

// CellError records why one grid cell could not be computed.
type CellError struct {
	Sheet, Row, Column int
	Err                error
}

func (e CellError) Error() string {
	return fmt.Sprintf("cell [%d][%d][%d]: %v", e.Sheet, e.Row, e.Column, e.Err)
}

// IRRGrid holds the three IRR matrices of a two-axis sweep, indexed [row][column].
type IRRGrid struct {
	RunID   string
	Rows    Axis
	Columns Axis

	PreTax  [][]float64
	PostTax [][]float64
	Equity  [][]float64

	Failures []CellError
}

// CriticalGrid holds the boundary value found for each cell, indexed [row][column].
type CriticalGrid struct {
	RunID   string
	Kind    search.Kind
	Mode    search.Mode
	Targets search.Targets
	Rows    Axis
	Columns Axis

	Values [][]float64

	Failures []CellError
}

// Sweeper memoizes evaluations across grids. Evaluations are keyed by the full
// parameter snapshot, so overlapping sweeps reuse earlier runs.
type Sweeper struct {
	solver *search.Solver
	log    logrus.FieldLogger
	memo   *cache.Cache

	hits, misses int
}

// New creates a sweeper. Memoized evaluations expire after ttl; zero keeps them
// for the sweeper's lifetime.
func New(solver *search.Solver, log logrus.FieldLogger, ttl time.Duration) *Sweeper {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		log = l
	}
	if solver == nil {
		solver = search.NewSolver(search.DefaultConfig, log)
	}
	expiration, cleanup := cache.NoExpiration, time.Duration(0)
	if ttl > 0 {
		expiration, cleanup = ttl, 2*ttl
	}
	return &Sweeper{
		solver: solver,
		log:    log,
		memo:   cache.New(expiration, cleanup),
	}
}

// Stats reports memo hits and misses since creation.
func (s *Sweeper) Stats() (hits, misses int) {
	return s.hits, s.misses
}

type irrTriple struct {
	preTax, postTax, equity float64
	err                     error
}

// =============================================================================
// IRR GRIDS
// =============================================================================

// IRRGrid evaluates the three IRRs for every (row, column) combination.
func (s *Sweeper) IRRGrid(ctx context.Context, base params.Parameters, rows, cols Axis) (*IRRGrid, error) {
	return s.irrGrid(ctx, base, rows, cols, 0)
}

// IRRCube evaluates one IRRGrid per value of the sheet axis, sharing a run ID.
func (s *Sweeper) IRRCube(ctx context.Context, base params.Parameters, sheets, rows, cols Axis) ([]*IRRGrid, error) {
	if err := sheets.check(); err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	out := make([]*IRRGrid, 0, len(sheets.Values))
	for k, v := range sheets.Values {
		p, err := base.With(sheets.Field, v)
		if err != nil {
			return nil, err
		}
		g, err := s.irrGrid(ctx, p, rows, cols, k)
		if err != nil {
			return nil, err
		}
		g.RunID = runID
		out = append(out, g)
	}
	return out, nil
}

func (s *Sweeper) irrGrid(ctx context.Context, base params.Parameters, rows, cols Axis, sheet int) (*IRRGrid, error) {
	if err := rows.check(); err != nil {
		return nil, err
	}
	if err := cols.check(); err != nil {
		return nil, err
	}

	g := &IRRGrid{
		RunID:   uuid.NewString(),
		Rows:    rows,
		Columns: cols,
		PreTax:  matrix(len(rows.Values), len(cols.Values)),
		PostTax: matrix(len(rows.Values), len(cols.Values)),
		Equity:  matrix(len(rows.Values), len(cols.Values)),
	}
	log := s.log.WithFields(logrus.Fields{"run_id": g.RunID, "rows": rows.Field, "columns": cols.Field})

	for i, rv := range rows.Values {
		for j, cv := range cols.Values {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			p, err := cell(base, rows.Field, rv, cols.Field, cv)
			if err == nil {
				t := s.evaluate(p)
				err = t.err
				g.PreTax[i][j], g.PostTax[i][j], g.Equity[i][j] = t.preTax, t.postTax, t.equity
			}
			if err != nil {
				g.Failures = append(g.Failures, CellError{Sheet: sheet, Row: i, Column: j, Err: err})
			}
		}
	}

	log.WithField("failures", len(g.Failures)).Debug("irr grid done")
	return g, nil
}

// evaluate projects one snapshot and computes its IRRs, memoized.
func (s *Sweeper) evaluate(p params.Parameters) irrTriple {
	key := fingerprint("irr", p)
	if v, ok := s.memo.Get(key); ok {
		s.hits++
		return v.(irrTriple)
	}
	s.misses++

	t := irrTriple{preTax: math.NaN(), postTax: math.NaN(), equity: math.NaN()}
	flows, err := projection.Project(p)
	if err != nil {
		t.err = err
	} else {
		var errs []error
		irr := func(f []float64) float64 {
			v, err := calc.IRR(f)
			if err != nil {
				errs = append(errs, err)
				return math.NaN()
			}
			return v
		}
		t.preTax = irr(flows.PreTax)
		t.postTax = irr(flows.PostTax)
		t.equity = irr(flows.Equity)
		t.err = errors.Join(errs...)
	}

	s.memo.Set(key, t, cache.DefaultExpiration)
	return t
}

// =============================================================================
// CRITICAL-VALUE GRIDS
// =============================================================================

// CriticalGrid runs one boundary search per (row, column) combination.
func (s *Sweeper) CriticalGrid(ctx context.Context, base params.Parameters, rows, cols Axis,
	kind search.Kind, mode search.Mode, targets search.Targets) (*CriticalGrid, error) {
	if err := rows.check(); err != nil {
		return nil, err
	}
	if err := cols.check(); err != nil {
		return nil, err
	}

	g := &CriticalGrid{
		RunID:   uuid.NewString(),
		Kind:    kind,
		Mode:    mode,
		Targets: targets,
		Rows:    rows,
		Columns: cols,
		Values:  matrix(len(rows.Values), len(cols.Values)),
	}
	log := s.log.WithFields(logrus.Fields{"run_id": g.RunID, "kind": kind.String(), "mode": mode.String()})

	for i, rv := range rows.Values {
		for j, cv := range cols.Values {
			p, err := cell(base, rows.Field, rv, cols.Field, cv)
			if err == nil {
				var v float64
				v, err = s.critical(ctx, p, kind, mode, targets)
				g.Values[i][j] = v
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			if err != nil {
				g.Failures = append(g.Failures, CellError{Row: i, Column: j, Err: err})
				log.WithError(err).WithFields(logrus.Fields{"row": i, "column": j}).Debug("cell failed")
			}
		}
	}
	return g, nil
}

type criticalValue struct {
	value float64
	err   error
}

func (s *Sweeper) critical(ctx context.Context, p params.Parameters, kind search.Kind,
	mode search.Mode, targets search.Targets) (float64, error) {
	key := fingerprint(fmt.Sprintf("critical|%s|%s|%v|%+v", kind, mode, s.solver.Config(), targets), p)
	if v, ok := s.memo.Get(key); ok {
		s.hits++
		cv := v.(criticalValue)
		return cv.value, cv.err
	}
	s.misses++

	res, err := s.solver.Solve(ctx, search.Request{Params: p, Kind: kind, Mode: mode, Targets: targets})
	cv := criticalValue{value: res.Value, err: err}
	if err != nil {
		cv.value = math.NaN()
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return cv.value, err
		}
	}
	s.memo.Set(key, cv, cache.DefaultExpiration)
	return cv.value, cv.err
}

// =============================================================================
// HELPERS
// =============================================================================

func cell(base params.Parameters, rf params.Field, rv float64, cf params.Field, cv float64) (params.Parameters, error) {
	p, err := base.With(rf, rv)
	if err != nil {
		return p, err
	}
	return p.With(cf, cv)
}

func matrix(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
		for j := range m[i] {
			m[i][j] = math.NaN()
		}
	}
	return m
}

func fingerprint(prefix string, p params.Parameters) string {
	return fmt.Sprintf("%s|%+v", prefix, p)
}
