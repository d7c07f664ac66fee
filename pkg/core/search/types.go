// Package search inverts the projection engine: it finds the value of one input
// (tariff price, full-load hours or unit investment) at which the required
// internal rates of return are exactly met.
package search

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"project_finance/pkg/core/params"
)

var (
	// ErrNotConverged is returned when the iteration bound or the admissible
	// range of the searched parameter is exhausted before the threshold is met.
	ErrNotConverged = errors.New("search did not converge")
	// ErrInvalidRequest is returned for malformed requests.
	ErrInvalidRequest = errors.New("invalid search request")
)

// =============================================================================
// KIND / MODE / BASIS
// =============================================================================

// Kind selects the searched parameter.
type Kind int

const (
	Price          Kind = iota // tariff per kWh, VAT included
	AEP                        // full-load hours per year
	UnitInvestment             // static investment per kW
)

var kindNames = map[Kind]string{Price: "price", AEP: "aep", UnitInvestment: "unit_investment"}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Field is the parameter overridden for this kind.
func (k Kind) Field() params.Field {
	switch k {
	case AEP:
		return params.FieldAEP
	case UnitInvestment:
		return params.FieldUnitInvestment
	}
	return params.FieldPrice
}

// bounds is the admissible range of the searched value.
func (k Kind) bounds(tol float64) (lo, hi float64) {
	switch k {
	case AEP:
		return tol, hoursPerYear
	case UnitInvestment:
		return tol, math.Inf(1)
	}
	return 0, math.Inf(1)
}

// naturallyIncreasing reports whether the returns usually rise with the value.
// The direction probe overrides it whenever the probe is informative.
func (k Kind) naturallyIncreasing() bool {
	return k != UnitInvestment
}

// ParseKind resolves a kind name.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(s, name) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown kind %q", ErrInvalidRequest, s)
}

// Mode selects which return thresholds govern.
type Mode int

const (
	EquityOnly Mode = iota
	ProjectOnly
	Both
)

var modeNames = map[Mode]string{EquityOnly: "equity", ProjectOnly: "project", Both: "both"}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

func (m Mode) needsProject() bool { return m == ProjectOnly || m == Both }
func (m Mode) needsEquity() bool  { return m == EquityOnly || m == Both }

// ParseMode resolves a mode name.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if strings.EqualFold(s, name) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidRequest, s)
}

// Basis selects which project flow feeds the project IRR.
type Basis int

const (
	PreTax Basis = iota
	PostTax
)

func (b Basis) String() string {
	if b == PostTax {
		return "post_tax"
	}
	return "pre_tax"
}

// ParseBasis resolves "pre_tax" or "post_tax".
func ParseBasis(s string) (Basis, error) {
	switch strings.ToLower(s) {
	case "", "pre_tax", "pretax":
		return PreTax, nil
	case "post_tax", "posttax":
		return PostTax, nil
	}
	return 0, fmt.Errorf("%w: unknown project basis %q", ErrInvalidRequest, s)
}

// =============================================================================
// CONFIG
// =============================================================================

const (
	hoursPerYear = 8760
	// The first bracket step is this many tolerances wide and doubles afterwards.
	initialStepFactor = 64
)

// Config holds the solver limits.
type Config struct {
	// MaxIterations bounds the number of projection runs per search.
	MaxIterations int

	// Tolerances are the final bracket widths, in the unit of the searched value.
	PriceTolerance      float64
	AEPTolerance        float64
	InvestmentTolerance float64

	ProjectBasis Basis
}

// DefaultConfig provides the standard limits.
var DefaultConfig = Config{
	MaxIterations:       200,
	PriceTolerance:      0.0001,
	AEPTolerance:        1,
	InvestmentTolerance: 1,
	ProjectBasis:        PreTax,
}

// Tolerance returns the bracket width for a kind.
func (c Config) Tolerance(k Kind) float64 {
	switch k {
	case AEP:
		return c.AEPTolerance
	case UnitInvestment:
		return c.InvestmentTolerance
	}
	return c.PriceTolerance
}

// =============================================================================
// REQUEST / RESULT
// =============================================================================

// Targets are the required internal rates of return.
type Targets struct {
	ProjectIRR float64
	EquityIRR  float64
}

// Request describes one boundary search. Params is the starting snapshot and
// is never modified.
type Request struct {
	Params  params.Parameters
	Kind    Kind
	Mode    Mode
	Targets Targets
}

// Result is the critical value and the returns achieved there. An IRR is NaN
// when the flows at that value have no unique rate.
type Result struct {
	Kind  Kind
	Mode  Mode
	Value float64

	// Params is the snapshot with Value applied.
	Params params.Parameters

	ProjectIRR float64
	EquityIRR  float64

	Iterations int
	Increasing bool // returns rise with the value
}
