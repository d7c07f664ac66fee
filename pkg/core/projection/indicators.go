package projection

import (
	"errors"
	"math"

	"project_finance/pkg/core/calc"
	"project_finance/pkg/core/series"
)

// Indicators summarizes one projection run at a given discount rate.
// Metrics that cannot be computed are NaN and the cause is listed in Issues.
type Indicators struct {
	DiscountRate float64

	PreTaxIRR  float64
	PostTaxIRR float64
	EquityIRR  float64

	PreTaxNPV  float64
	PostTaxNPV float64
	EquityNPV  float64

	PreTaxPayback  float64 // years from the start of construction
	PostTaxPayback float64
	EquityPayback  float64

	LCOE float64 // 10^4 currency units per 10^4 kWh

	Issues []string
}

// Evaluate computes IRR, NPV, payback and LCOE for the three net flows.
func Evaluate(flows CashFlows, rate float64) Indicators {
	ind := Indicators{DiscountRate: rate}

	record := func(metric string, v float64, err error) float64 {
		if err != nil {
			ind.Issues = append(ind.Issues, metric+": "+err.Error())
			return math.NaN()
		}
		return v
	}

	// 1. Returns
	irr, err := calc.IRR(flows.PreTax)
	ind.PreTaxIRR = record("pre-tax IRR", irr, err)
	irr, err = calc.IRR(flows.PostTax)
	ind.PostTaxIRR = record("post-tax IRR", irr, err)
	irr, err = calc.IRR(flows.Equity)
	ind.EquityIRR = record("equity IRR", irr, err)

	// 2. Present values
	ind.PreTaxNPV = calc.NPV(flows.PreTax, rate)
	ind.PostTaxNPV = calc.NPV(flows.PostTax, rate)
	ind.EquityNPV = calc.NPV(flows.Equity, rate)

	// 3. Payback
	pb, err := calc.PaybackPeriod(flows.PreTax)
	ind.PreTaxPayback = record("pre-tax payback", pb, err)
	pb, err = calc.PaybackPeriod(flows.PostTax)
	ind.PostTaxPayback = record("post-tax payback", pb, err)
	pb, err = calc.PaybackPeriod(flows.Equity)
	ind.EquityPayback = record("equity payback", pb, err)

	// 4. Levelized cost
	lcoe, err := calc.LCOE(flows.Costs, flows.Generation, rate)
	ind.LCOE = record("LCOE", lcoe, err)

	return ind
}

// ErrNoFlows is returned by Combine when called without inputs.
var ErrNoFlows = errors.New("no cash flows to combine")

// Combine sums several sub-projects aligned on their first construction year,
// e.g. a wind farm and a PV plant financed as one portfolio. Shorter timelines are
// zero-padded. The construction period of the result is the longest one.
func Combine(flows ...CashFlows) (CashFlows, error) {
	if len(flows) == 0 {
		return CashFlows{}, ErrNoFlows
	}

	var out CashFlows
	for _, f := range flows {
		if f.ConstructionYears > out.ConstructionYears {
			out.ConstructionYears = f.ConstructionYears
		}
		out.PreTax = series.Sum(out.PreTax, f.PreTax)
		out.PostTax = series.Sum(out.PostTax, f.PostTax)
		out.Equity = series.Sum(out.Equity, f.Equity)
		out.Generation = series.Sum(out.Generation, f.Generation)
		out.Costs = series.Sum(out.Costs, f.Costs)
		out.FixedAssets += f.FixedAssets
		out.VATDeduction += f.VATDeduction
	}
	return out, nil
}
