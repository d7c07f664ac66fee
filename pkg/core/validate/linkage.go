// Package validate audits projection statements.
// This file implements the cross-table linkage checks: every identity the
// projection engine promises is re-derived from the published tables.
package validate

import (
	"fmt"
	"math"

	"project_finance/pkg/core/params"
	"project_finance/pkg/core/projection"
	"project_finance/pkg/core/series"
)

// =============================================================================
// CROSS-TABLE LINKAGE VALIDATION
// =============================================================================

// LinkageReport contains all cross-table validation results of one run.
type LinkageReport struct {
	Checks       []Check  `json:"checks"`
	AllPassed    bool     `json:"all_passed"`
	FailedChecks []string `json:"failed_checks,omitempty"`
}

func (r *LinkageReport) add(c Check) {
	r.Checks = append(r.Checks, c)
	if !c.IsLinked {
		r.AllPassed = false
		r.FailedChecks = append(r.FailedChecks, c.String())
	}
}

// ValidateLinkages re-derives the financing, debt, depreciation, tax and
// cash-flow identities from the statements produced for p.
func ValidateLinkages(st *projection.Statements, p params.Parameters, tolerance float64) (*LinkageReport, error) {
	if st == nil {
		return nil, fmt.Errorf("validate: nil statements")
	}
	report := &LinkageReport{AllPassed: true}
	b := st.ConstructionYears

	lookup := func(t projection.Table, label string) (series.Series, error) {
		v := t.Values(label)
		if v == nil {
			return nil, fmt.Errorf("validate: %s has no row %q", t.Name, label)
		}
		return v, nil
	}
	var firstErr error
	get := func(t projection.Table, label string) series.Series {
		v, err := lookup(t, label)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		return v
	}

	// 1. Investment & financing: equity + debt = total investment in each funded year
	total := get(st.Investment, projection.LabelTotalInvestment)
	capital := get(st.Investment, projection.LabelCapital)
	debt := get(st.Investment, projection.LabelDebt)

	// 2. Debt service
	longLoan := get(st.DebtService, projection.LabelLongLoan)
	longPrincipal := get(st.DebtService, projection.LabelLongPrincipal)
	workingLoan := get(st.DebtService, projection.LabelWorkingLoan)
	workingPrincipal := get(st.DebtService, projection.LabelWorkingPrincipal)

	// 3. Cost
	depreciation := get(st.Cost, projection.LabelDepreciation)
	operateCost := get(st.Cost, projection.LabelOperateCost)
	amortization := get(st.Cost, projection.LabelAmortization)
	interest := get(st.Cost, projection.LabelInterest)
	totalCost := get(st.Cost, projection.LabelTotalCost)

	// 4. Profit & tax
	taxable := get(st.Profit, projection.LabelTaxable)
	incomeTax := get(st.Profit, projection.LabelIncomeTax)

	// 5. Cash flow
	preTax := get(st.ProjectCash, projection.LabelPreTax)
	postTax := get(st.ProjectCash, projection.LabelPostTax)

	if firstErr != nil {
		return nil, firstErr
	}

	for _, year := range []int{0, b} {
		report.add(CheckIdentity(fmt.Sprintf("equity + debt = total investment (year %d)", year+1),
			total[year], capital[year]+debt[year], tolerance))
	}

	report.add(CheckIdentity("long-term principal repaid", longLoan.Total(), longPrincipal.Total(), tolerance))
	report.add(CheckIdentity("working-capital principal repaid", workingLoan.Total(), workingPrincipal.Total(), tolerance))

	report.add(CheckIdentity("depreciation = fixed assets less residual",
		st.FixedAssets*(1-p.ResidualRate), depreciation.Total(), tolerance))
	outside := 0.0
	for t := range depreciation {
		if t < b || t >= b+p.DepreciationPeriod {
			outside += math.Abs(depreciation[t])
		}
	}
	report.add(CheckIdentity("no depreciation outside its window", 0, outside, tolerance))

	for t := range totalCost {
		want := depreciation[t] + operateCost[t] + amortization[t] + interest[t]
		if c := CheckIdentity(fmt.Sprintf("total cost build-up (year %d)", t+1), want, totalCost[t], tolerance); !c.IsLinked {
			report.add(c)
		}
	}

	report.add(checkTaxSchedule(b, taxable, incomeTax, p.IncomeTaxRate, tolerance))

	for t := range preTax {
		if c := CheckIdentity(fmt.Sprintf("pre-tax - income tax = post-tax (year %d)", t+1),
			preTax[t]-incomeTax[t], postTax[t], tolerance); !c.IsLinked {
			report.add(c)
		}
	}

	return report, nil
}

// checkTaxSchedule verifies the three-year exemption, three-year half rate,
// and full rate afterwards, with no tax on losses.
func checkTaxSchedule(b int, taxable, incomeTax series.Series, rate, tolerance float64) Check {
	var worst Check
	worst.Name = "income tax holiday schedule"
	worst.IsLinked = true
	worst.Tolerance = tolerance

	for t := b; t < len(incomeTax); t++ {
		j := t - b
		base := math.Max(taxable[t], 0)
		var want float64
		switch {
		case j < 3:
			want = 0
		case j < 6:
			want = base * rate / 2
		default:
			want = base * rate
		}
		diff := incomeTax[t] - want
		if math.Abs(diff) > math.Abs(worst.Difference) {
			worst.Expected = want
			worst.Actual = incomeTax[t]
			worst.Difference = diff
			worst.IsLinked = math.Abs(diff) <= tolerance
		}
	}
	return worst
}
