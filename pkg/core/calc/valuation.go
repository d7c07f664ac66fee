// Package calc provides deterministic financial metrics over chronological cash-flow
// sequences: IRR, NPV, payback periods and the levelized cost of energy.
// Sequences carry no aggregate row; element 0 is the first timeline year.
package calc

import (
	"errors"
	"math"
)

var (
	// ErrNeverPaysBack is returned when the cumulative cash flow never turns non-negative.
	ErrNeverPaysBack = errors.New("cash flows never pay back")
	// ErrZeroEnergy is returned when the discounted energy output is not positive.
	ErrZeroEnergy = errors.New("discounted energy output is zero")
	// ErrLengthMismatch is returned when paired sequences differ in length.
	ErrLengthMismatch = errors.New("sequence lengths differ")
)

// =============================================================================
// DISCOUNTING
// =============================================================================

// PresentValue discounts a single cash flow back t periods.
//
// FORMULA: PV = CF / (1 + r)^t
func PresentValue(cashFlow, rate float64, t int) float64 {
	return cashFlow / math.Pow(1+rate, float64(t))
}

// NPV is the net present value of a cash-flow sequence.
//
// FORMULA: NPV = Σ CF_t / (1 + r)^t, t = 0..n-1
//
// The first flow is not discounted.
func NPV(cashFlows []float64, rate float64) float64 {
	var npv float64
	factor := 1.0
	for _, cf := range cashFlows {
		npv += cf / factor
		factor *= 1 + rate
	}
	return npv
}

// Discount returns every flow discounted to period 0.
func Discount(cashFlows []float64, rate float64) []float64 {
	out := make([]float64, len(cashFlows))
	factor := 1.0
	for t, cf := range cashFlows {
		out[t] = cf / factor
		factor *= 1 + rate
	}
	return out
}

// =============================================================================
// PAYBACK
// =============================================================================

// PaybackPeriod is the time, in years, until the cumulative cash flow turns non-negative.
//
// FORMULA: T = k + |Cum_{k-1}| / CF_k
//
// Where k is the index of the first year whose cumulative flow is non-negative.
// Element t is treated as the flow of year t+1, so [-100, 150] pays back in 1.67 years.
func PaybackPeriod(cashFlows []float64) (float64, error) {
	var cum float64
	for k, cf := range cashFlows {
		prev := cum
		cum += cf
		if cum < 0 {
			continue
		}
		if k == 0 || prev >= 0 {
			return float64(k), nil
		}
		return float64(k) + (-prev)/cf, nil
	}
	return 0, ErrNeverPaysBack
}

// DiscountedPayback is PaybackPeriod over flows discounted at rate.
func DiscountedPayback(cashFlows []float64, rate float64) (float64, error) {
	return PaybackPeriod(Discount(cashFlows, rate))
}

// =============================================================================
// LEVELIZED COST OF ENERGY
// =============================================================================

// LCOE is the levelized cost of energy.
//
// FORMULA: LCOE = Σ C_t / (1 + r)^t  ÷  Σ E_t / (1 + r)^t
//
// Where:
//   - C_t = total cost outflow of year t (investment, operation, taxes)
//   - E_t = energy delivered in year t
//
// The unit is the cost unit per energy unit of the inputs.
func LCOE(costs, energy []float64, rate float64) (float64, error) {
	if len(costs) != len(energy) {
		return 0, ErrLengthMismatch
	}
	discountedEnergy := NPV(energy, rate)
	if discountedEnergy <= 0 {
		return 0, ErrZeroEnergy
	}
	return NPV(costs, rate) / discountedEnergy, nil
}
