package params

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidParameter is matched by every *ParameterError.
var ErrInvalidParameter = errors.New("invalid parameter")

// ParameterError identifies the offending field of a rejected Parameters value.
type ParameterError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s=%v: %s", e.Field, e.Value, e.Reason)
}

func (e *ParameterError) Is(target error) bool {
	return target == ErrInvalidParameter
}

// Validate checks the preconditions the projection engine relies on.
// The first violation found is returned.
func (p Parameters) Validate() error {
	positive := []struct {
		field string
		value float64
	}{
		{"capacity", p.Capacity},
		{"aep", p.AEP},
		{"static_investment", p.StaticInvestment},
		{"build_period", p.BuildPeriod},
		{"operate_period", float64(p.OperatePeriod)},
		{"loan_period", float64(p.LoanPeriod)},
		{"depreciation_period", float64(p.DepreciationPeriod)},
	}
	for _, c := range positive {
		if math.IsNaN(c.value) || c.value <= 0 {
			return &ParameterError{Field: c.field, Value: c.value, Reason: "must be positive"}
		}
	}

	nonNegative := []struct {
		field string
		value float64
	}{
		{"price", p.Price},
		{"equipment_cost", p.EquipmentCost},
		{"install_cost", p.InstallCost},
		{"build_cost", p.BuildCost},
		{"other_cost", p.OtherCost},
		{"loan_rate", p.LoanRate},
		{"working_rate", p.WorkingRate},
		{"rate_discount", p.RateDiscount},
		{"workers", float64(p.Workers)},
		{"labor_cost", p.LaborCost},
		{"warranty", float64(p.Warranty)},
		{"material_quota", p.MaterialQuota},
		{"other_quota", p.OtherQuota},
		{"working_quota", p.WorkingQuota},
		{"grace_period", float64(p.GracePeriod)},
	}
	for _, c := range nonNegative {
		if math.IsNaN(c.value) || c.value < 0 {
			return &ParameterError{Field: c.field, Value: c.value, Reason: "must not be negative"}
		}
	}

	unit := []struct {
		field string
		value float64
	}{
		{"equipment_ratio", p.EquipmentRatio},
		{"install_ratio", p.InstallRatio},
		{"build_ratio", p.BuildRatio},
		{"other_ratio", p.OtherRatio},
		{"capital_ratio", p.CapitalRatio},
		{"working_ratio", p.WorkingRatio},
		{"income_tax_rate", p.IncomeTaxRate},
		{"vat_rate", p.VATRate},
		{"vat_refund_rate", p.VATRefundRate},
		{"build_tax_rate", p.BuildTaxRate},
		{"edu_surcharge_rate", p.EduSurchargeRate},
		{"in_repair_rate", p.InRepairRate},
		{"out_repair_rate", p.OutRepairRate},
		{"insurance_rate", p.InsuranceRate},
		{"provident_rate", p.ProvidentRate},
		{"residual_rate", p.ResidualRate},
	}
	for _, c := range unit {
		if math.IsNaN(c.value) || c.value < 0 || c.value > 1 {
			return &ParameterError{Field: c.field, Value: c.value, Reason: "must lie in [0, 1]"}
		}
	}

	if p.LoanPeriod > p.OperatePeriod {
		return &ParameterError{Field: "loan_period", Value: float64(p.LoanPeriod), Reason: "exceeds operate_period"}
	}
	if p.Warranty > p.OperatePeriod {
		return &ParameterError{Field: "warranty", Value: float64(p.Warranty), Reason: "exceeds operate_period"}
	}
	if p.DepreciationPeriod > p.OperatePeriod {
		return &ParameterError{Field: "depreciation_period", Value: float64(p.DepreciationPeriod), Reason: "exceeds operate_period"}
	}

	n := p.Timeline()
	adjustments := []struct {
		field  string
		values []float64
	}{
		{"adjustments.cost", p.Adjustments.Cost},
		{"adjustments.cash", p.Adjustments.Cash},
		{"adjustments.equity", p.Adjustments.Equity},
	}
	for _, a := range adjustments {
		if len(a.values) != 0 && len(a.values) != n {
			return &ParameterError{
				Field:  a.field,
				Value:  float64(len(a.values)),
				Reason: fmt.Sprintf("length must be 0 or %d", n),
			}
		}
	}

	return nil
}
