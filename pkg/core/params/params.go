// Package params defines the boundary parameters of one project-finance evaluation
// of a power-generation investment.
//
// Monetary amounts are in ten-thousand currency units, capacity in ten-thousand kW,
// unit quotas in currency units per kW and output in full-load equivalent hours.
package params

import "math"

// Parameters is the immutable-per-run record of financial assumptions.
// Callers derive variants with With / WithStaticInvestment instead of mutating a shared value.
type Parameters struct {
	// Scale & yield
	Capacity         float64 `json:"capacity" yaml:"capacity"`                   // 10^4 kW
	AEP              float64 `json:"aep" yaml:"aep"`                             // hours per year
	StaticInvestment float64 `json:"static_investment" yaml:"static_investment"` // 10^4 currency units
	Price            float64 `json:"price" yaml:"price"`                         // per kWh, VAT included

	// Cost structure. A non-zero ratio overrides the absolute cost.
	EquipmentCost  float64 `json:"equipment_cost" yaml:"equipment_cost"`
	EquipmentRatio float64 `json:"equipment_ratio" yaml:"equipment_ratio"`
	InstallCost    float64 `json:"install_cost" yaml:"install_cost"`
	InstallRatio   float64 `json:"install_ratio" yaml:"install_ratio"`
	BuildCost      float64 `json:"build_cost" yaml:"build_cost"`
	BuildRatio     float64 `json:"build_ratio" yaml:"build_ratio"`
	OtherCost      float64 `json:"other_cost" yaml:"other_cost"`
	OtherRatio     float64 `json:"other_ratio" yaml:"other_ratio"`

	// Financing
	CapitalRatio float64 `json:"capital_ratio" yaml:"capital_ratio"` // equity share of construction funding
	WorkingRatio float64 `json:"working_ratio" yaml:"working_ratio"` // equity share of working capital
	LoanRate     float64 `json:"loan_rate" yaml:"loan_rate"`
	WorkingRate  float64 `json:"working_rate" yaml:"working_rate"`
	RateDiscount float64 `json:"rate_discount" yaml:"rate_discount"` // 1.0 = no discount

	// Tax
	IncomeTaxRate    float64 `json:"income_tax_rate" yaml:"income_tax_rate"`
	VATRate          float64 `json:"vat_rate" yaml:"vat_rate"`
	VATRefundRate    float64 `json:"vat_refund_rate" yaml:"vat_refund_rate"`
	BuildTaxRate     float64 `json:"build_tax_rate" yaml:"build_tax_rate"` // city-construction tax
	EduSurchargeRate float64 `json:"edu_surcharge_rate" yaml:"edu_surcharge_rate"`

	// Operating cost drivers
	Workers       int     `json:"workers" yaml:"workers"`
	LaborCost     float64 `json:"labor_cost" yaml:"labor_cost"` // per head per year
	InRepairRate  float64 `json:"in_repair_rate" yaml:"in_repair_rate"`
	OutRepairRate float64 `json:"out_repair_rate" yaml:"out_repair_rate"`
	Warranty      int     `json:"warranty" yaml:"warranty"` // years
	InsuranceRate float64 `json:"insurance_rate" yaml:"insurance_rate"`
	MaterialQuota float64 `json:"material_quota" yaml:"material_quota"`
	OtherQuota    float64 `json:"other_quota" yaml:"other_quota"`
	WorkingQuota  float64 `json:"working_quota" yaml:"working_quota"`
	ProvidentRate float64 `json:"provident_rate" yaml:"provident_rate"` // statutory surplus reserve

	// Schedule
	BuildPeriod        float64 `json:"build_period" yaml:"build_period"` // years, may be fractional
	OperatePeriod      int     `json:"operate_period" yaml:"operate_period"`
	LoanPeriod         int     `json:"loan_period" yaml:"loan_period"`
	GracePeriod        int     `json:"grace_period" yaml:"grace_period"` // carried for reporting only
	ResidualRate       float64 `json:"residual_rate" yaml:"residual_rate"`
	DepreciationPeriod int     `json:"depreciation_period" yaml:"depreciation_period"`

	Adjustments Adjustments `json:"adjustments" yaml:"adjustments"`
}

// Adjustments are external additive corrections, one value per timeline year
// (construction years first). Each series is either empty or exactly Timeline() long.
type Adjustments struct {
	Cost   []float64 `json:"cost,omitempty" yaml:"cost,omitempty"`
	Cash   []float64 `json:"cash,omitempty" yaml:"cash,omitempty"`
	Equity []float64 `json:"equity,omitempty" yaml:"equity,omitempty"`
}

// Default returns the reference wind-farm scenario.
func Default() Parameters {
	return Parameters{
		Capacity:           100.0,
		AEP:                2500.0,
		StaticInvestment:   500000.0,
		Price:              0.2829,
		EquipmentRatio:     0.7,
		InstallRatio:       0.07,
		BuildRatio:         0.13,
		OtherRatio:         0.1,
		CapitalRatio:       0.20,
		WorkingRatio:       0.3,
		LoanRate:           0.046,
		WorkingRate:        0.0435,
		RateDiscount:       1.0,
		IncomeTaxRate:      0.25,
		VATRate:            0.13,
		VATRefundRate:      0.5,
		BuildTaxRate:       0.05,
		EduSurchargeRate:   0.05,
		Workers:            25,
		LaborCost:          16.0,
		InRepairRate:       0.005,
		OutRepairRate:      0.015,
		Warranty:           5,
		InsuranceRate:      0.0025,
		MaterialQuota:      10.0,
		OtherQuota:         30.0,
		WorkingQuota:       30.0,
		ProvidentRate:      0.1,
		BuildPeriod:        1.0,
		OperatePeriod:      20,
		LoanPeriod:         15,
		GracePeriod:        1,
		ResidualRate:       0.05,
		DepreciationPeriod: 20,
	}
}

// ConstructionYears is the construction period rounded up to whole years.
func (p Parameters) ConstructionYears() int {
	return int(math.Ceil(p.BuildPeriod))
}

// Timeline is the number of chronological years: construction plus operation.
func (p Parameters) Timeline() int {
	return p.ConstructionYears() + p.OperatePeriod
}

// UnitInvestment is the static investment per kW.
func (p Parameters) UnitInvestment() float64 {
	if p.Capacity == 0 {
		return 0
	}
	return p.StaticInvestment / p.Capacity
}

// CostComponents are the absolute construction cost categories.
type CostComponents struct {
	Equipment float64
	Install   float64
	Build     float64
	Other     float64
}

// Costs derives the cost components. A component comes from StaticInvestment * ratio
// when its ratio is non-zero; otherwise the caller-supplied absolute value is kept.
func (p Parameters) Costs() CostComponents {
	pick := func(abs, ratio float64) float64 {
		if ratio != 0 {
			return p.StaticInvestment * ratio
		}
		return abs
	}
	return CostComponents{
		Equipment: pick(p.EquipmentCost, p.EquipmentRatio),
		Install:   pick(p.InstallCost, p.InstallRatio),
		Build:     pick(p.BuildCost, p.BuildRatio),
		Other:     pick(p.OtherCost, p.OtherRatio),
	}
}

// Clone returns a deep copy, including the adjustment series.
func (p Parameters) Clone() Parameters {
	c := p
	c.Adjustments = Adjustments{
		Cost:   cloneFloats(p.Adjustments.Cost),
		Cash:   cloneFloats(p.Adjustments.Cash),
		Equity: cloneFloats(p.Adjustments.Equity),
	}
	return c
}

func cloneFloats(in []float64) []float64 {
	if in == nil {
		return nil
	}
	out := make([]float64, len(in))
	copy(out, in)
	return out
}
