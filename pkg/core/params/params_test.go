package params

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	p := Default()
	require.NoError(t, p.Validate())
	assert.Equal(t, 1, p.ConstructionYears())
	assert.Equal(t, 21, p.Timeline())
	assert.InDelta(t, 5000.0, p.UnitInvestment(), 1e-9)
}

func TestConstructionYearsRoundsUp(t *testing.T) {
	p := Default()
	p.BuildPeriod = 1.5
	assert.Equal(t, 2, p.ConstructionYears())
	assert.Equal(t, 22, p.Timeline())
}

func TestCostsPreferRatios(t *testing.T) {
	p := Default()
	p.EquipmentCost = 1
	p.OtherRatio = 0
	p.OtherCost = 1234

	c := p.Costs()
	assert.InDelta(t, 350000.0, c.Equipment, 1e-9)
	assert.InDelta(t, 35000.0, c.Install, 1e-9)
	assert.InDelta(t, 65000.0, c.Build, 1e-9)
	assert.InDelta(t, 1234.0, c.Other, 1e-9)
}

func TestValidateNamesOffendingField(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Parameters)
		field  string
	}{
		{"zero capacity", func(p *Parameters) { p.Capacity = 0 }, "capacity"},
		{"zero operate period", func(p *Parameters) { p.OperatePeriod = 0 }, "operate_period"},
		{"negative loan period", func(p *Parameters) { p.LoanPeriod = -1 }, "loan_period"},
		{"loan beyond operation", func(p *Parameters) { p.LoanPeriod = 25 }, "loan_period"},
		{"warranty beyond operation", func(p *Parameters) { p.Warranty = 21 }, "warranty"},
		{"depreciation beyond operation", func(p *Parameters) { p.DepreciationPeriod = 30 }, "depreciation_period"},
		{"ratio above one", func(p *Parameters) { p.CapitalRatio = 1.2 }, "capital_ratio"},
		{"negative ratio", func(p *Parameters) { p.ResidualRate = -0.1 }, "residual_rate"},
		{"short adjustment", func(p *Parameters) { p.Adjustments.Cash = []float64{1, 2} }, "adjustments.cash"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Default()
			tt.mutate(&p)

			err := p.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidParameter))

			var pe *ParameterError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.field, pe.Field)
		})
	}
}

func TestWithDoesNotMutate(t *testing.T) {
	p := Default()
	p.Adjustments.Cost = make([]float64, p.Timeline())

	q, err := p.With(FieldPrice, 0.4)
	require.NoError(t, err)
	q.Adjustments.Cost[0] = 99

	assert.InDelta(t, 0.2829, p.Price, 1e-12)
	assert.InDelta(t, 0.4, q.Price, 1e-12)
	assert.Zero(t, p.Adjustments.Cost[0])
}

func TestWithUnitInvestmentAndCapacity(t *testing.T) {
	p := Default()

	q, err := p.With(FieldUnitInvestment, 4000)
	require.NoError(t, err)
	assert.InDelta(t, 400000.0, q.StaticInvestment, 1e-9)
	assert.InDelta(t, 280000.0, q.Costs().Equipment, 1e-9)

	r, err := p.With(FieldCapacity, 50)
	require.NoError(t, err)
	assert.InDelta(t, 250000.0, r.StaticInvestment, 1e-9)

	v, err := r.Get(FieldUnitInvestment)
	require.NoError(t, err)
	assert.InDelta(t, 5000.0, v, 1e-9)

	_, err = p.With(Field("nope"), 1)
	assert.Error(t, err)
}

func TestParseField(t *testing.T) {
	f, err := ParseField("aep")
	require.NoError(t, err)
	assert.Equal(t, FieldAEP, f)

	_, err = ParseField("tariff")
	assert.Error(t, err)
}

func TestBenchmarkTariff(t *testing.T) {
	v, ok := BenchmarkTariff("Mengxi")
	require.True(t, ok)
	assert.InDelta(t, 0.2829, v, 1e-12)

	_, ok = BenchmarkTariff("Atlantis")
	assert.False(t, ok)

	regions := Regions()
	assert.Len(t, regions, len(benchmarkTariffs))
	assert.Equal(t, "Anhui", regions[0])

	p, ok := Default().WithRegionalPrice("Henan")
	require.True(t, ok)
	assert.InDelta(t, 0.3779, p.Price, 1e-12)
}
