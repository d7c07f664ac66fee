package params

import "fmt"

// Field names a scalar parameter that can be overridden by name,
// used by the boundary search and the sensitivity sweeps.
type Field string

const (
	FieldPrice          Field = "price"
	FieldAEP            Field = "aep"
	FieldCapacity       Field = "capacity"
	FieldUnitInvestment Field = "unit_investment" // static investment per kW
	FieldCapitalRatio   Field = "capital_ratio"
	FieldLoanRate       Field = "loan_rate"
)

// Fields lists the overridable fields in a stable order.
func Fields() []Field {
	return []Field{FieldPrice, FieldAEP, FieldCapacity, FieldUnitInvestment, FieldCapitalRatio, FieldLoanRate}
}

// ParseField resolves a field name.
func ParseField(name string) (Field, error) {
	for _, f := range Fields() {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown parameter field %q", name)
}

// With returns a copy of p with one field replaced. p itself is never modified.
// Overriding capacity keeps the unit investment constant, so the static investment scales with it.
func (p Parameters) With(field Field, value float64) (Parameters, error) {
	c := p.Clone()
	switch field {
	case FieldPrice:
		c.Price = value
	case FieldAEP:
		c.AEP = value
	case FieldCapacity:
		unit := p.UnitInvestment()
		c.Capacity = value
		c.StaticInvestment = unit * value
	case FieldUnitInvestment:
		c.StaticInvestment = value * p.Capacity
	case FieldCapitalRatio:
		c.CapitalRatio = value
	case FieldLoanRate:
		c.LoanRate = value
	default:
		return p, fmt.Errorf("unknown parameter field %q", field)
	}
	return c, nil
}

// Get reads a field by name.
func (p Parameters) Get(field Field) (float64, error) {
	switch field {
	case FieldPrice:
		return p.Price, nil
	case FieldAEP:
		return p.AEP, nil
	case FieldCapacity:
		return p.Capacity, nil
	case FieldUnitInvestment:
		return p.UnitInvestment(), nil
	case FieldCapitalRatio:
		return p.CapitalRatio, nil
	case FieldLoanRate:
		return p.LoanRate, nil
	}
	return 0, fmt.Errorf("unknown parameter field %q", field)
}
