package projection

import (
	"project_finance/pkg/core/series"
)

// CashFlows is the result of one projection run. Every series spans the whole
// timeline: ConstructionYears construction years followed by the operating years.
type CashFlows struct {
	ConstructionYears int

	PreTax  series.Series // project net flow before income tax
	PostTax series.Series // project net flow after income tax
	Equity  series.Series // equity holders' net flow

	// Carried for LCOE and reporting
	Generation series.Series // 10^4 kWh
	Costs      series.Series // construction investment + working capital + operating cost + indirect taxes

	FixedAssets  float64
	VATDeduction float64
}

// Years is the timeline length.
func (c CashFlows) Years() int {
	return len(c.PreTax)
}

// Operating drops the construction years from every series.
func (c CashFlows) Operating() CashFlows {
	b := c.ConstructionYears
	return CashFlows{
		ConstructionYears: 0,
		PreTax:            c.PreTax.Window(b, len(c.PreTax)),
		PostTax:           c.PostTax.Window(b, len(c.PostTax)),
		Equity:            c.Equity.Window(b, len(c.Equity)),
		Generation:        c.Generation.Window(b, len(c.Generation)),
		Costs:             c.Costs.Window(b, len(c.Costs)),
		FixedAssets:       c.FixedAssets,
		VATDeduction:      c.VATDeduction,
	}
}

// Row is one labelled line of an audit table.
type Row struct {
	Label  string
	Values series.Series
}

// Total is the aggregate over all years.
func (r Row) Total() float64 {
	return r.Values.Total()
}

// Table is a named audit table.
type Table struct {
	Name string
	Rows []Row
}

// Row finds a row by label.
func (t Table) Row(label string) (Row, bool) {
	for _, r := range t.Rows {
		if r.Label == label {
			return r, true
		}
	}
	return Row{}, false
}

// Values returns the yearly values of a row, or nil when the label is absent.
func (t Table) Values(label string) series.Series {
	r, ok := t.Row(label)
	if !ok {
		return nil
	}
	return r.Values
}

// Statements are the six audit tables produced on request.
type Statements struct {
	ConstructionYears int
	FixedAssets       float64
	VATDeduction      float64

	Investment  Table // investment & financing
	Cost        Table // total cost breakdown
	DebtService Table
	Profit      Table // profit & distribution
	ProjectCash Table
	EquityCash  Table
}

// Tables lists the statements in reporting order.
func (s *Statements) Tables() []Table {
	return []Table{s.Investment, s.Cost, s.DebtService, s.Profit, s.ProjectCash, s.EquityCash}
}

// Table names.
const (
	TableInvestment  = "Investment & Financing"
	TableCost        = "Total Cost"
	TableDebtService = "Debt Service"
	TableProfit      = "Profit & Distribution"
	TableProjectCash = "Project Cash Flow"
	TableEquityCash  = "Equity Cash Flow"
)

// Row labels.
const (
	// Investment & financing
	LabelBuildInvestment = "Construction investment"
	LabelBuildInterest   = "Construction interest"
	LabelWorkingCapital  = "Working capital"
	LabelTotalInvestment = "Total investment"
	LabelCapital         = "Equity contribution"
	LabelLongLoan        = "Long-term loan"
	LabelWorkingLoan     = "Working-capital loan"
	LabelDebt            = "Debt"
	LabelFinancing       = "Total financing"

	// Cost
	LabelMaterial     = "Material"
	LabelWage         = "Labor"
	LabelMaintenance  = "Maintenance"
	LabelInsurance    = "Insurance"
	LabelOtherCost    = "Other operating cost"
	LabelOperateCost  = "Operating cost"
	LabelDepreciation = "Depreciation"
	LabelAmortization = "Amortization"
	LabelInterest     = "Interest"
	LabelTotalCost    = "Total cost"
	LabelVariableCost = "Variable cost"
	LabelFixedCost    = "Fixed cost"

	// Debt service
	LabelLongOpening      = "Long-term opening balance"
	LabelLongPrincipal    = "Long-term principal"
	LabelLongInterest     = "Long-term interest"
	LabelLongEnding       = "Long-term ending balance"
	LabelWorkingPrincipal = "Working-capital principal"
	LabelWorkingInterest  = "Working-capital interest"
	LabelTotalPrincipal   = "Total principal"
	LabelTotalInterest    = "Total interest"
	LabelDebtService      = "Total debt service"

	// Profit & distribution
	LabelGeneration    = "Generation"
	LabelIncome        = "Operating income"
	LabelOutputVAT     = "Output VAT"
	LabelVATBalance    = "VAT credit balance"
	LabelBuildTax      = "City construction tax"
	LabelEduSurcharge  = "Education surcharge"
	LabelOperateTax    = "Indirect taxes"
	LabelVATReturn     = "VAT refund"
	LabelVATTurn       = "VAT turnover"
	LabelSubsidy       = "Subsidy"
	LabelProfit        = "Profit"
	LabelOffsetLoss    = "Loss offset"
	LabelTaxable       = "Taxable income"
	LabelIncomeTax     = "Income tax"
	LabelNetProfit     = "Net profit"
	LabelProvident     = "Statutory reserve"
	LabelDistributable = "Distributable profit"
	LabelEBIT          = "EBIT"

	// Cash flows
	LabelRecoverAsset         = "Residual asset recovery"
	LabelRecoverWorking       = "Working capital recovery"
	LabelInflow               = "Cash inflow"
	LabelOutflow              = "Cash outflow"
	LabelPreTax               = "Net cash flow before income tax"
	LabelPostTax              = "Net cash flow after income tax"
	LabelRecoverEquityWorking = "Equity working capital recovery"
	LabelEquityNet            = "Equity net cash flow"
	LabelPrincipalRepayment   = "Principal repayment"
	LabelInterestPayment      = "Interest payment"
)
