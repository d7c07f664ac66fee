package projection

import "project_finance/pkg/core/series"

func row(label string, values series.Series) Row {
	return Row{Label: label, Values: values.Clone()}
}

// statements packages the ledger into the six audit tables.
func (l *ledger) statements() *Statements {
	return &Statements{
		ConstructionYears: l.b,
		FixedAssets:       l.fixedAssets,
		VATDeduction:      l.vatDeduction,

		Investment: Table{Name: TableInvestment, Rows: []Row{
			row(LabelTotalInvestment, l.totalInvestment),
			row(LabelBuildInvestment, l.buildInvestment),
			row(LabelBuildInterest, l.buildInterest),
			row(LabelWorkingCapital, l.workingCapital),
			row(LabelFinancing, l.financing),
			row(LabelCapital, l.capital),
			row(LabelDebt, l.debt),
			row(LabelLongLoan, l.longLoan),
			row(LabelWorkingLoan, l.workingLoan),
		}},

		Cost: Table{Name: TableCost, Rows: []Row{
			row(LabelOperateCost, l.operateCost),
			row(LabelMaterial, l.material),
			row(LabelWage, l.wage),
			row(LabelMaintenance, l.maintenance),
			row(LabelInsurance, l.insurance),
			row(LabelOtherCost, l.otherCost),
			row(LabelDepreciation, l.depreciation),
			row(LabelAmortization, l.amortization),
			row(LabelInterest, l.interest),
			row(LabelTotalCost, l.totalCost),
			row(LabelVariableCost, l.variableCost),
			row(LabelFixedCost, l.fixedCost),
		}},

		DebtService: Table{Name: TableDebtService, Rows: []Row{
			row(LabelLongLoan, l.longLoan),
			row(LabelLongOpening, l.longOpening),
			row(LabelLongPrincipal, l.longPrincipal),
			row(LabelLongInterest, l.longInterest),
			row(LabelLongEnding, l.longEnding),
			row(LabelWorkingLoan, l.workingLoan),
			row(LabelWorkingPrincipal, l.workingPrincipal),
			row(LabelWorkingInterest, l.workingInterest),
			row(LabelTotalPrincipal, l.totalPrincipal),
			row(LabelTotalInterest, l.totalInterest),
			row(LabelDebtService, l.debtService),
		}},

		Profit: Table{Name: TableProfit, Rows: []Row{
			row(LabelGeneration, l.generation),
			row(LabelIncome, l.income),
			row(LabelOutputVAT, l.outputVAT),
			row(LabelVATBalance, l.vatBalance),
			row(LabelOperateTax, l.operateTax),
			row(LabelBuildTax, l.buildTax),
			row(LabelEduSurcharge, l.eduSurcharge),
			row(LabelTotalCost, l.totalCost),
			row(LabelSubsidy, l.subsidy),
			row(LabelVATReturn, l.vatReturn),
			row(LabelVATTurn, l.vatTurn),
			row(LabelProfit, l.profit),
			row(LabelOffsetLoss, l.offsetLoss),
			row(LabelTaxable, l.taxable),
			row(LabelIncomeTax, l.incomeTax),
			row(LabelNetProfit, l.netProfit),
			row(LabelProvident, l.provident),
			row(LabelDistributable, l.distributable),
			row(LabelEBIT, l.ebit),
		}},

		ProjectCash: Table{Name: TableProjectCash, Rows: []Row{
			row(LabelInflow, l.projectInflow),
			row(LabelIncome, l.income),
			row(LabelSubsidy, l.subsidy),
			row(LabelRecoverAsset, l.recoverAsset),
			row(LabelRecoverWorking, l.recoverWorking),
			row(LabelOutflow, l.projectOutflow),
			row(LabelBuildInvestment, l.buildInvestment),
			row(LabelWorkingCapital, l.workingCapital),
			row(LabelOperateCost, l.operateCost),
			row(LabelOperateTax, l.operateTax),
			row(LabelPreTax, l.preTax),
			row(LabelIncomeTax, l.incomeTax),
			row(LabelPostTax, l.postTax),
		}},

		EquityCash: Table{Name: TableEquityCash, Rows: []Row{
			row(LabelInflow, l.equityInflow),
			row(LabelIncome, l.income),
			row(LabelSubsidy, l.subsidy),
			row(LabelRecoverAsset, l.recoverAsset),
			row(LabelRecoverEquityWorking, l.recoverEquityWorking),
			row(LabelOutflow, l.equityOutflow),
			row(LabelCapital, l.capital),
			row(LabelPrincipalRepayment, l.longPrincipal),
			row(LabelInterestPayment, l.interest),
			row(LabelOperateCost, l.operateCost),
			row(LabelOperateTax, l.operateTax),
			row(LabelIncomeTax, l.incomeTax),
			row(LabelEquityNet, l.equity),
		}},
	}
}
