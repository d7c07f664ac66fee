// Package projection turns a parameter snapshot into year-by-year project-finance
// cash flows: construction financing, operating costs, debt service, indirect and
// income taxes, and the project and equity net flows.
//
// The engine is a pure function of params.Parameters. It never writes back to the
// snapshot, so callers may share one value across goroutines or search iterations.
package projection

import (
	"fmt"

	"project_finance/pkg/core/params"
	"project_finance/pkg/core/series"
)

const (
	// Generation curve. First-year output is normalized by a fixed hour base, the
	// second year keeps 98% of it, and from the third year the second-year value is
	// scaled by a factor that starts at 0.9755 and drops 0.0045 per year.
	generationHourBase = 0.93112
	secondYearRetained = 0.98
	degradationStart   = 0.9755
	degradationStep    = 0.0045

	// Input VAT rates applied to the non-equipment cost categories.
	buildInstallVATRate = 0.09
	otherCostVATRate    = 0.06

	// Income tax schedule in operating years: exempt, then half rate, then full rate.
	taxExemptYears  = 3
	taxHalfRateEnds = 6
)

// ledger holds every intermediate series of one run, all timeline-long.
type ledger struct {
	b, n int

	fixedAssets  float64
	vatDeduction float64

	// Investment & financing
	buildInvestment, buildInterest, workingCapital, totalInvestment series.Series
	capital, longLoan, workingLoan, debt, financing                 series.Series

	// Cost
	material, wage, maintenance, insurance, otherCost, operateCost series.Series
	depreciation, amortization, interest, totalCost                series.Series
	variableCost, fixedCost                                        series.Series

	// Debt service
	longOpening, longPrincipal, longInterest, longEnding series.Series
	workingPrincipal, workingInterest                    series.Series
	totalPrincipal, totalInterest, debtService           series.Series

	// Revenue, indirect tax, profit
	generation, income, outputVAT, vatBalance, taxBase series.Series
	buildTax, eduSurcharge, operateTax                 series.Series
	vatReturn, vatTurn, subsidy                        series.Series
	profit, offsetLoss, taxable, incomeTax             series.Series
	netProfit, provident, distributable, ebit          series.Series

	// Cash flows
	recoverAsset, recoverWorking, projectInflow, projectOutflow series.Series
	preTax, postTax                                             series.Series
	recoverEquityWorking, equityInflow, equityOutflow, equity   series.Series
}

// Project runs the engine and returns the three net-flow series.
//
// The series deliberately span the whole timeline, construction years first, so
// they can be handed to calc.IRR as they are. Operating() gives the view of
// length OperatePeriod.
func Project(p params.Parameters) (CashFlows, error) {
	l, err := run(p)
	if err != nil {
		return CashFlows{}, err
	}
	return l.cashFlows(), nil
}

// ProjectWithStatements runs the engine and additionally returns the six audit tables.
func ProjectWithStatements(p params.Parameters) (CashFlows, *Statements, error) {
	l, err := run(p)
	if err != nil {
		return CashFlows{}, nil, err
	}
	return l.cashFlows(), l.statements(), nil
}

func run(p params.Parameters) (*ledger, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("projection: %w", err)
	}

	b := p.ConstructionYears()
	n := p.Timeline()
	l := &ledger{b: b, n: n}

	l.investment(p)
	l.costs(p)
	l.debtSchedule(p)
	l.revenue(p)
	l.indirectTax(p)
	l.profitAndTax(p)
	l.projectCash(p)
	l.equityCash(p)

	return l, nil
}

// -----------------------------------------------------------------------------
// 1. Investment & financing
// -----------------------------------------------------------------------------

func (l *ledger) investment(p params.Parameters) {
	b, n := l.b, l.n

	// All static investment lands in the first construction year; interest on it
	// is charged at half the annual rate (mid-year drawdown).
	l.buildInvestment = series.New(n)
	l.buildInvestment[0] = p.StaticInvestment
	l.buildInterest = series.New(n)
	l.buildInterest[0] = p.StaticInvestment * p.LoanRate * p.RateDiscount / 2

	// Working capital is injected in the first operating year.
	l.workingCapital = series.New(n)
	l.workingCapital[b] = p.Capacity * p.WorkingQuota

	l.totalInvestment = series.Sum(l.buildInvestment, l.buildInterest, l.workingCapital)

	l.capital = series.New(n)
	l.capital[0] += l.totalInvestment[0] * p.CapitalRatio
	l.capital[b] += l.totalInvestment[b] * p.WorkingRatio

	l.longLoan = series.New(n)
	l.longLoan[0] = l.totalInvestment[0] - l.capital[0]
	l.workingLoan = series.New(n)
	l.workingLoan[b] = l.totalInvestment[b] - l.capital[b]

	l.debt = l.totalInvestment.Sub(l.capital)
	l.financing = series.Sum(l.capital, l.debt)

	// Fixed assets exclude the recoverable input VAT of each cost category.
	c := p.Costs()
	l.vatDeduction = c.Equipment/(1+p.VATRate)*p.VATRate +
		(c.Build+c.Install)/(1+buildInstallVATRate)*buildInstallVATRate +
		c.Other/(1+otherCostVATRate)*otherCostVATRate
	l.fixedAssets = l.totalInvestment[0] - l.vatDeduction
}

// -----------------------------------------------------------------------------
// 2. Operating cost and depreciation
// -----------------------------------------------------------------------------

func (l *ledger) costs(p params.Parameters) {
	b, n := l.b, l.n

	l.material = series.New(n)
	l.wage = series.New(n)
	l.maintenance = series.New(n)
	l.insurance = series.New(n)
	l.otherCost = series.New(n)
	l.depreciation = series.New(n)
	l.amortization = series.New(n)

	l.material.Fill(b, n, p.Capacity*p.MaterialQuota)
	l.wage.Fill(b, n, float64(p.Workers)*p.LaborCost)
	l.insurance.Fill(b, n, l.fixedAssets*p.InsuranceRate)
	l.otherCost.Fill(b, n, p.Capacity*p.OtherQuota)

	// Hard cutover at the warranty boundary.
	l.maintenance.Fill(b, b+p.Warranty, l.fixedAssets*p.InRepairRate)
	l.maintenance.Fill(b+p.Warranty, n, l.fixedAssets*p.OutRepairRate)

	// Straight line over the depreciation window, zero afterwards.
	if p.DepreciationPeriod > 0 {
		annual := l.fixedAssets * (1 - p.ResidualRate) / float64(p.DepreciationPeriod)
		l.depreciation.Fill(b, b+p.DepreciationPeriod, annual)
	}

	l.operateCost = series.Sum(l.maintenance, l.wage, l.insurance, l.material, l.otherCost,
		series.Series(p.Adjustments.Cost))
}

// -----------------------------------------------------------------------------
// 3. Debt service (equal principal)
// -----------------------------------------------------------------------------

func (l *ledger) debtSchedule(p params.Parameters) {
	b, n := l.b, l.n
	rate := p.LoanRate * p.RateDiscount

	l.longOpening = series.New(n)
	l.longPrincipal = series.New(n)
	l.longInterest = series.New(n)
	l.longEnding = series.New(n)

	principal := l.longLoan[0]
	installment := principal / float64(p.LoanPeriod)
	for j := 0; j < p.LoanPeriod; j++ {
		t := b + j
		opening := principal - float64(j)*installment
		l.longOpening[t] = opening
		l.longPrincipal[t] = installment
		l.longInterest[t] = opening * rate
		l.longEnding[t] = opening - installment
	}
	// No drift left on the books after the final installment.
	last := b + p.LoanPeriod - 1
	l.longEnding[last] = 0

	// The working-capital loan carries interest every operating year and is repaid
	// in one lump sum in the final year.
	wl := l.workingLoan[b]
	l.workingInterest = series.New(n)
	l.workingInterest.Fill(b, n, wl*p.WorkingRate)
	l.workingPrincipal = series.New(n)
	l.workingPrincipal[n-1] = wl

	l.totalPrincipal = series.Sum(l.longPrincipal, l.workingPrincipal)
	l.totalInterest = series.Sum(l.longInterest, l.workingInterest)
	l.debtService = series.Sum(l.totalPrincipal, l.totalInterest)
	l.interest = l.totalInterest

	l.totalCost = series.Sum(l.depreciation, l.operateCost, l.amortization, l.interest)
	l.variableCost = l.material.Clone()
	l.fixedCost = l.totalCost.Sub(l.variableCost)
}

// -----------------------------------------------------------------------------
// 4. Generation and revenue
// -----------------------------------------------------------------------------

func (l *ledger) revenue(p params.Parameters) {
	b, n := l.b, l.n

	l.generation = series.New(n)
	first := p.Capacity * p.AEP / generationHourBase
	second := first * secondYearRetained
	for j := 0; j < p.OperatePeriod; j++ {
		t := b + j
		switch j {
		case 0:
			l.generation[t] = first
		case 1:
			l.generation[t] = second
		default:
			l.generation[t] = second * (degradationStart - float64(j-2)*degradationStep)
		}
	}

	// Revenue excludes VAT; output VAT is levied on that revenue.
	l.income = l.generation.Scale(p.Price / (1 + p.VATRate))
	l.outputVAT = l.income.Scale(p.VATRate / (1 + p.VATRate))
}

// -----------------------------------------------------------------------------
// 5. VAT input-credit carryforward and indirect taxes
// -----------------------------------------------------------------------------

func (l *ledger) indirectTax(p params.Parameters) {
	b, n := l.b, l.n

	l.vatBalance = series.New(n)
	l.taxBase = series.New(n)
	l.vatTurn = series.New(n)

	for t := b; t < n; t++ {
		if t == b {
			l.vatBalance[t] = l.vatDeduction
		} else {
			l.vatBalance[t] = l.vatBalance[t-1] - l.outputVAT[t-1]
		}

		balance, vat := l.vatBalance[t], l.outputVAT[t]
		switch {
		case balance <= 0:
			l.taxBase[t] = vat
		case balance-vat <= 0:
			// Credit runs out during this year.
			l.taxBase[t] = vat - balance
		default:
			l.taxBase[t] = 0
		}

		switch {
		case balance < 0:
			l.vatTurn[t] = 0
		case balance >= vat:
			l.vatTurn[t] = vat
		default:
			l.vatTurn[t] = balance
		}
	}

	l.buildTax = l.taxBase.Scale(p.BuildTaxRate)
	l.eduSurcharge = l.taxBase.Scale(p.EduSurchargeRate)
	l.operateTax = series.Sum(l.buildTax, l.eduSurcharge)

	// Refund of the net VAT actually paid.
	l.vatReturn = l.taxBase.Scale(p.VATRefundRate)
	l.subsidy = series.Sum(l.vatReturn, l.vatTurn)
}

// -----------------------------------------------------------------------------
// 6. Profit and income tax
// -----------------------------------------------------------------------------

func (l *ledger) profitAndTax(p params.Parameters) {
	b, n := l.b, l.n

	l.profit = series.Sum(l.income.Sub(l.operateTax, l.totalCost), l.vatReturn)

	// Loss carryforward is not modelled.
	l.offsetLoss = series.New(n)
	l.taxable = l.profit.Sub(l.offsetLoss)

	l.incomeTax = series.New(n)
	for t := b; t < n; t++ {
		j := t - b
		taxable := l.taxable[t]
		switch {
		case j < taxExemptYears, taxable <= 0:
			l.incomeTax[t] = 0
		case j < taxHalfRateEnds:
			l.incomeTax[t] = taxable * p.IncomeTaxRate / 2
		default:
			l.incomeTax[t] = taxable * p.IncomeTaxRate
		}
	}

	l.netProfit = l.profit.Sub(l.incomeTax)
	l.provident = l.netProfit.Scale(p.ProvidentRate)
	l.distributable = l.netProfit.Sub(l.provident)
	l.ebit = series.Sum(l.profit, l.interest)
}

// -----------------------------------------------------------------------------
// 7. Project cash flow
// -----------------------------------------------------------------------------

func (l *ledger) projectCash(p params.Parameters) {
	n := l.n

	l.recoverAsset = series.New(n)
	l.recoverAsset[n-1] = l.fixedAssets * p.ResidualRate
	l.recoverWorking = series.New(n)
	l.recoverWorking[n-1] = l.workingCapital[l.b]

	l.projectInflow = series.Sum(l.income, l.subsidy, l.recoverAsset, l.recoverWorking)
	l.projectOutflow = series.Sum(l.buildInvestment, l.workingCapital, l.operateCost, l.operateTax)

	l.preTax = series.Sum(l.projectInflow.Sub(l.projectOutflow), series.Series(p.Adjustments.Cash))
	l.postTax = l.preTax.Sub(l.incomeTax)
}

// -----------------------------------------------------------------------------
// 8. Equity cash flow
// -----------------------------------------------------------------------------

func (l *ledger) equityCash(p params.Parameters) {
	n := l.n

	// Equity recovers its own share of working capital, once, in the final year.
	l.recoverEquityWorking = series.New(n)
	l.recoverEquityWorking[n-1] = l.workingCapital[l.b] * p.WorkingRatio

	l.equityInflow = series.Sum(l.income, l.subsidy, l.recoverAsset, l.recoverEquityWorking)
	l.equityOutflow = series.Sum(l.capital, l.longPrincipal, l.interest, l.operateCost,
		l.operateTax, l.incomeTax)

	l.equity = series.Sum(l.equityInflow.Sub(l.equityOutflow), series.Series(p.Adjustments.Equity))
}

func (l *ledger) cashFlows() CashFlows {
	return CashFlows{
		ConstructionYears: l.b,
		PreTax:            l.preTax.Clone(),
		PostTax:           l.postTax.Clone(),
		Equity:            l.equity.Clone(),
		Generation:        l.generation.Clone(),
		Costs:             series.Sum(l.buildInvestment, l.workingCapital, l.operateCost, l.operateTax),
		FixedAssets:       l.fixedAssets,
		VATDeduction:      l.vatDeduction,
	}
}
