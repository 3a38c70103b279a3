package service

import (
	"time"

	"github.com/dafibh/loandesk/loandesk-backend/internal/domain"
	"github.com/dafibh/loandesk/loandesk-backend/internal/util"
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// Fixed STL product policy: 10000 disbursed, repaid as 100 daily installments of 100
var (
	STLPrincipal   = decimal.NewFromInt(10000)
	STLRatePercent = decimal.Zero
)

const STLTermDays = 100

// DefaultFileChargeRate is the LRA origination charge as a fraction of the disbursement
var DefaultFileChargeRate = decimal.NewFromFloat(0.05)

// SimpleInterestResult holds unrounded flat-interest figures; round only when presenting
type SimpleInterestResult struct {
	Principal     decimal.Decimal
	RatePercent   decimal.Decimal
	TermPeriods   int
	TotalInterest decimal.Decimal
	TotalPayment  decimal.Decimal
	EMI           decimal.Decimal
}

// CalculateSimpleInterest applies a flat rate per period across the whole term
// Formula: interest = principal * rate/100 * term; emi = (principal + interest) / term
func CalculateSimpleInterest(principal, flatRatePercent decimal.Decimal, termPeriods int) SimpleInterestResult {
	result := SimpleInterestResult{
		Principal:     principal,
		RatePercent:   flatRatePercent,
		TermPeriods:   termPeriods,
		TotalInterest: decimal.Zero,
		TotalPayment:  decimal.Zero,
		EMI:           decimal.Zero,
	}
	if termPeriods < domain.MinTermPeriods {
		return result
	}

	term := decimal.NewFromInt(int64(termPeriods))
	result.TotalInterest = principal.Mul(flatRatePercent.Div(hundred)).Mul(term)
	result.TotalPayment = principal.Add(result.TotalInterest)
	result.EMI = result.TotalPayment.Div(term)
	return result
}

// STLTerms returns the fixed STL product as explicit daily terms
func STLTerms() domain.LoanTerms {
	return domain.LoanTerms{
		Principal:      STLPrincipal,
		RatePercent:    STLRatePercent,
		TermPeriods:    STLTermDays,
		Frequency:      domain.FrequencyDaily,
		FileChargeRate: decimal.Zero,
	}
}

// FixedProductResult is the STL policy evaluated through the general calculator
type FixedProductResult struct {
	Terms        domain.LoanTerms
	Calculation  SimpleInterestResult
	Installments []domain.EmiScheduleEntry
}

// CalculateSTL evaluates the fixed STL product as a degenerate simple-interest loan.
// Installments fall due daily starting the day after start.
func CalculateSTL(start time.Time, loc *time.Location) FixedProductResult {
	terms := STLTerms()
	calc := CalculateSimpleInterest(terms.Principal, terms.RatePercent, terms.TermPeriods)

	day := util.DateOnly(start, loc)
	dates := make([]time.Time, terms.TermPeriods)
	for i := range dates {
		dates[i] = day.AddDate(0, 0, i+1)
	}

	return FixedProductResult{
		Terms:        terms,
		Calculation:  calc,
		Installments: buildInstallments(dates, calc.EMI, calc.TotalPayment),
	}
}

// LRAResult holds the amortized-product preview
type LRAResult struct {
	DisbursementAmount decimal.Decimal
	AnnualRatePercent  decimal.Decimal
	TermMonths         int
	FileCharges        decimal.Decimal
	TotalLoanAmount    decimal.Decimal
	TotalInterest      decimal.Decimal
	TotalPayable       decimal.Decimal
	MonthlyEmi         decimal.Decimal
	PrincipalPerMonth  decimal.Decimal
	InterestPerMonth   decimal.Decimal
	EmiDates           []time.Time
	Installments       []domain.EmiScheduleEntry
}

// CalculateLRA computes the LRA preview with the canonical formula: interest accrues
// on the disbursement only, prorated by term/12. File charges are collected up front
// and do not bear interest. All outputs are zero when any input is not positive.
func CalculateLRA(disbursement, annualRatePercent decimal.Decimal, termMonths int, fileChargeRate decimal.Decimal, today time.Time) LRAResult {
	result := LRAResult{
		DisbursementAmount: disbursement,
		AnnualRatePercent:  annualRatePercent,
		TermMonths:         termMonths,
		FileCharges:        decimal.Zero,
		TotalLoanAmount:    decimal.Zero,
		TotalInterest:      decimal.Zero,
		TotalPayable:       decimal.Zero,
		MonthlyEmi:         decimal.Zero,
		PrincipalPerMonth:  decimal.Zero,
		InterestPerMonth:   decimal.Zero,
		EmiDates:           []time.Time{},
		Installments:       []domain.EmiScheduleEntry{},
	}
	if disbursement.LessThanOrEqual(decimal.Zero) || termMonths <= 0 || annualRatePercent.LessThanOrEqual(decimal.Zero) {
		return result
	}

	term := decimal.NewFromInt(int64(termMonths))

	result.FileCharges = disbursement.Mul(fileChargeRate).Round(0)
	result.TotalLoanAmount = disbursement.Add(result.FileCharges)
	result.TotalInterest = disbursement.Mul(annualRatePercent.Div(hundred)).Mul(term.Div(twelve))
	result.TotalPayable = disbursement.Add(result.TotalInterest)
	result.MonthlyEmi = result.TotalPayable.Div(term).Round(0)
	result.PrincipalPerMonth = disbursement.Div(term)
	result.InterestPerMonth = result.TotalInterest.Div(term)
	result.EmiDates = MonthlyDueDates(today, termMonths)
	result.Installments = buildInstallments(result.EmiDates, result.MonthlyEmi, result.TotalPayable)

	return result
}

// MonthlyDueDates returns termMonths due dates, the i-th being today + (i+1) months
func MonthlyDueDates(today time.Time, termMonths int) []time.Time {
	if termMonths <= 0 {
		return []time.Time{}
	}
	dates := make([]time.Time, termMonths)
	for i := range dates {
		dates[i] = util.AddMonthsClamped(today, i+1)
	}
	return dates
}

// buildInstallments splits total into len(dates) pending installments of `each`.
// No installment exceeds what is still owed and the last one takes the remainder,
// so the amounts always sum to total.
func buildInstallments(dates []time.Time, each, total decimal.Decimal) []domain.EmiScheduleEntry {
	entries := make([]domain.EmiScheduleEntry, len(dates))
	remaining := total
	for i, due := range dates {
		amount := each
		if i == len(dates)-1 || amount.GreaterThan(remaining) {
			amount = remaining
		}
		remaining = remaining.Sub(amount)
		entries[i] = domain.EmiScheduleEntry{
			Index:       i,
			DueDate:     due,
			Amount:      amount,
			Status:      domain.EmiStatusPending,
			Interest:    decimal.Zero,
			TotalAmount: amount,
		}
	}
	return entries
}

// LegacyTotalPayable is the formula the LRA edit form used: interest on
// disbursement plus file charges at rate/12 per month. Only used to measure drift.
func LegacyTotalPayable(disbursement, annualRatePercent decimal.Decimal, termMonths int, fileChargeRate decimal.Decimal) decimal.Decimal {
	if disbursement.LessThanOrEqual(decimal.Zero) || termMonths <= 0 || annualRatePercent.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	fileCharges := disbursement.Mul(fileChargeRate).Round(0)
	monthlyRate := annualRatePercent.Div(hundred).Div(twelve)
	factor := decimal.NewFromInt(1).Add(monthlyRate.Mul(decimal.NewFromInt(int64(termMonths))))
	return disbursement.Add(fileCharges).Mul(factor)
}

// RederiveResult compares a schedule produced by the legacy edit-form formula with
// the canonical one
type RederiveResult struct {
	CanonicalTotalPayable decimal.Decimal
	CanonicalMonthlyEmi   decimal.Decimal
	LegacyTotalPayable    decimal.Decimal
	LegacyMonthlyEmi      decimal.Decimal
	TotalPayableDrift     decimal.Decimal
	MonthlyEmiDrift       decimal.Decimal
}

// RederiveLRA recomputes the canonical figures for terms that may have been
// scheduled with the legacy formula
func RederiveLRA(disbursement, annualRatePercent decimal.Decimal, termMonths int, fileChargeRate decimal.Decimal, today time.Time) RederiveResult {
	canonical := CalculateLRA(disbursement, annualRatePercent, termMonths, fileChargeRate, today)
	legacyTotal := LegacyTotalPayable(disbursement, annualRatePercent, termMonths, fileChargeRate)
	legacyEmi := decimal.Zero
	if termMonths > 0 {
		legacyEmi = legacyTotal.Div(decimal.NewFromInt(int64(termMonths))).Round(0)
	}

	return RederiveResult{
		CanonicalTotalPayable: canonical.TotalPayable,
		CanonicalMonthlyEmi:   canonical.MonthlyEmi,
		LegacyTotalPayable:    legacyTotal,
		LegacyMonthlyEmi:      legacyEmi,
		TotalPayableDrift:     legacyTotal.Sub(canonical.TotalPayable),
		MonthlyEmiDrift:       legacyEmi.Sub(canonical.MonthlyEmi),
	}
}
