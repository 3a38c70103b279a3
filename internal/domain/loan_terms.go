package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrPrincipalInvalid      = errors.New("principal must be positive")
	ErrRateInvalid           = errors.New("interest rate must be non-negative")
	ErrTermInvalid           = errors.New("term is out of range")
	ErrFileChargeRateInvalid = errors.New("file charge rate must be between 0 and 1")
	ErrFrequencyInvalid      = errors.New("frequency must be 'monthly' or 'daily'")
	ErrPrincipalTooLarge     = errors.New("principal exceeds the maximum loan amount")
	ErrRateTooLarge          = errors.New("interest rate exceeds the maximum")
)

// Term bounds enforced at the input boundary
const (
	MinTermPeriods = 1
	MaxTermMonths  = 60
	MaxTermDays    = 365
)

// Amount bounds enforced at the input boundary
var (
	MaxPrincipal   = decimal.NewFromInt(100_000_000)
	MaxRatePercent = decimal.NewFromInt(100)
)

// Frequency is the installment unit of a loan. Every set of terms carries it
// explicitly so day- and month-denominated products never share an implicit unit.
type Frequency string

const (
	FrequencyMonthly Frequency = "monthly"
	FrequencyDaily   Frequency = "daily"
)

// LoanTerms are the immutable inputs of a loan
type LoanTerms struct {
	Principal      decimal.Decimal `json:"principal"`
	RatePercent    decimal.Decimal `json:"ratePercent"`
	TermPeriods    int             `json:"termPeriods"`
	Frequency      Frequency       `json:"frequency"`
	FileChargeRate decimal.Decimal `json:"fileChargeRate"`
}

// MaxTerm returns the largest allowed term for the frequency
func (f Frequency) MaxTerm() int {
	if f == FrequencyDaily {
		return MaxTermDays
	}
	return MaxTermMonths
}

func (t *LoanTerms) Validate() error {
	if t.Frequency != FrequencyMonthly && t.Frequency != FrequencyDaily {
		return ErrFrequencyInvalid
	}
	if t.Principal.LessThanOrEqual(decimal.Zero) {
		return ErrPrincipalInvalid
	}
	if t.Principal.GreaterThan(MaxPrincipal) {
		return ErrPrincipalTooLarge
	}
	if t.RatePercent.LessThan(decimal.Zero) {
		return ErrRateInvalid
	}
	if t.RatePercent.GreaterThan(MaxRatePercent) {
		return ErrRateTooLarge
	}
	if t.TermPeriods < MinTermPeriods || t.TermPeriods > t.Frequency.MaxTerm() {
		return ErrTermInvalid
	}
	if t.FileChargeRate.LessThan(decimal.Zero) || t.FileChargeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return ErrFileChargeRateInvalid
	}
	return nil
}
