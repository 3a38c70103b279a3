package service

import (
	"time"

	"github.com/dafibh/loandesk/loandesk-backend/internal/domain"
	"github.com/dafibh/loandesk/loandesk-backend/internal/util"
	"github.com/shopspring/decimal"
)

// CalculatorConfig holds the product policy values used by the calculators
type CalculatorConfig struct {
	PublicRatePercent decimal.Decimal // flat rate of the public calculator
	FileChargeRate    decimal.Decimal
	Location          *time.Location
}

// CalculatorService validates calculator input and evaluates the pure calculators
type CalculatorService struct {
	cfg   CalculatorConfig
	clock domain.Clock
}

// NewCalculatorService creates a new CalculatorService
func NewCalculatorService(cfg CalculatorConfig, clock domain.Clock) *CalculatorService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &CalculatorService{cfg: cfg, clock: clock}
}

// PublicRatePercent returns the rate applied when the caller does not pass one
func (s *CalculatorService) PublicRatePercent() decimal.Decimal {
	return s.cfg.PublicRatePercent
}

// Simple evaluates the flat-interest calculator. A nil rate uses the public rate.
func (s *CalculatorService) Simple(principal decimal.Decimal, ratePercent *decimal.Decimal, termMonths int) (SimpleInterestResult, error) {
	rate := s.cfg.PublicRatePercent
	if ratePercent != nil {
		rate = *ratePercent
	}

	terms := domain.LoanTerms{
		Principal:      principal,
		RatePercent:    rate,
		TermPeriods:    termMonths,
		Frequency:      domain.FrequencyMonthly,
		FileChargeRate: decimal.Zero,
	}
	if err := terms.Validate(); err != nil {
		return SimpleInterestResult{}, err
	}

	return CalculateSimpleInterest(principal, rate, termMonths), nil
}

// LRA evaluates the amortized calculator against today's date. Negative or
// out-of-range input is rejected; zero input yields the empty preview.
func (s *CalculatorService) LRA(disbursement, annualRatePercent decimal.Decimal, termMonths int) (LRAResult, error) {
	if err := validateLRAInput(disbursement, annualRatePercent, termMonths); err != nil {
		return LRAResult{}, err
	}
	today := util.DateOnly(s.clock.Now(), s.cfg.Location)
	return CalculateLRA(disbursement, annualRatePercent, termMonths, s.cfg.FileChargeRate, today), nil
}

// STL evaluates the fixed STL product starting today
func (s *CalculatorService) STL() FixedProductResult {
	return CalculateSTL(s.clock.Now(), s.cfg.Location)
}

// Rederive reports how far a legacy-formula schedule drifts from the canonical one
func (s *CalculatorService) Rederive(disbursement, annualRatePercent decimal.Decimal, termMonths int) (RederiveResult, error) {
	if err := validateLRAInput(disbursement, annualRatePercent, termMonths); err != nil {
		return RederiveResult{}, err
	}
	today := util.DateOnly(s.clock.Now(), s.cfg.Location)
	return RederiveLRA(disbursement, annualRatePercent, termMonths, s.cfg.FileChargeRate, today), nil
}

func validateLRAInput(disbursement, annualRatePercent decimal.Decimal, termMonths int) error {
	if disbursement.LessThan(decimal.Zero) {
		return domain.ErrPrincipalInvalid
	}
	if disbursement.GreaterThan(domain.MaxPrincipal) {
		return domain.ErrPrincipalTooLarge
	}
	if annualRatePercent.LessThan(decimal.Zero) {
		return domain.ErrRateInvalid
	}
	if annualRatePercent.GreaterThan(domain.MaxRatePercent) {
		return domain.ErrRateTooLarge
	}
	if termMonths < 0 || termMonths > domain.MaxTermMonths {
		return domain.ErrTermInvalid
	}
	return nil
}
