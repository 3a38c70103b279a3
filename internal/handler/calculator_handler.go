package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/dafibh/loandesk/loandesk-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// CalculatorHandler serves the loan calculators. None of its endpoints touch the
// loan API.
type CalculatorHandler struct {
	calculatorService *service.CalculatorService
}

// NewCalculatorHandler creates a new CalculatorHandler
func NewCalculatorHandler(calculatorService *service.CalculatorService) *CalculatorHandler {
	return &CalculatorHandler{calculatorService: calculatorService}
}

// SimpleCalculationRequest represents the simple interest calculator request body
type SimpleCalculationRequest struct {
	Principal   string  `json:"principal"`
	RatePercent *string `json:"ratePercent,omitempty"`
	TermMonths  int     `json:"termMonths"`
}

// SimpleCalculationResponse represents the simple interest calculator result
type SimpleCalculationResponse struct {
	Principal     string `json:"principal"`
	RatePercent   string `json:"ratePercent"`
	TermMonths    int    `json:"termMonths"`
	TotalInterest string `json:"totalInterest"`
	TotalPayment  string `json:"totalPayment"`
	Emi           string `json:"emi"`
}

// LRACalculationRequest represents the LRA preview request body
type LRACalculationRequest struct {
	DisbursementAmount string `json:"disbursementAmount"`
	InterestRate       string `json:"interestRate"`
	TenureMonths       int    `json:"tenureMonths"`
}

// LRACalculationResponse represents the LRA preview
type LRACalculationResponse struct {
	DisbursementAmount string                  `json:"disbursementAmount"`
	InterestRate       string                  `json:"interestRate"`
	TenureMonths       int                     `json:"tenureMonths"`
	FileCharges        string                  `json:"fileCharges"`
	TotalLoanAmount    string                  `json:"totalLoanAmount"`
	TotalInterest      string                  `json:"totalInterest"`
	TotalPayable       string                  `json:"totalPayable"`
	MonthlyEmi         string                  `json:"monthlyEmi"`
	PrincipalPerMonth  string                  `json:"principalPerMonth"`
	InterestPerMonth   string                  `json:"interestPerMonth"`
	EmiDates           []string                `json:"emiDates"`
	Installments       []ScheduleEntryResponse `json:"installments"`
}

// STLCalculationResponse represents the fixed STL product
type STLCalculationResponse struct {
	Principal     string                  `json:"principal"`
	RatePercent   string                  `json:"ratePercent"`
	TermDays      int                     `json:"termDays"`
	Frequency     string                  `json:"frequency"`
	TotalInterest string                  `json:"totalInterest"`
	TotalPayment  string                  `json:"totalPayment"`
	DailyEmi      string                  `json:"dailyEmi"`
	Installments  []ScheduleEntryResponse `json:"installments"`
}

// RederiveResponse compares legacy and canonical LRA figures
type RederiveResponse struct {
	CanonicalTotalPayable string `json:"canonicalTotalPayable"`
	CanonicalMonthlyEmi   string `json:"canonicalMonthlyEmi"`
	LegacyTotalPayable    string `json:"legacyTotalPayable"`
	LegacyMonthlyEmi      string `json:"legacyMonthlyEmi"`
	TotalPayableDrift     string `json:"totalPayableDrift"`
	MonthlyEmiDrift       string `json:"monthlyEmiDrift"`
}

// CalculateSimple evaluates the flat-interest calculator
// @Summary Simple interest calculator
// @Description Flat interest per month over the whole term. ratePercent defaults to the public rate.
// @Tags calculator
// @Accept json
// @Produce json
// @Param request body SimpleCalculationRequest true "Calculator input"
// @Success 200 {object} SimpleCalculationResponse
// @Failure 400 {object} ProblemDetails
// @Router /calculator/simple [post]
func (h *CalculatorHandler) CalculateSimple(c echo.Context) error {
	var req SimpleCalculationRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	principal, fieldErr := parseDecimalField(req.Principal, "principal")
	if fieldErr != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{*fieldErr})
	}

	var rate *decimal.Decimal
	if req.RatePercent != nil && strings.TrimSpace(*req.RatePercent) != "" {
		parsed, fieldErr := parseDecimalField(*req.RatePercent, "ratePercent")
		if fieldErr != nil {
			return NewValidationError(c, "Validation failed", []ValidationError{*fieldErr})
		}
		rate = &parsed
	}

	result, err := h.calculatorService.Simple(principal, rate, req.TermMonths)
	if err != nil {
		return respondServiceError(c, err, "Failed to calculate")
	}

	return c.JSON(http.StatusOK, SimpleCalculationResponse{
		Principal:     result.Principal.StringFixed(2),
		RatePercent:   result.RatePercent.StringFixed(2),
		TermMonths:    result.TermPeriods,
		TotalInterest: result.TotalInterest.StringFixed(2),
		TotalPayment:  result.TotalPayment.StringFixed(2),
		Emi:           result.EMI.StringFixed(2),
	})
}

// CalculateLRA previews an LRA loan
// @Summary LRA preview
// @Description Interest on the disbursement prorated over the tenure, file charges up front, monthly due dates from today.
// @Tags calculator
// @Accept json
// @Produce json
// @Param request body LRACalculationRequest true "LRA input"
// @Success 200 {object} LRACalculationResponse
// @Failure 400 {object} ProblemDetails
// @Router /calculator/lra [post]
func (h *CalculatorHandler) CalculateLRA(c echo.Context) error {
	var req LRACalculationRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	input, errs := req.parse()
	if len(errs) > 0 {
		return NewValidationError(c, "Validation failed", errs)
	}

	result, err := h.calculatorService.LRA(input.disbursement, input.rate, req.TenureMonths)
	if err != nil {
		return respondServiceError(c, err, "Failed to calculate")
	}

	return c.JSON(http.StatusOK, LRACalculationResponse{
		DisbursementAmount: result.DisbursementAmount.StringFixed(2),
		InterestRate:       result.AnnualRatePercent.StringFixed(2),
		TenureMonths:       result.TermMonths,
		FileCharges:        result.FileCharges.StringFixed(2),
		TotalLoanAmount:    result.TotalLoanAmount.StringFixed(2),
		TotalInterest:      result.TotalInterest.StringFixed(2),
		TotalPayable:       result.TotalPayable.StringFixed(2),
		MonthlyEmi:         result.MonthlyEmi.StringFixed(2),
		PrincipalPerMonth:  result.PrincipalPerMonth.StringFixed(2),
		InterestPerMonth:   result.InterestPerMonth.StringFixed(2),
		EmiDates:           formatDates(result.EmiDates),
		Installments:       toScheduleResponse(result.Installments),
	})
}

// GetSTL returns the fixed STL product evaluated from today
// @Summary STL product
// @Tags calculator
// @Produce json
// @Success 200 {object} STLCalculationResponse
// @Router /calculator/stl [get]
func (h *CalculatorHandler) GetSTL(c echo.Context) error {
	result := h.calculatorService.STL()

	return c.JSON(http.StatusOK, STLCalculationResponse{
		Principal:     result.Terms.Principal.StringFixed(2),
		RatePercent:   result.Terms.RatePercent.StringFixed(2),
		TermDays:      result.Terms.TermPeriods,
		Frequency:     string(result.Terms.Frequency),
		TotalInterest: result.Calculation.TotalInterest.StringFixed(2),
		TotalPayment:  result.Calculation.TotalPayment.StringFixed(2),
		DailyEmi:      result.Calculation.EMI.StringFixed(2),
		Installments:  toScheduleResponse(result.Installments),
	})
}

// RederiveLRA reports how far the legacy edit-form formula drifts from the
// canonical LRA figures
// @Summary LRA re-derivation
// @Tags calculator
// @Accept json
// @Produce json
// @Param request body LRACalculationRequest true "LRA input"
// @Success 200 {object} RederiveResponse
// @Failure 400 {object} ProblemDetails
// @Router /calculator/lra/rederive [post]
func (h *CalculatorHandler) RederiveLRA(c echo.Context) error {
	var req LRACalculationRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	input, errs := req.parse()
	if len(errs) > 0 {
		return NewValidationError(c, "Validation failed", errs)
	}

	result, err := h.calculatorService.Rederive(input.disbursement, input.rate, req.TenureMonths)
	if err != nil {
		return respondServiceError(c, err, "Failed to re-derive")
	}

	return c.JSON(http.StatusOK, RederiveResponse{
		CanonicalTotalPayable: result.CanonicalTotalPayable.StringFixed(2),
		CanonicalMonthlyEmi:   result.CanonicalMonthlyEmi.StringFixed(2),
		LegacyTotalPayable:    result.LegacyTotalPayable.StringFixed(2),
		LegacyMonthlyEmi:      result.LegacyMonthlyEmi.StringFixed(2),
		TotalPayableDrift:     result.TotalPayableDrift.StringFixed(2),
		MonthlyEmiDrift:       result.MonthlyEmiDrift.StringFixed(2),
	})
}

type lraInput struct {
	disbursement decimal.Decimal
	rate         decimal.Decimal
}

func (r *LRACalculationRequest) parse() (lraInput, []ValidationError) {
	var input lraInput
	var errs []ValidationError

	var fieldErr *ValidationError
	if input.disbursement, fieldErr = parseDecimalField(r.DisbursementAmount, "disbursementAmount"); fieldErr != nil {
		errs = append(errs, *fieldErr)
	}
	if input.rate, fieldErr = parseDecimalField(r.InterestRate, "interestRate"); fieldErr != nil {
		errs = append(errs, *fieldErr)
	}
	return input, errs
}

const maxDecimalFieldLength = 24

func parseDecimalField(raw, field string) (decimal.Decimal, *ValidationError) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, &ValidationError{Field: field, Message: "Required"}
	}
	// exponent notation would let a short string expand into a huge number
	if len(raw) > maxDecimalFieldLength || strings.ContainsAny(raw, "eE") {
		return decimal.Zero, &ValidationError{Field: field, Message: "Must be a plain decimal number"}
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: field, Message: "Must be a valid decimal number"}
	}
	return d, nil
}

func formatDates(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format(dateLayout)
	}
	return out
}
