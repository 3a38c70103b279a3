package service

import (
	"testing"
	"time"

	"github.com/dafibh/loandesk/loandesk-backend/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCalculatorService(now time.Time, loc *time.Location) *CalculatorService {
	return NewCalculatorService(CalculatorConfig{
		PublicRatePercent: decimal.NewFromInt(3),
		FileChargeRate:    decimal.NewFromFloat(0.05),
		Location:          loc,
	}, domain.FixedClock{T: now})
}

func TestCalculatorService_SimpleUsesPublicRate(t *testing.T) {
	svc := setupCalculatorService(testNow, time.UTC)

	result, err := svc.Simple(dec("1000"), nil, 6)
	require.NoError(t, err)

	assert.Equal(t, "180.00", result.TotalInterest.StringFixed(2))
	assert.Equal(t, "3", svc.PublicRatePercent().String())
}

func TestCalculatorService_SimpleExplicitRate(t *testing.T) {
	svc := setupCalculatorService(testNow, time.UTC)
	rate := dec("2")

	result, err := svc.Simple(dec("1000"), &rate, 6)
	require.NoError(t, err)

	assert.Equal(t, "120.00", result.TotalInterest.StringFixed(2))
}

func TestCalculatorService_SimpleValidation(t *testing.T) {
	svc := setupCalculatorService(testNow, time.UTC)
	negative := dec("-1")
	tooHigh := dec("100.5")

	tests := []struct {
		name        string
		principal   decimal.Decimal
		rate        *decimal.Decimal
		term        int
		expectedErr error
	}{
		{"zero principal", decimal.Zero, nil, 6, domain.ErrPrincipalInvalid},
		{"negative rate", dec("1000"), &negative, 6, domain.ErrRateInvalid},
		{"zero term", dec("1000"), nil, 0, domain.ErrTermInvalid},
		{"term too long", dec("1000"), nil, domain.MaxTermMonths + 1, domain.ErrTermInvalid},
		{"principal too large", decimal.New(1, 20), nil, 6, domain.ErrPrincipalTooLarge},
		{"rate too large", dec("1000"), &tooHigh, 6, domain.ErrRateTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Simple(tt.principal, tt.rate, tt.term)
			assert.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

func TestCalculatorService_LRAUsesBusinessDate(t *testing.T) {
	ist, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	// 20:00 UTC on Jan 14 is already Jan 15 in India
	svc := setupCalculatorService(time.Date(2026, 1, 14, 20, 0, 0, 0, time.UTC), ist)

	result, err := svc.LRA(dec("50000"), dec("12"), 12)
	require.NoError(t, err)

	require.Len(t, result.EmiDates, 12)
	assert.Equal(t, "2026-02-15", result.EmiDates[0].Format("2006-01-02"))
	assert.Equal(t, "2500", result.FileCharges.String())
}

func TestCalculatorService_LRAValidation(t *testing.T) {
	svc := setupCalculatorService(testNow, time.UTC)

	_, err := svc.LRA(dec("-1"), dec("12"), 12)
	assert.ErrorIs(t, err, domain.ErrPrincipalInvalid)

	_, err = svc.LRA(dec("50000"), dec("-12"), 12)
	assert.ErrorIs(t, err, domain.ErrRateInvalid)

	_, err = svc.LRA(dec("50000"), dec("12"), domain.MaxTermMonths+1)
	assert.ErrorIs(t, err, domain.ErrTermInvalid)

	_, err = svc.LRA(decimal.New(1, 20), dec("12"), 12)
	assert.ErrorIs(t, err, domain.ErrPrincipalTooLarge)

	_, err = svc.LRA(dec("50000"), dec("250"), 12)
	assert.ErrorIs(t, err, domain.ErrRateTooLarge)

	// zero input is an empty preview, not an error
	result, err := svc.LRA(decimal.Zero, dec("12"), 12)
	require.NoError(t, err)
	assert.True(t, result.MonthlyEmi.IsZero())
	assert.Empty(t, result.Installments)
}

func TestCalculatorService_STL(t *testing.T) {
	svc := setupCalculatorService(testNow, time.UTC)

	result := svc.STL()

	assert.Equal(t, domain.FrequencyDaily, result.Terms.Frequency)
	require.Len(t, result.Installments, 100)
	assert.Equal(t, "2026-03-11", result.Installments[0].DueDate.Format("2006-01-02"))
}

func TestCalculatorService_Rederive(t *testing.T) {
	svc := setupCalculatorService(testNow, time.UTC)

	result, err := svc.Rederive(dec("50000"), dec("12"), 12)
	require.NoError(t, err)

	assert.Equal(t, "56000", result.CanonicalTotalPayable.String())
	assert.Equal(t, "2800", result.TotalPayableDrift.String())

	_, err = svc.Rederive(dec("50000"), dec("12"), -1)
	assert.ErrorIs(t, err, domain.ErrTermInvalid)
}
