package service

import (
	"time"

	"github.com/dafibh/loandesk/loandesk-backend/internal/domain"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

// lraCustomer returns an LRA account of three 4667 installments due on the 1st of
// Feb, Mar and Apr 2026, the first already paid
func lraCustomer(id string) (*domain.CustomerLoanAccount, []domain.EmiScheduleEntry) {
	account := &domain.CustomerLoanAccount{
		ID:                 id,
		Name:               "Asha",
		Product:            domain.ProductLRA,
		LoanAmount:         decimal.NewFromInt(14000),
		DisbursementAmount: decimal.NewFromInt(13000),
		TotalPaid:          decimal.NewFromInt(4667),
		RemainingAmount:    decimal.NewFromInt(9333),
		Overdue:            decimal.Zero,
		PaidEmis:           1,
		Status:             domain.AccountStatusActive,
	}
	paidAt := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	schedule := []domain.EmiScheduleEntry{
		{Index: 0, DueDate: day(2026, 2, 1), Amount: decimal.NewFromInt(4667), Status: domain.EmiStatusPaid, PaidDate: &paidAt},
		{Index: 1, DueDate: day(2026, 3, 1), Amount: decimal.NewFromInt(4667), Status: domain.EmiStatusPending},
		{Index: 2, DueDate: day(2026, 4, 1), Amount: decimal.NewFromInt(4666), Status: domain.EmiStatusPending},
	}
	return account, schedule
}

func intPtr(i int) *int {
	return &i
}
