package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Account statuses reported by the loan API
const (
	AccountStatusActive = "active"
	AccountStatusClosed = "closed"
)

// CustomerLoanAccount is owned by the loan API; it is only ever read and replaced
// wholesale, never patched locally
type CustomerLoanAccount struct {
	ID                 string          `json:"id"`
	CustomerCode       string          `json:"customerCode,omitempty"`
	Name               string          `json:"name"`
	Product            Product         `json:"product"`
	LoanAmount         decimal.Decimal `json:"loanAmount"`
	DisbursementAmount decimal.Decimal `json:"disbursementAmount"`
	TotalPaid          decimal.Decimal `json:"totalPaid"`
	RemainingAmount    decimal.Decimal `json:"remainingAmount"`
	Overdue            decimal.Decimal `json:"overdue"`
	PaidEmis           int             `json:"paidEmis"`
	Status             string          `json:"status"`
}

// AccountSnapshot is the raw authoritative state of one customer as last fetched
type AccountSnapshot struct {
	Account   *CustomerLoanAccount `json:"account"`
	Schedule  []EmiScheduleEntry   `json:"schedule"`
	FetchedAt time.Time            `json:"fetchedAt"`
}

// LoanAPI is the external REST API that owns customers, schedules and balances
type LoanAPI interface {
	GetCustomer(ctx context.Context, product Product, customerID string) (*CustomerLoanAccount, error)
	GetSchedule(ctx context.Context, product Product, customerID string) ([]EmiScheduleEntry, error)
	CollectPayment(ctx context.Context, req CollectPaymentRequest) error
	GetOverdue(ctx context.Context, product Product) (*OverdueList, error)
}
