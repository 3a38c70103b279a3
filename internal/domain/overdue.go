package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OverdueList is one product's overdue aggregate as returned by the loan API
type OverdueList struct {
	Product   Product
	Total     decimal.Decimal
	Customers []OverdueCustomer
}

// OverdueCustomer summarises one customer's overdue position.
// DaysOverdue and Interest may be zero when the loan API omits them.
type OverdueCustomer struct {
	Product         Product         `json:"product"`
	CustomerID      string          `json:"customerId"`
	CustomerName    string          `json:"customerName"`
	OverdueAmount   decimal.Decimal `json:"overdueAmount"`
	DaysOverdue     int             `json:"daysOverdue"`
	LastPaymentDate *time.Time      `json:"lastPaymentDate,omitempty"`
	Interest        decimal.Decimal `json:"interest"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
}

// OverdueFailure records a product whose overdue list could not be fetched
type OverdueFailure struct {
	Product Product `json:"product"`
	Message string  `json:"message"`
}

// OverdueReport merges the overdue lists of both products
type OverdueReport struct {
	Total       decimal.Decimal   `json:"total"`
	Customers   []OverdueCustomer `json:"customers"`
	Failures    []OverdueFailure  `json:"failures,omitempty"`
	GeneratedAt time.Time         `json:"generatedAt"`
}
