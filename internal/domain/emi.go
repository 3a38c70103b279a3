package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EmiStatus is the collection state of one installment
type EmiStatus string

const (
	EmiStatusPending EmiStatus = "pending"
	EmiStatusOverdue EmiStatus = "overdue"
	EmiStatusPaid    EmiStatus = "paid"
)

// EmiScheduleEntry is one installment of a loan schedule.
// Amount excludes penalty interest; TotalAmount is what is collectible today.
type EmiScheduleEntry struct {
	Index       int             `json:"index"`
	DueDate     time.Time       `json:"dueDate"`
	Amount      decimal.Decimal `json:"amount"`
	Status      EmiStatus       `json:"status"`
	DaysOverdue int             `json:"daysOverdue"`
	Interest    decimal.Decimal `json:"interest"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	PaidDate    *time.Time      `json:"paidDate,omitempty"`
}

// IsPaid returns true once the loan API has marked the installment paid
func (e *EmiScheduleEntry) IsPaid() bool {
	return e.Status == EmiStatusPaid
}

// ScheduleSummary aggregates a reconciled schedule
type ScheduleSummary struct {
	TotalCount       int             `json:"totalCount"`
	PaidCount        int             `json:"paidCount"`
	PendingCount     int             `json:"pendingCount"`
	OverdueCount     int             `json:"overdueCount"`
	ScheduledTotal   decimal.Decimal `json:"scheduledTotal"`
	OverdueAmount    decimal.Decimal `json:"overdueAmount"`
	AccruedInterest  decimal.Decimal `json:"accruedInterest"`
	CollectibleToday decimal.Decimal `json:"collectibleToday"`
	NextDueIndex     *int            `json:"nextDueIndex,omitempty"`
	MaxDaysOverdue   int             `json:"maxDaysOverdue"`
}

// FindEntry returns the entry with the given index, or nil
func FindEntry(entries []EmiScheduleEntry, index int) *EmiScheduleEntry {
	for i := range entries {
		if entries[i].Index == index {
			return &entries[i]
		}
	}
	return nil
}

// AllPaid reports whether every entry of a schedule is paid
func AllPaid(entries []EmiScheduleEntry) bool {
	for i := range entries {
		if !entries[i].IsPaid() {
			return false
		}
	}
	return true
}
