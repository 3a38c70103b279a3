package service

import (
	"time"

	"github.com/dafibh/loandesk/loandesk-backend/internal/domain"
	"github.com/dafibh/loandesk/loandesk-backend/internal/util"
	"github.com/shopspring/decimal"
)

// DefaultDailyPenaltyRate is the per-day penalty fraction applied to overdue installments
var DefaultDailyPenaltyRate = decimal.NewFromFloat(0.03)

// PenaltyPolicy controls overdue interest accrual
type PenaltyPolicy struct {
	DailyRate decimal.Decimal
	Location  *time.Location // calendar used to decide "today"
}

// DefaultPenaltyPolicy returns the 3%/day policy on UTC calendar days
func DefaultPenaltyPolicy() PenaltyPolicy {
	return PenaltyPolicy{DailyRate: DefaultDailyPenaltyRate, Location: time.UTC}
}

// PenaltyInterest returns amount * dailyRate * days, zero for days <= 0
func PenaltyInterest(amount, dailyRate decimal.Decimal, days int) decimal.Decimal {
	if days <= 0 {
		return decimal.Zero
	}
	return amount.Mul(dailyRate).Mul(decimal.NewFromInt(int64(days)))
}

// ReconcileEntry classifies one installment against now.
// Paid is terminal and always carries zero interest and zero days overdue.
func ReconcileEntry(entry domain.EmiScheduleEntry, now time.Time, policy PenaltyPolicy) domain.EmiScheduleEntry {
	out := entry
	out.Interest = decimal.Zero
	out.DaysOverdue = 0
	out.TotalAmount = entry.Amount

	if entry.IsPaid() {
		out.Status = domain.EmiStatusPaid
		return out
	}

	days := util.DaysBetween(entry.DueDate, now, policy.Location)
	if days > 0 {
		out.Status = domain.EmiStatusOverdue
		out.DaysOverdue = days
		out.Interest = PenaltyInterest(entry.Amount, policy.DailyRate, days)
		out.TotalAmount = entry.Amount.Add(out.Interest)
		return out
	}

	out.Status = domain.EmiStatusPending
	return out
}

// ReconcileSchedule classifies every installment against now and returns a new slice.
// The input is never modified.
func ReconcileSchedule(entries []domain.EmiScheduleEntry, now time.Time, policy PenaltyPolicy) []domain.EmiScheduleEntry {
	out := make([]domain.EmiScheduleEntry, len(entries))
	for i, e := range entries {
		out[i] = ReconcileEntry(e, now, policy)
	}
	return out
}

// SummarizeSchedule totals a reconciled schedule
func SummarizeSchedule(entries []domain.EmiScheduleEntry) domain.ScheduleSummary {
	summary := domain.ScheduleSummary{
		TotalCount:       len(entries),
		ScheduledTotal:   decimal.Zero,
		OverdueAmount:    decimal.Zero,
		AccruedInterest:  decimal.Zero,
		CollectibleToday: decimal.Zero,
	}

	for i := range entries {
		e := &entries[i]
		summary.ScheduledTotal = summary.ScheduledTotal.Add(e.Amount)

		switch e.Status {
		case domain.EmiStatusPaid:
			summary.PaidCount++
			continue
		case domain.EmiStatusOverdue:
			summary.OverdueCount++
			summary.OverdueAmount = summary.OverdueAmount.Add(e.Amount)
			summary.AccruedInterest = summary.AccruedInterest.Add(e.Interest)
			summary.CollectibleToday = summary.CollectibleToday.Add(e.TotalAmount)
			if e.DaysOverdue > summary.MaxDaysOverdue {
				summary.MaxDaysOverdue = e.DaysOverdue
			}
		default:
			summary.PendingCount++
		}

		if summary.NextDueIndex == nil {
			idx := e.Index
			summary.NextDueIndex = &idx
		}
	}

	return summary
}
