package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/dafibh/loandesk/loandesk-backend/internal/domain"
	"github.com/dafibh/loandesk/loandesk-backend/internal/util"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// OverdueService merges the overdue lists of every product
type OverdueService struct {
	api      domain.LoanAPI
	clock    domain.Clock
	policy   PenaltyPolicy
	products []domain.Product
}

// NewOverdueService creates a new OverdueService covering STL and LRA
func NewOverdueService(api domain.LoanAPI, clock domain.Clock, policy PenaltyPolicy) *OverdueService {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &OverdueService{
		api:      api,
		clock:    clock,
		policy:   policy,
		products: []domain.Product{domain.ProductSTL, domain.ProductLRA},
	}
}

type overdueFetch struct {
	list *domain.OverdueList
	err  error
}

// Report fetches every product's list concurrently. A product that fails is listed
// in Failures and does not fail the report; only cancellation of ctx does.
func (s *OverdueService) Report(ctx context.Context) (*domain.OverdueReport, error) {
	results := make([]overdueFetch, len(s.products))

	var wg sync.WaitGroup
	for i, product := range s.products {
		wg.Add(1)
		go func(i int, product domain.Product) {
			defer wg.Done()
			list, err := s.api.GetOverdue(ctx, product)
			results[i] = overdueFetch{list: list, err: err}
		}(i, product)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	report := &domain.OverdueReport{
		Total:       decimal.Zero,
		Customers:   []domain.OverdueCustomer{},
		GeneratedAt: now,
	}

	for i, res := range results {
		product := s.products[i]
		if res.err != nil {
			log.Warn().Err(res.err).Str("product", string(product)).Msg("Failed to fetch overdue list")
			report.Failures = append(report.Failures, domain.OverdueFailure{
				Product: product,
				Message: overdueFailureMessage(res.err),
			})
			continue
		}
		if res.list == nil {
			continue
		}

		listTotal := decimal.Zero
		for _, c := range res.list.Customers {
			c.Product = product
			c = s.fillOverdueCustomer(c, now)
			listTotal = listTotal.Add(c.OverdueAmount)
			report.Customers = append(report.Customers, c)
		}

		if res.list.Total.IsZero() {
			report.Total = report.Total.Add(listTotal)
		} else {
			report.Total = report.Total.Add(res.list.Total)
		}
	}

	sort.SliceStable(report.Customers, func(i, j int) bool {
		return report.Customers[i].DaysOverdue > report.Customers[j].DaysOverdue
	})

	return report, nil
}

// fillOverdueCustomer derives the fields the loan API may omit
func (s *OverdueService) fillOverdueCustomer(c domain.OverdueCustomer, now time.Time) domain.OverdueCustomer {
	if c.DaysOverdue <= 0 && c.LastPaymentDate != nil {
		if days := util.DaysBetween(*c.LastPaymentDate, now, s.policy.Location); days > 0 {
			c.DaysOverdue = days
		}
	}
	if c.Interest.IsZero() {
		c.Interest = PenaltyInterest(c.OverdueAmount, s.policy.DailyRate, c.DaysOverdue)
	}
	if c.TotalAmount.IsZero() {
		c.TotalAmount = c.OverdueAmount.Add(c.Interest)
	}
	return c
}

func overdueFailureMessage(err error) string {
	var upstreamErr *domain.UpstreamError
	if errors.As(err, &upstreamErr) {
		return upstreamErr.Message
	}
	return err.Error()
}
