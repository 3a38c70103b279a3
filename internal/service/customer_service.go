package service

import (
	"context"

	"github.com/dafibh/loandesk/loandesk-backend/internal/domain"
)

// CustomerView is an account with its schedule reconciled against the current time
type CustomerView struct {
	Account  *domain.CustomerLoanAccount
	Schedule []domain.EmiScheduleEntry
	Summary  domain.ScheduleSummary
}

// CustomerService serves reconciled customer state
type CustomerService struct {
	store  *AccountStore
	clock  domain.Clock
	policy PenaltyPolicy
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(store *AccountStore, clock domain.Clock, policy PenaltyPolicy) *CustomerService {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &CustomerService{store: store, clock: clock, policy: policy}
}

// GetCustomer returns the customer's account and schedule, reconciled now
func (s *CustomerService) GetCustomer(ctx context.Context, product domain.Product, customerID string) (*CustomerView, error) {
	if !product.Valid() {
		return nil, domain.ErrProductInvalid
	}
	if customerID == "" {
		return nil, domain.ErrCustomerIDRequired
	}

	snap, err := s.store.Get(ctx, product, customerID)
	if err != nil {
		return nil, err
	}
	return buildCustomerView(snap, s.clock, s.policy), nil
}

// RefreshCustomer drops the cached state and refetches it from the loan API
func (s *CustomerService) RefreshCustomer(ctx context.Context, product domain.Product, customerID string) (*CustomerView, error) {
	if !product.Valid() {
		return nil, domain.ErrProductInvalid
	}
	if customerID == "" {
		return nil, domain.ErrCustomerIDRequired
	}

	snap, err := s.store.Refresh(ctx, product, customerID)
	if err != nil {
		return nil, err
	}
	return buildCustomerView(snap, s.clock, s.policy), nil
}

func buildCustomerView(snap *domain.AccountSnapshot, clock domain.Clock, policy PenaltyPolicy) *CustomerView {
	schedule := ReconcileSchedule(snap.Schedule, clock.Now(), policy)
	return &CustomerView{
		Account:  snap.Account,
		Schedule: schedule,
		Summary:  SummarizeSchedule(schedule),
	}
}
