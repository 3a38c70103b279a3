package service

import (
	"context"
	"testing"
	"time"

	"github.com/dafibh/loandesk/loandesk-backend/internal/domain"
	"github.com/dafibh/loandesk/loandesk-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCustomerService() (*CustomerService, *testutil.MockLoanAPI, *testutil.ManualClock) {
	api := testutil.NewMockLoanAPI()
	api.AddCustomer(lraCustomer("C-1"))
	clock := testutil.NewManualClock(testNow)
	store := NewAccountStore(api, clock, 30*time.Second)
	return NewCustomerService(store, clock, DefaultPenaltyPolicy()), api, clock
}

func TestCustomerService_GetCustomer(t *testing.T) {
	svc, _, _ := setupCustomerService()

	view, err := svc.GetCustomer(context.Background(), domain.ProductLRA, "C-1")
	require.NoError(t, err)

	assert.Equal(t, "Asha", view.Account.Name)
	require.Len(t, view.Schedule, 3)

	assert.Equal(t, domain.EmiStatusPaid, view.Schedule[0].Status)
	assert.True(t, view.Schedule[0].Interest.IsZero())

	// due Mar 1, today Mar 10
	assert.Equal(t, domain.EmiStatusOverdue, view.Schedule[1].Status)
	assert.Equal(t, 9, view.Schedule[1].DaysOverdue)
	assert.Equal(t, "1260.09", view.Schedule[1].Interest.String())
	assert.Equal(t, "5927.09", view.Schedule[1].TotalAmount.String())

	assert.Equal(t, domain.EmiStatusPending, view.Schedule[2].Status)

	assert.Equal(t, 1, view.Summary.PaidCount)
	assert.Equal(t, 1, view.Summary.OverdueCount)
	assert.Equal(t, 1, view.Summary.PendingCount)
	assert.Equal(t, "5927.09", view.Summary.CollectibleToday.String())
	require.NotNil(t, view.Summary.NextDueIndex)
	assert.Equal(t, 1, *view.Summary.NextDueIndex)
}

func TestCustomerService_InterestFollowsClock(t *testing.T) {
	svc, api, clock := setupCustomerService()

	first, err := svc.GetCustomer(context.Background(), domain.ProductLRA, "C-1")
	require.NoError(t, err)

	// cached state, reconciled against a later day
	clock.Advance(24 * time.Hour)
	second, err := svc.GetCustomer(context.Background(), domain.ProductLRA, "C-1")
	require.NoError(t, err)

	assert.Equal(t, 1, api.GetCustomerCalls)
	assert.Equal(t, 9, first.Schedule[1].DaysOverdue)
	assert.Equal(t, 10, second.Schedule[1].DaysOverdue)
	assert.True(t, second.Schedule[1].Interest.GreaterThan(first.Schedule[1].Interest))
}

func TestCustomerService_RefreshCustomer(t *testing.T) {
	svc, api, _ := setupCustomerService()

	_, err := svc.GetCustomer(context.Background(), domain.ProductLRA, "C-1")
	require.NoError(t, err)

	account, schedule := lraCustomer("C-1")
	account.Name = "Asha K"
	api.AddCustomer(account, schedule)

	view, err := svc.RefreshCustomer(context.Background(), domain.ProductLRA, "C-1")
	require.NoError(t, err)

	assert.Equal(t, "Asha K", view.Account.Name)
	assert.Equal(t, 2, api.GetCustomerCalls)
}

func TestCustomerService_Validation(t *testing.T) {
	svc, api, _ := setupCustomerService()

	tests := []struct {
		name        string
		product     domain.Product
		customerID  string
		expectedErr error
	}{
		{"unknown product", domain.Product("bnpl"), "C-1", domain.ErrProductInvalid},
		{"empty id", domain.ProductLRA, "", domain.ErrCustomerIDRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GetCustomer(context.Background(), tt.product, tt.customerID)
			assert.ErrorIs(t, err, tt.expectedErr)

			_, err = svc.RefreshCustomer(context.Background(), tt.product, tt.customerID)
			assert.ErrorIs(t, err, tt.expectedErr)
		})
	}

	assert.Zero(t, api.GetCustomerCalls)
}

func TestCustomerService_NotFound(t *testing.T) {
	svc, _, _ := setupCustomerService()

	_, err := svc.GetCustomer(context.Background(), domain.ProductSTL, "C-1")

	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
}
