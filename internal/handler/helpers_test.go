package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/dafibh/loandesk/loandesk-backend/internal/domain"
	"github.com/dafibh/loandesk/loandesk-backend/internal/middleware"
	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.JSONSerializer = JSONSerializer{}
	return e
}

// newJSONContext builds a context for a request with an optional JSON body
func newJSONContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// setupStaffContext marks the request as authenticated by staffID
func setupStaffContext(c echo.Context, staffID string) {
	ctx := context.WithValue(c.Request().Context(), middleware.StaffIDKey, staffID)
	c.SetRequest(c.Request().WithContext(ctx))
}

func setParams(c echo.Context, pairs ...string) {
	var names, values []string
	for i := 0; i+1 < len(pairs); i += 2 {
		names = append(names, pairs[i])
		values = append(values, pairs[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
}

func decodeBody(rec *httptest.ResponseRecorder, v interface{}) error {
	return json.Unmarshal(rec.Body.Bytes(), v)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

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
