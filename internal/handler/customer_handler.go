package handler

import (
	"net/http"

	"github.com/dafibh/loandesk/loandesk-backend/internal/domain"
	"github.com/dafibh/loandesk/loandesk-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// CustomerHandler serves reconciled customer state
type CustomerHandler struct {
	customerService *service.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerService *service.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// CustomerAccountResponse represents a customer's loan account
type CustomerAccountResponse struct {
	ID                 string `json:"id"`
	CustomerCode       string `json:"customerCode,omitempty"`
	Name               string `json:"name"`
	Product            string `json:"product"`
	LoanAmount         string `json:"loanAmount"`
	DisbursementAmount string `json:"disbursementAmount"`
	TotalPaid          string `json:"totalPaid"`
	RemainingAmount    string `json:"remainingAmount"`
	Overdue            string `json:"overdue"`
	PaidEmis           int    `json:"paidEmis"`
	Status             string `json:"status"`
}

// ScheduleEntryResponse represents one installment
type ScheduleEntryResponse struct {
	Index       int     `json:"index"`
	DueDate     string  `json:"dueDate"`
	Amount      string  `json:"amount"`
	Status      string  `json:"status"`
	DaysOverdue int     `json:"daysOverdue"`
	Interest    string  `json:"interest"`
	TotalAmount string  `json:"totalAmount"`
	PaidDate    *string `json:"paidDate,omitempty"`
}

// ScheduleSummaryResponse represents the totals of a reconciled schedule
type ScheduleSummaryResponse struct {
	TotalCount       int    `json:"totalCount"`
	PaidCount        int    `json:"paidCount"`
	PendingCount     int    `json:"pendingCount"`
	OverdueCount     int    `json:"overdueCount"`
	ScheduledTotal   string `json:"scheduledTotal"`
	OverdueAmount    string `json:"overdueAmount"`
	AccruedInterest  string `json:"accruedInterest"`
	CollectibleToday string `json:"collectibleToday"`
	NextDueIndex     *int   `json:"nextDueIndex,omitempty"`
	MaxDaysOverdue   int    `json:"maxDaysOverdue"`
}

// CustomerResponse represents a customer with the schedule reconciled now
type CustomerResponse struct {
	Account  CustomerAccountResponse `json:"account"`
	Schedule []ScheduleEntryResponse `json:"schedule"`
	Summary  ScheduleSummaryResponse `json:"summary"`
}

// GetCustomer returns a customer's account and reconciled schedule
// @Summary Get customer
// @Description Account and EMI schedule with overdue days and penalty interest computed for today
// @Tags customers
// @Produce json
// @Security BearerAuth
// @Param product path string true "Product (stl or lra)"
// @Param id path string true "Customer ID"
// @Success 200 {object} CustomerResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 502 {object} ProblemDetails
// @Router /customers/{product}/{id} [get]
func (h *CustomerHandler) GetCustomer(c echo.Context) error {
	product, err := domain.ParseProduct(c.Param("product"))
	if err != nil {
		return respondServiceError(c, err, "Failed to get customer")
	}

	view, err := h.customerService.GetCustomer(c.Request().Context(), product, c.Param("id"))
	if err != nil {
		return respondServiceError(c, err, "Failed to get customer")
	}

	return c.JSON(http.StatusOK, toCustomerResponse(view))
}

// RefreshCustomer discards cached state and returns a fresh copy from the loan API
// @Summary Refresh customer
// @Tags customers
// @Produce json
// @Security BearerAuth
// @Param product path string true "Product (stl or lra)"
// @Param id path string true "Customer ID"
// @Success 200 {object} CustomerResponse
// @Failure 404 {object} ProblemDetails
// @Router /customers/{product}/{id}/refresh [post]
func (h *CustomerHandler) RefreshCustomer(c echo.Context) error {
	product, err := domain.ParseProduct(c.Param("product"))
	if err != nil {
		return respondServiceError(c, err, "Failed to refresh customer")
	}

	view, err := h.customerService.RefreshCustomer(c.Request().Context(), product, c.Param("id"))
	if err != nil {
		return respondServiceError(c, err, "Failed to refresh customer")
	}

	return c.JSON(http.StatusOK, toCustomerResponse(view))
}

func toCustomerResponse(view *service.CustomerView) CustomerResponse {
	response := CustomerResponse{
		Schedule: toScheduleResponse(view.Schedule),
		Summary:  toSummaryResponse(view.Summary),
	}
	if a := view.Account; a != nil {
		response.Account = CustomerAccountResponse{
			ID:                 a.ID,
			CustomerCode:       a.CustomerCode,
			Name:               a.Name,
			Product:            string(a.Product),
			LoanAmount:         a.LoanAmount.StringFixed(2),
			DisbursementAmount: a.DisbursementAmount.StringFixed(2),
			TotalPaid:          a.TotalPaid.StringFixed(2),
			RemainingAmount:    a.RemainingAmount.StringFixed(2),
			Overdue:            a.Overdue.StringFixed(2),
			PaidEmis:           a.PaidEmis,
			Status:             a.Status,
		}
	}
	return response
}

func toScheduleResponse(entries []domain.EmiScheduleEntry) []ScheduleEntryResponse {
	out := make([]ScheduleEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = ScheduleEntryResponse{
			Index:       e.Index,
			DueDate:     e.DueDate.Format(dateLayout),
			Amount:      e.Amount.StringFixed(2),
			Status:      string(e.Status),
			DaysOverdue: e.DaysOverdue,
			Interest:    e.Interest.StringFixed(2),
			TotalAmount: e.TotalAmount.StringFixed(2),
		}
		if e.PaidDate != nil {
			paid := e.PaidDate.Format(dateLayout)
			out[i].PaidDate = &paid
		}
	}
	return out
}

func toSummaryResponse(s domain.ScheduleSummary) ScheduleSummaryResponse {
	return ScheduleSummaryResponse{
		TotalCount:       s.TotalCount,
		PaidCount:        s.PaidCount,
		PendingCount:     s.PendingCount,
		OverdueCount:     s.OverdueCount,
		ScheduledTotal:   s.ScheduledTotal.StringFixed(2),
		OverdueAmount:    s.OverdueAmount.StringFixed(2),
		AccruedInterest:  s.AccruedInterest.StringFixed(2),
		CollectibleToday: s.CollectibleToday.StringFixed(2),
		NextDueIndex:     s.NextDueIndex,
		MaxDaysOverdue:   s.MaxDaysOverdue,
	}
}
