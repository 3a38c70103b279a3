package handler

import (
	"net/http"

	"github.com/dafibh/loandesk/loandesk-backend/internal/domain"
	"github.com/dafibh/loandesk/loandesk-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// OverdueHandler serves the merged overdue report
type OverdueHandler struct {
	overdueService *service.OverdueService
}

// NewOverdueHandler creates a new OverdueHandler
func NewOverdueHandler(overdueService *service.OverdueService) *OverdueHandler {
	return &OverdueHandler{overdueService: overdueService}
}

// OverdueCustomerResponse represents one overdue customer
type OverdueCustomerResponse struct {
	Product         string  `json:"product"`
	CustomerID      string  `json:"customerId"`
	CustomerName    string  `json:"customerName"`
	OverdueAmount   string  `json:"overdueAmount"`
	DaysOverdue     int     `json:"daysOverdue"`
	LastPaymentDate *string `json:"lastPaymentDate,omitempty"`
	Interest        string  `json:"interest"`
	TotalAmount     string  `json:"totalAmount"`
}

// OverdueFailureResponse names a product whose list could not be loaded
type OverdueFailureResponse struct {
	Product string `json:"product"`
	Message string `json:"message"`
}

// OverdueReportResponse represents the merged overdue report. Partial is true when
// at least one product's list is missing.
type OverdueReportResponse struct {
	Total       string                    `json:"total"`
	Customers   []OverdueCustomerResponse `json:"customers"`
	Failures    []OverdueFailureResponse  `json:"failures"`
	Partial     bool                      `json:"partial"`
	GeneratedAt string                    `json:"generatedAt"`
}

// GetOverdue returns overdue customers of both products, most overdue first
// @Summary Overdue report
// @Description Merges the STL and LRA overdue lists. A product whose list failed is reported in failures; the other is still returned.
// @Tags overdue
// @Produce json
// @Security BearerAuth
// @Success 200 {object} OverdueReportResponse
// @Failure 502 {object} ProblemDetails
// @Router /overdue [get]
func (h *OverdueHandler) GetOverdue(c echo.Context) error {
	report, err := h.overdueService.Report(c.Request().Context())
	if err != nil {
		return respondServiceError(c, err, "Failed to load overdue report")
	}

	customers := make([]OverdueCustomerResponse, len(report.Customers))
	for i, oc := range report.Customers {
		customers[i] = toOverdueCustomerResponse(oc)
	}

	failures := make([]OverdueFailureResponse, len(report.Failures))
	for i, f := range report.Failures {
		failures[i] = OverdueFailureResponse{Product: string(f.Product), Message: f.Message}
	}

	return c.JSON(http.StatusOK, OverdueReportResponse{
		Total:       report.Total.StringFixed(2),
		Customers:   customers,
		Failures:    failures,
		Partial:     len(failures) > 0,
		GeneratedAt: report.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

func toOverdueCustomerResponse(oc domain.OverdueCustomer) OverdueCustomerResponse {
	response := OverdueCustomerResponse{
		Product:       string(oc.Product),
		CustomerID:    oc.CustomerID,
		CustomerName:  oc.CustomerName,
		OverdueAmount: oc.OverdueAmount.StringFixed(2),
		DaysOverdue:   oc.DaysOverdue,
		Interest:      oc.Interest.StringFixed(2),
		TotalAmount:   oc.TotalAmount.StringFixed(2),
	}
	if oc.LastPaymentDate != nil {
		d := oc.LastPaymentDate.Format(dateLayout)
		response.LastPaymentDate = &d
	}
	return response
}
