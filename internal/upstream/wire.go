package upstream

import (
	"fmt"
	"strings"
	"time"

	"github.com/dafibh/loandesk/loandesk-backend/internal/domain"
	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Loan API payloads. Money arrives as JSON numbers and decodes straight into
// decimals; decimal.Decimal also accepts quoted strings and null.

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (b errorBody) text() string {
	if b.Message != "" {
		return b.Message
	}
	return b.Error
}

type ackBody struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// collectBody is the collect-payment request. The amount is written as a bare
// JSON number; the loan API adds it to balances as-is.
type collectBody struct {
	CustomerID  string             `json:"customerId"`
	Amount      json.Number        `json:"amount"`
	PaymentType domain.PaymentType `json:"paymentType"`
	EmiIndex    *int               `json:"emiIndex,omitempty"`
}

func newCollectBody(req domain.CollectPaymentRequest) collectBody {
	return collectBody{
		CustomerID:  req.CustomerID,
		Amount:      json.Number(req.Amount.String()),
		PaymentType: req.PaymentType,
		EmiIndex:    req.EmiIndex,
	}
}

type customerEnvelope struct {
	Customer *wireCustomer `json:"customer"`
}

type wireCustomer struct {
	ObjectID           string          `json:"_id"`
	CustomerID         string          `json:"customerId"`
	Name               string          `json:"name"`
	LoanAmount         decimal.Decimal `json:"loanAmount"`
	DisbursementAmount decimal.Decimal `json:"disbursementAmount"`
	TotalPaid          decimal.Decimal `json:"totalPaid"`
	RemainingAmount    decimal.Decimal `json:"remainingAmount"`
	Overdue            decimal.Decimal `json:"overdue"`
	PaidEmis           int             `json:"paidEmis"`
	Status             string          `json:"status"`
}

func (w *wireCustomer) toDomain(product domain.Product, requestedID string) *domain.CustomerLoanAccount {
	id := requestedID
	if id == "" {
		id = w.CustomerID
	}
	return &domain.CustomerLoanAccount{
		ID:                 id,
		CustomerCode:       w.CustomerID,
		Name:               w.Name,
		Product:            product,
		LoanAmount:         w.LoanAmount,
		DisbursementAmount: w.DisbursementAmount,
		TotalPaid:          w.TotalPaid,
		RemainingAmount:    w.RemainingAmount,
		Overdue:            w.Overdue,
		PaidEmis:           w.PaidEmis,
		Status:             strings.ToLower(w.Status),
	}
}

// scheduleEnvelope covers both schedule shapes: STL sends emiDetails, LRA sends
// either emiDetails or emiHistory
type scheduleEnvelope struct {
	EmiDetails []wireEmi `json:"emiDetails"`
	EmiHistory []wireEmi `json:"emiHistory"`
}

func (e scheduleEnvelope) entries() []wireEmi {
	if len(e.EmiDetails) > 0 {
		return e.EmiDetails
	}
	return e.EmiHistory
}

type wireEmi struct {
	Index       *int            `json:"index"`
	DueDate     wireDate        `json:"dueDate"`
	Date        wireDate        `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Status      string          `json:"status"`
	DaysOverdue int             `json:"daysOverdue"`
	Interest    decimal.Decimal `json:"interest"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	PaidDate    wireDate        `json:"paidDate"`
}

func (w wireEmi) toDomain(position int, loc *time.Location) (domain.EmiScheduleEntry, error) {
	index := position
	if w.Index != nil {
		index = *w.Index
	}

	raw := w.DueDate
	if raw.empty() {
		raw = w.Date
	}
	due, err := raw.parse(loc)
	if err != nil {
		return domain.EmiScheduleEntry{}, fmt.Errorf("emi %d due date: %w", index, err)
	}

	entry := domain.EmiScheduleEntry{
		Index:       index,
		DueDate:     due,
		Amount:      w.Amount,
		Status:      parseStatus(w.Status),
		DaysOverdue: w.DaysOverdue,
		Interest:    w.Interest,
		TotalAmount: w.TotalAmount,
	}
	if !w.PaidDate.empty() {
		paid, err := w.PaidDate.parse(loc)
		if err != nil {
			return domain.EmiScheduleEntry{}, fmt.Errorf("emi %d paid date: %w", index, err)
		}
		entry.PaidDate = &paid
	}
	return entry, nil
}

func parseStatus(s string) domain.EmiStatus {
	switch domain.EmiStatus(strings.ToLower(strings.TrimSpace(s))) {
	case domain.EmiStatusPaid:
		return domain.EmiStatusPaid
	case domain.EmiStatusOverdue:
		return domain.EmiStatusOverdue
	default:
		return domain.EmiStatusPending
	}
}

type overdueEnvelope struct {
	Success  *bool                `json:"success"`
	Message  string               `json:"message"`
	Total    decimal.Decimal      `json:"total"`
	Payments []wireOverduePayment `json:"payments"`
}

type wireOverduePayment struct {
	CustomerID      string          `json:"customerId"`
	CustomerName    string          `json:"customerName"`
	Name            string          `json:"name"`
	OverdueAmount   decimal.Decimal `json:"overdueAmount"`
	DaysOverdue     int             `json:"daysOverdue"`
	LastPaymentDate wireDate        `json:"lastPaymentDate"`
	Interest        decimal.Decimal `json:"interest"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
}

func (w wireOverduePayment) toDomain(product domain.Product, loc *time.Location) domain.OverdueCustomer {
	name := w.CustomerName
	if name == "" {
		name = w.Name
	}
	c := domain.OverdueCustomer{
		Product:       product,
		CustomerID:    w.CustomerID,
		CustomerName:  name,
		OverdueAmount: w.OverdueAmount,
		DaysOverdue:   w.DaysOverdue,
		Interest:      w.Interest,
		TotalAmount:   w.TotalAmount,
	}
	// An unparseable last payment date only loses the derived days overdue
	if last, err := w.LastPaymentDate.parse(loc); err == nil && !w.LastPaymentDate.empty() {
		c.LastPaymentDate = &last
	}
	return c
}

// wireDate keeps the raw text so date-only values can be placed in the business
// timezone after decoding
type wireDate struct {
	raw string
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func (d *wireDate) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		d.raw = ""
		return nil
	}
	d.raw = strings.Trim(s, `"`)
	return nil
}

func (d wireDate) empty() bool {
	return d.raw == ""
}

func (d wireDate) parse(loc *time.Location) (time.Time, error) {
	if d.raw == "" {
		return time.Time{}, fmt.Errorf("missing date")
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, d.raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", d.raw)
}
