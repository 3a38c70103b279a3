package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dafibh/loandesk/loandesk-backend/internal/domain"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

// DefaultTimeout bounds every loan API request
const DefaultTimeout = 30 * time.Second

const idempotencyHeader = "Idempotency-Key"

// Ensure Client implements domain.LoanAPI
var _ domain.LoanAPI = (*Client)(nil)

// Client talks to the external loan API
type Client struct {
	baseURL  string
	apiToken string
	timeout  time.Duration
	location *time.Location
	http     *fasthttp.Client
}

// Option configures a Client
type Option func(*Client)

// WithAPIToken sends the token as a bearer credential on every request
func WithAPIToken(token string) Option {
	return func(c *Client) { c.apiToken = token }
}

// WithTimeout overrides DefaultTimeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLocation sets the timezone date-only values are read in
func WithLocation(loc *time.Location) Option {
	return func(c *Client) {
		if loc != nil {
			c.location = loc
		}
	}
}

// WithDialer replaces the network dialer, used to run against in-memory listeners
func WithDialer(dial fasthttp.DialFunc) Option {
	return func(c *Client) { c.http.Dial = dial }
}

// NewClient creates a new loan API client rooted at baseURL
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		timeout:  DefaultTimeout,
		location: time.UTC,
		http: &fasthttp.Client{
			Name:                   "loandesk-backend",
			MaxConnsPerHost:        64,
			MaxIdleConnDuration:    90 * time.Second,
			// keeps escaped customer ids escaped on the wire
			DisablePathNormalizing: true,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetCustomer fetches a customer's loan account
func (c *Client) GetCustomer(ctx context.Context, product domain.Product, customerID string) (*domain.CustomerLoanAccount, error) {
	var env customerEnvelope
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     fmt.Sprintf("/%s/%s", product.PathPrefix(), url.PathEscape(customerID)),
		notFound: domain.ErrCustomerNotFound,
		out:      &env,
	})
	if err != nil {
		return nil, err
	}
	if env.Customer == nil {
		return nil, domain.ErrCustomerNotFound
	}
	return env.Customer.toDomain(product, customerID), nil
}

// GetSchedule fetches a customer's EMI schedule, ordered by index
func (c *Client) GetSchedule(ctx context.Context, product domain.Product, customerID string) ([]domain.EmiScheduleEntry, error) {
	var env scheduleEnvelope
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     fmt.Sprintf("/%s/%s/emis", product.PathPrefix(), url.PathEscape(customerID)),
		notFound: domain.ErrCustomerNotFound,
		out:      &env,
	})
	if err != nil {
		return nil, err
	}

	wire := env.entries()
	schedule := make([]domain.EmiScheduleEntry, 0, len(wire))
	for i, w := range wire {
		entry, err := w.toDomain(i, c.location)
		if err != nil {
			return nil, domain.NewUpstreamError(http.StatusBadGateway, "loan API returned a malformed schedule: "+err.Error())
		}
		schedule = append(schedule, entry)
	}
	return schedule, nil
}

// CollectPayment records a payment. The idempotency key is forwarded so the loan
// API can drop retries of a collection it already applied.
func (c *Client) CollectPayment(ctx context.Context, req domain.CollectPaymentRequest) error {
	var ack ackBody
	err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     fmt.Sprintf("/%s/collect-payment", req.Product.PathPrefix()),
		body:     newCollectBody(req),
		headers:  map[string]string{idempotencyHeader: req.IdempotencyKey},
		notFound: domain.ErrCustomerNotFound,
		out:      &ack,
		lenient:  true,
	})
	if err != nil {
		return err
	}
	if ack.Success != nil && !*ack.Success {
		return domain.NewUpstreamError(http.StatusOK, ack.Message)
	}
	return nil
}

// GetOverdue fetches one product's overdue list
func (c *Client) GetOverdue(ctx context.Context, product domain.Product) (*domain.OverdueList, error) {
	path := "/customers-stl/overdue/list"
	if product == domain.ProductLRA {
		path = "/customers-lra/overdue"
	}

	var env overdueEnvelope
	if err := c.do(ctx, call{method: http.MethodGet, path: path, out: &env}); err != nil {
		return nil, err
	}
	if env.Success != nil && !*env.Success {
		return nil, domain.NewUpstreamError(http.StatusOK, env.Message)
	}

	list := &domain.OverdueList{
		Product:   product,
		Total:     env.Total,
		Customers: make([]domain.OverdueCustomer, 0, len(env.Payments)),
	}
	for _, p := range env.Payments {
		list.Customers = append(list.Customers, p.toDomain(product, c.location))
	}
	return list, nil
}

type call struct {
	method   string
	path     string
	body     interface{}
	headers  map[string]string
	notFound error
	out      interface{}
	// lenient ignores success bodies that are not JSON
	lenient bool
}

func (c *Client) do(ctx context.Context, cl call) error {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.ErrUpstreamTimeout
		}
		return err
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + cl.path)
	req.Header.SetMethod(cl.method)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	if c.apiToken != "" {
		req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+c.apiToken)
	}
	for k, v := range cl.headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("encode loan API request: %w", err)
		}
		req.Header.SetContentType("application/json")
		req.SetBodyRaw(payload)
	}

	start := time.Now()
	err := c.http.DoDeadline(req, resp, deadline)
	logger := log.With().
		Str("method", cl.method).
		Str("path", cl.path).
		Dur("latency", time.Since(start)).
		Logger()

	if err != nil {
		if errors.Is(err, fasthttp.ErrTimeout) {
			logger.Warn().Err(err).Msg("Loan API request timed out")
			return domain.ErrUpstreamTimeout
		}
		logger.Warn().Err(err).Msg("Loan API unreachable")
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}

	status := resp.StatusCode()
	logger.Debug().Int("status", status).Msg("Loan API request")

	if status == http.StatusNotFound && cl.notFound != nil {
		return cl.notFound
	}
	if status >= http.StatusBadRequest {
		var body errorBody
		// a non-JSON error body falls back to the generic message
		_ = json.Unmarshal(resp.Body(), &body)
		return domain.NewUpstreamError(status, body.text())
	}

	if cl.out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), cl.out); err != nil {
		if cl.lenient {
			return nil
		}
		return domain.NewUpstreamError(http.StatusBadGateway, "loan API returned a malformed response")
	}
	return nil
}
