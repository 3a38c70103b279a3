package upstream

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/dafibh/loandesk/loandesk-backend/internal/domain"
	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

// newTestClient serves handler on an in-memory listener and returns a client wired to it
func newTestClient(t *testing.T, handler fasthttp.RequestHandler, opts ...Option) *Client {
	t.Helper()

	ln := fasthttputil.NewInmemoryListener()
	server := &fasthttp.Server{Handler: handler}
	go server.Serve(ln) //nolint:errcheck
	t.Cleanup(func() { ln.Close() })

	opts = append([]Option{WithDialer(func(addr string) (net.Conn, error) {
		return ln.Dial()
	})}, opts...)
	return NewClient("http://loanapi.test", opts...)
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, body string) {
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBodyString(body)
}

func TestClient_GetCustomer(t *testing.T) {
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		assert.Equal(t, "/customers-lra/C-100", string(ctx.Path()))
		assert.Equal(t, "Bearer secret", string(ctx.Request.Header.Peek("Authorization")))
		writeJSON(ctx, 200, `{"customer":{"_id":"abc","customerId":"LRA-100","name":"Asha",
			"loanAmount":52500,"disbursementAmount":50000,"totalPaid":4667,
			"remainingAmount":51333.5,"overdue":0,"paidEmis":1,"status":"Active"}}`)
	}, WithAPIToken("secret"))

	account, err := client.GetCustomer(context.Background(), domain.ProductLRA, "C-100")
	require.NoError(t, err)

	assert.Equal(t, "C-100", account.ID)
	assert.Equal(t, "LRA-100", account.CustomerCode)
	assert.Equal(t, domain.ProductLRA, account.Product)
	assert.Equal(t, "51333.5", account.RemainingAmount.String())
	assert.Equal(t, 1, account.PaidEmis)
	assert.Equal(t, domain.AccountStatusActive, account.Status)
}

func TestClient_GetCustomer_NotFound(t *testing.T) {
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		writeJSON(ctx, 404, `{"message":"Customer not found"}`)
	})

	_, err := client.GetCustomer(context.Background(), domain.ProductSTL, "missing")
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
}

func TestClient_GetSchedule_EmiDetails(t *testing.T) {
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		assert.Equal(t, "/customers-stl/C-1/emis", string(ctx.Path()))
		writeJSON(ctx, 200, `{"customer":{},"emiDetails":[
			{"date":"2026-01-02","amount":100,"status":"paid","paidDate":"2026-01-02T09:30:00Z"},
			{"date":"2026-01-03","amount":100,"status":"Pending","interest":3,"daysOverdue":1}
		]}`)
	})

	schedule, err := client.GetSchedule(context.Background(), domain.ProductSTL, "C-1")
	require.NoError(t, err)
	require.Len(t, schedule, 2)

	assert.Equal(t, 0, schedule[0].Index)
	assert.Equal(t, domain.EmiStatusPaid, schedule[0].Status)
	require.NotNil(t, schedule[0].PaidDate)
	assert.Equal(t, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), schedule[0].DueDate)

	assert.Equal(t, 1, schedule[1].Index)
	assert.Equal(t, domain.EmiStatusPending, schedule[1].Status)
	assert.True(t, schedule[1].Amount.Equal(decimal.NewFromInt(100)))
}

func TestClient_GetSchedule_EmiHistoryInLocation(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		writeJSON(ctx, 200, `{"emiHistory":[{"index":4,"dueDate":"2026-03-31","amount":4667,"status":"overdue"}]}`)
	}, WithLocation(ist))

	schedule, err := client.GetSchedule(context.Background(), domain.ProductLRA, "C-9")
	require.NoError(t, err)
	require.Len(t, schedule, 1)

	assert.Equal(t, 4, schedule[0].Index)
	assert.Equal(t, domain.EmiStatusOverdue, schedule[0].Status)
	assert.Equal(t, time.Date(2026, 3, 31, 0, 0, 0, 0, ist), schedule[0].DueDate)
}

func TestClient_GetSchedule_BadDate(t *testing.T) {
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		writeJSON(ctx, 200, `{"emiDetails":[{"dueDate":"31/03/2026","amount":1}]}`)
	})

	_, err := client.GetSchedule(context.Background(), domain.ProductLRA, "C-9")
	var upstreamErr *domain.UpstreamError
	require.True(t, errors.As(err, &upstreamErr))
	assert.Contains(t, upstreamErr.Message, "malformed schedule")
}

func TestClient_CollectPayment(t *testing.T) {
	var received map[string]interface{}
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		assert.Equal(t, "POST", string(ctx.Method()))
		assert.Equal(t, "/customers-lra/collect-payment", string(ctx.Path()))
		assert.Equal(t, "key-12345678", string(ctx.Request.Header.Peek("Idempotency-Key")))
		assert.NoError(t, json.Unmarshal(ctx.PostBody(), &received))
		writeJSON(ctx, 200, `{"success":true}`)
	})

	idx := 2
	err := client.CollectPayment(context.Background(), domain.CollectPaymentRequest{
		Product:        domain.ProductLRA,
		CustomerID:     "C-1",
		Amount:         decimal.RequireFromString("4667.50"),
		PaymentType:    domain.PaymentTypeEMI,
		EmiIndex:       &idx,
		IdempotencyKey: "key-12345678",
	})
	require.NoError(t, err)

	// money goes out as a JSON number, never a string
	assert.Equal(t, 4667.5, received["amount"])
	assert.Equal(t, "C-1", received["customerId"])
	assert.Equal(t, "emi", received["paymentType"])
	assert.Equal(t, float64(2), received["emiIndex"])
	assert.NotContains(t, received, "IdempotencyKey")
}

func TestClient_CollectPayment_FullOmitsIndex(t *testing.T) {
	var received map[string]interface{}
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		assert.NoError(t, json.Unmarshal(ctx.PostBody(), &received))
		// STL answers with the updated customer rather than a success flag
		writeJSON(ctx, 200, `{"customerId":"C-1","remainingAmount":0}`)
	})

	err := client.CollectPayment(context.Background(), domain.CollectPaymentRequest{
		Product:     domain.ProductSTL,
		CustomerID:  "C-1",
		Amount:      decimal.NewFromInt(9000),
		PaymentType: domain.PaymentTypeFull,
	})
	require.NoError(t, err)
	assert.NotContains(t, received, "emiIndex")
	assert.Equal(t, float64(9000), received["amount"])
}

func TestClient_CustomerIDIsPathEscaped(t *testing.T) {
	var paths []string
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		paths = append(paths, string(ctx.Request.Header.RequestURI()))
		writeJSON(ctx, 404, `{"message":"not found"}`)
	})

	_, err := client.GetCustomer(context.Background(), domain.ProductSTL, "C/1?x=y")
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
	_, err = client.GetSchedule(context.Background(), domain.ProductSTL, "C/1?x=y")
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)

	require.Len(t, paths, 2)
	assert.Equal(t, "/customers-stl/C%2F1%3Fx=y", paths[0])
	assert.Equal(t, "/customers-stl/C%2F1%3Fx=y/emis", paths[1])
}

func TestClient_CollectPayment_Rejected(t *testing.T) {
	tests := []struct {
		name            string
		status          int
		body            string
		expectedStatus  int
		expectedMessage string
	}{
		{"message from body", 400, `{"message":"EMI already paid"}`, 400, "EMI already paid"},
		{"error field", 422, `{"error":"amount mismatch"}`, 422, "amount mismatch"},
		{"no body", 500, ``, 500, domain.DefaultUpstreamMessage},
		{"html body", 502, `<html>bad gateway</html>`, 502, domain.DefaultUpstreamMessage},
		{"success false", 200, `{"success":false,"message":"Customer is closed"}`, 200, "Customer is closed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
				writeJSON(ctx, tt.status, tt.body)
			})

			err := client.CollectPayment(context.Background(), domain.CollectPaymentRequest{
				Product:     domain.ProductSTL,
				CustomerID:  "C-1",
				Amount:      decimal.NewFromInt(100),
				PaymentType: domain.PaymentTypeFull,
			})

			var upstreamErr *domain.UpstreamError
			require.True(t, errors.As(err, &upstreamErr))
			assert.Equal(t, tt.expectedStatus, upstreamErr.StatusCode)
			assert.Equal(t, tt.expectedMessage, upstreamErr.Message)
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		<-release
		writeJSON(ctx, 200, `{}`)
	}, WithTimeout(50*time.Millisecond))

	_, err := client.GetCustomer(context.Background(), domain.ProductSTL, "C-1")
	assert.ErrorIs(t, err, domain.ErrUpstreamTimeout)
}

func TestClient_ExpiredContext(t *testing.T) {
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		t.Error("request should not be sent")
	})

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := client.GetCustomer(ctx, domain.ProductSTL, "C-1")
	assert.ErrorIs(t, err, domain.ErrUpstreamTimeout)
}

func TestClient_Unavailable(t *testing.T) {
	client := NewClient("http://loanapi.test", WithDialer(func(addr string) (net.Conn, error) {
		return nil, errors.New("connection refused")
	}))

	_, err := client.GetOverdue(context.Background(), domain.ProductSTL)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestClient_GetOverdue(t *testing.T) {
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.Path()) {
		case "/customers-stl/overdue/list":
			writeJSON(ctx, 200, `{"success":true,"total":300,"payments":[
				{"customerId":"S-1","customerName":"Ravi","overdueAmount":300,"daysOverdue":3,"lastPaymentDate":"2026-01-01"}
			]}`)
		case "/customers-lra/overdue":
			writeJSON(ctx, 200, `{"success":true,"total":0,"payments":[{"customerId":"L-1","name":"Meena","overdueAmount":4667}]}`)
		default:
			writeJSON(ctx, 404, `{}`)
		}
	})

	stl, err := client.GetOverdue(context.Background(), domain.ProductSTL)
	require.NoError(t, err)
	assert.True(t, stl.Total.Equal(decimal.NewFromInt(300)))
	require.Len(t, stl.Customers, 1)
	assert.Equal(t, "Ravi", stl.Customers[0].CustomerName)
	assert.Equal(t, domain.ProductSTL, stl.Customers[0].Product)
	require.NotNil(t, stl.Customers[0].LastPaymentDate)

	lra, err := client.GetOverdue(context.Background(), domain.ProductLRA)
	require.NoError(t, err)
	require.Len(t, lra.Customers, 1)
	assert.Equal(t, "Meena", lra.Customers[0].CustomerName)
	assert.Nil(t, lra.Customers[0].LastPaymentDate)
}

func TestClient_GetOverdue_SuccessFalse(t *testing.T) {
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		writeJSON(ctx, 200, `{"success":false,"message":"report unavailable"}`)
	})

	_, err := client.GetOverdue(context.Background(), domain.ProductLRA)
	var upstreamErr *domain.UpstreamError
	require.True(t, errors.As(err, &upstreamErr))
	assert.Equal(t, "report unavailable", upstreamErr.Message)
}
