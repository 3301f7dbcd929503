package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abgdnv/rocketcart/internal/catalog"
	catalogerrors "github.com/abgdnv/rocketcart/internal/catalog/errors"
	"github.com/abgdnv/rocketcart/pkg/config"
	"github.com/abgdnv/rocketcart/pkg/web"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resilienceConfig() config.ResilienceConfig {
	return config.ResilienceConfig{
		Retry: config.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond},
		CircuitBreaker: config.CircuitBreakerConfig{
			ConsecutiveFailures: 10,
			ErrorRatePercent:    100,
			OpenTimeout:         time.Minute,
		},
	}
}

// catalogServer serves canned responses and counts the calls it receives.
type catalogServer struct {
	calls  atomic.Int32
	status int
	body   string
	delay  time.Duration
	reqID  atomic.Value
}

func (s *catalogServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.calls.Add(1)
	s.reqID.Store(r.Header.Get(web.RequestIDHeader))
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-r.Context().Done():
			return
		}
	}
	w.WriteHeader(s.status)
	_, _ = w.Write([]byte(s.body))
}

func newClient(t *testing.T, srv *catalogServer, timeout time.Duration) *Client {
	t.Helper()
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	c, err := New(config.HTTPClientConfig{URL: ts.URL, Timeout: timeout}, resilienceConfig())
	require.NoError(t, err)
	return c
}

func Test_Client_GetProduct(t *testing.T) {
	testCases := []struct {
		name        string
		server      *catalogServer
		expected    catalog.Product
		expectError error
		wantCalls   int32
	}{
		{
			name:      "Success - price as number",
			server:    &catalogServer{status: http.StatusOK, body: `{"id":1,"title":"Tênis","price":179.9,"image":"https://img/1.jpg","amount":3}`},
			expected:  catalog.Product{ID: 1, Title: "Tênis", Price: decimal.RequireFromString("179.9"), Image: "https://img/1.jpg", Amount: 3},
			wantCalls: 1,
		},
		{
			name:        "Failure - not found is not retried",
			server:      &catalogServer{status: http.StatusNotFound, body: `{"error":"nope"}`},
			expectError: catalogerrors.ErrProductNotFound,
			wantCalls:   1,
		},
		{
			name:        "Failure - server error is retried then unavailable",
			server:      &catalogServer{status: http.StatusInternalServerError},
			expectError: catalogerrors.ErrUnavailable,
			wantCalls:   3,
		},
		{
			name:        "Failure - client error is not retried",
			server:      &catalogServer{status: http.StatusBadRequest, body: `{"error":"bad id"}`},
			expectError: catalogerrors.ErrUnavailable,
			wantCalls:   1,
		},
		{
			name:        "Failure - too many requests is retried",
			server:      &catalogServer{status: http.StatusTooManyRequests},
			expectError: catalogerrors.ErrUnavailable,
			wantCalls:   3,
		},
		{
			name:        "Failure - malformed body",
			server:      &catalogServer{status: http.StatusOK, body: `{"id":`},
			expectError: catalogerrors.ErrUnavailable,
			wantCalls:   1,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			c := newClient(t, tc.server, time.Second)

			// when
			got, err := c.GetProduct(context.Background(), 1)

			// then
			assert.Equal(t, tc.wantCalls, tc.server.calls.Load())
			if tc.expectError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tc.expectError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected.ID, got.ID)
			assert.Equal(t, tc.expected.Title, got.Title)
			assert.True(t, tc.expected.Price.Equal(got.Price))
			assert.Equal(t, tc.expected.Amount, got.Amount)
		})
	}
}

func Test_Client_GetStock(t *testing.T) {
	// given
	srv := &catalogServer{status: http.StatusOK, body: `{"id":2,"amount":5}`}
	c := newClient(t, srv, time.Second)
	ctx := web.WithRequestID(context.Background(), "req-1")

	// when
	st, err := c.GetStock(ctx, 2)

	// then
	require.NoError(t, err)
	assert.Equal(t, catalog.Stock{ID: 2, Amount: 5}, st)
	assert.Equal(t, "req-1", srv.reqID.Load(), "request id is propagated")
}

func Test_Client_Timeout(t *testing.T) {
	// given
	srv := &catalogServer{status: http.StatusOK, body: `{"id":2,"amount":5}`, delay: time.Second}
	c := newClient(t, srv, 50*time.Millisecond)

	// when
	start := time.Now()
	_, err := c.GetStock(context.Background(), 2)

	// then
	require.Error(t, err)
	assert.ErrorIs(t, err, catalogerrors.ErrUnavailable)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}
