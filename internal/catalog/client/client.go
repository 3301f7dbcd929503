// Package client implements catalog.Catalog over the catalog HTTP API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/abgdnv/rocketcart/internal/catalog"
	catalogerrors "github.com/abgdnv/rocketcart/internal/catalog/errors"
	"github.com/abgdnv/rocketcart/pkg/config"
	"github.com/abgdnv/rocketcart/pkg/resilience"
	"github.com/abgdnv/rocketcart/pkg/web"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// maxBody caps the size of a catalog response.
const maxBody = 1 << 20

var _ catalog.Catalog = (*Client)(nil)

// Client calls GET /products/{id} and GET /stock/{id}. Every call goes through a circuit breaker
// with bounded retries under the configured timeout. Any failure other than a 404 is reported
// as catalogerrors.ErrUnavailable.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	caller  *resilience.Caller[[]byte]
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its transport is used as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a catalog Client.
func New(cfg config.HTTPClientConfig, res config.ResilienceConfig, opts ...Option) (*Client, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog URL %q: %w", cfg.URL, err)
	}
	c := &Client{
		baseURL: u,
		http:    &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		caller:  resilience.NewCaller[[]byte]("catalog", res, cfg.Timeout, isFailure),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// statusError is a catalog response other than 200 and 404.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}

// isFailure keeps "not found" and other deterministic client errors from tripping the
// breaker or being retried. 408 and 429 stay retryable.
func isFailure(err error) bool {
	if errors.Is(err, catalogerrors.ErrProductNotFound) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		switch {
		case se.code == http.StatusRequestTimeout, se.code == http.StatusTooManyRequests:
			return true
		case se.code >= 400 && se.code < 500:
			return false
		}
	}
	return true
}

// GetProduct returns the product with its current stock in Amount.
func (c *Client) GetProduct(ctx context.Context, id int64) (catalog.Product, error) {
	var p catalog.Product
	if err := c.getJSON(ctx, "products", id, &p); err != nil {
		return catalog.Product{}, err
	}
	return p, nil
}

// GetStock returns the current stock for id.
func (c *Client) GetStock(ctx context.Context, id int64) (catalog.Stock, error) {
	var st catalog.Stock
	if err := c.getJSON(ctx, "stock", id, &st); err != nil {
		return catalog.Stock{}, err
	}
	return st, nil
}

func (c *Client) getJSON(ctx context.Context, resource string, id int64, dst any) error {
	endpoint := c.baseURL.JoinPath(resource, strconv.FormatInt(id, 10)).String()

	body, err := c.caller.Do(ctx, func(ctx context.Context) ([]byte, error) {
		return c.fetch(ctx, endpoint)
	})
	if err != nil {
		if errors.Is(err, catalogerrors.ErrProductNotFound) {
			return fmt.Errorf("%s %d: %w", resource, id, err)
		}
		return fmt.Errorf("%w: GET %s: %w", catalogerrors.ErrUnavailable, endpoint, err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: decode %s %d: %w", catalogerrors.ErrUnavailable, resource, id, err)
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if reqID, ok := web.GetRequestID(ctx); ok {
		req.Header.Set(web.RequestIDHeader, reqID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, catalogerrors.ErrProductNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, &statusError{code: resp.StatusCode}
	}
	return body, nil
}
