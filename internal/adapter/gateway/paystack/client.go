package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"

	"github.com/herdpool/herdpool/internal/domain"
	"github.com/herdpool/herdpool/internal/infrastructure/metrics"
	"github.com/herdpool/herdpool/internal/usecase"
)

const (
	defaultBaseURL = "https://api.paystack.co"
	defaultTimeout = 15 * time.Second
)

// minorUnit converts between naira and kobo.
var minorUnit = decimal.NewFromInt(100)

// Client implements usecase.PaymentGateway against the Paystack REST API.
// Verify is a plain GET and safe to repeat; Initialize stages a new checkout
// on every call.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
	metrics    *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL. Used by tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithMetrics wires gateway call metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a new Paystack client.
func NewClient(secretKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    defaultBaseURL,
		secretKey:  secretKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type initializeRequest struct {
	Email       string `json:"email"`
	Amount      int64  `json:"amount"`
	CallbackURL string `json:"callback_url,omitempty"`
}

type initializeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

type verifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status   string `json:"status"`
		Amount   int64  `json:"amount"`
		Customer struct {
			Email string `json:"email"`
		} `json:"customer"`
	} `json:"data"`
}

// Initialize stages a checkout for the given amount in naira. Paystack wants
// kobo on the wire.
func (c *Client) Initialize(ctx context.Context, email string, amount decimal.Decimal, callbackURL string) (*usecase.GatewayCheckout, error) {
	body := initializeRequest{
		Email:       email,
		Amount:      amount.Mul(minorUnit).IntPart(),
		CallbackURL: callbackURL,
	}

	var resp initializeResponse
	if err := c.call(ctx, "initialize", http.MethodPost, "/transaction/initialize", body, &resp); err != nil {
		return nil, err
	}

	if !resp.Status {
		return nil, fmt.Errorf("%w: %s", domain.ErrGatewayUnavailable, resp.Message)
	}

	return &usecase.GatewayCheckout{
		Reference:   resp.Data.Reference,
		RedirectURL: resp.Data.AuthorizationURL,
	}, nil
}

// Verify asks Paystack for the state of a transaction.
func (c *Client) Verify(ctx context.Context, reference string) (*usecase.GatewayVerification, error) {
	var resp verifyResponse
	path := "/transaction/verify/" + url.PathEscape(reference)
	if err := c.call(ctx, "verify", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	if !resp.Status {
		return nil, fmt.Errorf("%w: %s", domain.ErrVerificationFailed, resp.Message)
	}

	return &usecase.GatewayVerification{
		Status:     resp.Data.Status,
		Amount:     decimal.NewFromInt(resp.Data.Amount).Div(minorUnit),
		PayerEmail: resp.Data.Customer.Email,
	}, nil
}

// call runs one API request with exponential backoff on network errors and
// 5xx responses. 4xx responses are permanent.
func (c *Client) call(ctx context.Context, operation, method, path string, body, out any) error {
	start := time.Now()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 10 * time.Second

	err := backoff.Retry(func() error {
		return c.doOnce(ctx, method, path, body, out)
	}, backoff.WithContext(b, ctx))

	if c.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		c.metrics.GatewayCalls.WithLabelValues(operation, status).Inc()
		c.metrics.GatewayDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}

	if err != nil {
		return err
	}

	return nil
}

func (c *Client) doOnce(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return backoff.Permanent(err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: gateway returned %d", domain.ErrGatewayUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return backoff.Permanent(fmt.Errorf("%w: gateway returned %d: %s", domain.ErrVerificationFailed, resp.StatusCode, raw))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return backoff.Permanent(fmt.Errorf("%w: bad gateway response: %v", domain.ErrGatewayUnavailable, err))
	}

	return nil
}
