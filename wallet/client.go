// Package wallet is the boundary to the wallet provider: its task based
// client API, its errors, and the host's result envelopes.
package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"checkout-service/logging"
	"checkout-service/monitoring"
)

// Client is the wallet provider's payments client. Requests are the JSON
// documents built by the walletrequest package, passed through verbatim.
type Client interface {
	// IsReadyToPay resolves with the provider's readiness flag; a nil flag
	// means the provider returned no result.
	IsReadyToPay(ctx context.Context, request []byte) *Task[*bool]
	// LoadPaymentData resolves with the opaque payment data once the payment
	// sheet has been completed.
	LoadPaymentData(ctx context.Context, request []byte) *Task[json.RawMessage]
}

const (
	opIsReadyToPay    = "isReadyToPay"
	opLoadPaymentData = "loadPaymentData"
)

// HTTPClient talks to a wallet provider over HTTP.
type HTTPClient struct {
	baseURL     string
	environment string
	httpClient  *http.Client
}

// NewHTTPClient creates a client for the provider at baseURL.
func NewHTTPClient(baseURL, environment string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:     baseURL,
		environment: environment,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   timeout,
		},
	}
}

type readinessResponse struct {
	Result *bool `json:"result"`
}

func (c *HTTPClient) IsReadyToPay(ctx context.Context, request []byte) *Task[*bool] {
	task := NewTask[*bool]()
	go func() {
		body, err := c.post(ctx, opIsReadyToPay, request)
		if err != nil {
			task.SetError(err)
			return
		}
		var resp readinessResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			task.SetError(&APIError{
				Status: Status{StatusCode: StatusInternalError, StatusMessage: "malformed readiness response"},
				Err:    err,
			})
			return
		}
		task.SetResult(resp.Result)
	}()
	return task
}

func (c *HTTPClient) LoadPaymentData(ctx context.Context, request []byte) *Task[json.RawMessage] {
	task := NewTask[json.RawMessage]()
	go func() {
		body, err := c.post(ctx, opLoadPaymentData, request)
		if err != nil {
			task.SetError(err)
			return
		}
		task.SetResult(json.RawMessage(body))
	}()
	return task
}

// post sends request to the provider operation and returns the response body.
// Every failure is reported as an *APIError.
func (c *HTTPClient) post(ctx context.Context, operation string, request []byte) ([]byte, error) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.String("external.service", "wallet-provider"),
		attribute.String("wallet.operation", operation),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/%s", c.baseURL, operation), bytes.NewReader(request))
	if err != nil {
		return nil, &APIError{Status: Status{StatusCode: StatusDeveloperError, StatusMessage: err.Error()}, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Wallet-Environment", c.environment)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start).Seconds()

	if err != nil {
		c.record(ctx, operation, "error", duration)
		logging.WithTraceContext(span).Warn("Wallet provider call failed",
			zap.String("operation", operation),
			zap.Error(err),
		)
		return nil, &APIError{Status: Status{StatusCode: StatusNetworkError, StatusMessage: err.Error()}, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.record(ctx, operation, "error", duration)
		return nil, &APIError{Status: Status{StatusCode: StatusNetworkError, StatusMessage: err.Error()}, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		c.record(ctx, operation, "failed", duration)
		span.SetAttributes(attribute.Int("external.status_code", resp.StatusCode))
		return nil, statusError(resp.StatusCode, body)
	}

	c.record(ctx, operation, "success", duration)
	return body, nil
}

func (c *HTTPClient) record(ctx context.Context, operation, status string, seconds float64) {
	monitoring.WalletCallDuration.Record(ctx, seconds,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("status", status),
		),
	)
}

// statusError decodes the provider's error body, falling back to the HTTP status.
func statusError(httpStatus int, body []byte) *APIError {
	var st Status
	if err := json.Unmarshal(body, &st); err == nil && st.StatusCode != StatusSuccess {
		return &APIError{Status: st}
	}
	return &APIError{Status: Status{
		StatusCode:    StatusInternalError,
		StatusMessage: fmt.Sprintf("wallet provider returned status %d", httpStatus),
	}}
}
