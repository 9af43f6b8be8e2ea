package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/retailworks/pos-backoffice/pkg/circuitbreaker"
	"github.com/retailworks/pos-backoffice/pkg/errors"
	"github.com/retailworks/pos-backoffice/pkg/logger"
	"github.com/retailworks/pos-backoffice/pkg/retry"
)

// TaxLine is one order line submitted for tax calculation
type TaxLine struct {
	ProductID      string `json:"product_id"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	LineTotalCents int64  `json:"line_total_cents"`
}

// TaxRequest asks the tax service to recompute subtotal and tax for an order
type TaxRequest struct {
	OrderID      string    `json:"order_id"`
	Jurisdiction string    `json:"jurisdiction"`
	Lines        []TaxLine `json:"lines"`
}

// TaxResponse carries the recomputed amounts in minor currency units
type TaxResponse struct {
	SubtotalCents int64  `json:"subtotal_cents"`
	TaxCents      int64  `json:"tax_cents"`
	Error         string `json:"error,omitempty"`
	Code          string `json:"code,omitempty"`
}

// TaxCalculator is the engine's view of the external tax collaborator
type TaxCalculator interface {
	CalculateTax(ctx context.Context, req *TaxRequest) (*TaxResponse, error)
}

// TaxClient calls the external tax service over HTTP with retry and a
// circuit breaker. When the breaker is open, calls fail fast as temporary
// errors so the surrounding transaction rolls back cleanly.
type TaxClient struct {
	baseURL     string
	httpClient  *http.Client
	logger      logger.Logger
	retryConfig *retry.RetryConfig
	breaker     *circuitbreaker.CircuitBreaker
}

// NewTaxClient creates a new TaxClient
func NewTaxClient(baseURL string, logger logger.Logger) *TaxClient {
	httpClient := &http.Client{
		Timeout: 5 * time.Second,
	}

	retryConfig := &retry.RetryConfig{
		MaxAttempts: 3,
		BackoffStrategy: &retry.ExponentialBackoff{
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
			Multiplier:      1.5,
			JitterFactor:    0.2,
		},
		Logger: logger,
		RetryableErrors: []error{
			errors.ErrTimeout,
			errors.ErrTemporaryFailure,
			errors.ErrServiceUnavailable,
		},
	}

	breaker := circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
		HalfOpenMaxCalls: 2,
	})

	return &TaxClient{
		baseURL:     baseURL,
		httpClient:  httpClient,
		logger:      logger,
		retryConfig: retryConfig,
		breaker:     breaker,
	}
}

// CalculateTax recomputes subtotal and tax for the given lines
func (c *TaxClient) CalculateTax(ctx context.Context, req *TaxRequest) (*TaxResponse, error) {
	if !c.breaker.Allow() {
		c.logger.Warn("Tax service circuit breaker open, failing fast", "orderID", req.OrderID)
		return nil, errors.NewTemporaryError("tax service circuit breaker open")
	}

	url := fmt.Sprintf("%s/api/v1/tax/calculate", c.baseURL)

	body, err := json.Marshal(req)

	if err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to marshal tax request: %v", err))
	}

	var response *TaxResponse

	retryFunc := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))

		if err != nil {
			return errors.NewInternalError(fmt.Sprintf("failed to create request: %v", err))
		}

		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(httpReq)

		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				return errors.NewTimeoutError("tax calculation request timed out")
			}
			return errors.NewTemporaryError(fmt.Sprintf("failed to reach tax service: %v", err))
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)

		if err != nil {
			return errors.NewInternalError(fmt.Sprintf("failed to read response body: %v", err))
		}

		if resp.StatusCode >= 400 {
			if resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode >= http.StatusInternalServerError {
				return errors.NewTemporaryError(fmt.Sprintf("tax service error: %d", resp.StatusCode))
			}

			return errors.NewAppError(
				errors.ErrInternal,
				fmt.Sprintf("tax service returned error: %d", resp.StatusCode),
				resp.StatusCode,
				false,
			)
		}

		response = &TaxResponse{}

		if err := json.Unmarshal(respBody, response); err != nil {
			return errors.NewInternalError(fmt.Sprintf("failed to unmarshal tax response: %v", err))
		}

		return nil
	}

	if err := retry.Retry(ctx, retryFunc, c.retryConfig); err != nil {
		c.breaker.Failure()
		c.logger.Error("Tax calculation failed", "error", err, "orderID", req.OrderID)
		return nil, err
	}

	c.breaker.Success()
	return response, nil
}

// GetBreakerMetrics exposes the circuit breaker state for the admin API
func (c *TaxClient) GetBreakerMetrics() map[string]interface{} {
	return c.breaker.GetMetrics()
}

// ResetBreaker forces the breaker closed
func (c *TaxClient) ResetBreaker() {
	c.breaker.Reset()
}
