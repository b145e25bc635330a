// Package stripe implements the payment.Charger interface against Stripe's
// charges API. Only the single charge operation the checkout needs is
// covered; the API key is injected at construction, never process-global.
package stripe

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/wrenkit/storefront/internal/domain/payment"
)

// DefaultBaseURL is Stripe's production API endpoint.
const DefaultBaseURL = "https://api.stripe.com"

// Config holds the client's construction parameters.
type Config struct {
	// APIKey is the secret key used for HTTP basic auth.
	APIKey string
	// BaseURL overrides the API endpoint; used by tests. Empty means
	// DefaultBaseURL.
	BaseURL string
	// HTTPClient overrides the HTTP client. Empty means a client with a
	// 30 second timeout.
	HTTPClient *http.Client
}

var _ payment.Charger = (*Client)(nil)

// Client is a minimal Stripe charges client.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Client from the given config.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    httpClient,
	}
}

// chargeResponse is the subset of Stripe's charge object we consume.
type chargeResponse struct {
	ID    string `json:"id"`
	Error *struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Charge captures a payment. Processor-reported failures come back as
// *payment.ChargeError classified by Stripe's error type; transport
// failures are classified as network errors.
func (c *Client) Charge(ctx context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.Amount, 10))
	form.Set("currency", req.Currency)
	form.Set("source", req.Token)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/charges", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "create charge request")
	}
	httpReq.SetBasicAuth(c.apiKey, "")
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &payment.ChargeError{
			Kind:    payment.KindNetworkError,
			Message: err.Error(),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &payment.ChargeError{
			Kind:    payment.KindNetworkError,
			Message: err.Error(),
		}
	}

	var charge chargeResponse
	if err := json.Unmarshal(body, &charge); err != nil {
		return nil, &payment.ChargeError{
			Kind:    payment.KindProcessorError,
			Message: "malformed processor response",
		}
	}

	if resp.StatusCode >= 400 || charge.Error != nil {
		return nil, classifyError(&charge)
	}
	return &payment.ChargeResult{ChargeID: charge.ID}, nil
}

// classifyError maps Stripe's error taxonomy onto payment error kinds.
func classifyError(charge *chargeResponse) *payment.ChargeError {
	if charge.Error == nil {
		return &payment.ChargeError{
			Kind:    payment.KindUnknown,
			Message: "charge rejected without error detail",
		}
	}

	kind := payment.KindUnknown
	switch charge.Error.Type {
	case "card_error":
		kind = payment.KindCardDeclined
	case "rate_limit_error":
		kind = payment.KindRateLimited
	case "invalid_request_error":
		kind = payment.KindInvalidRequest
	case "authentication_error":
		kind = payment.KindAuthenticationFailed
	case "api_connection_error":
		kind = payment.KindNetworkError
	case "api_error":
		kind = payment.KindProcessorError
	}
	return &payment.ChargeError{
		Kind:    kind,
		Message: charge.Error.Message,
	}
}
