package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Payment is an immutable record of a captured charge. Created exactly once
// per successful checkout, never mutated afterwards.
type Payment struct {
	ID        int64
	ChargeID  string
	UserID    int64
	Amount    decimal.Decimal
	Timestamp time.Time
}

// ErrorKind classifies a failed charge by the processor's error taxonomy.
type ErrorKind string

const (
	KindCardDeclined         ErrorKind = "card_declined"
	KindRateLimited          ErrorKind = "rate_limited"
	KindInvalidRequest       ErrorKind = "invalid_request"
	KindAuthenticationFailed ErrorKind = "authentication_failed"
	KindNetworkError         ErrorKind = "network_error"
	KindProcessorError       ErrorKind = "processor_error"
	KindUnknown              ErrorKind = "unknown"
)

// ChargeError is a classified charge failure. The order is left open and
// unmodified; the user may retry.
type ChargeError struct {
	Kind    ErrorKind
	Message string
}

func (e *ChargeError) Error() string {
	return fmt.Sprintf("charge failed (%s): %s", e.Kind, e.Message)
}

// ChargeRequest describes a single capture attempt. Amount is in minor
// currency units (cents for USD).
type ChargeRequest struct {
	Amount   int64
	Currency string
	Token    string
}

// ChargeResult is the processor's acknowledgement of a captured charge.
type ChargeResult struct {
	ChargeID string
}

// Charger is the narrow interface to the external payment processor.
// Implementations return *ChargeError for processor-reported failures.
type Charger interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}
