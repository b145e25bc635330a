package coupon

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when no coupon matches the submitted code.
// Callers surface it as an informational message and leave the order
// untouched.
var ErrNotFound = errors.New("coupon not found")

// Coupon is a named discount of a fixed amount, subtracted from the order
// total when attached.
type Coupon struct {
	ID     int64
	Code   string
	Amount decimal.Decimal
}

// Repository provides exact-match coupon lookup.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
}
