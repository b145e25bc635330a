package checkout

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/wrenkit/storefront/internal/domain/address"
	"github.com/wrenkit/storefront/internal/domain/cart"
	"github.com/wrenkit/storefront/internal/domain/payment"
)

// Sentinel errors for checkout progression.
var (
	// ErrNoBillingAddress means the order cannot be paid yet; the caller
	// redirects back to the checkout step.
	ErrNoBillingAddress = errors.New("order has no billing address")
	// ErrInvalidPaymentOption is returned for an unrecognized payment choice.
	ErrInvalidPaymentOption = errors.New("invalid payment option")
	// ErrRefCodeTaken is returned by Orders.Finalize when the generated
	// reference code collides with an existing order.
	ErrRefCodeTaken = errors.New("reference code already taken")
)

// refCodeAttempts bounds regeneration on reference code collision. With a
// 36^20 code space this retries only under pathological conditions.
const refCodeAttempts = 5

// PaymentOption is the payment method chosen on the checkout form.
type PaymentOption string

const (
	PayByCard   PaymentOption = "C"
	PayByPaypal PaymentOption = "P"
)

// Finalization carries everything the single open→paid transition writes:
// the payment record, the reference code, the ordered flags on the order and
// all its lines. Orders.Finalize applies it in one transaction.
type Finalization struct {
	OrderID   int64
	RefCode   string
	Payment   *payment.Payment
	OrderedAt time.Time
}

// Orders is the order store as seen by the checkout orchestrator.
type Orders interface {
	FindOpenByUser(ctx context.Context, userID int64) (*cart.Order, error)
	Finalize(ctx context.Context, f Finalization) error
}

// Service drives the open→paid transition of an order: address resolution,
// payment capture through the external processor, and finalization.
type Service struct {
	orders   Orders
	resolver *address.Resolver
	charger  payment.Charger
	currency string

	now        func() time.Time
	newRefCode func() string
}

// NewService creates a checkout Service. The currency is the ISO code sent
// with every charge, e.g. "usd".
func NewService(orders Orders, resolver *address.Resolver, charger payment.Charger, currency string) *Service {
	return &Service{
		orders:     orders,
		resolver:   resolver,
		charger:    charger,
		currency:   currency,
		now:        time.Now,
		newRefCode: NewRefCode,
	}
}

// Submit applies the checkout form to the user's open order: shipping and
// billing address resolution plus payment option validation. Address errors
// (no default, missing fields) abort the submission and are recoverable;
// a previously resolved shipping address survives a billing failure.
func (s *Service) Submit(ctx context.Context, userID int64, form address.Form, option PaymentOption) error {
	order, err := s.orders.FindOpenByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, cart.ErrNoOpenOrder) {
			return cart.ErrNoOpenOrder
		}
		return errors.Wrap(err, "find open order")
	}

	if err := s.resolver.Resolve(ctx, userID, order.ID, form); err != nil {
		return err
	}

	switch option {
	case PayByCard, PayByPaypal:
		return nil
	default:
		return ErrInvalidPaymentOption
	}
}

// PaymentReady checks the precondition for the payment step: an open order
// with a billing address. It returns the order for display, or
// ErrNoBillingAddress / cart.ErrNoOpenOrder as redirect signals.
func (s *Service) PaymentReady(ctx context.Context, userID int64) (*cart.Order, error) {
	order, err := s.orders.FindOpenByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, cart.ErrNoOpenOrder) {
			return nil, cart.ErrNoOpenOrder
		}
		return nil, errors.Wrap(err, "find open order")
	}
	if order.BillingAddress == nil {
		return nil, ErrNoBillingAddress
	}
	return order, nil
}

// Pay captures the order total through the payment processor and finalizes
// the order. On processor failure the classified *payment.ChargeError is
// returned and the order stays open and unmodified; there is no rollback
// path once the charge succeeds — finalization is retried until the
// reference code is unique.
func (s *Service) Pay(ctx context.Context, userID int64, token string) (*cart.Order, error) {
	order, err := s.PaymentReady(ctx, userID)
	if err != nil {
		return nil, err
	}

	total := order.Total()
	amount := total.Shift(2).IntPart() // minor currency units, truncated

	result, err := s.charger.Charge(ctx, payment.ChargeRequest{
		Amount:   amount,
		Currency: s.currency,
		Token:    token,
	})
	if err != nil {
		var chargeErr *payment.ChargeError
		if errors.As(err, &chargeErr) {
			return nil, chargeErr
		}
		return nil, &payment.ChargeError{Kind: payment.KindUnknown, Message: err.Error()}
	}

	orderedAt := s.now()
	pay := &payment.Payment{
		ChargeID:  result.ChargeID,
		UserID:    userID,
		Amount:    total,
		Timestamp: orderedAt,
	}

	var refCode string
	for attempt := 0; ; attempt++ {
		refCode = s.newRefCode()
		err = s.orders.Finalize(ctx, Finalization{
			OrderID:   order.ID,
			RefCode:   refCode,
			Payment:   pay,
			OrderedAt: orderedAt,
		})
		if err == nil {
			break
		}
		if errors.Is(err, ErrRefCodeTaken) && attempt < refCodeAttempts-1 {
			continue
		}
		return nil, errors.Wrap(err, "finalize order")
	}

	order.Ordered = true
	order.RefCode = refCode
	order.Payment = pay
	order.OrderDate = orderedAt
	for i := range order.Items {
		order.Items[i].Ordered = true
	}
	return order, nil
}
