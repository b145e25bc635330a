package refund

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/wrenkit/storefront/internal/domain/cart"
)

// Refund is a customer's request to refund a finalized order, reviewed later
// by the back office. Accepted starts false.
type Refund struct {
	ID        int64
	OrderID   int64
	Email     string
	Reason    string
	Accepted  bool
	CreatedAt time.Time
}

// Repository persists refund requests.
type Repository interface {
	Create(ctx context.Context, r *Refund) error
}

// Orders is the narrow view of the order store refund intake needs.
type Orders interface {
	// FindByRefCode returns the order with the given reference code, or
	// cart.ErrNotFound.
	FindByRefCode(ctx context.Context, refCode string) (*cart.Order, error)
	// MarkRefundRequested flips the order's refund_requested flag.
	MarkRefundRequested(ctx context.Context, orderID int64) error
}

// Service accepts refund requests against finalized orders.
//
// There is deliberately no check that the requester's email matches the
// order's owner: anyone holding a valid reference code can file a request,
// which keeps the guest refund flow working.
type Service struct {
	orders  Orders
	refunds Repository
}

// NewService creates a refund Service.
func NewService(orders Orders, refunds Repository) *Service {
	return &Service{orders: orders, refunds: refunds}
}

// Request locates the order by reference code, marks it refund-requested and
// records the request. An unknown code returns cart.ErrNotFound with nothing
// mutated.
func (s *Service) Request(ctx context.Context, refCode, email, reason string) (*Refund, error) {
	order, err := s.orders.FindByRefCode(ctx, refCode)
	if err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			return nil, cart.ErrNotFound
		}
		return nil, errors.Wrap(err, "find order by ref code")
	}

	if err := s.orders.MarkRefundRequested(ctx, order.ID); err != nil {
		return nil, errors.Wrap(err, "mark refund requested")
	}

	r := &Refund{
		OrderID: order.ID,
		Email:   email,
		Reason:  reason,
	}
	if err := s.refunds.Create(ctx, r); err != nil {
		return nil, errors.Wrap(err, "create refund")
	}
	return r, nil
}
