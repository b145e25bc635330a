package coupon

import (
	"context"

	"github.com/go-faster/errors"
)

// Orders is the narrow view of the order store the coupon service needs.
type Orders interface {
	// OpenOrderID returns the ID of the user's open order, or
	// cart.ErrNoOpenOrder.
	OpenOrderID(ctx context.Context, userID int64) (int64, error)
	// AttachCoupon links the coupon to the order.
	AttachCoupon(ctx context.Context, orderID, couponID int64) error
}

// Service attaches coupons to open orders.
type Service struct {
	coupons Repository
	orders  Orders
}

// NewService creates a coupon Service.
func NewService(coupons Repository, orders Orders) *Service {
	return &Service{coupons: coupons, orders: orders}
}

// Apply looks up the coupon by exact code match and attaches it to the
// user's open order. A missing coupon returns ErrNotFound with the order
// unchanged; a missing open order surfaces the cart sentinel from Orders.
func (s *Service) Apply(ctx context.Context, userID int64, code string) (*Coupon, error) {
	c, err := s.coupons.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "find coupon")
	}

	orderID, err := s.orders.OpenOrderID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.orders.AttachCoupon(ctx, orderID, c.ID); err != nil {
		return nil, errors.Wrap(err, "attach coupon")
	}
	return c, nil
}
