package cart

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/wrenkit/storefront/internal/domain/catalog"
)

// Service implements the cart operations: add, remove and decrement of
// line items against the user's single open order.
type Service struct {
	items  catalog.Repository
	orders Repository
}

// NewService creates a cart Service.
func NewService(items catalog.Repository, orders Repository) *Service {
	return &Service{items: items, orders: orders}
}

// AddToCart adds one unit of the item to the user's cart. The open order is
// created on first use; adding an item already in the cart increments its
// quantity instead of creating a second line. Returns the updated order.
func (s *Service) AddToCart(ctx context.Context, userID int64, slug string) (*Order, error) {
	item, err := s.items.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, catalog.ErrNotFound
		}
		return nil, errors.Wrap(err, "get item")
	}

	order, err := s.openOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	line, err := s.orders.FindLine(ctx, order.ID, item.ID)
	switch {
	case err == nil:
		if err := s.orders.UpdateLineQuantity(ctx, line.ID, line.Quantity+1); err != nil {
			return nil, errors.Wrap(err, "increment quantity")
		}
	case errors.Is(err, ErrNotInCart):
		line = &OrderItem{UserID: userID, Item: *item, Quantity: 1}
		if err := s.orders.InsertLine(ctx, order.ID, line); err != nil {
			return nil, errors.Wrap(err, "insert line")
		}
	default:
		return nil, errors.Wrap(err, "find line")
	}

	updated, err := s.orders.FindOpenByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "reload order")
	}
	return updated, nil
}

// RemoveFromCart deletes the item's whole line from the cart, regardless of
// quantity. Returns ErrNoOpenOrder or ErrNotInCart as informational no-op
// signals.
func (s *Service) RemoveFromCart(ctx context.Context, userID int64, slug string) error {
	line, err := s.findLine(ctx, userID, slug)
	if err != nil {
		return err
	}
	if err := s.orders.DeleteLine(ctx, line.ID); err != nil {
		return errors.Wrap(err, "delete line")
	}
	return nil
}

// DecrementItem lowers the item's quantity by one; a line at quantity one is
// removed entirely rather than left at zero.
func (s *Service) DecrementItem(ctx context.Context, userID int64, slug string) error {
	line, err := s.findLine(ctx, userID, slug)
	if err != nil {
		return err
	}
	if line.Quantity > 1 {
		if err := s.orders.UpdateLineQuantity(ctx, line.ID, line.Quantity-1); err != nil {
			return errors.Wrap(err, "decrement quantity")
		}
		return nil
	}
	if err := s.orders.DeleteLine(ctx, line.ID); err != nil {
		return errors.Wrap(err, "delete line")
	}
	return nil
}

// OpenOrder returns the user's active cart, or ErrNoOpenOrder.
func (s *Service) OpenOrder(ctx context.Context, userID int64) (*Order, error) {
	return s.orders.FindOpenByUser(ctx, userID)
}

// openOrCreate finds the user's open order, creating one on first use.
// A create that loses the race against a concurrent request falls back to
// the winner's order, keeping the one-open-order invariant.
func (s *Service) openOrCreate(ctx context.Context, userID int64) (*Order, error) {
	order, err := s.orders.FindOpenByUser(ctx, userID)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, ErrNoOpenOrder) {
		return nil, errors.Wrap(err, "find open order")
	}

	order, err = s.orders.CreateOpen(ctx, userID)
	if err == nil {
		return order, nil
	}
	if errors.Is(err, ErrOpenOrderExists) {
		order, err = s.orders.FindOpenByUser(ctx, userID)
		if err != nil {
			return nil, errors.Wrap(err, "find open order after race")
		}
		return order, nil
	}
	return nil, errors.Wrap(err, "create open order")
}

func (s *Service) findLine(ctx context.Context, userID int64, slug string) (*OrderItem, error) {
	item, err := s.items.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, catalog.ErrNotFound
		}
		return nil, errors.Wrap(err, "get item")
	}

	order, err := s.orders.FindOpenByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNoOpenOrder) {
			return nil, ErrNoOpenOrder
		}
		return nil, errors.Wrap(err, "find open order")
	}

	line, err := s.orders.FindLine(ctx, order.ID, item.ID)
	if err != nil {
		if errors.Is(err, ErrNotInCart) {
			return nil, ErrNotInCart
		}
		return nil, errors.Wrap(err, "find line")
	}
	return line, nil
}
