package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/wrenkit/storefront/internal/domain/address"
	"github.com/wrenkit/storefront/internal/domain/catalog"
	"github.com/wrenkit/storefront/internal/domain/coupon"
	"github.com/wrenkit/storefront/internal/domain/payment"
)

// Sentinel errors for cart and order lookups. ErrNoOpenOrder and ErrNotInCart
// are informational: the operation is a no-op and the caller reports a
// message rather than failing.
var (
	ErrNoOpenOrder = errors.New("no open order")
	ErrNotInCart   = errors.New("item not in cart")
	ErrNotFound    = errors.New("order not found")

	// ErrOpenOrderExists is returned by Repository.CreateOpen when another
	// request created the user's open order first (unique index violation).
	ErrOpenOrderExists = errors.New("open order already exists")
)

// OrderItem is a quantity of one catalog item inside an order.
type OrderItem struct {
	ID       int64
	UserID   int64
	Item     catalog.Item
	Quantity int
	Ordered  bool
}

// TotalPrice returns quantity times the regular unit price.
func (oi OrderItem) TotalPrice() decimal.Decimal {
	return oi.Item.Price.Mul(decimal.NewFromInt(int64(oi.Quantity)))
}

// FinalPrice returns quantity times the effective unit price (discounted
// when a discount price is set).
func (oi OrderItem) FinalPrice() decimal.Decimal {
	return oi.Item.FinalPrice().Mul(decimal.NewFromInt(int64(oi.Quantity)))
}

// AmountSaved returns the difference between the regular and final line
// price. Zero when the item carries no discount.
func (oi OrderItem) AmountSaved() decimal.Decimal {
	return oi.TotalPrice().Sub(oi.FinalPrice())
}

// Order is the aggregate root. An order with Ordered=false is the user's
// active cart; finalization flips the flag, assigns the reference code and
// records the payment.
type Order struct {
	ID        int64
	UserID    int64
	RefCode   string
	Items     []OrderItem
	StartDate time.Time
	OrderDate time.Time
	Ordered   bool

	ShippingAddress *address.Address
	BillingAddress  *address.Address
	Payment         *payment.Payment
	Coupon          *coupon.Coupon

	BeingDelivered  bool
	Received        bool
	RefundRequested bool
	RefundGranted   bool
}

// Total sums each line's final price and subtracts the attached coupon's
// amount. The result is deliberately not floored at zero: a coupon larger
// than the cart produces a negative total, matching the storefront's
// long-standing behaviour.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.FinalPrice())
	}
	if o.Coupon != nil {
		total = total.Sub(o.Coupon.Amount)
	}
	return total
}

// Repository defines persistence primitives for orders and their lines.
// Lookups are exact-match or parent-scoped only.
type Repository interface {
	// FindOpenByUser loads the user's open order with its lines, coupon and
	// addresses, or ErrNoOpenOrder.
	FindOpenByUser(ctx context.Context, userID int64) (*Order, error)
	// CreateOpen inserts a fresh open order for the user. When a concurrent
	// request already created one, the open-order unique index fires and
	// ErrNoOpenOrder semantics are preserved by the caller retrying the find.
	CreateOpen(ctx context.Context, userID int64) (*Order, error)
	// FindLine returns the order's line for the given item, or ErrNotInCart.
	FindLine(ctx context.Context, orderID, itemID int64) (*OrderItem, error)
	// InsertLine adds a new line to the order and fills in its ID.
	InsertLine(ctx context.Context, orderID int64, line *OrderItem) error
	// UpdateLineQuantity sets the line's quantity.
	UpdateLineQuantity(ctx context.Context, lineID int64, quantity int) error
	// DeleteLine removes the line from its order entirely.
	DeleteLine(ctx context.Context, lineID int64) error
}
