package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wrenkit/storefront/internal/domain/address"
	"github.com/wrenkit/storefront/internal/domain/cart"
	"github.com/wrenkit/storefront/internal/domain/catalog"
	"github.com/wrenkit/storefront/internal/domain/checkout"
	"github.com/wrenkit/storefront/internal/domain/coupon"
	"github.com/wrenkit/storefront/internal/domain/payment"
	"github.com/wrenkit/storefront/internal/domain/refund"
)

const (
	orderColumns = `id, user_id, ref_code, start_date, order_date, ordered,
		shipping_address_id, billing_address_id, payment_id, coupon_id,
		being_delivered, received, refund_requested, refund_granted`

	getOpenOrderSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE user_id = $1 AND NOT ordered`

	getOrderByRefCodeSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE ref_code = $1 AND ref_code <> ''`

	createOpenOrderSQL = `INSERT INTO orders (user_id) VALUES ($1)
		RETURNING id, start_date, order_date`

	lineColumns = `oi.id, oi.user_id, oi.quantity, oi.ordered,
		i.id, i.title, i.slug, i.description, i.price, i.discount_price, i.category, i.label, i.image_url`

	listLinesSQL = `SELECT ` + lineColumns + ` FROM order_items oi
		JOIN items i ON i.id = oi.item_id
		WHERE oi.order_id = $1 ORDER BY oi.id`

	findLineSQL = `SELECT ` + lineColumns + ` FROM order_items oi
		JOIN items i ON i.id = oi.item_id
		WHERE oi.order_id = $1 AND oi.item_id = $2`

	insertLineSQL = `INSERT INTO order_items (order_id, user_id, item_id, quantity, ordered)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`

	updateLineQuantitySQL = `UPDATE order_items SET quantity = $2 WHERE id = $1`

	deleteLineSQL = `DELETE FROM order_items WHERE id = $1`

	setShippingAddressSQL = `UPDATE orders SET shipping_address_id = $2 WHERE id = $1`
	setBillingAddressSQL  = `UPDATE orders SET billing_address_id = $2 WHERE id = $1`
	attachCouponSQL       = `UPDATE orders SET coupon_id = $2 WHERE id = $1`

	markRefundRequestedSQL = `UPDATE orders SET refund_requested = TRUE WHERE id = $1`

	getAddressByIDSQL = `SELECT id, user_id, street, street2, division, country, zip_code, address_type, is_default
		FROM addresses WHERE id = $1`

	getCouponByIDSQL = `SELECT id, code, amount FROM coupons WHERE id = $1`

	getPaymentByIDSQL = `SELECT id, charge_id, user_id, amount, created_at FROM payments WHERE id = $1`

	insertPaymentSQL = `INSERT INTO payments (charge_id, user_id, amount, created_at)
		VALUES ($1, $2, $3, $4) RETURNING id`

	markLinesOrderedSQL = `UPDATE order_items SET ordered = TRUE WHERE order_id = $1`

	finalizeOrderSQL = `UPDATE orders
		SET ordered = TRUE, ref_code = $2, payment_id = $3, order_date = $4
		WHERE id = $1 AND NOT ordered`
)

// Compile-time checks: one repository serves every order-facing interface.
var (
	_ cart.Repository     = (*OrderRepository)(nil)
	_ checkout.Orders     = (*OrderRepository)(nil)
	_ coupon.Orders       = (*OrderRepository)(nil)
	_ refund.Orders       = (*OrderRepository)(nil)
	_ address.OrderWriter = (*OrderRepository)(nil)
)

// OrderRepository implements order persistence backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// FindOpenByUser loads the user's open order with lines, coupon, addresses
// and payment, or cart.ErrNoOpenOrder.
func (r *OrderRepository) FindOpenByUser(ctx context.Context, userID int64) (*cart.Order, error) {
	order, refs, err := r.getOrder(ctx, getOpenOrderSQL, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNoOpenOrder
		}
		return nil, fmt.Errorf("getting open order for user %d: %w", userID, err)
	}
	if err := r.loadAssociations(ctx, order, refs); err != nil {
		return nil, err
	}
	return order, nil
}

// FindByRefCode loads a finalized order by its reference code, or
// cart.ErrNotFound.
func (r *OrderRepository) FindByRefCode(ctx context.Context, refCode string) (*cart.Order, error) {
	order, refs, err := r.getOrder(ctx, getOrderByRefCodeSQL, refCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNotFound
		}
		return nil, fmt.Errorf("getting order by ref code %q: %w", refCode, err)
	}
	if err := r.loadAssociations(ctx, order, refs); err != nil {
		return nil, err
	}
	return order, nil
}

// CreateOpen inserts a fresh open order. The orders_open_per_user index
// turns a concurrent duplicate into cart.ErrOpenOrderExists.
func (r *OrderRepository) CreateOpen(ctx context.Context, userID int64) (*cart.Order, error) {
	order := &cart.Order{UserID: userID}
	err := r.pool.QueryRow(ctx, createOpenOrderSQL, userID).
		Scan(&order.ID, &order.StartDate, &order.OrderDate)
	if err != nil {
		if isUniqueViolation(err, "orders_open_per_user") {
			return nil, cart.ErrOpenOrderExists
		}
		return nil, fmt.Errorf("creating open order for user %d: %w", userID, err)
	}
	return order, nil
}

// OpenOrderID returns the ID of the user's open order, or cart.ErrNoOpenOrder.
func (r *OrderRepository) OpenOrderID(ctx context.Context, userID int64) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `SELECT id FROM orders WHERE user_id = $1 AND NOT ordered`, userID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, cart.ErrNoOpenOrder
		}
		return 0, fmt.Errorf("getting open order id for user %d: %w", userID, err)
	}
	return id, nil
}

// FindLine returns the order's line for the item, or cart.ErrNotInCart.
func (r *OrderRepository) FindLine(ctx context.Context, orderID, itemID int64) (*cart.OrderItem, error) {
	rows, err := r.pool.Query(ctx, findLineSQL, orderID, itemID)
	if err != nil {
		return nil, fmt.Errorf("finding line for order %d item %d: %w", orderID, itemID, err)
	}

	line, err := pgx.CollectExactlyOneRow(rows, scanLine)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNotInCart
		}
		return nil, fmt.Errorf("finding line for order %d item %d: %w", orderID, itemID, err)
	}
	return &line, nil
}

// InsertLine adds a new line to the order.
func (r *OrderRepository) InsertLine(ctx context.Context, orderID int64, line *cart.OrderItem) error {
	err := r.pool.QueryRow(ctx, insertLineSQL,
		orderID, line.UserID, line.Item.ID, line.Quantity, line.Ordered,
	).Scan(&line.ID)
	if err != nil {
		return fmt.Errorf("inserting line for order %d: %w", orderID, err)
	}
	return nil
}

// UpdateLineQuantity sets the line's quantity.
func (r *OrderRepository) UpdateLineQuantity(ctx context.Context, lineID int64, quantity int) error {
	_, err := r.pool.Exec(ctx, updateLineQuantitySQL, lineID, quantity)
	if err != nil {
		return fmt.Errorf("updating quantity of line %d: %w", lineID, err)
	}
	return nil
}

// DeleteLine removes the line entirely.
func (r *OrderRepository) DeleteLine(ctx context.Context, lineID int64) error {
	_, err := r.pool.Exec(ctx, deleteLineSQL, lineID)
	if err != nil {
		return fmt.Errorf("deleting line %d: %w", lineID, err)
	}
	return nil
}

// SetShippingAddress attaches the address to the order as shipping.
func (r *OrderRepository) SetShippingAddress(ctx context.Context, orderID, addressID int64) error {
	_, err := r.pool.Exec(ctx, setShippingAddressSQL, orderID, addressID)
	if err != nil {
		return fmt.Errorf("setting shipping address on order %d: %w", orderID, err)
	}
	return nil
}

// SetBillingAddress attaches the address to the order as billing.
func (r *OrderRepository) SetBillingAddress(ctx context.Context, orderID, addressID int64) error {
	_, err := r.pool.Exec(ctx, setBillingAddressSQL, orderID, addressID)
	if err != nil {
		return fmt.Errorf("setting billing address on order %d: %w", orderID, err)
	}
	return nil
}

// AttachCoupon links the coupon to the order.
func (r *OrderRepository) AttachCoupon(ctx context.Context, orderID, couponID int64) error {
	_, err := r.pool.Exec(ctx, attachCouponSQL, orderID, couponID)
	if err != nil {
		return fmt.Errorf("attaching coupon %d to order %d: %w", couponID, orderID, err)
	}
	return nil
}

// MarkRefundRequested flips the order's refund_requested flag.
func (r *OrderRepository) MarkRefundRequested(ctx context.Context, orderID int64) error {
	_, err := r.pool.Exec(ctx, markRefundRequestedSQL, orderID)
	if err != nil {
		return fmt.Errorf("marking refund requested on order %d: %w", orderID, err)
	}
	return nil
}

// Finalize applies the open→paid transition in one transaction: insert the
// payment, mark every line ordered, set the ordered flag, reference code and
// payment reference on the order. A reference code collision surfaces as
// checkout.ErrRefCodeTaken so the caller can regenerate.
func (r *OrderRepository) Finalize(ctx context.Context, f checkout.Finalization) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning finalize transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	err = tx.QueryRow(ctx, insertPaymentSQL,
		f.Payment.ChargeID, f.Payment.UserID, f.Payment.Amount, f.Payment.Timestamp,
	).Scan(&f.Payment.ID)
	if err != nil {
		return fmt.Errorf("inserting payment: %w", err)
	}

	if _, err := tx.Exec(ctx, markLinesOrderedSQL, f.OrderID); err != nil {
		return fmt.Errorf("marking lines ordered for order %d: %w", f.OrderID, err)
	}

	tag, err := tx.Exec(ctx, finalizeOrderSQL, f.OrderID, f.RefCode, f.Payment.ID, f.OrderedAt)
	if err != nil {
		if isUniqueViolation(err, "orders_ref_code") {
			return checkout.ErrRefCodeTaken
		}
		return fmt.Errorf("finalizing order %d: %w", f.OrderID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("finalizing order %d: %w", f.OrderID, cart.ErrNoOpenOrder)
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err, "orders_ref_code") {
			return checkout.ErrRefCodeTaken
		}
		return fmt.Errorf("committing finalize transaction: %w", err)
	}
	return nil
}

// orderRefs holds the nullable foreign keys scanned off an order row.
type orderRefs struct {
	shippingAddressID *int64
	billingAddressID  *int64
	paymentID         *int64
	couponID          *int64
}

func (r *OrderRepository) getOrder(ctx context.Context, query string, arg any) (*cart.Order, orderRefs, error) {
	var (
		order cart.Order
		refs  orderRefs
	)
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&order.ID, &order.UserID, &order.RefCode, &order.StartDate, &order.OrderDate, &order.Ordered,
		&refs.shippingAddressID, &refs.billingAddressID, &refs.paymentID, &refs.couponID,
		&order.BeingDelivered, &order.Received, &order.RefundRequested, &order.RefundGranted,
	)
	if err != nil {
		return nil, orderRefs{}, err
	}
	return &order, refs, nil
}

// loadAssociations fills in the order's lines, addresses, payment and coupon.
func (r *OrderRepository) loadAssociations(ctx context.Context, order *cart.Order, refs orderRefs) error {
	rows, err := r.pool.Query(ctx, listLinesSQL, order.ID)
	if err != nil {
		return fmt.Errorf("listing lines of order %d: %w", order.ID, err)
	}
	order.Items, err = pgx.CollectRows(rows, scanLine)
	if err != nil {
		return fmt.Errorf("listing lines of order %d: %w", order.ID, err)
	}

	if refs.shippingAddressID != nil {
		order.ShippingAddress, err = r.getAddress(ctx, *refs.shippingAddressID)
		if err != nil {
			return err
		}
	}
	if refs.billingAddressID != nil {
		order.BillingAddress, err = r.getAddress(ctx, *refs.billingAddressID)
		if err != nil {
			return err
		}
	}
	if refs.paymentID != nil {
		order.Payment, err = r.getPayment(ctx, *refs.paymentID)
		if err != nil {
			return err
		}
	}
	if refs.couponID != nil {
		order.Coupon, err = r.getCoupon(ctx, *refs.couponID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *OrderRepository) getAddress(ctx context.Context, id int64) (*address.Address, error) {
	rows, err := r.pool.Query(ctx, getAddressByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting address %d: %w", id, err)
	}
	a, err := pgx.CollectExactlyOneRow(rows, scanAddress)
	if err != nil {
		return nil, fmt.Errorf("getting address %d: %w", id, err)
	}
	return &a, nil
}

func (r *OrderRepository) getPayment(ctx context.Context, id int64) (*payment.Payment, error) {
	var p payment.Payment
	err := r.pool.QueryRow(ctx, getPaymentByIDSQL, id).
		Scan(&p.ID, &p.ChargeID, &p.UserID, &p.Amount, &p.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("getting payment %d: %w", id, err)
	}
	return &p, nil
}

func (r *OrderRepository) getCoupon(ctx context.Context, id int64) (*coupon.Coupon, error) {
	var c coupon.Coupon
	err := r.pool.QueryRow(ctx, getCouponByIDSQL, id).Scan(&c.ID, &c.Code, &c.Amount)
	if err != nil {
		return nil, fmt.Errorf("getting coupon %d: %w", id, err)
	}
	return &c, nil
}

func scanLine(row pgx.CollectableRow) (cart.OrderItem, error) {
	var (
		line     cart.OrderItem
		category string
		label    string
	)
	err := row.Scan(
		&line.ID, &line.UserID, &line.Quantity, &line.Ordered,
		&line.Item.ID, &line.Item.Title, &line.Item.Slug, &line.Item.Description,
		&line.Item.Price, &line.Item.DiscountPrice, &category, &label, &line.Item.ImageURL,
	)
	line.Item.Category = catalog.Category(category)
	line.Item.Label = catalog.Label(label)
	return line, err
}
