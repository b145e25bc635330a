package refund

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrenkit/storefront/internal/domain/cart"
)

// --- Mock implementations ---

type mockOrders struct {
	byRefCode map[string]*cart.Order
	marked    []int64
}

func (m *mockOrders) FindByRefCode(_ context.Context, refCode string) (*cart.Order, error) {
	order, ok := m.byRefCode[refCode]
	if !ok {
		return nil, cart.ErrNotFound
	}
	return order, nil
}

func (m *mockOrders) MarkRefundRequested(_ context.Context, orderID int64) error {
	m.marked = append(m.marked, orderID)
	return nil
}

type mockRefunds struct {
	created []*Refund
}

func (m *mockRefunds) Create(_ context.Context, r *Refund) error {
	r.ID = int64(len(m.created) + 1)
	m.created = append(m.created, r)
	return nil
}

// --- Tests ---

func TestRequest_RecordsRefund(t *testing.T) {
	orders := &mockOrders{byRefCode: map[string]*cart.Order{
		"abc123def456ghi789jk": {ID: 42, UserID: 7, Ordered: true},
	}}
	refunds := &mockRefunds{}
	svc := NewService(orders, refunds)

	r, err := svc.Request(context.Background(), "abc123def456ghi789jk", "a@example.com", "wrong size")

	require.NoError(t, err)
	assert.Equal(t, []int64{42}, orders.marked)
	require.Len(t, refunds.created, 1)
	assert.Equal(t, int64(42), r.OrderID)
	assert.Equal(t, "a@example.com", r.Email)
	assert.Equal(t, "wrong size", r.Reason)
	assert.False(t, r.Accepted, "refunds start unreviewed")
}

func TestRequest_UnknownRefCode(t *testing.T) {
	orders := &mockOrders{}
	refunds := &mockRefunds{}
	svc := NewService(orders, refunds)

	_, err := svc.Request(context.Background(), "nope", "a@example.com", "reason")

	require.ErrorIs(t, err, cart.ErrNotFound)
	assert.Empty(t, orders.marked, "unknown code must not mutate anything")
	assert.Empty(t, refunds.created)
}

func TestRequest_NoOwnershipCheck(t *testing.T) {
	// The requester's email does not have to match the order's owner; a
	// guest holding the reference code can file a request.
	orders := &mockOrders{byRefCode: map[string]*cart.Order{
		"abc123def456ghi789jk": {ID: 42, UserID: 7, Ordered: true},
	}}
	svc := NewService(orders, &mockRefunds{})

	_, err := svc.Request(context.Background(), "abc123def456ghi789jk", "stranger@example.com", "late delivery")
	require.NoError(t, err)
}
