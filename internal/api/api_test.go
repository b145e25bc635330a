package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrenkit/storefront/internal/domain/address"
	"github.com/wrenkit/storefront/internal/domain/cart"
	"github.com/wrenkit/storefront/internal/domain/catalog"
	"github.com/wrenkit/storefront/internal/domain/checkout"
	"github.com/wrenkit/storefront/internal/domain/coupon"
	"github.com/wrenkit/storefront/internal/domain/payment"
	"github.com/wrenkit/storefront/internal/domain/refund"
)

// --- Mock implementations ---

type fakeItems struct {
	items []catalog.Item
}

func (f *fakeItems) List(_ context.Context) ([]catalog.Item, error) {
	return f.items, nil
}

func (f *fakeItems) ListByCategory(_ context.Context, category catalog.Category) ([]catalog.Item, error) {
	var out []catalog.Item
	for _, item := range f.items {
		if item.Category == category {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeItems) GetBySlug(_ context.Context, slug string) (*catalog.Item, error) {
	for i := range f.items {
		if f.items[i].Slug == slug {
			return &f.items[i], nil
		}
	}
	return nil, catalog.ErrNotFound
}

// fakeStore is an in-memory order store backing every order-facing
// interface the services need.
type fakeStore struct {
	order      *cart.Order
	nextLineID int64
	refunds    []*refund.Refund
}

func (f *fakeStore) FindOpenByUser(_ context.Context, _ int64) (*cart.Order, error) {
	if f.order == nil || f.order.Ordered {
		return nil, cart.ErrNoOpenOrder
	}
	return f.order, nil
}

func (f *fakeStore) CreateOpen(_ context.Context, userID int64) (*cart.Order, error) {
	f.order = &cart.Order{ID: 1, UserID: userID}
	return f.order, nil
}

func (f *fakeStore) FindLine(_ context.Context, _, itemID int64) (*cart.OrderItem, error) {
	for _, line := range f.order.Items {
		if line.Item.ID == itemID {
			return &line, nil
		}
	}
	return nil, cart.ErrNotInCart
}

func (f *fakeStore) InsertLine(_ context.Context, _ int64, line *cart.OrderItem) error {
	f.nextLineID++
	line.ID = f.nextLineID
	f.order.Items = append(f.order.Items, *line)
	return nil
}

func (f *fakeStore) UpdateLineQuantity(_ context.Context, lineID int64, quantity int) error {
	for i := range f.order.Items {
		if f.order.Items[i].ID == lineID {
			f.order.Items[i].Quantity = quantity
		}
	}
	return nil
}

func (f *fakeStore) DeleteLine(_ context.Context, lineID int64) error {
	for i := range f.order.Items {
		if f.order.Items[i].ID == lineID {
			f.order.Items = append(f.order.Items[:i], f.order.Items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeStore) OpenOrderID(_ context.Context, _ int64) (int64, error) {
	if f.order == nil {
		return 0, cart.ErrNoOpenOrder
	}
	return f.order.ID, nil
}

func (f *fakeStore) AttachCoupon(_ context.Context, _, _ int64) error { return nil }

func (f *fakeStore) SetShippingAddress(_ context.Context, _, _ int64) error { return nil }
func (f *fakeStore) SetBillingAddress(_ context.Context, _, _ int64) error  { return nil }

func (f *fakeStore) FindByRefCode(_ context.Context, refCode string) (*cart.Order, error) {
	if f.order != nil && f.order.RefCode == refCode {
		return f.order, nil
	}
	return nil, cart.ErrNotFound
}

func (f *fakeStore) MarkRefundRequested(_ context.Context, _ int64) error {
	f.order.RefundRequested = true
	return nil
}

func (f *fakeStore) Finalize(_ context.Context, _ checkout.Finalization) error { return nil }

func (f *fakeStore) Create(_ context.Context, r *refund.Refund) error {
	f.refunds = append(f.refunds, r)
	return nil
}

type fakeAddresses struct{}

func (fakeAddresses) FindDefault(_ context.Context, _ int64, _ address.Type) (*address.Address, error) {
	return nil, address.ErrNoDefault
}
func (fakeAddresses) Create(_ context.Context, a *address.Address) error { a.ID = 1; return nil }
func (fakeAddresses) MakeDefault(_ context.Context, _ int64, _ address.Type, _ int64) error {
	return nil
}

type fakeCoupons struct{}

func (fakeCoupons) FindByCode(_ context.Context, _ string) (*coupon.Coupon, error) {
	return nil, coupon.ErrNotFound
}

type fakeCharger struct{}

func (fakeCharger) Charge(_ context.Context, _ payment.ChargeRequest) (*payment.ChargeResult, error) {
	return &payment.ChargeResult{ChargeID: "ch_test"}, nil
}

// --- Helpers ---

var testSecret = []byte("test-secret")

func newTestServer(t *testing.T, store *fakeStore, items *fakeItems) *httptest.Server {
	t.Helper()

	cartSvc := cart.NewService(items, store)
	couponSvc := coupon.NewService(fakeCoupons{}, store)
	resolver := address.NewResolver(fakeAddresses{}, store)
	checkoutSvc := checkout.NewService(store, resolver, fakeCharger{}, "usd")
	refundSvc := refund.NewService(store, store)

	h := NewHandler(items, cartSvc, couponSvc, checkoutSvc, refundSvc)
	srv := httptest.NewServer(h.Routes(RequireUser(testSecret)))
	t.Cleanup(srv.Close)
	return srv
}

func bearerToken(t *testing.T, userID int64) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": userID})
	signed, err := token.SignedString(testSecret)
	require.NoError(t, err)
	return "Bearer " + signed
}

func doJSON(t *testing.T, method, url, auth, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func catalogFixture() *fakeItems {
	return &fakeItems{items: []catalog.Item{
		{ID: 1, Title: "Classic Oxford Shirt", Slug: "classic-oxford-shirt",
			Price: decimal.RequireFromString("49.90"), Category: catalog.CategoryShirt, Label: catalog.LabelPrimary},
	}}
}

// --- Tests ---

func TestCartRoutes_RequireAuth(t *testing.T) {
	srv := newTestServer(t, &fakeStore{}, catalogFixture())

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/cart", "", "")

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "authentication required", body["message"])
}

func TestCatalogRoutes_Public(t *testing.T) {
	srv := newTestServer(t, &fakeStore{}, catalogFixture())

	resp, err := http.Get(srv.URL + "/api/items")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var items []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&items))
	require.Len(t, items, 1)
	assert.Equal(t, "classic-oxford-shirt", items[0]["slug"])
}

func TestAddToCart_ReturnsOrder(t *testing.T) {
	srv := newTestServer(t, &fakeStore{}, catalogFixture())
	auth := bearerToken(t, 7)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/cart/items/classic-oxford-shirt", auth, "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	items, ok := body["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, 49.90, body["total"])
}

func TestAddToCart_UnknownItem(t *testing.T) {
	srv := newTestServer(t, &fakeStore{}, catalogFixture())
	auth := bearerToken(t, 7)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/cart/items/missing", auth, "")

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "this item does not exist", body["message"])
	assert.Equal(t, "/", body["redirect"])
}

func TestShowCart_NoOpenOrder(t *testing.T) {
	srv := newTestServer(t, &fakeStore{}, catalogFixture())
	auth := bearerToken(t, 7)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/cart", auth, "")

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "You do not have an active order", body["message"])
}

func TestSubmitCheckout_MissingDefaultShipping(t *testing.T) {
	store := &fakeStore{order: &cart.Order{ID: 1, UserID: 7}}
	srv := newTestServer(t, store, catalogFixture())
	auth := bearerToken(t, 7)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/checkout", auth,
		`{"use_default_shipping": true, "payment_option": "C"}`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No default shipping address available", body["message"])
	assert.Equal(t, "/checkout", body["redirect"])
}

func TestApplyCoupon_UnknownCode(t *testing.T) {
	store := &fakeStore{order: &cart.Order{ID: 1, UserID: 7}}
	srv := newTestServer(t, store, catalogFixture())
	auth := bearerToken(t, 7)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/checkout/coupon", auth, `{"code": "BOGUS"}`)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "This coupon does not exist", body["message"])
}

func TestRequestRefund_UnknownOrder(t *testing.T) {
	srv := newTestServer(t, &fakeStore{}, catalogFixture())

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/refunds", "",
		`{"ref_code": "nope", "email": "a@example.com", "reason": "broken"}`)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "This order does not exist", body["message"])
	assert.Equal(t, "/refunds", body["redirect"])
}

func TestRequestRefund_GuestFlow(t *testing.T) {
	store := &fakeStore{order: &cart.Order{ID: 1, UserID: 7, Ordered: true, RefCode: "abc123"}}
	srv := newTestServer(t, store, catalogFixture())

	// No Authorization header: refunds are keyed by reference code only.
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/refunds", "",
		`{"ref_code": "abc123", "email": "a@example.com", "reason": "late"}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Your request was received.", body["message"])
	assert.True(t, store.order.RefundRequested)
	require.Len(t, store.refunds, 1)
}

func TestRequireUser_RejectsBadToken(t *testing.T) {
	srv := newTestServer(t, &fakeStore{}, catalogFixture())

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/cart", "Bearer not-a-token", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequireUser_RejectsWrongAlgorithm(t *testing.T) {
	srv := newTestServer(t, &fakeStore{}, catalogFixture())

	// "none" algorithm must not be accepted.
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": 7})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/cart", "Bearer "+signed, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
