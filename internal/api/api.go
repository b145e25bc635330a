// Package api exposes the storefront core over a thin JSON HTTP surface.
// Handlers parse requests, delegate to the domain services and map domain
// errors onto the {code, message, redirect} envelope the clients consume.
package api

import (
	"net/http"

	"github.com/wrenkit/storefront/internal/domain/cart"
	"github.com/wrenkit/storefront/internal/domain/catalog"
	"github.com/wrenkit/storefront/internal/domain/checkout"
	"github.com/wrenkit/storefront/internal/domain/coupon"
	"github.com/wrenkit/storefront/internal/domain/refund"
)

// Handler serves the storefront API, delegating business logic to the domain
// services.
type Handler struct {
	items    catalog.Repository
	cart     *cart.Service
	coupons  *coupon.Service
	checkout *checkout.Service
	refunds  *refund.Service
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	items catalog.Repository,
	cartSvc *cart.Service,
	coupons *coupon.Service,
	checkoutSvc *checkout.Service,
	refunds *refund.Service,
) *Handler {
	return &Handler{
		items:    items,
		cart:     cartSvc,
		coupons:  coupons,
		checkout: checkoutSvc,
		refunds:  refunds,
	}
}

// Routes registers every API route on a fresh mux. Cart and checkout routes
// require an authenticated user; catalog browsing and refund intake do not,
// the latter because refunds are keyed by reference code to keep the guest
// flow working.
func (h *Handler) Routes(auth func(http.Handler) http.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/items", h.listItems)
	mux.HandleFunc("GET /api/items/{slug}", h.getItem)
	mux.HandleFunc("GET /api/categories/{category}", h.listByCategory)

	mux.Handle("GET /api/cart", auth(http.HandlerFunc(h.showCart)))
	mux.Handle("POST /api/cart/items/{slug}", auth(http.HandlerFunc(h.addToCart)))
	mux.Handle("DELETE /api/cart/items/{slug}", auth(http.HandlerFunc(h.removeFromCart)))
	mux.Handle("POST /api/cart/items/{slug}/decrement", auth(http.HandlerFunc(h.decrementItem)))

	mux.Handle("POST /api/checkout", auth(http.HandlerFunc(h.submitCheckout)))
	mux.Handle("GET /api/checkout/payment", auth(http.HandlerFunc(h.paymentPreview)))
	mux.Handle("POST /api/checkout/pay", auth(http.HandlerFunc(h.pay)))
	mux.Handle("POST /api/checkout/coupon", auth(http.HandlerFunc(h.applyCoupon)))

	mux.HandleFunc("POST /api/refunds", h.requestRefund)

	return mux
}
