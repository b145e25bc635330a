//go:build integration

package integration

import (
	"net/http"
	"regexp"
	"testing"
)

var refCodePattern = regexp.MustCompile(`^[a-z0-9]{20}$`)

// checkoutForm mirrors the checkout submission body.
type checkoutForm struct {
	ShippingStreet     string `json:"shipping_street,omitempty"`
	ShippingStreet2    string `json:"shipping_street2,omitempty"`
	ShippingCountry    string `json:"shipping_country,omitempty"`
	ShippingDivision   string `json:"shipping_division,omitempty"`
	ShippingZip        string `json:"shipping_zip,omitempty"`
	SameBillingAddress bool   `json:"same_billing_address,omitempty"`
	UseDefaultShipping bool   `json:"use_default_shipping,omitempty"`
	UseDefaultBilling  bool   `json:"use_default_billing,omitempty"`
	PaymentOption      string `json:"payment_option,omitempty"`
}

func TestCart_RequiresAuth(t *testing.T) {
	resp := doRequest(t, http.MethodGet, "/api/cart", "", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestCart_EmptyByDefault(t *testing.T) {
	auth := signToken(t, 900)

	resp := doRequest(t, http.MethodGet, "/api/cart", auth, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	body := decodeJSON[messageResponse](t, resp)
	if body.Message != "You do not have an active order" {
		t.Errorf("message: got %q", body.Message)
	}
}

func TestCart_AddRemoveDecrement(t *testing.T) {
	auth := signToken(t, 901)

	// Two oxford shirts at 49.90 each.
	for range 2 {
		resp := doRequest(t, http.MethodPost, "/api/cart/items/classic-oxford-shirt", auth, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("add to cart: expected 200, got %d", resp.StatusCode)
		}
		resp.Body.Close()
	}

	// One discounted linen shirt: 29.90 instead of 39.50.
	resp := doRequest(t, http.MethodPost, "/api/cart/items/linen-summer-shirt", auth, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add to cart: expected 200, got %d", resp.StatusCode)
	}
	order := decodeJSON[orderResponse](t, resp)
	resp.Body.Close()

	if len(order.Items) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(order.Items))
	}
	if order.Total != 129.70 {
		t.Errorf("total: got %v, want 129.70", order.Total)
	}

	// Decrement the oxford line back to one.
	resp = doRequest(t, http.MethodPost, "/api/cart/items/classic-oxford-shirt/decrement", auth, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("decrement: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Remove the linen line entirely.
	resp = doRequest(t, http.MethodDelete, "/api/cart/items/linen-summer-shirt", auth, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("remove: expected 200, got %d", resp.StatusCode)
	}
	msg := decodeJSON[messageResponse](t, resp)
	resp.Body.Close()
	if msg.Message != "This item was removed from your cart." {
		t.Errorf("message: got %q", msg.Message)
	}

	resp = doRequest(t, http.MethodGet, "/api/cart", auth, nil)
	defer resp.Body.Close()
	order = decodeJSON[orderResponse](t, resp)

	if len(order.Items) != 1 {
		t.Fatalf("expected 1 line, got %d", len(order.Items))
	}
	if order.Items[0].Quantity != 1 {
		t.Errorf("quantity: got %d, want 1", order.Items[0].Quantity)
	}
	if order.Total != 49.90 {
		t.Errorf("total: got %v, want 49.90", order.Total)
	}
}

func TestCart_AddUnknownItem(t *testing.T) {
	auth := signToken(t, 902)

	resp := doRequest(t, http.MethodPost, "/api/cart/items/no-such-item", auth, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCheckout_NoOpenOrder(t *testing.T) {
	auth := signToken(t, 903)

	resp := doRequest(t, http.MethodPost, "/api/checkout", auth, checkoutForm{
		UseDefaultShipping: true,
		UseDefaultBilling:  true,
		PaymentOption:      "C",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCheckout_NoDefaultShipping(t *testing.T) {
	auth := signToken(t, 904)

	resp := doRequest(t, http.MethodPost, "/api/cart/items/classic-oxford-shirt", auth, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add to cart: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doRequest(t, http.MethodPost, "/api/checkout", auth, checkoutForm{
		UseDefaultShipping: true,
		PaymentOption:      "C",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	body := decodeJSON[messageResponse](t, resp)
	if body.Message != "No default shipping address available" {
		t.Errorf("message: got %q", body.Message)
	}
	if body.Redirect != "/checkout" {
		t.Errorf("redirect: got %q, want /checkout", body.Redirect)
	}
}

func TestCheckout_MissingAddressFields(t *testing.T) {
	auth := signToken(t, 905)

	resp := doRequest(t, http.MethodPost, "/api/cart/items/classic-oxford-shirt", auth, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add to cart: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doRequest(t, http.MethodPost, "/api/checkout", auth, checkoutForm{
		ShippingStreet: "12 Lake View Road",
		PaymentOption:  "C",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// TestCheckout_FullFlow drives an order from empty cart to paid and refunded:
// add items, apply a coupon, submit addresses, preview, pay against the
// processor mock, then file a refund with the issued reference code.
func TestCheckout_FullFlow(t *testing.T) {
	auth := signToken(t, 906)

	// 49.90 + 29.90 (discounted linen shirt).
	resp := doRequest(t, http.MethodPost, "/api/cart/items/classic-oxford-shirt", auth, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add to cart: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()
	resp = doRequest(t, http.MethodPost, "/api/cart/items/linen-summer-shirt", auth, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add to cart: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Paying before checkout must fail: no billing address yet.
	resp = doRequest(t, http.MethodGet, "/api/checkout/payment", auth, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("payment preview: expected 400, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doRequest(t, http.MethodPost, "/api/checkout", auth, checkoutForm{
		ShippingStreet:     "12 Lake View Road",
		ShippingCountry:    "Bangladesh",
		ShippingDivision:   "DHA",
		ShippingZip:        "1207",
		SameBillingAddress: true,
		PaymentOption:      "C",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("checkout: expected 200, got %d", resp.StatusCode)
	}
	msg := decodeJSON[messageResponse](t, resp)
	resp.Body.Close()
	if msg.Redirect != "/payment" {
		t.Errorf("redirect: got %q, want /payment", msg.Redirect)
	}

	resp = doRequest(t, http.MethodPost, "/api/checkout/coupon", auth, map[string]string{"code": "WELCOME10"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("coupon: expected 200, got %d", resp.StatusCode)
	}
	msg = decodeJSON[messageResponse](t, resp)
	resp.Body.Close()
	if msg.Message != "Successfully added coupon" {
		t.Errorf("message: got %q", msg.Message)
	}

	// 49.90 + 29.90 - 10.00 coupon.
	resp = doRequest(t, http.MethodGet, "/api/checkout/payment", auth, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("payment preview: expected 200, got %d", resp.StatusCode)
	}
	order := decodeJSON[orderResponse](t, resp)
	resp.Body.Close()
	if order.Total != 69.80 {
		t.Errorf("total: got %v, want 69.80", order.Total)
	}
	if order.Coupon == nil || order.Coupon.Code != "WELCOME10" {
		t.Errorf("coupon: got %+v, want WELCOME10", order.Coupon)
	}

	resp = doRequest(t, http.MethodPost, "/api/checkout/pay", auth, map[string]string{"token": "tok_visa"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("pay: expected 200, got %d", resp.StatusCode)
	}
	paid := decodeJSON[payResponse](t, resp)
	resp.Body.Close()

	if paid.Message != "Your order was successful!" {
		t.Errorf("message: got %q", paid.Message)
	}
	if !paid.Order.Ordered {
		t.Error("order not marked as ordered")
	}
	if !refCodePattern.MatchString(paid.Order.RefCode) {
		t.Errorf("ref code %q does not match expected shape", paid.Order.RefCode)
	}

	// The paid order is no longer the active cart.
	resp = doRequest(t, http.MethodGet, "/api/cart", auth, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("cart after pay: expected 404, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Refund intake is unauthenticated: the reference code is the key.
	resp = doRequest(t, http.MethodPost, "/api/refunds", "", map[string]string{
		"ref_code": paid.Order.RefCode,
		"email":    "customer@example.com",
		"reason":   "wrong size",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("refund: expected 200, got %d", resp.StatusCode)
	}
	msg = decodeJSON[messageResponse](t, resp)
	if msg.Message != "Your request was received." {
		t.Errorf("message: got %q", msg.Message)
	}
}

func TestApplyCoupon_Unknown(t *testing.T) {
	auth := signToken(t, 907)

	resp := doRequest(t, http.MethodPost, "/api/cart/items/wool-overcoat", auth, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add to cart: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doRequest(t, http.MethodPost, "/api/checkout/coupon", auth, map[string]string{"code": "NOPE"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	body := decodeJSON[messageResponse](t, resp)
	if body.Message != "This coupon does not exist" {
		t.Errorf("message: got %q", body.Message)
	}
}

func TestRefund_UnknownRefCode(t *testing.T) {
	resp := doRequest(t, http.MethodPost, "/api/refunds", "", map[string]string{
		"ref_code": "definitely-not-issued",
		"email":    "customer@example.com",
		"reason":   "never arrived",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	body := decodeJSON[messageResponse](t, resp)
	if body.Message != "This order does not exist" {
		t.Errorf("message: got %q", body.Message)
	}
}
