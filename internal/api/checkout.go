package api

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/wrenkit/storefront/internal/domain/address"
	"github.com/wrenkit/storefront/internal/domain/cart"
	"github.com/wrenkit/storefront/internal/domain/checkout"
	"github.com/wrenkit/storefront/internal/domain/coupon"
	"github.com/wrenkit/storefront/internal/domain/payment"
)

// checkoutForm is the JSON body of a checkout submission.
type checkoutForm struct {
	address.Form
	PaymentOption checkout.PaymentOption
}

func decodeCheckoutForm(body []byte) (checkoutForm, error) {
	var form checkoutForm
	err := decodeObj(body, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "shipping_street":
			form.ShippingStreet, err = d.Str()
		case "shipping_street2":
			form.ShippingStreet2, err = d.Str()
		case "shipping_country":
			form.ShippingCountry, err = d.Str()
		case "shipping_division":
			var s string
			s, err = d.Str()
			form.ShippingDivision = address.Division(s)
		case "shipping_zip":
			form.ShippingZip, err = d.Str()
		case "billing_street":
			form.BillingStreet, err = d.Str()
		case "billing_street2":
			form.BillingStreet2, err = d.Str()
		case "billing_country":
			form.BillingCountry, err = d.Str()
		case "billing_division":
			var s string
			s, err = d.Str()
			form.BillingDivision = address.Division(s)
		case "billing_zip":
			form.BillingZip, err = d.Str()
		case "use_default_shipping":
			form.UseDefaultShipping, err = d.Bool()
		case "set_default_shipping":
			form.SetDefaultShipping, err = d.Bool()
		case "same_billing_address":
			form.SameBillingAddress, err = d.Bool()
		case "use_default_billing":
			form.UseDefaultBilling, err = d.Bool()
		case "set_default_billing":
			form.SetDefaultBilling, err = d.Bool()
		case "payment_option":
			var s string
			s, err = d.Str()
			form.PaymentOption = checkout.PaymentOption(s)
		default:
			err = d.Skip()
		}
		return err
	})
	return form, err
}

func (h *Handler) submitCheckout(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserFromContext(r.Context())

	body, ok := readBody(w, r)
	if !ok {
		return
	}
	form, err := decodeCheckoutForm(body)
	if err != nil {
		message(w, http.StatusBadRequest, "malformed request body", "")
		return
	}

	err = h.checkout.Submit(r.Context(), userID, form.Form, form.PaymentOption)
	if err != nil {
		var validationErr *address.ValidationError
		switch {
		case errors.Is(err, cart.ErrNoOpenOrder):
			message(w, http.StatusNotFound, "You do not have an active order", "/")
		case errors.Is(err, address.ErrNoDefaultShipping):
			message(w, http.StatusBadRequest, "No default shipping address available", "/checkout")
		case errors.Is(err, address.ErrNoDefaultBilling):
			message(w, http.StatusBadRequest, "No default billing address available", "/checkout")
		case errors.As(err, &validationErr):
			message(w, http.StatusBadRequest, "Please fill in the required fields: "+validationErr.Error(), "/checkout")
		case errors.Is(err, checkout.ErrInvalidPaymentOption):
			message(w, http.StatusBadRequest, "Invalid payment option selected", "/checkout")
		default:
			internalError(r.Context(), w, err)
		}
		return
	}
	message(w, http.StatusOK, "Checkout submitted", "/payment")
}

func (h *Handler) paymentPreview(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserFromContext(r.Context())

	order, err := h.checkout.PaymentReady(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, cart.ErrNoOpenOrder):
			message(w, http.StatusNotFound, "You do not have an active order", "/")
		case errors.Is(err, checkout.ErrNoBillingAddress):
			message(w, http.StatusBadRequest, "You have not added a billing address", "/checkout")
		default:
			internalError(r.Context(), w, err)
		}
		return
	}
	respond(w, http.StatusOK, func(e *jx.Encoder) {
		encodeOrder(e, order)
	})
}

func (h *Handler) pay(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserFromContext(r.Context())

	body, ok := readBody(w, r)
	if !ok {
		return
	}
	var token string
	err := decodeObj(body, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "token":
			token, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil || token == "" {
		message(w, http.StatusBadRequest, "Invalid data received", "/payment")
		return
	}

	order, err := h.checkout.Pay(r.Context(), userID, token)
	if err != nil {
		h.payError(w, r, err)
		return
	}
	respond(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(http.StatusOK)
		e.FieldStart("message")
		e.Str("Your order was successful!")
		e.FieldStart("order")
		encodeOrder(e, order)
		e.ObjEnd()
	})
}

// payError maps charge failures onto user-facing messages. Every kind shares
// the same recovery: the order stays open and the user may retry from home.
func (h *Handler) payError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, cart.ErrNoOpenOrder):
		message(w, http.StatusNotFound, "You do not have an active order", "/")
		return
	case errors.Is(err, checkout.ErrNoBillingAddress):
		message(w, http.StatusBadRequest, "You have not added a billing address", "/checkout")
		return
	}

	var chargeErr *payment.ChargeError
	if !errors.As(err, &chargeErr) {
		internalError(r.Context(), w, err)
		return
	}

	switch chargeErr.Kind {
	case payment.KindCardDeclined:
		message(w, http.StatusBadRequest, chargeErr.Message, "/")
	case payment.KindRateLimited:
		message(w, http.StatusBadRequest, "Rate limit error", "/")
	case payment.KindInvalidRequest:
		message(w, http.StatusBadRequest, "Invalid parameters", "/")
	case payment.KindAuthenticationFailed:
		message(w, http.StatusBadRequest, "Not authenticated", "/")
	case payment.KindNetworkError:
		message(w, http.StatusBadGateway, "Network error", "/")
	case payment.KindProcessorError:
		message(w, http.StatusBadGateway, "Something went wrong. You were not charged. Please try again.", "/")
	default:
		message(w, http.StatusInternalServerError, "A serious error occurred. We have been notified.", "/")
	}
}

func (h *Handler) applyCoupon(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserFromContext(r.Context())

	body, ok := readBody(w, r)
	if !ok {
		return
	}
	var code string
	err := decodeObj(body, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "code":
			code, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		message(w, http.StatusBadRequest, "malformed request body", "")
		return
	}

	if _, err := h.coupons.Apply(r.Context(), userID, code); err != nil {
		switch {
		case errors.Is(err, coupon.ErrNotFound):
			message(w, http.StatusNotFound, "This coupon does not exist", "/checkout")
		case errors.Is(err, cart.ErrNoOpenOrder):
			message(w, http.StatusNotFound, "You do not have an active order", "/")
		default:
			internalError(r.Context(), w, err)
		}
		return
	}
	message(w, http.StatusOK, "Successfully added coupon", "/checkout")
}
