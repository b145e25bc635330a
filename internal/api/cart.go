package api

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/wrenkit/storefront/internal/domain/cart"
	"github.com/wrenkit/storefront/internal/domain/catalog"
)

func (h *Handler) showCart(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserFromContext(r.Context())

	order, err := h.cart.OpenOrder(r.Context(), userID)
	if err != nil {
		if errors.Is(err, cart.ErrNoOpenOrder) {
			message(w, http.StatusNotFound, "You do not have an active order", "/")
			return
		}
		internalError(r.Context(), w, err)
		return
	}
	respond(w, http.StatusOK, func(e *jx.Encoder) {
		encodeOrder(e, order)
	})
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserFromContext(r.Context())

	order, err := h.cart.AddToCart(r.Context(), userID, r.PathValue("slug"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			message(w, http.StatusNotFound, "this item does not exist", "/")
			return
		}
		internalError(r.Context(), w, err)
		return
	}
	respond(w, http.StatusOK, func(e *jx.Encoder) {
		encodeOrder(e, order)
	})
}

func (h *Handler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserFromContext(r.Context())
	slug := r.PathValue("slug")

	if err := h.cart.RemoveFromCart(r.Context(), userID, slug); err != nil {
		h.cartNoOp(w, r, slug, err)
		return
	}
	message(w, http.StatusOK, "This item was removed from your cart.", "/cart")
}

func (h *Handler) decrementItem(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserFromContext(r.Context())
	slug := r.PathValue("slug")

	if err := h.cart.DecrementItem(r.Context(), userID, slug); err != nil {
		h.cartNoOp(w, r, slug, err)
		return
	}
	message(w, http.StatusOK, "This item quantity was updated.", "/cart")
}

// cartNoOp maps the informational cart sentinels onto the message envelope.
// Nothing was mutated on any of these paths.
func (h *Handler) cartNoOp(w http.ResponseWriter, r *http.Request, slug string, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		message(w, http.StatusNotFound, "this item does not exist", "/")
	case errors.Is(err, cart.ErrNoOpenOrder):
		message(w, http.StatusNotFound, "You do not have an active order", "/")
	case errors.Is(err, cart.ErrNotInCart):
		message(w, http.StatusNotFound, "This item was not in your cart", "/items/"+slug)
	default:
		internalError(r.Context(), w, err)
	}
}
