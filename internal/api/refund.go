package api

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/wrenkit/storefront/internal/domain/cart"
)

func (h *Handler) requestRefund(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	var refCode, email, reason string
	err := decodeObj(body, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "ref_code":
			refCode, err = d.Str()
		case "email":
			email, err = d.Str()
		case "reason":
			reason, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil || refCode == "" {
		message(w, http.StatusBadRequest, "malformed request body", "")
		return
	}

	if _, err := h.refunds.Request(r.Context(), refCode, email, reason); err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			message(w, http.StatusNotFound, "This order does not exist", "/refunds")
			return
		}
		internalError(r.Context(), w, err)
		return
	}
	message(w, http.StatusOK, "Your request was received.", "/refunds")
}
