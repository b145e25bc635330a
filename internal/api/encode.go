package api

import (
	"context"
	"io"
	"net/http"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/wrenkit/storefront/internal/domain/cart"
	"github.com/wrenkit/storefront/internal/domain/catalog"
)

// maxBodySize bounds request bodies; checkout forms are small.
const maxBodySize = 1 << 20

func respond(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := &jx.Encoder{}
	encode(e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// message writes the {code, message, redirect} envelope shared by every
// informational, warning and error response. The redirect is a recovery
// hint for the client, not an HTTP redirect.
func message(w http.ResponseWriter, status int, text, redirect string) {
	respond(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(status)
		e.FieldStart("message")
		e.Str(text)
		if redirect != "" {
			e.FieldStart("redirect")
			e.Str(redirect)
		}
		e.ObjEnd()
	})
}

// internalError logs the unclassified failure and replies with the generic
// serious-error message. The order, if any, stays open.
func internalError(ctx context.Context, w http.ResponseWriter, err error) {
	zctx.From(ctx).Error("Request failed", zap.Error(err))
	message(w, http.StatusInternalServerError, "A serious error occurred. We have been notified.", "/")
}

// readBody drains the request body up to maxBodySize, replying 400 itself on
// failure.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		message(w, http.StatusBadRequest, "malformed request body", "")
		return nil, false
	}
	return body, true
}

// decodeObj walks a single JSON object, dispatching each key to fn.
func decodeObj(body []byte, fn func(d *jx.Decoder, key string) error) error {
	d := jx.DecodeBytes(body)
	return d.Obj(func(d *jx.Decoder, key string) error {
		return fn(d, key)
	})
}

func encodeItem(e *jx.Encoder, item catalog.Item) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(item.ID)
	e.FieldStart("title")
	e.Str(item.Title)
	e.FieldStart("slug")
	e.Str(item.Slug)
	e.FieldStart("description")
	e.Str(item.Description)
	e.FieldStart("price")
	e.Float64(item.Price.InexactFloat64())
	if item.DiscountPrice != nil {
		e.FieldStart("discount_price")
		e.Float64(item.DiscountPrice.InexactFloat64())
	}
	e.FieldStart("category")
	e.Str(string(item.Category))
	e.FieldStart("label")
	e.Str(string(item.Label))
	e.FieldStart("image_url")
	e.Str(item.ImageURL)
	e.ObjEnd()
}

func encodeOrder(e *jx.Encoder, o *cart.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(o.ID)
	if o.RefCode != "" {
		e.FieldStart("ref_code")
		e.Str(o.RefCode)
	}
	e.FieldStart("ordered")
	e.Bool(o.Ordered)
	e.FieldStart("items")
	e.ArrStart()
	for _, line := range o.Items {
		e.ObjStart()
		e.FieldStart("id")
		e.Int64(line.ID)
		e.FieldStart("quantity")
		e.Int(line.Quantity)
		e.FieldStart("total_price")
		e.Float64(line.TotalPrice().InexactFloat64())
		e.FieldStart("final_price")
		e.Float64(line.FinalPrice().InexactFloat64())
		e.FieldStart("amount_saved")
		e.Float64(line.AmountSaved().InexactFloat64())
		e.FieldStart("item")
		encodeItem(e, line.Item)
		e.ObjEnd()
	}
	e.ArrEnd()
	if o.Coupon != nil {
		e.FieldStart("coupon")
		e.ObjStart()
		e.FieldStart("code")
		e.Str(o.Coupon.Code)
		e.FieldStart("amount")
		e.Float64(o.Coupon.Amount.InexactFloat64())
		e.ObjEnd()
	}
	e.FieldStart("total")
	e.Float64(o.Total().InexactFloat64())
	e.ObjEnd()
}
