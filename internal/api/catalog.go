package api

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/wrenkit/storefront/internal/domain/catalog"
)

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.List(r.Context())
	if err != nil {
		internalError(r.Context(), w, err)
		return
	}
	respondItems(w, items)
}

func (h *Handler) listByCategory(w http.ResponseWriter, r *http.Request) {
	category := catalog.Category(r.PathValue("category"))
	if !category.Valid() {
		message(w, http.StatusNotFound, "this category does not exist", "/")
		return
	}

	items, err := h.items.ListByCategory(r.Context(), category)
	if err != nil {
		internalError(r.Context(), w, err)
		return
	}
	respondItems(w, items)
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.items.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			message(w, http.StatusNotFound, "this item does not exist", "/")
			return
		}
		internalError(r.Context(), w, err)
		return
	}
	respond(w, http.StatusOK, func(e *jx.Encoder) {
		encodeItem(e, *item)
	})
}

func respondItems(w http.ResponseWriter, items []catalog.Item) {
	respond(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, item := range items {
			encodeItem(e, item)
		}
		e.ArrEnd()
	})
}
