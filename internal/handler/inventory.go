package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/jx"

	"github.com/xenking/store-orders/internal/domain/apperr"
)

var errQuantityRequired = apperr.Validation("Quantity is required and must be a non-negative integer.")

// ListInventory handles GET /api/inventory[?low_stock=true].
func (h *Handler) ListInventory(w http.ResponseWriter, r *http.Request) {
	lowOnly, _ := strconv.ParseBool(r.URL.Query().Get("low_stock"))

	entries, err := h.inventory.List(r.Context(), lowOnly)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for i := range entries {
			encodeInventory(e, &entries[i])
		}
		e.ArrEnd()
	})
}

// GetInventory handles GET /api/inventory/{productId}.
func (h *Handler) GetInventory(w http.ResponseWriter, r *http.Request) {
	entry, err := h.inventory.Get(r.Context(), r.PathValue("productId"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeInventory(e, entry) })
}

// SetInventory handles PUT /api/inventory/{productId}. It answers 201 when
// the record was created and 200 when it was updated.
func (h *Handler) SetInventory(w http.ResponseWriter, r *http.Request) {
	var (
		quantity  *int
		threshold *int
	)
	err := decodeObject(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "quantity":
			quantity, err = decodeCount(d, "quantity")
			if err != nil {
				return errQuantityRequired
			}
		case "low_stock_threshold":
			threshold, err = decodeCount(d, "low_stock_threshold")
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	if quantity == nil {
		fail(w, r, errQuantityRequired)
		return
	}

	entry, created, err := h.inventory.SetQuantity(r.Context(), r.PathValue("productId"), *quantity, threshold)
	if err != nil {
		fail(w, r, err)
		return
	}
	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	writeJSON(w, code, func(e *jx.Encoder) { encodeInventory(e, entry) })
}
