package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/store-orders/internal/domain/apperr"
	"github.com/xenking/store-orders/internal/domain/product"
)

// CreateProduct handles POST /api/products.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var in product.CreateInput
	err := decodeObject(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			in.Name, _, err = decodeString(d)
		case "description":
			in.Description, _, err = decodeString(d)
		case "image_url":
			in.ImageURL, _, err = decodeString(d)
		case "category":
			in.Category, _, err = decodeString(d)
		case "price":
			if d.Next() == jx.Null {
				return d.Null()
			}
			var price decimal.Decimal
			if price, err = decodeDecimal(d, "price"); err == nil {
				in.Price = &price
			}
		case "initial_quantity":
			in.InitialQuantity, err = decodeCount(d, "initial_quantity")
		case "low_stock_threshold":
			in.LowStockThreshold, err = decodeCount(d, "low_stock_threshold")
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		fail(w, r, err)
		return
	}

	p, err := h.products.Create(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeProduct(e, p) })
}

// ListProducts handles GET /api/products.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for i := range products {
			encodeProduct(e, &products[i])
		}
		e.ArrEnd()
	})
}

// GetProduct handles GET /api/products/{id}.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeProduct(e, p) })
}

// UpdateProduct handles PUT /api/products/{id}.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var in product.UpdateInput
	err := decodeObject(w, r, func(d *jx.Decoder, key string) error {
		switch key {
		case "name":
			return decodeOptString(d, &in.Name)
		case "description":
			return decodeOptString(d, &in.Description)
		case "image_url":
			return decodeOptString(d, &in.ImageURL)
		case "category":
			return decodeOptString(d, &in.Category)
		case "price":
			price, err := decodeDecimal(d, "price")
			if err != nil {
				return err
			}
			in.Price = &price
			return nil
		default:
			return d.Skip()
		}
	})
	if err != nil {
		fail(w, r, err)
		return
	}

	p, err := h.products.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeProduct(e, p) })
}

// DeleteProduct handles DELETE /api/products/{id}.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.products.Delete(r.Context(), r.PathValue("id")); err != nil {
		fail(w, r, err)
		return
	}
	writeMessage(w, "Product deleted successfully")
}

// decodeOptString sets *dst when the field holds a string.
func decodeOptString(d *jx.Decoder, dst **string) error {
	s, ok, err := decodeString(d)
	if ok {
		*dst = &s
	}
	return err
}

// decodeCount reads an optional non-negative integer field; null means
// absent.
func decodeCount(d *jx.Decoder, field string) (*int, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	v, ok, err := decodeInt(d)
	if err != nil {
		return nil, err
	}
	if !ok || v < 0 {
		return nil, apperr.Validation(field + " must be a non-negative integer.")
	}
	return &v, nil
}
