package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/store-orders/internal/domain/supplier"
)

// CreateSupplier handles POST /api/suppliers.
func (h *Handler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	var in supplier.CreateInput
	err := decodeObject(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			in.Name, _, err = decodeString(d)
		case "contact_person":
			in.ContactPerson, _, err = decodeString(d)
		case "email":
			in.Email, _, err = decodeString(d)
		case "phone":
			in.Phone, _, err = decodeString(d)
		case "address":
			in.Address, _, err = decodeString(d)
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		fail(w, r, err)
		return
	}

	s, err := h.suppliers.Create(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeSupplier(e, s) })
}

// ListSuppliers handles GET /api/suppliers.
func (h *Handler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.suppliers.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for i := range suppliers {
			encodeSupplier(e, &suppliers[i])
		}
		e.ArrEnd()
	})
}

// GetSupplier handles GET /api/suppliers/{id}.
func (h *Handler) GetSupplier(w http.ResponseWriter, r *http.Request) {
	s, err := h.suppliers.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeSupplier(e, s) })
}

// UpdateSupplier handles PUT /api/suppliers/{id}.
func (h *Handler) UpdateSupplier(w http.ResponseWriter, r *http.Request) {
	var in supplier.UpdateInput
	err := decodeObject(w, r, func(d *jx.Decoder, key string) error {
		switch key {
		case "name":
			return decodeOptString(d, &in.Name)
		case "contact_person":
			return decodeOptString(d, &in.ContactPerson)
		case "email":
			return decodeOptString(d, &in.Email)
		case "phone":
			return decodeOptString(d, &in.Phone)
		case "address":
			return decodeOptString(d, &in.Address)
		default:
			return d.Skip()
		}
	})
	if err != nil {
		fail(w, r, err)
		return
	}

	s, err := h.suppliers.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeSupplier(e, s) })
}

// DeleteSupplier handles DELETE /api/suppliers/{id}.
func (h *Handler) DeleteSupplier(w http.ResponseWriter, r *http.Request) {
	if err := h.suppliers.Delete(r.Context(), r.PathValue("id")); err != nil {
		fail(w, r, err)
		return
	}
	writeMessage(w, "Supplier deleted successfully")
}
