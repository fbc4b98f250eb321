package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/store-orders/internal/domain/customer"
)

// CreateCustomer handles POST /api/customers.
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var in customer.CreateInput
	err := decodeObject(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "first_name":
			in.FirstName, _, err = decodeString(d)
		case "last_name":
			in.LastName, _, err = decodeString(d)
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

	c, err := h.customers.Create(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeCustomer(e, c) })
}

// ListCustomers handles GET /api/customers.
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customers.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for i := range customers {
			encodeCustomer(e, &customers[i])
		}
		e.ArrEnd()
	})
}

// GetCustomer handles GET /api/customers/{id}.
func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := h.customers.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCustomer(e, c) })
}

// UpdateCustomer handles PUT /api/customers/{id}.
func (h *Handler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var in customer.UpdateInput
	err := decodeObject(w, r, func(d *jx.Decoder, key string) error {
		switch key {
		case "first_name":
			return decodeOptString(d, &in.FirstName)
		case "last_name":
			return decodeOptString(d, &in.LastName)
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

	c, err := h.customers.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCustomer(e, c) })
}

// DeleteCustomer handles DELETE /api/customers/{id}. Orders of the customer
// are kept and lose their customer reference.
func (h *Handler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := h.customers.Delete(r.Context(), r.PathValue("id")); err != nil {
		fail(w, r, err)
		return
	}
	writeMessage(w, "Customer deleted successfully")
}
