package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/store-orders/internal/domain/order"
)

// PlaceOrder handles POST /api/orders.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req order.PlaceOrderRequest
	err := decodeObject(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "customer_id":
			req.CustomerID, _, err = decodeString(d)
		case "shipping_address":
			req.ShippingAddress, _, err = decodeString(d)
		case "billing_address":
			req.BillingAddress, _, err = decodeString(d)
		case "items":
			req.Items, err = decodeOrderItems(d)
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		fail(w, r, err)
		return
	}

	placed, err := h.orders.PlaceOrder(r.Context(), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeOrder(e, placed) })
}

// decodeOrderItems reads the items array. Anything but an array leaves the
// items empty; malformed fields are left zero for the service to reject.
func decodeOrderItems(d *jx.Decoder) ([]order.OrderItem, error) {
	if d.Next() != jx.Array {
		return nil, d.Skip()
	}
	var items []order.OrderItem
	err := d.Arr(func(d *jx.Decoder) error {
		var item order.OrderItem
		if d.Next() != jx.Object {
			items = append(items, item)
			return d.Skip()
		}
		err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "product_id":
				item.ProductID, _, err = decodeString(d)
			case "quantity":
				item.Quantity, _, err = decodeInt(d)
			default:
				err = d.Skip()
			}
			return err
		})
		items = append(items, item)
		return err
	})
	return items, err
}

// ListOrders handles GET /api/orders.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for i := range orders {
			encodeOrder(e, &orders[i])
		}
		e.ArrEnd()
	})
}

// GetOrder handles GET /api/orders/{id}.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, o) })
}

// UpdateOrderStatus handles PUT /api/orders/{id}/status.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var status string
	err := decodeObject(w, r, func(d *jx.Decoder, key string) error {
		if key != "status" {
			return d.Skip()
		}
		var err error
		status, _, err = decodeString(d)
		return err
	})
	if err != nil {
		fail(w, r, err)
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), r.PathValue("id"), status)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, o) })
}
