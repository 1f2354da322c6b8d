package handlers

import (
	"net/http"

	"github.com/Cheertaboi/storefront-service/internal/models"
)

type OrderHandler struct {
	checkout CheckoutService
	orders   OrderService
}

func NewOrderHandler(checkout CheckoutService, orders OrderService) *OrderHandler {
	return &OrderHandler{checkout: checkout, orders: orders}
}

// Checkout handles POST /api/checkout
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req models.CheckoutRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	conf, err := h.checkout.Submit(r.Context(), caller(r).UserID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, conf)
}

// List handles GET /api/orders
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.orders.List(r.Context(), caller(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Get handles GET /api/orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	c := caller(r)
	detail, err := h.orders.Detail(r.Context(), c.UserID, id, c.IsAdmin())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// Tracking handles GET /api/orders/{id}/tracking
func (h *OrderHandler) Tracking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	c := caller(r)
	sh, err := h.orders.Tracking(r.Context(), c.UserID, id, c.IsAdmin())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sh)
}

// UpdateStatus handles PATCH /api/admin/orders/{id}/status
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var upd models.StatusUpdate
	if err := decode(r, &upd); err != nil {
		writeError(w, r, err)
		return
	}
	sh, err := h.orders.UpdateStatus(r.Context(), id, upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sh)
}
