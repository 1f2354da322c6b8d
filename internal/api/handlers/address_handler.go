package handlers

import (
	"net/http"

	"github.com/Cheertaboi/storefront-service/internal/models"
)

type AddressHandler struct {
	service AddressService
}

func NewAddressHandler(s AddressService) *AddressHandler {
	return &AddressHandler{service: s}
}

// List handles GET /api/addresses
func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.List(r.Context(), caller(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Create handles POST /api/addresses
func (h *AddressHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.AddressInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	a, err := h.service.Create(r.Context(), caller(r).UserID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// Update handles PUT /api/addresses/{id}
func (h *AddressHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in models.AddressInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	a, err := h.service.Update(r.Context(), caller(r).UserID, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Delete handles DELETE /api/addresses/{id}
func (h *AddressHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.service.Delete(r.Context(), caller(r).UserID, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetDefault handles PUT /api/addresses/{id}/default
func (h *AddressHandler) SetDefault(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.service.SetDefault(r.Context(), caller(r).UserID, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
