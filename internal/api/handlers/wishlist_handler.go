package handlers

import (
	"net/http"

	"github.com/Cheertaboi/storefront-service/internal/models"
)

type WishlistHandler struct {
	service WishlistService
}

func NewWishlistHandler(s WishlistService) *WishlistHandler {
	return &WishlistHandler{service: s}
}

// List handles GET /api/wishlist
func (h *WishlistHandler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.List(r.Context(), caller(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Add handles POST /api/wishlist
func (h *WishlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req models.WishlistRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.service.Add(r.Context(), caller(r).UserID, req.ProductID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Remove handles DELETE /api/wishlist/{productID}
func (h *WishlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "productID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.service.Remove(r.Context(), caller(r).UserID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
