package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Cheertaboi/storefront-service/internal/auth"
	"github.com/Cheertaboi/storefront-service/internal/models"
)

// CartHandler serves the cart of the logged-in user, or a guest cart when
// the request has no token. Guests without an id are issued one in the
// X-Guest-ID response header.
type CartHandler struct {
	service CartService
}

func NewCartHandler(s CartService) *CartHandler {
	return &CartHandler{service: s}
}

func guestID(w http.ResponseWriter, r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get(GuestIDHeader))
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(GuestIDHeader, id)
	return id
}

// Get handles GET /api/cart
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	var (
		c   *models.Cart
		err error
	)
	if claims := auth.FromContext(r.Context()); claims != nil {
		c, err = h.service.UserCart(r.Context(), claims.UserID)
	} else {
		c, err = h.service.GuestCart(r.Context(), guestID(w, r))
	}
	h.respond(w, r, c, err)
}

// Add handles POST /api/cart/items
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req models.AddToCartRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	var (
		c   *models.Cart
		err error
	)
	if claims := auth.FromContext(r.Context()); claims != nil {
		c, err = h.service.AddItem(r.Context(), claims.UserID, req)
	} else {
		c, err = h.service.AddGuestItem(r.Context(), guestID(w, r), req)
	}
	h.respond(w, r, c, err)
}

// Update handles PUT /api/cart/items
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateCartRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	var (
		c   *models.Cart
		err error
	)
	if claims := auth.FromContext(r.Context()); claims != nil {
		c, err = h.service.UpdateItem(r.Context(), claims.UserID, req)
	} else {
		c, err = h.service.UpdateGuestItem(r.Context(), guestID(w, r), req)
	}
	h.respond(w, r, c, err)
}

// Remove handles DELETE /api/cart/items/{kind}/{id}
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	item := models.ItemRef{Kind: models.ItemKind(chi.URLParam(r, "kind")), ID: id}

	var c *models.Cart
	if claims := auth.FromContext(r.Context()); claims != nil {
		c, err = h.service.RemoveItem(r.Context(), claims.UserID, item)
	} else {
		c, err = h.service.RemoveGuestItem(r.Context(), guestID(w, r), item)
	}
	h.respond(w, r, c, err)
}

func (h *CartHandler) respond(w http.ResponseWriter, r *http.Request, c *models.Cart, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
