package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Cheertaboi/storefront-service/internal/models"
)

// --- Request / Response DTOs ---

type ApplicableRequestBody struct {
	CartTotal decimal.Decimal `json:"cart_total"`
}

type ApplicableResponse struct {
	ApplicableCoupons []models.VerifyResult `json:"applicable_coupons"`
}

type CouponHandler struct {
	service CouponService
}

func NewCouponHandler(s CouponService) *CouponHandler {
	return &CouponHandler{service: s}
}

// VerifyCoupon handles POST /api/coupons/verify
// A coupon that does not apply is a 200 with valid=false and a reason code.
func (h *CouponHandler) VerifyCoupon(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.UserID = caller(r).UserID

	res, err := h.service.Verify(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetApplicableCoupons handles POST /api/coupons/applicable
func (h *CouponHandler) GetApplicableCoupons(w http.ResponseWriter, r *http.Request) {
	var req ApplicableRequestBody
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.service.ApplicableCoupons(r.Context(), caller(r).UserID, req.CartTotal)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ApplicableResponse{ApplicableCoupons: out})
}

// --- Admin ---

// ListCoupons handles GET /api/admin/coupons
func (h *CouponHandler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ListCoupons(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateCoupon handles POST /api/admin/coupons
func (h *CouponHandler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var in models.CouponInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.service.CreateCoupon(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// UpdateCoupon handles PUT /api/admin/coupons/{id}
func (h *CouponHandler) UpdateCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in models.CouponInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.service.UpdateCoupon(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DeleteCoupon handles DELETE /api/admin/coupons/{id}
func (h *CouponHandler) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.service.DeleteCoupon(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
