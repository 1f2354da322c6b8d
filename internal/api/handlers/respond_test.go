package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cheertaboi/storefront-service/internal/apperr"
	"github.com/Cheertaboi/storefront-service/internal/models"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		err      error
		status   int
		wantCode string
	}{
		{apperr.Validation("invalid_quantity", "bad"), http.StatusBadRequest, "invalid_quantity"},
		{apperr.NotFound("order_not_found", "missing"), http.StatusNotFound, "order_not_found"},
		{apperr.State("insufficient_stock", "no"), http.StatusConflict, "insufficient_stock"},
		{apperr.Conflict("duplicate_address", "dup"), http.StatusConflict, "duplicate_address"},
		{apperr.AuthRequired("login"), http.StatusUnauthorized, "auth_required"},
		{apperr.Forbidden("no"), http.StatusForbidden, "forbidden"},
		{apperr.Backend("could not load cart", errors.New("conn reset")), http.StatusInternalServerError, "internal_error"},
		{errors.New("unclassified"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.wantCode, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			var body errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Error)
			assert.NotContains(t, body.Message, "conn reset")
		})
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{name: "valid", body: `{"item":{"kind":"product","id":3},"quantity":2}`},
		{name: "malformed", body: `{"item":`, wantCode: "invalid_body"},
		{name: "bad kind", body: `{"item":{"kind":"gift","id":3},"quantity":1}`, wantCode: "invalid_kind"},
		{name: "zero quantity", body: `{"item":{"kind":"product","id":3},"quantity":0}`, wantCode: "invalid_quantity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst models.AddToCartRequest
			err := decode(req, &dst)
			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.Equal(t, 2, dst.Quantity)
				return
			}
			var e *apperr.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.wantCode, e.Code)
		})
	}
}
