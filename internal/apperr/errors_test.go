package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Cheertaboi/storefront-service/internal/apperr"
)

func TestErrorIs(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", apperr.State("coupon_expired", "coupon expired"))

	assert.True(t, errors.Is(err, apperr.ErrState))
	assert.False(t, errors.Is(err, apperr.ErrNotFound))
	assert.True(t, errors.Is(err, &apperr.Error{Kind: apperr.KindState, Code: "coupon_expired"}))
	assert.False(t, errors.Is(err, &apperr.Error{Kind: apperr.KindState, Code: "coupon_inactive"}))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(apperr.Validation("x", "bad")))
	assert.Equal(t, apperr.KindBackend, apperr.KindOf(errors.New("boom")))

	inner := errors.New("conn reset")
	be := apperr.Backend("could not load cart", inner)
	assert.True(t, errors.Is(be, inner))
	assert.Equal(t, apperr.KindBackend, apperr.KindOf(be))
}
