package cart_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cheertaboi/storefront-service/internal/cart"
	"github.com/Cheertaboi/storefront-service/internal/models"
)

var (
	product1 = models.ItemRef{Kind: models.ItemProduct, ID: 1}
	product2 = models.ItemRef{Kind: models.ItemProduct, ID: 2}
	bundle1  = models.ItemRef{Kind: models.ItemBundle, ID: 1}
)

func TestState_AddSumsQuantities(t *testing.T) {
	s := cart.NewState(nil)
	s.Add(models.CartLine{Item: product1, Quantity: 2, UnitPrice: decimal.NewFromInt(10)})
	s.Add(models.CartLine{Item: product1, Quantity: 3})
	s.Add(models.CartLine{Item: bundle1, Quantity: 1, UnitPrice: decimal.NewFromInt(51)})

	lines := s.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, 5, lines[0].Quantity)
	assert.True(t, decimal.NewFromInt(10).Equal(lines[0].UnitPrice))
	assert.Equal(t, bundle1, lines[1].Item)
	assert.True(t, decimal.NewFromInt(101).Equal(s.Total()))
	assert.Equal(t, 5, s.Quantity(product1))
	assert.Zero(t, s.Quantity(product2))
}

func TestState_SetQuantityAndRemove(t *testing.T) {
	s := cart.NewState([]models.CartLine{
		{Item: product1, Quantity: 1, UnitPrice: decimal.NewFromInt(5)},
		{Item: product2, Quantity: 4, UnitPrice: decimal.NewFromInt(2)},
	})

	assert.True(t, s.SetQuantity(product2, 1))
	assert.Equal(t, 1, s.Lines()[1].Quantity)

	assert.True(t, s.SetQuantity(product1, 0))
	assert.Equal(t, 1, s.Len())

	assert.False(t, s.Remove(bundle1))
	assert.True(t, s.Remove(product2))
	assert.Equal(t, 0, s.Len())
}

func TestState_Subscribe(t *testing.T) {
	s := cart.NewState(nil)

	var calls int
	var last []models.CartLine
	unsubscribe := s.Subscribe(cart.ObserverFunc(func(lines []models.CartLine) {
		calls++
		last = lines
	}))

	s.Add(models.CartLine{Item: product1, Quantity: 2})
	assert.Equal(t, 1, calls)
	require.Len(t, last, 1)

	// snapshots are copies
	last[0].Quantity = 99
	assert.Equal(t, 2, s.Lines()[0].Quantity)

	s.Clear()
	assert.Equal(t, 2, calls)
	assert.Empty(t, last)

	unsubscribe()
	unsubscribe()
	s.Add(models.CartLine{Item: product2, Quantity: 1})
	assert.Equal(t, 2, calls)
}

type recordingCart struct {
	added  map[models.ItemRef]int
	failOn models.ItemRef
}

func (r *recordingCart) AddLine(_ context.Context, _ int64, item models.ItemRef, qty int) error {
	if item == r.failOn {
		return errors.New("stock unavailable")
	}
	r.added[item] += qty
	return nil
}

func TestMerge(t *testing.T) {
	dst := &recordingCart{added: map[models.ItemRef]int{product1: 3}}
	guest := []models.CartLine{
		{Item: product1, Quantity: 2},
		{Item: bundle1, Quantity: 1},
		{Item: product2, Quantity: 0},
	}

	applied, err := cart.Merge(context.Background(), 42, guest, dst)
	require.NoError(t, err)
	assert.Equal(t, 2, applied)
	assert.Equal(t, 5, dst.added[product1])
	assert.Equal(t, 1, dst.added[bundle1])
	_, touched := dst.added[product2]
	assert.False(t, touched)
}

func TestMerge_StopsOnFailure(t *testing.T) {
	dst := &recordingCart{added: map[models.ItemRef]int{}, failOn: bundle1}
	guest := []models.CartLine{
		{Item: product1, Quantity: 2},
		{Item: bundle1, Quantity: 1},
		{Item: product2, Quantity: 1},
	}

	applied, err := cart.Merge(context.Background(), 42, guest, dst)
	require.Error(t, err)
	assert.Equal(t, 1, applied)
	assert.Zero(t, dst.added[product2])
}
