package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartService_AddMergesByAddition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Shirt", "Fashion", 180, 5)

	_, err := f.cart.Add(ctx, "u1", p.ID, 2)
	require.NoError(t, err)
	it, err := f.cart.Add(ctx, "u1", p.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, it.Quantity)

	_, err = f.cart.Add(ctx, "u1", p.ID, 1)
	var se *StockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 6, se.Requested)
	assert.Equal(t, 5, se.Available)

	lines, err := f.cart.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)
}

func TestCartService_AddValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Shirt", "Fashion", 180, 5)

	_, err := f.cart.Add(ctx, "u1", p.ID, 0)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.cart.Add(ctx, "u1", "missing", 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
	_, err = f.cart.SetQuantity(ctx, "u1", p.ID, -1)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCartService_SetQuantityReplaces(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Shirt", "Fashion", 180, 5)

	_, err := f.cart.Add(ctx, "u1", p.ID, 4)
	require.NoError(t, err)
	it, err := f.cart.SetQuantity(ctx, "u1", p.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, it.Quantity)

	_, err = f.cart.SetQuantity(ctx, "u1", p.ID, 6)
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestCartService_ListDropsOrphans(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	keep := f.product(t, "Keep", "Misc", 10, 5)
	gone := f.product(t, "Gone", "Misc", 20, 5)

	_, err := f.cart.Add(ctx, "u1", keep.ID, 1)
	require.NoError(t, err)
	_, err = f.cart.Add(ctx, "u1", gone.ID, 2)
	require.NoError(t, err)
	_, err = f.catalog.Delete(ctx, gone.ID)
	require.NoError(t, err)

	lines, err := f.cart.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "Keep", lines[0].Product.Name)

	_, found, err := f.store.GetCartItem(ctx, "u1", gone.ID)
	require.NoError(t, err)
	assert.False(t, found, "orphan row should be removed")

	items, price := CartTotals(lines)
	assert.Equal(t, 1, items)
	assert.True(t, price.Equal(dec("10")))
}

func TestCartService_RemoveAndClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.product(t, "A", "Misc", 10, 5)
	b := f.product(t, "B", "Misc", 10, 5)
	_, _ = f.cart.Add(ctx, "u1", a.ID, 1)
	_, _ = f.cart.Add(ctx, "u1", b.ID, 1)

	ok, err := f.cart.Remove(ctx, "u1", a.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.cart.Remove(ctx, "u1", a.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, f.cart.Clear(ctx, "u1"))
	lines, err := f.cart.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestCartService_ConcurrentAddsKeepEveryIncrement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Cocoa", "Food", 85, 100)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.cart.Add(ctx, "u1", p.ID, 1)
		}()
	}
	wg.Wait()

	it, found, err := f.store.GetCartItem(ctx, "u1", p.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 20, it.Quantity)
}
