package catalog

import (
	"context"
	"testing"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"essence_back_end/internal/models"
	"essence_back_end/internal/orders"
)

type memStore struct {
	cas      *memCAS
	products map[gocql.UUID]*models.Product
	attempts int
}

func newMemStore() *memStore {
	return &memStore{cas: newMemCAS(), products: map[gocql.UUID]*models.Product{}, attempts: 3}
}

func (s *memStore) add(p *models.Product) {
	s.products[p.ID] = p
	for _, v := range p.Variants {
		s.cas.stock[v.ID] = v.Stock
	}
}

func (s *memStore) GetProduct(_ context.Context, id gocql.UUID) (*models.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return p, nil
}

func (s *memStore) Reserve(ctx context.Context, p *models.Product, variantID gocql.UUID, qty int) (StockChange, error) {
	prev, next, err := casUpdate(ctx, s.cas, p.ID, variantID, s.attempts, decrement(qty))
	return StockChange{Prev: prev, New: next}, err
}

func (s *memStore) Release(ctx context.Context, p *models.Product, variantID gocql.UUID, qty int) (StockChange, error) {
	prev, next, err := casUpdate(ctx, s.cas, p.ID, variantID, s.attempts, increment(qty))
	return StockChange{Prev: prev, New: next}, err
}

func oudProduct() *models.Product {
	pid := gocql.TimeUUID()
	return &models.Product{
		ID:       pid,
		Name:     "Oud Royal",
		Category: models.CategoryUnisex,
		Image:    "products/oud.jpg",
		IsActive: true,
		Variants: []models.Variant{
			{ID: gocql.TimeUUID(), ProductID: pid, Name: "50ml", Type: models.VariantEauDeParfum, Price: 100, Stock: 3, SKU: "OUD-50"},
			{ID: gocql.TimeUUID(), ProductID: pid, Name: "100ml", Type: models.VariantEauDeParfum, Price: 180, Stock: 1, SKU: "OUD-100"},
		},
	}
}

func TestSource_ResolveAndReserve(t *testing.T) {
	store := newMemStore()
	p := oudProduct()
	store.add(p)
	src := NewSource(store)
	ctx := context.Background()

	item, err := src.Resolve(ctx, p.ID.String(), p.Variants[0].ID.String())
	require.NoError(t, err)

	assert.Equal(t, models.SourceCatalog, item.Source())
	assert.Equal(t, "Oud Royal 50ml", item.DisplayName())
	assert.Equal(t, 100.0, item.Price())
	assert.Equal(t, 3, item.Available())

	require.NoError(t, item.Reserve(ctx, 2))
	assert.Equal(t, 1, store.cas.stock[p.Variants[0].ID])

	snap := item.Snapshot()
	assert.Equal(t, p.ID.String(), snap.ProductID)
	assert.Equal(t, p.Variants[0].ID.String(), snap.VariantID)
	assert.Equal(t, "OUD-50", snap.SKU)
	assert.Equal(t, "products/oud.jpg", snap.Image)
	assert.Equal(t, "50ml", snap.VariantName)

	require.NoError(t, item.Release(ctx, 2))
	assert.Equal(t, 3, store.cas.stock[p.Variants[0].ID])
}

func TestSource_InsufficientStock(t *testing.T) {
	store := newMemStore()
	p := oudProduct()
	store.add(p)

	item, err := NewSource(store).Resolve(context.Background(), p.ID.String(), p.Variants[1].ID.String())
	require.NoError(t, err)

	err = item.Reserve(context.Background(), 2)
	var stockErr *orders.StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Oud Royal 100ml", stockErr.Name)
	assert.Equal(t, 1, stockErr.Available)
	assert.Equal(t, orders.KindBusinessRule, orders.Kind(err))
	assert.Equal(t, 1, store.cas.stock[p.Variants[1].ID])
}

func TestSource_Contention(t *testing.T) {
	store := newMemStore()
	p := oudProduct()
	store.add(p)
	store.cas.interfere = func(current int) int { return current + 1 }

	item, err := NewSource(store).Resolve(context.Background(), p.ID.String(), p.Variants[0].ID.String())
	require.NoError(t, err)

	err = item.Reserve(context.Background(), 1)
	assert.ErrorIs(t, err, orders.ErrStockContention)
	assert.Equal(t, orders.KindConflict, orders.Kind(err))
}

func TestSource_Resolve_NotFound(t *testing.T) {
	store := newMemStore()
	p := oudProduct()
	store.add(p)
	src := NewSource(store)
	ctx := context.Background()

	t.Run("not a uuid", func(t *testing.T) {
		_, err := src.Resolve(ctx, "65f1c0ffee00000000000001", "")
		assert.ErrorIs(t, err, orders.ErrNotInSource)
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := src.Resolve(ctx, gocql.TimeUUID().String(), "")
		assert.ErrorIs(t, err, orders.ErrNotInSource)
	})

	t.Run("unknown variant", func(t *testing.T) {
		_, err := src.Resolve(ctx, p.ID.String(), gocql.TimeUUID().String())
		assert.ErrorIs(t, err, orders.ErrVariantNotFound)
		assert.Equal(t, orders.KindNotFound, orders.Kind(err))
	})

	t.Run("malformed variant", func(t *testing.T) {
		_, err := src.Resolve(ctx, p.ID.String(), "50ml")
		assert.ErrorIs(t, err, orders.ErrVariantNotFound)
	})

	t.Run("inactive product", func(t *testing.T) {
		hidden := oudProduct()
		hidden.IsActive = false
		store.add(hidden)
		_, err := src.Resolve(ctx, hidden.ID.String(), hidden.Variants[0].ID.String())
		assert.ErrorIs(t, err, orders.ErrProductNotFound)
	})
}

func TestSource_ResolveForRelease_InactiveProduct(t *testing.T) {
	store := newMemStore()
	p := oudProduct()
	store.add(p)
	src := NewSource(store)
	ctx := context.Background()

	item, err := src.Resolve(ctx, p.ID.String(), p.Variants[0].ID.String())
	require.NoError(t, err)
	require.NoError(t, item.Reserve(ctx, 2))

	p.IsActive = false
	_, err = src.Resolve(ctx, p.ID.String(), p.Variants[0].ID.String())
	require.ErrorIs(t, err, orders.ErrProductNotFound)

	item, err = src.ResolveForRelease(ctx, p.ID.String(), p.Variants[0].ID.String())
	require.NoError(t, err)
	require.NoError(t, item.Release(ctx, 2))
	assert.Equal(t, 3, store.cas.stock[p.Variants[0].ID])
}

func TestValidateProduct(t *testing.T) {
	valid := func() *models.Product {
		p := oudProduct()
		p.ID = gocql.UUID{}
		return p
	}

	require.NoError(t, ValidateProduct(valid()))

	tests := []struct {
		name   string
		mutate func(p *models.Product)
	}{
		{"empty name", func(p *models.Product) { p.Name = "  " }},
		{"unknown category", func(p *models.Product) { p.Category = "kids" }},
		{"no variants", func(p *models.Product) { p.Variants = nil }},
		{"unknown variant type", func(p *models.Product) { p.Variants[0].Type = "candle" }},
		{"negative price", func(p *models.Product) { p.Variants[0].Price = -1 }},
		{"negative stock", func(p *models.Product) { p.Variants[1].Stock = -3 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := valid()
			tc.mutate(p)
			assert.ErrorIs(t, ValidateProduct(p), ErrInvalidProduct)
		})
	}
}
