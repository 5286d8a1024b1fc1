package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/gocql/gocql"

	"essence_back_end/internal/models"
	"essence_back_end/internal/orders"
)

// StockStore - opérations du Store utilisées par la prise de commande
type StockStore interface {
	GetProduct(ctx context.Context, id gocql.UUID) (*models.Product, error)
	Reserve(ctx context.Context, p *models.Product, variantID gocql.UUID, qty int) (StockChange, error)
	Release(ctx context.Context, p *models.Product, variantID gocql.UUID, qty int) (StockChange, error)
}

// Source expose les variantes du catalogue à la prise de commande
type Source struct {
	store StockStore
}

func NewSource(store StockStore) *Source {
	return &Source{store: store}
}

func (s *Source) Name() string { return models.SourceCatalog }

// Resolve retrouve une variante. Un ID qui n'est pas un UUID, ou un produit
// absent du catalogue, est laissé aux autres sources.
func (s *Source) Resolve(ctx context.Context, productID, variantID string) (orders.SellableItem, error) {
	return s.resolve(ctx, productID, variantID, false)
}

// ResolveForRelease accepte aussi les produits désactivés (annulation)
func (s *Source) ResolveForRelease(ctx context.Context, productID, variantID string) (orders.SellableItem, error) {
	return s.resolve(ctx, productID, variantID, true)
}

func (s *Source) resolve(ctx context.Context, productID, variantID string, includeInactive bool) (orders.SellableItem, error) {
	pid, err := gocql.ParseUUID(productID)
	if err != nil {
		return nil, orders.ErrNotInSource
	}

	p, err := s.store.GetProduct(ctx, pid)
	if errors.Is(err, ErrProductNotFound) {
		return nil, orders.ErrNotInSource
	}
	if err != nil {
		return nil, err
	}
	if !p.IsActive && !includeInactive {
		return nil, &orders.LookupError{ProductID: productID, Err: orders.ErrProductNotFound}
	}

	notFound := &orders.LookupError{ProductID: productID, VariantID: variantID, Err: orders.ErrVariantNotFound}
	vid, err := gocql.ParseUUID(variantID)
	if err != nil {
		return nil, notFound
	}
	v := p.FindVariant(vid)
	if v == nil {
		return nil, notFound
	}
	return &variantItem{store: s.store, product: p, variant: *v}, nil
}

type variantItem struct {
	store   StockStore
	product *models.Product
	variant models.Variant
}

func (i *variantItem) Source() string    { return models.SourceCatalog }
func (i *variantItem) ProductID() string { return i.product.ID.String() }
func (i *variantItem) VariantID() string { return i.variant.ID.String() }
func (i *variantItem) Price() float64    { return i.variant.Price }
func (i *variantItem) Available() int    { return i.variant.Stock }

func (i *variantItem) DisplayName() string {
	return i.product.Name + " " + i.variant.Name
}

func (i *variantItem) Reserve(ctx context.Context, qty int) error {
	_, err := i.store.Reserve(ctx, i.product, i.variant.ID, qty)
	return i.translate(err)
}

func (i *variantItem) Release(ctx context.Context, qty int) error {
	_, err := i.store.Release(ctx, i.product, i.variant.ID, qty)
	return i.translate(err)
}

// translate convertit les erreurs du catalogue en erreurs de commande
func (i *variantItem) translate(err error) error {
	var shortage *ShortageError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &shortage):
		return &orders.StockError{
			ProductID: i.ProductID(),
			VariantID: i.VariantID(),
			Name:      i.DisplayName(),
			Requested: shortage.Requested,
			Available: shortage.Available,
		}
	case errors.Is(err, ErrContention):
		return fmt.Errorf("%w: %s", orders.ErrStockContention, i.DisplayName())
	case errors.Is(err, ErrVariantNotFound):
		return &orders.LookupError{ProductID: i.ProductID(), VariantID: i.VariantID(), Err: orders.ErrVariantNotFound}
	default:
		return err
	}
}

func (i *variantItem) Snapshot() models.OrderItem {
	return models.OrderItem{
		ProductID:   i.ProductID(),
		VariantID:   i.VariantID(),
		Source:      models.SourceCatalog,
		SKU:         i.variant.SKU,
		ProductName: i.product.Name,
		VariantName: i.variant.Name,
		Image:       i.product.Image,
		Price:       i.variant.Price,
	}
}
