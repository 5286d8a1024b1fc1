package offers

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"essence_back_end/internal/models"
	"essence_back_end/internal/orders"
)

// Store - opérations utilisées par la prise de commande
type Store interface {
	Get(ctx context.Context, id string) (*models.Offer, error)
	Reserve(ctx context.Context, id primitive.ObjectID, qty int) error
	Release(ctx context.Context, id primitive.ObjectID, qty int) error
}

// Source expose les offres à la prise de commande. Une offre n'a pas de
// variante : le variantId de la ligne est ignoré.
type Source struct {
	store Store
}

func NewSource(store Store) *Source { return &Source{store: store} }

func (s *Source) Name() string { return models.SourceOffer }

func (s *Source) Resolve(ctx context.Context, productID, _ string) (orders.SellableItem, error) {
	return s.resolve(ctx, productID, false)
}

// ResolveForRelease accepte aussi les offres désactivées (annulation)
func (s *Source) ResolveForRelease(ctx context.Context, productID, _ string) (orders.SellableItem, error) {
	return s.resolve(ctx, productID, true)
}

func (s *Source) resolve(ctx context.Context, productID string, includeInactive bool) (orders.SellableItem, error) {
	if !primitive.IsValidObjectID(productID) {
		return nil, orders.ErrNotInSource
	}
	offer, err := s.store.Get(ctx, productID)
	if errors.Is(err, ErrOfferNotFound) {
		return nil, orders.ErrNotInSource
	}
	if err != nil {
		return nil, err
	}
	if !offer.IsActive && !includeInactive {
		return nil, &orders.LookupError{ProductID: productID, Err: orders.ErrProductNotFound}
	}
	return &offerItem{store: s.store, offer: *offer}, nil
}

type offerItem struct {
	store Store
	offer models.Offer
}

func (i *offerItem) Source() string    { return models.SourceOffer }
func (i *offerItem) ProductID() string { return i.offer.ID.Hex() }
func (i *offerItem) VariantID() string { return "" }
func (i *offerItem) Price() float64    { return i.offer.MRP }
func (i *offerItem) Available() int    { return i.offer.Quantity }

func (i *offerItem) DisplayName() string {
	if i.offer.Size == "" {
		return i.offer.ItemName
	}
	return i.offer.ItemName + " " + i.offer.Size
}

func (i *offerItem) Reserve(ctx context.Context, qty int) error {
	err := i.store.Reserve(ctx, i.offer.ID, qty)
	var shortage *ShortageError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &shortage):
		return &orders.StockError{
			ProductID: i.ProductID(),
			Name:      i.DisplayName(),
			Requested: shortage.Requested,
			Available: shortage.Available,
		}
	case errors.Is(err, ErrOfferNotFound):
		return &orders.LookupError{ProductID: i.ProductID(), Err: orders.ErrProductNotFound}
	default:
		return err
	}
}

func (i *offerItem) Release(ctx context.Context, qty int) error {
	return i.store.Release(ctx, i.offer.ID, qty)
}

func (i *offerItem) Snapshot() models.OrderItem {
	return models.OrderItem{
		ProductID:   i.ProductID(),
		Source:      models.SourceOffer,
		ProductName: i.offer.ItemName,
		VariantName: i.offer.Size,
		Image:       i.offer.Image,
		Price:       i.offer.MRP,
	}
}
