package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"essence_back_end/internal/models"
)

// Store - persistance des commandes
type Store interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id string) (*models.Order, error)
	FindByUser(ctx context.Context, userID string) ([]models.Order, error)
	FindAll(ctx context.Context, filter Filter) ([]models.Order, error)
	// UpdateStatus applique change seulement si le statut stocké vaut encore from
	UpdateStatus(ctx context.Context, id string, from models.OrderStatus, change models.StatusChange) (*models.Order, error)
}

// Notifier est prévenu des événements de commande (emails, websocket)
type Notifier interface {
	OrderPlaced(ctx context.Context, order *models.Order)
	StatusChanged(ctx context.Context, order *models.Order, previous models.OrderStatus)
}

// Filter - filtres de la liste admin
type Filter struct {
	Status models.OrderStatus
	Search string
}

type PlaceOrderRequest struct {
	Items    []Line                 `json:"items"`
	Customer models.CustomerDetails `json:"customerDetails"`
}

type Options struct {
	Pricing PricePolicy
	// StrictStatus impose la table de transitions, sinon tout passage est accepté
	StrictStatus bool
	Now          func() time.Time
}

type Service struct {
	store     Store
	notifier  Notifier
	resolvers []Resolver
	opts      Options
}

// NewService crée le service de commandes. Les resolvers sont interrogés dans l'ordre.
func NewService(store Store, notifier Notifier, opts Options, resolvers ...Resolver) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{store: store, notifier: notifier, resolvers: resolvers, opts: opts}
}

// Reserve résout chaque ligne et décrémente son stock.
// En cas d'échec sur une ligne, tout ce qui a déjà été réservé est restitué.
func (s *Service) Reserve(ctx context.Context, lines []Line) (*Reservation, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, fmt.Errorf("%w: %d pour %s", ErrInvalidQuantity, l.Quantity, l.ProductID)
		}
		if strings.TrimSpace(l.ProductID) == "" {
			return nil, &LookupError{ProductID: l.ProductID, Err: ErrProductNotFound}
		}
	}

	res := &Reservation{}
	for _, line := range lines {
		if err := s.reserveLine(ctx, res, line); err != nil {
			if relErr := res.Release(ctx); relErr != nil {
				log.Printf("⚠️ Restitution partielle après échec de réservation: %v", relErr)
			}
			return nil, err
		}
	}
	return res, nil
}

func (s *Service) reserveLine(ctx context.Context, res *Reservation, line Line) error {
	item, err := s.resolve(ctx, line.ProductID, line.VariantID)
	if err != nil {
		return err
	}

	price, err := s.opts.Pricing.unitPrice(item, line)
	if err != nil {
		return err
	}

	if err := item.Reserve(ctx, line.Quantity); err != nil {
		return err
	}

	snap := item.Snapshot()
	snap.Price = price
	snap.Quantity = line.Quantity
	snap.LineTotal = lineTotal(price, line.Quantity).InexactFloat64()
	res.add(ReservedLine{Item: item, OrderItem: snap})
	return nil
}

func (s *Service) resolve(ctx context.Context, productID, variantID string) (SellableItem, error) {
	for _, r := range s.resolvers {
		item, err := r.Resolve(ctx, productID, variantID)
		if err == nil {
			return item, nil
		}
		if !errors.Is(err, ErrNotInSource) {
			return nil, err
		}
	}
	return nil, &LookupError{ProductID: productID, VariantID: variantID, Err: ErrProductNotFound}
}

func (s *Service) resolverFor(source string) Resolver {
	for _, r := range s.resolvers {
		if r.Name() == source {
			return r
		}
	}
	return nil
}

// PlaceOrder réserve le stock de toutes les lignes puis enregistre la commande (statut Pending)
func (s *Service) PlaceOrder(ctx context.Context, userID string, req PlaceOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}
	customer, err := normalizeCustomer(req.Customer)
	if err != nil {
		return nil, err
	}

	res, err := s.Reserve(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	now := s.opts.Now()
	items := res.Items()
	order := &models.Order{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Customer:  customer,
		Items:     items,
		Total:     Total(items),
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Create(ctx, order); err != nil {
		if relErr := res.Release(ctx); relErr != nil {
			log.Printf("❌ Stock non restitué après échec d'enregistrement: %v", relErr)
		}
		return nil, fmt.Errorf("enregistrement commande: %w", err)
	}
	res.Commit()

	log.Printf("🛒 Commande %s créée pour %s (%d lignes, total %.2f)", order.ID.Hex(), userID, len(items), order.Total)
	if s.notifier != nil {
		s.notifier.OrderPlaced(ctx, order)
	}
	return order, nil
}

func normalizeCustomer(c models.CustomerDetails) (models.CustomerDetails, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Address = strings.TrimSpace(c.Address)
	if c.Name == "" || c.Email == "" || c.Phone == "" || c.Address == "" {
		return c, ErrMissingCustomerDetails
	}
	return c, nil
}

// SetOrderStatus change le statut d'une commande (action admin)
func (s *Service) SetOrderStatus(ctx context.Context, orderID, status, actor string) (*models.Order, error) {
	next, ok := models.ParseOrderStatus(status)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	order, err := s.store.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	previous := order.Status
	if previous == next {
		return order, nil
	}
	if !CanTransition(previous, next, s.opts.StrictStatus) {
		return nil, &TransitionError{From: string(previous), To: string(next)}
	}

	updated, err := s.store.UpdateStatus(ctx, orderID, previous, models.StatusChange{
		From:      previous,
		To:        next,
		ChangedBy: actor,
		ChangedAt: s.opts.Now(),
	})
	if err != nil {
		return nil, err
	}

	log.Printf("📋 Commande %s: %s → %s", orderID, previous, next)

	if next == models.StatusCancelled {
		if cancelledBefore(updated) {
			// stock déjà rendu lors d'une annulation précédente (mode permissif)
			log.Printf("⚠️ Commande %s déjà annulée auparavant, pas de remise en stock", orderID)
		} else {
			s.restock(ctx, updated)
		}
	}
	if s.notifier != nil {
		s.notifier.StatusChanged(ctx, updated, previous)
	}
	return updated, nil
}

// restock remet en stock les lignes d'une commande annulée
func (s *Service) restock(ctx context.Context, order *models.Order) {
	ctx = context.WithoutCancel(ctx)
	for _, item := range order.Items {
		r := s.resolverFor(item.Source)
		if r == nil {
			log.Printf("⚠️ Source inconnue %q pour la ligne %s", item.Source, item.ProductID)
			continue
		}
		sellable, err := resolveForRelease(ctx, r, item.ProductID, item.VariantID)
		if err != nil {
			log.Printf("⚠️ Remise en stock impossible pour %s/%s: %v", item.ProductID, item.VariantID, err)
			continue
		}
		if err := sellable.Release(ctx, item.Quantity); err != nil {
			log.Printf("❌ Erreur remise en stock %s/%s: %v", item.ProductID, item.VariantID, err)
		}
	}
}

// cancelledBefore indique si l'historique contient une annulation antérieure
// au dernier changement
func cancelledBefore(order *models.Order) bool {
	history := order.StatusHistory
	if len(history) == 0 {
		return false
	}
	for _, change := range history[:len(history)-1] {
		if change.To == models.StatusCancelled {
			return true
		}
	}
	return false
}

func resolveForRelease(ctx context.Context, r Resolver, productID, variantID string) (SellableItem, error) {
	if rr, ok := r.(ReleaseResolver); ok {
		return rr.ResolveForRelease(ctx, productID, variantID)
	}
	return r.Resolve(ctx, productID, variantID)
}

// ListOrdersForUser retourne les commandes d'un utilisateur, les plus récentes d'abord
func (s *Service) ListOrdersForUser(ctx context.Context, userID string) ([]models.Order, error) {
	return s.store.FindByUser(ctx, userID)
}

// GetOrder retourne une commande de l'utilisateur.
// Une commande d'un autre utilisateur est traitée comme inexistante.
func (s *Service) GetOrder(ctx context.Context, orderID, userID string) (*models.Order, error) {
	order, err := s.store.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListAllOrders - liste admin avec filtre de statut et recherche nom/email
func (s *Service) ListAllOrders(ctx context.Context, status, search string) ([]models.Order, error) {
	var f Filter
	if status = strings.TrimSpace(status); status != "" {
		st, ok := models.ParseOrderStatus(status)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
		}
		f.Status = st
	}
	f.Search = strings.TrimSpace(search)
	return s.store.FindAll(ctx, f)
}
