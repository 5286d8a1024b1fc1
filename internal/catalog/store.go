package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/gocql/gocql"

	"essence_back_end/internal/models"
)

// Store - accès au catalogue parfums dans ScyllaDB
type Store struct {
	session  *gocql.Session
	attempts int
	onChange func(productID gocql.UUID)
	now      func() time.Time
}

type Option func(*Store)

// WithCASAttempts fixe le nombre d'essais compare-and-set sur le stock
func WithCASAttempts(n int) Option {
	return func(s *Store) { s.attempts = n }
}

// WithChangeHook est appelé après chaque écriture sur un produit (invalidation du cache)
func WithChangeHook(fn func(productID gocql.UUID)) Option {
	return func(s *Store) { s.onChange = fn }
}

func NewStore(session *gocql.Session, opts ...Option) *Store {
	s := &Store{session: session, attempts: DefaultCASAttempts, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureSchema crée les tables du keyspace produits si elles n'existent pas
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range Schema {
		if err := s.session.Query(stmt).WithContext(ctx).Exec(); err != nil {
			return fmt.Errorf("schéma catalogue: %w", err)
		}
	}
	log.Println("✅ Schéma catalogue ScyllaDB à jour")
	return nil
}

// GetProduct charge un produit et ses variantes
func (s *Store) GetProduct(ctx context.Context, id gocql.UUID) (*models.Product, error) {
	var p models.Product
	err := s.session.Query(qSelectProduct, id).WithContext(ctx).Scan(
		&p.ID, &p.Name, &p.Category, &p.Notes, &p.Image, &p.IsActive,
		&p.LowStockThreshold, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lecture produit %s: %w", id, err)
	}

	if p.Variants, err = s.variants(ctx, id); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) variants(ctx context.Context, productID gocql.UUID) ([]models.Variant, error) {
	iter := s.session.Query(qSelectVariants, productID).WithContext(ctx).Iter()

	variants := []models.Variant{}
	var v models.Variant
	for iter.Scan(&v.ID, &v.Name, &v.Type, &v.Price, &v.Stock, &v.SKU, &v.UpdatedAt) {
		v.ProductID = productID
		variants = append(variants, v)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture variantes %s: %w", productID, err)
	}
	return variants, nil
}

// ListProducts retourne les produits actifs, filtrés par catégorie si elle est renseignée
func (s *Store) ListProducts(ctx context.Context, category string) ([]models.Product, error) {
	category = strings.ToLower(strings.TrimSpace(category))

	iter := s.session.Query(qSelectProducts).WithContext(ctx).Iter()
	products := []models.Product{}
	var p models.Product
	for iter.Scan(&p.ID, &p.Name, &p.Category, &p.Notes, &p.Image, &p.IsActive,
		&p.LowStockThreshold, &p.CreatedAt, &p.UpdatedAt) {
		if !p.IsActive || (category != "" && p.Category != category) {
			continue
		}
		products = append(products, p)
		p = models.Product{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("liste produits: %w", err)
	}

	for i := range products {
		vs, err := s.variants(ctx, products[i].ID)
		if err != nil {
			return nil, err
		}
		products[i].Variants = vs
	}

	sort.Slice(products, func(i, j int) bool { return products[i].CreatedAt.After(products[j].CreatedAt) })
	return products, nil
}

// ValidateProduct vérifie un produit avant création
func ValidateProduct(p *models.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: nom requis", ErrInvalidProduct)
	}
	if !models.IsValidCategory(p.Category) {
		return fmt.Errorf("%w: catégorie %q inconnue", ErrInvalidProduct, p.Category)
	}
	if len(p.Variants) == 0 {
		return fmt.Errorf("%w: au moins une variante requise", ErrInvalidProduct)
	}
	for _, v := range p.Variants {
		if strings.TrimSpace(v.Name) == "" {
			return fmt.Errorf("%w: nom de variante requis", ErrInvalidProduct)
		}
		if !models.IsValidVariantType(v.Type) {
			return fmt.Errorf("%w: type de variante %q inconnu", ErrInvalidProduct, v.Type)
		}
		if v.Price < 0 {
			return fmt.Errorf("%w: prix négatif pour %s", ErrInvalidProduct, v.Name)
		}
		if v.Stock < 0 {
			return fmt.Errorf("%w: stock négatif pour %s", ErrInvalidProduct, v.Name)
		}
	}
	return nil
}

// CreateProduct insère le produit et ses variantes dans un batch logué
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	if err := ValidateProduct(p); err != nil {
		return err
	}

	now := s.now()
	p.ID = gocql.TimeUUID()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.Notes == nil {
		p.Notes = []string{}
	}

	batch := s.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	batch.Query(qInsertProduct, p.ID, p.Name, p.Category, p.Notes, p.Image, p.IsActive,
		p.LowStockThreshold, p.CreatedAt, p.UpdatedAt)
	for i := range p.Variants {
		v := &p.Variants[i]
		v.ID = gocql.TimeUUID()
		v.ProductID = p.ID
		v.UpdatedAt = now
		batch.Query(qInsertVariant, p.ID, v.ID, v.Name, v.Type, v.Price, v.Stock, v.SKU, v.UpdatedAt)
	}

	if err := s.session.ExecuteBatch(batch); err != nil {
		return fmt.Errorf("création produit: %w", err)
	}
	log.Printf("✅ Produit créé: %s (%d variantes)", p.Name, len(p.Variants))
	return nil
}

// SetImage enregistre la clé MinIO de l'image du produit
func (s *Store) SetImage(ctx context.Context, productID gocql.UUID, key string) error {
	if err := s.session.Query(qUpdateProductImage, key, s.now(), productID).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("mise à jour image: %w", err)
	}
	s.changed(productID)
	return nil
}

// ReadStock lit le stock courant d'une variante
func (s *Store) ReadStock(ctx context.Context, productID, variantID gocql.UUID) (int, error) {
	var stock int
	err := s.session.Query(qSelectStock, productID, variantID).WithContext(ctx).Scan(&stock)
	if errors.Is(err, gocql.ErrNotFound) {
		return 0, ErrVariantNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("lecture stock: %w", err)
	}
	return stock, nil
}

// CompareAndSetStock exécute la lightweight transaction sur le stock
func (s *Store) CompareAndSetStock(ctx context.Context, productID, variantID gocql.UUID, expected, next int) (bool, int, error) {
	previous := map[string]interface{}{}
	applied, err := s.session.Query(qCASStock, next, s.now(), productID, variantID, expected).
		WithContext(ctx).MapScanCAS(previous)
	if err != nil {
		return false, 0, fmt.Errorf("écriture stock: %w", err)
	}
	if applied {
		return true, next, nil
	}

	current, ok := previous["stock"].(int)
	if !ok {
		// la ligne n'existe plus
		return false, 0, ErrVariantNotFound
	}
	return false, current, nil
}

// StockChange - résultat d'une opération sur le stock
type StockChange struct {
	ProductID gocql.UUID
	VariantID gocql.UUID
	Type      string
	Quantity  int
	Prev      int
	New       int
	Reason    string
	UserID    string
}

// Reserve décrémente le stock de qty si au moins qty unités sont disponibles
func (s *Store) Reserve(ctx context.Context, p *models.Product, variantID gocql.UUID, qty int) (StockChange, error) {
	return s.apply(ctx, p, variantID, StockChange{Type: models.MovementSale, Quantity: qty}, decrement(qty))
}

// Release restitue qty unités (commande échouée ou annulée)
func (s *Store) Release(ctx context.Context, p *models.Product, variantID gocql.UUID, qty int) (StockChange, error) {
	return s.apply(ctx, p, variantID, StockChange{Type: models.MovementRelease, Quantity: qty}, increment(qty))
}

// UpdateStock - opération admin : restock (+quantity) ou adjustment (valeur absolue)
func (s *Store) UpdateStock(ctx context.Context, p *models.Product, variantID gocql.UUID, kind string, quantity int, reason, userID string) (StockChange, error) {
	change := StockChange{Type: kind, Quantity: quantity, Reason: reason, UserID: userID}
	switch kind {
	case models.MovementRestock:
		if quantity <= 0 {
			return StockChange{}, fmt.Errorf("%w: quantité de réassort invalide", ErrInvalidProduct)
		}
		return s.apply(ctx, p, variantID, change, increment(quantity))
	case models.MovementAdjustment:
		return s.apply(ctx, p, variantID, change, absolute(quantity))
	default:
		return StockChange{}, fmt.Errorf("%w: type d'opération %q", ErrInvalidProduct, kind)
	}
}

func (s *Store) apply(ctx context.Context, p *models.Product, variantID gocql.UUID, change StockChange, fn stockFunc) (StockChange, error) {
	change.ProductID = p.ID
	change.VariantID = variantID

	var prev, next int
	var err error
	if change.Type == models.MovementRelease {
		prev, next, err = casUntilApplied(ctx, s, p.ID, variantID, fn)
	} else {
		prev, next, err = casUpdate(ctx, s, p.ID, variantID, s.attempts, fn)
	}
	change.Prev, change.New = prev, next
	if err != nil {
		return change, err
	}

	// journal et alertes : hors du chemin critique, sans annuler l'écriture
	bg := context.WithoutCancel(ctx)
	s.recordMovement(bg, change)
	s.checkLowStock(bg, p, change)
	s.changed(p.ID)
	return change, nil
}

func (s *Store) recordMovement(ctx context.Context, ch StockChange) {
	err := s.session.Query(qInsertMovement,
		ch.ProductID, gocql.TimeUUID(), ch.VariantID, ch.Type, ch.Quantity,
		ch.Prev, ch.New, ch.Reason, ch.UserID, s.now(),
	).WithContext(ctx).Exec()
	if err != nil {
		log.Printf("⚠️ Erreur enregistrement mouvement stock: %v", err)
	}
}

// checkLowStock crée une alerte si le stock passe sous le seuil, et résout l'alerte ouverte s'il remonte
func (s *Store) checkLowStock(ctx context.Context, p *models.Product, ch StockChange) {
	var openID gocql.UUID
	err := s.session.Query(qSelectOpenAlert, ch.ProductID, ch.VariantID).WithContext(ctx).Scan(&openID)
	hasOpen := err == nil
	if err != nil && !errors.Is(err, gocql.ErrNotFound) {
		log.Printf("⚠️ Erreur lecture alertes stock: %v", err)
		return
	}

	alertType := models.AlertTypeFor(ch.New, p.LowStockThreshold)
	switch {
	case alertType == "" && hasOpen:
		if err := s.session.Query(qResolveAlert, s.now(), ch.ProductID, openID).WithContext(ctx).Exec(); err != nil {
			log.Printf("⚠️ Erreur résolution alerte stock: %v", err)
		}
	case alertType != "" && !hasOpen:
		err := s.session.Query(qInsertAlert,
			ch.ProductID, gocql.TimeUUID(), ch.VariantID, p.Name, ch.New,
			p.LowStockThreshold, alertType, false, s.now(),
		).WithContext(ctx).Exec()
		if err != nil {
			log.Printf("⚠️ Erreur création alerte stock: %v", err)
			return
		}
		log.Printf("⚠️ Alerte stock %s pour %s: %d restant(s)", alertType, p.Name, ch.New)
	}
}

// Movements retourne l'historique des mouvements d'un produit, du plus récent au plus ancien
func (s *Store) Movements(ctx context.Context, productID gocql.UUID, limit int) ([]models.StockMovement, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	iter := s.session.Query(qSelectMovements, productID, limit).WithContext(ctx).Iter()

	movements := []models.StockMovement{}
	var m models.StockMovement
	for iter.Scan(&m.ProductID, &m.ID, &m.VariantID, &m.Type, &m.Quantity,
		&m.PrevStock, &m.NewStock, &m.Reason, &m.UserID, &m.CreatedAt) {
		movements = append(movements, m)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture mouvements: %w", err)
	}
	return movements, nil
}

// Alerts retourne les alertes de stock d'un produit, ouvertes seulement si openOnly
func (s *Store) Alerts(ctx context.Context, productID gocql.UUID, openOnly bool) ([]models.StockAlert, error) {
	iter := s.session.Query(qSelectAlerts, productID).WithContext(ctx).Iter()

	alerts := []models.StockAlert{}
	var a models.StockAlert
	for iter.Scan(&a.ProductID, &a.ID, &a.VariantID, &a.ProductName, &a.CurrentStock,
		&a.ThresholdStock, &a.AlertType, &a.IsResolved, &a.CreatedAt) {
		if !openOnly || !a.IsResolved {
			alerts = append(alerts, a)
		}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture alertes: %w", err)
	}
	return alerts, nil
}

func (s *Store) changed(productID gocql.UUID) {
	if s.onChange != nil {
		s.onChange(productID)
	}
}
