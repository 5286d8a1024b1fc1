package orders

import (
	"context"
	"sort"
	"sync"

	"essence_back_end/internal/models"
)

type fakeEntry struct {
	variantID string
	name      string
	price     float64
}

// fakeResolver garde son stock en mémoire ; Reserve est un décrément conditionnel sous verrou
type fakeResolver struct {
	name       string
	mu         sync.Mutex
	entries    map[string][]fakeEntry
	stock      map[string]int
	inactive   map[string]bool
	releaseErr error
}

func newFakeResolver(name string) *fakeResolver {
	return &fakeResolver{name: name, entries: map[string][]fakeEntry{}, stock: map[string]int{}, inactive: map[string]bool{}}
}

func stockKey(productID, variantID string) string { return productID + "/" + variantID }

func (r *fakeResolver) add(productID, variantID, name string, price float64, stock int) *fakeResolver {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[productID] = append(r.entries[productID], fakeEntry{variantID: variantID, name: name, price: price})
	r.stock[stockKey(productID, variantID)] = stock
	return r
}

func (r *fakeResolver) stockOf(productID, variantID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stock[stockKey(productID, variantID)]
}

func (r *fakeResolver) deactivate(productID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inactive[productID] = true
}

func (r *fakeResolver) Name() string { return r.name }

func (r *fakeResolver) Resolve(ctx context.Context, productID, variantID string) (SellableItem, error) {
	return r.resolve(ctx, productID, variantID, false)
}

func (r *fakeResolver) ResolveForRelease(ctx context.Context, productID, variantID string) (SellableItem, error) {
	return r.resolve(ctx, productID, variantID, true)
}

func (r *fakeResolver) resolve(_ context.Context, productID, variantID string, includeInactive bool) (SellableItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries, ok := r.entries[productID]
	if !ok {
		return nil, ErrNotInSource
	}
	if r.inactive[productID] && !includeInactive {
		return nil, &LookupError{ProductID: productID, Err: ErrProductNotFound}
	}
	if r.name == models.SourceOffer {
		return &fakeItem{r: r, productID: productID, entry: entries[0]}, nil
	}
	for _, e := range entries {
		if e.variantID == variantID {
			return &fakeItem{r: r, productID: productID, entry: e}, nil
		}
	}
	return nil, &LookupError{ProductID: productID, VariantID: variantID, Err: ErrVariantNotFound}
}

type fakeItem struct {
	r         *fakeResolver
	productID string
	entry     fakeEntry
}

func (i *fakeItem) key() string         { return stockKey(i.productID, i.entry.variantID) }
func (i *fakeItem) Source() string      { return i.r.name }
func (i *fakeItem) ProductID() string   { return i.productID }
func (i *fakeItem) VariantID() string   { return i.entry.variantID }
func (i *fakeItem) DisplayName() string { return i.entry.name }
func (i *fakeItem) Price() float64      { return i.entry.price }
func (i *fakeItem) Available() int      { return i.r.stockOf(i.productID, i.entry.variantID) }

func (i *fakeItem) Reserve(_ context.Context, qty int) error {
	i.r.mu.Lock()
	defer i.r.mu.Unlock()
	current := i.r.stock[i.key()]
	if current < qty {
		return &StockError{ProductID: i.productID, VariantID: i.entry.variantID, Name: i.entry.name, Requested: qty, Available: current}
	}
	i.r.stock[i.key()] = current - qty
	return nil
}

func (i *fakeItem) Release(_ context.Context, qty int) error {
	i.r.mu.Lock()
	defer i.r.mu.Unlock()
	if i.r.releaseErr != nil {
		return i.r.releaseErr
	}
	i.r.stock[i.key()] += qty
	return nil
}

func (i *fakeItem) Snapshot() models.OrderItem {
	return models.OrderItem{
		ProductID:   i.productID,
		VariantID:   i.entry.variantID,
		Source:      i.r.name,
		ProductName: i.entry.name,
		Price:       i.entry.price,
	}
}

type fakeStore struct {
	mu        sync.Mutex
	orders    map[string]*models.Order
	createErr error
}

func newFakeStore() *fakeStore { return &fakeStore{orders: map[string]*models.Order{}} }

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *fakeStore) Create(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	cp := *order
	s.orders[order.ID.Hex()] = &cp
	return nil
}

func (s *fakeStore) FindByID(_ context.Context, id string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *fakeStore) FindByUser(_ context.Context, userID string) ([]models.Order, error) {
	return s.filter(func(o *models.Order) bool { return o.UserID == userID }), nil
}

func (s *fakeStore) FindAll(_ context.Context, f Filter) ([]models.Order, error) {
	return s.filter(func(o *models.Order) bool { return f.Status == "" || o.Status == f.Status }), nil
}

func (s *fakeStore) filter(keep func(*models.Order) bool) []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Order{}
	for _, o := range s.orders {
		if keep(o) {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *fakeStore) UpdateStatus(_ context.Context, id string, from models.OrderStatus, change models.StatusChange) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	if o.Status != from {
		return nil, ErrStatusConflict
	}
	o.Status = change.To
	o.UpdatedAt = change.ChangedAt
	o.StatusHistory = append(o.StatusHistory, change)
	cp := *o
	return &cp, nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	placed  []string
	changed []models.OrderStatus
}

func (n *fakeNotifier) OrderPlaced(_ context.Context, order *models.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.placed = append(n.placed, order.ID.Hex())
}

func (n *fakeNotifier) StatusChanged(_ context.Context, order *models.Order, _ models.OrderStatus) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changed = append(n.changed, order.Status)
}
