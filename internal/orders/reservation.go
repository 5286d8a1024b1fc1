package orders

import (
	"context"
	"errors"
	"log"
	"sync"

	"essence_back_end/internal/models"
)

// ReservedLine - ligne dont le stock est déjà décrémenté
type ReservedLine struct {
	Item      SellableItem
	OrderItem models.OrderItem
}

// Reservation regroupe les décréments d'une même commande.
// Tant qu'elle n'est pas validée (Commit), Release restitue tout le stock pris.
type Reservation struct {
	mu       sync.Mutex
	lines    []ReservedLine
	finished bool
}

func (r *Reservation) add(line ReservedLine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
}

// Lines retourne une copie des lignes réservées
func (r *Reservation) Lines() []ReservedLine {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ReservedLine(nil), r.lines...)
}

// Items retourne les instantanés de commande des lignes réservées
func (r *Reservation) Items() []models.OrderItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]models.OrderItem, len(r.lines))
	for i, l := range r.lines {
		items[i] = l.OrderItem
	}
	return items
}

// Commit rend la réservation définitive
func (r *Reservation) Commit() {
	r.mu.Lock()
	r.finished = true
	r.mu.Unlock()
}

// Release restitue le stock dans l'ordre inverse des réservations.
// Sans effet après Commit ou un premier Release.
func (r *Reservation) Release(ctx context.Context) error {
	r.mu.Lock()
	if r.finished {
		r.mu.Unlock()
		return nil
	}
	r.finished = true
	lines := r.lines
	r.mu.Unlock()

	// La compensation doit aller au bout même si la requête est annulée
	ctx = context.WithoutCancel(ctx)

	var errs []error
	for i := len(lines) - 1; i >= 0; i-- {
		l := lines[i]
		if err := l.Item.Release(ctx, l.OrderItem.Quantity); err != nil {
			log.Printf("❌ Échec restitution stock %s/%s (%d): %v",
				l.Item.ProductID(), l.Item.VariantID(), l.OrderItem.Quantity, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
