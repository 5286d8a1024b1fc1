package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"
)

// DefaultCASAttempts - nombre d'essais compare-and-set avant d'abandonner
const DefaultCASAttempts = 5

// Pause entre deux essais d'une restitution, doublée à chaque conflit
const (
	releaseBackoffMin = time.Millisecond
	releaseBackoffMax = 20 * time.Millisecond
)

// stockCAS - accès au stock d'une variante par lightweight transaction
type stockCAS interface {
	ReadStock(ctx context.Context, productID, variantID gocql.UUID) (int, error)
	// CompareAndSetStock écrit next seulement si le stock vaut encore expected.
	// Si ce n'est pas le cas, current contient la valeur lue par Scylla.
	CompareAndSetStock(ctx context.Context, productID, variantID gocql.UUID, expected, next int) (applied bool, current int, err error)
}

// stockFunc calcule le nouveau stock à partir du stock courant
type stockFunc func(current int) (int, error)

func decrement(qty int) stockFunc {
	return func(current int) (int, error) {
		if current < qty {
			return 0, &ShortageError{Requested: qty, Available: current}
		}
		return current - qty, nil
	}
}

func increment(qty int) stockFunc {
	return func(current int) (int, error) { return current + qty, nil }
}

func absolute(value int) stockFunc {
	return func(int) (int, error) {
		if value < 0 {
			return 0, ErrNegativeStock
		}
		return value, nil
	}
}

// casUpdate applique fn au stock par compare-and-set, en relisant la valeur
// renvoyée par Scylla à chaque conflit. Aucun verrou n'est pris : au-delà de
// attempts conflits on échoue avec ErrContention.
func casUpdate(ctx context.Context, c stockCAS, productID, variantID gocql.UUID, attempts int, fn stockFunc) (prev, next int, err error) {
	if attempts <= 0 {
		attempts = DefaultCASAttempts
	}

	current, err := c.ReadStock(ctx, productID, variantID)
	if err != nil {
		return 0, 0, err
	}

	for i := 0; i < attempts; i++ {
		next, err = fn(current)
		if err != nil {
			return current, current, err
		}

		applied, seen, err := c.CompareAndSetStock(ctx, productID, variantID, current, next)
		if err != nil {
			return current, current, err
		}
		if applied {
			return current, next, nil
		}
		current = seen
	}
	return current, current, fmt.Errorf("%w après %d essais", ErrContention, attempts)
}

// casUntilApplied applique fn jusqu'à ce que l'écriture passe, pour les
// restitutions. Seul ctx borne les essais.
func casUntilApplied(ctx context.Context, c stockCAS, productID, variantID gocql.UUID, fn stockFunc) (prev, next int, err error) {
	current, err := c.ReadStock(ctx, productID, variantID)
	if err != nil {
		return 0, 0, err
	}

	backoff := releaseBackoffMin
	for tries := 1; ; tries++ {
		next, err = fn(current)
		if err != nil {
			return current, current, err
		}

		applied, seen, err := c.CompareAndSetStock(ctx, productID, variantID, current, next)
		if err != nil {
			return current, current, err
		}
		if applied {
			return current, next, nil
		}
		current = seen

		select {
		case <-ctx.Done():
			return current, current, fmt.Errorf("%w après %d essais: %v", ErrContention, tries, ctx.Err())
		case <-time.After(backoff):
		}
		if backoff < releaseBackoffMax {
			backoff *= 2
		}
	}
}
