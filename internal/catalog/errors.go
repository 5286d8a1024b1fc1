package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound   = errors.New("produit non trouvé")
	ErrVariantNotFound   = errors.New("variante non trouvée")
	ErrInsufficientStock = errors.New("stock insuffisant")
	ErrNegativeStock     = errors.New("le stock ne peut pas être négatif")
	ErrContention        = errors.New("conflit de mise à jour du stock")
	ErrInvalidProduct    = errors.New("produit invalide")
)

// ShortageError - décrément refusé, le stock courant est trop bas
type ShortageError struct {
	Requested int
	Available int
}

func (e *ShortageError) Error() string {
	return fmt.Sprintf("%v: demandé %d, disponible %d", ErrInsufficientStock, e.Requested, e.Available)
}

func (e *ShortageError) Unwrap() error { return ErrInsufficientStock }
