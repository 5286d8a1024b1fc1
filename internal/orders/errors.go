package orders

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart              = errors.New("le panier est vide")
	ErrMissingCustomerDetails = errors.New("coordonnées client incomplètes (nom, email, téléphone et adresse requis)")
	ErrInvalidQuantity        = errors.New("quantité invalide")
	ErrInvalidPrice           = errors.New("prix invalide")
	ErrInvalidStatus          = errors.New("statut de commande invalide")
	ErrInvalidTransition      = errors.New("transition de statut non autorisée")
	ErrProductNotFound        = errors.New("produit introuvable")
	ErrVariantNotFound        = errors.New("variante introuvable")
	ErrOrderNotFound          = errors.New("commande introuvable")
	ErrInsufficientStock      = errors.New("stock insuffisant")
	ErrStockContention        = errors.New("stock modifié simultanément, veuillez réessayer")
	ErrStatusConflict         = errors.New("la commande a été modifiée entre-temps")

	// ErrNotInSource est renvoyé par un Resolver quand l'ID ne lui appartient pas
	ErrNotInSource = errors.New("article absent de cette source")
)

// LookupError - produit ou variante introuvable
type LookupError struct {
	ProductID string
	VariantID string
	Err       error
}

func (e *LookupError) Error() string {
	if e.VariantID != "" && errors.Is(e.Err, ErrVariantNotFound) {
		return fmt.Sprintf("%v: variante %s du produit %s", e.Err, e.VariantID, e.ProductID)
	}
	return fmt.Sprintf("%v: %s", e.Err, e.ProductID)
}

func (e *LookupError) Unwrap() error { return e.Err }

// StockError - quantité demandée supérieure au stock disponible
type StockError struct {
	ProductID string
	VariantID string
	Name      string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	name := e.Name
	if name == "" {
		name = e.ProductID
	}
	return fmt.Sprintf("%v pour %s: demandé %d, disponible %d", ErrInsufficientStock, name, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

// TransitionError - passage de statut refusé par la table des transitions
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%v: %s → %s", ErrInvalidTransition, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindClientInput
	KindNotFound
	KindBusinessRule
	KindConflict
)

// Kind classe une erreur pour la couche HTTP
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrEmptyCart),
		errors.Is(err, ErrMissingCustomerDetails),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInvalidPrice),
		errors.Is(err, ErrInvalidStatus):
		return KindClientInput
	case errors.Is(err, ErrProductNotFound),
		errors.Is(err, ErrVariantNotFound),
		errors.Is(err, ErrOrderNotFound):
		return KindNotFound
	case errors.Is(err, ErrInsufficientStock):
		return KindBusinessRule
	case errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrStockContention),
		errors.Is(err, ErrStatusConflict):
		return KindConflict
	default:
		return KindInternal
	}
}
