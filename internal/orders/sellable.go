package orders

import (
	"context"

	"essence_back_end/internal/models"
)

// Line - une ligne de panier envoyée par le client
type Line struct {
	ProductID   string   `json:"productId"`
	VariantID   string   `json:"variantId"`
	Quantity    int      `json:"quantity"`
	Price       *float64 `json:"price,omitempty"`
	ProductName string   `json:"productName,omitempty"`
	VariantName string   `json:"variantName,omitempty"`
	Image       string   `json:"image,omitempty"`
}

// SellableItem - article résolu depuis une source d'inventaire (variante du catalogue ou offre).
// Reserve est un décrément conditionnel atomique : il échoue avec *StockError
// si le stock courant est inférieur à qty, sans rien modifier.
type SellableItem interface {
	Source() string
	ProductID() string
	VariantID() string
	DisplayName() string
	Price() float64
	Available() int
	Reserve(ctx context.Context, qty int) error
	Release(ctx context.Context, qty int) error
	// Snapshot retourne l'identité, les libellés et le prix serveur, sans quantité
	Snapshot() models.OrderItem
}

// Resolver cherche un article dans une source.
// ErrNotInSource signale que l'ID n'appartient pas à la source (on passe à la suivante),
// toute autre erreur arrête la résolution.
type Resolver interface {
	Name() string
	Resolve(ctx context.Context, productID, variantID string) (SellableItem, error)
}

// ReleaseResolver retrouve un article pour lui rendre du stock, même s'il a
// été désactivé depuis la commande. Resolve sert de repli pour les sources
// qui ne l'implémentent pas.
type ReleaseResolver interface {
	ResolveForRelease(ctx context.Context, productID, variantID string) (SellableItem, error)
}
