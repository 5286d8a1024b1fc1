package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Types de mouvements de stock
const (
	MovementSale       = "sale"
	MovementRelease    = "release"
	MovementRestock    = "restock"
	MovementAdjustment = "adjustment"
)

// Types d'alertes de stock
const (
	AlertLowStock   = "low_stock"
	AlertOutOfStock = "out_of_stock"
)

type StockMovement struct {
	ID        gocql.UUID `json:"id"`
	ProductID gocql.UUID `json:"product_id"`
	VariantID gocql.UUID `json:"variant_id"`
	Type      string     `json:"type"`
	Quantity  int        `json:"quantity"`
	PrevStock int        `json:"prev_stock"`
	NewStock  int        `json:"new_stock"`
	Reason    string     `json:"reason"`
	UserID    string     `json:"user_id"`
	CreatedAt time.Time  `json:"created_at"`
}

type StockAlert struct {
	ID             gocql.UUID `json:"id"`
	ProductID      gocql.UUID `json:"product_id"`
	VariantID      gocql.UUID `json:"variant_id"`
	ProductName    string     `json:"product_name"`
	CurrentStock   int        `json:"current_stock"`
	ThresholdStock int        `json:"threshold_stock"`
	AlertType      string     `json:"alert_type"`
	IsResolved     bool       `json:"is_resolved"`
	CreatedAt      time.Time  `json:"created_at"`
}

// AlertTypeFor retourne le type d'alerte pour un niveau de stock, ou "" si aucun
func AlertTypeFor(stock, threshold int) string {
	switch {
	case stock <= 0:
		return AlertOutOfStock
	case stock <= threshold:
		return AlertLowStock
	default:
		return ""
	}
}
