package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "Pending"
	StatusProcessing OrderStatus = "Processing"
	StatusShipped    OrderStatus = "Shipped"
	StatusDelivered  OrderStatus = "Delivered"
	StatusCancelled  OrderStatus = "Cancelled"
)

// OrderStatuses liste les statuts dans l'ordre du cycle de vie
var OrderStatuses = []OrderStatus{
	StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled,
}

// ParseOrderStatus accepte un statut sans tenir compte de la casse
func ParseOrderStatus(s string) (OrderStatus, bool) {
	s = strings.TrimSpace(s)
	for _, st := range OrderStatuses {
		if strings.EqualFold(s, string(st)) {
			return st, true
		}
	}
	return "", false
}

// IsTerminal indique qu'aucune transition n'est possible depuis ce statut
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Sources d'une ligne de commande
const (
	SourceCatalog = "catalog"
	SourceOffer   = "offer"
)

// CustomerDetails - copie des coordonnées au moment de la commande
type CustomerDetails struct {
	Name    string `bson:"name" json:"name"`
	Email   string `bson:"email" json:"email"`
	Phone   string `bson:"phone" json:"phone"`
	Address string `bson:"address" json:"address"`
}

// OrderItem - instantané figé d'une variante ou d'une offre au moment de la commande
type OrderItem struct {
	ProductID   string  `bson:"productId" json:"product_id"`
	VariantID   string  `bson:"variantId,omitempty" json:"variant_id,omitempty"`
	Source      string  `bson:"source" json:"source"`
	SKU         string  `bson:"sku,omitempty" json:"sku,omitempty"`
	ProductName string  `bson:"productName" json:"product_name"`
	VariantName string  `bson:"variantName,omitempty" json:"variant_name,omitempty"`
	Image       string  `bson:"image,omitempty" json:"image,omitempty"`
	Price       float64 `bson:"price" json:"price"`
	Quantity    int     `bson:"quantity" json:"quantity"`
	LineTotal   float64 `bson:"lineTotal" json:"line_total"`
}

type StatusChange struct {
	From      OrderStatus `bson:"from" json:"from"`
	To        OrderStatus `bson:"to" json:"to"`
	ChangedBy string      `bson:"changedBy,omitempty" json:"changed_by,omitempty"`
	ChangedAt time.Time   `bson:"changedAt" json:"changed_at"`
}

type Order struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        string             `bson:"userId" json:"user_id"`
	Customer      CustomerDetails    `bson:"customer" json:"customer"`
	Items         []OrderItem        `bson:"items" json:"items"`
	Total         float64            `bson:"total" json:"total"`
	Status        OrderStatus        `bson:"status" json:"status"`
	StatusHistory []StatusChange     `bson:"statusHistory,omitempty" json:"status_history,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"date"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updated_at"`
}
