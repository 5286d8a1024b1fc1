package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"essence_back_end/internal/models"
)

const (
	EventOrderPlaced        = "order.placed"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderEvent - message publié sur le canal du client
type OrderEvent struct {
	Type           string             `json:"type"`
	OrderID        string             `json:"order_id"`
	Status         models.OrderStatus `json:"status"`
	PreviousStatus models.OrderStatus `json:"previous_status,omitempty"`
	Total          float64            `json:"total"`
	At             time.Time          `json:"at"`
}

func OrderChannel(userID string) string { return "orders:" + userID }

// OrderEvents publie les événements de commande sur Redis pub/sub
type OrderEvents struct {
	rdb redis.UniversalClient
}

func NewOrderEvents(rdb redis.UniversalClient) *OrderEvents {
	return &OrderEvents{rdb: rdb}
}

func (e *OrderEvents) Publish(ctx context.Context, userID string, ev OrderEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return e.rdb.Publish(ctx, OrderChannel(userID), data).Err()
}

// Subscribe s'abonne au canal d'un client. L'appelant ferme l'abonnement.
func (e *OrderEvents) Subscribe(ctx context.Context, userID string) *redis.PubSub {
	return e.rdb.Subscribe(ctx, OrderChannel(userID))
}
