package order

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

const (
	pingPeriod = 30 * time.Second
	writeWait  = 10 * time.Second
)

// Subscriber ouvre un abonnement aux événements de commande d'un client
type Subscriber interface {
	Subscribe(ctx context.Context, userID string) *redis.PubSub
}

var upgrader = websocket.Upgrader{
	// Les origines sont déjà filtrées par CORS et le token est exigé
	CheckOrigin: func(r *http.Request) bool { return true },
}

// OrderStatusWebSocket - GET /orders/ws : pousse au client les changements de ses commandes
func (h *Handler) OrderStatusWebSocket(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}
	if h.events == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Notifications indisponibles"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ Erreur upgrade WebSocket: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubsub := h.events.Subscribe(ctx, userID)
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		log.Printf("❌ Erreur abonnement Redis pour %s: %v", userID, err)
		return
	}
	ch := pubsub.Channel()

	// Lecture en tâche de fond : détecte la fermeture côté client
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(gin.H{"type": "connected", "message": "Suivi des commandes activé"}); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, json.RawMessage(msg.Payload)); err != nil {
				log.Printf("❌ Erreur envoi WebSocket: %v", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
