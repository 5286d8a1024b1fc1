package order

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"essence_back_end/internal/models"
	"essence_back_end/internal/orders"
)

// OrderService - opérations de commande utilisées par les routes HTTP
type OrderService interface {
	PlaceOrder(ctx context.Context, userID string, req orders.PlaceOrderRequest) (*models.Order, error)
	SetOrderStatus(ctx context.Context, orderID, status, actor string) (*models.Order, error)
	ListOrdersForUser(ctx context.Context, userID string) ([]models.Order, error)
	GetOrder(ctx context.Context, orderID, userID string) (*models.Order, error)
	ListAllOrders(ctx context.Context, status, search string) ([]models.Order, error)
}

type Handler struct {
	orders OrderService
	events Subscriber
}

func NewHandler(svc OrderService, events Subscriber) *Handler {
	return &Handler{orders: svc, events: events}
}

// respondError traduit une erreur métier en réponse HTTP.
// Les erreurs internes sont journalisées et masquées au client.
func respondError(c *gin.Context, err error) {
	switch orders.Kind(err) {
	case orders.KindClientInput, orders.KindBusinessRule:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case orders.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case orders.KindConflict:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Printf("❌ Erreur commande %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur, veuillez réessayer"})
	}
}

// CreateOrder - POST /orders
func (h *Handler) CreateOrder(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
		return
	}

	var req orders.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Requête invalide"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	order, err := h.orders.PlaceOrder(ctx, userID, req)
	if err != nil {
		// Un article introuvable dans le panier est une erreur de saisie
		if orders.Kind(err) == orders.KindNotFound {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GetMyOrders - GET /orders
func (h *Handler) GetMyOrders(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	list, err := h.orders.ListOrdersForUser(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list})
}

// GetOrderByID - GET /orders/:id, limité au propriétaire
func (h *Handler) GetOrderByID(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	order, err := h.orders.GetOrder(ctx, c.Param("id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// AdminListOrders - GET /orders/admin/all?status=&search=
func (h *Handler) AdminListOrders(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	list, err := h.orders.ListAllOrders(ctx, c.Query("status"), c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list, "count": len(list)})
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateOrderStatus - PUT /orders/:id/status
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Statut requis"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	order, err := h.orders.SetOrderStatus(ctx, c.Param("id"), req.Status, c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
