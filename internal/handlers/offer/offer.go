package offer

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"essence_back_end/internal/models"
	"essence_back_end/internal/offers"
)

type Store interface {
	List(ctx context.Context, activeOnly bool) ([]models.Offer, error)
	Create(ctx context.Context, o *models.Offer) error
	SetQuantity(ctx context.Context, id string, qty int) (*models.Offer, error)
}

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

func respondOfferError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, offers.ErrOfferNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Offre non trouvée"})
	case errors.Is(err, offers.ErrInvalidOffer):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("❌ Erreur offres %s: %v", c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
	}
}

// GetOffers - GET /offers : offres actives
func (h *Handler) GetOffers(c *gin.Context) {
	h.list(c, true)
}

// AdminGetOffers - GET /offers/all (admin) : toutes les offres, inactives comprises
func (h *Handler) AdminGetOffers(c *gin.Context) {
	h.list(c, false)
}

func (h *Handler) list(c *gin.Context, activeOnly bool) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	list, err := h.store.List(ctx, activeOnly)
	if err != nil {
		respondOfferError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offers": list, "count": len(list)})
}

// CreateOffer - POST /offers (admin)
func (h *Handler) CreateOffer(c *gin.Context) {
	var o models.Offer
	if err := c.ShouldBindJSON(&o); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Requête invalide"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.store.Create(ctx, &o); err != nil {
		respondOfferError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

type quantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// UpdateQuantity - PUT /offers/:id/quantity (admin)
func (h *Handler) UpdateQuantity(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Champ 'quantity' requis"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	o, err := h.store.SetQuantity(ctx, c.Param("id"), *req.Quantity)
	if err != nil {
		respondOfferError(c, err)
		return
	}
	log.Printf("📦 Offre %s: quantité fixée à %d", o.ItemName, o.Quantity)
	c.JSON(http.StatusOK, o)
}
