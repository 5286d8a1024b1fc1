package product

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
)

type stockRequest struct {
	Type     string `json:"type" binding:"required"`
	Quantity *int   `json:"quantity" binding:"required"`
	Reason   string `json:"reason"`
}

// UpdateVariantStock - PUT /products/:id/variants/:variant_id/stock (admin)
// type "restock" ajoute quantity, type "adjustment" fixe le stock à quantity.
func (h *Handler) UpdateVariantStock(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	variantID, err := gocql.ParseUUID(c.Param("variant_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Variante non trouvée"})
		return
	}

	var req stockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Champs 'type' et 'quantity' requis"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	p, err := h.catalog.GetProduct(ctx, id)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	if p.FindVariant(variantID) == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Variante non trouvée"})
		return
	}

	change, err := h.catalog.UpdateStock(ctx, p, variantID, req.Type, *req.Quantity, req.Reason, c.GetString("user_id"))
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	log.Printf("📦 Stock %s/%s: %d → %d (%s)", p.Name, variantID, change.Prev, change.New, req.Type)
	c.JSON(http.StatusOK, gin.H{
		"product_id": p.ID,
		"variant_id": variantID,
		"type":       change.Type,
		"prev_stock": change.Prev,
		"new_stock":  change.New,
	})
}

// GetStockMovements - GET /products/:id/movements?limit= (admin)
func (h *Handler) GetStockMovements(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	movements, err := h.catalog.Movements(ctx, id, limit)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"movements": movements, "count": len(movements)})
}

// GetStockAlerts - GET /products/:id/alerts?all=true (admin)
func (h *Handler) GetStockAlerts(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	alerts, err := h.catalog.Alerts(ctx, id, c.Query("all") != "true")
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts, "count": len(alerts)})
}
