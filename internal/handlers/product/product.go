package product

import (
	"context"
	"errors"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"essence_back_end/internal/catalog"
	"essence_back_end/internal/models"
	"essence_back_end/internal/services"
)

// Catalog - lecture et écriture du catalogue ScyllaDB
type Catalog interface {
	GetProduct(ctx context.Context, id gocql.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, category string) ([]models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	SetImage(ctx context.Context, productID gocql.UUID, key string) error
	UpdateStock(ctx context.Context, p *models.Product, variantID gocql.UUID, kind string, quantity int, reason, userID string) (catalog.StockChange, error)
	Movements(ctx context.Context, productID gocql.UUID, limit int) ([]models.StockMovement, error)
	Alerts(ctx context.Context, productID gocql.UUID, openOnly bool) ([]models.StockAlert, error)
}

type Cache interface {
	Get(ctx context.Context, productID string) (*models.Product, bool)
	Set(ctx context.Context, p *models.Product)
	Invalidate(ctx context.Context, productID string)
}

type Searcher interface {
	Index(ctx context.Context, p *models.Product) error
	Search(ctx context.Context, query, category string, size int) ([]string, error)
}

type ImageStore interface {
	Upload(ctx context.Context, productID string, file *multipart.FileHeader) (string, error)
	PresignedURL(ctx context.Context, key string) (string, error)
}

// Handler - routes catalogue. cache, search et images sont optionnels.
type Handler struct {
	catalog Catalog
	cache   Cache
	search  Searcher
	images  ImageStore
}

func NewHandler(c Catalog, cache Cache, search Searcher, images ImageStore) *Handler {
	return &Handler{catalog: c, cache: cache, search: search, images: images}
}

// load lit un produit, d'abord dans Redis puis dans ScyllaDB
func (h *Handler) load(ctx context.Context, id gocql.UUID) (*models.Product, error) {
	if h.cache != nil {
		if p, ok := h.cache.Get(ctx, id.String()); ok {
			return p, nil
		}
	}
	p, err := h.catalog.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if h.cache != nil {
		h.cache.Set(ctx, p)
	}
	return p, nil
}

// withImageURL renseigne l'URL présignée de l'image, jamais mise en cache
func (h *Handler) withImageURL(ctx context.Context, p *models.Product) {
	if h.images == nil || p.Image == "" {
		return
	}
	u, err := h.images.PresignedURL(ctx, p.Image)
	if err != nil {
		log.Printf("⚠️ Erreur URL image %s: %v", p.ID, err)
		return
	}
	p.ImageURL = u
}

func parseID(c *gin.Context, param string) (gocql.UUID, bool) {
	id, err := gocql.ParseUUID(c.Param(param))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit non trouvé"})
		return gocql.UUID{}, false
	}
	return id, true
}

func respondCatalogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, catalog.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit non trouvé"})
	case errors.Is(err, catalog.ErrVariantNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Variante non trouvée"})
	case errors.Is(err, catalog.ErrInvalidProduct), errors.Is(err, catalog.ErrNegativeStock):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, catalog.ErrContention):
		c.JSON(http.StatusConflict, gin.H{"error": "Stock modifié simultanément, veuillez réessayer"})
	default:
		log.Printf("❌ Erreur catalogue %s: %v", c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
	}
}

// GetAllProducts - GET /products?category=
func (h *Handler) GetAllProducts(c *gin.Context) {
	category := strings.ToLower(strings.TrimSpace(c.Query("category")))
	if category != "" && !models.IsValidCategory(category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Catégorie inconnue"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	products, err := h.catalog.ListProducts(ctx, category)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	for i := range products {
		h.withImageURL(ctx, &products[i])
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "count": len(products)})
}

// GetProduct - GET /products/:id
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	p, err := h.load(ctx, id)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	if !p.IsActive && c.GetString("role") != models.RoleAdmin {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit non trouvé"})
		return
	}
	h.withImageURL(ctx, p)
	c.JSON(http.StatusOK, p)
}

// SearchProducts - GET /products/search?q=&category=
func (h *Handler) SearchProducts(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre 'q' requis"})
		return
	}
	if h.search == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Recherche indisponible"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	ids, err := h.search.Search(ctx, query, strings.ToLower(c.Query("category")), 20)
	if err != nil {
		log.Printf("❌ Erreur recherche %q: %v", query, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur recherche"})
		return
	}

	results := make([]models.Product, 0, len(ids))
	for _, raw := range ids {
		id, err := gocql.ParseUUID(raw)
		if err != nil {
			continue
		}
		p, err := h.load(ctx, id)
		if err != nil {
			// index en retard sur le catalogue
			continue
		}
		if !p.IsActive {
			continue
		}
		h.withImageURL(ctx, p)
		results = append(results, *p)
	}

	c.JSON(http.StatusOK, gin.H{"query": query, "products": results, "count": len(results)})
}

// CreateProduct - POST /products (admin)
func (h *Handler) CreateProduct(c *gin.Context) {
	var p models.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Requête invalide"})
		return
	}
	p.Category = strings.ToLower(strings.TrimSpace(p.Category))

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.catalog.CreateProduct(ctx, &p); err != nil {
		respondCatalogError(c, err)
		return
	}

	// 🔄 Indexation Elasticsearch
	if h.search != nil {
		doc := p
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := h.search.Index(ctx, &doc); err != nil {
				log.Printf("⚠️ Erreur indexation %s: %v", doc.Name, err)
			}
		}()
	}

	c.JSON(http.StatusCreated, p)
}

// UploadImage - POST /products/:id/image (admin, multipart "image")
func (h *Handler) UploadImage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if h.images == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Stockage d'images indisponible"})
		return
	}
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fichier 'image' requis"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	p, err := h.catalog.GetProduct(ctx, id)
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	key, err := h.images.Upload(ctx, p.ID.String(), file)
	if err != nil {
		if errors.Is(err, services.ErrInvalidImage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("❌ Erreur upload image %s: %v", p.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur envoi image"})
		return
	}
	if err := h.catalog.SetImage(ctx, p.ID, key); err != nil {
		respondCatalogError(c, err)
		return
	}

	p.Image = key
	h.withImageURL(ctx, p)
	log.Printf("✅ Image enregistrée pour %s: %s", p.Name, key)
	c.JSON(http.StatusOK, gin.H{"image": key, "image_url": p.ImageURL})
}
