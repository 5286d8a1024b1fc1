package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"essence_back_end/internal/models"
)

const ProductCacheTTL = 10 * time.Minute

// staleWindow - durée pendant laquelle une fiche invalidée ne peut pas être
// réécrite. Une lecture Scylla commencée avant l'écriture du stock et finie
// après l'invalidation est ainsi ignorée, tant qu'elle dure moins longtemps.
const staleWindow = 5 * time.Second

// ProductCache - fiches produit sérialisées en JSON dans Redis
type ProductCache struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewProductCache(rdb redis.UniversalClient, ttl time.Duration) *ProductCache {
	if ttl <= 0 {
		ttl = ProductCacheTTL
	}
	return &ProductCache{rdb: rdb, ttl: ttl}
}

func productKey(productID string) string { return "product:" + productID }

func staleKey(productID string) string { return "product:" + productID + ":stale" }

// setUnlessStale écrit la fiche seulement si aucune invalidation récente n'est marquée
var setUnlessStale = redis.NewScript(`
if redis.call('EXISTS', KEYS[2]) == 1 then
  return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
return 1
`)

// Get retourne (nil, false) en cas d'absence ou d'erreur Redis
func (c *ProductCache) Get(ctx context.Context, productID string) (*models.Product, bool) {
	data, err := c.rdb.Get(ctx, productKey(productID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("⚠️ Erreur lecture cache produit: %v", err)
		}
		return nil, false
	}
	var p models.Product
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, false
	}
	return &p, true
}

func (c *ProductCache) Set(ctx context.Context, p *models.Product) {
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	id := p.ID.String()
	err = setUnlessStale.Run(ctx, c.rdb, []string{productKey(id), staleKey(id)}, data, c.ttl.Milliseconds()).Err()
	if err != nil {
		log.Printf("⚠️ Erreur écriture cache produit: %v", err)
	}
}

// Invalidate supprime la fiche après une écriture sur le produit (stock, image)
// et bloque sa réécriture pendant staleWindow
func (c *ProductCache) Invalidate(ctx context.Context, productID string) {
	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, staleKey(productID), 1, staleWindow)
	pipe.Del(ctx, productKey(productID))
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("⚠️ Erreur invalidation cache produit %s: %v", productID, err)
	}
}
