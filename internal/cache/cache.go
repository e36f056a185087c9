package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ghee_back_end/internal/models"
)

const ProductCacheTTL = 10 * time.Minute

// ProductCache garde les fiches produit publiques en JSON.
type ProductCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewProductCache(rdb *redis.Client) *ProductCache {
	return &ProductCache{rdb: rdb, ttl: ProductCacheTTL}
}

func productKey(id primitive.ObjectID) string { return "product:" + id.Hex() }

// Get retourne le produit en cache, ou false en cas d'absence ou d'erreur.
func (c *ProductCache) Get(ctx context.Context, id primitive.ObjectID) (*models.Product, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, productKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("⚠️ Erreur lecture cache produit %s: %v", id.Hex(), err)
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
	if c == nil || c.rdb == nil {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, productKey(p.ID), data, c.ttl).Err(); err != nil {
		log.Printf("⚠️ Erreur écriture cache produit %s: %v", p.ID.Hex(), err)
	}
}

// Invalidate supprime les fiches données, après une modification de stock par exemple.
func (c *ProductCache) Invalidate(ctx context.Context, ids ...primitive.ObjectID) {
	if c == nil || c.rdb == nil || len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(id)
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Printf("⚠️ Erreur invalidation cache produits: %v", err)
	}
}
