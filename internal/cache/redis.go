// Package cache regroupe les usages de Redis: cache produits, statut des
// comptes, compteurs de rate limiting et diffusion des événements commande.
// Chaque type accepte un client nil et se comporte alors comme un no-op.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateCounter implémente une fenêtre fixe: INCR + EXPIRE dans un pipeline.
type RateCounter struct {
	rdb *redis.Client
}

func NewRateCounter(rdb *redis.Client) *RateCounter {
	return &RateCounter{rdb: rdb}
}

func (r *RateCounter) Enabled() bool { return r != nil && r.rdb != nil }

// Increment incrémente le compteur de key et retourne sa valeur et le temps
// restant avant la fin de la fenêtre.
func (r *RateCounter) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if !r.Enabled() {
		return 0, 0, nil
	}

	pipe := r.rdb.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	ttl := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, fmt.Errorf("rate limit %s: %w", key, err)
	}

	remaining := ttl.Val()
	if remaining < 0 {
		remaining = window
	}
	return incr.Val(), remaining, nil
}

// Reset supprime le compteur (connexion réussie par exemple).
func (r *RateCounter) Reset(ctx context.Context, key string) error {
	if !r.Enabled() {
		return nil
	}
	return r.rdb.Del(ctx, key).Err()
}
