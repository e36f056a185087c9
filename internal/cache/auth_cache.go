package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const AccountStatusTTL = 5 * time.Minute

// AccountStatusCache évite de relire le compte en base à chaque requête
// authentifiée. Seul le drapeau isActive est mis en cache.
type AccountStatusCache struct {
	rdb *redis.Client
}

func NewAccountStatusCache(rdb *redis.Client) *AccountStatusCache {
	return &AccountStatusCache{rdb: rdb}
}

func accountKey(kind, id string) string { return "account:" + kind + ":" + id }

// Get retourne (actif, trouvé).
func (c *AccountStatusCache) Get(ctx context.Context, kind, id string) (bool, bool) {
	if c == nil || c.rdb == nil {
		return false, false
	}
	val, err := c.rdb.Get(ctx, accountKey(kind, id)).Result()
	if err != nil {
		return false, false
	}
	return val == "active", true
}

func (c *AccountStatusCache) Set(ctx context.Context, kind, id string, active bool) {
	if c == nil || c.rdb == nil {
		return
	}
	val := "inactive"
	if active {
		val = "active"
	}
	c.rdb.Set(ctx, accountKey(kind, id), val, AccountStatusTTL)
}

func (c *AccountStatusCache) Invalidate(ctx context.Context, kind, id string) {
	if c == nil || c.rdb == nil {
		return
	}
	c.rdb.Del(ctx, accountKey(kind, id))
}
