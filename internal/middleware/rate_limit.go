package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	// Limites par route
	AdminLoginMaxAttempts = 5
	OrderMaxRequests      = 10
	APIMaxRequests        = 100

	AdminLoginWindow = 15 * time.Minute
	OrderWindow      = time.Minute
	APIWindow        = time.Minute
)

type Counter interface {
	Enabled() bool
	Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// KeyFunc choisit la clé du compteur (IP, compte...). Une clé vide désactive
// la limite pour la requête.
type KeyFunc func(c *gin.Context) string

func ByIP(c *gin.Context) string { return c.ClientIP() }

// ByAccount compte par compte authentifié, par IP sinon.
func ByAccount(c *gin.Context) string {
	if id := c.GetString(CtxAccountID); id != "" {
		return id
	}
	return c.ClientIP()
}

// RateLimit applique une fenêtre fixe de max requêtes par window. Sans Redis,
// ou si Redis est en erreur, la requête passe.
func RateLimit(counter Counter, name string, max int, window time.Duration, key KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if counter == nil || !counter.Enabled() {
			c.Next()
			return
		}
		k := key(c)
		if k == "" {
			c.Next()
			return
		}

		count, ttl, err := counter.Increment(c.Request.Context(), "ratelimit:"+name+":"+k, window)
		if err != nil {
			log.Printf("⚠️ Rate limit %s indisponible: %v", name, err)
			c.Next()
			return
		}

		remaining := int64(max) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(max))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(max) {
			c.Header("Retry-After", strconv.Itoa(int(ttl.Seconds())))
			abort(c, http.StatusTooManyRequests,
				fmt.Sprintf("Too many requests, please try again in %d minutes", int(ttl.Minutes())+1))
			return
		}
		c.Next()
	}
}

// ResettableCounter permet d'effacer un compteur après une connexion réussie.
type ResettableCounter interface {
	Counter
	Reset(ctx context.Context, key string) error
}

// LoginRateLimit limite les tentatives de connexion par IP et remet le
// compteur à zéro dès qu'une connexion aboutit.
func LoginRateLimit(counter ResettableCounter, name string, max int, window time.Duration) gin.HandlerFunc {
	limit := RateLimit(counter, name, max, window, ByIP)
	return func(c *gin.Context) {
		limit(c)
		if c.IsAborted() || counter == nil || !counter.Enabled() {
			return
		}
		if c.Writer.Status() == http.StatusOK {
			if err := counter.Reset(c.Request.Context(), "ratelimit:"+name+":"+c.ClientIP()); err != nil {
				log.Printf("⚠️ Reset du compteur %s impossible: %v", name, err)
			}
		}
	}
}
