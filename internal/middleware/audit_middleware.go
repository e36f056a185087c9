package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	CtxRequestID    = "request_id"
	RequestIDHeader = "X-Request-ID"
)

// RequestID attribue un identifiant à chaque requête, repris du client s'il
// en fournit un.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(CtxRequestID, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// AuditAdminActions journalise chaque mutation faite depuis le panneau admin.
func AuditAdminActions() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == "GET" || c.Request.Method == "HEAD" || c.Request.Method == "OPTIONS" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		icon := "📝"
		if status >= 400 {
			icon = "⚠️"
		}
		log.Printf("%s Audit admin %s: %s %s → %d (%s) [%s]",
			icon, c.GetString(CtxAccountID), c.Request.Method, c.FullPath(), status,
			time.Since(start).Round(time.Millisecond), c.GetString(CtxRequestID))
	}
}
