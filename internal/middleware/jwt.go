package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ghee_back_end/internal/auth"
)

const (
	CtxAccountID   = "account_id"
	CtxAccountType = "account_type"
	CtxRole        = "role"
)

// AccountChecker dit si le compte porté par un jeton est toujours actif.
type AccountChecker interface {
	IsActive(ctx context.Context, kind, id string) (bool, error)
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

// AuthRequired exige un jeton Bearer valide du type kind (user ou admin) et
// un compte encore actif.
func AuthRequired(tokens *auth.Tokens, accounts AccountChecker, kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		// les navigateurs ne peuvent pas poser d'en-tête sur un upgrade websocket
		if header == "" && strings.EqualFold(c.GetHeader("Upgrade"), "websocket") && c.Query("token") != "" {
			header = "Bearer " + c.Query("token")
		}
		if header == "" {
			abort(c, http.StatusUnauthorized, "Not authorized, no token")
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			abort(c, http.StatusUnauthorized, "Invalid authorization format")
			return
		}

		claims, err := tokens.Verify(strings.TrimSpace(parts[1]))
		if errors.Is(err, auth.ErrExpiredToken) {
			abort(c, http.StatusUnauthorized, "Token expired")
			return
		}
		if err != nil {
			abort(c, http.StatusUnauthorized, "Not authorized, invalid token")
			return
		}
		if claims.Type != kind {
			abort(c, http.StatusForbidden, "Access denied for this account type")
			return
		}

		active, err := accounts.IsActive(c.Request.Context(), claims.Type, claims.ID)
		if err != nil {
			log.Printf("❌ Vérification du compte %s:%s impossible: %v", claims.Type, claims.ID, err)
			abort(c, http.StatusInternalServerError, "Server error")
			return
		}
		if !active {
			abort(c, http.StatusUnauthorized, "Account not found or deactivated")
			return
		}

		c.Set(CtxAccountID, claims.ID)
		c.Set(CtxAccountType, claims.Type)
		c.Next()
	}
}

// AccountID retourne l'identifiant du compte authentifié.
func AccountID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.GetString(CtxAccountID))
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

func AccountType(c *gin.Context) string { return c.GetString(CtxAccountType) }
