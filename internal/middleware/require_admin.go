package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ghee_back_end/internal/auth"
	"ghee_back_end/internal/models"
)

type AdminLookup interface {
	AdminProfile(ctx context.Context, id primitive.ObjectID) (*models.Admin, error)
}

// RequireSuperAdmin réserve la route aux admins de rôle superadmin. À placer
// après AuthRequired(..., auth.TypeAdmin).
func RequireSuperAdmin(admins AdminLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := AccountID(c)
		if !ok || AccountType(c) != auth.TypeAdmin {
			abort(c, http.StatusForbidden, "Admin access required")
			return
		}
		a, err := admins.AdminProfile(c.Request.Context(), id)
		if err != nil || a.Role != models.RoleSuperAdmin {
			abort(c, http.StatusForbidden, "Super admin access required")
			return
		}
		c.Set(CtxRole, a.Role)
		c.Next()
	}
}
