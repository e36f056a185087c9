// Package handlers regroupe les helpers partagés par les handlers gin:
// réponses d'erreur, pagination et identité du demandeur.
package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ghee_back_end/internal/apperr"
	"ghee_back_end/internal/auth"
	"ghee_back_end/internal/middleware"
	"ghee_back_end/internal/orders"
	"ghee_back_end/internal/store"
)

// Development active les traces détaillées des erreurs internes.
var Development bool

// RespondError traduit une erreur métier en réponse {success:false, message}.
func RespondError(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		err = validationError(ve)
	}

	var e *apperr.Error
	if !errors.As(err, &e) {
		e = apperr.Internal("Server error", err)
	}

	if e.Kind == apperr.KindInternal {
		if Development {
			log.Printf("❌ %s %s: %+v", c.Request.Method, c.FullPath(), err)
		} else {
			log.Printf("❌ %s %s: %s", c.Request.Method, c.FullPath(), e.Message)
		}
	}

	body := gin.H{"success": false, "message": e.Message}
	if len(e.Fields) > 0 {
		body["errors"] = e.Fields
	}
	c.AbortWithStatusJSON(e.Kind.HTTPStatus(), body)
}

func validationError(ve validator.ValidationErrors) error {
	var errs apperr.FieldErrors
	for _, fe := range ve {
		switch fe.Tag() {
		case "required":
			errs.Addf("%s is required", fe.Field())
		case "email":
			errs.Addf("%s must be a valid email", fe.Field())
		case "min", "max", "len":
			errs.Addf("%s must respect %s=%s", fe.Field(), fe.Tag(), fe.Param())
		default:
			errs.Addf("%s is invalid", fe.Field())
		}
	}
	return errs.Err()
}

// BindJSON décode le corps JSON; une erreur est déjà renvoyée au client
// quand ok est faux.
func BindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			RespondError(c, err)
			return false
		}
		RespondError(c, apperr.Validationf("Invalid request body: %v", err))
		return false
	}
	return true
}

func OK(c *gin.Context, status int, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

// Paginated renvoie une page au format {data, pagination}.
func Paginated[T any](c *gin.Context, page store.OffsetPage[T]) {
	items := page.Items
	if items == nil {
		items = []T{}
	}
	OK(c, http.StatusOK, gin.H{
		"data":  items,
		"count": len(items),
		"pagination": gin.H{
			"page":       page.Page,
			"limit":      page.PageSize,
			"total":      page.Total,
			"totalPages": page.TotalPages,
		},
	})
}

// ParsePage lit page et limit; les valeurs absentes prennent les défauts.
func ParsePage(c *gin.Context) (store.Page, error) {
	var p store.Page
	for _, q := range []struct {
		name string
		dst  *int
	}{{"page", &p.Page}, {"limit", &p.Limit}} {
		raw := strings.TrimSpace(c.Query(q.name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return p, apperr.Validationf("%s must be a positive integer", q.name)
		}
		*q.dst = n
	}
	return p.Normalize(), nil
}

// ObjectIDParam lit un identifiant MongoDB dans le chemin.
func ObjectIDParam(c *gin.Context, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		return primitive.NilObjectID, apperr.Validation(fmt.Sprintf("Invalid %s", name))
	}
	return id, nil
}

// Requester construit l'identité du compte authentifié.
func Requester(c *gin.Context) (orders.Requester, error) {
	id, ok := middleware.AccountID(c)
	if !ok {
		return orders.Requester{}, apperr.Unauthorized("Authentication required")
	}
	kind := middleware.AccountType(c)
	if kind != auth.TypeUser && kind != auth.TypeAdmin {
		return orders.Requester{}, apperr.Unauthorized("Authentication required")
	}
	return orders.Requester{ID: id, Kind: kind}, nil
}
