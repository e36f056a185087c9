package product

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ghee_back_end/internal/catalog"
	"ghee_back_end/internal/handlers"
	"ghee_back_end/internal/models"
)

type ProfileLoader interface {
	Profile(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// GET /api/products/:id/reviews
func (h *Handler) Reviews(c *gin.Context) {
	id, err := handlers.ObjectIDParam(c, "id")
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	page, err := handlers.ParsePage(c)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	result, err := h.catalog.ListReviews(c.Request.Context(), id, page)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.Paginated(c, result)
}

// POST /api/products/:id/reviews
func (h *Handler) AddReview(c *gin.Context) {
	id, err := handlers.ObjectIDParam(c, "id")
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	by, err := handlers.Requester(c)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	var in catalog.ReviewInput
	if !handlers.BindJSON(c, &in) {
		return
	}

	user, err := h.accounts.Profile(c.Request.Context(), by.ID)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	review, err := h.catalog.AddReview(c.Request.Context(), id, user, in)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.OK(c, http.StatusCreated, gin.H{"data": review, "message": "Review added successfully"})
}
