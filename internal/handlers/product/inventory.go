package product

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ghee_back_end/internal/apperr"
	"ghee_back_end/internal/handlers"
	"ghee_back_end/internal/store"
)

type setStockRequest struct {
	Stock  *int   `json:"stock" binding:"required"`
	Reason string `json:"reason"`
}

// PUT /api/admin/inventory/:id
func (h *Handler) SetStock(c *gin.Context) {
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
	var req setStockRequest
	if !handlers.BindJSON(c, &req) {
		return
	}

	p, err := h.catalog.SetStock(c.Request.Context(), id, *req.Stock, req.Reason, by.Actor())
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.OK(c, http.StatusOK, gin.H{"data": p, "message": "Stock updated"})
}

// GET /api/admin/inventory/movements?product=&since=
func (h *Handler) Movements(c *gin.Context) {
	page, err := handlers.ParsePage(c)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	var f store.MovementFilter
	if raw := c.Query("product"); raw != "" {
		if f.Product, err = primitive.ObjectIDFromHex(raw); err != nil {
			handlers.RespondError(c, apperr.Validation("Invalid product"))
			return
		}
	}
	if raw := c.Query("since"); raw != "" {
		if f.Since, err = time.Parse(time.RFC3339, raw); err != nil {
			handlers.RespondError(c, apperr.Validation("since must be an RFC3339 timestamp"))
			return
		}
	}

	result, err := h.catalog.Movements(c.Request.Context(), f, page)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.Paginated(c, result)
}

// GET /api/admin/inventory/stats
func (h *Handler) InventoryStats(c *gin.Context) {
	stats, err := h.catalog.InventoryStats(c.Request.Context())
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.OK(c, http.StatusOK, gin.H{"data": stats})
}
