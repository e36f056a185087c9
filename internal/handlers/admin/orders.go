package admin

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ghee_back_end/internal/apperr"
	"ghee_back_end/internal/handlers"
	"ghee_back_end/internal/orders"
	"ghee_back_end/internal/store"
)

// GET /api/admin/orders?status=&paymentStatus=&paymentMethod=&user=
func (h *Handler) Orders(c *gin.Context) {
	page, err := handlers.ParsePage(c)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	f := store.OrderFilter{
		Status:        strings.TrimSpace(c.Query("status")),
		PaymentStatus: strings.TrimSpace(c.Query("paymentStatus")),
		PaymentMethod: strings.TrimSpace(c.Query("paymentMethod")),
	}
	if raw := c.Query("user"); raw != "" {
		if f.User, err = primitive.ObjectIDFromHex(raw); err != nil {
			handlers.RespondError(c, apperr.Validation("Invalid user"))
			return
		}
	}
	result, err := h.orders.ListAll(c.Request.Context(), f, page)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.Paginated(c, result)
}

// GET /api/admin/orders/stats
func (h *Handler) OrderStats(c *gin.Context) {
	stats, err := h.orders.Stats(c.Request.Context())
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.OK(c, http.StatusOK, gin.H{"data": stats})
}

// GET /api/admin/orders/:id
func (h *Handler) Order(c *gin.Context) {
	id, by, ok := h.target(c)
	if !ok {
		return
	}
	view, err := h.orders.Get(c.Request.Context(), id, by)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.OK(c, http.StatusOK, gin.H{"data": view})
}

// PUT /api/orders/:id/status et PUT /api/admin/orders/:id
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, by, ok := h.target(c)
	if !ok {
		return
	}
	var upd orders.StatusUpdate
	if !handlers.BindJSON(c, &upd) {
		return
	}
	view, err := h.orders.UpdateStatus(c.Request.Context(), id, upd, by)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.OK(c, http.StatusOK, gin.H{"data": view, "message": "Order updated successfully"})
}

// PUT /api/admin/orders/:id/cancel
func (h *Handler) CancelOrder(c *gin.Context) {
	id, by, ok := h.target(c)
	if !ok {
		return
	}
	view, err := h.orders.RetireOrder(c.Request.Context(), id, by)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.OK(c, http.StatusOK, gin.H{"data": view, "message": "Order cancelled successfully"})
}

// DELETE /api/admin/orders/:id
func (h *Handler) DeleteOrder(c *gin.Context) {
	id, by, ok := h.target(c)
	if !ok {
		return
	}
	if err := h.orders.RemoveOrder(c.Request.Context(), id, by); err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.OK(c, http.StatusOK, gin.H{"message": "Order deleted successfully"})
}

// GET /api/admin/orders/:id/proof
func (h *Handler) PaymentProof(c *gin.Context) {
	id, by, ok := h.target(c)
	if !ok {
		return
	}
	url, expires, err := h.orders.ProofURL(c.Request.Context(), id, by)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.OK(c, http.StatusOK, gin.H{"data": gin.H{"url": url, "expiresAt": expires}})
}

func (h *Handler) target(c *gin.Context) (primitive.ObjectID, orders.Requester, bool) {
	id, err := handlers.ObjectIDParam(c, "id")
	if err != nil {
		handlers.RespondError(c, err)
		return id, orders.Requester{}, false
	}
	by, err := handlers.Requester(c)
	if err != nil {
		handlers.RespondError(c, err)
		return id, by, false
	}
	return id, by, true
}
