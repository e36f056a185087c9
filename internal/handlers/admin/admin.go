package admin

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ghee_back_end/internal/accounts"
	"ghee_back_end/internal/apperr"
	"ghee_back_end/internal/handlers"
	"ghee_back_end/internal/models"
	"ghee_back_end/internal/orders"
)

// EventSource alimente le flux temps réel des commandes.
type EventSource interface {
	Subscribe(ctx context.Context) <-chan models.OrderEvent
}

type Handler struct {
	accounts *accounts.Service
	orders   *orders.Service
	events   EventSource
}

func NewHandler(a *accounts.Service, o *orders.Service, events EventSource) *Handler {
	return &Handler{accounts: a, orders: o, events: events}
}

// POST /api/admin/auth/login
func (h *Handler) Login(c *gin.Context) {
	var in accounts.Credentials
	if !handlers.BindJSON(c, &in) {
		return
	}
	session, err := h.accounts.AdminLogin(c.Request.Context(), in)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.OK(c, http.StatusOK, gin.H{"data": session})
}

// GET /api/admin/auth/me
func (h *Handler) Me(c *gin.Context) {
	by, err := handlers.Requester(c)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	a, err := h.accounts.AdminProfile(c.Request.Context(), by.ID)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.OK(c, http.StatusOK, gin.H{"data": a})
}

// GET /api/admin/users?q=
func (h *Handler) Users(c *gin.Context) {
	page, err := handlers.ParsePage(c)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	result, err := h.accounts.ListUsers(c.Request.Context(), strings.TrimSpace(c.Query("q")), page)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.Paginated(c, result)
}

type userStatusRequest struct {
	IsActive *bool `json:"isActive"`
}

// PUT /api/admin/users/:id/status
func (h *Handler) SetUserStatus(c *gin.Context) {
	id, err := handlers.ObjectIDParam(c, "id")
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	var req userStatusRequest
	if !handlers.BindJSON(c, &req) {
		return
	}
	if req.IsActive == nil {
		handlers.RespondError(c, apperr.Validation("isActive is required"))
		return
	}
	u, err := h.accounts.SetUserActive(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	msg := "User deactivated"
	if u.IsActive {
		msg = "User activated"
	}
	handlers.OK(c, http.StatusOK, gin.H{"data": u, "message": msg})
}
