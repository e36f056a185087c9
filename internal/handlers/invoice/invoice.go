package invoice

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"ghee_back_end/internal/handlers"
	"ghee_back_end/internal/orders"
)

type Handler struct {
	orders *orders.Service
}

func NewHandler(o *orders.Service) *Handler { return &Handler{orders: o} }

// GET /api/orders/:id/invoice
func (h *Handler) Download(c *gin.Context) {
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

	pdf, filename, err := h.orders.Invoice(c.Request.Context(), id, by)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
