package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ghee_back_end/internal/accounts"
	"ghee_back_end/internal/apperr"
	"ghee_back_end/internal/handlers"
	"ghee_back_end/internal/orders"
)

type Handler struct {
	accounts *accounts.Service
	orders   *orders.Service
}

func NewHandler(a *accounts.Service, o *orders.Service) *Handler {
	return &Handler{accounts: a, orders: o}
}

// POST /api/auth/register
func (h *Handler) Register(c *gin.Context) {
	var in accounts.RegisterInput
	if !handlers.BindJSON(c, &in) {
		return
	}
	session, err := h.accounts.Register(c.Request.Context(), in)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.OK(c, http.StatusCreated, gin.H{"data": session, "message": "User registered successfully"})
}

// POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var in accounts.Credentials
	if !handlers.BindJSON(c, &in) {
		return
	}
	session, err := h.accounts.Login(c.Request.Context(), in)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.OK(c, http.StatusOK, gin.H{"data": session})
}

// GET /api/users/me
func (h *Handler) Me(c *gin.Context) {
	by, err := handlers.Requester(c)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	u, err := h.accounts.Profile(c.Request.Context(), by.ID)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.OK(c, http.StatusOK, gin.H{"data": u})
}

// PUT /api/users/me
func (h *Handler) UpdateMe(c *gin.Context) {
	by, err := handlers.Requester(c)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	var in accounts.ProfileInput
	if !handlers.BindJSON(c, &in) {
		return
	}
	u, err := h.accounts.UpdateProfile(c.Request.Context(), by.ID, in)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.OK(c, http.StatusOK, gin.H{"data": u, "message": "Profile updated successfully"})
}

// GET /api/users/me/favourites
func (h *Handler) Favourites(c *gin.Context) {
	by, err := handlers.Requester(c)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	favs, err := h.accounts.ListFavourites(c.Request.Context(), by.ID)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.OK(c, http.StatusOK, gin.H{"data": favs, "count": len(favs)})
}

type favouriteRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

// POST /api/users/me/favourites
func (h *Handler) AddFavourite(c *gin.Context) {
	by, err := handlers.Requester(c)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	var req favouriteRequest
	if !handlers.BindJSON(c, &req) {
		return
	}
	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		handlers.RespondError(c, apperr.Validation("Invalid productId"))
		return
	}
	favs, err := h.accounts.AddFavourite(c.Request.Context(), by.ID, productID)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.OK(c, http.StatusOK, gin.H{"data": favs, "message": "Product added to favourites"})
}

// DELETE /api/users/me/favourites/:productId
func (h *Handler) RemoveFavourite(c *gin.Context) {
	by, err := handlers.Requester(c)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	productID, err := handlers.ObjectIDParam(c, "productId")
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	favs, err := h.accounts.RemoveFavourite(c.Request.Context(), by.ID, productID)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.OK(c, http.StatusOK, gin.H{"data": favs, "message": "Product removed from favourites"})
}
