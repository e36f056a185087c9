package product

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"ghee_back_end/internal/apperr"
	"ghee_back_end/internal/catalog"
	"ghee_back_end/internal/handlers"
	"ghee_back_end/internal/store"
)

type Handler struct {
	catalog  *catalog.Service
	accounts ProfileLoader
}

func NewHandler(c *catalog.Service, accounts ProfileLoader) *Handler {
	return &Handler{catalog: c, accounts: accounts}
}

// parseFilter lit les filtres du catalogue; includeInactive n'est accepté
// que pour les routes admin.
func parseFilter(c *gin.Context, admin bool) (store.ProductFilter, error) {
	f := store.ProductFilter{
		Category: strings.TrimSpace(c.Query("category")),
		Query:    strings.TrimSpace(c.Query("q")),
	}
	var errs apperr.FieldErrors
	for _, q := range []struct {
		name string
		dst  **float64
	}{{"minPrice", &f.MinPrice}, {"maxPrice", &f.MaxPrice}} {
		raw := c.Query(q.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			errs.Addf("%s must be a non-negative number", q.name)
			continue
		}
		*q.dst = &v
	}
	f.InStock = c.Query("inStock") == "true"
	if admin {
		f.IncludeInactive = c.Query("includeInactive") == "true"
	}
	return f, errs.Err()
}

// GET /api/products
func (h *Handler) List(c *gin.Context) { h.list(c, false) }

// GET /api/admin/products
func (h *Handler) AdminList(c *gin.Context) { h.list(c, true) }

func (h *Handler) list(c *gin.Context, admin bool) {
	page, err := handlers.ParsePage(c)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	f, err := parseFilter(c, admin)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	result, err := h.catalog.List(c.Request.Context(), f, page)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.Paginated(c, result)
}

// GET /api/products/search?q=
func (h *Handler) Search(c *gin.Context) {
	page, err := handlers.ParsePage(c)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	result, err := h.catalog.Search(c.Request.Context(), c.Query("q"), false, page)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.Paginated(c, result)
}

// GET /api/products/:id
func (h *Handler) Get(c *gin.Context) {
	id, err := handlers.ObjectIDParam(c, "id")
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	p, err := h.catalog.GetPublic(c.Request.Context(), id)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.OK(c, http.StatusOK, gin.H{"data": p})
}

// POST /api/products
func (h *Handler) Create(c *gin.Context) {
	var in catalog.ProductInput
	if !handlers.BindJSON(c, &in) {
		return
	}
	p, err := h.catalog.Create(c.Request.Context(), in)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.OK(c, http.StatusCreated, gin.H{"data": p, "message": "Product created successfully"})
}

// PUT /api/products/:id
func (h *Handler) Update(c *gin.Context) {
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
	var in catalog.ProductInput
	if !handlers.BindJSON(c, &in) {
		return
	}
	p, err := h.catalog.Update(c.Request.Context(), id, in, by.Actor())
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.OK(c, http.StatusOK, gin.H{"data": p, "message": "Product updated successfully"})
}

// DELETE /api/products/:id?hard=true
func (h *Handler) Delete(c *gin.Context) {
	id, err := handlers.ObjectIDParam(c, "id")
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	hard := c.Query("hard") == "true"
	if err := h.catalog.Delete(c.Request.Context(), id, hard); err != nil {
		handlers.RespondError(c, err)
		return
	}
	msg := "Product deactivated successfully"
	if hard {
		msg = "Product deleted permanently"
	}
	handlers.OK(c, http.StatusOK, gin.H{"message": msg})
}
