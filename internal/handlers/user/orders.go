package user

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ghee_back_end/internal/apperr"
	"ghee_back_end/internal/handlers"
	"ghee_back_end/internal/models"
	"ghee_back_end/internal/orders"
	"ghee_back_end/internal/services"
)

// multipartMemory borne la part du formulaire gardée en mémoire.
const multipartMemory = 8 << 20

type placeOrderBody struct {
	Items           []orders.PlaceItem     `json:"items"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
}

// decodePlaceOrder accepte un corps JSON ou un formulaire multipart dont
// items et shippingAddress sont des chaînes JSON et paymentProof un fichier.
// closer libère le fichier de preuve une fois la commande traitée.
func decodePlaceOrder(c *gin.Context) (in orders.PlaceOrderInput, closer io.Closer, err error) {
	var body placeOrderBody
	closer = io.NopCloser(nil)

	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBindJSON(&body); err != nil {
			return in, closer, apperr.Validationf("Invalid request body: %v", err)
		}
		return toInput(body), closer, nil
	}

	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		return in, closer, apperr.Validationf("Invalid multipart form: %v", err)
	}
	if err := jsonField(c, "items", &body.Items); err != nil {
		return in, closer, err
	}
	if err := jsonField(c, "shippingAddress", &body.ShippingAddress); err != nil {
		return in, closer, err
	}
	body.PaymentMethod = c.PostForm("paymentMethod")
	in = toInput(body)

	header, err := c.FormFile("paymentProof")
	if err == http.ErrMissingFile {
		return in, closer, nil
	}
	if err != nil {
		return in, closer, apperr.Validationf("Invalid payment proof: %v", err)
	}
	f, err := header.Open()
	if err != nil {
		return in, closer, apperr.Internal("Failed to read payment proof", err)
	}
	in.PaymentProof = proofUpload(header, f)
	return in, f, nil
}

func jsonField(c *gin.Context, name string, dst any) error {
	raw := c.PostForm(name)
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return apperr.Validation(fmt.Sprintf("%s must be valid JSON", name))
	}
	return nil
}

func toInput(b placeOrderBody) orders.PlaceOrderInput {
	return orders.PlaceOrderInput{
		Items:           b.Items,
		ShippingAddress: b.ShippingAddress,
		PaymentMethod:   b.PaymentMethod,
	}
}

func proofUpload(h *multipart.FileHeader, f multipart.File) *services.ProofUpload {
	return &services.ProofUpload{
		Filename:    h.Filename,
		ContentType: h.Header.Get("Content-Type"),
		Size:        h.Size,
		Body:        f,
	}
}

// POST /api/orders
func (h *Handler) PlaceOrder(c *gin.Context) {
	by, err := handlers.Requester(c)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	in, closer, err := decodePlaceOrder(c)
	defer closer.Close()
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	in.UserID = by.ID

	view, err := h.orders.Place(c.Request.Context(), in)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.OK(c, http.StatusCreated, gin.H{"data": view, "message": "Order placed successfully"})
}

// GET /api/orders/my
func (h *Handler) MyOrders(c *gin.Context) {
	by, err := handlers.Requester(c)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	page, err := handlers.ParsePage(c)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	result, err := h.orders.ListMine(c.Request.Context(), by.ID, page)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.Paginated(c, result)
}

// GET /api/orders/:id
func (h *Handler) GetOrder(c *gin.Context) {
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
	view, err := h.orders.Get(c.Request.Context(), id, by)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.OK(c, http.StatusOK, gin.H{"data": view})
}

// PUT /api/orders/:id/shipping
func (h *Handler) UpdateShipping(c *gin.Context) {
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
	var patch orders.ShippingPatch
	if !handlers.BindJSON(c, &patch) {
		return
	}
	view, err := h.orders.UpdateShipping(c.Request.Context(), id, patch, by)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.OK(c, http.StatusOK, gin.H{"data": view, "message": "Shipping address updated successfully"})
}

// PUT /api/orders/:id/cancel
func (h *Handler) CancelOrder(c *gin.Context) {
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
	if err := h.orders.Cancel(c.Request.Context(), id, by); err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.OK(c, http.StatusOK, gin.H{"message": "Order cancelled successfully"})
}
