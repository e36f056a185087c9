package services

import (
	"context"

	"ghee_back_end/internal/models"
	"ghee_back_end/internal/utils"
)

// InvoiceRenderer produit la facture PDF d'une commande avec un QR code
// portant le numéro de commande.
type InvoiceRenderer struct{}

func NewInvoiceRenderer() *InvoiceRenderer { return &InvoiceRenderer{} }

func (InvoiceRenderer) Render(ctx context.Context, o *models.Order) ([]byte, error) {
	qr, err := utils.GenerateOrderQR(o.OrderNumber)
	if err != nil {
		return nil, err
	}
	html, err := utils.InvoiceHTML(o, qr)
	if err != nil {
		return nil, err
	}
	return utils.RenderHTMLToPDF(ctx, html)
}
