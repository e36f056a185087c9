package utils

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"

	"ghee_back_end/internal/models"
)

// GenerateOrderQR encode la référence commande en PNG base64, prêt pour <img src="...">.
func GenerateOrderQR(payload string) (string, error) {
	png, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

const invoiceLayout = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>Invoice {{.Order.OrderNumber}}</title>
<style>
  body { font-family: Arial, sans-serif; color: #222; margin: 40px; }
  header { display: flex; justify-content: space-between; align-items: flex-start; }
  h1 { color: #d98e04; margin: 0; }
  table { width: 100%; border-collapse: collapse; margin-top: 24px; }
  th, td { padding: 8px; border-bottom: 1px solid #ddd; text-align: left; }
  td.num, th.num { text-align: right; }
  tfoot td { font-weight: bold; border: none; }
  .muted { color: #666; font-size: 12px; }
</style>
</head>
<body>
<header>
  <div>
    <h1>The Ghee Store</h1>
    <p class="muted">Invoice {{.Order.OrderNumber}}<br>Issued {{.Issued}}</p>
  </div>
  <img src="{{.QR}}" width="120" height="120" alt="QR">
</header>
<section>
  <h3>Bill to</h3>
  <p>{{.Order.ShippingAddress.Name}}<br>
     {{.Order.ShippingAddress.Address}}<br>
     {{.Order.ShippingAddress.City}}, {{.Order.ShippingAddress.State}} {{.Order.ShippingAddress.ZipCode}}<br>
     {{.Order.ShippingAddress.Phone}} · {{.Order.ShippingAddress.Email}}</p>
</section>
<table>
  <thead><tr><th>Product</th><th>Size</th><th class="num">Unit price</th><th class="num">Qty</th><th class="num">Subtotal</th></tr></thead>
  <tbody>
  {{range .Order.Items}}
    <tr><td>{{.Name}}</td><td>{{.Size}}</td><td class="num">₹{{printf "%.2f" .Price}}</td><td class="num">{{.Quantity}}</td><td class="num">₹{{money .Subtotal}}</td></tr>
  {{end}}
  </tbody>
  <tfoot><tr><td colspan="4" class="num">Total</td><td class="num">₹{{printf "%.2f" .Order.TotalAmount}}</td></tr></tfoot>
</table>
<p class="muted">Payment method: {{.Order.PaymentMethod}} · Payment status: {{.Order.PaymentStatus}} · Order status: {{.Order.Status}}</p>
</body>
</html>`

var invoiceTmpl = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
}).Parse(invoiceLayout))

// InvoiceHTML produit la facture HTML d'une commande.
func InvoiceHTML(order *models.Order, qrDataURL string) (string, error) {
	var buf bytes.Buffer
	err := invoiceTmpl.Execute(&buf, struct {
		Order  *models.Order
		QR     template.URL
		Issued string
	}{
		Order:  order,
		QR:     template.URL(qrDataURL),
		Issued: order.CreatedAt.Format("02 Jan 2006"),
	})
	if err != nil {
		return "", fmt.Errorf("rendu facture: %w", err)
	}
	return buf.String(), nil
}

// RenderHTMLToPDF charge le HTML dans un Chrome headless et l'imprime en PDF.
func RenderHTMLToPDF(ctx context.Context, html string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	// timeout pour éviter de bloquer
	ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var pdfBuf []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdfBuf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("génération PDF: %w", err)
	}
	return pdfBuf, nil
}
