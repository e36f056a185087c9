package utils

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/shopspring/decimal"

	"ghee_back_end/internal/models"
)

const emailLayout = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f5f5f5;">
    <table role="presentation" style="width: 100%; border-collapse: collapse; background-color: #f5f5f5;">
        <tr>
            <td style="padding: 40px 20px;">
                <table role="presentation" style="max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 12px;">
                    <tr>
                        <td style="background: linear-gradient(135deg, #f6c453 0%, #d98e04 100%); padding: 36px 30px; text-align: center; border-radius: 12px 12px 0 0;">
                            <h1 style="margin: 0; color: #ffffff; font-size: 26px;">{{.Icon}} {{.Title}}</h1>
                            <p style="margin: 8px 0 0 0; color: #ffffff; font-size: 15px;">Order {{.Order.OrderNumber}}</p>
                        </td>
                    </tr>
                    <tr>
                        <td style="padding: 30px;">
                            <p style="color: #333333; font-size: 16px;">Hello {{.Name}},</p>
                            <p style="color: #333333; font-size: 16px; line-height: 1.6;">{{.Message}}</p>
                            {{if .Order.Items}}
                            <table style="width: 100%; border-collapse: collapse; margin: 20px 0;">
                                <thead>
                                    <tr style="background-color: #fdf3dc;">
                                        <th style="padding: 10px; text-align: left;">Product</th>
                                        <th style="padding: 10px; text-align: left;">Size</th>
                                        <th style="padding: 10px; text-align: right;">Qty</th>
                                        <th style="padding: 10px; text-align: right;">Subtotal</th>
                                    </tr>
                                </thead>
                                <tbody>
                                    {{range .Order.Items}}
                                    <tr>
                                        <td style="padding: 10px; border-bottom: 1px solid #eee;">{{.Name}}</td>
                                        <td style="padding: 10px; border-bottom: 1px solid #eee;">{{.Size}}</td>
                                        <td style="padding: 10px; border-bottom: 1px solid #eee; text-align: right;">{{.Quantity}}</td>
                                        <td style="padding: 10px; border-bottom: 1px solid #eee; text-align: right;">₹{{money .Subtotal}}</td>
                                    </tr>
                                    {{end}}
                                </tbody>
                                <tfoot>
                                    <tr>
                                        <td colspan="3" style="padding: 10px; text-align: right; font-weight: bold;">Total</td>
                                        <td style="padding: 10px; text-align: right; font-weight: bold;">₹{{printf "%.2f" .Order.TotalAmount}}</td>
                                    </tr>
                                </tfoot>
                            </table>
                            {{end}}
                            <p style="color: #555555; font-size: 14px;">Payment: {{.Order.PaymentMethod}} ({{.Order.PaymentStatus}})</p>
                            <p style="margin-top: 30px; color: #555555;">Warm regards,<br><strong>The Ghee Store team</strong></p>
                        </td>
                    </tr>
                </table>
            </td>
        </tr>
    </table>
</body>
</html>`

var emailTmpl = template.Must(template.New("email").Funcs(template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
}).Parse(emailLayout))

type emailData struct {
	Title   string
	Icon    string
	Name    string
	Message string
	Order   *models.Order
}

// Email est un message prêt à être envoyé.
type Email struct {
	Subject string
	HTML    string
}

func renderEmail(data emailData) (Email, error) {
	var buf bytes.Buffer
	if err := emailTmpl.Execute(&buf, data); err != nil {
		return Email{}, fmt.Errorf("rendu template email: %w", err)
	}
	return Email{Subject: data.Icon + " " + data.Title + " - " + data.Order.OrderNumber, HTML: buf.String()}, nil
}

func OrderConfirmationEmail(order *models.Order, name string) (Email, error) {
	msg := "Thank you for your order. We have reserved your ghee and will start preparing it shortly."
	if order.PaymentMethod == models.PaymentMethodOnline {
		msg += " Your payment proof is being reviewed by our team."
	} else {
		msg += " Please keep the amount ready for cash on delivery."
	}
	return renderEmail(emailData{Title: "Order confirmed", Icon: "✅", Name: name, Message: msg, Order: order})
}

func OrderStatusEmail(order *models.Order, name string) (Email, error) {
	title, icon, msg := statusCopy(order.Status)
	return renderEmail(emailData{Title: title, Icon: icon, Name: name, Message: msg, Order: order})
}

func OrderCancelledEmail(order *models.Order, name string) (Email, error) {
	return renderEmail(emailData{
		Title:   "Order cancelled",
		Icon:    "❌",
		Name:    name,
		Message: "Your order has been cancelled as requested. No further action is needed on your side.",
		Order:   order,
	})
}

func statusCopy(status string) (title, icon, msg string) {
	switch status {
	case models.OrderStatusProcessing:
		return "Order in preparation", "🧈", "Your order is being packed."
	case models.OrderStatusShipped:
		return "Order shipped", "📦", "Your order is on its way."
	case models.OrderStatusDelivered:
		return "Order delivered", "🎉", "Your order has been delivered. Enjoy your ghee!"
	case models.OrderStatusCancelled:
		return "Order cancelled", "❌", "Your order has been cancelled by our team. Reserved stock has been released."
	default:
		return "Order update", "📋", "The status of your order is now " + status + "."
	}
}
