package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ghee_back_end/internal/models"
)

func sampleOrder() *models.Order {
	return &models.Order{
		OrderNumber:   "GHEE-20240101-AB12CD",
		Items:         []models.OrderItem{{Name: "Desi <Cow> Ghee", Size: "1kg", Quantity: 2, Price: 3000}},
		TotalAmount:   6000,
		Status:        models.OrderStatusPending,
		PaymentMethod: models.PaymentMethodCOD,
		PaymentStatus: models.PaymentStatusPending,
	}
}

func TestOrderConfirmationEmail(t *testing.T) {
	email, err := OrderConfirmationEmail(sampleOrder(), "Asha")
	require.NoError(t, err)

	assert.Contains(t, email.Subject, "GHEE-20240101-AB12CD")
	assert.Contains(t, email.HTML, "Hello Asha")
	assert.Contains(t, email.HTML, "₹6000.00")
	assert.Contains(t, email.HTML, "cash on delivery")
	// html/template échappe les noms produits
	assert.Contains(t, email.HTML, "Desi &lt;Cow&gt; Ghee")
}

func TestOrderStatusEmail(t *testing.T) {
	o := sampleOrder()
	o.Status = models.OrderStatusShipped
	email, err := OrderStatusEmail(o, "Asha")
	require.NoError(t, err)
	assert.Contains(t, email.Subject, "Order shipped")
	assert.Contains(t, email.HTML, "on its way")
}
