package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

const (
	PaymentMethodCOD    = "COD"
	PaymentMethodOnline = "ONLINE"
)

// En COD, "pending" signifie que le montant est dû à la livraison.
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

const (
	VerificationPending  = "pending"
	VerificationVerified = "verified"
	VerificationRejected = "rejected"
)

var (
	OrderStatuses        = []string{OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled}
	PaymentMethods       = []string{PaymentMethodCOD, PaymentMethodOnline}
	PaymentStatuses      = []string{PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed}
	VerificationStatuses = []string{VerificationPending, VerificationVerified, VerificationRejected}
)

// totalTolerance est l'écart toléré entre le total stocké et la somme des
// lignes avant recalcul.
var totalTolerance = decimal.NewFromFloat(0.01)

type OrderItem struct {
	Product  primitive.ObjectID `bson:"product" json:"product"`
	Name     string             `bson:"name" json:"name"`
	Size     string             `bson:"size" json:"size"`
	Quantity int                `bson:"quantity" json:"quantity"`
	Price    float64            `bson:"price" json:"price"` // prix unitaire figé à l'achat
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return decimal.NewFromFloat(i.Price).Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type ShippingAddress struct {
	Name    string `bson:"name" json:"name"`
	Email   string `bson:"email" json:"email"`
	Phone   string `bson:"phone" json:"phone"`
	Address string `bson:"address" json:"address"`
	City    string `bson:"city" json:"city"`
	State   string `bson:"state" json:"state"`
	ZipCode string `bson:"zipCode" json:"zipCode"`
}

// PaymentProof référence le justificatif de virement d'une commande ONLINE,
// stocké dans MinIO.
type PaymentProof struct {
	ObjectKey   string    `bson:"objectKey" json:"objectKey"`
	ContentType string    `bson:"contentType" json:"contentType"`
	Size        int64     `bson:"size" json:"size"`
	UploadedAt  time.Time `bson:"uploadedAt" json:"uploadedAt"`
}

type Order struct {
	ID                        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderNumber               string             `bson:"orderNumber" json:"orderNumber"`
	User                      primitive.ObjectID `bson:"user" json:"user"`
	Items                     []OrderItem        `bson:"items" json:"items"`
	TotalAmount               float64            `bson:"totalAmount" json:"totalAmount"`
	ShippingAddress           ShippingAddress    `bson:"shippingAddress" json:"shippingAddress"`
	Status                    string             `bson:"status" json:"status"`
	PaymentMethod             string             `bson:"paymentMethod" json:"paymentMethod"`
	PaymentStatus             string             `bson:"paymentStatus" json:"paymentStatus"`
	PaymentProof              *PaymentProof      `bson:"paymentProof,omitempty" json:"paymentProof,omitempty"`
	PaymentVerificationStatus string             `bson:"paymentVerificationStatus" json:"paymentVerificationStatus"`
	PaidAt                    *time.Time         `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	DeliveredAt               *time.Time         `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	CancelledAt               *time.Time         `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	CreatedAt                 time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt                 time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ComputeTotal somme quantité × prix unitaire, arrondi au centime.
func (o *Order) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total.Round(2)
}

// NormalizeTotal réécrit TotalAmount s'il ne correspond plus aux lignes.
// Appelé par les stores à chaque écriture; retourne true si modifié.
func (o *Order) NormalizeTotal() bool {
	computed := o.ComputeTotal()
	if decimal.NewFromFloat(o.TotalAmount).Sub(computed).Abs().GreaterThan(totalTolerance) {
		o.TotalAmount = computed.InexactFloat64()
		return true
	}
	return false
}

// CancellableStatuses sont les statuts où le client peut encore annuler.
var CancellableStatuses = []string{OrderStatusPending, OrderStatusProcessing}

// CanCancel autorise l'annulation par le client.
func (o *Order) CanCancel() bool {
	return OneOf(o.Status, CancellableStatuses)
}

// CanEditShipping autorise la modification de l'adresse par le client.
func (o *Order) CanEditShipping() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusProcessing
}

func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusDelivered || o.Status == OrderStatusCancelled
}

func (o *Order) IsOwnedBy(userID primitive.ObjectID) bool {
	return !userID.IsZero() && o.User == userID
}

// ItemCount compte les unités de toutes les lignes.
func (o *Order) ItemCount() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

// StatusRank ordonne les statuts de traitement. cancelled et les valeurs
// inconnues valent -1.
func StatusRank(status string) int {
	switch status {
	case OrderStatusPending:
		return 0
	case OrderStatusProcessing:
		return 1
	case OrderStatusShipped:
		return 2
	case OrderStatusDelivered:
		return 3
	default:
		return -1
	}
}

// OneOf dit si value fait partie de allowed.
func OneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

// OrderEvent est diffusé au flux temps réel des admins.
type OrderEvent struct {
	Type          string    `json:"type"` // order.placed, order.updated, order.deleted
	OrderID       string    `json:"orderId"`
	OrderNumber   string    `json:"orderNumber"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"paymentStatus"`
	TotalAmount   float64   `json:"totalAmount"`
	At            time.Time `json:"at"`
}

const (
	EventOrderPlaced  = "order.placed"
	EventOrderUpdated = "order.updated"
	EventOrderDeleted = "order.deleted"
)

func NewOrderEvent(kind string, o *Order) OrderEvent {
	return OrderEvent{
		Type:          kind,
		OrderID:       o.ID.Hex(),
		OrderNumber:   o.OrderNumber,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		TotalAmount:   o.TotalAmount,
		At:            time.Now(),
	}
}
