package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MovementReserve    = "reserve"    // stock pris par une commande
	MovementRestock    = "restock"    // stock rendu par une commande annulée
	MovementAdjustment = "adjustment" // correction manuelle depuis l'admin
)

type StockMovement struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Product     primitive.ObjectID  `bson:"product" json:"product"`
	ProductName string              `bson:"productName" json:"productName"`
	Type        string              `bson:"type" json:"type"`
	Quantity    int                 `bson:"quantity" json:"quantity"` // delta signé
	PrevStock   int                 `bson:"prevStock" json:"prevStock"`
	NewStock    int                 `bson:"newStock" json:"newStock"`
	Reason      string              `bson:"reason" json:"reason"`
	Order       *primitive.ObjectID `bson:"order,omitempty" json:"order,omitempty"`
	Actor       string              `bson:"actor" json:"actor"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
}

type InventoryStats struct {
	TotalProducts      int     `json:"totalProducts"`
	LowStockProducts   int     `json:"lowStockProducts"`
	OutOfStockProducts int     `json:"outOfStockProducts"`
	TotalValue         float64 `json:"totalValue"`
}

type OrderStats struct {
	TotalOrders  int            `json:"totalOrders"`
	TotalRevenue float64        `json:"totalRevenue"`
	ByStatus     map[string]int `json:"byStatus"`
	ByPayment    map[string]int `json:"byPayment"`
}
