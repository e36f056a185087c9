package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestOrderComputeTotal(t *testing.T) {
	o := &Order{Items: []OrderItem{
		{Quantity: 2, Price: 3000},
		{Quantity: 3, Price: 1500.25},
	}}
	assert.Equal(t, "10500.75", o.ComputeTotal().StringFixed(2))
}

func TestOrderNormalizeTotal(t *testing.T) {
	tests := []struct {
		name     string
		stored   float64
		want     float64
		rewrites bool
	}{
		{"matching total untouched", 6000, 6000, false},
		{"drift within a cent untouched", 6000.005, 6000.005, false},
		{"drift above a cent recomputed", 5999, 6000, true},
		{"zero recomputed", 0, 6000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &Order{
				Items:       []OrderItem{{Quantity: 2, Price: 3000}},
				TotalAmount: tt.stored,
			}
			assert.Equal(t, tt.rewrites, o.NormalizeTotal())
			assert.InDelta(t, tt.want, o.TotalAmount, 0.0001)
		})
	}
}

func TestOrderGates(t *testing.T) {
	for _, status := range OrderStatuses {
		o := &Order{Status: status}
		open := status == OrderStatusPending || status == OrderStatusProcessing
		assert.Equal(t, open, o.CanCancel(), status)
		assert.Equal(t, open, o.CanEditShipping(), status)
		terminal := status == OrderStatusDelivered || status == OrderStatusCancelled
		assert.Equal(t, terminal, o.IsTerminal(), status)
	}
}

func TestOrderIsOwnedBy(t *testing.T) {
	owner := primitive.NewObjectID()
	o := &Order{User: owner}

	assert.True(t, o.IsOwnedBy(owner))
	assert.False(t, o.IsOwnedBy(primitive.NewObjectID()))
	assert.False(t, o.IsOwnedBy(primitive.NilObjectID))
}

func TestStatusRank(t *testing.T) {
	assert.Less(t, StatusRank(OrderStatusPending), StatusRank(OrderStatusProcessing))
	assert.Less(t, StatusRank(OrderStatusProcessing), StatusRank(OrderStatusShipped))
	assert.Less(t, StatusRank(OrderStatusShipped), StatusRank(OrderStatusDelivered))
	assert.Equal(t, -1, StatusRank(OrderStatusCancelled))
	assert.Equal(t, -1, StatusRank("lost"))
}

func TestProductHasStock(t *testing.T) {
	p := &Product{IsActive: true, Stock: 5}
	assert.True(t, p.HasStock(5))
	assert.False(t, p.HasStock(6))

	p.IsActive = false
	assert.False(t, p.HasStock(1))
}
