package memstore

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ghee_back_end/internal/models"
	"ghee_back_end/internal/store"
)

func TestAdjustStockNeverOversells(t *testing.T) {
	ctx := context.Background()
	s := New()
	p := &models.Product{Name: "Desi Ghee", Stock: 10, IsActive: true}
	require.NoError(t, s.CreateProduct(ctx, p))

	var wg sync.WaitGroup
	var sold atomic.Int32
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.AdjustStock(ctx, p.ID, -1); err == nil {
				sold.Add(1)
			} else {
				assert.ErrorIs(t, err, store.ErrInsufficientStock)
			}
		}()
	}
	wg.Wait()

	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
	assert.Equal(t, int32(10), sold.Load())
}

func TestCreateProductRejectsDuplicateName(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.CreateProduct(ctx, &models.Product{Name: "A2 Ghee"}))
	assert.ErrorIs(t, s.CreateProduct(ctx, &models.Product{Name: "A2 Ghee"}), store.ErrDuplicate)
}

func TestReturnedDocumentsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	p := &models.Product{Name: "Cow Ghee", Stock: 3, Images: []string{"a.jpg"}}
	require.NoError(t, s.CreateProduct(ctx, p))

	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	got.Stock = 99
	got.Images[0] = "b.jpg"

	again, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, again.Stock)
	assert.Equal(t, "a.jpg", again.Images[0])
}

func TestUpdateOrderNormalizesTotal(t *testing.T) {
	ctx := context.Background()
	s := New()
	o := &models.Order{Items: []models.OrderItem{{Quantity: 2, Price: 3000}}, TotalAmount: 1}
	require.NoError(t, s.CreateOrder(ctx, o))
	assert.Equal(t, 6000.0, o.TotalAmount)

	o.Items = append(o.Items, models.OrderItem{Quantity: 1, Price: 1500})
	require.NoError(t, s.UpdateOrder(ctx, o, o.Status))

	got, err := s.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 7500.0, got.TotalAmount)
}

func TestOrderWritesAreConditionalOnStatus(t *testing.T) {
	ctx := context.Background()
	s := New()
	o := &models.Order{Status: models.OrderStatusPending, Items: []models.OrderItem{{Quantity: 1, Price: 3000}}}
	require.NoError(t, s.CreateOrder(ctx, o))

	cancelled := *o
	cancelled.Status = models.OrderStatusCancelled
	require.NoError(t, s.UpdateOrder(ctx, &cancelled, models.OrderStatusPending))

	// écriture préparée à partir de l'ancienne lecture
	o.ShippingAddress.City = "Mumbai"
	assert.ErrorIs(t, s.UpdateOrder(ctx, o, models.OrderStatusPending), store.ErrStale)
	assert.ErrorIs(t, s.DeleteOrder(ctx, o.ID, models.CancellableStatuses...), store.ErrStale)

	got, err := s.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, got.Status)
	assert.Empty(t, got.ShippingAddress.City)

	assert.ErrorIs(t, s.UpdateOrder(ctx, &models.Order{ID: primitive.NewObjectID()}, ""), store.ErrNotFound)
	require.NoError(t, s.DeleteOrder(ctx, o.ID))
	assert.ErrorIs(t, s.DeleteOrder(ctx, o.ID), store.ErrNotFound)
}

func TestUpdateProductLeavesStockAlone(t *testing.T) {
	ctx := context.Background()
	s := New()
	p := &models.Product{Name: "Desi Ghee", Stock: 5, IsActive: true}
	require.NoError(t, s.CreateProduct(ctx, p))

	edit, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	_, err = s.AdjustStock(ctx, p.ID, -2)
	require.NoError(t, err)

	edit.Description = "Bilona method"
	edit.Stock = 5
	require.NoError(t, s.UpdateProduct(ctx, edit))
	assert.Equal(t, 3, edit.Stock)

	off, err := s.SetProductActive(ctx, p.ID, false)
	require.NoError(t, err)
	assert.False(t, off.IsActive)
	assert.Equal(t, 3, off.Stock)
	assert.Equal(t, "Bilona method", off.Description)
}

func TestListProductsFilters(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.CreateProduct(ctx, &models.Product{Name: "Buffalo Ghee", Category: "ghee", Stock: 0, IsActive: true, Variants: []models.Variant{{Size: "1kg", Price: 2500}}}))
	require.NoError(t, s.CreateProduct(ctx, &models.Product{Name: "Cow Ghee", Category: "ghee", Stock: 4, IsActive: true, Variants: []models.Variant{{Size: "1kg", Price: 3200}}}))
	require.NoError(t, s.CreateProduct(ctx, &models.Product{Name: "Old Ghee", Category: "ghee", Stock: 4, IsActive: false}))

	items, total, err := s.ListProducts(ctx, store.ProductFilter{}, store.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, items, 2)

	items, _, err = s.ListProducts(ctx, store.ProductFilter{InStock: true}, store.Page{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Cow Ghee", items[0].Name)

	maxPrice := 3000.0
	items, _, err = s.ListProducts(ctx, store.ProductFilter{MaxPrice: &maxPrice}, store.Page{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Buffalo Ghee", items[0].Name)

	_, total, err = s.ListProducts(ctx, store.ProductFilter{IncludeInactive: true}, store.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
}

func TestPageNormalize(t *testing.T) {
	assert.Equal(t, store.Page{Page: 1, Limit: 10}, store.Page{}.Normalize())
	assert.Equal(t, store.Page{Page: 2, Limit: 100}, store.Page{Page: 2, Limit: 500}.Normalize())
	assert.Equal(t, 20, store.Page{Page: 3, Limit: 10}.Skip())
}
