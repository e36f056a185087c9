package catalog

import (
	"context"
	"errors"
	"log"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ghee_back_end/internal/apperr"
	"ghee_back_end/internal/models"
	"ghee_back_end/internal/store"
)

// LowStockThreshold sépare les produits "stock faible" dans les statistiques.
const LowStockThreshold = 10

// SetStock fixe le stock d'un produit (correction d'inventaire admin).
func (s *Service) SetStock(ctx context.Context, id primitive.ObjectID, stock int, reason, actor string) (*models.Product, error) {
	if stock < 0 {
		return nil, apperr.Validation("Stock cannot be negative")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "manual adjustment"
	}

	prev, err := s.products.SetStock(ctx, id, stock)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Product not found")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to update stock", err)
	}
	s.cache.Invalidate(ctx, id)

	p, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.record(ctx, models.StockMovement{
		Product:     id,
		ProductName: p.Name,
		Type:        models.MovementAdjustment,
		Quantity:    stock - prev,
		PrevStock:   prev,
		NewStock:    stock,
		Reason:      reason,
		Actor:       actor,
	})
	log.Printf("📦 Stock %s: %d → %d (%s)", p.Name, prev, stock, actor)
	return p, nil
}

func (s *Service) Movements(ctx context.Context, f store.MovementFilter, page store.Page) (store.OffsetPage[models.StockMovement], error) {
	if s.ledger == nil {
		return store.NewOffsetPage([]models.StockMovement{}, 0, page), nil
	}
	items, total, err := s.ledger.ListMovements(ctx, f, page)
	if err != nil {
		return store.OffsetPage[models.StockMovement]{}, apperr.Internal("Failed to load stock movements", err)
	}
	return store.NewOffsetPage(items, total, page), nil
}

func (s *Service) InventoryStats(ctx context.Context) (*models.InventoryStats, error) {
	stats, err := s.products.InventoryStats(ctx, LowStockThreshold)
	if err != nil {
		return nil, apperr.Internal("Failed to compute inventory stats", err)
	}
	return stats, nil
}
