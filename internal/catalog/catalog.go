// Package catalog porte les produits: disponibilité, prix par taille,
// ajustements de stock atomiques, administration, recherche et avis.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ghee_back_end/internal/apperr"
	"ghee_back_end/internal/models"
	"ghee_back_end/internal/pricing"
	"ghee_back_end/internal/store"
)

type ProductCache interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.Product, bool)
	Set(ctx context.Context, p *models.Product)
	Invalidate(ctx context.Context, ids ...primitive.ObjectID)
}

type SearchIndex interface {
	Enabled() bool
	Index(ctx context.Context, p *models.Product)
	Remove(ctx context.Context, id primitive.ObjectID)
	Search(ctx context.Context, query string, includeInactive bool, from, size int) ([]primitive.ObjectID, int64, error)
}

// PurchaseChecker vérifie qu'un client a acheté un produit avant de le noter.
type PurchaseChecker interface {
	HasPurchased(ctx context.Context, userID, productID primitive.ObjectID) (bool, error)
}

type Deps struct {
	Products  store.ProductStore
	Reviews   store.ReviewStore
	Purchases PurchaseChecker
	Ledger    store.MovementStore
	Prices    pricing.Table
	Cache     ProductCache // optionnel
	Index     SearchIndex  // optionnel
}

type Service struct {
	products  store.ProductStore
	reviews   store.ReviewStore
	purchases PurchaseChecker
	ledger    store.MovementStore
	prices    pricing.Table
	cache     ProductCache
	index     SearchIndex
}

func New(d Deps) *Service {
	s := &Service{
		products:  d.Products,
		reviews:   d.Reviews,
		purchases: d.Purchases,
		ledger:    d.Ledger,
		prices:    d.Prices,
		cache:     d.Cache,
		index:     d.Index,
	}
	if s.cache == nil {
		s.cache = nopCache{}
	}
	if s.index == nil {
		s.index = nopIndex{}
	}
	return s
}

// StockChange décrit la raison d'un ajustement pour le journal de stock.
type StockChange struct {
	Type   string
	Reason string
	Order  *primitive.ObjectID
	Actor  string
}

// Load lit un produit, quel que soit son statut.
func (s *Service) Load(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	p, err := s.products.GetProduct(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Product not found")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to load product", err)
	}
	return p, nil
}

// HasStock est vrai si le produit est actif et dispose de quantity unités.
func (s *Service) HasStock(ctx context.Context, id primitive.ObjectID, quantity int) (bool, error) {
	p, err := s.Load(ctx, id)
	if err != nil {
		return false, err
	}
	return p.HasStock(quantity), nil
}

// PriceForSize résout le prix de vente d'une taille pour un produit.
func (s *Service) PriceForSize(ctx context.Context, id primitive.ObjectID, size string) (float64, error) {
	p, err := s.Load(ctx, id)
	if err != nil {
		return 0, err
	}
	price, ok := s.ResolvePrice(p, size)
	if !ok {
		return 0, apperr.NotFound(fmt.Sprintf("Size %s not available for %s", size, p.Name))
	}
	return price, nil
}

// ResolvePrice applique la même résolution que PriceForSize sur un produit déjà chargé.
func (s *Service) ResolvePrice(p *models.Product, size string) (float64, bool) {
	return s.prices.Resolve(p.PricingVariants(), size)
}

// AdjustStock applique stock += delta de façon atomique. Un résultat négatif
// est refusé sans nouvelle tentative.
func (s *Service) AdjustStock(ctx context.Context, id primitive.ObjectID, delta int, change StockChange) (*models.Product, error) {
	p, err := s.products.AdjustStock(ctx, id, delta)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, apperr.NotFound("Product not found")
	case errors.Is(err, store.ErrInsufficientStock):
		return nil, &apperr.Error{Kind: apperr.KindConflict, Message: "Insufficient stock", Cause: err}
	case err != nil:
		return nil, apperr.Internal("Failed to update stock", err)
	}

	s.cache.Invalidate(ctx, id)
	s.record(ctx, models.StockMovement{
		Product:     p.ID,
		ProductName: p.Name,
		Type:        change.Type,
		Quantity:    delta,
		PrevStock:   p.Stock - delta,
		NewStock:    p.Stock,
		Reason:      change.Reason,
		Order:       change.Order,
		Actor:       change.Actor,
	})
	return p, nil
}

// record écrit le journal sans faire échouer l'opération de stock.
func (s *Service) record(ctx context.Context, movements ...models.StockMovement) {
	if s.ledger == nil || len(movements) == 0 {
		return
	}
	if err := s.ledger.RecordMovements(ctx, movements...); err != nil {
		log.Printf("⚠️ Journal de stock non écrit (%d mouvements): %v", len(movements), err)
	}
}

type nopCache struct{}

func (nopCache) Get(context.Context, primitive.ObjectID) (*models.Product, bool) { return nil, false }
func (nopCache) Set(context.Context, *models.Product) {}
func (nopCache) Invalidate(context.Context, ...primitive.ObjectID) {}

type nopIndex struct{}

func (nopIndex) Enabled() bool { return false }
func (nopIndex) Index(context.Context, *models.Product) {}
func (nopIndex) Remove(context.Context, primitive.ObjectID) {}
func (nopIndex) Search(context.Context, string, bool, int, int) ([]primitive.ObjectID, int64, error) {
	return nil, 0, nil
}
