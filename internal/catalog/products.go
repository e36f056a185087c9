package catalog

import (
	"context"
	"errors"
	"log"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ghee_back_end/internal/apperr"
	"ghee_back_end/internal/models"
	"ghee_back_end/internal/pricing"
	"ghee_back_end/internal/store"
)

// ProductInput sert à la création et à la mise à jour partielle: un champ
// nil n'est pas modifié.
type ProductInput struct {
	Name        *string           `json:"name"`
	Description *string           `json:"description"`
	Category    *string           `json:"category"`
	Stock       *int              `json:"stock"`
	IsActive    *bool             `json:"isActive"`
	Images      *[]string         `json:"images"`
	Variants    *[]models.Variant `json:"variants"`
	Price       *float64          `json:"price"`
}

func (in ProductInput) apply(p *models.Product) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Category != nil {
		p.Category = strings.TrimSpace(*in.Category)
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if in.Images != nil {
		p.Images = *in.Images
	}
	if in.Variants != nil {
		p.Variants = *in.Variants
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
}

// validateProduct retourne toutes les erreurs de champ en une fois.
func validateProduct(p *models.Product) error {
	var errs apperr.FieldErrors

	switch n := len([]rune(p.Name)); {
	case n == 0:
		errs.Add("Product name is required")
	case n < 2 || n > 100:
		errs.Add("Product name must be between 2 and 100 characters")
	}
	if len([]rune(p.Description)) > 2000 {
		errs.Add("Description cannot exceed 2000 characters")
	}
	switch n := len([]rune(p.Category)); {
	case n == 0:
		errs.Add("Category is required")
	case n > 50:
		errs.Add("Category cannot exceed 50 characters")
	}
	if p.Stock < 0 {
		errs.Add("Stock cannot be negative")
	}
	if p.Price < 0 {
		errs.Add("Price cannot be negative")
	}
	if len(p.Images) == 0 {
		errs.Add("At least one image is required")
	}
	for i, img := range p.Images {
		if strings.TrimSpace(img) == "" {
			errs.Addf("Image %d is empty", i+1)
		}
	}

	seen := make(map[string]bool, len(p.Variants))
	for i, v := range p.Variants {
		size := pricing.NormalizeSize(v.Size)
		if size == "" {
			errs.Addf("Variant %d: size is required", i+1)
			continue
		}
		if seen[size] {
			errs.Addf("Variant %d: duplicate size %s", i+1, v.Size)
		}
		seen[size] = true
		if v.Price < 0 {
			errs.Addf("Variant %d: price cannot be negative", i+1)
		}
	}

	return errs.Err()
}

func (s *Service) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	p := &models.Product{IsActive: true}
	in.apply(p)
	if err := validateProduct(p); err != nil {
		return nil, err
	}

	err := s.products.CreateProduct(ctx, p)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, apperr.Conflict("A product with this name already exists")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to create product", err)
	}

	s.index.Index(ctx, p)
	log.Printf("🧈 Produit créé: %s (%s)", p.Name, p.ID.Hex())
	return p, nil
}

// Update modifie les champs descriptifs. Un stock fourni passe par SetStock
// pour être journalisé; il n'est jamais réécrit avec le reste du document.
func (s *Service) Update(ctx context.Context, id primitive.ObjectID, in ProductInput, actor string) (*models.Product, error) {
	stock := in.Stock
	in.Stock = nil

	p, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(p)
	check := *p
	if stock != nil {
		check.Stock = *stock
	}
	if err := validateProduct(&check); err != nil {
		return nil, err
	}

	err = s.products.UpdateProduct(ctx, p)
	switch {
	case errors.Is(err, store.ErrDuplicate):
		return nil, apperr.Conflict("A product with this name already exists")
	case errors.Is(err, store.ErrNotFound):
		return nil, apperr.NotFound("Product not found")
	case err != nil:
		return nil, apperr.Internal("Failed to update product", err)
	}
	s.cache.Invalidate(ctx, id)

	if stock != nil && *stock != p.Stock {
		if p, err = s.SetStock(ctx, id, *stock, "product update", actor); err != nil {
			return nil, err
		}
	}
	s.index.Index(ctx, p)
	return p, nil
}

// Delete désactive le produit, ou le supprime définitivement si hard.
func (s *Service) Delete(ctx context.Context, id primitive.ObjectID, hard bool) error {
	if hard {
		err := s.products.DeleteProduct(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("Product not found")
		}
		if err != nil {
			return apperr.Internal("Failed to delete product", err)
		}
		s.cache.Invalidate(ctx, id)
		s.index.Remove(ctx, id)
		log.Printf("🗑️ Produit supprimé: %s", id.Hex())
		return nil
	}

	p, err := s.products.SetProductActive(ctx, id, false)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("Product not found")
	}
	if err != nil {
		return apperr.Internal("Failed to deactivate product", err)
	}
	s.cache.Invalidate(ctx, id)
	s.index.Index(ctx, p)
	log.Printf("🚫 Produit désactivé: %s", id.Hex())
	return nil
}

// GetPublic retourne un produit actif, via le cache Redis quand il existe.
func (s *Service) GetPublic(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	if p, ok := s.cache.Get(ctx, id); ok {
		return p, nil
	}
	p, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, apperr.NotFound("Product not found")
	}
	s.cache.Set(ctx, p)
	return p, nil
}

func (s *Service) List(ctx context.Context, f store.ProductFilter, page store.Page) (store.OffsetPage[models.Product], error) {
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return store.OffsetPage[models.Product]{}, apperr.Validation("minPrice cannot be greater than maxPrice")
	}
	items, total, err := s.products.ListProducts(ctx, f, page)
	if err != nil {
		return store.OffsetPage[models.Product]{}, apperr.Internal("Failed to list products", err)
	}
	return store.NewOffsetPage(items, total, page), nil
}

// Search interroge Elasticsearch et retombe sur une recherche MongoDB quand
// l'index est absent ou en erreur.
func (s *Service) Search(ctx context.Context, query string, includeInactive bool, page store.Page) (store.OffsetPage[models.Product], error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return store.OffsetPage[models.Product]{}, apperr.Validation("Search query is required")
	}
	page = page.Normalize()

	if s.index.Enabled() {
		ids, total, err := s.index.Search(ctx, query, includeInactive, page.Skip(), page.Limit)
		if err == nil {
			var items []models.Product
			if items, err = s.loadOrdered(ctx, ids, includeInactive); err == nil {
				return store.NewOffsetPage(items, total, page), nil
			}
		}
		log.Printf("⚠️ Recherche Elasticsearch indisponible, repli MongoDB: %v", err)
	}

	return s.List(ctx, store.ProductFilter{Query: query, IncludeInactive: includeInactive}, page)
}

func (s *Service) loadOrdered(ctx context.Context, ids []primitive.ObjectID, includeInactive bool) ([]models.Product, error) {
	byID, err := s.products.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok || (!includeInactive && !p.IsActive) {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

// Reindex pousse tout le catalogue dans l'index de recherche.
func (s *Service) Reindex(ctx context.Context) (int, error) {
	if !s.index.Enabled() {
		return 0, nil
	}
	count := 0
	for page := (store.Page{Page: 1, Limit: store.MaxLimit}); ; page.Page++ {
		items, _, err := s.products.ListProducts(ctx, store.ProductFilter{IncludeInactive: true}, page)
		if err != nil {
			return count, err
		}
		for i := range items {
			s.index.Index(ctx, &items[i])
		}
		count += len(items)
		if len(items) < page.Limit {
			return count, nil
		}
	}
}
