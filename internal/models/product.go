package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ghee_back_end/internal/pricing"
)

type Variant struct {
	Size  string  `bson:"size" json:"size"`
	Price float64 `bson:"price" json:"price"`
}

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Category    string             `bson:"category" json:"category"`
	Stock       int                `bson:"stock" json:"stock"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	Images      []string           `bson:"images" json:"images"`
	Variants    []Variant          `bson:"variants" json:"variants"`
	Price       float64            `bson:"price" json:"price"` // prix affiché, hors calcul
	Rating      float64            `bson:"rating" json:"rating"`
	NumReviews  int                `bson:"numReviews" json:"numReviews"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// HasStock dit si le produit peut être vendu dans cette quantité.
func (p *Product) HasStock(quantity int) bool {
	return p.IsActive && p.Stock >= quantity
}

// PricingVariants convertit les variantes pour le calcul de prix.
func (p *Product) PricingVariants() []pricing.Variant {
	if len(p.Variants) == 0 {
		return nil
	}
	out := make([]pricing.Variant, len(p.Variants))
	for i, v := range p.Variants {
		out[i] = pricing.Variant{Size: v.Size, Price: v.Price}
	}
	return out
}

// ProductSummary est le détail produit inclus dans les commandes.
type ProductSummary struct {
	ID       primitive.ObjectID `json:"id"`
	Name     string             `json:"name"`
	Category string             `json:"category"`
	Images   []string           `json:"images"`
	IsActive bool               `json:"isActive"`
}

func (p *Product) Summary() ProductSummary {
	return ProductSummary{
		ID:       p.ID,
		Name:     p.Name,
		Category: p.Category,
		Images:   p.Images,
		IsActive: p.IsActive,
	}
}
