// Package store définit les dépôts utilisés par les workflows métier.
// Deux implémentations existent: mongostore (production) et memstore.
package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ghee_back_end/internal/models"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicate         = errors.New("duplicate key")
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrStale: le document existe mais a changé depuis sa lecture.
	ErrStale = errors.New("stale write")
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

type Page struct {
	Page  int
	Limit int
}

// Normalize applique les valeurs par défaut (page 1, limite 10, max 100).
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

func (p Page) Skip() int {
	p = p.Normalize()
	return (p.Page - 1) * p.Limit
}

type OffsetPage[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalPages int   `json:"totalPages"`
}

func NewOffsetPage[T any](items []T, total int64, p Page) OffsetPage[T] {
	p = p.Normalize()
	if items == nil {
		items = []T{}
	}
	pages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	return OffsetPage[T]{Items: items, Total: total, Page: p.Page, PageSize: p.Limit, TotalPages: pages}
}

type ProductFilter struct {
	Category        string
	MinPrice        *float64
	MaxPrice        *float64
	InStock         bool
	IncludeInactive bool
	Query           string // recherche texte (regex nom/description)
}

type OrderFilter struct {
	User          primitive.ObjectID
	Status        string
	PaymentStatus string
	PaymentMethod string
}

type UserFilter struct {
	Query string
}

type MovementFilter struct {
	Product primitive.ObjectID
	Since   time.Time
}

type ProductStore interface {
	CreateProduct(ctx context.Context, p *models.Product) error
	GetProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	GetProducts(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error)
	// UpdateProduct écrit les champs descriptifs et recharge p. Le stock et
	// la note ne passent jamais par ici.
	UpdateProduct(ctx context.Context, p *models.Product) error
	SetProductActive(ctx context.Context, id primitive.ObjectID, active bool) (*models.Product, error)
	DeleteProduct(ctx context.Context, id primitive.ObjectID) error
	ListProducts(ctx context.Context, f ProductFilter, p Page) ([]models.Product, int64, error)

	// AdjustStock applique stock += delta de façon atomique, uniquement si le
	// résultat reste >= 0. Retourne le produit après modification.
	AdjustStock(ctx context.Context, id primitive.ObjectID, delta int) (*models.Product, error)
	// SetStock remplace le stock et retourne la valeur précédente.
	SetStock(ctx context.Context, id primitive.ObjectID, stock int) (int, error)
	SetRating(ctx context.Context, id primitive.ObjectID, rating float64, count int) error
	InventoryStats(ctx context.Context, lowStock int) (*models.InventoryStats, error)
}

type OrderStore interface {
	CreateOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	// UpdateOrder n'écrit que si le statut stocké vaut encore from, sinon ErrStale.
	UpdateOrder(ctx context.Context, o *models.Order, from string) error
	// DeleteOrder supprime sans condition si statuses est vide, sinon seulement
	// quand le statut stocké en fait partie (ErrStale autrement).
	DeleteOrder(ctx context.Context, id primitive.ObjectID, statuses ...string) error
	ListOrders(ctx context.Context, f OrderFilter, p Page) ([]models.Order, int64, error)
	OrderStats(ctx context.Context) (*models.OrderStats, error)
	// HasPurchased indique si l'utilisateur a une commande non annulée contenant le produit.
	HasPurchased(ctx context.Context, userID, productID primitive.ObjectID) (bool, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	ListUsers(ctx context.Context, f UserFilter, p Page) ([]models.User, int64, error)
}

type AdminStore interface {
	CreateAdmin(ctx context.Context, a *models.Admin) error
	GetAdmin(ctx context.Context, id primitive.ObjectID) (*models.Admin, error)
	GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error)
	UpdateAdmin(ctx context.Context, a *models.Admin) error
	CountAdmins(ctx context.Context) (int64, error)
}

type ReviewStore interface {
	CreateReview(ctx context.Context, r *models.Review) error
	ListReviews(ctx context.Context, productID primitive.ObjectID, p Page) ([]models.Review, int64, error)
	ProductRating(ctx context.Context, productID primitive.ObjectID) (*models.ProductRating, error)
}

// MovementStore est le journal des mouvements de stock.
type MovementStore interface {
	RecordMovements(ctx context.Context, movements ...models.StockMovement) error
	ListMovements(ctx context.Context, f MovementFilter, p Page) ([]models.StockMovement, int64, error)
}

// Store regroupe tous les dépôts d'un même backend.
type Store interface {
	ProductStore
	OrderStore
	UserStore
	AdminStore
	ReviewStore
	MovementStore
}
