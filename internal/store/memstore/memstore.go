// Package memstore est une implémentation en mémoire de store.Store,
// utilisée par les tests et par STORE_DRIVER=memory en local.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ghee_back_end/internal/models"
	"ghee_back_end/internal/store"
)

type Store struct {
	mu        sync.RWMutex
	products  map[primitive.ObjectID]*models.Product
	orders    map[primitive.ObjectID]*models.Order
	users     map[primitive.ObjectID]*models.User
	admins    map[primitive.ObjectID]*models.Admin
	reviews   []models.Review
	movements []models.StockMovement
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		products: make(map[primitive.ObjectID]*models.Product),
		orders:   make(map[primitive.ObjectID]*models.Order),
		users:    make(map[primitive.ObjectID]*models.User),
		admins:   make(map[primitive.ObjectID]*models.Admin),
	}
}

// --- Produits ---

func (s *Store) CreateProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.products {
		if existing.Name == p.Name {
			return store.ErrDuplicate
		}
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	stamp(&p.CreatedAt, &p.UpdatedAt)
	s.products[p.ID] = cloneProduct(p)
	return nil
}

func (s *Store) GetProduct(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneProduct(p), nil
}

func (s *Store) GetProducts(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[primitive.ObjectID]*models.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out[id] = cloneProduct(p)
		}
	}
	return out, nil
}

// UpdateProduct ne touche ni au stock ni à la note du produit stocké.
func (s *Store) UpdateProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.products[p.ID]
	if !ok {
		return store.ErrNotFound
	}
	for id, existing := range s.products {
		if id != p.ID && existing.Name == p.Name {
			return store.ErrDuplicate
		}
	}
	current.Name = p.Name
	current.Description = p.Description
	current.Category = p.Category
	current.IsActive = p.IsActive
	current.Images = append([]string(nil), p.Images...)
	current.Variants = append([]models.Variant(nil), p.Variants...)
	current.Price = p.Price
	current.UpdatedAt = time.Now()
	*p = *cloneProduct(current)
	return nil
}

func (s *Store) SetProductActive(_ context.Context, id primitive.ObjectID, active bool) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	p.IsActive = active
	p.UpdatedAt = time.Now()
	return cloneProduct(p), nil
}

func (s *Store) DeleteProduct(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *Store) ListProducts(_ context.Context, f store.ProductFilter, p store.Page) ([]models.Product, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.Product
	for _, prod := range s.products {
		if matchProduct(prod, f) {
			matched = append(matched, *cloneProduct(prod))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return newer(matched[i].CreatedAt, matched[j].CreatedAt, matched[i].ID, matched[j].ID)
	})
	return paginate(matched, p), int64(len(matched)), nil
}

func (s *Store) AdjustStock(_ context.Context, id primitive.ObjectID, delta int) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if p.Stock+delta < 0 {
		return nil, store.ErrInsufficientStock
	}
	p.Stock += delta
	p.UpdatedAt = time.Now()
	return cloneProduct(p), nil
}

func (s *Store) SetStock(_ context.Context, id primitive.ObjectID, stock int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return 0, store.ErrNotFound
	}
	prev := p.Stock
	p.Stock = stock
	p.UpdatedAt = time.Now()
	return prev, nil
}

func (s *Store) SetRating(_ context.Context, id primitive.ObjectID, rating float64, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return store.ErrNotFound
	}
	p.Rating = rating
	p.NumReviews = count
	return nil
}

func (s *Store) InventoryStats(_ context.Context, lowStock int) (*models.InventoryStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &models.InventoryStats{}
	for _, p := range s.products {
		stats.TotalProducts++
		switch {
		case p.Stock == 0:
			stats.OutOfStockProducts++
		case p.Stock <= lowStock:
			stats.LowStockProducts++
		}
		stats.TotalValue += p.Price * float64(p.Stock)
	}
	return stats, nil
}

// --- Commandes ---

func (s *Store) CreateOrder(_ context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	o.NormalizeTotal()
	stamp(&o.CreatedAt, &o.UpdatedAt)
	s.orders[o.ID] = cloneOrder(o)
	return nil
}

func (s *Store) GetOrder(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (s *Store) UpdateOrder(_ context.Context, o *models.Order, from string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.orders[o.ID]
	if !ok {
		return store.ErrNotFound
	}
	if current.Status != from {
		return store.ErrStale
	}
	o.NormalizeTotal()
	o.UpdatedAt = time.Now()
	s.orders[o.ID] = cloneOrder(o)
	return nil
}

func (s *Store) DeleteOrder(_ context.Context, id primitive.ObjectID, statuses ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.orders[id]
	if !ok {
		return store.ErrNotFound
	}
	if len(statuses) > 0 && !models.OneOf(current.Status, statuses) {
		return store.ErrStale
	}
	delete(s.orders, id)
	return nil
}

func (s *Store) ListOrders(_ context.Context, f store.OrderFilter, p store.Page) ([]models.Order, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.Order
	for _, o := range s.orders {
		if !f.User.IsZero() && o.User != f.User {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.PaymentStatus != "" && o.PaymentStatus != f.PaymentStatus {
			continue
		}
		if f.PaymentMethod != "" && o.PaymentMethod != f.PaymentMethod {
			continue
		}
		matched = append(matched, *cloneOrder(o))
	}
	sort.Slice(matched, func(i, j int) bool {
		return newer(matched[i].CreatedAt, matched[j].CreatedAt, matched[i].ID, matched[j].ID)
	})
	return paginate(matched, p), int64(len(matched)), nil
}

func (s *Store) OrderStats(_ context.Context) (*models.OrderStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &models.OrderStats{ByStatus: map[string]int{}, ByPayment: map[string]int{}}
	for _, o := range s.orders {
		stats.TotalOrders++
		stats.ByStatus[o.Status]++
		stats.ByPayment[o.PaymentStatus]++
		if o.Status != models.OrderStatusCancelled {
			stats.TotalRevenue += o.TotalAmount
		}
	}
	return stats, nil
}

func (s *Store) HasPurchased(_ context.Context, userID, productID primitive.ObjectID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, o := range s.orders {
		if o.User != userID || o.Status == models.OrderStatusCancelled {
			continue
		}
		for _, item := range o.Items {
			if item.Product == productID {
				return true, nil
			}
		}
	}
	return false, nil
}

// --- Utilisateurs ---

func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	stamp(&u.CreatedAt, &u.UpdatedAt)
	s.users[u.ID] = cloneUser(u)
	return nil
}

func (s *Store) GetUser(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.ID]; !ok {
		return store.ErrNotFound
	}
	for id, existing := range s.users {
		if id != u.ID && existing.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	u.UpdatedAt = time.Now()
	s.users[u.ID] = cloneUser(u)
	return nil
}

func (s *Store) ListUsers(_ context.Context, f store.UserFilter, p store.Page) ([]models.User, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(f.Query))
	var matched []models.User
	for _, u := range s.users {
		if q != "" && !strings.Contains(strings.ToLower(u.Name), q) && !strings.Contains(u.Email, q) {
			continue
		}
		matched = append(matched, *cloneUser(u))
	}
	sort.Slice(matched, func(i, j int) bool {
		return newer(matched[i].CreatedAt, matched[j].CreatedAt, matched[i].ID, matched[j].ID)
	})
	return paginate(matched, p), int64(len(matched)), nil
}

// --- Administrateurs ---

func (s *Store) CreateAdmin(_ context.Context, a *models.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.admins {
		if existing.Email == a.Email {
			return store.ErrDuplicate
		}
	}
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	stamp(&a.CreatedAt, &a.UpdatedAt)
	cp := *a
	s.admins[a.ID] = &cp
	return nil
}

func (s *Store) GetAdmin(_ context.Context, id primitive.ObjectID) (*models.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.admins[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *Store) GetAdminByEmail(_ context.Context, email string) (*models.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.admins {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdateAdmin(_ context.Context, a *models.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.admins[a.ID]; !ok {
		return store.ErrNotFound
	}
	a.UpdatedAt = time.Now()
	cp := *a
	s.admins[a.ID] = &cp
	return nil
}

func (s *Store) CountAdmins(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.admins)), nil
}

// --- Avis ---

func (s *Store) CreateReview(_ context.Context, r *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.reviews {
		if existing.User == r.User && existing.Product == r.Product {
			return store.ErrDuplicate
		}
	}
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	s.reviews = append(s.reviews, *r)
	return nil
}

func (s *Store) ListReviews(_ context.Context, productID primitive.ObjectID, p store.Page) ([]models.Review, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.Review
	for i := len(s.reviews) - 1; i >= 0; i-- {
		if s.reviews[i].Product == productID {
			matched = append(matched, s.reviews[i])
		}
	}
	return paginate(matched, p), int64(len(matched)), nil
}

func (s *Store) ProductRating(_ context.Context, productID primitive.ObjectID) (*models.ProductRating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rating := &models.ProductRating{}
	sum := 0
	for _, r := range s.reviews {
		if r.Product == productID {
			sum += r.Rating
			rating.Count++
		}
	}
	if rating.Count > 0 {
		rating.Average = float64(sum) / float64(rating.Count)
	}
	return rating, nil
}

// --- Mouvements de stock ---

func (s *Store) RecordMovements(_ context.Context, movements ...models.StockMovement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range movements {
		if m.ID.IsZero() {
			m.ID = primitive.NewObjectID()
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = time.Now()
		}
		s.movements = append(s.movements, m)
	}
	return nil
}

func (s *Store) ListMovements(_ context.Context, f store.MovementFilter, p store.Page) ([]models.StockMovement, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.StockMovement
	for i := len(s.movements) - 1; i >= 0; i-- {
		m := s.movements[i]
		if !f.Product.IsZero() && m.Product != f.Product {
			continue
		}
		if !f.Since.IsZero() && m.CreatedAt.Before(f.Since) {
			continue
		}
		matched = append(matched, m)
	}
	return paginate(matched, p), int64(len(matched)), nil
}

// --- Helpers ---

func stamp(createdAt, updatedAt *time.Time) {
	now := time.Now()
	if createdAt.IsZero() {
		*createdAt = now
	}
	*updatedAt = now
}

// newer trie du plus récent au plus ancien, l'ObjectID départage les égalités.
func newer(a, b time.Time, idA, idB primitive.ObjectID) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return idA.Hex() > idB.Hex()
}

func paginate[T any](items []T, p store.Page) []T {
	p = p.Normalize()
	start := p.Skip()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func matchProduct(p *models.Product, f store.ProductFilter) bool {
	if !f.IncludeInactive && !p.IsActive {
		return false
	}
	if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
		return false
	}
	if f.InStock && p.Stock <= 0 {
		return false
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		inRange := func(price float64) bool {
			if f.MinPrice != nil && price < *f.MinPrice {
				return false
			}
			if f.MaxPrice != nil && price > *f.MaxPrice {
				return false
			}
			return true
		}
		ok := inRange(p.Price)
		for _, v := range p.Variants {
			ok = ok || inRange(v.Price)
		}
		if !ok {
			return false
		}
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) &&
			!strings.Contains(strings.ToLower(p.Category), q) {
			return false
		}
	}
	return true
}

func cloneProduct(p *models.Product) *models.Product {
	cp := *p
	cp.Images = append([]string(nil), p.Images...)
	cp.Variants = append([]models.Variant(nil), p.Variants...)
	return &cp
}

func cloneOrder(o *models.Order) *models.Order {
	cp := *o
	cp.Items = append([]models.OrderItem(nil), o.Items...)
	if o.PaymentProof != nil {
		proof := *o.PaymentProof
		cp.PaymentProof = &proof
	}
	return &cp
}

func cloneUser(u *models.User) *models.User {
	cp := *u
	cp.Favourites = append([]primitive.ObjectID(nil), u.Favourites...)
	return &cp
}
