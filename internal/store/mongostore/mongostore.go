// Package mongostore implémente store.Store sur MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ghee_back_end/internal/models"
	"ghee_back_end/internal/store"
)

const (
	colProducts  = "products"
	colOrders    = "orders"
	colUsers     = "users"
	colAdmins    = "admins"
	colReviews   = "reviews"
	colMovements = "stock_movements"
)

type Store struct {
	db        *mongo.Database
	products  *mongo.Collection
	orders    *mongo.Collection
	users     *mongo.Collection
	admins    *mongo.Collection
	reviews   *mongo.Collection
	movements *mongo.Collection
}

var _ store.Store = (*Store)(nil)

func New(db *mongo.Database) *Store {
	return &Store{
		db:        db,
		products:  db.Collection(colProducts),
		orders:    db.Collection(colOrders),
		users:     db.Collection(colUsers),
		admins:    db.Collection(colAdmins),
		reviews:   db.Collection(colReviews),
		movements: db.Collection(colMovements),
	}
}

// EnsureIndexes crée les index uniques et de tri. Idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		s.products: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "category", Value: 1}, {Key: "isActive", Value: 1}}},
		},
		s.orders: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "orderNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		s.users: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		s.admins: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		s.reviews: {
			{Keys: bson.D{{Key: "product", Value: 1}, {Key: "user", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		s.movements: {
			{Keys: bson.D{{Key: "product", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}

	for col, idx := range indexes {
		if _, err := col.Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", col.Name(), err)
		}
	}
	return nil
}

// --- Produits ---

func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	stamp(&p.CreatedAt, &p.UpdatedAt)
	if _, err := s.products.InsertOne(ctx, p); err != nil {
		return translate(err, "create product")
	}
	return nil
}

func (s *Store) GetProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var p models.Product
	if err := s.products.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, translate(err, "get product")
	}
	return &p, nil
}

func (s *Store) GetProducts(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error) {
	out := make(map[primitive.ObjectID]*models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cursor, err := s.products.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	for i := range products {
		out[products[i].ID] = &products[i]
	}
	return out, nil
}

// UpdateProduct fait un $set des champs éditables: une réservation
// concurrente sur stock n'est jamais écrasée.
func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	update := bson.M{"$set": bson.M{
		"name":        p.Name,
		"description": p.Description,
		"category":    p.Category,
		"isActive":    p.IsActive,
		"images":      p.Images,
		"variants":    p.Variants,
		"price":       p.Price,
		"updatedAt":   time.Now(),
	}}
	return s.updateProduct(ctx, p.ID, update, p, "update product")
}

func (s *Store) SetProductActive(ctx context.Context, id primitive.ObjectID, active bool) (*models.Product, error) {
	var p models.Product
	update := bson.M{"$set": bson.M{"isActive": active, "updatedAt": time.Now()}}
	if err := s.updateProduct(ctx, id, update, &p, "set product active"); err != nil {
		return nil, err
	}
	return &p, nil
}

// updateProduct applique update et décode le document à jour dans out.
func (s *Store) updateProduct(ctx context.Context, id primitive.ObjectID, update bson.M, out *models.Product, op string) error {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := s.products.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(out); err != nil {
		return translate(err, op)
	}
	return nil
}

func (s *Store) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.products.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListProducts(ctx context.Context, f store.ProductFilter, p store.Page) ([]models.Product, int64, error) {
	filter := productFilter(f)
	var products []models.Product
	total, err := s.findPage(ctx, s.products, filter, p, &products)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

// AdjustStock s'appuie sur un filtre conditionnel: le document n'est modifié
// que si stock + delta >= 0, en une seule opération côté serveur.
func (s *Store) AdjustStock(ctx context.Context, id primitive.ObjectID, delta int) (*models.Product, error) {
	filter := bson.M{"_id": id}
	if delta < 0 {
		filter["stock"] = bson.M{"$gte": -delta}
	}
	update := bson.M{
		"$inc": bson.M{"stock": delta},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p models.Product
	err := s.products.FindOneAndUpdate(ctx, filter, update, opts).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Distinguer produit absent et stock insuffisant
		count, cerr := s.products.CountDocuments(ctx, bson.M{"_id": id})
		if cerr != nil {
			return nil, fmt.Errorf("adjust stock: %w", cerr)
		}
		if count == 0 {
			return nil, store.ErrNotFound
		}
		return nil, store.ErrInsufficientStock
	}
	if err != nil {
		return nil, fmt.Errorf("adjust stock: %w", err)
	}
	return &p, nil
}

func (s *Store) SetStock(ctx context.Context, id primitive.ObjectID, stock int) (int, error) {
	update := bson.M{"$set": bson.M{"stock": stock, "updatedAt": time.Now()}}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.Before).
		SetProjection(bson.M{"stock": 1})

	var before struct {
		Stock int `bson:"stock"`
	}
	if err := s.products.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&before); err != nil {
		return 0, translate(err, "set stock")
	}
	return before.Stock, nil
}

func (s *Store) SetRating(ctx context.Context, id primitive.ObjectID, rating float64, count int) error {
	res, err := s.products.UpdateByID(ctx, id, bson.M{"$set": bson.M{"rating": rating, "numReviews": count}})
	if err != nil {
		return fmt.Errorf("set rating: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) InventoryStats(ctx context.Context, lowStock int) (*models.InventoryStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":           nil,
			"totalProducts": bson.M{"$sum": 1},
			"outOfStock": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$stock", 0}}, 1, 0},
			}},
			"lowStock": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$and": bson.A{
					bson.M{"$gt": bson.A{"$stock", 0}},
					bson.M{"$lte": bson.A{"$stock", lowStock}},
				}}, 1, 0},
			}},
			"totalValue": bson.M{"$sum": bson.M{"$multiply": bson.A{"$price", "$stock"}}},
		}}},
	}

	cursor, err := s.products.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("inventory stats: %w", err)
	}
	var rows []struct {
		TotalProducts int     `bson:"totalProducts"`
		OutOfStock    int     `bson:"outOfStock"`
		LowStock      int     `bson:"lowStock"`
		TotalValue    float64 `bson:"totalValue"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode inventory stats: %w", err)
	}

	stats := &models.InventoryStats{}
	if len(rows) > 0 {
		stats.TotalProducts = rows[0].TotalProducts
		stats.OutOfStockProducts = rows[0].OutOfStock
		stats.LowStockProducts = rows[0].LowStock
		stats.TotalValue = rows[0].TotalValue
	}
	return stats, nil
}

// --- Commandes ---

func (s *Store) CreateOrder(ctx context.Context, o *models.Order) error {
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	o.NormalizeTotal()
	stamp(&o.CreatedAt, &o.UpdatedAt)
	if _, err := s.orders.InsertOne(ctx, o); err != nil {
		return translate(err, "create order")
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var o models.Order
	if err := s.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, translate(err, "get order")
	}
	return &o, nil
}

// UpdateOrder remplace la commande seulement si son statut n'a pas bougé
// depuis la lecture.
func (s *Store) UpdateOrder(ctx context.Context, o *models.Order, from string) error {
	o.NormalizeTotal()
	o.UpdatedAt = time.Now()
	res, err := s.orders.ReplaceOne(ctx, bson.M{"_id": o.ID, "status": from}, o)
	if err != nil {
		return translate(err, "update order")
	}
	if res.MatchedCount == 0 {
		return s.missingOrStale(ctx, s.orders, o.ID)
	}
	return nil
}

func (s *Store) DeleteOrder(ctx context.Context, id primitive.ObjectID, statuses ...string) error {
	filter := bson.M{"_id": id}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}
	res, err := s.orders.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if res.DeletedCount == 0 {
		return s.missingOrStale(ctx, s.orders, id)
	}
	return nil
}

func (s *Store) ListOrders(ctx context.Context, f store.OrderFilter, p store.Page) ([]models.Order, int64, error) {
	filter := bson.M{}
	if !f.User.IsZero() {
		filter["user"] = f.User
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.PaymentStatus != "" {
		filter["paymentStatus"] = f.PaymentStatus
	}
	if f.PaymentMethod != "" {
		filter["paymentMethod"] = f.PaymentMethod
	}

	var orders []models.Order
	total, err := s.findPage(ctx, s.orders, filter, p, &orders)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

func (s *Store) OrderStats(ctx context.Context) (*models.OrderStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"status": "$status", "paymentStatus": "$paymentStatus"},
			"count": bson.M{"$sum": 1},
			"total": bson.M{"$sum": "$totalAmount"},
		}}},
	}
	cursor, err := s.orders.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	var rows []struct {
		ID struct {
			Status        string `bson:"status"`
			PaymentStatus string `bson:"paymentStatus"`
		} `bson:"_id"`
		Count int     `bson:"count"`
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode order stats: %w", err)
	}

	stats := &models.OrderStats{ByStatus: map[string]int{}, ByPayment: map[string]int{}}
	for _, row := range rows {
		stats.TotalOrders += row.Count
		stats.ByStatus[row.ID.Status] += row.Count
		stats.ByPayment[row.ID.PaymentStatus] += row.Count
		if row.ID.Status != models.OrderStatusCancelled {
			stats.TotalRevenue += row.Total
		}
	}
	return stats, nil
}

func (s *Store) HasPurchased(ctx context.Context, userID, productID primitive.ObjectID) (bool, error) {
	count, err := s.orders.CountDocuments(ctx, bson.M{
		"user":          userID,
		"items.product": productID,
		"status":        bson.M{"$ne": models.OrderStatusCancelled},
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("has purchased: %w", err)
	}
	return count > 0, nil
}

// --- Utilisateurs ---

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.Favourites == nil {
		u.Favourites = []primitive.ObjectID{}
	}
	stamp(&u.CreatedAt, &u.UpdatedAt)
	if _, err := s.users.InsertOne(ctx, u); err != nil {
		return translate(err, "create user")
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, translate(err, "get user")
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		return nil, translate(err, "get user by email")
	}
	return &u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	u.UpdatedAt = time.Now()
	res, err := s.users.ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	if err != nil {
		return translate(err, "update user")
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context, f store.UserFilter, p store.Page) ([]models.User, int64, error) {
	filter := bson.M{}
	if q := strings.TrimSpace(f.Query); q != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
		filter["$or"] = bson.A{bson.M{"name": rx}, bson.M{"email": rx}}
	}
	var users []models.User
	total, err := s.findPage(ctx, s.users, filter, p, &users)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

// --- Administrateurs ---

func (s *Store) CreateAdmin(ctx context.Context, a *models.Admin) error {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	stamp(&a.CreatedAt, &a.UpdatedAt)
	if _, err := s.admins.InsertOne(ctx, a); err != nil {
		return translate(err, "create admin")
	}
	return nil
}

func (s *Store) GetAdmin(ctx context.Context, id primitive.ObjectID) (*models.Admin, error) {
	var a models.Admin
	if err := s.admins.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, translate(err, "get admin")
	}
	return &a, nil
}

func (s *Store) GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var a models.Admin
	if err := s.admins.FindOne(ctx, bson.M{"email": email}).Decode(&a); err != nil {
		return nil, translate(err, "get admin by email")
	}
	return &a, nil
}

func (s *Store) UpdateAdmin(ctx context.Context, a *models.Admin) error {
	a.UpdatedAt = time.Now()
	res, err := s.admins.ReplaceOne(ctx, bson.M{"_id": a.ID}, a)
	if err != nil {
		return translate(err, "update admin")
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CountAdmins(ctx context.Context) (int64, error) {
	return s.admins.CountDocuments(ctx, bson.M{})
}

// --- Avis ---

func (s *Store) CreateReview(ctx context.Context, r *models.Review) error {
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	if _, err := s.reviews.InsertOne(ctx, r); err != nil {
		return translate(err, "create review")
	}
	return nil
}

func (s *Store) ListReviews(ctx context.Context, productID primitive.ObjectID, p store.Page) ([]models.Review, int64, error) {
	var reviews []models.Review
	total, err := s.findPage(ctx, s.reviews, bson.M{"product": productID}, p, &reviews)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, total, nil
}

func (s *Store) ProductRating(ctx context.Context, productID primitive.ObjectID) (*models.ProductRating, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"product": productID}}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"average": bson.M{"$avg": "$rating"},
			"count":   bson.M{"$sum": 1},
		}}},
	}
	cursor, err := s.reviews.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("product rating: %w", err)
	}
	var rows []models.ProductRating
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode product rating: %w", err)
	}
	if len(rows) == 0 {
		return &models.ProductRating{}, nil
	}
	return &rows[0], nil
}

// --- Mouvements de stock ---

func (s *Store) RecordMovements(ctx context.Context, movements ...models.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	docs := make([]interface{}, len(movements))
	for i := range movements {
		if movements[i].ID.IsZero() {
			movements[i].ID = primitive.NewObjectID()
		}
		if movements[i].CreatedAt.IsZero() {
			movements[i].CreatedAt = time.Now()
		}
		docs[i] = movements[i]
	}
	if _, err := s.movements.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("record movements: %w", err)
	}
	return nil
}

func (s *Store) ListMovements(ctx context.Context, f store.MovementFilter, p store.Page) ([]models.StockMovement, int64, error) {
	filter := bson.M{}
	if !f.Product.IsZero() {
		filter["product"] = f.Product
	}
	if !f.Since.IsZero() {
		filter["createdAt"] = bson.M{"$gte": f.Since}
	}
	var movements []models.StockMovement
	total, err := s.findPage(ctx, s.movements, filter, p, &movements)
	if err != nil {
		return nil, 0, fmt.Errorf("list movements: %w", err)
	}
	return movements, total, nil
}

// --- Helpers ---

// findPage compte puis lit une page triée du plus récent au plus ancien.
func (s *Store) findPage(ctx context.Context, col *mongo.Collection, filter bson.M, p store.Page, out interface{}) (int64, error) {
	p = p.Normalize()
	total, err := col.CountDocuments(ctx, filter)
	if err != nil {
		return 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(p.Skip())).
		SetLimit(int64(p.Limit))

	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return 0, err
	}
	if err := cursor.All(ctx, out); err != nil {
		return 0, err
	}
	return total, nil
}

func productFilter(f store.ProductFilter) bson.M {
	filter := bson.M{}
	if !f.IncludeInactive {
		filter["isActive"] = true
	}
	if f.Category != "" {
		filter["category"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(f.Category) + "$", Options: "i"}
	}
	if f.InStock {
		filter["stock"] = bson.M{"$gt": 0}
	}

	var and bson.A
	if f.MinPrice != nil || f.MaxPrice != nil {
		priceRange := bson.M{}
		if f.MinPrice != nil {
			priceRange["$gte"] = *f.MinPrice
		}
		if f.MaxPrice != nil {
			priceRange["$lte"] = *f.MaxPrice
		}
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"price": priceRange},
			bson.M{"variants": bson.M{"$elemMatch": bson.M{"price": priceRange}}},
		}})
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"name": rx},
			bson.M{"description": rx},
			bson.M{"category": rx},
		}})
	}
	if len(and) > 0 {
		filter["$and"] = and
	}
	return filter
}

// missingOrStale distingue un document absent d'un filtre conditionnel non satisfait.
func (s *Store) missingOrStale(ctx context.Context, col *mongo.Collection, id primitive.ObjectID) error {
	count, err := col.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("count %s: %w", col.Name(), err)
	}
	if count == 0 {
		return store.ErrNotFound
	}
	return store.ErrStale
}

func translate(err error, op string) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return store.ErrDuplicate
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func stamp(createdAt, updatedAt *time.Time) {
	now := time.Now()
	if createdAt.IsZero() {
		*createdAt = now
	}
	*updatedAt = now
}
