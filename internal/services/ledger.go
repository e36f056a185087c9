package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gocql/gocql"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ghee_back_end/internal/models"
	"ghee_back_end/internal/store"
)

// ScyllaLedger écrit le journal des mouvements de stock dans ScyllaDB,
// partitionné par produit. Il remplace le journal MongoDB quand
// SCYLLA_HOSTS est configuré.
type ScyllaLedger struct {
	session *gocql.Session
}

var _ store.MovementStore = (*ScyllaLedger)(nil)

func NewScyllaLedger(session *gocql.Session) *ScyllaLedger {
	return &ScyllaLedger{session: session}
}

const insertMovementCQL = `INSERT INTO stock_movements
	(product_id, created_at, movement_id, product_name, type, quantity, prev_stock, new_stock, reason, order_id, actor)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectMovementColumns = `SELECT product_id, created_at, movement_id, product_name, type, quantity, prev_stock, new_stock, reason, order_id, actor FROM stock_movements`

func (l *ScyllaLedger) RecordMovements(ctx context.Context, movements ...models.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}

	batch := l.session.NewBatch(gocql.UnloggedBatch).WithContext(ctx)
	for _, m := range movements {
		if m.CreatedAt.IsZero() {
			m.CreatedAt = time.Now()
		}
		orderID := ""
		if m.Order != nil {
			orderID = m.Order.Hex()
		}
		batch.Query(insertMovementCQL,
			m.Product.Hex(), m.CreatedAt, gocql.UUIDFromTime(m.CreatedAt), m.ProductName, m.Type,
			m.Quantity, m.PrevStock, m.NewStock, m.Reason, orderID, m.Actor)
	}
	if err := l.session.ExecuteBatch(batch); err != nil {
		return fmt.Errorf("écriture journal de stock: %w", err)
	}
	return nil
}

// ListMovements lit une partition produit dans l'ordre de clustering. Sans
// filtre produit la table est parcourue puis triée en mémoire, ce qui reste
// réservé aux petits volumes de l'écran admin.
func (l *ScyllaLedger) ListMovements(ctx context.Context, f store.MovementFilter, p store.Page) ([]models.StockMovement, int64, error) {
	p = p.Normalize()

	var q *gocql.Query
	switch {
	case !f.Product.IsZero() && !f.Since.IsZero():
		q = l.session.Query(selectMovementColumns+" WHERE product_id = ? AND created_at >= ?", f.Product.Hex(), f.Since)
	case !f.Product.IsZero():
		q = l.session.Query(selectMovementColumns+" WHERE product_id = ?", f.Product.Hex())
	default:
		q = l.session.Query(selectMovementColumns)
	}

	iter := q.WithContext(ctx).PageSize(500).Iter()
	var all []models.StockMovement
	var (
		productID, movementType, productName, reason, orderID, actor string
		createdAt                                                    time.Time
		movementID                                                   gocql.UUID
		quantity, prevStock, newStock                                int
	)
	for iter.Scan(&productID, &createdAt, &movementID, &productName, &movementType,
		&quantity, &prevStock, &newStock, &reason, &orderID, &actor) {
		if f.Product.IsZero() && !f.Since.IsZero() && createdAt.Before(f.Since) {
			continue
		}
		m := models.StockMovement{
			ProductName: productName,
			Type:        movementType,
			Quantity:    quantity,
			PrevStock:   prevStock,
			NewStock:    newStock,
			Reason:      reason,
			Actor:       actor,
			CreatedAt:   createdAt,
		}
		m.Product, _ = primitive.ObjectIDFromHex(productID)
		if oid, err := primitive.ObjectIDFromHex(orderID); err == nil {
			m.Order = &oid
		}
		all = append(all, m)
	}
	if err := iter.Close(); err != nil {
		return nil, 0, fmt.Errorf("lecture journal de stock: %w", err)
	}

	if f.Product.IsZero() {
		sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	}

	total := int64(len(all))
	start := p.Skip()
	if start >= len(all) {
		return []models.StockMovement{}, total, nil
	}
	end := start + p.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}
