package catalog

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ghee_back_end/internal/apperr"
	"ghee_back_end/internal/models"
	"ghee_back_end/internal/pricing"
	"ghee_back_end/internal/store"
	"ghee_back_end/internal/store/memstore"
)

func ptr[T any](v T) *T { return &v }

func newTestService(t *testing.T) (*Service, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	prices, err := pricing.ParseTable("500g=1500,1kg=3000,2kg=6000")
	require.NoError(t, err)
	return New(Deps{
		Products:  st,
		Reviews:   st,
		Purchases: st,
		Ledger:    st,
		Prices:    prices,
	}), st
}

func seedProduct(t *testing.T, svc *Service, name string, stock int, variants ...models.Variant) *models.Product {
	t.Helper()
	in := ProductInput{
		Name:     ptr(name),
		Category: ptr("ghee"),
		Stock:    ptr(stock),
		Images:   ptr([]string{"ghee.jpg"}),
	}
	if len(variants) > 0 {
		in.Variants = ptr(variants)
	}
	p, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	return p
}

func TestPriceForSizeUsesVariantsFirst(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	p := seedProduct(t, svc, "A2 Cow Ghee", 5, models.Variant{Size: "1 KG", Price: 2800})

	price, err := svc.PriceForSize(ctx, p.ID, "1kg")
	require.NoError(t, err)
	assert.Equal(t, 2800.0, price)

	// 2kg existe dans la table mais pas dans les variantes
	_, err = svc.PriceForSize(ctx, p.ID, "2kg")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestPriceForSizeFallsBackToTable(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	p := seedProduct(t, svc, "Desi Ghee", 5)

	price, err := svc.PriceForSize(ctx, p.ID, " 2 KG ")
	require.NoError(t, err)
	assert.Equal(t, 6000.0, price)

	_, err = svc.PriceForSize(ctx, p.ID, "5kg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Size 5kg not available for Desi Ghee")
}

func TestHasStock(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	p := seedProduct(t, svc, "Buffalo Ghee", 2)

	ok, err := svc.HasStock(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.HasStock(ctx, p.ID, 3)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, svc.Delete(ctx, p.ID, false))
	ok, err = svc.HasStock(ctx, p.ID, 1)
	require.NoError(t, err)
	assert.False(t, ok, "inactive products are never in stock")
}

func TestAdjustStockRejectsNegativeResultAndRecordsLedger(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	p := seedProduct(t, svc, "Desi Ghee", 3)

	_, err := svc.AdjustStock(ctx, p.ID, -4, StockChange{Type: models.MovementReserve})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	got, err := svc.AdjustStock(ctx, p.ID, -3, StockChange{Type: models.MovementReserve, Actor: "user:1"})
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)

	moves, total, err := st.ListMovements(ctx, store.MovementFilter{Product: p.ID}, store.Page{})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, -3, moves[0].Quantity)
	assert.Equal(t, 3, moves[0].PrevStock)
	assert.Equal(t, 0, moves[0].NewStock)

	_, err = svc.AdjustStock(ctx, primitive.NewObjectID(), 1, StockChange{})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCreateAggregatesValidationErrors(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), ProductInput{
		Name:     ptr("x"),
		Stock:    ptr(-1),
		Variants: ptr([]models.Variant{{Size: "1kg", Price: 10}, {Size: "1 KG", Price: -1}}),
	})
	require.Error(t, err)

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
	assert.Contains(t, appErr.Fields, "Product name must be between 2 and 100 characters")
	assert.Contains(t, appErr.Fields, "Category is required")
	assert.Contains(t, appErr.Fields, "Stock cannot be negative")
	assert.Contains(t, appErr.Fields, "At least one image is required")
	assert.Contains(t, appErr.Fields, "Variant 2: duplicate size 1 KG")
	assert.Contains(t, appErr.Fields, "Variant 2: price cannot be negative")
}

func TestCreateDuplicateNameIsConflict(t *testing.T) {
	svc, _ := newTestService(t)
	seedProduct(t, svc, "Desi Ghee", 1)

	_, err := svc.Create(context.Background(), ProductInput{
		Name:     ptr("Desi Ghee"),
		Category: ptr("ghee"),
		Images:   ptr([]string{"x.jpg"}),
	})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestUpdateIsPartial(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	p := seedProduct(t, svc, "Desi Ghee", 4)

	got, err := svc.Update(ctx, p.ID, ProductInput{Description: ptr("  Slow cooked  ")}, "admin:root")
	require.NoError(t, err)
	assert.Equal(t, "Slow cooked", got.Description)
	assert.Equal(t, "Desi Ghee", got.Name)
	assert.Equal(t, 4, got.Stock)
}

// racingProducts réserve du stock juste après la première lecture d'un
// produit, comme une commande passée pendant l'édition admin.
type racingProducts struct {
	*memstore.Store
	once sync.Once
	race func()
}

func (r *racingProducts) GetProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	p, err := r.Store.GetProduct(ctx, id)
	r.once.Do(r.race)
	return p, err
}

func newRacingService(t *testing.T, stock int) (*Service, *memstore.Store, *models.Product) {
	t.Helper()
	ctx := context.Background()
	svc, st := newTestService(t)
	p := seedProduct(t, svc, "Desi Ghee", stock)

	racing := &racingProducts{Store: st}
	racing.race = func() {
		_, err := st.AdjustStock(ctx, p.ID, -2)
		require.NoError(t, err)
	}
	prices, err := pricing.ParseTable("500g=1500,1kg=3000,2kg=6000")
	require.NoError(t, err)
	return New(Deps{Products: racing, Reviews: st, Purchases: st, Ledger: st, Prices: prices}), st, p
}

func TestUpdateKeepsConcurrentReservation(t *testing.T) {
	svc, st, p := newRacingService(t, 5)
	ctx := context.Background()

	got, err := svc.Update(ctx, p.ID, ProductInput{Description: ptr("Bilona method")}, "admin:root")
	require.NoError(t, err)
	assert.Equal(t, "Bilona method", got.Description)
	assert.Equal(t, 3, got.Stock)

	stored, err := st.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Stock)
}

func TestSoftDeleteKeepsConcurrentReservation(t *testing.T) {
	svc, st, p := newRacingService(t, 5)
	ctx := context.Background()

	// la désactivation ne relit pas le produit: on déclenche la réservation à la main
	_, err := svc.Load(ctx, p.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, p.ID, false))

	stored, err := st.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	assert.Equal(t, 3, stored.Stock)
}

func TestUpdateStockIsJournaled(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	p := seedProduct(t, svc, "Desi Ghee", 4)

	got, err := svc.Update(ctx, p.ID, ProductInput{Name: ptr("Desi Cow Ghee"), Stock: ptr(9)}, "admin:root")
	require.NoError(t, err)
	assert.Equal(t, "Desi Cow Ghee", got.Name)
	assert.Equal(t, 9, got.Stock)

	moves, total, err := st.ListMovements(ctx, store.MovementFilter{Product: p.ID}, store.Page{})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, models.MovementAdjustment, moves[0].Type)
	assert.Equal(t, 5, moves[0].Quantity)
	assert.Equal(t, "product update", moves[0].Reason)
	assert.Equal(t, "admin:root", moves[0].Actor)

	_, err = svc.Update(ctx, p.ID, ProductInput{Stock: ptr(-1)}, "admin:root")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, 9, mustLoad(t, svc, p.ID).Stock)
}

func mustLoad(t *testing.T, svc *Service, id primitive.ObjectID) *models.Product {
	t.Helper()
	p, err := svc.Load(context.Background(), id)
	require.NoError(t, err)
	return p
}

func TestDeleteSoftAndHard(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	p := seedProduct(t, svc, "Desi Ghee", 4)

	require.NoError(t, svc.Delete(ctx, p.ID, false))
	_, err := svc.GetPublic(ctx, p.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	loaded, err := svc.Load(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, loaded.IsActive)

	require.NoError(t, svc.Delete(ctx, p.ID, true))
	_, err = svc.Load(ctx, p.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestListAndSearch(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seedProduct(t, svc, "Desi Cow Ghee", 4)
	seedProduct(t, svc, "Buffalo Ghee", 0)
	hidden := seedProduct(t, svc, "Desi Buffalo Ghee", 2)
	require.NoError(t, svc.Delete(ctx, hidden.ID, false))

	page, err := svc.List(ctx, store.ProductFilter{InStock: true}, store.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)

	page, err = svc.List(ctx, store.ProductFilter{IncludeInactive: true}, store.Page{Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.TotalPages)

	_, err = svc.List(ctx, store.ProductFilter{MinPrice: ptr(10.0), MaxPrice: ptr(1.0)}, store.Page{})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	found, err := svc.Search(ctx, "desi", false, store.Page{})
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "Desi Cow Ghee", found.Items[0].Name)

	_, err = svc.Search(ctx, "   ", false, store.Page{})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

type fakeIndex struct {
	ids []primitive.ObjectID
	err error
}

func (f *fakeIndex) Enabled() bool                              { return true }
func (f *fakeIndex) Index(context.Context, *models.Product)     {}
func (f *fakeIndex) Remove(context.Context, primitive.ObjectID) {}
func (f *fakeIndex) Search(context.Context, string, bool, int, int) ([]primitive.ObjectID, int64, error) {
	return f.ids, int64(len(f.ids)), f.err
}

func TestSearchKeepsIndexOrder(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	a := seedProduct(t, svc, "Ghee A", 1)
	b := seedProduct(t, svc, "Ghee B", 1)

	svc.index = &fakeIndex{ids: []primitive.ObjectID{b.ID, a.ID}}
	found, err := svc.Search(ctx, "ghee", false, store.Page{})
	require.NoError(t, err)
	require.Len(t, found.Items, 2)
	assert.Equal(t, b.ID, found.Items[0].ID)
	assert.Equal(t, a.ID, found.Items[1].ID)
}

func TestSetStockWritesAdjustment(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	p := seedProduct(t, svc, "Desi Ghee", 4)

	got, err := svc.SetStock(ctx, p.ID, 12, "", "admin:root")
	require.NoError(t, err)
	assert.Equal(t, 12, got.Stock)

	moves, _, err := st.ListMovements(ctx, store.MovementFilter{}, store.Page{})
	require.NoError(t, err)
	require.Len(t, moves, 1)
	assert.Equal(t, models.MovementAdjustment, moves[0].Type)
	assert.Equal(t, 8, moves[0].Quantity)
	assert.Equal(t, "manual adjustment", moves[0].Reason)

	_, err = svc.SetStock(ctx, p.ID, -1, "", "admin:root")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestAddReviewRequiresPurchase(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	p := seedProduct(t, svc, "Desi Ghee", 4)
	user := &models.User{ID: primitive.NewObjectID(), Name: "Asha"}

	_, err := svc.AddReview(ctx, p.ID, user, ReviewInput{Rating: 5, Comment: "Lovely aroma"})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	require.NoError(t, st.CreateOrder(ctx, &models.Order{
		User:   user.ID,
		Status: models.OrderStatusDelivered,
		Items:  []models.OrderItem{{Product: p.ID, Size: "1kg", Quantity: 1, Price: 3000}},
	}))

	_, err = svc.AddReview(ctx, p.ID, user, ReviewInput{Rating: 4, Comment: "Lovely aroma"})
	require.NoError(t, err)
	_, err = svc.AddReview(ctx, p.ID, user, ReviewInput{Rating: 5, Comment: "Again"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	loaded, err := svc.Load(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, loaded.Rating)
	assert.Equal(t, 1, loaded.NumReviews)

	reviews, err := svc.ListReviews(ctx, p.ID, store.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, reviews.Total)

	_, err = svc.AddReview(ctx, p.ID, user, ReviewInput{Rating: 9, Comment: "x"})
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Len(t, appErr.Fields, 2)
}
