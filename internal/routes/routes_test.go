package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ghee_back_end/internal/accounts"
	"ghee_back_end/internal/auth"
	"ghee_back_end/internal/cache"
	"ghee_back_end/internal/catalog"
	"ghee_back_end/internal/orders"
	"ghee_back_end/internal/pricing"
	"ghee_back_end/internal/store/memstore"
)

func init() { gin.SetMode(gin.TestMode) }

type server struct {
	t      *testing.T
	engine *gin.Engine
}

func newServer(t *testing.T) *server {
	t.Helper()
	ctx := context.Background()
	st := memstore.New()
	prices, err := pricing.ParseTable(pricing.DefaultTable)
	require.NoError(t, err)

	tokens := auth.NewTokens("test-secret", time.Hour)
	cat := catalog.New(catalog.Deps{Products: st, Reviews: st, Purchases: st, Ledger: st, Prices: prices})
	events := cache.NewOrderEvents(nil)
	ord := orders.New(orders.Deps{Orders: st, Users: st, Products: st, Catalog: cat, Events: events})
	acc := accounts.New(accounts.Deps{Users: st, Admins: st, Products: st, Tokens: tokens})
	require.NoError(t, acc.BootstrapAdmin(ctx, "Root", "root@ghee.test", "rootpass"))

	r := gin.New()
	RegisterRoutes(r, Deps{
		Tokens:      tokens,
		Accounts:    acc,
		Catalog:     cat,
		Orders:      ord,
		Events:      events,
		Limiter:     cache.NewRateCounter(nil),
		CORSOrigins: []string{"http://localhost:3000"},
	})
	return &server{t: t, engine: r}
}

type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Errors     []string        `json:"errors"`
	Data       json.RawMessage `json:"data"`
	Count      int             `json:"count"`
	Pagination struct {
		Total int64 `json:"total"`
	} `json:"pagination"`
}

func (s *server) do(method, path, token string, body any) (int, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return s.send(req, token)
}

func (s *server) send(req *http.Request, token string) (int, envelope) {
	s.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

type session struct {
	Token string `json:"token"`
}

func (s *server) register(email string) string {
	code, env := s.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Meera", "email": email, "password": "secret1",
	})
	require.Equal(s.t, http.StatusCreated, code, env.Message)
	return decode[session](s.t, env.Data).Token
}

func (s *server) adminToken() string {
	code, env := s.do(http.MethodPost, "/api/admin/auth/login", "", gin.H{
		"email": "root@ghee.test", "password": "rootpass",
	})
	require.Equal(s.t, http.StatusOK, code, env.Message)
	return decode[session](s.t, env.Data).Token
}

type product struct {
	ID    string `json:"id"`
	Stock int    `json:"stock"`
}

func (s *server) createProduct(admin string, stock int) product {
	code, env := s.do(http.MethodPost, "/api/products", admin, gin.H{
		"name":     "Pure Cow Ghee",
		"category": "ghee",
		"stock":    stock,
		"price":    1500,
		"isActive": true,
		"images":   []string{"ghee.jpg"},
	})
	require.Equal(s.t, http.StatusCreated, code, env.Message)
	return decode[product](s.t, env.Data)
}

func shipping() gin.H {
	return gin.H{
		"name": "Meera", "email": "meera@example.com", "phone": "9800000000",
		"address": "12 Temple Road", "city": "Pune", "state": "MH", "zipCode": "411001",
	}
}

type order struct {
	ID            string  `json:"id"`
	OrderNumber   string  `json:"orderNumber"`
	TotalAmount   float64 `json:"totalAmount"`
	Status        string  `json:"status"`
	PaymentMethod string  `json:"paymentMethod"`
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	code, env := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	s := newServer(t)
	admin := s.adminToken()
	user := s.register("meera@example.com")
	p := s.createProduct(admin, 5)

	code, env := s.do(http.MethodPost, "/api/orders", user, gin.H{
		"items":           []gin.H{{"product": p.ID, "size": "1KG", "quantity": 2}},
		"shippingAddress": shipping(),
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	placed := decode[order](t, env.Data)
	assert.Equal(t, 6000.0, placed.TotalAmount)
	assert.Equal(t, "pending", placed.Status)
	assert.Equal(t, "COD", placed.PaymentMethod)
	assert.Regexp(t, `^GHEE-\d{8}-[0-9A-F]{6}$`, placed.OrderNumber)

	code, env = s.do(http.MethodGet, "/api/products/"+p.ID, "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 3, decode[product](t, env.Data).Stock)

	code, env = s.do(http.MethodGet, "/api/orders/my", user, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, env.Count)
	assert.EqualValues(t, 1, env.Pagination.Total)

	code, env = s.do(http.MethodPut, "/api/orders/"+placed.ID+"/status", admin, gin.H{"status": "shipped"})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, "shipped", decode[order](t, env.Data).Status)

	code, env = s.do(http.MethodPut, "/api/orders/"+placed.ID+"/cancel", user, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Cannot cancel order with status: shipped", env.Message)

	code, env = s.do(http.MethodPut, "/api/admin/orders/"+placed.ID, admin, gin.H{"status": "processing"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Cannot move order from shipped back to processing", env.Message)
}

func TestCustomerCancelRestocks(t *testing.T) {
	s := newServer(t)
	admin := s.adminToken()
	user := s.register("meera@example.com")
	p := s.createProduct(admin, 4)

	code, env := s.do(http.MethodPost, "/api/orders", user, gin.H{
		"items":           []gin.H{{"product": p.ID, "size": "500g", "quantity": 4}},
		"shippingAddress": shipping(),
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	placed := decode[order](t, env.Data)

	code, _ = s.do(http.MethodPut, "/api/orders/"+placed.ID+"/cancel", user, nil)
	require.Equal(t, http.StatusOK, code)

	_, env = s.do(http.MethodGet, "/api/products/"+p.ID, "", nil)
	assert.Equal(t, 4, decode[product](t, env.Data).Stock)

	code, _ = s.do(http.MethodGet, "/api/orders/"+placed.ID, user, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestInsufficientStockOverHTTP(t *testing.T) {
	s := newServer(t)
	admin := s.adminToken()
	user := s.register("meera@example.com")
	p := s.createProduct(admin, 1)

	code, env := s.do(http.MethodPost, "/api/orders", user, gin.H{
		"items":           []gin.H{{"product": p.ID, "size": "1kg", "quantity": 3}},
		"shippingAddress": shipping(),
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, env.Success)
	assert.Equal(t, "Insufficient stock for Pure Cow Ghee. Available: 1, Requested: 3", env.Message)
}

func TestPlaceOrderMultipartRequiresProofForOnline(t *testing.T) {
	s := newServer(t)
	admin := s.adminToken()
	user := s.register("meera@example.com")
	p := s.createProduct(admin, 5)

	items, _ := json.Marshal([]gin.H{{"product": p.ID, "size": "1kg", "quantity": 1}})
	addr, _ := json.Marshal(shipping())

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("items", string(items)))
	require.NoError(t, w.WriteField("shippingAddress", string(addr)))
	require.NoError(t, w.WriteField("paymentMethod", "online"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/orders", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	code, env := s.send(req, user)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Errors, "Payment proof is required for online payments")

	_, env = s.do(http.MethodGet, "/api/products/"+p.ID, "", nil)
	assert.Equal(t, 5, decode[product](t, env.Data).Stock)
}

func TestValidationErrorsAreAggregated(t *testing.T) {
	s := newServer(t)
	user := s.register("meera@example.com")

	code, env := s.do(http.MethodPost, "/api/orders", user, gin.H{
		"items":           []gin.H{},
		"shippingAddress": gin.H{},
		"paymentMethod":   "CARD",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Errors, "Order must contain at least one item")
	assert.Contains(t, env.Errors, "Shipping name is required")
	assert.Contains(t, env.Errors, "Invalid payment method. Must be one of: COD, ONLINE")
}

func TestAccessControl(t *testing.T) {
	s := newServer(t)
	admin := s.adminToken()
	user := s.register("meera@example.com")

	code, _ := s.do(http.MethodGet, "/api/orders/my", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(http.MethodGet, "/api/admin/orders", user, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(http.MethodGet, "/api/users/me", admin, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env := s.do(http.MethodGet, "/api/admin/orders", admin, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, env.Count)

	code, _ = s.do(http.MethodGet, "/api/orders/not-an-id", user, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestDeactivatedUserIsRejected(t *testing.T) {
	s := newServer(t)
	admin := s.adminToken()
	user := s.register("meera@example.com")

	code, env := s.do(http.MethodGet, "/api/users/me", user, nil)
	require.Equal(t, http.StatusOK, code)
	me := decode[struct {
		ID string `json:"id"`
	}](t, env.Data)

	code, env = s.do(http.MethodPut, "/api/admin/users/"+me.ID+"/status", admin, gin.H{"isActive": false})
	require.Equal(t, http.StatusOK, code, env.Message)

	code, _ = s.do(http.MethodGet, "/api/users/me", user, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}
