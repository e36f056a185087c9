package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"ghee_back_end/internal/accounts"
	"ghee_back_end/internal/auth"
	"ghee_back_end/internal/catalog"
	"ghee_back_end/internal/handlers/admin"
	"ghee_back_end/internal/handlers/invoice"
	producthandler "ghee_back_end/internal/handlers/product"
	"ghee_back_end/internal/handlers/user"
	"ghee_back_end/internal/middleware"
	"ghee_back_end/internal/orders"
)

// Deps regroupe ce dont le routeur a besoin pour monter les handlers.
type Deps struct {
	Tokens      *auth.Tokens
	Accounts    *accounts.Service
	Catalog     *catalog.Service
	Orders      *orders.Service
	Events      admin.EventSource
	Limiter     middleware.ResettableCounter // nil = pas de limitation
	CORSOrigins []string
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.Use(middleware.RequestID())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     d.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader, "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok", "time": time.Now().UTC()})
	})

	productHandler := producthandler.NewHandler(d.Catalog, d.Accounts)
	userHandler := user.NewHandler(d.Accounts, d.Orders)
	invoiceHandler := invoice.NewHandler(d.Orders)
	adminHandler := admin.NewHandler(d.Accounts, d.Orders, d.Events)

	userAuth := middleware.AuthRequired(d.Tokens, d.Accounts, auth.TypeUser)
	adminAuth := middleware.AuthRequired(d.Tokens, d.Accounts, auth.TypeAdmin)

	api := r.Group("/api")
	api.Use(middleware.RateLimit(d.Limiter, "api", middleware.APIMaxRequests, middleware.APIWindow, middleware.ByIP))

	// 🔓 Public
	{
		api.POST("/auth/register", userHandler.Register)
		api.POST("/auth/login", userHandler.Login)

		api.GET("/products", productHandler.List)
		api.GET("/products/search", productHandler.Search)
		api.GET("/products/:id", productHandler.Get)
		api.GET("/products/:id/reviews", productHandler.Reviews)
	}

	// 👤 Clients
	users := api.Group("/users", userAuth)
	{
		users.GET("/me", userHandler.Me)
		users.PUT("/me", userHandler.UpdateMe)
		users.GET("/me/favourites", userHandler.Favourites)
		users.POST("/me/favourites", userHandler.AddFavourite)
		users.DELETE("/me/favourites/:productId", userHandler.RemoveFavourite)
	}
	api.POST("/products/:id/reviews", userAuth, productHandler.AddReview)

	ordersGroup := api.Group("/orders")
	{
		ordersGroup.POST("", userAuth,
			middleware.RateLimit(d.Limiter, "orders", middleware.OrderMaxRequests, middleware.OrderWindow, middleware.ByAccount),
			userHandler.PlaceOrder)
		ordersGroup.GET("/my", userAuth, userHandler.MyOrders)
		ordersGroup.GET("/:id", userAuth, userHandler.GetOrder)
		ordersGroup.GET("/:id/invoice", userAuth, invoiceHandler.Download)
		ordersGroup.PUT("/:id/shipping", userAuth, userHandler.UpdateShipping)
		ordersGroup.PUT("/:id/cancel", userAuth, userHandler.CancelOrder)
		ordersGroup.PUT("/:id/status", adminAuth, middleware.AuditAdminActions(), adminHandler.UpdateStatus)
	}

	// 🛡️ Produits (admin)
	adminProducts := api.Group("/products", adminAuth, middleware.AuditAdminActions())
	{
		adminProducts.POST("", productHandler.Create)
		adminProducts.PUT("/:id", productHandler.Update)
		adminProducts.DELETE("/:id", productHandler.Delete)
	}

	api.POST("/admin/auth/login",
		middleware.LoginRateLimit(d.Limiter, "admin-login", middleware.AdminLoginMaxAttempts, middleware.AdminLoginWindow),
		adminHandler.Login)

	adminGroup := api.Group("/admin", adminAuth, middleware.AuditAdminActions())
	{
		adminGroup.GET("/auth/me", adminHandler.Me)
		adminGroup.GET("/products", productHandler.AdminList)

		adminGroup.GET("/orders", adminHandler.Orders)
		adminGroup.GET("/orders/stats", adminHandler.OrderStats)
		adminGroup.GET("/orders/live", adminHandler.LiveOrders)
		adminGroup.GET("/orders/:id", adminHandler.Order)
		adminGroup.PUT("/orders/:id", adminHandler.UpdateStatus)
		adminGroup.PUT("/orders/:id/cancel", adminHandler.CancelOrder)
		adminGroup.DELETE("/orders/:id", adminHandler.DeleteOrder)
		adminGroup.GET("/orders/:id/proof", adminHandler.PaymentProof)

		adminGroup.GET("/users", adminHandler.Users)
		adminGroup.PUT("/users/:id/status", middleware.RequireSuperAdmin(d.Accounts), adminHandler.SetUserStatus)

		adminGroup.GET("/inventory/stats", productHandler.InventoryStats)
		adminGroup.GET("/inventory/movements", productHandler.Movements)
		adminGroup.PUT("/inventory/:id", productHandler.SetStock)
	}
}
