package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"ghee_back_end/internal/accounts"
	"ghee_back_end/internal/auth"
	"ghee_back_end/internal/cache"
	"ghee_back_end/internal/catalog"
	"ghee_back_end/internal/config"
	"ghee_back_end/internal/database"
	"ghee_back_end/internal/handlers"
	"ghee_back_end/internal/orders"
	"ghee_back_end/internal/routes"
	"ghee_back_end/internal/services"
	"ghee_back_end/internal/store"
	"ghee_back_end/internal/store/memstore"
	"ghee_back_end/internal/store/mongostore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Configuration invalide: %v", err)
	}
	gin.SetMode(cfg.Server.GinMode)
	handlers.Development = cfg.Development

	ctx := context.Background()
	conns, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ Connexion aux bases impossible: %v", err)
	}

	st, err := openStore(ctx, cfg, conns)
	if err != nil {
		log.Fatalf("❌ Store indisponible: %v", err)
	}

	var ledger store.MovementStore = st
	if conns.Scylla != nil {
		ledger = services.NewScyllaLedger(conns.Scylla)
		log.Println("✅ Journal de stock sur ScyllaDB")
	}

	events := cache.NewOrderEvents(conns.Redis)
	tokens := auth.NewTokens(cfg.JWT.Secret, cfg.JWT.ExpiresIn)

	cat := catalog.New(catalog.Deps{
		Products:  st,
		Reviews:   st,
		Purchases: st,
		Ledger:    ledger,
		Prices:    cfg.Prices,
		Cache:     cache.NewProductCache(conns.Redis),
		Index:     services.NewProductIndex(conns.Elastic, cfg.Elastic.ProductsIndex),
	})

	var notifier orders.Notifier = services.LogNotifier{}
	if cfg.SMTP.Enabled() {
		notifier = services.NewMailer(cfg.SMTP)
		log.Println("✅ Emails SMTP activés")
	}

	ord := orders.New(orders.Deps{
		Orders:   st,
		Users:    st,
		Products: st,
		Catalog:  cat,
		Proofs:   services.NewProofStore(conns.MinIO, cfg.MinIO.Bucket),
		Notifier: notifier,
		Events:   events,
		Invoices: services.NewInvoiceRenderer(),
	})

	acc := accounts.New(accounts.Deps{
		Users:    st,
		Admins:   st,
		Products: st,
		Tokens:   tokens,
		Status:   cache.NewAccountStatusCache(conns.Redis),
	})

	if cfg.Admin.Email != "" {
		if err := acc.BootstrapAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			log.Printf("⚠️ Création de l'admin initial impossible: %v", err)
		}
	}
	if n, err := cat.Reindex(ctx); err != nil {
		log.Printf("⚠️ Réindexation des produits impossible: %v", err)
	} else if n > 0 {
		log.Printf("🔎 %d produit(s) indexé(s)", n)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	routes.RegisterRoutes(r, routes.Deps{
		Tokens:      tokens,
		Accounts:    acc,
		Catalog:     cat,
		Orders:      ord,
		Events:      events,
		Limiter:     cache.NewRateCounter(conns.Redis),
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	srv := &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     r,
		ReadTimeout: cfg.Server.ReadTimeout,
		// pas de WriteTimeout global: il couperait le flux websocket admin
		IdleTimeout: 2 * cfg.Server.WriteTimeout,
	}

	go func() {
		log.Println("🚀 Serveur ghee lancé sur le port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Serveur arrêté: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Arrêt du serveur...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ Arrêt forcé: %v", err)
	}
	conns.Close(shutdownCtx)
}

// openStore choisit le backend de persistance selon STORE_DRIVER.
func openStore(ctx context.Context, cfg *config.Config, conns *database.Connections) (store.Store, error) {
	if cfg.StoreDriver == "memory" {
		log.Println("⚠️ Store en mémoire: les données seront perdues à l'arrêt")
		return memstore.New(), nil
	}
	s := mongostore.New(conns.DB)
	if err := s.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}
