package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gocql/gocql"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"golang.org/x/sync/errgroup"

	"ghee_back_end/internal/config"
)

// Connections regroupe les clients ouverts au démarrage. Seul MongoDB est
// obligatoire; les autres restent nil quand ils ne sont pas configurés ou
// injoignables, et les services concernés passent en mode dégradé.
type Connections struct {
	Mongo   *mongo.Client
	DB      *mongo.Database
	Redis   *redis.Client
	Elastic *elasticsearch.Client
	MinIO   *minio.Client
	Scylla  *gocql.Session
}

// Connect ouvre MongoDB puis les services annexes en parallèle.
func Connect(ctx context.Context, cfg *config.Config) (*Connections, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	conns := &Connections{}

	if cfg.StoreDriver == "mongo" {
		client, err := connectMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		conns.Mongo = client
		conns.DB = client.Database(cfg.Mongo.Database)
	}

	// Les services annexes ne font jamais échouer le démarrage
	var g errgroup.Group
	if cfg.Redis.Enabled() {
		g.Go(func() error {
			conns.Redis = connectRedis(ctx, cfg.Redis)
			return nil
		})
	}
	if cfg.Elastic.Enabled() {
		g.Go(func() error {
			conns.Elastic = connectElastic(cfg.Elastic)
			return nil
		})
	}
	if cfg.MinIO.Enabled() {
		g.Go(func() error {
			conns.MinIO = connectMinIO(ctx, cfg.MinIO)
			return nil
		})
	}
	if cfg.Scylla.Enabled() {
		g.Go(func() error {
			conns.Scylla = connectScylla(cfg.Scylla)
			return nil
		})
	}
	_ = g.Wait()

	log.Println("✅ Connexions initialisées")
	return conns, nil
}

// Close ferme tous les clients ouverts.
func (c *Connections) Close(ctx context.Context) {
	if c.Scylla != nil {
		c.Scylla.Close()
		log.Println("🔌 Session ScyllaDB fermée")
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Printf("⚠️ Erreur fermeture Redis: %v", err)
		}
	}
	if c.Mongo != nil {
		if err := c.Mongo.Disconnect(ctx); err != nil {
			log.Printf("⚠️ Erreur fermeture MongoDB: %v", err)
		}
		log.Println("🔌 MongoDB déconnecté")
	}
}

// =============================================
// MONGODB
// =============================================
func connectMongo(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.Timeout).
		SetServerSelectionTimeout(cfg.Timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connexion MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	log.Printf("✅ Connecté à MongoDB (base %s)", cfg.Database)
	return client, nil
}

// =============================================
// REDIS
// =============================================
func connectRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Host,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️ Redis injoignable, cache et rate limiting désactivés: %v", err)
		_ = client.Close()
		return nil
	}
	log.Println("✅ Connecté à Redis")
	return client
}

// =============================================
// ELASTICSEARCH
// =============================================
func connectElastic(cfg config.ElasticConfig) *elasticsearch.Client {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		log.Printf("⚠️ Erreur création client Elasticsearch: %v", err)
		return nil
	}

	res, err := client.Info()
	if err != nil {
		log.Printf("⚠️ Elasticsearch injoignable, recherche via MongoDB: %v", err)
		return nil
	}
	defer res.Body.Close()
	if res.IsError() {
		log.Printf("⚠️ Elasticsearch a répondu %s, recherche via MongoDB", res.Status())
		return nil
	}

	log.Println("✅ Connecté à Elasticsearch")
	return client
}

// =============================================
// MINIO
// =============================================
func connectMinIO(ctx context.Context, cfg config.MinIOConfig) *minio.Client {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		log.Printf("⚠️ Erreur client MinIO: %v", err)
		return nil
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		log.Printf("⚠️ MinIO injoignable, paiements ONLINE indisponibles: %v", err)
		return nil
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			log.Printf("⚠️ Erreur création bucket MinIO: %v", err)
			return nil
		}
		log.Println("🪣 Bucket créé :", cfg.Bucket)
	} else {
		log.Println("🪣 Bucket MinIO déjà présent :", cfg.Bucket)
	}

	log.Println("✅ Connecté à MinIO :", cfg.Endpoint)
	return client
}
