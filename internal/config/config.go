package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"ghee_back_end/internal/pricing"
)

type Config struct {
	Development bool
	StoreDriver string // "mongo" ou "memory"

	Server  ServerConfig
	Mongo   MongoConfig
	Redis   RedisConfig
	Elastic ElasticConfig
	MinIO   MinIOConfig
	Scylla  ScyllaConfig
	SMTP    SMTPConfig
	JWT     JWTConfig
	Admin   AdminConfig

	Prices pricing.Table
}

type ServerConfig struct {
	Port         string
	GinMode      string
	CORSOrigins  []string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

func (c RedisConfig) Enabled() bool { return c.Host != "" }

type ElasticConfig struct {
	URL           string
	Username      string
	Password      string
	ProductsIndex string
}

func (c ElasticConfig) Enabled() bool { return c.URL != "" }

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func (c MinIOConfig) Enabled() bool { return c.Endpoint != "" }

type ScyllaConfig struct {
	Hosts    []string
	Keyspace string
	Username string
	Password string
	Timeout  time.Duration
	NumConns int
}

func (c ScyllaConfig) Enabled() bool { return len(c.Hosts) > 0 && c.Keyspace != "" }

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (c SMTPConfig) Enabled() bool { return c.Host != "" }

type JWTConfig struct {
	Secret    string
	ExpiresIn time.Duration
}

// AdminConfig contient les identifiants de l'admin créé au premier démarrage.
type AdminConfig struct {
	Name     string
	Email    string
	Password string
}

func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using process environment")
	} else {
		log.Println("✅ .env file loaded")
	}

	prices, err := pricing.ParseTable(getEnv("SIZE_PRICE_TABLE", pricing.DefaultTable))
	if err != nil {
		return nil, fmt.Errorf("SIZE_PRICE_TABLE: %w", err)
	}

	cfg := &Config{
		Development: getEnv("APP_ENV", "development") == "development",
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", "mongo")),
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			GinMode:      getEnv("GIN_MODE", "debug"),
			CORSOrigins:  getEnvList("CORS_ORIGINS", []string{"http://localhost:3000"}),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DATABASE", "ghee_store"),
			Timeout:  getEnvDuration("MONGO_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			Host:     os.Getenv("REDIS_HOST"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Elastic: ElasticConfig{
			URL:           os.Getenv("ELASTIC_URL"),
			Username:      os.Getenv("ELASTIC_USER"),
			Password:      os.Getenv("ELASTIC_PASSWORD"),
			ProductsIndex: getEnv("ELASTIC_PRODUCTS_INDEX", "products"),
		},
		MinIO: MinIOConfig{
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Bucket:    getEnv("MINIO_BUCKET", "ghee-payment-proofs"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Scylla: ScyllaConfig{
			Hosts:    getEnvList("SCYLLA_HOSTS", nil),
			Keyspace: os.Getenv("SCYLLA_KEYSPACE"),
			Username: os.Getenv("SCYLLA_USERNAME"),
			Password: os.Getenv("SCYLLA_PASSWORD"),
			Timeout:  getEnvDuration("SCYLLA_TIMEOUT", 5*time.Second),
			NumConns: getEnvInt("SCYLLA_NUM_CONNS", 4),
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("SMTP_FROM", "orders@gheestore.local"),
		},
		JWT: JWTConfig{
			Secret:    os.Getenv("JWT_SECRET"),
			ExpiresIn: getEnvDuration("JWT_EXPIRES_IN", 7*24*time.Hour),
		},
		Admin: AdminConfig{
			Name:     getEnv("ADMIN_NAME", "Store Admin"),
			Email:    strings.ToLower(os.Getenv("ADMIN_EMAIL")),
			Password: os.Getenv("ADMIN_PASSWORD"),
		},
		Prices: prices,
	}

	if cfg.JWT.Secret == "" {
		if !cfg.Development {
			return nil, errors.New("JWT_SECRET is required outside development")
		}
		cfg.JWT.Secret = "dev_only_secret"
		log.Println("⚠️  JWT_SECRET missing, using the development secret")
	}
	if cfg.StoreDriver != "mongo" && cfg.StoreDriver != "memory" {
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("⚠️  Invalid integer for %s, using default %d", key, defaultValue)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		log.Printf("⚠️  Invalid boolean for %s, using default %t", key, defaultValue)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Printf("⚠️  Invalid duration for %s, using default %s", key, defaultValue)
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
