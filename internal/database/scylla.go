package database

import (
	"log"
	"time"

	"github.com/gocql/gocql"

	"ghee_back_end/internal/config"
)

// LedgerTableCQL crée la table du journal de stock, partitionnée par produit.
const LedgerTableCQL = `CREATE TABLE IF NOT EXISTS stock_movements (
	product_id text,
	created_at timestamp,
	movement_id timeuuid,
	product_name text,
	type text,
	quantity int,
	prev_stock int,
	new_stock int,
	reason text,
	order_id text,
	actor text,
	PRIMARY KEY ((product_id), created_at, movement_id)
) WITH CLUSTERING ORDER BY (created_at DESC, movement_id DESC)`

func connectScylla(cfg config.ScyllaConfig) *gocql.Session {
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Keyspace = cfg.Keyspace
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = cfg.Timeout
	cluster.NumConns = cfg.NumConns
	cluster.MaxWaitSchemaAgreement = 30 * time.Second
	cluster.ReconnectInterval = 1 * time.Second
	if cfg.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())

	session, err := cluster.CreateSession()
	if err != nil {
		log.Printf("⚠️ ScyllaDB injoignable, journal de stock dans MongoDB: %v", err)
		return nil
	}

	if err := session.Query(LedgerTableCQL).Exec(); err != nil {
		log.Printf("⚠️ Impossible de créer la table stock_movements: %v", err)
		session.Close()
		return nil
	}

	log.Printf("✅ Session ScyllaDB pour keyspace '%s'", cfg.Keyspace)
	return session
}
