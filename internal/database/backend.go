package database

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"tomotachi/backend/internal/config"
	"tomotachi/backend/internal/database/memory"
	"tomotachi/backend/internal/database/neo4jstore"
	"tomotachi/backend/internal/database/redisstore"
	"tomotachi/backend/internal/social"
)

// Backend is an opened social.Store together with its lifecycle hooks.
type Backend struct {
	Store social.Store
	// Migrate prepares the schema. It is a no-op for schemaless stores.
	Migrate func(ctx context.Context) error
	Close   func(ctx context.Context) error
}

func noop(context.Context) error { return nil }

// OpenBackend opens the store selected by cfg.StoreDriver.
func OpenBackend(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Backend, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres, config.DriverMySQL, config.DriverSQLite:
		db, err := Open(cfg, log)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Store:   NewGormStore(db),
			Migrate: func(ctx context.Context) error { return Migrate(db.WithContext(ctx)) },
			Close: func(context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.Close()
			},
		}, nil

	case config.DriverMemory:
		log.Warn("Using in-memory store; relationships are lost on restart.")
		return &Backend{Store: memory.NewStore(), Migrate: noop, Close: noop}, nil

	case config.DriverRedis:
		store, err := redisstore.New(ctx, redisstore.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		log.Info("Redis connection established.", zap.String("addr", cfg.RedisAddr))
		return &Backend{
			Store:   store,
			Migrate: noop,
			Close:   func(context.Context) error { return store.Close() },
		}, nil

	case config.DriverNeo4j:
		store, err := neo4jstore.Connect(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
		if err != nil {
			return nil, err
		}
		log.Info("Neo4j connection established.", zap.String("uri", cfg.Neo4jURI))
		return &Backend{Store: store, Migrate: store.EnsureSchema, Close: store.Close}, nil
	}
	return nil, fmt.Errorf("database: unknown driver %q", cfg.StoreDriver)
}
