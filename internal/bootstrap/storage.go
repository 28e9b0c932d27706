package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"fintechbank_backend/internal/config"
	"fintechbank_backend/internal/database"
	"fintechbank_backend/internal/repositories"
	"fintechbank_backend/pkg/utils"
)

// Storage bundles the repositories for the configured storage driver.
type Storage struct {
	Clients repositories.ClientRepository
	Users   repositories.AuthRepository
	db      *sql.DB
}

// Close releases the database pool, if any.
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// OpenStorage builds the repositories selected by STORAGE_DRIVER. For
// postgres it opens the pool and, when AUTO_MIGRATE is set, applies the schema.
func OpenStorage(ctx context.Context, cfg config.Config) (*Storage, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		utils.LogWarn("Using in-memory storage; data is lost on restart")
		return &Storage{
			Clients: repositories.NewInMemoryClientRepository(),
			Users:   repositories.NewInMemoryAuthRepository(),
		}, nil
	case config.StorageDriverPostgres:
		db, err := database.Open(ctx, cfg.DatabaseURL, database.Options{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := database.ApplySchema(ctx, db); err != nil {
				db.Close()
				return nil, err
			}
		}
		return &Storage{
			Clients: repositories.NewClientRepository(db),
			Users:   repositories.NewAuthRepository(db),
			db:      db,
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
