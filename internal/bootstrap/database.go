package bootstrap

import (
	"fmt"

	"github.com/go-authgate/keygate/internal/config"
	"github.com/go-authgate/keygate/internal/store"
)

// initializeDatabase opens the store, migrates it and seeds the admin account
func initializeDatabase(cfg *config.Config) (*store.Store, error) {
	db, err := store.New(cfg.DatabaseDriver, cfg.DatabaseDSN, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}
