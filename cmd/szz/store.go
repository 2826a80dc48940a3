package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/smartshark/inducingSHARK/internal/config"
	"github.com/smartshark/inducingSHARK/internal/store"
	"github.com/smartshark/inducingSHARK/internal/store/postgres"
	"github.com/smartshark/inducingSHARK/internal/store/sqlite"
)

// openStore opens the metadata store adapter named by cfg.Database.Driver.
func openStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (store.Store, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		st, err := sqlite.New(cfg.Database.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return st, nil
	case "postgres":
		st, err := postgres.New(ctx, postgres.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			Database: cfg.Database.Name,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			SSLMode:  cfg.Database.SSLMode,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unsupported database.driver %q", cfg.Database.Driver)
	}
}
