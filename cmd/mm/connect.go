package main

import (
	"fmt"

	"github.com/zulandar/minutes/internal/config"
	"github.com/zulandar/minutes/internal/db"
	"gorm.io/gorm"
)

// connectFromConfig loads config and returns a GORM DB connection.
func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to %s: %w", databaseName(cfg), err)
	}
	return cfg, gormDB, nil
}

// databaseName names the configured database for messages.
func databaseName(cfg *config.Config) string {
	if cfg.Database.Driver == config.DriverSQLite {
		return cfg.Database.Path
	}
	return cfg.Database.Database
}
