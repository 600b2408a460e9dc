package db

import (
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormprometheus "gorm.io/plugin/prometheus"

	"github.com/tillworkslabs/stripe-gateway/internal/config"
)

func Open(cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("database dsn is not configured")
	}

	gdb, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := gdb.Use(gormprometheus.New(gormprometheus.Config{
		DBName:          "stripe_gateway",
		RefreshInterval: 15,
	})); err != nil {
		log.Warn("failed to attach database metrics plugin", zap.Error(err))
	}

	return gdb, nil
}

var Module = fx.Module("db",
	fx.Provide(Open),
)
