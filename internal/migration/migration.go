package migration

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	eventdomain "github.com/tillworkslabs/stripe-gateway/internal/events/domain"
	orderdomain "github.com/tillworkslabs/stripe-gateway/internal/orders/domain"
)

// Run migrates the gateway schema under an advisory lock so concurrent
// replicas cannot race each other during a rolling deploy.
func Run(ctx context.Context, gdb *gorm.DB, log *zap.Logger) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return fmt.Errorf("resolve sql handle: %w", err)
	}

	unlock, err := acquireAdvisoryLock(ctx, sqlDB)
	if err != nil {
		return err
	}
	defer func() {
		if err := unlock(context.Background()); err != nil {
			log.Warn("failed to release migration lock", zap.Error(err))
		}
	}()

	if err := gdb.WithContext(ctx).AutoMigrate(
		&orderdomain.OrderRecord{},
		&eventdomain.WebhookEvent{},
	); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}

	log.Info("schema migration complete")
	return nil
}
