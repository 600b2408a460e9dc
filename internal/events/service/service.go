package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tillworkslabs/stripe-gateway/internal/events/domain"
	provider "github.com/tillworkslabs/stripe-gateway/internal/provider/domain"
)

const seenKeyPrefix = "stripe:event:"
const seenTTL = 24 * time.Hour

// Service records processed webhook events and answers duplicate checks.
// Redis is a fast-path marker only; the database unique index is the
// authority, so a missing or unreachable Redis just means more lookups.
type Service struct {
	db    *gorm.DB
	redis *redis.Client
	node  *snowflake.Node
	log   *zap.Logger
}

func NewService(db *gorm.DB, redisClient *redis.Client, node *snowflake.Node, log *zap.Logger) *Service {
	return &Service{
		db:    db,
		redis: redisClient,
		node:  node,
		log:   log.Named("events"),
	}
}

// Seen reports whether the provider event id has already been processed.
func (s *Service) Seen(ctx context.Context, providerEventID string) (bool, error) {
	if s.redis != nil {
		n, err := s.redis.Exists(ctx, seenKeyPrefix+providerEventID).Result()
		if err == nil && n > 0 {
			return true, nil
		}
		if err != nil {
			s.log.Warn("redis duplicate check failed, falling back to database", zap.Error(err))
		}
	}

	var count int64
	err := s.db.WithContext(ctx).
		Model(&domain.WebhookEvent{}).
		Where("provider_event_id = ?", providerEventID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Record persists the processed event with its outcome, then sets the
// Redis marker. A replay racing past Seen lands on the unique index and
// is reported as already-seen rather than an error.
func (s *Service) Record(ctx context.Context, ev provider.CanonicalEvent, outcome *provider.Outcome) error {
	now := time.Now().UTC()
	record := &domain.WebhookEvent{
		ID:              s.node.Generate(),
		ProviderEventID: ev.ID,
		EventKind:       string(ev.Kind),
		ObjectID:        ev.ObjectID,
		ObjectKind:      string(ev.ObjectKind),
		ReceivedAt:      now,
		ProcessedAt:     &now,
	}
	if outcome != nil {
		record.OrderReference = outcome.OrderReference
		if payload, err := json.Marshal(outcome); err == nil {
			record.Outcome = payload
		}
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(record).Error
	if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}

	s.markSeen(ctx, ev.ID)
	return nil
}

func (s *Service) markSeen(ctx context.Context, providerEventID string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.SetNX(ctx, seenKeyPrefix+providerEventID, 1, seenTTL).Err(); err != nil {
		s.log.Warn("failed to set duplicate marker", zap.Error(err))
	}
}
