package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// WebhookEvent is the audit trail of processed webhook deliveries. One
// row per provider event id; replays hit the unique index and are
// dropped before reprocessing.
type WebhookEvent struct {
	ID              snowflake.ID   `json:"id" gorm:"primaryKey"`
	ProviderEventID string         `json:"provider_event_id" gorm:"type:text;not null;uniqueIndex"`
	EventKind       string         `json:"event_kind" gorm:"type:text;not null"`
	ObjectID        string         `json:"object_id" gorm:"type:text"`
	ObjectKind      string         `json:"object_kind" gorm:"type:text"`
	OrderReference  string         `json:"order_reference" gorm:"type:text;index"`
	Outcome         datatypes.JSON `json:"outcome" gorm:"type:jsonb"`
	ReceivedAt      time.Time      `json:"received_at" gorm:"not null"`
	ProcessedAt     *time.Time     `json:"processed_at"`
}

func (WebhookEvent) TableName() string { return "webhook_events" }
