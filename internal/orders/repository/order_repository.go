package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tillworkslabs/stripe-gateway/internal/orders/domain"
	provider "github.com/tillworkslabs/stripe-gateway/internal/provider/domain"
)

type orderRepo struct {
	db   *gorm.DB
	node *snowflake.Node
}

func Provide(db *gorm.DB, node *snowflake.Node) provider.OrderStore {
	return &orderRepo{db: db, node: node}
}

// Upserter is the write surface used by the order-sync API. The provider
// never sees it; only the HTTP layer does.
type Upserter interface {
	Upsert(ctx context.Context, record *domain.OrderRecord) (*domain.OrderRecord, error)
}

func ProvideUpserter(store provider.OrderStore) Upserter {
	return store.(*orderRepo)
}

func (r *orderRepo) GetByReference(ctx context.Context, reference string) (*provider.Order, error) {
	record, err := r.findByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	var lines []domain.LineRecord
	if len(record.Lines) > 0 {
		if err := json.Unmarshal(record.Lines, &lines); err != nil {
			return nil, fmt.Errorf("decode order lines for %s: %w", reference, err)
		}
	}
	return record.ToProvider(lines), nil
}

// ApplyOutcome persists a reconciled webhook outcome: the canonical
// transaction columns plus a merge of the metadata bag.
func (r *orderRepo) ApplyOutcome(ctx context.Context, outcome *provider.Outcome) error {
	record, err := r.findByReference(ctx, outcome.OrderReference)
	if err != nil {
		return err
	}

	record.TransactionID = outcome.Transaction.TransactionID
	record.AmountAuthorized = outcome.Transaction.AmountAuthorized
	record.TransactionStatus = string(outcome.Transaction.Status)
	mergeMetadata(record, outcome.Metadata)

	return r.db.WithContext(ctx).Save(record).Error
}

func (r *orderRepo) ApplyUpdate(ctx context.Context, reference string, update *provider.TransactionUpdate) error {
	record, err := r.findByReference(ctx, reference)
	if err != nil {
		return err
	}

	if update.TransactionID != "" {
		record.TransactionID = update.TransactionID
	}
	record.TransactionStatus = string(update.Status)
	mergeMetadata(record, update.Metadata)

	return r.db.WithContext(ctx).Save(record).Error
}

func (r *orderRepo) MergeMetadata(ctx context.Context, reference string, metadata map[string]string) error {
	if len(metadata) == 0 {
		return nil
	}

	record, err := r.findByReference(ctx, reference)
	if err != nil {
		return err
	}
	mergeMetadata(record, metadata)

	return r.db.WithContext(ctx).Save(record).Error
}

// Upsert creates or refreshes the mirror of an order by reference. The
// transaction columns and metadata survive a refresh; they belong to the
// gateway, not the pushing order system.
func (r *orderRepo) Upsert(ctx context.Context, record *domain.OrderRecord) (*domain.OrderRecord, error) {
	record.ID = r.node.Generate()
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "reference"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"order_number", "currency_code", "language_code", "total_amount",
			"customer_first_name", "customer_last_name", "customer_email",
			"billing_country_code", "properties", "lines",
			"transaction_fee", "can_refund_transaction_fee", "updated_at",
		}),
	}).Create(record).Error
	if err != nil {
		return nil, err
	}
	return r.findByReference(ctx, record.Reference)
}

func (r *orderRepo) findByReference(ctx context.Context, reference string) (*domain.OrderRecord, error) {
	var record domain.OrderRecord
	err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, provider.ErrOrderNotFound
		}
		return nil, err
	}
	return &record, nil
}

func mergeMetadata(record *domain.OrderRecord, metadata map[string]string) {
	if len(metadata) == 0 {
		return
	}
	if record.Metadata == nil {
		record.Metadata = datatypes.JSONMap{}
	}
	for k, v := range metadata {
		record.Metadata[k] = v
	}
}
