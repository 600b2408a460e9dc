package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"

	provider "github.com/tillworkslabs/stripe-gateway/internal/provider/domain"
)

// OrderRecord is the persisted mirror of an order owned by the commerce
// system. The gateway only ever writes the transaction columns and the
// metadata bag; everything else arrives through the order upsert API.
type OrderRecord struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey"`
	Reference    string       `json:"reference" gorm:"type:text;not null;uniqueIndex"`
	OrderNumber  string       `json:"order_number" gorm:"type:text;not null"`
	CurrencyCode string       `json:"currency_code" gorm:"type:varchar(3);not null"`
	LanguageCode string       `json:"language_code" gorm:"type:varchar(10)"`

	TotalAmount int64 `json:"total_amount" gorm:"not null"`

	CustomerFirstName  string `json:"customer_first_name" gorm:"type:text"`
	CustomerLastName   string `json:"customer_last_name" gorm:"type:text"`
	CustomerEmail      string `json:"customer_email" gorm:"type:text"`
	BillingCountryCode string `json:"billing_country_code" gorm:"type:varchar(2)"`

	Properties datatypes.JSONMap `json:"properties" gorm:"type:jsonb"`
	Lines      datatypes.JSON    `json:"lines" gorm:"type:jsonb"`

	TransactionID     string `json:"transaction_id" gorm:"type:text"`
	AmountAuthorized  int64  `json:"amount_authorized"`
	TransactionStatus string `json:"transaction_status" gorm:"type:varchar(32)"`

	TransactionFee          int64 `json:"transaction_fee"`
	CanRefundTransactionFee bool  `json:"can_refund_transaction_fee"`

	Metadata datatypes.JSONMap `json:"metadata" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`
}

func (OrderRecord) TableName() string { return "orders" }

// LineRecord is the JSON shape order lines are stored in.
type LineRecord struct {
	Name             string            `json:"name"`
	ProductReference string            `json:"product_reference"`
	Quantity         int64             `json:"quantity"`
	TaxRate          float64           `json:"tax_rate"`
	TotalWithTax     int64             `json:"total_with_tax"`
	TotalWithoutTax  int64             `json:"total_without_tax"`
	Properties       map[string]string `json:"properties,omitempty"`
}

// ToProvider converts the stored record into the read-only view the
// payment provider consumes. Persisted metadata is folded into the
// property bag so operations can find the remote ids they need.
func (r *OrderRecord) ToProvider(lines []LineRecord) *provider.Order {
	props := make(map[string]string, len(r.Properties)+len(r.Metadata))
	for k, v := range r.Properties {
		if s, ok := v.(string); ok {
			props[k] = s
		}
	}
	for k, v := range r.Metadata {
		if s, ok := v.(string); ok {
			props[k] = s
		}
	}

	orderLines := make([]provider.OrderLine, 0, len(lines))
	for _, l := range lines {
		orderLines = append(orderLines, provider.OrderLine{
			Name:             l.Name,
			ProductReference: l.ProductReference,
			Quantity:         l.Quantity,
			TaxRate:          l.TaxRate,
			TotalWithTax:     l.TotalWithTax,
			TotalWithoutTax:  l.TotalWithoutTax,
			Properties:       l.Properties,
		})
	}

	return &provider.Order{
		Reference:    r.Reference,
		OrderNumber:  r.OrderNumber,
		CurrencyCode: r.CurrencyCode,
		LanguageCode: r.LanguageCode,
		TotalAmount:  r.TotalAmount,
		Customer: provider.CustomerInfo{
			FirstName: r.CustomerFirstName,
			LastName:  r.CustomerLastName,
			Email:     r.CustomerEmail,
		},
		BillingCountryCode: r.BillingCountryCode,
		Properties:         props,
		Lines:              orderLines,
		Transaction: provider.TransactionState{
			TransactionID:    r.TransactionID,
			AmountAuthorized: r.AmountAuthorized,
			Status:           provider.TransactionStatus(r.TransactionStatus),
		},
		TransactionFee:          r.TransactionFee,
		CanRefundTransactionFee: r.CanRefundTransactionFee,
	}
}
