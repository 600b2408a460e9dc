package server

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	orderdomain "github.com/tillworkslabs/stripe-gateway/internal/orders/domain"
)

type upsertOrderRequest struct {
	OrderNumber  string `json:"order_number" binding:"required"`
	CurrencyCode string `json:"currency_code" binding:"required,len=3"`
	LanguageCode string `json:"language_code"`

	TotalAmount int64 `json:"total_amount" binding:"required"`

	Customer struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
	} `json:"customer"`
	BillingCountryCode string `json:"billing_country_code"`

	Properties map[string]string        `json:"properties"`
	Lines      []orderdomain.LineRecord `json:"lines"`

	TransactionFee          int64 `json:"transaction_fee"`
	CanRefundTransactionFee bool  `json:"can_refund_transaction_fee"`
}

// UpsertOrder
// PUT /api/orders/:reference
//
// The commerce system pushes its view of an order here before sending
// the shopper to checkout, and again whenever the order changes.
func (s *Server) UpsertOrder(c *gin.Context) {
	reference := c.Param("reference")

	var req upsertOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order payload"})
		return
	}

	record := &orderdomain.OrderRecord{
		Reference:               reference,
		OrderNumber:             req.OrderNumber,
		CurrencyCode:            req.CurrencyCode,
		LanguageCode:            req.LanguageCode,
		TotalAmount:             req.TotalAmount,
		CustomerFirstName:       req.Customer.FirstName,
		CustomerLastName:        req.Customer.LastName,
		CustomerEmail:           req.Customer.Email,
		BillingCountryCode:      req.BillingCountryCode,
		TransactionFee:          req.TransactionFee,
		CanRefundTransactionFee: req.CanRefundTransactionFee,
	}

	if len(req.Properties) > 0 {
		props := datatypes.JSONMap{}
		for k, v := range req.Properties {
			props[k] = v
		}
		record.Properties = props
	}
	if req.Lines != nil {
		lines, err := encodeLines(req.Lines)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order lines"})
			return
		}
		record.Lines = lines
	}

	saved, err := s.upserter.Upsert(c.Request.Context(), record)
	if err != nil {
		s.log.Error("failed to upsert order",
			zap.String("order_reference", reference),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "persistence failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reference":          saved.Reference,
		"order_number":       saved.OrderNumber,
		"transaction_status": saved.TransactionStatus,
	})
}

func encodeLines(lines []orderdomain.LineRecord) (datatypes.JSON, error) {
	payload, err := json.Marshal(lines)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(payload), nil
}
