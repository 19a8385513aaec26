package dto

import (
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/hongminglow/rideledger/internal/apperr"
	"github.com/hongminglow/rideledger/internal/models"
)

const maxDescription = 500

// maxAmount is the first value that no longer fits NUMERIC(10,2).
var maxAmount = decimal.New(1, 8)

type TransactionCreate struct {
	Type            models.TransactionType `json:"type"`
	Amount          decimal.Decimal        `json:"amount"`
	Description     *string                `json:"description"`
	TransactionDate *Timestamp             `json:"transaction_date"`
	CategoryID      *int64                 `json:"category_id"`
}

// Validate checks the payload before it reaches storage.
func (t TransactionCreate) Validate() error {
	var fields apperr.Fields
	if _, err := models.ParseTransactionType(string(t.Type)); err != nil {
		fields.Add("type", "input should be 'income' or 'expense'")
	}
	validateAmount(&fields, t.Amount)
	if t.Description != nil {
		validateDescription(&fields, *t.Description)
	}
	if t.TransactionDate == nil {
		fields.Add("transaction_date", "field required")
	}
	return fields.Err()
}

type TransactionUpdate struct {
	Type            models.Optional[models.TransactionType] `json:"type"`
	Amount          models.Optional[decimal.Decimal]        `json:"amount"`
	Description     models.Optional[string]                 `json:"description"`
	TransactionDate models.Optional[Timestamp]              `json:"transaction_date"`
	CategoryID      models.Optional[int64]                  `json:"category_id"`
}

// Validate checks only the fields present in the payload. A null category_id
// detaches the transaction from its category.
func (t TransactionUpdate) Validate() error {
	var fields apperr.Fields
	if t.Type.Set {
		if _, err := models.ParseTransactionType(string(t.Type.Value)); t.Type.Null || err != nil {
			fields.Add("type", "input should be 'income' or 'expense'")
		}
	}
	if t.Amount.Set {
		if t.Amount.Null {
			fields.Add("amount", "may not be null")
		} else {
			validateAmount(&fields, t.Amount.Value)
		}
	}
	if t.Description.HasValue() {
		validateDescription(&fields, t.Description.Value)
	}
	if t.TransactionDate.Set && t.TransactionDate.Null {
		fields.Add("transaction_date", "may not be null")
	}
	return fields.Err()
}

func validateAmount(fields *apperr.Fields, amount decimal.Decimal) {
	switch {
	case !amount.IsPositive():
		fields.Add("amount", "input should be greater than 0")
	case !amount.Equal(amount.Truncate(2)):
		fields.Add("amount", "decimal input should have no more than 2 decimal places")
	case amount.GreaterThanOrEqual(maxAmount):
		fields.Add("amount", "decimal input should have no more than 8 digits before the decimal point")
	}
}

func validateDescription(fields *apperr.Fields, description string) {
	if utf8.RuneCountInString(description) > maxDescription {
		fields.Add("description", "string should have at most 500 characters")
	}
}

// TransactionResponse is the wire form of a transaction. Amount keeps its two
// fractional digits exactly.
type TransactionResponse struct {
	ID              int64                  `json:"id"`
	UserID          int64                  `json:"user_id"`
	CategoryID      *int64                 `json:"category_id"`
	Type            models.TransactionType `json:"type"`
	Amount          string                 `json:"amount"`
	Description     *string                `json:"description"`
	TransactionDate time.Time              `json:"transaction_date"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// NewTransactionResponse converts a stored transaction.
func NewTransactionResponse(t models.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:              t.ID,
		UserID:          t.UserID,
		CategoryID:      t.CategoryID,
		Type:            t.Type,
		Amount:          t.Amount.StringFixed(2),
		Description:     t.Description,
		TransactionDate: t.TransactionDate,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

// NewTransactionResponses converts a page of transactions.
func NewTransactionResponses(ts []models.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, NewTransactionResponse(t))
	}
	return out
}
