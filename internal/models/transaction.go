package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a transaction. It is independent from the
// type of the category the transaction points at.
type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// ParseTransactionType validates a raw transaction type value.
func ParseTransactionType(raw string) (TransactionType, error) {
	switch TransactionType(raw) {
	case TransactionIncome, TransactionExpense:
		return TransactionType(raw), nil
	}
	return "", fmt.Errorf("invalid transaction type %q: must be income or expense", raw)
}

// Transaction is a single income or expense event recorded by a user.
type Transaction struct {
	ID              int64
	UserID          int64
	CategoryID      *int64
	Type            TransactionType
	Amount          decimal.Decimal
	Description     *string
	TransactionDate time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
