package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Transaction types
const (
	TransactionTypeExpense    = "expense"
	TransactionTypeIncome     = "income"
	TransactionTypeTransfer   = "transfer"
	TransactionTypeWithdrawal = "withdrawal"
	TransactionTypeDeposit    = "deposit"
)

// Transaction is a single money movement. Amount is signed integer cents:
// negative means outflow. A transaction references either an account or a
// card; card transactions carry the invoice they were allocated to.
type Transaction struct {
	ID          string    `json:"id" db:"id"`
	UserID      int       `json:"user_id" db:"user_id"`
	AccountID   *string   `json:"account_id,omitempty" db:"account_id"`
	CardID      *string   `json:"card_id,omitempty" db:"card_id"`
	InvoiceID   *string   `json:"invoice_id,omitempty" db:"invoice_id"`
	Amount      int64     `json:"amount" db:"amount"` // in cents, signed
	Description string    `json:"description" db:"description"`
	Type        string    `json:"type" db:"type"`
	TxDate      time.Time `json:"tx_date" db:"tx_date"`
	Metadata    Metadata  `json:"metadata,omitempty" db:"metadata"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Metadata type for JSONB fields
type Metadata map[string]any

// Value implements driver.Valuer for Metadata
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for Metadata
func (m *Metadata) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}

	return json.Unmarshal(b, m)
}
