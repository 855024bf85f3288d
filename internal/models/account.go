package models

import "time"

// Account types
const (
	AccountTypeChecking   = "checking"
	AccountTypeSavings    = "savings"
	AccountTypeCash       = "cash"
	AccountTypeInvestment = "investment"
)

// Account represents a money account owned by a user. Balance is always kept
// in integer minor units (cents); the decimal form exists only at the API
// boundary.
type Account struct {
	ID        string    `json:"id" db:"id"`
	UserID    int       `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Type      string    `json:"type" db:"type"`
	Currency  string    `json:"currency" db:"currency"` // fixed 3-letter code
	Balance   int64     `json:"balance" db:"balance"`   // in cents
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
