package models

import "time"

// Card brands
const (
	CardBrandVisa       = "visa"
	CardBrandMastercard = "mastercard"
	CardBrandElo        = "elo"
	CardBrandHipercard  = "hipercard"
	CardBrandAmex       = "amex"
	CardBrandDiners     = "diners"
)

// Card represents a credit card with a monthly billing cycle. ClosingDay and
// DueDay drive invoice-period resolution; both are calendar days and are not
// range-checked beyond 1..31.
type Card struct {
	ID         string    `json:"id" db:"id"`
	UserID     int       `json:"user_id" db:"user_id"`
	Alias      string    `json:"alias" db:"alias"`
	Brand      string    `json:"brand" db:"brand"`
	TotalLimit int64     `json:"total_limit" db:"total_limit"` // in cents
	ClosingDay int       `json:"closing_day" db:"closing_day"`
	DueDay     int       `json:"due_day" db:"due_day"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
