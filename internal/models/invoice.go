package models

import "time"

// Invoice statuses
const (
	InvoiceStatusOpen    = "open"
	InvoiceStatusPaid    = "paid"
	InvoiceStatusOverdue = "overdue"
)

// Invoice is the monthly bucket card transactions are allocated to. The
// (CardID, Year, Month) triple is unique; Month is 1-based.
type Invoice struct {
	ID          string    `json:"id" db:"id"`
	CardID      string    `json:"card_id" db:"card_id"`
	UserID      int       `json:"user_id" db:"user_id"`
	Year        int       `json:"year" db:"year"`
	Month       int       `json:"month" db:"month"`
	TotalAmount int64     `json:"total_amount" db:"total_amount"` // in cents
	PaidAmount  int64     `json:"paid_amount" db:"paid_amount"`   // in cents
	Status      string    `json:"status" db:"status"`
	ClosingDate time.Time `json:"closing_date" db:"closing_date"`
	DueDate     time.Time `json:"due_date" db:"due_date"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
