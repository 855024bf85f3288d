package billing

import (
	"time"

	"github.com/salemfin/backend/internal/models"
)

// Period identifies the monthly invoice bucket a card transaction belongs to.
// Month is 1-based.
type Period struct {
	Month       int       `json:"month"`
	Year        int       `json:"year"`
	ClosingDate time.Time `json:"closing_date"`
	DueDate     time.Time `json:"due_date"`
}

// ResolvePeriod maps a transaction date onto a card's billing cycle.
//
// A transaction dated strictly after the closing day falls into the next
// cycle; one dated on the closing day itself stays in the current cycle.
// When the due day is strictly earlier than the closing day the invoice is
// due in the month after the period (close on the 25th, pay by the 5th).
// Days out of range for the target month are not validated: time.Date
// normalizes them into the following month, which is the accepted behavior.
func ResolvePeriod(txDate time.Time, closingDay, dueDay int) Period {
	year, month, day := txDate.Date()
	y, m := year, int(month)

	if day > closingDay {
		m++
		if m > 12 {
			m = 1
			y++
		}
	}

	closingDate := time.Date(y, time.Month(m), closingDay, 0, 0, 0, 0, txDate.Location())

	dueYear, dueMonth := y, m
	if dueDay < closingDay {
		dueMonth++
		if dueMonth > 12 {
			dueMonth = 1
			dueYear++
		}
	}
	dueDate := time.Date(dueYear, time.Month(dueMonth), dueDay, 0, 0, 0, 0, txDate.Location())

	return Period{
		Month:       m,
		Year:        y,
		ClosingDate: closingDate,
		DueDate:     dueDate,
	}
}

// IsOpen reports whether an invoice can still receive charges or payments: it
// must carry the open status and not be fully paid. A fully paid invoice
// still flagged open is not open; a non-open status is never open regardless
// of amounts.
func IsOpen(inv *models.Invoice) bool {
	return inv.Status == models.InvoiceStatusOpen && inv.PaidAmount < inv.TotalAmount
}
