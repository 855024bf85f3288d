package billing

import (
	"testing"
	"time"

	"github.com/salemfin/backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolvePeriod(t *testing.T) {
	t.Run("day on closing day stays in current period", func(t *testing.T) {
		p := ResolvePeriod(date(2025, time.March, 25), 25, 5)
		assert.Equal(t, 3, p.Month)
		assert.Equal(t, 2025, p.Year)
		assert.Equal(t, date(2025, time.March, 25), p.ClosingDate)
	})

	t.Run("day after closing day rolls to next period", func(t *testing.T) {
		p := ResolvePeriod(date(2025, time.March, 26), 25, 5)
		assert.Equal(t, 4, p.Month)
		assert.Equal(t, 2025, p.Year)
		assert.Equal(t, date(2025, time.April, 25), p.ClosingDate)
	})

	t.Run("due day before closing day falls in following month", func(t *testing.T) {
		p := ResolvePeriod(date(2025, time.March, 10), 25, 5)
		assert.Equal(t, 3, p.Month)
		assert.Equal(t, date(2025, time.April, 5), p.DueDate)
	})

	t.Run("due day after closing day stays in same month", func(t *testing.T) {
		p := ResolvePeriod(date(2025, time.March, 3), 5, 20)
		assert.Equal(t, 3, p.Month)
		assert.Equal(t, date(2025, time.March, 20), p.DueDate)
	})

	t.Run("due day equal to closing day does not roll", func(t *testing.T) {
		p := ResolvePeriod(date(2025, time.March, 10), 15, 15)
		assert.Equal(t, date(2025, time.March, 15), p.DueDate)
	})

	t.Run("december rollover advances year", func(t *testing.T) {
		p := ResolvePeriod(date(2025, time.December, 26), 25, 5)
		assert.Equal(t, 1, p.Month)
		assert.Equal(t, 2026, p.Year)
		assert.Equal(t, date(2026, time.January, 25), p.ClosingDate)
		assert.Equal(t, date(2026, time.February, 5), p.DueDate)
	})

	t.Run("december due date rollover", func(t *testing.T) {
		p := ResolvePeriod(date(2025, time.December, 10), 25, 5)
		assert.Equal(t, 12, p.Month)
		assert.Equal(t, 2025, p.Year)
		assert.Equal(t, date(2026, time.January, 5), p.DueDate)
	})

	t.Run("closing day beyond month length normalizes forward", func(t *testing.T) {
		// February has no day 31; the closing date overflows into March
		p := ResolvePeriod(date(2025, time.February, 10), 31, 10)
		assert.Equal(t, 2, p.Month)
		assert.Equal(t, date(2025, time.March, 3), p.ClosingDate)
	})
}

func TestIsOpen(t *testing.T) {
	t.Run("open and partially paid", func(t *testing.T) {
		inv := &models.Invoice{Status: models.InvoiceStatusOpen, PaidAmount: 50, TotalAmount: 100}
		assert.True(t, IsOpen(inv))
	})

	t.Run("open but fully paid is not open", func(t *testing.T) {
		inv := &models.Invoice{Status: models.InvoiceStatusOpen, PaidAmount: 100, TotalAmount: 100}
		assert.False(t, IsOpen(inv))
	})

	t.Run("paid status is never open", func(t *testing.T) {
		inv := &models.Invoice{Status: models.InvoiceStatusPaid, PaidAmount: 100, TotalAmount: 100}
		assert.False(t, IsOpen(inv))

		inv = &models.Invoice{Status: models.InvoiceStatusPaid, PaidAmount: 0, TotalAmount: 100}
		assert.False(t, IsOpen(inv))
	})

	t.Run("overdue status is never open", func(t *testing.T) {
		inv := &models.Invoice{Status: models.InvoiceStatusOverdue, PaidAmount: 0, TotalAmount: 100}
		assert.False(t, IsOpen(inv))
	})
}
