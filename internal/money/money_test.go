package money

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToMinorUnits(t *testing.T) {
	t.Run("rounds to nearest cent", func(t *testing.T) {
		assert.Equal(t, int64(1050), ToMinorUnits(10.50))
		assert.Equal(t, int64(1055), ToMinorUnits(10.545))
		assert.Equal(t, int64(-1050), ToMinorUnits(-10.50))
		assert.Equal(t, int64(0), ToMinorUnits(0))
	})

	t.Run("float representation edge", func(t *testing.T) {
		// 19.99 is not exactly representable; rounding must absorb it
		assert.Equal(t, int64(1999), ToMinorUnits(19.99))
		assert.Equal(t, int64(2930), ToMinorUnits(29.3))
	})

	t.Run("non-finite input degrades to zero", func(t *testing.T) {
		assert.Equal(t, int64(0), ToMinorUnits(math.NaN()))
		assert.Equal(t, int64(0), ToMinorUnits(math.Inf(1)))
		assert.Equal(t, int64(0), ToMinorUnits(math.Inf(-1)))
	})
}

func TestToDecimal(t *testing.T) {
	assert.Equal(t, 10.50, ToDecimal(1050))
	assert.Equal(t, -0.01, ToDecimal(-1))
	assert.Equal(t, 0.0, ToDecimal(0))
}

func TestRoundTrip(t *testing.T) {
	t.Run("minor units survive decimal round trip", func(t *testing.T) {
		for _, minor := range []int64{0, 1, 99, 100, 1050, 123456789, -1050} {
			assert.Equal(t, minor, ToMinorUnits(ToDecimal(minor)))
		}
	})

	t.Run("decimals survive within one cent", func(t *testing.T) {
		for _, d := range []float64{0.01, 0.1, 1.005, 19.99, 1234.56, -7.77} {
			assert.InDelta(t, d, ToDecimal(ToMinorUnits(d)), 0.01)
		}
	})
}

func TestParseAmount(t *testing.T) {
	t.Run("pt-BR formatted input", func(t *testing.T) {
		assert.Equal(t, int64(1050), ParseAmount("R$ 10,50"))
		assert.Equal(t, int64(1050), ParseAmount("10,50"))
	})

	t.Run("period decimal separator", func(t *testing.T) {
		assert.Equal(t, int64(1050), ParseAmount("10.50"))
		assert.Equal(t, int64(500), ParseAmount("$5.00"))
	})

	t.Run("negative amounts", func(t *testing.T) {
		assert.Equal(t, int64(-1050), ParseAmount("-10,50"))
	})

	t.Run("garbage degrades to zero", func(t *testing.T) {
		assert.Equal(t, int64(0), ParseAmount("abc"))
		assert.Equal(t, int64(0), ParseAmount(""))
		assert.Equal(t, int64(0), ParseAmount("R$ "))
	})
}

func TestParseAmountStrict(t *testing.T) {
	t.Run("valid input", func(t *testing.T) {
		minor, err := ParseAmountStrict("R$ 10,50")
		assert.NoError(t, err)
		assert.Equal(t, int64(1050), minor)
	})

	t.Run("invalid input surfaces an error", func(t *testing.T) {
		_, err := ParseAmountStrict("abc")
		assert.ErrorIs(t, err, ErrInvalidAmount)

		_, err = ParseAmountStrict("")
		assert.ErrorIs(t, err, ErrInvalidAmount)

		_, err = ParseAmountStrict("1.234,56")
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})
}

func TestFormat(t *testing.T) {
	t.Run("symbol-less output keeps two fraction digits", func(t *testing.T) {
		out := Format(1050, FormatOptions{Locale: "en-US"})
		assert.Equal(t, "10.50", out)

		out = Format(100000, FormatOptions{Locale: "en-US"})
		assert.Equal(t, "1,000.00", out)
	})

	t.Run("pt-BR decimal comma", func(t *testing.T) {
		out := Format(1050, FormatOptions{})
		assert.Equal(t, "10,50", out)
	})

	t.Run("with symbol", func(t *testing.T) {
		out := Format(1050, FormatOptions{ShowSymbol: true, Locale: "en-US", CurrencyCode: "USD"})
		assert.Contains(t, out, "10.50")
	})
}
