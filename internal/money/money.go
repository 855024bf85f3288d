package money

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// ErrInvalidAmount is returned by ParseAmountStrict for input that does not
// contain a parseable monetary value.
var ErrInvalidAmount = errors.New("invalid monetary amount")

// ToMinorUnits converts a decimal currency value to integer minor units
// (cents). Non-finite input degrades to zero rather than erroring; callers
// needing strict behavior must pre-validate.
func ToMinorUnits(amount float64) int64 {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0
	}
	return int64(math.Round(amount * 100))
}

// ToDecimal converts integer minor units to the decimal display value.
func ToDecimal(minor int64) float64 {
	return float64(minor) / 100
}

// ParseAmount parses locale-formatted monetary input such as "R$ 10,50" or
// "10.50" into minor units. It strips everything except digits, comma, period
// and minus, then treats the first comma as the decimal separator (pt-BR).
// Invalid input degrades to zero.
func ParseAmount(text string) int64 {
	minor, err := ParseAmountStrict(text)
	if err != nil {
		return 0
	}
	return minor
}

// ParseAmountStrict is the strict variant of ParseAmount: instead of silently
// yielding zero it reports ErrInvalidAmount, so callers can reject malformed
// amounts before they become zero-value transactions.
func ParseAmountStrict(text string) (int64, error) {
	var b strings.Builder
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}

	cleaned := strings.Replace(b.String(), ",", ".", 1)
	if cleaned == "" {
		return 0, ErrInvalidAmount
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}

	return ToMinorUnits(value), nil
}

// FormatOptions controls Format rendering. Zero values fall back to the
// pt-BR locale and BRL.
type FormatOptions struct {
	ShowSymbol   bool
	Locale       string
	CurrencyCode string
}

// Format renders minor units as a locale-formatted currency string. With
// ShowSymbol false the currency symbol is omitted but two fraction digits are
// kept.
func Format(minor int64, opts FormatOptions) string {
	loc := opts.Locale
	if loc == "" {
		loc = "pt-BR"
	}
	tag, err := language.Parse(loc)
	if err != nil {
		tag = language.BrazilianPortuguese
	}
	p := message.NewPrinter(tag)

	amount := ToDecimal(minor)
	if !opts.ShowSymbol {
		return p.Sprint(number.Decimal(amount,
			number.MinFractionDigits(2), number.MaxFractionDigits(2)))
	}

	code := opts.CurrencyCode
	if code == "" {
		code = "BRL"
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		unit = currency.BRL
	}
	return p.Sprint(currency.Symbol(unit.Amount(amount)))
}
