package claims

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Field-level format validators. These are pure predicates consumed by
// intake tooling; entity constructors enforce their own minimal shapes.

var (
	strictEmailRE = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9._+%-]*[a-zA-Z0-9])*@[a-zA-Z0-9]([a-zA-Z0-9.-]*[a-zA-Z0-9])*\.[a-zA-Z]{2,}$`)
	phoneRE       = regexp.MustCompile(`^\+?1?[-.\s]?\(?[0-9]{3}\)?[-.\s]?[0-9]{3}[-.\s]?[0-9]{4}$`)
	insuranceIDRE = regexp.MustCompile(`^[A-Z0-9]{8,12}$`)
)

// ValidEmail reports whether email matches the strict address format.
// Consecutive dots are rejected even when the pattern would allow them.
func ValidEmail(email string) bool {
	if !strictEmailRE.MatchString(email) {
		return false
	}
	return !strings.Contains(email, "..")
}

// ValidPhone reports whether phone looks like a US phone number.
func ValidPhone(phone string) bool {
	return phoneRE.MatchString(phone)
}

// ValidInsuranceID reports whether id is 8-12 alphanumeric characters,
// case-insensitive.
func ValidInsuranceID(id string) bool {
	return insuranceIDRE.MatchString(strings.ToUpper(id))
}

// ValidDateRange reports whether end does not precede start.
func ValidDateRange(start, end time.Time) bool {
	return !end.Before(start)
}

// ValidAmountBetween reports whether amount falls within [min, max].
func ValidAmountBetween(amount, min, max float64) bool {
	return amount >= min && amount <= max
}

// ValidAmount checks amount against the standard intake bounds.
func ValidAmount(amount float64) bool {
	return ValidAmountBetween(amount, 0.01, 100000)
}

var currencyPrinter = message.NewPrinter(language.English)

// FormatCurrency renders amount as a dollar string with thousands
// separators, e.g. "$1,234.56".
func FormatCurrency(amount float64) string {
	return currencyPrinter.Sprintf("$%.2f", amount)
}

// ProcessingFee returns the flat processing fee charged for a claim of
// the given amount.
func ProcessingFee(amount float64) float64 {
	switch {
	case amount <= 1000:
		return 25
	case amount <= 5000:
		return 50
	default:
		return 100
	}
}
