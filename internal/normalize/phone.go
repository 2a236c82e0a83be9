package normalize

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Phone returns the digits-only canonical form of a US phone number.
// An 11-digit number with a leading 1 has the country code dropped;
// anything that does not reduce to exactly 10 digits is rejected.
// Idempotent: a canonical number passes through unchanged.
func Phone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return "", &ValidationError{Field: "phone", Reason: "must contain exactly 10 digits"}
	}
	return digits, nil
}

// FormatPhone renders a canonical 10-digit number in national display
// form, e.g. "(509) 555-0100". Falls back to the raw input when the
// number cannot be parsed.
func FormatPhone(digits string) string {
	num, err := phonenumbers.Parse(digits, "US")
	if err != nil {
		return digits
	}
	return phonenumbers.Format(num, phonenumbers.NATIONAL)
}
