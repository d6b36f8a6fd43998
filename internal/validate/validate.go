// Package validate checks the syntax of phone numbers and email addresses entered for a contact.
package validate

import (
	"regexp"
	"strings"
)

// The accepted number of digits in a phone number, covering national and international formats.
const (
	MinPhoneDigits = 10
	MaxPhoneDigits = 15
)

// emailPattern accepts a simple local@domain.tld form.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Phone strips all characters that are not decimal digits from raw. The phone number is valid if
// between MinPhoneDigits and MaxPhoneDigits digits remain; in that case the digits are returned.
//
// Examples:
//
//	Phone("(123) 456-7890")  // "1234567890", true
//	Phone("+1-123-456-7890") // "11234567890", true
//	Phone("123")             // "", false
func Phone(raw string) (string, bool) {
	digits := Digits(raw)
	if len(digits) < MinPhoneDigits || len(digits) > MaxPhoneDigits {
		return "", false
	}
	return digits, true
}

// Digits returns only the ASCII digits of s.
func Digits(s string) string {
	var builder strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}

// Email reports whether raw is a syntactically valid email address. The empty string is not a
// valid address; callers that treat an empty input as "no email" must check that first.
func Email(raw string) bool {
	return emailPattern.MatchString(raw)
}
