package domain

import (
	"errors"
	"regexp"
	"strings"
)

var ErrInvalidPhoneNumber = errors.New("invalid phone number")

// Kenyan mobile numbers: optional 0, 254 or +254 prefix, then 7 or 1 and eight digits
var kenyanPhoneRe = regexp.MustCompile(`^(?:\+?254|0)?([17]\d{8})$`)

// NormalizePhoneNumber validates a Kenyan mobile number and returns it as +254XXXXXXXXX.
// Spaces and dashes are ignored.
func NormalizePhoneNumber(raw string) (string, error) {
	cleaned := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(raw))

	match := kenyanPhoneRe.FindStringSubmatch(cleaned)
	if match == nil {
		return "", ErrInvalidPhoneNumber
	}

	return "+254" + match[1], nil
}
