package core

import (
	"strings"
	"unicode/utf8"
)

// MaxNameLength bounds project, screen, test case and test item names.
const MaxNameLength = 100

// NormalizeName trims surrounding whitespace and reports whether the result
// holds between 1 and MaxNameLength characters.
func NormalizeName(raw string) (string, bool) {
	name := strings.TrimSpace(raw)
	n := utf8.RuneCountInString(name)
	if n == 0 || n > MaxNameLength {
		return name, false
	}
	return name, true
}

// ValidateName is NormalizeName returning an ErrInvalidName for rejected input.
func ValidateName(field, raw string) (string, error) {
	name, ok := NormalizeName(raw)
	if !ok {
		if name == "" {
			return "", NewNameError(field, "is empty")
		}
		return "", NewNameError(field, "exceeds 100 characters")
	}
	return name, nil
}
