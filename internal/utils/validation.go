package utils

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxItemLength matches the maxlength of the page's entry input.
const DefaultMaxItemLength = 40

// NormalizeItemText trims surrounding whitespace from entered item text.
func NormalizeItemText(raw string) string {
	return strings.TrimSpace(raw)
}

// ValidateItemText checks entered text the way the entry input constrains it:
// non-blank after trimming and at most limit characters. A limit <= 0
// disables the length check.
func ValidateItemText(raw string, limit int) error {
	text := NormalizeItemText(raw)
	if text == "" {
		return ErrEmptyItem()
	}
	if n := utf8.RuneCountInString(text); limit > 0 && n > limit {
		return ErrItemTooLong(n, limit)
	}
	return nil
}
