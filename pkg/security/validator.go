package security

import (
	"errors"
	"unicode"
	"unicode/utf8"
)

// MaxFilterValueLength caps list filter values, in characters, at the longest
// valid email address. Stored names and emails share the cap so every stored
// value stays matchable.
const MaxFilterValueLength = 254

var (
	ErrFilterTooLong      = errors.New("filter value too long")
	ErrFilterInvalidChars = errors.New("filter value contains invalid characters")
)

// ValidateFilterValue checks a value used for an exact-match list filter.
// The value is compared verbatim, so it is never trimmed or rewritten.
func ValidateFilterValue(value string) error {
	if value == "" {
		return nil
	}

	if !utf8.ValidString(value) {
		return ErrFilterInvalidChars
	}

	if utf8.RuneCountInString(value) > MaxFilterValueLength {
		return ErrFilterTooLong
	}

	for _, char := range value {
		if !isValidFilterChar(char) {
			return ErrFilterInvalidChars
		}
	}

	return nil
}

// isValidFilterChar rejects control and formatting characters.
func isValidFilterChar(char rune) bool {
	return !unicode.IsControl(char) && !unicode.Is(unicode.Cf, char)
}
