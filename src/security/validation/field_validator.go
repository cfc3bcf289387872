// src/security/validation/field_validator.go
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

var ErrValidationFailed = errors.New("validation failed")

const (
	DefaultMaxStringLength = 255
	MaxPatternLength       = 512
	MaxNotesLength         = 2048
)

// ValidateStringNotEmpty checks if a string is not empty after trimming.
func ValidateStringNotEmpty(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateStringMaxLength checks if a string's UTF-8 character count is within max bounds.
func ValidateStringMaxLength(s string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(s) > maxLength {
		return fmt.Errorf("%w: %s exceeds maximum length of %d characters", ErrValidationFailed, fieldName, maxLength)
	}
	return nil
}

// ValidateDateString checks that s is a real calendar date in YYYY-MM-DD form.
func ValidateDateString(s, fieldName string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	if err := ValidateStringNotEmpty(trimmed, fieldName); err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse("2006-01-02", trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s ('%s') is not a valid date (expected YYYY-MM-DD)", ErrValidationFailed, fieldName, s)
	}
	return t, nil
}

var (
	lastFourRegex = regexp.MustCompile(`^[0-9]{4}$`)
	colorRegex    = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

// ValidateLastFour accepts an empty value or exactly four digits.
func ValidateLastFour(s string) error {
	if s == "" || lastFourRegex.MatchString(s) {
		return nil
	}
	return fmt.Errorf("%w: last four ('%s') must be 4 digits", ErrValidationFailed, s)
}

// ValidateColor accepts an empty value or a #rrggbb hex color.
func ValidateColor(s string) error {
	if s == "" || colorRegex.MatchString(s) {
		return nil
	}
	return fmt.Errorf("%w: color ('%s') must look like #1a2b3c", ErrValidationFailed, s)
}
