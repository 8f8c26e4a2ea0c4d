package utils

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hirosato/shop-ledger/backend/internal/domain/errors"
)

var (
	// UUIDRegex validates UUID strings
	UUIDRegex = regexp.MustCompile(`^[a-fA-F0-9]{8}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{12}$`)

	// PhoneRegex accepts an optional leading + followed by 6 to 15 digits
	PhoneRegex = regexp.MustCompile(`^\+?[0-9]{6,15}$`)

	// DateRegex validates ISO 8601 date strings (YYYY-MM-DD)
	DateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// ValidateUUID validates a UUID string
func ValidateUUID(uuid string) error {
	if !UUIDRegex.MatchString(uuid) {
		return errors.NewValidationError("invalid UUID format")
	}
	return nil
}

// NormalizePhone strips spaces and dashes and validates what is left.
// An empty phone is allowed.
func NormalizePhone(phone string) (string, error) {
	p := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(phone))
	if p == "" {
		return "", nil
	}
	if !PhoneRegex.MatchString(p) {
		return "", errors.NewValidationError("invalid phone number").WithDetail("phone", phone)
	}
	return p, nil
}

// ParseISODate parses a YYYY-MM-DD date as midnight UTC. An empty string yields the zero time.
func ParseISODate(date string) (time.Time, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return time.Time{}, nil
	}
	if !DateRegex.MatchString(date) {
		return time.Time{}, errors.NewValidationError("invalid date format, should be YYYY-MM-DD")
	}
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return time.Time{}, errors.NewValidationError("invalid date value")
	}
	return t, nil
}

// ParseAmount parses a non-negative decimal amount. An empty string is zero.
func ParseAmount(value, fieldName string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, errors.NewValidationError(fieldName + " must be a decimal number")
	}
	if d.IsNegative() {
		return decimal.Zero, errors.NewValidationError(fieldName + " must not be negative")
	}
	return d, nil
}

// ValidateRequiredString validates that a string is not empty
func ValidateRequiredString(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return errors.NewValidationError(fieldName + " is required")
	}
	return nil
}
