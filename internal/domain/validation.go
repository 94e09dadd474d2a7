package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrAmountTooLarge   = errors.New("amount exceeds maximum allowed")
	ErrAmountTooSmall   = errors.New("amount below minimum allowed")
	ErrTooManySlots     = errors.New("slot count exceeds maximum allowed")
	ErrInvalidReference = errors.New("invalid payment reference format")
)

// Validation constants
const (
	MaxSlotsPerGroup = 1000
	MaxAmount        = "1000000000" // 1 billion naira
	MinAmount        = "0.01"
)

var (
	emailRegex     = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	referenceRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{6,64}$`)
)

// ValidateAmount validates a monetary amount.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	minAmount, _ := decimal.NewFromString(MinAmount)
	if amount.LessThan(minAmount) {
		return fmt.Errorf("%w: minimum amount is %s", ErrAmountTooSmall, MinAmount)
	}

	maxAmount, _ := decimal.NewFromString(MaxAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxAmount)
	}

	return nil
}

// ValidateSlotCount validates a slot count against a group-sized ceiling.
func ValidateSlotCount(slots int64) error {
	if slots <= 0 {
		return ErrInvalidSlotCount
	}
	if slots > MaxSlotsPerGroup {
		return fmt.Errorf("%w: maximum is %d", ErrTooManySlots, MaxSlotsPerGroup)
	}
	return nil
}

// ValidateEmail validates email format.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidateReference validates a payment reference's shape before it is used
// to look anything up.
func ValidateReference(reference string) error {
	if !referenceRegex.MatchString(reference) {
		return ErrInvalidReference
	}
	return nil
}

// ValidatePagination validates and limits pagination parameters.
func ValidatePagination(limit, offset int) (int, int) {
	const maxPageSize = 1000
	const defaultPageSize = 50

	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
