package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	MaxAccountNameLength = 255
	MaxAccountCodeLength = 64
	MaxAmount            = "1000000000000" // 1 trillion
)

// ValidateAccountCode validates the per-organization account code.
func ValidateAccountCode(code string) error {
	code = strings.TrimSpace(code)

	if code == "" {
		return fmt.Errorf("%w: account code is required", ErrInvalidArgument)
	}
	if len(code) > MaxAccountCodeLength {
		return fmt.Errorf("%w: account code exceeds %d characters", ErrInvalidArgument, MaxAccountCodeLength)
	}

	return nil
}

// ValidateAccountName validates the account display name.
func ValidateAccountName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return fmt.Errorf("%w: account name is required", ErrInvalidArgument)
	}
	if len(name) > MaxAccountNameLength {
		return fmt.Errorf("%w: account name exceeds %d characters", ErrInvalidArgument, MaxAccountNameLength)
	}

	return nil
}

// ValidateAmount validates a posting amount. Amounts are strictly positive;
// the sign of the applied delta comes from the normal-balance rule, never
// from the caller.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidArgument)
	}

	maxAmount, _ := decimal.NewFromString(MaxAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: amount exceeds maximum of %s", ErrInvalidArgument, MaxAmount)
	}

	return nil
}

// ClampLimit normalizes a page-size argument for entry listings.
func ClampLimit(limit int) int {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}
