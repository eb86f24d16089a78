// Package validation holds the typed field checks applied to requests before
// any state is touched. Each check returns a *FieldError naming the field and
// the reason; Collect folds them into a single bad-request error.
package validation

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"banking-ledger/internal/domain"
	"banking-ledger/internal/errors"
)

// MaxAmountScale is the number of decimal places money values may carry.
const MaxAmountScale = 2

const MaxPageLimit = 100

type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
	Value  any    `json:"value,omitempty"`
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func fail(field string, value any, format string, args ...any) *FieldError {
	return &FieldError{Field: field, Reason: fmt.Sprintf(format, args...), Value: value}
}

// Amount requires a strictly positive value with at most two decimal places
// that fits in a balance column.
func Amount(field string, v decimal.Decimal) *FieldError {
	if !v.IsPositive() {
		return fail(field, v.String(), "must be greater than zero")
	}
	if v.GreaterThan(domain.MaxBalance) {
		return fail(field, v.String(), "must be at most %s", domain.MaxBalance.StringFixed(MaxAmountScale))
	}
	if !v.Equal(v.Round(MaxAmountScale)) {
		return fail(field, v.String(), "must have at most %d decimal places", MaxAmountScale)
	}
	return nil
}

// InitialBalance accepts zero.
func InitialBalance(field string, v decimal.Decimal) *FieldError {
	if v.IsNegative() {
		return fail(field, v.String(), "must not be negative")
	}
	if v.IsZero() {
		return nil
	}
	return Amount(field, v)
}

func Description(field, v string) *FieldError {
	if n := len([]rune(v)); n > domain.MaxDescriptionLength {
		return fail(field, n, "must be at most %d characters", domain.MaxDescriptionLength)
	}
	return nil
}

func AccountType(field string, v domain.AccountType) *FieldError {
	if !v.Valid() {
		return fail(field, string(v), "must be %q or %q", domain.AccountTypeSavings, domain.AccountTypeChecking)
	}
	return nil
}

func TransactionType(field string, v domain.TransactionType) *FieldError {
	if !v.Valid() {
		names := make([]string, len(domain.TransactionTypes))
		for i, t := range domain.TransactionTypes {
			names[i] = string(t)
		}
		return fail(field, string(v), "must be one of %s", strings.Join(names, ", "))
	}
	return nil
}

func ID(field string, v uuid.UUID) *FieldError {
	if v == uuid.Nil {
		return fail(field, v.String(), "is required")
	}
	return nil
}

func Pagination(p domain.Page) *FieldError {
	if p.Page < 1 {
		return fail("page", p.Page, "must be at least 1")
	}
	if p.Limit < 1 || p.Limit > MaxPageLimit {
		return fail("limit", p.Limit, "must be between 1 and %d", MaxPageLimit)
	}
	// Keeps Offset() within int.
	if p.Page > math.MaxInt/p.Limit {
		return fail("page", p.Page, "must be at most %d for limit %d", math.MaxInt/p.Limit, p.Limit)
	}
	return nil
}

// Collect returns nil when every check passed, otherwise an InvalidInput
// (or InvalidAmount when only amounts failed) error listing each failure.
func Collect(checks ...*FieldError) error {
	var failed []FieldError
	amountOnly := true
	for _, c := range checks {
		if c == nil {
			continue
		}
		failed = append(failed, *c)
		if c.Field != "amount" {
			amountOnly = false
		}
	}
	if len(failed) == 0 {
		return nil
	}

	names := make([]string, len(failed))
	for i, f := range failed {
		names[i] = f.Field
	}

	code := errors.InvalidInput
	if amountOnly {
		code = errors.InvalidAmount
	}
	return errors.NewAppErrorf(code, "found %d invalid field(s): %s", len(failed), strings.Join(names, ", ")).
		WithField("fields", failed)
}
