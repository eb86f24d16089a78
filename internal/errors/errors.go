package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	AccountNotFound        ErrorCode = "account_not_found"
	OwnerNotFound          ErrorCode = "owner_not_found"
	TransactionNotFound    ErrorCode = "transaction_not_found"
	InvalidInput           ErrorCode = "invalid_input"
	InvalidAmount          ErrorCode = "invalid_amount"
	InvalidAccountID       ErrorCode = "invalid_account_id"
	InsufficientFunds      ErrorCode = "insufficient_funds"
	AccountInactive        ErrorCode = "account_inactive"
	OwnerInactive          ErrorCode = "owner_inactive"
	SameAccountTransfer    ErrorCode = "same_account_transfer"
	AccountAlreadyInactive ErrorCode = "account_already_inactive"
	AccountAlreadyActive   ErrorCode = "account_already_active"
	AccountHasBalance      ErrorCode = "account_has_balance"
	BalanceLimitExceeded   ErrorCode = "balance_limit_exceeded"
	DuplicateAccount       ErrorCode = "duplicate_account"
	WriteConflict          ErrorCode = "write_conflict"
	SequenceUnavailable    ErrorCode = "sequence_unavailable"
	InternalError          ErrorCode = "internal_error"
)

// Kind is the coarse failure class a caller branches on.
type Kind string

const (
	KindNotFound   Kind = "not_found"
	KindBadRequest Kind = "bad_request"
	KindConflict   Kind = "conflict"
	KindInternal   Kind = "internal"
)

var codeKinds = map[ErrorCode]Kind{
	AccountNotFound:        KindNotFound,
	OwnerNotFound:          KindNotFound,
	TransactionNotFound:    KindNotFound,
	InvalidInput:           KindBadRequest,
	InvalidAmount:          KindBadRequest,
	InvalidAccountID:       KindBadRequest,
	InsufficientFunds:      KindBadRequest,
	AccountInactive:        KindBadRequest,
	OwnerInactive:          KindBadRequest,
	SameAccountTransfer:    KindBadRequest,
	AccountAlreadyInactive: KindBadRequest,
	AccountAlreadyActive:   KindBadRequest,
	AccountHasBalance:      KindBadRequest,
	BalanceLimitExceeded:   KindBadRequest,
	DuplicateAccount:       KindConflict,
	WriteConflict:          KindConflict,
	SequenceUnavailable:    KindInternal,
	InternalError:          KindInternal,
}

type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details string         `json:"details,omitempty"`
	Fields  map[string]any `json:"fields,omitempty"`
	Err     error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on Code so decorated copies of a sentinel still compare equal.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) Kind() Kind {
	if k, ok := codeKinds[e.Code]; ok {
		return k
	}
	return KindInternal
}

func (e *AppError) HTTPStatus() int {
	if e.Code == InsufficientFunds {
		return http.StatusUnprocessableEntity
	}
	switch e.Kind() {
	case KindNotFound:
		return http.StatusNotFound
	case KindBadRequest:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func NewAppErrorf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *AppError) clone() *AppError {
	c := *e
	if e.Fields != nil {
		c.Fields = make(map[string]any, len(e.Fields))
		for k, v := range e.Fields {
			c.Fields[k] = v
		}
	}
	return &c
}

func (e *AppError) WithDetails(details string) *AppError {
	c := e.clone()
	c.Details = details
	return c
}

func (e *AppError) WithField(key string, value any) *AppError {
	c := e.clone()
	if c.Fields == nil {
		c.Fields = make(map[string]any)
	}
	c.Fields[key] = value
	return c
}

// Wrap attaches cause as the underlying error and its text as Details.
func (e *AppError) Wrap(cause error) *AppError {
	c := e.clone()
	c.Err = cause
	if cause != nil {
		c.Details = cause.Error()
	}
	return c
}

// Internal wraps an unexpected failure.
func Internal(message string, cause error) *AppError {
	return NewAppError(InternalError, message).Wrap(cause)
}

// From returns err as an *AppError, wrapping anything else as internal.
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Internal("an unexpected error occurred", err)
}

// KindOf reports the Kind of err, or KindInternal for non-application errors.
func KindOf(err error) Kind {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind()
	}
	return KindInternal
}

func New(text string) error {
	return stderrors.New(text)
}

func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Predefined errors for common cases
var (
	ErrAccountNotFound        = NewAppError(AccountNotFound, "account not found")
	ErrOwnerNotFound          = NewAppError(OwnerNotFound, "owner not found")
	ErrTransactionNotFound    = NewAppError(TransactionNotFound, "transaction not found")
	ErrInvalidAmount          = NewAppError(InvalidAmount, "amount must be greater than zero")
	ErrInvalidAccountID       = NewAppError(InvalidAccountID, "invalid account id")
	ErrInsufficientFunds      = NewAppError(InsufficientFunds, "insufficient funds")
	ErrAccountInactive        = NewAppError(AccountInactive, "account is inactive")
	ErrOwnerInactive          = NewAppError(OwnerInactive, "owner is inactive")
	ErrSameAccountTransfer    = NewAppError(SameAccountTransfer, "cannot transfer to the same account")
	ErrAccountAlreadyInactive = NewAppError(AccountAlreadyInactive, "account is already inactive")
	ErrAccountAlreadyActive   = NewAppError(AccountAlreadyActive, "account is already active")
	ErrAccountHasBalance      = NewAppError(AccountHasBalance, "account has a balance; empty it first or use force")
	ErrBalanceLimitExceeded   = NewAppError(BalanceLimitExceeded, "resulting balance exceeds the maximum")
	ErrDuplicateAccount       = NewAppError(DuplicateAccount, "account already exists")
	ErrWriteConflict          = NewAppError(WriteConflict, "concurrent update conflict, retry budget exhausted")
	ErrSequenceUnavailable    = NewAppError(SequenceUnavailable, "failed to generate account number")
)
