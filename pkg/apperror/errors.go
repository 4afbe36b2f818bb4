package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes, one per failure kind.
const (
	CodeInvalidAmount          = "LDG_001"
	CodeAccountNotActive       = "LDG_002"
	CodeInsufficientFunds      = "LDG_003"
	CodeAccountNotEmpty        = "LDG_004"
	CodeInvalidStateTransition = "LDG_005"
	CodeSameAccount            = "LDG_006"

	CodeDuplicateEmail          = "REG_001"
	CodeClientNotFound          = "REG_002"
	CodeAccountNotFound         = "REG_003"
	CodeClientHasActiveAccounts = "REG_004"
	CodeDuplicateAccount        = "REG_005"

	CodeInvalidCredentials = "AUTH_001"
	CodeInvalidToken       = "AUTH_002"

	CodeRateLimitExceeded = "RATE_001"

	CodeInternal   = "SYS_001"
	CodeValidation = "VAL_001"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError of the same kind.
// Messages are ignored so errors.Is(err, ErrAccountNotFound("x")) matches any account id.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// CodeOf returns the code of the first AppError in err's chain, or "".
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// ---- Account operations (LDG) ----

func ErrInvalidAmount() *AppError {
	return New(CodeInvalidAmount, "Amount must be greater than zero", http.StatusBadRequest)
}

func ErrAccountNotActive(accountID string) *AppError {
	return New(CodeAccountNotActive, fmt.Sprintf("Account %s is not active", accountID), http.StatusConflict)
}

func ErrInsufficientFunds() *AppError {
	return New(CodeInsufficientFunds, "Insufficient funds", http.StatusPaymentRequired)
}

func ErrAccountNotEmpty(accountID string) *AppError {
	return New(CodeAccountNotEmpty, fmt.Sprintf("Account %s has a non-zero balance", accountID), http.StatusConflict)
}

func ErrInvalidStateTransition(from, to string) *AppError {
	return New(CodeInvalidStateTransition, fmt.Sprintf("Cannot move account from %s to %s", from, to), http.StatusConflict)
}

func ErrSameAccount() *AppError {
	return New(CodeSameAccount, "Source and target account must differ", http.StatusBadRequest)
}

// ---- Registry (REG) ----

func ErrDuplicateEmail() *AppError {
	return New(CodeDuplicateEmail, "A client with this email already exists", http.StatusConflict)
}

func ErrClientNotFound(clientID string) *AppError {
	return New(CodeClientNotFound, fmt.Sprintf("Client %s not found", clientID), http.StatusNotFound)
}

func ErrAccountNotFound(accountID string) *AppError {
	return New(CodeAccountNotFound, fmt.Sprintf("Account %s not found", accountID), http.StatusNotFound)
}

func ErrClientHasActiveAccounts() *AppError {
	return New(CodeClientHasActiveAccounts, "Client still owns active accounts", http.StatusConflict)
}

func ErrDuplicateAccount(accountID string) *AppError {
	return New(CodeDuplicateAccount, fmt.Sprintf("Account %s already exists", accountID), http.StatusConflict)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New(CodeInvalidCredentials, "Invalid credentials", http.StatusUnauthorized)
}

func ErrInvalidToken() *AppError {
	return New(CodeInvalidToken, "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New(CodeRateLimitExceeded, "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Validation ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap(CodeInternal, "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a VAL_001 error for malformed input.
func Validation(message string) *AppError {
	return New(CodeValidation, message, http.StatusBadRequest)
}
