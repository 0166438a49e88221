package types

import (
	"errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeAuthorization ErrorType = "authorization"
	ErrorTypeSession       ErrorType = "session"
	ErrorTypeNetwork       ErrorType = "network"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeTransaction   ErrorType = "transaction"
	ErrorTypeTimeout       ErrorType = "timeout"
	ErrorTypeInternal      ErrorType = "internal"
)

// VitalError represents a structured error in the vital-docs-share system
type VitalError struct {
	Type    ErrorType              `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *VitalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *VitalError) Unwrap() error {
	return e.Cause
}

// Error codes for the session and access-control core
const (
	ErrCodeWalletUnavailable     = "WALLET_UNAVAILABLE"
	ErrCodeNoAccounts            = "NO_ACCOUNTS"
	ErrCodeNotConnected          = "NOT_CONNECTED"
	ErrCodeNetworkSwitchRejected = "NETWORK_SWITCH_REJECTED"
	ErrCodeNetworkUnknown        = "NETWORK_UNKNOWN_TO_WALLET"
	ErrCodeNotOwner              = "NOT_OWNER"
	ErrCodeNotFound              = "NOT_FOUND"
	ErrCodeSubmissionFailed      = "SUBMISSION_FAILED"
	ErrCodeConfirmationTimeout   = "CONFIRMATION_TIMEOUT"
	ErrCodeInvalidInput          = "INVALID_INPUT"
)

// NewSessionError creates a session lifecycle error (wallet missing, no
// accounts, not connected)
func NewSessionError(code, message string) *VitalError {
	return &VitalError{
		Type:    ErrorTypeSession,
		Code:    code,
		Message: message,
	}
}

// NewNetworkError creates a network-assertion error with the wallet's
// original rejection preserved as the cause
func NewNetworkError(code, message string, cause error) *VitalError {
	return &VitalError{
		Type:    ErrorTypeNetwork,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewAuthorizationError creates an ownership/authorization error
func NewAuthorizationError(code, message string, details map[string]interface{}) *VitalError {
	return &VitalError{
		Type:    ErrorTypeAuthorization,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(message string) *VitalError {
	return &VitalError{
		Type:    ErrorTypeNotFound,
		Code:    ErrCodeNotFound,
		Message: message,
	}
}

// NewTransactionError creates a transaction submission/confirmation error
func NewTransactionError(code, message string, cause error) *VitalError {
	errType := ErrorTypeTransaction
	if code == ErrCodeConfirmationTimeout {
		errType = ErrorTypeTimeout
	}
	return &VitalError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string, details map[string]interface{}) *VitalError {
	return &VitalError{
		Type:    ErrorTypeValidation,
		Code:    ErrCodeInvalidInput,
		Message: message,
		Details: details,
	}
}

// HasCode reports whether err (or anything it wraps) is a VitalError with
// the given code
func HasCode(err error, code string) bool {
	var ve *VitalError
	if errors.As(err, &ve) {
		return ve.Code == code
	}
	return false
}

// AsVitalError extracts a VitalError from an error chain
func AsVitalError(err error) (*VitalError, bool) {
	var ve *VitalError
	ok := errors.As(err, &ve)
	return ve, ok
}
