package apperrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrUnauthorized indicates that the caller could not be authenticated.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden indicates that the caller is authenticated but not allowed to act.
var ErrForbidden = errors.New("forbidden")

// ErrUpstream indicates a failure of an external collaborator (mail, captcha, oauth, payment).
var ErrUpstream = errors.New("upstream service failure")

// ErrInvalidState indicates that an OAuth handshake state did not match.
var ErrInvalidState = errors.New("invalid oauth state")

// AppError is an error carrying the HTTP status it should be reported with.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func NewBadRequestError(message string) *AppError {
	return NewAppError(http.StatusBadRequest, message, ErrValidation)
}

func NewUnauthorizedError(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, message, ErrUnauthorized)
}

func NewForbiddenError(message string) *AppError {
	return NewAppError(http.StatusForbidden, message, ErrForbidden)
}

func NewNotFoundError(message string) *AppError {
	return NewAppError(http.StatusNotFound, message, ErrNotFound)
}

func NewInternalServerError(message string) *AppError {
	return NewAppError(http.StatusInternalServerError, message, nil)
}

func NewGatewayTimeoutError(message string) *AppError {
	return NewAppError(http.StatusGatewayTimeout, message, ErrUpstream)
}

// ConflictError reports a uniqueness violation for a specific logical field.
// Field is one of "email", "username", "provider" or "unique" when unknown.
type ConflictError struct {
	Op    string
	Field string
}

func (e *ConflictError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %v", e.Op, ErrDuplicate)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, ErrDuplicate, e.Field)
}

func (e *ConflictError) Unwrap() error { return ErrDuplicate }

// NewConflictError creates a ConflictError for the given operation and field.
func NewConflictError(op, field string) *ConflictError {
	return &ConflictError{Op: op, Field: field}
}

// ConflictField returns the conflicting field name if err is a ConflictError.
func ConflictField(err error) (string, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce.Field, true
	}
	return "", false
}

// VerificationReason classifies why a token failed verification.
type VerificationReason string

const (
	ReasonExpired          VerificationReason = "Expired"
	ReasonMalformed        VerificationReason = "Malformed"
	ReasonMissingToken     VerificationReason = "MissingToken"
	ReasonSignatureInvalid VerificationReason = "SignatureInvalid"
)

// VerificationError is returned by the token codec for every expected verification failure.
type VerificationError struct {
	Reason VerificationReason
	Err    error
}

func (e *VerificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token verification failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("token verification failed (%s)", e.Reason)
}

func (e *VerificationError) Unwrap() error { return e.Err }

// VerificationReasonOf extracts the reason from a VerificationError.
func VerificationReasonOf(err error) (VerificationReason, bool) {
	var ve *VerificationError
	if errors.As(err, &ve) {
		return ve.Reason, true
	}
	return "", false
}

// EncodingError is returned when a token cannot be issued for malformed input.
type EncodingError struct {
	Msg string
	Err error
}

func (e *EncodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token encoding failed: %s: %v", e.Msg, e.Err)
	}
	return "token encoding failed: " + e.Msg
}

func (e *EncodingError) Unwrap() error { return e.Err }

// CaptchaReason classifies captcha failures.
type CaptchaReason string

const (
	// CaptchaRejected is a business rejection: the score or success flag failed.
	CaptchaRejected CaptchaReason = "Rejected"
	// CaptchaMissing means the request carried no captcha response token.
	CaptchaMissing CaptchaReason = "Missing"
	// CaptchaUnavailable means the verification service could not be reached.
	CaptchaUnavailable CaptchaReason = "Unavailable"
)

// CaptchaError reports a failed captcha check.
type CaptchaError struct {
	Reason  CaptchaReason
	Success bool
	Score   float64
	Err     error
}

func (e *CaptchaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("captcha %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("captcha %s (success=%t score=%.2f)", e.Reason, e.Success, e.Score)
}

func (e *CaptchaError) Unwrap() error { return e.Err }

// UpstreamError wraps a failure of an external collaborator.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Service, ErrUpstream, e.Err)
}

func (e *UpstreamError) Unwrap() []error { return []error{ErrUpstream, e.Err} }

// Timeout reports whether the upstream failure was a deadline expiry.
func (e *UpstreamError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(e.Err, &te) && te.Timeout()
}

// NewUpstreamError wraps err as a failure of the named collaborator.
func NewUpstreamError(service string, err error) *UpstreamError {
	return &UpstreamError{Service: service, Err: err}
}

// PaymentDeclinedError is a business rejection returned by the payment processor.
type PaymentDeclinedError struct {
	Code    string
	Message string
}

func (e *PaymentDeclinedError) Error() string {
	return fmt.Sprintf("payment declined (%s): %s", e.Code, e.Message)
}

// ProviderMismatchError is returned when a password login targets an account created
// through an OAuth provider. Source names the provider the client should use instead.
type ProviderMismatchError struct {
	Source string
}

func (e *ProviderMismatchError) Error() string {
	return "account signed up using " + e.Source
}
