// Package errors provides the standardized error taxonomy for the
// subscription wizard and its backend collaborators.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeCouponInvalid           ErrorCode = "COUPON_INVALID"
	ErrCodeCustomerInfoFetchFailed ErrorCode = "CUSTOMER_INFO_FETCH_FAILED"
	ErrCodeCatalogLookupFailed     ErrorCode = "CATALOG_LOOKUP_FAILED"
	ErrCodeDraftDecodeFailed       ErrorCode = "DRAFT_DECODE_FAILED"
	ErrCodeDraftSaveFailed         ErrorCode = "DRAFT_SAVE_FAILED"
	ErrCodePlanGenerationFailed    ErrorCode = "PLAN_GENERATION_FAILED"
	ErrCodeSubmissionFailed        ErrorCode = "SUBMISSION_FAILED"
	ErrCodeCustomerSearchFailed    ErrorCode = "CUSTOMER_SEARCH_FAILED"
	ErrCodeInternal                ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error. Field-level
// validation failures never become StandardErrors; those travel as the
// validator's field-to-message map.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// NewCouponInvalidError creates a non-retryable business-rule error scoped
// to the coupon field. It is surfaced inline, not as a toast.
func NewCouponInvalidError(code string, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCouponInvalid,
		Message:   "Coupon code is not valid",
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"couponCode": code},
		Timestamp: time.Now().UTC(),
	}
}

// NewCustomerInfoFetchFailedError marks the fatal pre-submission failure:
// the caller must abort assembly and return the wizard to the billing step.
func NewCustomerInfoFetchFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCustomerInfoFetchFailed,
		Message:   "Could not fetch customer information",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogLookupFailedError creates a retryable lookup error. Callers are
// expected to degrade to fallback catalog data rather than block the wizard.
func NewCatalogLookupFailedError(kind string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogLookupFailed,
		Message:   "Catalog lookup failed",
		Details:   fmt.Sprintf("kind: %s, error: %s", kind, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDraftDecodeFailedError creates a non-retryable persistence decode error.
// The draft store treats it as "no draft" on load.
func NewDraftDecodeFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDraftDecodeFailed,
		Message:   "Persisted draft could not be decoded",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDraftSaveFailedError creates a retryable persistence write error.
func NewDraftSaveFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDraftSaveFailed,
		Message:   "Draft autosave failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPlanGenerationFailedError creates a retryable plan-generation error.
func NewPlanGenerationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePlanGenerationFailed,
		Message:   "Plan generation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSubmissionFailedError creates a retryable error for a failed
// subscription-creation call. The wizard stays on the review step.
func NewSubmissionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSubmissionFailed,
		Message:   "Subscription creation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCustomerSearchFailedError creates a retryable search error. The search
// layer degrades to an empty result list.
func NewCustomerSearchFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCustomerSearchFailed,
		Message:   "Customer search failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// Normalize converts an arbitrary error into a StandardError, passing
// through errors that already carry a code.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// IsCode reports whether err is a StandardError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code == code
	}
	return false
}

// IsRetryable reports whether err is a StandardError marked retryable.
func IsRetryable(err error) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Retryable
	}
	return false
}
