// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Engine contract violations. Always caller-caused, never retried.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// Data access errors around the profile store and loan catalog.
	ErrCodeProfileNotFound     ErrorCode = "PROFILE_NOT_FOUND"
	ErrCodeProfileFetchFailed  ErrorCode = "PROFILE_FETCH_FAILED"
	ErrCodeCatalogFetchFailed  ErrorCode = "CATALOG_FETCH_FAILED"
	ErrCodeCatalogEmpty        ErrorCode = "CATALOG_EMPTY"
	ErrCodeDatabaseUnavailable ErrorCode = "DATABASE_CONNECTION_FAILED"

	// Weather feed errors.
	ErrCodeWeatherFeedUnavailable ErrorCode = "WEATHER_FEED_UNAVAILABLE"
	ErrCodeWeatherFeedTimeout     ErrorCode = "WEATHER_FEED_TIMEOUT"

	// Publishing errors.
	ErrCodeBundleIndexFailed      ErrorCode = "BUNDLE_INDEX_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// StandardError represents a structured application error.
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

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewInvalidInputError wraps an engine contract violation. The same inputs
// fail the same way every time, so the error is never retryable.
func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid input for decision engine",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProfileNotFoundError creates a non-retryable missing-profile error.
func NewProfileNotFoundError(farmerID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProfileNotFound,
		Message:   "Farmer profile not found",
		Details:   fmt.Sprintf("farmerId: %s", farmerID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProfileFetchFailedError creates a retryable profile store error.
func NewProfileFetchFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeProfileFetchFailed,
		Message:   "Database error while loading farmer profile",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogFetchFailedError creates a retryable loan catalog error.
func NewCatalogFetchFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogFetchFailed,
		Message:   "Database error while loading loan catalog",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogEmptyError creates a non-retryable empty-catalog error.
func NewCatalogEmptyError() *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogEmpty,
		Message:   "Loan catalog has no products",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseUnavailableError creates a retryable connection error.
func NewDatabaseUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseUnavailable,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewWeatherFeedUnavailableError creates a retryable weather feed error.
func NewWeatherFeedUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeWeatherFeedUnavailable,
		Message:   "Weather feed request failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewWeatherFeedTimeoutError creates a retryable weather feed timeout error.
func NewWeatherFeedTimeoutError(region string) *StandardError {
	return &StandardError{
		Code:      ErrCodeWeatherFeedTimeout,
		Message:   "Weather feed timeout",
		Details:   fmt.Sprintf("region: %s", region),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewBundleIndexFailedError creates a retryable audit-index error.
func NewBundleIndexFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBundleIndexFailed,
		Message:   "Failed to index recommendation bundle",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidInput:           "INVALID_INPUT",
	ErrCodeProfileNotFound:        "PROFILE_NOT_FOUND",
	ErrCodeProfileFetchFailed:     "PROFILE_FETCH_FAILED",
	ErrCodeCatalogFetchFailed:     "CATALOG_FETCH_FAILED",
	ErrCodeCatalogEmpty:           "CATALOG_EMPTY",
	ErrCodeDatabaseUnavailable:    "DATABASE_CONNECTION_FAILED",
	ErrCodeWeatherFeedUnavailable: "WEATHER_FEED_UNAVAILABLE",
	ErrCodeWeatherFeedTimeout:     "WEATHER_FEED_TIMEOUT",
	ErrCodeBundleIndexFailed:      "BUNDLE_INDEX_FAILED",
	ErrCodeNotificationSendFailed: "NOTIFICATION_SEND_FAILED",
}

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeProfileFetchFailed,
		ErrCodeCatalogFetchFailed,
		ErrCodeDatabaseUnavailable,
		ErrCodeWeatherFeedUnavailable,
		ErrCodeBundleIndexFailed,
		ErrCodeNotificationSendFailed:
		return 3 // Retryable technical errors

	case ErrCodeWeatherFeedTimeout:
		return 2 // Partial retry for timeouts

	default:
		return 0 // Contract violations: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code) // Fallback
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	case strings.Contains(codeStr, "PROFILE") || strings.Contains(codeStr, "CATALOG") || strings.Contains(codeStr, "DATABASE"):
		return "DATA_ACCESS"
	case strings.Contains(codeStr, "WEATHER"):
		return "WEATHER_FEED"
	case strings.Contains(codeStr, "NOTIFICATION") || strings.Contains(codeStr, "BUNDLE"):
		return "PUBLISHING"
	default:
		return "OTHER"
	}
}
