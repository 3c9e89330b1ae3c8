// Package errors provides the structured error type shared by the loaders,
// the session boundary, the HTTP transport and the job worker.
package errors

import (
	stderrors "errors"
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
	// Load-time record errors. The offending record is dropped.
	ErrCodeInvalidCoordinate ErrorCode = "INVALID_COORDINATE"
	ErrCodeInvalidRecord     ErrorCode = "INVALID_RECORD"
	ErrCodeDuplicateVenue    ErrorCode = "DUPLICATE_VENUE"

	// Reported outcomes of the finder core, never raised by it.
	ErrCodeStaleSelectionReference ErrorCode = "STALE_SELECTION_REFERENCE"
	ErrCodeEmptyFilteredSet        ErrorCode = "EMPTY_FILTERED_SET"

	// Boundary errors.
	ErrCodeInvalidFilterFormat   ErrorCode = "INVALID_FILTER_FORMAT"
	ErrCodeInvalidEvent          ErrorCode = "INVALID_EVENT"
	ErrCodeSessionNotFound       ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeSessionLimitReached   ErrorCode = "SESSION_LIMIT_REACHED"
	ErrCodeDataSourceUnavailable ErrorCode = "DATA_SOURCE_UNAVAILABLE"
	ErrCodeDataSourceTimeout     ErrorCode = "DATA_SOURCE_TIMEOUT"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata returns e after merging the given key/value pairs.
func (e *StandardError) WithMetadata(kv map[string]interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{}, len(kv))
	}
	for k, v := range kv {
		e.Metadata[k] = v
	}
	return e
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
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidCoordinateError reports a malformed "lat,lon" value on a record.
func NewInvalidCoordinateError(venueID, raw string, cause error) *StandardError {
	details := fmt.Sprintf("venue: %q, location: %q", venueID, raw)
	if cause != nil {
		details += ", error: " + cause.Error()
	}
	e := newError(ErrCodeInvalidCoordinate, "Invalid venue coordinate", details, false)
	e.cause = cause
	return e.WithMetadata(map[string]interface{}{"venueId": venueID, "location": raw})
}

// NewInvalidRecordError reports a record missing a required field or
// carrying an unparsable value.
func NewInvalidRecordError(venueID, field, details string) *StandardError {
	return newError(ErrCodeInvalidRecord, "Invalid venue record",
		fmt.Sprintf("venue: %q, field: %s, %s", venueID, field, details), false).
		WithMetadata(map[string]interface{}{"venueId": venueID, "field": field})
}

// NewDuplicateVenueError reports a second record sharing an id.
func NewDuplicateVenueError(venueID string) *StandardError {
	return newError(ErrCodeDuplicateVenue, "Duplicate venue identity",
		fmt.Sprintf("venue: %q", venueID), false).
		WithMetadata(map[string]interface{}{"venueId": venueID})
}

// NewStaleSelectionReferenceError describes an event that referenced a
// position outside the current filtered set.
func NewStaleSelectionReferenceError(surface string, index, size int) *StandardError {
	return newError(ErrCodeStaleSelectionReference, "Selection reference no longer resolvable",
		fmt.Sprintf("surface: %s, index: %d, filteredSize: %d", surface, index, size), false)
}

// NewEmptyFilteredSetError describes criteria that exclude every venue.
func NewEmptyFilteredSetError(criteria string) *StandardError {
	return newError(ErrCodeEmptyFilteredSet, "No venues match the criteria", criteria, false)
}

// NewInvalidFilterFormatError creates a non-retryable filter format error.
func NewInvalidFilterFormatError(details string) *StandardError {
	return newError(ErrCodeInvalidFilterFormat, "Invalid filter format", details, false)
}

// NewInvalidEventError reports an interaction event payload that is not one
// of the known event kinds.
func NewInvalidEventError(details string) *StandardError {
	return newError(ErrCodeInvalidEvent, "Invalid interaction event", details, false)
}

// NewSessionNotFoundError reports an unknown or expired session id.
func NewSessionNotFoundError(sessionID string) *StandardError {
	return newError(ErrCodeSessionNotFound, "Session not found",
		fmt.Sprintf("sessionId: %s", sessionID), false)
}

// NewSessionLimitReachedError reports that the registry is full.
func NewSessionLimitReachedError(limit int) *StandardError {
	return newError(ErrCodeSessionLimitReached, "Session limit reached",
		fmt.Sprintf("maxSessions: %d", limit), true)
}

// NewDataSourceUnavailableError creates a retryable data source error.
func NewDataSourceUnavailableError(source string, err error) *StandardError {
	e := newError(ErrCodeDataSourceUnavailable, "Venue data source unavailable",
		fmt.Sprintf("source: %s, error: %v", source, err), true)
	e.cause = err
	return e
}

// NewDataSourceTimeoutError creates a retryable data source timeout error.
func NewDataSourceTimeoutError(source string, err error) *StandardError {
	e := newError(ErrCodeDataSourceTimeout, "Venue data source timeout",
		fmt.Sprintf("source: %s", source), true)
	e.cause = err
	return e
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDataSourceUnavailable:
		return 3
	case ErrCodeDataSourceTimeout:
		return 2
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
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

// CodeOf returns the code of the first StandardError in err's chain, or ""
// when there is none.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "COORDINATE") || strings.Contains(codeStr, "RECORD") || strings.Contains(codeStr, "DUPLICATE"):
		return "LOAD"
	case strings.Contains(codeStr, "SELECTION") || strings.Contains(codeStr, "FILTERED_SET"):
		return "FINDER"
	case strings.Contains(codeStr, "DATA_SOURCE"):
		return "DATA_SOURCE"
	case strings.Contains(codeStr, "SESSION"):
		return "SESSION"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
