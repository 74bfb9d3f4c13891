// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies failures of the search/detail/recap flow.
type ErrorType string

const (
	ErrorTypeEmptyQuery     ErrorType = "empty_query"
	ErrorTypeValidation     ErrorType = "validation_error"
	ErrorTypeNotFound       ErrorType = "not_found"
	ErrorTypeSearch         ErrorType = "search_error"
	ErrorTypeDetail         ErrorType = "detail_error"
	ErrorTypeRecapNoContent ErrorType = "recap_no_content"
	ErrorTypeRecapTransport ErrorType = "recap_transport"
	ErrorTypeRateLimited    ErrorType = "rate_limited"
)

// User-visible messages shared by the services and the page.
const (
	MsgEmptyQuery     = "Please enter a TV series name."
	MsgRecapNoContent = "Failed to generate recap: No content from AI."
)

// AppError 应用程序错误结构
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
	Code    string // 用户友好的错误代码
}

// Error returns the message, followed by the wrapped cause when present.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError 创建新的 AppError
func NewAppError(errType ErrorType, message string, originalError error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     originalError,
		Code:    generateErrorCode(errType),
	}
}

// NewEmptyQueryError is returned before any network call when the query is blank.
func NewEmptyQueryError() *AppError {
	return NewAppError(ErrorTypeEmptyQuery, MsgEmptyQuery, nil)
}

func NewValidationError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeValidation, message, originalError)
}

func NewNotFoundError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeNotFound, message, originalError)
}

// NewSearchError wraps a failed search. originalError is nil when the
// provider answered and reported the failure itself.
func NewSearchError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeSearch, message, originalError)
}

// NewDetailError wraps a failed detail lookup, same convention as NewSearchError.
func NewDetailError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeDetail, message, originalError)
}

func NewRecapNoContentError() *AppError {
	return NewAppError(ErrorTypeRecapNoContent, MsgRecapNoContent, nil)
}

func NewRecapTransportError(originalError error) *AppError {
	return NewAppError(ErrorTypeRecapTransport, "Failed to generate recap", originalError)
}

func NewRateLimitedError(message string) *AppError {
	return NewAppError(ErrorTypeRateLimited, message, nil)
}

// TypeOf returns the ErrorType of err, or "" when err is not an AppError.
func TypeOf(err error) ErrorType {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Type
	}
	return ""
}

func IsEmptyQueryError(err error) bool {
	return TypeOf(err) == ErrorTypeEmptyQuery
}

func IsValidationError(err error) bool {
	return TypeOf(err) == ErrorTypeValidation
}

func IsNotFoundError(err error) bool {
	return TypeOf(err) == ErrorTypeNotFound
}

func IsSearchError(err error) bool {
	return TypeOf(err) == ErrorTypeSearch
}

func IsDetailError(err error) bool {
	return TypeOf(err) == ErrorTypeDetail
}

func IsRecapNoContentError(err error) bool {
	return TypeOf(err) == ErrorTypeRecapNoContent
}

func IsRecapTransportError(err error) bool {
	return TypeOf(err) == ErrorTypeRecapTransport
}

// IsTransport reports whether err carries an underlying transport cause,
// as opposed to a failure the provider reported in its payload.
func IsTransport(err error) bool {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Err != nil
	}
	return err != nil
}

// generateErrorCode 根据错误类型生成错误代码
func generateErrorCode(errType ErrorType) string {
	switch errType {
	case ErrorTypeEmptyQuery:
		return "EMPTY_QUERY"
	case ErrorTypeValidation:
		return "VALIDATION_ERROR"
	case ErrorTypeNotFound:
		return "NOT_FOUND"
	case ErrorTypeSearch:
		return "SEARCH_FAILED"
	case ErrorTypeDetail:
		return "DETAIL_FAILED"
	case ErrorTypeRecapNoContent:
		return "RECAP_NO_CONTENT"
	case ErrorTypeRecapTransport:
		return "RECAP_TRANSPORT"
	case ErrorTypeRateLimited:
		return "RATE_LIMIT_EXCEEDED"
	default:
		return "UNKNOWN_ERROR"
	}
}

// WrapError 包装现有错误
func WrapError(err error, message string, errType ErrorType) error {
	if err == nil {
		return nil
	}

	var appError *AppError
	if errors.As(err, &appError) {
		return &AppError{
			Type:    appError.Type,
			Message: fmt.Sprintf("%s: %s", message, appError.Message),
			Err:     appError.Err,
			Code:    appError.Code,
		}
	}

	return NewAppError(errType, message, err)
}
