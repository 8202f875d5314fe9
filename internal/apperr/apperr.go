// Package apperr defines the error taxonomy shared by the request pipeline
// and its mapping onto the HTTP surface.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeConfiguration     Code = "CONFIGURATION_ERROR"
	CodeGenerationService Code = "GENERATION_SERVICE_ERROR"
	CodeGenerationFormat  Code = "GENERATION_FORMAT_ERROR"
	CodeEmptyGeneration   Code = "EMPTY_GENERATION_ERROR"
	CodeUnsafeQuery       Code = "UNSAFE_QUERY_ERROR"
	CodeInvalidRequest    Code = "INVALID_REQUEST"
	CodeDatabase          Code = "DATABASE_ERROR"
	CodeConnection        Code = "CONNECTION_ERROR"
	CodeUnknown           Code = "UNKNOWN_ERROR"
)

// Error is a classified pipeline failure. SQL is set only for database
// failures and holds the statement that was attempted.
type Error struct {
	Code       Code
	Message    string
	SQL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Err.Error() != e.Message {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Detail renders the caller-facing message. When verbose is false the
// attempted SQL is left out of database failures.
func (e *Error) Detail(verbose bool) string {
	switch e.Code {
	case CodeDatabase:
		if verbose && e.SQL != "" {
			return fmt.Sprintf("Database error: %s. SQL: %s", e.Message, e.SQL)
		}
		return fmt.Sprintf("Database error: %s", e.Message)
	case CodeConnection:
		return fmt.Sprintf("Database connection error: %s. Please check DATABASE_URL.", e.Message)
	case CodeUnknown:
		return fmt.Sprintf("Error processing query: %s", e.Message)
	default:
		return e.Message
	}
}

func Configuration(message string) *Error {
	return &Error{Code: CodeConfiguration, Message: message}
}

// GenerationService reports a non-success answer from the generation
// backend. upstream is the backend's own error message or raw body.
func GenerationService(status int, upstream string) *Error {
	return &Error{
		Code:       CodeGenerationService,
		Message:    fmt.Sprintf("Generation API error (status %d): %s. Please check your GROQ_API_KEY.", status, upstream),
		StatusCode: status,
	}
}

func GenerationFormat(message string, err error) *Error {
	return &Error{Code: CodeGenerationFormat, Message: message, Err: err}
}

func EmptyGeneration() *Error {
	return &Error{Code: CodeEmptyGeneration, Message: "Generation API returned empty SQL query"}
}

func UnsafeQuery(reason string) *Error {
	return &Error{Code: CodeUnsafeQuery, Message: reason}
}

func InvalidRequest(message string) *Error {
	return &Error{Code: CodeInvalidRequest, Message: message}
}

func Database(err error, sqlText string) *Error {
	return &Error{Code: CodeDatabase, Message: err.Error(), SQL: sqlText, Err: err}
}

func Connection(err error) *Error {
	return &Error{Code: CodeConnection, Message: err.Error(), Err: err}
}

func Unknown(err error) *Error {
	return &Error{Code: CodeUnknown, Message: err.Error(), Err: err}
}

// From returns err as an *Error, classifying anything unrecognised as
// CodeUnknown.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}
	return Unknown(err)
}

func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	return From(err).Code
}

func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// HTTPStatus maps a failure onto the 400/500 split exposed to callers.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeUnsafeQuery, CodeInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
