// Package errors defines the application error taxonomy and its central handler.
package errors

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

const (
	CodeValidation    = "E100"
	CodeStorage       = "E200"
	CodeExternalAPI   = "E300"
	CodeState         = "E400"
	CodeResolution    = "E410"
	CodeRateLimit     = "E500"
	CodeConfiguration = "E600"
)

const defaultUserMessage = "Something went wrong. Please try again later."

type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

// NewValidationError reports malformed user input.
func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:        CodeValidation,
		Message:     msg,
		UserMessage: "Sorry, I could not understand that. Please try again.",
		Severity:    SeverityLow,
	}
}

// NewStorageError reports a session store failure.
func NewStorageError(cause error) *AppError {
	return &AppError{
		Code:        CodeStorage,
		Message:     "session storage error",
		UserMessage: defaultUserMessage,
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

// NewExternalAPIError reports a failed call to a backend such as the commerce API.
func NewExternalAPIError(apiName string, cause error) *AppError {
	return &AppError{
		Code:        CodeExternalAPI,
		Message:     fmt.Sprintf("external API error: %s", apiName),
		UserMessage: "The shop is temporarily unavailable. Please try again later.",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

// NewStateError reports input that the current conversation state cannot accept.
func NewStateError(msg string) *AppError {
	return &AppError{
		Code:        CodeState,
		Message:     msg,
		UserMessage: "Please use the buttons below the last message.",
		Severity:    SeverityLow,
	}
}

// NewResolutionError reports an event whose conversation state could not be resolved.
func NewResolutionError(chatID int64, cause error) *AppError {
	return &AppError{
		Code:        CodeResolution,
		Message:     fmt.Sprintf("cannot resolve state for chat %d", chatID),
		UserMessage: "Please send /start to begin.",
		Severity:    SeverityMedium,
		cause:       cause,
	}
}

// NewConfigurationError reports an invalid or missing setting.
func NewConfigurationError(msg string, cause error) *AppError {
	return &AppError{
		Code:        CodeConfiguration,
		Message:     msg,
		UserMessage: defaultUserMessage,
		Severity:    SeverityCritical,
		cause:       cause,
	}
}

func NewRateLimitError(retryAfter int) *AppError {
	return &AppError{
		Code:        CodeRateLimit,
		Message:     fmt.Sprintf("rate limit exceeded: retry after %d seconds", retryAfter),
		UserMessage: fmt.Sprintf("Too many requests. Try again in %d seconds.", retryAfter),
		Severity:    SeverityLow,
	}
}
