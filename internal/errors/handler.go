package errors

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Proton-105/fish-shop-bot/pkg/logger"
	"github.com/Proton-105/fish-shop-bot/pkg/metrics"
)

// Handler logs application errors. High and critical errors are logged at
// error level, which is the only level the logger forwards to Sentry.
type Handler struct {
	log *slog.Logger
}

func NewHandler(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// Handle records err and returns the message suitable for the end user.
func (h *Handler) Handle(ctx context.Context, err error) (string, bool) {
	if err == nil {
		return "", false
	}

	if ctx == nil {
		ctx = context.Background()
	}

	log := h.log
	if log == nil {
		log = slog.Default()
	}

	attrs := make([]any, 0, 6)
	if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
		attrs = append(attrs, slog.String("correlation_id", correlationID))
	}

	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		attrs = append(attrs,
			slog.String("code", appErr.Code),
			slog.String("message", appErr.Error()),
			slog.String("severity", string(appErr.Severity)),
			slog.Bool("retryable", appErr.Retryable),
		)
		log.Log(ctx, levelFor(appErr.Severity), "application error", attrs...)
		metrics.RecordError(appErr.Code, string(appErr.Severity))

		userMessage := appErr.UserMessage
		if userMessage == "" {
			userMessage = defaultUserMessage
		}

		return userMessage, appErr.Retryable
	}

	attrs = append(attrs,
		slog.String("message", err.Error()),
		slog.String("severity", string(SeverityHigh)),
	)
	log.ErrorContext(ctx, "unknown error", attrs...)
	metrics.RecordError("unknown", string(SeverityHigh))

	return defaultUserMessage, false
}

// SeverityOf returns the severity of err, treating unknown errors as high.
func SeverityOf(err error) Severity {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		return appErr.Severity
	}
	return SeverityHigh
}

// CodeOf returns the application code of err or "unknown".
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		return appErr.Code
	}
	return "unknown"
}

func levelFor(severity Severity) slog.Level {
	switch severity {
	case SeverityHigh, SeverityCritical:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
