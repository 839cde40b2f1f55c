package logger

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// FIELD_REQUEST_ID is the log field for http request ids
const FIELD_REQUEST_ID = "request_id"

type contextKey string

const requestIDKey contextKey = "logger_request_id"

// New returns a production json logger, or a console one, at level (debug, info, warn, error)
func New(jsonOutput bool, level string) (*zap.SugaredLogger, error) {
	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", level)
	}

	config := zap.NewDevelopmentConfig()
	if jsonOutput {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "time"
	}

	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create logger")
	}

	return logger.Sugar(), nil
}

// WithRequestID adds a request id to the context for logging
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID returns the request id of the context, if any
func RequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(requestIDKey).(string)
	return requestID, ok && requestID != ""
}

// FromContext returns parent with the request id of ctx, if any
func FromContext(ctx context.Context, parent *zap.SugaredLogger) *zap.SugaredLogger {
	if requestID, found := RequestID(ctx); found {
		return parent.With(FIELD_REQUEST_ID, requestID)
	}

	return parent
}
