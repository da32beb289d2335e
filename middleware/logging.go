package middleware

import (
	"context"
	"time"

	"github.com/opensupplyhub/os-hub-mcp/protocol"
)

// Logger is the interface for structured logging.
type Logger interface {
	Info(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Debug(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value any
}

// F creates a new Field with the given key and value.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Logging returns middleware that logs request details.
// Successful requests are logged at info level, errors at error level.
// Notifications that produce no response are logged at debug level.
func Logging(logger Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			start := time.Now()

			resp, err := next(ctx, req)

			duration := time.Since(start)

			fields := []Field{
				F("method", req.Method),
				F("duration", duration),
			}

			// The wire id correlates log lines with client messages.
			if req.ID != nil {
				fields = append(fields, F("rpc_id", string(req.ID)))
			}
			if requestID := RequestIDFromContext(ctx); requestID != "" {
				fields = append(fields, F("request_id", requestID))
			}

			switch {
			case err != nil:
				fields = append(fields, F("error", err.Error()))
				logger.Error("request failed", fields...)
			case resp == nil:
				logger.Debug("notification handled", fields...)
			default:
				logger.Info("request completed", fields...)
			}

			return resp, err
		}
	}
}

// NopLogger is a logger that discards all log entries.
type NopLogger struct{}

func (NopLogger) Info(msg string, fields ...Field)  {}
func (NopLogger) Error(msg string, fields ...Field) {}
func (NopLogger) Debug(msg string, fields ...Field) {}
func (NopLogger) Warn(msg string, fields ...Field)  {}
