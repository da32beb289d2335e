package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/opensupplyhub/os-hub-mcp/protocol"
)

// mockLogger captures log calls for testing.
type mockLogger struct {
	entries []logEntry
}

type logEntry struct {
	level   string
	message string
	fields  []Field
}

func (l *mockLogger) Info(msg string, fields ...Field) {
	l.entries = append(l.entries, logEntry{level: "info", message: msg, fields: fields})
}

func (l *mockLogger) Error(msg string, fields ...Field) {
	l.entries = append(l.entries, logEntry{level: "error", message: msg, fields: fields})
}

func (l *mockLogger) Debug(msg string, fields ...Field) {
	l.entries = append(l.entries, logEntry{level: "debug", message: msg, fields: fields})
}

func (l *mockLogger) Warn(msg string, fields ...Field) {
	l.entries = append(l.entries, logEntry{level: "warn", message: msg, fields: fields})
}

func (l *mockLogger) field(key string) (any, bool) {
	for _, e := range l.entries {
		for _, f := range e.fields {
			if f.Key == key {
				return f.Value, true
			}
		}
	}
	return nil, false
}

func TestLogging(t *testing.T) {
	t.Run("logs successful requests", func(t *testing.T) {
		logger := &mockLogger{}

		handler := HandlerFunc(func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			return protocol.NewResponse(req.ID, "ok"), nil
		})

		wrapped := Logging(logger)(handler)
		_, _ = wrapped(context.Background(), &protocol.Request{ID: json.RawMessage(`7`), Method: "tools/list"})

		if len(logger.entries) != 1 {
			t.Fatalf("expected 1 log entry, got %d", len(logger.entries))
		}

		entry := logger.entries[0]
		if entry.level != "info" {
			t.Errorf("level = %q, want %q", entry.level, "info")
		}
		if entry.message != "request completed" {
			t.Errorf("message = %q, want %q", entry.message, "request completed")
		}

		if v, ok := logger.field("method"); !ok || v != "tools/list" {
			t.Errorf("method field = %v, want tools/list", v)
		}
		if v, ok := logger.field("duration"); !ok {
			t.Error("expected 'duration' field in log")
		} else if _, isDuration := v.(time.Duration); !isDuration {
			t.Errorf("duration field type = %T, want time.Duration", v)
		}
		if v, ok := logger.field("rpc_id"); !ok || v != "7" {
			t.Errorf("rpc_id field = %v, want 7", v)
		}
	})

	t.Run("logs errors at error level", func(t *testing.T) {
		logger := &mockLogger{}
		expectedErr := errors.New("handler failed")

		handler := HandlerFunc(func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			return nil, expectedErr
		})

		wrapped := Logging(logger)(handler)
		_, _ = wrapped(context.Background(), &protocol.Request{ID: json.RawMessage(`1`), Method: "tools/call"})

		if len(logger.entries) != 1 {
			t.Fatalf("expected 1 log entry, got %d", len(logger.entries))
		}

		entry := logger.entries[0]
		if entry.level != "error" {
			t.Errorf("level = %q, want %q", entry.level, "error")
		}

		if _, ok := logger.field("error"); !ok {
			t.Error("expected 'error' field in log")
		}
	})

	t.Run("logs notifications at debug level", func(t *testing.T) {
		logger := &mockLogger{}

		handler := HandlerFunc(func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			return nil, nil
		})

		wrapped := Logging(logger)(handler)
		_, _ = wrapped(context.Background(), &protocol.Request{Method: "notifications/initialized"})

		if len(logger.entries) != 1 {
			t.Fatalf("expected 1 log entry, got %d", len(logger.entries))
		}
		if logger.entries[0].level != "debug" {
			t.Errorf("level = %q, want %q", logger.entries[0].level, "debug")
		}
		if _, ok := logger.field("rpc_id"); ok {
			t.Error("notifications have no rpc_id field")
		}
	})

	t.Run("includes request ID if present", func(t *testing.T) {
		logger := &mockLogger{}

		handler := HandlerFunc(func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			return protocol.NewResponse(req.ID, "ok"), nil
		})

		ctx := ContextWithRequestID(context.Background(), "test-request-123")
		wrapped := Logging(logger)(handler)
		_, _ = wrapped(ctx, &protocol.Request{ID: json.RawMessage(`1`), Method: "ping"})

		if len(logger.entries) != 1 {
			t.Fatalf("expected 1 log entry, got %d", len(logger.entries))
		}

		if v, ok := logger.field("request_id"); !ok || v != "test-request-123" {
			t.Errorf("request_id field = %v, want test-request-123", v)
		}
	})
}

func TestField(t *testing.T) {
	t.Run("creates field with key and value", func(t *testing.T) {
		f := F("key", "value")
		if f.Key != "key" {
			t.Errorf("Key = %q, want %q", f.Key, "key")
		}
		if f.Value != "value" {
			t.Errorf("Value = %v, want %q", f.Value, "value")
		}
	})
}
