// Package middleware provides request/response middleware for the
// bridge's dispatch path.
//
// Middleware follows the standard pattern where each middleware wraps the
// next handler in the chain, allowing pre- and post-processing of requests.
//
// # Basic Usage
//
// Create and compose middleware:
//
//	chain := middleware.Chain(
//	    middleware.Recover(),
//	    middleware.RequestID(),
//	    middleware.Logging(logger),
//	)
//	handler := chain(baseHandler)
//
// # Available Middleware
//
// The package provides several built-in middleware:
//
//   - Recover: Catches panics and converts them to internal errors
//   - RequestID: Injects unique request IDs into the context
//   - Timeout: Enforces request deadlines
//   - Logging: Logs request details and timing
//   - RateLimit: Token-bucket limiting, globally or per key
//   - OTel: OpenTelemetry spans and metrics per request
//
// # Default Stacks
//
// Pre-configured middleware stacks are available for common use cases:
//
//	// Recover + RequestID + Logging
//	stack := middleware.DefaultStack(logger)
//
//	// Recover + RequestID + Timeout + Logging
//	stack := middleware.DefaultStackWithTimeout(logger, 30*time.Second)
//
// # Logging backends
//
// The Logger interface decouples middleware from the logging library.
// NewZapLogger adapts a zap.Logger; NopLogger discards everything.
// Loggers must write to stderr in stdio deployments, stdout belongs to
// the protocol.
package middleware
