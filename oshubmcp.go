// Package oshubmcp implements an MCP (Model Context Protocol) server
// for the Open Supply Hub facility directory.
//
// The server bridges a line-delimited JSON-RPC 2.0 message stream to
// the Open Supply Hub REST API. It exposes two tools, search_facilities
// and get_facility_details, plus a search prompt, and verifies upstream
// connectivity with a probe request during the initialize handshake.
//
// Basic usage:
//
//	client := oshub.NewClient(os.Getenv("OPEN_SUPPLY_HUB_API_KEY"))
//	srv := oshubmcp.New(client)
//
//	if err := oshubmcp.ServeStdio(ctx, srv); err != nil {
//	    log.Fatal(err)
//	}
//
// Diagnostics must never touch stdout: stdout carries protocol
// messages only.
package oshubmcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/opensupplyhub/os-hub-mcp/middleware"
	"github.com/opensupplyhub/os-hub-mcp/oshub"
	"github.com/opensupplyhub/os-hub-mcp/server"
	"github.com/opensupplyhub/os-hub-mcp/transport"
)

// Name and Version identify this server in the initialize result.
const (
	Name    = "os-hub-mcp"
	Version = "0.1.0"
)

// Re-export core types for convenience

// ServerInfo contains server metadata exposed to clients.
type ServerInfo = server.Info

// Capabilities declares what surfaces the server supports.
type Capabilities = server.Capabilities

// Server is the MCP server instance.
type Server = server.Server

// Option configures a Server.
type Option = server.Option

// Prompt types
type PromptResult = server.PromptResult
type PromptMessage = server.PromptMessage
type PromptArgument = server.PromptArgument
type TextContent = server.TextContent

// Middleware types
type Middleware = middleware.Middleware
type Logger = middleware.Logger
type LogField = middleware.Field

// RateLimit re-exports for convenience.
var (
	RateLimit            = middleware.RateLimit
	RateLimitByMethod    = middleware.RateLimitByMethod
	WithRateLimitKeyFunc = middleware.WithRateLimitKeyFunc
)

// NewZapLogger adapts a zap logger to the middleware Logger interface.
var NewZapLogger = middleware.NewZapLogger

// searchInput is the argument schema for the search_facilities tool.
type searchInput struct {
	Query string `json:"query" jsonschema:"required,description=Query string to search for facilities."`
}

// detailsInput is the argument schema for the get_facility_details tool.
type detailsInput struct {
	OSID string `json:"os_id" jsonschema:"required,description=The OS ID of the facility to look up."`
}

// New builds the Open Supply Hub MCP server: the facility search and
// detail tools, the search prompt, and an initialize-time liveness
// probe against the upstream API. Extra options are applied after the
// probe wiring so callers can still override it.
func New(api oshub.API, opts ...Option) *Server {
	options := append([]Option{server.WithProbe(api.Ping)}, opts...)

	srv := server.New(server.Info{
		Name:    Name,
		Version: Version,
		Capabilities: server.Capabilities{
			Tools:     true,
			Resources: false,
			Prompts:   true,
		},
	}, options...)

	registerTools(srv, api)
	registerPrompts(srv, api)
	return srv
}

func registerTools(srv *Server, api oshub.API) {
	srv.Tool("search_facilities").
		Description("Search for facilities by query in Open Supply Hub.").
		Handler(func(ctx context.Context, input searchInput) (string, error) {
			facilities, err := api.SearchFacilities(ctx, input.Query)
			if err != nil {
				return "", err
			}
			return searchReport(input.Query, facilities)
		})

	srv.Tool("get_facility_details").
		Description("Look up a single facility by its OS ID in Open Supply Hub.").
		Handler(func(ctx context.Context, input detailsInput) (string, error) {
			details, err := api.GetFacility(ctx, input.OSID)
			if errors.Is(err, oshub.ErrNotFound) {
				// Not found is user-visible content, not a protocol failure.
				return fmt.Sprintf("No facility found with OS ID %q.", input.OSID), nil
			}
			if err != nil {
				return "", err
			}
			return detailsReport(details)
		})
}

func registerPrompts(srv *Server, api oshub.API) {
	srv.Prompt("search_facilities").
		Description("Search facilities in Open Supply Hub").
		Argument("query", "Search query for facility name or other fields", true).
		Handler(func(ctx context.Context, args map[string]string) (*PromptResult, error) {
			query := args["query"]
			facilities, err := api.SearchFacilities(ctx, query)
			if err != nil {
				return nil, err
			}
			text, err := searchReport(query, facilities)
			if err != nil {
				return nil, err
			}
			return &PromptResult{
				Description: fmt.Sprintf("Facility search results for %q", query),
				Messages: []PromptMessage{
					{
						Role:    "user",
						Content: TextContent{Type: "text", Text: text},
					},
				},
			}, nil
		})
}

// searchReport serializes matched facilities as indented JSON for a
// single text content block. An empty result set becomes a plain
// sentence so callers see the outcome rather than "[]".
func searchReport(query string, facilities []oshub.Facility) (string, error) {
	if len(facilities) == 0 {
		return fmt.Sprintf("No facilities found for query %q.", query), nil
	}
	data, err := json.MarshalIndent(facilities, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serialize search results: %w", err)
	}
	return string(data), nil
}

func detailsReport(details *oshub.FacilityDetails) (string, error) {
	data, err := json.MarshalIndent(details, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serialize facility details: %w", err)
	}
	return string(data), nil
}

// ServeOption configures how the server is run.
type ServeOption func(*serveOptions)

type serveOptions struct {
	middleware []Middleware
	logger     Logger
}

// WithMiddleware adds middleware to the request handling chain.
func WithMiddleware(m ...Middleware) ServeOption {
	return func(o *serveOptions) {
		o.middleware = append(o.middleware, m...)
	}
}

// WithLogger installs the default middleware stack (Recover, RequestID,
// Logging) backed by l. It is ignored when WithMiddleware is also
// given; pass Logging(l) in the explicit chain instead.
func WithLogger(l Logger) ServeOption {
	return func(o *serveOptions) {
		o.logger = l
	}
}

// NewHandler builds the transport handler for srv: a fresh session plus
// the dispatch routing table, wrapped in any configured middleware.
// Transports serving multiple connections must build one handler per
// connection so session state stays isolated.
func NewHandler(srv *Server, opts ...ServeOption) transport.Handler {
	return newRequestHandler(srv, opts...)
}

// ServeStdio runs the server over stdin/stdout. It blocks until the
// input stream closes (nil), the context is canceled, or the transport
// fails.
func ServeStdio(ctx context.Context, srv *Server, opts ...ServeOption) error {
	t := transport.NewStdio()
	return t.Serve(ctx, newRequestHandler(srv, opts...))
}

// WebSocketOption configures the WebSocket transport.
type WebSocketOption = transport.WebSocketOption

// ServeWebSocket runs the server on a WebSocket listener. Every
// connection gets its own session; initialize gates each one
// independently.
func ServeWebSocket(ctx context.Context, srv *Server, addr string, opts ...WebSocketOption) error {
	return ServeWebSocketWithMiddleware(ctx, srv, addr, opts)
}

// ServeWebSocketWithMiddleware is ServeWebSocket with per-request
// middleware applied inside each connection's handler.
func ServeWebSocketWithMiddleware(ctx context.Context, srv *Server, addr string, wsOpts []WebSocketOption, serveOpts ...ServeOption) error {
	allOpts := append([]WebSocketOption{}, wsOpts...)
	allOpts = append(allOpts, transport.WithConnectionHandlers(func() transport.Handler {
		return newRequestHandler(srv, serveOpts...)
	}))

	t := transport.NewWebSocket(addr, allOpts...)
	return t.Serve(ctx, newRequestHandler(srv, serveOpts...))
}

// WithWebSocketReadTimeout sets the read timeout for WebSocket messages.
func WithWebSocketReadTimeout(d time.Duration) WebSocketOption {
	return transport.WithWebSocketReadTimeout(d)
}

// WithWebSocketWriteTimeout sets the write timeout for WebSocket messages.
func WithWebSocketWriteTimeout(d time.Duration) WebSocketOption {
	return transport.WithWebSocketWriteTimeout(d)
}

// Middleware re-exports

// Chain composes multiple middleware into a single middleware.
func Chain(middlewares ...Middleware) Middleware {
	return middleware.Chain(middlewares...)
}

// Recover returns middleware that catches panics and converts them to
// internal errors.
func Recover() Middleware {
	return middleware.Recover()
}

// Timeout returns middleware that enforces a request deadline.
func Timeout(d time.Duration) Middleware {
	return middleware.Timeout(d)
}

// RequestID returns middleware that injects a unique request ID into
// the context.
func RequestID() Middleware {
	return middleware.RequestID()
}

// Logging returns middleware that logs request details.
func Logging(logger Logger) Middleware {
	return middleware.Logging(logger)
}

// DefaultMiddleware returns the recommended production middleware stack.
func DefaultMiddleware(logger Logger) []Middleware {
	return middleware.DefaultStack(logger)
}

// DefaultMiddlewareWithTimeout returns the default stack with a timeout
// middleware.
func DefaultMiddlewareWithTimeout(logger Logger, timeout time.Duration) []Middleware {
	return middleware.DefaultStackWithTimeout(logger, timeout)
}

// LogF creates a new log field with the given key and value.
func LogF(key string, value any) LogField {
	return middleware.F(key, value)
}
