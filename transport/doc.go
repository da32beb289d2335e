// Package transport provides the message-stream transports the bridge
// serves on.
//
// # Stdio Transport
//
// The stdio transport reads one JSON-RPC message per line from stdin
// and writes one response per line to stdout. Stdout carries protocol
// messages only; diagnostics go to stderr. The transport returns nil
// on clean EOF and a non-nil error when the stream itself fails:
//
//	t := transport.NewStdio()
//	err := t.Serve(ctx, handler)
//
// Messages are dispatched strictly one at a time, in arrival order.
// An undecodable line is answered with a parse error when an id can be
// recovered from it, and dropped with a stderr diagnostic otherwise.
//
// # WebSocket Transport
//
// The WebSocket transport carries the same protocol, one message per
// frame, and treats every connection as an independent session:
//
//	t := transport.NewWebSocket(":8080",
//	    transport.WithConnectionHandlers(newHandler),
//	)
//	err := t.Serve(ctx, nil)
//
// # Handler Interface
//
// All transports expect a Handler that processes requests:
//
//	type Handler interface {
//	    HandleRequest(ctx context.Context, req *protocol.Request) (*protocol.Response, error)
//	}
//
// # Usage with oshubmcp Package
//
// Most users should use the root package's convenience functions:
//
//	oshubmcp.ServeStdio(ctx, srv)
//	oshubmcp.ServeWebSocket(ctx, srv, ":8080")
package transport
