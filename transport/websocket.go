package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/opensupplyhub/os-hub-mcp/protocol"
)

// WebSocket implements the line protocol over WebSocket connections,
// one message per frame. Each connection is an independent session.
type WebSocket struct {
	addr     string
	upgrader websocket.Upgrader
	server   *http.Server
	errOut   io.Writer

	readTimeout  time.Duration
	writeTimeout time.Duration

	// newHandler, when set, builds a fresh handler per connection so
	// that session state is never shared between clients.
	newHandler func() Handler

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
}

// wsClient represents a single WebSocket connection.
type wsClient struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

// WebSocketOption configures a WebSocket transport.
type WebSocketOption func(*WebSocket)

// WithWebSocketReadTimeout sets the read timeout for WebSocket messages.
func WithWebSocketReadTimeout(d time.Duration) WebSocketOption {
	return func(ws *WebSocket) {
		ws.readTimeout = d
	}
}

// WithWebSocketWriteTimeout sets the write timeout for WebSocket messages.
func WithWebSocketWriteTimeout(d time.Duration) WebSocketOption {
	return func(ws *WebSocket) {
		ws.writeTimeout = d
	}
}

// WithWebSocketCheckOrigin sets the origin check function for WebSocket upgrades.
func WithWebSocketCheckOrigin(fn func(r *http.Request) bool) WebSocketOption {
	return func(ws *WebSocket) {
		ws.upgrader.CheckOrigin = fn
	}
}

// WithWebSocketErrorLog sets the diagnostics writer.
func WithWebSocketErrorLog(w io.Writer) WebSocketOption {
	return func(ws *WebSocket) {
		ws.errOut = w
	}
}

// WithConnectionHandlers builds a fresh handler for every accepted
// connection. Without it, all connections share the handler passed to
// Serve, including any session state it carries.
func WithConnectionHandlers(fn func() Handler) WebSocketOption {
	return func(ws *WebSocket) {
		ws.newHandler = fn
	}
}

// NewWebSocket creates a new WebSocket transport.
func NewWebSocket(addr string, opts ...WebSocketOption) *WebSocket {
	ws := &WebSocket{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // Allow all origins by default
		},
		errOut:       os.Stderr,
		readTimeout:  60 * time.Second,
		writeTimeout: 10 * time.Second,
		clients:      make(map[*wsClient]struct{}),
	}

	for _, opt := range opts {
		opt(ws)
	}

	return ws
}

// Addr returns the transport address.
func (ws *WebSocket) Addr() string {
	return ws.addr
}

// Serve starts the WebSocket server.
func (ws *WebSocket) Serve(ctx context.Context, handler Handler) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		h := handler
		if ws.newHandler != nil {
			h = ws.newHandler()
		}
		ws.handleConnection(ctx, w, r, h)
	})

	ws.server = &http.Server{
		Addr:         ws.addr,
		Handler:      mux,
		ReadTimeout:  ws.readTimeout,
		WriteTimeout: ws.writeTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := ws.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		ws.closeAllClients()
		return ws.server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

func (ws *WebSocket) handleConnection(ctx context.Context, w http.ResponseWriter, r *http.Request, handler Handler) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	client := &wsClient{id: uuid.NewString(), conn: conn}

	ws.mu.Lock()
	ws.clients[client] = struct{}{}
	ws.mu.Unlock()

	defer func() {
		ws.mu.Lock()
		delete(ws.clients, client)
		ws.mu.Unlock()
		_ = conn.Close()
	}()

	// Messages on one connection are handled strictly in order.
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if ws.readTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(ws.readTimeout))
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			// Expected close errors are normal (client disconnected)
			return
		}

		req, err := protocol.ParseRequest(message)
		if err != nil {
			var mcpErr *protocol.Error
			if !errors.As(err, &mcpErr) {
				mcpErr = protocol.NewInternalError(err.Error())
			}
			if id := protocol.ExtractID(message); id != nil {
				_ = client.writeJSON(protocol.NewErrorResponse(id, mcpErr))
			} else {
				fmt.Fprintf(ws.errOut, "os-hub-mcp: conn %s: dropped undecodable message: %v\n", client.id, mcpErr)
			}
			continue
		}

		resp, err := handler.HandleRequest(ctx, req)

		// For notifications, don't send response
		if req.IsNotification() {
			continue
		}

		if err != nil {
			var mcpErr *protocol.Error
			if errors.As(err, &mcpErr) {
				resp = protocol.NewErrorResponse(req.ID, mcpErr)
			} else {
				resp = protocol.NewErrorResponse(req.ID, protocol.NewInternalError(err.Error()))
			}
		}

		if resp != nil {
			_ = client.writeJSON(resp)
		}
	}
}

func (ws *WebSocket) closeAllClients() {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	for client := range ws.clients {
		client.close()
	}
}

func (c *wsClient) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *wsClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = c.conn.Close()
}
