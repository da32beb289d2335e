package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/opensupplyhub/os-hub-mcp/protocol"
)

// defaultMaxLineBytes bounds a single newline-delimited message.
const defaultMaxLineBytes = 1 << 20

// Stdio implements a newline-delimited JSON-RPC transport over
// stdin/stdout. Stdout carries protocol messages only; diagnostics go
// to stderr.
type Stdio struct {
	in      io.Reader
	out     io.Writer
	errOut  io.Writer
	maxLine int

	mu sync.Mutex
}

// StdioOption configures a Stdio transport.
type StdioOption func(*Stdio)

// WithStdin sets a custom stdin reader.
func WithStdin(r io.Reader) StdioOption {
	return func(s *Stdio) {
		s.in = r
	}
}

// WithStdout sets a custom stdout writer.
func WithStdout(w io.Writer) StdioOption {
	return func(s *Stdio) {
		s.out = w
	}
}

// WithStderr sets a custom stderr writer.
func WithStderr(w io.Writer) StdioOption {
	return func(s *Stdio) {
		s.errOut = w
	}
}

// WithMaxLineSize caps the size of a single incoming message in bytes.
func WithMaxLineSize(n int) StdioOption {
	return func(s *Stdio) {
		if n > 0 {
			s.maxLine = n
		}
	}
}

// NewStdio creates a new stdio transport.
func NewStdio(opts ...StdioOption) *Stdio {
	s := &Stdio{
		in:      os.Stdin,
		out:     os.Stdout,
		errOut:  os.Stderr,
		maxLine: defaultMaxLineBytes,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Addr returns the transport address.
func (s *Stdio) Addr() string {
	return "stdio"
}

// Serve reads one message per line from stdin and dispatches each to
// the handler before reading the next. It returns nil on clean EOF,
// ctx.Err() when the context is canceled, and a non-nil error when the
// input stream or the output writer fails.
func (s *Stdio) Serve(ctx context.Context, handler Handler) error {
	scanner := bufio.NewScanner(s.in)
	// Scanner takes the larger of max and cap(buf) as its limit.
	bufCap := 64 * 1024
	if s.maxLine < bufCap {
		bufCap = s.maxLine
	}
	scanner.Buffer(make([]byte, 0, bufCap), s.maxLine)

	// Channel for scanner results
	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			scanErr <- err
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				// Input closed. A pending scanner error means the
				// stream failed rather than ended.
				select {
				case err := <-scanErr:
					return fmt.Errorf("reading stdin: %w", err)
				default:
					return nil // EOF
				}
			}
			if err := s.handleLine(ctx, handler, line); err != nil {
				return err
			}
		}
	}
}

// handleLine decodes and dispatches a single message. The returned
// error is fatal to the transport; per-message failures are answered
// on stdout instead.
func (s *Stdio) handleLine(ctx context.Context, handler Handler, line string) error {
	if line == "" {
		return nil
	}

	req, err := protocol.ParseRequest([]byte(line))
	if err != nil {
		var mcpErr *protocol.Error
		if !errors.As(err, &mcpErr) {
			mcpErr = protocol.NewInternalError(err.Error())
		}
		// A malformed message can only be answered if an id survived.
		if id := protocol.ExtractID([]byte(line)); id != nil {
			return s.writeResponse(protocol.NewErrorResponse(id, mcpErr))
		}
		fmt.Fprintf(s.errOut, "os-hub-mcp: dropped undecodable message: %v\n", mcpErr)
		return nil
	}

	resp, err := handler.HandleRequest(ctx, req)

	// For notifications, don't send a response.
	if req.IsNotification() {
		if err != nil {
			fmt.Fprintf(s.errOut, "os-hub-mcp: notification %s failed: %v\n", req.Method, err)
		}
		return nil
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
		return s.writeResponse(resp)
	}
	return nil
}

// writeResponse writes a single newline-terminated response. Write
// failures are fatal: a bridge that cannot answer cannot keep reading.
func (s *Stdio) writeResponse(resp *protocol.Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		fmt.Fprintf(s.errOut, "os-hub-mcp: dropped unencodable response: %v\n", err)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.out.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing stdout: %w", err)
	}
	return nil
}
