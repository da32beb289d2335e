// Package testutil provides testing utilities for the facility bridge.
//
// Tests drive the real request routing through an in-memory TestClient
// and script the upstream with a FakeAPI:
//
//	func TestSearch(t *testing.T) {
//	    api := &testutil.FakeAPI{
//	        SearchFunc: func(ctx context.Context, query string) ([]oshub.Facility, error) {
//	            return []oshub.Facility{{OSID: "BD2021250D1DTN7", Name: "Acme"}}, nil
//	        },
//	    }
//	    tc := testutil.NewTestClient(t, oshubmcp.New(api))
//	    defer tc.Close()
//
//	    text, err := tc.CallTool("search_facilities", map[string]any{"query": "acme"})
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    if !strings.Contains(text, "BD2021250D1DTN7") {
//	        t.Errorf("unexpected result: %q", text)
//	    }
//	}
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	oshubmcp "github.com/opensupplyhub/os-hub-mcp"
	"github.com/opensupplyhub/os-hub-mcp/oshub"
	"github.com/opensupplyhub/os-hub-mcp/protocol"
	"github.com/opensupplyhub/os-hub-mcp/server"
	"github.com/opensupplyhub/os-hub-mcp/transport"
)

// TestClient exercises a bridge server in memory through the same
// request routing the stdio and WebSocket transports use.
type TestClient struct {
	t       testing.TB
	srv     *oshubmcp.Server
	handler transport.Handler
	reqID   int64
	mu      sync.Mutex
}

// NewTestClient creates a test client for the given server and runs the
// initialize handshake. The server's upstream probe must succeed, so
// pass a FakeAPI (or another scripted oshub.API) when building srv.
func NewTestClient(t testing.TB, srv *oshubmcp.Server) *TestClient {
	t.Helper()

	tc := &TestClient{
		t:       t,
		srv:     srv,
		handler: oshubmcp.NewHandler(srv),
	}

	if _, err := tc.Initialize(); err != nil {
		t.Fatalf("failed to initialize server: %v", err)
	}

	return tc
}

// NewTestClientWithHandler creates a test client over a custom handler.
// This is useful for testing middleware or uninitialized sessions; no
// initialize handshake is performed.
func NewTestClientWithHandler(t testing.TB, handler transport.Handler) *TestClient {
	t.Helper()
	return &TestClient{
		t:       t,
		handler: handler,
	}
}

// Close closes the test client (no-op for now, but good for future cleanup).
func (tc *TestClient) Close() {
	// No cleanup needed for in-memory client
}

// nextID returns the next request ID.
func (tc *TestClient) nextID() json.RawMessage {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.reqID++
	return json.RawMessage(fmt.Sprintf("%d", tc.reqID))
}

// SendRequest sends a raw request and returns the response.
func (tc *TestClient) SendRequest(method string, params any) (*protocol.Response, error) {
	tc.t.Helper()

	var paramsData json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal params: %w", err)
		}
		paramsData = data
	}

	req := &protocol.Request{
		JSONRPC: protocol.JSONRPCVersion,
		ID:      tc.nextID(),
		Method:  method,
		Params:  paramsData,
	}

	return tc.handler.HandleRequest(context.Background(), req)
}

// Initialize sends an initialize request and returns the manifest.
func (tc *TestClient) Initialize() (server.Manifest, error) {
	tc.t.Helper()

	resp, err := tc.SendRequest(protocol.MethodInitialize, map[string]any{
		"protocolVersion": protocol.MCPVersion,
		"clientInfo": map[string]any{
			"name":    "test-client",
			"version": "1.0.0",
		},
	})
	if err != nil {
		return server.Manifest{}, err
	}

	manifest, ok := resp.Result.(server.Manifest)
	if !ok {
		return server.Manifest{}, fmt.Errorf("unexpected result type: %T", resp.Result)
	}

	return manifest, nil
}

// ListTools lists all available tools.
func (tc *TestClient) ListTools() ([]map[string]any, error) {
	tc.t.Helper()

	resp, err := tc.SendRequest(protocol.MethodToolsList, nil)
	if err != nil {
		return nil, err
	}

	result, ok := resp.Result.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected result type: %T", resp.Result)
	}

	// Handle both []any (from JSON) and []map[string]any (from direct call)
	var toolMaps []map[string]any
	switch v := result["tools"].(type) {
	case []any:
		toolMaps = make([]map[string]any, len(v))
		for i, t := range v {
			toolMaps[i], _ = t.(map[string]any)
		}
	case []map[string]any:
		toolMaps = v
	default:
		return nil, fmt.Errorf("unexpected tools type: %T", result["tools"])
	}

	return toolMaps, nil
}

// CallTool calls a tool with the given arguments and returns the text result.
func (tc *TestClient) CallTool(name string, args any) (string, error) {
	tc.t.Helper()

	resp, err := tc.CallToolRaw(name, args)
	if err != nil {
		return "", err
	}

	result, ok := resp.Result.(map[string]any)
	if !ok {
		return "", fmt.Errorf("unexpected result type: %T", resp.Result)
	}

	// Handle both []any (from JSON) and []map[string]any (from direct call)
	var first map[string]any
	switch v := result["content"].(type) {
	case []any:
		if len(v) == 0 {
			return "", fmt.Errorf("empty content array")
		}
		first, _ = v[0].(map[string]any)
	case []map[string]any:
		if len(v) == 0 {
			return "", fmt.Errorf("empty content array")
		}
		first = v[0]
	default:
		return "", fmt.Errorf("unexpected content type: %T", result["content"])
	}

	if first == nil {
		return "", fmt.Errorf("nil content item")
	}

	text, _ := first["text"].(string)
	return text, nil
}

// CallToolRaw calls a tool and returns the raw response.
func (tc *TestClient) CallToolRaw(name string, args any) (*protocol.Response, error) {
	tc.t.Helper()

	return tc.SendRequest(protocol.MethodToolsCall, map[string]any{
		"name":      name,
		"arguments": args,
	})
}

// ListPrompts lists all available prompts.
func (tc *TestClient) ListPrompts() ([]map[string]any, error) {
	tc.t.Helper()

	resp, err := tc.SendRequest(protocol.MethodPromptsList, nil)
	if err != nil {
		return nil, err
	}

	result, ok := resp.Result.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected result type: %T", resp.Result)
	}

	// Handle both []any (from JSON) and []map[string]any (from direct call)
	var promptMaps []map[string]any
	switch v := result["prompts"].(type) {
	case []any:
		promptMaps = make([]map[string]any, len(v))
		for i, p := range v {
			promptMaps[i], _ = p.(map[string]any)
		}
	case []map[string]any:
		promptMaps = v
	default:
		return nil, fmt.Errorf("unexpected prompts type: %T", result["prompts"])
	}

	return promptMaps, nil
}

// GetPrompt gets a prompt by name with the given arguments.
func (tc *TestClient) GetPrompt(name string, args map[string]string) (map[string]any, error) {
	tc.t.Helper()

	resp, err := tc.SendRequest(protocol.MethodPromptsGet, map[string]any{
		"name":      name,
		"arguments": args,
	})
	if err != nil {
		return nil, err
	}

	result, ok := resp.Result.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected result type: %T", resp.Result)
	}

	return result, nil
}

// Ping sends a ping request.
func (tc *TestClient) Ping() error {
	tc.t.Helper()

	_, err := tc.SendRequest(protocol.MethodPing, nil)
	return err
}

// AssertToolExists asserts that a tool with the given name exists.
func (tc *TestClient) AssertToolExists(name string) {
	tc.t.Helper()

	tools, err := tc.ListTools()
	if err != nil {
		tc.t.Fatalf("ListTools failed: %v", err)
	}

	for _, tool := range tools {
		if tool["name"] == name {
			return
		}
	}
	tc.t.Errorf("tool %q not found", name)
}

// AssertPromptExists asserts that a prompt with the given name exists.
func (tc *TestClient) AssertPromptExists(name string) {
	tc.t.Helper()

	prompts, err := tc.ListPrompts()
	if err != nil {
		tc.t.Fatalf("ListPrompts failed: %v", err)
	}

	for _, prompt := range prompts {
		if prompt["name"] == name {
			return
		}
	}
	tc.t.Errorf("prompt %q not found", name)
}

// FakeAPI is a scripted oshub.API for tests. Unset functions fall back
// to benign defaults: searches return no results, lookups report
// oshub.ErrNotFound, and pings succeed. Every call is recorded for
// assertions.
type FakeAPI struct {
	SearchFunc func(ctx context.Context, query string) ([]oshub.Facility, error)
	GetFunc    func(ctx context.Context, osID string) (*oshub.FacilityDetails, error)
	PingFunc   func(ctx context.Context) error

	mu       sync.Mutex
	searches []string
	gets     []string
	pings    int
}

// SearchFacilities records the query and delegates to SearchFunc.
func (f *FakeAPI) SearchFacilities(ctx context.Context, query string) ([]oshub.Facility, error) {
	f.mu.Lock()
	f.searches = append(f.searches, query)
	f.mu.Unlock()

	if f.SearchFunc == nil {
		return nil, nil
	}
	return f.SearchFunc(ctx, query)
}

// GetFacility records the OS ID and delegates to GetFunc.
func (f *FakeAPI) GetFacility(ctx context.Context, osID string) (*oshub.FacilityDetails, error) {
	f.mu.Lock()
	f.gets = append(f.gets, osID)
	f.mu.Unlock()

	if f.GetFunc == nil {
		return nil, oshub.ErrNotFound
	}
	return f.GetFunc(ctx, osID)
}

// Ping records the probe and delegates to PingFunc.
func (f *FakeAPI) Ping(ctx context.Context) error {
	f.mu.Lock()
	f.pings++
	f.mu.Unlock()

	if f.PingFunc == nil {
		return nil
	}
	return f.PingFunc(ctx)
}

// Searches returns the queries passed to SearchFacilities so far.
func (f *FakeAPI) Searches() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.searches...)
}

// Gets returns the OS IDs passed to GetFacility so far.
func (f *FakeAPI) Gets() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.gets...)
}

// Pings returns how many times the upstream was probed.
func (f *FakeAPI) Pings() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pings
}
