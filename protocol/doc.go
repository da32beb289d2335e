// Package protocol defines the JSON-RPC 2.0 message types, MCP method
// names, and error codes used on the wire.
//
// # Request and Response Types
//
// Request and Response carry the identifier as raw JSON so the caller's
// chosen type (string or integer) is preserved byte for byte:
//
//	type Request struct {
//	    JSONRPC string          `json:"jsonrpc"`
//	    ID      json.RawMessage `json:"id,omitempty"`
//	    Method  string          `json:"method"`
//	    Params  json.RawMessage `json:"params,omitempty"`
//	}
//
// ParseRequest performs the structural checks the dispatch loop relies
// on: well-formed JSON, the "2.0" version tag, and a method name. A
// request without an ID is a notification and is never answered.
//
// # Error Codes
//
// Standard JSON-RPC 2.0 codes plus the server-space codes this bridge
// uses:
//
//	CodeParseError     = -32700 // invalid JSON
//	CodeInvalidRequest = -32600 // malformed request envelope
//	CodeMethodNotFound = -32601 // unsupported method
//	CodeInvalidParams  = -32602 // invalid method parameters
//	CodeInternalError  = -32603 // tool dispatch failures
//	CodeNotFound       = -32001 // unknown prompt
//	CodeNotInitialized = -32002 // gated method before initialize
//	CodeRateLimited    = -32003 // request rate exceeded
//
// Helper constructors create properly coded errors:
//
//	err := protocol.NewMethodNotFound("unknown/method")
//	err := protocol.NewNotInitialized("server not initialized")
package protocol
