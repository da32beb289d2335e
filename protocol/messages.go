package protocol

import "encoding/json"

// JSONRPCVersion is the JSON-RPC protocol version.
const JSONRPCVersion = "2.0"

// Request represents a JSON-RPC 2.0 request.
//
// The ID is kept as raw JSON so that the caller's identifier type
// (string or integer) survives the round trip untouched; callers
// correlate responses by identifier equality.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification returns true if this request has no ID (is a notification).
// Notifications are processed but never answered.
func (r *Request) IsNotification() bool {
	return len(r.ID) == 0
}

// ParseRequest decodes a single wire message into a Request.
//
// It fails with a parse error when the payload is not well-formed JSON,
// and with an invalid-request error when the version tag is wrong or the
// method is missing. The returned error is always a *Error.
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, NewParseError(err.Error())
	}
	if req.JSONRPC != JSONRPCVersion {
		return nil, NewInvalidRequest("unsupported jsonrpc version: " + req.JSONRPC)
	}
	if req.Method == "" {
		return nil, NewInvalidRequest("missing method")
	}
	return &req, nil
}

// ExtractID recovers the request identifier from a possibly malformed
// message so a decode failure can still be answered with the caller's ID.
// Returns nil when no identifier can be recovered.
func ExtractID(data []byte) json.RawMessage {
	var probe struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil
	}
	return probe.ID
}

// Response represents a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// NewResponse creates a successful response.
func NewResponse(id json.RawMessage, result any) *Response {
	return &Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Result:  result,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(id json.RawMessage, err *Error) *Response {
	return &Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error:   err,
	}
}
