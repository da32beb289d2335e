package oshubmcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/opensupplyhub/os-hub-mcp/middleware"
	"github.com/opensupplyhub/os-hub-mcp/protocol"
	"github.com/opensupplyhub/os-hub-mcp/server"
)

// requestHandler is the dispatch loop's routing table. It owns one
// session; transports build one handler per connection, so session
// state is never shared between clients.
type requestHandler struct {
	srv        *server.Server
	session    *server.Session
	handleFunc middleware.HandlerFunc
}

func newRequestHandler(srv *server.Server, opts ...ServeOption) *requestHandler {
	options := &serveOptions{}
	for _, opt := range opts {
		opt(options)
	}

	h := &requestHandler{
		srv:     srv,
		session: srv.NewSession(),
	}

	base := middleware.HandlerFunc(h.handle)

	mws := options.middleware
	if len(mws) == 0 && options.logger != nil {
		mws = middleware.DefaultStack(options.logger)
	}
	if len(mws) > 0 {
		h.handleFunc = middleware.Chain(mws...)(base)
	} else {
		h.handleFunc = base
	}

	return h
}

func (h *requestHandler) HandleRequest(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	return h.handleFunc(ctx, req)
}

// handle routes one request. tools/call and prompts/get require a
// completed initialize; discovery and ping do not.
func (h *requestHandler) handle(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	switch req.Method {
	case protocol.MethodInitialize:
		return h.handleInitialize(ctx, req)
	case protocol.MethodInitialized:
		// Client acknowledgment, nothing to answer.
		return nil, nil
	case protocol.MethodToolsList:
		return h.handleToolsList(req)
	case protocol.MethodToolsCall:
		if err := h.session.RequireInitialized(); err != nil {
			return nil, err
		}
		return h.handleToolsCall(ctx, req)
	case protocol.MethodPromptsList:
		return h.handlePromptsList(req)
	case protocol.MethodPromptsGet:
		if err := h.session.RequireInitialized(); err != nil {
			return nil, err
		}
		return h.handlePromptsGet(ctx, req)
	case protocol.MethodPing:
		return protocol.NewResponse(req.ID, map[string]any{}), nil
	default:
		return nil, protocol.NewMethodNotFound(req.Method)
	}
}

// handleInitialize probes the upstream before marking the session
// initialized. A failed probe fails the request and leaves the session
// state untouched.
func (h *requestHandler) handleInitialize(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	if err := h.session.Initialize(ctx); err != nil {
		var mcpErr *protocol.Error
		if errors.As(err, &mcpErr) {
			return nil, mcpErr
		}
		return nil, protocol.NewInternalError(err.Error())
	}

	return protocol.NewResponse(req.ID, h.srv.Manifest()), nil
}

func (h *requestHandler) handleToolsList(req *protocol.Request) (*protocol.Response, error) {
	tools := h.srv.Tools()

	toolList := make([]map[string]any, 0, len(tools))
	for _, t := range tools {
		toolList = append(toolList, map[string]any{
			"name":        t.Name,
			"description": t.Description,
			"inputSchema": t.InputSchema,
		})
	}

	return protocol.NewResponse(req.ID, map[string]any{"tools": toolList}), nil
}

// handleToolsCall dispatches to a registered tool. Past the params
// envelope, every failure surfaces as an internal error carrying the
// failure's message; one bad call never tears down the session.
func (h *requestHandler) handleToolsCall(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, protocol.NewInvalidRequest("malformed tools/call params: " + err.Error())
		}
	}
	if params.Name == "" {
		return nil, protocol.NewInvalidRequest("missing tool name")
	}

	tool, ok := h.srv.GetTool(params.Name)
	if !ok {
		return nil, protocol.NewInternalError("unknown tool: " + params.Name)
	}

	result, err := tool.Execute(ctx, params.Arguments)
	if err != nil {
		return nil, protocol.NewInternalError(failureMessage(err))
	}

	return protocol.NewResponse(req.ID, map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": result},
		},
	}), nil
}

func (h *requestHandler) handlePromptsList(req *protocol.Request) (*protocol.Response, error) {
	prompts := h.srv.Prompts()

	promptList := make([]map[string]any, 0, len(prompts))
	for _, p := range prompts {
		item := map[string]any{
			"name": p.Name,
		}
		if p.Description != "" {
			item["description"] = p.Description
		}
		if len(p.Arguments) > 0 {
			args := make([]map[string]any, 0, len(p.Arguments))
			for _, arg := range p.Arguments {
				argItem := map[string]any{
					"name":     arg.Name,
					"required": arg.Required,
				}
				if arg.Description != "" {
					argItem["description"] = arg.Description
				}
				args = append(args, argItem)
			}
			item["arguments"] = args
		}
		promptList = append(promptList, item)
	}

	return protocol.NewResponse(req.ID, map[string]any{"prompts": promptList}), nil
}

func (h *requestHandler) handlePromptsGet(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	var params struct {
		Name      string            `json:"name"`
		Arguments map[string]string `json:"arguments"`
	}
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, protocol.NewInvalidRequest("malformed prompts/get params: " + err.Error())
		}
	}
	if params.Name == "" {
		return nil, protocol.NewInvalidRequest("missing prompt name")
	}

	prompt, ok := h.srv.GetPrompt(params.Name)
	if !ok {
		return nil, protocol.NewNotFound("prompt not found: " + params.Name)
	}

	result, err := prompt.Get(ctx, params.Arguments)
	if err != nil {
		var mcpErr *protocol.Error
		if errors.As(err, &mcpErr) {
			return nil, mcpErr
		}
		return nil, protocol.NewInternalError(err.Error())
	}

	response := map[string]any{
		"messages": result.Messages,
	}
	if result.Description != "" {
		response["description"] = result.Description
	}

	return protocol.NewResponse(req.ID, response), nil
}

// failureMessage unwraps protocol errors so the surfaced message is the
// original text rather than the formatted error string.
func failureMessage(err error) string {
	var mcpErr *protocol.Error
	if errors.As(err, &mcpErr) {
		return mcpErr.Message
	}
	return err.Error()
}
