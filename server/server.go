// Package server provides the tool registry, prompt registry, and
// session state behind the bridge.
package server

import (
	"context"
	"sync"

	"github.com/opensupplyhub/os-hub-mcp/protocol"
)

// Info contains server metadata exposed to clients.
type Info struct {
	Name         string
	Version      string
	Capabilities Capabilities
}

// Capabilities declares what surfaces the server supports.
type Capabilities struct {
	Tools     bool `json:"tools"`
	Resources bool `json:"resources"`
	Prompts   bool `json:"prompts"`
}

// ServerInfo is the name/version pair sent in the initialize result.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Manifest is the initialize result returned to clients.
type Manifest struct {
	ProtocolVersion string       `json:"protocolVersion"`
	Capabilities    Capabilities `json:"capabilities"`
	ServerInfo      ServerInfo   `json:"serverInfo"`
}

// ToolInfo represents metadata about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
	InputSchema any
}

// Option configures a Server.
type Option func(*Server)

// WithProbe sets the upstream liveness check run when a session
// initializes. A nil probe means initialization always succeeds.
func WithProbe(probe func(ctx context.Context) error) Option {
	return func(s *Server) {
		s.probe = probe
	}
}

// Server holds the registries shared by every session.
type Server struct {
	mu sync.RWMutex

	info  Info
	probe func(ctx context.Context) error

	// Registration order is part of the contract: tools/list and
	// prompts/list reflect it.
	tools       map[string]*Tool
	toolOrder   []string
	prompts     map[string]*Prompt
	promptOrder []string
}

// New creates a new server with the given info and options.
func New(info Info, opts ...Option) *Server {
	s := &Server{
		info:    info,
		tools:   make(map[string]*Tool),
		prompts: make(map[string]*Prompt),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Info returns the server info.
func (s *Server) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

// NewSession creates a fresh session bound to this server's probe.
// Each transport connection gets its own.
func (s *Server) NewSession() *Session {
	return NewSession(s.probe)
}

// Tool starts building a new tool with the given name.
func (s *Server) Tool(name string) *ToolBuilder {
	return &ToolBuilder{
		tool: &Tool{
			name: name,
		},
		server: s,
	}
}

// Tools returns info about all registered tools in registration order.
func (s *Server) Tools() []ToolInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]ToolInfo, 0, len(s.toolOrder))
	for _, name := range s.toolOrder {
		t := s.tools[name]
		result = append(result, ToolInfo{
			Name:        t.name,
			Description: t.description,
			InputSchema: t.inputSchema,
		})
	}
	return result
}

// Manifest returns the initialize result for this server.
func (s *Server) Manifest() Manifest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Manifest{
		ProtocolVersion: protocol.MCPVersion,
		Capabilities:    s.info.Capabilities,
		ServerInfo: ServerInfo{
			Name:    s.info.Name,
			Version: s.info.Version,
		},
	}
}

// registerTool adds a tool to the server. Re-registering a name
// replaces the tool but keeps its original position.
func (s *Server) registerTool(t *Tool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tools[t.name]; !exists {
		s.toolOrder = append(s.toolOrder, t.name)
	}
	s.tools[t.name] = t
}

// GetTool retrieves a tool by name.
func (s *Server) GetTool(name string) (*Tool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tools[name]
	return t, ok
}

// Prompt starts building a new prompt with the given name.
func (s *Server) Prompt(name string) *PromptBuilder {
	return &PromptBuilder{
		prompt: &Prompt{
			name: name,
		},
		server: s,
	}
}

// Prompts returns info about all registered prompts in registration order.
func (s *Server) Prompts() []PromptInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]PromptInfo, 0, len(s.promptOrder))
	for _, name := range s.promptOrder {
		p := s.prompts[name]
		result = append(result, PromptInfo{
			Name:        p.name,
			Description: p.description,
			Arguments:   p.arguments,
		})
	}
	return result
}

// registerPrompt adds a prompt to the server.
func (s *Server) registerPrompt(p *Prompt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.prompts[p.name]; !exists {
		s.promptOrder = append(s.promptOrder, p.name)
	}
	s.prompts[p.name] = p
}

// GetPrompt retrieves a prompt by name.
func (s *Server) GetPrompt(name string) (*Prompt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prompts[name]
	return p, ok
}
