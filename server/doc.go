// Package server provides the tool registry, prompt registry, and
// session state behind the bridge.
//
// Most users should use the higher-level oshubmcp package instead of
// using this package directly.
//
// # Server
//
// The Server type manages tool and prompt registrations. Listings
// preserve registration order:
//
//	srv := server.New(server.Info{
//	    Name:    "os-hub-mcp",
//	    Version: "0.1.0",
//	    Capabilities: server.Capabilities{
//	        Tools:   true,
//	        Prompts: true,
//	    },
//	})
//
// # Tools
//
// Tools are registered using the fluent builder API. Handlers return
// the text report shown to the client; inputs are validated against
// the schema generated from the handler's input struct before the
// handler runs:
//
//	type SearchInput struct {
//	    Query string `json:"query" jsonschema:"required"`
//	}
//
//	srv.Tool("search_facilities").
//	    Description("Search for production facilities").
//	    Handler(func(ctx context.Context, input SearchInput) (string, error) {
//	        return "Found 2 facilities: ...", nil
//	    })
//
// # Prompts
//
// Prompts expose parameterized templates:
//
//	srv.Prompt("analyze_supplier").
//	    Description("Analyze a supplier").
//	    Argument("company_name", "Company to analyze", true).
//	    Handler(func(ctx context.Context, args map[string]string) (*PromptResult, error) {
//	        return &PromptResult{
//	            Messages: []PromptMessage{{Role: "user", Content: TextContent{Type: "text", Text: "Analyze " + args["company_name"]}}},
//	        }, nil
//	    })
//
// # Sessions
//
// Each client connection owns a Session. Sessions start uninitialized
// and move to initialized when the initialize request's upstream probe
// succeeds; gated methods are rejected until then.
package server
