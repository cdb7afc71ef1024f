package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/akashicode/pdfsect/internal/graph"
)

// MCP tool names.
const (
	ToolSearchSections = "search_sections"
	ToolGetOutline     = "get_outline"
)

// MCPTool represents an MCP tool definition.
type MCPTool struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	InputSchema MCPSchema `json:"inputSchema"`
}

// MCPSchema represents a JSON schema for tool inputs.
type MCPSchema struct {
	Type       string             `json:"type"`
	Properties map[string]MCPProp `json:"properties"`
	Required   []string           `json:"required"`
}

// MCPProp represents a single parameter property.
type MCPProp struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// MCPRequest is an incoming MCP JSON-RPC request.
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse is an outgoing MCP JSON-RPC response.
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// handleMCP processes MCP JSON-RPC requests over POST.
func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req MCPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONRPCError(w, nil, -32700, "parse error: "+err.Error())
		return
	}

	var result interface{}
	var rpcErr *MCPError

	switch req.Method {
	case "initialize":
		result = mcpInitialize()
	case "tools/list":
		result = map[string]interface{}{"tools": mcpTools()}
	case "tools/call":
		result, rpcErr = s.mcpCallTool(r.Context(), req.Params)
	default:
		rpcErr = &MCPError{Code: -32601, Message: "method not found: " + req.Method}
	}

	writeJSON(w, http.StatusOK, MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  result,
		Error:   rpcErr,
	})
}

func mcpInitialize() map[string]interface{} {
	return map[string]interface{}{
		"protocolVersion": "2024-11-05",
		"capabilities": map[string]interface{}{
			"tools": map[string]interface{}{},
		},
		"serverInfo": map[string]interface{}{
			"name":    "pdfsect",
			"version": "1.0.0",
		},
	}
}

func mcpTools() []MCPTool {
	return []MCPTool{
		{
			Name:        ToolSearchSections,
			Description: "Search indexed PDF sections by meaning and by section title.",
			InputSchema: MCPSchema{
				Type: "object",
				Properties: map[string]MCPProp{
					"query": {Type: "string", Description: "The search query"},
					"top_k": {Type: "integer", Description: "Number of results to return (default: 5)"},
				},
				Required: []string{"query"},
			},
		},
		{
			Name:        ToolGetOutline,
			Description: "Return the table of contents of an indexed PDF.",
			InputSchema: MCPSchema{
				Type: "object",
				Properties: map[string]MCPProp{
					"source": {Type: "string", Description: "File name of the indexed PDF"},
				},
				Required: []string{"source"},
			},
		},
	}
}

func (s *Server) mcpCallTool(ctx context.Context, params json.RawMessage) (interface{}, *MCPError) {
	var p struct {
		Name      string                 `json:"name"`
		Arguments map[string]interface{} `json:"arguments"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &MCPError{Code: -32602, Message: "invalid params: " + err.Error()}
	}

	var text string
	switch p.Name {
	case ToolSearchSections:
		query, _ := p.Arguments["query"].(string)
		if strings.TrimSpace(query) == "" {
			return nil, &MCPError{Code: -32602, Message: "query argument is required"}
		}
		topK := 5
		if tk, ok := p.Arguments["top_k"].(float64); ok && tk > 0 {
			topK = int(tk)
		}
		resp, err := s.search(ctx, query, topK)
		if err != nil {
			return nil, &MCPError{Code: -32603, Message: "search error: " + err.Error()}
		}
		text = formatSearch(resp)

	case ToolGetOutline:
		source, _ := p.Arguments["source"].(string)
		if source == "" {
			return nil, &MCPError{Code: -32602, Message: "source argument is required"}
		}
		sections, err := s.cfg.Graph.Sections(ctx, source)
		if err != nil {
			return nil, &MCPError{Code: -32603, Message: "outline error: " + err.Error()}
		}
		text = graph.FormatOutline(sections)

	default:
		return nil, &MCPError{Code: -32602, Message: "unknown tool: " + p.Name}
	}

	return map[string]interface{}{
		"content": []map[string]interface{}{
			{"type": "text", "text": text},
		},
	}, nil
}

// formatSearch renders search hits as context text for a model.
func formatSearch(resp SearchResponse) string {
	var sb strings.Builder
	if len(resp.Chunks) > 0 {
		sb.WriteString("## Relevant Passages\n\n")
		for i, c := range resp.Chunks {
			fmt.Fprintf(&sb, "**[%d] %s", i+1, c.Source)
			if c.Section != "" {
				fmt.Fprintf(&sb, " / %s", c.Section)
			}
			fmt.Fprintf(&sb, "** (similarity: %.2f)\n%s\n\n", c.Similarity, c.Content)
		}
	}
	if len(resp.Sections) > 0 {
		sb.WriteString("## Matching Sections\n\n")
		for _, sec := range resp.Sections {
			fmt.Fprintf(&sb, "- %s: %s (p. %d)\n", sec.Source, sec.Title, sec.Page)
		}
	}
	return sb.String()
}

func writeJSONRPCError(w http.ResponseWriter, id interface{}, code int, msg string) {
	writeJSON(w, http.StatusOK, MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &MCPError{Code: code, Message: msg},
	})
}
