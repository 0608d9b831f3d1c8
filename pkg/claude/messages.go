package claude

import (
	"encoding/json"
)

// MessageRequest represents the Messages API request payload.
type MessageRequest struct {
	Model         string      `json:"model"`
	Messages      []Message   `json:"messages"`
	MaxTokens     int         `json:"max_tokens"`
	StopSequences []string    `json:"stop_sequences,omitempty"`
	Stream        bool        `json:"stream"`
	System        string      `json:"system,omitempty"`
	Temperature   *float64    `json:"temperature,omitempty"`
	Tools         []Tool      `json:"tools,omitempty"`
	MCPServers    []MCPServer `json:"mcp_servers,omitempty"`
	TopK          *int        `json:"top_k,omitempty"`
	TopP          *float64    `json:"top_p,omitempty"`
}

// Tool declares a capability the model may invoke. Custom tools carry an
// input schema; provider-executed server tools (web search) carry a
// versioned type and a use cap instead.
type Tool struct {
	Type        string          `json:"type,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema,omitempty"`
	MaxUses     *int            `json:"max_uses,omitempty"`
}

const (
	WebSearchToolType = "web_search_20250305"
	WebSearchToolName = "web_search"
)

// NewWebSearchTool declares the provider-executed web search tool with a
// bounded number of uses for this request.
func NewWebSearchTool(maxUses int) Tool {
	return Tool{
		Type:    WebSearchToolType,
		Name:    WebSearchToolName,
		MaxUses: &maxUses,
	}
}

// MCPServer declares a caller-attached external tool server the model may
// invoke during generation.
type MCPServer struct {
	Type               string                `json:"type"`
	URL                string                `json:"url"`
	Name               string                `json:"name"`
	AuthorizationToken string                `json:"authorization_token,omitempty"`
	ToolConfiguration  *MCPToolConfiguration `json:"tool_configuration,omitempty"`
}

type MCPToolConfiguration struct {
	Enabled      bool     `json:"enabled"`
	AllowedTools []string `json:"allowed_tools,omitempty"`
}

// Message represents a single message in the conversation.
type Message struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"` // string or array of content blocks
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// NewTextMessage builds a message whose content is a plain string.
func NewTextMessage(role string, text string) Message {
	content, _ := json.Marshal(text)
	return Message{Role: role, Content: content}
}

// MessageResponse represents the Messages API response payload.
type MessageResponse struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Role         string `json:"role"`
	Model        string `json:"model"`
	StopReason   string `json:"stop_reason,omitempty"`
	StopSequence string `json:"stop_sequence,omitempty"`
	Usage        Usage  `json:"usage"`
}

// Usage represents the billing and rate-limit usage information.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// ErrorResponse represents the API's error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
