package relay

import (
	"github.com/flowsmith/flowsmith/pkg/tools"
	"github.com/flowsmith/flowsmith/pkg/workflow"
)

// ChatTurn is one entry of the caller-owned conversation history.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerationRequest is the inbound payload for one generation turn. Created
// per HTTP call; absent optional fields are treated as empty.
type GenerationRequest struct {
	// RequestID is assigned by the transport for correlation; a missing id
	// is generated when the pipeline starts.
	RequestID string `json:"-"`

	Message          string                   `json:"message"`
	History          []ChatTurn               `json:"history,omitempty"`
	Action           string                   `json:"action"`
	ExistingDocument *workflow.Document       `json:"existingDocument,omitempty"`
	CredentialHints  []string                 `json:"credentialHints,omitempty"`
	ToolServers      []tools.ServerDescriptor `json:"externalToolServers,omitempty"`
}
