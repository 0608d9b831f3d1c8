package prompts

import (
	"fmt"
	"strings"

	"github.com/flowsmith/flowsmith/pkg/tools"
	"github.com/flowsmith/flowsmith/pkg/workflow"
)

// Action selects the prompt variant for a generation turn.
type Action string

const (
	ActionGenerate Action = "generate"
	ActionAnalyze  Action = "analyze"
	ActionEdit     Action = "edit"
	ActionChat     Action = "chat"
)

// ParseAction maps an inbound action string to a known Action. Unknown
// values fall back to chat framing rather than failing the request.
func ParseAction(s string) Action {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case ActionGenerate:
		return ActionGenerate
	case ActionAnalyze:
		return ActionAnalyze
	case ActionEdit:
		return ActionEdit
	default:
		return ActionChat
	}
}

const basePrompt = `You are an expert n8n workflow automation engineer. You know the n8n node catalog, its connection model, and how credentials are referenced by name inside node parameters.`

const generatePrompt = basePrompt + `

The user describes an automation in natural language. Produce:
1. A short explanation of the workflow you designed.
2. Exactly one complete n8n workflow as a fenced json code block, with a "nodes" array and a "connections" object. Every node needs "id", "name" and "type".

When the request involves a specific third-party API or integration whose current specifics you are unsure about, research them before answering. Reference credentials by name only; never invent secret values.`

const analyzePrompt = basePrompt + `

The user supplies an existing workflow. Analyze it and report findings: unreachable nodes, missing error handling, misconfigured parameters, and improvement suggestions. Do NOT return a new workflow document.

Existing workflow:
%s`

const editPrompt = basePrompt + `

The user supplies an existing workflow and a change request. Apply the change and return the COMPLETE modified workflow as exactly one fenced json code block, alongside a short summary of what changed. Keep unmodified nodes intact.

Existing workflow:
%s`

const chatPrompt = `You are a helpful assistant for an n8n workflow automation platform. Answer questions about automations, integrations and n8n concepts conversationally. No workflow document is expected.`

// Build produces the system prompt and user prompt prefix for one turn.
// Pure and deterministic: no I/O, no error conditions. An unknown action
// yields the generic conversational prompt.
func Build(action Action, existing *workflow.Document, credentialHints []string, servers []tools.ServerDescriptor) (string, string) {
	var system string
	var userPrefix string

	switch action {
	case ActionGenerate:
		system = generatePrompt
		userPrefix = "Create an n8n workflow for the following request:\n"
	case ActionAnalyze:
		system = fmt.Sprintf(analyzePrompt, serializeDocument(existing))
		userPrefix = "Analyze the workflow with respect to the following request:\n"
	case ActionEdit:
		system = fmt.Sprintf(editPrompt, serializeDocument(existing))
		userPrefix = "Apply the following change to the workflow:\n"
	default:
		system = chatPrompt
	}

	if clause := credentialClause(credentialHints); clause != "" {
		system += clause
	}
	if clause := serverClause(servers); clause != "" {
		system += clause
	}

	return system, userPrefix
}

// serializeDocument renders the existing document verbatim for embedding.
// A nil or unserializable document degrades to an empty object so the
// builder stays error-free.
func serializeDocument(doc *workflow.Document) string {
	if doc == nil {
		return "{}"
	}
	s, err := doc.Serialize()
	if err != nil {
		return "{}"
	}
	return s
}

// credentialClause lists credential names (never values) so the model can
// reference them symbolically instead of inventing secrets.
func credentialClause(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return fmt.Sprintf("\n\nThe following credentials are available by name and may be referenced in node parameters: %s. Reference them by name only.",
		strings.Join(hints, ", "))
}

// serverClause enumerates enabled external tool servers and their permitted
// tools.
func serverClause(servers []tools.ServerDescriptor) string {
	enabled := tools.EnabledServers(servers)
	if len(enabled) == 0 {
		return ""
	}

	var lines []string
	for _, s := range enabled {
		if len(s.EnabledTools) > 0 {
			lines = append(lines, fmt.Sprintf("- %s (tools: %s)", s.DisplayName, strings.Join(s.EnabledTools, ", ")))
		} else {
			lines = append(lines, fmt.Sprintf("- %s (all tools)", s.DisplayName))
		}
	}
	return "\n\nThe following external tool servers are attached and may be used during generation:\n" + strings.Join(lines, "\n")
}
