package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowsmith/flowsmith/pkg/tools"
	"github.com/flowsmith/flowsmith/pkg/workflow"
)

func TestParseAction(t *testing.T) {
	assert.Equal(t, ActionGenerate, ParseAction("generate"))
	assert.Equal(t, ActionAnalyze, ParseAction(" Analyze "))
	assert.Equal(t, ActionEdit, ParseAction("EDIT"))
	assert.Equal(t, ActionChat, ParseAction("chat"))
	assert.Equal(t, ActionChat, ParseAction("summon"))
	assert.Equal(t, ActionChat, ParseAction(""))
}

func TestBuildGenerate(t *testing.T) {
	system, prefix := Build(ActionGenerate, nil, nil, nil)

	assert.Contains(t, system, "fenced json code block")
	assert.Contains(t, system, "never invent secret values")
	assert.Contains(t, prefix, "Create an n8n workflow")
}

func TestBuildEmbedsExistingDocumentVerbatim(t *testing.T) {
	doc := &workflow.Document{
		Name: "Invoice Sync",
		Nodes: []workflow.Node{
			{ID: "1", Name: "Webhook", Type: "n8n-nodes-base.webhook"},
		},
	}
	serialized, err := doc.Serialize()
	require.NoError(t, err)

	for _, action := range []Action{ActionAnalyze, ActionEdit} {
		system, _ := Build(action, doc, nil, nil)
		assert.Contains(t, system, serialized, string(action))
	}
}

func TestBuildNilDocumentDegradesToEmptyObject(t *testing.T) {
	system, prefix := Build(ActionAnalyze, nil, nil, nil)
	assert.Contains(t, system, "Existing workflow:\n{}")
	assert.Contains(t, prefix, "Analyze the workflow")
}

func TestBuildChatHasNoWorkflowInstructions(t *testing.T) {
	system, prefix := Build(ActionChat, nil, nil, nil)
	assert.NotContains(t, system, "fenced json code block")
	assert.Empty(t, prefix)
}

func TestCredentialClauseNamesOnly(t *testing.T) {
	system, _ := Build(ActionGenerate, nil, []string{"slackApi", "googleSheetsOAuth2"}, nil)
	assert.Contains(t, system, "slackApi, googleSheetsOAuth2")
	assert.Contains(t, system, "Reference them by name only")

	system, _ = Build(ActionGenerate, nil, nil, nil)
	assert.NotContains(t, system, "credentials are available")
}

func TestServerClauseListsEnabledServersOnly(t *testing.T) {
	servers := []tools.ServerDescriptor{
		{DisplayName: "Docs Server", EndpointURL: "https://docs.example.com/mcp", ToolsEnabled: true, EnabledTools: []string{"search_docs"}},
		{DisplayName: "Disabled Server", EndpointURL: "https://off.example.com/mcp", ToolsEnabled: false},
		{DisplayName: "Everything Server", EndpointURL: "https://all.example.com/mcp", ToolsEnabled: true},
	}

	system, _ := Build(ActionChat, nil, nil, servers)
	assert.Contains(t, system, "- Docs Server (tools: search_docs)")
	assert.Contains(t, system, "- Everything Server (all tools)")
	assert.NotContains(t, system, "Disabled Server")
}
