package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowsmith/flowsmith/pkg/workflow"
)

func TestWorkflowSkeleton(t *testing.T) {
	result, err := WorkflowSkeleton(context.Background(), json.RawMessage(`{"trigger": "schedule", "service": "slack"}`))
	require.NoError(t, err)

	doc, ok := result.(*workflow.Document)
	require.True(t, ok)
	assert.Equal(t, "Schedule Trigger to Slack", doc.Name)
	require.Len(t, doc.Nodes, 2)
	assert.Equal(t, "n8n-nodes-base.scheduleTrigger", doc.Nodes[0].Type)
	assert.Equal(t, "n8n-nodes-base.slack", doc.Nodes[1].Type)

	set, ok := doc.Connections["Schedule Trigger"]
	require.True(t, ok)
	require.Len(t, set.Main, 1)
	assert.Equal(t, "Slack", set.Main[0][0].Node)

	// skeleton comes back normalized
	require.NotNil(t, doc.Nodes[0].Position)
	assert.Equal(t, []string{"ai-generated"}, doc.Tags)
}

func TestWorkflowSkeletonUnknownNamesFallBack(t *testing.T) {
	result, err := WorkflowSkeleton(context.Background(), json.RawMessage(`{"trigger": "carrier pigeon", "service": "fax machine"}`))
	require.NoError(t, err)

	doc := result.(*workflow.Document)
	assert.Equal(t, "n8n-nodes-base.webhook", doc.Nodes[0].Type)
	assert.Equal(t, "n8n-nodes-base.httpRequest", doc.Nodes[1].Type)
}

func TestWorkflowSkeletonInvalidInput(t *testing.T) {
	_, err := WorkflowSkeleton(context.Background(), json.RawMessage(`{broken`))
	assert.Error(t, err)
}

func TestNodeCatalogLookup(t *testing.T) {
	result, err := NodeCatalogLookup(context.Background(), json.RawMessage(`{"service": "Google Sheets"}`))
	require.NoError(t, err)

	m := result.(map[string]interface{})
	assert.Equal(t, true, m["found"])
	assert.Equal(t, "n8n-nodes-base.googleSheets", m["type"])

	result, err = NodeCatalogLookup(context.Background(), json.RawMessage(`{"service": "morse code"}`))
	require.NoError(t, err)
	m = result.(map[string]interface{})
	assert.Equal(t, false, m["found"])
}

func TestDefaultRegistry(t *testing.T) {
	registry := DefaultRegistry()

	assert.True(t, registry.Has("workflow_skeleton"))
	assert.True(t, registry.Has("node_catalog_lookup"))

	for _, def := range registry.List() {
		require.NotNil(t, def.InputSchema, def.Name)
		b, err := json.Marshal(def.InputSchema)
		require.NoError(t, err)
		assert.Contains(t, string(b), `"required"`)
	}
}
