package server

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowsmith/flowsmith/pkg/events"
	"github.com/flowsmith/flowsmith/pkg/workflow"
)

func TestEncodeFrame(t *testing.T) {
	metadata := events.EventMetadata{ID: uuid.New(), RequestID: "req-1"}

	tests := []struct {
		name  string
		event events.Event
		want  string
	}{
		{
			name:  "start",
			event: events.NewStartEvent(metadata),
			want:  `{"type": "start"}`,
		},
		{
			name:  "delta carries only the increment",
			event: events.NewPartialCompletionEvent(metadata, "world", "hello world"),
			want:  `{"type": "delta", "content": "world"}`,
		},
		{
			name:  "tool call start",
			event: events.NewToolCallStartEvent(metadata, events.ToolCall{ID: "toolu_1", Name: "workflow_skeleton", Input: `{"a":1}`}),
			want:  `{"type": "tool_call_start", "toolCallId": "toolu_1", "toolName": "workflow_skeleton", "input": "{\"a\":1}"}`,
		},
		{
			name:  "tool call chunk",
			event: events.NewToolCallDeltaEvent(metadata, "toolu_1", `{"trig`),
			want:  `{"type": "tool_call_chunk", "toolCallId": "toolu_1", "partialJson": "{\"trig"}`,
		},
		{
			name: "tool result",
			event: events.NewToolResultEvent(metadata, events.ToolResult{
				ID: "toolu_1", Name: "workflow_skeleton", Result: json.RawMessage(`{"ok":true}`),
			}),
			want: `{"type": "tool_result", "toolCallId": "toolu_1", "toolName": "workflow_skeleton", "result": {"ok":true}}`,
		},
		{
			name: "search results",
			event: events.NewToolResultEvent(metadata, events.ToolResult{
				ID: "srvtoolu_1", Name: "web_search",
				Results: []events.SearchResult{{Title: "T", URL: "https://x.test/a", Domain: "x.test"}},
			}),
			want: `{"type": "tool_result", "toolCallId": "srvtoolu_1", "toolName": "web_search", "results": [{"title": "T", "url": "https://x.test/a", "domain": "x.test"}]}`,
		},
		{
			name:  "error",
			event: events.NewErrorEvent(metadata, errors.New("boom")),
			want:  `{"type": "error", "content": "boom"}`,
		},
		{
			name:  "final omits accumulated text",
			event: events.NewFinalEvent(metadata, "the full text"),
			want:  `{"type": "final"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := EncodeFrame(tt.event)
			require.NoError(t, err)

			s := string(buf)
			require.True(t, len(s) > 8)
			assert.Equal(t, "data: ", s[:6])
			assert.Equal(t, "\n\n", s[len(s)-2:])
			assert.JSONEq(t, tt.want, s[6:len(s)-2])
		})
	}
}

func TestEncodeFrameWorkflow(t *testing.T) {
	doc := workflow.Normalize(&workflow.Document{
		Nodes: []workflow.Node{{ID: "1", Name: "Webhook", Type: "n8n-nodes-base.webhook"}},
	})
	buf, err := EncodeFrame(events.NewWorkflowEvent(events.EventMetadata{ID: uuid.New()}, doc))
	require.NoError(t, err)

	var f frame
	require.NoError(t, json.Unmarshal(buf[6:len(buf)-2], &f))
	assert.Equal(t, "workflow", f.Type)
	require.NotNil(t, f.Workflow)
	assert.Equal(t, workflow.DefaultName, f.Workflow.Name)
}
