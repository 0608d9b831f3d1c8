package claude

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectEvents(t *testing.T, ch <-chan StreamingEvent) []StreamingEvent {
	t.Helper()
	var out []StreamingEvent
	for event := range ch {
		out = append(out, event)
	}
	return out
}

func TestStreamMessageParsesEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.Equal(t, defaultAPIVersion, r.Header.Get("anthropic-version"))

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, data := range []string{
			`{"type": "message_start", "message": {"id": "msg_1", "model": "claude-sonnet-4-20250514"}}`,
			`{"type": "content_block_start", "index": 0, "content_block": {"type": "text"}}`,
			`{"type": "content_block_delta", "index": 0, "delta": {"type": "text_delta", "text": "hi"}}`,
			`{"type": "message_stop"}`,
		} {
			_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}))
	defer srv.Close()

	client := NewClient("secret", srv.URL)
	client.AllowLocalNetworks = true

	ch, err := client.StreamMessage(context.Background(), &MessageRequest{
		Model:     "claude-sonnet-4-20250514",
		Messages:  []Message{NewTextMessage(RoleUser, "hello")},
		MaxTokens: 100,
	})
	require.NoError(t, err)

	received := collectEvents(t, ch)
	require.Len(t, received, 4)
	assert.Equal(t, MessageStartType, received[0].Type)
	assert.Equal(t, "claude-sonnet-4-20250514", received[0].Message.Model)
	assert.Equal(t, ContentTypeText, received[1].ContentBlock.Type)
	assert.Equal(t, "hi", received[2].Delta.Text)
	assert.Equal(t, MessageStopType, received[3].Type)
}

func TestStreamMessageSkipsMalformedEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = fmt.Fprint(w, "data: not json\n\n")
		_, _ = fmt.Fprint(w, ": keepalive comment\n\n")
		_, _ = fmt.Fprint(w, "data: {\"type\": \"message_stop\"}\n\n")
	}))
	defer srv.Close()

	client := NewClient("secret", srv.URL)
	client.AllowLocalNetworks = true

	ch, err := client.StreamMessage(context.Background(), &MessageRequest{Model: "m", MaxTokens: 10})
	require.NoError(t, err)

	received := collectEvents(t, ch)
	require.Len(t, received, 1)
	assert.Equal(t, MessageStopType, received[0].Type)
}

func TestStreamMessageGatewayErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind GatewayErrorKind
		wantMsg  string
	}{
		{
			name:     "unauthorized",
			status:   http.StatusUnauthorized,
			body:     `{"error": {"type": "authentication_error", "message": "invalid x-api-key"}}`,
			wantKind: ErrKindUnauthorized,
			wantMsg:  "invalid x-api-key",
		},
		{
			name:     "forbidden",
			status:   http.StatusForbidden,
			body:     `{"error": {"type": "permission_error", "message": "denied"}}`,
			wantKind: ErrKindUnauthorized,
			wantMsg:  "denied",
		},
		{
			name:     "bad request",
			status:   http.StatusBadRequest,
			body:     `{"error": {"type": "invalid_request_error", "message": "max_tokens required"}}`,
			wantKind: ErrKindInvalidRequest,
			wantMsg:  "max_tokens required",
		},
		{
			name:     "overloaded",
			status:   http.StatusServiceUnavailable,
			body:     `{"error": {"type": "overloaded_error", "message": "try later"}}`,
			wantKind: ErrKindProviderUnavailable,
			wantMsg:  "try later",
		},
		{
			name:     "non-json error body",
			status:   http.StatusBadGateway,
			body:     "upstream exploded",
			wantKind: ErrKindProviderUnavailable,
			wantMsg:  "upstream exploded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient("secret", srv.URL)
			client.AllowLocalNetworks = true

			_, err := client.StreamMessage(context.Background(), &MessageRequest{Model: "m", MaxTokens: 10})
			require.Error(t, err)

			var gatewayErr *GatewayError
			require.ErrorAs(t, err, &gatewayErr)
			assert.Equal(t, tt.wantKind, gatewayErr.Kind)
			assert.Equal(t, tt.status, gatewayErr.StatusCode)
			assert.Equal(t, tt.wantMsg, gatewayErr.Message)
		})
	}
}

func TestStreamMessageRejectsUnsafeBaseURL(t *testing.T) {
	client := NewClient("secret", "http://127.0.0.1:9999")

	_, err := client.StreamMessage(context.Background(), &MessageRequest{Model: "m", MaxTokens: 10})
	require.Error(t, err)

	var gatewayErr *GatewayError
	require.ErrorAs(t, err, &gatewayErr)
	assert.Equal(t, ErrKindInvalidRequest, gatewayErr.Kind)
}

func TestStreamMessageNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	client := NewClient("secret", srv.URL)
	client.AllowLocalNetworks = true

	_, err := client.StreamMessage(context.Background(), &MessageRequest{Model: "m", MaxTokens: 10})
	require.Error(t, err)

	var gatewayErr *GatewayError
	require.ErrorAs(t, err, &gatewayErr)
	assert.Equal(t, ErrKindProviderUnavailable, gatewayErr.Kind)
}

func TestParseSSEEvent(t *testing.T) {
	var event StreamingEvent
	err := parseSSEEvent([][]byte{
		[]byte("event: content_block_delta\n"),
		[]byte(`data: {"type": "content_block_delta", "index": 2, "delta": {"type": "input_json_delta", "partial_json": "{\"a\":"}}` + "\n"),
	}, &event)
	require.NoError(t, err)

	assert.Equal(t, ContentBlockDeltaType, event.Type)
	assert.Equal(t, 2, event.Index)
	assert.Equal(t, InputJSONDeltaType, event.Delta.Type)
	assert.Equal(t, `{"a":`, event.Delta.PartialJSON)

	assert.Error(t, parseSSEEvent([][]byte{[]byte("data: nope\n")}, &event))
	assert.Error(t, parseSSEEvent(nil, &event))
}

func TestNewWebSearchTool(t *testing.T) {
	tool := NewWebSearchTool(5)
	assert.Equal(t, WebSearchToolType, tool.Type)
	assert.Equal(t, WebSearchToolName, tool.Name)
	require.NotNil(t, tool.MaxUses)
	assert.Equal(t, 5, *tool.MaxUses)
}
