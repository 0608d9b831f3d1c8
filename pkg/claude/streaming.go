package claude

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type StreamingEventType string

const (
	PingType              StreamingEventType = "ping"
	MessageStartType      StreamingEventType = "message_start"
	ContentBlockStartType StreamingEventType = "content_block_start"
	ContentBlockDeltaType StreamingEventType = "content_block_delta"
	ContentBlockStopType  StreamingEventType = "content_block_stop"
	MessageDeltaType      StreamingEventType = "message_delta"
	MessageStopType       StreamingEventType = "message_stop"
	ErrorType             StreamingEventType = "error"
)

type StreamingDeltaType string

const (
	TextDeltaType      StreamingDeltaType = "text_delta"
	InputJSONDeltaType StreamingDeltaType = "input_json_delta"
)

type ContentType string

const (
	ContentTypeText                ContentType = "text"
	ContentTypeToolUse             ContentType = "tool_use"
	ContentTypeServerToolUse       ContentType = "server_tool_use"
	ContentTypeWebSearchToolResult ContentType = "web_search_tool_result"
)

type StreamingEvent struct {
	Type         StreamingEventType `json:"type"`
	Message      *MessageResponse   `json:"message,omitempty"`
	Delta        *Delta             `json:"delta,omitempty"`
	Error        *Error             `json:"error,omitempty"`
	Index        int                `json:"index,omitempty"`
	Usage        *Usage             `json:"usage,omitempty"`
	ContentBlock *ContentBlock      `json:"content_block,omitempty"`
}

// ContentBlock is the provider-native block header carried by
// content_block_start events. Tool use blocks carry the call id and tool
// name; web search result blocks carry the originating call id and the raw
// result list.
type ContentBlock struct {
	Type      ContentType     `json:"type"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	Text      string          `json:"text,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
}

type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type Delta struct {
	Type         StreamingDeltaType `json:"type"`
	Text         string             `json:"text,omitempty"`
	PartialJSON  string             `json:"partial_json"`
	StopReason   string             `json:"stop_reason,omitempty"`
	StopSequence string             `json:"stop_sequence,omitempty"`
}

// WebSearchResult is one entry of a web_search_tool_result block, as the
// provider serializes it.
type WebSearchResult struct {
	Type             string `json:"type"`
	Title            string `json:"title"`
	URL              string `json:"url"`
	Snippet          string `json:"snippet,omitempty"`
	EncryptedContent string `json:"encrypted_content,omitempty"`
	PageAge          string `json:"page_age,omitempty"`
}

func (s StreamingEvent) MarshalZerologObject(e *zerolog.Event) {
	e.Str("type", string(s.Type))
	if s.Message != nil {
		e.Str("message_id", s.Message.ID)
	}
	if s.Delta != nil {
		e.Object("delta", s.Delta)
	}
	if s.Error != nil {
		e.Object("error", s.Error)
	}
	if s.Index != 0 {
		e.Int("index", s.Index)
	}
	if s.ContentBlock != nil {
		e.Object("content_block", s.ContentBlock)
	}
}

var _ zerolog.LogObjectMarshaler = StreamingEvent{}

func (cb ContentBlock) MarshalZerologObject(e *zerolog.Event) {
	e.Str("type", string(cb.Type))
	if cb.ID != "" {
		e.Str("id", cb.ID)
	}
	if cb.Name != "" {
		e.Str("name", cb.Name)
	}
	if cb.ToolUseID != "" {
		e.Str("tool_use_id", cb.ToolUseID)
	}
	if cb.Text != "" {
		e.Str("text", cb.Text)
	}
}

func (err Error) MarshalZerologObject(e *zerolog.Event) {
	e.Str("type", err.Type)
	e.Str("message", err.Message)
}

func (d Delta) MarshalZerologObject(e *zerolog.Event) {
	e.Str("type", string(d.Type))
	if d.Text != "" {
		e.Str("text", d.Text)
	}
	e.Str("partial_json", d.PartialJSON)
	if d.StopReason != "" {
		e.Str("stop_reason", d.StopReason)
	}
}

// streamEvents reads the SSE response body and sends parsed events on the
// channel until EOF, a read failure, or context cancellation. The channel is
// closed when reading stops; a trailing error event is synthesized for
// unexpected read failures so downstream consumers see a single error.
func streamEvents(ctx context.Context, resp *http.Response, events chan<- StreamingEvent) {
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)
	defer close(events)

	reader := bufio.NewReader(resp.Body)
	var eventLines [][]byte
	eventCount := 0
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err != io.EOF && ctx.Err() == nil {
				log.Error().Err(err).Msg("unexpected error reading streaming response")
				select {
				case events <- StreamingEvent{
					Type:  ErrorType,
					Error: &Error{Type: "stream_read_error", Message: err.Error()},
				}:
				case <-ctx.Done():
				}
			}
			log.Debug().Err(err).Int("total_events", eventCount).Msg("streaming reader finished")
			return
		}
		if len(bytes.TrimSpace(line)) == 0 {
			// Empty line indicates the end of an event
			var event StreamingEvent
			if parseErr := parseSSEEvent(eventLines, &event); parseErr != nil {
				log.Debug().Err(parseErr).Msg("failed to parse SSE event")
				eventLines = eventLines[:0]
				continue
			}
			eventCount++
			log.Trace().
				Str("event_type", string(event.Type)).
				Int("event_number", eventCount).
				Msg("parsed streaming event")
			select {
			case events <- event:
			case <-ctx.Done():
				log.Debug().Msg("context cancelled, stopping streaming")
				return
			}
			eventLines = eventLines[:0]
		} else {
			eventLines = append(eventLines, line)
		}
	}
}

// parseSSEEvent parses an SSE event from multiple lines.
func parseSSEEvent(lines [][]byte, event *StreamingEvent) error {
	eventData := ""
	for _, line := range lines {
		line = bytes.TrimSuffix(line, []byte("\n"))

		parts := bytes.SplitN(line, []byte(": "), 2)
		if len(parts) != 2 {
			continue
		}

		field, value := parts[0], parts[1]
		if string(field) == "data" {
			eventData += string(value) + "\n"
		}
	}

	eventData = strings.TrimSuffix(eventData, "\n")

	return json.Unmarshal([]byte(eventData), event)
}
