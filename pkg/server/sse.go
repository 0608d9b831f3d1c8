package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"

	"github.com/flowsmith/flowsmith/pkg/events"
	"github.com/flowsmith/flowsmith/pkg/workflow"
)

// DoneMarker is the literal terminal frame written after the event stream
// ends; clients stop reading when they see it.
const DoneMarker = "[DONE]"

// Client-facing frame shapes. Every relay event serializes to one frame,
// `data: <json>\n\n`.
type frame struct {
	Type        string                `json:"type"`
	Content     string                `json:"content,omitempty"`
	ToolCallID  string                `json:"toolCallId,omitempty"`
	ToolName    string                `json:"toolName,omitempty"`
	Input       string                `json:"input,omitempty"`
	PartialJSON string                `json:"partialJson,omitempty"`
	Result      json.RawMessage       `json:"result,omitempty"`
	Results     []events.SearchResult `json:"results,omitempty"`
	Workflow    *workflow.Document    `json:"workflow,omitempty"`
}

// EncodeFrame renders one relay event as an SSE frame.
func EncodeFrame(event events.Event) ([]byte, error) {
	var f frame

	switch e := event.(type) {
	case *events.EventStart:
		f = frame{Type: "start"}
	case *events.EventPartialCompletion:
		f = frame{Type: "delta", Content: e.Delta}
	case *events.EventToolCallStart:
		f = frame{Type: "tool_call_start", ToolCallID: e.ToolCall.ID, ToolName: e.ToolCall.Name, Input: e.ToolCall.Input}
	case *events.EventToolCallDelta:
		f = frame{Type: "tool_call_chunk", ToolCallID: e.ID, PartialJSON: e.PartialJSON}
	case *events.EventToolResult:
		f = frame{Type: "tool_result", ToolCallID: e.ToolResult.ID, ToolName: e.ToolResult.Name, Result: e.ToolResult.Result, Results: e.ToolResult.Results}
	case *events.EventWorkflow:
		f = frame{Type: "workflow", Workflow: e.Workflow}
	case *events.EventError:
		f = frame{Type: "error", Content: e.ErrorString}
	case *events.EventFinal:
		f = frame{Type: "final"}
	default:
		return nil, errors.Errorf("no frame encoding for event type %s", event.Type())
	}

	payload, err := json.Marshal(f)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal frame")
	}

	buf := make([]byte, 0, len(payload)+8)
	buf = append(buf, "data: "...)
	buf = append(buf, payload...)
	buf = append(buf, "\n\n"...)
	return buf, nil
}

// sseSink writes frames to an HTTP response as they are published,
// flushing after each one so clients render text incrementally.
type sseSink struct {
	w       io.Writer
	flusher http.Flusher
}

func newSSESink(w io.Writer) *sseSink {
	flusher, _ := w.(http.Flusher)
	return &sseSink{w: w, flusher: flusher}
}

func (s *sseSink) PublishEvent(event events.Event) error {
	buf, err := EncodeFrame(event)
	if err != nil {
		return err
	}
	if _, err := s.w.Write(buf); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}

func (s *sseSink) writeDone() {
	_, _ = s.w.Write([]byte("data: " + DoneMarker + "\n\n"))
	if s.flusher != nil {
		s.flusher.Flush()
	}
}

var _ events.EventSink = (*sseSink)(nil)
