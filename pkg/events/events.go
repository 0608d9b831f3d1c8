package events

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/flowsmith/flowsmith/pkg/workflow"
)

type EventType string

const (
	// EventTypeStart is emitted once when the provider opens the message stream.
	EventTypeStart             EventType = "start"
	EventTypePartialCompletion EventType = "partial"

	// Tool call lifecycle: the model requested a tool, its input is streamed
	// as JSON fragments, and a result is eventually relayed back.
	EventTypeToolCallStart EventType = "tool-call-start"
	EventTypeToolCallDelta EventType = "tool-call-delta"
	EventTypeToolResult    EventType = "tool-result"

	// EventTypeWorkflow carries the structured document extracted from the
	// accumulated assistant text. At most one per request, never after an error.
	EventTypeWorkflow EventType = "workflow"

	EventTypeError EventType = "error"
	EventTypeFinal EventType = "final"
)

type Event interface {
	Type() EventType
	Metadata() EventMetadata
	Payload() []byte
}

type EventImpl struct {
	Type_     EventType     `json:"type"`
	Error_    error         `json:"error,omitempty"`
	Metadata_ EventMetadata `json:"meta,omitempty"`

	// raw JSON the event was deserialized from, if any (see NewEventFromJson)
	payload []byte
}

func (e *EventImpl) Type() EventType         { return e.Type_ }
func (e *EventImpl) Error() error            { return e.Error_ }
func (e *EventImpl) Metadata() EventMetadata { return e.Metadata_ }
func (e *EventImpl) Payload() []byte         { return e.payload }

// SetPayload stores the raw JSON payload on the event implementation.
func (e *EventImpl) SetPayload(b []byte) { e.payload = b }

func (e *EventImpl) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("type", string(e.Type_))
	if e.Error_ != nil {
		ev.Err(e.Error_)
	}
	ev.Object("meta", e.Metadata_)
}

var _ Event = &EventImpl{}

// EventMetadata is carried on every event of a request and identifies the
// generation it belongs to.
type EventMetadata struct {
	ID        uuid.UUID `json:"message_id"`
	RequestID string    `json:"request_id,omitempty"`
	Model     string    `json:"model,omitempty"`
	Action    string    `json:"action,omitempty"`
	// Extra carries provider-specific values (stop reason, usage counts)
	Extra map[string]interface{} `json:"extra,omitempty"`
}

func (em EventMetadata) MarshalZerologObject(e *zerolog.Event) {
	e.Str("message_id", em.ID.String())
	if em.RequestID != "" {
		e.Str("request_id", em.RequestID)
	}
	if em.Model != "" {
		e.Str("model", em.Model)
	}
	if em.Action != "" {
		e.Str("action", em.Action)
	}
	if len(em.Extra) > 0 {
		e.Dict("extra", zerolog.Dict().Fields(em.Extra))
	}
}

type EventStart struct {
	EventImpl
}

func NewStartEvent(metadata EventMetadata) *EventStart {
	return &EventStart{
		EventImpl: EventImpl{Type_: EventTypeStart, Metadata_: metadata},
	}
}

var _ Event = &EventStart{}

// EventPartialCompletion is the event type for textual partial completion.
// Delta is exactly the provider text delta; Completion is the accumulated
// text so far, deltas included.
type EventPartialCompletion struct {
	EventImpl
	Delta      string `json:"delta"`
	Completion string `json:"completion"`
}

func NewPartialCompletionEvent(metadata EventMetadata, delta string, completion string) *EventPartialCompletion {
	return &EventPartialCompletion{
		EventImpl:  EventImpl{Type_: EventTypePartialCompletion, Metadata_: metadata},
		Delta:      delta,
		Completion: completion,
	}
}

var _ Event = &EventPartialCompletion{}

type ToolCall struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Input string `json:"input"`
}

func (tc ToolCall) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("id", tc.ID).Str("name", tc.Name).Str("input", tc.Input)
}

type EventToolCallStart struct {
	EventImpl
	ToolCall ToolCall `json:"tool_call"`
}

func NewToolCallStartEvent(metadata EventMetadata, toolCall ToolCall) *EventToolCallStart {
	return &EventToolCallStart{
		EventImpl: EventImpl{Type_: EventTypeToolCallStart, Metadata_: metadata},
		ToolCall:  toolCall,
	}
}

var _ Event = &EventToolCallStart{}

// EventToolCallDelta carries one input JSON fragment for an in-flight tool
// call. Fragments concatenate in arrival order; an individual fragment is
// not necessarily valid JSON on its own.
type EventToolCallDelta struct {
	EventImpl
	ID          string `json:"id"`
	PartialJSON string `json:"partial_json"`
}

func NewToolCallDeltaEvent(metadata EventMetadata, id string, partialJSON string) *EventToolCallDelta {
	return &EventToolCallDelta{
		EventImpl:   EventImpl{Type_: EventTypeToolCallDelta, Metadata_: metadata},
		ID:          id,
		PartialJSON: partialJSON,
	}
}

var _ Event = &EventToolCallDelta{}

// SearchResult is the normalized shape for one web search hit.
type SearchResult struct {
	Title   string `json:"title,omitempty"`
	URL     string `json:"url,omitempty"`
	Snippet string `json:"snippet,omitempty"`
	Domain  string `json:"domain,omitempty"`
}

type ToolResult struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Result  json.RawMessage `json:"result,omitempty"`
	Results []SearchResult  `json:"results,omitempty"`
}

func (tr ToolResult) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("id", tr.ID).Str("name", tr.Name)
	if len(tr.Result) > 0 {
		ev.RawJSON("result", tr.Result)
	}
	if len(tr.Results) > 0 {
		ev.Int("num_results", len(tr.Results))
	}
}

type EventToolResult struct {
	EventImpl
	ToolResult ToolResult `json:"tool_result"`
}

func NewToolResultEvent(metadata EventMetadata, toolResult ToolResult) *EventToolResult {
	return &EventToolResult{
		EventImpl:  EventImpl{Type_: EventTypeToolResult, Metadata_: metadata},
		ToolResult: toolResult,
	}
}

var _ Event = &EventToolResult{}

type EventWorkflow struct {
	EventImpl
	Workflow *workflow.Document `json:"workflow"`
}

func NewWorkflowEvent(metadata EventMetadata, doc *workflow.Document) *EventWorkflow {
	return &EventWorkflow{
		EventImpl: EventImpl{Type_: EventTypeWorkflow, Metadata_: metadata},
		Workflow:  doc,
	}
}

var _ Event = &EventWorkflow{}

type EventError struct {
	EventImpl
	ErrorString string `json:"error_string"`
}

func NewErrorEvent(metadata EventMetadata, err error) *EventError {
	return &EventError{
		EventImpl:   EventImpl{Type_: EventTypeError, Metadata_: metadata},
		ErrorString: err.Error(),
	}
}

var _ Event = &EventError{}

type EventFinal struct {
	EventImpl
	Text string `json:"text"`
}

func NewFinalEvent(metadata EventMetadata, text string) *EventFinal {
	return &EventFinal{
		EventImpl: EventImpl{Type_: EventTypeFinal, Metadata_: metadata},
		Text:      text,
	}
}

var _ Event = &EventFinal{}

func (e EventStart) MarshalZerologObject(ev *zerolog.Event) {
	e.EventImpl.MarshalZerologObject(ev)
}

func (e EventPartialCompletion) MarshalZerologObject(ev *zerolog.Event) {
	e.EventImpl.MarshalZerologObject(ev)
	ev.Str("delta", e.Delta).Int("completion_len", len(e.Completion))
}

func (e EventToolCallStart) MarshalZerologObject(ev *zerolog.Event) {
	e.EventImpl.MarshalZerologObject(ev)
	ev.Object("tool_call", e.ToolCall)
}

func (e EventToolCallDelta) MarshalZerologObject(ev *zerolog.Event) {
	e.EventImpl.MarshalZerologObject(ev)
	ev.Str("id", e.ID).Str("partial_json", e.PartialJSON)
}

func (e EventToolResult) MarshalZerologObject(ev *zerolog.Event) {
	e.EventImpl.MarshalZerologObject(ev)
	ev.Object("tool_result", e.ToolResult)
}

func (e EventWorkflow) MarshalZerologObject(ev *zerolog.Event) {
	e.EventImpl.MarshalZerologObject(ev)
	if e.Workflow != nil {
		ev.Str("workflow_name", e.Workflow.Name).Int("num_nodes", len(e.Workflow.Nodes))
	}
}

func (e EventError) MarshalZerologObject(ev *zerolog.Event) {
	e.EventImpl.MarshalZerologObject(ev)
	ev.Str("error", e.ErrorString)
}

func (e EventFinal) MarshalZerologObject(ev *zerolog.Event) {
	e.EventImpl.MarshalZerologObject(ev)
	ev.Int("text_len", len(e.Text))
}

// NewEventFromJson decodes a serialized event back into its typed form.
func NewEventFromJson(b []byte) (Event, error) {
	var e *EventImpl
	err := json.Unmarshal(b, &e)
	if err != nil {
		return nil, err
	}
	e.payload = b

	var (
		ret Event
		ok  bool
	)
	switch e.Type_ {
	case EventTypeStart:
		ret, ok = ToTypedEvent[EventStart](e)
	case EventTypePartialCompletion:
		ret, ok = ToTypedEvent[EventPartialCompletion](e)
	case EventTypeToolCallStart:
		ret, ok = ToTypedEvent[EventToolCallStart](e)
	case EventTypeToolCallDelta:
		ret, ok = ToTypedEvent[EventToolCallDelta](e)
	case EventTypeToolResult:
		ret, ok = ToTypedEvent[EventToolResult](e)
	case EventTypeWorkflow:
		ret, ok = ToTypedEvent[EventWorkflow](e)
	case EventTypeError:
		ret, ok = ToTypedEvent[EventError](e)
	case EventTypeFinal:
		ret, ok = ToTypedEvent[EventFinal](e)
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type_)
	}
	if !ok {
		return nil, fmt.Errorf("could not cast event to %s", e.Type_)
	}

	if impl, hasPayload := ret.(interface{ SetPayload([]byte) }); hasPayload {
		impl.SetPayload(b)
	}
	return ret, nil
}

func ToTypedEvent[T any](e Event) (*T, bool) {
	var ret *T
	err := json.Unmarshal(e.Payload(), &ret)
	if err != nil {
		return nil, false
	}

	return ret, true
}
