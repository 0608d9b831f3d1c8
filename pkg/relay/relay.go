package relay

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/flowsmith/flowsmith/pkg/claude"
	"github.com/flowsmith/flowsmith/pkg/events"
	"github.com/flowsmith/flowsmith/pkg/tools"
	"github.com/flowsmith/flowsmith/pkg/workflow"
)

// relayState names the phases of one request. The relay enters Streaming
// once, Finalizing exactly once on end-of-message, and Terminated after
// finalization or immediately on a provider error.
type relayState int

const (
	stateStreaming relayState = iota
	stateFinalizing
	stateTerminated
)

// Relay translates provider-native streaming events into the simplified
// client-facing event sequence, accumulating text and in-flight tool call
// input along the way. One instance serves exactly one request and is never
// shared across goroutines.
type Relay struct {
	metadata events.EventMetadata
	registry tools.Registry

	state       relayState
	accumulated strings.Builder
	// provider content blocks are keyed by stream index; tool blocks also
	// register in inFlight under the provider call id
	blocks   map[int]*blockState
	inFlight map[string]*toolCallState

	workflowEmitted bool
}

type blockState struct {
	blockType claude.ContentType
	callID    string
}

type toolCallState struct {
	name      string
	inputJSON strings.Builder
	complete  bool
}

func NewRelay(metadata events.EventMetadata, registry tools.Registry) *Relay {
	return &Relay{
		metadata: metadata,
		registry: registry,
		state:    stateStreaming,
		blocks:   make(map[int]*blockState),
		inFlight: make(map[string]*toolCallState),
	}
}

// Text returns the accumulated assistant text so far.
func (r *Relay) Text() string {
	return r.accumulated.String()
}

// Terminated reports whether the relay has reached its final state.
func (r *Relay) Terminated() bool {
	return r.state == stateTerminated
}

// Translate processes one provider event and returns zero or more client
// events, in emission order. Translation errors indicate a protocol
// violation by the provider stream; the caller should treat them as a
// stream failure for this request.
func (r *Relay) Translate(ctx context.Context, event claude.StreamingEvent) ([]events.Event, error) {
	if r.state == stateTerminated {
		log.Warn().Str("event_type", string(event.Type)).Msg("provider event after termination, dropping")
		return nil, nil
	}

	switch event.Type {
	case claude.PingType:
		return nil, nil

	case claude.MessageStartType:
		if event.Message == nil {
			return nil, errors.New("message_start event must carry a message")
		}
		if event.Message.Model != "" {
			r.metadata.Model = event.Message.Model
		}
		return []events.Event{events.NewStartEvent(r.metadata)}, nil

	case claude.ContentBlockStartType:
		return r.onBlockStart(event)

	case claude.ContentBlockDeltaType:
		return r.onBlockDelta(event)

	case claude.ContentBlockStopType:
		return r.onBlockStop(ctx, event)

	case claude.MessageDeltaType:
		if event.Delta != nil && event.Delta.StopReason != "" {
			r.extra("stop_reason", event.Delta.StopReason)
		}
		if event.Usage != nil {
			r.extra("output_tokens", event.Usage.OutputTokens)
		}
		return nil, nil

	case claude.MessageStopType:
		return r.finalize(), nil

	case claude.ErrorType:
		if event.Error == nil {
			return nil, errors.New("error event must carry an error")
		}
		// a malformed or truncated generation must not yield a half-parsed
		// document, so extraction is skipped entirely
		r.state = stateTerminated
		return []events.Event{
			events.NewErrorEvent(r.metadata, errors.New(event.Error.Message)),
		}, nil

	default:
		return nil, errors.Errorf("unknown provider event type: %s", event.Type)
	}
}

// Fail terminates the relay with a single error event. Used by the caller
// for transport-level read failures; no document is ever emitted afterwards.
func (r *Relay) Fail(err error) []events.Event {
	if r.state == stateTerminated {
		return nil
	}
	r.state = stateTerminated
	return []events.Event{events.NewErrorEvent(r.metadata, err)}
}

func (r *Relay) onBlockStart(event claude.StreamingEvent) ([]events.Event, error) {
	cb := event.ContentBlock
	if cb == nil {
		return nil, errors.New("content_block_start event must carry a content block")
	}
	if _, exists := r.blocks[event.Index]; exists {
		return nil, errors.Errorf("content block index %d already started", event.Index)
	}

	switch cb.Type {
	case claude.ContentTypeText:
		r.blocks[event.Index] = &blockState{blockType: cb.Type}
		return nil, nil

	case claude.ContentTypeToolUse, claude.ContentTypeServerToolUse:
		r.blocks[event.Index] = &blockState{blockType: cb.Type, callID: cb.ID}
		call := &toolCallState{name: cb.Name}
		initialInput := ""
		if len(cb.Input) > 0 && string(cb.Input) != "{}" {
			initialInput = string(cb.Input)
			call.inputJSON.WriteString(initialInput)
		}
		r.inFlight[cb.ID] = call
		return []events.Event{
			events.NewToolCallStartEvent(r.metadata, events.ToolCall{
				ID:    cb.ID,
				Name:  cb.Name,
				Input: initialInput,
			}),
		}, nil

	case claude.ContentTypeWebSearchToolResult:
		r.blocks[event.Index] = &blockState{blockType: cb.Type, callID: cb.ToolUseID}
		if call, ok := r.inFlight[cb.ToolUseID]; ok {
			call.complete = true
		}
		return []events.Event{
			events.NewToolResultEvent(r.metadata, events.ToolResult{
				ID:      cb.ToolUseID,
				Name:    claude.WebSearchToolName,
				Results: normalizeSearchResults(cb.Content),
			}),
		}, nil

	default:
		// unknown block kinds are tracked but produce no client events
		r.blocks[event.Index] = &blockState{blockType: cb.Type}
		return nil, nil
	}
}

func (r *Relay) onBlockDelta(event claude.StreamingEvent) ([]events.Event, error) {
	if event.Delta == nil {
		return nil, errors.New("content_block_delta event must carry a delta")
	}
	block, exists := r.blocks[event.Index]
	if !exists {
		return nil, errors.Errorf("content block index %d was never started", event.Index)
	}

	switch event.Delta.Type {
	case claude.TextDeltaType:
		r.accumulated.WriteString(event.Delta.Text)
		return []events.Event{
			events.NewPartialCompletionEvent(r.metadata, event.Delta.Text, r.accumulated.String()),
		}, nil

	case claude.InputJSONDeltaType:
		call, ok := r.inFlight[block.callID]
		if !ok {
			return nil, errors.Errorf("input delta for unknown tool call %q", block.callID)
		}
		// fragments concatenate in arrival order; the cumulative string is
		// only valid JSON once the call completes
		call.inputJSON.WriteString(event.Delta.PartialJSON)
		return []events.Event{
			events.NewToolCallDeltaEvent(r.metadata, block.callID, event.Delta.PartialJSON),
		}, nil

	default:
		return nil, nil
	}
}

func (r *Relay) onBlockStop(ctx context.Context, event claude.StreamingEvent) ([]events.Event, error) {
	block, exists := r.blocks[event.Index]
	if !exists {
		return nil, errors.Errorf("content block index %d was never started", event.Index)
	}

	if block.blockType != claude.ContentTypeToolUse {
		return nil, nil
	}

	call, ok := r.inFlight[block.callID]
	if !ok || call.complete {
		return nil, nil
	}
	call.complete = true

	// custom tools execute synchronously against the local registry; server
	// tools get their result relayed by the provider instead
	if r.registry == nil || !r.registry.Has(call.name) {
		return nil, nil
	}

	input := call.inputJSON.String()
	if input == "" {
		input = "{}"
	}
	if !json.Valid([]byte(input)) {
		log.Debug().Str("tool", call.name).Str("id", block.callID).Msg("tool input never became valid JSON, skipping execution")
		return nil, nil
	}

	def, err := r.registry.Get(call.name)
	if err != nil {
		return nil, nil
	}

	result, err := def.Handler(ctx, json.RawMessage(input))
	if err != nil {
		// handler failures are relayed as results, never as stream errors
		result = map[string]interface{}{"error": err.Error()}
	}
	payload, err := json.Marshal(result)
	if err != nil {
		payload = []byte(`{"error":"unserializable tool result"}`)
	}

	return []events.Event{
		events.NewToolResultEvent(r.metadata, events.ToolResult{
			ID:     block.callID,
			Name:   call.name,
			Result: payload,
		}),
	}, nil
}

// finalize runs extraction over the accumulated text and terminates the
// relay. At most one workflow event is ever produced, always followed by
// the final event.
func (r *Relay) finalize() []events.Event {
	r.state = stateFinalizing

	var out []events.Event
	fullText := r.accumulated.String()

	if doc := workflow.Extract(fullText); doc != nil && !r.workflowEmitted {
		workflow.CheckConnections(doc)
		r.workflowEmitted = true
		out = append(out, events.NewWorkflowEvent(r.metadata, doc))
		log.Debug().Str("workflow", doc.Name).Int("num_nodes", len(doc.Nodes)).Msg("extracted workflow document")
	} else if doc == nil {
		// absence of a document is a normal outcome, not an error
		log.Debug().Int("text_len", len(fullText)).Msg("no workflow document in generation")
	}

	out = append(out, events.NewFinalEvent(r.metadata, fullText))
	r.state = stateTerminated
	return out
}

func (r *Relay) extra(key string, value interface{}) {
	if r.metadata.Extra == nil {
		r.metadata.Extra = map[string]interface{}{}
	}
	r.metadata.Extra[key] = value
}

// normalizeSearchResults converts the provider's web search result list into
// the normalized record shape. Unparseable content yields an empty list,
// never an error.
func normalizeSearchResults(raw json.RawMessage) []events.SearchResult {
	if len(raw) == 0 {
		return []events.SearchResult{}
	}

	var providerResults []claude.WebSearchResult
	if err := json.Unmarshal(raw, &providerResults); err != nil {
		log.Debug().Err(err).Msg("unparseable web search result content")
		return []events.SearchResult{}
	}

	results := make([]events.SearchResult, 0, len(providerResults))
	for _, pr := range providerResults {
		if pr.Type != "" && pr.Type != "web_search_result" {
			continue
		}
		result := events.SearchResult{
			Title:   pr.Title,
			URL:     pr.URL,
			Snippet: pr.Snippet,
		}
		if parsed, err := url.Parse(pr.URL); err == nil {
			result.Domain = parsed.Hostname()
		}
		results = append(results, result)
	}
	return results
}
