package relay

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/flowsmith/flowsmith/pkg/claude"
	"github.com/flowsmith/flowsmith/pkg/events"
	"github.com/flowsmith/flowsmith/pkg/prompts"
	"github.com/flowsmith/flowsmith/pkg/security"
	"github.com/flowsmith/flowsmith/pkg/settings"
	"github.com/flowsmith/flowsmith/pkg/tools"
)

// Service wires the prompt builder, tool router, model gateway and relay
// into one per-request pipeline. One Service instance is shared across
// requests; all mutable per-request state lives in the Relay it creates.
type Service struct {
	settings *settings.Settings
	registry tools.Registry
}

func NewService(st *settings.Settings, registry tools.Registry) *Service {
	return &Service{
		settings: st,
		registry: registry,
	}
}

// Generate runs one generation request to completion, publishing every
// relay event to the sink in emission order. The returned error reports
// gateway or stream failures; a generation without an extractable document
// is a success.
func (s *Service) Generate(ctx context.Context, req *GenerationRequest, sink events.EventSink) error {
	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	action := prompts.ParseAction(req.Action)
	metadata := events.EventMetadata{
		ID:        uuid.New(),
		RequestID: requestID,
		Model:     s.settings.Model,
		Action:    string(action),
	}

	logger := log.With().Str("request_id", requestID).Str("action", string(action)).Logger()
	logger.Debug().Int("history_len", len(req.History)).Msg("generation started")

	system, userPrefix := prompts.Build(action, req.ExistingDocument, req.CredentialHints, req.ToolServers)
	decision := tools.Decide(req.Message, string(action))

	messageReq, err := s.buildMessageRequest(system, userPrefix, req, decision)
	if err != nil {
		s.publish(ctx, sink, events.NewErrorEvent(metadata, err))
		return err
	}

	client := claude.NewClient(s.settings.APIKey, s.settings.BaseURL)
	client.AllowLocalNetworks = s.settings.AllowLocalNetworks

	eventCh, err := client.StreamMessage(ctx, messageReq)
	if err != nil {
		logger.Error().Err(err).Msg("provider stream failed to open")
		s.publish(ctx, sink, events.NewErrorEvent(metadata, err))
		return err
	}

	r := NewRelay(metadata, s.registry)

	for {
		select {
		case <-ctx.Done():
			// client went away; stop reading promptly, no background draining
			logger.Debug().Msg("generation cancelled")
			return ctx.Err()

		case event, ok := <-eventCh:
			if !ok {
				if !r.Terminated() {
					// stream ended without message_stop: truncated generation
					for _, out := range r.Fail(errors.New("provider stream ended unexpectedly")) {
						s.publish(ctx, sink, out)
					}
					return errors.New("provider stream ended unexpectedly")
				}
				logger.Debug().Int("text_len", len(r.Text())).Msg("generation completed")
				return nil
			}

			translated, err := r.Translate(ctx, event)
			if err != nil {
				logger.Error().Err(err).Msg("failed to translate provider event")
				for _, out := range r.Fail(err) {
					s.publish(ctx, sink, out)
				}
				return err
			}
			for _, out := range translated {
				s.publish(ctx, sink, out)
			}
		}
	}
}

// buildMessageRequest assembles the single outbound provider request.
func (s *Service) buildMessageRequest(system string, userPrefix string, req *GenerationRequest, decision tools.RouterDecision) (*claude.MessageRequest, error) {
	var messages []claude.Message
	for _, turn := range req.History {
		role := claude.RoleUser
		if turn.Role == "assistant" {
			role = claude.RoleAssistant
		}
		messages = append(messages, claude.NewTextMessage(role, turn.Content))
	}
	messages = append(messages, claude.NewTextMessage(claude.RoleUser, userPrefix+req.Message))

	var declarations []claude.Tool
	if decision.UseWebSearch {
		declarations = append(declarations, claude.NewWebSearchTool(decision.MaxWebSearchUses))
	}
	if s.registry != nil {
		for _, def := range s.registry.List() {
			schema, err := json.Marshal(def.InputSchema)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to marshal input schema for tool %s", def.Name)
			}
			declarations = append(declarations, claude.Tool{
				Name:        def.Name,
				Description: def.Description,
				InputSchema: schema,
			})
		}
	}

	return &claude.MessageRequest{
		Model:      s.settings.Model,
		Messages:   messages,
		MaxTokens:  s.settings.MaxTokens,
		System:     system,
		Stream:     true,
		Tools:      declarations,
		MCPServers: s.mcpServers(req.ToolServers),
	}, nil
}

// mcpServers converts enabled tool-server descriptors into provider
// declarations. Descriptors with unsafe endpoints are dropped with a
// warning rather than failing the request.
func (s *Service) mcpServers(descriptors []tools.ServerDescriptor) []claude.MCPServer {
	var servers []claude.MCPServer
	for _, d := range tools.EnabledServers(descriptors) {
		if err := security.ValidateOutboundURL(d.EndpointURL, security.OutboundURLOptions{
			AllowLocalNetworks: s.settings.AllowLocalNetworks,
		}); err != nil {
			log.Warn().Err(err).Str("server", d.DisplayName).Msg("dropping tool server with unsafe endpoint")
			continue
		}
		server := claude.MCPServer{
			Type:               "url",
			URL:                d.EndpointURL,
			Name:               d.DisplayName,
			AuthorizationToken: d.AuthToken,
		}
		if len(d.EnabledTools) > 0 {
			server.ToolConfiguration = &claude.MCPToolConfiguration{
				Enabled:      true,
				AllowedTools: d.EnabledTools,
			}
		}
		servers = append(servers, server)
	}
	return servers
}

func (s *Service) publish(ctx context.Context, sink events.EventSink, event events.Event) {
	if sink != nil {
		if err := sink.PublishEvent(event); err != nil {
			log.Warn().Err(err).Str("event_type", string(event.Type())).Msg("failed to publish event to sink")
		}
	}
	// best-effort publish to context sinks
	events.PublishEventToContext(ctx, event)
}
