package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/flowsmith/flowsmith/pkg/security"
)

// Client owns the single outbound streaming call to the provider. It builds
// the request, classifies failures into the gateway error taxonomy, and
// exposes the raw provider event stream without interpreting it.
type Client struct {
	httpClient *http.Client
	apiKey     string
	APIVersion string
	BaseURL    string

	// AllowLocalNetworks relaxes outbound URL validation for tests and
	// self-hosted provider proxies.
	AllowLocalNetworks bool
}

const defaultAPIVersion = "2023-06-01"

// NewClient initializes and returns a new API client.
func NewClient(apiKey string, baseURL string, apiVersion ...string) *Client {
	version := defaultAPIVersion
	if len(apiVersion) > 0 {
		version = apiVersion[0]
	}
	return &Client{
		httpClient: &http.Client{},
		apiKey:     apiKey,
		BaseURL:    baseURL,
		APIVersion: version,
	}
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", c.APIVersion)
	req.Header.Set("Content-Type", "application/json")
}

// StreamMessage issues the streaming messages request and returns a channel
// of provider-native events. The returned channel is closed when the stream
// ends for any reason; cancellation of ctx stops reading promptly.
func (c *Client) StreamMessage(ctx context.Context, req *MessageRequest) (<-chan StreamingEvent, error) {
	if err := security.ValidateOutboundURL(c.BaseURL, security.OutboundURLOptions{
		AllowHTTP:          c.AllowLocalNetworks,
		AllowLocalNetworks: c.AllowLocalNetworks,
	}); err != nil {
		return nil, &GatewayError{Kind: ErrKindInvalidRequest, Message: "invalid base URL: " + err.Error()}
	}

	req.Stream = true
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &GatewayError{Kind: ErrKindInvalidRequest, Message: err.Error()}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/messages", bytes.NewBuffer(body))
	if err != nil {
		return nil, &GatewayError{Kind: ErrKindInvalidRequest, Message: err.Error()}
	}
	c.setHeaders(httpReq)

	log.Debug().Str("model", req.Model).Int("num_messages", len(req.Messages)).
		Int("num_tools", len(req.Tools)).Int("num_mcp_servers", len(req.MCPServers)).
		Msg("opening provider stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &GatewayError{Kind: ErrKindProviderUnavailable, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)
		respBody, _ := io.ReadAll(resp.Body)
		var errorResp ErrorResponse
		message := string(respBody)
		if unmarshalErr := json.Unmarshal(respBody, &errorResp); unmarshalErr == nil && errorResp.Error.Message != "" {
			message = errorResp.Error.Message
		}
		return nil, newGatewayError(resp.StatusCode, message)
	}

	events := make(chan StreamingEvent)
	go streamEvents(ctx, resp, events)

	return events, nil
}
