package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"

	"github.com/flowsmith/flowsmith/pkg/workflow"
)

// Built-in custom tools. Handlers are pure: they assemble template documents
// from a fixed node catalog, no network I/O.

// nodeCatalog maps common service names to canonical n8n node types.
var nodeCatalog = map[string]struct {
	Type        string
	DisplayName string
}{
	"schedule":      {"n8n-nodes-base.scheduleTrigger", "Schedule Trigger"},
	"cron":          {"n8n-nodes-base.scheduleTrigger", "Schedule Trigger"},
	"webhook":       {"n8n-nodes-base.webhook", "Webhook"},
	"manual":        {"n8n-nodes-base.manualTrigger", "Manual Trigger"},
	"slack":         {"n8n-nodes-base.slack", "Slack"},
	"google sheets": {"n8n-nodes-base.googleSheets", "Google Sheets"},
	"googlesheets":  {"n8n-nodes-base.googleSheets", "Google Sheets"},
	"gmail":         {"n8n-nodes-base.gmail", "Gmail"},
	"http":          {"n8n-nodes-base.httpRequest", "HTTP Request"},
	"http request":  {"n8n-nodes-base.httpRequest", "HTTP Request"},
	"notion":        {"n8n-nodes-base.notion", "Notion"},
	"airtable":      {"n8n-nodes-base.airtable", "Airtable"},
	"discord":       {"n8n-nodes-base.discord", "Discord"},
	"telegram":      {"n8n-nodes-base.telegram", "Telegram"},
	"postgres":      {"n8n-nodes-base.postgres", "Postgres"},
	"mysql":         {"n8n-nodes-base.mySql", "MySQL"},
	"github":        {"n8n-nodes-base.github", "GitHub"},
	"jira":          {"n8n-nodes-base.jira", "Jira"},
	"hubspot":       {"n8n-nodes-base.hubspot", "HubSpot"},
	"salesforce":    {"n8n-nodes-base.salesforce", "Salesforce"},
	"set":           {"n8n-nodes-base.set", "Edit Fields"},
	"if":            {"n8n-nodes-base.if", "If"},
	"code":          {"n8n-nodes-base.code", "Code"},
}

func lookupNode(service string) (string, string, bool) {
	entry, ok := nodeCatalog[strings.ToLower(strings.TrimSpace(service))]
	if !ok {
		return "", "", false
	}
	return entry.Type, entry.DisplayName, true
}

type skeletonInput struct {
	Trigger string `json:"trigger" jsonschema:"required,description=Trigger kind or service (schedule, webhook, manual, ...)"`
	Service string `json:"service" jsonschema:"required,description=Service the workflow acts on (slack, google sheets, ...)"`
}

type catalogInput struct {
	Service string `json:"service" jsonschema:"required,description=Service name to look up"`
}

// WorkflowSkeleton builds a minimal two-node template document for a
// trigger/service pair. Unknown names fall back to webhook and httpRequest
// so the model always receives a usable starting point.
func WorkflowSkeleton(_ context.Context, input json.RawMessage) (interface{}, error) {
	var in skeletonInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, errors.Wrap(err, "invalid workflow_skeleton input")
	}

	triggerType, triggerName, ok := lookupNode(in.Trigger)
	if !ok {
		triggerType, triggerName = "n8n-nodes-base.webhook", "Webhook"
	}
	actionType, actionName, ok := lookupNode(in.Service)
	if !ok {
		actionType, actionName = "n8n-nodes-base.httpRequest", "HTTP Request"
	}

	doc := &workflow.Document{
		Name: fmt.Sprintf("%s to %s", triggerName, actionName),
		Nodes: []workflow.Node{
			{ID: "trigger", Name: triggerName, Type: triggerType, Parameters: map[string]interface{}{}},
			{ID: "action", Name: actionName, Type: actionType, Parameters: map[string]interface{}{}},
		},
		Connections: map[string]workflow.ConnectionSet{
			triggerName: {Main: [][]workflow.ConnectionTarget{{{Node: actionName, Type: "main", Index: 0}}}},
		},
	}
	return workflow.Normalize(doc), nil
}

// NodeCatalogLookup resolves a service name to its canonical n8n node type.
func NodeCatalogLookup(_ context.Context, input json.RawMessage) (interface{}, error) {
	var in catalogInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, errors.Wrap(err, "invalid node_catalog_lookup input")
	}

	nodeType, displayName, ok := lookupNode(in.Service)
	if !ok {
		return map[string]interface{}{"found": false, "service": in.Service}, nil
	}
	return map[string]interface{}{
		"found":       true,
		"service":     in.Service,
		"type":        nodeType,
		"displayName": displayName,
	}, nil
}

// DefaultRegistry returns a registry with the built-in template tools.
func DefaultRegistry() *InMemoryRegistry {
	reflector := &jsonschema.Reflector{DoNotReference: true}

	registry := NewInMemoryRegistry()
	_ = registry.Register(Definition{
		Name:        "workflow_skeleton",
		Description: "Build a minimal workflow template for a trigger/service pair as a starting point.",
		InputSchema: reflector.Reflect(&skeletonInput{}),
		Handler:     WorkflowSkeleton,
	})
	_ = registry.Register(Definition{
		Name:        "node_catalog_lookup",
		Description: "Look up the canonical n8n node type for a service name.",
		InputSchema: reflector.Reflect(&catalogInput{}),
		Handler:     NodeCatalogLookup,
	})
	return registry
}
