package tools

// ServerDescriptor describes one caller-attached external tool server the
// model may invoke during generation. Descriptors are supplied by the
// settings collaborator and are read-only to the core.
type ServerDescriptor struct {
	EndpointURL  string   `json:"endpointUrl"`
	DisplayName  string   `json:"displayName"`
	AuthToken    string   `json:"authToken,omitempty"`
	EnabledTools []string `json:"enabledTools,omitempty"`
	ToolsEnabled bool     `json:"toolsEnabled"`
}

// EnabledServers filters descriptors down to the ones whose tools are
// enabled and that carry an endpoint.
func EnabledServers(servers []ServerDescriptor) []ServerDescriptor {
	var enabled []ServerDescriptor
	for _, s := range servers {
		if s.ToolsEnabled && s.EndpointURL != "" {
			enabled = append(enabled, s)
		}
	}
	return enabled
}
