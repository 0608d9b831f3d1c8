package workflow

// Default values filled into accepted documents. Normalization is
// idempotent: fields that already carry a value are left untouched.
const (
	DefaultName        = "Generated Workflow"
	DefaultTypeVersion = 1
	DefaultMaxTries    = 3

	// nodes without a position are spaced left to right on the canvas
	positionBaseX    = 250
	positionSpacingX = 220
	positionY        = 300
)

func defaultSettings() map[string]interface{} {
	return map[string]interface{}{
		"executionOrder":        "v1",
		"saveExecutionProgress": true,
	}
}

func defaultTags() []string {
	return []string{"ai-generated"}
}

// Normalize fills required defaults for any missing optional field and
// returns the document for chaining. Node identity fields (id, name, type)
// are never touched; validation rejects documents where they are missing.
func Normalize(doc *Document) *Document {
	if doc == nil {
		return nil
	}

	if doc.Name == "" {
		doc.Name = DefaultName
	}
	if doc.Connections == nil {
		doc.Connections = map[string]ConnectionSet{}
	}
	if doc.Settings == nil {
		doc.Settings = defaultSettings()
	}
	if doc.Tags == nil {
		doc.Tags = defaultTags()
	}

	for i := range doc.Nodes {
		node := &doc.Nodes[i]
		if node.Parameters == nil {
			node.Parameters = map[string]interface{}{}
		}
		if node.Position == nil {
			node.Position = &Position{
				X: float64(positionBaseX + i*positionSpacingX),
				Y: positionY,
			}
		}
		if node.TypeVersion == 0 {
			node.TypeVersion = DefaultTypeVersion
		}
		if node.RetryOnFail == nil {
			retry := true
			node.RetryOnFail = &retry
		}
		if node.MaxTries == 0 {
			node.MaxTries = DefaultMaxTries
		}
	}

	return doc
}
