package workflow

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"
)

// documentSchema is the minimal structural contract a candidate block must
// satisfy: a non-empty nodes array where every node carries a non-empty id,
// name and type. Everything else is optional and filled by Normalize.
const documentSchema = `{
	"type": "object",
	"required": ["nodes"],
	"properties": {
		"nodes": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["id", "name", "type"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"name": {"type": "string", "minLength": 1},
					"type": {"type": "string", "minLength": 1}
				}
			}
		}
	}
}`

var compiledDocumentSchema *gojsonschema.Schema

func init() {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(documentSchema))
	if err != nil {
		panic(fmt.Sprintf("invalid workflow document schema: %v", err))
	}
	compiledDocumentSchema = schema
}

// ValidateJSON checks a raw candidate block against the minimal document
// schema. Unparseable input is simply invalid, never an error.
func ValidateJSON(raw string) bool {
	result, err := compiledDocumentSchema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return false
	}
	return result.Valid()
}

// CheckConnections reports connection entries that reference node names not
// present in the document. Dangling references are flagged as warnings only;
// generated workflows are passed through as the model produced them.
func CheckConnections(doc *Document) []string {
	if doc == nil {
		return nil
	}

	names := make(map[string]struct{}, len(doc.Nodes))
	for _, n := range doc.Nodes {
		names[n.Name] = struct{}{}
	}

	var warnings []string
	for source, set := range doc.Connections {
		if _, ok := names[source]; !ok {
			warnings = append(warnings, fmt.Sprintf("connection source %q does not match any node", source))
		}
		for _, branch := range set.Main {
			for _, target := range branch {
				if _, ok := names[target.Node]; !ok {
					warnings = append(warnings, fmt.Sprintf("connection from %q targets unknown node %q", source, target.Node))
				}
			}
		}
	}

	if len(warnings) > 0 {
		log.Warn().Str("workflow", doc.Name).Strs("warnings", warnings).Msg("workflow has dangling connection references")
	}

	return warnings
}
