package workflow

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Extract scans the full assistant text for fenced code blocks and returns
// the first one that parses as a valid workflow document, normalized.
// Returns nil when no block qualifies; absence of a document is a normal
// outcome, not an error.
func Extract(fullText string) *Document {
	for _, block := range fencedBlocks(fullText) {
		doc := parseCandidate(block)
		if doc != nil {
			return Normalize(doc)
		}
	}
	return nil
}

type fencedBlock struct {
	code     string
	language string
}

// fencedBlocks collects fenced code block contents in document order.
func fencedBlocks(markdownText string) []fencedBlock {
	var blocks []fencedBlock
	source := []byte(markdownText)

	document := goldmark.DefaultParser().Parse(
		text.NewReader(source),
	)

	err := ast.Walk(document, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if v, ok := n.(*ast.FencedCodeBlock); ok {
			lines := v.Lines()
			if lines.Len() == 0 {
				return ast.WalkContinue, nil
			}
			blocks = append(blocks, fencedBlock{
				code:     string(source[lines.At(0).Start:lines.At(lines.Len()-1).Stop]),
				language: string(v.Language(source)),
			})
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to walk markdown AST")
		return nil
	}

	return blocks
}

// parseCandidate decodes one fenced block into a Document, or nil when the
// block is not a valid workflow. Parse failures are skipped silently; the
// model may show an example or a fragment before the real answer.
func parseCandidate(block fencedBlock) *Document {
	switch strings.ToLower(block.language) {
	case "", "json":
	default:
		return nil
	}

	code := strings.TrimSpace(block.code)
	if code == "" || !gjson.Valid(code) {
		return nil
	}

	// cheap structural probe before full schema validation and decode
	nodes := gjson.Get(code, "nodes")
	if !nodes.IsArray() || len(nodes.Array()) == 0 {
		return nil
	}

	if !ValidateJSON(code) {
		return nil
	}

	var doc Document
	if err := json.Unmarshal([]byte(code), &doc); err != nil {
		log.Debug().Err(err).Msg("candidate block passed schema validation but failed to decode")
		return nil
	}

	return &doc
}
