package workflow

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Document is an n8n-style workflow definition as extracted from model
// output. It is created once by the extractor and never mutated afterwards.
type Document struct {
	Name        string                   `json:"name"`
	Nodes       []Node                   `json:"nodes"`
	Connections map[string]ConnectionSet `json:"connections"`
	Active      bool                     `json:"active"`
	Settings    map[string]interface{}   `json:"settings"`
	Tags        []string                 `json:"tags"`
}

// ConnectionSet lists the outgoing connections of one node, grouped by
// output kind. n8n nests these as output -> branch -> targets.
type ConnectionSet struct {
	Main [][]ConnectionTarget `json:"main"`
}

// ConnectionTarget references a downstream node by name.
type ConnectionTarget struct {
	Node  string `json:"node"`
	Type  string `json:"type"`
	Index int    `json:"index"`
}

type Node struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	Type       string                 `json:"type"`
	Parameters map[string]interface{} `json:"parameters"`
	// Position is the editor canvas placement, serialized as [x, y].
	Position       *Position `json:"position,omitempty"`
	TypeVersion    float64   `json:"typeVersion,omitempty"`
	ContinueOnFail bool      `json:"continueOnFail,omitempty"`
	RetryOnFail    *bool     `json:"retryOnFail,omitempty"`
	MaxTries       int       `json:"maxTries,omitempty"`
}

type Position struct {
	X float64
	Y float64
}

func (p Position) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.X, p.Y})
}

func (p *Position) UnmarshalJSON(b []byte) error {
	var coords []float64
	if err := json.Unmarshal(b, &coords); err != nil {
		return err
	}
	if len(coords) != 2 {
		return errors.Errorf("position must have exactly 2 coordinates, got %d", len(coords))
	}
	p.X = coords[0]
	p.Y = coords[1]
	return nil
}

// Serialize renders the document as indented JSON. This is the canonical
// form embedded into analyze/edit prompts.
func (d *Document) Serialize() (string, error) {
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "failed to serialize workflow document")
	}
	return string(b), nil
}
