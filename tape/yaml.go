package tape

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// tapeTag is the type discriminator carried by persisted tape documents.
const tapeTag = "!tape"

// timestampLayout is the wire format for recorded timestamps: ISO-8601 with
// millisecond precision, always UTC. Formatting is fixed so that loading a
// document and re-serializing the unmodified tape is byte-equivalent.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// The document structs mirror the persisted layout. Struct field order fixes
// the key order; yaml.v3 sorts header map keys, so serialization is stable.
type document struct {
	Name         string                `yaml:"name"`
	Interactions []interactionDocument `yaml:"interactions"`
}

type interactionDocument struct {
	Recorded string           `yaml:"recorded"`
	Request  requestDocument  `yaml:"request"`
	Response responseDocument `yaml:"response"`
}

type requestDocument struct {
	Method  string            `yaml:"method"`
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
	Body    string            `yaml:"body,omitempty"`
}

type responseDocument struct {
	Status  int               `yaml:"status"`
	Headers map[string]string `yaml:"headers"`
	Body    string            `yaml:"body"`
}

// Marshal serializes the tape as a !tape-tagged YAML document.
func Marshal(t *Tape) ([]byte, error) {
	doc := document{Name: t.Name()}
	for _, in := range t.Interactions() {
		doc.Interactions = append(doc.Interactions, interactionDocument{
			Recorded: in.Recorded.UTC().Format(timestampLayout),
			Request: requestDocument{
				Method:  in.Request.Method,
				URL:     in.Request.URL,
				Headers: in.Request.Headers,
				Body:    string(in.Request.Body),
			},
			Response: responseDocument{
				Status:  in.Response.Status,
				Headers: in.Response.Headers,
				Body:    string(in.Response.Body),
			},
		})
	}

	var node yaml.Node
	if err := node.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode tape %q: %w", t.Name(), err)
	}
	node.Tag = tapeTag
	node.Style = yaml.TaggedStyle

	data, err := yaml.Marshal(&node)
	if err != nil {
		return nil, fmt.Errorf("marshal tape %q: %w", t.Name(), err)
	}
	return data, nil
}

// Unmarshal parses a persisted !tape document into a Tape bound to the given
// mode and match rule.
func Unmarshal(data []byte, mode Mode, rule MatchRule) (*Tape, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse tape document: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, fmt.Errorf("empty tape document")
	}

	body := root.Content[0]
	if body.Tag != tapeTag {
		return nil, fmt.Errorf("document is not a tape: unexpected tag %q", body.Tag)
	}
	// Reset the tag so the decoder resolves the node as an ordinary mapping.
	body.Tag = "!!map"

	var doc document
	if err := body.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode tape document: %w", err)
	}

	interactions := make([]Interaction, 0, len(doc.Interactions))
	for i, in := range doc.Interactions {
		recorded, err := parseTimestamp(in.Recorded)
		if err != nil {
			return nil, fmt.Errorf("interactions[%d]: %w", i, err)
		}
		interactions = append(interactions, Interaction{
			Recorded: recorded,
			Request: Request{
				Method:  in.Request.Method,
				URL:     in.Request.URL,
				Headers: normalizeHeaders(in.Request.Headers),
				Body:    bodyBytes(in.Request.Body),
			},
			Response: Response{
				Status:  in.Response.Status,
				Headers: normalizeHeaders(in.Response.Headers),
				Body:    []byte(in.Response.Body),
			},
		})
	}

	return newLoaded(doc.Name, mode, rule, interactions), nil
}

func parseTimestamp(s string) (time.Time, error) {
	if ts, err := time.Parse(timestampLayout, s); err == nil {
		return ts, nil
	}
	// Documents written by hand may omit fractional seconds.
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid recorded timestamp %q", s)
	}
	return ts, nil
}

// normalizeHeaders maps an absent or empty headers block to nil; both
// serialize identically, and nil keeps in-memory comparisons uniform.
func normalizeHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	return headers
}

func bodyBytes(s string) []byte {
	if s == "" {
		return nil
	}
	return []byte(s)
}
