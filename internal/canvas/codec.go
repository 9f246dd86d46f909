package canvas

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/prentissw/chartedroots/internal/apperr"
)

// Encode serialises doc one node or edge per line, tab-indented, with a
// trailing comma after every element but the last:
//
//	{
//		"nodes":[
//			{...},
//			{...}
//		],
//		"edges":[
//			{...}
//		],
//		"metadata":{...}
//	}
func Encode(doc *Document) ([]byte, error) {
	var b bytes.Buffer
	b.WriteString("{\n\t\"nodes\":[\n")
	for i, n := range doc.Nodes {
		if err := writeElement(&b, n, i == len(doc.Nodes)-1); err != nil {
			return nil, fmt.Errorf("canvas: encode node %s: %w", n.ID, err)
		}
	}
	b.WriteString("\t],\n\t\"edges\":[\n")
	for i, e := range doc.Edges {
		if err := writeElement(&b, e, i == len(doc.Edges)-1); err != nil {
			return nil, fmt.Errorf("canvas: encode edge %s: %w", e.ID, err)
		}
	}
	b.WriteString("\t]")
	if doc.Metadata != nil {
		meta, err := marshal(doc.Metadata)
		if err != nil {
			return nil, fmt.Errorf("canvas: encode metadata: %w", err)
		}
		b.WriteString(",\n\t\"metadata\":")
		b.Write(meta)
	}
	b.WriteString("\n}")
	return b.Bytes(), nil
}

func writeElement(b *bytes.Buffer, v any, last bool) error {
	line, err := marshal(v)
	if err != nil {
		return err
	}
	b.WriteString("\t\t")
	b.Write(line)
	if !last {
		b.WriteByte(',')
	}
	b.WriteByte('\n')
	return nil
}

// marshal is json.Marshal without HTML escaping and without the trailing
// newline json.Encoder adds.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Decode parses a timeline document. The document must be valid JSON and
// carry metadata.frontmatter[namespace].type == ExportType.
func Decode(data []byte, namespace string) (*Document, *ExportMetadata, error) {
	if !gjson.ValidBytes(data) {
		return nil, nil, fmt.Errorf("canvas: %w", apperr.ErrInvalidDocument)
	}
	marker := gjson.GetBytes(data, "metadata.frontmatter."+escapePath(namespace)+".type")
	if marker.Type != gjson.String || marker.Str != ExportType {
		return nil, nil, fmt.Errorf("canvas: %w", apperr.ErrNotTimeline)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("canvas: %w: %v", apperr.ErrInvalidDocument, err)
	}
	meta := doc.Export(namespace)
	if meta == nil {
		return nil, nil, fmt.Errorf("canvas: %w", apperr.ErrNotTimeline)
	}
	return &doc, meta, nil
}

// IsTimeline reports whether data is a timeline document for namespace
// without decoding it fully.
func IsTimeline(data []byte, namespace string) bool {
	if !gjson.ValidBytes(data) {
		return false
	}
	return gjson.GetBytes(data, "metadata.frontmatter."+escapePath(namespace)+".type").String() == ExportType
}

// escapePath escapes gjson path metacharacters in a single key.
func escapePath(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\', '!', '=', '<', '>', '%':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Validate checks the structural invariants: unique node ids and edge
// endpoints that reference existing nodes.
func Validate(doc *Document) error {
	ids := make(map[string]struct{}, len(doc.Nodes))
	for _, n := range doc.Nodes {
		if _, dup := ids[n.ID]; dup {
			return fmt.Errorf("canvas: duplicate node id %q", n.ID)
		}
		ids[n.ID] = struct{}{}
	}
	for _, e := range doc.Edges {
		if _, ok := ids[e.FromNode]; !ok {
			return fmt.Errorf("canvas: edge %q references unknown node %q", e.ID, e.FromNode)
		}
		if _, ok := ids[e.ToNode]; !ok {
			return fmt.Errorf("canvas: edge %q references unknown node %q", e.ID, e.ToNode)
		}
	}
	return nil
}
