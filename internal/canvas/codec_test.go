package canvas

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/prentissw/chartedroots/internal/apperr"
)

const ns = "charted-roots"

func boolPtr(b bool) *bool { return &b }

func intPtr(n int) *int { return &n }

func sampleDoc() *Document {
	return &Document{
		Nodes: []Node{
			{ID: "n1", Type: KindFile, File: "Events/A & B.md", X: 0, Y: 0, Width: 200, Height: 100, Color: "4"},
			{ID: "n2", Type: KindFile, File: "Events/C.md", X: 250, Y: 0, Width: 200, Height: 100},
			{ID: "y1", Type: KindText, Text: "1900", X: 0, Y: -60, Width: 80, Height: 40},
		},
		Edges: []Edge{
			{ID: "e1", FromNode: "n1", FromSide: SideRight, ToNode: "n2", ToSide: SideLeft},
		},
		Metadata: &Metadata{
			Version: MetadataVersion,
			Frontmatter: map[string]*ExportMetadata{ns: {
				Type:                 ExportType,
				ExportedAt:           1700000000000,
				EventCount:           2,
				ColorScheme:          "event_type",
				LayoutStyle:          "horizontal",
				NodeWidth:            intPtr(200),
				NodeHeight:           intPtr(100),
				SpacingX:             intPtr(50),
				SpacingY:             intPtr(50),
				IncludeOrderingEdges: boolPtr(true),
				GroupByPerson:        boolPtr(false),
				FilterGroup:          "Clan A",
			}},
		},
	}
}

func TestEncode_Shape(t *testing.T) {
	data, err := Encode(sampleDoc())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	lines := strings.Split(string(data), "\n")
	if lines[0] != "{" || lines[1] != "\t\"nodes\":[" {
		t.Fatalf("unexpected header: %q", lines[:2])
	}
	if !strings.HasPrefix(lines[2], "\t\t{\"id\":\"n1\"") || !strings.HasSuffix(lines[2], "},") {
		t.Errorf("first node line = %q", lines[2])
	}
	if !strings.HasSuffix(lines[4], "}") || strings.HasSuffix(lines[4], ",") {
		t.Errorf("last node line must not end with a comma: %q", lines[4])
	}
	if lines[5] != "\t]," || lines[6] != "\t\"edges\":[" {
		t.Errorf("edges header = %q", lines[5:7])
	}
	if strings.HasSuffix(lines[7], ",") {
		t.Errorf("single edge line has trailing comma: %q", lines[7])
	}
	if !strings.HasPrefix(lines[9], "\t\"metadata\":{") || lines[len(lines)-1] != "}" {
		t.Errorf("metadata/footer = %q ... %q", lines[9], lines[len(lines)-1])
	}
	if !bytes.Contains(data, []byte(`"Events/A & B.md"`)) {
		t.Error("file path was HTML-escaped")
	}
	if !json.Valid(data) {
		t.Error("output is not valid JSON")
	}
}

func TestEncode_ByteStable(t *testing.T) {
	first, err := Encode(sampleDoc())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := Encode(sampleDoc())
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("run %d differs:\n%s\n---\n%s", i, first, again)
		}
	}
}

func TestEncode_Empty(t *testing.T) {
	data, err := Encode(&Document{})
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n\t\"nodes\":[\n\t],\n\t\"edges\":[\n\t]\n}"
	if string(data) != want {
		t.Errorf("got %q, want %q", data, want)
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	data, err := Encode(sampleDoc())
	if err != nil {
		t.Fatal(err)
	}
	doc, meta, err := Decode(data, ns)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(doc.Nodes) != 3 || len(doc.Edges) != 1 {
		t.Errorf("decoded %d nodes, %d edges", len(doc.Nodes), len(doc.Edges))
	}
	if meta.FilterGroup != "Clan A" || meta.IncludeYearMarkers != nil || !*meta.IncludeOrderingEdges {
		t.Errorf("metadata = %+v", meta)
	}
	if n, ok := doc.NodeByID("y1"); !ok || n.Text != "1900" {
		t.Errorf("NodeByID(y1) = %+v, %v", n, ok)
	}
}

func TestDecode_Failures(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"not json", `{"nodes":[`, apperr.ErrInvalidDocument},
		{"no metadata", `{"nodes":[],"edges":[]}`, apperr.ErrNotTimeline},
		{"wrong namespace", `{"nodes":[],"edges":[],"metadata":{"version":"1.0","frontmatter":{"other":{"type":"timeline-export"}}}}`, apperr.ErrNotTimeline},
		{"wrong type", `{"nodes":[],"edges":[],"metadata":{"version":"1.0","frontmatter":{"charted-roots":{"type":"family-chart"}}}}`, apperr.ErrNotTimeline},
		{"marker not string", `{"nodes":[],"edges":[],"metadata":{"frontmatter":{"charted-roots":{"type":1}}}}`, apperr.ErrNotTimeline},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode([]byte(tt.data), ns)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if IsTimeline([]byte(tt.data), ns) {
				t.Error("IsTimeline = true")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	doc := sampleDoc()
	if err := Validate(doc); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	doc.Edges = append(doc.Edges, Edge{ID: "e2", FromNode: "n1", ToNode: "ghost"})
	if err := Validate(doc); err == nil {
		t.Error("expected error for dangling edge")
	}
	doc = sampleDoc()
	doc.Nodes = append(doc.Nodes, Node{ID: "n1"})
	if err := Validate(doc); err == nil {
		t.Error("expected error for duplicate id")
	}
}

func TestStyleOverrides_Merge(t *testing.T) {
	layout := "vertical"
	w := 300
	var base *StyleOverrides
	if !base.Empty() {
		t.Error("nil overrides should be empty")
	}
	merged := base.Merge(&StyleOverrides{LayoutStyle: &layout})
	merged = merged.Merge(&StyleOverrides{NodeWidth: &w})
	if merged.LayoutStyle == nil || *merged.LayoutStyle != "vertical" || merged.NodeWidth == nil || *merged.NodeWidth != 300 {
		t.Errorf("merged = %+v", merged)
	}
	if merged.Empty() {
		t.Error("merged overrides reported empty")
	}
}
