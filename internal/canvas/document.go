// Package canvas defines the persisted timeline canvas document and its
// codec. The encoder emits a fixed line-per-element layout so unchanged
// input produces byte-identical output.
package canvas

// ExportType marks a document as a timeline export.
const ExportType = "timeline-export"

// MetadataVersion is the version written into every metadata block.
const MetadataVersion = "1.0"

// NodeKind is the canvas node type.
type NodeKind string

// Node kinds.
const (
	KindFile NodeKind = "file"
	KindText NodeKind = "text"
)

// Side is a node edge attachment point.
type Side string

// Sides.
const (
	SideTop    Side = "top"
	SideRight  Side = "right"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
)

// End is an edge terminator.
type End string

// Edge ends.
const (
	EndNone  End = "none"
	EndArrow End = "arrow"
)

// Node is a positioned canvas node. File is set for file nodes, Text for
// text nodes.
type Node struct {
	ID     string   `json:"id"`
	Type   NodeKind `json:"type"`
	File   string   `json:"file,omitempty"`
	Text   string   `json:"text,omitempty"`
	X      int      `json:"x"`
	Y      int      `json:"y"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Color  string   `json:"color,omitempty"`
}

// Edge connects two nodes.
type Edge struct {
	ID       string `json:"id"`
	FromNode string `json:"fromNode"`
	FromSide Side   `json:"fromSide"`
	ToNode   string `json:"toNode"`
	ToSide   Side   `json:"toSide"`
	FromEnd  End    `json:"fromEnd,omitempty"`
	ToEnd    End    `json:"toEnd,omitempty"`
	Color    string `json:"color,omitempty"`
	Label    string `json:"label,omitempty"`
}

// Document is a canvas: nodes, edges and an optional metadata block.
type Document struct {
	Nodes    []Node    `json:"nodes"`
	Edges    []Edge    `json:"edges"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

// Metadata is the self-describing block embedded in a document. Frontmatter
// is keyed by plugin namespace.
type Metadata struct {
	Version     string                     `json:"version"`
	Frontmatter map[string]*ExportMetadata `json:"frontmatter"`
}

// ExportMetadata records the parameters a timeline was generated with.
// Geometry and boolean settings are pointers so a missing key can be told
// apart from zero or false.
type ExportMetadata struct {
	Type                 string          `json:"type"`
	ExportedAt           int64           `json:"exportedAt"`
	EventCount           int             `json:"eventCount"`
	ColorScheme          string          `json:"colorScheme,omitempty"`
	LayoutStyle          string          `json:"layoutStyle,omitempty"`
	NodeWidth            *int            `json:"nodeWidth"`
	NodeHeight           *int            `json:"nodeHeight"`
	SpacingX             *int            `json:"spacingX"`
	SpacingY             *int            `json:"spacingY"`
	IncludeOrderingEdges *bool           `json:"includeOrderingEdges,omitempty"`
	GroupByPerson        *bool           `json:"groupByPerson,omitempty"`
	IncludeYearMarkers   *bool           `json:"includeYearMarkers,omitempty"`
	FilterPerson         string          `json:"filterPerson,omitempty"`
	FilterEventType      string          `json:"filterEventType,omitempty"`
	FilterGroup          string          `json:"filterGroup,omitempty"`
	StyleOverrides       *StyleOverrides `json:"styleOverrides,omitempty"`
}

// StyleOverrides are caller-supplied option values that win over the stored
// metadata on regeneration. Nil fields are not overridden.
type StyleOverrides struct {
	LayoutStyle          *string `json:"layoutStyle,omitempty"`
	ColorScheme          *string `json:"colorScheme,omitempty"`
	NodeWidth            *int    `json:"nodeWidth,omitempty"`
	NodeHeight           *int    `json:"nodeHeight,omitempty"`
	SpacingX             *int    `json:"spacingX,omitempty"`
	SpacingY             *int    `json:"spacingY,omitempty"`
	IncludeOrderingEdges *bool   `json:"includeOrderingEdges,omitempty"`
	GroupByPerson        *bool   `json:"groupByPerson,omitempty"`
	IncludeYearMarkers   *bool   `json:"includeYearMarkers,omitempty"`
}

// Empty reports whether no override is set.
func (s *StyleOverrides) Empty() bool {
	return s == nil || *s == StyleOverrides{}
}

// Merge returns s with every field set in o replacing the field in s.
func (s *StyleOverrides) Merge(o *StyleOverrides) *StyleOverrides {
	out := StyleOverrides{}
	if s != nil {
		out = *s
	}
	if o == nil {
		return &out
	}
	if o.LayoutStyle != nil {
		out.LayoutStyle = o.LayoutStyle
	}
	if o.ColorScheme != nil {
		out.ColorScheme = o.ColorScheme
	}
	if o.NodeWidth != nil {
		out.NodeWidth = o.NodeWidth
	}
	if o.NodeHeight != nil {
		out.NodeHeight = o.NodeHeight
	}
	if o.SpacingX != nil {
		out.SpacingX = o.SpacingX
	}
	if o.SpacingY != nil {
		out.SpacingY = o.SpacingY
	}
	if o.IncludeOrderingEdges != nil {
		out.IncludeOrderingEdges = o.IncludeOrderingEdges
	}
	if o.GroupByPerson != nil {
		out.GroupByPerson = o.GroupByPerson
	}
	if o.IncludeYearMarkers != nil {
		out.IncludeYearMarkers = o.IncludeYearMarkers
	}
	return &out
}

// Export returns the export metadata stored under namespace, or nil.
func (d *Document) Export(namespace string) *ExportMetadata {
	if d == nil || d.Metadata == nil {
		return nil
	}
	return d.Metadata.Frontmatter[namespace]
}

// NodeByID returns the node with the given id.
func (d *Document) NodeByID(id string) (Node, bool) {
	for _, n := range d.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}
