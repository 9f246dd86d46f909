package timeline

import (
	"encoding/hex"
	"regexp"
	"slices"
	"strconv"

	"github.com/google/uuid"

	"github.com/prentissw/chartedroots/internal/canvas"
)

// Year marker geometry.
const (
	YearMarkerWidth  = 80
	YearMarkerHeight = 40
	YearMarkerGap    = 20
)

// Ordering edge styling.
const (
	OrderingEdgeColor = SlotPurple
	OrderingEdgeLabel = "before"
)

// idNamespace seeds name-based node and edge ids so a rebuild of the same
// input reissues the same ids.
var idNamespace = uuid.MustParse("7d0f3c2e-5b1a-4c8e-9f6d-2a4b8c1e0d93")

var yearMarkerRe = regexp.MustCompile(`^\d{4}$`)

// Graph is the node/edge output of the builder.
type Graph struct {
	Nodes []canvas.Node
	Edges []canvas.Edge
}

// BuildOptions controls what the builder emits beyond event nodes.
type BuildOptions struct {
	Options
	YearMarkers bool
}

// Builder turns positioned events into canvas nodes and edges.
type Builder struct {
	Colors *Classifier
}

// Build assigns node ids to placed (mutating its NodeID fields) and returns
// the graph. Edges whose endpoints do not resolve are skipped.
func (b *Builder) Build(placed []PositionedEvent, opts BuildOptions) Graph {
	var g Graph
	ids := newIDSet()
	byKey := make(map[string]int, 2*len(placed))
	for i := range placed {
		pe := &placed[i]
		pe.NodeID = ids.issue("event", pe.Key())
		for _, k := range []string{pe.ID, pe.Path} {
			if _, ok := byKey[k]; k != "" && !ok {
				byKey[k] = i
			}
		}
		g.Nodes = append(g.Nodes, canvas.Node{
			ID:     pe.NodeID,
			Type:   canvas.KindFile,
			File:   pe.Path,
			X:      pe.X,
			Y:      pe.Y,
			Width:  opts.NodeWidth,
			Height: opts.NodeHeight,
			Color:  string(b.Colors.Classify(pe.Event, opts.ColorScheme)),
		})
	}

	fromSide, toSide := canvas.SideRight, canvas.SideLeft
	if opts.vertical() {
		fromSide, toSide = canvas.SideBottom, canvas.SideTop
	}

	if opts.LayoutStyle != LayoutGantt {
		chrono := slices.Clone(placed)
		slices.SortStableFunc(chrono, func(a, b PositionedEvent) int { return a.Index - b.Index })
		for i := 0; i+1 < len(chrono); i++ {
			from, to := chrono[i].NodeID, chrono[i+1].NodeID
			g.Edges = append(g.Edges, canvas.Edge{
				ID:       ids.issue("sequence", from, to),
				FromNode: from,
				FromSide: fromSide,
				ToNode:   to,
				ToSide:   toSide,
			})
		}
	}

	if opts.IncludeOrderingEdges {
		type pair struct{ from, to string }
		seen := make(map[pair]struct{})
		for _, pe := range placed {
			for _, ref := range pe.Before {
				j, ok := byKey[ref]
				if !ok || placed[j].NodeID == pe.NodeID {
					continue
				}
				to := placed[j].NodeID
				if _, dup := seen[pair{pe.NodeID, to}]; dup {
					continue
				}
				seen[pair{pe.NodeID, to}] = struct{}{}
				g.Edges = append(g.Edges, canvas.Edge{
					ID:       ids.issue("before", pe.NodeID, to),
					FromNode: pe.NodeID,
					FromSide: fromSide,
					ToNode:   to,
					ToSide:   toSide,
					ToEnd:    canvas.EndArrow,
					Color:    string(OrderingEdgeColor),
					Label:    OrderingEdgeLabel,
				})
			}
		}
	}

	if opts.YearMarkers && opts.LayoutStyle != LayoutGantt {
		g.Nodes = append(g.Nodes, yearMarkers(placed, opts, ids)...)
	}
	return g
}

// bounds accumulates the bounding box of placed nodes.
type bounds struct {
	minX, minY, maxX, maxY int
	set                    bool
}

func (b *bounds) updateRect(x, y, w, h int) {
	if !b.set {
		b.minX, b.minY, b.maxX, b.maxY, b.set = x, y, x+w, y+h, true
		return
	}
	b.minX, b.minY = min(b.minX, x), min(b.minY, y)
	b.maxX, b.maxY = max(b.maxX, x+w), max(b.maxY, y+h)
}

// yearMarkers emits one text node per distinct year, above (horizontal) or
// left of (vertical) the events of that year.
func yearMarkers(placed []PositionedEvent, opts BuildOptions, ids *idSet) []canvas.Node {
	boxes := make(map[int]*bounds)
	var years []int
	for _, pe := range placed {
		y, ok := pe.Year()
		if !ok {
			continue
		}
		box, seen := boxes[y]
		if !seen {
			box = &bounds{}
			boxes[y] = box
			years = append(years, y)
		}
		box.updateRect(pe.X, pe.Y, opts.NodeWidth, opts.NodeHeight)
	}
	slices.Sort(years)

	out := make([]canvas.Node, 0, len(years))
	for _, y := range years {
		box := boxes[y]
		x, top := box.minX, box.minY-YearMarkerHeight-YearMarkerGap
		if opts.vertical() {
			x, top = box.minX-YearMarkerWidth-YearMarkerGap, box.minY
		}
		text := strconv.Itoa(y)
		out = append(out, canvas.Node{
			ID:     ids.issue("year", text),
			Type:   canvas.KindText,
			Text:   text,
			X:      x,
			Y:      top,
			Width:  YearMarkerWidth,
			Height: YearMarkerHeight,
		})
	}
	return out
}

// IsYearMarker reports whether n looks like a generated year marker.
func IsYearMarker(n canvas.Node) bool {
	return n.Type == canvas.KindText && yearMarkerRe.MatchString(n.Text)
}

// idSet issues deterministic, unique 16-hex-digit ids.
type idSet struct {
	used   map[string]int
	issued map[string]struct{}
}

func newIDSet() *idSet {
	return &idSet{used: make(map[string]int), issued: make(map[string]struct{})}
}

func (s *idSet) issue(parts ...string) string {
	name := ""
	for _, p := range parts {
		name += p + "\x00"
	}
	if n := s.used[name]; n > 0 {
		s.used[name] = n + 1
		name += strconv.Itoa(n)
	} else {
		s.used[name] = 1
	}
	for {
		u := uuid.NewSHA1(idNamespace, []byte(name))
		id := hex.EncodeToString(u[:8])
		if _, dup := s.issued[id]; !dup {
			s.issued[id] = struct{}{}
			return id
		}
		name += "\x00"
	}
}
