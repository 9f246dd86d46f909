package exportservice

import (
	"github.com/prentissw/chartedroots/internal/canvas"
	"github.com/prentissw/chartedroots/internal/timeline"
)

// buildMetadata records everything needed to regenerate the document.
func buildMetadata(opts timeline.Options, f timeline.Filters, count int, exportedAt int64, overrides *canvas.StyleOverrides) *canvas.ExportMetadata {
	if overrides.Empty() {
		overrides = nil
	}
	return &canvas.ExportMetadata{
		Type:                 canvas.ExportType,
		ExportedAt:           exportedAt,
		EventCount:           count,
		ColorScheme:          string(opts.ColorScheme),
		LayoutStyle:          string(opts.LayoutStyle),
		NodeWidth:            ptr(opts.NodeWidth),
		NodeHeight:           ptr(opts.NodeHeight),
		SpacingX:             ptr(opts.SpacingX),
		SpacingY:             ptr(opts.SpacingY),
		IncludeOrderingEdges: ptr(opts.IncludeOrderingEdges),
		GroupByPerson:        ptr(opts.GroupByPerson),
		IncludeYearMarkers:   ptr(opts.IncludeYearMarkers),
		FilterPerson:         f.Person,
		FilterEventType:      f.EventType,
		FilterGroup:          f.Group,
		StyleOverrides:       overrides,
	}
}

// storedOptions rebuilds options from metadata. Precedence, lowest first:
// defaults, stored values, stored style overrides.
func storedOptions(defaults timeline.Options, m *canvas.ExportMetadata) timeline.Options {
	o := defaults
	if m.LayoutStyle != "" {
		o.LayoutStyle = timeline.LayoutStyle(m.LayoutStyle)
	}
	if m.ColorScheme != "" {
		o.ColorScheme = timeline.ColorScheme(m.ColorScheme)
	}
	if m.NodeWidth != nil && *m.NodeWidth > 0 {
		o.NodeWidth = *m.NodeWidth
	}
	if m.NodeHeight != nil && *m.NodeHeight > 0 {
		o.NodeHeight = *m.NodeHeight
	}
	if m.SpacingX != nil && *m.SpacingX >= 0 {
		o.SpacingX = *m.SpacingX
	}
	if m.SpacingY != nil && *m.SpacingY >= 0 {
		o.SpacingY = *m.SpacingY
	}
	if m.IncludeOrderingEdges != nil {
		o.IncludeOrderingEdges = *m.IncludeOrderingEdges
	}
	if m.GroupByPerson != nil {
		o.GroupByPerson = *m.GroupByPerson
	}
	if m.IncludeYearMarkers != nil {
		o.IncludeYearMarkers = *m.IncludeYearMarkers
	}
	return applyOverrides(o, m.StyleOverrides)
}

func applyOverrides(o timeline.Options, s *canvas.StyleOverrides) timeline.Options {
	if s == nil {
		return o
	}
	if s.LayoutStyle != nil {
		o.LayoutStyle = timeline.LayoutStyle(*s.LayoutStyle)
	}
	if s.ColorScheme != nil {
		o.ColorScheme = timeline.ColorScheme(*s.ColorScheme)
	}
	if s.NodeWidth != nil {
		o.NodeWidth = *s.NodeWidth
	}
	if s.NodeHeight != nil {
		o.NodeHeight = *s.NodeHeight
	}
	if s.SpacingX != nil {
		o.SpacingX = *s.SpacingX
	}
	if s.SpacingY != nil {
		o.SpacingY = *s.SpacingY
	}
	if s.IncludeOrderingEdges != nil {
		o.IncludeOrderingEdges = *s.IncludeOrderingEdges
	}
	if s.GroupByPerson != nil {
		o.GroupByPerson = *s.GroupByPerson
	}
	if s.IncludeYearMarkers != nil {
		o.IncludeYearMarkers = *s.IncludeYearMarkers
	}
	return o
}

func storedFilters(m *canvas.ExportMetadata) timeline.Filters {
	return timeline.Filters{
		Person:    m.FilterPerson,
		EventType: m.FilterEventType,
		Group:     m.FilterGroup,
	}
}

func ptr[T any](v T) *T { return &v }
