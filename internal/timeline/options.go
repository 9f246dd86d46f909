package timeline

import (
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// LayoutStyle selects the primary axis of the layout.
type LayoutStyle string

// Layout styles.
const (
	LayoutHorizontal LayoutStyle = "horizontal"
	LayoutVertical   LayoutStyle = "vertical"
	LayoutGantt      LayoutStyle = "gantt"
)

// Option defaults.
const (
	DefaultNodeWidth  = 200
	DefaultNodeHeight = 100
	DefaultSpacingX   = 50
	DefaultSpacingY   = 50
)

// Options controls layout and graph building.
type Options struct {
	LayoutStyle          LayoutStyle `json:"layoutStyle" yaml:"layout_style"`
	ColorScheme          ColorScheme `json:"colorScheme" yaml:"color_scheme"`
	NodeWidth            int         `json:"nodeWidth" yaml:"node_width"`
	NodeHeight           int         `json:"nodeHeight" yaml:"node_height"`
	SpacingX             int         `json:"spacingX" yaml:"spacing_x"`
	SpacingY             int         `json:"spacingY" yaml:"spacing_y"`
	IncludeOrderingEdges bool        `json:"includeOrderingEdges" yaml:"include_ordering_edges"`
	GroupByPerson        bool        `json:"groupByPerson" yaml:"group_by_person"`
	IncludeYearMarkers   bool        `json:"includeYearMarkers" yaml:"include_year_markers"`
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		LayoutStyle:          LayoutHorizontal,
		ColorScheme:          SchemeEventType,
		NodeWidth:            DefaultNodeWidth,
		NodeHeight:           DefaultNodeHeight,
		SpacingX:             DefaultSpacingX,
		SpacingY:             DefaultSpacingY,
		IncludeOrderingEdges: true,
		IncludeYearMarkers:   true,
	}
}

// Validate validates the options.
func (o *Options) Validate() error {
	return validation.ValidateStruct(o,
		validation.Field(&o.LayoutStyle, validation.Required,
			validation.In(LayoutHorizontal, LayoutVertical, LayoutGantt)),
		validation.Field(&o.ColorScheme, validation.Required,
			validation.In(SchemeEventType, SchemeCategory, SchemeConfidence, SchemeMonochrome)),
		validation.Field(&o.NodeWidth, validation.Required, validation.Min(1)),
		validation.Field(&o.NodeHeight, validation.Required, validation.Min(1)),
		validation.Field(&o.SpacingX, validation.Min(0)),
		validation.Field(&o.SpacingY, validation.Min(0)),
	)
}

// vertical reports whether in-sequence placement runs down the y axis.
func (o Options) vertical() bool {
	return o.LayoutStyle == LayoutVertical
}

// Filters restrict which events are exported. Empty fields match everything.
type Filters struct {
	Person    string `json:"person,omitempty"`
	EventType string `json:"eventType,omitempty"`
	Group     string `json:"group,omitempty"`
}

// Empty reports whether no filter is set.
func (f Filters) Empty() bool {
	return f.Person == "" && f.EventType == "" && f.Group == ""
}

// Apply returns the events matching every set filter, in input order.
func (f Filters) Apply(events []Event, persons PersonResolver) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if f.match(e, persons) {
			out = append(out, e)
		}
	}
	return out
}

func (f Filters) match(e Event, persons PersonResolver) bool {
	if f.EventType != "" && !strings.EqualFold(e.EventType, f.EventType) {
		return false
	}
	if f.Group != "" && !slices.Contains(e.Groups, f.Group) {
		return false
	}
	if f.Person != "" {
		return matchesPerson(e, f.Person, persons)
	}
	return true
}

// matchesPerson compares want against the raw reference and resolved name of
// the principal and every participant.
func matchesPerson(e Event, want string, persons PersonResolver) bool {
	want = strings.TrimSpace(want)
	refs := append([]string{e.Principal}, e.Participants...)
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if strings.EqualFold(ref, want) || strings.EqualFold(PersonName(persons, ref), PersonName(persons, want)) {
			return true
		}
	}
	return false
}
