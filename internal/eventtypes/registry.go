// Package eventtypes is the event-type registry: a built-in table of
// genealogical and narrative event types that configuration can extend or
// override.
package eventtypes

import (
	"fmt"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/prentissw/chartedroots/internal/timeline"
)

// Categories.
const (
	CategoryCore      = "core"
	CategoryExtended  = "extended"
	CategoryNarrative = "narrative"
	CategoryCustom    = "custom"
)

var builtin = []timeline.EventType{
	// Core vital events.
	{ID: "birth", Name: "Birth", Color: "#22c55e", Category: CategoryCore, Icon: "baby"},
	{ID: "baptism", Name: "Baptism", Color: "#06b6d4", Category: CategoryCore, Icon: "droplet"},
	{ID: "marriage", Name: "Marriage", Color: "#ec4899", Category: CategoryCore, Icon: "heart"},
	{ID: "divorce", Name: "Divorce", Color: "#f97316", Category: CategoryCore, Icon: "heart-crack"},
	{ID: "death", Name: "Death", Color: "#6b7280", Category: CategoryCore, Icon: "skull"},
	{ID: "burial", Name: "Burial", Color: "#78716c", Category: CategoryCore, Icon: "cross"},

	// Extended life events.
	{ID: "residence", Name: "Residence", Color: "#3b82f6", Category: CategoryExtended, Icon: "home"},
	{ID: "occupation", Name: "Occupation", Color: "#eab308", Category: CategoryExtended, Icon: "briefcase"},
	{ID: "education", Name: "Education", Color: "#8b5cf6", Category: CategoryExtended, Icon: "graduation-cap"},
	{ID: "military", Name: "Military Service", Color: "#65a30d", Category: CategoryExtended, Icon: "shield"},
	{ID: "immigration", Name: "Immigration", Color: "#0ea5e9", Category: CategoryExtended, Icon: "plane-landing"},
	{ID: "emigration", Name: "Emigration", Color: "#0284c7", Category: CategoryExtended, Icon: "plane-takeoff"},
	{ID: "naturalization", Name: "Naturalization", Color: "#14b8a6", Category: CategoryExtended, Icon: "flag"},
	{ID: "census", Name: "Census", Color: "#64748b", Category: CategoryExtended, Icon: "clipboard-list"},
	{ID: "religious", Name: "Religious Event", Color: "#a855f7", Category: CategoryExtended, Icon: "church"},
	{ID: "medical", Name: "Medical", Color: "#ef4444", Category: CategoryExtended, Icon: "stethoscope"},
	{ID: "property", Name: "Property", Color: "#d97706", Category: CategoryExtended, Icon: "landmark"},
	{ID: "legal", Name: "Legal", Color: "#475569", Category: CategoryExtended, Icon: "scale"},

	// Narrative events for worldbuilding vaults.
	{ID: "anecdote", Name: "Anecdote", Color: "#f59e0b", Category: CategoryNarrative, Icon: "message-circle"},
	{ID: "battle", Name: "Battle", Color: "#dc2626", Category: CategoryNarrative, Icon: "swords"},
	{ID: "coronation", Name: "Coronation", Color: "#facc15", Category: CategoryNarrative, Icon: "crown"},
	{ID: "founding", Name: "Founding", Color: "#16a34a", Category: CategoryNarrative, Icon: "building"},
	{ID: "journey", Name: "Journey", Color: "#2563eb", Category: CategoryNarrative, Icon: "map"},
	{ID: "prophecy", Name: "Prophecy", Color: "#7c3aed", Category: CategoryNarrative, Icon: "sparkles"},

	{ID: "custom", Name: "Custom", Color: "#9ca3af", Category: CategoryCustom, Icon: "calendar"},
}

// Registry resolves event type ids. The zero value is not usable; create one
// with New.
type Registry struct {
	types map[string]timeline.EventType
}

// New returns a registry holding the built-in types with extra applied on
// top. An extra entry replaces the built-in type with the same id; empty
// fields in an override inherit the built-in value.
func New(extra ...timeline.EventType) (*Registry, error) {
	r := &Registry{types: make(map[string]timeline.EventType, len(builtin)+len(extra))}
	for _, t := range builtin {
		r.types[t.ID] = t
	}
	for i, t := range extra {
		t.ID = normaliseID(t.ID)
		if base, ok := r.types[t.ID]; ok {
			t = inherit(t, base)
		}
		if t.Category == "" {
			t.Category = CategoryCustom
		}
		if t.Name == "" {
			t.Name = t.ID
		}
		if err := validate(t); err != nil {
			return nil, fmt.Errorf("event type %d (%q): %w", i, t.ID, err)
		}
		r.types[t.ID] = t
	}
	return r, nil
}

// Lookup implements timeline.TypeRegistry. Ids are matched case-insensitively.
func (r *Registry) Lookup(id string) (timeline.EventType, bool) {
	if r == nil {
		return timeline.EventType{}, false
	}
	t, ok := r.types[normaliseID(id)]
	return t, ok
}

// All returns every registered type ordered by category then id.
func (r *Registry) All() []timeline.EventType {
	out := make([]timeline.EventType, 0, len(r.types))
	for _, t := range r.types {
		out = append(out, t)
	}
	rank := func(c string) int {
		switch c {
		case CategoryCore:
			return 0
		case CategoryExtended:
			return 1
		case CategoryNarrative:
			return 2
		default:
			return 3
		}
	}
	slices.SortFunc(out, func(a, b timeline.EventType) int {
		if d := rank(a.Category) - rank(b.Category); d != 0 {
			return d
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func normaliseID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

func inherit(t, base timeline.EventType) timeline.EventType {
	if t.Name == "" {
		t.Name = base.Name
	}
	if t.Color == "" {
		t.Color = base.Color
	}
	if t.Category == "" {
		t.Category = base.Category
	}
	if t.Icon == "" {
		t.Icon = base.Icon
	}
	return t
}

func validate(t timeline.EventType) error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.ID, validation.Required),
		validation.Field(&t.Color, validation.Required, validation.By(hexColor)),
		validation.Field(&t.Category, validation.In(CategoryCore, CategoryExtended, CategoryNarrative, CategoryCustom)),
	)
}

func hexColor(v any) error {
	s, _ := v.(string)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	if _, err := colorful.Hex(s); err != nil {
		return fmt.Errorf("must be a #rrggbb color")
	}
	return nil
}
