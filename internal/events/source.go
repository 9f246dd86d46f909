package events

import (
	"context"
	"fmt"
	"strings"

	"github.com/prentissw/chartedroots/internal/models"
	"github.com/prentissw/chartedroots/internal/timeline"
)

// Catalog lists indexed notes and events. *index.DB satisfies it.
type Catalog interface {
	ListNotes(kind string) ([]models.Note, error)
	ListEvents() ([]timeline.Event, error)
}

// Source loads fully resolved events from a catalog.
type Source struct {
	catalog Catalog
	types   timeline.TypeRegistry
	folder  string
}

// NewSource creates a Source. types may be nil.
func NewSource(catalog Catalog, types timeline.TypeRegistry) *Source {
	return &Source{catalog: catalog, types: types}
}

// InFolder restricts the events s loads to notes under folder. Person and
// ordering references still resolve against the whole vault.
func (s *Source) InFolder(folder string) *Source {
	folder = strings.Trim(strings.ReplaceAll(folder, "\\", "/"), "/")
	if folder != "" {
		folder += "/"
	}
	s.folder = folder
	return s
}

// Load returns every indexed event with before/after references normalised
// to note paths and categories filled from the type registry, together with
// a person resolver over the same snapshot.
func (s *Source) Load(ctx context.Context) (timeline.EventSet, error) {
	if err := ctx.Err(); err != nil {
		return timeline.EventSet{}, err
	}
	notes, err := s.catalog.ListNotes("")
	if err != nil {
		return timeline.EventSet{}, fmt.Errorf("events: list notes: %w", err)
	}
	raw, err := s.catalog.ListEvents()
	if err != nil {
		return timeline.EventSet{}, fmt.Errorf("events: list events: %w", err)
	}

	r := NewResolver(notes)
	out := make([]timeline.Event, 0, len(raw))
	for _, e := range raw {
		if s.folder != "" && !strings.HasPrefix(e.Path, s.folder) {
			continue
		}
		out = append(out, s.resolve(r, e))
	}
	return timeline.EventSet{Events: out, Persons: r}, nil
}

func (s *Source) resolve(r *Resolver, e timeline.Event) timeline.Event {
	e.Before = r.resolveRefs(e.Before)
	e.After = r.resolveRefs(e.After)
	if e.Category == "" && s.types != nil {
		if t, ok := s.types.Lookup(e.EventType); ok {
			e.Category = t.Category
		}
	}
	return e
}
