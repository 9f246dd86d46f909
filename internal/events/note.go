// Package events maps vault notes to timeline events and resolves the
// wikilink references they carry.
package events

import (
	"path"
	"strings"

	"github.com/prentissw/chartedroots/internal/models"
	"github.com/prentissw/chartedroots/internal/parser"
	"github.com/prentissw/chartedroots/internal/timeline"
)

// Frontmatter keys.
const (
	KeyType       = "cr_type"
	KeyID         = "cr_id"
	KeyTitle      = "title"
	KeyDate       = "date"
	KeyDateEnd    = "date_end"
	KeyEventType  = "event_type"
	KeyConfidence = "confidence"
	KeyCategory   = "category"
	KeyPerson     = "person"
	KeyPersons    = "persons"
	KeyPlace      = "place"
	KeyBefore     = "before"
	KeyAfter      = "after"
	KeySortOrder  = "sort_order"
	KeyGroups     = "groups"
)

// NoteKind returns the kind of a Markdown note from its frontmatter.
func NoteKind(fm parser.Frontmatter) string {
	switch strings.ToLower(fm.String(KeyType)) {
	case "event":
		return models.KindEvent
	case "person":
		return models.KindPerson
	case "place":
		return models.KindPlace
	default:
		return models.KindNote
	}
}

// FromFrontmatter maps an event note to an Event. References are kept as
// written; Source.Load normalises them.
func FromFrontmatter(p string, fm parser.Frontmatter, title string) timeline.Event {
	if t := fm.String(KeyTitle); t != "" {
		title = t
	}
	if title == "" {
		title = strings.TrimSuffix(path.Base(p), path.Ext(p))
	}
	e := timeline.Event{
		ID:           fm.String(KeyID),
		Path:         p,
		Title:        title,
		Date:         fm.String(KeyDate),
		DateEnd:      fm.String(KeyDateEnd),
		EventType:    strings.ToLower(fm.String(KeyEventType)),
		Confidence:   timeline.ParseConfidence(fm.String(KeyConfidence)),
		Category:     strings.ToLower(fm.String(KeyCategory)),
		Principal:    fm.String(KeyPerson),
		Participants: fm.Strings(KeyPersons),
		Place:        fm.String(KeyPlace),
		Before:       fm.Strings(KeyBefore),
		After:        fm.Strings(KeyAfter),
		Groups:       fm.Strings(KeyGroups),
	}
	if n, ok := fm.Int(KeySortOrder); ok {
		e.SortOrder = &n
	}
	return e
}
