package events

import (
	"path"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/prentissw/chartedroots/internal/models"
	"github.com/prentissw/chartedroots/internal/parser"
	"github.com/prentissw/chartedroots/internal/timeline"
)

// Resolver resolves wikilink references against a snapshot of indexed notes.
// A link target matches a note by exact path (with or without ".md") or, as
// wikilinks usually are written, by base name. Ambiguous base names resolve
// to the lexically first path.
type Resolver struct {
	byPath map[string]models.Note
	byBase map[string]models.Note
}

var _ timeline.PersonResolver = (*Resolver)(nil)

// NewResolver indexes notes for lookup.
func NewResolver(notes []models.Note) *Resolver {
	sorted := slices.Clone(notes)
	slices.SortFunc(sorted, func(a, b models.Note) int { return strings.Compare(a.Path, b.Path) })

	r := &Resolver{
		byPath: make(map[string]models.Note, len(sorted)),
		byBase: make(map[string]models.Note, len(sorted)),
	}
	for _, n := range sorted {
		r.byPath[linkKey(n.Path)] = n
		base := linkKey(path.Base(n.Path))
		if _, ok := r.byBase[base]; !ok {
			r.byBase[base] = n
		}
	}
	return r
}

// linkKey normalises a link target or note path for comparison.
func linkKey(s string) string {
	s = strings.TrimSuffix(strings.TrimPrefix(s, "/"), ".md")
	return strings.ToLower(norm.NFC.String(s))
}

// Note returns the note a reference points at.
func (r *Resolver) Note(ref string) (models.Note, bool) {
	if r == nil {
		return models.Note{}, false
	}
	target, _ := parser.SplitLink(ref)
	if target == "" {
		return models.Note{}, false
	}
	key := linkKey(target)
	if n, ok := r.byPath[key]; ok {
		return n, true
	}
	if strings.Contains(key, "/") {
		return models.Note{}, false
	}
	n, ok := r.byBase[key]
	return n, ok
}

// ResolvePerson implements timeline.PersonResolver. The display name is the
// note title, or its base name when the note has none.
func (r *Resolver) ResolvePerson(ref string) (name, p string, ok bool) {
	n, ok := r.Note(ref)
	if !ok {
		return "", "", false
	}
	name = n.Title
	if name == "" {
		name = strings.TrimSuffix(path.Base(n.Path), ".md")
	}
	return name, n.Path, true
}

// resolveRefs rewrites references that name a note to that note's path.
// Anything else, such as a cr_id value, is kept verbatim.
func (r *Resolver) resolveRefs(refs []string) []string {
	if len(refs) == 0 {
		return nil
	}
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if n, ok := r.Note(ref); ok {
			out = append(out, n.Path)
			continue
		}
		if target, _ := parser.SplitLink(ref); target != "" {
			out = append(out, target)
		}
	}
	return out
}
