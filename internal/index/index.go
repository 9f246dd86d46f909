package index

import (
	"github.com/prentissw/chartedroots/internal/models"
	"github.com/prentissw/chartedroots/internal/timeline"
)

// NoteIndex defines the interface for index operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type NoteIndex interface {
	Upsert(e Entry) error
	Delete(path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	GetNote(path string) (*models.Note, error)
	ListNotes(kind string) ([]models.Note, error)
	ListEvents() ([]timeline.Event, error)
	ListTimelines() ([]models.Timeline, error)
	GetTimeline(path string) (*models.Timeline, error)
	Backlinks(target string) ([]string, error)
	Close() error
}

// Verify *DB satisfies NoteIndex at compile time.
var _ NoteIndex = (*DB)(nil)

// Entry is everything indexed for one vault file. Event is set for event
// notes and Timeline for timeline canvases. Links are outgoing note
// references: wikilinks for Markdown, file nodes for canvases.
type Entry struct {
	Note     models.Note
	Event    *timeline.Event
	Timeline *models.Timeline
	Links    []string
}
