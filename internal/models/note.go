// Package models defines the vault records shared by the index, the API and
// the MCP server.
package models

import "time"

// Note kinds, derived from frontmatter and file extension.
const (
	KindNote     = "note"
	KindEvent    = "event"
	KindPerson   = "person"
	KindPlace    = "place"
	KindTimeline = "timeline"
)

// FileMeta is a lightweight representation returned by storage list operations.
type FileMeta struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Note is an indexed vault file.
type Note struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Kind      string    `json:"kind"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Timeline is an indexed timeline canvas.
type Timeline struct {
	Path        string    `json:"path"`
	Checksum    string    `json:"checksum"`
	LayoutStyle string    `json:"layout_style"`
	EventCount  int       `json:"event_count"`
	ExportedAt  time.Time `json:"exported_at"`
}
