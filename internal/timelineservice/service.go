// Package timelineservice is the application layer shared by the HTTP API,
// the MCP server and the CLI. It loads events from the index and hands them
// to the export service.
package timelineservice

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/prentissw/chartedroots/internal/apperr"
	"github.com/prentissw/chartedroots/internal/canvas"
	"github.com/prentissw/chartedroots/internal/checksum"
	"github.com/prentissw/chartedroots/internal/events"
	"github.com/prentissw/chartedroots/internal/exportservice"
	"github.com/prentissw/chartedroots/internal/index"
	"github.com/prentissw/chartedroots/internal/parser"
	"github.com/prentissw/chartedroots/internal/storage"
	"github.com/prentissw/chartedroots/internal/timeline"
)

// EventItem is an event as listed to clients, with references resolved to
// display names.
type EventItem struct {
	Path         string   `json:"path"`
	ID           string   `json:"id,omitempty"`
	Title        string   `json:"title"`
	Date         string   `json:"date,omitempty"`
	DateEnd      string   `json:"date_end,omitempty"`
	EventType    string   `json:"event_type,omitempty"`
	Category     string   `json:"category,omitempty"`
	Confidence   string   `json:"confidence,omitempty"`
	Person       string   `json:"person,omitempty"`
	Participants []string `json:"participants"`
	Place        string   `json:"place,omitempty"`
	Groups       []string `json:"groups"`
	Before       []string `json:"before"`
	After        []string `json:"after"`
	SortOrder    *int     `json:"sort_order,omitempty"`
}

// TimelineItem is a lightweight item in a timeline list response.
type TimelineItem struct {
	Path        string    `json:"path"`
	Checksum    string    `json:"checksum"`
	LayoutStyle string    `json:"layout_style"`
	EventCount  int       `json:"event_count"`
	ExportedAt  time.Time `json:"exported_at"`
}

// TimelineDocument is the raw content of a timeline canvas.
type TimelineDocument struct {
	Path     string
	Checksum string
	Data     []byte
}

// Service coordinates the index, the event source and the export service.
type Service struct {
	store    storage.Provider
	db       *index.DB
	source   *events.Source
	exporter *exportservice.Service
	output   string
}

// NewService creates a new timeline service.
func NewService(store storage.Provider, db *index.DB, source *events.Source, exporter *exportservice.Service) *Service {
	return &Service{store: store, db: db, source: source, exporter: exporter}
}

// WithOutputFolder returns a copy of s that places bare document names under
// folder.
func (s *Service) WithOutputFolder(folder string) *Service {
	c := *s
	c.output = strings.Trim(strings.ReplaceAll(folder, "\\", "/"), "/")
	return &c
}

// ResolvePath places a bare document name under the output folder. Names
// with a directory part are vault-relative; a leading slash addresses the
// vault root.
func (s *Service) ResolvePath(name string) string {
	name = strings.TrimSpace(name)
	if s.output == "" || name == "" || strings.ContainsAny(name, "/\\") {
		return name
	}
	return path.Join(s.output, name)
}

// Exporter returns the underlying export service.
func (s *Service) Exporter() *exportservice.Service { return s.exporter }

// ListEvents returns the events matching f in chronological order. If the
// ordering references are cyclic the events are listed by path instead.
func (s *Service) ListEvents(ctx context.Context, f timeline.Filters) ([]EventItem, error) {
	set, err := s.source.Load(ctx)
	if err != nil {
		return nil, err
	}
	list := f.Apply(set.Events, set.Persons)
	if sorted, err := timeline.Sort(list); err == nil {
		list = sorted
	}
	items := make([]EventItem, len(list))
	for i, e := range list {
		items[i] = toItem(e, set.Persons)
	}
	return items, nil
}

func toItem(e timeline.Event, persons timeline.PersonResolver) EventItem {
	participants := make([]string, 0, len(e.Participants))
	for _, p := range e.Participants {
		participants = append(participants, timeline.PersonName(persons, p))
	}
	return EventItem{
		Path:         e.Path,
		ID:           e.ID,
		Title:        e.Title,
		Date:         e.Date,
		DateEnd:      e.DateEnd,
		EventType:    e.EventType,
		Category:     e.Category,
		Confidence:   string(e.Confidence),
		Person:       timeline.PersonName(persons, e.Principal),
		Participants: participants,
		Place:        parser.LinkDisplay(e.Place),
		Groups:       nonNilSlice(e.Groups),
		Before:       nonNilSlice(e.Before),
		After:        nonNilSlice(e.After),
		SortOrder:    e.SortOrder,
	}
}

// ListTimelines returns every indexed timeline canvas.
func (s *Service) ListTimelines(_ context.Context) ([]TimelineItem, error) {
	rows, err := s.db.ListTimelines()
	if err != nil {
		return nil, err
	}
	items := make([]TimelineItem, len(rows))
	for i, r := range rows {
		items[i] = TimelineItem{
			Path:        r.Path,
			Checksum:    r.Checksum,
			LayoutStyle: r.LayoutStyle,
			EventCount:  r.EventCount,
			ExportedAt:  r.ExportedAt,
		}
	}
	return items, nil
}

// GetTimeline reads a timeline canvas from storage.
func (s *Service) GetTimeline(_ context.Context, docPath string) (*TimelineDocument, error) {
	p, err := exportservice.NormalisePath(s.ResolvePath(docPath))
	if err != nil {
		return nil, err
	}
	data, err := s.store.Read(p)
	if err != nil {
		return nil, err
	}
	if !canvas.IsTimeline(data, s.exporter.Namespace()) {
		return nil, fmt.Errorf("timeline %s: %w", p, apperr.ErrNotTimeline)
	}
	return &TimelineDocument{Path: p, Checksum: checksum.Sum(data), Data: data}, nil
}

// Export loads the current events and exports them.
func (s *Service) Export(ctx context.Context, req exportservice.ExportRequest) exportservice.Result {
	req.Path = s.ResolvePath(req.Path)
	set, err := s.source.Load(ctx)
	if err != nil {
		return exportservice.Failed(req.Path, err)
	}
	return s.exporter.Export(ctx, req, set)
}

// Regenerate loads the current events and regenerates one document.
func (s *Service) Regenerate(ctx context.Context, req exportservice.RegenerateRequest) exportservice.Result {
	req.Path = s.ResolvePath(req.Path)
	set, err := s.source.Load(ctx)
	if err != nil {
		return exportservice.Failed(req.Path, err)
	}
	return s.exporter.Regenerate(ctx, req, set)
}

// RegenerateAll regenerates every indexed timeline against one snapshot of
// the events.
func (s *Service) RegenerateAll(ctx context.Context) ([]exportservice.Result, error) {
	tls, err := s.db.ListTimelines()
	if err != nil {
		return nil, err
	}
	if len(tls) == 0 {
		return nil, nil
	}
	set, err := s.source.Load(ctx)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(tls))
	for i, tl := range tls {
		paths[i] = tl.Path
	}
	return s.exporter.RegenerateMany(ctx, paths, set), nil
}

// DeleteTimeline removes a timeline canvas from storage and index.
func (s *Service) DeleteTimeline(ctx context.Context, docPath string) error {
	return s.exporter.Delete(ctx, s.ResolvePath(docPath))
}

func nonNilSlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
