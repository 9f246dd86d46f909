// Package exportservice writes timeline canvases and regenerates them from
// their embedded metadata. It is the boundary between the pure layout core
// and vault storage: every public entry point reports through a Result and
// writes to a given path are serialised.
package exportservice

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/prentissw/chartedroots/internal/apperr"
	"github.com/prentissw/chartedroots/internal/canvas"
	"github.com/prentissw/chartedroots/internal/checksum"
	"github.com/prentissw/chartedroots/internal/storage"
	"github.com/prentissw/chartedroots/internal/timeline"
)

// DefaultNamespace is the metadata namespace written into exported documents.
const DefaultNamespace = "charted-roots"

// MarkerMode controls year markers when a timeline is regenerated.
type MarkerMode string

// Marker modes.
const (
	// MarkersRecompute derives markers from the new layout, as export does.
	MarkersRecompute MarkerMode = "recompute"
	// MarkersPreserve carries the previous document's marker nodes forward.
	MarkersPreserve MarkerMode = "preserve"
	// MarkersDrop writes no markers.
	MarkersDrop MarkerMode = "drop"
)

// Notification kinds passed to the notifier.
const (
	KindExported    = "timeline.exported"
	KindRegenerated = "timeline.regenerated"
	KindDeleted     = "timeline.deleted"
)

// Index keeps the vault index current after the service writes a file.
type Index interface {
	IndexFile(path string, data []byte) error
	Delete(path string) error
}

// Result is the outcome of an export or regeneration. Failures are reported
// here rather than returned; Err exposes the cause for errors.Is checks.
type Result struct {
	Success    bool     `json:"success"`
	Path       string   `json:"path,omitempty"`
	Error      string   `json:"error,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
	EventCount int      `json:"eventCount,omitempty"`
	Checksum   string   `json:"checksum,omitempty"`

	err error
}

// Err returns the failure cause, or nil on success.
func (r Result) Err() error { return r.err }

// Failed builds the Result reporting err for path p.
func Failed(p string, err error) Result {
	return Result{Path: p, Error: err.Error(), err: err}
}

// ExportRequest describes a new timeline export.
type ExportRequest struct {
	Path    string           `json:"path"`
	Options timeline.Options `json:"options"`
	Filters timeline.Filters `json:"filters"`
}

// RegenerateRequest describes a regeneration of an existing document.
// Overrides win over everything stored in the document and are recorded
// for the next regeneration. A non-empty IfMatch must equal the current
// document checksum.
type RegenerateRequest struct {
	Path      string                 `json:"path"`
	Overrides *canvas.StyleOverrides `json:"overrides,omitempty"`
	IfMatch   string                 `json:"-"`
}

// Service exports and regenerates timeline canvases.
type Service struct {
	store     storage.Provider
	types     timeline.TypeRegistry
	index     Index
	namespace string
	defaults  timeline.Options
	markers   MarkerMode
	now       func() time.Time
	logger    *slog.Logger
	notify    func(kind string, res Result)
	locks     *pathLocks
}

// Option configures a Service.
type Option func(*Service)

// WithTypes sets the event-type registry used for coloring.
func WithTypes(types timeline.TypeRegistry) Option {
	return func(s *Service) { s.types = types }
}

// WithIndex reindexes written documents immediately instead of waiting for
// the watcher.
func WithIndex(idx Index) Option {
	return func(s *Service) { s.index = idx }
}

// WithNamespace sets the metadata namespace.
func WithNamespace(ns string) Option {
	return func(s *Service) { s.namespace = ns }
}

// WithDefaults sets the options used where neither the request nor the
// stored metadata specify a value.
func WithDefaults(o timeline.Options) Option {
	return func(s *Service) { s.defaults = o }
}

// WithMarkerMode sets year marker handling on regeneration.
func WithMarkerMode(m MarkerMode) Option {
	return func(s *Service) { s.markers = m }
}

// WithClock overrides the clock used for exportedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithNotifier registers fn to be called after every successful write.
func WithNotifier(fn func(kind string, res Result)) Option {
	return func(s *Service) { s.notify = fn }
}

// New creates a Service writing through store.
func New(store storage.Provider, opts ...Option) *Service {
	s := &Service{
		store:     store,
		namespace: DefaultNamespace,
		defaults:  timeline.DefaultOptions(),
		markers:   MarkersRecompute,
		now:       time.Now,
		logger:    slog.Default(),
		locks:     newPathLocks(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Namespace returns the metadata namespace.
func (s *Service) Namespace() string { return s.namespace }

// Defaults returns the default export options.
func (s *Service) Defaults() timeline.Options { return s.defaults }

// NormalisePath cleans a document path and gives it the canvas extension.
func NormalisePath(p string) (string, error) {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	if p == "" {
		return "", fmt.Errorf("%w: empty document path", apperr.ErrInvalidOptions)
	}
	p = path.Clean(strings.TrimPrefix(p, "/"))
	if p == "." || p == ".." || strings.HasPrefix(p, "../") {
		return "", fmt.Errorf("%w: invalid document path %q", apperr.ErrInvalidOptions, p)
	}
	if path.Ext(p) != storage.ExtCanvas {
		p += storage.ExtCanvas
	}
	return p, nil
}

// Export lays out the events in set that pass req.Filters and writes the
// document to req.Path, replacing any existing file.
func (s *Service) Export(ctx context.Context, req ExportRequest, set timeline.EventSet) Result {
	p, err := NormalisePath(req.Path)
	if err != nil {
		return Failed(req.Path, err)
	}
	unlock, err := s.locks.lock(ctx, p)
	if err != nil {
		return Failed(p, err)
	}
	defer unlock()

	filtered := req.Filters.Apply(set.Events, set.Persons)
	if len(filtered) == 0 {
		return Failed(p, apperr.ErrNoEvents)
	}

	opts := req.Options
	pipe := timeline.Pipeline{Types: s.types, Persons: set.Persons}
	r, err := pipe.Run(filtered, timeline.BuildOptions{Options: opts, YearMarkers: opts.IncludeYearMarkers})
	if err != nil {
		return Failed(p, err)
	}

	meta := buildMetadata(opts, req.Filters, len(filtered), s.now().UnixMilli(), nil)
	res := s.write(p, r.Graph, meta, r.Warnings)
	if res.Success {
		s.logger.Info("export: wrote canvas",
			slog.String("path", p),
			slog.Int("events", res.EventCount),
			slog.String("layout", string(opts.LayoutStyle)))
		s.emit(KindExported, res)
	}
	return res
}

// Regenerate re-lays out an existing document against the current events,
// using the options and filters stored in its metadata.
func (s *Service) Regenerate(ctx context.Context, req RegenerateRequest, set timeline.EventSet) Result {
	p, err := NormalisePath(req.Path)
	if err != nil {
		return Failed(req.Path, err)
	}
	unlock, err := s.locks.lock(ctx, p)
	if err != nil {
		return Failed(p, err)
	}
	defer unlock()

	data, err := s.store.Read(p)
	if err != nil {
		return Failed(p, err)
	}
	if req.IfMatch != "" && !checksum.MatchesETag(req.IfMatch, checksum.Sum(data)) {
		return Failed(p, fmt.Errorf("regenerate %s: %w", p, apperr.ErrConflict))
	}
	prev, meta, err := canvas.Decode(data, s.namespace)
	if err != nil {
		return Failed(p, err)
	}

	opts := applyOverrides(storedOptions(s.defaults, meta), req.Overrides)
	filters := storedFilters(meta)
	filtered := filters.Apply(set.Events, set.Persons)
	if len(filtered) == 0 {
		return Failed(p, apperr.ErrNoEvents)
	}

	pipe := timeline.Pipeline{Types: s.types, Persons: set.Persons}
	build := timeline.BuildOptions{
		Options:     opts,
		YearMarkers: opts.IncludeYearMarkers && s.markers == MarkersRecompute,
	}
	r, err := pipe.Run(filtered, build)
	if err != nil {
		return Failed(p, err)
	}
	if s.markers == MarkersPreserve {
		r.Nodes = appendMarkers(r.Nodes, prev.Nodes)
	}

	overrides := meta.StyleOverrides.Merge(req.Overrides)
	newMeta := buildMetadata(opts, filters, len(filtered), s.now().UnixMilli(), overrides)
	res := s.write(p, r.Graph, newMeta, r.Warnings)
	if res.Success {
		s.logger.Info("regenerate: wrote canvas",
			slog.String("path", p),
			slog.Int("events", res.EventCount),
			slog.String("markers", string(s.markers)))
		s.emit(KindRegenerated, res)
	}
	return res
}

// RegenerateMany regenerates each path in turn. A failure does not stop
// the remaining paths.
func (s *Service) RegenerateMany(ctx context.Context, paths []string, set timeline.EventSet) []Result {
	out := make([]Result, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			out = append(out, Failed(p, err))
			continue
		}
		res := s.Regenerate(ctx, RegenerateRequest{Path: p}, set)
		if !res.Success {
			s.logger.Warn("regenerate: failed", slog.String("path", p), slog.String("error", res.Error))
		}
		out = append(out, res)
	}
	return out
}

// Delete removes a timeline document. Files that are not timeline exports
// are left alone.
func (s *Service) Delete(ctx context.Context, docPath string) error {
	p, err := NormalisePath(docPath)
	if err != nil {
		return err
	}
	unlock, err := s.locks.lock(ctx, p)
	if err != nil {
		return err
	}
	defer unlock()

	data, err := s.store.Read(p)
	if err != nil {
		return err
	}
	if !canvas.IsTimeline(data, s.namespace) {
		return fmt.Errorf("delete %s: %w", p, apperr.ErrNotTimeline)
	}
	if err := s.store.Delete(p); err != nil {
		return err
	}
	if s.index != nil {
		if err := s.index.Delete(p); err != nil {
			s.logger.Warn("export: index delete failed", slog.String("path", p), slog.String("error", err.Error()))
		}
	}
	s.logger.Info("export: deleted canvas", slog.String("path", p))
	s.emit(KindDeleted, Result{Success: true, Path: p})
	return nil
}

// write encodes and stores the document. Nothing is written on failure.
func (s *Service) write(p string, g timeline.Graph, meta *canvas.ExportMetadata, warnings []string) Result {
	doc := &canvas.Document{
		Nodes: g.Nodes,
		Edges: g.Edges,
		Metadata: &canvas.Metadata{
			Version:     canvas.MetadataVersion,
			Frontmatter: map[string]*canvas.ExportMetadata{s.namespace: meta},
		},
	}
	if err := canvas.Validate(doc); err != nil {
		return Failed(p, err)
	}
	data, err := canvas.Encode(doc)
	if err != nil {
		return Failed(p, err)
	}
	if err := s.store.Write(p, data); err != nil {
		return Failed(p, err)
	}
	if s.index != nil {
		if err := s.index.IndexFile(p, data); err != nil {
			s.logger.Warn("export: index failed", slog.String("path", p), slog.String("error", err.Error()))
		}
	}
	return Result{
		Success:    true,
		Path:       p,
		Warnings:   warnings,
		EventCount: meta.EventCount,
		Checksum:   checksum.Sum(data),
	}
}

func (s *Service) emit(kind string, res Result) {
	if s.notify != nil {
		s.notify(kind, res)
	}
}

// appendMarkers carries year marker nodes from prev into nodes, skipping any
// whose id is already taken.
func appendMarkers(nodes, prev []canvas.Node) []canvas.Node {
	taken := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		taken[n.ID] = struct{}{}
	}
	for _, n := range prev {
		if !timeline.IsYearMarker(n) {
			continue
		}
		if _, dup := taken[n.ID]; dup {
			continue
		}
		nodes = append(nodes, n)
	}
	return nodes
}
