package index

import (
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/prentissw/chartedroots/internal/canvas"
	"github.com/prentissw/chartedroots/internal/checksum"
	"github.com/prentissw/chartedroots/internal/events"
	"github.com/prentissw/chartedroots/internal/models"
	"github.com/prentissw/chartedroots/internal/parser"
	"github.com/prentissw/chartedroots/internal/storage"
)

// Sync walks the vault and brings the index up to date:
//   - new/changed Markdown notes and canvases are parsed and upserted
//   - files removed from disk are deleted from the index
//
// namespace selects the metadata block that marks a canvas as a timeline.
func Sync(db *DB, store storage.Provider, namespace string, logger *slog.Logger) error {
	metas, err := store.List("", storage.ExtMarkdown, storage.ExtCanvas)
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, m.Path, data, m.UpdatedAt, namespace); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.Delete(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// indexFile derives the Entry for one vault file and upserts it.
func indexFile(db *DB, p string, data []byte, updatedAt time.Time, namespace string) error {
	entry, err := buildEntry(p, data, namespace)
	if err != nil {
		return err
	}
	entry.Note.UpdatedAt = updatedAt
	return db.Upsert(entry)
}

func buildEntry(p string, data []byte, namespace string) (Entry, error) {
	note := models.Note{
		Path:     p,
		Kind:     models.KindNote,
		Checksum: checksum.Sum(data),
	}
	base := strings.TrimSuffix(path.Base(p), path.Ext(p))

	if path.Ext(p) == storage.ExtCanvas {
		note.Title = base
		doc, meta, err := canvas.Decode(data, namespace)
		if err != nil {
			// Plain canvases are tracked for change detection only.
			return Entry{Note: note}, nil
		}
		note.Kind = models.KindTimeline
		entry := Entry{
			Note: note,
			Timeline: &models.Timeline{
				Path:        p,
				LayoutStyle: meta.LayoutStyle,
				EventCount:  meta.EventCount,
				ExportedAt:  time.UnixMilli(meta.ExportedAt).UTC(),
			},
		}
		for _, n := range doc.Nodes {
			if n.Type == canvas.KindFile && n.File != "" {
				entry.Links = append(entry.Links, n.File)
			}
		}
		return entry, nil
	}

	res, err := parser.Parse(data)
	if err != nil {
		return Entry{}, err
	}
	note.Title = res.Title
	if note.Title == "" {
		note.Title = base
	}
	note.Kind = events.NoteKind(res.Frontmatter)
	entry := Entry{Note: note, Links: res.Links}
	if note.Kind == models.KindEvent {
		ev := events.FromFrontmatter(p, res.Frontmatter, res.Title)
		entry.Event = &ev
		entry.Note.Title = ev.Title
	}
	return entry, nil
}

// Writer reindexes single files on behalf of components that write to the
// vault themselves, without waiting for the watcher.
type Writer struct {
	DB        *DB
	Namespace string
}

// IndexFile indexes data as the current content of p.
func (w Writer) IndexFile(p string, data []byte) error {
	return indexFile(w.DB, p, data, time.Now(), w.Namespace)
}

// Delete removes p from the index.
func (w Writer) Delete(p string) error {
	return w.DB.Delete(p)
}
