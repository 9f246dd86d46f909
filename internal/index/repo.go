package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prentissw/chartedroots/internal/apperr"
	"github.com/prentissw/chartedroots/internal/models"
	"github.com/prentissw/chartedroots/internal/timeline"
)

// Upsert inserts or replaces a note together with its event or timeline row
// and its links, within a transaction.
func (db *DB) Upsert(e Entry) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	n := e.Note
	if n.Kind == "" {
		n.Kind = models.KindNote
	}
	_, err = tx.Exec(`
		INSERT INTO notes (path, title, kind, checksum, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title      = excluded.title,
			kind       = excluded.kind,
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, n.Path, n.Title, n.Kind, n.Checksum, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert note: %w", err)
	}

	// A note can change kind between versions; clear the typed rows first.
	for _, q := range []string{
		`DELETE FROM events WHERE path = ?`,
		`DELETE FROM timelines WHERE path = ?`,
		`DELETE FROM links WHERE source = ?`,
	} {
		if _, err := tx.Exec(q, n.Path); err != nil {
			return fmt.Errorf("index: clear rows: %w", err)
		}
	}

	if ev := e.Event; ev != nil {
		if err := insertEvent(tx, n.Path, ev); err != nil {
			return err
		}
	}
	if tl := e.Timeline; tl != nil {
		_, err := tx.Exec(`
			INSERT INTO timelines (path, layout_style, event_count, exported_at)
			VALUES (?, ?, ?, ?)
		`, n.Path, tl.LayoutStyle, tl.EventCount, tl.ExportedAt.UnixMilli())
		if err != nil {
			return fmt.Errorf("index: insert timeline: %w", err)
		}
	}

	if len(e.Links) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, target) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for _, target := range e.Links {
			if _, err := stmt.Exec(n.Path, target); err != nil {
				return fmt.Errorf("index: insert link: %w", err)
			}
		}
	}

	return tx.Commit()
}

func insertEvent(tx *sql.Tx, path string, ev *timeline.Event) error {
	var sortOrder sql.NullInt64
	if ev.SortOrder != nil {
		sortOrder = sql.NullInt64{Int64: int64(*ev.SortOrder), Valid: true}
	}
	_, err := tx.Exec(`
		INSERT INTO events (path, id, title, date, date_end, event_type, confidence, category,
			principal, participants, place, before_refs, after_refs, sort_order, groups_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, path, ev.ID, ev.Title, ev.Date, ev.DateEnd, ev.EventType, string(ev.Confidence), ev.Category,
		ev.Principal, jsonList(ev.Participants), ev.Place, jsonList(ev.Before), jsonList(ev.After),
		sortOrder, jsonList(ev.Groups))
	if err != nil {
		return fmt.Errorf("index: insert event: %w", err)
	}
	return nil
}

func jsonList(v []string) string {
	if len(v) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(v)
	return string(b)
}

func parseList(s string) []string {
	var out []string
	_ = json.Unmarshal([]byte(s), &out)
	if len(out) == 0 {
		return nil
	}
	return out
}

// Delete removes a note; its event, timeline and link rows cascade.
func (db *DB) Delete(path string) error {
	if _, err := db.conn.Exec(`DELETE FROM notes WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete: %w", err)
	}
	return nil
}

// GetChecksum returns the stored checksum for a note, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM notes WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns path → checksum for every indexed file.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// GetNote returns a single indexed note.
func (db *DB) GetNote(path string) (*models.Note, error) {
	var n models.Note
	err := db.conn.QueryRow(`SELECT path, title, kind, checksum, updated_at FROM notes WHERE path = ?`, path).
		Scan(&n.Path, &n.Title, &n.Kind, &n.Checksum, &n.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: note %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get note: %w", err)
	}
	return &n, nil
}

// ListNotes returns notes of the given kind ordered by path; an empty kind
// lists every note.
func (db *DB) ListNotes(kind string) ([]models.Note, error) {
	rows, err := db.conn.Query(`
		SELECT path, title, kind, checksum, updated_at FROM notes
		WHERE ? = '' OR kind = ?
		ORDER BY path
	`, kind, kind)
	if err != nil {
		return nil, fmt.Errorf("index: list notes: %w", err)
	}
	defer rows.Close()

	var out []models.Note
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.Path, &n.Title, &n.Kind, &n.Checksum, &n.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// ListEvents returns every indexed event ordered by path. References are as
// written in the note.
func (db *DB) ListEvents() ([]timeline.Event, error) {
	rows, err := db.conn.Query(`
		SELECT path, id, title, date, date_end, event_type, confidence, category,
			principal, participants, place, before_refs, after_refs, sort_order, groups_json
		FROM events ORDER BY path
	`)
	if err != nil {
		return nil, fmt.Errorf("index: list events: %w", err)
	}
	defer rows.Close()

	var out []timeline.Event
	for rows.Next() {
		var (
			e                                   timeline.Event
			confidence                          string
			participants, before, after, groups string
			sortOrder                           sql.NullInt64
		)
		if err := rows.Scan(&e.Path, &e.ID, &e.Title, &e.Date, &e.DateEnd, &e.EventType, &confidence,
			&e.Category, &e.Principal, &participants, &e.Place, &before, &after, &sortOrder, &groups); err != nil {
			return nil, err
		}
		e.Confidence = timeline.Confidence(confidence)
		e.Participants = parseList(participants)
		e.Before = parseList(before)
		e.After = parseList(after)
		e.Groups = parseList(groups)
		if sortOrder.Valid {
			n := int(sortOrder.Int64)
			e.SortOrder = &n
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

const timelineSelect = `
	SELECT n.path, n.checksum, t.layout_style, t.event_count, t.exported_at
	FROM timelines t JOIN notes n ON n.path = t.path
`

func scanTimeline(s interface{ Scan(...any) error }) (models.Timeline, error) {
	var (
		tl         models.Timeline
		exportedAt int64
	)
	if err := s.Scan(&tl.Path, &tl.Checksum, &tl.LayoutStyle, &tl.EventCount, &exportedAt); err != nil {
		return tl, err
	}
	tl.ExportedAt = time.UnixMilli(exportedAt).UTC()
	return tl, nil
}

// ListTimelines returns every indexed timeline canvas ordered by path.
func (db *DB) ListTimelines() ([]models.Timeline, error) {
	rows, err := db.conn.Query(timelineSelect + ` ORDER BY n.path`)
	if err != nil {
		return nil, fmt.Errorf("index: list timelines: %w", err)
	}
	defer rows.Close()

	var out []models.Timeline
	for rows.Next() {
		tl, err := scanTimeline(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tl)
	}
	return out, rows.Err()
}

// GetTimeline returns one indexed timeline canvas.
func (db *DB) GetTimeline(path string) (*models.Timeline, error) {
	tl, err := scanTimeline(db.conn.QueryRow(timelineSelect+` WHERE n.path = ?`, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: timeline %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get timeline: %w", err)
	}
	return &tl, nil
}

// Backlinks returns all note paths that link to the given target.
func (db *DB) Backlinks(target string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT source FROM links WHERE target = ? ORDER BY source`, target)
	if err != nil {
		return nil, fmt.Errorf("index: backlinks: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
