// Package testutil provides shared test helpers for setting up vaults and databases.
package testutil

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prentissw/chartedroots/internal/index"
	"github.com/prentissw/chartedroots/internal/storage"
)

// Namespace is the metadata namespace used by test vaults.
const Namespace = "charted-roots"

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "chartedroots-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a storage.Provider.
func TestVault(t *testing.T) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// EventNote renders an event note. fields are frontmatter lines in
// "key: value" form appended after cr_type and title.
func EventNote(title string, fields ...string) string {
	var b strings.Builder
	b.WriteString("---\ncr_type: event\n")
	fmt.Fprintf(&b, "title: %q\n", title)
	for _, f := range fields {
		b.WriteString(f)
		b.WriteByte('\n')
	}
	b.WriteString("---\n")
	return b.String()
}

// WriteFile writes content under the vault root, creating parent dirs.
func WriteFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// SeedVault writes a small family vault (two people, four events, one
// ordering reference) and syncs it into db.
func SeedVault(t *testing.T, root string, store storage.Provider, db *index.DB) {
	t.Helper()
	WriteFile(t, root, "People/Ann.md", "---\ncr_type: person\ntitle: Ann Smith\n---\n")
	WriteFile(t, root, "People/Bob.md", "---\ncr_type: person\ntitle: Bob Jones\n---\n")
	WriteFile(t, root, "Events/ann-birth.md", EventNote("Birth of Ann",
		"date: 1850-03-01", "event_type: birth", `person: "[[Ann]]"`, "groups: [Clan A]"))
	WriteFile(t, root, "Events/wedding.md", EventNote("Wedding",
		"date: 1872-06", "event_type: marriage", `person: "[[Ann]]"`, `persons: ["[[Bob]]"]`,
		`before: ["[[bob-death]]"]`, "groups: [Clan A, Clan B]"))
	WriteFile(t, root, "Events/bob-death.md", EventNote("Death of Bob",
		"date: 1901", "event_type: death", `person: "[[Bob]]"`, "groups: [Clan B]"))
	WriteFile(t, root, "Events/flood.md", EventNote("The Great Flood", "event_type: anecdote"))
	if err := index.Sync(db, store, Namespace, discardLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
