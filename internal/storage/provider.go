// Package storage defines the vault file-system abstraction.
package storage

import "github.com/prentissw/chartedroots/internal/models"

// Vault file extensions.
const (
	ExtMarkdown = ".md"
	ExtCanvas   = ".canvas"
)

// Provider is the interface for vault file operations. Paths are relative to
// the vault root; reading a missing file returns an error wrapping
// apperr.ErrNotFound.
type Provider interface {
	// Root returns the absolute vault directory.
	Root() string
	// List returns metadata for every file under dir whose extension is one
	// of exts. With no exts only Markdown files are listed.
	List(dir string, exts ...string) ([]models.FileMeta, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent directories.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
}
