package internal

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/prentissw/chartedroots/internal/eventtypes"
	"github.com/prentissw/chartedroots/internal/events"
	"github.com/prentissw/chartedroots/internal/exportservice"
	"github.com/prentissw/chartedroots/internal/index"
	"github.com/prentissw/chartedroots/internal/storage"
	"github.com/prentissw/chartedroots/internal/timelineservice"
)

// Services is the wired application stack shared by the server and the
// one-shot CLI commands.
type Services struct {
	Store     storage.Provider
	DB        *index.DB
	Types     *eventtypes.Registry
	Exporter  *exportservice.Service
	Timelines *timelineservice.Service
}

// NewServices opens the vault and index, brings the index up to date and
// builds the export stack. extra options are applied after the ones derived
// from cfg.
func NewServices(cfg *Config, logger *slog.Logger, extra ...exportservice.Option) (*Services, error) {
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	types, err := eventtypes.New(cfg.EventTypes...)
	if err != nil {
		return nil, fmt.Errorf("init event types: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}
	ns := cfg.Timeline.Namespace
	if err := index.Sync(db, store, ns, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	opts := []exportservice.Option{
		exportservice.WithTypes(types),
		exportservice.WithIndex(index.Writer{DB: db, Namespace: ns}),
		exportservice.WithNamespace(ns),
		exportservice.WithDefaults(cfg.Timeline.Defaults),
		exportservice.WithMarkerMode(cfg.Timeline.MarkerMode()),
		exportservice.WithLogger(logger),
	}
	exporter := exportservice.New(store, append(opts, extra...)...)
	source := events.NewSource(db, types).InFolder(cfg.Timeline.EventsFolder)

	return &Services{
		Store:     store,
		DB:        db,
		Types:     types,
		Exporter:  exporter,
		Timelines: timelineservice.NewService(store, db, source, exporter).WithOutputFolder(cfg.Timeline.OutputFolder),
	}, nil
}

// Close releases the index.
func (s *Services) Close() error {
	return s.DB.Close()
}
