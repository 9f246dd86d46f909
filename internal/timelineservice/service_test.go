package timelineservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"testing"

	"github.com/prentissw/chartedroots/internal/apperr"
	"github.com/prentissw/chartedroots/internal/eventtypes"
	"github.com/prentissw/chartedroots/internal/events"
	"github.com/prentissw/chartedroots/internal/exportservice"
	"github.com/prentissw/chartedroots/internal/index"
	"github.com/prentissw/chartedroots/internal/storage"
	"github.com/prentissw/chartedroots/internal/testutil"
	"github.com/prentissw/chartedroots/internal/timeline"
)

type env struct {
	svc   *Service
	root  string
	store storage.Provider
	db    *index.DB
}

func testEnv(t *testing.T) env {
	t.Helper()
	root, store := testutil.TestVault(t)
	db := testutil.TestDB(t)
	testutil.SeedVault(t, root, store, db)

	types, err := eventtypes.New()
	if err != nil {
		t.Fatal(err)
	}
	exp := exportservice.New(store,
		exportservice.WithTypes(types),
		exportservice.WithIndex(index.Writer{DB: db, Namespace: testutil.Namespace}),
		exportservice.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	return env{
		svc:   NewService(store, db, events.NewSource(db, types), exp),
		root:  root,
		store: store,
		db:    db,
	}
}

func itemTitles(items []EventItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Title
	}
	return out
}

func TestListEvents(t *testing.T) {
	e := testEnv(t)
	items, err := e.svc.ListEvents(context.Background(), timeline.Filters{})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	want := []string{"Birth of Ann", "Wedding", "Death of Bob", "The Great Flood"}
	if got := itemTitles(items); !slices.Equal(got, want) {
		t.Fatalf("titles = %v, want %v", got, want)
	}

	wedding := items[1]
	if wedding.Person != "Ann Smith" || !slices.Equal(wedding.Participants, []string{"Bob Jones"}) {
		t.Errorf("people = %q %v", wedding.Person, wedding.Participants)
	}
	if !slices.Equal(wedding.Before, []string{"Events/bob-death.md"}) {
		t.Errorf("before = %v", wedding.Before)
	}
	if wedding.Category != "core" {
		t.Errorf("category = %q, want core from the type registry", wedding.Category)
	}
	if items[3].Groups == nil || items[3].After == nil {
		t.Error("list fields must be non-nil")
	}
}

func TestListEvents_Filters(t *testing.T) {
	e := testEnv(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		filters timeline.Filters
		want    []string
	}{
		{"person by title", timeline.Filters{Person: "Bob Jones"}, []string{"Wedding", "Death of Bob"}},
		{"person by link", timeline.Filters{Person: "[[Ann]]"}, []string{"Birth of Ann", "Wedding"}},
		{"group", timeline.Filters{Group: "Clan B"}, []string{"Wedding", "Death of Bob"}},
		{"type", timeline.Filters{EventType: "ANECDOTE"}, []string{"The Great Flood"}},
		{"none", timeline.Filters{Group: "Clan Z"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := e.svc.ListEvents(ctx, tt.filters)
			if err != nil {
				t.Fatal(err)
			}
			if got := itemTitles(items); !slices.Equal(got, tt.want) {
				t.Errorf("titles = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExportListGetDelete(t *testing.T) {
	e := testEnv(t)
	ctx := context.Background()

	res := e.svc.Export(ctx, exportservice.ExportRequest{
		Path:    "Timelines/family",
		Options: timeline.DefaultOptions(),
	})
	if !res.Success || res.EventCount != 4 {
		t.Fatalf("export = %+v", res)
	}

	tls, err := e.svc.ListTimelines(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(tls) != 1 || tls[0].Path != "Timelines/family.canvas" || tls[0].EventCount != 4 || tls[0].Checksum != res.Checksum {
		t.Fatalf("timelines = %+v", tls)
	}

	doc, err := e.svc.GetTimeline(ctx, "Timelines/family.canvas")
	if err != nil {
		t.Fatalf("GetTimeline: %v", err)
	}
	if doc.Checksum != res.Checksum || len(doc.Data) == 0 {
		t.Errorf("doc = %s %d bytes", doc.Checksum, len(doc.Data))
	}
	if bl, _ := e.db.Backlinks("Events/wedding.md"); !slices.Equal(bl, []string{"Timelines/family.canvas"}) {
		t.Errorf("backlinks = %v", bl)
	}

	if err := e.svc.DeleteTimeline(ctx, "Timelines/family"); err != nil {
		t.Fatalf("DeleteTimeline: %v", err)
	}
	if tls, _ := e.svc.ListTimelines(ctx); len(tls) != 0 {
		t.Errorf("timelines after delete = %+v", tls)
	}
	if _, err := e.svc.GetTimeline(ctx, "Timelines/family"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("GetTimeline after delete: %v", err)
	}
}

func TestGetTimeline_PlainCanvas(t *testing.T) {
	e := testEnv(t)
	testutil.WriteFile(t, e.root, "board.canvas", `{"nodes":[],"edges":[]}`)
	if _, err := e.svc.GetTimeline(context.Background(), "board"); !errors.Is(err, apperr.ErrNotTimeline) {
		t.Errorf("err = %v, want ErrNotTimeline", err)
	}
}

func TestRegenerateAll(t *testing.T) {
	e := testEnv(t)
	ctx := context.Background()

	if res, _ := e.svc.RegenerateAll(ctx); res != nil {
		t.Errorf("results with no timelines = %+v", res)
	}
	for _, p := range []string{"a", "b"} {
		if res := e.svc.Export(ctx, exportservice.ExportRequest{Path: p, Options: timeline.DefaultOptions()}); !res.Success {
			t.Fatalf("export %s: %s", p, res.Error)
		}
	}

	testutil.WriteFile(t, e.root, "Events/census.md", testutil.EventNote("Census", "date: 1881", "event_type: census"))
	if err := index.Sync(e.db, e.store, testutil.Namespace, slog.New(slog.NewTextHandler(io.Discard, nil))); err != nil {
		t.Fatal(err)
	}

	results, err := e.svc.RegenerateAll(ctx)
	if err != nil {
		t.Fatalf("RegenerateAll: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %+v", results)
	}
	for _, r := range results {
		if !r.Success || r.EventCount != 5 {
			t.Errorf("result = %+v", r)
		}
	}
}

func TestResolvePath(t *testing.T) {
	svc := (&Service{}).WithOutputFolder("/Timelines/")
	tests := []struct {
		in, want string
	}{
		{"family", "Timelines/family"},
		{" family.canvas ", "Timelines/family.canvas"},
		{"Trees/family", "Trees/family"},
		{"/family", "/family"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := svc.ResolvePath(tt.in); got != tt.want {
			t.Errorf("ResolvePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := (&Service{}).ResolvePath("family"); got != "family" {
		t.Errorf("without folder = %q, want family", got)
	}
}

func TestOutputFolder_BareNames(t *testing.T) {
	e := testEnv(t)
	svc := e.svc.WithOutputFolder("Timelines")
	ctx := context.Background()

	res := svc.Export(ctx, exportservice.ExportRequest{Path: "family", Options: timeline.DefaultOptions()})
	if !res.Success || res.Path != "Timelines/family.canvas" {
		t.Fatalf("export = %+v", res)
	}
	if _, err := e.store.Read("Timelines/family.canvas"); err != nil {
		t.Fatalf("canvas not under output folder: %v", err)
	}
	if _, err := svc.GetTimeline(ctx, "family"); err != nil {
		t.Errorf("GetTimeline(family): %v", err)
	}
	if res := svc.Regenerate(ctx, exportservice.RegenerateRequest{Path: "family.canvas"}); !res.Success || res.Path != "Timelines/family.canvas" {
		t.Errorf("regenerate = %+v", res)
	}

	if res := svc.Export(ctx, exportservice.ExportRequest{Path: "/top", Options: timeline.DefaultOptions()}); !res.Success || res.Path != "top.canvas" {
		t.Errorf("root export = %+v", res)
	}

	if err := svc.DeleteTimeline(ctx, "family"); err != nil {
		t.Fatalf("DeleteTimeline: %v", err)
	}
	if _, err := e.store.Read("Timelines/family.canvas"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("after delete err = %v, want ErrNotFound", err)
	}
}
