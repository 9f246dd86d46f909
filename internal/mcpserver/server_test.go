package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/prentissw/chartedroots/internal/eventtypes"
	"github.com/prentissw/chartedroots/internal/events"
	"github.com/prentissw/chartedroots/internal/exportservice"
	"github.com/prentissw/chartedroots/internal/index"
	"github.com/prentissw/chartedroots/internal/storage"
	"github.com/prentissw/chartedroots/internal/testutil"
	"github.com/prentissw/chartedroots/internal/timelineservice"
)

func testServer(t *testing.T) (*Server, storage.Provider) {
	t.Helper()

	vaultDir, store := testutil.TestVault(t)
	db := testutil.TestDB(t)
	testutil.SeedVault(t, vaultDir, store, db)

	types, err := eventtypes.New()
	if err != nil {
		t.Fatal(err)
	}
	exp := exportservice.New(store,
		exportservice.WithTypes(types),
		exportservice.WithIndex(index.Writer{DB: db, Namespace: testutil.Namespace}),
		exportservice.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	srv := New(timelineservice.NewService(store, db, events.NewSource(db, types), exp))
	return srv, store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so handlers are invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_events":
		result, err = srv.listEvents(ctx, req)
	case "list_timelines":
		result, err = srv.listTimelines(ctx, req)
	case "get_timeline":
		result, err = srv.getTimeline(ctx, req)
	case "export_timeline":
		result, err = srv.exportTimeline(ctx, req)
	case "regenerate_timeline":
		result, err = srv.regenerateTimeline(ctx, req)
	case "get_event_contract":
		result, err = srv.getEventContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListEvents(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "list_events", map[string]any{"group": "Clan A"})
	var items []timelineservice.EventItem
	if err := json.Unmarshal([]byte(resultText(r)), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 2 || items[0].Title != "Birth of Ann" || items[1].Title != "Wedding" {
		t.Errorf("items = %+v", items)
	}
}

func TestExportAndRegenerate(t *testing.T) {
	srv, store := testServer(t)

	r := callTool(t, srv, "export_timeline", map[string]any{
		"path":                 "Timelines/ann",
		"person":               "Ann Smith",
		"layout_style":         "vertical",
		"include_year_markers": false,
	})
	if r.IsError {
		t.Fatalf("export failed: %s", resultText(r))
	}
	var res exportservice.Result
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatal(err)
	}
	if res.Path != "Timelines/ann.canvas" || res.EventCount != 2 {
		t.Errorf("result = %+v", res)
	}
	data, err := store.Read("Timelines/ann.canvas")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"includeYearMarkers":false`) || !strings.Contains(string(data), `"filterPerson":"Ann Smith"`) {
		t.Errorf("metadata = %s", data)
	}

	r = callTool(t, srv, "regenerate_timeline", map[string]any{"path": "Timelines/ann.canvas", "color_scheme": "monochrome"})
	if r.IsError {
		t.Fatalf("regenerate failed: %s", resultText(r))
	}
	r = callTool(t, srv, "get_timeline", map[string]any{"path": "Timelines/ann"})
	if !strings.Contains(resultText(r), `"styleOverrides":{"colorScheme":"monochrome"}`) {
		t.Errorf("overrides not recorded: %s", resultText(r))
	}

	r = callTool(t, srv, "list_timelines", map[string]any{})
	if !strings.Contains(resultText(r), `"path": "Timelines/ann.canvas"`) {
		t.Errorf("list = %s", resultText(r))
	}
}

func TestExportFailureIsToolError(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "export_timeline", map[string]any{"path": "x", "group": "Nobody"})
	if !r.IsError || resultText(r) != "No events to export after filtering" {
		t.Errorf("result = %v %q", r.IsError, resultText(r))
	}

	r = callTool(t, srv, "export_timeline", map[string]any{})
	if !r.IsError {
		t.Error("expected error for missing path")
	}
}

func TestRegenerateAllAndEmpty(t *testing.T) {
	srv, _ := testServer(t)

	if r := callTool(t, srv, "regenerate_timeline", map[string]any{}); resultText(r) != "no timelines exported" {
		t.Errorf("empty = %q", resultText(r))
	}
	if r := callTool(t, srv, "list_timelines", map[string]any{}); resultText(r) != "no timelines exported" {
		t.Errorf("empty list = %q", resultText(r))
	}

	_ = callTool(t, srv, "export_timeline", map[string]any{"path": "all"})
	r := callTool(t, srv, "regenerate_timeline", map[string]any{})
	var results []exportservice.Result
	if err := json.Unmarshal([]byte(resultText(r)), &results); err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || !results[0].Success || results[0].EventCount != 4 {
		t.Errorf("results = %+v", results)
	}
}

func TestGetTimelineMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_timeline", map[string]any{"path": "nope.canvas"})
	if !r.IsError {
		t.Error("expected error for missing timeline")
	}
}

func TestEventContract(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_event_contract", map[string]any{})
	if !strings.Contains(resultText(r), "cr_type: event") {
		t.Error("contract missing event marker")
	}

	contents, err := srv.readEventFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(contents) != 1 {
		t.Fatalf("resource = %v, %v", contents, err)
	}
	if tc, ok := contents[0].(mcp.TextResourceContents); !ok || tc.URI != EventFormatURI {
		t.Errorf("resource contents = %+v", contents[0])
	}
}
