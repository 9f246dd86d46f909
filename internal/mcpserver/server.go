// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes timeline tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/prentissw/chartedroots/internal/canvas"
	"github.com/prentissw/chartedroots/internal/exportservice"
	"github.com/prentissw/chartedroots/internal/timeline"
	"github.com/prentissw/chartedroots/internal/timelineservice"
)

// EventFormatURI is the resource URI of the event note contract.
const EventFormatURI = "charted-roots://event-format"

// Server wraps the MCP server with timeline tools.
type Server struct {
	mcp *server.MCPServer
	svc *timelineservice.Service
}

// New creates a new MCP server with all timeline tools registered.
func New(svc *timelineservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Charted Roots",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_events",
		mcp.WithDescription("List event notes in chronological order, optionally filtered."),
		mcp.WithString("person", mcp.Description("Person name or wikilink")),
		mcp.WithString("event_type", mcp.Description("Event type id, e.g. birth")),
		mcp.WithString("group", mcp.Description("Group name")),
	), s.listEvents)

	s.mcp.AddTool(mcp.NewTool("list_timelines",
		mcp.WithDescription("List exported timeline canvases."),
	), s.listTimelines)

	s.mcp.AddTool(mcp.NewTool("get_timeline",
		mcp.WithDescription("Read the raw canvas document of an exported timeline."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Canvas path (e.g. Timelines/family.canvas)")),
	), s.getTimeline)

	s.mcp.AddTool(mcp.NewTool("export_timeline",
		mcp.WithDescription("Export event notes to a timeline canvas. Options not given use the "+
			"server defaults. Read the event format first via get_event_contract or the "+
			EventFormatURI+" resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Target canvas path; .canvas is appended when missing")),
		mcp.WithString("layout_style", mcp.Description("horizontal, vertical or gantt")),
		mcp.WithString("color_scheme", mcp.Description("event_type, category, confidence or monochrome")),
		mcp.WithBoolean("group_by_person", mcp.Description("One row or column per person")),
		mcp.WithBoolean("include_ordering_edges", mcp.Description("Draw before/after constraints as edges")),
		mcp.WithBoolean("include_year_markers", mcp.Description("Add a text node per year")),
		mcp.WithString("person", mcp.Description("Only events involving this person")),
		mcp.WithString("event_type", mcp.Description("Only events of this type")),
		mcp.WithString("group", mcp.Description("Only events in this group")),
	), s.exportTimeline)

	s.mcp.AddTool(mcp.NewTool("regenerate_timeline",
		mcp.WithDescription("Rebuild an exported timeline from its stored settings against the "+
			"current events. Omit path to regenerate every timeline."),
		mcp.WithString("path", mcp.Description("Canvas path")),
		mcp.WithString("layout_style", mcp.Description("Override the stored layout style")),
		mcp.WithString("color_scheme", mcp.Description("Override the stored color scheme")),
	), s.regenerateTimeline)

	s.mcp.AddTool(mcp.NewTool("get_event_contract",
		mcp.WithDescription("Returns the event note format contract. "+
			"Call this before creating or editing event notes."),
	), s.getEventContract)

	s.mcp.AddResource(
		mcp.NewResource(EventFormatURI, "Event Note Format",
			mcp.WithResourceDescription("Frontmatter format of the event notes timelines are built from."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readEventFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// exportResult reports a failed Result as a tool error so the caller sees it.
func exportResult(res exportservice.Result) (*mcp.CallToolResult, error) {
	if !res.Success {
		return mcp.NewToolResultError(res.Error), nil
	}
	return jsonResult(res)
}

// boolArg returns the boolean argument key, or nil when it was not passed.
func boolArg(req mcp.CallToolRequest, key string) *bool {
	if v, ok := req.GetArguments()[key].(bool); ok {
		return &v
	}
	return nil
}

func (s *Server) listEvents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.svc.ListEvents(ctx, timeline.Filters{
		Person:    req.GetString("person", ""),
		EventType: req.GetString("event_type", ""),
		Group:     req.GetString("group", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(items)
}

func (s *Server) listTimelines(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.svc.ListTimelines(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultText("no timelines exported"), nil
	}
	return jsonResult(items)
}

func (s *Server) getTimeline(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.GetTimeline(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(doc.Data)), nil
}

func (s *Server) exportTimeline(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	opts := s.svc.Exporter().Defaults()
	if v := req.GetString("layout_style", ""); v != "" {
		opts.LayoutStyle = timeline.LayoutStyle(v)
	}
	if v := req.GetString("color_scheme", ""); v != "" {
		opts.ColorScheme = timeline.ColorScheme(v)
	}
	if v := boolArg(req, "group_by_person"); v != nil {
		opts.GroupByPerson = *v
	}
	if v := boolArg(req, "include_ordering_edges"); v != nil {
		opts.IncludeOrderingEdges = *v
	}
	if v := boolArg(req, "include_year_markers"); v != nil {
		opts.IncludeYearMarkers = *v
	}

	return exportResult(s.svc.Export(ctx, exportservice.ExportRequest{
		Path:    path,
		Options: opts,
		Filters: timeline.Filters{
			Person:    req.GetString("person", ""),
			EventType: req.GetString("event_type", ""),
			Group:     req.GetString("group", ""),
		},
	}))
}

func (s *Server) regenerateTimeline(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	if path == "" {
		results, err := s.svc.RegenerateAll(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if len(results) == 0 {
			return mcp.NewToolResultText("no timelines exported"), nil
		}
		return jsonResult(results)
	}

	var overrides *canvas.StyleOverrides
	if v := req.GetString("layout_style", ""); v != "" {
		overrides = overrides.Merge(&canvas.StyleOverrides{LayoutStyle: &v})
	}
	if v := req.GetString("color_scheme", ""); v != "" {
		overrides = overrides.Merge(&canvas.StyleOverrides{ColorScheme: &v})
	}
	return exportResult(s.svc.Regenerate(ctx, exportservice.RegenerateRequest{
		Path:      path,
		Overrides: overrides,
	}))
}

func (s *Server) getEventContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(EventFormatContract), nil
}

func (s *Server) readEventFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      EventFormatURI,
			MIMEType: "text/markdown",
			Text:     EventFormatContract,
		},
	}, nil
}
