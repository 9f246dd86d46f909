package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/prentissw/chartedroots/internal"
	"github.com/prentissw/chartedroots/internal/canvas"
	"github.com/prentissw/chartedroots/internal/exportservice"
	"github.com/prentissw/chartedroots/internal/mcpserver"
	"github.com/prentissw/chartedroots/internal/timeline"
)

// openServices loads the config and wires the stack for a one-shot command.
// Logs go to stderr so stdout stays clean for results and MCP traffic.
func openServices(cmd *cli.Command) (*internal.Services, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))
	return internal.NewServices(cfg, logger)
}

func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "person", Usage: "Only events involving this person (name or wikilink)"},
		&cli.StringFlag{Name: "type", Usage: "Only events of this event type"},
		&cli.StringFlag{Name: "group", Usage: "Only events tagged with this group"},
	}
}

func filtersFrom(cmd *cli.Command) timeline.Filters {
	return timeline.Filters{
		Person:    cmd.String("person"),
		EventType: cmd.String("type"),
		Group:     cmd.String("group"),
	}
}

// applyOptionFlags overlays the flags the user actually set onto opts.
func applyOptionFlags(cmd *cli.Command, opts *timeline.Options) {
	if cmd.IsSet("layout") {
		opts.LayoutStyle = timeline.LayoutStyle(cmd.String("layout"))
	}
	if cmd.IsSet("color-scheme") {
		opts.ColorScheme = timeline.ColorScheme(cmd.String("color-scheme"))
	}
	if cmd.IsSet("group-by-person") {
		opts.GroupByPerson = cmd.Bool("group-by-person")
	}
	if cmd.IsSet("ordering-edges") {
		opts.IncludeOrderingEdges = cmd.Bool("ordering-edges")
	}
	if cmd.IsSet("year-markers") {
		opts.IncludeYearMarkers = cmd.Bool("year-markers")
	}
}

func exportCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "layout", Aliases: []string{"l"}, Usage: "horizontal, vertical or gantt"},
		&cli.StringFlag{Name: "color-scheme", Usage: "event_type, category, confidence or monochrome"},
		&cli.BoolFlag{Name: "group-by-person", Usage: "One lane per person"},
		&cli.BoolFlag{Name: "ordering-edges", Usage: "Draw before/after constraint edges"},
		&cli.BoolFlag{Name: "year-markers", Usage: "Add a text node per distinct year"},
	}
	return &cli.Command{
		Name:      "export",
		Usage:     "Export event notes to a timeline canvas",
		ArgsUsage: "<path>",
		Flags:     append(flags, filterFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("export: expected exactly one target path")
			}
			services, err := openServices(cmd)
			if err != nil {
				return err
			}
			defer services.Close()

			opts := services.Exporter.Defaults()
			applyOptionFlags(cmd, &opts)
			res := services.Timelines.Export(ctx, exportservice.ExportRequest{
				Path:    cmd.Args().First(),
				Options: opts,
				Filters: filtersFrom(cmd),
			})
			return report(os.Stdout, []exportservice.Result{res})
		},
	}
}

func regenerateCommand() *cli.Command {
	return &cli.Command{
		Name:      "regenerate",
		Usage:     "Regenerate timeline canvases from the current event notes (all when no path is given)",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "layout", Aliases: []string{"l"}, Usage: "Override the stored layout style"},
			&cli.StringFlag{Name: "color-scheme", Usage: "Override the stored color scheme"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			services, err := openServices(cmd)
			if err != nil {
				return err
			}
			defer services.Close()

			if cmd.Args().Len() == 0 {
				results, err := services.Timelines.RegenerateAll(ctx)
				if err != nil {
					return err
				}
				if len(results) == 0 {
					fmt.Println(dimStyle.Render("no timelines exported"))
					return nil
				}
				return report(os.Stdout, results)
			}

			overrides := overrideFlags(cmd)
			results := make([]exportservice.Result, 0, cmd.Args().Len())
			for _, p := range cmd.Args().Slice() {
				results = append(results, services.Timelines.Regenerate(ctx, exportservice.RegenerateRequest{
					Path:      p,
					Overrides: overrides,
				}))
			}
			return report(os.Stdout, results)
		},
	}
}

func overrideFlags(cmd *cli.Command) *canvas.StyleOverrides {
	var o canvas.StyleOverrides
	if cmd.IsSet("layout") {
		v := cmd.String("layout")
		o.LayoutStyle = &v
	}
	if cmd.IsSet("color-scheme") {
		v := cmd.String("color-scheme")
		o.ColorScheme = &v
	}
	if o.Empty() {
		return nil
	}
	return &o
}

func eventsCommand() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "List event notes in chronological order",
		Flags: filterFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			services, err := openServices(cmd)
			if err != nil {
				return err
			}
			defer services.Close()

			items, err := services.Timelines.ListEvents(ctx, filtersFrom(cmd))
			if err != nil {
				return err
			}
			for _, e := range items {
				date := e.Date
				if date == "" {
					date = "undated"
				}
				fmt.Printf("%-12s %s %s\n", dimStyle.Render(date), e.Title, dimStyle.Render(e.Path))
			}
			fmt.Println(headerStyle.Render(fmt.Sprintf("%d events", len(items))))
			return nil
		},
	}
}

func eventTypesCommand() *cli.Command {
	return &cli.Command{
		Name:  "event-types",
		Usage: "List the registered event types and their colors",
		Action: func(_ context.Context, cmd *cli.Command) error {
			services, err := openServices(cmd)
			if err != nil {
				return err
			}
			defer services.Close()

			category := ""
			for _, t := range services.Types.All() {
				if t.Category != category {
					category = t.Category
					fmt.Println(headerStyle.Render(category))
				}
				fmt.Printf("  %s %-16s %s %s\n", swatch(t.Color), t.ID, t.Name, dimStyle.Render(t.Color))
			}
			return nil
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the MCP tools over stdio",
		Action: func(_ context.Context, cmd *cli.Command) error {
			services, err := openServices(cmd)
			if err != nil {
				return err
			}
			defer services.Close()
			return mcpserver.New(services.Timelines).ServeStdio()
		},
	}
}

// report prints one line per result and returns an error when any failed.
func report(w io.Writer, results []exportservice.Result) error {
	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
			fmt.Fprintln(w, formatError(fmt.Sprintf("%s: %s", r.Path, r.Error)))
			continue
		}
		fmt.Fprintln(w, formatSuccess(fmt.Sprintf("%s (%d events)", r.Path, r.EventCount)))
		for _, warn := range r.Warnings {
			fmt.Fprintln(w, "  "+formatWarning(warn))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d timelines failed", failed, len(results))
	}
	return nil
}
