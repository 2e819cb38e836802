// Command trajtable loads a trajectory dataset, prints the metrics table and
// optionally writes an artifact of the selected routes.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"trajview/internal/dashboard"
	"trajview/internal/render"
	"trajview/internal/selection"
	"trajview/internal/store"
	"trajview/internal/toggle"
	"trajview/pkg/dataset"
)

func main() {
	var (
		path    = flag.String("dataset", "", "dataset file (.json, .yaml)")
		only    = flag.String("routes", "", "comma-separated route ids to draw, all when empty")
		out     = flag.String("out", "", "write the drawn routes to this file")
		format  = flag.String("format", render.FormatPNG, "artifact format: png, svg, html, geojson")
		vmin    = flag.Float64("viewport-min", 0, "lower viewport bound on both axes")
		vmax    = flag.Float64("viewport-max", 10, "upper viewport bound on both axes")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *path == "" {
		fmt.Fprintln(os.Stderr, "usage: trajtable -dataset FILE [-routes a,b] [-out FILE -format png]")
		os.Exit(2)
	}

	if err := run(logger, *path, *only, *out, *format, render.SquareViewport(*vmin, *vmax)); err != nil {
		logger.Error("trajtable failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, path, only, out, format string, vp render.Viewport) error {
	ds, err := dataset.ReadFile(path)
	if err != nil {
		return err
	}

	board := toggle.NewBoard[dashboard.RefreshResult]()
	table := render.NewTable()
	scene := render.NewScene(vp)
	ctrl := dashboard.New(store.New(), scene, board, table, logger)
	board.OnChange(ctrl.OnToggleChanged)

	report, err := ctrl.Load(ds.Routes)
	if err != nil {
		return err
	}
	for _, rej := range report.Rejected {
		fmt.Fprintf(os.Stderr, "skipped: %v\n", rej)
	}

	fmt.Println(render.Terminal(table.Rows()))

	if only != "" {
		snap := selection.Snapshot{Toggles: make(map[string]bool)}
		for _, id := range strings.Split(only, ",") {
			if id = strings.TrimSpace(id); id != "" {
				snap.Toggles[id] = true
			}
		}
		res := board.Apply(snap)
		for _, id := range res.StaleIDs() {
			fmt.Fprintf(os.Stderr, "unknown route %q\n", id)
		}
	}

	if out == "" {
		return nil
	}

	artifacts := render.NewArtifacts(render.NewPlotRenderer(6, 6), render.NewChartRenderer(""))
	data, _, err := artifacts.Render(ctrl.Frame(), format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Fprintf(os.Stderr, "wrote %s (%d routes)\n", out, len(ctrl.Frame().Series))
	return nil
}
