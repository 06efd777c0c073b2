// Package generate runs configured targets: it loads a target's palette,
// renders every artifact for the target's mode, and writes them together.
package generate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"tools.zach/dev/palettegen/internal/atomicfile"
	"tools.zach/dev/palettegen/internal/config"
	"tools.zach/dev/palettegen/internal/logger"
	"tools.zach/dev/palettegen/internal/palette"
	"tools.zach/dev/palettegen/internal/paths"
	"tools.zach/dev/palettegen/internal/render"
	"tools.zach/dev/palettegen/internal/source"
)

// filePerm is the mode given to every generated file.
const filePerm = 0o644

// Generator renders and writes targets relative to a project root.
type Generator struct {
	Root paths.Project
	// Fetch retrieves http(s) inputs; local paths are read directly.
	Fetch  source.Fetcher
	Logger *slog.Logger
}

// Result describes one rendered target.
type Result struct {
	Target    string
	Entries   int
	Artifacts []render.Artifact
}

// Summary returns the one-line report printed after a target is generated,
// e.g. "Generated colors.h with 8 entries."
func (r *Result) Summary() string {
	names := make([]string, len(r.Artifacts))
	for i, a := range r.Artifacts {
		names[i] = filepath.Base(a.Path)
	}
	return fmt.Sprintf("Generated %s with %d entries.", strings.Join(names, ", "), r.Entries)
}

func (g *Generator) log() *slog.Logger {
	if g.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return g.Logger
}

// ///////////////////////////////////////////////
// Render
// ///////////////////////////////////////////////

// Render loads the target's palette and renders its artifacts in memory.
// Artifact paths are resolved against the project root.
func (g *Generator) Render(ctx context.Context, t config.Target) (*Result, error) {
	log := g.log().With("target", t.Name)
	input := g.Root.Resolve(t.Input)

	entries, err := g.load(ctx, log, input)
	if err != nil {
		return nil, fmt.Errorf("target %s: %w", t.Name, err)
	}
	log.Debug("Parsed palette", "entries", len(entries))

	for i, e := range entries {
		if !e.InByteRange() {
			log.Warn("Color component outside 0-255", "index", i, "r", e.R, "g", e.G, "b", e.B)
		}
	}

	syms := t.Symbols.Render()
	var artifacts []render.Artifact
	switch t.Mode {
	case config.ModeSplit:
		artifacts, err = render.Split(entries, syms, g.Root.Resolve(t.Header), g.Root.Resolve(t.Source))
	default:
		var a render.Artifact
		a, err = render.Combined(entries, syms, g.Root.Resolve(t.Header))
		artifacts = []render.Artifact{a}
	}
	if err != nil {
		return nil, fmt.Errorf("target %s: %w", t.Name, err)
	}

	if t.Swatches != "" {
		a, err := render.Swatches(entries, g.Root.Resolve(t.Swatches))
		if err != nil {
			return nil, fmt.Errorf("target %s: %w", t.Name, err)
		}
		artifacts = append(artifacts, a)
	}

	return &Result{Target: t.Name, Entries: len(entries), Artifacts: artifacts}, nil
}

// load reads the palette from disk, or through Fetch for URL inputs.
func (g *Generator) load(ctx context.Context, log *slog.Logger, input string) ([]palette.Entry, error) {
	if !source.IsURL(input) {
		logger.Trace(log, "Reading palette", "path", g.Root.Rel(input))
		return palette.LoadFile(input)
	}

	logger.Trace(log, "Fetching palette", "url", input)
	data, err := g.Fetch.Fetch(ctx, input)
	if err != nil {
		return nil, err
	}
	entries, err := palette.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", input, err)
	}
	return entries, nil
}

// ///////////////////////////////////////////////
// Run
// ///////////////////////////////////////////////

// Run renders the target and writes every artifact. Nothing is written
// unless all artifacts rendered, and each file is replaced atomically.
func (g *Generator) Run(ctx context.Context, t config.Target) (*Result, error) {
	res, err := g.Render(ctx, t)
	if err != nil {
		return nil, err
	}

	files := make([]atomicfile.File, len(res.Artifacts))
	for i, a := range res.Artifacts {
		files[i] = atomicfile.File{Path: a.Path, Data: a.Content}
	}
	if err := atomicfile.WriteSet(files, filePerm); err != nil {
		return nil, fmt.Errorf("target %s: write: %w", t.Name, err)
	}

	for _, a := range res.Artifacts {
		g.log().Debug("Wrote artifact", "target", t.Name, "path", g.Root.Rel(a.Path), "bytes", len(a.Content))
	}
	return res, nil
}

// ///////////////////////////////////////////////
// Check
// ///////////////////////////////////////////////

// Check renders the target and compares each artifact with the file on
// disk. It returns the project-relative paths that are missing or differ.
func (g *Generator) Check(ctx context.Context, t config.Target) ([]string, error) {
	res, err := g.Render(ctx, t)
	if err != nil {
		return nil, err
	}

	var stale []string
	for _, a := range res.Artifacts {
		got, err := os.ReadFile(a.Path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			stale = append(stale, g.Root.Rel(a.Path))
		case err != nil:
			return nil, fmt.Errorf("target %s: %w", t.Name, err)
		case !bytes.Equal(got, a.Content):
			stale = append(stale, g.Root.Rel(a.Path))
		}
	}
	return stale, nil
}
