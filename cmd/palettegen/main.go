// Package main implements palettegen, which turns the shared palette CSV into
// the firmware's C color table (and optional dashboard swatches).
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"

	"github.com/urfave/cli/v3"
	rootpkg "tools.zach/dev/palettegen"
	"tools.zach/dev/palettegen/internal/atomicfile"
	"tools.zach/dev/palettegen/internal/config"
	"tools.zach/dev/palettegen/internal/generate"
	"tools.zach/dev/palettegen/internal/logger"
	"tools.zach/dev/palettegen/internal/paths"
	"tools.zach/dev/palettegen/internal/source"
)

// ///////////////////////////////////////////////
// Version
// ///////////////////////////////////////////////

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0" ./cmd/palettegen
//
// Without ldflags resolveVersion falls back to the VCS info embedded by the
// Go toolchain.
var version = "dev"

// resolveVersion returns the build version string: [version] when set via
// ldflags, otherwise "dev+<hash>" (with ".dirty" for modified trees).
func resolveVersion() string {
	if version != "dev" {
		return version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version
	}
	var revision string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if revision == "" {
		return version
	}
	hash := revision[:min(7, len(revision))]
	if dirty {
		return "dev+" + hash + ".dirty"
	}
	return "dev+" + hash
}

// ///////////////////////////////////////////////
// Entry Point
// ///////////////////////////////////////////////

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newCommand(os.Stdout, os.Stderr).Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "palettegen: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// newCommand builds the CLI. Output goes to stdout; logs go to stderr.
func newCommand(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "palettegen",
		Usage:     "generate firmware color tables from the shared palette CSV",
		Version:   resolveVersion(),
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "config file (default: <root>/palettegen.toml)",
				Sources: cli.EnvVars("PALETTEGEN_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "root",
				Usage: "project root (default: nearest directory holding palettegen.toml)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "override log.level (trace, debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "override log.file (relative to the working directory; log.file in the config is relative to the root)",
			},
			&cli.StringFlag{
				Name:    "target",
				Aliases: []string{"t"},
				Usage:   "only run targets whose name matches this glob",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return generateAction(ctx, cmd, stdout, stderr)
		},
		Commands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "render and write every selected target (default)",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return generateAction(ctx, cmd, stdout, stderr)
				},
			},
			{
				Name:  "check",
				Usage: "exit non-zero if any generated file is missing or out of date",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return checkAction(ctx, cmd, stdout, stderr)
				},
			},
			{
				Name:  "init",
				Usage: "write a commented palettegen.toml into the project root",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Usage: "overwrite an existing config file"},
				},
				Action: func(_ context.Context, cmd *cli.Command) error {
					return initAction(cmd, stdout)
				},
			},
		},
	}
}

// ///////////////////////////////////////////////
// Setup
// ///////////////////////////////////////////////

// session is the state shared by generate and check.
type session struct {
	gen     *generate.Generator
	targets []config.Target
	log     *slog.Logger
	closer  io.Closer
}

// resolveRoot returns the project root from --root, the directory of
// --config, or the nearest ancestor of the working directory holding a
// config file.
func resolveRoot(cmd *cli.Command) (paths.Project, error) {
	if root := cmd.String("root"); root != "" {
		abs, err := filepath.Abs(root)
		if err != nil {
			return paths.Project{}, err
		}
		return paths.Project{Root: abs}, nil
	}
	if cfgPath := cmd.String("config"); cfgPath != "" {
		abs, err := filepath.Abs(cfgPath)
		if err != nil {
			return paths.Project{}, err
		}
		return paths.Project{Root: filepath.Dir(abs)}, nil
	}
	root, err := paths.FindRoot(".")
	if err != nil {
		return paths.Project{}, err
	}
	return paths.Project{Root: root}, nil
}

// configPath returns --config or the root's palettegen.toml.
func configPath(cmd *cli.Command, root paths.Project) string {
	if p := cmd.String("config"); p != "" {
		return p
	}
	return root.Config()
}

func setup(cmd *cli.Command, stderr io.Writer) (*session, error) {
	root, err := resolveRoot(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	cfgPath := configPath(cmd, root)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if lvl := cmd.String("log-level"); lvl != "" {
		if !logger.ValidLevel(lvl) {
			return nil, fmt.Errorf("invalid --log-level %q", lvl)
		}
		cfg.Log.Level = lvl
	}
	if f := cmd.String("log-file"); f != "" {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("resolve --log-file: %w", err)
		}
		cfg.Log.File = abs
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	log, closer := logger.New(logger.Options{
		Console:   stderr,
		Level:     logger.ParseLevel(cfg.Log.Level),
		File:      root.Resolve(cfg.Log.File),
		MaxSizeMB: cfg.Log.MaxSizeMB,
	})
	log.Debug("Loaded config", "path", cfgPath, "root", root.Root, "targets", len(cfg.Targets))

	targets, err := cfg.Select(cmd.String("target"))
	if err != nil {
		closer.Close()
		return nil, err
	}

	return &session{
		gen: &generate.Generator{
			Root: root,
			Fetch: source.New(source.Options{
				RetryMax: cfg.HTTP.RetryMax,
				Timeout:  cfg.HTTP.Timeout(),
			}),
			Logger: log,
		},
		targets: targets,
		log:     log,
		closer:  closer,
	}, nil
}

// ///////////////////////////////////////////////
// Actions
// ///////////////////////////////////////////////

// generateAction runs every selected target in order, printing one summary
// line per target. The first failing target stops the run.
func generateAction(ctx context.Context, cmd *cli.Command, stdout, stderr io.Writer) error {
	s, err := setup(cmd, stderr)
	if err != nil {
		return err
	}
	defer s.closer.Close()

	for _, t := range s.targets {
		res, err := s.gen.Run(ctx, t)
		if err != nil {
			s.log.Error("Generation failed", "target", t.Name, "error", err)
			return err
		}
		s.log.Info("Generated target", "target", t.Name, "entries", res.Entries, "files", len(res.Artifacts))
		fmt.Fprintln(stdout, res.Summary())
	}
	return nil
}

// errStale is returned by check when any generated file is out of date.
var errStale = errors.New("generated files are out of date; run palettegen generate")

// checkAction lists every missing or outdated artifact of the selected targets.
func checkAction(ctx context.Context, cmd *cli.Command, stdout, stderr io.Writer) error {
	s, err := setup(cmd, stderr)
	if err != nil {
		return err
	}
	defer s.closer.Close()

	var stale int
	for _, t := range s.targets {
		files, err := s.gen.Check(ctx, t)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Fprintf(stdout, "stale: %s (target %s)\n", f, t.Name)
		}
		stale += len(files)
	}
	if stale > 0 {
		return errStale
	}
	fmt.Fprintln(stdout, "All generated files are up to date.")
	return nil
}

// initAction writes the embedded default config. An existing file is kept
// unless --force is given.
func initAction(cmd *cli.Command, stdout io.Writer) error {
	var root paths.Project
	if r := cmd.String("root"); r != "" {
		root.Root = r
	} else {
		root.Root = "."
	}
	path := configPath(cmd, root)

	if _, err := os.Stat(path); err == nil && !cmd.Bool("force") {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := atomicfile.Write(path, rootpkg.DefaultConfigTOML, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Fprintf(stdout, "Wrote %s\n", path)
	return nil
}
