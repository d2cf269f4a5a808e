package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/bgricker/testgrade/internal/config"
	"github.com/bgricker/testgrade/internal/discovery"
	"github.com/bgricker/testgrade/internal/event"
	"github.com/bgricker/testgrade/internal/filter"
	"github.com/bgricker/testgrade/internal/output"
	"github.com/bgricker/testgrade/internal/report"
	"github.com/bgricker/testgrade/internal/runner"
	"github.com/bgricker/testgrade/internal/summary"
	"github.com/bgricker/testgrade/internal/version"
)

// Overridden in tests so no real toolchain is needed.
var (
	cargoProgram = runner.DefaultProgram
	detectCargo  = version.DetectCargo
)

// scoring bundles everything that turns a captured stream into a report.
type scoring struct {
	opts    summary.Options
	filters filter.Set
}

func scoringFrom(cfg config.Config) (scoring, error) {
	if err := cfg.Validate(); err != nil {
		return scoring{}, err
	}
	mode, err := summary.ParseCountMode(cfg.Mode)
	if err != nil {
		return scoring{}, err
	}
	set, err := filter.New(cfg.Include, cfg.Exclude)
	if err != nil {
		return scoring{}, err
	}
	return scoring{
		opts: summary.Options{
			MaxScore:   cfg.MaxScore,
			Mode:       mode,
			AllowEmpty: cfg.AllowEmpty,
		},
		filters: set,
	}, nil
}

// grade parses data with the given shape and folds it into a report.
func grade(data []byte, shape event.Shape, sc scoring, logger *slog.Logger) (report.Report, error) {
	stream, err := event.Parse(data, shape)
	if err != nil {
		return report.Report{}, err
	}
	tally := summary.Fold(sc.filters.Events(stream.Events()))
	if err := stream.Err(); err != nil {
		return report.Report{}, fmt.Errorf("read test events: %w", err)
	}

	rep := tally.Report(sc.opts)
	attrs := []any{
		"passed", tally.Passed,
		"observed", tally.Observed(),
		"total", tally.Total(sc.opts.Mode),
		"mode", sc.opts.Mode,
	}
	if n := stream.Malformed(); n > 0 {
		attrs = append(attrs, "skipped_lines", n)
	}
	if rep.ComputedScore != nil {
		attrs = append(attrs, "score", *rep.ComputedScore, "max_score", *rep.MaxScore)
	}
	logger.Info("summarized test events", attrs...)
	return rep, nil
}

// emit writes results.json into dir (when set) and renders the report.
func emit(w io.Writer, dir string, rep report.Report, cfg config.Config, logger *slog.Logger) error {
	if dir != "" {
		path, err := report.WriteFile(dir, rep, report.WriteOptions{Canonical: cfg.Canonical})
		if err != nil {
			return err
		}
		logger.Info("wrote results", "path", path, "status", rep.Status)
	}

	var renderer output.Renderer
	switch strings.ToLower(cfg.Format) {
	case config.FormatJSON:
		renderer = output.NewJSON(w, cfg.Canonical)
	default:
		renderer = output.NewPretty(w, output.IsTerminal(w))
	}
	if err := renderer.Render(rep); err != nil {
		return err
	}

	if cfg.Strict && rep.Status != report.StatusPass {
		return &exitError{code: 1, msg: "one or more tests failed"}
	}
	return nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})).
		With("run_id", uuid.NewString())
}

func checkManifest(dir string, cfg config.Config, logger *slog.Logger) {
	m, err := discovery.FindManifest(dir)
	switch {
	case err == nil:
		logger.Debug("found cargo manifest", "path", m.Path, "package", m.Name())
	case errors.Is(err, discovery.ErrNoManifest):
		if cfg.Warn.MissingManifest {
			logger.Warn("no Cargo.toml in input directory; cargo will search parent directories", "dir", dir)
		}
	default:
		logger.Warn("unable to read Cargo.toml", "err", err)
	}
}

func checkToolchain(cfg config.Config, logger *slog.Logger) {
	if !cfg.Warn.VersionMismatch {
		return
	}
	info, err := detectCargo(cfg.Toolchain)
	if err != nil {
		if version.Missing(err) {
			logger.Warn("cargo executable not found")
			return
		}
		logger.Warn("unable to detect cargo version", "toolchain", cfg.Toolchain, "err", err)
		return
	}
	logger.Debug("detected cargo", "version", info.Version, "channel", info.Channel)
	if !info.Nightly() {
		logger.Warn("toolchain is not nightly; JSON test output needs -Z unstable-options",
			"toolchain", cfg.Toolchain, "channel", info.Channel)
	}
	if cfg.MinCargoVersion != "" && !version.AtLeast(cfg.MinCargoVersion, info.Version) {
		logger.Warn("cargo version mismatch", "required", cfg.MinCargoVersion, "found", info.Version)
	}
}
