// Package engine orchestrates a verification run: manifest streaming, sizing,
// budget admission, digest workers, release dispatch, and outcome reporting.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"tapesum/internal/admission"
	"tapesum/internal/config"
	"tapesum/internal/manifest"
	"tapesum/internal/outcome"
	"tapesum/internal/output"
	"tapesum/internal/release"
	"tapesum/internal/verify"
)

func exitCodeForRun(fatal, partial, wrongs bool) int {
	// Exit code contract (see "tapesum verify --help"):
	// 0 = clean run, every file verified (and released, if configured)
	// 1 = digest mismatches detected
	// 2 = partial failure (read errors or failed releases)
	// 3 = fatal error (bad configuration, unreadable manifest, interrupt)
	if fatal {
		return 3
	}
	if partial {
		return 2
	}
	if wrongs {
		return 1
	}
	return 0
}

type Engine struct {
	cfg      *config.Config
	budget   *admission.Budget
	digester *verify.Digester
	runner   release.Runner // nil when no release command is configured
	log      *slog.Logger

	// statFile is the size oracle; a test seam. Defaults to os.Stat.
	statFile func(path string) (int64, error)
	// digestFile computes a file's digest; a test seam.
	digestFile func(path string) (actual string, read int64, err error)

	parseWarnings atomic.Int64
}

func New(cfg *config.Config) (*Engine, error) {
	budget, err := admission.NewBudget(cfg.Verify.MaxActiveBytes)
	if err != nil {
		return nil, err
	}

	digester, err := verify.New(cfg.Verify.Algorithm)
	if err != nil {
		return nil, err
	}

	var runner release.Runner
	if cfg.Release.Command != "" {
		runner, err = release.Command(cfg.Release.Command)
		if err != nil {
			return nil, err
		}
	}

	return &Engine{
		cfg:        cfg,
		budget:     budget,
		digester:   digester,
		runner:     runner,
		log:        slog.Default(),
		statFile:   statFile,
		digestFile: digester.File,
	}, nil
}

func statFile(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat %q: %w", path, err)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%q is a directory, not a file", path)
	}
	return info.Size(), nil
}

func setupOutputManager(cfg *config.Config) (*output.Manager, error) {
	outMgr := output.NewManager()

	if !cfg.Output.NoConsole {
		if err := outMgr.AddSink(output.NewConsoleSink(nil)); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	if cfg.Output.Out != "" {
		fs, err := output.NewFileSink(cfg.Output.Out, cfg.Output.OutFormat)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(fs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	return outMgr, nil
}

// Run performs the whole verification run and returns the process exit code.
func (e *Engine) Run(ctx context.Context) int {
	manifests, err := manifest.Expand(e.cfg.Inputs.Manifests)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitCodeForRun(true, false, false)
	}
	if len(manifests) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no manifests to verify")
		return exitCodeForRun(true, false, false)
	}

	outMgr, err := setupOutputManager(e.cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output sinks: %v\n", err)
		return exitCodeForRun(true, false, false)
	}
	defer outMgr.Close()

	runID := uuid.NewString()
	start := time.Now()
	e.log.Debug("run starting",
		"run", runID,
		"manifests", len(manifests),
		"budget", humanize.IBytes(uint64(e.budget.Limit())),
		"algorithm", e.digester.Name())
	_ = outMgr.Write(output.Event{Type: "run.started", Run: runID, Manifests: len(manifests), LimitBytes: e.budget.Limit()})

	resCh, errCh := e.execute(ctx, manifests, outMgr)

	var tally outcome.Tally
	for o := range resCh {
		_ = outMgr.Write(o)
		tally.Add(o)
	}

	// Drain fatal errors; keep one non-nil error for the message.
	var fatalErr error
	for err := range errCh {
		if err != nil {
			fatalErr = err
		}
	}
	if fatalErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", fatalErr)
	}
	tally.ParseWarnings = int(e.parseWarnings.Load())

	code := exitCodeForRun(fatalErr != nil, tally.HasPartialFailures(), tally.HasWrongs())
	_ = outMgr.Write(output.Event{Type: "run.finished", Run: runID, ExitCode: code})

	if !e.cfg.Output.NoConsole {
		output.WriteSummary(os.Stderr, &tally, e.budget.Limit(), time.Since(start))
	}
	return code
}
