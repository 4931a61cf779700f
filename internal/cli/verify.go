package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tapesum/internal/config"
	"tapesum/internal/engine"
	"tapesum/internal/flags"
)

var configPath string

var verifyCmd = &cobra.Command{
	Use:   "verify [manifest ...]",
	Short: "Verify files against one or more checksum manifests",
	Long: `Verify files against md5-style checksum manifests.

Arguments are manifest paths or glob patterns; the default is a file named
"md5sum" in the current directory. Manifest lines have the form

  <hex digest><one-or-more spaces/tabs><path>

and paths resolve relative to their manifest's directory. Malformed lines are
skipped with a warning.

Admission:
  Files are admitted in manifest order, each occupying its byte size of the
  --max-active budget until it has been read (and released, if configured).
  There is no worker-count cap: many small files verify in parallel, a single
  file bigger than the whole budget runs alone.

Release:
  --release gives a command run once per verified file. The command is split
  on whitespace; every "{}" argument is replaced with the file path, or the
  path is appended when no "{}" appears. Only the exit code is interpreted:
  zero marks the file RELEASED, anything else RELEASE FAILED (never retried).
  --release-on always extends release to mismatched and unreadable files.

Exit codes:
  0 = every file verified (and released, if a release command is configured)
  1 = digest mismatches detected
  2 = partial failure (read errors or failed releases)
  3 = fatal error (bad configuration, unreadable manifest, interrupt)

Examples:
  # Verify ./md5sum with the default budget
  tapesum verify

  # Several manifests, 500 GiB budget, recall-release after each file
  tapesum verify --max-active 500GiB --release "dsmrecall -r {}" /archive/*/md5sum

  # Machine-readable results only
  tapesum verify --no-console --out results.ndjson`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) > 0 {
			cfg.Inputs.Manifests = args
		}

		if configPath != "" {
			fileCfg, err := config.LoadFile(configPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(3)
			}
			applyConfigFile(cmd, cfg, fileCfg, len(args) > 0)
		}

		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}

		setupLogging(cfg.Runtime.Verbose)

		eng, err := engine.New(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}

		// Best-effort cancellation: stop admitting new files, let in-flight
		// workers finish their current file and release cleanly.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		os.Exit(eng.Run(ctx))
	},
}

// applyConfigFile copies config-file values into cfg for every option the
// user did not set explicitly. Explicit flags (and positional manifest
// arguments) always win.
func applyConfigFile(cmd *cobra.Command, cfg *config.Config, fileCfg *config.File, haveArgs bool) {
	changed := cmd.Flags().Changed

	if !haveArgs && len(fileCfg.Manifests) > 0 {
		cfg.Inputs.Manifests = fileCfg.Manifests
	}
	if !changed(flags.FlagMaxActive) && fileCfg.MaxActive != "" {
		cfg.Verify.MaxActive = fileCfg.MaxActive
	}
	if !changed(flags.FlagAlgorithm) && fileCfg.Algorithm != "" {
		cfg.Verify.Algorithm = fileCfg.Algorithm
	}
	if !changed(flags.FlagRelease) && fileCfg.Release.Command != "" {
		cfg.Release.Command = fileCfg.Release.Command
	}
	if !changed(flags.FlagReleaseOn) && fileCfg.Release.On != "" {
		cfg.Release.On = fileCfg.Release.On
	}
	if !changed(flags.FlagOut) && fileCfg.Output.Out != "" {
		cfg.Output.Out = fileCfg.Output.Out
	}
	if !changed(flags.FlagOutFormat) && fileCfg.Output.OutFormat != "" {
		cfg.Output.OutFormat = fileCfg.Output.OutFormat
	}
}

func setupLogging(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	// Verification
	verifyCmd.Flags().StringVar(&cfg.Verify.MaxActive, flags.FlagMaxActive, cfg.Verify.MaxActive, "Byte budget for files concurrently resident on primary storage (e.g. 200GiB, 1.5TB)")
	verifyCmd.Flags().StringVar(&cfg.Verify.Algorithm, flags.FlagAlgorithm, cfg.Verify.Algorithm, "Manifest digest algorithm: md5|sha1|sha256|sha512 (default: md5)")

	// Release
	verifyCmd.Flags().StringVar(&cfg.Release.Command, flags.FlagRelease, "", "Release command template run per completed file ({} = file path; appended if absent)")
	verifyCmd.Flags().StringVar(&cfg.Release.On, flags.FlagReleaseOn, cfg.Release.On, "Which files to release: verified|always (default: verified)")

	// Output
	verifyCmd.Flags().StringVar(&cfg.Output.Out, flags.FlagOut, "", "Write structured output to this path")
	verifyCmd.Flags().StringVar(&cfg.Output.OutFormat, flags.FlagOutFormat, "", "Structured output format for --out: json|ndjson (default: inferred from file extension)")
	verifyCmd.Flags().BoolVar(&cfg.Output.NoConsole, flags.FlagNoConsole, false, "Suppress console output (use with --out)")

	// Runtime
	verifyCmd.Flags().StringVar(&configPath, flags.FlagConfig, "", "TOML config file supplying defaults (explicit flags win)")
}
