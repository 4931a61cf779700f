package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tapesum/internal/config"
	"tapesum/internal/flags"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var cfg = config.New()

var rootCmd = &cobra.Command{
	Use:   "tapesum",
	Short: "Verify checksum manifests on hierarchical storage without flooding it",
	Long: `Tapesum verifies file collections against md5-style checksum manifests on
hierarchical storage, where opening a file triggers a slow recall from tape
into a capacity-limited primary filesystem.

A byte budget caps the combined size of files being verified at once, so any
number of recalls may overlap without overflowing primary storage. After a
file has been fully read, an optional operator-supplied release command can
free its primary-storage footprint.

Examples:
	# Show available commands and global flags
	tapesum --help

	# Verify the default ./md5sum manifest under a 200 GiB budget
	tapesum verify --max-active 200GiB

	# Print build info
	tapesum version`,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&cfg.Runtime.Verbose, flags.FlagVerbose, false, "Enable debug diagnostics on stderr (admissions, releases, budget movements)")
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
