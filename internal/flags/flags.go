// Package flags defines canonical CLI flag names shared across the CLI and
// config-file merging. Keeping these as constants avoids drift between Cobra
// flag wiring and the code that checks whether a flag was explicitly set.
// IMPORTANT: These are flag *names* without leading dashes.
package flags
const (
	// Verification
	FlagMaxActive = "max-active"
	FlagAlgorithm = "algorithm"

	// Release
	FlagRelease   = "release"
	FlagReleaseOn = "release-on"

	// Output
	FlagOut       = "out"
	FlagOutFormat = "out-format"
	FlagNoConsole = "no-console"

	// Runtime
	FlagConfig  = "config"
	FlagVerbose = "verbose"
)
