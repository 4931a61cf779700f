// Package config holds the run configuration assembled from CLI flags and an
// optional TOML config file, plus its validation and normalization.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// ReleaseOn policies.
const (
	// ReleaseOnVerified releases only files whose digest matched.
	ReleaseOnVerified = "verified"
	// ReleaseOnAlways also releases mismatched and unreadable files, for
	// operators who want a bad tape copy off primary storage regardless.
	ReleaseOnAlways = "always"
)

type Config struct {
	Inputs  Inputs
	Verify  Verify
	Release Release
	Output  Output
	Runtime Runtime
}

type Inputs struct {
	// Manifests are the manifest paths or glob patterns to verify
	// (positional arguments). Defaults to ["md5sum"].
	Manifests []string
}

type Verify struct {
	// MaxActive is the byte budget for files concurrently resident on
	// primary storage, in humanize syntax ("200GiB", "1.5TB", "1073741824").
	// See --max-active.
	MaxActive string

	// Algorithm selects the manifest digest algorithm (see --algorithm).
	// Allowed values: md5, sha1, sha256, sha512.
	Algorithm string

	// MaxActiveBytes is MaxActive parsed to bytes. Populated by Validate.
	MaxActiveBytes int64
}

type Release struct {
	// Command is the release command template (see --release). Split on
	// whitespace; "{}" arguments are replaced with the file path, or the
	// path is appended when no placeholder is present. Empty disables
	// release entirely.
	Command string

	// On selects which files the release command runs for (see --release-on).
	// Allowed values: verified, always.
	On string
}

type Output struct {
	// Out writes structured output to this path (see --out).
	Out string

	// OutFormat selects the format for --out (see --out-format).
	// Allowed values: json, ndjson. If empty, inferred from the extension.
	OutFormat string

	// NoConsole suppresses the console sink (see --no-console).
	NoConsole bool
}

type Runtime struct {
	// Verbose enables debug diagnostics on stderr (admissions, releases,
	// budget movements).
	Verbose bool
}

func New() *Config {
	return &Config{
		Inputs: Inputs{
			Manifests: []string{"md5sum"},
		},
		Verify: Verify{
			MaxActive: "1TiB",
			Algorithm: "md5",
		},
		Release: Release{
			On: ReleaseOnVerified,
		},
	}
}

// Validate normalizes and checks the configuration. Any error here is a
// configuration fault and fatal to the process (exit 3), as opposed to
// per-file failures which are data.
func (c *Config) Validate() error {
	if len(c.Inputs.Manifests) == 0 {
		return errors.New("at least one manifest path or pattern is required")
	}

	c.Verify.MaxActive = strings.TrimSpace(c.Verify.MaxActive)
	if c.Verify.MaxActive == "" {
		return errors.New("--max-active must not be empty")
	}
	size, err := humanize.ParseBytes(c.Verify.MaxActive)
	if err != nil {
		return fmt.Errorf("invalid --max-active value %q: %w", c.Verify.MaxActive, err)
	}
	if size == 0 {
		return errors.New("--max-active must be > 0 bytes")
	}
	c.Verify.MaxActiveBytes = int64(size)

	c.Verify.Algorithm = normalizeEnumValue(c.Verify.Algorithm)
	switch c.Verify.Algorithm {
	case "md5", "sha1", "sha256", "sha512":
	case "":
		c.Verify.Algorithm = "md5"
	default:
		return fmt.Errorf("unsupported --algorithm: %s (must be one of: md5, sha1, sha256, sha512)", c.Verify.Algorithm)
	}

	if strings.TrimSpace(c.Release.Command) == "" && c.Release.Command != "" {
		return errors.New("--release command must not be blank")
	}
	c.Release.Command = strings.TrimSpace(c.Release.Command)

	c.Release.On = normalizeEnumValue(c.Release.On)
	if c.Release.On == "" {
		c.Release.On = ReleaseOnVerified
	}
	if c.Release.On != ReleaseOnVerified && c.Release.On != ReleaseOnAlways {
		return fmt.Errorf("unsupported --release-on: %s (must be one of: verified, always)", c.Release.On)
	}

	if c.Output.Out != "" {
		c.Output.OutFormat = normalizeEnumValue(c.Output.OutFormat)
		if c.Output.OutFormat == "" {
			ext := strings.ToLower(filepath.Ext(c.Output.Out))
			switch ext {
			case ".json":
				c.Output.OutFormat = "json"
			case ".ndjson", ".jsonl":
				c.Output.OutFormat = "ndjson"
			default:
				if ext == "" {
					return errors.New("cannot infer output format from file extension (missing extension); use --out-format")
				}
				return fmt.Errorf("cannot infer output format from file extension %q; use --out-format", ext)
			}
		} else if c.Output.OutFormat != "json" && c.Output.OutFormat != "ndjson" {
			return fmt.Errorf("unsupported output format: %s", c.Output.OutFormat)
		}
	}

	return nil
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
