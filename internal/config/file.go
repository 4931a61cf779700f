package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// File is the optional TOML configuration file (see --config). It supplies
// defaults only: explicitly set CLI flags always win.
//
// Example:
//
//	manifests = ["/archive/**"]  # not expanded here; passed through as args
//	max_active = "200GiB"
//	algorithm = "md5"
//
//	[release]
//	command = "dsmrecall -r {}"
//	on = "verified"
type File struct {
	Manifests []string `toml:"manifests"`
	MaxActive string   `toml:"max_active"`
	Algorithm string   `toml:"algorithm"`

	Release struct {
		Command string `toml:"command"`
		On      string `toml:"on"`
	} `toml:"release"`

	Output struct {
		Out       string `toml:"out"`
		OutFormat string `toml:"out_format"`
	} `toml:"output"`
}

// LoadFile reads and decodes a TOML config file. Unknown keys are rejected so
// a typoed option fails loudly instead of silently doing nothing.
func LoadFile(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	var f File
	dec := toml.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
	}
	return &f, nil
}
