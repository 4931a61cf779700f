package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"tapesum/internal/outcome"
)

// FileSink writes structured output to a file, either as an aggregate JSON
// array of outcomes (written on Close) or as an NDJSON event stream.
type FileSink struct {
	path     string
	format   string // "json" or "ndjson"
	file     *os.File
	mu       sync.Mutex
	outcomes []outcome.Outcome
}

func NewFileSink(path string, format string) (*FileSink, error) {
	if path == "" {
		return nil, fmt.Errorf("output path required")
	}
	if format != "json" && format != "ndjson" {
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	return &FileSink{
		path:   path,
		format: format,
		file:   f,
	}, nil
}

func (s *FileSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.format {
	case "json":
		o, ok := v.(outcome.Outcome)
		if !ok {
			// Ignore lifecycle events in JSON aggregate mode.
			return nil
		}
		s.outcomes = append(s.outcomes, o)
		return nil
	case "ndjson":
		encoder := json.NewEncoder(s.file)
		switch t := v.(type) {
		case Event:
			return encoder.Encode(t)
		case outcome.Outcome:
			return encoder.Encode(eventFromOutcome(t))
		default:
			return nil
		}
	}
	return nil
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format == "json" {
		encoder := json.NewEncoder(s.file)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(s.outcomes); err != nil {
			_ = s.file.Close()
			return fmt.Errorf("failed to write output file: %w", err)
		}
	}
	return s.file.Close()
}
