package output

import "tapesum/internal/outcome"

// Event is a lifecycle record for structured output streams.
//
// In NDJSON mode, sinks emit Events (one JSON object per line):
//   - run.started
//   - manifest.warning (a skipped malformed manifest line)
//   - file.result
//   - run.finished
//
// JSON mode remains an aggregate array of outcome.Outcome values.
type Event struct {
	Type string `json:"type"`
	// Run is the run identifier stamped on every lifecycle event.
	Run       string `json:"run,omitempty"`
	Manifests int    `json:"manifests,omitempty"`
	// LimitBytes is the configured byte budget.
	LimitBytes int64 `json:"limit_bytes,omitempty"`
	// Manifest and Line locate a manifest warning.
	Manifest string `json:"manifest,omitempty"`
	Line     int    `json:"line,omitempty"`
	Message  string `json:"message,omitempty"`
	*outcome.Outcome
	ExitCode int `json:"exit_code,omitempty"`
}

func eventFromOutcome(o outcome.Outcome) Event {
	// Event.Manifest shadows the embedded Outcome's field during marshaling,
	// so it has to be carried over explicitly.
	return Event{Type: "file.result", Manifest: o.Manifest, Outcome: &o}
}
