package outcome

// Status is the verification result for one manifest entry.
type Status string

const (
	// StatusOK means the computed digest matched the manifest.
	StatusOK Status = "OK"
	// StatusMismatch means the file was read completely but its digest
	// differs from the manifest. This is the condition the tool exists to catch.
	StatusMismatch Status = "MISMATCH"
	// StatusReadError covers stat, open, and read failures, including a
	// recall that never completes. Read errors are not retried.
	StatusReadError Status = "ERROR"
)

// ReleaseStatus is the terminal state of the release action for one entry.
type ReleaseStatus string

const (
	// ReleaseDone means the configured release command exited zero.
	ReleaseDone ReleaseStatus = "RELEASED"
	// ReleaseFailed means the command could not be spawned or exited non-zero.
	ReleaseFailed ReleaseStatus = "FAILED"
	// ReleaseSkipped means no release was attempted, either because no
	// command is configured or because policy excludes this entry.
	ReleaseSkipped ReleaseStatus = "SKIPPED"
)

// Outcome is the terminal record for one manifest entry. Exactly one Outcome
// is produced per syntactically valid entry, in completion order.
type Outcome struct {
	Path     string `json:"path"`
	Manifest string `json:"manifest,omitempty"`
	Expected string `json:"expected"`
	// Actual is the computed digest. Empty when the file could not be read.
	Actual string `json:"actual,omitempty"`
	// Size is the byte length reported by the size oracle before admission.
	Size   int64  `json:"size,omitempty"`
	Status Status `json:"status"`
	// Oversized marks an entry whose size alone exceeds the byte budget and
	// which was therefore admitted alone. A warning, not a failure.
	Oversized    bool          `json:"oversized,omitempty"`
	Release      ReleaseStatus `json:"release,omitempty"`
	Error        string        `json:"error,omitempty"`
	ReleaseError string        `json:"release_error,omitempty"`
}

// Tally accumulates terminal Outcomes into the aggregate counts the final
// summary and the exit status are computed from. The reduction is
// commutative: the exit status does not depend on completion order.
type Tally struct {
	OK         int
	Mismatched int
	ReadErrors int

	Released       int
	ReleaseFailed  int
	ReleaseSkipped int

	Oversized     int
	ParseWarnings int

	// BytesVerified is the total size of files whose content was fully
	// digested, whether or not the digest matched.
	BytesVerified int64
}

// Add folds one terminal Outcome into the tally.
func (t *Tally) Add(o Outcome) {
	switch o.Status {
	case StatusOK:
		t.OK++
		t.BytesVerified += o.Size
	case StatusMismatch:
		t.Mismatched++
		t.BytesVerified += o.Size
	case StatusReadError:
		t.ReadErrors++
	}

	switch o.Release {
	case ReleaseDone:
		t.Released++
	case ReleaseFailed:
		t.ReleaseFailed++
	case ReleaseSkipped:
		t.ReleaseSkipped++
	}

	if o.Oversized {
		t.Oversized++
	}
}

// Total is the number of terminal Outcomes folded in so far.
func (t *Tally) Total() int {
	return t.OK + t.Mismatched + t.ReadErrors
}

// HasWrongs reports whether any entry failed integrity verification.
func (t *Tally) HasWrongs() bool {
	return t.Mismatched > 0
}

// HasPartialFailures reports whether any entry hit an operational failure
// (unreadable file or failed release) without the run itself being fatal.
func (t *Tally) HasPartialFailures() bool {
	return t.ReadErrors > 0 || t.ReleaseFailed > 0
}
