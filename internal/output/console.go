package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"

	"tapesum/internal/outcome"
)

var (
	statusOK       = color.New(color.FgGreen)
	statusMismatch = color.New(color.FgRed, color.Bold)
	statusError    = color.New(color.FgRed)
	warnColor      = color.New(color.FgYellow)
)

// ConsoleSink renders one human-readable line per file outcome, plus
// manifest warnings. Lifecycle events it does not recognize are ignored.
type ConsoleSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewConsoleSink(w io.Writer) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleSink{writer: w}
}

func (s *ConsoleSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch t := v.(type) {
	case outcome.Outcome:
		return s.writeOutcome(t)
	case Event:
		if t.Type == "manifest.warning" {
			_, err := fmt.Fprintf(s.writer, "%s %s:%d: %s\n", warnColor.Sprint("warning:"), t.Manifest, t.Line, t.Message)
			return err
		}
		return nil
	default:
		return nil
	}
}

func (s *ConsoleSink) writeOutcome(o outcome.Outcome) error {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s] %s", colorizeStatus(o.Status), o.Path)

	var notes []string
	switch o.Status {
	case outcome.StatusMismatch:
		notes = append(notes, fmt.Sprintf("expected %s, got %s", o.Expected, o.Actual))
	case outcome.StatusReadError:
		if o.Error != "" {
			notes = append(notes, o.Error)
		}
	}
	if o.Oversized {
		notes = append(notes, "exceeds byte budget, ran alone")
	}
	if o.Release == outcome.ReleaseFailed && o.ReleaseError != "" {
		notes = append(notes, fmt.Sprintf("release failed: %s", o.ReleaseError))
	}
	if len(notes) > 0 {
		fmt.Fprintf(&b, " - %s", strings.Join(notes, "; "))
	}

	_, err := fmt.Fprintln(s.writer, b.String())
	return err
}

func colorizeStatus(st outcome.Status) string {
	switch st {
	case outcome.StatusOK:
		return statusOK.Sprint(string(st))
	case outcome.StatusMismatch:
		return statusMismatch.Sprint(string(st))
	case outcome.StatusReadError:
		return statusError.Sprint(string(st))
	default:
		return string(st)
	}
}

func (s *ConsoleSink) Close() error {
	return nil
}
