package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"

	"tapesum/internal/outcome"
)

// WriteSummary renders the end-of-run summary table. Rounded box drawing on a
// terminal, plain ASCII when redirected.
func WriteSummary(w io.Writer, t *outcome.Tally, limit int64, elapsed time.Duration) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		tw.SetStyle(table.StyleRounded)
	}

	tw.AppendHeader(table.Row{"Result", "Files"})
	tw.AppendRow(table.Row{"Verified", t.OK})
	tw.AppendRow(table.Row{"Mismatched", t.Mismatched})
	tw.AppendRow(table.Row{"Read errors", t.ReadErrors})
	if t.Released > 0 || t.ReleaseFailed > 0 {
		tw.AppendRow(table.Row{"Released", t.Released})
		tw.AppendRow(table.Row{"Release failed", t.ReleaseFailed})
	}
	tw.AppendFooter(table.Row{"Total", t.Total()})
	tw.Render()

	if t.ParseWarnings > 0 {
		fmt.Fprintf(w, "%d malformed manifest line(s) skipped\n", t.ParseWarnings)
	}
	if t.Oversized > 0 {
		fmt.Fprintf(w, "%d file(s) exceeded the %s budget and ran alone\n", t.Oversized, humanize.IBytes(uint64(limit)))
	}
	fmt.Fprintf(w, "%s verified in %s\n", humanize.IBytes(uint64(t.BytesVerified)), elapsed.Round(time.Millisecond))
}
