package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"tapesum/internal/config"
	"tapesum/internal/manifest"
	"tapesum/internal/outcome"
	"tapesum/internal/output"
	"tapesum/internal/verify"
)

// execute streams terminal Outcomes for every valid manifest entry.
//
// Channel semantics:
//   - Exactly one Outcome is sent per syntactically valid entry, in
//     completion order. On cancellation, entries not yet admitted produce no
//     Outcome; admitted workers finish their file and still report.
//   - The error channel carries fatal errors (unreadable manifest,
//     cancellation); per-file failures are data on the Outcome.
//   - Both channels are closed after all admitted workers have finished, so
//     no release command is left unawaited.
//
// Admission is FIFO by manifest order: the single producer goroutine blocks
// in Budget.Acquire, so a later entry cannot be sized or admitted before an
// earlier one has been granted budget. Already-admitted workers run fully in
// parallel; overlapping their recall latency is the point of the tool.
func (e *Engine) execute(ctx context.Context, manifests []string, outMgr *output.Manager) (<-chan outcome.Outcome, <-chan error) {
	resCh := make(chan outcome.Outcome)
	errCh := make(chan error, 1)

	go func() {
		defer close(resCh)
		defer close(errCh)

		trySendErr := func(err error) {
			if err == nil {
				return
			}
			select {
			case errCh <- err:
			default:
			}
		}

		var workers errgroup.Group

		for _, mf := range manifests {
			if ctx.Err() != nil {
				break
			}
			err := manifest.Scan(mf, e.digester.HexLen(),
				func(ent manifest.Entry) error {
					return e.admit(ctx, ent, &workers, resCh)
				},
				func(w manifest.Warning) {
					e.parseWarnings.Add(1)
					e.log.Debug("skipping malformed manifest line", "manifest", w.Manifest, "line", w.Line, "reason", w.Reason)
					_ = outMgr.Write(output.Event{Type: "manifest.warning", Manifest: w.Manifest, Line: w.Line, Message: w.Reason})
				})
			if err != nil {
				trySendErr(err)
				break
			}
		}

		// In-flight files are finished, not killed; their outcomes drain
		// through resCh before it closes.
		_ = workers.Wait()
		trySendErr(ctx.Err())
	}()

	return resCh, errCh
}

// admit sizes one candidate, waits for budget, and hands it to a worker.
// A size-oracle failure produces an immediate ReadError outcome and consumes
// no budget; the rest of the stream is unaffected.
func (e *Engine) admit(ctx context.Context, ent manifest.Entry, workers *errgroup.Group, resCh chan<- outcome.Outcome) error {
	size, err := e.statFile(ent.Path)
	if err != nil {
		o := outcome.Outcome{
			Path:     ent.Path,
			Manifest: ent.Manifest,
			Expected: ent.Digest,
			Status:   outcome.StatusReadError,
			Error:    err.Error(),
		}
		o.Release, o.ReleaseError = e.dispatchRelease(ctx, ent.Path, o.Status)
		resCh <- o
		return nil
	}

	oversized := e.budget.Oversized(size)
	if oversized {
		e.log.Warn("file exceeds byte budget, will run alone", "path", ent.Path, "size", size, "limit", e.budget.Limit())
	}

	if err := e.budget.Acquire(ctx, size); err != nil {
		return err
	}
	e.log.Debug("admitted", "path", ent.Path, "size", size, "active", e.budget.Active())

	workers.Go(func() error {
		defer e.budget.Release(size)
		resCh <- e.verifyOne(ctx, ent, size, oversized)
		return nil
	})
	return nil
}

// verifyOne streams one admitted candidate through the digest, classifies the
// result, and runs the release dispatch. The budget share is freed by the
// caller's defer after release dispatch completes, so a file counts against
// the budget for as long as it may still occupy primary storage.
func (e *Engine) verifyOne(ctx context.Context, ent manifest.Entry, size int64, oversized bool) outcome.Outcome {
	o := outcome.Outcome{
		Path:      ent.Path,
		Manifest:  ent.Manifest,
		Expected:  ent.Digest,
		Size:      size,
		Oversized: oversized,
	}

	actual, _, err := e.digestFile(ent.Path)
	switch {
	case err != nil:
		o.Status = outcome.StatusReadError
		o.Error = err.Error()
	case verify.Match(ent.Digest, actual):
		o.Status = outcome.StatusOK
		o.Actual = actual
	default:
		o.Status = outcome.StatusMismatch
		o.Actual = actual
	}

	o.Release, o.ReleaseError = e.dispatchRelease(ctx, ent.Path, o.Status)
	return o
}

// dispatchRelease runs the configured release command for one completed
// candidate and classifies the result. Runs strictly after the candidate's
// own verification but concurrently with everything else.
func (e *Engine) dispatchRelease(ctx context.Context, path string, status outcome.Status) (outcome.ReleaseStatus, string) {
	if e.runner == nil {
		return outcome.ReleaseSkipped, ""
	}
	if status != outcome.StatusOK && e.cfg.Release.On != config.ReleaseOnAlways {
		return outcome.ReleaseSkipped, ""
	}

	// A release that has started is always awaited, even during shutdown.
	if err := e.runner.Run(context.WithoutCancel(ctx), path); err != nil {
		e.log.Debug("release failed", "path", path, "error", err)
		return outcome.ReleaseFailed, err.Error()
	}
	e.log.Debug("released", "path", path)
	return outcome.ReleaseDone, ""
}
