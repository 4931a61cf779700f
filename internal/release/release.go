// Package release runs the operator-supplied command that frees a consumed
// file's primary-storage footprint.
package release

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Placeholder is the template token substituted with the target path.
const Placeholder = "{}"

// Runner executes the release action for one file. It is a capability so the
// scheduler can be tested without spawning processes.
type Runner interface {
	// Run invokes the release action for path and waits for it. A nil error
	// classifies the file as Released; any error (non-zero exit or spawn
	// failure) classifies it as ReleaseFailed.
	Run(ctx context.Context, path string) error
}

// Command builds an exec-backed Runner from a command template. The template
// is split on whitespace; every argument equal to "{}" is replaced with the
// target path. If no placeholder appears, the path is appended as the final
// argument, matching the md5sum-style convention of path-last tools.
func Command(template string) (Runner, error) {
	argv := strings.Fields(template)
	if len(argv) == 0 {
		return nil, fmt.Errorf("release command is empty")
	}

	interpolates := false
	for _, arg := range argv {
		if arg == Placeholder {
			interpolates = true
			break
		}
	}

	return &execRunner{argv: argv, interpolates: interpolates}, nil
}

type execRunner struct {
	argv         []string
	interpolates bool
}

func (r *execRunner) Run(ctx context.Context, path string) error {
	argv := make([]string, 0, len(r.argv)+1)
	for _, arg := range r.argv {
		if r.interpolates && arg == Placeholder {
			argv = append(argv, path)
			continue
		}
		argv = append(argv, arg)
	}
	if !r.interpolates {
		argv = append(argv, path)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	// Let the operator's command report its own diagnostics; only the exit
	// code is interpreted.
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("release command failed for %q: %w", path, err)
	}
	return nil
}
