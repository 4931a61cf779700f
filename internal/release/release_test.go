package release

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestCommand_EmptyTemplate(t *testing.T) {
	for _, template := range []string{"", "   ", "\t"} {
		if _, err := Command(template); err == nil {
			t.Fatalf("Command(%q) succeeded, want error", template)
		}
	}
}

// recordScript writes a shell script that records its arguments (one per
// line) into the file given as its first argument.
func recordScript(t *testing.T) (script, argsFile string) {
	t.Helper()
	dir := t.TempDir()
	script = filepath.Join(dir, "record.sh")
	argsFile = filepath.Join(dir, "args.txt")
	body := "#!/bin/sh\nout=\"$1\"; shift\nprintf '%s\\n' \"$@\" > \"$out\"\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return script, argsFile
}

func readArgs(t *testing.T, argsFile string) string {
	t.Helper()
	raw, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("read recorded args: %v", err)
	}
	return string(raw)
}

func TestRun_AppendsPathWithoutPlaceholder(t *testing.T) {
	script, argsFile := recordScript(t)
	r, err := Command(script + " " + argsFile + " --flag")
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	if err := r.Run(context.Background(), "/data/a.bin"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got, want := readArgs(t, argsFile), "--flag\n/data/a.bin\n"; got != want {
		t.Fatalf("recorded args = %q, want %q", got, want)
	}
}

func TestRun_InterpolatesPlaceholder(t *testing.T) {
	script, argsFile := recordScript(t)
	r, err := Command(script + " " + argsFile + " --path {} --again {}")
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	if err := r.Run(context.Background(), "/data/b.bin"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got, want := readArgs(t, argsFile), "--path\n/data/b.bin\n--again\n/data/b.bin\n"; got != want {
		t.Fatalf("recorded args = %q, want %q", got, want)
	}
}

func TestRun_ClassifiesFailure(t *testing.T) {
	t.Run("non-zero exit", func(t *testing.T) {
		r, err := Command("false")
		if err != nil {
			t.Fatalf("Command: %v", err)
		}
		if err := r.Run(context.Background(), "/data/c.bin"); err == nil {
			t.Fatal("Run of failing command succeeded, want error")
		}
	})

	t.Run("spawn failure", func(t *testing.T) {
		r, err := Command("/does/not/exist/release-tool")
		if err != nil {
			t.Fatalf("Command: %v", err)
		}
		if err := r.Run(context.Background(), "/data/d.bin"); err == nil {
			t.Fatal("Run of unspawnable command succeeded, want error")
		}
	})
}
