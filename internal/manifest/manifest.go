// Package manifest discovers checksum manifests and parses their entries.
//
// The line contract is the md5sum family format:
//
//	<hex digest><one-or-more spaces/tabs><path>
//
// Conventionally the separator is two spaces, but a single space or tab is
// accepted. A leading '*' on the path (the md5sum binary-mode marker) is
// stripped. Malformed lines are surfaced as warnings and skipped; they are
// never fatal.
package manifest

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Entry is one syntactically valid manifest line.
type Entry struct {
	// Manifest is the manifest file the entry came from.
	Manifest string
	// Line is the 1-based line number within the manifest.
	Line int
	// Path is the target file, resolved relative to the manifest's directory
	// unless the manifest listed it as absolute.
	Path string
	// Digest is the expected digest, lowercase hex.
	Digest string
}

// Warning describes a malformed manifest line that was skipped.
type Warning struct {
	Manifest string
	Line     int
	Reason   string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s:%d: %s", w.Manifest, w.Line, w.Reason)
}

// Expand resolves manifest arguments into concrete manifest paths. Arguments
// containing glob metacharacters are expanded with filepath.Glob; a pattern
// that matches nothing is an error. Plain paths pass through unchecked (a
// missing manifest surfaces when it is opened). Duplicates are dropped,
// first occurrence wins.
func Expand(args []string) ([]string, error) {
	var paths []string
	seen := make(map[string]struct{})

	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		paths = append(paths, p)
	}

	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[") {
			add(arg)
			continue
		}
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid manifest pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("manifest pattern %q matched no files", arg)
		}
		for _, m := range matches {
			add(m)
		}
	}

	return paths, nil
}

// Scan reads one manifest line by line, calling emit for every valid entry
// and warn for every malformed one. digestLen is the expected hex length of
// the configured algorithm. Scanning stops early if emit returns an error;
// that error is passed through.
func Scan(path string, digestLen int, emit func(Entry) error, warn func(Warning)) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open manifest %q: %w", path, err)
	}
	defer f.Close()

	base := filepath.Dir(path)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		digest, target, reason := parseLine(line, digestLen)
		if reason != "" {
			if warn != nil {
				warn(Warning{Manifest: path, Line: lineNo, Reason: reason})
			}
			continue
		}

		if !filepath.IsAbs(target) {
			target = filepath.Join(base, target)
		}
		if err := emit(Entry{Manifest: path, Line: lineNo, Path: target, Digest: digest}); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read manifest %q: %w", path, err)
	}
	return nil
}

// parseLine splits one manifest line into digest and path. An empty reason
// means the line is valid.
func parseLine(line string, digestLen int) (digest, path, reason string) {
	sep := strings.IndexAny(line, " \t")
	if sep < 0 {
		return "", "", "missing separator between digest and path"
	}

	digest = line[:sep]
	if len(digest) != digestLen {
		return "", "", fmt.Sprintf("digest is %d hex characters, expected %d", len(digest), digestLen)
	}
	if !isHex(digest) {
		return "", "", fmt.Sprintf("digest %q is not hexadecimal", digest)
	}

	path = strings.TrimLeft(line[sep:], " \t")
	// md5sum binary-mode marker.
	path = strings.TrimPrefix(path, "*")
	if path == "" {
		return "", "", "missing path after digest"
	}

	return strings.ToLower(digest), path, ""
}

func isHex(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
