// Package verify streams file content through a digest accumulator and
// compares the result to a manifest's expected value.
package verify

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"
)

// readBufferSize is sized so that each read keeps a recalled file's stream
// moving without hammering the storage layer with tiny requests.
const readBufferSize = 512 * 1024

// Digester computes file digests for one configured algorithm.
type Digester struct {
	name    string
	factory func() hash.Hash
}

// New returns a Digester for the named algorithm. Supported: md5 (the
// manifest family's default), sha1, sha256, sha512.
func New(algorithm string) (*Digester, error) {
	name := strings.ToLower(strings.TrimSpace(algorithm))
	var factory func() hash.Hash
	switch name {
	case "md5":
		factory = md5.New
	case "sha1":
		factory = sha1.New
	case "sha256":
		factory = sha256.New
	case "sha512":
		factory = sha512.New
	default:
		return nil, fmt.Errorf("unsupported digest algorithm %q (must be one of: md5, sha1, sha256, sha512)", algorithm)
	}
	return &Digester{name: name, factory: factory}, nil
}

// Name returns the normalized algorithm name.
func (d *Digester) Name() string {
	return d.name
}

// HexLen returns the digest length in hex characters, which is also the
// expected digest width on manifest lines.
func (d *Digester) HexLen() int {
	return d.factory().Size() * 2
}

// File streams the file at path through the digest and returns the computed
// digest as lowercase hex along with the number of bytes read. The read loop
// is deliberately not cancelable: once a file has been recalled onto primary
// storage, finishing it and releasing is cheaper than abandoning it mid-read.
func (d *Digester) File(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open %q: %w", path, err)
	}
	defer f.Close()

	h := d.factory()
	buf := make([]byte, readBufferSize)
	n, err := io.CopyBuffer(h, f, buf)
	if err != nil {
		return "", n, fmt.Errorf("failed reading %q: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// Match reports whether two hex digests are equal, ignoring case.
func Match(expected, actual string) bool {
	return strings.EqualFold(expected, actual)
}
