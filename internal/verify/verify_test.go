package verify

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	cases := []struct {
		algorithm string
		hexLen    int
	}{
		{"md5", 32},
		{"sha1", 40},
		{"sha256", 64},
		{"sha512", 128},
		{"  SHA256 ", 64},
	}
	for _, tc := range cases {
		t.Run(tc.algorithm, func(t *testing.T) {
			d, err := New(tc.algorithm)
			if err != nil {
				t.Fatalf("New(%q): %v", tc.algorithm, err)
			}
			if got := d.HexLen(); got != tc.hexLen {
				t.Fatalf("HexLen() = %d, want %d", got, tc.hexLen)
			}
		})
	}

	if _, err := New("crc32"); err == nil {
		t.Fatal("New(crc32) succeeded, want error")
	}
}

func TestFile_EmptyFileMD5(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	d, err := New("md5")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, n, err := d.File(path)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if got != "d41d8cd98f00b204e9800998ecf8427e" {
		t.Fatalf("digest = %s, want the canonical empty-file md5", got)
	}
	if n != 0 {
		t.Fatalf("bytes read = %d, want 0", n)
	}
}

func TestFile_KnownContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abc.txt")
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	d, _ := New("md5")
	got, n, err := d.File(path)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	// md5("abc"), straight from RFC 1321's test suite.
	if got != "900150983cd24fb0d6963f7d28e17f72" {
		t.Fatalf("digest = %s, want md5 of \"abc\"", got)
	}
	if n != 3 {
		t.Fatalf("bytes read = %d, want 3", n)
	}
}

func TestFile_Missing(t *testing.T) {
	d, _ := New("md5")
	if _, _, err := d.File(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("File on missing path succeeded, want error")
	}
}

func TestMatch(t *testing.T) {
	if !Match("D41D8CD98F00B204E9800998ECF8427E", "d41d8cd98f00b204e9800998ecf8427e") {
		t.Fatal("Match should ignore hex case")
	}
	if Match("d41d8cd98f00b204e9800998ecf8427e", "00000000000000000000000000000000") {
		t.Fatal("Match accepted differing digests")
	}
}
