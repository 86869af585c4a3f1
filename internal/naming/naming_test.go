package naming

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"vr8-converter/internal/domain"
)

// TestUniqueDirectoryReturnsMissingBase checks the untouched fast path.
func TestUniqueDirectoryReturnsMissingBase(t *testing.T) {
	base := filepath.Join(t.TempDir(), "converted-files")

	got, err := UniqueDirectory(base)
	if err != nil {
		t.Fatalf("UniqueDirectory() error = %v", err)
	}
	if got != base {
		t.Fatalf("path = %q, want %q", got, base)
	}
	if _, err := os.Stat(base); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("probe must not create directory, stat err = %v", err)
	}
}

// TestUniqueDirectoryAppendsCounter checks suffix probing for taken names.
func TestUniqueDirectoryAppendsCounter(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "converted-files")
	mustMkdir(t, base)
	mustMkdir(t, base+"(1)")

	got, err := UniqueDirectory(base)
	if err != nil {
		t.Fatalf("UniqueDirectory() error = %v", err)
	}
	if want := base + "(2)"; got != want {
		t.Fatalf("path = %q, want %q", got, want)
	}
}

// TestUniqueDirectoryTreatsFilesAsTaken checks that a plain file blocks the name.
func TestUniqueDirectoryTreatsFilesAsTaken(t *testing.T) {
	base := filepath.Join(t.TempDir(), "out")
	if err := os.WriteFile(base, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := UniqueDirectory(base)
	if err != nil {
		t.Fatalf("UniqueDirectory() error = %v", err)
	}
	if got != base+"(1)" {
		t.Fatalf("path = %q, want %q", got, base+"(1)")
	}
}

// TestUniqueDirectoryNeverRepeatsUnderContention simulates callers claiming each result.
func TestUniqueDirectoryNeverRepeatsUnderContention(t *testing.T) {
	base := filepath.Join(t.TempDir(), "batch")
	mustMkdir(t, base)

	seen := map[string]bool{base: true}
	for i := 0; i < 6; i++ {
		got, err := UniqueDirectory(base)
		if err != nil {
			t.Fatalf("UniqueDirectory() error = %v", err)
		}
		if seen[got] {
			t.Fatalf("path %q returned twice", got)
		}
		if _, err := os.Stat(got); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("returned existing path %q", got)
		}
		seen[got] = true
		mustMkdir(t, got)
	}
}

// TestUniqueDirectoryPropagatesStatErrors checks non-missing stat failures.
func TestUniqueDirectoryPropagatesStatErrors(t *testing.T) {
	_, err := uniqueDirectory("/out", func(string) (os.FileInfo, error) {
		return nil, os.ErrPermission
	})
	if !domain.IsKind(err, domain.KindIO) {
		t.Fatalf("error = %v, want io failure", err)
	}
	if !errors.Is(err, os.ErrPermission) {
		t.Fatalf("error = %v, want wrapped permission error", err)
	}
}

// TestStem covers extension stripping and rejected names.
func TestStem(t *testing.T) {
	cases := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{path: "/rec/TAKE01.VR8", want: "TAKE01"},
		{path: "rec/song.final.vr8", want: "song.final"},
		{path: "noext", want: "noext"},
		{path: "/rec/.hidden", want: ".hidden"},
		{path: "/rec/trailing.", want: "trailing"},
		{path: "/rec/dir/", wantErr: true},
		{path: "", wantErr: true},
		{path: "/", wantErr: true},
		{path: "..", wantErr: true},
	}

	for _, tc := range cases {
		got, err := Stem(tc.path)
		if tc.wantErr {
			if !domain.IsKind(err, domain.KindInvalidInput) {
				t.Fatalf("Stem(%q) error = %v, want invalid input", tc.path, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Stem(%q) error = %v", tc.path, err)
		}
		if got != tc.want {
			t.Fatalf("Stem(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

// TestOutputFileName checks the .wav suffix.
func TestOutputFileName(t *testing.T) {
	got, err := OutputFileName("/rec/TAKE01.VR8")
	if err != nil {
		t.Fatalf("OutputFileName() error = %v", err)
	}
	if got != "TAKE01.wav" {
		t.Fatalf("name = %q, want TAKE01.wav", got)
	}
}

// mustMkdir creates a directory or fails the test.
func mustMkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
}
