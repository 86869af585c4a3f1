package bootstrap

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"vr8-converter/internal/config"
	"vr8-converter/internal/diagnostics"
	"vr8-converter/internal/domain"
)

// TestFixFolderName verifies separators and reserved names are repaired.
func TestFixFolderName(t *testing.T) {
	tests := []struct {
		input       string
		want        string
		wantChanged bool
	}{
		{input: "takes", want: "takes", wantChanged: false},
		{input: "a/b", want: "b", wantChanged: true},
		{input: `x\y`, want: "y", wantChanged: true},
		{input: "..", want: config.DefaultFolderName, wantChanged: true},
		{input: "dir/", want: config.DefaultFolderName, wantChanged: true},
	}

	for _, tt := range tests {
		got, changed := fixFolderName(domain.Settings{FolderName: tt.input})
		if got.FolderName != tt.want || changed != tt.wantChanged {
			t.Fatalf("fixFolderName(%q) = %q, %v; want %q, %v", tt.input, got.FolderName, changed, tt.want, tt.wantChanged)
		}
	}
}

// TestFixOutputDirCreatesDirectory ensures the directory exists after the fix.
func TestFixOutputDirCreatesDirectory(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "out")

	got, changed, err := fixOutputDir(domain.Settings{OutputDir: target}, os.MkdirAll)
	if err != nil {
		t.Fatalf("fixOutputDir: %v", err)
	}
	if changed {
		t.Fatal("expected unchanged settings for explicit dir")
	}
	if info, err := os.Stat(got.OutputDir); err != nil || !info.IsDir() {
		t.Fatalf("output dir missing: %v", err)
	}
}

// TestFixOutputDirReportsMkdirFailure ensures errors are surfaced.
func TestFixOutputDirReportsMkdirFailure(t *testing.T) {
	mkdirAll := func(string, os.FileMode) error { return errors.New("denied") }

	got, changed, err := fixOutputDir(domain.Settings{}, mkdirAll)
	if err == nil {
		t.Fatal("expected mkdir error")
	}
	if !changed || got.OutputDir == "" {
		t.Fatalf("expected default output dir, got %+v", got)
	}
}

// TestFixDiagnosticResetsWorkers saves settings and refreshes the report.
func TestFixDiagnosticResetsWorkers(t *testing.T) {
	store := &fakeStore{settings: domain.Settings{
		OutputDir:  t.TempDir(),
		FolderName: "converted-files",
		Workers:    512,
	}}
	app := &App{Store: store, checker: diagnostics.NewChecker()}

	report, err := app.FixDiagnostic("workers")
	if err != nil {
		t.Fatalf("FixDiagnostic: %v", err)
	}
	if store.saved == nil || store.saved.Workers != 0 {
		t.Fatalf("saved = %+v, want workers reset", store.saved)
	}
	if report.HasFailures {
		t.Fatalf("unexpected failures: %+v", report.Items)
	}
}

// TestFixDiagnosticRejectsUnknownItem checks id validation.
func TestFixDiagnosticRejectsUnknownItem(t *testing.T) {
	app := &App{Store: &fakeStore{}}
	if _, err := app.FixDiagnostic("tool_ffmpeg"); err == nil {
		t.Fatal("expected unsupported id error")
	}
	if _, err := app.FixDiagnostic(" "); err == nil {
		t.Fatal("expected empty id error")
	}
}
