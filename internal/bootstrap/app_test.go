package bootstrap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"vr8-converter/internal/convert"
	"vr8-converter/internal/domain"
	"vr8-converter/internal/jobs"
	"vr8-converter/internal/metrics"
	"vr8-converter/internal/naming"
)

// fakeStore returns deterministic settings for App tests.
type fakeStore struct {
	settings domain.Settings
	saved    *domain.Settings
}

// Load returns preconfigured settings.
func (s *fakeStore) Load() (domain.Settings, error) {
	return s.settings, nil
}

// Save records the last saved settings.
func (s *fakeStore) Save(settings domain.Settings) error {
	s.saved = &settings
	s.settings = settings
	return nil
}

// fakeConverter allows injecting custom convert behavior per test.
type fakeConverter struct {
	convert func(ctx context.Context, paths []string, outputDir string, progress convert.ProgressFunc) (domain.ConversionResult, error)
}

// Convert delegates to the injected function.
func (c *fakeConverter) Convert(
	ctx context.Context,
	paths []string,
	outputDir string,
	progress convert.ProgressFunc,
) (domain.ConversionResult, error) {
	return c.convert(ctx, paths, outputDir, progress)
}

// newTestApp builds an App around a fake converter.
func newTestApp(settings domain.Settings, conv batchConverter) *App {
	return &App{
		Settings:     settings,
		Store:        &fakeStore{settings: settings},
		Jobs:         jobs.NewManager(),
		newConverter: func(domain.Settings) batchConverter { return conv },
		uniqueDir:    naming.UniqueDirectory,
		events:       jobs.NewEventBus(100),
	}
}

// TestConvertFilesUsesUniqueBatchFolder checks folder numbering and result events.
func TestConvertFilesUsesUniqueBatchFolder(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "converted-files"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	var gotDir string
	var gotPaths []string
	conv := &fakeConverter{convert: func(_ context.Context, paths []string, outputDir string, progress convert.ProgressFunc) (domain.ConversionResult, error) {
		gotDir, gotPaths = outputDir, paths
		progress(50)
		progress(100)
		return domain.ConversionResult{FilesConverted: len(paths), DurationMs: 12, OutputDir: outputDir}, nil
	}}
	app := newTestApp(domain.Settings{OutputDir: root, FolderName: "converted-files"}, conv)

	result, err := app.ConvertFiles([]string{" /in/a.vr8 ", "", "/in/b.vr8"}, "")
	if err != nil {
		t.Fatalf("ConvertFiles: %v", err)
	}

	wantDir := filepath.Join(root, "converted-files(1)")
	if gotDir != wantDir {
		t.Fatalf("output dir = %q, want %q", gotDir, wantDir)
	}
	if len(gotPaths) != 2 || gotPaths[0] != "/in/a.vr8" {
		t.Fatalf("paths = %q, want trimmed non-empty paths", gotPaths)
	}
	if result.FilesConverted != 2 {
		t.Fatalf("FilesConverted = %d, want 2", result.FilesConverted)
	}
	if app.CurrentJob().Status != domain.JobStatusDone {
		t.Fatalf("status = %s, want done", app.CurrentJob().Status)
	}

	events := app.JobEvents(0)
	assertEventTypeExists(t, events, jobs.EventTypeStatus)
	assertEventTypeExists(t, events, jobs.EventTypeProgress)
	assertEventTypeExists(t, events, jobs.EventTypeResult)

	last := events[len(events)-1]
	if last.Type != jobs.EventTypeResult || last.OutputDir != wantDir {
		t.Fatalf("last event = %+v, want result for %s", last, wantDir)
	}
}

// TestConvertFilesExplicitOutputDir prefers the argument over settings.
func TestConvertFilesExplicitOutputDir(t *testing.T) {
	root := t.TempDir()
	var gotDir string
	conv := &fakeConverter{convert: func(_ context.Context, _ []string, outputDir string, _ convert.ProgressFunc) (domain.ConversionResult, error) {
		gotDir = outputDir
		return domain.ConversionResult{OutputDir: outputDir}, nil
	}}
	app := newTestApp(domain.Settings{OutputDir: "/unused", FolderName: "takes"}, conv)

	if _, err := app.ConvertFiles(nil, root); err != nil {
		t.Fatalf("ConvertFiles: %v", err)
	}
	if want := filepath.Join(root, "takes"); gotDir != want {
		t.Fatalf("output dir = %q, want %q", gotDir, want)
	}
}

// TestConvertFilesKeepsBatchInsideOutputDir strips path elements from the folder name.
func TestConvertFilesKeepsBatchInsideOutputDir(t *testing.T) {
	root := t.TempDir()
	var gotDir string
	conv := &fakeConverter{convert: func(_ context.Context, _ []string, outputDir string, _ convert.ProgressFunc) (domain.ConversionResult, error) {
		gotDir = outputDir
		return domain.ConversionResult{OutputDir: outputDir}, nil
	}}
	app := newTestApp(domain.Settings{OutputDir: root, FolderName: "../../escaped"}, conv)

	if _, err := app.ConvertFiles(nil, ""); err != nil {
		t.Fatalf("ConvertFiles: %v", err)
	}
	if want := filepath.Join(root, "escaped"); gotDir != want {
		t.Fatalf("output dir = %q, want %q", gotDir, want)
	}

	saved, err := app.SaveSettings(domain.Settings{OutputDir: root, FolderName: "../../escaped"})
	if err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	if saved.FolderName != "escaped" {
		t.Fatalf("saved folder name = %q, want escaped", saved.FolderName)
	}
}

// TestConvertFilesPublishesFailure checks error path emissions.
func TestConvertFilesPublishesFailure(t *testing.T) {
	failure := domain.InvalidInput(`file not found at "/in/missing.vr8"`)
	conv := &fakeConverter{convert: func(context.Context, []string, string, convert.ProgressFunc) (domain.ConversionResult, error) {
		return domain.ConversionResult{}, failure
	}}
	app := newTestApp(domain.Settings{OutputDir: t.TempDir(), FolderName: "converted-files"}, conv)

	_, err := app.ConvertFiles([]string{"/in/missing.vr8"}, "")
	if !errors.Is(err, failure) {
		t.Fatalf("error = %v, want %v", err, failure)
	}
	if app.CurrentJob().Status != domain.JobStatusFailed {
		t.Fatalf("status = %s, want failed", app.CurrentJob().Status)
	}

	events := app.JobEvents(0)
	assertEventTypeExists(t, events, jobs.EventTypeError)
	for _, event := range events {
		if event.Type == jobs.EventTypeError && event.Message != failure.Error() {
			t.Fatalf("error message = %q, want %q", event.Message, failure.Error())
		}
	}
}

// TestConvertFilesEnforcesSingleRunningJob checks the single-batch guard.
func TestConvertFilesEnforcesSingleRunningJob(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	conv := &fakeConverter{convert: func(context.Context, []string, string, convert.ProgressFunc) (domain.ConversionResult, error) {
		close(started)
		<-release
		return domain.ConversionResult{}, nil
	}}
	app := newTestApp(domain.Settings{OutputDir: t.TempDir(), FolderName: "converted-files"}, conv)

	done := make(chan error, 1)
	go func() {
		_, err := app.ConvertFiles([]string{"/in/a.vr8"}, "")
		done <- err
	}()
	<-started

	if _, err := app.ConvertFiles([]string{"/in/b.vr8"}, ""); !errors.Is(err, jobs.ErrJobAlreadyRunning) {
		t.Fatalf("second start error = %v, want %v", err, jobs.ErrJobAlreadyRunning)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first batch: %v", err)
	}
}

// TestConvertFilesEndToEnd runs the real converter and writes metrics.
func TestConvertFilesEndToEnd(t *testing.T) {
	inputDir := t.TempDir()
	outputRoot := t.TempDir()
	input := filepath.Join(inputDir, "song.vr8")
	if err := os.WriteFile(input, make([]byte, 10), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	metricsFile := filepath.Join(t.TempDir(), "vr8.prom")

	app := newTestApp(domain.Settings{
		OutputDir:   outputRoot,
		FolderName:  "converted-files",
		MetricsFile: metricsFile,
	}, nil)
	app.Metrics = metrics.NewCollector()
	app.newConverter = app.defaultConverter

	result, err := app.ConvertFiles([]string{input}, "")
	if err != nil {
		t.Fatalf("ConvertFiles: %v", err)
	}
	if _, err := os.Stat(filepath.Join(result.OutputDir, "song.wav")); err != nil {
		t.Fatalf("stat output: %v", err)
	}
	if _, err := os.Stat(metricsFile); err != nil {
		t.Fatalf("metrics file: %v", err)
	}
}

// TestSaveSettingsNormalizes checks persistence of normalized settings.
func TestSaveSettingsNormalizes(t *testing.T) {
	app := newTestApp(domain.Settings{}, nil)

	got, err := app.SaveSettings(domain.Settings{OutputDir: " /music ", FolderName: ""})
	if err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	if got.OutputDir != "/music" || got.FolderName != "converted-files" {
		t.Fatalf("settings = %+v", got)
	}
	if app.Settings != got {
		t.Fatalf("app settings = %+v, want %+v", app.Settings, got)
	}
}

// TestPickInputFilesRequiresRuntime checks dialog guard before startup.
func TestPickInputFilesRequiresRuntime(t *testing.T) {
	app := newTestApp(domain.Settings{}, nil)
	if _, err := app.PickInputFiles(); err == nil {
		t.Fatal("expected runtime context error")
	}
}

// assertEventTypeExists verifies at least one event of given type exists.
func assertEventTypeExists(t *testing.T, events []jobs.Event, want jobs.EventType) {
	t.Helper()
	for _, event := range events {
		if event.Type == want {
			return
		}
	}
	t.Fatalf("event type %s not found", want)
}
