package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"vr8-converter/internal/config"
	"vr8-converter/internal/convert"
	"vr8-converter/internal/diagnostics"
	"vr8-converter/internal/domain"
	"vr8-converter/internal/jobs"
	"vr8-converter/internal/metrics"
	"vr8-converter/internal/naming"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// Frontend event names.
const (
	ProgressEvent = "conversion_progress"
	JobEvent      = "job:event"
)

var vr8DialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "VR8 recordings",
		Pattern:     "*.vr8;*.VR8",
	},
	{
		DisplayName: "All files",
		Pattern:     "*",
	},
}

// batchConverter isolates the conversion core behind an interface.
type batchConverter interface {
	Convert(ctx context.Context, inputPaths []string, outputDir string, progress convert.ProgressFunc) (domain.ConversionResult, error)
}

// App wires configuration, the job guard, the converter and UI runtime callbacks.
type App struct {
	Settings    domain.Settings
	Store       config.Store
	Jobs        *jobs.Manager
	Diagnostics domain.DiagnosticReport
	Metrics     *metrics.Collector
	assets      fs.FS
	checker     *diagnostics.Checker
	logger      *slog.Logger
	closeLog    func() error

	newConverter func(settings domain.Settings) batchConverter
	uniqueDir    func(base string) (string, error)

	mu         sync.Mutex
	events     *jobs.EventBus
	runtimeCtx context.Context
}

// New builds the application with persisted settings and startup diagnostics.
func New() (*App, error) {
	return NewWithAssets(nil)
}

// NewWithAssets builds the application and optionally configures embedded frontend assets.
func NewWithAssets(assets fs.FS) (*App, error) {
	store := config.NewYAMLStore(config.DefaultSettingsPath())
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	level, err := config.ParseLevel(settings.LogLevel)
	if err != nil {
		return nil, err
	}
	logger, closeLog := config.SetupLogger(settings.LogFile, level)

	checker := diagnostics.NewChecker()
	app := &App{
		Settings:    settings,
		Store:       store,
		Jobs:        jobs.NewManager(),
		Diagnostics: checker.Run(settings),
		Metrics:     metrics.NewCollector(),
		assets:      assets,
		checker:     checker,
		logger:      logger,
		closeLog:    closeLog,
		uniqueDir:   naming.UniqueDirectory,
		events:      jobs.NewEventBus(1000),
	}
	app.newConverter = app.defaultConverter
	return app, nil
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	assetOptions := &assetserver.Options{}
	if a.assets != nil {
		assetOptions.Assets = a.assets
	} else {
		assetOptions.Handler = http.FileServer(http.Dir("./frontend"))
	}

	return wails.Run(&options.App{
		Title:       "VR8 Converter",
		Width:       880,
		Height:      620,
		AssetServer: assetOptions,
		OnStartup:   a.Startup,
		OnShutdown:  a.Shutdown,
		Bind:        []interface{}{a},
	})
}

// Startup stores Wails runtime context for push events and dialogs.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = ctx
}

// Shutdown drops the runtime context and closes the log file.
func (a *App) Shutdown(context.Context) {
	a.mu.Lock()
	a.runtimeCtx = nil
	a.mu.Unlock()

	if a.closeLog != nil {
		_ = a.closeLog()
	}
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Diagnostics
}

// GetSettings loads and returns the latest persisted settings.
func (a *App) GetSettings() (domain.Settings, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = settings
	a.mu.Unlock()

	return settings, nil
}

// SaveSettings normalizes and persists settings, then refreshes diagnostics.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	normalized := config.Normalize(settings)
	if err := a.Store.Save(normalized); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	a.refreshDiagnosticsFromSettings(normalized)
	return normalized, nil
}

// RefreshDiagnostics reloads settings and reruns the environment checks.
func (a *App) RefreshDiagnostics() (domain.DiagnosticReport, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}
	return a.refreshDiagnosticsFromSettings(settings), nil
}

// PickInputFiles opens a native multi-select dialog for VR8 recordings.
func (a *App) PickInputFiles() ([]string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return nil, err
	}

	paths, err := wailsruntime.OpenMultipleFilesDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:   "Select VR8 recordings",
		Filters: vr8DialogFilter,
	})
	if err != nil {
		return nil, err
	}

	return cleanPaths(paths), nil
}

// PickOutputDirectory opens a native directory picker for converted files.
func (a *App) PickOutputDirectory() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenDirectoryDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:                "Select output directory",
		CanCreateDirectories: true,
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// OpenOutputFolder opens the given path (or configured output dir) in the file manager.
func (a *App) OpenOutputFolder(path string) error {
	target := strings.TrimSpace(path)
	if target == "" {
		a.mu.Lock()
		target = a.Settings.OutputDir
		a.mu.Unlock()
	}
	if target == "" {
		return fmt.Errorf("output path is empty")
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	openPath := target
	if !info.IsDir() {
		openPath = filepath.Dir(target)
	}

	return openInFileManager(openPath)
}

// ConvertFiles converts paths into a fresh batch folder under outputDir and
// blocks until the batch finishes. An empty outputDir uses the configured one.
func (a *App) ConvertFiles(paths []string, outputDir string) (domain.ConversionResult, error) {
	a.mu.Lock()
	settings := a.Settings
	a.mu.Unlock()

	base := strings.TrimSpace(outputDir)
	if base == "" {
		base = settings.OutputDir
	}

	jobID := uuid.NewString()
	if err := a.Jobs.Start(jobID); err != nil {
		return domain.ConversionResult{}, err
	}
	a.publishStatus(jobID, domain.JobStatusResolving, fmt.Sprintf("Preparing %d file(s)", len(paths)))

	target, err := a.uniqueDir(filepath.Join(base, config.CleanFolderName(settings.FolderName)))
	if err != nil {
		return domain.ConversionResult{}, a.failJob(jobID, err)
	}

	if err := a.Jobs.Transition(domain.JobStatusConverting); err != nil {
		return domain.ConversionResult{}, a.failJob(jobID, err)
	}
	a.publishStatus(jobID, domain.JobStatusConverting, "Converting into "+target)

	result, err := a.newConverter(settings).Convert(context.Background(), cleanPaths(paths), target, func(percent int) {
		a.publishProgress(jobID, percent)
	})
	a.writeMetrics(settings.MetricsFile)
	if err != nil {
		return domain.ConversionResult{}, a.failJob(jobID, err)
	}

	if _, err := a.Jobs.Finish(nil); err != nil && !errors.Is(err, jobs.ErrNoRunningJob) {
		return domain.ConversionResult{}, err
	}
	a.publishStatus(jobID, domain.JobStatusDone, "Conversion completed")
	a.publishEvent(jobs.Event{
		JobID:          jobID,
		Type:           jobs.EventTypeResult,
		Status:         domain.JobStatusDone,
		Message:        fmt.Sprintf("Converted %d file(s)", result.FilesConverted),
		FilesConverted: result.FilesConverted,
		DurationMs:     result.DurationMs,
		OutputDir:      result.OutputDir,
	})
	return result, nil
}

// CurrentJob returns current batch metadata and status.
func (a *App) CurrentJob() domain.Job {
	return a.Jobs.Current()
}

// JobEvents returns all events with sequence greater than sinceSeq.
func (a *App) JobEvents(sinceSeq int64) []jobs.Event {
	return a.events.Since(sinceSeq)
}

// failJob marks the active batch failed, publishes the error and returns it.
func (a *App) failJob(jobID string, err error) error {
	_, _ = a.Jobs.Finish(err)
	a.publishStatus(jobID, domain.JobStatusFailed, "Conversion failed")
	a.publishEvent(jobs.Event{
		JobID:   jobID,
		Type:    jobs.EventTypeError,
		Status:  domain.JobStatusFailed,
		Message: err.Error(),
	})
	return err
}

// defaultConverter builds a converter for one batch from current settings.
func (a *App) defaultConverter(settings domain.Settings) batchConverter {
	opts := convert.Options{
		Workers: settings.Workers,
		Logger:  a.log(),
	}
	if a.Metrics != nil {
		opts.Recorder = a.Metrics
	}
	return convert.NewConverter(opts)
}

// writeMetrics exports the collector to the configured textfile, if any.
func (a *App) writeMetrics(path string) {
	if path == "" || a.Metrics == nil {
		return
	}
	if err := a.Metrics.WriteTextfile(path); err != nil {
		a.log().Warn("write metrics textfile", "file", path, "error", err)
	}
}

// publishProgress records a progress event and emits the raw percentage.
func (a *App) publishProgress(jobID string, percent int) {
	a.publishEvent(jobs.Event{
		JobID:    jobID,
		Type:     jobs.EventTypeProgress,
		Status:   domain.JobStatusConverting,
		Progress: percent,
	})

	if ctx := a.currentRuntime(); ctx != nil {
		wailsruntime.EventsEmit(ctx, ProgressEvent, percent)
	}
}

// publishStatus sends a normalized status event.
func (a *App) publishStatus(jobID string, status domain.JobStatus, message string) {
	a.publishEvent(jobs.Event{
		JobID:   jobID,
		Type:    jobs.EventTypeStatus,
		Status:  status,
		Message: message,
	})
}

// publishEvent stores event history and emits runtime push notifications.
func (a *App) publishEvent(event jobs.Event) {
	published := a.events.Publish(event)
	if ctx := a.currentRuntime(); ctx != nil {
		wailsruntime.EventsEmit(ctx, JobEvent, published)
	}
}

func (a *App) currentRuntime() context.Context {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.runtimeCtx
}

// runtimeContext returns the Wails runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	ctx := a.currentRuntime()
	if ctx == nil {
		return nil, fmt.Errorf("runtime context is not initialized")
	}
	return ctx, nil
}

func (a *App) log() *slog.Logger {
	if a.logger == nil {
		return slog.Default()
	}
	return a.logger
}

// cleanPaths trims dialog and frontend paths and drops empty entries.
func cleanPaths(paths []string) []string {
	return lo.FilterMap(paths, func(path string, _ int) (string, bool) {
		trimmed := strings.TrimSpace(path)
		return trimmed, trimmed != ""
	})
}

// openInFileManager launches the platform file explorer for the provided path.
func openInFileManager(path string) error {
	var cmd *exec.Cmd
	switch goruntime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("explorer", filepath.Clean(path))
	default:
		cmd = exec.Command("xdg-open", path)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch file manager: %w", err)
	}
	return nil
}
