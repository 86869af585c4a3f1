package bootstrap

import (
	"fmt"
	"os"
	"strings"

	"vr8-converter/internal/config"
	"vr8-converter/internal/domain"
)

// FixDiagnostic applies the remediation for one failed or warned diagnostic item
// and returns the refreshed report.
func (a *App) FixDiagnostic(itemID string) (domain.DiagnosticReport, error) {
	if a.Store == nil {
		return domain.DiagnosticReport{}, fmt.Errorf("settings store is not configured")
	}

	id := strings.TrimSpace(itemID)
	if id == "" {
		return domain.DiagnosticReport{}, fmt.Errorf("diagnostic item id is required")
	}

	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}
	settings = config.Normalize(settings)

	settingsChanged := false
	var fixErr error

	switch id {
	case "output_dir", "next_folder":
		settings, settingsChanged, fixErr = fixOutputDir(settings, os.MkdirAll)
	case "folder_name":
		settings, settingsChanged = fixFolderName(settings)
	case "workers":
		settings, settingsChanged = fixWorkers(settings)
	default:
		return domain.DiagnosticReport{}, fmt.Errorf("unsupported diagnostic item id: %s", id)
	}

	if settingsChanged {
		if saveErr := a.Store.Save(settings); saveErr != nil {
			report := a.refreshDiagnosticsFromSettings(settings)
			return report, fmt.Errorf("save settings after fix: %w", saveErr)
		}
	}

	report := a.refreshDiagnosticsFromSettings(settings)
	return report, fixErr
}

func (a *App) refreshDiagnosticsFromSettings(settings domain.Settings) domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Settings = settings
	if a.checker != nil {
		a.Diagnostics = a.checker.Run(settings)
	}
	return a.Diagnostics
}

// fixOutputDir falls back to the default output directory when unset and creates it.
func fixOutputDir(
	settings domain.Settings,
	mkdirAll func(string, os.FileMode) error,
) (domain.Settings, bool, error) {
	outputDir := strings.TrimSpace(settings.OutputDir)
	changed := false
	if outputDir == "" {
		outputDir = config.DefaultSettings().OutputDir
		settings.OutputDir = outputDir
		changed = true
	}

	if err := mkdirAll(outputDir, 0o755); err != nil {
		return settings, changed, fmt.Errorf("create output directory %s: %w", outputDir, err)
	}

	return settings, changed, nil
}

// fixFolderName replaces an unusable batch folder name with its last path
// element, or the default when nothing usable remains.
func fixFolderName(settings domain.Settings) (domain.Settings, bool) {
	original := settings.FolderName
	settings.FolderName = config.CleanFolderName(original)
	return settings, settings.FolderName != original
}

// fixWorkers resets the worker count to automatic.
func fixWorkers(settings domain.Settings) (domain.Settings, bool) {
	if settings.Workers == 0 {
		return settings, false
	}
	settings.Workers = 0
	return settings, true
}
