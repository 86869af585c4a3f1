package config

import (
	"os"
	"path/filepath"
	"strings"

	"vr8-converter/internal/domain"
)

// DefaultFolderName is the batch folder created under the chosen output directory.
const DefaultFolderName = "converted-files"

// DefaultLogLevel is used when settings leave the level empty.
const DefaultLogLevel = "info"

// appDirName is the per-user directory holding settings and logs.
const appDirName = ".vr8-converter"

// DefaultSettings returns baseline local configuration for first launch.
func DefaultSettings() domain.Settings {
	return domain.Settings{
		OutputDir:  filepath.Join(homeDir(), "Documents"),
		FolderName: DefaultFolderName,
		LogLevel:   DefaultLogLevel,
	}
}

// DefaultSettingsPath returns ~/.vr8-converter/settings.yaml.
func DefaultSettingsPath() string {
	return filepath.Join(homeDir(), appDirName, "settings.yaml")
}

// Normalize trims user input and fills empty fields with defaults.
// Workers <= 0 means "one per CPU" and is stored as 0.
func Normalize(cfg domain.Settings) domain.Settings {
	defaults := DefaultSettings()

	cfg.OutputDir = strings.TrimSpace(cfg.OutputDir)
	if cfg.OutputDir == "" {
		cfg.OutputDir = defaults.OutputDir
	}
	cfg.FolderName = CleanFolderName(cfg.FolderName)
	if cfg.Workers < 0 {
		cfg.Workers = 0
	}
	cfg.LogFile = strings.TrimSpace(cfg.LogFile)
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaults.LogLevel
	}
	cfg.MetricsFile = strings.TrimSpace(cfg.MetricsFile)
	return cfg
}

// CleanFolderName reduces name to its last path element so a batch folder
// always lands directly inside the output directory. Empty, "." and ".."
// results become DefaultFolderName.
func CleanFolderName(name string) string {
	cleaned := strings.TrimSpace(strings.ReplaceAll(name, `\`, "/"))
	if index := strings.LastIndex(cleaned, "/"); index >= 0 {
		cleaned = strings.TrimSpace(cleaned[index+1:])
	}
	if cleaned == "" || cleaned == "." || cleaned == ".." {
		return DefaultFolderName
	}
	return cleaned
}

func homeDir() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return dir
}
