package diagnostics

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/samber/lo"

	"vr8-converter/internal/domain"
	"vr8-converter/internal/naming"
)

// Checker validates that the configured output location can receive a batch.
type Checker struct {
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
	uniqueDir  func(string) (string, error)
	numCPU     func() int
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker() *Checker {
	return &Checker{
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
		uniqueDir:  naming.UniqueDirectory,
		numCPU:     runtime.NumCPU,
	}
}

// Run executes all checks and returns a combined report.
func (c *Checker) Run(settings domain.Settings) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkOutputDir(settings.OutputDir),
		checkFolderName(settings.FolderName),
		c.checkWorkers(settings.Workers),
	}
	if lo.EveryBy(items[:2], isPass) {
		items = append(items, c.checkNextFolder(filepath.Join(settings.OutputDir, settings.FolderName)))
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: lo.SomeBy(items, func(item domain.DiagnosticItem) bool {
			return item.Status == domain.DiagnosticStatusFail
		}),
		Items: items,
	}
}

func isPass(item domain.DiagnosticItem) bool {
	return item.Status == domain.DiagnosticStatusPass
}

// checkOutputDir validates output directory existence and write access.
func (c *Checker) checkOutputDir(outputDir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "output_dir",
		Name: "Output directory",
	}

	if strings.TrimSpace(outputDir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Output directory is empty."
		item.Hint = "Choose a directory where converted WAV files can be written."
		return item
	}

	if err := c.mkdirAll(outputDir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create output directory: %s", outputDir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}

	tmpFile, err := c.createTemp(outputDir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Output directory is not writable: %s", outputDir)
		item.Hint = "Choose a writable directory for converted files."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", outputDir)
	return item
}

// checkFolderName rejects batch folder names that would escape the output directory.
func checkFolderName(name string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "folder_name",
		Name: "Batch folder name",
	}

	trimmed := strings.TrimSpace(name)
	switch {
	case trimmed == "":
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Batch folder name is empty."
	case trimmed == "." || trimmed == "..":
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Batch folder name %q is reserved.", trimmed)
	case strings.ContainsAny(trimmed, `/\`):
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Batch folder name %q contains a path separator.", trimmed)
	default:
		item.Status = domain.DiagnosticStatusPass
		item.Message = fmt.Sprintf("Batches go into %q, %q, ...", trimmed, trimmed+"(1)")
		return item
	}

	item.Hint = "Use a plain folder name such as " + fmt.Sprintf("%q", "converted-files") + "."
	return item
}

// checkWorkers flags worker counts far beyond the available CPUs.
func (c *Checker) checkWorkers(workers int) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "workers",
		Name: "Parallel conversions",
	}

	cpus := c.numCPU()
	switch {
	case workers <= 0:
		item.Status = domain.DiagnosticStatusPass
		item.Message = fmt.Sprintf("Automatic: up to %d files at once.", cpus)
	case workers > 4*cpus:
		item.Status = domain.DiagnosticStatusWarn
		item.Message = fmt.Sprintf("%d parallel conversions on %d CPUs.", workers, cpus)
		item.Hint = "Large values mostly add open files and memory; 0 selects one per CPU."
	default:
		item.Status = domain.DiagnosticStatusPass
		item.Message = fmt.Sprintf("Up to %d files at once.", workers)
	}
	return item
}

// checkNextFolder reports which directory the next batch would be written to.
func (c *Checker) checkNextFolder(base string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "next_folder",
		Name: "Next batch folder",
	}

	next, err := c.uniqueDir(base)
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = err.Error()
		item.Hint = "Check permissions for the output directory."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = next
	return item
}

// NewCheckerForTests creates a checker with injectable dependencies.
// Nil functions keep the OS defaults.
func NewCheckerForTests(
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
	numCPU func() int,
) *Checker {
	c := NewChecker()
	if mkdirAll != nil {
		c.mkdirAll = mkdirAll
	}
	if createTemp != nil {
		c.createTemp = createTemp
	}
	if remove != nil {
		c.remove = remove
	}
	if numCPU != nil {
		c.numCPU = numCPU
	}
	return c
}
