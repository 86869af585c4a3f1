package cli

import (
	"fmt"
	"path/filepath"

	"vr8-converter/internal/domain"
)

// FormatDuration renders milliseconds as "850ms", "2.5s" or "1m 5s".
func FormatDuration(ms int64) string {
	switch {
	case ms < 1000:
		return fmt.Sprintf("%dms", max(ms, 0))
	case ms < 60_000:
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	default:
		return fmt.Sprintf("%dm %ds", ms/60_000, (ms%60_000)/1000)
	}
}

// pluralFiles returns "1 file" or "N files".
func pluralFiles(n int) string {
	if n == 1 {
		return "1 file"
	}
	return fmt.Sprintf("%d files", n)
}

// displayOutputDir shortens the output path to its last element when the user
// named the directory explicitly.
func displayOutputDir(result domain.ConversionResult, explicit bool) string {
	if !explicit {
		return result.OutputDir
	}
	if base := filepath.Base(result.OutputDir); base != "." && base != string(filepath.Separator) {
		return base
	}
	return result.OutputDir
}
