// Package naming derives collision-free output locations for converted files.
package naming

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"vr8-converter/internal/domain"
)

// WAVExtension is appended to every derived output file name.
const WAVExtension = ".wav"

// UniqueDirectory returns base when it does not exist, otherwise the first
// free "base(N)" variant. It only probes the filesystem and never creates the
// directory.
func UniqueDirectory(base string) (string, error) {
	return uniqueDirectory(base, os.Stat)
}

// uniqueDirectory probes candidates with the given stat function.
func uniqueDirectory(base string, stat func(string) (os.FileInfo, error)) (string, error) {
	base = strings.TrimRight(base, `/\`)
	if base == "" {
		return "", domain.InvalidInput("output directory is required")
	}

	free, err := isFree(base, stat)
	if err != nil {
		return "", err
	}
	if free {
		return base, nil
	}

	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s(%d)", base, i)
		free, err := isFree(candidate, stat)
		if err != nil {
			return "", err
		}
		if free {
			return candidate, nil
		}
	}
}

// isFree reports whether nothing exists at path.
func isFree(path string, stat func(string) (os.FileInfo, error)) (bool, error) {
	_, err := stat(path)
	if err == nil {
		return false, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	return false, domain.IOFailure("probe output directory "+path, err)
}

// Stem returns the file name of path without its trailing extension.
func Stem(path string) (string, error) {
	if path == "" || strings.HasSuffix(path, "/") || strings.HasSuffix(path, string(filepath.Separator)) {
		return "", domain.InvalidInput(fmt.Sprintf("invalid input filename: %q", path))
	}

	base := filepath.Base(path)
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return "", domain.InvalidInput(fmt.Sprintf("invalid input filename: %q", path))
	}

	ext := filepath.Ext(base)
	if ext == base {
		// ".take" has no extension, only a leading dot.
		return base, nil
	}
	return strings.TrimSuffix(base, ext), nil
}

// OutputFileName returns "<stem>.wav" for the given input path.
func OutputFileName(inputPath string) (string, error) {
	stem, err := Stem(inputPath)
	if err != nil {
		return "", err
	}
	return stem + WAVExtension, nil
}
