package api

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santapalabra/scripture/internal/validation"
)

var (
	// ErrPathTraversal is returned when path traversal is detected
	ErrPathTraversal = errors.New("path traversal detected")
	// ErrInvalidPath is returned when the path is invalid
	ErrInvalidPath = errors.New("invalid path")
)

// ResolveCorpusPath turns a path from a request into a readable corpus file
// under baseDir. Symlinks are resolved before the containment check, and the
// file's content must match its .txt or .xz extension.
func ResolveCorpusPath(baseDir, userPath string) (string, error) {
	if baseDir == "" {
		return "", fmt.Errorf("%w: file ingestion is disabled (no corpus directory)", ErrInvalidPath)
	}
	rel, err := validation.SanitizePath(baseDir, userPath)
	if err != nil {
		if errors.Is(err, validation.ErrPathTraversal) {
			return "", fmt.Errorf("%w: %v", ErrPathTraversal, err)
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if err := validation.ValidateFilename(part); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
		}
	}

	base, err := filepath.EvalSymlinks(baseDir)
	if err != nil {
		return "", fmt.Errorf("%w: corpus directory: %v", ErrInvalidPath, err)
	}
	full, err := filepath.EvalSymlinks(filepath.Join(base, rel))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	if inside, err := filepath.Rel(base, full); err != nil || !filepath.IsLocal(inside) {
		return "", fmt.Errorf("%w: %s leaves the corpus directory", ErrPathTraversal, userPath)
	}

	f, err := os.Open(full)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	defer f.Close()
	if _, err := validation.CorpusFileType(f, full); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	return full, nil
}
