// Package validation checks user-supplied paths and corpus files before the
// API hands them to the ingestion pipeline.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Limits on user-supplied names.
const (
	MaxFilenameLength = 255
	MaxPathLength     = 4096
)

// Common validation errors.
var (
	ErrPathTraversal    = errors.New("path traversal detected")
	ErrInvalidFilename  = errors.New("invalid filename")
	ErrPathTooLong      = errors.New("path too long")
	ErrFilenameTooLong  = errors.New("filename too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrFileType         = errors.New("unsupported corpus file")
)

// SanitizePath validates a path relative to baseDir and returns it cleaned.
// The path may not be absolute or escape baseDir.
func SanitizePath(baseDir, userPath string) (string, error) {
	if userPath == "" {
		return "", ErrEmptyPath
	}
	if len(userPath) > MaxPathLength {
		return "", ErrPathTooLong
	}
	for _, r := range userPath {
		if unicode.IsControl(r) {
			return "", fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}

	cleanPath := filepath.Clean(userPath)
	if filepath.IsAbs(cleanPath) {
		return "", fmt.Errorf("%w: absolute path not allowed", ErrPathTraversal)
	}
	if !filepath.IsLocal(cleanPath) {
		return "", ErrPathTraversal
	}

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base directory: %w", err)
	}
	absPath, err := filepath.Abs(filepath.Join(baseDir, cleanPath))
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	rel, err := filepath.Rel(absBase, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrPathTraversal
	}
	return cleanPath, nil
}

// ValidateFilename checks a single path component.
func ValidateFilename(filename string) error {
	if filename == "" {
		return ErrInvalidFilename
	}
	if len(filename) > MaxFilenameLength {
		return ErrFilenameTooLong
	}
	if filename == "." || filename == ".." {
		return fmt.Errorf("%w: reserved name", ErrInvalidFilename)
	}
	if strings.ContainsAny(filename, "/\\") {
		return fmt.Errorf("%w: path separator not allowed", ErrInvalidFilename)
	}
	for _, r := range filename {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidFilename)
		}
	}
	if strings.HasPrefix(filename, "-") {
		return fmt.Errorf("%w: filename cannot start with hyphen", ErrInvalidFilename)
	}
	return nil
}

// FileType is the detected kind of a corpus file.
type FileType string

const (
	FileTypeText FileType = "text"
	FileTypeXZ   FileType = "xz"
)

var xzMagic = []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}

// CorpusFileType checks that a file's content matches its extension: ".xz"
// files must carry the xz signature and ".txt" files must look like UTF-8
// text. It reads at most 512 bytes from r.
func CorpusFileType(r io.Reader, filename string) (FileType, error) {
	buf := make([]byte, 512)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("failed to read file header: %w", err)
	}
	buf = buf[:n]

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xz":
		if !bytes.HasPrefix(buf, xzMagic) {
			return "", fmt.Errorf("%w: %s has no xz signature", ErrFileType, filename)
		}
		return FileTypeXZ, nil
	case ".txt":
		if !isLikelyText(buf) {
			return "", fmt.Errorf("%w: %s is not UTF-8 text", ErrFileType, filename)
		}
		return FileTypeText, nil
	}
	return "", fmt.Errorf("%w: %s (want .txt or .xz)", ErrFileType, filename)
}

// isLikelyText reports whether buf is UTF-8 without NUL bytes. A sequence
// cut off at the end of the buffer is tolerated.
func isLikelyText(buf []byte) bool {
	if len(buf) == 0 || bytes.IndexByte(buf, 0) != -1 {
		return false
	}
	for len(buf) > 0 {
		r, size := utf8.DecodeRune(buf)
		if r == utf8.RuneError && size == 1 {
			return len(buf) < utf8.UTFMax && !utf8.FullRune(buf)
		}
		buf = buf[size:]
	}
	return true
}
