package validation

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizePath(t *testing.T) {
	baseDir := "/srv/corpus"

	tests := []struct {
		name      string
		userPath  string
		want      string
		wantError error
	}{
		{"simple valid path", "61-Mt-morphgnt.txt", "61-Mt-morphgnt.txt", nil},
		{"nested valid path", "sblgnt/62-Mk-morphgnt.txt.xz", filepath.Join("sblgnt", "62-Mk-morphgnt.txt.xz"), nil},
		{"redundant separators", "sblgnt//x.txt", filepath.Join("sblgnt", "x.txt"), nil},
		{"dot segments that stay inside", "sblgnt/../x.txt", "x.txt", nil},
		{"parent escape", "../etc/passwd", "", ErrPathTraversal},
		{"deep escape", "a/../../b", "", ErrPathTraversal},
		{"absolute path", "/etc/passwd", "", ErrPathTraversal},
		{"empty path", "", "", ErrEmptyPath},
		{"control character", "x\x00.txt", "", ErrInvalidCharacter},
		{"too long", strings.Repeat("a", MaxPathLength+1), "", ErrPathTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizePath(baseDir, tt.userPath)
			if tt.wantError != nil {
				if !errors.Is(err, tt.wantError) {
					t.Errorf("SanitizePath(%q) error = %v, want %v", tt.userPath, err, tt.wantError)
				}
				return
			}
			if err != nil {
				t.Fatalf("SanitizePath(%q) unexpected error = %v", tt.userPath, err)
			}
			if got != tt.want {
				t.Errorf("SanitizePath(%q) = %q, want %q", tt.userPath, got, tt.want)
			}
		})
	}
}

func TestValidateFilename(t *testing.T) {
	tests := []struct {
		filename string
		wantErr  error
	}{
		{"61-Mt-morphgnt.txt", nil},
		{"", ErrInvalidFilename},
		{"..", ErrInvalidFilename},
		{"a/b", ErrInvalidFilename},
		{"-rf", ErrInvalidFilename},
		{"tab\there", ErrInvalidFilename},
		{strings.Repeat("x", MaxFilenameLength+1), ErrFilenameTooLong},
	}
	for _, tt := range tests {
		err := ValidateFilename(tt.filename)
		if tt.wantErr == nil && err != nil {
			t.Errorf("ValidateFilename(%q) error = %v", tt.filename, err)
		}
		if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
			t.Errorf("ValidateFilename(%q) error = %v, want %v", tt.filename, err, tt.wantErr)
		}
	}
}

func TestCorpusFileType(t *testing.T) {
	greek := "610101 N- ----NSF- Βίβλος Βίβλος βίβλος βίβλος\n"
	// A Greek letter split by the 512-byte read must still count as text.
	cut := strings.Repeat("a", 511) + "β"

	tests := []struct {
		name     string
		content  []byte
		filename string
		want     FileType
		wantErr  bool
	}{
		{"plain text", []byte(greek), "61-Mt-morphgnt.txt", FileTypeText, false},
		{"text cut mid-rune", []byte(cut), "x.txt", FileTypeText, false},
		{"xz", append(append([]byte{}, xzMagic...), 0, 4, 0xe6), "61-Mt-morphgnt.txt.xz", FileTypeXZ, false},
		{"text named xz", []byte(greek), "x.txt.xz", "", true},
		{"binary named txt", []byte{0x1f, 0x8b, 0, 0}, "x.txt", "", true},
		{"invalid utf8", []byte("abc\xff\xfedef"), "x.txt", "", true},
		{"empty", nil, "x.txt", "", true},
		{"other extension", []byte(greek), "x.csv", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CorpusFileType(bytes.NewReader(tt.content), tt.filename)
			if tt.wantErr {
				if !errors.Is(err, ErrFileType) {
					t.Errorf("CorpusFileType() error = %v, want ErrFileType", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("CorpusFileType() = %q, %v, want %q", got, err, tt.want)
			}
		})
	}
}
