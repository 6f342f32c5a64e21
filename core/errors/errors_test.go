package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      *NotFoundError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with ID",
			err:      &NotFoundError{Resource: "definition", ID: "λόγος"},
			wantMsg:  "definition not found: λόγος",
			wantBase: ErrNotFound,
		},
		{
			name:     "without ID",
			err:      &NotFoundError{Resource: "verse"},
			wantMsg:  "verse not found",
			wantBase: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidation("language", "unsupported value")
	if got, want := err.Error(), "validation failed for language: unsupported value"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ValidationError should match ErrInvalidInput")
	}

	bare := &ValidationError{Message: "empty"}
	if got, want := bare.Error(), "validation failed: empty"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestParseError(t *testing.T) {
	tests := []struct {
		name    string
		err     *ParseError
		wantMsg string
	}{
		{"path and line", NewParse("MorphGNT", "61-Mt.txt", 4, "too few fields"), "failed to parse MorphGNT at 61-Mt.txt:4: too few fields"},
		{"path only", NewParse("MorphGNT", "61-Mt.txt", 0, "bad"), "failed to parse MorphGNT at 61-Mt.txt: bad"},
		{"line only", NewParse("MorphGNT", "", 9, "bad"), "failed to parse MorphGNT at line 9: bad"},
		{"neither", NewParse("OSIS", "", 0, "empty"), "failed to parse OSIS: empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, ErrInvalidInput) {
				t.Error("ParseError should match ErrInvalidInput")
			}
		})
	}
}

func TestSchemaError(t *testing.T) {
	driverErr := fmt.Errorf("no such table: greek_bible_verses")
	err := NewSchema("greek_bible_verses", driverErr)

	if !errors.Is(err, ErrSchemaMissing) {
		t.Error("SchemaError should match ErrSchemaMissing")
	}
	if !errors.Is(err, driverErr) {
		t.Error("SchemaError should expose the driver error")
	}

	wrapped := Wrapf(err, "flush %s", "Matt.1.1")
	var target *SchemaError
	if !As(wrapped, &target) {
		t.Fatal("As should find SchemaError through wrapping")
	}
	if target.Resource != "greek_bible_verses" {
		t.Errorf("Resource = %q, want %q", target.Resource, "greek_bible_verses")
	}
}

func TestIOError(t *testing.T) {
	base := fmt.Errorf("connection reset")
	err := NewIO("fetch", "https://example.org/61-Mt-morphgnt.txt", base)
	want := "failed to fetch https://example.org/61-Mt-morphgnt.txt: connection reset"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, base) {
		t.Error("IOError should unwrap to the underlying error")
	}
}

func TestTransient(t *testing.T) {
	if Transient(nil) != nil {
		t.Error("Transient(nil) should be nil")
	}
	base := fmt.Errorf("database is locked")
	err := Transient(base)
	if !Is(err, ErrTransient) || !Is(err, base) {
		t.Errorf("Transient should match both ErrTransient and the cause, got %v", err)
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should be nil")
	}
	if Wrapf(nil, "context %d", 1) != nil {
		t.Error("Wrapf(nil) should be nil")
	}
	err := Wrap(ErrNotFound, "lookup")
	if got, want := err.Error(), "lookup: not found"; got != want {
		t.Errorf("Wrap() = %q, want %q", got, want)
	}
}
