package morph

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/santapalabra/scripture/core/errors"
)

func TestParseLine(t *testing.T) {
	line := "040316 V- 3AAI-S-- ἠγάπησεν ἠγάπησεν ἠγάπησε(ν) ἀγαπάω extra"
	got, err := ParseLine(line)
	if err != nil {
		t.Fatalf("ParseLine() error = %v", err)
	}
	want := Record{
		Code:         "040316",
		BookNumber:   4,
		Chapter:      3,
		Verse:        16,
		PartOfSpeech: "V-",
		Morphology:   "3AAI-S--",
		Text:         "ἠγάπησεν",
		Word:         "ἠγάπησεν",
		Normalized:   "ἠγάπησε(ν)",
		Lemma:        "ἀγαπάω",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseLine() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseLineErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
		want error
	}{
		{"six fields", "610101 N- ----NSF- Βίβλος Βίβλος βίβλος", ErrTooFewFields},
		{"one field", "610101", ErrTooFewFields},
		{"short code", "61011 N- ----NSF- Βίβλος Βίβλος βίβλος βίβλος", ErrBadCode},
		{"letters in code", "61a101 N- ----NSF- Βίβλος Βίβλος βίβλος βίβλος", ErrBadCode},
		{"chapter zero", "610001 N- ----NSF- Βίβλος Βίβλος βίβλος βίβλος", ErrBadCode},
		{"verse zero", "610100 N- ----NSF- Βίβλος Βίβλος βίβλος βίβλος", ErrBadCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLine(tt.line)
			if !errors.Is(err, tt.want) {
				t.Errorf("ParseLine() error = %v, want %v", err, tt.want)
			}
			if !errors.Is(err, errors.ErrInvalidInput) {
				t.Errorf("ParseLine() error = %v, want it to match ErrInvalidInput", err)
			}
		})
	}
}

func TestDecodeCode(t *testing.T) {
	tests := []struct {
		code                 string
		book, chapter, verse int
	}{
		{"610101", 61, 1, 1},
		{"010101", 1, 1, 1},
		{"872221", 87, 22, 21},
		{"6101029", 61, 1, 2},
	}
	for _, tt := range tests {
		b, c, v, err := DecodeCode(tt.code)
		if err != nil {
			t.Errorf("DecodeCode(%q) error = %v", tt.code, err)
			continue
		}
		if b != tt.book || c != tt.chapter || v != tt.verse {
			t.Errorf("DecodeCode(%q) = %d,%d,%d, want %d,%d,%d", tt.code, b, c, v, tt.book, tt.chapter, tt.verse)
		}
	}
}

func TestScanner(t *testing.T) {
	input := strings.Join([]string{
		"610101 N- ----NSF- Βίβλος Βίβλος βίβλος βίβλος",
		"",
		"610101 N- ----GSF- γενέσεως γενέσεως γενέσεως γένεσις",
		"garbage",
		"   ",
		"610102 N- ----NSM- Ἀβραὰμ Ἀβραὰμ Ἀβραάμ Ἀβραάμ",
	}, "\n")

	sc := NewScanner(strings.NewReader(input), "61-Mt-morphgnt.txt")
	var lemmas []string
	var parseErrs []*errors.ParseError

	for sc.Next() {
		rec, err := sc.Record()
		if err != nil {
			var pe *errors.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Record() error = %T, want *errors.ParseError", err)
			}
			parseErrs = append(parseErrs, pe)
			continue
		}
		lemmas = append(lemmas, rec.Lemma)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}

	if diff := cmp.Diff([]string{"βίβλος", "γένεσις", "Ἀβραάμ"}, lemmas); diff != "" {
		t.Errorf("lemmas mismatch (-want +got):\n%s", diff)
	}
	if len(parseErrs) != 1 {
		t.Fatalf("parse errors = %d, want 1", len(parseErrs))
	}
	if parseErrs[0].Line != 4 || parseErrs[0].Path != "61-Mt-morphgnt.txt" {
		t.Errorf("parse error at %s:%d, want 61-Mt-morphgnt.txt:4", parseErrs[0].Path, parseErrs[0].Line)
	}
	if !errors.Is(parseErrs[0], ErrTooFewFields) {
		t.Errorf("parse error = %v, want ErrTooFewFields", parseErrs[0])
	}
	if got := sc.Blank(); got != 2 {
		t.Errorf("Blank() = %d, want 2", got)
	}
	if got := sc.Line(); got != 6 {
		t.Errorf("Line() = %d, want 6", got)
	}
}

func TestScannerSkipsOverlongLine(t *testing.T) {
	input := "610101 N- ----NSF- Βίβλος Βίβλος βίβλος βίβλος\n" +
		strings.Repeat("x", MaxLineBytes+10) + "\n" +
		"610102 N- ----NSM- Ἀβραὰμ Ἀβραὰμ Ἀβραάμ Ἀβραάμ"

	sc := NewScanner(strings.NewReader(input), "61-Mt-morphgnt.txt")
	var lines []int
	var errs []error
	for sc.Next() {
		rec, err := sc.Record()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		lines = append(lines, rec.Line)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}
	if diff := cmp.Diff([]int{1, 3}, lines); diff != "" {
		t.Errorf("record lines mismatch (-want +got):\n%s", diff)
	}
	if len(errs) != 1 || !errors.Is(errs[0], ErrLineTooLong) {
		t.Errorf("errors = %v, want one ErrLineTooLong", errs)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, fmt.Errorf("disk gone")
}

func TestScannerReadError(t *testing.T) {
	sc := NewScanner(failingReader{}, "61-Mt-morphgnt.txt")
	if sc.Next() {
		t.Fatal("Next() = true on a failing reader")
	}
	var ioErr *errors.IOError
	if err := sc.Err(); !errors.As(err, &ioErr) {
		t.Errorf("Err() = %v, want *errors.IOError", err)
	}
}
