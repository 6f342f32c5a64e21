// Package morph reads MorphGNT-style morphological records: one Greek word
// per line, keyed by a composite book/chapter/verse code.
//
//	040316 V- 3AAI-S-- ἠγάπησεν ἠγάπησεν ἠγάπησε(ν) ἀγαπάω
//
// Fields are code, part of speech, parsing code, surface text (with
// punctuation), word, normalized word and lemma. Extra fields are ignored.
package morph

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/santapalabra/scripture/core/errors"
)

// Format names the record format in parse errors.
const Format = "MorphGNT"

// MinFields is the number of whitespace-separated fields a record needs.
const MinFields = 7

// Per-line errors. All are recoverable: the line is skipped and counted.
var (
	ErrTooFewFields = fmt.Errorf("%w: too few fields", errors.ErrInvalidInput)
	ErrBadCode      = fmt.Errorf("%w: bad composite code", errors.ErrInvalidInput)
	ErrLineTooLong  = fmt.Errorf("%w: line exceeds %d bytes", errors.ErrInvalidInput, MaxLineBytes)
)

// Record is one parsed word line.
type Record struct {
	Code         string
	BookNumber   int
	Chapter      int
	Verse        int
	PartOfSpeech string
	Morphology   string
	Text         string
	Word         string
	Normalized   string
	Lemma        string
	Line         int
}

// ParseLine parses a single non-blank line.
func ParseLine(line string) (Record, error) {
	fields := strings.Fields(line)
	if len(fields) < MinFields {
		return Record{}, ErrTooFewFields
	}
	book, chapter, verse, err := DecodeCode(fields[0])
	if err != nil {
		return Record{}, err
	}
	return Record{
		Code:         fields[0],
		BookNumber:   book,
		Chapter:      chapter,
		Verse:        verse,
		PartOfSpeech: fields[1],
		Morphology:   fields[2],
		Text:         fields[3],
		Word:         fields[4],
		Normalized:   fields[5],
		Lemma:        fields[6],
	}, nil
}

// DecodeCode splits a composite code into book number, chapter and verse:
// two digits each, in that order ("610102" is book 61, chapter 1, verse 2).
// Digits after the sixth are ignored.
func DecodeCode(code string) (book, chapter, verse int, err error) {
	if len(code) < 6 {
		return 0, 0, 0, ErrBadCode
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return 0, 0, 0, ErrBadCode
		}
	}
	book, _ = strconv.Atoi(code[0:2])
	chapter, _ = strconv.Atoi(code[2:4])
	verse, _ = strconv.Atoi(code[4:6])
	if chapter == 0 || verse == 0 {
		return 0, 0, 0, ErrBadCode
	}
	return book, chapter, verse, nil
}

// MaxLineBytes bounds a record line. Longer lines are skipped whole and
// surface as ErrLineTooLong.
const MaxLineBytes = 1 << 20

// Scanner iterates the records of a stream. Blank lines are skipped
// silently; malformed lines surface through Record as *errors.ParseError so
// the caller can count them and move on.
type Scanner struct {
	r       *bufio.Reader
	name    string
	line    int
	blank   int
	text    string
	tooLong bool
	err     error
}

// NewScanner reads records from r. name identifies the source in errors.
func NewScanner(r io.Reader, name string) *Scanner {
	return &Scanner{r: bufio.NewReaderSize(r, 64*1024), name: name}
}

// Next advances to the next non-blank line. It returns false at the end of
// the stream or on a read error; see Err.
func (s *Scanner) Next() bool {
	for s.err == nil {
		line, tooLong, err := s.readLine()
		if err != nil {
			if err != io.EOF {
				s.err = err
			}
			return false
		}
		s.line++
		if tooLong {
			s.text, s.tooLong = "", true
			return true
		}
		text := strings.TrimSpace(line)
		if text == "" {
			s.blank++
			continue
		}
		s.text, s.tooLong = text, false
		return true
	}
	return false
}

// readLine returns the next line without its terminator. A line over
// MaxLineBytes is consumed to its end and reported as too long.
func (s *Scanner) readLine() (string, bool, error) {
	var buf []byte
	tooLong := false
	for {
		chunk, isPrefix, err := s.r.ReadLine()
		if err != nil {
			if err == io.EOF && (len(buf) > 0 || tooLong) {
				break
			}
			return "", false, err
		}
		if !tooLong {
			if len(buf)+len(chunk) > MaxLineBytes {
				tooLong, buf = true, nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if !isPrefix {
			break
		}
	}
	return string(buf), tooLong, nil
}

// Blank returns the number of blank lines skipped so far.
func (s *Scanner) Blank() int {
	return s.blank
}

// Line returns the 1-based number of the current line.
func (s *Scanner) Line() int {
	return s.line
}

// Record parses the current line.
func (s *Scanner) Record() (Record, error) {
	rec, err := ParseLine(s.text)
	if s.tooLong {
		err = ErrLineTooLong
	}
	if err != nil {
		return Record{}, &errors.ParseError{
			Format:  Format,
			Path:    s.name,
			Line:    s.line,
			Message: err.Error(),
			Err:     err,
		}
	}
	rec.Line = s.line
	return rec, nil
}

// Err returns the first read error, if any.
func (s *Scanner) Err() error {
	if s.err != nil {
		return errors.NewIO("read", s.name, s.err)
	}
	return nil
}
