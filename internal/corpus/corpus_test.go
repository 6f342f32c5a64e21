package corpus

import (
	"strings"
	"testing"
)

func TestVerseValidate(t *testing.T) {
	words := []Word{{Text: "Ἐν", WordOrder: 1}, {Text: "ἀρχῇ", WordOrder: 2}}

	tests := []struct {
		name    string
		verse   Verse
		wantErr string
	}{
		{"valid", Verse{BookID: "John", Chapter: 1, Verse: 1, Words: words}, ""},
		{"no words", Verse{BookID: "John", Chapter: 1, Verse: 1}, ""},
		{"missing book", Verse{Chapter: 1, Verse: 1}, "no book id"},
		{"zero verse", Verse{BookID: "John", Chapter: 1}, "must be positive"},
		{"gap in order", Verse{BookID: "John", Chapter: 1, Verse: 1, Words: []Word{{WordOrder: 1}, {WordOrder: 3}}}, "word 2 has word_order 3"},
		{"starts at zero", Verse{BookID: "John", Chapter: 1, Verse: 1, Words: []Word{{WordOrder: 0}}}, "word 1 has word_order 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.verse.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestJoinText(t *testing.T) {
	words := []Word{{Text: "Ἐν"}, {Text: "ἀρχῇ"}, {Text: "ἦν"}, {Text: "ὁ"}, {Text: "λόγος,"}}
	if got, want := JoinText(words), "Ἐν ἀρχῇ ἦν ὁ λόγος,"; got != want {
		t.Errorf("JoinText() = %q, want %q", got, want)
	}
	if got := JoinText(nil); got != "" {
		t.Errorf("JoinText(nil) = %q, want empty", got)
	}
}

func TestKeyString(t *testing.T) {
	v := Verse{BookID: "1John", Chapter: 4, Verse: 8}
	if got, want := v.Key().String(), "1John.4.8"; got != want {
		t.Errorf("Key().String() = %q, want %q", got, want)
	}
}
