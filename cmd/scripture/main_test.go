package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// execute runs the CLI and returns the exit code with both outputs.
func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var out, errb bytes.Buffer
	code := run(context.Background(), args, &out, &errb)
	return code, out.String(), errb.String()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

const johnSample = `640101 P- -------- Ἐν Ἐν ἐν ἐν
640101 N- ----DSF- ἀρχῇ ἀρχῇ ἀρχῇ ἀρχή
640101 V- 3IAI-S-- ἦν ἦν ἦν εἰμί
640102 RD ----NSM- οὗτος οὗτος οὗτος οὗτος
640102 V- 3IAI-S-- ἦν ἦν ἦν εἰμί
`

const dictionary = `<?xml version="1.0" encoding="utf-8"?>
<strongsdictionary>
<entries>
<entry strongs="00746">
  <strongs>746</strongs>
  <greek BETA="A)RXH/" unicode="ἀρχή" translit="archḗ"/>
  <strongs_def> (properly abstract) a commencement, or (concretely) chief</strongs_def>
  <kjv_def>:--beginning, corner, (at the, the) first (estate).</kjv_def>
</entry>
</entries>
</strongsdictionary>`

func TestLinkCmd(t *testing.T) {
	code, out, errOut := execute(t, "link", "See", "John", "3:16", "today")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %s", code, errOut)
	}
	if !strings.Contains(out, "[John 3:16](https://bible.usccb.org/bible/") {
		t.Errorf("output = %q, want a usccb link", out)
	}
	if !strings.HasSuffix(out, "today\n") {
		t.Errorf("output = %q, want the surrounding text kept", out)
	}
}

func TestLinkCmdLanguages(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		want     string
	}{
		{"explicit code", []string{"link", "--lang", "es", "Juan 3:16"}, 0, "biblegateway.com"},
		{"detected", []string{"link", "Lucas 7,18b-23 relata la historia"}, 0, "biblegateway.com"},
		{"unsupported", []string{"link", "--lang", "klingon", "John 3:16"}, 1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, errOut := execute(t, tt.args...)
			if code != tt.wantCode {
				t.Fatalf("exit code = %d, want %d (stderr %s)", code, tt.wantCode, errOut)
			}
			if tt.want != "" && !strings.Contains(out, tt.want) {
				t.Errorf("output = %q, want it to contain %q", out, tt.want)
			}
			if tt.wantCode != 0 && !strings.Contains(errOut, "unsupported language") {
				t.Errorf("stderr = %q", errOut)
			}
		})
	}
}

func TestRefsCmdJSON(t *testing.T) {
	code, out, errOut := execute(t, "refs", "--json", "Compare Mt 5:3-12 with Lk 6:20.")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %s", code, errOut)
	}
	var got []refOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(got) != 2 {
		t.Fatalf("found %d references, want 2", len(got))
	}
	if got[0].OSIS != "Matt.5.3-Matt.5.12" && got[0].OSIS != "Matt.5.3-12" {
		t.Errorf("first OSIS = %q", got[0].OSIS)
	}
	if got[1].MatchedText != "Lk 6:20" {
		t.Errorf("second match = %q, want %q", got[1].MatchedText, "Lk 6:20")
	}
	if got[0].URL == "" {
		t.Error("first reference has no URL")
	}
}

func TestRefsCmdNone(t *testing.T) {
	code, out, _ := execute(t, "refs", "no citations here")
	if code != 0 || out != "" {
		t.Errorf("refs = %d %q, want 0 and no output", code, out)
	}
}

func TestDetectCmd(t *testing.T) {
	_, out, _ := execute(t, "detect", "Selon", "Jean", "3,16")
	if out != "french\n" {
		t.Errorf("detect = %q, want french", out)
	}
	_, out, _ = execute(t, "detect", "Genesis 1:1 in English")
	if !strings.HasPrefix(out, "unknown") {
		t.Errorf("detect = %q, want unknown", out)
	}
}

func TestVersionCmd(t *testing.T) {
	code, out, _ := execute(t, "version")
	if code != 0 || out != "scripture version "+version+"\n" {
		t.Errorf("version = %d %q", code, out)
	}
}

func TestParseErrors(t *testing.T) {
	tests := [][]string{
		{"link", "--nope"},
		{"bogus"},
		{"search", "λόγος", "--field", "gloss"},
	}
	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			if code, _, _ := execute(t, args...); code != 2 {
				t.Errorf("exit code = %d, want 2", code)
			}
		})
	}
}

func TestIngestValidation(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "corpus.db")
	tests := [][]string{
		{"--db-dsn", dsn, "ingest"},
		{"--db-dsn", dsn, "ingest", "--remote", "a.txt"},
		{"--db-dsn", dsn, "ingest", "--books", "John", "a.txt"},
		{"--db-driver", "oracle", "migrate"},
	}
	for _, args := range tests {
		t.Run(strings.Join(args[2:], " "), func(t *testing.T) {
			if code, _, _ := execute(t, args...); code != 1 {
				t.Errorf("exit code = %d, want 1", code)
			}
		})
	}
}

func TestCorpusCommands(t *testing.T) {
	dir := t.TempDir()
	dsn := filepath.Join(dir, "corpus.db")
	sample := writeFile(t, dir, "64-Jn-morphgnt.txt", johnSample)
	dict := writeFile(t, dir, "strongsgreek.xml", dictionary)

	code, out, errOut := execute(t, "--db-dsn", dsn, "migrate")
	if code != 0 {
		t.Fatalf("migrate exit code = %d, stderr = %s", code, errOut)
	}
	if !strings.HasPrefix(out, "sqlite schema at version ") {
		t.Errorf("migrate output = %q", out)
	}

	code, out, errOut = execute(t, "--db-dsn", dsn, "ingest", sample)
	if code != 0 {
		t.Fatalf("ingest exit code = %d, stderr = %s", code, errOut)
	}
	if !strings.Contains(out, "64-Jn-morphgnt.txt: 2 verses, 5 words") {
		t.Errorf("ingest output = %q", out)
	}
	if !strings.Contains(out, "total: 2 verses, 5 words") {
		t.Errorf("ingest output = %q, want totals", out)
	}

	t.Run("read", func(t *testing.T) {
		code, out, errOut := execute(t, "--db-dsn", dsn, "read", "John", "1:2")
		if code != 0 {
			t.Fatalf("exit code = %d, stderr = %s", code, errOut)
		}
		if out != "John 1:2 οὗτος ἦν\n" {
			t.Errorf("read = %q", out)
		}

		_, out, _ = execute(t, "--db-dsn", dsn, "read", "John.1")
		if strings.Count(out, "\n") != 2 {
			t.Errorf("read chapter = %q, want 2 verses", out)
		}

		_, out, _ = execute(t, "--db-dsn", dsn, "read", "--words", "John 1:1")
		if !strings.Contains(out, "ἀρχή") || !strings.Contains(out, "3IAI-S--") {
			t.Errorf("read --words = %q", out)
		}

		if code, _, _ := execute(t, "--db-dsn", dsn, "read", "Rev 2:1"); code != 1 {
			t.Errorf("read of an absent passage exit code = %d, want 1", code)
		}
		if code, _, _ := execute(t, "--db-dsn", dsn, "read", "John 40:1"); code != 1 {
			t.Errorf("read past the last chapter exit code = %d, want 1", code)
		}
	})

	t.Run("search", func(t *testing.T) {
		_, out, _ := execute(t, "--db-dsn", dsn, "search", "εἰμί")
		if !strings.Contains(out, "John 1:1") || !strings.Contains(out, "John 1:2") {
			t.Errorf("search = %q", out)
		}
		_, out, _ = execute(t, "--db-dsn", dsn, "search", "--field", "text", "οὗτος")
		if !strings.Contains(out, "John 1:2") || strings.Contains(out, "John 1:1") {
			t.Errorf("search text = %q", out)
		}
		_, out, _ = execute(t, "--db-dsn", dsn, "search", "λόγος")
		if !strings.HasPrefix(out, "no verses contain") {
			t.Errorf("search miss = %q", out)
		}
	})

	t.Run("lexicon", func(t *testing.T) {
		if code, _, _ := execute(t, "--db-dsn", dsn, "define", "ἀρχή"); code != 1 {
			t.Errorf("define before load exit code = %d, want 1", code)
		}

		code, out, errOut := execute(t, "--db-dsn", dsn, "lexicon", "load", "--corpus-only", dict)
		if code != 0 {
			t.Fatalf("lexicon load exit code = %d, stderr = %s", code, errOut)
		}
		if !strings.HasPrefix(out, "read 1 entries: 1 written") {
			t.Errorf("lexicon load = %q", out)
		}

		_, out, _ = execute(t, "--db-dsn", dsn, "define", "--full", "ἀρχή")
		want := "ἀρχή (G746): beginning, corner, (at the, the) first (estate)\n" +
			"(properly abstract) a commencement, or (concretely) chief\n"
		if out != want {
			t.Errorf("define = %q, want %q", out, want)
		}
	})
}

func TestReadWithoutSchema(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "empty.db")
	code, _, errOut := execute(t, "--db-dsn", dsn, "read", "John 1:1")
	if code != 1 || !strings.Contains(errOut, "scripture: error:") {
		t.Errorf("read = %d %q, want a reported error", code, errOut)
	}
}
