package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/santapalabra/scripture/core/errors"
	"github.com/santapalabra/scripture/internal/store"
)

func TestWatcherReingestsChangedFiles(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	mem := store.NewMemory()
	reports := make(chan *Report, 4)
	w := NewWatcher(New(mem), 20*time.Millisecond, func(r *Report, err error) {
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("re-ingest error = %v", err)
		}
		reports <- r
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, dir) }()

	select {
	case <-w.Ready():
	case err := <-done:
		t.Fatalf("Run() returned early: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "ignored.md"), []byte("# notes"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "62-Mk-morphgnt.txt"), []byte("620101 N- ----NSF- Ἀρχὴ Ἀρχὴ ἀρχή ἀρχή\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case r := <-reports:
		if r.Source != "62-Mk-morphgnt.txt" || r.Verses != 1 {
			t.Errorf("report = %s", r)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no re-ingestion within 5s")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() error = %v", err)
	}
	if v, err := mem.Verse(context.Background(), "Mark", 1, 1); err != nil || v.TextContent != "Ἀρχὴ" {
		t.Errorf("Verse(Mark.1.1) = %+v, %v", v, err)
	}
}

func TestWatcherMissingPath(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	w := NewWatcher(New(store.NewMemory()), 0, nil)
	err := w.Run(context.Background(), filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Run(missing) error = %v, want os.ErrNotExist", err)
	}
}
