package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
	"golang.org/x/time/rate"

	"github.com/santapalabra/scripture/core/canon"
	"github.com/santapalabra/scripture/core/errors"
)

// Source is one book's record stream.
type Source interface {
	Name() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

// FileSource reads a local file. Files ending in .xz are decompressed.
type FileSource struct {
	Path string
}

// Name returns the file's base name.
func (f FileSource) Name() string {
	return filepath.Base(f.Path)
}

// Open opens the file.
func (f FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, errors.NewIO("open", f.Path, err)
	}
	if !isXZ(f.Path) {
		return fh, nil
	}
	rc, err := decompress(fh)
	if err != nil {
		fh.Close()
		return nil, &errors.ParseError{Format: "xz", Path: f.Path, Message: err.Error(), Err: err}
	}
	return rc, nil
}

func isXZ(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".xz")
}

// xzReadCloser closes the compressed stream under the decoder.
type xzReadCloser struct {
	*xz.Reader
	closer io.Closer
}

func (x xzReadCloser) Close() error {
	return x.closer.Close()
}

func decompress(rc io.ReadCloser) (io.ReadCloser, error) {
	zr, err := xz.NewReader(rc)
	if err != nil {
		return nil, err
	}
	return xzReadCloser{Reader: zr, closer: rc}, nil
}

// RemoteSource fetches a file over HTTP. Fetches share Limiter, and
// transient failures (network errors, 429, 5xx) are retried.
type RemoteSource struct {
	URL     string
	Client  *http.Client
	Limiter *rate.Limiter
	Retry   Retry
}

// Name returns the last path element of the URL.
func (s *RemoteSource) Name() string {
	if i := strings.LastIndexByte(s.URL, '/'); i >= 0 && i < len(s.URL)-1 {
		return s.URL[i+1:]
	}
	return s.URL
}

// Open performs the fetch and returns the response body.
func (s *RemoteSource) Open(ctx context.Context) (io.ReadCloser, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	var body io.ReadCloser
	_, err := s.Retry.Do(ctx, func() error {
		if s.Limiter != nil {
			if err := s.Limiter.Wait(ctx); err != nil {
				return err
			}
		}
		rc, err := s.fetch(ctx, client)
		if err != nil {
			return err
		}
		body = rc
		return nil
	}, nil)
	if err != nil {
		return nil, errors.NewIO("fetch", s.URL, err)
	}

	if isXZ(s.URL) {
		rc, err := decompress(body)
		if err != nil {
			body.Close()
			return nil, &errors.ParseError{Format: "xz", Path: s.URL, Message: err.Error(), Err: err}
		}
		return rc, nil
	}
	return body, nil
}

func (s *RemoteSource) fetch(ctx context.Context, client *http.Client) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Transient(err)
	}
	if resp.StatusCode == http.StatusOK {
		return resp.Body, nil
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
	err = fmt.Errorf("unexpected status %s", resp.Status)
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, errors.Transient(err)
	}
	return nil, err
}

// SBLGNTFileName is the MorphGNT file name of a New Testament book, e.g.
// "64-Jn-morphgnt.txt".
func SBLGNTFileName(b *canon.Book) string {
	return fmt.Sprintf("%02d-%s-morphgnt.txt", b.Code(canon.SchemeSBLGNT), b.Abbrev)
}

// RemoteOptions configures SBLGNTSources.
type RemoteOptions struct {
	BaseURL   string
	PerSecond float64
	Timeout   time.Duration
	Retry     Retry
}

// SBLGNTSources returns one remote source per New Testament book, in
// canonical order, sharing one HTTP client and rate limiter.
func SBLGNTSources(reg *canon.Registry, opts RemoteOptions) []Source {
	if opts.PerSecond <= 0 {
		opts.PerSecond = 2
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Minute
	}
	client := &http.Client{Timeout: opts.Timeout}
	limiter := rate.NewLimiter(rate.Limit(opts.PerSecond), 1)
	base := strings.TrimRight(opts.BaseURL, "/")

	var sources []Source
	for _, b := range reg.Books() {
		if b.Testament != canon.NewTestament || b.Code(canon.SchemeSBLGNT) == 0 || b.Abbrev == "" {
			continue
		}
		sources = append(sources, &RemoteSource{
			URL:     base + "/" + SBLGNTFileName(b),
			Client:  client,
			Limiter: limiter,
			Retry:   opts.Retry,
		})
	}
	return sources
}

// SBLGNTBookSources is SBLGNTSources limited to the books with the given
// OSIS ids, in canonical order. No ids means every book.
func SBLGNTBookSources(reg *canon.Registry, opts RemoteOptions, books []string) ([]Source, error) {
	all := SBLGNTSources(reg, opts)
	if len(books) == 0 {
		return all, nil
	}

	want := make(map[string]bool, len(books))
	for _, id := range books {
		b, ok := reg.ByID(id)
		if !ok {
			return nil, errors.NewValidation("books", fmt.Sprintf("unknown book %q", id))
		}
		if b.Testament != canon.NewTestament {
			return nil, errors.NewValidation("books", fmt.Sprintf("%s is not in the New Testament", b.Name))
		}
		want[SBLGNTFileName(b)] = true
	}
	var out []Source
	for _, src := range all {
		if want[src.Name()] {
			out = append(out, src)
		}
	}
	return out, nil
}
