package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/santapalabra/scripture/core/canon"
	coreerrors "github.com/santapalabra/scripture/core/errors"
	"github.com/santapalabra/scripture/internal/corpus"
	"github.com/santapalabra/scripture/internal/store"
)

func TestHandleRoot(t *testing.T) {
	h := newTestServer(t, Config{}, store.NewMemory()).Handler()

	w, env := do[map[string]any](t, h, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, env.Success)
	require.Equal(t, "Scripture API", env.Data["name"])
	require.Equal(t, "test", env.Data["version"])
	require.NotEmpty(t, env.Data["endpoints"])
}

func TestHandleHealth(t *testing.T) {
	h := newTestServer(t, Config{}, seededStore(t)).Handler()

	w, env := do[HealthInfo](t, h, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ok", env.Data.Status)
	require.Equal(t, "test", env.Data.Version)
	require.NotNil(t, env.Data.Store)
	require.Equal(t, store.Stats{Verses: 3, Words: 13, Definitions: 1}, *env.Data.Store)
}

// failingStats reports a store whose schema is gone.
type failingStats struct {
	*store.MemoryStore
}

func (failingStats) Stats(context.Context) (store.Stats, error) {
	return store.Stats{}, coreerrors.NewSchema("verses", errors.New("no such table"))
}

func TestHandleHealthUnavailable(t *testing.T) {
	h := newTestServer(t, Config{}, failingStats{store.NewMemory()}).Handler()

	w, env := do[HealthInfo](t, h, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Equal(t, "unavailable", env.Data.Status)
	require.Contains(t, env.Data.StoreError, "no such table")
}

func TestHandleLinkify(t *testing.T) {
	h := newTestServer(t, Config{}, store.NewMemory()).Handler()

	w, env := do[LinkResponse](t, h, http.MethodPost, "/v1/linkify", LinkRequest{Text: "Read John 3:16 today."})
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, env.Data.Linked)
	require.Equal(t, "english", string(env.Data.Language))
	require.Contains(t, env.Data.Text, "[John 3:16](https://bible.usccb.org/bible/")
	require.Len(t, env.Data.References, 1)

	ref := env.Data.References[0]
	require.Equal(t, "John", ref.BookID)
	require.Equal(t, 3, ref.Chapter)
	require.Equal(t, "16", ref.VerseStart)
	require.Equal(t, "John.3.16", ref.OSIS)
	require.Equal(t, "John 3:16", ref.MatchedText)
	require.Equal(t, "Read John 3:16 today."[ref.Start:ref.End], ref.MatchedText)
}

func TestHandleLinkifyLanguages(t *testing.T) {
	h := newTestServer(t, Config{}, store.NewMemory()).Handler()

	w, env := do[LinkResponse](t, h, http.MethodPost, "/v1/linkify", LinkRequest{Text: "Juan 3:16", Language: "es"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "spanish", string(env.Data.Language))
	require.Contains(t, env.Data.Text, "biblegateway.com")

	w, env = do[LinkResponse](t, h, http.MethodPost, "/v1/linkify", LinkRequest{Text: "John 3:16", Language: "klingon"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "INVALID_PARAMS", env.Error.Code)
}

func TestHandleLinkifyAlreadyLinked(t *testing.T) {
	h := newTestServer(t, Config{}, store.NewMemory()).Handler()
	text := "See [John 3:16](https://bible.usccb.org/bible/john/3?16)."

	w, env := do[LinkResponse](t, h, http.MethodPost, "/v1/linkify", LinkRequest{Text: text})
	require.Equal(t, http.StatusOK, w.Code)
	require.False(t, env.Data.Linked)
	require.Equal(t, text, env.Data.Text)
	require.Empty(t, env.Data.References)
}

func TestHandleLinkifyRejectsBadRequests(t *testing.T) {
	h := newTestServer(t, Config{}, store.NewMemory()).Handler()

	tests := []struct {
		name   string
		body   string
		ctype  string
		status int
	}{
		{"wrong content type", `{"text":"John 3:16"}`, "text/plain", http.StatusUnsupportedMediaType},
		{"malformed json", `{"text":`, "application/json", http.StatusBadRequest},
		{"unknown field", `{"txt":"John 3:16"}`, "application/json", http.StatusBadRequest},
		{"text too large", `{"text":"` + strings.Repeat("a", maxTextBytes+1) + `"}`, "application/json", http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/linkify", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.ctype)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			require.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestHandleReferences(t *testing.T) {
	h := newTestServer(t, Config{}, store.NewMemory()).Handler()
	q := url.Values{"text": {"Compare Mt 5:3-12 with Lk 6:20."}, "language": {"en"}}

	w, env := do[[]ReferenceInfo](t, h, http.MethodGet, "/v1/references?"+q.Encode(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, env.Data, 2)
	require.Equal(t, 2, env.Meta.Total)
	require.Equal(t, "Matt.5.3-12", env.Data[0].OSIS)
	require.Equal(t, "12", env.Data[0].VerseEnd)
	require.Equal(t, "Luke", env.Data[1].BookID)
	require.NotEmpty(t, env.Data[1].URL)

	w, _ = do[[]ReferenceInfo](t, h, http.MethodGet, "/v1/references", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleBooks(t *testing.T) {
	h := newTestServer(t, Config{}, store.NewMemory()).Handler()

	w, env := do[[]canon.Book](t, h, http.MethodGet, "/v1/books?testament=nt", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, env.Data, 27)
	require.Equal(t, "Matt", env.Data[0].ID)
	require.Equal(t, "Rev", env.Data[26].ID)

	_, all := do[[]canon.Book](t, h, http.MethodGet, "/v1/books", nil)
	require.Greater(t, len(all.Data), 27)
}

func TestHandlePassage(t *testing.T) {
	h := newTestServer(t, Config{}, seededStore(t)).Handler()

	tests := []struct {
		name   string
		osis   string
		status int
		verses []int
	}{
		{"verse range", "John.1.1-2", http.StatusOK, []int{1, 2}},
		{"single verse", "John.1.3", http.StatusOK, []int{3}},
		{"whole chapter", "John.1", http.StatusOK, []int{1, 2, 3}},
		{"chapter not ingested", "John.2", http.StatusNotFound, nil},
		{"unknown book", "Nope.1", http.StatusNotFound, nil},
		{"malformed", "john.1", http.StatusBadRequest, nil},
		{"chapter out of range", "John.22", http.StatusBadRequest, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do[Passage](t, h, http.MethodGet, "/v1/passages/"+tt.osis, nil)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.verses == nil {
				return
			}
			var got []int
			for _, v := range env.Data.Verses {
				got = append(got, v.Verse)
			}
			require.Equal(t, tt.verses, got)
		})
	}
}

func TestHandleChapterAndVerse(t *testing.T) {
	h := newTestServer(t, Config{}, seededStore(t)).Handler()

	w, chapter := do[[]corpus.Verse](t, h, http.MethodGet, "/v1/verses/John/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, chapter.Data, 3)
	require.Equal(t, "Ἐν ἀρχῇ ἦν ὁ λόγος", chapter.Data[0].TextContent)

	// Book names resolve through the alias table.
	w, alias := do[[]corpus.Verse](t, h, http.MethodGet, "/v1/verses/"+url.PathEscape("Jn")+"/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, alias.Data, 3)

	w, verse := do[corpus.Verse](t, h, http.MethodGet, "/v1/verses/John/1/2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, verse.Data.Words, 4)
	require.Equal(t, "οὗτος", verse.Data.Words[0].Lemma)

	w, empty := do[[]corpus.Verse](t, h, http.MethodGet, "/v1/verses/John/2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, empty.Data)

	for path, status := range map[string]int{
		"/v1/verses/John/1/9":  http.StatusNotFound,
		"/v1/verses/John/22":   http.StatusBadRequest,
		"/v1/verses/John/0":    http.StatusBadRequest,
		"/v1/verses/John/x/1":  http.StatusBadRequest,
		"/v1/verses/Nope/1":    http.StatusNotFound,
		"/v1/verses/John/1/-1": http.StatusBadRequest,
	} {
		w, _ := do[any](t, h, http.MethodGet, path, nil)
		require.Equal(t, status, w.Code, path)
	}
}

func TestHandleWords(t *testing.T) {
	h := newTestServer(t, Config{}, seededStore(t)).Handler()

	q := url.Values{"q": {"ἀρχή"}}
	w, env := do[[]corpus.WordHit](t, h, http.MethodGet, "/v1/words?"+q.Encode(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, env.Data, 2)
	require.Equal(t, "ἀρχῇ", env.Data[0].MatchingWord)

	q = url.Values{"q": {"ἐν"}, "field": {"text"}, "limit": {"1"}}
	w, env = do[[]corpus.WordHit](t, h, http.MethodGet, "/v1/words?"+q.Encode(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, env.Data, 1)

	for _, raw := range []string{"", "q=x&field=gloss", "q=x&limit=0", "q=x&limit=abc"} {
		w, _ := do[any](t, h, http.MethodGet, "/v1/words?"+raw, nil)
		require.Equal(t, http.StatusBadRequest, w.Code, raw)
	}
}

func TestHandleDefinition(t *testing.T) {
	mem := seededStore(t)
	h := newTestServer(t, Config{}, mem).Handler()
	path := "/v1/definitions/" + url.PathEscape("λόγος")

	w, env := do[corpus.Definition](t, h, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "G3056", env.Data.StrongCode)
	require.Equal(t, "something said", env.Data.ShortGloss)

	// Served from the cache until the entry expires.
	require.NoError(t, mem.UpsertDefinition(context.Background(), corpus.Definition{Lemma: "λόγος", ShortGloss: "word"}))
	_, env = do[corpus.Definition](t, h, http.MethodGet, path, nil)
	require.Equal(t, "something said", env.Data.ShortGloss)

	w, _ = do[any](t, h, http.MethodGet, "/v1/definitions/"+url.PathEscape("ἀγάπη"), nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	// Misses are not cached.
	require.NoError(t, mem.UpsertDefinition(context.Background(), corpus.Definition{Lemma: "ἀγάπη", ShortGloss: "love"}))
	w, env = do[corpus.Definition](t, h, http.MethodGet, "/v1/definitions/"+url.PathEscape("ἀγάπη"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "love", env.Data.ShortGloss)
}

func TestHandleDefinitionNormalizesLemma(t *testing.T) {
	h := newTestServer(t, Config{}, seededStore(t)).Handler()

	// λόγος spelled with a combining acute instead of the precomposed ό.
	decomposed := "λο\u0301γος"
	w, env := do[corpus.Definition](t, h, http.MethodGet, "/v1/definitions/"+url.PathEscape(decomposed), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "λόγος", env.Data.Lemma)
}

func TestAuthRequired(t *testing.T) {
	h := newTestServer(t, Config{APIKey: testAPIKey}, store.NewMemory()).Handler()

	w, env := do[any](t, h, http.MethodGet, "/v1/books", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "UNAUTHORIZED", env.Error.Code)

	w, _ = do[any](t, h, http.MethodGet, "/v1/books", nil, "X-API-Key", "wrong-key-wrong-key")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = do[any](t, h, http.MethodGet, "/v1/books", nil, "X-API-Key", testAPIKey)
	require.Equal(t, http.StatusOK, w.Code)

	for _, public := range []string{"/", "/health"} {
		w, _ = do[any](t, h, http.MethodGet, public, nil)
		require.Equal(t, http.StatusOK, w.Code, public)
	}
}

func TestRespondErrMapping(t *testing.T) {
	s := newTestServer(t, Config{}, store.NewMemory())

	tests := []struct {
		err    error
		status int
		code   string
	}{
		{coreerrors.NewNotFound("verse", "John.1.1"), http.StatusNotFound, "NOT_FOUND"},
		{coreerrors.NewValidation("q", "required"), http.StatusBadRequest, "INVALID_PARAMS"},
		{coreerrors.NewParse("OSIS", "", 0, "bad"), http.StatusBadRequest, "INVALID_PARAMS"},
		{coreerrors.NewSchema("verses", nil), http.StatusServiceUnavailable, "SCHEMA_MISSING"},
		{context.Canceled, http.StatusServiceUnavailable, "CANCELLED"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		s.respondErr(w, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
		require.Equal(t, tt.status, w.Code, tt.err.Error())
		require.Contains(t, w.Body.String(), tt.code)
	}
}
