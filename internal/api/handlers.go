package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/unicode/norm"

	"github.com/santapalabra/scripture/core/canon"
	"github.com/santapalabra/scripture/core/errors"
	"github.com/santapalabra/scripture/core/refs"
	"github.com/santapalabra/scripture/internal/corpus"
	"github.com/santapalabra/scripture/internal/logging"
	"github.com/santapalabra/scripture/internal/metrics"
	"github.com/santapalabra/scripture/internal/server"
	"github.com/santapalabra/scripture/internal/store"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// maxTextBytes bounds text submitted for linking.
const maxTextBytes = 64 << 10

// APIResponse is the standard API response wrapper.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *APIMeta  `json:"meta,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	Total     int    `json:"total,omitempty"`
	Timestamp string `json:"timestamp"`
}

// ReferenceInfo is a citation as the API reports it.
type ReferenceInfo struct {
	BookID      string `json:"book_id"`
	Book        string `json:"book"`
	Chapter     int    `json:"chapter"`
	ChapterEnd  int    `json:"chapter_end,omitempty"`
	VerseStart  string `json:"verse_start,omitempty"`
	VerseEnd    string `json:"verse_end,omitempty"`
	MatchedText string `json:"matched_text"`
	Start       int    `json:"start"`
	End         int    `json:"end"`
	OSIS        string `json:"osis"`
	URL         string `json:"url,omitempty"`
}

func (s *Server) referenceInfo(ref refs.Reference, lang refs.Language) ReferenceInfo {
	info := ReferenceInfo{
		Chapter:     ref.Chapter,
		ChapterEnd:  ref.ChapterEnd,
		VerseStart:  ref.VerseStart.String(),
		VerseEnd:    ref.VerseEnd.String(),
		MatchedText: ref.MatchedText,
		Start:       ref.Start,
		End:         ref.End,
		OSIS:        ref.OSIS(),
	}
	if ref.Book != nil {
		info.BookID = ref.Book.ID
		info.Book = ref.Book.Name
	}
	if lang != "" {
		info.URL = s.linker.URL(ref, lang)
	}
	return info
}

// LinkRequest is the body of POST /v1/linkify.
type LinkRequest struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
	// Detect picks the language from the text when Language is empty.
	Detect bool `json:"detect,omitempty"`
}

// LinkResponse is the result of linking a text.
type LinkResponse struct {
	Text       string          `json:"text"`
	Language   refs.Language   `json:"language"`
	Linked     bool            `json:"linked"`
	References []ReferenceInfo `json:"references"`
}

// HealthInfo is the health check response.
type HealthInfo struct {
	Status           string       `json:"status"`
	Version          string       `json:"version"`
	Uptime           string       `json:"uptime"`
	Store            *store.Stats `json:"store,omitempty"`
	StoreError       string       `json:"store_error,omitempty"`
	WebSocketClients int          `json:"websocket_clients"`
	RunningJobs      int          `json:"running_jobs"`
}

// Passage is a run of verses addressed by an OSIS reference.
type Passage struct {
	Reference string         `json:"reference"`
	OSIS      string         `json:"osis"`
	Verses    []corpus.Verse `json:"verses"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]any{
		"name":    "Scripture API",
		"version": s.version,
		"endpoints": []string{
			"GET /health",
			"GET /metrics",
			"WS /ws",
			"POST /v1/linkify",
			"GET /v1/references",
			"GET /v1/books",
			"GET /v1/passages/{osis}",
			"GET /v1/verses/{book}/{chapter}",
			"GET /v1/verses/{book}/{chapter}/{verse}",
			"GET /v1/words",
			"GET /v1/definitions/{lemma}",
			"POST /v1/ingest",
			"GET /v1/jobs",
			"GET /v1/jobs/{id}",
			"DELETE /v1/jobs/{id}",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	info := HealthInfo{
		Status:           "ok",
		Version:          s.version,
		Uptime:           time.Since(s.started).Round(time.Second).String(),
		WebSocketClients: s.hub.Clients(),
	}
	for _, j := range s.jobs.List() {
		if !j.Status.Terminal() {
			info.RunningJobs++
		}
	}

	status := http.StatusOK
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		info.Status = "unavailable"
		info.StoreError = err.Error()
		status = http.StatusServiceUnavailable
	} else {
		info.Store = &stats
	}
	respond(w, status, info)
}

// language resolves the requested rendering language. An empty name means
// detection when detect is set, English otherwise.
func (s *Server) language(name string, detect bool, text string) (refs.Language, error) {
	if name != "" {
		lang, ok := refs.ParseLanguage(name)
		if !ok {
			return "", errors.NewValidation("language", "unsupported language "+strconv.Quote(name))
		}
		return lang, nil
	}
	if detect {
		return refs.Resolve(s.detector, text, refs.English), nil
	}
	return refs.English, nil
}

func (s *Server) handleLinkify(w http.ResponseWriter, r *http.Request) {
	if !server.ValidateContentType(r.Header.Get("Content-Type"), []string{"application/json"}) {
		respondError(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "Content-Type must be application/json")
		return
	}
	var req LinkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Text) > maxTextBytes {
		respondError(w, http.StatusRequestEntityTooLarge, "TEXT_TOO_LARGE", "text exceeds "+strconv.Itoa(maxTextBytes)+" bytes")
		return
	}
	text := server.SanitizeUserInput(req.Text)

	lang, err := s.language(req.Language, req.Detect, text)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	resp := LinkResponse{Text: text, Language: lang, References: []ReferenceInfo{}}
	if !s.linker.AlreadyLinked(text) {
		found := s.linker.Extract(text)
		for _, ref := range found {
			resp.References = append(resp.References, s.referenceInfo(ref, lang))
		}
		resp.Text = s.linker.Link(text, lang)
		resp.Linked = resp.Text != text
		metrics.RecordLinked(string(lang), len(found))
	}
	respond(w, http.StatusOK, resp)
}

func (s *Server) handleReferences(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	text := server.LimitStringLength(server.SanitizeUserInput(q.Get("text")), maxTextBytes)
	if text == "" {
		respondError(w, http.StatusBadRequest, "MISSING_PARAMS", "text is required")
		return
	}
	detect, _ := strconv.ParseBool(q.Get("detect"))
	lang, err := s.language(q.Get("language"), detect, text)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	found := s.linker.Extract(text)
	out := make([]ReferenceInfo, 0, len(found))
	for _, ref := range found {
		out = append(out, s.referenceInfo(ref, lang))
	}
	respondList(w, out, len(out))
}

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request) {
	testament := strings.ToLower(r.URL.Query().Get("testament"))
	var out []*canon.Book
	for _, b := range s.linker.Registry().Books() {
		if testament == "" || strings.EqualFold(string(b.Testament), testament) {
			out = append(out, b)
		}
	}
	respondList(w, out, len(out))
}

func (s *Server) handlePassage(w http.ResponseWriter, r *http.Request) {
	osis, err := url.PathUnescape(chi.URLParam(r, "osis"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REFERENCE", "malformed OSIS reference")
		return
	}
	ref, err := s.linker.ParseOSIS(osis)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	last := max(ref.ChapterEnd, ref.Chapter)
	passage := Passage{Reference: ref.String(), OSIS: ref.OSIS(), Verses: []corpus.Verse{}}
	for ch := ref.Chapter; ch <= last; ch++ {
		verses, err := s.store.Chapter(r.Context(), ref.Book.ID, ch)
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		for _, v := range verses {
			if ref.HasVerse() && (v.Verse < ref.VerseStart.Number || v.Verse > ref.EndVerse()) {
				continue
			}
			passage.Verses = append(passage.Verses, v)
		}
	}
	if len(passage.Verses) == 0 {
		s.respondErr(w, r, errors.NewNotFound("passage", ref.OSIS()))
		return
	}
	respond(w, http.StatusOK, passage)
}

// bookParam resolves a {book} segment given as an OSIS id or any alias.
func (s *Server) bookParam(r *http.Request) (*canon.Book, error) {
	raw, err := url.PathUnescape(chi.URLParam(r, "book"))
	if err != nil {
		return nil, errors.NewValidation("book", "malformed book")
	}
	reg := s.linker.Registry()
	if b, ok := reg.ByID(raw); ok {
		return b, nil
	}
	if b, ok := reg.NormalizeBookName(raw); ok {
		return b, nil
	}
	return nil, errors.NewNotFound("book", raw)
}

func positiveParam(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || n < 1 {
		return 0, errors.NewValidation(name, name+" must be a positive integer")
	}
	return n, nil
}

func (s *Server) chapterParams(r *http.Request) (*canon.Book, int, error) {
	book, err := s.bookParam(r)
	if err != nil {
		return nil, 0, err
	}
	chapter, err := positiveParam(r, "chapter")
	if err != nil {
		return nil, 0, err
	}
	if chapter > book.Chapters {
		return nil, 0, errors.NewValidation("chapter", book.Name+" has "+strconv.Itoa(book.Chapters)+" chapters")
	}
	return book, chapter, nil
}

func (s *Server) handleChapter(w http.ResponseWriter, r *http.Request) {
	book, chapter, err := s.chapterParams(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	verses, err := s.store.Chapter(r.Context(), book.ID, chapter)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if verses == nil {
		verses = []corpus.Verse{}
	}
	respondList(w, verses, len(verses))
}

func (s *Server) handleVerse(w http.ResponseWriter, r *http.Request) {
	book, chapter, err := s.chapterParams(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	verse, err := positiveParam(r, "verse")
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	v, err := s.store.Verse(r.Context(), book.ID, chapter, verse)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, v)
}

func (s *Server) handleWords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := store.WordQuery{
		Field: store.SearchField(q.Get("field")),
		Term:  norm.NFC.String(server.SanitizeUserInput(q.Get("q"))),
	}
	if l := q.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "INVALID_PARAMS", "limit must be a positive integer")
			return
		}
		query.Limit = n
	}

	hits, err := s.store.SearchWords(r.Context(), query)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if hits == nil {
		hits = []corpus.WordHit{}
	}
	respondList(w, hits, len(hits))
}

func (s *Server) handleDefinition(w http.ResponseWriter, r *http.Request) {
	raw, err := url.PathUnescape(chi.URLParam(r, "lemma"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAMS", "malformed lemma")
		return
	}
	lemma := norm.NFC.String(strings.TrimSpace(raw))
	if lemma == "" {
		respondError(w, http.StatusBadRequest, "INVALID_PARAMS", "lemma is required")
		return
	}

	def, err := s.definitions.GetOrLoad(r.Context(), lemma, func(ctx context.Context) (corpus.Definition, error) {
		d, err := s.store.Definition(ctx, lemma)
		if err != nil {
			return corpus.Definition{}, err
		}
		return *d, nil
	})
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, def)
}

// decodeJSON reads a bounded JSON body into v, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", "request body too large")
			return false
		}
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return false
	}
	return true
}

// respondErr maps the error taxonomy onto HTTP statuses. Unexpected errors
// are logged and reported without detail.
func (s *Server) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errors.ErrNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, errors.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "INVALID_PARAMS", err.Error())
	case errors.Is(err, errors.ErrSchemaMissing):
		logging.LoggerFromContext(r.Context()).Error("store schema missing", "path", r.URL.Path, "error", err)
		respondError(w, http.StatusServiceUnavailable, "SCHEMA_MISSING", "corpus store is not migrated")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusServiceUnavailable, "CANCELLED", "request cancelled")
	default:
		logging.LoggerFromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
	}
}

func respond(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Meta:    &APIMeta{Timestamp: time.Now().UTC().Format(time.RFC3339)},
	})
}

func respondList(w http.ResponseWriter, data any, total int) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
		Meta:    &APIMeta{Total: total, Timestamp: time.Now().UTC().Format(time.RFC3339)},
	})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message},
		Meta:    &APIMeta{Timestamp: time.Now().UTC().Format(time.RFC3339)},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
