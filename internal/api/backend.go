package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"nunc/internal/core"
	"nunc/internal/ledger"
)

const maxBodySize = 64 << 10

const (
	codeNotFound     = "not_found"
	codeInvalidJSON  = "invalid_json"
	codeInvalidLimit = "invalid_limit"
	codeTooLarge     = "too_large"
	codeInternal     = "internal"
)

// Backend translates HTTP requests into ledger calls. It never validates or
// ranks posts itself.
type Backend struct {
	Ledger core.Ledger
}

func (b *Backend) Root(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok")) //nolint:errcheck
}

func (b *Backend) Health(w http.ResponseWriter, r *http.Request) {
	if err := b.Ledger.HealthCheck(r.Context()); err != nil {
		loggerFrom(r.Context()).Warn("Health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{OK: false})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{OK: true})
}

func (b *Backend) ListPosts(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, codeInvalidLimit)
			return
		}
		limit = n
	}

	posts, err := b.Ledger.List(r.Context(), limit)
	if err != nil {
		b.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, PostsResponse{Posts: postsFromCore(posts)})
}

func (b *Backend) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req CreatePostRequest
	if !decode(w, r, &req) {
		return
	}

	draft := core.Draft{
		Text:    req.Text,
		Country: req.Country,
	}
	if req.Boosts != nil {
		draft.Boosts = ledger.ClampCount(*req.Boosts)
	}

	post, err := b.Ledger.Create(r.Context(), draft)
	if err != nil {
		b.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, PostResponse{OK: true, Post: postFromCore(post)})
}

func (b *Backend) BoostPost(w http.ResponseWriter, r *http.Request) {
	var req BoostRequest
	if !decode(w, r, &req) {
		return
	}

	delta := int64(1)
	if req.Add != nil {
		delta = ledger.ClampCount(*req.Add)
	}

	post, err := b.Ledger.Boost(r.Context(), chi.URLParam(r, "id"), delta)
	if err != nil {
		b.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, PostResponse{OK: true, Post: postFromCore(post)})
}

func (b *Backend) Countries(w http.ResponseWriter, r *http.Request) {
	totals, err := b.Ledger.CountryTotals(r.Context())
	if err != nil {
		b.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, CountriesResponse{
		Countries: lo.Map(totals, func(t core.CountryTotal, _ int) CountryTotal {
			return CountryTotal{Country: t.Country, Boosts: t.Boosts}
		}),
	})
}

func (b *Backend) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *core.ValidationError

	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Code)
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound)
	default:
		loggerFrom(r.Context()).Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal)
	}
}

// decode reads an optional JSON body into v. An empty body leaves v untouched.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodySize)

	err := json.NewDecoder(body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, codeTooLarge)
		return false
	}

	writeError(w, http.StatusBadRequest, codeInvalidJSON)
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, ErrorResponse{Error: code})
}
