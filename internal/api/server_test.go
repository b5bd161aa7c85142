package api_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nunc/internal/api"
	"nunc/internal/core"
	"nunc/internal/ledger"
	"nunc/internal/persistence/memory"
)

var start = time.UnixMilli(1_700_000_000_000)

type env struct {
	clock   *clockwork.FakeClock
	handler http.Handler
}

func newEnv(t *testing.T) *env {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	clock := clockwork.NewFakeClockAt(start)
	l := ledger.New(logger, memory.NewStore(), clock)

	return &env{
		clock:   clock,
		handler: api.NewHandler(logger, l, []string{"*"}),
	}
}

func (e *env) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func (e *env) create(t *testing.T, body string) api.Post {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/posts", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	res := decodeBody[api.PostResponse](t, rec)
	require.True(t, res.OK)
	return res.Post
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()

	assert.Equal(t, status, rec.Code)
	assert.Equal(t, code, decodeBody[api.ErrorResponse](t, rec).Error)
}

func TestRootAndHealth(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")

	rec = e.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[api.HealthResponse](t, rec).OK)
}

func TestCreatePost(t *testing.T) {
	t.Parallel()

	t.Run("stamps times and defaults", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		post := e.create(t, `{"text":"  hello world  "}`)

		assert.NotEmpty(t, post.ID)
		assert.Equal(t, "hello world", post.Text)
		assert.Equal(t, core.DefaultCountry, post.Country)
		assert.EqualValues(t, 0, post.Boosts)
		assert.Equal(t, start.UnixMilli(), post.CreatedAt)
		assert.Equal(t, start.Add(24*time.Hour).UnixMilli(), post.ExpiresAt)
	})

	t.Run("clamps initial boosts", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		assert.EqualValues(t, 3, e.create(t, `{"text":"a","boosts":3.9}`).Boosts)
		assert.EqualValues(t, 0, e.create(t, `{"text":"b","boosts":-5}`).Boosts)
		assert.Equal(t, "Germany", e.create(t, `{"text":"c","country":" Germany "}`).Country)
	})

	t.Run("rejects invalid text", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)

		assertError(t, e.do(t, http.MethodPost, "/api/posts", `{"text":"   "}`), http.StatusBadRequest, core.CodeEmpty)
		assertError(t, e.do(t, http.MethodPost, "/api/posts", `{"text":"see example.com"}`), http.StatusBadRequest, core.CodeURLBlocked)

		long := `{"text":"` + strings.Repeat("x", core.MaxTextLength+1) + `"}`
		assertError(t, e.do(t, http.MethodPost, "/api/posts", long), http.StatusBadRequest, core.CodeTooLong)

		assert.Empty(t, decodeBody[api.PostsResponse](t, e.do(t, http.MethodGet, "/api/posts", "")).Posts)
	})

	t.Run("rejects malformed bodies", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)

		assertError(t, e.do(t, http.MethodPost, "/api/posts", `{"text":`), http.StatusBadRequest, "invalid_json")

		huge := `{"text":"` + strings.Repeat("x", 70<<10) + `"}`
		assertError(t, e.do(t, http.MethodPost, "/api/posts", huge), http.StatusRequestEntityTooLarge, "too_large")
	})
}

func TestBoostPost(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	post := e.create(t, `{"text":"boost me"}`)
	path := "/api/posts/" + post.ID + "/boost"

	boost := func(body string) api.Post {
		rec := e.do(t, http.MethodPost, path, body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return decodeBody[api.PostResponse](t, rec).Post
	}

	assert.EqualValues(t, 1, boost("").Boosts)
	assert.EqualValues(t, 6, boost(`{"add":5}`).Boosts)
	assert.EqualValues(t, 8, boost(`{"add":2.7}`).Boosts)
	assert.EqualValues(t, 8, boost(`{"add":-3}`).Boosts)

	assertError(t, e.do(t, http.MethodPost, "/api/posts/missing/boost", ""), http.StatusNotFound, "not_found")

	e.clock.Advance(24 * time.Hour)
	assertError(t, e.do(t, http.MethodPost, path, ""), http.StatusNotFound, "not_found")
}

func TestListPosts(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	low := e.create(t, `{"text":"low"}`)
	e.clock.Advance(time.Second)
	high := e.create(t, `{"text":"high","boosts":10}`)
	e.clock.Advance(time.Second)
	newer := e.create(t, `{"text":"newer"}`)

	posts := decodeBody[api.PostsResponse](t, e.do(t, http.MethodGet, "/api/posts", "")).Posts
	require.Len(t, posts, 3)
	assert.Equal(t, []string{high.ID, newer.ID, low.ID}, []string{posts[0].ID, posts[1].ID, posts[2].ID})

	posts = decodeBody[api.PostsResponse](t, e.do(t, http.MethodGet, "/api/posts?limit=1", "")).Posts
	require.Len(t, posts, 1)
	assert.Equal(t, high.ID, posts[0].ID)

	assertError(t, e.do(t, http.MethodGet, "/api/posts?limit=-1", ""), http.StatusBadRequest, "invalid_limit")
	assertError(t, e.do(t, http.MethodGet, "/api/posts?limit=ten", ""), http.StatusBadRequest, "invalid_limit")

	e.clock.Advance(24*time.Hour - 2*time.Second)
	posts = decodeBody[api.PostsResponse](t, e.do(t, http.MethodGet, "/api/posts", "")).Posts
	require.Len(t, posts, 2)
	assert.Equal(t, high.ID, posts[0].ID)
}

func TestCountries(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.create(t, `{"text":"a","country":"Germany","boosts":4}`)
	e.create(t, `{"text":"b","country":"Germany","boosts":1}`)
	e.create(t, `{"text":"c","boosts":2}`)

	countries := decodeBody[api.CountriesResponse](t, e.do(t, http.MethodGet, "/api/countries", "")).Countries
	require.Len(t, countries, len(core.Countries)+1)

	assert.Equal(t, api.CountryTotal{Country: "Germany", Boosts: 5}, countries[0])
	assert.Equal(t, api.CountryTotal{Country: core.DefaultCountry, Boosts: 2}, countries[1])
	assert.Equal(t, api.CountryTotal{Country: "Afghanistan", Boosts: 0}, countries[2])
}

func TestCORS(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/posts", nil)
	req.Header.Set("Origin", "https://nunc.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "content-type")

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	assert.Less(t, rec.Code, 300)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_simpleRequest(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set("Origin", "https://nunc.example")

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
