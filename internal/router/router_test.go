package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Totarae/shortlink/internal/handlers"
	"github.com/Totarae/shortlink/internal/metrics"
	"github.com/Totarae/shortlink/internal/model"
	"github.com/Totarae/shortlink/internal/service"
	"github.com/Totarae/shortlink/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const origin = "http://localhost:3000"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	metrics.Init()

	store, err := util.NewURLStore("")
	require.NoError(t, err)
	svc := service.NewShortenerService(store, util.NewCodeGenerator(nil, 6),
		service.DefaultRedirectRules(), zap.NewNop(), service.DefaultCodeAttempts)

	srv := httptest.NewServer(NewRouter(handlers.NewHandler(svc, zap.NewNop()), zap.NewNop(), origin))
	t.Cleanup(srv.Close)
	return srv
}

func noRedirectClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func TestRouter_ShortenAndRedirect(t *testing.T) {
	srv := newTestServer(t)
	client := noRedirectClient()

	resp, err := client.Post(srv.URL+"/shorten", "application/json", strings.NewReader(`{"url":"https://example.com"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out model.ShortenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	req, err := http.NewRequest(http.MethodGet, srv.URL+out.ShortURL, nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0 Safari/537.36")
	redirect, err := client.Do(req)
	require.NoError(t, err)
	defer redirect.Body.Close()

	assert.Equal(t, http.StatusFound, redirect.StatusCode)
	assert.Equal(t, "https://example.com", redirect.Header.Get("Location"))
	assert.NotEmpty(t, redirect.Header.Get("X-Request-Id"))
}

func TestRouter_StaticRoutesWinOverCode(t *testing.T) {
	srv := newTestServer(t)

	for path, want := range map[string]int{
		"/":            http.StatusOK,
		"/all":         http.StatusNotFound,
		"/stats":       http.StatusOK,
		"/stats/daily": http.StatusNotFound,
		"/ping":        http.StatusOK,
		"/metrics":     http.StatusOK,
		"/nothere":     http.StatusNotFound,
	} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err, path)
		resp.Body.Close()
		assert.Equal(t, want, resp.StatusCode, path)
	}
}

func TestRouter_CORS(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/shorten", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, origin, resp.Header.Get("Access-Control-Allow-Origin"))

	req, err = http.NewRequest(http.MethodGet, srv.URL+"/stats", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://evil.example.com")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}
