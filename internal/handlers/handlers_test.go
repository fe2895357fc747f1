package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Totarae/shortlink/internal/model"
	"github.com/Totarae/shortlink/internal/service"
	"github.com/Totarae/shortlink/internal/storage/mocks"
	"github.com/Totarae/shortlink/internal/util"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

const (
	desktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	androidUA = "Mozilla/5.0 (Linux; Android 13; Pixel 7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36"
	crawlerUA = "facebookexternalhit/1.1 (+http://www.facebook.com/externalhit_uatext.php)"
)

func newTestHandler(t testing.TB) *Handler {
	t.Helper()
	store, err := util.NewURLStore("")
	require.NoError(t, err)

	svc := service.NewShortenerService(store, util.NewCodeGenerator(nil, util.DefaultCodeLength),
		service.DefaultRedirectRules(), zap.NewNop(), service.DefaultCodeAttempts)
	return NewHandler(svc, zap.NewNop())
}

// withCode подставляет параметр маршрута так, как это делает chi.
func withCode(req *http.Request, code string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("code", code)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func shorten(t *testing.T, h *Handler, target string) model.ShortenResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/shorten", strings.NewReader(`{"url":"`+target+`"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.ReceiveShorten(w, req)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out model.ShortenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body model.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Error
}

func TestHome(t *testing.T) {
	h := newTestHandler(t)
	w := httptest.NewRecorder()

	h.Home(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, Welcome, w.Body.String())
}

func TestReceiveShorten(t *testing.T) {
	h := newTestHandler(t)

	out := shorten(t, h, "https://example.com")

	assert.Equal(t, "https://example.com", out.OriginalURL)
	assert.Regexp(t, `^/[a-zA-Z0-9]{6}$`, out.ShortURL)
	_, err := time.ParseInLocation(model.TimeLayout, out.CreatedAt, time.Local)
	assert.NoError(t, err)
}

func TestReceiveShorten_BadRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "no url", body: `{}`, want: "No URL provided"},
		{name: "empty url", body: `{"url":""}`, want: "No URL provided"},
		{name: "invalid url", body: `{"url":"not-a-url"}`, want: "Invalid URL format"},
		{name: "broken json", body: `{"url":`, want: "Invalid JSON body"},
		{
			name: "url too long",
			body: `{"url":"https://example.com/` + strings.Repeat("a", util.MaxURLLength) + `"}`,
			want: "Invalid URL format",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t)
			req := httptest.NewRequest(http.MethodPost, "/shorten", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			h.ReceiveShorten(w, req)

			resp := w.Result()
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.want, decodeError(t, resp))
		})
	}
}

func TestDecodeBody_TooLarge(t *testing.T) {
	h := newTestHandler(t)
	body := `{"url":"https://example.com/` + strings.Repeat("a", 2<<20) + `"}`

	tests := []struct {
		name   string
		handle http.HandlerFunc
	}{
		{name: "shorten", handle: h.ReceiveShorten},
		{name: "rename", handle: h.UpdateURL},
		{name: "retarget", handle: h.UpdateOriginalURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withCode(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), "abc123")
			w := httptest.NewRecorder()

			tt.handle(w, req)

			resp := w.Result()
			defer resp.Body.Close()
			assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
			assert.Equal(t, "Request body too large", decodeError(t, resp))
		})
	}

	links, err := h.Service.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestResponseURL(t *testing.T) {
	h := newTestHandler(t)
	out := shorten(t, h, "https://example.com")
	code := strings.TrimPrefix(out.ShortURL, "/")

	t.Run("desktop redirect", func(t *testing.T) {
		req := withCode(httptest.NewRequest(http.MethodGet, out.ShortURL, nil), code)
		req.Header.Set("User-Agent", desktopUA)
		w := httptest.NewRecorder()

		h.ResponseURL(w, req)

		resp := w.Result()
		defer resp.Body.Close()
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "https://example.com", resp.Header.Get("Location"))
	})

	t.Run("mobile interstitial", func(t *testing.T) {
		req := withCode(httptest.NewRequest(http.MethodGet, out.ShortURL, nil), code)
		req.Header.Set("User-Agent", androidUA)
		w := httptest.NewRecorder()

		h.ResponseURL(w, req)

		resp := w.Result()
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, resp.Header.Get("Location"))
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
		body := w.Body.String()
		assert.Contains(t, body, `content="3;url=shopeevn://home?navRoute=eyJwYXRoc"`)
		assert.Contains(t, body, "setTimeout")
		assert.Contains(t, body, "8000")
	})

	t.Run("crawler virtual link", func(t *testing.T) {
		req := withCode(httptest.NewRequest(http.MethodGet, out.ShortURL, nil), code)
		req.Header.Set("User-Agent", crawlerUA)
		w := httptest.NewRecorder()

		h.ResponseURL(w, req)

		resp := w.Result()
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var v model.VirtualLink
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
		assert.Equal(t, code, v.ShortURL)
		assert.Equal(t, "https://example.com/virtual-link", v.OriginalURL)
		assert.Equal(t, service.VirtualLinkDescription, v.Description)
	})

	t.Run("no user agent", func(t *testing.T) {
		req := withCode(httptest.NewRequest(http.MethodGet, out.ShortURL, nil), code)
		req.Header.Del("User-Agent")
		w := httptest.NewRecorder()

		h.ResponseURL(w, req)

		assert.Equal(t, http.StatusFound, w.Code)
	})
}

func TestResponseURL_MarketplaceOverride(t *testing.T) {
	h := newTestHandler(t)
	out := shorten(t, h, "https://shopee.vn/product/123")

	req := withCode(httptest.NewRequest(http.MethodGet, out.ShortURL, nil), strings.TrimPrefix(out.ShortURL, "/"))
	req.Header.Set("User-Agent", desktopUA)
	w := httptest.NewRecorder()

	h.ResponseURL(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, service.DefaultRedirectRules().OverrideURL, w.Header().Get("Location"))
}

func TestResponseURL_NotFound(t *testing.T) {
	r := chi.NewRouter()
	h := newTestHandler(t)
	r.Get("/{code}", h.ResponseURL)

	req := httptest.NewRequest(http.MethodGet, "/doesnotexist", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	resp := w.Result()
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "URL not found", decodeError(t, resp))
}

func TestUpdateURL(t *testing.T) {
	h := newTestHandler(t)
	first := shorten(t, h, "https://example.com/1")
	second := shorten(t, h, "https://example.com/2")
	code := strings.TrimPrefix(first.ShortURL, "/")

	t.Run("taken", func(t *testing.T) {
		body := `{"url":"https://new.example.com","new_short_url":"` + strings.TrimPrefix(second.ShortURL, "/") + `"}`
		req := withCode(httptest.NewRequest(http.MethodPost, "/update/"+code, strings.NewReader(body)), code)
		w := httptest.NewRecorder()

		h.UpdateURL(w, req)

		resp := w.Result()
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Short URL already exists. Please choose a different one.", decodeError(t, resp))
	})

	t.Run("missing fields", func(t *testing.T) {
		req := withCode(httptest.NewRequest(http.MethodPost, "/update/"+code, strings.NewReader(`{"url":"https://x.example.com"}`)), code)
		w := httptest.NewRecorder()

		h.UpdateURL(w, req)

		resp := w.Result()
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Both new URL and short URL are required!", decodeError(t, resp))
	})

	t.Run("not found", func(t *testing.T) {
		body := `{"url":"https://new.example.com","new_short_url":"fresh"}`
		req := withCode(httptest.NewRequest(http.MethodPost, "/update/missing", strings.NewReader(body)), "missing")
		w := httptest.NewRecorder()

		h.UpdateURL(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("renamed", func(t *testing.T) {
		body := `{"url":"https://new.example.com","new_short_url":"promo"}`
		req := withCode(httptest.NewRequest(http.MethodPost, "/update/"+code, strings.NewReader(body)), code)
		w := httptest.NewRecorder()

		h.UpdateURL(w, req)

		resp := w.Result()
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var out model.RenameResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Equal(t, "URL and Short URL updated successfully", out.Message)
		assert.Equal(t, "/promo", out.NewShortURL)
		assert.Equal(t, "https://new.example.com", out.UpdatedURL)

		redirect := withCode(httptest.NewRequest(http.MethodGet, "/promo", nil), "promo")
		redirect.Header.Set("User-Agent", desktopUA)
		rw := httptest.NewRecorder()
		h.ResponseURL(rw, redirect)
		assert.Equal(t, "https://new.example.com", rw.Header().Get("Location"))
	})
}

func TestUpdateOriginalURL(t *testing.T) {
	r := chi.NewRouter()
	h := newTestHandler(t)
	r.Post("/update1/{code}", h.UpdateOriginalURL)

	out := shorten(t, h, "https://example.com")

	req := httptest.NewRequest(http.MethodPost, "/update1"+out.ShortURL, strings.NewReader(`{"new_original_url":"https://changed.example.com"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body model.RetargetResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Original URL updated successfully", body.Message)
	assert.Equal(t, "https://changed.example.com", body.UpdatedURL)

	req = httptest.NewRequest(http.MethodPost, "/update1"+out.ShortURL, strings.NewReader(`{}`))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/update1/nothere", strings.NewReader(`{"new_original_url":"https://changed.example.com"}`))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetAllURLs(t *testing.T) {
	h := newTestHandler(t)

	w := httptest.NewRecorder()
	h.GetAllURLs(w, httptest.NewRequest(http.MethodGet, "/all", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"No shortened URLs found"}`, w.Body.String())

	first := shorten(t, h, "https://example.com/1")
	second := shorten(t, h, "https://example.com/2")

	w = httptest.NewRecorder()
	h.GetAllURLs(w, httptest.NewRequest(http.MethodGet, "/all", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var list []model.ShortenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, []model.ShortenResponse{first, second}, list)
}

func TestGetStats(t *testing.T) {
	h := newTestHandler(t)
	out := shorten(t, h, "https://example.com")
	code := strings.TrimPrefix(out.ShortURL, "/")

	for i := 0; i < 2; i++ {
		req := withCode(httptest.NewRequest(http.MethodGet, out.ShortURL, nil), code)
		h.ResponseURL(httptest.NewRecorder(), req)
	}

	w := httptest.NewRecorder()
	h.GetStats(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var stats model.GlobalStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalURLs)
	assert.Equal(t, 1, stats.TotalURLsToday)
	assert.Equal(t, int64(2), stats.TotalClicksToday)
	assert.Equal(t, []model.ClickCount{{ShortURL: code, ClickCount: 2}}, stats.ClickCounts)
}

func TestGetStats_StorageError(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStorage(ctrl)
	store.EXPECT().Count(gomock.Any(), gomock.Any()).Return(0, errors.New("db down"))

	svc := service.NewShortenerService(store, util.NewCodeGenerator(nil, 6), service.DefaultRedirectRules(), zap.NewNop(), 1)
	h := NewHandler(svc, zap.NewNop())

	w := httptest.NewRecorder()
	h.GetStats(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetDailyStats(t *testing.T) {
	h := newTestHandler(t)

	w := httptest.NewRecorder()
	h.GetDailyStats(w, httptest.NewRequest(http.MethodGet, "/stats/daily", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"No statistics available for today."}`, w.Body.String())

	out := shorten(t, h, "https://example.com")

	w = httptest.NewRecorder()
	h.GetDailyStats(w, httptest.NewRequest(http.MethodGet, "/stats/daily", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var stats model.DailyStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, time.Now().Format(service.DateLayout), stats.Date)
	assert.Equal(t, []model.ClickCount{{ShortURL: strings.TrimPrefix(out.ShortURL, "/")}}, stats.ClickCounts)

	w = httptest.NewRecorder()
	h.GetDailyStats(w, httptest.NewRequest(http.MethodGet, "/stats/daily?date=2001-01-01", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	h.GetDailyStats(w, httptest.NewRequest(http.MethodGet, "/stats/daily?date=yesterday", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPingHandler(t *testing.T) {
	h := newTestHandler(t)
	w := httptest.NewRecorder()

	h.PingHandler(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}
