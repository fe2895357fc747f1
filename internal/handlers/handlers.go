package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/Totarae/shortlink/internal/model"
	"github.com/Totarae/shortlink/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Welcome текст ответа на GET /.
const Welcome = "Welcome to the URL shortener API! Use /shorten to shorten URLs."

// MaxBodySize предельный размер JSON-тела запроса.
const MaxBodySize = 64 << 10

// LinkService операции сервиса, нужные обработчикам.
type LinkService interface {
	Shorten(ctx context.Context, originalURL string) (*model.ShortLink, error)
	Resolve(ctx context.Context, code string, meta service.RequestMeta) (*service.Decision, error)
	Rename(ctx context.Context, oldCode, newCode, newURL string) (*model.ShortLink, error)
	Retarget(ctx context.Context, escapedCode, newURL string) (*model.ShortLink, error)
	List(ctx context.Context) ([]*model.ShortLink, error)
	GlobalStats(ctx context.Context) (*model.GlobalStats, error)
	DailyStats(ctx context.Context, day time.Time) (*model.DailyStats, error)
	Ping(ctx context.Context) error
}

// interstitialPage промежуточная страница для мобильных клиентов:
// meta refresh и повторный переход по таймеру скрипта.
var interstitialPage = template.Must(template.New("interstitial").Parse(`<html>
    <head>
        <meta http-equiv="refresh" content="{{.RefreshSeconds}};url={{.TargetURL}}">
        <script type="text/javascript">
            setTimeout(function() {
                window.location = {{.TargetURL}};
            }, {{.ScriptDelayMillis}});
        </script>
    </head>
    <body>
        {{if .FallbackURL}}<a href="{{.FallbackURL}}">Open in browser</a>{{end}}
    </body>
</html>
`))

type Handler struct {
	Service LinkService
	Logger  *zap.Logger
	Now     func() time.Time
}

func NewHandler(svc LinkService, logger *zap.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  logger,
		Now:     time.Now,
	}
}

// Home приветствие API.
func (h *Handler) Home(res http.ResponseWriter, _ *http.Request) {
	res.Header().Set("Content-Type", "text/plain; charset=utf-8")
	res.WriteHeader(http.StatusOK)
	_, _ = res.Write([]byte(Welcome))
}

// ReceiveShorten POST /shorten
func (h *Handler) ReceiveShorten(res http.ResponseWriter, req *http.Request) {
	var body model.ShortenRequest
	if !h.decodeBody(res, req, &body) {
		return
	}

	link, err := h.Service.Shorten(req.Context(), body.URL)
	switch {
	case errors.Is(err, service.ErrMissingInput):
		h.writeError(res, http.StatusBadRequest, "No URL provided")
		return
	case errors.Is(err, service.ErrInvalidURL):
		h.writeError(res, http.StatusBadRequest, "Invalid URL format")
		return
	case err != nil:
		h.internalError(res, "shorten failed", err)
		return
	}

	h.writeJSON(res, http.StatusOK, toShortenResponse(link))
}

// ResponseURL GET /{code}: редирект, промежуточная страница или описание для краулера.
func (h *Handler) ResponseURL(res http.ResponseWriter, req *http.Request) {
	code := chi.URLParam(req, "code")
	if code == "" {
		h.writeError(res, http.StatusBadRequest, "Missing short URL")
		return
	}

	decision, err := h.Service.Resolve(req.Context(), code, service.RequestMeta{
		UserAgent: req.UserAgent(),
		Referer:   req.Referer(),
	})
	switch {
	case errors.Is(err, service.ErrNotFound):
		h.writeError(res, http.StatusNotFound, "URL not found")
		return
	case err != nil:
		h.internalError(res, "resolve failed", err)
		return
	}

	switch {
	case decision.Interstitial != nil:
		res.Header().Set("Content-Type", "text/html; charset=utf-8")
		res.WriteHeader(http.StatusOK)
		if err := interstitialPage.Execute(res, decision.Interstitial); err != nil {
			h.Logger.Error("render interstitial", zap.Error(err))
		}
	case decision.Virtual != nil:
		h.writeJSON(res, http.StatusOK, decision.Virtual)
	default:
		http.Redirect(res, req, decision.Location, http.StatusFound)
	}
}

// UpdateURL POST /update/{code}: новый код и новый целевой URL.
func (h *Handler) UpdateURL(res http.ResponseWriter, req *http.Request) {
	code := chi.URLParam(req, "code")

	var body model.RenameRequest
	if !h.decodeBody(res, req, &body) {
		return
	}

	link, err := h.Service.Rename(req.Context(), code, body.NewShortURL, body.URL)
	switch {
	case errors.Is(err, service.ErrMissingInput):
		h.writeError(res, http.StatusBadRequest, "Both new URL and short URL are required!")
		return
	case errors.Is(err, service.ErrInvalidURL):
		h.writeError(res, http.StatusBadRequest, "Invalid URL format")
		return
	case errors.Is(err, service.ErrNotFound):
		h.writeError(res, http.StatusNotFound, "Short URL not found")
		return
	case errors.Is(err, service.ErrCodeTaken):
		h.writeError(res, http.StatusBadRequest, "Short URL already exists. Please choose a different one.")
		return
	case err != nil:
		h.internalError(res, "rename failed", err)
		return
	}

	h.writeJSON(res, http.StatusOK, model.RenameResponse{
		Message:     "URL and Short URL updated successfully",
		NewShortURL: link.ShortPath(),
		UpdatedURL:  link.OriginalURL,
	})
}

// UpdateOriginalURL POST /update1/{code}: меняет только целевой URL.
func (h *Handler) UpdateOriginalURL(res http.ResponseWriter, req *http.Request) {
	code := chi.URLParam(req, "code")

	var body model.RetargetRequest
	if !h.decodeBody(res, req, &body) {
		return
	}

	link, err := h.Service.Retarget(req.Context(), code, body.NewOriginalURL)
	switch {
	case errors.Is(err, service.ErrMissingInput):
		h.writeError(res, http.StatusBadRequest, "New original URL is required!")
		return
	case errors.Is(err, service.ErrInvalidURL):
		h.writeError(res, http.StatusBadRequest, "Invalid URL format")
		return
	case errors.Is(err, service.ErrNotFound):
		h.writeError(res, http.StatusNotFound, "Short URL not found")
		return
	case err != nil:
		h.internalError(res, "retarget failed", err)
		return
	}

	h.writeJSON(res, http.StatusOK, model.RetargetResponse{
		Message:    "Original URL updated successfully",
		UpdatedURL: link.OriginalURL,
	})
}

// GetAllURLs GET /all
func (h *Handler) GetAllURLs(res http.ResponseWriter, req *http.Request) {
	links, err := h.Service.List(req.Context())
	if err != nil {
		h.internalError(res, "list failed", err)
		return
	}
	if len(links) == 0 {
		h.writeJSON(res, http.StatusNotFound, model.MessageResponse{Message: "No shortened URLs found"})
		return
	}

	h.writeJSON(res, http.StatusOK, lo.Map(links, func(link *model.ShortLink, _ int) model.ShortenResponse {
		return toShortenResponse(link)
	}))
}

// GetStats GET /stats
func (h *Handler) GetStats(res http.ResponseWriter, req *http.Request) {
	stats, err := h.Service.GlobalStats(req.Context())
	if err != nil {
		h.internalError(res, "stats failed", err)
		return
	}
	h.writeJSON(res, http.StatusOK, stats)
}

// GetDailyStats GET /stats/daily[?date=YYYY-MM-DD]
func (h *Handler) GetDailyStats(res http.ResponseWriter, req *http.Request) {
	day := h.Now()
	notFound := "No statistics available for today."

	if raw := req.URL.Query().Get("date"); raw != "" {
		parsed, err := time.ParseInLocation(service.DateLayout, raw, time.Local)
		if err != nil {
			h.writeError(res, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}
		day = parsed
		notFound = "No statistics available for " + raw + "."
	}

	stats, err := h.Service.DailyStats(req.Context(), day)
	switch {
	case errors.Is(err, service.ErrNoData):
		h.writeJSON(res, http.StatusNotFound, model.MessageResponse{Message: notFound})
		return
	case err != nil:
		h.internalError(res, "daily stats failed", err)
		return
	}
	h.writeJSON(res, http.StatusOK, stats)
}

// PingHandler проверяет доступность хранилища.
func (h *Handler) PingHandler(res http.ResponseWriter, req *http.Request) {
	if err := h.Service.Ping(req.Context()); err != nil {
		h.Logger.Error("storage ping failed", zap.Error(err))
		http.Error(res, "Storage unavailable", http.StatusInternalServerError)
		return
	}
	res.WriteHeader(http.StatusOK)
}

func toShortenResponse(link *model.ShortLink) model.ShortenResponse {
	return model.ShortenResponse{
		OriginalURL: link.OriginalURL,
		ShortURL:    link.ShortPath(),
		CreatedAt:   link.CreatedAt.Format(model.TimeLayout),
	}
}

// decodeBody читает JSON не длиннее MaxBodySize. При ошибке ответ уже записан.
func (h *Handler) decodeBody(res http.ResponseWriter, req *http.Request, v any) bool {
	err := json.NewDecoder(http.MaxBytesReader(res, req.Body, MaxBodySize)).Decode(v)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.writeError(res, http.StatusRequestEntityTooLarge, "Request body too large")
		return false
	}
	h.writeError(res, http.StatusBadRequest, "Invalid JSON body")
	return false
}

func (h *Handler) writeJSON(res http.ResponseWriter, status int, v any) {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(status)
	if err := json.NewEncoder(res).Encode(v); err != nil {
		h.Logger.Error("encode response", zap.Error(err))
	}
}

func (h *Handler) writeError(res http.ResponseWriter, status int, msg string) {
	h.writeJSON(res, status, model.ErrorResponse{Error: msg})
}

func (h *Handler) internalError(res http.ResponseWriter, msg string, err error) {
	h.Logger.Error(msg, zap.Error(err))
	h.writeError(res, http.StatusInternalServerError, "Internal server error")
}
