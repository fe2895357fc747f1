package service

import (
	"context"
	"strings"
	"time"

	"github.com/Totarae/shortlink/internal/metrics"
	"github.com/Totarae/shortlink/internal/model"
	ua "github.com/mileusna/useragent"
	"go.uber.org/zap"
)

// Category тип решения о переходе по короткой ссылке.
type Category int

const (
	CategoryDefault Category = iota
	CategoryMobile
	CategoryOverride
	CategoryCrawler
)

func (c Category) String() string {
	switch c {
	case CategoryMobile:
		return "interstitial"
	case CategoryOverride:
		return "override"
	case CategoryCrawler:
		return "virtual_link"
	default:
		return "direct"
	}
}

// VirtualLinkDescription описание для краулеров превью.
const VirtualLinkDescription = "This is a short link redirecting to the virtual link for Facebook Debugger."

// RedirectRules настраиваемые правила выбора ответа.
type RedirectRules struct {
	MobileMarkers     []string
	CrawlerMarkers    []string
	MarketplaceMarker string
	DeepLinkURL       string
	DeepLinkWebURL    string
	OverrideURL       string
	VirtualLinkURL    string
	RefreshDelay      time.Duration
	ScriptDelay       time.Duration
}

// DefaultRedirectRules правила по умолчанию.
func DefaultRedirectRules() RedirectRules {
	return RedirectRules{
		MobileMarkers:     []string{"Mobile", "Android", "iPhone"},
		CrawlerMarkers:    []string{"facebookexternalhit"},
		MarketplaceMarker: "shopee.vn",
		DeepLinkURL:       "shopeevn://home?navRoute=eyJwYXRoc",
		DeepLinkWebURL:    "https://shopee.vn/universal-link/m/shopee-tech-zone",
		OverrideURL:       "https://www.youtube.com/results?search_query=deploy+backend+python+free",
		VirtualLinkURL:    "https://example.com/virtual-link",
		RefreshDelay:      3 * time.Second,
		ScriptDelay:       8 * time.Second,
	}
}

// Classify выбирает категорию. Срабатывает первое подходящее правило:
// мобильный UA, затем маркетплейс в исходном URL, затем краулер.
func (r RedirectRules) Classify(userAgent, originalURL string) Category {
	switch {
	case containsAny(userAgent, r.MobileMarkers):
		return CategoryMobile
	case r.MarketplaceMarker != "" && strings.Contains(originalURL, r.MarketplaceMarker):
		return CategoryOverride
	case containsAny(userAgent, r.CrawlerMarkers):
		return CategoryCrawler
	default:
		return CategoryDefault
	}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if m != "" && strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// Decide строит решение для уже найденной записи.
func (r RedirectRules) Decide(link *model.ShortLink, userAgent string) *Decision {
	d := &Decision{
		Category: r.Classify(userAgent, link.OriginalURL),
		Link:     link,
	}
	switch d.Category {
	case CategoryMobile:
		d.Interstitial = &Interstitial{
			TargetURL:         r.DeepLinkURL,
			FallbackURL:       r.DeepLinkWebURL,
			RefreshSeconds:    int(r.RefreshDelay / time.Second),
			ScriptDelayMillis: r.ScriptDelay.Milliseconds(),
		}
	case CategoryOverride:
		d.Location = r.OverrideURL
	case CategoryCrawler:
		d.Virtual = &model.VirtualLink{
			ShortURL:    link.ShortCode,
			OriginalURL: r.VirtualLinkURL,
			Description: VirtualLinkDescription,
		}
	default:
		d.Location = link.OriginalURL
	}
	return d
}

// RequestMeta данные запроса, влияющие на ответ.
type RequestMeta struct {
	UserAgent string
	Referer   string
}

// Interstitial промежуточная страница с переходом в приложение.
type Interstitial struct {
	TargetURL         string
	FallbackURL       string
	RefreshSeconds    int
	ScriptDelayMillis int64
}

// Decision результат Resolve. Заполнено ровно одно из Location, Interstitial, Virtual.
type Decision struct {
	Category     Category
	Link         *model.ShortLink
	Location     string
	Interstitial *Interstitial
	Virtual      *model.VirtualLink
	Device       string
}

// DeviceClass класс устройства по User-Agent: bot, tablet, mobile, desktop или unknown.
func DeviceClass(userAgent string) string {
	if userAgent == "" {
		return "unknown"
	}
	parsed := ua.Parse(userAgent)
	switch {
	case parsed.Bot:
		return "bot"
	case parsed.Tablet:
		return "tablet"
	case parsed.Mobile:
		return "mobile"
	case parsed.Desktop:
		return "desktop"
	default:
		return "unknown"
	}
}

// Resolve засчитывает переход и выбирает ответ.
// Счётчик растёт при любом решении, включая промежуточную страницу и ответ краулеру.
func (s *ShortenerService) Resolve(ctx context.Context, code string, meta RequestMeta) (*Decision, error) {
	link, err := s.Store.IncrementClicks(ctx, code)
	if err != nil {
		return nil, storageError("increment clicks", err)
	}

	d := s.Rules.Decide(link, meta.UserAgent)
	d.Device = DeviceClass(meta.UserAgent)

	metrics.ResolutionsTotal.WithLabelValues(d.Category.String(), d.Device).Inc()
	s.Logger.Debug("short url resolved",
		zap.String("code", code),
		zap.String("decision", d.Category.String()),
		zap.String("device", d.Device),
		zap.String("referer", meta.Referer),
	)
	return d, nil
}
