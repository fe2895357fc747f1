package model

// ClickCount число переходов по одному короткому коду.
type ClickCount struct {
	ShortURL   string `json:"short_url"`
	ClickCount int64  `json:"click_count"`
}

// GlobalStats ответ GET /stats.
type GlobalStats struct {
	TotalURLs        int          `json:"total_urls"`
	TotalURLsToday   int          `json:"total_urls_today"`
	TotalClicksToday int64        `json:"total_clicks_today"`
	ClickCounts      []ClickCount `json:"click_counts"`
}

// DailyStats ответ GET /stats/daily.
type DailyStats struct {
	Date        string       `json:"date"`
	ClickCounts []ClickCount `json:"click_counts"`
}
