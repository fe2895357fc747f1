package model

import "time"

// TimeLayout формат created_at в ответах API.
const TimeLayout = "2006-01-02 15:04:05"

// ShortLink запись о сокращённой ссылке.
type ShortLink struct {
	ID          int64     `json:"id"`
	OriginalURL string    `json:"original_url"`
	ShortCode   string    `json:"short_code"`
	CreatedAt   time.Time `json:"created_at"`
	ClickCount  int64     `json:"click_count"`
}

// ShortPath возвращает публичный путь короткой ссылки.
func (l *ShortLink) ShortPath() string {
	return "/" + l.ShortCode
}

// LinkUpdate описывает изменение записи. nil-поле не меняется.
type LinkUpdate struct {
	OriginalURL *string
	ShortCode   *string
}

// DateRange полуоткрытый интервал [From, To).
type DateRange struct {
	From time.Time
	To   time.Time
}

// DayOf возвращает календарные сутки, в которые попадает t, в часовом поясе t.
func DayOf(t time.Time) DateRange {
	y, m, d := t.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return DateRange{From: from, To: from.AddDate(0, 0, 1)}
}

// Contains проверяет, попадает ли t в интервал.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && t.Before(r.To)
}
