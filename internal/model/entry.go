package model

// Операции журнала файлового хранилища.
const (
	OpInsert = "insert"
	OpClick  = "click"
	OpUpdate = "update"
)

// Entry представляет одну строку журнала в файле.
type Entry struct {
	Op          string `json:"op"`
	ID          int64  `json:"id,omitempty"`
	ShortURL    string `json:"short_url"`
	OriginalURL string `json:"original_url,omitempty"`
	NewShortURL string `json:"new_short_url,omitempty"`
	CreatedAt   int64  `json:"created_at,omitempty"`
}
