package model

// ShortenRequest тело запроса POST /shorten.
type ShortenRequest struct {
	URL string `json:"url"`
}

// ShortenResponse ответ на создание и элемент списка /all.
type ShortenResponse struct {
	OriginalURL string `json:"original_url"`
	ShortURL    string `json:"short_url"`
	CreatedAt   string `json:"created_at"`
}

// RenameRequest тело запроса POST /update/{code}.
type RenameRequest struct {
	URL         string `json:"url"`
	NewShortURL string `json:"new_short_url"`
}

// RenameResponse ответ на переименование.
type RenameResponse struct {
	Message     string `json:"message"`
	NewShortURL string `json:"new_short_url"`
	UpdatedURL  string `json:"updated_url"`
}

// RetargetRequest тело запроса POST /update1/{code}.
type RetargetRequest struct {
	NewOriginalURL string `json:"new_original_url"`
}

// RetargetResponse ответ на смену целевого URL.
type RetargetResponse struct {
	Message    string `json:"message"`
	UpdatedURL string `json:"updated_url"`
}

// VirtualLink описание ссылки для краулеров превью.
type VirtualLink struct {
	ShortURL    string `json:"short_url"`
	OriginalURL string `json:"original_url"`
	Description string `json:"description"`
}

// ErrorResponse тело ответа с ошибкой.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse тело информационного ответа.
type MessageResponse struct {
	Message string `json:"message"`
}
