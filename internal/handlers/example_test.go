package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/Totarae/shortlink/internal/model"
	"github.com/Totarae/shortlink/internal/service"
	"github.com/Totarae/shortlink/internal/util"
	"go.uber.org/zap"
)

// ExampleHandler_ReceiveShorten демонстрирует работу метода ReceiveShorten.
func ExampleHandler_ReceiveShorten() {
	store, _ := util.NewURLStore("")
	svc := service.NewShortenerService(store, util.NewCodeGenerator(nil, 6),
		service.DefaultRedirectRules(), zap.NewNop(), service.DefaultCodeAttempts)
	h := NewHandler(svc, zap.NewNop())

	body := `{"url":"https://example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/shorten", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.ReceiveShorten(rec, req)
	resp := rec.Result()
	defer resp.Body.Close()

	var result model.ShortenResponse
	_ = json.NewDecoder(resp.Body).Decode(&result)

	fmt.Println(resp.StatusCode)
	fmt.Println(result.OriginalURL)
	fmt.Println(len(result.ShortURL), strings.HasPrefix(result.ShortURL, "/"))

	// Output:
	// 200
	// https://example.com
	// 7 true
}
