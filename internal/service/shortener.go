package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Totarae/shortlink/internal/metrics"
	"github.com/Totarae/shortlink/internal/model"
	"github.com/Totarae/shortlink/internal/storage"
	"github.com/Totarae/shortlink/internal/util"
	"go.uber.org/zap"
)

// DefaultCodeAttempts сколько раз генерировать код при коллизиях.
const DefaultCodeAttempts = 5

// CodeGenerator источник коротких кодов.
type CodeGenerator interface {
	Generate() (string, error)
}

type ShortenerService struct {
	Store     storage.Storage
	Generator CodeGenerator
	Rules     RedirectRules
	Logger    *zap.Logger
	Attempts  int
	Now       func() time.Time
}

func NewShortenerService(store storage.Storage, gen CodeGenerator, rules RedirectRules, logger *zap.Logger, attempts int) *ShortenerService {
	if attempts <= 0 {
		attempts = DefaultCodeAttempts
	}
	return &ShortenerService{
		Store:     store,
		Generator: gen,
		Rules:     rules,
		Logger:    logger,
		Attempts:  attempts,
		Now:       time.Now,
	}
}

// Shorten создаёт короткую ссылку. При занятом коде пробует новый, не более Attempts раз.
func (s *ShortenerService) Shorten(ctx context.Context, originalURL string) (*model.ShortLink, error) {
	if strings.TrimSpace(originalURL) == "" {
		return nil, ErrMissingInput
	}
	if !util.IsValidURL(originalURL) {
		return nil, ErrInvalidURL
	}

	created := s.Now().Truncate(time.Second)
	for attempt := 1; attempt <= s.Attempts; attempt++ {
		code, err := s.Generator.Generate()
		if err != nil {
			return nil, fmt.Errorf("generate short url: %w", err)
		}

		link := &model.ShortLink{
			OriginalURL: originalURL,
			ShortCode:   code,
			CreatedAt:   created,
		}
		err = s.Store.Insert(ctx, link)
		if err == nil {
			metrics.LinksCreatedTotal.Inc()
			s.Logger.Info("short url created",
				zap.String("code", code),
				zap.String("original_url", originalURL),
			)
			return link, nil
		}
		if !errors.Is(err, storage.ErrDuplicateCode) {
			return nil, fmt.Errorf("save short url: %w", err)
		}

		metrics.CodeCollisionsTotal.Inc()
		s.Logger.Warn("short url collision",
			zap.String("code", code),
			zap.Int("attempt", attempt),
		)
	}
	return nil, ErrCodeGeneration
}

// Rename меняет код и целевой URL записи oldCode.
// Формат нового кода не проверяется: подходит любая непустая строка.
func (s *ShortenerService) Rename(ctx context.Context, oldCode, newCode, newURL string) (*model.ShortLink, error) {
	if newCode == "" || newURL == "" {
		return nil, ErrMissingInput
	}
	if !util.IsValidURL(newURL) {
		return nil, ErrInvalidURL
	}

	if _, err := s.Store.FindByCode(ctx, oldCode); err != nil {
		return nil, storageError("find short url", err)
	}

	if newCode != oldCode {
		_, err := s.Store.FindByCode(ctx, newCode)
		switch {
		case err == nil:
			return nil, ErrCodeTaken
		case !errors.Is(err, storage.ErrNotFound):
			return nil, fmt.Errorf("check new short url: %w", err)
		}
	}

	// уникальность всё равно проверит хранилище, если код займут между запросами
	link, err := s.Store.Update(ctx, oldCode, model.LinkUpdate{
		OriginalURL: &newURL,
		ShortCode:   &newCode,
	})
	if err != nil {
		return nil, storageError("rename short url", err)
	}

	s.Logger.Info("short url renamed",
		zap.String("old_code", oldCode),
		zap.String("new_code", newCode),
	)
	return link, nil
}

// Retarget меняет только целевой URL. Код приходит в URL-кодировке.
func (s *ShortenerService) Retarget(ctx context.Context, escapedCode, newURL string) (*model.ShortLink, error) {
	if newURL == "" {
		return nil, ErrMissingInput
	}

	code, err := url.PathUnescape(escapedCode)
	if err != nil {
		return nil, ErrNotFound
	}
	if !util.IsValidURL(newURL) {
		return nil, ErrInvalidURL
	}

	link, err := s.Store.Update(ctx, code, model.LinkUpdate{OriginalURL: &newURL})
	if err != nil {
		return nil, storageError("retarget short url", err)
	}

	s.Logger.Info("short url retargeted", zap.String("code", code))
	return link, nil
}

// List возвращает все ссылки в порядке создания.
func (s *ShortenerService) List(ctx context.Context) ([]*model.ShortLink, error) {
	links, err := s.Store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list short urls: %w", err)
	}
	return links, nil
}

func (s *ShortenerService) Ping(ctx context.Context) error {
	return s.Store.Ping(ctx)
}
