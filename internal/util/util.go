package util

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/Totarae/shortlink/internal/model"
	"github.com/Totarae/shortlink/internal/storage"
)

var _ storage.Storage = (*URLStore)(nil)

// URLStore provides a thread-safe link storage
//
// Все изменения пишутся в журнал (JSON по строке на операцию) и
// сбрасываются на диск до возврата. При старте журнал проигрывается.
// Пустой путь: хранение только в памяти.
type URLStore struct {
	mutex  sync.RWMutex
	links  []*model.ShortLink
	byCode map[string]*model.ShortLink
	nextID int64
	file   *os.File
	path   string
}

// NewURLStore initializes a new URLStore
func NewURLStore(path string) (*URLStore, error) {
	store := &URLStore{
		byCode: make(map[string]*model.ShortLink),
		path:   path,
	}
	if path == "" {
		return store, nil
	}

	// Загружаем данные из файла
	if err := store.LoadFromFile(); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	store.file = file
	return store, nil
}

// LoadFromFile проигрывает журнал. Длина строки не ограничена,
// оборванная последняя строка отрезается.
func (s *URLStore) LoadFromFile() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // Файл ещё не создан, это не ошибка
		}
		return fmt.Errorf("read journal: %w", err)
	}

	reader := bufio.NewReader(bytes.NewReader(data))

	var offset int64
	for {
		line, readErr := reader.ReadBytes('\n')
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			var entry model.Entry
			if err := json.Unmarshal(trimmed, &entry); err != nil {
				if offset+int64(len(line)) >= int64(len(data)) {
					return os.Truncate(s.path, offset)
				}
				return fmt.Errorf("corrupted journal at offset %d: %w", offset, err)
			}
			s.apply(entry)
		}
		offset += int64(len(line))

		if errors.Is(readErr, io.EOF) {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("read journal: %w", readErr)
		}
	}
}

func (s *URLStore) apply(entry model.Entry) {
	switch entry.Op {
	case model.OpInsert:
		link := &model.ShortLink{
			ID:          entry.ID,
			OriginalURL: entry.OriginalURL,
			ShortCode:   entry.ShortURL,
			CreatedAt:   time.Unix(entry.CreatedAt, 0),
		}
		s.links = append(s.links, link)
		s.byCode[link.ShortCode] = link
		if entry.ID > s.nextID {
			s.nextID = entry.ID
		}
	case model.OpClick:
		if link, ok := s.byCode[entry.ShortURL]; ok {
			link.ClickCount++
		}
	case model.OpUpdate:
		link, ok := s.byCode[entry.ShortURL]
		if !ok {
			return
		}
		if entry.OriginalURL != "" {
			link.OriginalURL = entry.OriginalURL
		}
		if entry.NewShortURL != "" && entry.NewShortURL != link.ShortCode {
			delete(s.byCode, link.ShortCode)
			link.ShortCode = entry.NewShortURL
			s.byCode[link.ShortCode] = link
		}
	}
}

// appendToFile добавляет запись в журнал и дожидается записи на диск
func (s *URLStore) appendToFile(entry model.Entry) error {
	if s.file == nil {
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if _, err := s.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write journal: %w", err)
	}
	return s.file.Sync()
}

// commit пишет операцию в журнал и применяет её к памяти. Вызывается под mutex.
func (s *URLStore) commit(entry model.Entry) error {
	if err := s.appendToFile(entry); err != nil {
		return err
	}
	s.apply(entry)
	return nil
}

// Insert сохраняет новую ссылку.
func (s *URLStore) Insert(_ context.Context, link *model.ShortLink) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.byCode[link.ShortCode]; exists {
		return storage.ErrDuplicateCode
	}

	entry := model.Entry{
		Op:          model.OpInsert,
		ID:          s.nextID + 1,
		ShortURL:    link.ShortCode,
		OriginalURL: link.OriginalURL,
		CreatedAt:   link.CreatedAt.Unix(),
	}
	if err := s.commit(entry); err != nil {
		return err
	}

	link.ID = entry.ID
	link.ClickCount = 0
	return nil
}

// FindByCode возвращает копию записи.
func (s *URLStore) FindByCode(_ context.Context, code string) (*model.ShortLink, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	link, ok := s.byCode[code]
	if !ok {
		return nil, storage.ErrNotFound
	}
	clone := *link
	return &clone, nil
}

// IncrementClicks увеличивает счётчик переходов.
func (s *URLStore) IncrementClicks(_ context.Context, code string) (*model.ShortLink, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	link, ok := s.byCode[code]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if err := s.commit(model.Entry{Op: model.OpClick, ShortURL: code}); err != nil {
		return nil, err
	}
	clone := *link
	return &clone, nil
}

// Update меняет URL и/или код.
func (s *URLStore) Update(_ context.Context, code string, upd model.LinkUpdate) (*model.ShortLink, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	link, ok := s.byCode[code]
	if !ok {
		return nil, storage.ErrNotFound
	}

	entry := model.Entry{Op: model.OpUpdate, ShortURL: code}
	if upd.OriginalURL != nil {
		entry.OriginalURL = *upd.OriginalURL
	}
	if upd.ShortCode != nil && *upd.ShortCode != code {
		if _, taken := s.byCode[*upd.ShortCode]; taken {
			return nil, storage.ErrDuplicateCode
		}
		entry.NewShortURL = *upd.ShortCode
	}

	if err := s.commit(entry); err != nil {
		return nil, err
	}
	clone := *link
	return &clone, nil
}

// ListAll возвращает все записи в порядке добавления.
func (s *URLStore) ListAll(_ context.Context) ([]*model.ShortLink, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := make([]*model.ShortLink, 0, len(s.links))
	for _, link := range s.links {
		clone := *link
		result = append(result, &clone)
	}
	return result, nil
}

// AggregateClicks счётчики записей, созданных в интервале.
func (s *URLStore) AggregateClicks(_ context.Context, rng *model.DateRange) ([]model.ClickCount, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := make([]model.ClickCount, 0)
	for _, link := range s.links {
		if rng != nil && !rng.Contains(link.CreatedAt) {
			continue
		}
		result = append(result, model.ClickCount{ShortURL: link.ShortCode, ClickCount: link.ClickCount})
	}
	return result, nil
}

// Count число записей, созданных в интервале.
func (s *URLStore) Count(_ context.Context, rng *model.DateRange) (int, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if rng == nil {
		return len(s.links), nil
	}
	count := 0
	for _, link := range s.links {
		if rng.Contains(link.CreatedAt) {
			count++
		}
	}
	return count, nil
}

// Ping хранилище в памяти всегда доступно.
func (s *URLStore) Ping(_ context.Context) error {
	return nil
}

// Close закрывает файл журнала.
func (s *URLStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
