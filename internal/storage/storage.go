// Package storage описывает контракт хранилища коротких ссылок.
package storage

import (
	"context"
	"errors"

	"github.com/Totarae/shortlink/internal/model"
)

//go:generate mockgen -source=storage.go -destination=mocks/mock_storage.go -package=mocks

var (
	// ErrNotFound запись с таким кодом отсутствует.
	ErrNotFound = errors.New("short url not found")
	// ErrDuplicateCode код уже занят другой записью.
	ErrDuplicateCode = errors.New("short url already exists")
)

// Storage определяет интерфейс для работы с хранилищем ссылок.
// Каждая изменяющая операция должна быть сохранена до возврата.
type Storage interface {
	// Insert сохраняет новую запись и проставляет ей ID.
	Insert(ctx context.Context, link *model.ShortLink) error
	// FindByCode возвращает запись по короткому коду.
	FindByCode(ctx context.Context, code string) (*model.ShortLink, error)
	// IncrementClicks атомарно увеличивает счётчик и возвращает обновлённую запись.
	IncrementClicks(ctx context.Context, code string) (*model.ShortLink, error)
	// Update меняет URL и/или код записи одной операцией.
	Update(ctx context.Context, code string, upd model.LinkUpdate) (*model.ShortLink, error)
	// ListAll возвращает все записи в порядке добавления.
	ListAll(ctx context.Context) ([]*model.ShortLink, error)
	// AggregateClicks возвращает счётчики записей, созданных в интервале (nil означает все).
	AggregateClicks(ctx context.Context, rng *model.DateRange) ([]model.ClickCount, error)
	// Count возвращает число записей, созданных в интервале (nil означает все).
	Count(ctx context.Context, rng *model.DateRange) (int, error)
	Ping(ctx context.Context) error
	Close() error
}
