package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Totarae/shortlink/internal/database"
	"github.com/Totarae/shortlink/internal/model"
	"github.com/Totarae/shortlink/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

const linkColumns = `id, original_url, short_url, created_at, click_count`

var _ storage.Storage = (*URLRepository)(nil)

// URLRepository реализует storage.Storage с использованием PostgreSQL.
type URLRepository struct {
	DB *database.DB
}

// NewURLRepository создаёт новый экземпляр URLRepository.
func NewURLRepository(db *database.DB) *URLRepository {
	return &URLRepository{DB: db}
}

func scanLink(row pgx.Row) (*model.ShortLink, error) {
	link := &model.ShortLink{}
	if err := row.Scan(&link.ID, &link.OriginalURL, &link.ShortCode, &link.CreatedAt, &link.ClickCount); err != nil {
		return nil, err
	}
	link.CreatedAt = link.CreatedAt.Local()
	return link, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// Insert сохраняет объект ссылки в базу данных.
func (r *URLRepository) Insert(ctx context.Context, link *model.ShortLink) error {
	query := `INSERT INTO urls (original_url, short_url, created_at)
              VALUES ($1, $2, $3)
              RETURNING id, click_count`

	err := r.DB.Pool.QueryRow(ctx, query, link.OriginalURL, link.ShortCode, link.CreatedAt).Scan(&link.ID, &link.ClickCount)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrDuplicateCode
		}
		return fmt.Errorf("database insert error: %w", err)
	}
	return nil
}

// FindByCode извлекает ссылку по короткому коду.
func (r *URLRepository) FindByCode(ctx context.Context, code string) (*model.ShortLink, error) {
	query := `SELECT ` + linkColumns + ` FROM urls WHERE short_url = $1`
	link, err := scanLink(r.DB.Pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return link, nil
}

// IncrementClicks увеличивает счётчик одним UPDATE, без отдельного чтения.
func (r *URLRepository) IncrementClicks(ctx context.Context, code string) (*model.ShortLink, error) {
	query := `UPDATE urls SET click_count = click_count + 1
              WHERE short_url = $1
              RETURNING ` + linkColumns
	link, err := scanLink(r.DB.Pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to increment clicks: %w", err)
	}
	return link, nil
}

// Update меняет URL и/или код. Конфликт кода отклоняется уникальным индексом.
func (r *URLRepository) Update(ctx context.Context, code string, upd model.LinkUpdate) (*model.ShortLink, error) {
	query := `UPDATE urls
              SET original_url = COALESCE($2, original_url),
                  short_url = COALESCE($3, short_url)
              WHERE short_url = $1
              RETURNING ` + linkColumns
	link, err := scanLink(r.DB.Pool.QueryRow(ctx, query, code, upd.OriginalURL, upd.ShortCode))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, storage.ErrNotFound
		case isUniqueViolation(err):
			return nil, storage.ErrDuplicateCode
		}
		return nil, fmt.Errorf("failed to update url: %w", err)
	}
	return link, nil
}

// ListAll возвращает все ссылки в порядке добавления.
func (r *URLRepository) ListAll(ctx context.Context) ([]*model.ShortLink, error) {
	rows, err := r.DB.Pool.Query(ctx, `SELECT `+linkColumns+` FROM urls ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query urls: %w", err)
	}

	links, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.ShortLink, error) {
		return scanLink(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}
	return links, nil
}

// AggregateClicks счётчики переходов по ссылкам, созданным в интервале.
func (r *URLRepository) AggregateClicks(ctx context.Context, rng *model.DateRange) ([]model.ClickCount, error) {
	query := `SELECT short_url, click_count FROM urls ORDER BY id`
	var args []any
	if rng != nil {
		query = `SELECT short_url, click_count FROM urls
                 WHERE created_at >= $1 AND created_at < $2
                 ORDER BY id`
		args = append(args, rng.From, rng.To)
	}

	rows, err := r.DB.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate clicks: %w", err)
	}

	counts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.ClickCount, error) {
		var c model.ClickCount
		err := row.Scan(&c.ShortURL, &c.ClickCount)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}
	return counts, nil
}

// Count количество сокращённых ссылок
func (r *URLRepository) Count(ctx context.Context, rng *model.DateRange) (int, error) {
	var count int
	var err error
	if rng == nil {
		err = r.DB.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM urls`).Scan(&count)
	} else {
		err = r.DB.Pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM urls WHERE created_at >= $1 AND created_at < $2`,
			rng.From, rng.To,
		).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count urls: %w", err)
	}
	return count, nil
}

// Ping проверяет доступность базы данных.
func (r *URLRepository) Ping(ctx context.Context) error {
	return r.DB.Ping(ctx)
}

// Close закрывает пул соединений.
func (r *URLRepository) Close() error {
	r.DB.Close()
	return nil
}
