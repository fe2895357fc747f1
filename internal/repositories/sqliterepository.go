package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Totarae/shortlink/internal/model"
	"github.com/Totarae/shortlink/internal/storage"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var _ storage.Storage = (*SQLiteRepository)(nil)

// SQLiteRepository реализует storage.Storage поверх SQLite или libsql.
// created_at хранится в секундах unix.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository оборачивает открытое и смигрированное подключение.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteLink(row rowScanner) (*model.ShortLink, error) {
	link := &model.ShortLink{}
	var created int64
	if err := row.Scan(&link.ID, &link.OriginalURL, &link.ShortCode, &created, &link.ClickCount); err != nil {
		return nil, err
	}
	link.CreatedAt = time.Unix(created, 0)
	return link, nil
}

func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	// libsql и базовый код SQLITE_CONSTRAINT различаем по тексту
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// Insert сохраняет ссылку.
func (r *SQLiteRepository) Insert(ctx context.Context, link *model.ShortLink) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO urls (original_url, short_url, created_at) VALUES (?, ?, ?)`,
		link.OriginalURL, link.ShortCode, link.CreatedAt.Unix(),
	)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return storage.ErrDuplicateCode
		}
		return fmt.Errorf("database insert error: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted id: %w", err)
	}
	link.ID = id
	link.ClickCount = 0
	return nil
}

// FindByCode возвращает ссылку по коду.
func (r *SQLiteRepository) FindByCode(ctx context.Context, code string) (*model.ShortLink, error) {
	link, err := scanSQLiteLink(r.db.QueryRowContext(ctx,
		`SELECT `+linkColumns+` FROM urls WHERE short_url = ?`, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return link, nil
}

// IncrementClicks увеличивает счётчик одним UPDATE ... RETURNING.
func (r *SQLiteRepository) IncrementClicks(ctx context.Context, code string) (*model.ShortLink, error) {
	link, err := scanSQLiteLink(r.db.QueryRowContext(ctx,
		`UPDATE urls SET click_count = click_count + 1 WHERE short_url = ? RETURNING `+linkColumns, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to increment clicks: %w", err)
	}
	return link, nil
}

// Update меняет URL и/или код одним запросом.
func (r *SQLiteRepository) Update(ctx context.Context, code string, upd model.LinkUpdate) (*model.ShortLink, error) {
	query := `UPDATE urls
              SET original_url = COALESCE(?, original_url),
                  short_url = COALESCE(?, short_url)
              WHERE short_url = ?
              RETURNING ` + linkColumns
	link, err := scanSQLiteLink(r.db.QueryRowContext(ctx, query,
		nullString(upd.OriginalURL), nullString(upd.ShortCode), code))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, storage.ErrNotFound
		case isSQLiteUniqueViolation(err):
			return nil, storage.ErrDuplicateCode
		}
		return nil, fmt.Errorf("failed to update url: %w", err)
	}
	return link, nil
}

// ListAll возвращает все ссылки по порядку добавления.
func (r *SQLiteRepository) ListAll(ctx context.Context) ([]*model.ShortLink, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+linkColumns+` FROM urls ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query urls: %w", err)
	}
	defer rows.Close()

	var results []*model.ShortLink
	for rows.Next() {
		link, err := scanSQLiteLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		results = append(results, link)
	}
	return results, rows.Err()
}

// AggregateClicks счётчики ссылок, созданных в интервале.
func (r *SQLiteRepository) AggregateClicks(ctx context.Context, rng *model.DateRange) ([]model.ClickCount, error) {
	query := `SELECT short_url, click_count FROM urls ORDER BY id`
	var args []any
	if rng != nil {
		query = `SELECT short_url, click_count FROM urls
                 WHERE created_at >= ? AND created_at < ?
                 ORDER BY id`
		args = append(args, rng.From.Unix(), rng.To.Unix())
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate clicks: %w", err)
	}
	defer rows.Close()

	counts := make([]model.ClickCount, 0)
	for rows.Next() {
		var c model.ClickCount
		if err := rows.Scan(&c.ShortURL, &c.ClickCount); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// Count число ссылок, созданных в интервале.
func (r *SQLiteRepository) Count(ctx context.Context, rng *model.DateRange) (int, error) {
	var count int
	var err error
	if rng == nil {
		err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM urls`).Scan(&count)
	} else {
		err = r.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM urls WHERE created_at >= ? AND created_at < ?`,
			rng.From.Unix(), rng.To.Unix(),
		).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count urls: %w", err)
	}
	return count, nil
}

// Ping проверяет доступность базы.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close закрывает базу.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
