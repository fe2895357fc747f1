// Package storagetest содержит общий набор проверок для реализаций storage.Storage.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Totarae/shortlink/internal/model"
	"github.com/Totarae/shortlink/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run прогоняет проверки на чистом хранилище, которое каждый раз создаёт newStore.
func Run(t *testing.T, newStore func(t *testing.T) storage.Storage) {
	t.Run("InsertAndFind", func(t *testing.T) { testInsertAndFind(t, newStore(t)) })
	t.Run("DuplicateCode", func(t *testing.T) { testDuplicateCode(t, newStore(t)) })
	t.Run("IncrementClicks", func(t *testing.T) { testIncrementClicks(t, newStore(t)) })
	t.Run("ConcurrentClicks", func(t *testing.T) { testConcurrentClicks(t, newStore(t)) })
	t.Run("Update", func(t *testing.T) { testUpdate(t, newStore(t)) })
	t.Run("ListAndAggregate", func(t *testing.T) { testListAndAggregate(t, newStore(t)) })
	t.Run("Ping", func(t *testing.T) { require.NoError(t, newStore(t).Ping(context.Background())) })
}

// Day фиксированная дата для проверок, в локальном поясе.
var Day = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.Local)

func insert(t *testing.T, s storage.Storage, code, target string, created time.Time) *model.ShortLink {
	t.Helper()
	link := &model.ShortLink{OriginalURL: target, ShortCode: code, CreatedAt: created}
	require.NoError(t, s.Insert(context.Background(), link))
	return link
}

func testInsertAndFind(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	first := insert(t, s, "abc123", "https://example.com", Day)
	second := insert(t, s, "def456", "https://example.org", Day)
	assert.Positive(t, first.ID)
	assert.Greater(t, second.ID, first.ID)

	got, err := s.FindByCode(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "https://example.com", got.OriginalURL)
	assert.Equal(t, "abc123", got.ShortCode)
	assert.True(t, Day.Equal(got.CreatedAt))
	assert.Zero(t, got.ClickCount)

	_, err = s.FindByCode(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testDuplicateCode(t *testing.T, s storage.Storage) {
	insert(t, s, "abc123", "https://example.com", Day)

	err := s.Insert(context.Background(), &model.ShortLink{
		OriginalURL: "https://other.example.com",
		ShortCode:   "abc123",
		CreatedAt:   Day,
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateCode)

	n, err := s.Count(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func testIncrementClicks(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	insert(t, s, "abc123", "https://example.com", Day)

	for i := 1; i <= 3; i++ {
		link, err := s.IncrementClicks(ctx, "abc123")
		require.NoError(t, err)
		assert.Equal(t, int64(i), link.ClickCount)
		assert.Equal(t, "https://example.com", link.OriginalURL)
	}

	_, err := s.IncrementClicks(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testConcurrentClicks(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	insert(t, s, "hot001", "https://example.com", Day)

	const workers, perWorker = 8, 25
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_, err := s.IncrementClicks(ctx, "hot001")
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	link, err := s.FindByCode(ctx, "hot001")
	require.NoError(t, err)
	assert.Equal(t, int64(workers*perWorker), link.ClickCount)
}

func testUpdate(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	insert(t, s, "abc123", "https://example.com", Day)
	insert(t, s, "taken1", "https://example.org", Day)
	_, err := s.IncrementClicks(ctx, "abc123")
	require.NoError(t, err)

	target := "https://retarget.example.com"
	link, err := s.Update(ctx, "abc123", model.LinkUpdate{OriginalURL: &target})
	require.NoError(t, err)
	assert.Equal(t, target, link.OriginalURL)
	assert.Equal(t, "abc123", link.ShortCode)
	assert.Equal(t, int64(1), link.ClickCount)

	taken := "taken1"
	other := "https://other.example.com"
	_, err = s.Update(ctx, "abc123", model.LinkUpdate{OriginalURL: &other, ShortCode: &taken})
	assert.ErrorIs(t, err, storage.ErrDuplicateCode)

	// неудачное переименование не меняет ни одну из записей
	source, err := s.FindByCode(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, target, source.OriginalURL)
	assert.Equal(t, int64(1), source.ClickCount)
	occupant, err := s.FindByCode(ctx, "taken1")
	require.NoError(t, err)
	assert.Equal(t, "https://example.org", occupant.OriginalURL)
	assert.Zero(t, occupant.ClickCount)

	code, renamed := "renamed", "https://renamed.example.com"
	link, err = s.Update(ctx, "abc123", model.LinkUpdate{OriginalURL: &renamed, ShortCode: &code})
	require.NoError(t, err)
	assert.Equal(t, "renamed", link.ShortCode)
	assert.Equal(t, renamed, link.OriginalURL)
	assert.Equal(t, int64(1), link.ClickCount)

	_, err = s.FindByCode(ctx, "abc123")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	same := "renamed"
	_, err = s.Update(ctx, "renamed", model.LinkUpdate{ShortCode: &same})
	assert.NoError(t, err)

	_, err = s.Update(ctx, "missing", model.LinkUpdate{OriginalURL: &target})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testListAndAggregate(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	links, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, links)

	prev := Day.AddDate(0, 0, -1)
	for i := 0; i < 3; i++ {
		insert(t, s, fmt.Sprintf("today%d", i), "https://example.com", Day.Add(time.Duration(i)*time.Hour))
	}
	insert(t, s, "old000", "https://example.com", prev)
	_, err = s.IncrementClicks(ctx, "today1")
	require.NoError(t, err)
	_, err = s.IncrementClicks(ctx, "old000")
	require.NoError(t, err)

	links, err = s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, links, 4)
	assert.Equal(t, "today0", links[0].ShortCode)
	assert.Equal(t, "old000", links[3].ShortCode)

	day := model.DayOf(Day)
	counts, err := s.AggregateClicks(ctx, &day)
	require.NoError(t, err)
	assert.Equal(t, []model.ClickCount{
		{ShortURL: "today0", ClickCount: 0},
		{ShortURL: "today1", ClickCount: 1},
		{ShortURL: "today2", ClickCount: 0},
	}, counts)

	all, err := s.AggregateClicks(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	n, err := s.Count(ctx, &day)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = s.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	empty := model.DayOf(Day.AddDate(0, 0, 5))
	counts, err = s.AggregateClicks(ctx, &empty)
	require.NoError(t, err)
	assert.Empty(t, counts)
}
