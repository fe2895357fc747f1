package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Totarae/shortlink/internal/model"
	"github.com/samber/lo"
)

// DateLayout формат даты в дневной статистике.
const DateLayout = "2006-01-02"

// GlobalStats общая статистика. Счётчики click_counts по всем записям,
// "сегодня" считается по локальной дате на момент вызова.
func (s *ShortenerService) GlobalStats(ctx context.Context) (*model.GlobalStats, error) {
	today := model.DayOf(s.Now())

	total, err := s.Store.Count(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("count urls: %w", err)
	}
	totalToday, err := s.Store.Count(ctx, &today)
	if err != nil {
		return nil, fmt.Errorf("count urls today: %w", err)
	}
	todayClicks, err := s.Store.AggregateClicks(ctx, &today)
	if err != nil {
		return nil, fmt.Errorf("aggregate clicks today: %w", err)
	}
	all, err := s.Store.AggregateClicks(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("aggregate clicks: %w", err)
	}

	clicksToday := lo.SumBy(todayClicks, func(c model.ClickCount) int64 {
		return c.ClickCount
	})

	return &model.GlobalStats{
		TotalURLs:        total,
		TotalURLsToday:   totalToday,
		TotalClicksToday: clicksToday,
		ClickCounts:      all,
	}, nil
}

// DailyStats счётчики записей, созданных в сутки day. ErrNoData, если таких нет.
func (s *ShortenerService) DailyStats(ctx context.Context, day time.Time) (*model.DailyStats, error) {
	rng := model.DayOf(day)

	counts, err := s.Store.AggregateClicks(ctx, &rng)
	if err != nil {
		return nil, fmt.Errorf("aggregate daily clicks: %w", err)
	}
	if len(counts) == 0 {
		return nil, ErrNoData
	}

	return &model.DailyStats{
		Date:        rng.From.Format(DateLayout),
		ClickCounts: counts,
	}, nil
}
