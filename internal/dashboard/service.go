package dashboard

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/fintracker/internal/cache"
	"github.com/hitoshi/fintracker/internal/model"
	"github.com/hitoshi/fintracker/internal/repository"
)

// クエリパラメータの既定値と上限
const (
	DefaultMonths      = 6
	MaxMonths          = 24
	DefaultRecentLimit = 10
	MaxRecentLimit     = 50
)

// Service はダッシュボードの派生ビューを提供するサービス。
// すべてのビューはキャッシュアサイドで取得し、ミス時に台帳から再計算する。
type Service struct {
	ledger repository.LedgerReader
	cache  *cache.ViewCache
	now    func() time.Time
}

// NewService はServiceを生成する。
func NewService(ledger repository.LedgerReader, viewCache *cache.ViewCache) *Service {
	return &Service{ledger: ledger, cache: viewCache, now: time.Now}
}

// Summary は期間内の収支サマリーを返す。nilの境界は無制限を表す。
func (s *Service) Summary(ctx context.Context, userID string, from, to *model.Date) (*model.Summary, error) {
	key := cache.NewKey(userID, cache.ViewSummary).
		With("date_from", dateParam(from)).
		With("date_to", dateParam(to))

	summary, err := cache.Fetch(ctx, s.cache, key, func(ctx context.Context) (model.Summary, error) {
		totals, err := s.ledger.Totals(ctx, userID, from, to)
		if err != nil {
			return model.Summary{}, fmt.Errorf("収支サマリーの計算に失敗しました: %w", err)
		}
		return BuildSummary(totals, from, to), nil
	})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// MonthlyTrend は直近months か月（当月を含む）の月次推移を返す。
func (s *Service) MonthlyTrend(ctx context.Context, userID string, months int) (*model.MonthlyTrend, error) {
	if months < 1 || months > MaxMonths {
		return nil, model.NewUnprocessableError("months must be between 1 and %d", MaxMonths)
	}

	since := TrendCutoff(model.DateOf(s.now()), months)
	key := cache.NewKey(userID, cache.ViewMonthly).
		WithInt("months", months).
		With("since", since.String())

	trend, err := cache.Fetch(ctx, s.cache, key, func(ctx context.Context) (model.MonthlyTrend, error) {
		rows, err := s.ledger.MonthlyTotals(ctx, userID, since)
		if err != nil {
			return model.MonthlyTrend{}, fmt.Errorf("月次推移の計算に失敗しました: %w", err)
		}
		return BuildMonthlyTrend(rows), nil
	})
	if err != nil {
		return nil, err
	}
	return &trend, nil
}

// ByCategory は指定種別のカテゴリ別内訳を合計の降順で返す。
func (s *Service) ByCategory(ctx context.Context, userID string, polarity model.Polarity, from, to *model.Date) (*model.ByCategory, error) {
	if !polarity.Valid() {
		return nil, model.NewUnprocessableError("type must be 'income' or 'expense'")
	}

	key := cache.NewKey(userID, cache.ViewByCategory).
		With("type", string(polarity)).
		With("date_from", dateParam(from)).
		With("date_to", dateParam(to))

	result, err := cache.Fetch(ctx, s.cache, key, func(ctx context.Context) (model.ByCategory, error) {
		rows, err := s.ledger.CategoryTotals(ctx, userID, polarity, from, to)
		if err != nil {
			return model.ByCategory{}, fmt.Errorf("カテゴリ別内訳の計算に失敗しました: %w", err)
		}
		return BuildByCategory(rows), nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Recent は最近の取引をlimit件返す。
func (s *Service) Recent(ctx context.Context, userID string, limit int) ([]model.RecentTransaction, error) {
	if limit < 1 || limit > MaxRecentLimit {
		return nil, model.NewUnprocessableError("limit must be between 1 and %d", MaxRecentLimit)
	}

	key := cache.NewKey(userID, cache.ViewRecent).WithInt("limit", limit)

	return cache.Fetch(ctx, s.cache, key, func(ctx context.Context) ([]model.RecentTransaction, error) {
		recent, err := s.ledger.Recent(ctx, userID, limit)
		if err != nil {
			return nil, fmt.Errorf("最近の取引の取得に失敗しました: %w", err)
		}
		if recent == nil {
			recent = []model.RecentTransaction{}
		}
		return recent, nil
	})
}

// Overview は全期間サマリー・月次推移・支出のカテゴリ別内訳・最近の取引を並行に取得する。
// 各ビューは個別エンドポイントと同じキャッシュキーを共有する。
// いずれかが失敗した場合は全体を失敗とする。
func (s *Service) Overview(ctx context.Context, userID string, months, limit int) (*model.Overview, error) {
	var (
		summary    *model.Summary
		trend      *model.MonthlyTrend
		byCategory *model.ByCategory
		recent     []model.RecentTransaction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		summary, err = s.Summary(gctx, userID, nil, nil)
		return err
	})
	g.Go(func() (err error) {
		trend, err = s.MonthlyTrend(gctx, userID, months)
		return err
	})
	g.Go(func() (err error) {
		byCategory, err = s.ByCategory(gctx, userID, model.PolarityExpense, nil, nil)
		return err
	})
	g.Go(func() (err error) {
		recent, err = s.Recent(gctx, userID, limit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &model.Overview{
		Summary:    *summary,
		Monthly:    *trend,
		ByCategory: *byCategory,
		Recent:     recent,
	}, nil
}

// dateParam はキャッシュキー用に日付境界を文字列化する。未指定は空文字列。
func dateParam(d *model.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}
