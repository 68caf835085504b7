// Package budget は月次予算の管理と予算実績比較を提供する。
package budget

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/hitoshi/fintracker/internal/cache"
	"github.com/hitoshi/fintracker/internal/model"
	"github.com/hitoshi/fintracker/internal/repository"
)

// CreateInput は予算作成の入力。
type CreateInput struct {
	CategoryID int64
	Amount     decimal.Decimal
	Month      model.Date
}

// Service は予算管理のサービス層。
type Service struct {
	repo         repository.BudgetRepository
	categoryRepo repository.CategoryRepository
	cache        *cache.ViewCache
}

// NewService はServiceを生成する。
func NewService(repo repository.BudgetRepository, categoryRepo repository.CategoryRepository, viewCache *cache.ViewCache) *Service {
	return &Service{repo: repo, categoryRepo: categoryRepo, cache: viewCache}
}

// List は予算一覧を月の降順で返す。
func (s *Service) List(ctx context.Context, userID string, filter model.BudgetFilter) ([]model.Budget, error) {
	if filter.Month != nil {
		if err := model.ValidateMonth(*filter.Month); err != nil {
			return nil, err
		}
	}

	budgets, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("予算一覧の取得に失敗しました: %w", err)
	}
	if budgets == nil {
		budgets = []model.Budget{}
	}
	return budgets, nil
}

// Get は指定IDの予算を返す。
func (s *Service) Get(ctx context.Context, userID string, id int64) (*model.Budget, error) {
	b, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("予算の取得に失敗しました: %w", err)
	}
	if b == nil {
		return nil, model.NewNotFoundError("Budget")
	}
	return b, nil
}

// Create はカテゴリと月に対する予算を作成する。同じ組み合わせの予算は1件のみ。
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*model.Budget, error) {
	amount, err := model.NormalizeAmount("amount", in.Amount)
	if err != nil {
		return nil, err
	}
	if err := model.ValidateMonth(in.Month); err != nil {
		return nil, err
	}
	if err := s.requireCategory(ctx, userID, in.CategoryID); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByPeriod(ctx, userID, in.CategoryID, in.Month)
	if err != nil {
		return nil, fmt.Errorf("予算の重複確認に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateBudgetError()
	}

	b := &model.Budget{UserID: userID, CategoryID: in.CategoryID, Amount: amount, Month: in.Month}
	if err := s.repo.Create(ctx, b); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewDuplicateBudgetError()
		}
		return nil, fmt.Errorf("予算の作成に失敗しました: %w", err)
	}

	s.cache.InvalidateUser(ctx, userID)
	return b, nil
}

// Update は予算の金額または月を更新する。
func (s *Service) Update(ctx context.Context, userID string, id int64, patch model.BudgetPatch) (*model.Budget, error) {
	if patch.Amount != nil {
		amount, err := model.NormalizeAmount("amount", *patch.Amount)
		if err != nil {
			return nil, err
		}
		patch.Amount = &amount
	}
	if patch.Month != nil {
		if err := model.ValidateMonth(*patch.Month); err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.Update(ctx, userID, id, patch)
	if err != nil {
		// 月の変更で同じカテゴリの既存予算と衝突した場合
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewDuplicateBudgetError()
		}
		return nil, fmt.Errorf("予算の更新に失敗しました: %w", err)
	}
	if updated == nil {
		return nil, model.NewNotFoundError("Budget")
	}

	s.cache.InvalidateUser(ctx, userID)
	return updated, nil
}

// Delete は予算を削除する。
func (s *Service) Delete(ctx context.Context, userID string, id int64) error {
	deleted, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("予算の削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewNotFoundError("Budget")
	}

	s.cache.InvalidateUser(ctx, userID)
	return nil
}

// Summary は指定月の予算ごとに同月・同カテゴリの支出合計と残額を返す。
// 結果はカテゴリ名順で、予算のないカテゴリの支出は含まない。
func (s *Service) Summary(ctx context.Context, userID string, month model.Date) ([]model.BudgetSummaryItem, error) {
	if err := model.ValidateMonth(month); err != nil {
		return nil, err
	}

	key := cache.NewKey(userID, cache.ViewBudgetSummary).With("month", month.String())

	return cache.Fetch(ctx, s.cache, key, func(ctx context.Context) ([]model.BudgetSummaryItem, error) {
		rows, err := s.repo.ListWithSpent(ctx, userID, month)
		if err != nil {
			return nil, fmt.Errorf("予算実績の集計に失敗しました: %w", err)
		}
		return BuildSummary(rows), nil
	})
}

// BuildSummary は予算と支出合計の行から予算実績比較を組み立てる。
// 残額は予算額から支出合計を引いた値で、超過時は負になる。
func BuildSummary(rows []repository.BudgetWithSpent) []model.BudgetSummaryItem {
	items := make([]model.BudgetSummaryItem, len(rows))
	for i, row := range rows {
		items[i] = model.BudgetSummaryItem{
			ID:           row.ID,
			CategoryID:   row.CategoryID,
			CategoryName: row.CategoryName,
			Budgeted:     row.Amount,
			Spent:        row.Spent,
			Remaining:    row.Amount.Sub(row.Spent),
			Month:        row.Month,
		}
	}
	return items
}

func (s *Service) requireCategory(ctx context.Context, userID string, categoryID int64) error {
	c, err := s.categoryRepo.FindByID(ctx, userID, categoryID)
	if err != nil {
		return fmt.Errorf("カテゴリの取得に失敗しました: %w", err)
	}
	if c == nil {
		return model.NewNotFoundError("Category")
	}
	return nil
}
