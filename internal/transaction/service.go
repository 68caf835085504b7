// Package transaction は取引管理のドメインロジックを提供する。
package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hitoshi/fintracker/internal/cache"
	"github.com/hitoshi/fintracker/internal/model"
	"github.com/hitoshi/fintracker/internal/repository"
	"github.com/hitoshi/fintracker/internal/security"
)

// ページングと入力値の制約
const (
	DefaultPerPage       = 20
	MaxPerPage           = 100
	MaxDescriptionLength = 500
)

// CreateInput は取引作成の入力。
type CreateInput struct {
	Amount      decimal.Decimal
	Type        model.Polarity
	CategoryID  int64
	Description *string
	Date        model.Date
}

// Service は取引管理のサービス層。
// 取引が参照するカテゴリは呼び出し元ユーザーの所有でなければならない。
type Service struct {
	repo         repository.TransactionRepository
	categoryRepo repository.CategoryRepository
	invalidator  cache.Invalidator
	sanitizer    security.TextSanitizer
	now          func() time.Time
	newID        func() string
}

// NewService はServiceを生成する。
func NewService(
	repo repository.TransactionRepository,
	categoryRepo repository.CategoryRepository,
	invalidator cache.Invalidator,
	sanitizer security.TextSanitizer,
) *Service {
	return &Service{
		repo:         repo,
		categoryRepo: categoryRepo,
		invalidator:  invalidator,
		sanitizer:    sanitizer,
		now:          time.Now,
		newID:        func() string { return uuid.New().String() },
	}
}

// List はフィルタ条件に一致する取引を日付降順でページングして返す。
func (s *Service) List(ctx context.Context, userID string, filter model.TransactionFilter) (*model.TransactionPage, error) {
	if filter.Page < 1 {
		return nil, model.NewUnprocessableError("page must be at least 1")
	}
	if filter.PerPage < 1 || filter.PerPage > MaxPerPage {
		return nil, model.NewUnprocessableError("per_page must be between 1 and %d", MaxPerPage)
	}
	if filter.Type != nil {
		if err := model.ValidatePolarity("type", *filter.Type); err != nil {
			return nil, err
		}
	}

	rows, total, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("取引一覧の取得に失敗しました: %w", err)
	}
	if rows == nil {
		rows = []model.Transaction{}
	}

	return &model.TransactionPage{
		Data:       rows,
		Total:      total,
		Page:       filter.Page,
		PerPage:    filter.PerPage,
		TotalPages: totalPages(total, filter.PerPage),
	}, nil
}

// Get は指定IDの取引を返す。
func (s *Service) Get(ctx context.Context, userID, id string) (*model.Transaction, error) {
	t, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("取引の取得に失敗しました: %w", err)
	}
	if t == nil {
		return nil, model.NewNotFoundError("Transaction")
	}
	return t, nil
}

// Create は取引を記録する。
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*model.Transaction, error) {
	amount, err := model.NormalizeAmount("amount", in.Amount)
	if err != nil {
		return nil, err
	}
	if err := model.ValidatePolarity("type", in.Type); err != nil {
		return nil, err
	}
	description, err := s.cleanDescription(in.Description)
	if err != nil {
		return nil, err
	}
	if err := s.requireCategory(ctx, userID, in.CategoryID); err != nil {
		return nil, err
	}

	t := &model.Transaction{
		ID:          s.newID(),
		UserID:      userID,
		CategoryID:  in.CategoryID,
		Amount:      amount,
		Type:        in.Type,
		Description: description,
		Date:        in.Date,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("取引の作成に失敗しました: %w", err)
	}

	s.invalidator.InvalidateUser(ctx, userID)
	return t, nil
}

// Update は取引を部分更新する。
func (s *Service) Update(ctx context.Context, userID, id string, patch model.TransactionPatch) (*model.Transaction, error) {
	if patch.Amount != nil {
		amount, err := model.NormalizeAmount("amount", *patch.Amount)
		if err != nil {
			return nil, err
		}
		patch.Amount = &amount
	}
	if patch.Type != nil {
		if err := model.ValidatePolarity("type", *patch.Type); err != nil {
			return nil, err
		}
	}
	if patch.Description != nil {
		// 更新時の空文字列は説明文の消去として保存する
		description := s.sanitizer.Sanitize(*patch.Description)
		if err := model.ValidateLength("description", description, 0, MaxDescriptionLength); err != nil {
			return nil, err
		}
		patch.Description = &description
	}
	if patch.CategoryID != nil {
		if err := s.requireCategory(ctx, userID, *patch.CategoryID); err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.Update(ctx, userID, id, patch)
	if err != nil {
		return nil, fmt.Errorf("取引の更新に失敗しました: %w", err)
	}
	if updated == nil {
		return nil, model.NewNotFoundError("Transaction")
	}

	s.invalidator.InvalidateUser(ctx, userID)
	return updated, nil
}

// Delete は取引を削除する。
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	deleted, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("取引の削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewNotFoundError("Transaction")
	}

	s.invalidator.InvalidateUser(ctx, userID)
	return nil
}

// requireCategory はカテゴリが呼び出し元ユーザーの所有であることを確認する。
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

// cleanDescription は説明文を無害化して長さを検証する。空文字列はnilを返す。
func (s *Service) cleanDescription(raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	description := s.sanitizer.Sanitize(*raw)
	if err := model.ValidateLength("description", description, 0, MaxDescriptionLength); err != nil {
		return nil, err
	}
	if description == "" {
		return nil, nil
	}
	return &description, nil
}

func totalPages(total, perPage int) int {
	if total == 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}
