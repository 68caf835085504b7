// Package category はカテゴリ管理のドメインロジックを提供する。
package category

import (
	"context"
	"errors"
	"fmt"

	"github.com/hitoshi/fintracker/internal/cache"
	"github.com/hitoshi/fintracker/internal/model"
	"github.com/hitoshi/fintracker/internal/repository"
	"github.com/hitoshi/fintracker/internal/security"
)

// 入力値の上限
const (
	MaxNameLength = 100
	MaxIconLength = 50
)

// CreateInput はカテゴリ作成の入力。
type CreateInput struct {
	Name string
	Type model.Polarity
	Icon *string
}

// Service はカテゴリ管理のサービス層。
// 書き込みが成功した後、呼び出し元ユーザーのダッシュボードキャッシュを無効化する。
type Service struct {
	repo        repository.CategoryRepository
	invalidator cache.Invalidator
	sanitizer   security.TextSanitizer
}

// NewService はServiceを生成する。
func NewService(repo repository.CategoryRepository, invalidator cache.Invalidator, sanitizer security.TextSanitizer) *Service {
	return &Service{repo: repo, invalidator: invalidator, sanitizer: sanitizer}
}

// List はカテゴリ一覧を名前順で返す。polarityがnilの場合は全種別を返す。
func (s *Service) List(ctx context.Context, userID string, polarity *model.Polarity) ([]model.Category, error) {
	if polarity != nil {
		if err := model.ValidatePolarity("type", *polarity); err != nil {
			return nil, err
		}
	}

	categories, err := s.repo.List(ctx, userID, polarity)
	if err != nil {
		return nil, fmt.Errorf("カテゴリ一覧の取得に失敗しました: %w", err)
	}
	if categories == nil {
		categories = []model.Category{}
	}
	return categories, nil
}

// Get は指定IDのカテゴリを返す。
func (s *Service) Get(ctx context.Context, userID string, id int64) (*model.Category, error) {
	c, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("カテゴリの取得に失敗しました: %w", err)
	}
	if c == nil {
		return nil, model.NewNotFoundError("Category")
	}
	return c, nil
}

// Create はカテゴリを作成する。
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*model.Category, error) {
	name := s.sanitizer.Sanitize(in.Name)
	if err := model.ValidateLength("name", name, 1, MaxNameLength); err != nil {
		return nil, err
	}
	if err := model.ValidatePolarity("type", in.Type); err != nil {
		return nil, err
	}
	icon, err := s.cleanIcon(in.Icon)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByNameAndType(ctx, userID, name, in.Type)
	if err != nil {
		return nil, fmt.Errorf("カテゴリの重複確認に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateCategoryError(name, in.Type)
	}

	c := &model.Category{UserID: userID, Name: name, Type: in.Type, Icon: icon}
	if err := s.repo.Create(ctx, c); err != nil {
		// 事前確認と挿入の間に別リクエストが同じカテゴリを作成した場合
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewDuplicateCategoryError(name, in.Type)
		}
		return nil, fmt.Errorf("カテゴリの作成に失敗しました: %w", err)
	}

	s.invalidator.InvalidateUser(ctx, userID)
	return c, nil
}

// Update はカテゴリを部分更新する。
func (s *Service) Update(ctx context.Context, userID string, id int64, patch model.CategoryPatch) (*model.Category, error) {
	if patch.Name != nil {
		name := s.sanitizer.Sanitize(*patch.Name)
		if err := model.ValidateLength("name", name, 1, MaxNameLength); err != nil {
			return nil, err
		}
		patch.Name = &name
	}
	if patch.Type != nil {
		if err := model.ValidatePolarity("type", *patch.Type); err != nil {
			return nil, err
		}
	}
	if patch.Icon != nil {
		icon, err := s.cleanIcon(patch.Icon)
		if err != nil {
			return nil, err
		}
		// 更新時の空文字列はアイコンの消去として扱う
		if icon == nil {
			icon = new(string)
		}
		patch.Icon = icon
	}

	current, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	merged := *current
	patch.Apply(&merged)

	if merged.Name != current.Name || merged.Type != current.Type {
		other, err := s.repo.FindByNameAndType(ctx, userID, merged.Name, merged.Type)
		if err != nil {
			return nil, fmt.Errorf("カテゴリの重複確認に失敗しました: %w", err)
		}
		if other != nil && other.ID != id {
			return nil, model.NewDuplicateCategoryError(merged.Name, merged.Type)
		}
	}

	updated, err := s.repo.Update(ctx, userID, id, patch)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewDuplicateCategoryError(merged.Name, merged.Type)
		}
		return nil, fmt.Errorf("カテゴリの更新に失敗しました: %w", err)
	}
	if updated == nil {
		return nil, model.NewNotFoundError("Category")
	}

	s.invalidator.InvalidateUser(ctx, userID)
	return updated, nil
}

// Delete はカテゴリを削除する。取引または予算から参照されている場合は削除しない。
func (s *Service) Delete(ctx context.Context, userID string, id int64) error {
	deleted, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return model.NewCategoryInUseError()
		}
		return fmt.Errorf("カテゴリの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewNotFoundError("Category")
	}

	s.invalidator.InvalidateUser(ctx, userID)
	return nil
}

// cleanIcon はアイコン文字列を無害化して長さを検証する。空文字列は未設定として扱う。
func (s *Service) cleanIcon(raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	icon := s.sanitizer.Sanitize(*raw)
	if icon == "" {
		return nil, nil
	}
	if err := model.ValidateLength("icon", icon, 0, MaxIconLength); err != nil {
		return nil, err
	}
	return &icon, nil
}
