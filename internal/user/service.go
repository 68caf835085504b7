// Package user はユーザー登録とプロフィール取得のドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/fintracker/internal/auth"
	"github.com/hitoshi/fintracker/internal/model"
	"github.com/hitoshi/fintracker/internal/repository"
	"github.com/hitoshi/fintracker/internal/security"
)

// 入力値の制約
const (
	MinEmailLength    = 5
	MaxEmailLength    = 255
	MinPasswordLength = 6
	MaxPasswordLength = 128
	MaxNameLength     = 255
)

// RegisterInput はユーザー登録の入力。
type RegisterInput struct {
	Email    string
	Password string
	Name     *string
}

// Service はユーザー管理のサービス層。
type Service struct {
	userRepo  repository.UserRepository
	sanitizer security.TextSanitizer
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository, sanitizer security.TextSanitizer) *Service {
	return &Service{userRepo: userRepo, sanitizer: sanitizer, now: time.Now}
}

// Register はユーザーを登録する。メールアドレスは保存時の大文字小文字で一意。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	if err := model.ValidateLength("email", in.Email, MinEmailLength, MaxEmailLength); err != nil {
		return nil, err
	}
	if err := model.ValidateLength("password", in.Password, MinPasswordLength, MaxPasswordLength); err != nil {
		return nil, err
	}
	if len(in.Password) > auth.MaxPasswordBytes {
		return nil, model.NewUnprocessableError("password must be at most %d bytes", auth.MaxPasswordBytes)
	}

	var name *string
	if in.Name != nil {
		cleaned := s.sanitizer.Sanitize(*in.Name)
		if err := model.ValidateLength("name", cleaned, 0, MaxNameLength); err != nil {
			return nil, err
		}
		if cleaned != "" {
			name = &cleaned
		}
	}

	existing, err := s.userRepo.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewEmailRegisteredError()
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        in.Email,
		PasswordHash: hash,
		Name:         name,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewEmailRegisteredError()
		}
		return nil, fmt.Errorf("ユーザーの登録に失敗しました: %w", err)
	}

	slog.Info("ユーザーを登録しました",
		slog.String("user_id", user.ID),
	)

	return user, nil
}

// Get は指定IDのユーザーを返す。
func (s *Service) Get(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewNotFoundError("User")
	}
	return user, nil
}
