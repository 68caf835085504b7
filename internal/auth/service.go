// Package auth はパスワード認証とベアラートークンの発行・検証を提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/fintracker/internal/model"
	"github.com/hitoshi/fintracker/internal/repository"
)

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	tokens   *TokenManager
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, tokens *TokenManager) *Service {
	return &Service{userRepo: userRepo, tokens: tokens}
}

// Login はメールアドレスとパスワードを検証し、トークンの組を発行する。
// ユーザー不在とパスワード不一致は同じエラーで応答する。
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || !CheckPassword(user.PasswordHash, password) {
		return nil, model.NewUnauthorizedError("Invalid email or password")
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, err
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))
	return pair, nil
}

// Refresh はリフレッシュトークンを検証し、新しいトークンの組を発行する。
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	user, err := s.resolve(ctx, refreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	return s.tokens.IssuePair(user.ID)
}

// Authenticate はアクセストークンを検証し、現在のユーザーを返す。
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*model.User, error) {
	return s.resolve(ctx, accessToken, TokenTypeAccess)
}

// resolve はトークンを検証し、ユーザーがまだ存在することを確認する。
func (s *Service) resolve(ctx context.Context, token string, typ TokenType) (*model.User, error) {
	userID, err := s.tokens.Verify(token, typ)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUnauthorizedError("User not found")
	}
	return user, nil
}
