package handler

import (
	"context"

	"github.com/hitoshi/fintracker/internal/auth"
	"github.com/hitoshi/fintracker/internal/model"
	"github.com/hitoshi/fintracker/internal/user"
)

// AuthServiceAdapter は user.Service と auth.Service を AuthServiceInterface に適合させるアダプタ。
type AuthServiceAdapter struct {
	users  *user.Service
	tokens *auth.Service
}

// NewAuthServiceAdapter はAuthServiceAdapterを生成する。
func NewAuthServiceAdapter(users *user.Service, tokens *auth.Service) *AuthServiceAdapter {
	return &AuthServiceAdapter{users: users, tokens: tokens}
}

// Register はユーザー登録をuser.Serviceに委譲する。
func (a *AuthServiceAdapter) Register(ctx context.Context, in user.RegisterInput) (*model.User, error) {
	return a.users.Register(ctx, in)
}

// Login はauth.Serviceに委譲する。
func (a *AuthServiceAdapter) Login(ctx context.Context, email, password string) (*auth.TokenPair, error) {
	return a.tokens.Login(ctx, email, password)
}

// Refresh はauth.Serviceに委譲する。
func (a *AuthServiceAdapter) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	return a.tokens.Refresh(ctx, refreshToken)
}

// CurrentUser はユーザー取得をuser.Serviceに委譲する。
func (a *AuthServiceAdapter) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	return a.users.Get(ctx, userID)
}

var _ AuthServiceInterface = (*AuthServiceAdapter)(nil)
