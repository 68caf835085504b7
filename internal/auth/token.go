package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/fintracker/internal/model"
)

// TokenType はトークンの用途を表す。
type TokenType string

const (
	// TokenTypeAccess はAPI呼び出し用のトークン。
	TokenTypeAccess TokenType = "access"
	// TokenTypeRefresh はトークン再発行用のトークン。
	TokenTypeRefresh TokenType = "refresh"
)

// Claims はトークンに格納するクレーム。subにユーザーIDを持つ。
type Claims struct {
	Type TokenType `json:"type"`
	jwt.RegisteredClaims
}

// TokenPair はログイン・再発行で返すトークンの組。
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// TokenManager はHS256署名のトークンを発行・検証する。
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenManager はTokenManagerを生成する。
func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Issue は指定種別のトークンを発行する。
func (m *TokenManager) Issue(userID string, typ TokenType) (string, error) {
	ttl := m.accessTTL
	if typ == TokenTypeRefresh {
		ttl = m.refreshTTL
	}

	now := m.now()
	claims := Claims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", typ, err)
	}
	return signed, nil
}

// IssuePair はアクセストークンとリフレッシュトークンを発行する。
func (m *TokenManager) IssuePair(userID string) (*TokenPair, error) {
	access, err := m.Issue(userID, TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	refresh, err := m.Issue(userID, TokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}, nil
}

// Verify はトークンの署名・有効期限・種別を検証し、ユーザーIDを返す。
// 失敗はすべてUnauthorizedのAPIErrorとして返す。
func (m *TokenManager) Verify(token string, expected TokenType) (string, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", model.NewUnauthorizedError("Token has expired")
		}
		return "", model.NewUnauthorizedError("Invalid or expired token")
	}

	if claims.Type != expected {
		return "", model.NewUnauthorizedError("Invalid token type")
	}
	if claims.Subject == "" {
		return "", model.NewUnauthorizedError("Invalid or expired token")
	}
	return claims.Subject, nil
}
