package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/fintracker/internal/auth"
	"github.com/hitoshi/fintracker/internal/model"
	"github.com/hitoshi/fintracker/internal/user"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, in user.RegisterInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (*auth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	CurrentUser(ctx context.Context, userID string) (*model.User, error)
}

// AuthHandler は登録・ログイン・トークン更新のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

type registerRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Name     *string `json:"name"`
}

type loginRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Register はユーザーを登録する。
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}
	switch {
	case req.Email == nil:
		handleServiceError(w, missingField("email"))
		return
	case req.Password == nil:
		handleServiceError(w, missingField("password"))
		return
	}

	u, err := h.service.Register(r.Context(), user.RegisterInput{
		Email:    *req.Email,
		Password: *req.Password,
		Name:     req.Name,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// Login はメールアドレスとパスワードを検証し、トークンペアを返す。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}
	switch {
	case req.Email == nil:
		handleServiceError(w, missingField("email"))
		return
	case req.Password == nil:
		handleServiceError(w, missingField("password"))
		return
	}

	pair, err := h.service.Login(r.Context(), *req.Email, *req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// Refresh はリフレッシュトークンから新しいトークンペアを発行する。
// トークンはクエリパラメータrefresh_tokenまたはJSONボディで受け付ける。
// POST /api/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("refresh_token")
	if token == "" {
		var req refreshRequest
		if err := decodeJSON(w, r, &req); err != nil {
			handleServiceError(w, err)
			return
		}
		token = req.RefreshToken
	}
	if token == "" {
		handleServiceError(w, missingField("refresh_token"))
		return
	}

	pair, err := h.service.Refresh(r.Context(), token)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// Me は認証済みユーザーの情報を返す。
// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	u, err := h.service.CurrentUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
