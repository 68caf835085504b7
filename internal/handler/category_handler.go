package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/fintracker/internal/category"
	"github.com/hitoshi/fintracker/internal/model"
)

// CategoryServiceInterface はカテゴリハンドラーが必要とするサービスインターフェース。
type CategoryServiceInterface interface {
	List(ctx context.Context, userID string, polarity *model.Polarity) ([]model.Category, error)
	Get(ctx context.Context, userID string, id int64) (*model.Category, error)
	Create(ctx context.Context, userID string, in category.CreateInput) (*model.Category, error)
	Update(ctx context.Context, userID string, id int64, patch model.CategoryPatch) (*model.Category, error)
	Delete(ctx context.Context, userID string, id int64) error
}

// CategoryHandler はカテゴリ管理のHTTPハンドラー。
type CategoryHandler struct {
	service CategoryServiceInterface
}

// NewCategoryHandler はCategoryHandlerを生成する。
func NewCategoryHandler(service CategoryServiceInterface) *CategoryHandler {
	return &CategoryHandler{service: service}
}

// categoryRequest はカテゴリ作成・更新リクエストのボディ。
type categoryRequest struct {
	Name *string         `json:"name"`
	Type *model.Polarity `json:"type"`
	Icon *string         `json:"icon"`
}

// List はカテゴリ一覧を返す。
// GET /api/categories?type=
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	qp := newQueryParser(r)
	polarity := qp.polarity("type")
	if qp.err != nil {
		handleServiceError(w, qp.err)
		return
	}

	categories, err := h.service.List(r.Context(), userID, polarity)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// Create はカテゴリを作成する。
// POST /api/categories
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}
	if req.Name == nil {
		handleServiceError(w, missingField("name"))
		return
	}
	if req.Type == nil {
		handleServiceError(w, missingField("type"))
		return
	}

	c, err := h.service.Create(r.Context(), userID, category.CreateInput{
		Name: *req.Name,
		Type: *req.Type,
		Icon: req.Icon,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// Get は指定IDのカテゴリを返す。
// GET /api/categories/{id}
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, err := pathInt64(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	c, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Update はカテゴリを部分更新する。
// PUT /api/categories/{id}
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, err := pathInt64(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	c, err := h.service.Update(r.Context(), userID, id, model.CategoryPatch{
		Name: req.Name,
		Type: req.Type,
		Icon: req.Icon,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Delete はカテゴリを削除する。
// DELETE /api/categories/{id}
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, err := pathInt64(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
