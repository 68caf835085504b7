package handler

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/hitoshi/fintracker/internal/budget"
	"github.com/hitoshi/fintracker/internal/model"
)

// BudgetServiceInterface は予算ハンドラーが必要とするサービスインターフェース。
type BudgetServiceInterface interface {
	List(ctx context.Context, userID string, filter model.BudgetFilter) ([]model.Budget, error)
	Get(ctx context.Context, userID string, id int64) (*model.Budget, error)
	Create(ctx context.Context, userID string, in budget.CreateInput) (*model.Budget, error)
	Update(ctx context.Context, userID string, id int64, patch model.BudgetPatch) (*model.Budget, error)
	Delete(ctx context.Context, userID string, id int64) error
	Summary(ctx context.Context, userID string, month model.Date) ([]model.BudgetSummaryItem, error)
}

// BudgetHandler は予算管理のHTTPハンドラー。
type BudgetHandler struct {
	service BudgetServiceInterface
}

// NewBudgetHandler はBudgetHandlerを生成する。
func NewBudgetHandler(service BudgetServiceInterface) *BudgetHandler {
	return &BudgetHandler{service: service}
}

// budgetRequest は予算作成・更新リクエストのボディ。
// 更新時のcategory_idは無視する。
type budgetRequest struct {
	CategoryID *int64           `json:"category_id"`
	Amount     *decimal.Decimal `json:"amount"`
	Month      *model.Date      `json:"month"`
}

// List は予算一覧を返す。
// GET /api/budgets?month=&category_id=
func (h *BudgetHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	qp := newQueryParser(r)
	filter := model.BudgetFilter{
		Month:      qp.date("month"),
		CategoryID: qp.int64Ptr("category_id"),
	}
	if qp.err != nil {
		handleServiceError(w, qp.err)
		return
	}

	budgets, err := h.service.List(r.Context(), userID, filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, budgets)
}

// Summary は指定月の予算実績比較を返す。
// GET /api/budgets/summary?month=
func (h *BudgetHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	qp := newQueryParser(r)
	month := qp.requiredDate("month")
	if qp.err != nil {
		handleServiceError(w, qp.err)
		return
	}

	items, err := h.service.Summary(r.Context(), userID, month)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Create は予算を作成する。
// POST /api/budgets
func (h *BudgetHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}
	switch {
	case req.CategoryID == nil:
		handleServiceError(w, missingField("category_id"))
		return
	case req.Amount == nil:
		handleServiceError(w, missingField("amount"))
		return
	case req.Month == nil:
		handleServiceError(w, missingField("month"))
		return
	}

	b, err := h.service.Create(r.Context(), userID, budget.CreateInput{
		CategoryID: *req.CategoryID,
		Amount:     *req.Amount,
		Month:      *req.Month,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// Get は指定IDの予算を返す。
// GET /api/budgets/{id}
func (h *BudgetHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, err := pathInt64(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	b, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// Update は予算の金額または月を更新する。
// PUT /api/budgets/{id}
func (h *BudgetHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, err := pathInt64(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	b, err := h.service.Update(r.Context(), userID, id, model.BudgetPatch{
		Amount: req.Amount,
		Month:  req.Month,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// Delete は予算を削除する。
// DELETE /api/budgets/{id}
func (h *BudgetHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
