package handler

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/hitoshi/fintracker/internal/model"
	"github.com/hitoshi/fintracker/internal/transaction"
)

// TransactionServiceInterface は取引ハンドラーが必要とするサービスインターフェース。
type TransactionServiceInterface interface {
	List(ctx context.Context, userID string, filter model.TransactionFilter) (*model.TransactionPage, error)
	Get(ctx context.Context, userID, id string) (*model.Transaction, error)
	Create(ctx context.Context, userID string, in transaction.CreateInput) (*model.Transaction, error)
	Update(ctx context.Context, userID, id string, patch model.TransactionPatch) (*model.Transaction, error)
	Delete(ctx context.Context, userID, id string) error
}

// TransactionHandler は取引管理のHTTPハンドラー。
type TransactionHandler struct {
	service TransactionServiceInterface
}

// NewTransactionHandler はTransactionHandlerを生成する。
func NewTransactionHandler(service TransactionServiceInterface) *TransactionHandler {
	return &TransactionHandler{service: service}
}

// transactionRequest は取引作成・更新リクエストのボディ。
type transactionRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	Type        *model.Polarity  `json:"type"`
	CategoryID  *int64           `json:"category_id"`
	Description *string          `json:"description"`
	Date        *model.Date      `json:"date"`
}

// List はフィルタ条件に一致する取引をページングして返す。
// GET /api/transactions?type=&category_id=&date_from=&date_to=&page=&per_page=
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	qp := newQueryParser(r)
	filter := model.TransactionFilter{
		Type:       qp.polarity("type"),
		CategoryID: qp.int64Ptr("category_id"),
		DateFrom:   qp.date("date_from"),
		DateTo:     qp.date("date_to"),
		Page:       qp.intOr("page", 1),
		PerPage:    qp.intOr("per_page", transaction.DefaultPerPage),
	}
	if qp.err != nil {
		handleServiceError(w, qp.err)
		return
	}

	page, err := h.service.List(r.Context(), userID, filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Create は取引を記録する。
// POST /api/transactions
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}
	switch {
	case req.Amount == nil:
		handleServiceError(w, missingField("amount"))
		return
	case req.Type == nil:
		handleServiceError(w, missingField("type"))
		return
	case req.CategoryID == nil:
		handleServiceError(w, missingField("category_id"))
		return
	case req.Date == nil:
		handleServiceError(w, missingField("date"))
		return
	}

	t, err := h.service.Create(r.Context(), userID, transaction.CreateInput{
		Amount:      *req.Amount,
		Type:        *req.Type,
		CategoryID:  *req.CategoryID,
		Description: req.Description,
		Date:        *req.Date,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// Get は指定IDの取引を返す。
// GET /api/transactions/{id}
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	t, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Update は取引を部分更新する。
// PUT /api/transactions/{id}
func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	t, err := h.service.Update(r.Context(), userID, id, model.TransactionPatch{
		Amount:      req.Amount,
		Type:        req.Type,
		CategoryID:  req.CategoryID,
		Description: req.Description,
		Date:        req.Date,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Delete は取引を削除する。
// DELETE /api/transactions/{id}
func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
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
