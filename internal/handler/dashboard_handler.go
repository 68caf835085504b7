package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/fintracker/internal/dashboard"
	"github.com/hitoshi/fintracker/internal/model"
)

// DashboardServiceInterface はダッシュボードハンドラーが必要とするサービスインターフェース。
type DashboardServiceInterface interface {
	Summary(ctx context.Context, userID string, from, to *model.Date) (*model.Summary, error)
	MonthlyTrend(ctx context.Context, userID string, months int) (*model.MonthlyTrend, error)
	ByCategory(ctx context.Context, userID string, polarity model.Polarity, from, to *model.Date) (*model.ByCategory, error)
	Recent(ctx context.Context, userID string, limit int) ([]model.RecentTransaction, error)
	Overview(ctx context.Context, userID string, months, limit int) (*model.Overview, error)
}

// DashboardHandler はダッシュボードのHTTPハンドラー。
type DashboardHandler struct {
	service DashboardServiceInterface
}

// NewDashboardHandler はDashboardHandlerを生成する。
func NewDashboardHandler(service DashboardServiceInterface) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Summary は期間内の収支サマリーを返す。
// GET /api/dashboard/summary?date_from=&date_to=
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	qp := newQueryParser(r)
	from, to := qp.date("date_from"), qp.date("date_to")
	if qp.err != nil {
		handleServiceError(w, qp.err)
		return
	}

	summary, err := h.service.Summary(r.Context(), userID, from, to)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Monthly は月次推移を返す。
// GET /api/dashboard/monthly?months=
func (h *DashboardHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	qp := newQueryParser(r)
	months := qp.intOr("months", dashboard.DefaultMonths)
	if qp.err != nil {
		handleServiceError(w, qp.err)
		return
	}

	trend, err := h.service.MonthlyTrend(r.Context(), userID, months)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trend)
}

// ByCategory はカテゴリ別内訳を返す。種別の既定は支出。
// GET /api/dashboard/by-category?type=&date_from=&date_to=
func (h *DashboardHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	qp := newQueryParser(r)
	polarity := model.PolarityExpense
	if p := qp.polarity("type"); p != nil {
		polarity = *p
	}
	from, to := qp.date("date_from"), qp.date("date_to")
	if qp.err != nil {
		handleServiceError(w, qp.err)
		return
	}

	result, err := h.service.ByCategory(r.Context(), userID, polarity, from, to)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Recent は最近の取引を返す。
// GET /api/dashboard/recent?limit=
func (h *DashboardHandler) Recent(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	qp := newQueryParser(r)
	limit := qp.intOr("limit", dashboard.DefaultRecentLimit)
	if qp.err != nil {
		handleServiceError(w, qp.err)
		return
	}

	recent, err := h.service.Recent(r.Context(), userID, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recent)
}

// Overview はダッシュボードの全ビューをまとめて返す。
// GET /api/dashboard/overview?months=&limit=
func (h *DashboardHandler) Overview(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	qp := newQueryParser(r)
	months := qp.intOr("months", dashboard.DefaultMonths)
	limit := qp.intOr("limit", dashboard.DefaultRecentLimit)
	if qp.err != nil {
		handleServiceError(w, qp.err)
		return
	}

	overview, err := h.service.Overview(r.Context(), userID, months, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}
