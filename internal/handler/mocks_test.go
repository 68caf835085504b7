package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/fintracker/internal/auth"
	"github.com/hitoshi/fintracker/internal/budget"
	"github.com/hitoshi/fintracker/internal/category"
	"github.com/hitoshi/fintracker/internal/middleware"
	"github.com/hitoshi/fintracker/internal/model"
	"github.com/hitoshi/fintracker/internal/transaction"
	"github.com/hitoshi/fintracker/internal/user"
)

// --- モック定義 ---

type mockCategoryService struct {
	listFn   func(ctx context.Context, userID string, polarity *model.Polarity) ([]model.Category, error)
	getFn    func(ctx context.Context, userID string, id int64) (*model.Category, error)
	createFn func(ctx context.Context, userID string, in category.CreateInput) (*model.Category, error)
	updateFn func(ctx context.Context, userID string, id int64, patch model.CategoryPatch) (*model.Category, error)
	deleteFn func(ctx context.Context, userID string, id int64) error
}

func (m *mockCategoryService) List(ctx context.Context, userID string, polarity *model.Polarity) ([]model.Category, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, polarity)
	}
	return []model.Category{}, nil
}

func (m *mockCategoryService) Get(ctx context.Context, userID string, id int64) (*model.Category, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, id)
	}
	return nil, model.NewNotFoundError("Category")
}

func (m *mockCategoryService) Create(ctx context.Context, userID string, in category.CreateInput) (*model.Category, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, in)
	}
	return nil, nil
}

func (m *mockCategoryService) Update(ctx context.Context, userID string, id int64, patch model.CategoryPatch) (*model.Category, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, id, patch)
	}
	return nil, nil
}

func (m *mockCategoryService) Delete(ctx context.Context, userID string, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return nil
}

type mockTransactionService struct {
	listFn   func(ctx context.Context, userID string, filter model.TransactionFilter) (*model.TransactionPage, error)
	getFn    func(ctx context.Context, userID, id string) (*model.Transaction, error)
	createFn func(ctx context.Context, userID string, in transaction.CreateInput) (*model.Transaction, error)
	updateFn func(ctx context.Context, userID, id string, patch model.TransactionPatch) (*model.Transaction, error)
	deleteFn func(ctx context.Context, userID, id string) error
}

func (m *mockTransactionService) List(ctx context.Context, userID string, filter model.TransactionFilter) (*model.TransactionPage, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, filter)
	}
	return &model.TransactionPage{Data: []model.Transaction{}, Page: filter.Page, PerPage: filter.PerPage}, nil
}

func (m *mockTransactionService) Get(ctx context.Context, userID, id string) (*model.Transaction, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, id)
	}
	return nil, model.NewNotFoundError("Transaction")
}

func (m *mockTransactionService) Create(ctx context.Context, userID string, in transaction.CreateInput) (*model.Transaction, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, in)
	}
	return nil, nil
}

func (m *mockTransactionService) Update(ctx context.Context, userID, id string, patch model.TransactionPatch) (*model.Transaction, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, id, patch)
	}
	return nil, nil
}

func (m *mockTransactionService) Delete(ctx context.Context, userID, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return nil
}

type mockBudgetService struct {
	listFn    func(ctx context.Context, userID string, filter model.BudgetFilter) ([]model.Budget, error)
	getFn     func(ctx context.Context, userID string, id int64) (*model.Budget, error)
	createFn  func(ctx context.Context, userID string, in budget.CreateInput) (*model.Budget, error)
	updateFn  func(ctx context.Context, userID string, id int64, patch model.BudgetPatch) (*model.Budget, error)
	deleteFn  func(ctx context.Context, userID string, id int64) error
	summaryFn func(ctx context.Context, userID string, month model.Date) ([]model.BudgetSummaryItem, error)
}

func (m *mockBudgetService) List(ctx context.Context, userID string, filter model.BudgetFilter) ([]model.Budget, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, filter)
	}
	return []model.Budget{}, nil
}

func (m *mockBudgetService) Get(ctx context.Context, userID string, id int64) (*model.Budget, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, id)
	}
	return nil, model.NewNotFoundError("Budget")
}

func (m *mockBudgetService) Create(ctx context.Context, userID string, in budget.CreateInput) (*model.Budget, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, in)
	}
	return nil, nil
}

func (m *mockBudgetService) Update(ctx context.Context, userID string, id int64, patch model.BudgetPatch) (*model.Budget, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, id, patch)
	}
	return nil, nil
}

func (m *mockBudgetService) Delete(ctx context.Context, userID string, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return nil
}

func (m *mockBudgetService) Summary(ctx context.Context, userID string, month model.Date) ([]model.BudgetSummaryItem, error) {
	if m.summaryFn != nil {
		return m.summaryFn(ctx, userID, month)
	}
	return []model.BudgetSummaryItem{}, nil
}

type mockDashboardService struct {
	summaryFn    func(ctx context.Context, userID string, from, to *model.Date) (*model.Summary, error)
	monthlyFn    func(ctx context.Context, userID string, months int) (*model.MonthlyTrend, error)
	byCategoryFn func(ctx context.Context, userID string, polarity model.Polarity, from, to *model.Date) (*model.ByCategory, error)
	recentFn     func(ctx context.Context, userID string, limit int) ([]model.RecentTransaction, error)
	overviewFn   func(ctx context.Context, userID string, months, limit int) (*model.Overview, error)
}

func (m *mockDashboardService) Summary(ctx context.Context, userID string, from, to *model.Date) (*model.Summary, error) {
	if m.summaryFn != nil {
		return m.summaryFn(ctx, userID, from, to)
	}
	return &model.Summary{}, nil
}

func (m *mockDashboardService) MonthlyTrend(ctx context.Context, userID string, months int) (*model.MonthlyTrend, error) {
	if m.monthlyFn != nil {
		return m.monthlyFn(ctx, userID, months)
	}
	return &model.MonthlyTrend{Data: []model.MonthlyItem{}}, nil
}

func (m *mockDashboardService) ByCategory(ctx context.Context, userID string, polarity model.Polarity, from, to *model.Date) (*model.ByCategory, error) {
	if m.byCategoryFn != nil {
		return m.byCategoryFn(ctx, userID, polarity, from, to)
	}
	return &model.ByCategory{Data: []model.CategorySpending{}}, nil
}

func (m *mockDashboardService) Recent(ctx context.Context, userID string, limit int) ([]model.RecentTransaction, error) {
	if m.recentFn != nil {
		return m.recentFn(ctx, userID, limit)
	}
	return []model.RecentTransaction{}, nil
}

func (m *mockDashboardService) Overview(ctx context.Context, userID string, months, limit int) (*model.Overview, error) {
	if m.overviewFn != nil {
		return m.overviewFn(ctx, userID, months, limit)
	}
	return &model.Overview{}, nil
}

type mockAuthService struct {
	registerFn    func(ctx context.Context, in user.RegisterInput) (*model.User, error)
	loginFn       func(ctx context.Context, email, password string) (*auth.TokenPair, error)
	refreshFn     func(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	currentUserFn func(ctx context.Context, userID string) (*model.User, error)
}

func (m *mockAuthService) Register(ctx context.Context, in user.RegisterInput) (*model.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, in)
	}
	return nil, nil
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*auth.TokenPair, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, nil
}

func (m *mockAuthService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	if m.refreshFn != nil {
		return m.refreshFn(ctx, refreshToken)
	}
	return nil, nil
}

func (m *mockAuthService) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	if m.currentUserFn != nil {
		return m.currentUserFn(ctx, userID)
	}
	return nil, model.NewNotFoundError("User")
}

// --- ヘルパー ---

const testUserID = "11111111-1111-1111-1111-111111111111"

// newRequest は認証済みユーザーIDとURLパラメータを注入したリクエストを生成する。
func newRequest(method, target, body string, params map[string]string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = middleware.ContextWithUserID(ctx, testUserID)
	return req.WithContext(ctx)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorResponseBody {
	t.Helper()
	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d (body: %s)", w.Code, want, w.Body.String())
	}
}
