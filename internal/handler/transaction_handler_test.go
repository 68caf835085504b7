package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hitoshi/fintracker/internal/model"
	"github.com/hitoshi/fintracker/internal/transaction"
)

const testTransactionID = "6f1c2e3a-4b5d-4e6f-8a9b-0c1d2e3f4a5b"

func TestTransactionHandler_List_ParsesFilter(t *testing.T) {
	var got model.TransactionFilter
	svc := &mockTransactionService{
		listFn: func(_ context.Context, _ string, filter model.TransactionFilter) (*model.TransactionPage, error) {
			got = filter
			return &model.TransactionPage{Data: []model.Transaction{}, Total: 0, Page: filter.Page, PerPage: filter.PerPage}, nil
		},
	}
	h := NewTransactionHandler(svc)

	w := httptest.NewRecorder()
	h.List(w, newRequest(http.MethodGet,
		"/api/transactions?type=income&category_id=4&date_from=2026-02-01&date_to=2026-02-28&page=2&per_page=50", "", nil))

	assertStatus(t, w, http.StatusOK)
	if got.Type == nil || *got.Type != model.PolarityIncome {
		t.Errorf("Type = %v, want income", got.Type)
	}
	if got.CategoryID == nil || *got.CategoryID != 4 {
		t.Errorf("CategoryID = %v, want 4", got.CategoryID)
	}
	if got.DateFrom == nil || *got.DateFrom != model.NewDate(2026, time.February, 1) {
		t.Errorf("DateFrom = %v", got.DateFrom)
	}
	if got.DateTo == nil || *got.DateTo != model.NewDate(2026, time.February, 28) {
		t.Errorf("DateTo = %v", got.DateTo)
	}
	if got.Page != 2 || got.PerPage != 50 {
		t.Errorf("Page/PerPage = %d/%d, want 2/50", got.Page, got.PerPage)
	}

	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"data", "total", "page", "per_page", "total_pages"} {
		if _, ok := body[key]; !ok {
			t.Errorf("response missing %q", key)
		}
	}
}

func TestTransactionHandler_List_Defaults(t *testing.T) {
	var got model.TransactionFilter
	svc := &mockTransactionService{
		listFn: func(_ context.Context, _ string, filter model.TransactionFilter) (*model.TransactionPage, error) {
			got = filter
			return &model.TransactionPage{Data: []model.Transaction{}}, nil
		},
	}
	h := NewTransactionHandler(svc)

	w := httptest.NewRecorder()
	h.List(w, newRequest(http.MethodGet, "/api/transactions", "", nil))

	assertStatus(t, w, http.StatusOK)
	if got.Page != 1 || got.PerPage != transaction.DefaultPerPage {
		t.Errorf("Page/PerPage = %d/%d, want 1/%d", got.Page, got.PerPage, transaction.DefaultPerPage)
	}
	if got.Type != nil || got.CategoryID != nil || got.DateFrom != nil || got.DateTo != nil {
		t.Errorf("unexpected filters: %+v", got)
	}
}

func TestTransactionHandler_List_InvalidQuery(t *testing.T) {
	for _, query := range []string{
		"?date_from=2026-13-01",
		"?page=abc",
		"?category_id=x",
		"?type=transfer",
	} {
		t.Run(query, func(t *testing.T) {
			h := NewTransactionHandler(&mockTransactionService{})

			w := httptest.NewRecorder()
			h.List(w, newRequest(http.MethodGet, "/api/transactions"+query, "", nil))

			assertStatus(t, w, http.StatusUnprocessableEntity)
		})
	}
}

func TestTransactionHandler_Create_Returns201(t *testing.T) {
	var got transaction.CreateInput
	svc := &mockTransactionService{
		createFn: func(_ context.Context, userID string, in transaction.CreateInput) (*model.Transaction, error) {
			got = in
			return &model.Transaction{
				ID:         testTransactionID,
				UserID:     userID,
				CategoryID: in.CategoryID,
				Amount:     in.Amount,
				Type:       in.Type,
				Date:       in.Date,
			}, nil
		},
	}
	h := NewTransactionHandler(svc)

	body := `{"amount":4500.50,"type":"expense","category_id":2,"description":"Maxi","date":"2026-02-07"}`
	w := httptest.NewRecorder()
	h.Create(w, newRequest(http.MethodPost, "/api/transactions", body, nil))

	assertStatus(t, w, http.StatusCreated)
	if !got.Amount.Equal(decimal.RequireFromString("4500.50")) {
		t.Errorf("Amount = %s, want 4500.50", got.Amount)
	}
	if got.Type != model.PolarityExpense || got.CategoryID != 2 {
		t.Errorf("input = %+v", got)
	}
	if got.Description == nil || *got.Description != "Maxi" {
		t.Errorf("Description = %v", got.Description)
	}
	if got.Date != model.NewDate(2026, time.February, 7) {
		t.Errorf("Date = %s", got.Date)
	}
}

func TestTransactionHandler_Create_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"amount", `{"type":"expense","category_id":1,"date":"2026-02-07"}`},
		{"type", `{"amount":1,"category_id":1,"date":"2026-02-07"}`},
		{"category_id", `{"amount":1,"type":"expense","date":"2026-02-07"}`},
		{"date", `{"amount":1,"type":"expense","category_id":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewTransactionHandler(&mockTransactionService{})

			w := httptest.NewRecorder()
			h.Create(w, newRequest(http.MethodPost, "/api/transactions", tt.body, nil))

			assertStatus(t, w, http.StatusUnprocessableEntity)
			if body := decodeError(t, w); body.Error != tt.name+" is required" {
				t.Errorf("error = %q", body.Error)
			}
		})
	}
}

func TestTransactionHandler_Create_NonPositiveAmount(t *testing.T) {
	svc := &mockTransactionService{
		createFn: func(_ context.Context, _ string, in transaction.CreateInput) (*model.Transaction, error) {
			_, err := model.NormalizeAmount("amount", in.Amount)
			return nil, err
		},
	}
	h := NewTransactionHandler(svc)

	w := httptest.NewRecorder()
	h.Create(w, newRequest(http.MethodPost, "/api/transactions",
		`{"amount":0,"type":"expense","category_id":1,"date":"2026-02-07"}`, nil))

	assertStatus(t, w, http.StatusUnprocessableEntity)
}

func TestTransactionHandler_Get_CanonicalizesID(t *testing.T) {
	var gotID string
	svc := &mockTransactionService{
		getFn: func(_ context.Context, _ string, id string) (*model.Transaction, error) {
			gotID = id
			return &model.Transaction{ID: id}, nil
		},
	}
	h := NewTransactionHandler(svc)

	upper := "6F1C2E3A-4B5D-4E6F-8A9B-0C1D2E3F4A5B"
	w := httptest.NewRecorder()
	h.Get(w, newRequest(http.MethodGet, "/api/transactions/"+upper, "", map[string]string{"id": upper}))

	assertStatus(t, w, http.StatusOK)
	if gotID != testTransactionID {
		t.Errorf("id = %q, want %q", gotID, testTransactionID)
	}
}

func TestTransactionHandler_Get_InvalidID(t *testing.T) {
	h := NewTransactionHandler(&mockTransactionService{})

	w := httptest.NewRecorder()
	h.Get(w, newRequest(http.MethodGet, "/api/transactions/123", "", map[string]string{"id": "123"}))

	assertStatus(t, w, http.StatusUnprocessableEntity)
}

func TestTransactionHandler_Get_NotFound(t *testing.T) {
	h := NewTransactionHandler(&mockTransactionService{})

	w := httptest.NewRecorder()
	h.Get(w, newRequest(http.MethodGet, "/api/transactions/"+testTransactionID, "", map[string]string{"id": testTransactionID}))

	assertStatus(t, w, http.StatusNotFound)
	if body := decodeError(t, w); body.Error != "Transaction not found" {
		t.Errorf("error = %q", body.Error)
	}
}

func TestTransactionHandler_Update_PassesOnlySuppliedFields(t *testing.T) {
	var got model.TransactionPatch
	svc := &mockTransactionService{
		updateFn: func(_ context.Context, _ string, id string, patch model.TransactionPatch) (*model.Transaction, error) {
			got = patch
			return &model.Transaction{ID: id}, nil
		},
	}
	h := NewTransactionHandler(svc)

	w := httptest.NewRecorder()
	h.Update(w, newRequest(http.MethodPut, "/api/transactions/"+testTransactionID,
		`{"amount":"120.00"}`, map[string]string{"id": testTransactionID}))

	assertStatus(t, w, http.StatusOK)
	if got.Amount == nil || !got.Amount.Equal(decimal.NewFromInt(120)) {
		t.Errorf("Amount = %v", got.Amount)
	}
	if got.Type != nil || got.CategoryID != nil || got.Description != nil || got.Date != nil {
		t.Errorf("unexpected patch fields: %+v", got)
	}
}

func TestTransactionHandler_Delete_Returns204(t *testing.T) {
	var gotID string
	svc := &mockTransactionService{
		deleteFn: func(_ context.Context, _ string, id string) error {
			gotID = id
			return nil
		},
	}
	h := NewTransactionHandler(svc)

	w := httptest.NewRecorder()
	h.Delete(w, newRequest(http.MethodDelete, "/api/transactions/"+testTransactionID, "", map[string]string{"id": testTransactionID}))

	assertStatus(t, w, http.StatusNoContent)
	if gotID != testTransactionID {
		t.Errorf("id = %q", gotID)
	}
}
