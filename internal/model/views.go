package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Summary は期間内の収支合計を表す派生ビュー。
type Summary struct {
	TotalIncome      decimal.Decimal `json:"total_income"`
	TotalExpense     decimal.Decimal `json:"total_expense"`
	Balance          decimal.Decimal `json:"balance"`
	TransactionCount int             `json:"transaction_count"`
	DateFrom         *Date           `json:"date_from"`
	DateTo           *Date           `json:"date_to"`
}

// MonthlyItem は1か月分の収支。MonthはYYYY-MM形式。
type MonthlyItem struct {
	Month   string          `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
}

// MonthlyTrend は月次推移の派生ビュー。
// 取引のない月は含まれない（ゼロ埋めしない）。
type MonthlyTrend struct {
	Data        []MonthlyItem `json:"data"`
	MonthsCount int           `json:"months_count"`
}

// CategorySpending はカテゴリ別集計の1行。
type CategorySpending struct {
	CategoryID       int64           `json:"category_id"`
	CategoryName     string          `json:"category_name"`
	Icon             *string         `json:"icon"`
	Total            decimal.Decimal `json:"total"`
	Percentage       decimal.Decimal `json:"percentage"`
	TransactionCount int             `json:"transaction_count"`
}

// ByCategory はカテゴリ別内訳の派生ビュー。
type ByCategory struct {
	Data       []CategorySpending `json:"data"`
	GrandTotal decimal.Decimal    `json:"grand_total"`
}

// RecentTransaction は最近の取引にカテゴリ名・アイコンを結合したもの。
type RecentTransaction struct {
	ID           string          `json:"id"`
	Amount       decimal.Decimal `json:"amount"`
	Type         Polarity        `json:"type"`
	Description  *string         `json:"description"`
	Date         Date            `json:"date"`
	CategoryName string          `json:"category_name"`
	CategoryIcon *string         `json:"category_icon"`
	CreatedAt    time.Time       `json:"created_at"`
}

// BudgetSummaryItem は予算と実績の比較1行。
// Remainingは負値（予算超過）になり得る。
type BudgetSummaryItem struct {
	ID           int64           `json:"id"`
	CategoryID   int64           `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Budgeted     decimal.Decimal `json:"budgeted"`
	Spent        decimal.Decimal `json:"spent"`
	Remaining    decimal.Decimal `json:"remaining"`
	Month        Date            `json:"month"`
}

// Overview はダッシュボードの全ビューをまとめたもの。
type Overview struct {
	Summary    Summary             `json:"summary"`
	Monthly    MonthlyTrend        `json:"monthly"`
	ByCategory ByCategory          `json:"by_category"`
	Recent     []RecentTransaction `json:"recent"`
}
