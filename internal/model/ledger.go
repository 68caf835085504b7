package model

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// 金額はJSONで文字列ではなく数値として出力する。
	decimal.MarshalJSONWithoutQuotes = true
}

// Polarity はカテゴリ・取引が収入か支出かを表す。
type Polarity string

const (
	// PolarityIncome は収入。
	PolarityIncome Polarity = "income"
	// PolarityExpense は支出。
	PolarityExpense Polarity = "expense"
)

// Valid は定義済みの値であるかを判定する。
func (p Polarity) Valid() bool {
	return p == PolarityIncome || p == PolarityExpense
}

// ParsePolarity は文字列をPolarityに変換する。
func ParsePolarity(s string) (Polarity, bool) {
	p := Polarity(s)
	return p, p.Valid()
}

// Category はユーザーが所有する収支カテゴリを表す。
// (user_id, name, type) はユーザー内で一意。
type Category struct {
	ID     int64    `json:"id"`
	UserID string   `json:"-"`
	Name   string   `json:"name"`
	Type   Polarity `json:"type"`
	Icon   *string  `json:"icon"`
}

// Transaction は1件の収入または支出を表す。
// Typeはカテゴリの種別と独立しており、整合性は検証しない。
type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	CategoryID  int64           `json:"category_id"`
	Amount      decimal.Decimal `json:"amount"`
	Type        Polarity        `json:"type"`
	Description *string         `json:"description"`
	Date        Date            `json:"date"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Budget はカテゴリごとの月次予算を表す。
// Monthは常に月初日で、(user_id, category_id, month) は一意。
type Budget struct {
	ID         int64           `json:"id"`
	UserID     string          `json:"-"`
	CategoryID int64           `json:"category_id"`
	Amount     decimal.Decimal `json:"amount"`
	Month      Date            `json:"month"`
}

// CategoryPatch はカテゴリの部分更新内容。nilのフィールドは変更しない。
// Iconに空文字列を指定するとアイコンを消去する。
type CategoryPatch struct {
	Name *string
	Type *Polarity
	Icon *string
}

// TransactionPatch は取引の部分更新内容。nilのフィールドは変更しない。
type TransactionPatch struct {
	Amount      *decimal.Decimal
	Type        *Polarity
	CategoryID  *int64
	Description *string
	Date        *Date
}

// BudgetPatch は予算の部分更新内容。nilのフィールドは変更しない。
type BudgetPatch struct {
	Amount *decimal.Decimal
	Month  *Date
}

// Apply はパッチをカテゴリに適用する。
func (p CategoryPatch) Apply(c *Category) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Type != nil {
		c.Type = *p.Type
	}
	if p.Icon != nil {
		// 空文字列はアイコンの消去
		if *p.Icon == "" {
			c.Icon = nil
		} else {
			c.Icon = p.Icon
		}
	}
}

// Apply はパッチを取引に適用する。
func (p TransactionPatch) Apply(t *Transaction) {
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.CategoryID != nil {
		t.CategoryID = *p.CategoryID
	}
	if p.Description != nil {
		t.Description = p.Description
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
}

// Apply はパッチを予算に適用する。
func (p BudgetPatch) Apply(b *Budget) {
	if p.Amount != nil {
		b.Amount = *p.Amount
	}
	if p.Month != nil {
		b.Month = *p.Month
	}
}

// TransactionFilter は取引一覧の絞り込み条件。
type TransactionFilter struct {
	Type       *Polarity
	CategoryID *int64
	DateFrom   *Date
	DateTo     *Date
	Page       int
	PerPage    int
}

// Offset はページ番号から読み飛ばし件数を求める。
func (f TransactionFilter) Offset() int {
	return (f.Page - 1) * f.PerPage
}

// TransactionPage は取引一覧のページ。
type TransactionPage struct {
	Data       []Transaction `json:"data"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	PerPage    int           `json:"per_page"`
	TotalPages int           `json:"total_pages"`
}

// BudgetFilter は予算一覧の絞り込み条件。
type BudgetFilter struct {
	Month      *Date
	CategoryID *int64
}
