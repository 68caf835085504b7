// Package dashboard は取引台帳から派生ビュー（収支サマリー・月次推移・
// カテゴリ別内訳・最近の取引）を計算する集計エンジンを提供する。
package dashboard

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/hitoshi/fintracker/internal/model"
	"github.com/hitoshi/fintracker/internal/repository"
)

// trendDayOffset は月次推移の遡り幅を求める際の1か月あたりの日数。
const trendDayOffset = 28

var hundred = decimal.NewFromInt(100)

// TrendCutoff は月次推移の集計開始日を返す。
// 当月1日から (months-1)*28 日遡った日を含む月の1日を開始日とする。
// 暦月の長さを考慮しないため、長い期間では境界の月が1か月ずれることがある
// （例: 2026-10-15, 24か月 → 2024-12-01）。
func TrendCutoff(today model.Date, months int) model.Date {
	start := today.MonthStart()
	back := start.AddDate(0, 0, -(months-1)*trendDayOffset)
	return model.DateOf(back).MonthStart()
}

// BuildSummary は集計値から収支サマリーを組み立てる。
// 残高は収入合計と支出合計の差として厳密に計算する。
func BuildSummary(totals repository.LedgerTotals, from, to *model.Date) model.Summary {
	return model.Summary{
		TotalIncome:      totals.Income,
		TotalExpense:     totals.Expense,
		Balance:          totals.Income.Sub(totals.Expense),
		TransactionCount: totals.Count,
		DateFrom:         from,
		DateTo:           to,
	}
}

// BuildMonthlyTrend は年月ごとの集計行を月次推移に変換する。
// 取引のない月は補完せず、MonthsCountは実際に含まれる月数となる。
func BuildMonthlyTrend(rows []repository.MonthlyTotals) model.MonthlyTrend {
	items := make([]model.MonthlyItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, model.MonthlyItem{
			Month:   fmt.Sprintf("%04d-%02d", r.Year, r.Month),
			Income:  r.Income,
			Expense: r.Expense,
			Balance: r.Income.Sub(r.Expense),
		})
	}
	return model.MonthlyTrend{Data: items, MonthsCount: len(items)}
}

// BuildByCategory はカテゴリ別集計行に構成比を付与する。
// 構成比は 100 × カテゴリ合計 / 総合計 を小数第1位で丸めた値で、
// 総合計が0の場合はすべて0とする。
func BuildByCategory(rows []repository.CategoryTotals) model.ByCategory {
	grand := decimal.Zero
	for _, r := range rows {
		grand = grand.Add(r.Total)
	}

	items := make([]model.CategorySpending, 0, len(rows))
	for _, r := range rows {
		pct := decimal.Zero
		if !grand.IsZero() {
			pct = r.Total.Mul(hundred).Div(grand).Round(1)
		}
		items = append(items, model.CategorySpending{
			CategoryID:       r.CategoryID,
			CategoryName:     r.Name,
			Icon:             r.Icon,
			Total:            r.Total,
			Percentage:       pct,
			TransactionCount: r.Count,
		})
	}
	return model.ByCategory{Data: items, GrandTotal: grand}
}
