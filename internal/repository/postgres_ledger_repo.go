package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/fintracker/internal/model"
)

// PostgresLedgerRepo はダッシュボード集計用の読み取り専用リポジトリ。
// 集計はすべてデータベース側で行う。
type PostgresLedgerRepo struct {
	db *sql.DB
}

// NewPostgresLedgerRepo はPostgresLedgerRepoを生成する。
func NewPostgresLedgerRepo(db *sql.DB) *PostgresLedgerRepo {
	return &PostgresLedgerRepo{db: db}
}

// Totals は期間内の収入合計・支出合計・件数を返す。
func (r *PostgresLedgerRepo) Totals(ctx context.Context, userID string, from, to *model.Date) (LedgerTotals, error) {
	var totals LedgerTotals
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(CASE WHEN type = 'income' THEN amount ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN type = 'expense' THEN amount ELSE 0 END), 0),
		        COUNT(*)
		 FROM transactions
		 WHERE user_id = $1
		   AND ($2::date IS NULL OR date >= $2)
		   AND ($3::date IS NULL OR date <= $3)`,
		userID, from, to,
	).Scan(&totals.Income, &totals.Expense, &totals.Count)
	if err != nil {
		return LedgerTotals{}, fmt.Errorf("収支合計の集計に失敗しました: %w", err)
	}
	return totals, nil
}

// MonthlyTotals はsince以降の取引を年月ごとに集計し、年月の昇順で返す。
func (r *PostgresLedgerRepo) MonthlyTotals(ctx context.Context, userID string, since model.Date) ([]MonthlyTotals, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT EXTRACT(YEAR FROM date)::int AS y,
		        EXTRACT(MONTH FROM date)::int AS m,
		        COALESCE(SUM(CASE WHEN type = 'income' THEN amount ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN type = 'expense' THEN amount ELSE 0 END), 0)
		 FROM transactions
		 WHERE user_id = $1 AND date >= $2
		 GROUP BY y, m
		 ORDER BY y ASC, m ASC`,
		userID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("月次推移の集計に失敗しました: %w", err)
	}
	defer rows.Close()

	result := []MonthlyTotals{}
	for rows.Next() {
		var m MonthlyTotals
		if err := rows.Scan(&m.Year, &m.Month, &m.Income, &m.Expense); err != nil {
			return nil, fmt.Errorf("月次推移の読み取りに失敗しました: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("月次推移の走査に失敗しました: %w", err)
	}
	return result, nil
}

// CategoryTotals は指定種別の取引をカテゴリごとに集計する。
// 合計の降順、同額はカテゴリIDの昇順で返す。
func (r *PostgresLedgerRepo) CategoryTotals(ctx context.Context, userID string, polarity model.Polarity, from, to *model.Date) ([]CategoryTotals, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.name, c.icon, SUM(t.amount) AS total, COUNT(t.id)
		 FROM transactions t
		 INNER JOIN categories c ON c.id = t.category_id
		 WHERE t.user_id = $1 AND c.user_id = $1 AND t.type = $2
		   AND ($3::date IS NULL OR t.date >= $3)
		   AND ($4::date IS NULL OR t.date <= $4)
		 GROUP BY c.id, c.name, c.icon
		 ORDER BY total DESC, c.id ASC`,
		userID, polarity, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("カテゴリ別集計に失敗しました: %w", err)
	}
	defer rows.Close()

	result := []CategoryTotals{}
	for rows.Next() {
		var ct CategoryTotals
		var icon sql.NullString
		if err := rows.Scan(&ct.CategoryID, &ct.Name, &icon, &ct.Total, &ct.Count); err != nil {
			return nil, fmt.Errorf("カテゴリ別集計の読み取りに失敗しました: %w", err)
		}
		ct.Icon = nullStringPtr(icon)
		result = append(result, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("カテゴリ別集計の走査に失敗しました: %w", err)
	}
	return result, nil
}

// Recent は取引を日付降順・作成日時降順でlimit件返す。
func (r *PostgresLedgerRepo) Recent(ctx context.Context, userID string, limit int) ([]model.RecentTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.amount, t.type, t.description, t.date, c.name, c.icon, t.created_at
		 FROM transactions t
		 INNER JOIN categories c ON c.id = t.category_id
		 WHERE t.user_id = $1
		 ORDER BY t.date DESC, t.created_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("最近の取引の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	result := []model.RecentTransaction{}
	for rows.Next() {
		var rt model.RecentTransaction
		var description, icon sql.NullString
		if err := rows.Scan(
			&rt.ID, &rt.Amount, &rt.Type, &description, &rt.Date,
			&rt.CategoryName, &icon, &rt.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("最近の取引の読み取りに失敗しました: %w", err)
		}
		rt.Description = nullStringPtr(description)
		rt.CategoryIcon = nullStringPtr(icon)
		result = append(result, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("最近の取引の走査に失敗しました: %w", err)
	}
	return result, nil
}

// compile-time interface check
var _ LedgerReader = (*PostgresLedgerRepo)(nil)
