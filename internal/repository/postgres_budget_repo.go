package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/fintracker/internal/model"
)

// PostgresBudgetRepo はPostgreSQLを使用した予算リポジトリ。
type PostgresBudgetRepo struct {
	db *sql.DB
}

// NewPostgresBudgetRepo はPostgresBudgetRepoを生成する。
func NewPostgresBudgetRepo(db *sql.DB) *PostgresBudgetRepo {
	return &PostgresBudgetRepo{db: db}
}

func scanBudget(s scanner) (*model.Budget, error) {
	b := &model.Budget{}
	if err := s.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.Amount, &b.Month); err != nil {
		return nil, err
	}
	return b, nil
}

// FindByID は指定IDの予算を取得する。見つからない場合はnilを返す。
func (r *PostgresBudgetRepo) FindByID(ctx context.Context, userID string, id int64) (*model.Budget, error) {
	b, err := scanBudget(r.db.QueryRowContext(ctx,
		`SELECT id, user_id, category_id, amount, month FROM budgets WHERE id = $1 AND user_id = $2`,
		id, userID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("予算の取得に失敗しました: %w", err)
	}
	return b, nil
}

// FindByPeriod はカテゴリと月で予算を検索する。見つからない場合はnilを返す。
func (r *PostgresBudgetRepo) FindByPeriod(ctx context.Context, userID string, categoryID int64, month model.Date) (*model.Budget, error) {
	b, err := scanBudget(r.db.QueryRowContext(ctx,
		`SELECT id, user_id, category_id, amount, month FROM budgets
		 WHERE user_id = $1 AND category_id = $2 AND month = $3`,
		userID, categoryID, month,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("予算の検索に失敗しました: %w", err)
	}
	return b, nil
}

// List は予算一覧を月の降順で返す。
func (r *PostgresBudgetRepo) List(ctx context.Context, userID string, filter model.BudgetFilter) ([]model.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, category_id, amount, month FROM budgets
		 WHERE user_id = $1
		   AND ($2::date IS NULL OR month = $2)
		   AND ($3::bigint IS NULL OR category_id = $3)
		 ORDER BY month DESC, id ASC`,
		userID, filter.Month, filter.CategoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("予算一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	budgets := []model.Budget{}
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("予算の読み取りに失敗しました: %w", err)
		}
		budgets = append(budgets, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("予算一覧の走査に失敗しました: %w", err)
	}
	return budgets, nil
}

// Create は予算を作成しIDを設定する。重複時はErrDuplicateを返す。
func (r *PostgresBudgetRepo) Create(ctx context.Context, budget *model.Budget) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO budgets (user_id, category_id, amount, month)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		budget.UserID, budget.CategoryID, budget.Amount, budget.Month,
	).Scan(&budget.ID)
	if err != nil {
		return fmt.Errorf("予算の作成に失敗しました: %w", translatePQError(err))
	}
	return nil
}

// Update はパッチを1トランザクション内で適用する。見つからない場合はnilを返す。
// 月の変更で(カテゴリ, 月)が衝突した場合はErrDuplicateを返す。
func (r *PostgresBudgetRepo) Update(ctx context.Context, userID string, id int64, patch model.BudgetPatch) (*model.Budget, error) {
	var updated *model.Budget
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		b, err := scanBudget(tx.QueryRowContext(ctx,
			`SELECT id, user_id, category_id, amount, month FROM budgets
			 WHERE id = $1 AND user_id = $2 FOR UPDATE`,
			id, userID,
		))
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("予算の取得に失敗しました: %w", err)
		}

		patch.Apply(b)
		if _, err := tx.ExecContext(ctx,
			`UPDATE budgets SET amount = $2, month = $3 WHERE id = $1`,
			b.ID, b.Amount, b.Month,
		); err != nil {
			return fmt.Errorf("予算の更新に失敗しました: %w", translatePQError(err))
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete は予算を削除する。
func (r *PostgresBudgetRepo) Delete(ctx context.Context, userID string, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("予算の削除に失敗しました: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除件数の取得に失敗しました: %w", err)
	}
	return n > 0, nil
}

// ListWithSpent は指定月の予算をカテゴリ名順で、同月・同カテゴリの支出合計付きで返す。
// 支出のないカテゴリのSpentは0。
func (r *PostgresBudgetRepo) ListWithSpent(ctx context.Context, userID string, month model.Date) ([]BudgetWithSpent, error) {
	start := month.MonthStart()
	next := model.DateOf(start.AddDate(0, 1, 0))

	rows, err := r.db.QueryContext(ctx,
		`SELECT b.id, b.user_id, b.category_id, b.amount, b.month, c.name,
		        COALESCE(s.spent, 0)
		 FROM budgets b
		 INNER JOIN categories c ON c.id = b.category_id
		 LEFT JOIN (
		     SELECT category_id, SUM(amount) AS spent
		     FROM transactions
		     WHERE user_id = $1 AND type = 'expense'
		       AND date >= $2 AND date < $3
		     GROUP BY category_id
		 ) s ON s.category_id = b.category_id
		 WHERE b.user_id = $1 AND b.month = $2
		 ORDER BY c.name ASC, b.id ASC`,
		userID, start, next,
	)
	if err != nil {
		return nil, fmt.Errorf("予算サマリーの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	result := []BudgetWithSpent{}
	for rows.Next() {
		var item BudgetWithSpent
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.CategoryID, &item.Amount, &item.Month,
			&item.CategoryName, &item.Spent,
		); err != nil {
			return nil, fmt.Errorf("予算サマリーの読み取りに失敗しました: %w", err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("予算サマリーの走査に失敗しました: %w", err)
	}
	return result, nil
}

// compile-time interface check
var _ BudgetRepository = (*PostgresBudgetRepo)(nil)
