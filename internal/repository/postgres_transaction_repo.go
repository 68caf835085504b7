package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/fintracker/internal/model"
)

// PostgresTransactionRepo はPostgreSQLを使用した取引リポジトリ。
type PostgresTransactionRepo struct {
	db *sql.DB
}

// NewPostgresTransactionRepo はPostgresTransactionRepoを生成する。
func NewPostgresTransactionRepo(db *sql.DB) *PostgresTransactionRepo {
	return &PostgresTransactionRepo{db: db}
}

const transactionColumns = `id, user_id, category_id, amount, type, description, date, created_at`

func scanTransaction(s scanner) (*model.Transaction, error) {
	t := &model.Transaction{}
	var description sql.NullString
	if err := s.Scan(
		&t.ID, &t.UserID, &t.CategoryID, &t.Amount, &t.Type,
		&description, &t.Date, &t.CreatedAt,
	); err != nil {
		return nil, err
	}
	t.Description = nullStringPtr(description)
	return t, nil
}

// FindByID は指定IDの取引を取得する。見つからない場合はnilを返す。
func (r *PostgresTransactionRepo) FindByID(ctx context.Context, userID, id string) (*model.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 AND user_id = $2`,
		id, userID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("取引の取得に失敗しました: %w", err)
	}
	return t, nil
}

// List はフィルタ条件に一致する取引を日付降順・作成日時降順で返す。
// 2番目の戻り値はページングを適用する前の総件数。
func (r *PostgresTransactionRepo) List(ctx context.Context, userID string, filter model.TransactionFilter) ([]model.Transaction, int, error) {
	const where = ` WHERE user_id = $1
		   AND ($2::text IS NULL OR type = $2)
		   AND ($3::bigint IS NULL OR category_id = $3)
		   AND ($4::date IS NULL OR date >= $4)
		   AND ($5::date IS NULL OR date <= $5)`
	args := []any{userID, filter.Type, filter.CategoryID, filter.DateFrom, filter.DateTo}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("取引件数の取得に失敗しました: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions`+where+`
		 ORDER BY date DESC, created_at DESC
		 LIMIT $6 OFFSET $7`,
		append(args, filter.PerPage, filter.Offset())...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("取引一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	txs := []model.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("取引の読み取りに失敗しました: %w", err)
		}
		txs = append(txs, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("取引一覧の走査に失敗しました: %w", err)
	}
	return txs, total, nil
}

// Create は取引を作成する。
func (r *PostgresTransactionRepo) Create(ctx context.Context, t *model.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.UserID, t.CategoryID, t.Amount, t.Type,
		nullString(t.Description), t.Date, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("取引の作成に失敗しました: %w", translatePQError(err))
	}
	return nil
}

// Update はパッチを1トランザクション内で適用する。見つからない場合はnilを返す。
func (r *PostgresTransactionRepo) Update(ctx context.Context, userID, id string, patch model.TransactionPatch) (*model.Transaction, error) {
	var updated *model.Transaction
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		t, err := scanTransaction(tx.QueryRowContext(ctx,
			`SELECT `+transactionColumns+` FROM transactions
			 WHERE id = $1 AND user_id = $2 FOR UPDATE`,
			id, userID,
		))
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("取引の取得に失敗しました: %w", err)
		}

		patch.Apply(t)
		if _, err := tx.ExecContext(ctx,
			`UPDATE transactions
			 SET category_id = $2, amount = $3, type = $4, description = $5, date = $6
			 WHERE id = $1`,
			t.ID, t.CategoryID, t.Amount, t.Type, nullString(t.Description), t.Date,
		); err != nil {
			return fmt.Errorf("取引の更新に失敗しました: %w", translatePQError(err))
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete は取引を削除する。
func (r *PostgresTransactionRepo) Delete(ctx context.Context, userID, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("取引の削除に失敗しました: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除件数の取得に失敗しました: %w", err)
	}
	return n > 0, nil
}

// compile-time interface check
var _ TransactionRepository = (*PostgresTransactionRepo)(nil)
