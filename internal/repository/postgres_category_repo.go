package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/fintracker/internal/model"
)

// PostgresCategoryRepo はPostgreSQLを使用したカテゴリリポジトリ。
type PostgresCategoryRepo struct {
	db *sql.DB
}

// NewPostgresCategoryRepo はPostgresCategoryRepoを生成する。
func NewPostgresCategoryRepo(db *sql.DB) *PostgresCategoryRepo {
	return &PostgresCategoryRepo{db: db}
}

// scanner はsql.Rowとsql.Rowsの共通インターフェース。
type scanner interface {
	Scan(dest ...any) error
}

func scanCategory(s scanner) (*model.Category, error) {
	c := &model.Category{}
	var icon sql.NullString
	if err := s.Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &icon); err != nil {
		return nil, err
	}
	c.Icon = nullStringPtr(icon)
	return c, nil
}

// FindByID は指定IDのカテゴリを取得する。見つからない場合はnilを返す。
func (r *PostgresCategoryRepo) FindByID(ctx context.Context, userID string, id int64) (*model.Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, type, icon FROM categories WHERE id = $1 AND user_id = $2`,
		id, userID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("カテゴリの取得に失敗しました: %w", err)
	}
	return c, nil
}

// FindByNameAndType は名前と種別でカテゴリを検索する。見つからない場合はnilを返す。
func (r *PostgresCategoryRepo) FindByNameAndType(ctx context.Context, userID, name string, polarity model.Polarity) (*model.Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, type, icon FROM categories
		 WHERE user_id = $1 AND name = $2 AND type = $3`,
		userID, name, polarity,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("カテゴリの検索に失敗しました: %w", err)
	}
	return c, nil
}

// List はカテゴリ一覧を名前順で返す。polarityがnilの場合は全種別を返す。
func (r *PostgresCategoryRepo) List(ctx context.Context, userID string, polarity *model.Polarity) ([]model.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, type, icon FROM categories
		 WHERE user_id = $1 AND ($2::text IS NULL OR type = $2)
		 ORDER BY name ASC, id ASC`,
		userID, polarity,
	)
	if err != nil {
		return nil, fmt.Errorf("カテゴリ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("カテゴリの読み取りに失敗しました: %w", err)
		}
		categories = append(categories, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("カテゴリ一覧の走査に失敗しました: %w", err)
	}
	return categories, nil
}

// Create はカテゴリを作成しIDを設定する。重複時はErrDuplicateを返す。
func (r *PostgresCategoryRepo) Create(ctx context.Context, category *model.Category) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO categories (user_id, name, type, icon)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		category.UserID, category.Name, category.Type, nullString(category.Icon),
	).Scan(&category.ID)
	if err != nil {
		return fmt.Errorf("カテゴリの作成に失敗しました: %w", translatePQError(err))
	}
	return nil
}

// Update はパッチを1トランザクション内で適用する。見つからない場合はnilを返す。
// 行ロックを取得してから読み取り・適用・書き込みを行う。
func (r *PostgresCategoryRepo) Update(ctx context.Context, userID string, id int64, patch model.CategoryPatch) (*model.Category, error) {
	var updated *model.Category
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		c, err := scanCategory(tx.QueryRowContext(ctx,
			`SELECT id, user_id, name, type, icon FROM categories
			 WHERE id = $1 AND user_id = $2 FOR UPDATE`,
			id, userID,
		))
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("カテゴリの取得に失敗しました: %w", err)
		}

		patch.Apply(c)
		if _, err := tx.ExecContext(ctx,
			`UPDATE categories SET name = $2, type = $3, icon = $4 WHERE id = $1`,
			c.ID, c.Name, c.Type, nullString(c.Icon),
		); err != nil {
			return fmt.Errorf("カテゴリの更新に失敗しました: %w", translatePQError(err))
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete はカテゴリを削除する。取引・予算から参照されている場合はErrReferencedを返す。
func (r *PostgresCategoryRepo) Delete(ctx context.Context, userID string, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM categories WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("カテゴリの削除に失敗しました: %w", translatePQError(err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除件数の取得に失敗しました: %w", err)
	}
	return n > 0, nil
}

// compile-time interface check
var _ CategoryRepository = (*PostgresCategoryRepo)(nil)
