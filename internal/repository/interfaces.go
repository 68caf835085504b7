// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/hitoshi/fintracker/internal/model"
)

var (
	// ErrDuplicate は一意制約違反を表す。
	ErrDuplicate = errors.New("duplicate key")
	// ErrReferenced は他の行から参照されているため削除できないことを表す。
	ErrReferenced = errors.New("row is still referenced")
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)
	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// Create はユーザーを作成する。メールアドレス重複時はErrDuplicateを返す。
	Create(ctx context.Context, user *model.User) error
}

// CategoryRepository はカテゴリの永続化インターフェース。
// すべての操作はuserIDで絞り込まれ、他ユーザーの行は存在しないものとして扱う。
type CategoryRepository interface {
	// FindByID は指定IDのカテゴリを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, userID string, id int64) (*model.Category, error)
	// FindByNameAndType は名前と種別でカテゴリを検索する。見つからない場合はnilを返す。
	FindByNameAndType(ctx context.Context, userID, name string, polarity model.Polarity) (*model.Category, error)
	// List はカテゴリ一覧を名前順で返す。polarityがnilの場合は全種別を返す。
	List(ctx context.Context, userID string, polarity *model.Polarity) ([]model.Category, error)
	// Create はカテゴリを作成しIDを設定する。重複時はErrDuplicateを返す。
	Create(ctx context.Context, category *model.Category) error
	// Update はパッチを1トランザクション内で適用する。見つからない場合はnilを返す。
	Update(ctx context.Context, userID string, id int64, patch model.CategoryPatch) (*model.Category, error)
	// Delete はカテゴリを削除する。参照されている場合はErrReferencedを返す。
	Delete(ctx context.Context, userID string, id int64) (bool, error)
}

// TransactionRepository は取引の永続化インターフェース。
type TransactionRepository interface {
	// FindByID は指定IDの取引を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, userID, id string) (*model.Transaction, error)
	// List はフィルタ条件に一致する取引のページと総件数を返す。
	List(ctx context.Context, userID string, filter model.TransactionFilter) ([]model.Transaction, int, error)
	// Create は取引を作成する。
	Create(ctx context.Context, tx *model.Transaction) error
	// Update はパッチを1トランザクション内で適用する。見つからない場合はnilを返す。
	Update(ctx context.Context, userID, id string, patch model.TransactionPatch) (*model.Transaction, error)
	// Delete は取引を削除する。
	Delete(ctx context.Context, userID, id string) (bool, error)
}

// BudgetRepository は予算の永続化インターフェース。
type BudgetRepository interface {
	// FindByID は指定IDの予算を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, userID string, id int64) (*model.Budget, error)
	// FindByPeriod はカテゴリと月で予算を検索する。見つからない場合はnilを返す。
	FindByPeriod(ctx context.Context, userID string, categoryID int64, month model.Date) (*model.Budget, error)
	// List は予算一覧を月の降順で返す。
	List(ctx context.Context, userID string, filter model.BudgetFilter) ([]model.Budget, error)
	// Create は予算を作成しIDを設定する。重複時はErrDuplicateを返す。
	Create(ctx context.Context, budget *model.Budget) error
	// Update はパッチを1トランザクション内で適用する。見つからない場合はnilを返す。
	Update(ctx context.Context, userID string, id int64, patch model.BudgetPatch) (*model.Budget, error)
	// Delete は予算を削除する。
	Delete(ctx context.Context, userID string, id int64) (bool, error)
	// ListWithSpent は指定月の予算をカテゴリ名順で、同月・同カテゴリの支出合計付きで返す。
	ListWithSpent(ctx context.Context, userID string, month model.Date) ([]BudgetWithSpent, error)
}

// LedgerReader はダッシュボード集計に使う読み取り専用クエリのインターフェース。
type LedgerReader interface {
	// Totals は期間内の収入合計・支出合計・件数を返す。nilの境界は無制限を表す。
	Totals(ctx context.Context, userID string, from, to *model.Date) (LedgerTotals, error)
	// MonthlyTotals はsince以降の取引を年月ごとに集計し、年月の昇順で返す。
	MonthlyTotals(ctx context.Context, userID string, since model.Date) ([]MonthlyTotals, error)
	// CategoryTotals は指定種別の取引をカテゴリごとに集計し、合計の降順で返す。
	CategoryTotals(ctx context.Context, userID string, polarity model.Polarity, from, to *model.Date) ([]CategoryTotals, error)
	// Recent は取引を日付降順・作成日時降順でlimit件返す。
	Recent(ctx context.Context, userID string, limit int) ([]model.RecentTransaction, error)
}

// LedgerTotals は期間内の集計値。
type LedgerTotals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
	Count   int
}

// MonthlyTotals は1か月分の集計値。
type MonthlyTotals struct {
	Year    int
	Month   int
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// CategoryTotals はカテゴリごとの集計値。
type CategoryTotals struct {
	CategoryID int64
	Name       string
	Icon       *string
	Total      decimal.Decimal
	Count      int
}

// BudgetWithSpent は予算とカテゴリ名、同月の支出合計を結合した構造体。
type BudgetWithSpent struct {
	model.Budget
	CategoryName string
	Spent        decimal.Decimal
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
