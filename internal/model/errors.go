// Package model はドメインモデルを定義する。
package model

import "fmt"

// ErrorKind はドメインエラーの分類を表す。
// HTTP境界でステータスコードに変換される。
type ErrorKind int

const (
	// KindInternal は想定外の失敗。
	KindInternal ErrorKind = iota
	// KindNotFound は参照先が存在しないか、呼び出し元の所有でないことを示す。
	KindNotFound
	// KindValidation は一意制約違反や業務ルール違反を示す。
	KindValidation
	// KindUnprocessable はリクエストの値が入力制約を満たさないことを示す。
	KindUnprocessable
	// KindUnauthorized は認証情報が無効・期限切れ・種別違いであることを示す。
	KindUnauthorized
	// KindForbidden は認証情報そのものが欠落していることを示す。
	KindForbidden
	// KindRateLimited はレート制限超過を示す。
	KindRateLimited
)

// APIError は統一エラーフォーマットを表す。
type APIError struct {
	Kind    ErrorKind
	Code    string // エラーコード
	Message string // クライアントに返すメッセージ
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeValidation        = "VALIDATION_FAILED"
	ErrCodeDuplicateCategory = "DUPLICATE_CATEGORY"
	ErrCodeDuplicateBudget   = "DUPLICATE_BUDGET"
	ErrCodeCategoryInUse     = "CATEGORY_IN_USE"
	ErrCodeEmailRegistered   = "EMAIL_REGISTERED"
	ErrCodeInvalidMonth      = "INVALID_MONTH"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeMissingCredential = "MISSING_CREDENTIAL"
	ErrCodeRateLimited       = "RATE_LIMITED"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

// NewNotFoundError はリソース未検出エラーを生成する。
// 他ユーザー所有のリソースも同じエラーで応答する。
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Kind:    KindNotFound,
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewInvalidRequestError はリクエストボディやクエリの解析失敗エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Kind:    KindValidation,
		Code:    ErrCodeInvalidRequest,
		Message: reason,
	}
}

// NewUnprocessableError は入力値の制約違反エラーを生成する。
func NewUnprocessableError(format string, args ...any) *APIError {
	return &APIError{
		Kind:    KindUnprocessable,
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewDuplicateCategoryError は同名・同種別のカテゴリが既に存在する場合のエラーを生成する。
func NewDuplicateCategoryError(name string, polarity Polarity) *APIError {
	return &APIError{
		Kind:    KindValidation,
		Code:    ErrCodeDuplicateCategory,
		Message: fmt.Sprintf("Category '%s' (%s) already exists", name, polarity),
	}
}

// NewDuplicateBudgetError は同一カテゴリ・同一月の予算が既に存在する場合のエラーを生成する。
func NewDuplicateBudgetError() *APIError {
	return &APIError{
		Kind:    KindValidation,
		Code:    ErrCodeDuplicateBudget,
		Message: "Budget for this category and month already exists",
	}
}

// NewCategoryInUseError は取引または予算から参照されているカテゴリを削除しようとした場合のエラーを生成する。
func NewCategoryInUseError() *APIError {
	return &APIError{
		Kind:    KindValidation,
		Code:    ErrCodeCategoryInUse,
		Message: "Category is referenced by transactions or budgets",
	}
}

// NewEmailRegisteredError はメールアドレスが登録済みの場合のエラーを生成する。
func NewEmailRegisteredError() *APIError {
	return &APIError{
		Kind:    KindValidation,
		Code:    ErrCodeEmailRegistered,
		Message: "Email already registered",
	}
}

// NewInvalidMonthError は月の値が月初日でない場合のエラーを生成する。
func NewInvalidMonthError(d Date) *APIError {
	return &APIError{
		Kind:    KindUnprocessable,
		Code:    ErrCodeInvalidMonth,
		Message: fmt.Sprintf("month must be the first day of a month, got %s", d),
	}
}

// NewUnauthorizedError は認証失敗エラーを生成する。
func NewUnauthorizedError(message string) *APIError {
	return &APIError{
		Kind:    KindUnauthorized,
		Code:    ErrCodeUnauthorized,
		Message: message,
	}
}

// NewMissingCredentialError は認証情報が送られていない場合のエラーを生成する。
func NewMissingCredentialError() *APIError {
	return &APIError{
		Kind:    KindForbidden,
		Code:    ErrCodeMissingCredential,
		Message: "Not authenticated",
	}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Kind:    KindRateLimited,
		Code:    ErrCodeRateLimited,
		Message: "Too many requests. Please try again later.",
	}
}

// NewInternalError はクライアントに詳細を漏らさない内部エラーを生成する。
func NewInternalError() *APIError {
	return &APIError{
		Kind:    KindInternal,
		Code:    ErrCodeInternal,
		Message: "Internal server error",
	}
}
