// Package cache は派生ビュー（集計結果）のキャッシュを提供する。
//
// キーはユーザーID・ビュー種別・正規化済みパラメータから構成され、
// ユーザー単位のプレフィックス削除で一括無効化できる。
package cache

import (
	"net/url"
	"strconv"
)

// keyNamespace はすべてのビューキャッシュキーの接頭辞。
const keyNamespace = "fintracker:view:"

// View はキャッシュ対象の派生ビュー種別。
type View string

const (
	ViewSummary       View = "summary"
	ViewMonthly       View = "monthly"
	ViewByCategory    View = "by-category"
	ViewRecent        View = "recent"
	ViewBudgetSummary View = "budget-summary"
)

// Key はビューキャッシュの構造化キー。
// パラメータはString()で名前順に正規化されるため、指定順序はキーに影響しない。
type Key struct {
	UserID string
	View   View
	Params url.Values
}

// NewKey はパラメータなしのキーを生成する。
func NewKey(userID string, view View) Key {
	return Key{UserID: userID, View: view, Params: url.Values{}}
}

// With はパラメータを追加したキーのコピーを返す。
// 空文字列も「未指定」という値としてキーに含める。
func (k Key) With(name, value string) Key {
	params := make(url.Values, len(k.Params)+1)
	for n, v := range k.Params {
		params[n] = append([]string(nil), v...)
	}
	params.Set(name, value)
	return Key{UserID: k.UserID, View: k.View, Params: params}
}

// WithInt は整数パラメータを追加したキーのコピーを返す。
func (k Key) WithInt(name string, value int) Key {
	return k.With(name, strconv.Itoa(value))
}

// String はストアに保存する文字列キーを返す。
// 形式: fintracker:view:{user}:{view}:{urlencoded params}
func (k Key) String() string {
	return UserPrefix(k.UserID) + string(k.View) + ":" + k.Params.Encode()
}

// UserPrefix は指定ユーザーのすべてのキーが共有する接頭辞を返す。
func UserPrefix(userID string) string {
	return keyNamespace + userID + ":"
}
