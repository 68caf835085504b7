package model

import (
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// MaxAmount はNUMERIC(12,2)に格納できる最大金額。
var MaxAmount = decimal.RequireFromString("9999999999.99")

// NormalizeAmount は金額を小数第2位に丸め、正の値かつ上限以下であることを検証する。
func NormalizeAmount(field string, amount decimal.Decimal) (decimal.Decimal, error) {
	rounded := amount.Round(2)
	if !rounded.IsPositive() {
		return decimal.Decimal{}, NewUnprocessableError("%s must be greater than 0", field)
	}
	if rounded.GreaterThan(MaxAmount) {
		return decimal.Decimal{}, NewUnprocessableError("%s must not exceed %s", field, MaxAmount.StringFixed(2))
	}
	return rounded, nil
}

// ValidateLength は文字数（バイト数ではない）がmin以上max以下であることを検証する。
func ValidateLength(field, value string, min, max int) error {
	n := utf8.RuneCountInString(value)
	if n < min || n > max {
		if min > 0 {
			return NewUnprocessableError("%s must be between %d and %d characters", field, min, max)
		}
		return NewUnprocessableError("%s must be at most %d characters", field, max)
	}
	return nil
}

// ValidatePolarity は種別がincomeまたはexpenseであることを検証する。
func ValidatePolarity(field string, p Polarity) error {
	if !p.Valid() {
		return NewUnprocessableError("%s must be 'income' or 'expense'", field)
	}
	return nil
}

// ValidateMonth は月の値が月初日であることを検証する。
func ValidateMonth(month Date) error {
	if !month.IsMonthStart() {
		return NewInvalidMonthError(month)
	}
	return nil
}
