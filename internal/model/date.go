package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout はAPIとキャッシュで使用する暦日のISO形式。
const DateLayout = "2006-01-02"

// Date は時刻成分を持たない暦日を表す。
// 内部的にはUTCの0時0分として保持する。
type Date struct {
	time.Time
}

// NewDate は年月日からDateを生成する。
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf は任意の時刻をその暦日に切り詰める。
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate はYYYY-MM-DD形式の文字列をDateに変換する。
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

// String はYYYY-MM-DD形式の文字列を返す。
func (d Date) String() string {
	return d.Format(DateLayout)
}

// MonthStart はその月の1日を返す。
func (d Date) MonthStart() Date {
	return NewDate(d.Year(), d.Month(), 1)
}

// IsMonthStart は月初日であるかを判定する。
func (d Date) IsMonthStart() bool {
	return d.Day() == 1
}

// MarshalJSON はDateをYYYY-MM-DD文字列としてエンコードする。
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON はYYYY-MM-DD文字列をDateにデコードする。
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value はdriver.Valuerを実装する。
// タイムゾーン解釈を避けるためYYYY-MM-DD文字列として送る。
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan はsql.Scannerを実装する。DATE列はtime.Timeとして渡される。
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = DateOf(v)
		return nil
	case string:
		parsed, err := ParseDate(v[:min(len(v), len(DateLayout))])
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		return d.Scan(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}
