package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hitoshi/fintracker/internal/model"
)

// queryParser はクエリパラメータを型付きで読み取り、最初のエラーを保持する。
type queryParser struct {
	q   url.Values
	err error
}

func newQueryParser(r *http.Request) *queryParser {
	return &queryParser{q: r.URL.Query()}
}

func (p *queryParser) fail(name string) {
	if p.err == nil {
		p.err = model.NewUnprocessableError("invalid value for query parameter '%s'", name)
	}
}

// date は任意のYYYY-MM-DD形式の日付を読み取る。
func (p *queryParser) date(name string) *model.Date {
	raw := p.q.Get(name)
	if raw == "" {
		return nil
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		p.fail(name)
		return nil
	}
	return &d
}

// requiredDate は必須の日付を読み取る。
func (p *queryParser) requiredDate(name string) model.Date {
	d := p.date(name)
	if d == nil {
		if p.err == nil {
			p.err = model.NewUnprocessableError("query parameter '%s' is required", name)
		}
		return model.Date{}
	}
	return *d
}

// intOr は整数を読み取る。未指定の場合はdefを返す。
func (p *queryParser) intOr(name string, def int) int {
	raw := p.q.Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(name)
		return def
	}
	return n
}

// int64Ptr は任意の整数IDを読み取る。
func (p *queryParser) int64Ptr(name string) *int64 {
	raw := p.q.Get(name)
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		p.fail(name)
		return nil
	}
	return &n
}

// polarity は任意の種別を読み取る。
func (p *queryParser) polarity(name string) *model.Polarity {
	raw := p.q.Get(name)
	if raw == "" {
		return nil
	}
	pol, ok := model.ParsePolarity(raw)
	if !ok {
		p.fail(name)
		return nil
	}
	return &pol
}

// pathInt64 はURLパスの整数IDを読み取る。
func pathInt64(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, model.NewUnprocessableError("invalid %s in path", name)
	}
	return id, nil
}

// pathUUID はURLパスのUUIDを正規化して読み取る。
func pathUUID(r *http.Request, name string) (string, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return "", model.NewUnprocessableError("invalid %s in path", name)
	}
	return id.String(), nil
}
