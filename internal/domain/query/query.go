// Package query turns request parameters into a validated, deferred
// database read. A Query is an immutable value: every step returns a new
// Query and the first validation failure sticks until Apply reports it.
package query

import (
	"encoding/json"
	"math"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"gallery-api/internal/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Op string

const (
	Eq  Op = "eq"
	Gte Op = "gte"
	Gt  Op = "gt"
	Lte Op = "lte"
	Lt  Op = "lt"
)

var validOps = map[Op]bool{Eq: true, Gte: true, Gt: true, Lte: true, Lt: true}

const (
	DefaultPage  = 1
	DefaultLimit = 100
	MaxLimit     = 500
)

// Reserved parameter names never treated as filters.
var reserved = map[string]bool{
	"page":   true,
	"sort":   true,
	"limit":  true,
	"fields": true,
	"search": true,
}

var keyPattern = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_]*)(?:\[([A-Za-z]+)\])?$`)

type condition struct {
	field  Field
	op     Op
	values []any
}

type ordering struct {
	column string
	desc   bool
}

type Query struct {
	schema Schema
	conds  []condition
	search string
	sorts  []ordering
	fields []string
	page   int
	limit  int
	err    error
}

func New(s Schema) Query {
	return Query{schema: s, page: DefaultPage, limit: DefaultLimit}
}

// FromValues runs every step over a request's query string.
func FromValues(s Schema, v url.Values) Query {
	return New(s).
		Filter(v).
		Search(v.Get("search")).
		Sort(v.Get("sort")).
		LimitFields(v.Get("fields")).
		Paginate(ParseInt(v.Get("page")), ParseInt(v.Get("limit")))
}

func (q Query) clone() Query {
	c := q
	c.conds = append([]condition(nil), q.conds...)
	c.sorts = append([]ordering(nil), q.sorts...)
	c.fields = append([]string(nil), q.fields...)
	return c
}

func (q Query) fail(format string, args ...any) Query {
	q.err = apperr.Newf(apperr.InvalidInput, format, args...)
	return q
}

func (q Query) Err() error { return q.err }

func (q Query) Page() int { return q.page }

func (q Query) Limit() int { return q.limit }

func (q Query) Fields() []string { return append([]string(nil), q.fields...) }

// Filter adds equality and range conditions from params. Keys take the form
// field or field[op]; reserved names are skipped.
func (q Query) Filter(params url.Values) Query {
	out := q.clone()
	if out.err != nil {
		return out
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, raw := range keys {
		if reserved[raw] {
			continue
		}
		m := keyPattern.FindStringSubmatch(raw)
		if m == nil {
			return out.fail("invalid filter %q", raw)
		}
		name := Normalize(m[1])
		op := Eq
		if m[2] != "" {
			op = Op(strings.ToLower(m[2]))
			if !validOps[op] {
				return out.fail("unsupported operator %q on %s", m[2], name)
			}
		}
		f, ok := out.schema.field(name)
		if !ok || !f.Filterable {
			return out.fail("cannot filter on %q", name)
		}
		if op != Eq && !rangeable(f.Kind) {
			return out.fail("operator %s is not supported on %s", op, name)
		}

		values := make([]any, 0, len(params[raw]))
		for _, rv := range params[raw] {
			v, err := parseValue(f, rv)
			if err != nil {
				return out.fail("invalid value %q for %s", rv, name)
			}
			values = append(values, v)
		}
		if len(values) == 0 {
			continue
		}
		if op == Eq {
			out.conds = append(out.conds, condition{field: f, op: op, values: values})
			continue
		}
		for _, v := range values {
			out.conds = append(out.conds, condition{field: f, op: op, values: []any{v}})
		}
	}
	return out
}

// Search sets a free-text term. Blank terms are ignored.
func (q Query) Search(term string) Query {
	out := q.clone()
	if out.err != nil {
		return out
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return out
	}
	if out.schema.Search == nil {
		return out.fail("search is not supported here")
	}
	out.search = term
	return out
}

// Sort takes a comma separated list; a leading "-" sorts descending.
func (q Query) Sort(spec string) Query {
	out := q.clone()
	if out.err != nil {
		return out
	}
	sorts, err := parseSort(out.schema, spec)
	if err != nil {
		out.err = err
		return out
	}
	out.sorts = sorts
	return out
}

// LimitFields restricts the projected fields. id is always returned.
func (q Query) LimitFields(spec string) Query {
	out := q.clone()
	if out.err != nil {
		return out
	}
	spec = strings.TrimSpace(spec)
	if spec == "" {
		out.fields = nil
		return out
	}
	fields := []string{"id"}
	seen := map[string]bool{"id": true}
	for _, part := range strings.Split(spec, ",") {
		name := Normalize(strings.TrimSpace(part))
		if name == "" || seen[name] {
			continue
		}
		if _, ok := out.schema.field(name); !ok {
			return out.fail("unknown field %q", name)
		}
		seen[name] = true
		fields = append(fields, name)
	}
	out.fields = fields
	return out
}

// Paginate sets the 1-based page and page size. Non-positive values fall
// back to the defaults and the size is capped at MaxLimit.
func (q Query) Paginate(page, limit int) Query {
	out := q.clone()
	if page <= 0 {
		page = DefaultPage
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	out.page = page
	out.limit = limit
	return out
}

// Where applies conditions and search only.
func (q Query) Where(db *gorm.DB) (*gorm.DB, error) {
	if q.err != nil {
		return nil, q.err
	}
	tx := db
	for _, c := range q.conds {
		tx = applyCondition(tx, q.schema.Table, c)
	}
	if q.search != "" {
		tx = q.schema.Search(tx, q.search)
	}
	return tx, nil
}

// Apply scopes db with conditions, search, ordering and paging. Nothing is
// executed; the caller runs a single Find on the result.
func (q Query) Apply(db *gorm.DB) (*gorm.DB, error) {
	tx, err := q.Where(db)
	if err != nil {
		return nil, err
	}

	sorts := q.sorts
	if len(sorts) == 0 && q.schema.DefaultSort != "" {
		sorts, err = parseSort(q.schema, q.schema.DefaultSort)
		if err != nil {
			return nil, err
		}
	}
	hasID := false
	for _, s := range sorts {
		tx = tx.Order(clause.OrderByColumn{
			Column: clause.Column{Table: q.schema.Table, Name: s.column},
			Desc:   s.desc,
		})
		hasID = hasID || s.column == "id"
	}
	if !hasID {
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Table: q.schema.Table, Name: "id"}})
	}

	return tx.Limit(q.limit).Offset((q.page - 1) * q.limit), nil
}

func applyCondition(tx *gorm.DB, table string, c condition) *gorm.DB {
	if c.field.Match != nil {
		return c.field.Match(tx, c.op, c.values)
	}
	col := clause.Column{Table: table, Name: c.field.Column}
	switch c.op {
	case Gte:
		return tx.Where(clause.Gte{Column: col, Value: c.values[0]})
	case Gt:
		return tx.Where(clause.Gt{Column: col, Value: c.values[0]})
	case Lte:
		return tx.Where(clause.Lte{Column: col, Value: c.values[0]})
	case Lt:
		return tx.Where(clause.Lt{Column: col, Value: c.values[0]})
	}
	if len(c.values) == 1 {
		return tx.Where(clause.Eq{Column: col, Value: c.values[0]})
	}
	return tx.Where(clause.IN{Column: col, Values: c.values})
}

func parseSort(s Schema, spec string) ([]ordering, error) {
	var out []ordering
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		desc := strings.HasPrefix(part, "-")
		name := Normalize(strings.TrimPrefix(part, "-"))
		f, ok := s.field(name)
		if !ok || !f.Sortable || f.Column == "" {
			return nil, apperr.Newf(apperr.InvalidInput, "cannot sort by %q", name)
		}
		out = append(out, ordering{column: f.Column, desc: desc})
	}
	return out, nil
}

func rangeable(k Kind) bool {
	switch k {
	case Int, Float, Money, Time:
		return true
	}
	return false
}

func parseValue(f Field, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch f.Kind {
	case Int:
		return strconv.ParseInt(raw, 10, 64)
	case Float:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, apperr.New(apperr.InvalidInput, "not a number")
		}
		return v, nil
	case Money:
		return ParseMoney(raw)
	case Bool:
		return strconv.ParseBool(raw)
	case Time:
		return parseTime(raw)
	case Enum:
		v := strings.ToLower(raw)
		for _, allowed := range f.Enum {
			if v == allowed {
				return v, nil
			}
		}
		return nil, apperr.New(apperr.InvalidInput, "not an allowed value")
	case UUID:
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		return id.String(), nil
	}
	return raw, nil
}

// ParseMoney converts a decimal amount into integer minor units.
func ParseMoney(raw string) (int64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, apperr.New(apperr.InvalidInput, "invalid amount")
	}
	return int64(math.Round(v * 100)), nil
}

func parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Parse("2006-01-02", raw)
}

// ParseInt returns 0 for anything that is not a base-10 integer.
func ParseInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

// Project keeps only the listed keys of each item's JSON form. With no
// fields the items are returned unchanged.
func Project[T any](items []T, fields []string) (any, error) {
	if len(fields) == 0 {
		return items, nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		b, err := json.Marshal(item)
		if err != nil {
			return nil, err
		}
		var full map[string]any
		if err := json.Unmarshal(b, &full); err != nil {
			return nil, err
		}
		picked := make(map[string]any, len(fields))
		for _, f := range fields {
			if v, ok := full[f]; ok {
				picked[f] = v
			}
		}
		out = append(out, picked)
	}
	return out, nil
}
