package query_test

import (
	"fmt"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"gallery-api/internal/apperr"
	"gallery-api/internal/domain/query"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"
)

type item struct {
	ID          string `gorm:"primaryKey"`
	Title       string
	Description string
	PriceCents  int64
	Status      string
	Year        int
	CreatedAt   time.Time
}

var itemSchema = query.Schema{
	Table: "items",
	Fields: map[string]query.Field{
		"id":          {Column: "id", Kind: query.String, Filterable: true},
		"title":       {Column: "title", Kind: query.String, Filterable: true, Sortable: true},
		"description": {Column: "description", Kind: query.String},
		"price":       {Column: "price_cents", Kind: query.Money, Filterable: true, Sortable: true},
		"status":      {Column: "status", Kind: query.Enum, Enum: []string{"available", "sold"}, Filterable: true},
		"year":        {Column: "year", Kind: query.Int, Filterable: true, Sortable: true},
		"created_at":  {Column: "created_at", Kind: query.Time, Filterable: true, Sortable: true},
	},
	Search: func(db *gorm.DB, term string) *gorm.DB {
		sql, args := query.TextCondition(db, []string{"items.title", "items.description"}, term)
		return db.Where(sql, args...)
	},
	DefaultSort: "-created_at",
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "query_test.db") + "?_time_format=sqlite"
	db, err := gorm.Open(sqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&item{}))

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []item{
		{ID: "a", Title: "Blue Sea", Description: "oil on canvas", PriceCents: 10000, Status: "available", Year: 2001, CreatedAt: base},
		{ID: "b", Title: "Red Sky", Description: "acrylic 100% pure", PriceCents: 25000, Status: "sold", Year: 2010, CreatedAt: base.Add(time.Hour)},
		{ID: "c", Title: "Green Field", Description: "watercolour", PriceCents: 5000, Status: "available", Year: 2020, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "d", Title: "Blue Moon", Description: "digital print", PriceCents: 0, Status: "available", Year: 2022, CreatedAt: base.Add(3 * time.Hour)},
	}
	require.NoError(t, db.Create(&rows).Error)
	return db
}

func ids(items []item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func run(t *testing.T, db *gorm.DB, q query.Query) []item {
	t.Helper()
	tx, err := q.Apply(db.Model(&item{}))
	require.NoError(t, err)
	var out []item
	require.NoError(t, tx.Find(&out).Error)
	return out
}

func TestDefaultSortIsNewestFirst(t *testing.T) {
	db := openDB(t)
	got := run(t, db, query.New(itemSchema))
	assert.Equal(t, []string{"d", "c", "b", "a"}, ids(got))
}

func TestFilterRangeAndEquality(t *testing.T) {
	db := openDB(t)
	params := url.Values{"price[gte]": {"50"}, "price[lt]": {"250"}, "status": {"available"}}
	got := run(t, db, query.New(itemSchema).Filter(params).Sort("price"))
	assert.Equal(t, []string{"c", "a"}, ids(got))
}

func TestFilterMultipleValuesBecomeIn(t *testing.T) {
	db := openDB(t)
	params := url.Values{"year": {"2001", "2022"}}
	got := run(t, db, query.New(itemSchema).Filter(params).Sort("year"))
	assert.Equal(t, []string{"a", "d"}, ids(got))
}

func TestFilterRejectsUnknownOperatorsAndFields(t *testing.T) {
	cases := []url.Values{
		{"price[ne]": {"1"}},
		{"price[$where]": {"1"}},
		{"$where": {"1"}},
		{"password": {"x"}},
		{"description": {"x"}},
		{"status[gte]": {"sold"}},
		{"status": {"stolen"}},
		{"year": {"nineteen"}},
	}
	for _, params := range cases {
		q := query.New(itemSchema).Filter(params)
		_, err := q.Apply(&gorm.DB{})
		assert.True(t, apperr.IsKind(err, apperr.InvalidInput), fmt.Sprint(params))
	}
}

func TestReservedParamsAreNotFilters(t *testing.T) {
	db := openDB(t)
	params := url.Values{"page": {"1"}, "sort": {"title"}, "limit": {"2"}, "fields": {"title"}, "search": {"blue"}}
	got := run(t, db, query.New(itemSchema).Filter(params))
	assert.Len(t, got, 4)
}

func TestSortAcceptsCamelCaseAndRejectsUnknown(t *testing.T) {
	db := openDB(t)
	got := run(t, db, query.New(itemSchema).Sort("createdAt"))
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(got))

	_, err := query.New(itemSchema).Sort("-description").Apply(db)
	assert.True(t, apperr.IsKind(err, apperr.InvalidInput))
}

func TestPaginate(t *testing.T) {
	db := openDB(t)
	got := run(t, db, query.New(itemSchema).Sort("title").Paginate(2, 2))
	assert.Equal(t, []string{"c", "b"}, ids(got))

	q := query.New(itemSchema).Paginate(-3, 10000)
	assert.Equal(t, query.DefaultPage, q.Page())
	assert.Equal(t, query.MaxLimit, q.Limit())

	q = query.FromValues(itemSchema, url.Values{"page": {"abc"}, "limit": {"0"}})
	assert.Equal(t, query.DefaultPage, q.Page())
	assert.Equal(t, query.DefaultLimit, q.Limit())
}

func TestSearchFallsBackToLike(t *testing.T) {
	db := openDB(t)
	got := run(t, db, query.New(itemSchema).Search("blue").Sort("title"))
	assert.Equal(t, []string{"d", "a"}, ids(got))

	got = run(t, db, query.New(itemSchema).Search("100%"))
	assert.Equal(t, []string{"b"}, ids(got))

	got = run(t, db, query.New(itemSchema).Search("blue canvas"))
	assert.Equal(t, []string{"a"}, ids(got))
}

func TestEmptyResultIsNotAnError(t *testing.T) {
	db := openDB(t)
	got := run(t, db, query.New(itemSchema).Filter(url.Values{"year[gt]": {"3000"}}))
	assert.Empty(t, got)
}

func TestStepsDoNotMutateReceiver(t *testing.T) {
	db := openDB(t)
	base := query.New(itemSchema).Filter(url.Values{"status": {"available"}})
	narrowed := base.Filter(url.Values{"year[gte]": {"2020"}})
	_ = base.Sort("nope")

	assert.Len(t, run(t, db, base), 3)
	assert.Len(t, run(t, db, narrowed), 2)
}

func TestLimitFieldsAndProject(t *testing.T) {
	q := query.New(itemSchema).LimitFields("title,createdAt,title")
	require.NoError(t, q.Err())
	assert.Equal(t, []string{"id", "title", "created_at"}, q.Fields())

	type dto struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Price string `json:"price"`
	}
	out, err := query.Project([]dto{{ID: "a", Title: "Blue Sea", Price: "100.00"}}, []string{"id", "title"})
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"id": "a", "title": "Blue Sea"}}, out)

	assert.True(t, apperr.IsKind(query.New(itemSchema).LimitFields("secret").Err(), apperr.InvalidInput))
}

func TestParseMoney(t *testing.T) {
	cents, err := query.ParseMoney("12.5")
	require.NoError(t, err)
	assert.Equal(t, int64(1250), cents)

	_, err = query.ParseMoney("-1")
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "likes_count", query.Normalize("likesCount"))
	assert.Equal(t, "created_at", query.Normalize("created_at"))
}
