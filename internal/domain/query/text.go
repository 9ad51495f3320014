package query

import (
	"strings"

	"gorm.io/gorm"
)

// TextCondition builds a free-text predicate over columns (qualified,
// e.g. "artworks.title"). Postgres uses full text search so the GIN index
// created by the migrations applies; other dialects fall back to a
// case-insensitive LIKE where every word must appear in some column.
func TextCondition(db *gorm.DB, columns []string, term string) (string, []any) {
	if db.Dialector.Name() == "postgres" {
		parts := make([]string, len(columns))
		for i, c := range columns {
			parts[i] = "coalesce(" + c + ", '')"
		}
		doc := strings.Join(parts, " || ' ' || ")
		return "to_tsvector('english', " + doc + ") @@ plainto_tsquery('english', ?)", []any{term}
	}

	var (
		words []string
		args  []any
	)
	for _, w := range strings.Fields(strings.ToLower(term)) {
		pattern := "%" + escapeLike(w) + "%"
		ors := make([]string, len(columns))
		for i, c := range columns {
			ors[i] = "LOWER(" + c + ") LIKE ? ESCAPE '\\'"
			args = append(args, pattern)
		}
		words = append(words, "("+strings.Join(ors, " OR ")+")")
	}
	if len(words) == 0 {
		return "1 = 1", nil
	}
	return strings.Join(words, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
