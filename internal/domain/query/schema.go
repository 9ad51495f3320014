package query

import (
	"strings"
	"unicode"

	"gorm.io/gorm"
)

type Kind int

const (
	String Kind = iota
	Int
	Float
	// Money is a decimal in the API and integer minor units in storage.
	Money
	Bool
	Time
	Enum
	UUID
)

// Field describes one API-visible attribute of an entity.
type Field struct {
	// Column is the storage column. Empty means projection only.
	Column     string
	Kind       Kind
	Enum       []string
	Filterable bool
	Sortable   bool
	// Match overrides the default column comparison, e.g. for values that
	// live in a side table. It receives validated, parsed values.
	Match func(db *gorm.DB, op Op, values []any) *gorm.DB
}

// Schema is the whitelist a Query is validated against.
type Schema struct {
	Table  string
	Fields map[string]Field
	// Search applies a free-text term. Nil disables search for the entity.
	Search      func(db *gorm.DB, term string) *gorm.DB
	DefaultSort string
}

func (s Schema) field(name string) (Field, bool) {
	f, ok := s.Fields[name]
	return f, ok
}

// Normalize maps camelCase API names onto the snake_case used everywhere
// else, so createdAt and created_at address the same field.
func Normalize(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
