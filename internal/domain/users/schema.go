package users

import (
	"gallery-api/internal/domain/query"

	"gorm.io/gorm"
)

var Schema = query.Schema{
	Table: "users",
	Fields: map[string]query.Field{
		"id":            {Column: "id", Kind: query.Int, Filterable: true, Sortable: true},
		"name":          {Column: "name", Kind: query.String, Filterable: true, Sortable: true},
		"email":         {Column: "email", Kind: query.String, Filterable: true, Sortable: true},
		"role":          {Column: "role", Kind: query.Enum, Enum: []string{RoleViewer, RoleArtist, RoleAdmin}, Filterable: true, Sortable: true},
		"bio":           {},
		"picture":       {},
		"auth_provider": {Column: "auth_provider", Kind: query.Enum, Enum: []string{ProviderLocal, ProviderGoogle}, Filterable: true},
		"active":        {},
		"created_at":    {Column: "created_at", Kind: query.Time, Filterable: true, Sortable: true},
		"updated_at":    {Column: "updated_at", Kind: query.Time, Filterable: true, Sortable: true},
	},
	Search: func(db *gorm.DB, term string) *gorm.DB {
		sql, args := query.TextCondition(db, []string{"users.name", "users.email"}, term)
		return db.Where(sql, args...)
	},
	DefaultSort: "-created_at",
}
