package works

import (
	"gallery-api/internal/domain/query"

	"gorm.io/gorm"
)

var ArtworkSchema = query.Schema{
	Table: "artworks",
	Fields: map[string]query.Field{
		"id":            {Column: "id", Kind: query.UUID, Filterable: true},
		"title":         {Column: "title", Kind: query.String, Filterable: true, Sortable: true},
		"description":   {Column: "description"},
		"artist_id":     {Column: "artist_id", Kind: query.Int, Filterable: true},
		"artist":        {},
		"year":          {Column: "year", Kind: query.Int, Filterable: true, Sortable: true},
		"medium":        {Column: "medium", Kind: query.String, Filterable: true, Sortable: true},
		"tags":          {Kind: query.String, Filterable: true, Match: matchTags},
		"image":         {},
		"price":         {Column: "price_cents", Kind: query.Money, Filterable: true, Sortable: true},
		"dimensions":    {},
		"status":        {Column: "status", Kind: query.Enum, Enum: Statuses, Filterable: true, Sortable: true},
		"likes_count":   {Column: "likes_count", Kind: query.Int, Filterable: true, Sortable: true},
		"gallery_id":    {Column: "gallery_id", Kind: query.UUID, Filterable: true},
		"exhibition_id": {Column: "exhibition_id", Kind: query.UUID, Filterable: true},
		"created_at":    {Column: "created_at", Kind: query.Time, Filterable: true, Sortable: true},
		"updated_at":    {Column: "updated_at", Kind: query.Time, Filterable: true, Sortable: true},
	},
	Search:      searchArtworks,
	DefaultSort: "-created_at",
}

var GallerySchema = query.Schema{
	Table: "galleries",
	Fields: map[string]query.Field{
		"id":             {Column: "id", Kind: query.UUID, Filterable: true},
		"name":           {Column: "name", Kind: query.String, Filterable: true, Sortable: true},
		"slug":           {Column: "slug", Kind: query.String, Filterable: true},
		"description":    {Column: "description"},
		"curator_id":     {Column: "curator_id", Kind: query.Int, Filterable: true},
		"featured_image": {},
		"artworks":       {},
		"created_at":     {Column: "created_at", Kind: query.Time, Filterable: true, Sortable: true},
	},
	Search: func(db *gorm.DB, term string) *gorm.DB {
		sql, args := query.TextCondition(db, []string{"galleries.name", "galleries.description"}, term)
		return db.Where(sql, args...)
	},
	DefaultSort: "-created_at",
}

var ExhibitionSchema = query.Schema{
	Table: "exhibitions",
	Fields: map[string]query.Field{
		"id":                {Column: "id", Kind: query.UUID, Filterable: true},
		"title":             {Column: "title", Kind: query.String, Filterable: true, Sortable: true},
		"description":       {Column: "description"},
		"start_date":        {Column: "start_date", Kind: query.Time, Filterable: true, Sortable: true},
		"end_date":          {Column: "end_date", Kind: query.Time, Filterable: true, Sortable: true},
		"gallery_id":        {Column: "gallery_id", Kind: query.UUID, Filterable: true},
		"status":            {Column: "status", Kind: query.Enum, Enum: ExhibitionStatuses, Filterable: true, Sortable: true},
		"theme":             {Column: "theme", Kind: query.String, Filterable: true},
		"virtual_tour_link": {},
		"featured_image":    {},
		"featured_artworks": {},
		"curators":          {},
		"created_at":        {Column: "created_at", Kind: query.Time, Filterable: true, Sortable: true},
	},
	Search: func(db *gorm.DB, term string) *gorm.DB {
		sql, args := query.TextCondition(db, []string{"exhibitions.title", "exhibitions.description", "exhibitions.theme"}, term)
		return db.Where(sql, args...)
	},
	DefaultSort: "start_date",
}

var CommentSchema = query.Schema{
	Table: "comments",
	Fields: map[string]query.Field{
		"id":         {Column: "id", Kind: query.UUID, Filterable: true},
		"text":       {Column: "text"},
		"user_id":    {Column: "user_id", Kind: query.Int, Filterable: true},
		"user":       {},
		"artwork_id": {Column: "artwork_id", Kind: query.UUID},
		"created_at": {Column: "created_at", Kind: query.Time, Filterable: true, Sortable: true},
	},
	DefaultSort: "-created_at",
}

// searchArtworks matches title and description, or an exact tag.
func searchArtworks(db *gorm.DB, term string) *gorm.DB {
	sql, args := query.TextCondition(db, []string{"artworks.title", "artworks.description"}, term)
	args = append(args, NormalizeTag(term))
	return db.Where("(("+sql+") OR EXISTS (SELECT 1 FROM artwork_tags WHERE artwork_tags.artwork_id = artworks.id AND artwork_tags.tag = ?))", args...)
}

func matchTags(db *gorm.DB, _ query.Op, values []any) *gorm.DB {
	tags := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			tags = append(tags, NormalizeTag(s))
		}
	}
	return db.Where("EXISTS (SELECT 1 FROM artwork_tags WHERE artwork_tags.artwork_id = artworks.id AND artwork_tags.tag IN ?)", tags)
}
