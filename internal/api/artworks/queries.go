package artworks

import (
	"gorm.io/gorm"
)

// withListRelations loads what list views show: artist summary and tags.
func withListRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Artist", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "picture_url", "picture_public_id")
		}).
		Preload("Tags")
}

// withDetailRelations loads what the detail view shows.
func withDetailRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Artist", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "bio", "picture_url", "picture_public_id")
		}).
		Preload("Gallery", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "slug", "description")
		}).
		Preload("Tags")
}

func favoritesOf(db *gorm.DB, userID uint) *gorm.DB {
	return db.Where("EXISTS (SELECT 1 FROM artwork_likes WHERE artwork_likes.artwork_id = artworks.id AND artwork_likes.user_id = ?)", userID)
}

func recountLikes(db *gorm.DB, artworkID string) *gorm.DB {
	return db.Exec(`UPDATE artworks SET likes_count =
		(SELECT COUNT(*) FROM artwork_likes WHERE artwork_likes.artwork_id = ?)
		WHERE id = ?`, artworkID, artworkID)
}
