package works

import "time"

// ArtworkLike is one member of an artwork's liked-by set. The same rows
// are the user's favorites list.
type ArtworkLike struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false"`
	ArtworkID string    `gorm:"type:varchar(36);primaryKey;index"`
	Artwork   *Artwork  `gorm:"foreignKey:ArtworkID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}
