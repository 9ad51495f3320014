package database

import (
	"fmt"
	"log"
	"strings"
	"time"

	"gallery-api/internal/domain/orders"
	"gallery-api/internal/domain/users"
	"gallery-api/internal/domain/works"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

var DB *gorm.DB

// InitDB connects, migrates and stores the handle in DB.
func InitDB(driver, dsn string, debug bool) {
	if dsn == "" {
		log.Fatal("❌ DB_URL not set")
	}

	db, err := Open(driver, dsn, debug)
	if err != nil {
		log.Fatal("❌ Failed to connect to database:", err)
	}
	if err := Migrate(db); err != nil {
		log.Fatal("❌ AutoMigrate error:", err)
	}

	DB = db
	fmt.Println("✅ Connected and migrated successfully")
}

// Open connects to postgres or sqlite. Timestamps are always UTC.
func Open(driver, dsn string, debug bool) (*gorm.DB, error) {
	cfg := &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
		Logger:  logger.Default.LogMode(logger.Warn),
	}
	if debug {
		cfg.Logger = logger.Default.LogMode(logger.Info)
	}

	switch driver {
	case "postgres", "":
		return gorm.Open(postgres.Open(dsn), cfg)
	case "sqlite":
		db, err := gorm.Open(sqlite.Dialector{DriverName: "sqlite", DSN: sqliteDSN(dsn)}, cfg)
		if err != nil {
			return nil, err
		}
		// sqlite serialises writers; a single connection avoids SQLITE_BUSY
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

func sqliteDSN(dsn string) string {
	params := "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	if strings.Contains(dsn, "?") {
		return dsn + "&" + params
	}
	return dsn + "?" + params
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		// users
		&users.User{},
		&users.PasswordResetToken{},

		// catalogue
		&works.Gallery{},
		&works.Exhibition{},
		&works.Artwork{},
		&works.ArtworkTag{},
		&works.ArtworkLike{},
		&works.GalleryArtwork{},
		&works.ExhibitionArtwork{},
		&works.ExhibitionCurator{},
		&works.Comment{},

		// orders
		&orders.Order{},
		&orders.OrderItem{},
		&orders.WebhookEvent{},
	); err != nil {
		return err
	}

	if db.Dialector.Name() == "postgres" {
		if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_artworks_search ON artworks
			USING GIN (to_tsvector('english', coalesce(title, '') || ' ' || coalesce(description, '')))`).Error; err != nil {
			return fmt.Errorf("create search index: %w", err)
		}
	}
	return nil
}
