// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"gallery-api/database"
	"gallery-api/internal/domain/users"
	"gallery-api/internal/domain/works"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	// keep fixture hashing fast
	users.PasswordCost = bcrypt.MinCost
}

// NewDB opens a migrated sqlite database in the test's temp dir.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gallery_test.db")
	db, err := database.Open("sqlite", path, false)
	require.NoError(t, err, "open db")
	require.NoError(t, database.Migrate(db), "run migrations")
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

var seq atomic.Int64

// CreateUser inserts an active user with the given role and password "pass1234".
func CreateUser(t *testing.T, db *gorm.DB, role string) users.User {
	t.Helper()
	n := seq.Add(1)
	hash, err := users.HashPassword("pass1234")
	require.NoError(t, err)
	u := users.User{
		Name:         fmt.Sprintf("User %d", n),
		Email:        fmt.Sprintf("user%d@example.com", n),
		Password:     &hash,
		AuthProvider: users.ProviderLocal,
		Role:         role,
		Active:       true,
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

// CreateArtwork inserts an available artwork owned by artistID.
func CreateArtwork(t *testing.T, db *gorm.DB, artistID uint, title string, priceCents int64) works.Artwork {
	t.Helper()
	a := works.Artwork{
		Title:       title,
		Description: "A piece titled " + title,
		ArtistID:    artistID,
		PriceCents:  priceCents,
		Status:      works.StatusAvailable,
		Dimensions:  works.Dimensions{Unit: works.UnitCentimeters},
	}
	require.NoError(t, db.Create(&a).Error)
	return a
}
