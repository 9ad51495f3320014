package access

import (
	"testing"

	"gallery-api/internal/apperr"

	"github.com/stretchr/testify/assert"
)

func TestAuthorizeArtworkOwnership(t *testing.T) {
	artist := Actor{ID: 1, Role: RoleArtist}
	otherArtist := Actor{ID: 2, Role: RoleArtist}
	viewer := Actor{ID: 3, Role: RoleViewer}
	admin := Actor{ID: 4, Role: RoleAdmin}
	artwork := OwnedBy(Artwork, artist.ID)

	assert.NoError(t, Authorize(artist, Update, artwork))
	assert.NoError(t, Authorize(artist, Delete, artwork))
	assert.NoError(t, Authorize(admin, Delete, artwork))

	err := Authorize(otherArtist, Update, artwork)
	assert.True(t, apperr.IsKind(err, apperr.Forbidden))
	assert.True(t, apperr.IsKind(Authorize(viewer, Update, artwork), apperr.Forbidden))

	assert.NoError(t, Authorize(artist, Create, On(Artwork)))
	assert.True(t, apperr.IsKind(Authorize(viewer, Create, On(Artwork)), apperr.Forbidden))
	assert.NoError(t, Authorize(viewer, Like, On(Artwork)))
}

func TestAuthorizeOrders(t *testing.T) {
	buyer := Actor{ID: 10, Role: RoleViewer}
	stranger := Actor{ID: 11, Role: RoleArtist}
	admin := Actor{ID: 1, Role: RoleAdmin}
	order := OwnedBy(Order, buyer.ID)

	assert.NoError(t, Authorize(buyer, Read, order))
	assert.True(t, apperr.IsKind(Authorize(stranger, Read, order), apperr.Forbidden))
	assert.NoError(t, Authorize(admin, Read, order))

	assert.True(t, apperr.IsKind(Authorize(buyer, ListAll, On(Order)), apperr.Forbidden))
	assert.NoError(t, Authorize(admin, UpdateStatus, On(Order)))
}

func TestAuthorizeOwnerRuleNeedsOwnedTarget(t *testing.T) {
	author := Actor{ID: 5, Role: RoleViewer}
	assert.True(t, apperr.IsKind(Authorize(author, Update, On(Comment)), apperr.Forbidden))
	assert.NoError(t, Authorize(author, Update, OwnedBy(Comment, 5)))
}

func TestAuthorizeUnknownRuleAndAnonymous(t *testing.T) {
	viewer := Actor{ID: 3, Role: RoleViewer}
	assert.True(t, apperr.IsKind(Authorize(viewer, UpdateStatus, On(Comment)), apperr.Forbidden))
	assert.True(t, apperr.IsKind(Authorize(Actor{}, Like, On(Artwork)), apperr.Unauthorized))
}

func TestGalleriesAreAdminOnly(t *testing.T) {
	artist := Actor{ID: 1, Role: RoleArtist}
	admin := Actor{ID: 2, Role: RoleAdmin}
	for _, action := range []Action{Create, Update, Delete} {
		assert.False(t, Can(artist, action, On(Gallery)))
		assert.False(t, Can(artist, action, On(Exhibition)))
		assert.True(t, Can(admin, action, On(Gallery)))
		assert.True(t, Can(admin, action, On(Exhibition)))
	}
}

func TestValidateRole(t *testing.T) {
	for _, r := range []string{"viewer", "artist", "admin"} {
		assert.NoError(t, ValidateRole(r))
	}
	assert.True(t, apperr.IsKind(ValidateRole("superuser"), apperr.InvalidInput))
	assert.True(t, apperr.IsKind(ValidateRole(""), apperr.InvalidInput))
}
