package artworks

import (
	"context"
	"net/url"
	"sync"
	"testing"

	"gallery-api/internal/apperr"
	"gallery-api/internal/domain/access"
	"gallery-api/internal/domain/users"
	"gallery-api/internal/domain/works"
	"gallery-api/internal/logging"
	"gallery-api/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

func newService(t *testing.T) (*Service, *testutil.ImageStore) {
	t.Helper()
	images := testutil.NewImageStore()
	return &Service{DB: testutil.NewDB(t), Images: images, Log: logging.Discard()}, images
}

func TestCreateSetsArtistFromActorAndStoresTags(t *testing.T) {
	svc, _ := newService(t)
	artist := testutil.CreateUser(t, svc.DB, users.RoleArtist)

	got, err := svc.Create(context.Background(), access.ActorFor(artist), CreateArtworkRequest{
		Title: "  Harbour at Dusk ",
		Tags:  []string{"Sea", "sea ", "Oil"},
		Price: 120.5,
	})
	require.NoError(t, err)
	assert.Equal(t, "Harbour at Dusk", got.Title)
	assert.Equal(t, artist.ID, got.ArtistID)
	assert.ElementsMatch(t, []string{"sea", "oil"}, got.Tags)
	assert.Equal(t, 120.5, got.Price)
	assert.Equal(t, works.StatusAvailable, got.Status)
	require.NotNil(t, got.Artist)
	assert.Equal(t, artist.Name, got.Artist.Name)
}

func TestCreateRequiresArtistRole(t *testing.T) {
	svc, _ := newService(t)
	viewer := testutil.CreateUser(t, svc.DB, users.RoleViewer)

	_, err := svc.Create(context.Background(), access.ActorFor(viewer), CreateArtworkRequest{Title: "Nope"})
	assert.ErrorIs(t, err, access.ErrForbidden)

	_, err = svc.Create(context.Background(), access.Actor{}, CreateArtworkRequest{Title: "Nope"})
	assert.ErrorIs(t, err, access.ErrNotLoggedIn)
}

func TestCreateRejectsUnknownGallery(t *testing.T) {
	svc, _ := newService(t)
	artist := testutil.CreateUser(t, svc.DB, users.RoleArtist)
	missing := "7b0f0c9e-62a8-4a53-9d40-8d1c8b1b6a11"

	_, err := svc.Create(context.Background(), access.ActorFor(artist), CreateArtworkRequest{Title: "X", GalleryID: &missing})
	assert.True(t, apperr.IsKind(err, apperr.InvalidInput))

	var n int64
	svc.DB.Model(&works.Artwork{}).Count(&n)
	assert.Zero(t, n)
}

func TestBlankGalleryIDClearsTheGallery(t *testing.T) {
	svc, _ := newService(t)
	artist := testutil.CreateUser(t, svc.DB, users.RoleArtist)
	actor := access.ActorFor(artist)
	g := works.Gallery{Name: "North", Slug: "north"}
	require.NoError(t, svc.DB.Create(&g).Error)
	blank := ""

	created, err := svc.Create(context.Background(), actor, CreateArtworkRequest{Title: "Loose", GalleryID: &blank})
	require.NoError(t, err)
	assert.Nil(t, created.GalleryID)

	hung, err := svc.Update(context.Background(), actor, created.ID, UpdateArtworkRequest{GalleryID: &g.ID})
	require.NoError(t, err)
	require.NotNil(t, hung.GalleryID)
	assert.Equal(t, g.ID, *hung.GalleryID)

	cleared, err := svc.Update(context.Background(), actor, created.ID, UpdateArtworkRequest{GalleryID: &blank})
	require.NoError(t, err)
	assert.Nil(t, cleared.GalleryID)
}

func TestUpdateChecksExistenceThenOwnership(t *testing.T) {
	svc, _ := newService(t)
	owner := testutil.CreateUser(t, svc.DB, users.RoleArtist)
	other := testutil.CreateUser(t, svc.DB, users.RoleArtist)
	admin := testutil.CreateUser(t, svc.DB, users.RoleAdmin)
	a := testutil.CreateArtwork(t, svc.DB, owner.ID, "Still Life", 5000)
	title := "Renamed"

	_, err := svc.Update(context.Background(), access.ActorFor(other), "00000000-0000-0000-0000-000000000000", UpdateArtworkRequest{Title: &title})
	assert.True(t, apperr.IsKind(err, apperr.NotFound))

	_, err = svc.Update(context.Background(), access.ActorFor(other), a.ID, UpdateArtworkRequest{Title: &title})
	assert.ErrorIs(t, err, access.ErrForbidden)

	got, err := svc.Update(context.Background(), access.ActorFor(admin), a.ID, UpdateArtworkRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, owner.ID, got.ArtistID)
}

func TestUpdateStatusRules(t *testing.T) {
	svc, _ := newService(t)
	owner := testutil.CreateUser(t, svc.DB, users.RoleArtist)
	actor := access.ActorFor(owner)
	a := testutil.CreateArtwork(t, svc.DB, owner.ID, "Still Life", 5000)

	sold := works.StatusSold
	_, err := svc.Update(context.Background(), actor, a.ID, UpdateArtworkRequest{Status: &sold})
	assert.True(t, apperr.IsKind(err, apperr.InvalidInput))

	nfs := works.StatusNotForSale
	got, err := svc.Update(context.Background(), actor, a.ID, UpdateArtworkRequest{Status: &nfs})
	require.NoError(t, err)
	assert.Equal(t, works.StatusNotForSale, got.Status)

	require.NoError(t, svc.DB.Model(&works.Artwork{}).Where("id = ?", a.ID).Update("status", works.StatusSold).Error)
	avail := works.StatusAvailable
	_, err = svc.Update(context.Background(), actor, a.ID, UpdateArtworkRequest{Status: &avail})
	assert.True(t, apperr.IsKind(err, apperr.Conflict))
}

func TestUpdateReplacesTagsAndPrice(t *testing.T) {
	svc, _ := newService(t)
	owner := testutil.CreateUser(t, svc.DB, users.RoleArtist)
	created, err := svc.Create(context.Background(), access.ActorFor(owner), CreateArtworkRequest{Title: "T", Tags: []string{"a", "b"}})
	require.NoError(t, err)

	tags := []string{"C"}
	price := 99.99
	got, err := svc.Update(context.Background(), access.ActorFor(owner), created.ID, UpdateArtworkRequest{Tags: &tags, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, got.Tags)
	assert.Equal(t, 99.99, got.Price)
}

func TestDeleteRemovesDependentsAndImage(t *testing.T) {
	svc, images := newService(t)
	owner := testutil.CreateUser(t, svc.DB, users.RoleArtist)
	fan := testutil.CreateUser(t, svc.DB, users.RoleViewer)
	a := testutil.CreateArtwork(t, svc.DB, owner.ID, "Gone Soon", 100)

	_, err := svc.UploadImage(context.Background(), access.ActorFor(owner), a.ID, pngBytes)
	require.NoError(t, err)
	_, err = svc.Like(context.Background(), access.ActorFor(fan), a.ID)
	require.NoError(t, err)
	require.NoError(t, svc.DB.Create(&works.Comment{Text: "nice", ArtworkID: a.ID, UserID: fan.ID}).Error)

	require.NoError(t, svc.Delete(context.Background(), access.ActorFor(owner), a.ID))

	for _, model := range []any{&works.Artwork{}, &works.ArtworkLike{}, &works.Comment{}} {
		var n int64
		svc.DB.Model(model).Count(&n)
		assert.Zero(t, n)
	}
	assert.Len(t, images.Deleted, 1)
	assert.Empty(t, images.Objects)
}

func TestLikeIsIdempotentAndCountMatchesSet(t *testing.T) {
	svc, _ := newService(t)
	owner := testutil.CreateUser(t, svc.DB, users.RoleArtist)
	fan := testutil.CreateUser(t, svc.DB, users.RoleViewer)
	a := testutil.CreateArtwork(t, svc.DB, owner.ID, "Loved", 100)

	n, err := svc.Like(context.Background(), access.ActorFor(fan), a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = svc.Like(context.Background(), access.ActorFor(fan), a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = svc.Unlike(context.Background(), access.ActorFor(fan), a.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = svc.Unlike(context.Background(), access.ActorFor(fan), a.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = svc.Like(context.Background(), access.Actor{}, a.ID)
	assert.ErrorIs(t, err, access.ErrNotLoggedIn)
	_, err = svc.Like(context.Background(), access.ActorFor(fan), "00000000-0000-0000-0000-000000000000")
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestConcurrentLikesAreNotLost(t *testing.T) {
	svc, _ := newService(t)
	owner := testutil.CreateUser(t, svc.DB, users.RoleArtist)
	a := testutil.CreateArtwork(t, svc.DB, owner.ID, "Popular", 100)

	fans := make([]users.User, 8)
	for i := range fans {
		fans[i] = testutil.CreateUser(t, svc.DB, users.RoleViewer)
	}
	var wg sync.WaitGroup
	for _, f := range fans {
		wg.Add(1)
		go func(u users.User) {
			defer wg.Done()
			_, err := svc.Like(context.Background(), access.ActorFor(u), a.ID)
			assert.NoError(t, err)
		}(f)
	}
	wg.Wait()

	got, err := svc.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, len(fans), got.LikesCount)

	favs, _, err := svc.ListFavorites(context.Background(), access.ActorFor(fans[0]), url.Values{})
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, a.ID, favs[0].ID)
}

func TestListFiltersSortsAndSearches(t *testing.T) {
	svc, _ := newService(t)
	artist := testutil.CreateUser(t, svc.DB, users.RoleArtist)
	other := testutil.CreateUser(t, svc.DB, users.RoleArtist)
	testutil.CreateArtwork(t, svc.DB, artist.ID, "Blue Sea", 10000)
	testutil.CreateArtwork(t, svc.DB, artist.ID, "Red Sky", 25000)
	testutil.CreateArtwork(t, svc.DB, other.ID, "Blue Moon", 500)

	list, _, err := svc.List(context.Background(), url.Values{"price[gte]": {"50"}, "sort": {"-price"}})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Red Sky", list[0].Title)
	require.NotNil(t, list[0].Artist)

	list, _, err = svc.Search(context.Background(), "blue", url.Values{"sort": {"title"}})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Blue Moon", list[0].Title)

	list, _, err = svc.ListByArtist(context.Background(), other.ID, url.Values{})
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, fields, err := svc.List(context.Background(), url.Values{"fields": {"title"}, "limit": {"1"}})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, []string{"id", "title"}, fields)

	_, _, err = svc.List(context.Background(), url.Values{"price[$ne]": {"1"}})
	assert.True(t, apperr.IsKind(err, apperr.InvalidInput))

	list, _, err = svc.List(context.Background(), url.Values{"year[gt]": {"3000"}})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUploadImageReplacesPrevious(t *testing.T) {
	svc, images := newService(t)
	owner := testutil.CreateUser(t, svc.DB, users.RoleArtist)
	other := testutil.CreateUser(t, svc.DB, users.RoleArtist)
	a := testutil.CreateArtwork(t, svc.DB, owner.ID, "Pictured", 100)

	first, err := svc.UploadImage(context.Background(), access.ActorFor(owner), a.ID, pngBytes)
	require.NoError(t, err)
	assert.NotEmpty(t, first.Image.URL)

	second, err := svc.UploadImage(context.Background(), access.ActorFor(owner), a.ID, pngBytes)
	require.NoError(t, err)
	assert.NotEqual(t, first.Image.PublicID, second.Image.PublicID)
	assert.Equal(t, []string{first.Image.PublicID}, images.Deleted)

	_, err = svc.UploadImage(context.Background(), access.ActorFor(owner), a.ID, []byte("plain text"))
	assert.True(t, apperr.IsKind(err, apperr.InvalidInput))

	_, err = svc.UploadImage(context.Background(), access.ActorFor(other), a.ID, pngBytes)
	assert.ErrorIs(t, err, access.ErrForbidden)
}
