package galleries

import (
	"context"
	"net/url"
	"testing"
	"time"

	"gallery-api/internal/apperr"
	"gallery-api/internal/domain/access"
	"gallery-api/internal/domain/users"
	"gallery-api/internal/domain/works"
	"gallery-api/internal/logging"
	"gallery-api/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T) *Service {
	t.Helper()
	return &Service{DB: testutil.NewDB(t), Log: logging.Discard(), Now: func() time.Time { return fixedNow }}
}

func TestGalleryCRUDIsAdminOnly(t *testing.T) {
	svc := newService(t)
	admin := access.ActorFor(testutil.CreateUser(t, svc.DB, users.RoleAdmin))
	artist := access.ActorFor(testutil.CreateUser(t, svc.DB, users.RoleArtist))

	_, err := svc.CreateGallery(context.Background(), artist, CreateGalleryRequest{Name: "East Wing"})
	assert.ErrorIs(t, err, access.ErrForbidden)

	g, err := svc.CreateGallery(context.Background(), admin, CreateGalleryRequest{Name: "East Wing", Description: "modern"})
	require.NoError(t, err)
	assert.Equal(t, "east-wing", g.Slug)

	_, err = svc.CreateGallery(context.Background(), admin, CreateGalleryRequest{Name: "East Wing"})
	assert.True(t, apperr.IsKind(err, apperr.Conflict))

	bySlug, err := svc.GetGallery(context.Background(), "east-wing")
	require.NoError(t, err)
	assert.Equal(t, g.ID, bySlug.ID)

	name := "West Wing"
	_, err = svc.UpdateGallery(context.Background(), artist, g.ID, UpdateGalleryRequest{Name: &name})
	assert.ErrorIs(t, err, access.ErrForbidden)
	updated, err := svc.UpdateGallery(context.Background(), admin, g.ID, UpdateGalleryRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "west-wing", updated.Slug)

	_, err = svc.UpdateGallery(context.Background(), admin, "00000000-0000-0000-0000-000000000000", UpdateGalleryRequest{Name: &name})
	assert.True(t, apperr.IsKind(err, apperr.NotFound))

	require.NoError(t, svc.DeleteGallery(context.Background(), admin, g.ID))
	_, err = svc.GetGallery(context.Background(), g.ID)
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestSlugCollisionGetsSuffix(t *testing.T) {
	svc := newService(t)
	admin := access.ActorFor(testutil.CreateUser(t, svc.DB, users.RoleAdmin))

	_, err := svc.CreateGallery(context.Background(), admin, CreateGalleryRequest{Name: "Modern Art"})
	require.NoError(t, err)
	g, err := svc.CreateGallery(context.Background(), admin, CreateGalleryRequest{Name: "Modern-Art!"})
	require.NoError(t, err)
	assert.Equal(t, "modern-art-2", g.Slug)
}

func TestSetArtworksKeepsInputOrder(t *testing.T) {
	svc := newService(t)
	admin := access.ActorFor(testutil.CreateUser(t, svc.DB, users.RoleAdmin))
	artist := testutil.CreateUser(t, svc.DB, users.RoleArtist)
	a1 := testutil.CreateArtwork(t, svc.DB, artist.ID, "One", 100)
	a2 := testutil.CreateArtwork(t, svc.DB, artist.ID, "Two", 100)
	a3 := testutil.CreateArtwork(t, svc.DB, artist.ID, "Three", 100)

	g, err := svc.CreateGallery(context.Background(), admin, CreateGalleryRequest{Name: "Hall"})
	require.NoError(t, err)

	got, err := svc.SetArtworks(context.Background(), admin, g.ID, []string{a3.ID, a1.ID})
	require.NoError(t, err)
	require.Len(t, got.Artworks, 2)
	assert.Equal(t, a3.ID, got.Artworks[0].ID)
	assert.Equal(t, a1.ID, got.Artworks[1].ID)

	got, err = svc.SetArtworks(context.Background(), admin, g.ID, []string{a2.ID})
	require.NoError(t, err)
	require.Len(t, got.Artworks, 1)

	var detached works.Artwork
	require.NoError(t, svc.DB.First(&detached, "id = ?", a3.ID).Error)
	assert.Nil(t, detached.GalleryID)
	var attached works.Artwork
	require.NoError(t, svc.DB.First(&attached, "id = ?", a2.ID).Error)
	require.NotNil(t, attached.GalleryID)
	assert.Equal(t, g.ID, *attached.GalleryID)

	_, err = svc.SetArtworks(context.Background(), admin, g.ID, []string{"00000000-0000-0000-0000-000000000000"})
	assert.True(t, apperr.IsKind(err, apperr.InvalidInput))
	_, err = svc.SetArtworks(context.Background(), admin, g.ID, []string{a1.ID, a1.ID})
	assert.True(t, apperr.IsKind(err, apperr.InvalidInput))
}

func TestExhibitionDatesAndDerivedStatus(t *testing.T) {
	svc := newService(t)
	admin := access.ActorFor(testutil.CreateUser(t, svc.DB, users.RoleAdmin))
	curator := testutil.CreateUser(t, svc.DB, users.RoleArtist)
	a := testutil.CreateArtwork(t, svc.DB, curator.ID, "Shown", 100)

	_, err := svc.CreateExhibition(context.Background(), admin, CreateExhibitionRequest{
		Title: "Backwards", Description: "d", StartDate: "2026-07-10", EndDate: "2026-07-01",
	})
	assert.True(t, apperr.IsKind(err, apperr.InvalidInput))

	e, err := svc.CreateExhibition(context.Background(), admin, CreateExhibitionRequest{
		Title:            "Summer Light",
		Description:      "works on light",
		StartDate:        "2026-06-01",
		EndDate:          "2026-07-01",
		FeaturedArtworks: []string{a.ID},
		Curators:         []uint{curator.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, works.ExhibitionOngoing, e.Status)
	require.Len(t, e.FeaturedArtworks, 1)
	require.Len(t, e.Curators, 1)
	assert.Equal(t, curator.Name, e.Curators[0].Name)

	_, err = svc.CreateExhibition(context.Background(), admin, CreateExhibitionRequest{
		Title: "Summer Light", Description: "again", StartDate: "2026-06-01", EndDate: "2026-07-01",
	})
	assert.True(t, apperr.IsKind(err, apperr.Conflict))

	// only one end moves, checked against the stored other end
	early := "2026-05-01"
	_, err = svc.UpdateExhibition(context.Background(), admin, e.ID, UpdateExhibitionRequest{EndDate: &early})
	assert.True(t, apperr.IsKind(err, apperr.InvalidInput))

	later := "2026-08-01"
	got, err := svc.UpdateExhibition(context.Background(), admin, e.ID, UpdateExhibitionRequest{StartDate: &later, EndDate: ptr("2026-09-01")})
	require.NoError(t, err)
	assert.Equal(t, works.ExhibitionUpcoming, got.Status)

	viewer := access.ActorFor(testutil.CreateUser(t, svc.DB, users.RoleViewer))
	assert.ErrorIs(t, svc.DeleteExhibition(context.Background(), viewer, e.ID), access.ErrForbidden)
	require.NoError(t, svc.DeleteExhibition(context.Background(), admin, e.ID))
}

func TestExhibitionGalleryReference(t *testing.T) {
	svc := newService(t)
	admin := access.ActorFor(testutil.CreateUser(t, svc.DB, users.RoleAdmin))
	g, err := svc.CreateGallery(context.Background(), admin, CreateGalleryRequest{Name: "Annex"})
	require.NoError(t, err)

	e, err := svc.CreateExhibition(context.Background(), admin, CreateExhibitionRequest{
		Title: "Prints", Description: "d", StartDate: "2026-06-01", EndDate: "2026-07-01", GalleryID: ptr(""),
	})
	require.NoError(t, err)
	assert.Nil(t, e.GalleryID)

	_, err = svc.UpdateExhibition(context.Background(), admin, e.ID, UpdateExhibitionRequest{GalleryID: ptr("7b0f0c9e-62a8-4a53-9d40-8d1c8b1b6a11")})
	assert.True(t, apperr.IsKind(err, apperr.InvalidInput))

	got, err := svc.UpdateExhibition(context.Background(), admin, e.ID, UpdateExhibitionRequest{GalleryID: &g.ID})
	require.NoError(t, err)
	require.NotNil(t, got.GalleryID)
	assert.Equal(t, g.ID, *got.GalleryID)

	got, err = svc.UpdateExhibition(context.Background(), admin, e.ID, UpdateExhibitionRequest{GalleryID: ptr("")})
	require.NoError(t, err)
	assert.Nil(t, got.GalleryID)
}

func TestRefreshStatuses(t *testing.T) {
	svc := newService(t)
	admin := access.ActorFor(testutil.CreateUser(t, svc.DB, users.RoleAdmin))

	e, err := svc.CreateExhibition(context.Background(), admin, CreateExhibitionRequest{
		Title: "Spring", Description: "d", StartDate: "2026-06-20", EndDate: "2026-06-30",
	})
	require.NoError(t, err)
	assert.Equal(t, works.ExhibitionUpcoming, e.Status)

	n, err := svc.RefreshStatuses(context.Background(), time.Date(2026, 6, 25, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := svc.GetExhibition(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, works.ExhibitionOngoing, got.Status)

	n, err = svc.RefreshStatuses(context.Background(), time.Date(2026, 6, 25, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, n)

	list, _, err := svc.ListExhibitions(context.Background(), url.Values{"status": {"ongoing"}})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func ptr(s string) *string { return &s }
