package admin

import (
	"context"
	"testing"
	"time"

	"gallery-api/internal/domain/access"
	"gallery-api/internal/domain/orders"
	"gallery-api/internal/domain/users"
	"gallery-api/internal/domain/works"
	"gallery-api/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardStats(t *testing.T) {
	db := testutil.NewDB(t)
	svc := &Service{DB: db}
	admin := testutil.CreateUser(t, db, users.RoleAdmin)
	artist := testutil.CreateUser(t, db, users.RoleArtist)
	buyer := testutil.CreateUser(t, db, users.RoleViewer)
	gone := testutil.CreateUser(t, db, users.RoleViewer)
	require.NoError(t, db.Model(&gone).Update("active", false).Error)

	sold := testutil.CreateArtwork(t, db, artist.ID, "Sold", 10000)
	testutil.CreateArtwork(t, db, artist.ID, "Open", 500)
	require.NoError(t, db.Model(&sold).Update("status", works.StatusSold).Error)

	paidAt := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, db.Create(&orders.Order{
		UserID: buyer.ID, TotalCents: 10000, Currency: "usd", Status: orders.StatusProcessing,
		Payment: orders.Payment{Method: orders.MethodStripe, Status: orders.PaymentSucceeded, PaidAt: &paidAt},
	}).Error)
	require.NoError(t, db.Create(&orders.Order{
		UserID: buyer.ID, TotalCents: 500, Currency: "usd", Status: orders.StatusPending,
		Payment: orders.Payment{Method: orders.MethodStripe, Status: orders.PaymentPending},
	}).Error)

	st, err := svc.DashboardStats(context.Background(), access.ActorFor(admin))
	require.NoError(t, err)
	assert.Equal(t, int64(3), st.TotalUsers)
	assert.Equal(t, int64(1), st.UsersPerRole[users.RoleArtist])
	assert.Equal(t, int64(2), st.TotalArtworks)
	assert.Equal(t, int64(1), st.ArtworksByStatus[works.StatusSold])
	assert.Equal(t, int64(2), st.TotalOrders)
	assert.Equal(t, 100.0, st.TotalRevenue)
	assert.Equal(t, 100.0, st.RecentRevenue)

	_, err = svc.DashboardStats(context.Background(), access.ActorFor(buyer))
	assert.ErrorIs(t, err, access.ErrForbidden)
}
