package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"gallery-api/internal/api/galleries"
	"gallery-api/internal/api/orders"
	"gallery-api/internal/domain/works"
	"gallery-api/internal/logging"
	"gallery-api/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadSchedule(t *testing.T) {
	_, err := New(logging.Discard(), Job{Name: "x", Schedule: "every now and then", Run: func(context.Context) (int64, error) { return 0, nil }})
	assert.Error(t, err)
}

func TestRunOnceSurvivesFailures(t *testing.T) {
	s, err := New(logging.Discard())
	require.NoError(t, err)

	calls := 0
	s.RunOnce(context.Background(), Job{Name: "failing", Run: func(ctx context.Context) (int64, error) {
		calls++
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return 0, errors.New("boom")
	}})
	assert.Equal(t, 1, calls)
}

func TestExhibitionRefreshJob(t *testing.T) {
	db := testutil.NewDB(t)
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	ex := works.Exhibition{
		Title:     "Summer",
		StartDate: now.Add(-24 * time.Hour),
		EndDate:   now.Add(24 * time.Hour),
		Status:    works.ExhibitionUpcoming,
	}
	require.NoError(t, db.Create(&ex).Error)

	svc := &galleries.Service{DB: db, Log: logging.Discard(), Now: func() time.Time { return now }}
	s, err := New(logging.Discard(), ExhibitionRefresh(svc, "@hourly"))
	require.NoError(t, err)
	s.RunOnce(context.Background(), ExhibitionRefresh(svc, "@hourly"))

	var got works.Exhibition
	require.NoError(t, db.First(&got, "id = ?", ex.ID).Error)
	assert.Equal(t, works.ExhibitionOngoing, got.Status)
}

func TestWebhookReplayJob(t *testing.T) {
	svc := &orders.Service{DB: testutil.NewDB(t), Log: logging.Discard()}
	j := WebhookReplay(svc, "@every 5m")
	_, err := New(logging.Discard(), j)
	require.NoError(t, err)

	n, err := j.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
