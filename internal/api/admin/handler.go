// Package admin serves the back-office dashboard.
package admin

import (
	"context"
	"net/http"
	"time"

	"gallery-api/internal/api/respond"
	"gallery-api/internal/apperr"
	"gallery-api/internal/domain/access"
	"gallery-api/internal/domain/money"
	"gallery-api/internal/domain/orders"
	"gallery-api/internal/domain/users"
	"gallery-api/internal/domain/works"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RecentWindow is how far back "recent" revenue reaches.
const RecentWindow = 30 * 24 * time.Hour

type Stats struct {
	TotalUsers       int64            `json:"total_users"`
	UsersPerRole     map[string]int64 `json:"users_per_role"`
	TotalArtworks    int64            `json:"total_artworks"`
	ArtworksByStatus map[string]int64 `json:"artworks_by_status"`
	TotalOrders      int64            `json:"total_orders"`
	OrdersByStatus   map[string]int64 `json:"orders_by_status"`
	TotalRevenue     float64          `json:"total_revenue"`
	RecentRevenue    float64          `json:"recent_revenue"`
	Galleries        int64            `json:"galleries"`
	Exhibitions      int64            `json:"exhibitions"`
}

type Service struct {
	DB  *gorm.DB
	Now func() time.Time
}

// DashboardStats counts active users, the catalogue and orders. Revenue
// sums only orders whose payment succeeded.
func (s *Service) DashboardStats(ctx context.Context, actor access.Actor) (Stats, error) {
	if !actor.Authenticated() {
		return Stats{}, access.ErrNotLoggedIn
	}
	if !actor.IsAdmin() {
		return Stats{}, access.ErrForbidden
	}
	db := s.DB.WithContext(ctx)
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}

	var st Stats
	var err error
	if st.UsersPerRole, st.TotalUsers, err = countBy(db.Model(&users.User{}).Scopes(users.ActiveOnly), "role"); err != nil {
		return Stats{}, err
	}
	if st.ArtworksByStatus, st.TotalArtworks, err = countBy(db.Model(&works.Artwork{}), "status"); err != nil {
		return Stats{}, err
	}
	if st.OrdersByStatus, st.TotalOrders, err = countBy(db.Model(&orders.Order{}), "status"); err != nil {
		return Stats{}, err
	}

	var total, recent int64
	paid := db.Model(&orders.Order{}).Where("payment_status = ?", orders.PaymentSucceeded)
	if err := paid.Session(&gorm.Session{}).Select("COALESCE(SUM(total_cents), 0)").Scan(&total).Error; err != nil {
		return Stats{}, apperr.FromDB(err, "")
	}
	if err := paid.Session(&gorm.Session{}).
		Where("payment_paid_at >= ?", now.Add(-RecentWindow)).
		Select("COALESCE(SUM(total_cents), 0)").Scan(&recent).Error; err != nil {
		return Stats{}, apperr.FromDB(err, "")
	}
	st.TotalRevenue = money.FromCents(total)
	st.RecentRevenue = money.FromCents(recent)

	if err := db.Model(&works.Gallery{}).Count(&st.Galleries).Error; err != nil {
		return Stats{}, apperr.FromDB(err, "")
	}
	if err := db.Model(&works.Exhibition{}).Count(&st.Exhibitions).Error; err != nil {
		return Stats{}, apperr.FromDB(err, "")
	}
	return st, nil
}

func countBy(q *gorm.DB, column string) (map[string]int64, int64, error) {
	type row struct {
		Bucket string
		Count  int64
	}
	var rows []row
	if err := q.Select(column + " AS bucket, COUNT(*) AS count").Group(column).Scan(&rows).Error; err != nil {
		return nil, 0, apperr.FromDB(err, "")
	}
	out := make(map[string]int64, len(rows))
	var total int64
	for _, r := range rows {
		out[r.Bucket] = r.Count
		total += r.Count
	}
	return out, total, nil
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// GET /admin/dashboard/stats
func (h *Handler) GetAdminStats(c *gin.Context) {
	stats, err := h.svc.DashboardStats(c.Request.Context(), respond.Actor(c))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, gin.H{"stats": stats})
}
