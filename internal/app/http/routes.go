package routes

import (
	"net/http"
	"time"

	adminapi "gallery-api/internal/api/admin"
	artworksapi "gallery-api/internal/api/artworks"
	authapi "gallery-api/internal/api/auth"
	commentsapi "gallery-api/internal/api/comments"
	galleriesapi "gallery-api/internal/api/galleries"
	ordersapi "gallery-api/internal/api/orders"
	stripewebhooks "gallery-api/internal/api/stripewebhook"
	usersapi "gallery-api/internal/api/users"
	"gallery-api/internal/app/http/middleware"
	"gallery-api/internal/domain/access"
	"gallery-api/internal/infra/metrics"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Deps carries the services the HTTP layer is built from.
type Deps struct {
	Auth      *authapi.Service
	Google    *authapi.Google
	Users     *usersapi.Service
	Artworks  *artworksapi.Service
	Comments  *commentsapi.Service
	Galleries *galleriesapi.Service
	Orders    *ordersapi.Service
	Admin     *adminapi.Service

	Redis           *redis.Client
	RateLimitMax    int
	RateLimitWindow time.Duration
	MetricsEnabled  bool
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(d.Redis, d.RateLimitMax, d.RateLimitWindow, middleware.KeyByIP()))

	// raw body, verified by signature; must not pass through the sanitizer
	api.POST("/orders/webhook", stripewebhooks.NewHandler(d.Orders).StripeWebhook)

	v1 := api.Group("")
	v1.Use(middleware.SanitizeAndCleanInputMiddleware())

	authn := middleware.AuthMiddleware(d.Auth)
	adminOnly := middleware.RequireRole(access.RoleAdmin)

	authH := authapi.NewHandler(d.Auth)
	userH := usersapi.NewHandler(d.Users)
	artH := artworksapi.NewHandler(d.Artworks)
	commentH := commentsapi.NewHandler(d.Comments)
	galleryH := galleriesapi.NewHandler(d.Galleries)
	orderH := ordersapi.NewHandler(d.Orders)
	adminH := adminapi.NewHandler(d.Admin)

	// auth and password lifecycle
	v1.POST("/users/signup", authH.Signup)
	v1.POST("/users/login", authH.Login)
	v1.GET("/auth/logout", authH.Logout)
	v1.POST("/auth/logout", authH.Logout)
	v1.POST("/users/forgotPassword", userH.ForgotPassword)
	v1.PATCH("/users/resetPassword/:token", userH.ResetPassword)
	if d.Google != nil {
		v1.GET("/auth/google", d.Google.Start)
		v1.GET("/auth/google/callback", d.Google.Callback)
	}

	// users
	me := v1.Group("/users", authn)
	me.PATCH("/updateMyPassword", userH.UpdateMyPassword)
	me.GET("/me", userH.GetMe)
	me.PATCH("/updateMe", userH.UpdateMe)
	me.DELETE("/deleteMe", userH.DeleteMe)
	me.GET("/me/favorites", artH.Favorites)

	adminUsers := v1.Group("/users", authn, adminOnly)
	adminUsers.GET("", userH.List)
	adminUsers.GET("/:id", userH.Get)
	adminUsers.PATCH("/:id", userH.Update)
	adminUsers.DELETE("/:id", userH.Delete)

	// artworks and comments
	v1.GET("/artworks", artH.List)
	v1.GET("/artworks/search/:query", artH.Search)
	v1.GET("/artworks/artist/:artistId", artH.ListByArtist)
	v1.GET("/artworks/:id", artH.Get)
	v1.GET("/artworks/:id/comments", commentH.List)
	v1.GET("/comments/:id", commentH.Get)

	art := v1.Group("", authn)
	art.POST("/artworks", artH.Create)
	art.PATCH("/artworks/:id", artH.Update)
	art.DELETE("/artworks/:id", artH.Delete)
	art.PATCH("/artworks/:id/image", artH.UploadImage)
	art.PATCH("/artworks/:id/like", artH.Like)
	art.PATCH("/artworks/:id/unlike", artH.Unlike)
	art.POST("/artworks/:id/comments", commentH.Create)
	art.PATCH("/comments/:id", commentH.Update)
	art.DELETE("/comments/:id", commentH.Delete)

	// galleries and exhibitions
	v1.GET("/galleries", galleryH.ListGalleries)
	v1.GET("/galleries/:id", galleryH.GetGallery)
	v1.GET("/exhibitions", galleryH.ListExhibitions)
	v1.GET("/exhibitions/:id", galleryH.GetExhibition)

	curate := v1.Group("", authn, adminOnly)
	curate.POST("/galleries", galleryH.CreateGallery)
	curate.PATCH("/galleries/:id", galleryH.UpdateGallery)
	curate.PUT("/galleries/:id/artworks", galleryH.SetArtworks)
	curate.DELETE("/galleries/:id", galleryH.DeleteGallery)
	curate.POST("/exhibitions", galleryH.CreateExhibition)
	curate.PATCH("/exhibitions/:id", galleryH.UpdateExhibition)
	curate.DELETE("/exhibitions/:id", galleryH.DeleteExhibition)

	// orders
	orders := v1.Group("/orders", authn)
	orders.POST("/checkout-session/:artworkId", orderH.CreateCheckoutSession)
	orders.GET("/my-orders", orderH.ListMine)
	orders.GET("/:id", orderH.Get)
	orders.GET("", adminOnly, orderH.ListAll)
	orders.PATCH("/:id", adminOnly, orderH.UpdateStatus)

	// admin
	admin := v1.Group("/admin", authn, adminOnly)
	admin.GET("/dashboard/stats", adminH.GetAdminStats)
	admin.PATCH("/users/role", userH.ChangeRole)
}
