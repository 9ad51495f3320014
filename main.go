package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gallery-api/config"
	"gallery-api/database"
	adminapi "gallery-api/internal/api/admin"
	artworksapi "gallery-api/internal/api/artworks"
	authapi "gallery-api/internal/api/auth"
	commentsapi "gallery-api/internal/api/comments"
	galleriesapi "gallery-api/internal/api/galleries"
	ordersapi "gallery-api/internal/api/orders"
	"gallery-api/internal/api/respond"
	usersapi "gallery-api/internal/api/users"
	routes "gallery-api/internal/app/http"
	"gallery-api/internal/app/http/middleware"
	"gallery-api/internal/app/jobs"
	"gallery-api/internal/domain/media"
	"gallery-api/internal/infra/metrics"
	"gallery-api/internal/infra/notify"
	"gallery-api/internal/infra/storage"
	"gallery-api/internal/infra/stripe"
	"gallery-api/internal/logging"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.LoadEnv()
	log := logging.New(cfg.AppName, cfg.AppEnv)

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	} else if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	respond.SetProduction(!cfg.IsDevelopment())
	respond.InitValidation()

	database.InitDB(cfg.DBDriver, cfg.DBURL, cfg.IsDevelopment())
	db := database.DB

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifier, closeNotifier := newNotifier(cfg, log)
	defer closeNotifier()

	var images media.ImageStore
	if cfg.GCSBucket != "" {
		client, err := storage.NewGCSClient(ctx, cfg.GCSCredentialsFile)
		if err != nil {
			log.WithError(err).Fatal("❌ Failed to create GCS client")
		}
		defer client.Close()
		images = storage.NewGCSStore(client, cfg.GCSBucket, "uploads")
	} else {
		log.Warn("GCS_BUCKET not set, image uploads are disabled")
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.WithError(err).Warn("redis unreachable, rate limiting fails open")
		}
		defer rdb.Close()
	}

	if cfg.StripeSecretKey == "" || cfg.StripeWebhookSecret == "" {
		log.Warn("Stripe keys not set, checkout and webhooks will fail")
	}
	payments := stripe.NewProvider(cfg.StripeSecretKey, cfg.StripeWebhookSecret)

	tokens := authapi.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	authSvc := &authapi.Service{DB: db, Tokens: tokens, Notifier: notifier, Log: log, AppName: cfg.AppName, AppURL: cfg.AppURL}
	usersSvc := &usersapi.Service{
		DB:       db,
		Tokens:   tokens,
		Notifier: notifier,
		Log:      log,
		AppName:  cfg.AppName,
		ResetURL: cfg.AppURL + "/reset-password",
	}
	galleriesSvc := &galleriesapi.Service{DB: db, Log: log}
	ordersSvc := &ordersapi.Service{
		DB:             db,
		Payments:       payments,
		Notifier:       notifier,
		Log:            log,
		AppName:        cfg.AppName,
		AppURL:         cfg.AppURL,
		Currency:       cfg.Currency,
		PaymentTimeout: cfg.PaymentTimeout,
		PendingTTL:     cfg.PendingOrderTTL,
	}

	var google *authapi.Google
	if cfg.GoogleEnabled() {
		google = authapi.NewGoogle(authapi.GoogleConfig{
			ClientID:         cfg.GoogleClientID,
			ClientSecret:     cfg.GoogleClientSecret,
			RedirectURL:      cfg.GoogleRedirectURL,
			FrontendRedirect: cfg.GoogleFrontendRedirect,
			SecureCookie:     !cfg.IsDevelopment(),
		}, authSvc)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	if cfg.MetricsEnabled {
		r.Use(metrics.Middleware())
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigin,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader, "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, routes.Deps{
		Auth:            authSvc,
		Google:          google,
		Users:           usersSvc,
		Artworks:        &artworksapi.Service{DB: db, Images: images, Log: log},
		Comments:        &commentsapi.Service{DB: db},
		Galleries:       galleriesSvc,
		Orders:          ordersSvc,
		Admin:           &adminapi.Service{DB: db},
		Redis:           rdb,
		RateLimitMax:    cfg.RateLimitMax,
		RateLimitWindow: cfg.RateLimitWindow,
		MetricsEnabled:  cfg.MetricsEnabled,
	})

	scheduler, err := jobs.New(log,
		jobs.PendingOrderSweep(ordersSvc, cfg.SweepSchedule),
		jobs.WebhookReplay(ordersSvc, cfg.WebhookReplaySchedule),
		jobs.ExhibitionRefresh(galleriesSvc, cfg.ExhibitionSchedule),
	)
	if err != nil {
		log.WithError(err).Fatal("❌ Invalid job schedule")
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("port", cfg.Port).Info("🚀 server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	scheduler.Stop(shutdownCtx)
}

func newNotifier(cfg *config.Config, log logrus.FieldLogger) (notify.Notifier, func()) {
	switch cfg.Notifier {
	case "mailgun":
		return notify.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender), func() {}
	case "queue":
		q, err := notify.NewQueue(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			log.WithError(err).Fatal("❌ Failed to connect to RabbitMQ")
		}
		return q, q.Close
	default:
		return notify.LogNotifier{Log: log}, func() {}
	}
}
