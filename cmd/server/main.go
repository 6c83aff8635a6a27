package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"booking-service/internal/app"
	"booking-service/internal/config"
	"booking-service/internal/logger"
	"booking-service/internal/server"
)

func main() {
	ctx := context.Background()
	cfg := config.MustLoad()
	log := logger.New(cfg.LogLevel, cfg.Env)
	defer log.Sync()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to db", zap.Error(err))
	}
	defer pool.Close()

	application := &app.App{
		DB:       pool,
		Cfg:      cfg,
		Log:      log,
		Calendar: app.NewCalendarService(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL),
		Mail:     app.NewEmailService(cfg.ResendAPIKey, cfg.FromEmail),
		Webcal:   app.NewWebcalClient(),
	}
	application.Drive = app.NewDriveTimeService(cfg.GoogleMapsAPIKey, redisCache(ctx, cfg, log), log)

	if err := application.EnsureSchema(ctx); err != nil {
		log.Fatal("schema setup failed", zap.Error(err))
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", application.HealthHandler)

	// OAuth2 callback (must be before auth middleware)
	router.GET("/oauth2callback", application.GoogleOAuth2CallbackHandler)

	api := router.Group("/api")
	{
		api.GET("/types", application.ListTypesHandler)
		api.GET("/slots", application.GetSlotsHandler)
		api.POST("/bookings", app.RateLimitMiddleware(cfg.BookingRatePerMinute), application.CreateBookingHandler)
		api.POST("/bookings/:id/cancel", application.CancelBookingHandler)

		admin := api.Group("/admin")
		admin.Use(app.AuthMiddleware(cfg.AdminTokens(), cfg.JWTSecret))
		{
			admin.GET("/types", application.AdminListTypesHandler)
			admin.POST("/types", application.AdminCreateTypeHandler)
			admin.PUT("/types/:id", application.AdminUpdateTypeHandler)
			admin.DELETE("/types/:id", application.AdminDeleteTypeHandler)

			admin.GET("/rules", application.AdminListRulesHandler)
			admin.POST("/rules", application.AdminCreateRuleHandler)
			admin.PUT("/rules/:id", application.AdminUpdateRuleHandler)
			admin.DELETE("/rules/:id", application.AdminDeleteRuleHandler)

			admin.GET("/blocked", application.AdminListBlockedHandler)
			admin.POST("/blocked", application.AdminCreateBlockedHandler)
			admin.DELETE("/blocked/:id", application.AdminDeleteBlockedHandler)

			admin.GET("/settings", application.AdminGetSettingsHandler)
			admin.PUT("/settings", application.AdminUpdateSettingsHandler)

			admin.GET("/bookings", application.AdminListBookingsHandler)
			admin.POST("/bookings/:id/reschedule", application.AdminRescheduleBookingHandler)

			admin.GET("/google/auth", application.GoogleAuthHandler)
		}
	}

	server.Run(router, cfg.Port, cfg.ShutdownTimeout, log)
}

// redisCache connects the drive-time cache. Redis being down is not fatal;
// drive-time lookups just go uncached.
func redisCache(ctx context.Context, cfg *config.Config, log *zap.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unavailable, drive-time cache disabled", zap.Error(err))
		client.Close()
		return nil
	}
	return client
}
