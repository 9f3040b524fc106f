// Package main runs the Travonex marketplace HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/travonex/backend/config"
	"github.com/travonex/backend/internal/admin"
	"github.com/travonex/backend/internal/auth"
	"github.com/travonex/backend/internal/bookings"
	"github.com/travonex/backend/internal/coupons"
	"github.com/travonex/backend/internal/middleware"
	"github.com/travonex/backend/internal/organizers"
	"github.com/travonex/backend/internal/payments"
	"github.com/travonex/backend/internal/payouts"
	"github.com/travonex/backend/internal/trips"
	"github.com/travonex/backend/internal/wallet"
	"github.com/travonex/backend/pkg/database"
	"github.com/travonex/backend/pkg/queue"
	"github.com/travonex/backend/pkg/redis"
	"github.com/travonex/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Auth and wallet
	authRepo := auth.NewRepository(pool)
	walletRepo := wallet.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, walletRepo, jwtService, cfg.Platform, logger)
	walletHandler := wallet.NewHandler(walletRepo)

	// Organizers
	orgRepo := organizers.NewRepository(pool)
	orgHandler := organizers.NewHandler(orgRepo, cfg.Platform.DashboardRecentLimit, logger)

	// Trips and batches
	tripRepo := trips.NewRepository(pool)
	tripHandler := trips.NewHandler(tripRepo, orgRepo, logger)

	// Coupons
	couponRepo := coupons.NewRepository(pool)
	couponHandler := coupons.NewHandler(couponRepo)

	// Payments
	gateway := payments.NewRazorpayClient(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, cfg.Razorpay.BaseURL)
	paymentRepo := payments.NewRepository(pool)
	paymentHandler := payments.NewHandler(paymentRepo, tripRepo, couponRepo, walletRepo,
		gateway, cfg.Razorpay.KeyID, cfg.Platform, logger)

	// Bookings
	bookingRepo := bookings.NewRepository(pool)
	bookingHandler := bookings.NewHandler(pool, bookingRepo, tripRepo, couponRepo, walletRepo,
		paymentRepo, authRepo, jobQueue, cfg.Platform, logger)

	// Payouts
	payoutRepo := payouts.NewRepository(pool)
	payoutHandler := payouts.NewHandler(payoutRepo, orgRepo, cfg.Platform, logger)

	// Admin
	adminRepo := admin.NewRepository(pool)
	adminHandler := admin.NewHandler(pool, adminRepo, tripRepo, orgRepo, payoutRepo,
		bookingRepo, walletRepo, jobQueue, cfg.Platform, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Public catalog and coupon validation
	router.GET("/trips", tripHandler.List)
	router.GET("/trips/:slug", tripHandler.GetBySlug)
	router.POST("/coupons/validate", couponHandler.Validate)

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/signup", authHandler.Signup)
		authGroup.POST("/otp-signup", authHandler.OTPSignup)
		authGroup.POST("/login", authHandler.Login)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		api.GET("/auth/me", authHandler.Me)
		api.GET("/wallet", walletHandler.Get)

		// Bookings and payments
		api.POST("/payments/create-order", paymentHandler.CreateOrder)
		api.POST("/payments/verify", paymentHandler.Verify)
		api.GET("/bookings", bookingHandler.List)
		api.POST("/bookings", bookingHandler.Create)
		api.GET("/bookings/:id", bookingHandler.Get)
		api.POST("/bookings/:id/cancel", bookingHandler.Cancel)

		// Organizer profile, dashboard and trip management
		api.POST("/organizers", orgHandler.Register)
		org := api.Group("/organizers/me", middleware.RequireRole("organizer", "admin"))
		{
			org.GET("", orgHandler.Me)
			org.PUT("", orgHandler.Update)
			org.POST("/kyc", orgHandler.SubmitKYC)
			org.GET("/dashboard", orgHandler.Dashboard)

			org.GET("/trips", tripHandler.ListMine)
			org.POST("/trips", tripHandler.Create)
			org.PUT("/trips/:id", tripHandler.Update)
			org.POST("/trips/:id/submit", tripHandler.Submit)
			org.POST("/trips/:id/unlist", tripHandler.Unlist)
			org.POST("/trips/:id/batches", tripHandler.CreateBatch)
			org.PUT("/trips/:id/batches/:batchId", tripHandler.UpdateBatch)
		}

		// Payouts (organizer)
		pay := api.Group("/payouts", middleware.RequireRole("organizer", "admin"))
		{
			pay.GET("/eligible", payoutHandler.Eligible)
			pay.POST("", payoutHandler.Request)
			pay.GET("", payoutHandler.List)
		}

		// Admin
		adm := api.Group("/admin", middleware.RequireRole("admin"))
		{
			adm.GET("/dashboard", adminHandler.Dashboard)
			adm.GET("/users", authHandler.List)

			adm.GET("/trips", adminHandler.ListTrips)
			adm.POST("/trips/:id/approve", adminHandler.ApproveTrip)
			adm.POST("/trips/:id/reject", adminHandler.RejectTrip)

			adm.GET("/organizers", adminHandler.ListOrganizers)
			adm.POST("/organizers/:id/kyc", adminHandler.ReviewKYC)

			adm.POST("/coupons", couponHandler.Create)
			adm.GET("/coupons", couponHandler.List)
			adm.DELETE("/coupons/:id", couponHandler.Delete)

			adm.GET("/payouts", adminHandler.ListPayouts)
			adm.POST("/payouts/:id/pay", adminHandler.PayPayout)
			adm.POST("/payouts/:id/fail", adminHandler.FailPayout)

			adm.POST("/bookings/:id/refund", adminHandler.RefundBooking)

			adm.GET("/audit-logs", adminHandler.AuditLogs)
			adm.GET("/email-logs", adminHandler.EmailLogs)
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
