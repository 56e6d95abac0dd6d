// Package main runs the course marketplace HTTP server with graceful shutdown.
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

	"github.com/nexlearn/backend/config"
	"github.com/nexlearn/backend/internal/auth"
	"github.com/nexlearn/backend/internal/courses"
	"github.com/nexlearn/backend/internal/lectures"
	"github.com/nexlearn/backend/internal/middleware"
	"github.com/nexlearn/backend/internal/models"
	"github.com/nexlearn/backend/internal/progress"
	"github.com/nexlearn/backend/internal/purchases"
	"github.com/nexlearn/backend/internal/reviews"
	"github.com/nexlearn/backend/internal/worker"
	"github.com/nexlearn/backend/pkg/database"
	"github.com/nexlearn/backend/pkg/queue"
	"github.com/nexlearn/backend/pkg/redis"
	"github.com/nexlearn/backend/pkg/response"
	"github.com/nexlearn/backend/pkg/storage"
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

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			MediaBucket:          cfg.AWS.MediaBucket,
			VideosBucket:         cfg.AWS.VideosBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	releaser := storage.NewReleaser(s3Client, jobQueue, logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Courses and lectures
	courseRepo := courses.NewRepository(pool)
	lectureRepo := lectures.NewRepository(pool)
	aggregator := lectures.NewAggregator(lectureRepo, courseRepo, logger)
	courseHandler := courses.NewHandler(courseRepo, lectureRepo, s3Client, releaser, logger)
	lectureHandler := lectures.NewHandler(lectureRepo, courseRepo, aggregator, s3Client, releaser, logger)

	// Progress
	progressRepo := progress.NewRepository(pool)
	progressHandler := progress.NewHandler(progressRepo, courseRepo, lectureRepo, logger)

	// Purchases and payment webhook
	purchaseRepo := purchases.NewRepository(pool)
	purchaseHandler := purchases.NewHandler(purchaseRepo, courseRepo, logger)
	paymentWebhook := purchases.NewWebhookHandler(purchaseRepo, courseRepo, cfg.Payments.WebhookSecret, logger)

	// Reviews
	reviewRepo := reviews.NewRepository(pool)
	reviewHandler := reviews.NewHandler(reviewRepo, courseRepo, logger)

	// Storage cleanup worker (replaced/deleted videos and thumbnails)
	cleanupProcessor := worker.NewCleanupProcessor(s3Client, jobQueue, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	// Public catalogue
	router.GET("/courses", courseHandler.ListCourses)
	router.GET("/courses/:id", middleware.OptionalJWT(jwtService), courseHandler.GetCourse)
	router.GET("/courses/:id/reviews", reviewHandler.ListReviews)

	instructor := middleware.RequireRole(string(models.RoleInstructor), string(models.RoleAdmin))

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		api.GET("/auth/me", authHandler.Me)

		// Courses (instructor)
		api.POST("/courses", instructor, courseHandler.CreateCourse)
		api.GET("/courses/mine", instructor, courseHandler.MyCourses)
		api.PATCH("/courses/:id", instructor, courseHandler.UpdateCourse)
		api.PUT("/courses/:id/publish", instructor, courseHandler.SetPublished(true))
		api.PUT("/courses/:id/unpublish", instructor, courseHandler.SetPublished(false))
		api.PUT("/courses/:id/thumbnail", instructor, courseHandler.UploadThumbnail)
		api.PUT("/courses/:id/tutorial-video", instructor, courseHandler.UploadTutorialVideo)
		api.DELETE("/courses/:id", instructor, courseHandler.DeleteCourse)

		// Lectures and sub-lectures (instructor)
		api.POST("/courses/:id/lectures", instructor, lectureHandler.CreateLecture)
		api.PATCH("/lectures/:id", instructor, lectureHandler.UpdateLecture)
		api.DELETE("/lectures/:id", instructor, lectureHandler.DeleteLecture)
		api.POST("/lectures/:id/sub-lectures", instructor, lectureHandler.CreateSubLecture)
		api.PATCH("/lectures/:id/sub-lectures/:subId", instructor, lectureHandler.UpdateSubLecture)
		api.DELETE("/lectures/:id/sub-lectures/:subId", instructor, lectureHandler.DeleteSubLecture)

		// Playback (enrolled students and the course owner)
		api.GET("/lectures/:id/sub-lectures/:subId/play", lectureHandler.PlaybackURL)

		// Progress
		api.GET("/courses/:id/progress", progressHandler.GetCourseProgress)
		api.POST("/courses/:id/lectures/:lectureId/sub-lectures/:subId/viewed", progressHandler.MarkSubLectureViewed)
		api.POST("/courses/:id/progress/complete", progressHandler.MarkCompleted)
		api.POST("/courses/:id/progress/incomplete", progressHandler.MarkIncomplete)

		// Purchases and enrollment
		api.GET("/purchases", purchaseHandler.ListPurchases)
		api.POST("/courses/:id/enroll", purchaseHandler.EnrollFree)

		// Reviews
		api.PUT("/courses/:id/review", reviewHandler.PutReview)
		api.DELETE("/reviews/:id", reviewHandler.DeleteReview)
	}

	// Webhooks (no JWT; signature validated in handler when configured)
	router.POST("/webhooks/payment-completed", paymentWebhook.PaymentCompleted)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Background worker (orphaned object cleanup)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if s3Client != nil {
		go cleanupProcessor.Run(workerCtx)
		logger.Info("cleanup worker started")
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

	workerCancel()
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
