// Package main runs the background job worker (orphaned storage cleanup).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nexlearn/backend/config"
	"github.com/nexlearn/backend/internal/worker"
	"github.com/nexlearn/backend/pkg/queue"
	"github.com/nexlearn/backend/pkg/redis"
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
	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	s3Cfg := storage.S3Config{
		Region:               cfg.AWS.Region,
		AccessKeyID:          cfg.AWS.AccessKeyID,
		SecretAccessKey:      cfg.AWS.SecretAccessKey,
		MediaBucket:          cfg.AWS.MediaBucket,
		VideosBucket:         cfg.AWS.VideosBucket,
		PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
	}
	s3Client, err := storage.NewS3(ctx, s3Cfg, logger)
	if err != nil {
		logger.Fatal("s3", zap.Error(err))
	}

	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewCleanupProcessor(s3Client, jobQueue, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go processor.Run(workerCtx)
	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
