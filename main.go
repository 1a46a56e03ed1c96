package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/lizhongyi/aqiang-chat/internal/config"
	"github.com/lizhongyi/aqiang-chat/internal/handlers"
	"github.com/lizhongyi/aqiang-chat/internal/hub"
	"github.com/lizhongyi/aqiang-chat/internal/observability"
	"github.com/lizhongyi/aqiang-chat/internal/rabbitmq"
	"github.com/lizhongyi/aqiang-chat/internal/storage"
	"github.com/lizhongyi/aqiang-chat/internal/ws"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg := config.Load()
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := buildStore(ctx, cfg)
	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()

	matchHub := hub.New(hub.Policies{
		QueueTimeout: cfg.QueueTimeout,
		GracePeriod:  cfg.GracePeriod,
	}, store, publisher)
	go matchHub.RunSweeper(ctx, cfg.SweepInterval)

	uploadHandler, err := handlers.NewUploadHandler(cfg.UploadDir)
	if err != nil {
		logrus.WithError(err).Fatal("upload handler init failed")
	}
	wsHandler := ws.NewHandler(matchHub)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/ws", wsHandler.Handle)
	router.POST("/upload", uploadHandler.Handle)
	router.Static("/uploads", cfg.UploadDir)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	logrus.WithField("port", cfg.Port).Info("server starting")
	if err := router.Run(":" + cfg.Port); err != nil {
		logrus.WithError(err).Fatal("server error")
	}
}

// buildStore connects to Postgres when a DSN is configured, otherwise falls
// back to a noop store. Snapshots are best-effort; a missing database never
// blocks startup.
func buildStore(ctx context.Context, cfg config.Config) storage.SessionStore {
	if cfg.DBDSN == "" {
		return storage.NewNoopStore("no DB_DSN configured")
	}

	db, err := storage.Connect(cfg.DBDSN)
	if err != nil {
		return storage.NewNoopStore(err.Error())
	}

	store := storage.NewPostgresStore(db)
	purged, err := store.PurgeStale(ctx, time.Now().Add(-cfg.SnapshotTTL))
	if err != nil {
		logrus.WithError(err).Warn("stale snapshot purge failed")
	} else if purged > 0 {
		logrus.WithField("count", purged).Info("purged stale session snapshots")
	}
	return store
}
