package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all runtime settings for the service.
type Config struct {
	Port         string
	Environment  string
	DBDSN        string
	AMQPURL      string
	AMQPExchange string
	UploadDir    string

	// Matchmaking policy values. QueueTimeout bounds how long a user may
	// wait for a partner, GracePeriod bounds how long a dropped participant
	// may reclaim their session.
	QueueTimeout  time.Duration
	GracePeriod   time.Duration
	SweepInterval time.Duration
	SnapshotTTL   time.Duration
}

// Load reads configuration from an optional .env file and the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("could not read .env file")
	}

	return Config{
		Port:          getEnv("PORT", "8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		DBDSN:         getEnv("DB_DSN", ""),
		AMQPURL:       getEnv("AMQP_URL", ""),
		AMQPExchange:  getEnv("AMQP_EXCHANGE", "matchmaking_events"),
		UploadDir:     getEnv("UPLOAD_DIR", "uploads"),
		QueueTimeout:  getDuration("QUEUE_TIMEOUT", 5*time.Minute),
		GracePeriod:   getDuration("GRACE_PERIOD", 10*time.Minute),
		SweepInterval: getDuration("SWEEP_INTERVAL", 30*time.Second),
		SnapshotTTL:   getDuration("SNAPSHOT_TTL", 30*time.Minute),
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		logrus.WithField("key", key).WithError(err).Warn("invalid duration, using default")
		return fallback
	}
	return d
}
