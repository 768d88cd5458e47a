package models

import (
	"context"
	"fmt"
	"time"

	"github.com/assetstore/backend/internal/config"
	"github.com/assetstore/backend/internal/pkg/logger"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Tables lists every persisted model in dependency order.
var Tables = []interface{}{
	&User{},
	&Asset{},
	&AssetTranslation{},
}

// sqlWriter feeds GORM's statement log into the application logger.
type sqlWriter struct {
	log *logger.Logger
}

func (w sqlWriter) Printf(format string, args ...interface{}) {
	w.log.Debug(fmt.Sprintf(format, args...))
}

func newSQLLogger(cfg *config.Config, log *logger.Logger) gormlogger.Interface {
	level := gormlogger.Info
	if cfg.Env == "production" {
		level = gormlogger.Warn
	}
	return gormlogger.New(sqlWriter{log: log.With("component", "gorm")}, gormlogger.Config{
		SlowThreshold:             cfg.DBSlowQuery,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

// InitDB opens the Postgres pool and verifies it answers.
func InitDB(cfg *config.Config, log *logger.Logger) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode, cfg.DBTimeZone)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:      newSQLLogger(cfg, log),
		NowFunc:     func() time.Time { return time.Now().UTC() },
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info("Database connection established", "host", cfg.DBHost, "db", cfg.DBName, "max_open", cfg.DBMaxOpenConns)
	return db, nil
}

// InitRedis returns a client for the rate limit counters. An unreachable
// server is logged, not fatal: the limiters fail open.
func InitRedis(cfg *config.Config, log *logger.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("Redis not reachable, rate limits are not enforced", "addr", client.Options().Addr, "error", err)
		return client
	}
	log.Info("Redis connection established", "addr", client.Options().Addr)
	return client
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Tables...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
