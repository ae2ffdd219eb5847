package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"mobile-pos/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Service owns the PostgreSQL connection pool
type Service interface {
	DB() *sql.DB
	Health(ctx context.Context) map[string]string
	Close() error
}

type service struct {
	db *sql.DB
}

// DSN builds the pgx connection string for the configured database
func DSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&search_path=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode, cfg.Schema,
	)
}

// New opens a connection pool and verifies it with a ping
func New(ctx context.Context, cfg config.DatabaseConfig) (Service, error) {
	db, err := Open(ctx, DSN(cfg))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	return &service{db: db}, nil
}

// Open opens a pgx-backed *sql.DB for dsn and pings it
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func (s *service) DB() *sql.DB {
	return s.db
}

// Health reports pool statistics and whether the database answers a ping
func (s *service) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	stats := make(map[string]string)
	if err := s.db.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = err.Error()
		return stats
	}

	dbStats := s.db.Stats()
	stats["status"] = "up"
	stats["open_connections"] = strconv.Itoa(dbStats.OpenConnections)
	stats["in_use"] = strconv.Itoa(dbStats.InUse)
	stats["idle"] = strconv.Itoa(dbStats.Idle)
	stats["wait_count"] = strconv.FormatInt(dbStats.WaitCount, 10)
	stats["wait_duration"] = dbStats.WaitDuration.String()

	if dbStats.OpenConnections > 40 {
		stats["message"] = "the database is experiencing heavy load"
	}

	return stats
}

func (s *service) Close() error {
	return s.db.Close()
}
