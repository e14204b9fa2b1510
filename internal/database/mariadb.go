// Package database owns the lifecycle of the two backing stores: the MariaDB
// pool that holds accounts and the Redis client behind the rate limiter.
// Both are opened once at startup and handed to the rest of the application
// through dependency injection.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	// Registers the "mysql" driver with database/sql.
	_ "github.com/go-sql-driver/mysql"

	"github.com/venslow/gatehouse/internal/config"
)

// Startup ping retry. MariaDB is often still initializing when the app
// container comes up; backing off here beats crash-looping the process.
const (
	pingAttempts   = 10
	pingTimeout    = 5 * time.Second
	maxPingBackoff = 30 * time.Second
)

// NewMariaDB opens the accounts database pool and verifies connectivity,
// retrying with exponential backoff while the server warms up.
func NewMariaDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening mariadb pool: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	var lastErr error
	backoff := time.Second

	for attempt := 1; attempt <= pingAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		lastErr = db.PingContext(ctx)
		cancel()

		if lastErr == nil {
			return db, nil
		}
		if attempt == pingAttempts {
			break
		}

		slog.Warn("mariadb not ready, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("backoff", backoff),
			slog.Any("error", lastErr),
		)
		time.Sleep(backoff)
		backoff = min(backoff*2, maxPingBackoff)
	}

	db.Close()
	return nil, fmt.Errorf("pinging mariadb after %d attempts: %w", pingAttempts, lastErr)
}
