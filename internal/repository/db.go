package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/shiftremit/backend/internal/config"
)

type scanner interface {
	Scan(dest ...any) error
}

// Open connects to postgres and applies the pool settings from config.
func Open(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("Open: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetimeS) * time.Second)
	db.SetConnMaxIdleTime(time.Duration(cfg.DBConnMaxIdleTimeS) * time.Second)

	return db, nil
}

// WaitForDB pings until the database accepts connections or the context is
// done. Used at startup where the database container may still be warming up.
func WaitForDB(ctx context.Context, db *sql.DB) error {
	var err error
	for {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("WaitForDB: %w (last ping: %v)", ctx.Err(), err)
		case <-time.After(time.Second):
		}
	}
}

const pqUniqueViolation = "23505"

// isUniqueViolation reports whether err is a postgres unique-constraint
// violation on the named constraint.
func isUniqueViolation(err error, constraint string) bool {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return false
	}
	return pqErr.Code == pqUniqueViolation && pqErr.Constraint == constraint
}
