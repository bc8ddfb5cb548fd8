package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// healthTimeout bounds a single readiness ping.
const healthTimeout = 2 * time.Second

// DB is the Postgres pool behind the attendance, roster, notes and profile repositories.
type DB struct {
	Client *sql.DB
}

// NewDB opens a pgx pool of at most maxConns connections and pings it.
// The DB is returned even when the ping fails so the API can start degraded
// and report it on /healthz.
func NewDB(ctx context.Context, connString string, maxConns int) (*DB, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}
	return configure(ctx, db, maxConns)
}

func configure(ctx context.Context, db *sql.DB, maxConns int) (*DB, error) {
	if maxConns < 1 {
		maxConns = 1
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns((maxConns + 1) / 2)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return &DB{Client: db}, db.PingContext(pingCtx)
}

// Healthy pings the database, giving up after healthTimeout.
func (d *DB) Healthy(ctx context.Context) bool {
	if d == nil || d.Client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	return d.Client.PingContext(ctx) == nil
}

func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}
