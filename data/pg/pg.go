package pg

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	pgOnce sync.Once
	pool   *pgxpool.Pool
)

// Init connects the process-wide pgx pool (singleton).
func Init(ctx context.Context, databaseURL string) error {
	var initErr error
	pgOnce.Do(func() {
		p, err := pgxpool.New(ctx, databaseURL)
		if err != nil {
			initErr = err
			return
		}
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := p.Ping(pingCtx); err != nil {
			initErr = err
			return
		}
		pool = p
	})
	return initErr
}

// Get returns the pool; Init must have been called.
func Get() *pgxpool.Pool {
	if pool == nil {
		panic("postgres not initialized, call pg.Init first")
	}
	return pool
}

func Close() {
	if pool != nil {
		pool.Close()
	}
}
