// Package bootstrap wires configuration into a running ApplicationService.
// Both binaries build their runtime here so they share one composition.
package bootstrap

import (
	"context"
	"fmt"

	"library-api/internal/app"
	"library-api/internal/auth"
	"library-api/internal/config"
	"library-api/internal/core"
	"library-api/internal/db"
	"library-api/internal/store/memory"
	"library-api/internal/store/postgres"
	"library-api/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// Runtime holds the wired service and the resources Close releases.
type Runtime struct {
	Service app.ApplicationService
	Audit   *core.AuditLogger

	pool *pgxpool.Pool
}

// Options change how Open builds the runtime.
type Options struct {
	// Migrate applies embedded migrations before the store is used.
	Migrate bool
}

// Open connects the configured store and builds every service on top of it.
func Open(ctx context.Context, cfg *config.Config, log *logrus.Logger, opts Options) (*Runtime, error) {
	rt := &Runtime{}

	var store core.Store
	var ping func(ctx context.Context) error
	switch cfg.StoreDriver {
	case config.DriverMemory:
		log.Warn("using in-memory store, data is lost on exit")
		store = memory.New()
	default:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		rt.pool = pool
		if opts.Migrate {
			if _, err := db.Migrate(ctx, pool, migrations.FS, log); err != nil {
				pool.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		store = postgres.New(pool, log)
		ping = pool.Ping
	}

	rt.Audit = core.NewAuditLogger(store.Repos().Logs(), log, cfg.AuditBuffer)
	rt.Service = app.NewAppService(app.Deps{
		Store:  store,
		Tokens: auth.NewJWTService(cfg.JWTSecret, cfg.JWTTTL),
		Hasher: auth.NewBcryptHasher(bcrypt.DefaultCost),
		Audit:  rt.Audit,
		Log:    log,
		Ping:   ping,
	})
	return rt, nil
}

// Close drains the audit queue, then closes the database pool.
func (rt *Runtime) Close() {
	rt.Audit.Close()
	if rt.pool != nil {
		rt.pool.Close()
	}
}
