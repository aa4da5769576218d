// AngelaMos | 2026
// store.go

package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/carterperez-dev/ea-marketplace/internal/config"
	"github.com/carterperez-dev/ea-marketplace/internal/core"
	"github.com/carterperez-dev/ea-marketplace/internal/license"
	"github.com/carterperez-dev/ea-marketplace/internal/order"
	"github.com/carterperez-dev/ea-marketplace/internal/product"
	"github.com/carterperez-dev/ea-marketplace/internal/sheets"
	"github.com/carterperez-dev/ea-marketplace/internal/user"
	"github.com/carterperez-dev/ea-marketplace/migrations"
)

// store bundles one backend's repositories. A degradable store keeps
// serving the sample catalog while unreachable, so readiness treats it as
// optional.
type store struct {
	name       string
	users      user.Repository
	products   product.Repository
	orders     order.Repository
	licenses   license.Repository
	ready      product.Readiness
	ping       func(ctx context.Context) error
	dbStats    func() sql.DBStats
	degradable bool
	run        func(ctx context.Context)
	close      func() error
}

func (s *store) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

func openStore(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
) (*store, error) {
	if cfg.Store.Driver == config.StoreDriverPostgres {
		return openPostgres(ctx, cfg.Database, logger)
	}
	return openSheets(ctx, cfg.Sheets, logger), nil
}

func openPostgres(
	ctx context.Context,
	cfg config.DatabaseConfig,
	logger *slog.Logger,
) (*store, error) {
	db, err := core.NewDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.MaxOpenConns,
		"max_idle_conns", cfg.MaxIdleConns,
	)

	applied, err := db.Migrate(ctx, migrations.FS)
	if err != nil {
		_ = db.Close() //nolint:errcheck // startup failure cleanup
		return nil, err
	}
	if len(applied) > 0 {
		logger.Info("database migrated", "applied", applied)
	}

	return &store{
		name:     db.Name(),
		users:    user.NewRepository(db.DB),
		products: product.NewRepository(db.DB),
		orders:   order.NewRepository(db.DB),
		licenses: license.NewRepository(db.DB),
		ready:    db,
		ping:     db.Ping,
		dbStats:  db.Stats,
		run:      func(context.Context) {},
		close:    db.Close,
	}, nil
}

// openSheets never fails: a spreadsheet that cannot be reached leaves the
// store in degraded mode and the background loop keeps retrying.
func openSheets(
	ctx context.Context,
	cfg config.SheetsConfig,
	logger *slog.Logger,
) *store {
	client := sheets.NewClient(cfg, logger)

	if err := client.Connect(ctx); err != nil {
		if errors.Is(err, core.ErrStoreUnavailable) && !cfg.Enabled() {
			logger.Warn("spreadsheet credentials missing, serving sample catalog")
		} else {
			logger.Warn("spreadsheet connect failed, will retry", "error", err)
		}
	} else {
		logger.Info("spreadsheet store connected",
			"spreadsheet_id", cfg.SpreadsheetID,
		)
	}

	run := client.Run
	if !cfg.Enabled() {
		run = func(context.Context) {}
	}

	return &store{
		name:       client.Name(),
		users:      sheets.NewUserRepository(client),
		products:   sheets.NewProductRepository(client),
		orders:     sheets.NewOrderRepository(client),
		licenses:   sheets.NewLicenseRepository(client),
		ready:      client,
		ping:       client.Ping,
		degradable: true,
		run:        run,
		close:      func() error { return nil },
	}
}
