package main

import (
	"context"

	"github.com/koustreak/dbinit/internal/bootstrap"
	"github.com/koustreak/dbinit/internal/config"
	"github.com/koustreak/dbinit/internal/database"
	"github.com/koustreak/dbinit/internal/database/mysql"
	"github.com/koustreak/dbinit/internal/database/postgres"
	"github.com/koustreak/dbinit/internal/errs"
	"github.com/koustreak/dbinit/internal/filestore/minio"
	"github.com/koustreak/dbinit/internal/logger"
	"github.com/koustreak/dbinit/internal/schema"
	"github.com/koustreak/dbinit/internal/seed"
)

// openDB connects with the driver named in cfg.
func openDB(ctx context.Context, cfg *database.Config) (database.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "database configuration", err)
	}

	if cfg.Driver == database.DriverPostgres {
		db, err := postgres.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := mysql.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// openPublisher connects to the report bucket.
func openPublisher(ctx context.Context, cfg config.ReportConfig) (*bootstrap.StorePublisher, error) {
	store, err := minio.New(ctx, &cfg.Store)
	if err != nil {
		return nil, err
	}
	return bootstrap.NewStorePublisher(store, cfg.Store.Bucket, cfg.Prefix), nil
}

// newCoordinator wires the reconciler and loader over one catalog and
// repository.
func newCoordinator(catalog schema.Catalog, repo seed.Repository, log *logger.Logger, opts ...bootstrap.Option) (*bootstrap.Coordinator, error) {
	loader, err := seed.NewLoader(repo, seed.Baseline(), log)
	if err != nil {
		return nil, err
	}
	return bootstrap.NewCoordinator(schema.NewReconciler(catalog, log), loader, schema.SourceID, log, opts...), nil
}

// runHook connects and runs the startup hook once. The returned DB is nil
// when the connection failed; the report is never nil.
func (a *app) runHook(ctx context.Context) (*bootstrap.Report, database.DB) {
	db, err := openDB(ctx, &a.cfg.Database)
	if err != nil {
		a.log.ErrorWith("database unavailable; skipping bootstrap", err, map[string]interface{}{
			"driver": string(a.cfg.Database.Driver),
		})
		return bootstrap.Unavailable(err), nil
	}

	var opts []bootstrap.Option
	if a.cfg.Report.Enabled {
		pub, err := openPublisher(ctx, a.cfg.Report)
		if err != nil {
			a.log.WarnWith("report store unavailable; reports will not be published", err, nil)
		} else {
			opts = append(opts, bootstrap.WithPublisher(pub))
		}
	}

	coord, err := newCoordinator(schema.NewCatalog(db), seed.NewSQLRepository(db), a.log, opts...)
	if err != nil {
		a.log.ErrorWith("could not build bootstrap coordinator", err, nil)
		return bootstrap.Unavailable(err), db
	}
	return coord.RunAtStartup(ctx), db
}

// runDry runs the hook against in-memory stand-ins for a fresh database.
func (a *app) runDry(ctx context.Context) (*bootstrap.Report, []string, error) {
	catalog := schema.NewMemoryCatalog(a.cfg.Database.Driver.Dialect())
	catalog.Define(schema.SourceID.Table, schema.ColumnInfo{Name: schema.SourceID.Column, Type: "bigint"})

	coord, err := newCoordinator(catalog, seed.NewMemoryRepository(), a.log)
	if err != nil {
		return nil, nil, err
	}
	return coord.RunAtStartup(ctx), catalog.Executed(), nil
}
