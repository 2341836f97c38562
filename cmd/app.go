package cmd

import (
	"context"
	"database/sql"
	"time"

	"github.com/vibast-solutions/ms-go-contacts/app/canonical"
	"github.com/vibast-solutions/ms-go-contacts/app/index"
	"github.com/vibast-solutions/ms-go-contacts/app/metrics"
	"github.com/vibast-solutions/ms-go-contacts/app/repository"
	"github.com/vibast-solutions/ms-go-contacts/app/service"
	"github.com/vibast-solutions/ms-go-contacts/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
)

// application is the wired object graph shared by serve and the index
// commands.
type application struct {
	db         *sql.DB
	profiles   *repository.ContactProfileRepository
	index      *index.ContactIndex
	metrics    *metrics.Metrics
	ingestion  *service.IngestionService
	validation *service.ValidationService
}

func newApplication(cfg *config.Config, reg prometheus.Registerer) (*application, error) {
	app := &application{metrics: metrics.New(reg)}

	var snapshot service.SnapshotSource
	if cfg.HasMySQL() {
		db, err := openDatabase(cfg.DSN())
		if err != nil {
			return nil, err
		}
		app.db = db
		app.profiles = repository.NewContactProfileRepository(db)
		snapshot = app.profiles
	}

	phones := canonical.NewPhoneNormalizer(canonical.LibPhoneParser{}, cfg.Phone.DefaultRegion)
	app.index = index.NewWithShards(phones, cfg.Index.Shards)
	app.ingestion = service.NewIngestionService(app.index, snapshot, app.metrics)
	app.validation = service.NewValidationService(
		service.NewCompletenessChecker(),
		service.NewUniquenessChecker(app.index),
		app.metrics,
	)

	return app, nil
}

func (a *application) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

func openDatabase(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
