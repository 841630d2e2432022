// Package requestboard - request board service backed by a hosted or SQL requests table
package requestboard

import (
	"context"
	"fmt"
	"io"

	"github.com/alwitt/goutils"
	"github.com/alwitt/requestboard/board"
	"github.com/alwitt/requestboard/config"
	"github.com/alwitt/requestboard/db"
	"github.com/alwitt/requestboard/store"
	"github.com/alwitt/requestboard/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

/*
NewRecordStore initialize the Record Store selected by the configuration.

A SQL store creates its tables on startup unless told otherwise; a REST store expects the
hosted table to already exist.

	@param ctx context.Context - execution context
	@param cfg config.StoreConfig - Record Store configuration
	@returns new Record Store
*/
func NewRecordStore(ctx context.Context, cfg config.StoreConfig) (store.RecordStore, error) {
	switch cfg.Backend {
	case config.BackendSQL:
		dialector, err := db.GetDialector(cfg.SQL.Dialect, cfg.SQL.DSN)
		if err != nil {
			return nil, err
		}
		logLevel, err := db.ParseLogLevel(cfg.SQL.LogLevel)
		if err != nil {
			return nil, err
		}

		persistence, err := db.NewConnection(dialector, logLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to initialized persistence client [%w]", err)
		}
		if !cfg.SQL.SkipMigration {
			if err := persistence.RunSQLInTransaction(ctx, db.DefineTables); err != nil {
				return nil, fmt.Errorf("failed to define tables [%w]", err)
			}
		}
		return store.NewSQLRecordStore(persistence)

	case config.BackendREST:
		return store.NewRESTRecordStore(store.RESTStoreParams{
			BaseURL: cfg.REST.URL,
			APIKey:  cfg.REST.APIKey,
			Table:   cfg.REST.Table,
			Timeout: cfg.REST.Timeout,
		})
	}

	return nil, fmt.Errorf("unsupported record store backend '%s'", cfg.Backend)
}

/*
NewSessionBoards initialize the per browser session boards sharing one Record Store

	@param records store.RecordStore - the Record Store
	@param maxSessions int - number of session boards kept in memory
	@param registerer prometheus.Registerer - registry for the board metrics. Optional.
	@returns new session board registry
*/
func NewSessionBoards(
	records store.RecordStore, maxSessions int, registerer prometheus.Registerer,
) (*web.SessionBoards, error) {
	metrics, err := board.NewMetrics(registerer)
	if err != nil {
		return nil, err
	}
	return web.NewSessionBoards(maxSessions, func(ctx context.Context) (board.RequestBoard, error) {
		return board.NewRequestBoard(ctx, records, metrics)
	})
}

/*
Serve run the request board web service until the context is cancelled

	@param ctx context.Context - execution context
	@param cfg *config.Config - service configuration
	@param out io.Writer - where the startup banner is written. Optional.
*/
func Serve(ctx context.Context, cfg *config.Config, out io.Writer) error {
	records, err := NewRecordStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to initialized record store [%w]", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	sessions, err := NewSessionBoards(records, cfg.Server.MaxSessions, registry)
	if err != nil {
		return fmt.Errorf("failed to initialized session boards [%w]", err)
	}

	routerOpts := web.RouterOpts{
		Sessions:       sessions,
		Gatherer:       registry,
		AccessLogLevel: goutils.HTTPRequestLogLevel(cfg.Server.AccessLogLevel),
	}
	// Only the SQL Record Store keeps an audit trail
	if events, ok := records.(store.EventLog); ok {
		routerOpts.Events = events
	}

	return web.Start(ctx, web.StartOpts{
		RouterOpts:      routerOpts,
		Listen:          cfg.Server.Listen,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Out:             out,
	})
}
