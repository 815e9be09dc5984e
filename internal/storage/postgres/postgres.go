// Package postgres persists characters and scenes in PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cory-johannsen/resfight/internal/config"
)

const pingTimeout = 5 * time.Second

// Open migrates the schema to the latest version and returns a connected
// pool sized from cfg. Statements are debug-logged to logger.
//
// Postcondition: The caller must Close the returned pool.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*pgxpool.Pool, error) {
	if err := MigrateUp(cfg.DSN()); err != nil {
		return nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.ConnConfig.Tracer = queryLogger{logger: logger}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return pool, nil
}

type queryStartKey struct{}

type queryStart struct {
	sql   string
	start time.Time
}

// queryLogger is a pgx.QueryTracer writing one debug entry per statement.
type queryLogger struct {
	logger *zap.Logger
}

func (q queryLogger) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryStartKey{}, queryStart{sql: data.SQL, start: time.Now()})
}

func (q queryLogger) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	qs, _ := ctx.Value(queryStartKey{}).(queryStart)
	fields := []zap.Field{
		zap.String("sql", qs.sql),
		zap.String("tag", data.CommandTag.String()),
		zap.Duration("elapsed", time.Since(qs.start)),
	}
	if data.Err != nil {
		q.logger.Debug("query failed", append(fields, zap.Error(data.Err))...)
		return
	}
	q.logger.Debug("query", fields...)
}
