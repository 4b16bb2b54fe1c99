// Copyright 2026 The crmd Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"go.nhat.io/otelsql"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

//go:embed migrations/001_customers.up.sql
var CustomersSchema string

// Supported database/sql driver names
const (
	DriverPGX = "pgx"
	DriverPQ  = "postgres"
)

// ErrNoSession is returned when a session is required but none is bound
var ErrNoSession = errors.New("no database session in context")

// DB wraps the instrumented database handle
type DB struct {
	db *sql.DB
}

// Config holds database configuration
type Config struct {
	Driver          string
	Host            string
	Port            string
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// Optional providers. The otel globals are used when nil.
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// DSN returns the keyword/value connection string accepted by both drivers
func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Database,
		c.SSLMode,
	)
}

// New opens an instrumented connection pool and verifies it with a ping
func New(ctx context.Context, cfg Config) (*DB, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverPGX
	}
	if driver != DriverPGX && driver != DriverPQ {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	driverOpts := []otelsql.DriverOption{
		otelsql.TraceAll(),
		otelsql.WithSystem(semconv.DBSystemPostgreSQL),
		otelsql.WithDatabaseName(cfg.Database),
	}
	if cfg.TracerProvider != nil {
		driverOpts = append(driverOpts, otelsql.WithTracerProvider(cfg.TracerProvider))
	}
	if cfg.MeterProvider != nil {
		driverOpts = append(driverOpts, otelsql.WithMeterProvider(cfg.MeterProvider))
	}

	driverName, err := otelsql.Register(driver, driverOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to register instrumented driver: %w", err)
	}

	sqlDB, err := sql.Open(driverName, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	statsOpts := []otelsql.StatsOption{
		otelsql.WithSystem(semconv.DBSystemPostgreSQL),
		otelsql.WithDatabaseName(cfg.Database),
	}
	if cfg.MeterProvider != nil {
		statsOpts = append(statsOpts, otelsql.WithMeterProvider(cfg.MeterProvider))
	}
	if err := otelsql.RecordStats(sqlDB, statsOpts...); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to record database stats: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{db: sqlDB}, nil
}

// NewFromSQL wraps an existing handle
func NewFromSQL(db *sql.DB) *DB {
	return &DB{db: db}
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.db.Close()
}

// SQL returns the underlying handle
func (db *DB) SQL() *sql.DB {
	return db.db
}

// Ping verifies the database is reachable
func (db *DB) Ping(ctx context.Context) error {
	return db.db.PingContext(ctx)
}

// Migrate runs a SQL script
func (db *DB) Migrate(ctx context.Context, script string) error {
	_, err := db.db.ExecContext(ctx, script)
	return err
}

// EnsureSchema creates the customers table when it does not exist
func (db *DB) EnsureSchema(ctx context.Context) error {
	if err := db.Migrate(ctx, CustomersSchema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

type sessionKey struct{}

// OpenSession acquires a dedicated connection for one unit of work and binds
// it to the returned context. Repositories called with that context run on
// the session. The closer must be called exactly once, on every path.
func (db *DB) OpenSession(ctx context.Context) (context.Context, io.Closer, error) {
	conn, err := db.db.Conn(ctx)
	if err != nil {
		return ctx, nil, fmt.Errorf("failed to acquire database session: %w", err)
	}
	return context.WithValue(ctx, sessionKey{}, conn), conn, nil
}

// SessionFrom returns the session bound to ctx
func SessionFrom(ctx context.Context) (*sql.Conn, error) {
	conn, ok := ctx.Value(sessionKey{}).(*sql.Conn)
	if !ok {
		return nil, ErrNoSession
	}
	return conn, nil
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// querier returns the request session when one is bound, otherwise the pool
func (db *DB) querier(ctx context.Context) querier {
	if conn, err := SessionFrom(ctx); err == nil {
		return conn
	}
	return db.db
}
