// Package postgres implements the storage contracts on PostgreSQL using pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Veraticus/postcat/internal/common"
	"github.com/Veraticus/postcat/internal/service"
)

// executor is satisfied by both *pgxpool.Pool and pgx.Tx.
type executor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Storage implements service.Storage on a pgx connection pool.
type Storage struct {
	pool *pgxpool.Pool
}

// New connects a pool to dsn. maxConns <= 0 keeps the pgxpool default.
func New(ctx context.Context, dsn string, maxConns int32) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement
	cfg.ConnConfig.StatementCacheCapacity = 256

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Storage{pool: pool}, nil
}

// NewFromPool wraps an existing pool.
func NewFromPool(pool *pgxpool.Pool) *Storage {
	return &Storage{pool: pool}
}

// Close releases every pooled connection.
func (s *Storage) Close() error {
	s.pool.Close()
	return nil
}

// BeginTx starts a new database transaction.
func (s *Storage) BeginTx(ctx context.Context) (service.Transaction, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", translateError(err))
	}
	return &pgTransaction{tx: tx, ctx: ctx}, nil
}

// pgTransaction implements service.Transaction on a pgx.Tx.
// pgx needs a context for Commit/Rollback, so the one from BeginTx is kept.
type pgTransaction struct {
	ctx context.Context
	tx  pgx.Tx
}

func (t *pgTransaction) Commit() error {
	if err := t.tx.Commit(t.ctx); err != nil {
		return translateError(err)
	}
	return nil
}

func (t *pgTransaction) Rollback() error {
	err := t.tx.Rollback(t.ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

func (t *pgTransaction) Migrate(_ context.Context) error {
	return fmt.Errorf("migrations cannot be run within a transaction")
}

func (t *pgTransaction) BeginTx(_ context.Context) (service.Transaction, error) {
	return nil, fmt.Errorf("nested transactions not supported")
}

func (t *pgTransaction) Close() error {
	return fmt.Errorf("transactions must be committed or rolled back, not closed")
}

// SQLSTATE codes mapped onto the application error taxonomy.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeSerializationFailure = "40001"
	codeLockNotAvailable     = "55P03"
)

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case codeUniqueViolation, codeForeignKeyViolation:
		return fmt.Errorf("%w: %w", common.ErrConstraintViolation, err)
	case codeSerializationFailure, codeLockNotAvailable:
		return fmt.Errorf("%w: %w", common.ErrStoreBusy, err)
	default:
		return err
	}
}

// Compile-time interface checks.
var (
	_ service.Storage     = (*Storage)(nil)
	_ service.Transaction = (*pgTransaction)(nil)
)
