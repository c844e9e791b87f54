package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/valeriaulyamaeva/moneymine/internal/interfaces"
	"github.com/valeriaulyamaeva/moneymine/models"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// querier is satisfied by both the pool and an open transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB owns the connection pool and hands out stores bound to it or to a transaction.
type DB struct {
	pool *pgxpool.Pool
}

var _ interfaces.TxManager = (*DB)(nil)

func Connect(ctx context.Context, connString string, maxConns int32) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("%w: parse connection string: %w", models.ErrDatabase, err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %w", models.ErrDatabase, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping: %w", models.ErrDatabase, err)
	}
	return &DB{pool: pool}, nil
}

func (db *DB) Close() {
	db.pool.Close()
}

// WithinTx runs fn inside a read-committed transaction. Row locks taken through
// LockAccount and LockInvestment are held until it commits or rolls back.
func (db *DB) WithinTx(ctx context.Context, fn func(interfaces.Store) error) error {
	tx, err := db.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("%w: begin: %w", models.ErrDatabase, err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Store{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %w", models.ErrDatabase, err)
	}
	return nil
}

func (db *DB) Reader() interfaces.Store {
	return &Store{q: db.pool}
}

// Store implements interfaces.Store with SQL against whatever querier it wraps.
type Store struct {
	q querier
}

var _ interfaces.Store = (*Store)(nil)

// mapError turns driver errors into the model error kinds. entity and code name the
// row for not-found reporting.
func mapError(err error, entity, code string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return models.NotFound(entity, code)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case foreignKeyViolation:
			return models.NotPermitted("%s %s: %s", entity, code, pgErr.Detail)
		case uniqueViolation:
			return fmt.Errorf("%w: %s %s already exists", models.ErrDatabase, entity, code)
		}
	}
	return fmt.Errorf("%w: %s: %w", models.ErrDatabase, entity, err)
}

// affected reports a not-found error when a write matched no row.
func affected(tag pgconn.CommandTag, entity, code string) error {
	if tag.RowsAffected() == 0 {
		return models.NotFound(entity, code)
	}
	return nil
}

func (s *Store) lock(ctx context.Context, table, entity, code string) error {
	var locked string
	query := fmt.Sprintf(`SELECT code FROM %s WHERE code = $1 FOR UPDATE`, table)
	err := s.q.QueryRow(ctx, query, code).Scan(&locked)
	return mapError(err, entity, code)
}
