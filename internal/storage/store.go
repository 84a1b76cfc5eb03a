// Package storage is the relational entity store for donors, programs,
// donations, pledges, tax receipts and thank-you notes.
//
// Two dialects share one query layer: SQLite (modernc, pure Go) for local and
// single-node deployments, PostgreSQL through the pgx stdlib driver. Queries
// are built with squirrel so only placeholders and DDL differ.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

func (d Dialect) IsValid() bool {
	return d == DialectSQLite || d == DialectPostgres
}

func (d Dialect) driverName() string {
	if d == DialectPostgres {
		return "pgx"
	}
	return "sqlite"
}

func (d Dialect) placeholders() sq.PlaceholderFormat {
	if d == DialectPostgres {
		return sq.Dollar
	}
	return sq.Question
}

// Options selects and locates the database.
type Options struct {
	Dialect     Dialect
	SQLitePath  string
	DatabaseURL string
}

func (o Options) dsn() string {
	if o.Dialect == DialectPostgres {
		return o.DatabaseURL
	}
	return sqliteDSN(o.SQLitePath)
}

// sqliteDSN enables foreign keys and a busy timeout on every connection.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

type Store struct {
	db      *sql.DB
	dialect Dialect
	sb      sq.StatementBuilderType
	now     func() time.Time
}

// Open connects, pings and migrates the database described by opts.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if !opts.Dialect.IsValid() {
		return nil, fmt.Errorf("unsupported dialect: %q", opts.Dialect)
	}
	if opts.Dialect == DialectSQLite {
		if err := os.MkdirAll(filepath.Dir(opts.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open(opts.Dialect.driverName(), opts.dsn())
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", opts.Dialect, err)
	}
	if opts.Dialect == DialectSQLite {
		// one writer; every request runs inside a single transaction
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(opts.Dialect, opts.dsn()); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.InfoContext(ctx, "Entity store ready", "dialect", opts.Dialect)

	return &Store{
		db:      db,
		dialect: opts.Dialect,
		sb:      sq.StatementBuilder.PlaceholderFormat(opts.Dialect.placeholders()),
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Dialect() Dialect { return s.dialect }

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SetClock overrides the timestamp source used for created_at/updated_at.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Queries returns a query set bound to the connection pool, outside any transaction.
func (s *Store) Queries() *Queries {
	return &Queries{db: s.db, sb: s.sb, now: s.now}
}

// InTx runs fn inside one transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
func (s *Store) InTx(ctx context.Context, fn func(q *Queries) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				slog.ErrorContext(ctx, "Rollback failed", "error", rbErr)
			}
		}
	}()

	if err = fn(&Queries{db: tx, sb: s.sb, now: s.now}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Queries struct {
	db  DBTX
	sb  sq.StatementBuilderType
	now func() time.Time
}

type rowScanner interface {
	Scan(dest ...any) error
}

// getOne runs a single-row statement and maps sql.ErrNoRows to a not-found error.
func getOne[T any](ctx context.Context, q *Queries, b sq.Sqlizer, kind string, id int64, scan func(rowScanner) (T, error)) (T, error) {
	var zero T
	query, args, err := b.ToSql()
	if err != nil {
		return zero, fmt.Errorf("build %s query: %w", strings.ToLower(kind), err)
	}
	v, err := scan(q.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return zero, notFound(kind, id)
	}
	if err != nil {
		return zero, err
	}
	return v, nil
}

// getMany runs a multi-row statement and scans every row.
func getMany[T any](ctx context.Context, q *Queries, b sq.Sqlizer, scan func(rowScanner) (T, error)) ([]T, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// exec runs a statement and returns the number of affected rows.
func (q *Queries) exec(ctx context.Context, b sq.Sqlizer) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build statement: %w", err)
	}
	res, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// count runs SELECT COUNT(*) FROM table WHERE where.
func (q *Queries) count(ctx context.Context, table string, where sq.Sqlizer) (int64, error) {
	query, args, err := q.sb.Select("COUNT(*)").From(table).Where(where).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}
	var n int64
	if err := q.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (q *Queries) exists(ctx context.Context, table string, id int64) (bool, error) {
	n, err := q.count(ctx, table, sq.Eq{"id": id})
	return n > 0, err
}
