package sql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/syssam/worm/dialect"
)

// validIdentifierRe validates SQL identifiers (alphanumeric, underscores, dots for schema.name)
var validIdentifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)

// IsValidIdentifier checks if the string is a valid SQL identifier.
func IsValidIdentifier(s string) bool {
	return s != "" && len(s) <= 128 && validIdentifierRe.MatchString(s)
}

// Driver is a dialect.Driver implementation that owns one physical
// connection taken out of a database/sql pool. Every statement issued
// through the Driver, or through a Tx it started, runs on that connection.
type Driver struct {
	Conn
	db      *sql.DB
	conn    *sql.Conn
	dialect string
}

// Open wraps the database/sql.Open method and returns a Driver bound to a
// single dedicated connection.
func Open(ctx context.Context, dialect, source string) (*Driver, error) {
	db, err := sql.Open(dialect, source)
	if err != nil {
		return nil, err
	}
	drv, err := OpenDB(ctx, dialect, db)
	if err != nil {
		return nil, errors.Join(err, db.Close())
	}
	return drv, nil
}

// OpenDB takes one dedicated connection out of db and wraps it with a Driver.
// Closing the Driver closes both the connection and db.
func OpenDB(ctx context.Context, dialect string, db *sql.DB) (*Driver, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: acquire connection: %w", err)
	}
	return &Driver{
		Conn:    Conn{conn, dialect},
		db:      db,
		conn:    conn,
		dialect: dialect,
	}, nil
}

// DB returns the underlying *sql.DB instance.
func (d *Driver) DB() *sql.DB {
	return d.db
}

// Dialect implements the dialect.Dialect method.
func (d *Driver) Dialect() string {
	// If the underlying driver is wrapped with a telemetry driver.
	for _, name := range []string{dialect.MySQL, dialect.SQLite, dialect.Postgres} {
		if strings.HasPrefix(d.dialect, name) {
			return name
		}
	}
	return d.dialect
}

// Tx starts and returns a transaction.
func (d *Driver) Tx(ctx context.Context) (dialect.Tx, error) {
	return d.BeginTx(ctx, nil)
}

// BeginTx starts a transaction with options.
func (d *Driver) BeginTx(ctx context.Context, opts *TxOptions) (dialect.Tx, error) {
	tx, err := d.conn.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: begin: %w", err)
	}
	return &Tx{
		Conn: Conn{tx, d.dialect},
		Tx:   tx,
	}, nil
}

// Close releases the connection and closes the underlying pool.
func (d *Driver) Close() error {
	return errors.Join(d.conn.Close(), d.db.Close())
}

// Tx implements dialect.Tx interface.
type Tx struct {
	Conn
	driver.Tx
}

// Savepoint implements the dialect.Tx.Savepoint method.
func (tx *Tx) Savepoint(ctx context.Context, name string) error {
	return tx.savepoint(ctx, "SAVEPOINT %s", name)
}

// RollbackTo implements the dialect.Tx.RollbackTo method.
func (tx *Tx) RollbackTo(ctx context.Context, name string) error {
	return tx.savepoint(ctx, "ROLLBACK TO SAVEPOINT %s", name)
}

// Release implements the dialect.Tx.Release method.
func (tx *Tx) Release(ctx context.Context, name string) error {
	return tx.savepoint(ctx, "RELEASE SAVEPOINT %s", name)
}

func (tx *Tx) savepoint(ctx context.Context, format, name string) error {
	// Savepoint names cannot be bound as parameters.
	if !IsValidIdentifier(name) {
		return fmt.Errorf("dialect/sql: invalid savepoint name: %q", name)
	}
	return tx.Exec(ctx, fmt.Sprintf(format, name), []any{}, nil)
}

// ExecQuerier wraps the standard Exec and Query methods.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Conn implements dialect.ExecQuerier given ExecQuerier.
type Conn struct {
	ExecQuerier
	dialect string
}

// Exec implements the dialect.Exec method.
func (c Conn) Exec(ctx context.Context, query string, args, v any) error {
	argv, ok := args.([]any)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect []any for args", args)
	}
	switch v := v.(type) {
	case nil:
		if _, err := c.ExecContext(ctx, query, argv...); err != nil {
			return fmt.Errorf("dialect/sql: exec: %w", err)
		}
	case *sql.Result:
		res, err := c.ExecContext(ctx, query, argv...)
		if err != nil {
			return fmt.Errorf("dialect/sql: exec: %w", err)
		}
		*v = res
	default:
		return fmt.Errorf("dialect/sql: invalid type %T. expect *sql.Result", v)
	}
	return nil
}

// Query implements the dialect.Query method.
func (c Conn) Query(ctx context.Context, query string, args, v any) error {
	vr, ok := v.(*Rows)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect *sql.Rows", v)
	}
	argv, ok := args.([]any)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect []any for args", args)
	}
	rows, err := c.QueryContext(ctx, query, argv...)
	if err != nil {
		return fmt.Errorf("dialect/sql: query: %w", err)
	}
	*vr = Rows{rows}
	return nil
}

var (
	_ dialect.Driver = (*Driver)(nil)
	_ dialect.Tx     = (*Tx)(nil)
)

type (
	// Rows wraps the sql.Rows to avoid locks copy.
	Rows struct{ ColumnScanner }
	// Result is an alias to sql.Result.
	Result = sql.Result
	// NamedArg is an alias to sql.NamedArg.
	NamedArg = sql.NamedArg
	// TxOptions holds the transaction options to be used in DB.BeginTx.
	TxOptions = sql.TxOptions
)

// Named returns a named argument, as sql.Named.
func Named(name string, value any) NamedArg {
	return sql.Named(name, value)
}

// ColumnScanner is the interface that wraps the standard
// sql.Rows methods used for scanning database rows.
type ColumnScanner interface {
	Close() error
	ColumnTypes() ([]*sql.ColumnType, error)
	Columns() ([]string, error)
	Err() error
	Next() bool
	NextResultSet() bool
	Scan(dest ...any) error
}
