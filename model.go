package worm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/worm/dialect"
	dsql "github.com/syssam/worm/dialect/sql"
	"github.com/syssam/worm/dialect/sql/sqlgraph"
)

// InsertNew inserts a record built from the values of the insertable
// columns, given in declaration order. auto_timestamp columns are set to
// the current UTC time. The insert runs in a transaction with a nested
// savepoint; on failure both are rolled back and no row is left behind.
// On success the record is fetched again by its new primary key, so it
// reflects the values assigned by the store.
func (m *Model[T]) InsertNew(ctx context.Context, db *DB, values ...any) (*T, error) {
	var rec *T
	err := db.exec(func(drv dialect.Driver) (err error) {
		rec, err = m.insertNew(ctx, db.log, drv, values)
		return err
	})
	return rec, err
}

func (m *Model[T]) insertNew(ctx context.Context, log *slog.Logger, drv dialect.Driver, values []any) (*T, error) {
	switch {
	case m.pk == nil:
		return nil, m.configError("", "insert_new requires a primary key column")
	case m.insertSQL == "":
		return nil, m.configError("", "insert_new requires insertable columns")
	}
	args, err := m.insertArgs(values)
	if err != nil {
		return nil, NewMutationError(m.label(), "insert", err)
	}
	id, err := m.insertTx(dsql.WithOperation(ctx, "insert"), log, drv, args)
	if err != nil {
		return nil, NewMutationError(m.label(), "insert", err)
	}
	return m.getOne(ctx, drv, "get_by_id", m.byIDSQL, dsql.NamedParam(m.pk.desc.Name, id))
}

// insertArgs binds the caller values to the insertable columns and the
// insert time to the auto_timestamp columns.
func (m *meta) insertArgs(values []any) ([]any, error) {
	if len(values) != len(m.insert) {
		names := make([]string, len(m.insert))
		for i, c := range m.insert {
			names[i] = c.desc.Name
		}
		return nil, fmt.Errorf("expected %d values (%s), got %d", len(m.insert), strings.Join(names, ", "), len(values))
	}
	args := make([]any, 0, len(m.insert)+len(m.stamps))
	for i, c := range m.insert {
		v, err := c.arg(values[i])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.desc.Name, err)
		}
		args = append(args, dsql.ParamArg(c.param, v))
	}
	now := time.Now().UTC()
	for _, c := range m.stamps {
		args = append(args, dsql.ParamArg(c.param, now))
	}
	return args, nil
}

func (m *meta) insertTx(ctx context.Context, log *slog.Logger, drv dialect.Driver, args []any) (int64, error) {
	tx, err := drv.Tx(ctx)
	if err != nil {
		return 0, err
	}
	sp := "worm_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := tx.Savepoint(ctx, sp); err != nil {
		return 0, m.rollback(ctx, log, tx, "", err)
	}
	var res dsql.Result
	if err := tx.Exec(ctx, m.insertSQL, args, &res); err != nil {
		return 0, m.rollback(ctx, log, tx, sp, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, m.rollback(ctx, log, tx, sp, fmt.Errorf("reading primary key: %w", err))
	}
	if err := tx.Release(ctx, sp); err != nil {
		return 0, m.rollback(ctx, log, tx, "", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// rollback rolls back to the savepoint sp, if any, and then the
// transaction. Rollback failures are joined to err.
func (m *meta) rollback(ctx context.Context, log *slog.Logger, tx dialect.Tx, sp string, err error) error {
	var rerr error
	if sp != "" {
		rerr = tx.RollbackTo(ctx, sp)
	}
	rerr = errors.Join(rerr, tx.Rollback())
	log.WarnContext(ctx, "insert rolled back", "table", m.label(), "error", err)
	if sqlgraph.IsConstraintError(err) {
		err = NewConstraintError(err.Error(), err)
	}
	if rerr != nil {
		err = errors.Join(err, &RollbackError{Err: rerr})
	}
	return err
}

// GetByID fetches the record with the primary key id.
func (m *Model[T]) GetByID(ctx context.Context, db *DB, id int64) (*T, error) {
	if m.pk == nil {
		return nil, m.configError("", "get_by_id requires a primary key column")
	}
	var rec *T
	err := db.exec(func(drv dialect.Driver) (err error) {
		rec, err = m.getOne(ctx, drv, "get_by_id", m.byIDSQL, dsql.NamedParam(m.pk.desc.Name, id))
		return err
	})
	return rec, err
}

// GetByName fetches the record with the unique name.
func (m *Model[T]) GetByName(ctx context.Context, db *DB, name string) (*T, error) {
	if m.name == nil {
		return nil, m.configError("", "get_by_name requires a unique name column")
	}
	var rec *T
	err := db.exec(func(drv dialect.Driver) (err error) {
		rec, err = m.getOne(ctx, drv, "get_by_name", m.byNameSQL, dsql.NamedParam(m.name.desc.Name, name))
		return err
	})
	return rec, err
}

// GetOrNew fetches the record whose unique name is the one among values,
// and inserts it with InsertNew when there is none. values are the
// insertable column values as for InsertNew.
func (m *Model[T]) GetOrNew(ctx context.Context, db *DB, values ...any) (*T, error) {
	if m.name == nil {
		return nil, m.configError("", "get_or_new requires a unique name column")
	}
	i := slices.Index(m.insert, m.name)
	if i < 0 {
		return nil, m.configError(m.name.desc.Name, "get_or_new requires an insertable unique name column")
	}
	if len(values) != len(m.insert) {
		_, err := m.insertArgs(values)
		return nil, NewMutationError(m.label(), "insert", err)
	}
	name, err := m.name.arg(values[i])
	if err != nil {
		return nil, NewMutationError(m.label(), "insert", fmt.Errorf("column %s: %w", m.name.desc.Name, err))
	}
	var rec *T
	err = db.exec(func(drv dialect.Driver) (err error) {
		rec, err = m.getOne(ctx, drv, "get_or_new", m.byNameSQL, dsql.NamedParam(m.name.desc.Name, name))
		if !IsNotFound(err) {
			return err
		}
		rec, err = m.insertNew(ctx, db.log, drv, values)
		return err
	})
	return rec, err
}

// GetAllBy fetches all records whose normal column col equals v, in the
// order returned by the store. No match yields an empty slice.
func (m *Model[T]) GetAllBy(ctx context.Context, db *DB, col ColumnOf[T], v any) ([]*T, error) {
	name := col.Name()
	query, ok := m.normal[name]
	if !ok {
		return nil, m.configError(name, "get_all_by requires a normal column")
	}
	arg, err := m.byName[name].arg(v)
	if err != nil {
		return nil, NewQueryError(m.label(), "get_all_by_"+strings.ToLower(name), err)
	}
	var recs []*T
	err = db.exec(func(drv dialect.Driver) (err error) {
		recs, err = m.query(ctx, drv, "get_all_by_"+strings.ToLower(name), query, []any{dsql.NamedParam(name, arg)})
		return err
	})
	return recs, err
}

// getOne runs a query expected to match at most one row.
func (m *Model[T]) getOne(ctx context.Context, drv dialect.ExecQuerier, op, query string, arg dsql.NamedArg) (*T, error) {
	recs, err := m.query(ctx, drv, op, query, []any{arg})
	if err != nil {
		return nil, err
	}
	switch len(recs) {
	case 0:
		return nil, NewNotFoundErrorWithID(m.label(), arg.Value)
	case 1:
		return recs[0], nil
	default:
		return nil, NewNotSingularErrorWithCount(m.label(), len(recs))
	}
}

func (m *Model[T]) query(ctx context.Context, drv dialect.ExecQuerier, op, query string, args []any) ([]*T, error) {
	rows := &dsql.Rows{}
	if err := drv.Query(dsql.WithOperation(ctx, op), query, args, rows); err != nil {
		return nil, NewQueryError(m.label(), op, err)
	}
	recs, err := m.scanAll(rows)
	if err != nil {
		return nil, NewQueryError(m.label(), op, err)
	}
	return recs, nil
}

// arg converts a caller value to the column's bind value.
func (c *column) arg(v any) (any, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			v, rv = nil, reflect.Value{}
		} else {
			rv = rv.Elem()
		}
	}
	if v == nil {
		if c.typ.Kind() == reflect.Pointer {
			return nil, nil
		}
		return nil, ErrNullValue
	}
	want := c.desc.Type.GoType()
	switch {
	case rv.Type() == want:
		return rv.Interface(), nil
	case kindClass(rv.Type()) != 0 && kindClass(rv.Type()) == kindClass(want) && rv.Type().ConvertibleTo(want):
		return rv.Convert(want).Interface(), nil
	default:
		return nil, fmt.Errorf("cannot use %T as %s", v, want)
	}
}

// kindClass groups the kinds that convert into each other without
// changing meaning.
func kindClass(t reflect.Type) int {
	switch t.Kind() {
	case reflect.Bool:
		return 1
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return 2
	case reflect.Float32, reflect.Float64:
		return 3
	case reflect.String:
		return 4
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return 5
		}
	}
	return 0
}
