package worm

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/syssam/worm/dialect"
	dsql "github.com/syssam/worm/dialect/sql"
)

// Joinable is a registered model that can be the target of a join.
// It is implemented by *Model[T].
type Joinable interface {
	descriptor() *meta
}

func (m *Model[T]) descriptor() *meta { return m.meta }

// Query is a select statement over the table of T, with inner joins to
// related tables and equality predicates. The zero value is not usable;
// queries are started with Model.Select.
//
//	q := tests.Select().JoinFK().WhereEq(testName, "x")
//	fmt.Println(q) // select another.* from main.Anothers as another inner join ...
type Query[T any] struct {
	m      *Model[T]
	sel    *dsql.Selector
	joined []*meta
	err    error
}

// Select starts a query returning every column of the table.
func (m *Model[T]) Select() *Query[T] {
	return &Query[T]{
		m:   m,
		sel: dsql.Select(m.table.Qualified(), m.table.Alias),
	}
}

// JoinFK joins the table of every foreign key target of T on
// base.fk = target.pk. Targets that are already joined are skipped.
// It panics with a *ConfigError if T has no foreign key.
func (q *Query[T]) JoinFK() *Query[T] {
	if len(q.m.fks) == 0 {
		panic(q.m.configError("", "join_fk requires a foreign key column"))
	}
	for _, fk := range q.m.fks {
		target := q.m.resolve(fk.Target)
		if target == q.m.meta {
			panic(q.m.configError(fk.Column.Name, "self join is not supported"))
		}
		if q.isJoined(target) {
			continue
		}
		q.join(target, dsql.ColumnsEQ(q.m.table.Alias, fk.Column.Name, target.table.Alias, target.pk.desc.Name))
	}
	return q
}

// JoinPK joins the target table, related to T or to an already joined
// table by a foreign key in either direction. Joining a joined table is a
// no-op. It panics with a *ConfigError if the tables are unrelated.
func (q *Query[T]) JoinPK(target Joinable) *Query[T] {
	q.joinPK(target.descriptor())
	return q
}

func (q *Query[T]) joinPK(target *meta) *dsql.JoinClause {
	if target == q.m.meta {
		panic(q.m.configError("", "self join is not supported"))
	}
	if j, ok := q.sel.Joined(target.table.Alias); ok && q.isJoined(target) {
		return j
	}
	for _, from := range append([]*meta{q.m.meta}, q.joined...) {
		if on, ok := relation(from, target); ok {
			return q.join(target, on)
		}
	}
	panic(q.m.configError("", "%s is not related to %s by a foreign key", target.typ.Name(), q.m.typ.Name()))
}

// JoinEq joins the table owning the column, as JoinPK does, and adds
// owner.column = :param to the join condition. A column of T itself is
// added to the where clause as WhereEq does.
func (q *Query[T]) JoinEq(col Ref, v any) *Query[T] {
	owner := q.m.resolve(col.recordType())
	if owner == q.m.meta {
		return q.where(col.Name(), v)
	}
	c := owner.mustColumn(col.Name())
	j := q.joinPK(owner)
	name := c.desc.Name
	arg, err := c.arg(v)
	if err != nil {
		q.err = errors.Join(q.err, fmt.Errorf("join_eq %s.%s: %w", owner.table.Alias, name, err))
	}
	j.And(dsql.EQ(owner.table.Alias, name, q.sel.Param(owner.table.Alias, name), arg))
	return q
}

// WhereEq adds base.column = :param to the where clause.
func (q *Query[T]) WhereEq(col ColumnOf[T], v any) *Query[T] {
	return q.where(col.Name(), v)
}

func (q *Query[T]) where(name string, v any) *Query[T] {
	alias := q.m.table.Alias
	arg, err := q.m.mustColumn(name).arg(v)
	if err != nil {
		q.err = errors.Join(q.err, fmt.Errorf("where_eq %s.%s: %w", alias, name, err))
	}
	q.sel.Where(dsql.EQ(alias, name, q.sel.Param(alias, name), arg))
	return q
}

func (q *Query[T]) join(target *meta, on string) *dsql.JoinClause {
	q.joined = append(q.joined, target)
	return q.sel.Join(target.table.Qualified(), target.table.Alias, on)
}

func (q *Query[T]) isJoined(target *meta) bool {
	for _, j := range q.joined {
		if j == target {
			return true
		}
	}
	return false
}

// relation returns the join condition between two tables related by a
// foreign key, written fk side first.
func relation(from, to *meta) (string, bool) {
	for _, fk := range from.fks {
		if fk.Target == to.typ {
			return dsql.ColumnsEQ(from.table.Alias, fk.Column.Name, to.table.Alias, to.pk.desc.Name), true
		}
	}
	for _, fk := range to.fks {
		if fk.Target == from.typ {
			return dsql.ColumnsEQ(to.table.Alias, fk.Column.Name, from.table.Alias, from.pk.desc.Name), true
		}
	}
	return "", false
}

// resolve returns the registration of a record type known to the registry
// of m. It panics with a *ConfigError for unregistered types.
func (m *meta) resolve(t reflect.Type) *meta {
	if t == m.typ {
		return m
	}
	other, ok := m.reg.lookup(t)
	if !ok {
		panic(m.configError("", "%s is not registered", t))
	}
	return other
}

// mustColumn returns the named column. It panics with a *ConfigError for
// zero column references.
func (m *meta) mustColumn(name string) *column {
	c, ok := m.byName[name]
	if !ok {
		panic(m.configError(name, "zero column reference"))
	}
	return c
}

// Err returns the errors of the values given to JoinEq and WhereEq.
func (q *Query[T]) Err() error { return q.err }

// String renders the statement text. Rendering does not modify the query.
func (q *Query[T]) String() string { return q.sel.String() }

// SQL returns the statement text and its named arguments.
func (q *Query[T]) SQL() (string, []any) { return q.sel.Query() }

// Clone returns a copy of the query that can be extended independently.
func (q *Query[T]) Clone() *Query[T] {
	return &Query[T]{
		m:      q.m,
		sel:    q.sel.Clone(),
		joined: append([]*meta(nil), q.joined...),
		err:    q.err,
	}
}

// All runs the query and returns the matching records. No match yields an
// empty slice.
func (q *Query[T]) All(ctx context.Context, db *DB) ([]*T, error) {
	if q.err != nil {
		return nil, NewQueryError(q.m.label(), "select", q.err)
	}
	query, args := q.SQL()
	var recs []*T
	err := db.exec(func(drv dialect.Driver) (err error) {
		recs, err = q.m.query(ctx, drv, "select", query, args)
		return err
	})
	return recs, err
}

// Only runs the query and returns its single record. It returns a
// *NotFoundError when nothing matches and a *NotSingularError when more
// than one record does.
func (q *Query[T]) Only(ctx context.Context, db *DB) (*T, error) {
	recs, err := q.All(ctx, db)
	if err != nil {
		return nil, err
	}
	switch len(recs) {
	case 0:
		return nil, NewNotFoundError(q.m.label())
	case 1:
		return recs[0], nil
	default:
		return nil, NewNotSingularErrorWithCount(q.m.label(), len(recs))
	}
}
