package worm

import (
	"context"
	"reflect"
)

// Ref is a column reference resolved from a registered record type.
type Ref interface {
	// Name returns the column name.
	Name() string
	recordType() reflect.Type
}

// ColumnOf is a column reference of record type T.
type ColumnOf[T any] interface {
	Ref
	ownedBy(*T)
}

// Field is a typed reference to a column of record type T whose bound
// struct field has type V. Fields are obtained from Column, which checks
// them against the constant registry, so a Field always names an existing
// column.
type Field[T, V any] struct {
	name  string
	index []int
}

// Name returns the column name.
func (f Field[T, V]) Name() string { return f.name }

func (f Field[T, V]) recordType() reflect.Type { return reflect.TypeFor[T]() }

func (Field[T, V]) ownedBy(*T) {}

// Column returns the typed reference to the column registered under the
// upper-cased constant name. It panics with a *ConfigError if the constant
// is unknown or V is not the type of the bound field:
//
//	var testName = worm.Column[string](tests, "NAME")
func Column[V, T any](m *Model[T], constant string) Field[T, V] {
	name, ok := m.consts[constant]
	if !ok {
		panic(m.configError("", "unknown column constant %q", constant))
	}
	c := m.byName[name]
	if want := reflect.TypeFor[V](); c.typ != want {
		panic(m.configError(name, "column field has type %s, not %s", c.typ, want))
	}
	return Field[T, V]{name: name, index: c.index}
}

// Get returns a copy of the field value bound to the column.
func Get[T, V any](rec *T, f Field[T, V]) V {
	if f.name == "" {
		panic(NewConfigError(reflect.TypeFor[T]().Name(), "", "zero column reference", nil))
	}
	return reflect.ValueOf(rec).Elem().FieldByIndex(f.index).Interface().(V)
}

// GetAllBy is the typed form of Model.GetAllBy.
func GetAllBy[T, V any](ctx context.Context, db *DB, m *Model[T], f Field[T, V], v V) ([]*T, error) {
	return m.GetAllBy(ctx, db, f, v)
}

// ID returns the primary key of the record.
// It panics with a *ConfigError if the table has no primary key.
func (m *Model[T]) ID(rec *T) int64 {
	return m.roleValue(rec, m.pk, "primary key").Int()
}

// UniqueName returns the unique name of the record.
// It panics with a *ConfigError if the table has no unique name.
func (m *Model[T]) UniqueName(rec *T) string {
	return m.roleValue(rec, m.name, "unique name").String()
}

// Active returns the active flag of the record.
// It panics with a *ConfigError if the table has no active flag.
func (m *Model[T]) Active(rec *T) bool {
	return m.roleValue(rec, m.active, "active flag").Bool()
}

// ForeignKeyValue returns the value of the foreign key column referencing
// the target table. It panics with a *ConfigError if there is none.
func (m *Model[T]) ForeignKeyValue(rec *T, target Joinable) int64 {
	t := target.descriptor().typ
	for _, fk := range m.fks {
		if fk.Target == t {
			return m.roleValue(rec, m.byName[fk.Column.Name], "foreign key").Int()
		}
	}
	panic(m.configError("", "no foreign key to %s", t.Name()))
}

func (m *Model[T]) roleValue(rec *T, c *column, role string) reflect.Value {
	if c == nil {
		panic(m.configError("", "table has no %s column", role))
	}
	return reflect.ValueOf(rec).Elem().FieldByIndex(c.index)
}

var _ ColumnOf[struct{}] = Field[struct{}, int64]{}
