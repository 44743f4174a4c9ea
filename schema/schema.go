package schema

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/syssam/worm/dialect/sql"
	"github.com/syssam/worm/schema/field"
)

// DefaultQualifier qualifies tables that name neither a schema nor a database.
const DefaultQualifier = "main"

// ErrInvalidSchema is matched by every ValidationError.
var ErrInvalidSchema = errors.New("worm: invalid schema")

// ValidationError represents a table descriptor that breaks a constraint.
type ValidationError struct {
	Table   string
	Column  string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// Is reports whether target is ErrInvalidSchema.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidSchema
}

// Table is the static metadata binding a record type to a relational table.
type Table struct {
	// DB is the logical database the table lives in.
	DB string
	// Schema qualifies the table in SQL text. It falls back to DB.
	Schema string
	Name   string
	// Alias is the correlation name used in every statement on the table.
	Alias   string
	Columns []*field.Descriptor
}

// Define returns a table descriptor with the given columns in order.
// Name and Alias may be left empty and are then derived from the record
// type at registration.
func Define(columns ...*field.Builder) *Table {
	t := &Table{}
	for _, c := range columns {
		t.Columns = append(t.Columns, c.Descriptor())
	}
	return t
}

// InDB sets the logical database.
func (t *Table) InDB(db string) *Table {
	t.DB = db
	return t
}

// InSchema sets the schema qualifier.
func (t *Table) InSchema(schema string) *Table {
	t.Schema = schema
	return t
}

// Named sets the table name.
func (t *Table) Named(name string) *Table {
	t.Name = name
	return t
}

// As sets the table alias.
func (t *Table) As(alias string) *Table {
	t.Alias = alias
	return t
}

// Qualifier returns the name qualifying the table in SQL text.
func (t *Table) Qualifier() string {
	switch {
	case t.Schema != "":
		return t.Schema
	case t.DB != "":
		return t.DB
	default:
		return DefaultQualifier
	}
}

// Qualified returns "qualifier.name".
func (t *Table) Qualified() string {
	return sql.Table(t.Qualifier(), t.Name)
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	c := *t
	c.Columns = make([]*field.Descriptor, len(t.Columns))
	for i, col := range t.Columns {
		cc := *col
		c.Columns[i] = &cc
	}
	return &c
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (*field.Descriptor, bool) {
	i := slices.IndexFunc(t.Columns, func(c *field.Descriptor) bool { return c.Name == name })
	if i < 0 {
		return nil, false
	}
	return t.Columns[i], true
}

// Role returns the first column carrying the role.
func (t *Table) Role(r field.Role) (*field.Descriptor, bool) {
	i := slices.IndexFunc(t.Columns, func(c *field.Descriptor) bool { return c.Is(r) })
	if i < 0 {
		return nil, false
	}
	return t.Columns[i], true
}

// Insertable returns the columns the caller binds in inserts, in order.
func (t *Table) Insertable() []*field.Descriptor {
	return t.filter(func(c *field.Descriptor) bool {
		return c.Is(field.Insertable) && !c.Is(field.AutoTimestamp)
	})
}

// AutoTimestamps returns the columns bound to the insert time, in order.
func (t *Table) AutoTimestamps() []*field.Descriptor {
	return t.filter(func(c *field.Descriptor) bool { return c.Is(field.AutoTimestamp) })
}

// Normal returns the columns without identity roles, in order.
func (t *Table) Normal() []*field.Descriptor {
	return t.filter((*field.Descriptor).Normal)
}

func (t *Table) filter(f func(*field.Descriptor) bool) []*field.Descriptor {
	var cs []*field.Descriptor
	for _, c := range t.Columns {
		if f(c) {
			cs = append(cs, c)
		}
	}
	return cs
}

// ForeignKey is the relation derived from a foreign_key column.
type ForeignKey struct {
	// Column is the referencing column.
	Column *field.Descriptor
	// Target is the referenced record type.
	Target reflect.Type
	// Param is the bind parameter of the column.
	Param string
}

// ForeignKeys returns the foreign keys declared on the table, in order.
func (t *Table) ForeignKeys() []ForeignKey {
	var fks []ForeignKey
	for _, c := range t.Columns {
		if c.Is(field.ForeignKey) {
			fks = append(fks, ForeignKey{Column: c, Target: c.Reference, Param: sql.Param(c.Name)})
		}
	}
	return fks
}

// Validate checks the table-local constraints:
//
//   - identifiers are valid and column names unique,
//   - at most one primary_key, active_flag and unique_name column,
//   - auto_timestamp columns are insertable,
//   - role columns have a type matching their role.
//
// It fails on the first violation.
func (t *Table) Validate() error {
	for _, id := range []struct{ what, v string }{{"table name", t.Name}, {"alias", t.Alias}, {"qualifier", t.Qualifier()}} {
		if !sql.IsValidIdentifier(id.v) {
			return &ValidationError{Table: t.Name, Message: fmt.Sprintf("invalid %s %q", id.what, id.v)}
		}
	}
	if len(t.Columns) == 0 {
		return &ValidationError{Table: t.Name, Message: "a table must contain at least one column"}
	}
	var (
		seen  = make(map[string]struct{}, len(t.Columns))
		roles field.Role
	)
	for _, c := range t.Columns {
		if !sql.IsValidIdentifier(c.Name) {
			return &ValidationError{Table: t.Name, Column: c.Name, Message: "invalid column name"}
		}
		// Identifiers are case-insensitive in the store.
		key := strings.ToLower(c.Name)
		if _, ok := seen[key]; ok {
			return &ValidationError{Table: t.Name, Column: c.Name, Message: "duplicate column"}
		}
		seen[key] = struct{}{}
		for _, r := range []struct {
			role field.Role
			msg  string
		}{
			{field.PrimaryKey, "a table cannot contain more than one primary key"},
			{field.ActiveFlag, "a table cannot contain more than one active flag"},
			{field.UniqueName, "a table cannot contain more than one unique name"},
		} {
			if c.Is(r.role) && roles.Has(r.role) {
				return &ValidationError{Table: t.Name, Column: c.Name, Message: r.msg}
			}
		}
		roles |= c.Roles
		if err := validateColumn(t, c); err != nil {
			return err
		}
	}
	return nil
}

func validateColumn(t *Table, c *field.Descriptor) error {
	fail := func(format string, args ...any) error {
		return &ValidationError{Table: t.Name, Column: c.Name, Message: fmt.Sprintf(format, args...)}
	}
	switch {
	case c.Field == "":
		return fail("column is not bound to a field")
	case c.Type.GoType() == nil:
		return fail("invalid column type")
	case c.Is(field.AutoTimestamp) && !c.Is(field.Insertable):
		return fail("auto_timestamp requires insertable")
	case c.Is(field.AutoTimestamp) && c.Type != field.TypeTime:
		return fail("auto_timestamp column must be of type %s, got %s", field.TypeTime, c.Type)
	case c.Is(field.PrimaryKey) && !c.Type.Integer():
		return fail("primary key must be an integer, got %s", c.Type)
	case c.Is(field.ForeignKey) && !c.Type.Integer():
		return fail("foreign key must be an integer, got %s", c.Type)
	case c.Is(field.ForeignKey) && c.Reference == nil:
		return fail("foreign key without a target type")
	case c.Is(field.ActiveFlag) && c.Type != field.TypeBool:
		return fail("active flag must be of type %s, got %s", field.TypeBool, c.Type)
	case c.Is(field.UniqueName) && c.Type != field.TypeString:
		return fail("unique name must be of type %s, got %s", field.TypeString, c.Type)
	}
	return nil
}
