package worm

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/go-openapi/inflect"

	"github.com/syssam/worm/dialect/sql"
	"github.com/syssam/worm/schema"
	"github.com/syssam/worm/schema/field"
)

// Registry maps record types to their validated table descriptors.
// Tables referenced by foreign keys must be registered before the tables
// referencing them.
type Registry struct {
	mu      sync.RWMutex
	types   map[reflect.Type]*meta
	aliases map[string]reflect.Type
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		types:   make(map[reflect.Type]*meta),
		aliases: make(map[string]reflect.Type),
	}
}

// Table returns the registered table descriptor of the record type.
func (r *Registry) Table(t reflect.Type) (*schema.Table, bool) {
	m, ok := r.lookup(t)
	if !ok {
		return nil, false
	}
	return m.table.Clone(), true
}

func (r *Registry) lookup(t reflect.Type) (*meta, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.types[t]
	return m, ok
}

// column is a column descriptor bound to its struct field.
type column struct {
	desc  *field.Descriptor
	index []int
	// typ is the type of the bound struct field.
	typ reflect.Type
	// param is the bind parameter of the column in insert statements.
	param string
}

// meta is the type-erased registration of one record type. It is
// immutable once registered.
type meta struct {
	reg     *Registry
	typ     reflect.Type
	table   *schema.Table
	columns []*column
	byName  map[string]*column
	// consts maps upper-cased column names to column names.
	consts map[string]string
	pk     *column
	active *column
	name   *column
	insert []*column
	stamps []*column
	fks    []schema.ForeignKey
	// normal maps normal column names to their fetch-all statement.
	normal map[string]string

	insertSQL string
	byIDSQL   string
	byNameSQL string
}

// Model is the operation set of a registered record type T.
type Model[T any] struct {
	*meta
}

// MustRegister is like Register but panics on configuration errors.
func MustRegister[T any](r *Registry, t *schema.Table) *Model[T] {
	m, err := Register[T](r, t)
	if err != nil {
		panic(err)
	}
	return m
}

// Register validates the table descriptor of record type T and returns its
// operation set. The descriptor is copied; later changes to t have no
// effect. Empty table names default to the pluralized type name, empty
// aliases to the lower-cased type name.
func Register[T any](r *Registry, t *schema.Table) (*Model[T], error) {
	typ := reflect.TypeFor[T]()
	if typ.Kind() != reflect.Struct {
		return nil, NewConfigError(typ.String(), "", "record type must be a struct", nil)
	}
	table := t.Clone()
	if table.Name == "" {
		table.Name = inflect.Pluralize(typ.Name())
	}
	if table.Alias == "" {
		table.Alias = strings.ToLower(typ.Name())
	}
	if err := table.Validate(); err != nil {
		return nil, NewConfigError(typ.Name(), "", "invalid table", err)
	}
	m := &meta{
		reg:    r,
		typ:    typ,
		table:  table,
		byName: make(map[string]*column, len(table.Columns)),
		consts: make(map[string]string, len(table.Columns)),
		normal: make(map[string]string),
	}
	for _, d := range table.Columns {
		c, err := bind(typ, d)
		if err != nil {
			return nil, err
		}
		m.columns = append(m.columns, c)
		m.byName[d.Name] = c
		m.consts[strings.ToUpper(d.Name)] = d.Name
		switch {
		case d.Is(field.PrimaryKey):
			m.pk = c
		case d.Is(field.ActiveFlag):
			m.active = c
		case d.Is(field.UniqueName):
			m.name = c
		}
		if d.Normal() {
			m.normal[d.Name] = sql.SelectBy(table.Qualified(), table.Alias, d.Name)
		}
	}
	for _, d := range table.Insertable() {
		m.insert = append(m.insert, m.byName[d.Name])
	}
	for _, d := range table.AutoTimestamps() {
		m.stamps = append(m.stamps, m.byName[d.Name])
	}
	m.fks = table.ForeignKeys()
	for _, fk := range m.fks {
		m.byName[fk.Column.Name].param = fk.Param
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.types[typ]; ok {
		return nil, NewConfigError(typ.Name(), "", "type already registered", nil)
	}
	if other, ok := r.aliases[table.Alias]; ok {
		return nil, NewConfigError(typ.Name(), "", fmt.Sprintf("alias %q already used by %s", table.Alias, other.Name()), nil)
	}
	for _, fk := range m.fks {
		target := m
		if fk.Target != typ {
			var ok bool
			if target, ok = r.types[fk.Target]; !ok {
				return nil, NewConfigError(typ.Name(), fk.Column.Name, fmt.Sprintf("foreign key target %s is not registered", fk.Target), nil)
			}
		}
		if target.pk == nil {
			return nil, NewConfigError(typ.Name(), fk.Column.Name, fmt.Sprintf("foreign key target %s has no primary key", fk.Target.Name()), nil)
		}
	}
	m.render()
	r.types[typ] = m
	r.aliases[table.Alias] = typ
	return &Model[T]{meta: m}, nil
}

// bind resolves the struct field of the column and checks its type.
func bind(typ reflect.Type, d *field.Descriptor) (*column, error) {
	sf, ok := typ.FieldByName(d.Field)
	if !ok {
		return nil, NewConfigError(typ.Name(), d.Name, fmt.Sprintf("no field %s", d.Field), nil)
	}
	if !sf.IsExported() {
		return nil, NewConfigError(typ.Name(), d.Name, fmt.Sprintf("field %s is not exported", d.Field), nil)
	}
	want := d.Type.GoType()
	switch {
	case sf.Type == want:
	case sf.Type.Kind() == reflect.Pointer && sf.Type.Elem() == want && d.Normal() && !d.Is(field.AutoTimestamp):
		// Nullable normal column.
	default:
		return nil, NewConfigError(typ.Name(), d.Name, fmt.Sprintf("field %s has type %s, column type is %s", d.Field, sf.Type, d.Type), nil)
	}
	return &column{desc: d, index: sf.Index, typ: sf.Type, param: sql.Param(d.Name)}, nil
}

// render pre-renders the statements of the operation set.
func (m *meta) render() {
	t := m.table
	var cols, params []string
	for _, c := range append(slices.Clip(m.insert), m.stamps...) {
		cols = append(cols, c.desc.Name)
		params = append(params, c.param)
	}
	if len(cols) > 0 {
		m.insertSQL = sql.InsertParams(t.Qualified(), cols, params)
	}
	if m.pk != nil {
		m.byIDSQL = sql.SelectBy(t.Qualified(), t.Alias, m.pk.desc.Name)
	}
	if m.name != nil {
		m.byNameSQL = sql.SelectBy(t.Qualified(), t.Alias, m.name.desc.Name)
	}
}

// Table returns a copy of the registered table descriptor.
func (m *meta) Table() *schema.Table {
	return m.table.Clone()
}

// Constant returns the column name registered under the upper-cased
// constant, e.g. "TEST_ID" for column "Test_Id".
func (m *meta) Constant(name string) (string, bool) {
	c, ok := m.consts[name]
	return c, ok
}

// Constants returns a copy of the constant registry.
func (m *meta) Constants() map[string]string {
	return maps.Clone(m.consts)
}

// NormalColumns returns the names of the normal columns in declaration order.
func (m *meta) NormalColumns() []string {
	var names []string
	for _, c := range m.columns {
		if c.desc.Normal() {
			names = append(names, c.desc.Name)
		}
	}
	return names
}

func (m *meta) label() string {
	return m.table.Name
}

func (m *meta) configError(column, format string, args ...any) *ConfigError {
	return NewConfigError(m.typ.Name(), column, fmt.Sprintf(format, args...), nil)
}
