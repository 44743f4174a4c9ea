package field

import (
	"reflect"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Type is the semantic type of a column's bound field.
type Type uint8

// Field types.
const (
	TypeInvalid Type = iota
	TypeBool
	TypeInt
	TypeInt64
	TypeFloat64
	TypeString
	TypeBytes
	TypeTime
)

var typeNames = [...]string{
	TypeInvalid: "invalid",
	TypeBool:    "bool",
	TypeInt:     "int",
	TypeInt64:   "int64",
	TypeFloat64: "float64",
	TypeString:  "string",
	TypeBytes:   "[]byte",
	TypeTime:    "time.Time",
}

// String returns the Go spelling of the type.
func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return typeNames[TypeInvalid]
}

// Integer reports if the type is an integer type.
func (t Type) Integer() bool {
	return t == TypeInt || t == TypeInt64
}

// GoType returns the Go type a struct field bound to a column of this type
// has. A pointer to it is accepted as well for nullable columns.
func (t Type) GoType() reflect.Type {
	switch t {
	case TypeBool:
		return reflect.TypeFor[bool]()
	case TypeInt:
		return reflect.TypeFor[int]()
	case TypeInt64:
		return reflect.TypeFor[int64]()
	case TypeFloat64:
		return reflect.TypeFor[float64]()
	case TypeString:
		return reflect.TypeFor[string]()
	case TypeBytes:
		return reflect.TypeFor[[]byte]()
	case TypeTime:
		return reflect.TypeFor[time.Time]()
	}
	return nil
}

// Role is a set of column role flags.
type Role uint8

// Column roles.
const (
	// PrimaryKey marks the unique numeric identifier.
	PrimaryKey Role = 1 << iota
	// ActiveFlag marks the boolean enablement column.
	ActiveFlag
	// UniqueName marks the human-readable alternate key.
	UniqueName
	// ForeignKey marks a reference to another table's primary key.
	ForeignKey
	// Insertable columns are bound by the caller in inserts.
	Insertable
	// AutoTimestamp columns are bound to the current UTC time in inserts.
	AutoTimestamp
)

// identity holds the roles that give a column a special meaning. Columns
// without any of them are normal columns.
const identity = PrimaryKey | ActiveFlag | UniqueName | ForeignKey

var roleNames = []struct {
	r    Role
	name string
}{
	{PrimaryKey, "primary_key"},
	{ActiveFlag, "active_flag"},
	{UniqueName, "unique_name"},
	{ForeignKey, "foreign_key"},
	{Insertable, "insertable"},
	{AutoTimestamp, "auto_timestamp"},
}

// Has reports if all roles in x are set.
func (r Role) Has(x Role) bool {
	return r&x == x
}

// String returns the roles joined with "|".
func (r Role) String() string {
	var names []string
	for _, n := range roleNames {
		if r.Has(n.r) {
			names = append(names, n.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// Descriptor is the static metadata of one column.
type Descriptor struct {
	// Name is the column name in the store.
	Name string
	// Field is the name of the Go struct field the column is bound to.
	Field string
	Type  Type
	Roles Role
	// Reference is the record type a foreign key column points to.
	Reference reflect.Type
}

// Is reports if the column carries the role.
func (d *Descriptor) Is(r Role) bool {
	return d.Roles.Has(r)
}

// Normal reports if the column carries no identity role. Normal columns
// get the generic accessor and fetch-all-by-column operation.
func (d *Descriptor) Normal() bool {
	return d.Roles&identity == 0
}

// Builder builds a column descriptor.
type Builder struct {
	desc *Descriptor
}

func newBuilder(name string, t Type) *Builder {
	return &Builder{desc: &Descriptor{Name: name, Field: GoName(name), Type: t}}
}

// Bool returns a new column builder of type bool.
func Bool(name string) *Builder { return newBuilder(name, TypeBool) }

// Int returns a new column builder of type int.
func Int(name string) *Builder { return newBuilder(name, TypeInt) }

// Int64 returns a new column builder of type int64.
func Int64(name string) *Builder { return newBuilder(name, TypeInt64) }

// Float64 returns a new column builder of type float64.
func Float64(name string) *Builder { return newBuilder(name, TypeFloat64) }

// String returns a new column builder of type string.
func String(name string) *Builder { return newBuilder(name, TypeString) }

// Bytes returns a new column builder of type []byte.
func Bytes(name string) *Builder { return newBuilder(name, TypeBytes) }

// Time returns a new column builder of type time.Time.
func Time(name string) *Builder { return newBuilder(name, TypeTime) }

// Field binds the column to the named struct field instead of the one
// derived from the column name.
func (b *Builder) Field(name string) *Builder {
	b.desc.Field = name
	return b
}

// PrimaryKey marks the column as the primary key.
func (b *Builder) PrimaryKey() *Builder {
	b.desc.Roles |= PrimaryKey
	return b
}

// ActiveFlag marks the column as the active flag.
func (b *Builder) ActiveFlag() *Builder {
	b.desc.Roles |= ActiveFlag
	return b
}

// UniqueName marks the column as the unique name.
func (b *Builder) UniqueName() *Builder {
	b.desc.Roles |= UniqueName
	return b
}

// Insertable includes the column in inserts as a caller supplied value.
func (b *Builder) Insertable() *Builder {
	b.desc.Roles |= Insertable
	return b
}

// AutoTimestamp has the column set to the current UTC time on insert.
// The column must be Insertable as well.
func (b *Builder) AutoTimestamp() *Builder {
	b.desc.Roles |= AutoTimestamp
	return b
}

// ForeignKey marks the column as a reference to the primary key of the
// record type of target. target is a value or a nil pointer of that type:
//
//	field.Int64("Test_Id").ForeignKey(Test{})
//	field.Int64("Test_Id").ForeignKey((*Test)(nil))
func (b *Builder) ForeignKey(target any) *Builder {
	b.desc.Roles |= ForeignKey
	t := reflect.TypeOf(target)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	b.desc.Reference = t
	return b
}

// Descriptor returns the built descriptor.
func (b *Builder) Descriptor() *Descriptor {
	return b.desc
}

var initialism = map[string]string{
	"Id":   "ID",
	"Uid":  "UID",
	"Url":  "URL",
	"Uuid": "UUID",
	"Api":  "API",
	"Json": "JSON",
	"Http": "HTTP",
	"Sql":  "SQL",
}

// GoName returns the Go field name derived from a column name: the
// underscore separated words are title-cased and joined, with common
// initialisms upper-cased.
//
//	GoName("Test_Id")   // TestID
//	GoName("user_name") // UserName
func GoName(column string) string {
	var (
		b strings.Builder
		// Casers keep state and cannot be shared between goroutines.
		title = cases.Title(language.Und, cases.NoLower)
	)
	for _, w := range strings.FieldsFunc(column, func(r rune) bool { return r == '_' || r == '-' || r == ' ' }) {
		w = title.String(w)
		if up, ok := initialism[w]; ok {
			w = up
		}
		b.WriteString(w)
	}
	return b.String()
}
