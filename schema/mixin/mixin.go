package mixin

import (
	"github.com/syssam/worm/schema"
	"github.com/syssam/worm/schema/field"
)

// Mixin is a reusable set of columns.
type Mixin interface {
	Columns() []*field.Builder
}

// Schema is the default implementation for the Mixin interface.
// It should be embedded in all custom mixin definitions.
//
//	type Audit struct {
//		mixin.Schema
//	}
//
//	func (Audit) Columns() []*field.Builder {
//		return []*field.Builder{field.String("Created_By").Insertable()}
//	}
type Schema struct{}

// Columns returns no columns.
func (Schema) Columns() []*field.Builder { return nil }

var _ Mixin = (*Schema)(nil)

// ID adds the integer primary key column "Id".
type ID struct {
	Schema
}

// Columns returns the primary key column.
func (ID) Columns() []*field.Builder {
	return []*field.Builder{field.Int64("Id").PrimaryKey()}
}

// Name adds the insertable unique name column "Name".
type Name struct {
	Schema
}

// Columns returns the unique name column.
func (Name) Columns() []*field.Builder {
	return []*field.Builder{field.String("Name").UniqueName().Insertable()}
}

// Active adds the insertable active flag column "Active".
type Active struct {
	Schema
}

// Columns returns the active flag column.
func (Active) Columns() []*field.Builder {
	return []*field.Builder{field.Bool("Active").ActiveFlag().Insertable()}
}

// CreateTime adds the "Created" column, set to the insert time.
type CreateTime struct {
	Schema
}

// Columns returns the created column.
func (CreateTime) Columns() []*field.Builder {
	return []*field.Builder{field.Time("Created").Insertable().AutoTimestamp()}
}

// Define returns a table descriptor with the columns of the mixins, in
// the order the mixins are listed, followed by columns.
func Define(mixins []Mixin, columns ...*field.Builder) *schema.Table {
	var all []*field.Builder
	for _, m := range mixins {
		all = append(all, m.Columns()...)
	}
	return schema.Define(append(all, columns...)...)
}
