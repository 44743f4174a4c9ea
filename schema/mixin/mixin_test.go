package mixin_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/worm/schema/field"
	"github.com/syssam/worm/schema/mixin"
)

type audit struct {
	mixin.Schema
}

func (audit) Columns() []*field.Builder {
	return []*field.Builder{field.String("Created_By").Insertable()}
}

func TestSchema(t *testing.T) {
	assert.Nil(t, mixin.Schema{}.Columns())
}

func TestDefine(t *testing.T) {
	tbl := mixin.Define(
		[]mixin.Mixin{mixin.ID{}, mixin.Name{}, mixin.Active{}, mixin.CreateTime{}, audit{}},
		field.Float64("Score"),
	).Named("Tests").As("test")
	require.NoError(t, tbl.Validate())

	var names []string
	for _, c := range tbl.Columns {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Id", "Name", "Active", "Created", "Created_By", "Score"}, names)

	pk, ok := tbl.Role(field.PrimaryKey)
	require.True(t, ok)
	assert.Equal(t, "Id", pk.Name)
	assert.Equal(t, "ID", pk.Field)

	created, ok := tbl.Column("Created")
	require.True(t, ok)
	assert.True(t, created.Is(field.Insertable|field.AutoTimestamp))

	var normal []string
	for _, c := range tbl.Normal() {
		normal = append(normal, c.Name)
	}
	assert.Equal(t, []string{"Created", "Created_By", "Score"}, normal)
}

func TestDefine_DuplicateRole(t *testing.T) {
	tbl := mixin.Define([]mixin.Mixin{mixin.ID{}}, field.Int64("Other").PrimaryKey()).Named("Tests").As("test")
	assert.ErrorContains(t, tbl.Validate(), "a table cannot contain more than one primary key")
}
