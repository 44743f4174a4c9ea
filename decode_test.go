package worm_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/worm"
)

// mapRow is a RowReader over column values held in a map.
type mapRow map[string]any

func (r mapRow) Value(column string, dest any) error {
	v, ok := r[column]
	if !ok {
		return worm.ErrColumnMissing
	}
	return worm.Assign(dest, v)
}

func TestFromRow(t *testing.T) {
	f := newFixture(t)
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	rec, err := f.tests.FromRow(mapRow{
		"Id":      int64(3),
		"Name":    []byte("a"),
		"Active":  int64(1),
		"Created": "2024-05-01T10:00:00Z",
		"Score":   "2.5",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), rec.ID)
	assert.Equal(t, "a", rec.Name)
	assert.True(t, rec.Active)
	assert.True(t, created.Equal(rec.Created))
	require.NotNil(t, rec.Score)
	assert.Equal(t, 2.5, *rec.Score)

	rec, err = f.tests.FromRow(mapRow{
		"Id":      "4",
		"Name":    "b",
		"Active":  false,
		"Created": created,
		"Score":   nil,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), rec.ID)
	assert.False(t, rec.Active)
	assert.Nil(t, rec.Score)
}

func TestFromRow_Errors(t *testing.T) {
	f := newFixture(t)
	valid := func() mapRow {
		return mapRow{"Id": int64(1), "Name": "a", "Active": int64(0), "Created": time.Now(), "Score": nil}
	}
	tests := []struct {
		name   string
		change func(mapRow)
		column string
		is     error
	}{
		{name: "missing", change: func(r mapRow) { delete(r, "Name") }, column: "Name", is: worm.ErrColumnMissing},
		{name: "null", change: func(r mapRow) { r["Active"] = nil }, column: "Active", is: worm.ErrNullValue},
		{name: "bad integer", change: func(r mapRow) { r["Id"] = "x" }, column: "Id"},
		{name: "fractional integer", change: func(r mapRow) { r["Id"] = 3.7 }, column: "Id"},
		{name: "octal text integer", change: func(r mapRow) { r["Id"] = "010" }, column: "Id"},
		{name: "float boolean", change: func(r mapRow) { r["Active"] = 2.5 }, column: "Active"},
		{name: "bad time", change: func(r mapRow) { r["Created"] = "yesterday" }, column: "Created"},
		{name: "first failure wins", change: func(r mapRow) { delete(r, "Score"); r["Id"] = nil }, column: "Id", is: worm.ErrNullValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := valid()
			tt.change(row)
			_, err := f.tests.FromRow(row)
			var derr *worm.DecodeError
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, "Tests", derr.Table)
			assert.Equal(t, tt.column, derr.Column)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestAssign(t *testing.T) {
	var i8 int8
	assert.Error(t, worm.Assign(&i8, int64(300)), "overflow")
	require.NoError(t, worm.Assign(&i8, int64(12)))
	assert.Equal(t, int8(12), i8)

	var b []byte
	require.NoError(t, worm.Assign(&b, "raw"))
	assert.Equal(t, []byte("raw"), b)

	var s string
	require.NoError(t, worm.Assign(&s, int64(5)))
	assert.Equal(t, "5", s)

	var flag bool
	require.NoError(t, worm.Assign(&flag, "true"))
	assert.True(t, flag)

	var p *int64
	require.NoError(t, worm.Assign(&p, int64(9)))
	require.NotNil(t, p)
	assert.Equal(t, int64(9), *p)
	require.NoError(t, worm.Assign(&p, nil))
	assert.Nil(t, p)

	assert.Error(t, worm.Assign(s, "x"), "non pointer destination")
}

func TestAssign_Strict(t *testing.T) {
	var n int64
	require.NoError(t, worm.Assign(&n, 4.0))
	assert.Equal(t, int64(4), n)
	require.NoError(t, worm.Assign(&n, "10"))
	assert.Equal(t, int64(10), n)
	require.NoError(t, worm.Assign(&n, []byte("-7")))
	assert.Equal(t, int64(-7), n)

	for _, src := range []any{3.7, "010", "0x1F", "1e3", "", true} {
		n = 42
		assert.Error(t, worm.Assign(&n, src), "%#v", src)
		assert.Equal(t, int64(42), n, "%#v", src)
	}

	var flag bool
	require.NoError(t, worm.Assign(&flag, true))
	assert.True(t, flag)
	require.NoError(t, worm.Assign(&flag, int64(0)))
	assert.False(t, flag)
	require.NoError(t, worm.Assign(&flag, "1"))
	assert.True(t, flag)
	for _, src := range []any{2.5, 1.0, "yes"} {
		assert.Error(t, worm.Assign(&flag, src), "%#v", src)
	}
}
