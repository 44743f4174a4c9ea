package worm_test

import (
	"context"
	"database/sql"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/worm"
	"github.com/syssam/worm/config"
	"github.com/syssam/worm/schema"
	"github.com/syssam/worm/schema/field"

	_ "modernc.org/sqlite"
)

// openDB creates the main and TestDb stores in a temporary directory and
// opens a context over them.
func openDB(t *testing.T) *worm.DB {
	t.Helper()
	dir := t.TempDir()
	mainPath := filepath.Join(dir, "main.db")
	testPath := filepath.Join(dir, "test.db")
	create(t, testPath, `create table Tests (
		Id integer primary key,
		Name text not null unique,
		Active boolean not null,
		Created datetime not null,
		Score real
	)`)
	create(t, mainPath, `create table Anothers (
		Id integer primary key,
		Test_Id integer not null,
		Name text not null,
		Tag text not null
	)`)
	db, err := worm.Open(context.Background(), "sqlite", mainPath,
		worm.WithLogger(slog.New(slog.DiscardHandler)),
		worm.WithAttachments(config.Attachment{Name: "TestDb", Path: testPath}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, db.Close()) })
	return db
}

func create(t *testing.T, path string, stmts ...string) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	for _, s := range stmts {
		_, err := db.Exec(s)
		require.NoError(t, err)
	}
}

func ptr[T any](v T) *T { return &v }

func TestInsertNew(t *testing.T) {
	f := newFixture(t)
	db := openDB(t)
	ctx := context.Background()

	before := time.Now().UTC()
	rec, err := f.tests.InsertNew(ctx, db, "a", true, 1.5)
	require.NoError(t, err)
	assert.NotZero(t, rec.ID)
	assert.Equal(t, "a", rec.Name)
	assert.True(t, rec.Active)
	assert.WithinDuration(t, before, rec.Created, time.Minute)
	assert.False(t, rec.Created.Before(before.Truncate(time.Second)), "created %s before %s", rec.Created, before)
	require.NotNil(t, rec.Score)
	assert.Equal(t, 1.5, *rec.Score)
	ops := db.Stats().Operations
	assert.Equal(t, int64(1), ops["insert"])
	assert.Equal(t, int64(1), ops["get_by_id"])

	rec2, err := f.tests.InsertNew(ctx, db, "b", false, nil)
	require.NoError(t, err)
	assert.NotEqual(t, rec.ID, rec2.ID)
	assert.Nil(t, rec2.Score)
	assert.False(t, rec2.Active)

	rec3, err := f.tests.InsertNew(ctx, db, "c", true, ptr(2.0))
	require.NoError(t, err)
	assert.Equal(t, 2.0, *rec3.Score)

	got, err := f.tests.GetByID(ctx, db, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Name, got.Name)
	assert.True(t, rec.Created.Equal(got.Created))
}

func TestInsertNew_Errors(t *testing.T) {
	f := newFixture(t)
	db := openDB(t)
	ctx := context.Background()

	_, err := f.tests.InsertNew(ctx, db, "a")
	var merr *worm.MutationError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, "insert", merr.Op)
	assert.ErrorContains(t, err, "expected 3 values (Name, Active, Score), got 1")

	_, err = f.tests.InsertNew(ctx, db, 5, true, nil)
	assert.ErrorContains(t, err, "column Name: cannot use int as string")

	_, err = f.tests.InsertNew(ctx, db, nil, true, nil)
	assert.ErrorIs(t, err, worm.ErrNullValue)

	_, err = f.tests.InsertNew(ctx, db, "a", true, nil)
	require.NoError(t, err)
	_, err = f.tests.InsertNew(ctx, db, "a", false, nil)
	require.Error(t, err)
	assert.True(t, worm.IsConstraintError(err), "unique violation is a constraint error: %v", err)

	all, err := f.tests.Select().All(ctx, db)
	require.NoError(t, err)
	assert.Len(t, all, 1, "failed insert leaves no row")

	type Plain struct {
		Name string
	}
	plains := worm.MustRegister[Plain](f.reg, schema.Define(field.String("Name")))
	_, err = plains.InsertNew(ctx, db, "x")
	assert.True(t, worm.IsConfigError(err))
}

func TestGetByName(t *testing.T) {
	f := newFixture(t)
	db := openDB(t)
	ctx := context.Background()

	_, err := f.tests.GetByName(ctx, db, "a")
	require.True(t, worm.IsNotFound(err))
	var nf *worm.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "a", nf.ID())

	rec, err := f.tests.InsertNew(ctx, db, "a", true, nil)
	require.NoError(t, err)
	got, err := f.tests.GetByName(ctx, db, "a")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)

	_, err = f.tests.GetByID(ctx, db, rec.ID+100)
	assert.True(t, worm.IsNotFound(err))
}

func TestGetOrNew(t *testing.T) {
	f := newFixture(t)
	db := openDB(t)
	ctx := context.Background()

	first, err := f.tests.GetOrNew(ctx, db, "a", true, nil)
	require.NoError(t, err)
	second, err := f.tests.GetOrNew(ctx, db, "a", false, 3.0)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.Active, "existing record is returned unchanged")

	all, err := f.tests.Select().All(ctx, db)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = f.tests.GetOrNew(ctx, db, "a")
	assert.Error(t, err)
	_, err = f.anothers.GetOrNew(ctx, db, int64(1), "n", "t")
	assert.True(t, worm.IsConfigError(err))
}

func TestGetAllBy(t *testing.T) {
	f := newFixture(t)
	db := openDB(t)
	ctx := context.Background()

	a, err := f.tests.InsertNew(ctx, db, "a", true, nil)
	require.NoError(t, err)
	b, err := f.tests.InsertNew(ctx, db, "b", true, nil)
	require.NoError(t, err)
	for _, v := range []struct {
		test      int64
		name, tag string
	}{
		{a.ID, "n", "x"},
		{a.ID, "n", "y"},
		{b.ID, "m", "x"},
	} {
		_, err := f.anothers.InsertNew(ctx, db, v.test, v.name, v.tag)
		require.NoError(t, err)
	}

	recs, err := worm.GetAllBy(ctx, db, f.anothers, f.anotherName, "n")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, []string{"x", "y"}, []string{worm.Get(recs[0], f.anotherTag), worm.Get(recs[1], f.anotherTag)})

	recs, err = f.anothers.GetAllBy(ctx, db, f.anotherTag, "x")
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	recs, err = f.anothers.GetAllBy(ctx, db, f.anotherName, "none")
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)

	_, err = f.tests.GetAllBy(ctx, db, f.testName, "a")
	assert.True(t, worm.IsConfigError(err), "unique name is not a normal column")

	recs2, err := f.tests.GetAllBy(ctx, db, f.testScore, nil)
	require.NoError(t, err)
	assert.Empty(t, recs2, "= NULL matches nothing")
}

func TestQuery_All(t *testing.T) {
	f := newFixture(t)
	db := openDB(t)
	ctx := context.Background()

	a, err := f.tests.InsertNew(ctx, db, "a", true, nil)
	require.NoError(t, err)
	b, err := f.tests.InsertNew(ctx, db, "b", true, nil)
	require.NoError(t, err)
	for _, id := range []int64{a.ID, a.ID, b.ID} {
		_, err := f.anothers.InsertNew(ctx, db, id, "n", "t")
		require.NoError(t, err)
	}

	recs, err := f.anothers.Select().JoinEq(f.testName, "a").All(ctx, db)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	for _, r := range recs {
		assert.Equal(t, a.ID, f.anothers.ForeignKeyValue(r, f.tests))
	}

	rec, err := f.anothers.Select().JoinEq(f.testName, "b").Only(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, b.ID, rec.TestID)

	_, err = f.anothers.Select().JoinEq(f.testName, "a").Only(ctx, db)
	assert.True(t, worm.IsNotSingular(err))
	_, err = f.anothers.Select().JoinEq(f.testName, "c").Only(ctx, db)
	assert.True(t, worm.IsNotFound(err))

	tests, err := f.tests.Select().JoinPK(f.anothers).WhereEq(f.testName, "b").All(ctx, db)
	require.NoError(t, err)
	assert.Len(t, tests, 1)

	_, err = f.anothers.Select().WhereEq(f.anotherName, 1).All(ctx, db)
	var qerr *worm.QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, "select", qerr.Op)
}

func TestAccessors(t *testing.T) {
	f := newFixture(t)
	rec := &Test{ID: 3, Name: "a", Active: true, Score: ptr(1.0)}
	assert.Equal(t, int64(3), f.tests.ID(rec))
	assert.Equal(t, "a", f.tests.UniqueName(rec))
	assert.True(t, f.tests.Active(rec))
	assert.Equal(t, 1.0, *worm.Get(rec, f.testScore))
	assert.Equal(t, "a", worm.Get(rec, f.testName))

	another := &Another{ID: 1, TestID: 3, Name: "n"}
	assert.Equal(t, int64(3), f.anothers.ForeignKeyValue(another, f.tests))
	assert.PanicsWithError(t, "worm: config error on type Another: table has no unique name column", func() {
		f.anothers.UniqueName(another)
	})
	assert.Panics(t, func() { f.anothers.Active(another) })
	assert.Panics(t, func() { f.tests.ForeignKeyValue(rec, f.anothers) })
	assert.Panics(t, func() { worm.Get(rec, worm.Field[Test, string]{}) })
}

func TestDB_Attach(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	assert.Equal(t, "TestDb", firstKey(db.Attached()))
	err := db.Attach(ctx, "TestDb", filepath.Join(t.TempDir(), "x.db"))
	assert.True(t, worm.IsConfigError(err))
	err = db.Attach(ctx, "bad name", filepath.Join(t.TempDir(), "x.db"))
	assert.True(t, worm.IsConfigError(err))

	other := filepath.Join(t.TempDir(), "other.db")
	require.NoError(t, db.Attach(ctx, "Other", other))
	assert.Equal(t, map[string]string{"Other": other, "TestDb": db.Attached()["TestDb"]}, db.Attached())
	require.NoError(t, db.Detach(ctx, "Other"))
	assert.True(t, worm.IsConfigError(db.Detach(ctx, "Other")))

	s := db.Stats()
	assert.Positive(t, s.TotalExecs)
}

func TestOpenConfig(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	testPath := filepath.Join(dir, "test.db")
	create(t, testPath, `create table Tests (Id integer primary key, Name text not null unique, Active boolean not null, Created datetime not null, Score real)`)

	c := config.Default()
	c.Attach = []config.Attachment{{Name: "TestDb", Path: testPath}}
	c.Debug = true
	ctx := context.Background()
	db, err := worm.OpenConfig(ctx, c, worm.WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)
	defer db.Close()

	rec, err := f.tests.GetOrNew(ctx, db, "a", true, nil)
	require.NoError(t, err)
	assert.Equal(t, "a", rec.Name)

	c.Attach = append(c.Attach, c.Attach[0])
	_, err = worm.OpenConfig(ctx, c)
	assert.Error(t, err)

	_, err = worm.Open(ctx, "sqlite", ":memory:", worm.WithSlowThreshold(-time.Second))
	assert.True(t, worm.IsConfigError(err))
	_, err = worm.Open(ctx, "sqlite", ":memory:", worm.WithLogger(nil))
	assert.True(t, worm.IsConfigError(err))
}

func firstKey(m map[string]string) string {
	for k := range m {
		return k
	}
	return ""
}
