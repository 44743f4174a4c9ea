package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParam(t *testing.T) {
	assert.Equal(t, ":test_id", Param("Test_Id"))
	assert.Equal(t, ":name", Param("Name"))
	assert.Equal(t, "TestDb.Tests", Table("TestDb", "Tests"))
	assert.Equal(t, "Tests", Table("", "Tests"))
	assert.Equal(t, "test.Id", Column("test", "Id"))
	assert.Equal(t, "another.Test_Id = test.Id", ColumnsEQ("another", "Test_Id", "test", "Id"))

	arg := NamedParam("Test_Id", int64(3))
	assert.Equal(t, "test_id", arg.Name)
	assert.Equal(t, int64(3), arg.Value)
}

func TestInsert(t *testing.T) {
	assert.Equal(t,
		"insert into TestDb.Tests ( Name, Created ) values ( :name, :created );",
		Insert("TestDb.Tests", []string{"Name", "Created"}),
	)
	assert.Equal(t,
		"insert into main.Anothers ( Test_Id, Name ) values ( :test_id, :name );",
		InsertParams("main.Anothers", []string{"Test_Id", "Name"}, []string{":test_id", ":name"}),
	)
	arg := ParamArg(":test_id", int64(2))
	assert.Equal(t, "test_id", arg.Name)
	assert.Equal(t, int64(2), arg.Value)
}

func TestSelectBy(t *testing.T) {
	assert.Equal(t,
		"select test.* from TestDb.Tests as test where test.Name = :name",
		SelectBy("TestDb.Tests", "test", "Name"),
	)
}

func TestSelector(t *testing.T) {
	s := Select("main.Anothers", "another")
	assert.Equal(t, "another", s.Alias())
	assert.Equal(t, "select another.* from main.Anothers as another", s.String())

	j := s.Join("TestDb.Tests", "test", ColumnsEQ("another", "Test_Id", "test", "Id"))
	j.And(EQ("test", "Name", s.Param("test", "Name"), "x"))
	s.Where(EQ("another", "Name", s.Param("another", "Name"), "y"))
	s.Where(EQ("another", "Name", s.Param("another", "Name"), "z"))

	query, args := s.Query()
	assert.Equal(t, "select another.* from main.Anothers as another"+
		" inner join TestDb.Tests as test on another.Test_Id = test.Id and test.Name = :name"+
		" where another.Name = :another_name and another.Name = :another_name_2", query)
	assert.Equal(t, []any{Named("name", "x"), Named("another_name", "y"), Named("another_name_2", "z")}, args)
	assert.Equal(t, query, s.String(), "rendering is idempotent")

	got, ok := s.Joined("test")
	require.True(t, ok)
	assert.Same(t, j, got)
	_, ok = s.Joined("other")
	assert.False(t, ok)
}

func TestSelectorClone(t *testing.T) {
	s := Select("main.Tests", "test")
	s.Join("main.Anothers", "another", ColumnsEQ("another", "Test_Id", "test", "Id"))
	c := s.Clone()
	c.Where(EQ("test", "Name", c.Param("test", "Name"), "x"))
	j, ok := c.Joined("another")
	require.True(t, ok)
	j.And(EQ("another", "Id", c.Param("another", "Id"), 1))

	assert.Equal(t, "select test.* from main.Tests as test inner join main.Anothers as another on another.Test_Id = test.Id", s.String())
	assert.Equal(t, ":name", s.Param("test", "Name"), "params of the clone do not leak")
	assert.Equal(t, "select test.* from main.Tests as test"+
		" inner join main.Anothers as another on another.Test_Id = test.Id and another.Id = :id"+
		" where test.Name = :name", c.String())
}
