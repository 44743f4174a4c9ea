// Package sql is the database/sql backed implementation of the dialect
// primitives, plus the SQL text rendering shared by the mapping engine.
//
// # Driver
//
// A Driver owns one physical connection. Open or OpenDB take a dedicated
// *sql.Conn out of the pool; everything the Driver executes, including
// transactions and savepoints, runs on it:
//
//	drv, err := sql.Open(ctx, dialect.SQLite, "file:main.db")
//	if err != nil {
//	    return err
//	}
//	defer drv.Close()
//
// StatsDriver and DebugDriver wrap any dialect.Driver with statistics and
// statement logging.
//
// # Rendering
//
// Statements use lower-case keywords, qualified tables, aliases and named
// parameters made of a colon and the lower-cased identifier:
//
//	sql.Insert("TestDb.Tests", []string{"Name"})
//	// insert into TestDb.Tests ( Name ) values ( :name );
//
//	sql.Select("TestDb.Anothers", "another").
//	    Join("TestDb.Tests", "test", sql.ColumnsEQ("another", "Test_Id", "test", "Id")).
//	    String()
//	// select another.* from TestDb.Anothers as another inner join TestDb.Tests as test on another.Test_Id = test.Id
package sql
