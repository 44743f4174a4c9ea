// Package worm maps Go record types to tables of SQLite databases that
// are attached to one connection under logical names.
//
// A record type is registered once with its table descriptor:
//
//	reg := worm.NewRegistry()
//	tests := worm.MustRegister[Test](reg, schema.Define(
//		field.Int64("Id").PrimaryKey(),
//		field.String("Name").UniqueName().Insertable(),
//		field.Time("Created").Insertable().AutoTimestamp(),
//	).InDB("TestDb"))
//
// Registration validates the descriptor and pre-renders the statements of
// the record's operation set:
//
//	db, err := worm.Open(ctx, "sqlite", ":memory:",
//		worm.WithAttachments(config.Attachment{Name: "TestDb", Path: "test.db"}))
//	rec, err := tests.GetOrNew(ctx, db, "name")
//
// Queries join related tables by their foreign keys:
//
//	q := anothers.Select().JoinEq(testName, "name")
//	recs, err := q.All(ctx, db)
package worm
