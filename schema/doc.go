// Package schema holds the table descriptor model and its constraint
// validation.
//
// A Table binds a record type to a relational table: the qualifier used in
// SQL text, the table name, the alias used as correlation name, and the
// ordered column descriptors built with package field:
//
//	t := schema.Define(
//	    field.Int64("Id").PrimaryKey(),
//	    field.Int64("Test_Id").ForeignKey(Test{}).Insertable(),
//	).InSchema("TestDb").Named("Anothers").As("another")
//
// Validate checks the constraints that can be decided from the descriptor
// alone. Constraints spanning several tables, such as a foreign key target
// having a primary key, are checked by the registry that owns the tables.
package schema
