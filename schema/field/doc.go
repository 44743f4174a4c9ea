// Package field provides builders for column descriptors.
//
// A column is declared with its store name and semantic type, then marked
// with role flags:
//
//	field.Int64("Id").PrimaryKey()
//	field.String("Name").Insertable().UniqueName()
//	field.Bool("Active").ActiveFlag()
//	field.Time("Created").Insertable().AutoTimestamp()
//	field.Int64("Test_Id").ForeignKey(Test{}).Insertable()
//
// The bound struct field defaults to the column name converted to Go style
// ("Test_Id" binds to TestID); Field overrides it:
//
//	field.String("nm").Field("Name")
//
// Columns with none of the PrimaryKey, ActiveFlag, UniqueName or ForeignKey
// roles are normal columns.
package field
