// Package mixin provides reusable column sets for table descriptors.
//
// The built-in mixins carry the identity roles most tables share:
//
//	mixin.ID{}         // Id int64, primary key
//	mixin.Name{}       // Name string, unique name, insertable
//	mixin.Active{}     // Active bool, active flag, insertable
//	mixin.CreateTime{} // Created time.Time, auto timestamp
//
// A table is defined from mixins and its own columns:
//
//	t := mixin.Define([]mixin.Mixin{mixin.ID{}, mixin.Name{}},
//		field.Int64("Test_Id").ForeignKey(Test{}),
//	).InDB("TestDb")
package mixin
