package sql

import (
	"strings"
)

// Param returns the bind parameter for the identifier: ":" followed by
// the lower-cased identifier.
//
//	sql.Param("Test_Id") // :test_id
func Param(ident string) string {
	return ":" + strings.ToLower(ident)
}

// Table returns the qualified table name "qualifier.name". An empty qualifier
// leaves the name bare.
func Table(qualifier, name string) string {
	if qualifier == "" {
		return name
	}
	return qualifier + "." + name
}

// Column returns the column reference "alias.column".
func Column(alias, column string) string {
	return alias + "." + column
}

// Predicate is an equality predicate "alias.column = :param" carrying the
// value bound to its parameter.
type Predicate struct {
	Alias  string
	Column string
	// Param is the parameter name including the leading colon.
	Param string
	Value any
}

// EQ returns an equality predicate.
func EQ(alias, column, param string, value any) *Predicate {
	return &Predicate{Alias: alias, Column: column, Param: param, Value: value}
}

// String renders the predicate.
func (p *Predicate) String() string {
	return Column(p.Alias, p.Column) + " = " + p.Param
}

// Arg returns the predicate's value as a named argument.
func (p *Predicate) Arg() NamedArg {
	return Named(strings.TrimPrefix(p.Param, ":"), p.Value)
}

// ColumnsEQ renders the column equality "l.lc = r.rc" used in join conditions.
func ColumnsEQ(leftAlias, leftColumn, rightAlias, rightColumn string) string {
	return Column(leftAlias, leftColumn) + " = " + Column(rightAlias, rightColumn)
}

// ParamArg returns the named argument bound to the rendered parameter param.
func ParamArg(param string, value any) NamedArg {
	return Named(strings.TrimPrefix(param, ":"), value)
}

// NamedParam returns the named argument bound to the parameter of the
// identifier.
func NamedParam(ident string, value any) NamedArg {
	return Named(strings.ToLower(ident), value)
}
