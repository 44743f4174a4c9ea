package sql

import (
	"slices"
	"strconv"
	"strings"
)

// Insert renders an insert statement binding every column to its
// lower-cased parameter:
//
//	insert into TestDb.Tests ( Name, Created ) values ( :name, :created );
func Insert(table string, columns []string) string {
	params := make([]string, len(columns))
	for i, c := range columns {
		params[i] = Param(c)
	}
	return InsertParams(table, columns, params)
}

// InsertParams is like Insert with the parameters given per column.
func InsertParams(table string, columns, params []string) string {
	var b strings.Builder
	b.WriteString("insert into ")
	b.WriteString(table)
	b.WriteString(" ( ")
	b.WriteString(strings.Join(columns, ", "))
	b.WriteString(" ) values ( ")
	b.WriteString(strings.Join(params, ", "))
	b.WriteString(" );")
	return b.String()
}

// SelectBy renders the single column fetch:
//
//	select test.* from TestDb.Tests as test where test.Name = :name
func SelectBy(table, alias, column string) string {
	return Select(table, alias).Where(EQ(alias, column, Param(column), nil)).String()
}

// Selector accumulates the clauses of a select statement over one base
// table. Rendering order is fixed: projection, from, joins in the order
// they were added, where predicates in the order they were added.
type Selector struct {
	table  string
	alias  string
	joins  []*JoinClause
	where  []*Predicate
	params map[string]struct{}
}

// JoinClause is one inner join of a Selector.
type JoinClause struct {
	Table string
	Alias string
	// On holds the rendered join conditions.
	On    []string
	preds []*Predicate
}

// Select starts a selector projecting every column of the aliased table.
func Select(table, alias string) *Selector {
	return &Selector{table: table, alias: alias, params: make(map[string]struct{})}
}

// Alias returns the alias of the base table.
func (s *Selector) Alias() string { return s.alias }

// Param allocates a parameter name for a predicate on alias.column.
// The first parameter on a column is ":column"; a second one on the same
// column name is prefixed with the alias, and further ones get a numeric
// suffix.
func (s *Selector) Param(alias, column string) string {
	candidates := []string{
		Param(column),
		Param(alias + "_" + column),
	}
	for _, c := range candidates {
		if _, ok := s.params[c]; !ok {
			s.params[c] = struct{}{}
			return c
		}
	}
	base := Param(alias + "_" + column)
	for i := 2; ; i++ {
		c := base + "_" + strconv.Itoa(i)
		if _, ok := s.params[c]; !ok {
			s.params[c] = struct{}{}
			return c
		}
	}
}

// Join adds an inner join and returns it for further conditions.
func (s *Selector) Join(table, alias string, on ...string) *JoinClause {
	j := &JoinClause{Table: table, Alias: alias, On: on}
	s.joins = append(s.joins, j)
	return j
}

// Joined returns the join with the given alias, if any.
func (s *Selector) Joined(alias string) (*JoinClause, bool) {
	for _, j := range s.joins {
		if j.Alias == alias {
			return j, true
		}
	}
	return nil, false
}

// And appends an equality predicate to the join condition.
func (j *JoinClause) And(p *Predicate) *JoinClause {
	j.preds = append(j.preds, p)
	return j
}

// Where appends a predicate to the where clause.
func (s *Selector) Where(p *Predicate) *Selector {
	s.where = append(s.where, p)
	return s
}

// Clone returns a deep copy of the selector.
func (s *Selector) Clone() *Selector {
	c := &Selector{
		table:  s.table,
		alias:  s.alias,
		where:  slices.Clone(s.where),
		params: make(map[string]struct{}, len(s.params)),
	}
	for k := range s.params {
		c.params[k] = struct{}{}
	}
	for _, j := range s.joins {
		c.joins = append(c.joins, &JoinClause{
			Table: j.Table,
			Alias: j.Alias,
			On:    slices.Clone(j.On),
			preds: slices.Clone(j.preds),
		})
	}
	return c
}

// String renders the statement text. It does not modify the selector.
func (s *Selector) String() string {
	var b strings.Builder
	b.WriteString("select ")
	b.WriteString(s.alias)
	b.WriteString(".* from ")
	b.WriteString(s.table)
	b.WriteString(" as ")
	b.WriteString(s.alias)
	for _, j := range s.joins {
		b.WriteString(" inner join ")
		b.WriteString(j.Table)
		b.WriteString(" as ")
		b.WriteString(j.Alias)
		conds := slices.Clone(j.On)
		for _, p := range j.preds {
			conds = append(conds, p.String())
		}
		if len(conds) > 0 {
			b.WriteString(" on ")
			b.WriteString(strings.Join(conds, " and "))
		}
	}
	for i, p := range s.where {
		if i == 0 {
			b.WriteString(" where ")
		} else {
			b.WriteString(" and ")
		}
		b.WriteString(p.String())
	}
	return b.String()
}

// Query returns the statement text and its named arguments, ordered as
// their parameters appear in the text.
func (s *Selector) Query() (string, []any) {
	var args []any
	for _, j := range s.joins {
		for _, p := range j.preds {
			args = append(args, p.Arg())
		}
	}
	for _, p := range s.where {
		args = append(args, p.Arg())
	}
	return s.String(), args
}
