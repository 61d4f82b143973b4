package bunstore

import (
	"strings"

	"github.com/goliatone/go-repository-proxy/metadata"
	"github.com/uptrace/bun"
)

// typeColumn carries the concrete type name of union members.
const typeColumn = "__entity_type"

// selectQuery builds the single statement that finds rows of t (or of any of its subtypes)
// whose column equals value.
//
// Table-per-class hierarchies are read with a UNION ALL over the concrete tables, each member
// tagging its rows with a type literal and padding missing columns with NULL. Single-table
// hierarchies filter on the discriminator column. A type without hierarchy is a union of one.
func selectQuery(t *metadata.EntityType, column string, value any) (string, []any) {
	if t.Inheritance() == metadata.InheritanceSingleTable {
		return singleTableQuery(t, column, value)
	}
	return unionQuery(t, column, value)
}

func unionQuery(t *metadata.EntityType, column string, value any) (string, []any) {
	concrete := t.ConcreteTypes()
	all := unionColumns(concrete)

	var (
		members []string
		args    []any
	)
	for _, ct := range concrete {
		own := columnSet(ct)
		if !own[column] {
			continue
		}

		exprs := make([]string, 0, len(all)+1)
		for _, col := range all {
			if own[col] {
				exprs = append(exprs, "?")
			} else {
				exprs = append(exprs, "NULL AS ?")
			}
			args = append(args, bun.Ident(col))
		}
		exprs = append(exprs, "? AS ?")
		args = append(args, ct.Name(), bun.Ident(typeColumn))

		members = append(members, "SELECT "+strings.Join(exprs, ", ")+" FROM ? WHERE ? = ?")
		args = append(args, bun.Ident(ct.Table()), bun.Ident(column), value)
	}

	if len(members) == 0 {
		return "", nil
	}
	return strings.Join(members, " UNION ALL "), args
}

func singleTableQuery(t *metadata.EntityType, column string, value any) (string, []any) {
	var discriminators []string
	for _, ct := range t.ConcreteTypes() {
		discriminators = append(discriminators, ct.DiscriminatorValue())
	}
	if len(discriminators) == 0 {
		return "", nil
	}

	query := "SELECT * FROM ? WHERE ? = ? AND ? IN (?)"
	args := []any{
		bun.Ident(t.Table()),
		bun.Ident(column),
		value,
		bun.Ident(t.DiscriminatorColumn()),
		bun.In(discriminators),
	}
	return query, args
}

// columnsOf lists the columns a row of t carries in its own table: identifier, scalar
// attributes, then owning foreign keys.
func columnsOf(t *metadata.EntityType) []string {
	cols := []string{t.IDColumn()}
	for _, attr := range t.Attributes() {
		cols = append(cols, attr.Column)
	}
	for _, a := range t.Associations() {
		if a.IsOwning() {
			cols = append(cols, a.ForeignKey())
		}
	}
	return cols
}

func columnSet(t *metadata.EntityType) map[string]bool {
	set := make(map[string]bool)
	for _, col := range columnsOf(t) {
		set[col] = true
	}
	return set
}

// unionColumns merges the columns of every member, keeping first-seen order.
func unionColumns(types []*metadata.EntityType) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range types {
		for _, col := range columnsOf(t) {
			if seen[col] {
				continue
			}
			seen[col] = true
			out = append(out, col)
		}
	}
	return out
}
