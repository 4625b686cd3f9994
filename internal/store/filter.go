package store

import (
	"strconv"
	"strings"
)

// matchKind tags how a condition's values are compared against its column.
type matchKind int

const (
	matchContains matchKind = iota // case-insensitive substring, OR across values
	matchEquals                    // exact equality, single value
	matchOpen                      // date_closed null or empty
	matchClosed                    // date_closed non-null and non-empty
)

// cond is one per-field condition. Columns come only from the fixed field
// mapping below, never from client input.
type cond struct {
	column string
	kind   matchKind
	values []string
}

// VenueFilter carries the optional venue filter parameters shared by the
// list, summary, export, and distinct operations. Values equal to "all"
// (case-insensitive) or empty are treated as absent.
type VenueFilter struct {
	Chains     []string
	Categories []string
	DMAs       []string
	City       string
	State      string
	OpenStatus string
}

// isAll reports whether a value means "no constraint".
func isAll(v string) bool {
	return v == "" || strings.EqualFold(v, "all")
}

// prune drops "all"/empty entries from a candidate list.
func prune(values []string) []string {
	var out []string
	for _, v := range values {
		if !isAll(v) {
			out = append(out, v)
		}
	}
	return out
}

// conds compiles the filter into its condition list. Fields whose values all
// degrade to "all"/empty contribute nothing.
func (f VenueFilter) conds() []cond {
	var cs []cond

	contains := []struct {
		column string
		values []string
	}{
		{"chain_name", f.Chains},
		{"sub_category", f.Categories},
		{"dma", f.DMAs},
	}
	for _, c := range contains {
		if vs := prune(c.values); len(vs) > 0 {
			cs = append(cs, cond{column: c.column, kind: matchContains, values: vs})
		}
	}

	if !isAll(f.City) {
		cs = append(cs, cond{column: "city", kind: matchEquals, values: []string{f.City}})
	}
	if !isAll(f.State) {
		cs = append(cs, cond{column: "state_name", kind: matchEquals, values: []string{f.State}})
	}

	switch strings.ToLower(f.OpenStatus) {
	case "open":
		cs = append(cs, cond{column: "date_closed", kind: matchOpen})
	case "closed":
		cs = append(cs, cond{column: "date_closed", kind: matchClosed})
	}

	return cs
}

// dialect renders conditions into driver-specific placeholder and operator
// syntax. Pagination params are always appended after the filter params, so
// the same rendered predicate serves COUNT, paged SELECT, and export.
type dialect interface {
	// placeholder returns the bind marker for the n-th parameter (1-based).
	placeholder(n int) string
	// containsExpr renders a case-insensitive substring match of column
	// against the given placeholder.
	containsExpr(column, placeholder string) string
}

type sqliteDialect struct{}

func (sqliteDialect) placeholder(int) string { return "?" }
func (sqliteDialect) containsExpr(column, ph string) string {
	return column + " LIKE " + ph + " COLLATE NOCASE"
}

type postgresDialect struct{}

func (postgresDialect) placeholder(n int) string { return "$" + strconv.Itoa(n) }
func (postgresDialect) containsExpr(column, ph string) string {
	return column + " ILIKE " + ph
}

// whereClause renders the filter to a WHERE clause (or "" when unconstrained)
// and its ordered bind parameters. Per-field predicates are OR-groups joined
// by AND. Every value is bound, never interpolated.
func whereClause(f VenueFilter, d dialect) (string, []any) {
	cs := f.conds()
	if len(cs) == 0 {
		return "", nil
	}

	var groups []string
	var args []any

	for _, c := range cs {
		switch c.kind {
		case matchContains:
			var ors []string
			for _, v := range c.values {
				args = append(args, "%"+v+"%")
				ors = append(ors, d.containsExpr(c.column, d.placeholder(len(args))))
			}
			groups = append(groups, "("+strings.Join(ors, " OR ")+")")
		case matchEquals:
			args = append(args, c.values[0])
			groups = append(groups, c.column+" = "+d.placeholder(len(args)))
		case matchOpen:
			groups = append(groups, "("+c.column+" IS NULL OR "+c.column+" = '')")
		case matchClosed:
			groups = append(groups, "("+c.column+" IS NOT NULL AND "+c.column+" <> '')")
		}
	}

	return " WHERE " + strings.Join(groups, " AND "), args
}
