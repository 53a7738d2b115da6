// Package sqlrewrite implements the bounded, mechanical SQL transformations
// the query layer is allowed to perform: whitespace normalization, row-limit
// injection, complexity classification, and table-name extraction. It is
// deliberately not a SQL parser.
package sqlrewrite

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	// FROM/JOIN table references, optionally schema-qualified. Quoted
	// identifiers and subqueries are out of scope for the textual classifier.
	tableRefRe  = regexp.MustCompile(`(?i)\b(?:FROM|JOIN)\s+([a-zA-Z_][a-zA-Z0-9_.]*)`)
	complexRe   = regexp.MustCompile(`(?i)\b(?:JOIN|UNION)\b`)
	limitRe     = regexp.MustCompile(`(?i)\bLIMIT\s+\d+`)
	aggregateRe = regexp.MustCompile(`(?i)\bGROUP\s+BY\b|\b(?:COUNT|SUM|AVG|MIN|MAX)\s*\(`)
)

// Normalize collapses runs of whitespace to single spaces and trims the ends.
// Case is preserved: two queries differing only in casing are distinct.
func Normalize(sql string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(sql, " "))
}

// IsComplex reports whether a query is expensive enough to warrant
// materialization: it contains a JOIN or UNION. Simple point lookups are
// never cached, to bound memory use.
func IsComplex(sql string) bool {
	return complexRe.MatchString(sql)
}

// EnsureLimit appends "LIMIT n" unless the query already carries a limit or
// an aggregation (which typically returns few rows anyway). Any trailing
// semicolon is stripped first.
func EnsureLimit(sql string, n int) string {
	trimmed := strings.TrimRight(strings.TrimSpace(sql), ";")
	if limitRe.MatchString(trimmed) || aggregateRe.MatchString(trimmed) {
		return trimmed
	}
	return trimmed + " LIMIT " + strconv.Itoa(n)
}

// ExtractTableNames returns the bare table names referenced by FROM and JOIN
// clauses, deduplicated in order of first appearance. Schema qualifiers are
// stripped ("analytics.sales" → "sales").
func ExtractTableNames(sql string) []string {
	matches := tableRefRe.FindAllStringSubmatch(sql, -1)
	seen := make(map[string]struct{}, len(matches))
	var tables []string
	for _, m := range matches {
		name := m[1]
		if i := strings.LastIndex(name, "."); i >= 0 {
			name = name[i+1:]
		}
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		tables = append(tables, name)
	}
	return tables
}

// ReferencesTable reports whether the query's FROM/JOIN clauses mention table.
func ReferencesTable(sql, table string) bool {
	for _, t := range ExtractTableNames(sql) {
		if strings.EqualFold(t, table) {
			return true
		}
	}
	return false
}
