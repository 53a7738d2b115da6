// Package ddl builds DuckDB DDL statements for the repartition rewrite and
// cold-tier object store access.
package ddl

import (
	"fmt"
	"strings"
)

// CreateTableAsOrdered returns the DDL for the first half of a repartition
// rewrite: CREATE TABLE "<staging>" AS SELECT * FROM "<source>" ORDER BY
// "<col1>", "<col2>", .... Ordering by the partition columns clusters rows
// so scans filtered on those columns touch fewer row groups.
func CreateTableAsOrdered(staging, source string, orderBy []string) (string, error) {
	if err := ValidateIdentifier(staging); err != nil {
		return "", fmt.Errorf("invalid staging table name: %w", err)
	}
	if err := ValidateIdentifier(source); err != nil {
		return "", fmt.Errorf("invalid source table name: %w", err)
	}
	if len(orderBy) == 0 {
		return "", fmt.Errorf("at least one ordering column is required")
	}

	cols := make([]string, 0, len(orderBy))
	for _, c := range orderBy {
		if err := ValidateIdentifier(c); err != nil {
			return "", fmt.Errorf("invalid ordering column %q: %w", c, err)
		}
		cols = append(cols, QuoteIdentifier(c))
	}

	return fmt.Sprintf("CREATE TABLE %s AS SELECT * FROM %s ORDER BY %s",
		QuoteIdentifier(staging),
		QuoteIdentifier(source),
		strings.Join(cols, ", "),
	), nil
}

// DropTable returns: DROP TABLE "<table>".
func DropTable(table string) (string, error) {
	if err := ValidateIdentifier(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	return "DROP TABLE " + QuoteIdentifier(table), nil
}

// RenameTable returns: ALTER TABLE "<from>" RENAME TO "<to>".
func RenameTable(from, to string) (string, error) {
	if err := ValidateIdentifier(from); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	if err := ValidateIdentifier(to); err != nil {
		return "", fmt.Errorf("invalid target table name: %w", err)
	}
	return fmt.Sprintf("ALTER TABLE %s RENAME TO %s", QuoteIdentifier(from), QuoteIdentifier(to)), nil
}

// CreateS3Secret returns the DDL to register S3 credentials with DuckDB so
// the cold tier can read and write object storage.
func CreateS3Secret(name, keyID, secret, endpoint, region, urlStyle string) (string, error) {
	if err := ValidateIdentifier(name); err != nil {
		return "", fmt.Errorf("invalid secret name: %w", err)
	}
	return fmt.Sprintf(`CREATE OR REPLACE SECRET %s (
	TYPE S3,
	KEY_ID %s,
	SECRET %s,
	ENDPOINT %s,
	REGION %s,
	URL_STYLE %s
)`,
		QuoteIdentifier(name),
		QuoteLiteral(keyID),
		QuoteLiteral(secret),
		QuoteLiteral(endpoint),
		QuoteLiteral(region),
		QuoteLiteral(urlStyle),
	), nil
}
