package ddl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTableAsOrdered(t *testing.T) {
	tests := []struct {
		name    string
		staging string
		source  string
		orderBy []string
		want    string
		wantErr string
	}{
		{
			name:    "single_column",
			staging: "sales__repart",
			source:  "sales",
			orderBy: []string{"region"},
			want:    `CREATE TABLE "sales__repart" AS SELECT * FROM "sales" ORDER BY "region"`,
		},
		{
			name:    "multiple_columns",
			staging: "sales__repart",
			source:  "sales",
			orderBy: []string{"region", "sale_date"},
			want:    `CREATE TABLE "sales__repart" AS SELECT * FROM "sales" ORDER BY "region", "sale_date"`,
		},
		{
			name:    "no_columns",
			staging: "sales__repart",
			source:  "sales",
			wantErr: "at least one ordering column",
		},
		{
			name:    "invalid_staging",
			staging: "bad name",
			source:  "sales",
			orderBy: []string{"region"},
			wantErr: "invalid staging table name",
		},
		{
			name:    "invalid_order_column",
			staging: "sales__repart",
			source:  "sales",
			orderBy: []string{"region; --"},
			wantErr: "invalid ordering column",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CreateTableAsOrdered(tt.staging, tt.source, tt.orderBy)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDropAndRenameTable(t *testing.T) {
	drop, err := DropTable("sales")
	require.NoError(t, err)
	assert.Equal(t, `DROP TABLE "sales"`, drop)

	_, err = DropTable("")
	require.Error(t, err)

	rename, err := RenameTable("sales__repart", "sales")
	require.NoError(t, err)
	assert.Equal(t, `ALTER TABLE "sales__repart" RENAME TO "sales"`, rename)

	_, err = RenameTable("sales", "bad name")
	require.Error(t, err)
}

func TestCreateS3Secret(t *testing.T) {
	got, err := CreateS3Secret("cold_store", "key", "sec'ret", "s3.example.com", "eu-central-1", "path")
	require.NoError(t, err)
	assert.Contains(t, got, `CREATE OR REPLACE SECRET "cold_store"`)
	assert.Contains(t, got, "TYPE S3")
	assert.Contains(t, got, "'sec''ret'")
	assert.Contains(t, got, "'s3.example.com'")

	_, err = CreateS3Secret("bad name", "k", "s", "e", "r", "path")
	require.Error(t, err)
}

func TestValidateIdentifier(t *testing.T) {
	assert.NoError(t, ValidateIdentifier("sales"))
	assert.NoError(t, ValidateIdentifier("_private2"))
	assert.Error(t, ValidateIdentifier(""))
	assert.Error(t, ValidateIdentifier("1abc"))
	assert.Error(t, ValidateIdentifier("with space"))
	assert.Error(t, ValidateIdentifier("semi;colon"))
}

func TestQuoting(t *testing.T) {
	assert.Equal(t, `"sales"`, QuoteIdentifier("sales"))
	assert.Equal(t, `"we""ird"`, QuoteIdentifier(`we"ird`))
	assert.Equal(t, `'it''s'`, QuoteLiteral("it's"))
}
