package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDataSource(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{"HOT", "COLD", "BOTH"} {
		src, err := ParseDataSource(valid)
		require.NoError(t, err)
		assert.Equal(t, DataSource(valid), src)
	}

	for _, invalid := range []string{"hot", "FEDERATED", "", "WARM"} {
		_, err := ParseDataSource(invalid)
		var validation *ValidationError
		assert.ErrorAs(t, err, &validation, "%q should be rejected", invalid)
	}
}

func TestSchemaEqual(t *testing.T) {
	t.Parallel()

	a := []Column{{Name: "id", Type: "INTEGER"}, {Name: "region", Type: "VARCHAR"}}

	tests := []struct {
		name string
		b    []Column
		want bool
	}{
		{"identical", []Column{{Name: "id", Type: "INTEGER"}, {Name: "region", Type: "VARCHAR"}}, true},
		{"reordered", []Column{{Name: "region", Type: "VARCHAR"}, {Name: "id", Type: "INTEGER"}}, false},
		{"different type", []Column{{Name: "id", Type: "BIGINT"}, {Name: "region", Type: "VARCHAR"}}, false},
		{"missing column", []Column{{Name: "id", Type: "INTEGER"}}, false},
		{"extra column", append(append([]Column{}, a...), Column{Name: "extra", Type: "VARCHAR"}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, SchemaEqual(a, tt.b))
		})
	}

	assert.True(t, SchemaEqual(nil, nil))
	assert.True(t, SchemaEqual(nil, []Column{}))
}

func TestIsTransient(t *testing.T) {
	t.Parallel()

	transient := ErrTransient(SourceHot, errors.New("connection reset"))
	permanent := ErrPermanent(SourceCold, errors.New("syntax error"))

	assert.True(t, IsTransient(transient))
	assert.False(t, IsTransient(permanent))
	assert.False(t, IsTransient(errors.New("plain")))
	assert.False(t, IsTransient(nil))

	// Transience survives wrapping.
	assert.True(t, IsTransient(fmt.Errorf("retry %d: %w", 2, transient)))
	assert.True(t, IsTransient(&RetriesExhaustedError{Backend: SourceHot, Attempts: 3, Err: transient}))
}

func TestErrorUnwrapping(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk full")
	partial := &PartialRepartitionError{Table: "sales", Err: cause}
	assert.ErrorIs(t, partial, cause)

	coord := &CacheCoordinationError{Key: "abc", Err: cause}
	assert.ErrorIs(t, coord, cause)
}
