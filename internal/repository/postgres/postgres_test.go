package postgres

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medialib/internal/domain"
)

func TestTranslate(t *testing.T) {
	notFound := func() error { return domain.NewNotFound("folder", "x") }
	duplicate := func() error { return &domain.DuplicateNodeError{Kind: "folder", Name: "x"} }
	boom := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), domain.ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, domain.ErrDuplicateNode},
		{"other", boom, boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Translate(tt.err, "get folder", notFound, duplicate)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}

	err := Translate(&pgconn.PgError{Code: "23505"}, "create folder", notFound, nil)
	assert.NotErrorIs(t, err, domain.ErrDuplicateNode)
	assert.Contains(t, err.Error(), "create folder")
	assert.True(t, IsPgForeignKeyError(&pgconn.PgError{Code: "23503"}))
}

func TestSchema_UsesPrefix(t *testing.T) {
	tables := NewTableNames("test_")
	ddl, err := Schema(tables)
	require.NoError(t, err)

	for _, table := range tables.All() {
		assert.Contains(t, ddl, "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
	assert.NotContains(t, ddl, "{{")
	assert.Equal(t, "test_fileables", tables.All()[0])
	assert.True(t, strings.HasSuffix(tables.All()[5], "storages"))
}
