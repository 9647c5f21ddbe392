package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/koustreak/dbinit/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errs.ErrKind
	}{
		{"deadline", context.DeadlineExceeded, errs.ErrKindTimeout},
		{"canceled wrapped", fmt.Errorf("exec: %w", context.Canceled), errs.ErrKindTimeout},
		{"no rows", sql.ErrNoRows, errs.ErrKindNotFound},
		{"duplicate entry", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'Acme Corp' for key 'uk_td_company_name'"}, errs.ErrKindConflict},
		{"duplicate key name", &mysql.MySQLError{Number: 1061, Message: "Duplicate key name 'uk_td_company_name'"}, errs.ErrKindConflict},
		{"no such table", &mysql.MySQLError{Number: 1146, Message: "Table 'decase.td_source' doesn't exist"}, errs.ErrKindNotFound},
		{"access denied", &mysql.MySQLError{Number: 1045, Message: "Access denied"}, errs.ErrKindConnectionFailed},
		{"alter privilege", &mysql.MySQLError{Number: 1142, Message: "ALTER command denied"}, errs.ErrKindPermissionDenied},
		{"multiple primary key", &mysql.MySQLError{Number: 1068, Message: "Multiple primary key defined"}, errs.ErrKindQueryFailed},
		{"network", errors.New("dial tcp 127.0.0.1:3306: connect: connection refused"), errs.ErrKindConnectionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err, "op")
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Kind)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestMapError_Nil(t *testing.T) {
	assert.Nil(t, mapError(nil, "op"))
}

func TestMapError_KeepsServerMessage(t *testing.T) {
	got := mapError(&mysql.MySQLError{Number: 1068, Message: "Multiple primary key defined"}, "exec failed")
	assert.Contains(t, got.Message, "Multiple primary key defined")
}

func TestNormalizeDSN(t *testing.T) {
	dsn, err := normalizeDSN("root:secret@tcp(db:3306)/decase")
	require.NoError(t, err)

	cfg, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.True(t, cfg.ParseTime)
	assert.Equal(t, "decase", cfg.DBName)

	_, err = normalizeDSN("not a dsn")
	assert.Error(t, err)
}
