package schema

import (
	"context"
	"testing"

	"github.com/koustreak/dbinit/internal/database"
	"github.com/koustreak/dbinit/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCatalog_Reconcile(t *testing.T) {
	c := NewMemoryCatalog(database.DialectPostgres)
	c.Define("td_source", ColumnInfo{Name: "source_id", Type: "bigint", Nullable: true})

	out := NewReconciler(c, nil).Reconcile(context.Background(), SourceID)

	assert.Equal(t, AlterApplied, out.Alter)
	assert.Equal(t, StatusConfirmed, out.Status)
	require.NotNil(t, out.Column)
	assert.False(t, out.Column.Nullable)
	assert.Equal(t, []string{NewPostgresCatalog(nil).AlterStatement(SourceID)}, c.Executed())
}

func TestMemoryCatalog_MissingColumn(t *testing.T) {
	c := NewMemoryCatalog(database.DialectMySQL)

	err := c.Execute(context.Background(), c.AlterStatement(SourceID))
	assert.True(t, errs.IsNotFound(err))

	cols, err := c.QueryColumns(context.Background(), "td_source", "source_id")
	require.NoError(t, err)
	assert.Empty(t, cols)
}

func TestMemoryCatalog_ForeignStatement(t *testing.T) {
	c := NewMemoryCatalog(database.DialectMySQL)
	err := c.Execute(context.Background(), "DROP TABLE td_source")
	assert.True(t, errs.IsQueryFailed(err))
	assert.Equal(t, []string{"DROP TABLE td_source"}, c.Executed())
}
