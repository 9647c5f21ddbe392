package schema

import (
	"context"
	"strings"

	"github.com/koustreak/dbinit/internal/database"
)

// PostgresCatalog implements Catalog for PostgreSQL. Auto-increment maps to
// an identity column; serial columns (nextval default) also count.
type PostgresCatalog struct {
	sqlCatalog
}

// NewPostgresCatalog creates a new Postgres column catalog
func NewPostgresCatalog(db database.DB) *PostgresCatalog {
	return &PostgresCatalog{sqlCatalog{db: db}}
}

// AlterStatement renders one ALTER TABLE with an action per attribute, e.g.
//
//	ALTER TABLE "t" ALTER COLUMN "c" TYPE BIGINT,
//	    ALTER COLUMN "c" SET NOT NULL,
//	    ALTER COLUMN "c" ADD GENERATED BY DEFAULT AS IDENTITY
//
// Re-running it on an identity column fails, which the reconciler treats as
// benign.
func (p *PostgresCatalog) AlterStatement(d Descriptor) string {
	q := database.DialectPostgres
	col := "ALTER COLUMN " + q.QuoteIdent(d.Column)

	actions := []string{col + " TYPE " + d.Type}
	if d.NotNull {
		actions = append(actions, col+" SET NOT NULL")
	} else {
		actions = append(actions, col+" DROP NOT NULL")
	}
	if d.AutoIncrement {
		actions = append(actions, col+" ADD GENERATED BY DEFAULT AS IDENTITY")
	} else {
		actions = append(actions, col+" DROP IDENTITY IF EXISTS")
	}

	return "ALTER TABLE " + q.QuoteIdent(d.Table) + " " + strings.Join(actions, ", ")
}

// QueryColumns reads the column from information_schema in the current
// schema and synthesises an extra string carrying the auto-increment marker.
func (p *PostgresCatalog) QueryColumns(ctx context.Context, table, column string) ([]ColumnInfo, error) {
	const q = `
		SELECT
			c.column_name::text,
			c.data_type::text,
			c.is_nullable = 'YES' AS is_nullable,
			CASE
				WHEN c.is_identity = 'YES'
					THEN 'auto_increment identity ' || COALESCE(c.identity_generation::text, '')
				WHEN c.column_default LIKE 'nextval(%'
					THEN 'auto_increment serial'
				ELSE ''
			END AS extra
		FROM information_schema.columns c
		WHERE c.table_schema = current_schema()
		  AND c.table_name   = $1
		  AND c.column_name  = $2`

	return p.queryColumns(ctx, q, table, column)
}
