package seed

import (
	"context"
	"fmt"
	"testing"

	"github.com/koustreak/dbinit/internal/database"
	"github.com/koustreak/dbinit/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stmt struct {
	sql  string
	args []any
}

// fakeDB records statements and answers QueryRow and Exec from queues.
type fakeDB struct {
	dialect database.Dialect

	rows     []fakeRow
	results  []database.Result
	execErrs []error

	queryRows []stmt
	execs     []stmt
}

func (f *fakeDB) Ping(context.Context) error { return nil }
func (f *fakeDB) Close()                     {}
func (f *fakeDB) Dialect() database.Dialect  { return f.dialect }

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (database.Result, error) {
	f.execs = append(f.execs, stmt{sql, args})
	var err error
	if len(f.execErrs) > 0 {
		err, f.execErrs = f.execErrs[0], f.execErrs[1:]
	}
	if err != nil {
		return database.Result{}, err
	}
	var res database.Result
	if len(f.results) > 0 {
		res, f.results = f.results[0], f.results[1:]
	}
	return res, nil
}

func (f *fakeDB) Query(context.Context, string, ...any) (database.Rows, error) {
	panic("not used by the repository")
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) database.Row {
	f.queryRows = append(f.queryRows, stmt{sql, args})
	if len(f.rows) == 0 {
		return fakeRow{err: errs.New(errs.ErrKindNotFound, "no rows in result set")}
	}
	var r fakeRow
	r, f.rows = f.rows[0], f.rows[1:]
	return r
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: %d values into %d targets", len(r.values), len(dest))
	}
	for i, v := range r.values {
		switch d := dest[i].(type) {
		case *int64:
			*d = v.(int64)
		case *string:
			*d = v.(string)
		case **int64:
			if v == nil {
				*d = nil
			} else {
				id := v.(int64)
				*d = &id
			}
		default:
			return fmt.Errorf("scan: unsupported target %T", d)
		}
	}
	return nil
}

func TestSQLRepository_FindByKey(t *testing.T) {
	t.Run("mysql unit", func(t *testing.T) {
		db := &fakeDB{rows: []fakeRow{{values: []any{int64(3), "ACME-ENG", "Engineering", int64(1)}}}}

		e, err := NewSQLRepository(db).FindByKey(context.Background(), KindUnit, "ACME-ENG")
		require.NoError(t, err)
		assert.Equal(t, int64(3), e.ID)
		assert.Equal(t, "Engineering", e.Name)
		require.NotNil(t, e.ParentID)
		assert.Equal(t, int64(1), *e.ParentID)

		assert.Equal(t,
			"SELECT `department_id`, `code`, `name`, `company_id` FROM `td_department` WHERE `code` = ? LIMIT ?",
			db.queryRows[0].sql)
		assert.Equal(t, []any{"ACME-ENG", 1}, db.queryRows[0].args)
	})

	t.Run("postgres organization", func(t *testing.T) {
		db := &fakeDB{
			dialect: database.DialectPostgres,
			rows:    []fakeRow{{values: []any{int64(1), "Acme Corp", "Acme Corp"}}},
		}

		e, err := NewSQLRepository(db).FindByKey(context.Background(), KindOrganization, "Acme Corp")
		require.NoError(t, err)
		assert.Equal(t, int64(1), e.ID)
		assert.Nil(t, e.ParentID)
		assert.Equal(t,
			`SELECT "company_id", "name", "name" FROM "td_company" WHERE "name" = $1 LIMIT $2`,
			db.queryRows[0].sql)
	})

	t.Run("absent", func(t *testing.T) {
		_, err := NewSQLRepository(&fakeDB{}).FindByKey(context.Background(), KindOrganization, "Globex")
		assert.True(t, errs.IsNotFound(err))
		assert.Contains(t, err.Error(), `"Globex"`)
	})

	t.Run("unreachable", func(t *testing.T) {
		db := &fakeDB{rows: []fakeRow{{err: errs.New(errs.ErrKindConnectionFailed, "bad connection")}}}
		_, err := NewSQLRepository(db).FindByKey(context.Background(), KindOrganization, "Acme Corp")
		assert.True(t, errs.IsConnectionFailed(err))
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := NewSQLRepository(&fakeDB{}).FindByKey(context.Background(), Kind("region"), "EU")
		assert.True(t, errs.IsInvalidInput(err))
	})
}

func TestSQLRepository_Insert(t *testing.T) {
	parent := int64(1)

	t.Run("mysql reads last insert id", func(t *testing.T) {
		db := &fakeDB{results: []database.Result{{RowsAffected: 1, LastInsertID: 5}}}

		e, err := NewSQLRepository(db).Insert(context.Background(),
			Entity{Kind: KindUnit, Key: "ACME-OPS", Name: "Operations", ParentID: &parent})
		require.NoError(t, err)
		assert.Equal(t, int64(5), e.ID)

		require.Len(t, db.execs, 1)
		assert.Equal(t,
			"INSERT INTO `td_department` (`code`, `name`, `company_id`) VALUES (?, ?, ?)",
			db.execs[0].sql)
		assert.Equal(t, []any{"ACME-OPS", "Operations", int64(1)}, db.execs[0].args)
	})

	t.Run("postgres uses returning", func(t *testing.T) {
		db := &fakeDB{
			dialect: database.DialectPostgres,
			rows:    []fakeRow{{values: []any{int64(8)}}},
		}

		e, err := NewSQLRepository(db).Insert(context.Background(),
			Entity{Kind: KindOrganization, Key: "Acme Corp", Name: "Acme Corp"})
		require.NoError(t, err)
		assert.Equal(t, int64(8), e.ID)
		assert.Empty(t, db.execs)
		assert.Equal(t,
			`INSERT INTO "td_company" ("name") VALUES ($1) RETURNING "company_id"`,
			db.queryRows[0].sql)
		assert.Equal(t, []any{"Acme Corp"}, db.queryRows[0].args)
	})

	t.Run("duplicate key", func(t *testing.T) {
		db := &fakeDB{execErrs: []error{errs.New(errs.ErrKindConflict, "Duplicate entry 'Acme Corp'")}}

		_, err := NewSQLRepository(db).Insert(context.Background(),
			Entity{Kind: KindOrganization, Key: "Acme Corp", Name: "Acme Corp"})
		assert.True(t, errs.IsConflict(err))
	})

	t.Run("unit without parent", func(t *testing.T) {
		db := &fakeDB{}
		_, err := NewSQLRepository(db).Insert(context.Background(), Entity{Kind: KindUnit, Key: "ACME-OPS"})
		assert.True(t, errs.IsInvalidInput(err))
		assert.Empty(t, db.execs)
	})
}

func TestSQLRepository_EnsureUniqueKeys(t *testing.T) {
	t.Run("mysql tolerates existing index", func(t *testing.T) {
		db := &fakeDB{execErrs: []error{errs.New(errs.ErrKindConflict, "Duplicate key name 'uk_td_company_name'")}}

		require.NoError(t, NewSQLRepository(db).EnsureUniqueKeys(context.Background()))
		require.Len(t, db.execs, 2)
		require.Len(t, db.queryRows, 1, "conflict triggers a duplicate check")
		assert.Equal(t, "CREATE UNIQUE INDEX `uk_td_company_name` ON `td_company` (`name`)", db.execs[0].sql)
		assert.Equal(t, "CREATE UNIQUE INDEX `uk_td_department_code` ON `td_department` (`code`)", db.execs[1].sql)
	})

	t.Run("mysql duplicate rows block the index", func(t *testing.T) {
		db := &fakeDB{
			execErrs: []error{errs.New(errs.ErrKindConflict, "Duplicate entry 'Acme Corp' for key 'uk_td_company_name'")},
			rows:     []fakeRow{{values: []any{"Acme Corp"}}},
		}

		err := NewSQLRepository(db).EnsureUniqueKeys(context.Background())
		require.Error(t, err)
		assert.True(t, errs.IsConflict(err))
		assert.Contains(t, err.Error(), "uk_td_company_name")
		assert.Contains(t, err.Error(), `"Acme Corp"`)

		require.Len(t, db.queryRows, 1)
		assert.Equal(t,
			"SELECT `name` FROM `td_company` GROUP BY `name` HAVING COUNT(*) > 1 LIMIT 1",
			db.queryRows[0].sql)
		assert.Len(t, db.execs, 2)
	})

	t.Run("postgres unique violation", func(t *testing.T) {
		db := &fakeDB{
			dialect:  database.DialectPostgres,
			execErrs: []error{nil, errs.New(errs.ErrKindConflict, "could not create unique index")},
			rows:     []fakeRow{{values: []any{"ACME-ENG"}}},
		}

		err := NewSQLRepository(db).EnsureUniqueKeys(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "uk_td_department_code")
		assert.Equal(t,
			`SELECT "code" FROM "td_department" GROUP BY "code" HAVING COUNT(*) > 1 LIMIT 1`,
			db.queryRows[0].sql)
	})

	t.Run("duplicate check fails", func(t *testing.T) {
		db := &fakeDB{
			execErrs: []error{errs.New(errs.ErrKindConflict, "Duplicate key name 'uk_td_company_name'")},
			rows:     []fakeRow{{err: errs.New(errs.ErrKindConnectionFailed, "bad connection")}},
		}

		err := NewSQLRepository(db).EnsureUniqueKeys(context.Background())
		require.Error(t, err)
		assert.True(t, errs.IsConnectionFailed(err))
		assert.Contains(t, err.Error(), "checking td_company for duplicate keys")
	})

	t.Run("postgres", func(t *testing.T) {
		db := &fakeDB{dialect: database.DialectPostgres}

		require.NoError(t, NewSQLRepository(db).EnsureUniqueKeys(context.Background()))
		assert.Equal(t, `CREATE UNIQUE INDEX IF NOT EXISTS "uk_td_company_name" ON "td_company" ("name")`, db.execs[0].sql)
	})

	t.Run("other failures are reported", func(t *testing.T) {
		db := &fakeDB{execErrs: []error{
			nil,
			errs.New(errs.ErrKindPermissionDenied, "INDEX command denied"),
		}}

		err := NewSQLRepository(db).EnsureUniqueKeys(context.Background())
		require.Error(t, err)
		assert.True(t, errs.IsPermissionDenied(err))
		assert.Contains(t, err.Error(), "uk_td_department_code")
		assert.Len(t, db.execs, 2)
	})
}

func TestSQLRepository_WithLoader(t *testing.T) {
	// Empty store: every lookup misses; the two index statements come
	// first, then the inserts hand out 1, 2, 3.
	db := &fakeDB{
		results: []database.Result{{}, {}, {LastInsertID: 1}, {LastInsertID: 2}, {LastInsertID: 3}},
	}

	l, err := NewLoader(NewSQLRepository(db), Baseline(), nil)
	require.NoError(t, err)
	out := l.Load(context.Background())

	assert.Equal(t, 3, out.Count(StatusCreated))
	require.Len(t, db.execs, 5)
	assert.Equal(t, int64(1), db.execs[3].args[2])
	assert.Equal(t, int64(1), db.execs[4].args[2])
}
