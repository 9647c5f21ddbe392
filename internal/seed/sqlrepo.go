package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/koustreak/dbinit/internal/database"
	"github.com/koustreak/dbinit/internal/errs"
)

// table maps a Kind onto its relational table.
type table struct {
	name      string
	idCol     string
	keyCol    string
	nameCol   string
	parentCol string // empty for root kinds
	keyIndex  string
}

var tables = map[Kind]table{
	KindOrganization: {
		name:     "td_company",
		idCol:    "company_id",
		keyCol:   "name",
		nameCol:  "name",
		keyIndex: "uk_td_company_name",
	},
	KindUnit: {
		name:      "td_department",
		idCol:     "department_id",
		keyCol:    "code",
		nameCol:   "name",
		parentCol: "company_id",
		keyIndex:  "uk_td_department_code",
	},
}

// SQLRepository stores seeds in td_company and td_department.
type SQLRepository struct {
	db database.DB
}

// NewSQLRepository returns a repository over db.
func NewSQLRepository(db database.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func lookup(kind Kind) (table, error) {
	t, ok := tables[kind]
	if !ok {
		return table{}, errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("unknown kind %q", kind))
	}
	return t, nil
}

func (r *SQLRepository) FindByKey(ctx context.Context, kind Kind, key string) (*Entity, error) {
	t, err := lookup(kind)
	if err != nil {
		return nil, err
	}

	cols := []string{t.idCol, t.keyCol, t.nameCol}
	if t.parentCol != "" {
		cols = append(cols, t.parentCol)
	}

	query, args, err := database.Select(t.name, r.db.Dialect()).
		Columns(cols...).
		Where(t.keyCol, "=", key).
		Limit(1).
		Build()
	if err != nil {
		return nil, err
	}

	e := Entity{Kind: kind}
	dest := []any{&e.ID, &e.Key, &e.Name}
	if t.parentCol != "" {
		dest = append(dest, &e.ParentID)
	}
	if err := r.db.QueryRow(ctx, query, args...).Scan(dest...); err != nil {
		if errs.IsNotFound(err) {
			return nil, errs.Wrap(errs.ErrKindNotFound, fmt.Sprintf("%s %q not found", kind, key), err)
		}
		return nil, err
	}
	return &e, nil
}

func (r *SQLRepository) Insert(ctx context.Context, e Entity) (*Entity, error) {
	t, err := lookup(e.Kind)
	if err != nil {
		return nil, err
	}
	if t.parentCol != "" && e.ParentID == nil {
		return nil, errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("%s %q has no parent", e.Kind, e.Key))
	}

	d := r.db.Dialect()
	b := database.Insert(t.name, d).
		Set(t.keyCol, e.Key).
		Set(t.nameCol, e.Name).
		Returning(t.idCol)
	if t.parentCol != "" {
		b.Set(t.parentCol, *e.ParentID)
	}

	query, args, err := b.Build()
	if err != nil {
		return nil, err
	}

	if d == database.DialectPostgres {
		if err := r.db.QueryRow(ctx, query, args...).Scan(&e.ID); err != nil {
			return nil, err
		}
	} else {
		res, err := r.db.Exec(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		e.ID = res.LastInsertID
	}
	return &e, nil
}

// EnsureUniqueKeys creates the unique index on each table's business key.
// An index that already exists is not an error; a table already holding
// duplicate keys is.
func (r *SQLRepository) EnsureUniqueKeys(ctx context.Context) error {
	d := r.db.Dialect()

	var failures []error
	for _, kind := range []Kind{KindOrganization, KindUnit} {
		t := tables[kind]

		// MySQL has no IF NOT EXISTS for indexes; a duplicate name is
		// reported as a conflict.
		ddl := "CREATE UNIQUE INDEX "
		if d == database.DialectPostgres {
			ddl += "IF NOT EXISTS "
		}
		ddl += d.QuoteIdent(t.keyIndex) + " ON " + d.QuoteIdent(t.name) + " (" + d.QuoteIdent(t.keyCol) + ")"

		_, err := r.db.Exec(ctx, ddl)
		if errs.IsConflict(err) {
			// Both "index exists" and "duplicate rows" come back as
			// conflicts; only the second leaves the table unprotected.
			err = r.findDuplicateKey(ctx, t)
		}
		if err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", t.keyIndex, err))
		}
	}
	return errors.Join(failures...)
}

// findDuplicateKey returns a conflict naming one business key that occurs
// more than once in t, or nil when every key is unique.
func (r *SQLRepository) findDuplicateKey(ctx context.Context, t table) error {
	d := r.db.Dialect()
	key := d.QuoteIdent(t.keyCol)
	q := "SELECT " + key + " FROM " + d.QuoteIdent(t.name) +
		" GROUP BY " + key + " HAVING COUNT(*) > 1 LIMIT 1"

	var dup string
	err := r.db.QueryRow(ctx, q).Scan(&dup)
	switch {
	case err == nil:
		return errs.New(errs.ErrKindConflict,
			fmt.Sprintf("%s already holds duplicate %s values (e.g. %q)", t.name, t.keyCol, dup))
	case errs.IsNotFound(err):
		return nil
	default:
		return fmt.Errorf("checking %s for duplicate keys: %w", t.name, err)
	}
}
