// Package schema brings one column of one table into a required definition
// at process start and verifies the result against the catalog.
//
// The alteration is best-effort. It is expected to fail when the column is
// already in shape or a sibling replica won the race; the catalog read that
// always follows is the source of truth.
package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/koustreak/dbinit/internal/errs"
	"github.com/koustreak/dbinit/internal/logger"
)

// Reconciler applies a Descriptor through a Catalog.
type Reconciler struct {
	catalog Catalog
	log     *logger.Logger
}

// NewReconciler returns a Reconciler. A nil log discards output; a logger
// carried by ctx takes precedence.
func NewReconciler(catalog Catalog, log *logger.Logger) *Reconciler {
	if log == nil {
		log = logger.Nop()
	}
	return &Reconciler{catalog: catalog, log: log}
}

// Reconcile attempts the alteration once, then reads the column back.
// It never returns an error or panics; every failure is folded into the
// Outcome and logged.
func (r *Reconciler) Reconcile(ctx context.Context, d Descriptor) (out Outcome) {
	log := logger.FromContextOr(ctx, r.log).With().Str("table", d.Table).Str("column", d.Column).Logger()
	out = Outcome{Target: d.String()}

	defer func() {
		if p := recover(); p != nil {
			out.verifyErr = fmt.Errorf("reconcile panicked: %v", p)
			out.VerifyError = out.verifyErr.Error()
			out.Status = StatusUnverified
			out.Severity = errs.SeverityFatal
			out.AutoIncrement = false
			log.ErrorWith("reconcile aborted", out.verifyErr, nil)
		}
	}()

	if err := d.Validate(); err != nil {
		out.Alter = AlterSkipped
		out.Status = StatusInvalid
		out.Severity = errs.SeverityFatal
		out.verifyErr = err
		out.VerifyError = err.Error()
		log.ErrorWith("invalid column descriptor", err, nil)
		return out
	}

	r.alter(ctx, log, d, &out)
	r.verify(ctx, log, d, &out)
	return out
}

// alter issues the DDL and classifies a failure: backend unavailability is
// fatal for this sub-step, anything else the database rejects is benign.
func (r *Reconciler) alter(ctx context.Context, log *logger.Logger, d Descriptor, out *Outcome) {
	out.Statement = r.catalog.AlterStatement(d)
	log.Info("attempting column alteration")
	log.Debugf("alter statement: %s", out.Statement)

	err := r.catalog.Execute(ctx, out.Statement)
	switch {
	case err == nil:
		out.Alter = AlterApplied
		log.Info("column alteration applied")
	case errs.IsUnavailable(err):
		out.Alter = AlterFailed
		out.alterErr = err
		out.AlterError = err.Error()
		log.WarnWith("column alteration could not run; verifying current state", err, nil)
	default:
		out.Alter = AlterRejected
		out.alterErr = err
		out.AlterError = err.Error()
		log.WarnWith("column alteration rejected; it may already be applied", err, nil)
	}
}

// verify reads the column and sets Status, Severity and AutoIncrement.
func (r *Reconciler) verify(ctx context.Context, log *logger.Logger, d Descriptor, out *Outcome) {
	cols, err := r.catalog.QueryColumns(ctx, d.Table, d.Column)
	if err != nil {
		out.Status = StatusUnverified
		out.Severity = errs.SeverityFatal
		out.verifyErr = err
		out.VerifyError = err.Error()
		log.ErrorWith("could not read column metadata", err, nil)
		return
	}

	col, ok := pick(cols, d.Column)
	if !ok {
		out.Status = StatusMissing
		out.Severity = errs.SeverityDiagnostic
		log.Error("column not found in catalog")
		return
	}
	out.Column = &col

	log.InfoWith("column metadata", map[string]interface{}{
		"type":     col.Type,
		"nullable": col.Nullable,
		"extra":    col.Extra,
	})

	out.AutoIncrement = col.HasAutoIncrement()
	if diff := mismatched(d, col); len(diff) > 0 {
		out.Status = StatusMismatch
		out.Severity = errs.SeverityDiagnostic
		log.ErrorWith("column definition does not match", nil, map[string]interface{}{
			"mismatched":          strings.Join(diff, ","),
			"want_type":           d.Type,
			"want_not_null":       d.NotNull,
			"want_auto_increment": d.AutoIncrement,
			"alter":               string(out.Alter),
		})
		return
	}

	out.Status = StatusConfirmed
	if out.Alter == AlterApplied {
		out.Severity = errs.SeverityNone
	} else {
		out.Severity = errs.SeverityBenign
	}
	log.With().Bool("auto_increment", out.AutoIncrement).Logger().Info("column definition confirmed")
}

// mismatched names the attributes of col that differ from d: type,
// nullability and auto_increment.
func mismatched(d Descriptor, col ColumnInfo) []string {
	var diff []string
	if baseType(col.Type) != baseType(d.Type) {
		diff = append(diff, "type")
	}
	if col.Nullable == d.NotNull {
		diff = append(diff, "nullable")
	}
	if col.HasAutoIncrement() != d.AutoIncrement {
		diff = append(diff, "auto_increment")
	}
	return diff
}

// baseType strips display width and modifiers: MySQL reports bigint(20) or
// "bigint unsigned" where PostgreSQL reports bigint.
func baseType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	if i := strings.IndexAny(t, "( "); i >= 0 {
		t = t[:i]
	}
	return t
}

// pick returns the row whose name matches column, case-insensitively.
// Catalogs on case-insensitive filesystems may echo a different case.
func pick(cols []ColumnInfo, column string) (ColumnInfo, bool) {
	for _, c := range cols {
		if strings.EqualFold(c.Name, column) {
			return c, true
		}
	}
	return ColumnInfo{}, false
}
