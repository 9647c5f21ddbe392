package schema

import (
	"errors"
	"strings"

	"github.com/koustreak/dbinit/internal/errs"
)

// AutoIncrementMarker is the token catalogs put in ColumnInfo.Extra when the
// column generates its own values. Matching is case-insensitive.
const AutoIncrementMarker = "auto_increment"

// Descriptor names one column and the definition it must end up with.
type Descriptor struct {
	Table         string
	Column        string
	Type          string // SQL type, e.g. BIGINT
	NotNull       bool
	AutoIncrement bool
}

// SourceID is the column the service needs auto-incrementing: source rows
// are inserted without an explicit id.
var SourceID = Descriptor{
	Table:         "td_source",
	Column:        "source_id",
	Type:          "BIGINT",
	NotNull:       true,
	AutoIncrement: true,
}

func (d Descriptor) String() string {
	return d.Table + "." + d.Column
}

// Validate rejects descriptors that cannot be rendered into DDL.
func (d Descriptor) Validate() error {
	var missing []string
	if d.Table == "" {
		missing = append(missing, "table")
	}
	if d.Column == "" {
		missing = append(missing, "column")
	}
	if d.Type == "" {
		missing = append(missing, "type")
	}
	if len(missing) > 0 {
		return errs.New(errs.ErrKindInvalidInput, "descriptor is missing "+strings.Join(missing, ", "))
	}
	return nil
}

// ColumnInfo is one catalog row for the target column, read fresh on every
// reconciliation pass.
type ColumnInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
	Extra    string `json:"extra"`
}

// HasAutoIncrement reports whether Extra carries the auto-increment marker.
func (c ColumnInfo) HasAutoIncrement() bool {
	return strings.Contains(strings.ToLower(c.Extra), AutoIncrementMarker)
}

// AlterResult records what happened to the alteration statement.
type AlterResult string

const (
	AlterApplied  AlterResult = "applied"  // statement succeeded
	AlterRejected AlterResult = "rejected" // database refused it; usually already applied
	AlterFailed   AlterResult = "failed"   // backend unreachable, timed out or denied
	AlterSkipped  AlterResult = "skipped"  // descriptor invalid, nothing issued
)

// Status is the verified state of the column after the pass.
type Status string

const (
	StatusConfirmed  Status = "confirmed"  // observed attributes match the descriptor
	StatusMismatch   Status = "mismatch"   // column present, type, nullability or auto-increment differs
	StatusMissing    Status = "missing"    // no such table or column
	StatusUnverified Status = "unverified" // catalog could not be read
	StatusInvalid    Status = "invalid"    // descriptor rejected before any SQL
)

// Outcome is the structured result of one reconciliation pass.
type Outcome struct {
	Target      string        `json:"target"`
	Statement   string        `json:"statement,omitempty"`
	Alter       AlterResult   `json:"alter"`
	AlterError  string        `json:"alter_error,omitempty"`
	Status      Status        `json:"status"`
	Severity    errs.Severity `json:"severity"`
	Column      *ColumnInfo   `json:"column,omitempty"`
	VerifyError string        `json:"verify_error,omitempty"`

	// AutoIncrement is true only when the catalog confirmed the marker.
	AutoIncrement bool `json:"auto_increment"`

	alterErr  error
	verifyErr error
}

// Err returns the alteration and verification errors joined, or nil.
func (o Outcome) Err() error {
	return errors.Join(o.alterErr, o.verifyErr)
}
