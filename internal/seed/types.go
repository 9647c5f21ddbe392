package seed

import (
	"context"

	"github.com/koustreak/dbinit/internal/errs"
)

// Kind names a family of reference entities.
type Kind string

const (
	KindOrganization Kind = "organization"
	KindUnit         Kind = "unit"
)

// ParentKind returns the kind a kind hangs off, if any.
func ParentKind(k Kind) (Kind, bool) {
	if k == KindUnit {
		return KindOrganization, true
	}
	return "", false
}

// Entity is a stored reference row.
type Entity struct {
	ID       int64  `json:"id"`
	Kind     Kind   `json:"kind"`
	Key      string `json:"key"`
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id,omitempty"`
}

// Ref points at a seed by kind and business key.
type Ref struct {
	Kind Kind
	Key  string
}

func (r Ref) String() string {
	return string(r.Kind) + ":" + r.Key
}

// Seed declares one entity to ensure. Parent, when set, must be declared
// earlier in the same list.
type Seed struct {
	Kind   Kind
	Key    string
	Name   string
	Parent *Ref
}

// Ref returns the reference other seeds use to point at s.
func (s Seed) Ref() Ref {
	return Ref{Kind: s.Kind, Key: s.Key}
}

// Repository is the storage capability the loader needs.
type Repository interface {
	// FindByKey returns the entity of kind with the business key, or an
	// errs.ErrKindNotFound error.
	FindByKey(ctx context.Context, kind Kind, key string) (*Entity, error)

	// Insert stores e and returns it with its generated ID. A duplicate
	// business key fails with errs.ErrKindConflict.
	Insert(ctx context.Context, e Entity) (*Entity, error)
}

// KeyEnforcer is implemented by repositories that can install the unique
// constraints the loader relies on under concurrent starts.
type KeyEnforcer interface {
	EnsureUniqueKeys(ctx context.Context) error
}

// Status is the per-entity result.
type Status string

const (
	StatusCreated        Status = "created"
	StatusAlreadyPresent Status = "already_present"
	StatusSkipped        Status = "skipped" // parent did not resolve
	StatusFailed         Status = "failed"
)

// Result reports what ensuring one seed did.
type Result struct {
	Kind     Kind          `json:"kind"`
	Key      string        `json:"key"`
	Status   Status        `json:"status"`
	Severity errs.Severity `json:"severity"`
	ID       int64         `json:"id,omitempty"`
	ParentID *int64        `json:"parent_id,omitempty"`
	Error    string        `json:"error,omitempty"`

	err error
}

// Err returns the underlying failure, if any.
func (r Result) Err() error {
	return r.err
}

// Outcome reports a whole Load.
type Outcome struct {
	Results  []Result      `json:"results"`
	Severity errs.Severity `json:"severity"`

	// KeysError is set when installing unique constraints failed. It raises
	// Severity to at least diagnostic.
	KeysError string `json:"keys_error,omitempty"`
}

// Count returns how many results have status s.
func (o Outcome) Count(s Status) int {
	n := 0
	for _, r := range o.Results {
		if r.Status == s {
			n++
		}
	}
	return n
}

// Lookup returns the result for ref.
func (o Outcome) Lookup(ref Ref) (Result, bool) {
	for _, r := range o.Results {
		if r.Kind == ref.Kind && r.Key == ref.Key {
			return r, true
		}
	}
	return Result{}, false
}
