package seed

import (
	"fmt"

	"github.com/koustreak/dbinit/internal/errs"
)

var acme = Ref{Kind: KindOrganization, Key: "Acme Corp"}

// Baseline returns the reference data every environment starts with,
// parents first.
func Baseline() []Seed {
	return []Seed{
		{Kind: KindOrganization, Key: acme.Key, Name: "Acme Corp"},
		{Kind: KindUnit, Key: "ACME-ENG", Name: "Engineering", Parent: &Ref{Kind: acme.Kind, Key: acme.Key}},
		{Kind: KindUnit, Key: "ACME-OPS", Name: "Operations", Parent: &Ref{Kind: acme.Kind, Key: acme.Key}},
	}
}

// ValidateOrder checks that seeds is loadable in order: keys are unique per
// kind, every parent is declared before its children, parents have the kind
// their children expect, and kinds that need a parent have one.
func ValidateOrder(seeds []Seed) error {
	seen := make(map[Ref]bool, len(seeds))

	for i, s := range seeds {
		if s.Key == "" {
			return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("seed %d: empty business key", i))
		}
		if seen[s.Ref()] {
			return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("seed %d: %s declared twice", i, s.Ref()))
		}

		want, needsParent := ParentKind(s.Kind)
		switch {
		case needsParent && s.Parent == nil:
			return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("seed %d: %s needs a %s parent", i, s.Ref(), want))
		case !needsParent && s.Parent != nil:
			return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("seed %d: %s cannot have a parent", i, s.Ref()))
		case s.Parent != nil && s.Parent.Kind != want:
			return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("seed %d: %s parent must be a %s", i, s.Ref(), want))
		case s.Parent != nil && !seen[*s.Parent]:
			return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("seed %d: %s references %s before it is declared", i, s.Ref(), s.Parent))
		}

		seen[s.Ref()] = true
	}
	return nil
}
