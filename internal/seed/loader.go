// Package seed inserts baseline reference rows without duplicating them.
//
// Each entity is looked up by business key and inserted only when absent.
// The lookup-then-insert pair is not isolated from sibling replicas doing
// the same thing; a lost race surfaces as a unique-key conflict from the
// store, which the loader reports as already present.
package seed

import (
	"context"
	"fmt"

	"github.com/koustreak/dbinit/internal/errs"
	"github.com/koustreak/dbinit/internal/logger"
)

// Loader ensures an ordered list of seeds against a Repository.
type Loader struct {
	repo  Repository
	seeds []Seed
	log   *logger.Logger
}

// NewLoader validates the order of seeds and returns a Loader.
// A nil log discards output; a logger carried by ctx takes precedence.
func NewLoader(repo Repository, seeds []Seed, log *logger.Logger) (*Loader, error) {
	if err := ValidateOrder(seeds); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	cp := make([]Seed, len(seeds))
	copy(cp, seeds)
	return &Loader{repo: repo, seeds: cp, log: log}, nil
}

// Load ensures every seed in order. A child is only attempted once its
// parent resolved to an ID. Load never returns an error; failures are in
// the Outcome.
func (l *Loader) Load(ctx context.Context) Outcome {
	log := logger.FromContextOr(ctx, l.log)
	log.Infof("seeding %d reference entities", len(l.seeds))

	out := Outcome{Results: make([]Result, 0, len(l.seeds))}

	if ke, ok := l.repo.(KeyEnforcer); ok {
		if err := ke.EnsureUniqueKeys(ctx); err != nil {
			out.KeysError = err.Error()
			log.ErrorWith("could not install business-key constraints; duplicates are possible under concurrent starts", err, nil)
		}
	}

	resolved := make(map[Ref]int64, len(l.seeds))
	for _, s := range l.seeds {
		var parentID *int64
		if s.Parent != nil {
			id, ok := resolved[*s.Parent]
			if !ok {
				res := Result{
					Kind:     s.Kind,
					Key:      s.Key,
					Status:   StatusSkipped,
					Severity: errs.SeverityFatal,
					Error:    fmt.Sprintf("parent %s did not resolve", s.Parent),
				}
				log.With().Str("kind", string(s.Kind)).Str("key", s.Key).Logger().
					Error("skipping seed: parent did not resolve")
				out.Results = append(out.Results, res)
				continue
			}
			parentID = &id
		}

		res := l.Ensure(ctx, s, parentID)
		if res.Status == StatusCreated || res.Status == StatusAlreadyPresent {
			resolved[s.Ref()] = res.ID
		}
		out.Results = append(out.Results, res)
	}

	sevs := make([]errs.Severity, 0, len(out.Results)+1)
	for _, r := range out.Results {
		sevs = append(sevs, r.Severity)
	}
	if out.KeysError != "" {
		sevs = append(sevs, errs.SeverityDiagnostic)
	}
	out.Severity = errs.Max(sevs...)

	log.InfoWith("seeding finished", map[string]interface{}{
		"created":         out.Count(StatusCreated),
		"already_present": out.Count(StatusAlreadyPresent),
		"skipped":         out.Count(StatusSkipped),
		"failed":          out.Count(StatusFailed),
	})
	return out
}

// Ensure makes sure one seed exists. parentID must be set for kinds that
// have a parent. Existing rows are never modified.
func (l *Loader) Ensure(ctx context.Context, s Seed, parentID *int64) (res Result) {
	log := logger.FromContextOr(ctx, l.log).With().Str("kind", string(s.Kind)).Str("key", s.Key).Logger()
	res = Result{Kind: s.Kind, Key: s.Key, ParentID: parentID}

	defer func() {
		if p := recover(); p != nil {
			res = failed(res, fmt.Errorf("ensure panicked: %v", p))
			log.ErrorWith("seed aborted", res.err, nil)
		}
	}()

	existing, err := l.repo.FindByKey(ctx, s.Kind, s.Key)
	switch {
	case err == nil:
		log.Debug("already present")
		return present(res, existing, errs.SeverityNone)
	case !errs.IsNotFound(err):
		log.ErrorWith("lookup failed", err, nil)
		return failed(res, err)
	}

	created, err := l.repo.Insert(ctx, Entity{
		Kind:     s.Kind,
		Key:      s.Key,
		Name:     s.Name,
		ParentID: parentID,
	})
	if err == nil {
		res.Status = StatusCreated
		res.Severity = errs.SeverityNone
		res.ID = created.ID
		log.With().Int64("id", created.ID).Logger().Info("created")
		return res
	}

	if !errs.IsConflict(err) {
		log.ErrorWith("insert failed", err, nil)
		return failed(res, err)
	}

	// Lost the race to a sibling process; read back the winner.
	log.WarnWith("duplicate business key on insert; treating as already present", err, nil)
	winner, ferr := l.repo.FindByKey(ctx, s.Kind, s.Key)
	if ferr != nil {
		log.ErrorWith("could not read back conflicting row", ferr, nil)
		return failed(res, ferr)
	}
	return present(res, winner, errs.SeverityBenign)
}

func present(res Result, e *Entity, sev errs.Severity) Result {
	res.Status = StatusAlreadyPresent
	res.Severity = sev
	res.ID = e.ID
	if e.ParentID != nil {
		res.ParentID = e.ParentID
	}
	return res
}

func failed(res Result, err error) Result {
	res.Status = StatusFailed
	res.Severity = errs.SeverityFatal
	res.err = err
	res.Error = err.Error()
	return res
}
