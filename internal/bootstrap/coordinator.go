// Package bootstrap runs column reconciliation and reference seeding once at
// process start. Nothing it does can stop the host from starting; every
// failure ends up in the Report and the log.
package bootstrap

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/koustreak/dbinit/internal/errs"
	"github.com/koustreak/dbinit/internal/logger"
	"github.com/koustreak/dbinit/internal/schema"
	"github.com/koustreak/dbinit/internal/seed"
)

// Reconciler is the column step. *schema.Reconciler implements it.
type Reconciler interface {
	Reconcile(ctx context.Context, d schema.Descriptor) schema.Outcome
}

// Loader is the seeding step. *seed.Loader implements it.
type Loader interface {
	Load(ctx context.Context) seed.Outcome
}

// Publisher keeps a copy of the report outside the process.
type Publisher interface {
	Publish(ctx context.Context, r *Report) error
}

// Coordinator owns the startup sequence.
type Coordinator struct {
	reconciler Reconciler
	loader     Loader
	descriptor schema.Descriptor
	publisher  Publisher
	log        *logger.Logger
	now        func() time.Time

	once sync.Once
	last atomic.Pointer[Report]
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithPublisher publishes every report after the run.
func WithPublisher(p Publisher) Option {
	return func(c *Coordinator) { c.publisher = p }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// NewCoordinator returns a Coordinator that reconciles d, then runs loader.
// A nil log discards output.
func NewCoordinator(reconciler Reconciler, loader Loader, d schema.Descriptor, log *logger.Logger, opts ...Option) *Coordinator {
	if log == nil {
		log = logger.Nop()
	}
	c := &Coordinator{
		reconciler: reconciler,
		loader:     loader,
		descriptor: d,
		log:        log,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunAtStartup runs the sequence the first time it is called and returns
// that run's report on every call. Concurrent callers wait for the first
// run to finish. It never panics and never returns nil.
func (c *Coordinator) RunAtStartup(ctx context.Context) *Report {
	first := false
	c.once.Do(func() {
		first = true
		c.last.Store(c.run(ctx))
	})

	r := c.last.Load()
	if !first {
		c.log.With().Str("run_id", r.RunID).Logger().
			Warn("bootstrap already ran in this process; returning the earlier report")
	}
	return r
}

// Last returns the finished report, or nil while the run has not completed.
func (c *Coordinator) Last() *Report {
	return c.last.Load()
}

func (c *Coordinator) run(ctx context.Context) *Report {
	r := newReport(c.now())
	log := c.log.With().Str("run_id", r.RunID).Logger()
	ctx = log.WithContext(ctx)

	log.Info("bootstrap started")

	// The reconcile outcome never gates seeding.
	if err := guard(func() {
		out := c.reconciler.Reconcile(ctx, c.descriptor)
		r.Schema = &out
	}); err != nil {
		r.Schema = &schema.Outcome{
			Target:      c.descriptor.String(),
			Status:      schema.StatusUnverified,
			Severity:    errs.SeverityFatal,
			VerifyError: err.Error(),
		}
		r.Errors = append(r.Errors, StepError{Step: "schema", Error: err.Error()})
		log.ErrorWith("schema step aborted", err, nil)
	}

	if err := guard(func() {
		out := c.loader.Load(ctx)
		r.Seed = &out
	}); err != nil {
		r.Seed = &seed.Outcome{Severity: errs.SeverityFatal}
		r.Errors = append(r.Errors, StepError{Step: "seed", Error: err.Error()})
		log.ErrorWith("seed step aborted", err, nil)
	}

	r.finish(c.now())

	fields := map[string]interface{}{
		"status":      string(r.Status),
		"severity":    r.Severity.String(),
		"duration_ms": r.DurationMS,
	}
	if r.Status == StatusOK {
		log.InfoWith("bootstrap finished", fields)
	} else {
		log.ErrorWith("bootstrap finished degraded; the service starts anyway", nil, fields)
	}

	if c.publisher != nil {
		var err error
		if perr := guard(func() { err = c.publisher.Publish(ctx, r) }); perr != nil {
			err = perr
		}
		if err != nil {
			log.WarnWith("could not publish bootstrap report", err, nil)
		}
	}

	return r
}

// guard runs fn and turns a panic into an error.
func guard(fn func()) (err error) {
	defer func() {
		if p := recover(); p != nil {
			if e, ok := p.(error); ok {
				err = errs.Wrap(errs.ErrKindUnknown, "step panicked", e)
				return
			}
			err = errs.New(errs.ErrKindUnknown, fmt.Sprintf("step panicked: %v", p))
		}
	}()
	fn()
	return nil
}
