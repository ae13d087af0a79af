// Package reconcile brings the platform's registered slash commands in line
// with the local catalog.
package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cexll/rivalsbot/internal/command"
	"github.com/cexll/rivalsbot/internal/logging"
)

// Config controls reconciler behaviour.
type Config struct {
	// Workers bounds the number of concurrent remote calls.
	Workers int
}

// Reconciler runs reconciliation passes against one Directory.
type Reconciler struct {
	dir    Directory
	cfg    Config
	logger *log.Logger
	now    func() time.Time
}

// New creates a reconciler. A nil logger discards output.
func New(dir Directory, cfg Config, logger *log.Logger) *Reconciler {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Reconciler{
		dir:    dir,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Preview lists the remote directory and returns the plan without issuing
// any mutating call.
func (r *Reconciler) Preview(ctx context.Context, catalog []command.Definition) ([]Step, error) {
	remote, err := r.dir.List(ctx)
	if err != nil {
		return nil, &FetchError{Scope: r.dir.Scope(), Err: err}
	}
	return Plan(remote, catalog), nil
}

// Reconcile runs one pass. The only returned error is a *FetchError; every
// per-command failure is recorded in the report instead.
func (r *Reconciler) Reconcile(ctx context.Context, catalog []command.Definition) (*Report, error) {
	report := &Report{Scope: r.dir.Scope(), StartedAt: r.now()}

	remote, err := r.dir.List(ctx)
	if err != nil {
		r.logger.Error("Listing remote commands failed", "scope", report.Scope, "error", err)
		return nil, &FetchError{Scope: report.Scope, Err: err}
	}
	r.logger.Debug("Fetched remote commands", "scope", report.Scope, "count", len(remote))

	steps := Plan(remote, catalog)
	report.Outcomes = make([]Outcome, len(steps))

	// Dispatch is not cancellable once it starts.
	callCtx := context.WithoutCancel(ctx)

	jobs := make(chan int)
	var wg sync.WaitGroup
	workers := min(r.cfg.Workers, len(steps))
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				report.Outcomes[idx] = r.apply(callCtx, steps[idx])
			}
		}()
	}
	for idx := range steps {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	report.FinishedAt = r.now()
	r.logger.Info("Command reconciliation finished", "scope", report.Scope, "summary", report.Summary(), "elapsed", report.Duration())
	return report, nil
}

func (r *Reconciler) apply(ctx context.Context, step Step) (out Outcome) {
	name := step.Local.Name
	out = Outcome{Name: name, Action: step.Action}

	defer func() {
		if p := recover(); p != nil {
			out.Record = nil
			out.Err = &OperationError{Name: name, Action: step.Action, Err: fmt.Errorf("%w: %v", ErrDirectoryPanicked, p)}
			r.logger.Error("Command sync panicked", "name", name, "action", step.Action, "panic", p)
		}
	}()

	var err error
	switch step.Action {
	case ActionCreate:
		var rec command.Record
		rec, err = r.dir.Create(ctx, step.Local.Spec())
		if err == nil {
			out.Record = &rec
			r.logger.Info("Registered command", "name", name, "id", rec.ID)
		}
	case ActionUpdate:
		var rec command.Record
		rec, err = r.dir.Edit(ctx, step.Existing.ID, step.Local.Spec())
		if err == nil {
			out.Record = &rec
			r.logger.Info("Edited command", "name", name, "id", step.Existing.ID)
		}
	case ActionDelete:
		err = r.dir.Delete(ctx, step.Existing.ID)
		if err == nil {
			r.logger.Info("Deleted command", "name", name, "id", step.Existing.ID)
		}
	case ActionUnchanged:
		r.logger.Debug("Command unchanged", "name", name)
	case ActionSkipped:
		r.logger.Debug("Command marked deleted and already absent", "name", name)
	}

	if err != nil {
		out.Err = &OperationError{Name: name, Action: step.Action, Err: err}
		r.logger.Error("Command sync failed", "name", name, "action", step.Action, "error", err)
	}
	return out
}
