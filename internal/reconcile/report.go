package reconcile

import (
	"fmt"
	"strings"
	"time"

	"github.com/cexll/rivalsbot/internal/command"
)

// Outcome is the result of one definition in a pass.
type Outcome struct {
	Name   string
	Action Action
	// Err is an *OperationError when the remote call failed.
	Err error
	// Record is the record returned by create or edit.
	Record *command.Record
}

// OK reports whether the outcome succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Report summarises one reconciliation pass. Outcomes follow catalog order.
type Report struct {
	Scope      string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []Outcome
}

// Outcome returns the outcome for the named command.
func (r *Report) Outcome(name string) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Name == name {
			return o, true
		}
	}
	return Outcome{}, false
}

// Failed returns the outcomes whose remote call failed.
func (r *Report) Failed() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if !o.OK() {
			failed = append(failed, o)
		}
	}
	return failed
}

// Count returns how many outcomes carry the action, successful or not.
func (r *Report) Count(action Action) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Action == action {
			n++
		}
	}
	return n
}

// Duration is the wall time of the pass.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Summary renders counts per action plus the number of failures.
func (r *Report) Summary() string {
	var b strings.Builder
	for i, action := range []Action{ActionCreate, ActionUpdate, ActionDelete, ActionUnchanged, ActionSkipped} {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%d", action, r.Count(action))
	}
	fmt.Fprintf(&b, ", failed=%d", len(r.Failed()))
	return b.String()
}
