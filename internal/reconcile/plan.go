package reconcile

import (
	"context"

	"github.com/cexll/rivalsbot/internal/command"
)

// Directory is the remote command registry for one scope.
type Directory interface {
	List(ctx context.Context) ([]command.Record, error)
	Create(ctx context.Context, spec command.Spec) (command.Record, error)
	Edit(ctx context.Context, id string, spec command.Spec) (command.Record, error)
	Delete(ctx context.Context, id string) error
	Scope() string
}

// Action is what a pass decided to do with one local definition.
type Action string

const (
	ActionCreate    Action = "create"
	ActionUpdate    Action = "update"
	ActionDelete    Action = "delete"
	ActionUnchanged Action = "unchanged"
	ActionSkipped   Action = "skipped"
)

// Mutating reports whether the action issues a remote call.
func (a Action) Mutating() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return true
	default:
		return false
	}
}

// Step is one planned action. Existing is set when a remote record with the
// same name was found.
type Step struct {
	Action   Action
	Local    command.Definition
	Existing *command.Record
}

// Plan classifies every local definition against the remote records. Remote
// records without a local counterpart do not appear in the result.
func Plan(remote []command.Record, catalog []command.Definition) []Step {
	lookup := make(map[string]command.Record, len(remote))
	for _, rec := range remote {
		if _, dup := lookup[rec.Name]; dup {
			continue
		}
		lookup[rec.Name] = rec
	}

	steps := make([]Step, 0, len(catalog))
	for _, local := range catalog {
		step := Step{Local: local}
		existing, found := lookup[local.Name]
		if found {
			rec := existing
			step.Existing = &rec
		}

		switch {
		case found && local.Deleted:
			step.Action = ActionDelete
		case found && command.Different(existing, local):
			step.Action = ActionUpdate
		case found:
			step.Action = ActionUnchanged
		case local.Deleted:
			step.Action = ActionSkipped
		default:
			step.Action = ActionCreate
		}
		steps = append(steps, step)
	}
	return steps
}
