package claim

import (
	"fmt"

	"github.com/frahmantamala/claim-management/internal"
)

type Action string

const (
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

func Actions() []Action {
	return []Action{ActionCreate, ActionUpdate, ActionSubmit, ActionApprove, ActionReject}
}

// Decision is the outcome of a guard evaluation.
type Decision struct {
	Allowed bool
	Next    Status
}

type edge struct {
	from Status
	to   Status
}

// Every legal edge. Anything not listed is denied, including every action on
// the reserved statuses. Create has no prior status.
var transitions = map[Action]edge{
	ActionCreate:  {from: "", to: StatusInitiated},
	ActionUpdate:  {from: StatusInitiated, to: StatusInitiated},
	ActionSubmit:  {from: StatusInitiated, to: StatusSubmitted},
	ActionApprove: {from: StatusSubmitted, to: StatusApproved},
	ActionReject:  {from: StatusSubmitted, to: StatusRejected},
}

// CanTransition reports whether action may run on a claim in status current,
// and which status the claim ends up in. It performs no I/O; role checks and
// data preconditions belong to the caller.
func CanTransition(current Status, action Action) Decision {
	e, ok := transitions[action]
	if !ok || e.from != current {
		return Decision{Allowed: false, Next: current}
	}
	return Decision{Allowed: true, Next: e.to}
}

// Err converts a denied decision into an INVALID_STATUS error.
func (d Decision) Err(current Status, action Action) error {
	if d.Allowed {
		return nil
	}
	return internal.NewInvalidStatusError(fmt.Sprintf("cannot %s a claim in status %q", action, displayStatus(current)))
}

func displayStatus(s Status) string {
	if s == "" {
		return "none"
	}
	return string(s)
}
