// Package strategy implements the signal state machine.
//
// A Policy receives the indicator outputs of one poll and decides whether
// the held position changes. Two policies exist:
//
//   - DifferencePolicy compares MACD-minus-signal against a rolling history.
//   - JerkPolicy fires on sign flips of the signal line's third difference.
//
// Both suppress repeated same-direction signals. Policies are not safe for
// concurrent use; the owning poller serialises Evaluate and Snapshot.
package strategy

import (
	"fmt"

	"momentum-signalv1/internal/indicator"
	"momentum-signalv1/internal/model"
)

// Policy names accepted by New.
const (
	PolicyDifference = "difference"
	PolicyJerk       = "jerk"
)

// Input is everything a policy may look at for one poll.
type Input struct {
	// Points is the MACD output of the current window, oldest first.
	Points []indicator.MACDPoint

	// Jerk is the third difference of the signal line.
	Jerk indicator.Term

	// Seed lazily returns the MACD-minus-signal difference of the previous
	// candle, computed from the window without its newest candle. It is
	// only consulted on a DifferencePolicy's first evaluation.
	Seed func() (float64, bool)
}

// Decision is the outcome of one evaluation.
type Decision struct {
	Action   model.Action   `json:"action"`
	Position model.Position `json:"position"` // position after this evaluation
	Value    float64        `json:"value"`    // jerk or current difference
	Compared float64        `json:"compared"` // difference compared against (difference policy)
	Reason   string         `json:"reason,omitempty"`

	// Insufficient is true when the poll was skipped for lack of history.
	// State is untouched in that case.
	Insufficient bool `json:"insufficient"`
}

// State is a value copy of a policy's retained state.
type State struct {
	Policy   string         `json:"policy"`
	Position model.Position `json:"position"`

	// Jerk policy
	LastSign Sign `json:"last_sign,omitempty"`

	// Difference policy
	LastOp   model.Action `json:"last_op,omitempty"`
	FirstRun bool         `json:"first_run,omitempty"`
	Buffer   []float64    `json:"buffer,omitempty"`
}

// Policy is the interface both signal variants implement.
type Policy interface {
	// Name returns PolicyDifference or PolicyJerk.
	Name() string

	// Evaluate runs one transition of the state machine.
	Evaluate(in Input) Decision

	// Position returns the currently held position.
	Position() model.Position

	// Snapshot returns a copy of the retained state.
	Snapshot() State
}

// New creates a policy by name. bufferCap only applies to the difference policy.
func New(name string, bufferCap int) (Policy, error) {
	switch name {
	case PolicyDifference:
		return NewDifferencePolicy(bufferCap), nil
	case PolicyJerk:
		return NewJerkPolicy(), nil
	default:
		return nil, fmt.Errorf("unknown policy %q (want %q or %q)", name, PolicyDifference, PolicyJerk)
	}
}

// Restore rebuilds a policy from a snapshot.
func Restore(st State, bufferCap int) (Policy, error) {
	switch st.Policy {
	case PolicyDifference:
		return RestoreDifferencePolicy(st, bufferCap), nil
	case PolicyJerk:
		return RestoreJerkPolicy(st), nil
	default:
		return nil, fmt.Errorf("unknown policy %q in snapshot", st.Policy)
	}
}

func insufficient(pos model.Position, reason string) Decision {
	return Decision{
		Action:       model.ActionInsufficient,
		Position:     pos,
		Reason:       reason,
		Insufficient: true,
	}
}
