package mining

import (
	"context"

	"github.com/looplab/fsm"
)

type State string

const (
	Searching State = "searching"
	Found     State = "found"
	Exhausted State = "exhausted"
	Cancelled State = "cancelled"
)

func (s State) String() string {
	return string(s)
}

const (
	eventSearch  = "search"
	eventFind    = "find"
	eventExhaust = "exhaust"
	eventCancel  = "cancel"
)

// NewFiniteStateMachine creates the state machine of a nonce search.
// The finite state machine has the following states:
// - Searching
// - Found
// - Exhausted
// - Cancelled
// The finite state machine has the following events:
// - Search, restarts a finished search
// - Find
// - Exhaust
// - Cancel
func NewFiniteStateMachine(opts ...func(*fsm.FSM)) *fsm.FSM {
	initPrometheusMetrics()

	finished := []string{
		Found.String(),
		Exhausted.String(),
		Cancelled.String(),
	}

	finiteStateMachine := fsm.NewFSM(
		Searching.String(),
		fsm.Events{
			{
				Name: eventSearch,
				Src:  finished,
				Dst:  Searching.String(),
			},
			{
				Name: eventFind,
				Src:  []string{Searching.String()},
				Dst:  Found.String(),
			},
			{
				Name: eventExhaust,
				Src:  []string{Searching.String()},
				Dst:  Exhausted.String(),
			},
			{
				Name: eventCancel,
				Src:  []string{Searching.String()},
				Dst:  Cancelled.String(),
			},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				if e.Dst != Searching.String() {
					prometheusMiningSearches.WithLabelValues(e.Dst).Inc()
				}
			},
		},
	)

	// apply options
	for _, opt := range opts {
		opt(finiteStateMachine)
	}

	return finiteStateMachine
}
