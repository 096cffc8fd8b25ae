package booking

import (
	"time"
)

// State is a named filter over a user's bookings.
type State string

const (
	StateAll      State = "ALL"
	StateCurrent  State = "CURRENT"
	StatePast     State = "PAST"
	StateFuture   State = "FUTURE"
	StateWaiting  State = "WAITING"
	StateRejected State = "REJECTED"
)

// Criteria is a conjunction of optional predicates a store can translate to a query.
// Results are always ordered by start descending.
type Criteria struct {
	StartBefore *time.Time
	StartAfter  *time.Time
	EndBefore   *time.Time
	EndAfter    *time.Time
	Status      *BookingStatus
}

func statusPtr(s BookingStatus) *BookingStatus { return &s }

// stateCriteria maps each state to the predicate it selects, relative to now.
var stateCriteria = map[State]func(now time.Time) Criteria{
	StateAll: func(time.Time) Criteria { return Criteria{} },
	StateCurrent: func(now time.Time) Criteria {
		return Criteria{StartBefore: &now, EndAfter: &now}
	},
	StatePast: func(now time.Time) Criteria {
		return Criteria{EndBefore: &now, Status: statusPtr(StatusApproved)}
	},
	StateFuture: func(now time.Time) Criteria {
		return Criteria{StartAfter: &now}
	},
	StateWaiting: func(time.Time) Criteria {
		return Criteria{Status: statusPtr(StatusWaiting)}
	},
	StateRejected: func(time.Time) Criteria {
		return Criteria{Status: statusPtr(StatusRejected)}
	},
}

// ParseState resolves a filter name. Names are case-sensitive.
func ParseState(s string) (State, error) {
	state := State(s)
	if _, ok := stateCriteria[state]; !ok {
		return "", ErrUnknownState.WithMessage("Unknown state: " + s)
	}
	return state, nil
}

// Criteria returns the predicate for the state evaluated at now.
func (s State) Criteria(now time.Time) Criteria {
	build, ok := stateCriteria[s]
	if !ok {
		return Criteria{}
	}
	return build(now)
}

// Matches evaluates the criteria against a booking in memory.
func (c Criteria) Matches(b *Booking) bool {
	if c.StartBefore != nil && !b.Start().Before(*c.StartBefore) {
		return false
	}
	if c.StartAfter != nil && !b.Start().After(*c.StartAfter) {
		return false
	}
	if c.EndBefore != nil && !b.End().Before(*c.EndBefore) {
		return false
	}
	if c.EndAfter != nil && !b.End().After(*c.EndAfter) {
		return false
	}
	if c.Status != nil && b.Status() != *c.Status {
		return false
	}
	return true
}
