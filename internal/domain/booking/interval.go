package booking

import (
	"fmt"
	"time"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval validates start < end.
func NewInterval(start, end time.Time) (Interval, error) {
	if !start.Before(end) {
		return Interval{}, ErrInvalidInterval.WithMessage(
			fmt.Sprintf("booking start %s must be before end %s", start.Format(time.RFC3339), end.Format(time.RFC3339)))
	}
	return Interval{Start: start, End: end}, nil
}

// Overlaps reports whether two half-open intervals share any instant.
// Touching endpoints do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// TemporalPolicy holds the entry checks applied to a new booking relative to now.
type TemporalPolicy struct {
	RequireFutureStart bool
}

// Validate rejects a start in the past or an end that is not in the future.
func (p TemporalPolicy) Validate(i Interval, now time.Time) error {
	if !p.RequireFutureStart {
		return nil
	}
	if i.Start.Before(now) {
		return ErrInvalidInterval.WithMessage("booking start must not be in the past")
	}
	if !i.End.After(now) {
		return ErrInvalidInterval.WithMessage("booking end must be in the future")
	}
	return nil
}

// FindConflict returns the first booking in existing whose status is in
// blocking and whose interval overlaps candidate. Bookings with id exclude are skipped.
func FindConflict(candidate Interval, existing []*Booking, blocking StatusSet, exclude *Booking) *Booking {
	for _, b := range existing {
		if exclude != nil && b.ID() == exclude.ID() {
			continue
		}
		if !blocking.Contains(b.Status()) {
			continue
		}
		if candidate.Overlaps(b.Interval()) {
			return b
		}
	}
	return nil
}
