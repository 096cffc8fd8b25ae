package booking

import (
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Short is the reduced view of a booking shown on an item.
type Short struct {
	ID       uuid.UUID `json:"id"`
	BookerID uuid.UUID `json:"booker_id"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

// LastNext holds the most recent started and the nearest upcoming approved booking of an item.
type LastNext struct {
	Last *Short
	Next *Short
}

// ToShort reduces a booking to its Short view.
func ToShort(b *Booking) *Short {
	return &Short{ID: b.ID(), BookerID: b.BookerID(), Start: b.Start(), End: b.End()}
}

// SummarizeByItem computes LastNext for every id in itemIDs from one batch of
// bookings. Only APPROVED bookings count. Last is the greatest start <= now,
// Next the smallest start > now. Items without bookings get an empty LastNext.
func SummarizeByItem(itemIDs []uuid.UUID, bookings []*Booking, now time.Time) map[uuid.UUID]LastNext {
	groups := make(map[uuid.UUID][]*Booking, len(itemIDs))
	for _, b := range bookings {
		if b.Status() != StatusApproved {
			continue
		}
		groups[b.ItemID()] = append(groups[b.ItemID()], b)
	}

	result := make(map[uuid.UUID]LastNext, len(itemIDs))
	for _, id := range itemIDs {
		group, ok := groups[id]
		if !ok {
			result[id] = LastNext{}
			continue
		}
		result[id] = lastNext(group, now)
	}
	return result
}

func lastNext(group []*Booking, now time.Time) LastNext {
	slices.SortFunc(group, func(a, b *Booking) int {
		return a.Start().Compare(b.Start())
	})
	firstFuture := sort.Search(len(group), func(i int) bool {
		return group[i].Start().After(now)
	})

	var ln LastNext
	if firstFuture > 0 {
		ln.Last = ToShort(group[firstFuture-1])
	}
	if firstFuture < len(group) {
		ln.Next = ToShort(group[firstFuture])
	}
	return ln
}
