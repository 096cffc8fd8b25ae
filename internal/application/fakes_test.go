package application

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	bookingDomain "github.com/Kilat-Pet-Delivery/service-reservation/internal/domain/booking"
	itemDomain "github.com/Kilat-Pet-Delivery/service-reservation/internal/domain/item"
	userDomain "github.com/Kilat-Pet-Delivery/service-reservation/internal/domain/user"
	"github.com/Kilat-Pet-Delivery/service-reservation/internal/platform/domain"
	"github.com/Kilat-Pet-Delivery/service-reservation/internal/platform/kafka"
)

type memItemRepo struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*itemDomain.Item
	calls atomic.Int64
}

func newMemItemRepo() *memItemRepo {
	return &memItemRepo{items: make(map[uuid.UUID]*itemDomain.Item)}
}

func (r *memItemRepo) add(ownerID uuid.UUID, name string, available bool) *itemDomain.Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	it := itemDomain.Reconstruct(uuid.New(), ownerID, name, available)
	r.items[it.ID()] = it
	return it
}

func (r *memItemRepo) FindByID(_ context.Context, id uuid.UUID) (*itemDomain.Item, error) {
	r.calls.Add(1)
	r.mu.RLock()
	defer r.mu.RUnlock()
	it, ok := r.items[id]
	if !ok {
		return nil, itemDomain.ErrItemNotFound
	}
	return it, nil
}

func (r *memItemRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*itemDomain.Item, error) {
	r.calls.Add(1)
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*itemDomain.Item
	for _, id := range ids {
		if it, ok := r.items[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *memItemRepo) FindByOwnerID(_ context.Context, ownerID uuid.UUID) ([]*itemDomain.Item, error) {
	r.calls.Add(1)
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*itemDomain.Item
	for _, it := range r.items {
		if it.IsOwnedBy(ownerID) {
			out = append(out, it)
		}
	}
	slices.SortFunc(out, func(a, b *itemDomain.Item) int {
		ia, ib := a.ID(), b.ID()
		return bytes.Compare(ia[:], ib[:])
	})
	return out, nil
}

type memUserRepo struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*userDomain.User
	calls atomic.Int64
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]*userDomain.User)}
}

func (r *memUserRepo) add(name string) *userDomain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := userDomain.Reconstruct(uuid.New(), name, name+"@example.com")
	r.users[u.ID()] = u
	return u
}

func (r *memUserRepo) FindByID(_ context.Context, id uuid.UUID) (*userDomain.User, error) {
	r.calls.Add(1)
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, userDomain.ErrUserNotFound
	}
	return u, nil
}

func (r *memUserRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*userDomain.User, error) {
	r.calls.Add(1)
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*userDomain.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

type memBookingRepo struct {
	mu       sync.RWMutex
	bookings map[uuid.UUID]*bookingDomain.Booking
	items    *memItemRepo
	queries  atomic.Int64
}

func newMemBookingRepo(items *memItemRepo) *memBookingRepo {
	return &memBookingRepo{bookings: make(map[uuid.UUID]*bookingDomain.Booking), items: items}
}

// put stores a booking directly, bypassing admission rules.
func (r *memBookingRepo) put(itemID, bookerID uuid.UUID, start, end time.Time, status bookingDomain.BookingStatus) *bookingDomain.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	bk := bookingDomain.ReconstructBooking(uuid.New(), itemID, bookerID, start, end, status, 1, start, start)
	r.bookings[bk.ID()] = bk
	return bk
}

func (r *memBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.queries.Add(1)
	r.mu.RLock()
	defer r.mu.RUnlock()
	bk, ok := r.bookings[id]
	if !ok {
		return nil, bookingDomain.ErrBookingNotFound
	}
	return clone(bk), nil
}

func (r *memBookingRepo) FindByItemID(_ context.Context, itemID uuid.UUID) ([]*bookingDomain.Booking, error) {
	r.queries.Add(1)
	return r.filter(func(b *bookingDomain.Booking) bool { return b.ItemID() == itemID }), nil
}

func (r *memBookingRepo) FindByItemIDs(_ context.Context, itemIDs []uuid.UUID) ([]*bookingDomain.Booking, error) {
	r.queries.Add(1)
	return r.filter(func(b *bookingDomain.Booking) bool { return slices.Contains(itemIDs, b.ItemID()) }), nil
}

func (r *memBookingRepo) FindByBooker(_ context.Context, bookerID uuid.UUID, c bookingDomain.Criteria, page domain.Page) ([]*bookingDomain.Booking, error) {
	r.queries.Add(1)
	found := r.filter(func(b *bookingDomain.Booking) bool { return b.BookerID() == bookerID && c.Matches(b) })
	return paginate(found, page), nil
}

func (r *memBookingRepo) FindByOwner(_ context.Context, ownerID uuid.UUID, c bookingDomain.Criteria, page domain.Page) ([]*bookingDomain.Booking, error) {
	r.queries.Add(1)
	found := r.filter(func(b *bookingDomain.Booking) bool {
		r.items.mu.RLock()
		it, ok := r.items.items[b.ItemID()]
		r.items.mu.RUnlock()
		return ok && it.IsOwnedBy(ownerID) && c.Matches(b)
	})
	return paginate(found, page), nil
}

func (r *memBookingRepo) HasFinishedApproved(_ context.Context, bookerID, itemID uuid.UUID, now time.Time) (bool, error) {
	found := r.filter(func(b *bookingDomain.Booking) bool {
		return b.BookerID() == bookerID && b.ItemID() == itemID &&
			b.Status() == bookingDomain.StatusApproved && b.End().Before(now)
	})
	return len(found) > 0, nil
}

func (r *memBookingRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[string]int64)
	for _, b := range r.bookings {
		counts[b.Status().String()]++
	}
	return counts, nil
}

func (r *memBookingRepo) Save(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[bk.ID()] = clone(bk)
	return nil
}

func (r *memBookingRepo) Update(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.bookings[bk.ID()]
	if !ok {
		return bookingDomain.ErrBookingNotFound
	}
	if stored.Version() != bk.Version()-1 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	r.bookings[bk.ID()] = clone(bk)
	return nil
}

func (r *memBookingRepo) DeleteByItemID(_ context.Context, itemID uuid.UUID) (int64, error) {
	return r.deleteWhere(func(b *bookingDomain.Booking) bool { return b.ItemID() == itemID }), nil
}

func (r *memBookingRepo) DeleteByBookerID(_ context.Context, bookerID uuid.UUID) (int64, error) {
	return r.deleteWhere(func(b *bookingDomain.Booking) bool { return b.BookerID() == bookerID }), nil
}

func (r *memBookingRepo) deleteWhere(match func(*bookingDomain.Booking) bool) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, b := range r.bookings {
		if match(b) {
			delete(r.bookings, id)
			n++
		}
	}
	return n
}

func (r *memBookingRepo) filter(match func(*bookingDomain.Booking) bool) []*bookingDomain.Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*bookingDomain.Booking
	for _, b := range r.bookings {
		if match(b) {
			out = append(out, clone(b))
		}
	}
	return out
}

func (r *memBookingRepo) status(id uuid.UUID) bookingDomain.BookingStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.bookings[id].Status()
}

func paginate(bookings []*bookingDomain.Booking, page domain.Page) []*bookingDomain.Booking {
	slices.SortFunc(bookings, func(a, b *bookingDomain.Booking) int { return b.Start().Compare(a.Start()) })
	if page.IsUnpaged() {
		return bookings
	}
	if page.Offset >= len(bookings) {
		return []*bookingDomain.Booking{}
	}
	end := min(page.Offset+page.Limit, len(bookings))
	return bookings[page.Offset:end]
}

func clone(b *bookingDomain.Booking) *bookingDomain.Booking {
	return bookingDomain.ReconstructBooking(b.ID(), b.ItemID(), b.BookerID(), b.Start(), b.End(),
		b.Status(), b.Version(), b.CreatedAt(), b.UpdatedAt())
}

// lockTransactor serializes work per item with one mutex per item id.
type lockTransactor struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newLockTransactor() *lockTransactor {
	return &lockTransactor{locks: make(map[uuid.UUID]*sync.Mutex)}
}

func (t *lockTransactor) WithinItemLock(ctx context.Context, itemID uuid.UUID, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	l, ok := t.locks[itemID]
	if !ok {
		l = &sync.Mutex{}
		t.locks[itemID] = l
	}
	t.mu.Unlock()

	l.Lock()
	defer l.Unlock()

	err := fn(ctx)
	var commit *bookingDomain.CommitError
	if errors.As(err, &commit) {
		return commit.Err
	}
	return err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic string, ce kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ce)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}
