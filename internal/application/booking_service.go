package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	bookingDomain "github.com/Kilat-Pet-Delivery/service-reservation/internal/domain/booking"
	itemDomain "github.com/Kilat-Pet-Delivery/service-reservation/internal/domain/item"
	userDomain "github.com/Kilat-Pet-Delivery/service-reservation/internal/domain/user"
	"github.com/Kilat-Pet-Delivery/service-reservation/internal/platform/domain"
	"github.com/Kilat-Pet-Delivery/service-reservation/internal/platform/kafka"
)

const eventSource = "service-reservation"

// EventPublisher sends CloudEvents to a topic. *kafka.Producer satisfies it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, ce kafka.CloudEvent) error
}

// Role selects which side of a booking a listing is scoped to.
type Role string

const (
	RoleBooker Role = "BOOKER"
	RoleOwner  Role = "OWNER"
)

type bookingFinder func(ctx context.Context, userID uuid.UUID, c bookingDomain.Criteria, page domain.Page) ([]*bookingDomain.Booking, error)

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	repo      bookingDomain.BookingRepository
	items     itemDomain.ItemRepository
	users     userDomain.UserRepository
	tx        bookingDomain.Transactor
	checker   *AvailabilityChecker
	policy    BookingPolicy
	finders   map[Role]bookingFinder
	publisher EventPublisher
	tracer    trace.Tracer
	logger    *zap.Logger
	now       func() time.Time
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	repo bookingDomain.BookingRepository,
	items itemDomain.ItemRepository,
	users userDomain.UserRepository,
	tx bookingDomain.Transactor,
	policy BookingPolicy,
	publisher EventPublisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:    repo,
		items:   items,
		users:   users,
		tx:      tx,
		checker: NewAvailabilityChecker(items, repo, policy.BlockingStatuses()),
		policy:  policy,
		finders: map[Role]bookingFinder{
			RoleBooker: repo.FindByBooker,
			RoleOwner:  repo.FindByOwner,
		},
		publisher: publisher,
		tracer:    otel.Tracer("service-reservation/application"),
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateBooking records a WAITING request by requesterID for the item's window.
// Admission runs under the item lock so overlapping requests for one item serialize.
func (s *BookingService) CreateBooking(ctx context.Context, requesterID uuid.UUID, req CreateBookingRequest) (_ *BookingDTO, err error) {
	ctx, span := s.tracer.Start(ctx, "BookingService.CreateBooking", trace.WithAttributes(
		attribute.String("item.id", req.ItemID.String()),
		attribute.String("user.id", requesterID.String()),
	))
	defer func() { endSpan(span, err) }()

	interval, err := bookingDomain.NewInterval(req.Start, req.End)
	if err != nil {
		return nil, err
	}
	if err := s.policy.temporal().Validate(interval, s.now()); err != nil {
		return nil, err
	}

	var (
		bk     *bookingDomain.Booking
		it     *itemDomain.Item
		booker *userDomain.User
	)
	err = s.tx.WithinItemLock(ctx, req.ItemID, func(ctx context.Context) error {
		var err error
		if it, err = s.checker.check(ctx, req.ItemID, interval); err != nil {
			return err
		}
		if booker, err = s.users.FindByID(ctx, requesterID); err != nil {
			return err
		}
		if it.IsOwnedBy(requesterID) {
			return bookingDomain.ErrOwnerCannotBook
		}

		if bk, err = bookingDomain.NewBooking(req.ItemID, requesterID, interval.Start, interval.End); err != nil {
			return err
		}
		return s.repo.Save(ctx, bk)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking requested",
		zap.String("booking_id", bk.ID().String()),
		zap.String("item_id", bk.ItemID().String()),
		zap.String("booker_id", bk.BookerID().String()),
	)

	s.publishEvent(ctx, bookingDomain.EventBookingRequested, bk.ID().String(), bookingDomain.BookingRequestedEvent{
		BookingID:  bk.ID(),
		ItemID:     bk.ItemID(),
		BookerID:   bk.BookerID(),
		OwnerID:    it.OwnerID(),
		Start:      bk.Start(),
		End:        bk.End(),
		OccurredAt: s.now(),
	})

	result := toBookingDTO(bk, it, booker)
	return &result, nil
}

// DecideBooking lets the item owner approve or reject a WAITING booking.
func (s *BookingService) DecideBooking(ctx context.Context, actorID, bookingID uuid.UUID, approve bool) (_ *BookingDTO, err error) {
	ctx, span := s.tracer.Start(ctx, "BookingService.DecideBooking", trace.WithAttributes(
		attribute.String("booking.id", bookingID.String()),
		attribute.Bool("booking.approve", approve),
	))
	defer func() { endSpan(span, err) }()

	found, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	var (
		bk      *bookingDomain.Booking
		it      *itemDomain.Item
		expired bool
	)
	err = s.tx.WithinItemLock(ctx, found.ItemID(), func(ctx context.Context) error {
		var err error
		// Reload under the lock; the first read only located the item.
		if bk, err = s.repo.FindByID(ctx, bookingID); err != nil {
			return err
		}
		if it, err = s.items.FindByID(ctx, bk.ItemID()); err != nil {
			return err
		}
		if !it.IsOwnedBy(actorID) {
			return bookingDomain.ErrNotOwner
		}
		if bk.Status() != bookingDomain.StatusWaiting {
			return bookingDomain.ErrAlreadyDecided.WithMessage("booking is already " + bk.Status().String())
		}

		if s.policy.CancelExpiredOnDecide && bk.HasElapsed(s.now()) {
			if err := s.persistTransition(ctx, bk, bk.Cancel); err != nil {
				return err
			}
			expired = true
			return &bookingDomain.CommitError{Err: bookingDomain.ErrBookingExpired}
		}

		if approve {
			existing, err := s.repo.FindByItemID(ctx, bk.ItemID())
			if err != nil {
				return err
			}
			approved := bookingDomain.NewStatusSet(bookingDomain.StatusApproved)
			if conflict := bookingDomain.FindConflict(bk.Interval(), existing, approved, bk); conflict != nil {
				return bookingDomain.ErrConflict.WithMessage(fmt.Sprintf(
					"booking %s already holds this window", conflict.ID()))
			}
		}

		return s.persistTransition(ctx, bk, func() error { return bk.Decide(approve) })
	})

	if expired {
		s.logger.Info("waiting booking expired before decision",
			zap.String("booking_id", bookingID.String()),
		)
		s.publishEvent(ctx, bookingDomain.EventBookingCancelled, bk.ID().String(), bookingDomain.BookingCancelledEvent{
			BookingID:  bk.ID(),
			ItemID:     bk.ItemID(),
			BookerID:   bk.BookerID(),
			Reason:     "expired before decision",
			OccurredAt: s.now(),
		})
	}
	if err != nil {
		return nil, err
	}

	eventType := bookingDomain.EventBookingRejected
	if approve {
		eventType = bookingDomain.EventBookingApproved
	}
	s.logger.Info("booking decided",
		zap.String("booking_id", bk.ID().String()),
		zap.String("status", bk.Status().String()),
	)
	s.publishEvent(ctx, eventType, bk.ID().String(), bookingDomain.BookingDecidedEvent{
		BookingID:  bk.ID(),
		ItemID:     bk.ItemID(),
		BookerID:   bk.BookerID(),
		OwnerID:    it.OwnerID(),
		Status:     bk.Status().String(),
		OccurredAt: s.now(),
	})

	booker, err := s.lookupUser(ctx, bk.BookerID())
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk, it, booker)
	return &result, nil
}

// GetBooking returns a booking to its booker or to the owner of its item.
func (s *BookingService) GetBooking(ctx context.Context, actorID, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	it, err := s.items.FindByID(ctx, bk.ItemID())
	if err != nil {
		return nil, err
	}
	if !bk.IsBookedBy(actorID) && !it.IsOwnedBy(actorID) {
		return nil, bookingDomain.ErrForbidden
	}

	booker, err := s.lookupUser(ctx, bk.BookerID())
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk, it, booker)
	return &result, nil
}

// ListBookings returns the bookings of userID seen from role, filtered by the
// named state and ordered by start descending.
func (s *BookingService) ListBookings(ctx context.Context, role Role, userID uuid.UUID, stateName string, page domain.Page) ([]BookingDTO, error) {
	state, err := bookingDomain.ParseState(stateName)
	if err != nil {
		return nil, err
	}
	find, ok := s.finders[role]
	if !ok {
		return nil, domain.NewValidationError(fmt.Sprintf("unknown role: %s", role))
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	bookings, err := find(ctx, userID, state.Criteria(s.now()), page)
	if err != nil {
		return nil, err
	}
	return s.project(ctx, bookings)
}

// AggregateItemBookings computes last/next approved bookings for every item
// in one batched fetch.
func (s *BookingService) AggregateItemBookings(ctx context.Context, itemIDs []uuid.UUID) (map[uuid.UUID]bookingDomain.LastNext, error) {
	if len(itemIDs) == 0 {
		return map[uuid.UUID]bookingDomain.LastNext{}, nil
	}
	bookings, err := s.repo.FindByItemIDs(ctx, itemIDs)
	if err != nil {
		return nil, err
	}
	return bookingDomain.SummarizeByItem(itemIDs, bookings, s.now()), nil
}

// OwnerItemBookings lists the owner's items with their last/next bookings.
func (s *BookingService) OwnerItemBookings(ctx context.Context, ownerID uuid.UUID) ([]ItemBookingsDTO, error) {
	items, err := s.items.FindByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(items))
	for i, it := range items {
		ids[i] = it.ID()
	}

	summary, err := s.AggregateItemBookings(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]ItemBookingsDTO, len(items))
	for i, it := range items {
		result[i] = toItemBookingsDTO(it, summary[it.ID()])
	}
	return result, nil
}

// ItemBookingsForViewer returns one item; last/next are only filled for its owner.
func (s *BookingService) ItemBookingsForViewer(ctx context.Context, viewerID, itemID uuid.UUID) (*ItemBookingsDTO, error) {
	it, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !it.IsOwnedBy(viewerID) {
		result := toItemDTO(it)
		return &result, nil
	}

	summary, err := s.AggregateItemBookings(ctx, []uuid.UUID{itemID})
	if err != nil {
		return nil, err
	}
	result := toItemBookingsDTO(it, summary[itemID])
	return &result, nil
}

// SummaryForOwner aggregates last/next for ids, all of which must belong to ownerID.
func (s *BookingService) SummaryForOwner(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]LastNextDTO, error) {
	items, err := s.items.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	owned := make(map[uuid.UUID]bool, len(items))
	for _, it := range items {
		owned[it.ID()] = it.IsOwnedBy(ownerID)
	}
	for _, id := range ids {
		isOwner, found := owned[id]
		if !found {
			return nil, itemDomain.ErrItemNotFound.WithMessage(fmt.Sprintf("item %s not found", id))
		}
		if !isOwner {
			return nil, bookingDomain.ErrNotOwner.WithMessage(fmt.Sprintf("item %s is not yours", id))
		}
	}

	summary, err := s.AggregateItemBookings(ctx, ids)
	if err != nil {
		return nil, err
	}
	result := make(map[uuid.UUID]LastNextDTO, len(summary))
	for id, ln := range summary {
		result[id] = toLastNextDTO(ln)
	}
	return result, nil
}

// CanReview reports whether userID finished an approved booking of itemID.
func (s *BookingService) CanReview(ctx context.Context, userID, itemID uuid.UUID) (*ReviewEligibilityDTO, error) {
	if _, err := s.items.FindByID(ctx, itemID); err != nil {
		return nil, err
	}
	ok, err := s.repo.HasFinishedApproved(ctx, userID, itemID, s.now())
	if err != nil {
		return nil, err
	}
	return &ReviewEligibilityDTO{ItemID: itemID, CanReview: ok}, nil
}

// RemoveItemBookings drops the bookings of an item deleted from the catalog.
func (s *BookingService) RemoveItemBookings(ctx context.Context, itemID uuid.UUID) error {
	n, err := s.repo.DeleteByItemID(ctx, itemID)
	if err != nil {
		return err
	}
	s.logger.Info("removed bookings of deleted item",
		zap.String("item_id", itemID.String()),
		zap.Int64("count", n),
	)
	return nil
}

// RemoveUserBookings drops the bookings made by a deleted user.
func (s *BookingService) RemoveUserBookings(ctx context.Context, userID uuid.UUID) error {
	n, err := s.repo.DeleteByBookerID(ctx, userID)
	if err != nil {
		return err
	}
	s.logger.Info("removed bookings of deleted user",
		zap.String("user_id", userID.String()),
		zap.Int64("count", n),
	)
	return nil
}

// --- Admin methods ---

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      counts,
	}, nil
}

// --- Helpers ---

// persistTransition applies change, bumps the version and writes the booking.
func (s *BookingService) persistTransition(ctx context.Context, bk *bookingDomain.Booking, change func() error) error {
	if err := change(); err != nil {
		return err
	}
	bk.IncrementVersion()
	return s.repo.Update(ctx, bk)
}

// project attaches item and booker summaries with one lookup per collaborator.
func (s *BookingService) project(ctx context.Context, bookings []*bookingDomain.Booking) ([]BookingDTO, error) {
	if len(bookings) == 0 {
		return []BookingDTO{}, nil
	}

	itemIDs := make([]uuid.UUID, 0, len(bookings))
	userIDs := make([]uuid.UUID, 0, len(bookings))
	seen := make(map[uuid.UUID]bool, 2*len(bookings))
	for _, bk := range bookings {
		if !seen[bk.ItemID()] {
			seen[bk.ItemID()] = true
			itemIDs = append(itemIDs, bk.ItemID())
		}
		if !seen[bk.BookerID()] {
			seen[bk.BookerID()] = true
			userIDs = append(userIDs, bk.BookerID())
		}
	}

	items, err := s.items.FindByIDs(ctx, itemIDs)
	if err != nil {
		return nil, err
	}
	users, err := s.users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	itemByID := make(map[uuid.UUID]*itemDomain.Item, len(items))
	for _, it := range items {
		itemByID[it.ID()] = it
	}
	userByID := make(map[uuid.UUID]*userDomain.User, len(users))
	for _, u := range users {
		userByID[u.ID()] = u
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk, itemByID[bk.ItemID()], userByID[bk.BookerID()])
	}
	return dtos, nil
}

// lookupUser returns nil instead of failing when the booker has since been removed.
func (s *BookingService) lookupUser(ctx context.Context, id uuid.UUID) (*userDomain.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if errors.Is(err, userDomain.ErrUserNotFound) {
		return nil, nil
	}
	return u, err
}

func (s *BookingService) publishEvent(ctx context.Context, eventType, key string, data interface{}) {
	if s.publisher == nil {
		return
	}
	cloudEvent, err := kafka.NewCloudEvent(eventSource, eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}
	cloudEvent.Subject = key

	if err := s.publisher.PublishEvent(ctx, bookingDomain.TopicBookingEvents, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", bookingDomain.TopicBookingEvents),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
