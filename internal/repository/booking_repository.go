package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	bookingDomain "github.com/Kilat-Pet-Delivery/service-reservation/internal/domain/booking"
	"github.com/Kilat-Pet-Delivery/service-reservation/internal/platform/domain"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ItemID    uuid.UUID `gorm:"type:uuid;not null;index:idx_bookings_item_start,priority:1"`
	BookerID  uuid.UUID `gorm:"type:uuid;not null;index:idx_bookings_booker_start,priority:1"`
	StartAt   time.Time `gorm:"not null;index:idx_bookings_item_start,priority:2;index:idx_bookings_booker_start,priority:2"`
	EndAt     time.Time `gorm:"not null"`
	Status    string    `gorm:"not null;size:20;index"`
	Version   int64     `gorm:"not null;default:1"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bookingDomain.ErrBookingNotFound.WithMessage(fmt.Sprintf("booking %s not found", id))
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByItemID retrieves every booking of an item.
func (r *GormBookingRepository) FindByItemID(ctx context.Context, itemID uuid.UUID) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := conn(ctx, r.db).
		Where("item_id = ?", itemID).
		Order("start_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find item bookings: %w", err)
	}
	return toDomainBookings(models)
}

// FindByItemIDs retrieves every booking of the given items in one query.
func (r *GormBookingRepository) FindByItemIDs(ctx context.Context, itemIDs []uuid.UUID) ([]*bookingDomain.Booking, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	var models []BookingModel
	if err := conn(ctx, r.db).
		Where("item_id IN ?", itemIDs).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find bookings for items: %w", err)
	}
	return toDomainBookings(models)
}

// FindByBooker retrieves a booker's bookings matching c, newest start first.
func (r *GormBookingRepository) FindByBooker(ctx context.Context, bookerID uuid.UUID, c bookingDomain.Criteria, page domain.Page) ([]*bookingDomain.Booking, error) {
	q := conn(ctx, r.db).Model(&BookingModel{}).Where("bookings.booker_id = ?", bookerID)
	return r.findMatching(q, c, page, "booker")
}

// FindByOwner retrieves bookings of items owned by ownerID matching c, newest start first.
func (r *GormBookingRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID, c bookingDomain.Criteria, page domain.Page) ([]*bookingDomain.Booking, error) {
	q := conn(ctx, r.db).Model(&BookingModel{}).
		Joins("JOIN items ON items.id = bookings.item_id").
		Where("items.owner_id = ?", ownerID)
	return r.findMatching(q, c, page, "owner")
}

func (r *GormBookingRepository) findMatching(q *gorm.DB, c bookingDomain.Criteria, page domain.Page, scope string) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := pagedQuery(q, c, page).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find %s bookings: %w", scope, err)
	}
	return toDomainBookings(models)
}

// pagedQuery narrows q by c and orders it newest start first within page.
func pagedQuery(q *gorm.DB, c bookingDomain.Criteria, page domain.Page) *gorm.DB {
	q = applyCriteria(q, c).Select("bookings.*").Order("bookings.start_at DESC")
	if !page.IsUnpaged() {
		q = q.Offset(page.Offset).Limit(page.Limit)
	}
	return q
}

// applyCriteria translates each set predicate of c into a WHERE clause.
func applyCriteria(q *gorm.DB, c bookingDomain.Criteria) *gorm.DB {
	if c.StartBefore != nil {
		q = q.Where("bookings.start_at < ?", *c.StartBefore)
	}
	if c.StartAfter != nil {
		q = q.Where("bookings.start_at > ?", *c.StartAfter)
	}
	if c.EndBefore != nil {
		q = q.Where("bookings.end_at < ?", *c.EndBefore)
	}
	if c.EndAfter != nil {
		q = q.Where("bookings.end_at > ?", *c.EndAfter)
	}
	if c.Status != nil {
		q = q.Where("bookings.status = ?", string(*c.Status))
	}
	return q
}

// HasFinishedApproved reports whether bookerID has an APPROVED booking of itemID that ended before now.
func (r *GormBookingRepository) HasFinishedApproved(ctx context.Context, bookerID, itemID uuid.UUID, now time.Time) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&BookingModel{}).
		Where("booker_id = ? AND item_id = ? AND status = ? AND end_at < ?",
			bookerID, itemID, string(bookingDomain.StatusApproved), now).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check finished bookings: %w", err)
	}
	return count > 0, nil
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	if err := conn(ctx, r.db).Create(toBookingModel(bk)).Error; err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	// IncrementVersion was called before Update, so the stored row holds version-1.
	expectedVersion := bk.Version() - 1
	result := conn(ctx, r.db).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":     model.Status,
			"version":    model.Version,
			"updated_at": model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}

	return nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := conn(ctx, r.db).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// DeleteByItemID removes the bookings of a deleted item.
func (r *GormBookingRepository) DeleteByItemID(ctx context.Context, itemID uuid.UUID) (int64, error) {
	result := conn(ctx, r.db).Where("item_id = ?", itemID).Delete(&BookingModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete item bookings: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteByBookerID removes the bookings of a deleted user.
func (r *GormBookingRepository) DeleteByBookerID(ctx context.Context, bookerID uuid.UUID) (int64, error) {
	result := conn(ctx, r.db).Where("booker_id = ?", bookerID).Delete(&BookingModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete booker bookings: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:        bk.ID(),
		ItemID:    bk.ItemID(),
		BookerID:  bk.BookerID(),
		StartAt:   bk.Start(),
		EndAt:     bk.End(),
		Status:    string(bk.Status()),
		Version:   bk.Version(),
		CreatedAt: bk.CreatedAt(),
		UpdatedAt: bk.UpdatedAt(),
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.ItemID,
		m.BookerID,
		m.StartAt.UTC(),
		m.EndAt.UTC(),
		status,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainBookings(models []BookingModel) ([]*bookingDomain.Booking, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}
