package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	bookingDomain "github.com/Kilat-Pet-Delivery/service-reservation/internal/domain/booking"
	itemDomain "github.com/Kilat-Pet-Delivery/service-reservation/internal/domain/item"
)

type txKey struct{}

// conn returns the transaction carried by ctx, or db when there is none.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// GormTransactor serializes booking admissions per item with a row lock on items.
type GormTransactor struct {
	db *gorm.DB
}

// NewGormTransactor creates a new GormTransactor.
func NewGormTransactor(db *gorm.DB) *GormTransactor {
	return &GormTransactor{db: db}
}

// WithinItemLock opens a transaction, locks the item row FOR UPDATE and runs
// fn with a ctx that routes repository calls through the transaction. The
// transaction commits when fn returns nil or a *booking.CommitError.
func (t *GormTransactor) WithinItemLock(ctx context.Context, itemID uuid.UUID, fn func(ctx context.Context) error) error {
	var kept error
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model ItemModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", itemID).
			First(&model).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return itemDomain.ErrItemNotFound
			}
			return fmt.Errorf("failed to lock item: %w", err)
		}

		err := fn(context.WithValue(ctx, txKey{}, tx))
		var commit *bookingDomain.CommitError
		if errors.As(err, &commit) {
			kept = commit.Err
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}
	return kept
}
