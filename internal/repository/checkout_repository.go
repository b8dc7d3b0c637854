package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"linecheck/internal/model"
)

// CheckoutRepository manages the per-list exclusive edit lock.
type CheckoutRepository struct {
	db *gorm.DB
}

func NewCheckoutRepository(db *gorm.DB) *CheckoutRepository {
	return &CheckoutRepository{db: db}
}

// Grab attempts to acquire the checkout for userID as a single conditional
// write: insert-if-absent on the unique task_list_id index, then read back
// the winning row. Two concurrent grabs therefore can never both insert; the
// returned row names the actual holder either way.
func (r *CheckoutRepository) Grab(ctx context.Context, listID, userID uint, now time.Time) (*model.Checkout, error) {
	db := r.db.WithContext(ctx)
	attempt := model.Checkout{TaskListID: listID, UserID: userID, CheckedOutAt: now}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "task_list_id"}},
		DoNothing: true,
	}).Create(&attempt).Error; err != nil {
		return nil, fmt.Errorf("grab checkout: %w", err)
	}

	var current model.Checkout
	if err := db.Where("task_list_id = ?", listID).First(&current).Error; err != nil {
		return nil, fmt.Errorf("read checkout: %w", err)
	}
	return &current, nil
}

// Find returns the active checkout for a list, or nil if there is none.
func (r *CheckoutRepository) Find(ctx context.Context, listID uint) (*model.Checkout, error) {
	var checkout model.Checkout
	err := r.db.WithContext(ctx).Where("task_list_id = ?", listID).First(&checkout).Error
	switch {
	case err == nil:
		return &checkout, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, err
	}
}

// Release deletes the checkout row for a list regardless of holder.
func (r *CheckoutRepository) Release(ctx context.Context, listID uint) error {
	if err := r.db.WithContext(ctx).Where("task_list_id = ?", listID).
		Delete(&model.Checkout{}).Error; err != nil {
		return fmt.Errorf("release checkout: %w", err)
	}
	return nil
}

// Touch refreshes the checkout timestamp for an idempotent re-checkout.
func (r *CheckoutRepository) Touch(ctx context.Context, checkoutID uint, now time.Time) error {
	if err := r.db.WithContext(ctx).Model(&model.Checkout{}).
		Where("id = ?", checkoutID).
		Update("checked_out_at", now).Error; err != nil {
		return fmt.Errorf("touch checkout: %w", err)
	}
	return nil
}
