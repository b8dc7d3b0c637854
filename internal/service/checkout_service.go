package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"linecheck/internal/model"
	"linecheck/internal/repository"
)

// CheckoutService arbitrates exclusive edit rights over a task list. The
// checkout row with its unique list index is the single shared mutable
// resource; every grab goes through the store's insert-if-absent, never a
// separate select-then-insert.
type CheckoutService struct {
	checkouts *repository.CheckoutRepository
	tasks     *repository.TaskRepository
	identity  *IdentityService
	audit     *repository.AuditRepository
}

func NewCheckoutService(checkouts *repository.CheckoutRepository, tasks *repository.TaskRepository, identity *IdentityService, audit *repository.AuditRepository) *CheckoutService {
	return &CheckoutService{checkouts: checkouts, tasks: tasks, identity: identity, audit: audit}
}

// Checkout acquires the list lock for userID. Re-checkout by the current
// holder succeeds and refreshes the timestamp. A list held by someone else
// yields a LockedError wrapping ErrConflict.
func (s *CheckoutService) Checkout(ctx context.Context, listID, userID uint) (*model.Checkout, error) {
	if _, err := s.authorize(ctx, listID, userID); err != nil {
		return nil, err
	}

	now := time.Now()
	current, err := s.checkouts.Grab(ctx, listID, userID, now)
	if err != nil {
		return nil, err
	}
	if current.UserID != userID {
		return nil, &LockedError{LockedBy: current.UserID, Err: ErrConflict}
	}
	// Covers the idempotent re-checkout of a row we already held.
	if err := s.checkouts.Touch(ctx, current.ID, now); err != nil {
		return nil, err
	}
	current.CheckedOutAt = now
	return current, nil
}

// Checkin releases the lock. Only the holder or a superadmin may release;
// check-in with no active checkout is a no-op success.
func (s *CheckoutService) Checkin(ctx context.Context, listID, userID uint) error {
	actor, err := s.authorize(ctx, listID, userID)
	if err != nil {
		return err
	}

	current, err := s.checkouts.Find(ctx, listID)
	if err != nil {
		return fmt.Errorf("find checkout: %w", err)
	}
	if current == nil {
		return nil
	}
	if current.UserID != userID && !actor.IsSuperadmin() {
		return &LockedError{LockedBy: current.UserID, Err: ErrForbidden}
	}
	return s.checkouts.Release(ctx, listID)
}

// ForceRelease unconditionally deletes the checkout. Superadmin only.
func (s *CheckoutService) ForceRelease(ctx context.Context, listID, actorID uint) error {
	actor, err := s.identity.User(ctx, actorID)
	if err != nil {
		return err
	}
	if !actor.IsSuperadmin() {
		return fmt.Errorf("force release by user %d: %w", actorID, ErrForbidden)
	}
	if _, err := s.findList(ctx, listID); err != nil {
		return err
	}
	if err := s.checkouts.Release(ctx, listID); err != nil {
		return err
	}
	s.audit.Record(ctx, "force-release", "task_list", listID, actorID, nil)
	return nil
}

// Holder returns the current checkout holder, or nil when the list is free.
func (s *CheckoutService) Holder(ctx context.Context, listID uint) (*model.Checkout, error) {
	return s.checkouts.Find(ctx, listID)
}

// authorize verifies the list exists and the actor may work it: superadmin,
// matching role binding, or membership in the list's location.
func (s *CheckoutService) authorize(ctx context.Context, listID, userID uint) (*model.User, error) {
	list, err := s.findList(ctx, listID)
	if err != nil {
		return nil, err
	}
	actor, err := s.identity.User(ctx, userID)
	if err != nil {
		return nil, err
	}
	allowed, err := s.identity.CanAccessList(ctx, actor, list)
	if err != nil {
		return nil, fmt.Errorf("check access: %w", err)
	}
	if !allowed {
		return nil, fmt.Errorf("user %d on list %d: %w", userID, listID, ErrForbidden)
	}
	return actor, nil
}

func (s *CheckoutService) findList(ctx context.Context, listID uint) (*model.TaskList, error) {
	list, err := s.tasks.FindList(ctx, listID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("task list %d: %w", listID, ErrNotFound)
		}
		return nil, fmt.Errorf("find task list: %w", err)
	}
	return list, nil
}
