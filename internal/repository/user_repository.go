package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"linecheck/internal/model"
)

// UserRepository handles users, sessions and location memberships.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, userID uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByToken resolves a session bearer token to its user, or nil if the
// token is unknown.
func (r *UserRepository) FindByToken(ctx context.Context, token string) (*model.User, error) {
	var session model.Session
	db := r.db.WithContext(ctx)
	err := db.Where("token = ?", token).First(&session).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("find session: %w", err)
	}

	var user model.User
	if err := db.First(&user, session.UserID).Error; err != nil {
		return nil, fmt.Errorf("find session user: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) CreateSession(ctx context.Context, session *model.Session) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// MemberOf reports whether the user is assigned to the location.
func (r *UserRepository) MemberOf(ctx context.Context, userID, locationID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Table("user_locations").
		Where("user_id = ? AND location_id = ?", userID, locationID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("count memberships: %w", err)
	}
	return count > 0, nil
}

// AddMembership assigns a user to a location.
func (r *UserRepository) AddMembership(ctx context.Context, userID, locationID uint) error {
	user := model.User{ID: userID}
	if err := r.db.WithContext(ctx).Model(&user).
		Association("Locations").
		Append(&model.Location{ID: locationID}); err != nil {
		return fmt.Errorf("add membership: %w", err)
	}
	return nil
}

// CountUsers returns the total number of users; used by bootstrap.
func (r *UserRepository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
