package model

import "time"

// Role names resolved by the identity boundary.
const (
	RoleSuperadmin = "superadmin"
	RoleManager    = "manager"
	RoleStaff      = "staff"
)

// User is a staff member assigned to one or more locations.
type User struct {
	ID        uint       `gorm:"primaryKey"`
	Name      string     `gorm:"index"`
	Role      string     `gorm:"index"`
	Locations []Location `gorm:"many2many:user_locations"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsSuperadmin reports whether the user holds the superadmin role.
func (u *User) IsSuperadmin() bool {
	return u.Role == RoleSuperadmin
}

// Session maps a bearer token to a user.
type Session struct {
	ID        uint   `gorm:"primaryKey"`
	Token     string `gorm:"uniqueIndex"`
	UserID    uint   `gorm:"index"`
	CreatedAt time.Time
}
