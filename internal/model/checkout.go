package model

import "time"

// Checkout grants one user exclusive edit rights over a task list. The unique
// index on TaskListID is the enforcement point for mutual exclusion.
type Checkout struct {
	ID           uint `gorm:"primaryKey"`
	TaskListID   uint `gorm:"uniqueIndex"`
	UserID       uint `gorm:"index"`
	CheckedOutAt time.Time
}

// AuditRecord is a fire-and-forget trail entry. Details holds JSON.
type AuditRecord struct {
	ID           uint   `gorm:"primaryKey"`
	Action       string `gorm:"index"`
	ResourceType string
	ResourceID   uint
	ActorID      uint
	Details      string
	CreatedAt    time.Time
}
