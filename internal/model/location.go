package model

import "time"

// Location is a physical site (store, restaurant) whose staff work checklists.
type Location struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"index"`
	NotifyChatID int64  // Telegram chat for daily reports; 0 disables
	CreatedAt    time.Time
	UpdatedAt    time.Time
	TaskLists    []TaskList `gorm:"foreignKey:LocationID"`
}

// TaskList is a checklist of tasks for one location. An optional role binding
// grants access to users holding that role regardless of membership.
type TaskList struct {
	ID         uint   `gorm:"primaryKey"`
	LocationID uint   `gorm:"index"`
	Name       string `gorm:"index"`
	Role       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Tasks      []Task `gorm:"foreignKey:TaskListID"`
}
