package model

import "time"

// Recurrence types.
const (
	RecurNone     = "none"
	RecurDaily    = "daily"
	RecurWeekly   = "weekly"
	RecurMonthly  = "monthly"
	RecurInterval = "interval"
)

// Interval units.
const (
	UnitDays   = "days"
	UnitWeeks  = "weeks"
	UnitMonths = "months"
)

// Task is a recurring or one-off unit of work on a checklist.
type Task struct {
	ID                   uint `gorm:"primaryKey"`
	TaskListID           uint `gorm:"index"`
	Title                string
	Description          string
	IsRecurring          bool   `gorm:"default:false"`
	RecurrenceType       string // e.g. weekly
	RecurrenceInterval   int
	RecurrenceUnit       string
	DaysOfWeek           []int `gorm:"serializer:json"` // 0=Sunday .. 6=Saturday
	DaysOfMonth          []int `gorm:"serializer:json"` // 1..31
	RepeatFromCompletion bool  `gorm:"default:false"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
