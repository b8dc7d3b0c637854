package model

import "time"

// TaskInstance statuses. pending → completed via completion; completed →
// pending via uncomplete; pending → replaced via the schedule generator.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusReplaced  = "replaced"
)

// TaskInstance is one concrete occurrence of a task.
type TaskInstance struct {
	ID        uint      `gorm:"primaryKey"`
	TaskID    uint      `gorm:"index"`
	DueDate   time.Time `gorm:"index"`
	Status    string    `gorm:"index;default:pending"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TaskCompletion records that an instance was completed by an actor. Kept as
// its own row so an uncomplete can delete the record rather than flip a flag.
type TaskCompletion struct {
	ID             uint `gorm:"primaryKey"`
	TaskID         uint `gorm:"index"`
	TaskInstanceID uint `gorm:"index"`
	CompletedBy    uint
	CompletedAt    time.Time `gorm:"index"`
	Notes          string
}
