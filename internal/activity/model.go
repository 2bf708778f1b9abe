// File: internal/activity/model.go
package activity

import (
	"time"

	"localfelo_backend/internal/common"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskOpen                TaskStatus = "open"
	TaskAccepted            TaskStatus = "accepted"
	TaskInProgress          TaskStatus = "in_progress"
	TaskCompletionRequested TaskStatus = "completion_requested"
	TaskCompleted           TaskStatus = "completed"
	TaskCancelled           TaskStatus = "cancelled"
)

// ActiveTaskStatuses are the statuses that count toward a user's active tasks.
var ActiveTaskStatuses = []TaskStatus{TaskAccepted, TaskInProgress, TaskCompletionRequested}

// Conversation is a chat between two users, usually about a listing.
type Conversation struct {
	common.BaseModel
	ListingID *uuid.UUID `gorm:"type:uuid;index"`
	BuyerID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	SellerID  uuid.UUID  `gorm:"type:uuid;not null;index"`
}

func (Conversation) TableName() string { return "conversations" }

// Message is one chat message. ReadAt stays nil until the recipient opens it.
type Message struct {
	common.BaseModel
	ConversationID uuid.UUID  `gorm:"type:uuid;not null;index"`
	SenderID       uuid.UUID  `gorm:"type:uuid;not null"`
	Body           string     `gorm:"type:text;not null"`
	ReadAt         *time.Time `gorm:"index"`
}

func (Message) TableName() string { return "messages" }

// Task is a paid errand posted by one user and accepted by another.
type Task struct {
	common.BaseModel
	CreatorID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	AcceptorID *uuid.UUID `gorm:"type:uuid;index"`
	Title      string     `gorm:"type:varchar(200);not null"`
	Status     TaskStatus `gorm:"type:varchar(32);not null;default:'open';index"`
}

func (Task) TableName() string { return "tasks" }
