package notification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NotificationType defines the type of notification.
type NotificationType string

const (
	TypeTaskAccepted          NotificationType = "task_accepted"
	TypeTaskCancelled         NotificationType = "task_cancelled"
	TypeTaskCompletionRequest NotificationType = "task_completion_request"
	TypeTaskCompleted         NotificationType = "task_completed"
	TypeTaskMessage           NotificationType = "task_message"
	TypeChatMessage           NotificationType = "chat_message"
	TypeListingExpired        NotificationType = "listing_expired"

	TypeBroadcast NotificationType = "broadcast"
	TypeInfo      NotificationType = "info"
	TypePromotion NotificationType = "promotion"
	TypeAlert     NotificationType = "alert"
)

// Critical types interrupt the user with a pop-up.
func (t NotificationType) Critical() bool {
	switch t {
	case TypeTaskAccepted, TypeTaskCancelled, TypeTaskCompletionRequest, TypeTaskCompleted:
		return true
	}
	return false
}

// BroadcastClass types are shown as a non-blocking toast.
func (t NotificationType) BroadcastClass() bool {
	switch t {
	case TypeBroadcast, TypeInfo, TypePromotion, TypeAlert:
		return true
	}
	return false
}

// Notification represents a user notification.
type Notification struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID         `gorm:"type:uuid;not null;index:idx_notification_user_status" json:"user_id"`
	Title       string            `gorm:"type:varchar(200);not null;default:''" json:"title"`
	Message     string            `gorm:"type:text;not null" json:"message"`
	Type        NotificationType  `gorm:"type:varchar(64);not null" json:"type"`
	RelatedType *string           `gorm:"type:varchar(32)" json:"related_type,omitempty"`
	RelatedID   *string           `gorm:"type:varchar(64)" json:"related_id,omitempty"`
	IsRead      bool              `gorm:"not null;default:false;index:idx_notification_user_status" json:"is_read"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt   time.Time         `gorm:"not null;index:idx_notification_user_status" json:"created_at"`
}

// TableName specifies the table name for GORM.
func (Notification) TableName() string {
	return "notifications"
}

// BeforeCreate assigns the id and timestamp when the caller left them empty.
func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	return nil
}

// CreateNotificationRequest is the payload for creating a single notification.
type CreateNotificationRequest struct {
	UserID      uuid.UUID              `json:"user_id" binding:"required"`
	Title       string                 `json:"title" binding:"max=200"`
	Message     string                 `json:"message" binding:"required"`
	Type        NotificationType       `json:"type" binding:"required"`
	RelatedType *string                `json:"related_type,omitempty"`
	RelatedID   *string                `json:"related_id,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// BroadcastRequest fans one admin message out to all users, or to UserIDs when given.
type BroadcastRequest struct {
	Title    string                 `json:"title" binding:"required,max=200"`
	Message  string                 `json:"message" binding:"required"`
	Type     NotificationType       `json:"type" binding:"omitempty,oneof=broadcast info promotion alert"`
	UserIDs  []uuid.UUID            `json:"user_ids,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// BroadcastResponse reports how many notifications a broadcast created.
type BroadcastResponse struct {
	Recipients int `json:"recipients"`
}

// UnreadCountResponse is returned by the unread-count endpoint.
type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}
