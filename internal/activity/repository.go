// File: internal/activity/repository.go
package activity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository counts chat and task activity for badge counters.
type Repository interface {
	UnreadMessages(ctx context.Context, userID uuid.UUID) (int64, error)
	ActiveTasks(ctx context.Context, userID uuid.UUID) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM activity repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// UnreadMessages counts messages sent to userID in any of their conversations and not yet read.
func (r *gormRepository) UnreadMessages(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Message{}).
		Joins("JOIN conversations ON conversations.id = messages.conversation_id").
		Where("(conversations.buyer_id = ? OR conversations.seller_id = ?)", userID, userID).
		Where("messages.sender_id <> ? AND messages.read_at IS NULL", userID).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("counting unread messages for user %s failed: %w", userID, err)
	}
	return n, nil
}

// ActiveTasks counts tasks userID created or accepted that are still underway.
func (r *gormRepository) ActiveTasks(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Task{}).
		Where("(creator_id = ? OR acceptor_id = ?)", userID, userID).
		Where("status IN ?", ActiveTaskStatuses).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("counting active tasks for user %s failed: %w", userID, err)
	}
	return n, nil
}
