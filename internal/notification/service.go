package notification

import (
	"context"
	"time"

	"localfelo_backend/internal/common"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Recipients lists every user a broadcast without explicit ids goes to.
type Recipients interface {
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Service defines notification operations.
type Service interface {
	CreateNotification(ctx context.Context, req CreateNotificationRequest) (*Notification, error)
	GetNotificationsForUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]Notification, *common.Pagination, error)
	GetUnread(ctx context.Context, userID uuid.UUID, limit int) ([]Notification, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkNotificationAsRead(ctx context.Context, notificationID, userID uuid.UUID) error
	MarkAllUserNotificationsAsRead(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteNotification(ctx context.Context, notificationID, userID uuid.UUID) error
	Broadcast(ctx context.Context, req BroadcastRequest) (int, error)
	PurgeRead(ctx context.Context, olderThan time.Duration) (int64, error)
}

type service struct {
	repo       Repository
	recipients Recipients
	hub        *Hub
	logger     *zap.Logger
}

// NewService creates a new notification service. hub may be nil.
func NewService(repo Repository, recipients Recipients, hub *Hub, logger *zap.Logger) Service {
	return &service{repo: repo, recipients: recipients, hub: hub, logger: logger.Named("notification")}
}

func (s *service) CreateNotification(ctx context.Context, req CreateNotificationRequest) (*Notification, error) {
	n := &Notification{
		UserID:      req.UserID,
		Title:       req.Title,
		Message:     req.Message,
		Type:        req.Type,
		RelatedType: req.RelatedType,
		RelatedID:   req.RelatedID,
	}
	if len(req.Metadata) > 0 {
		n.Metadata = datatypes.JSONMap(req.Metadata)
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Error("Failed to create notification", zap.Error(err), zap.String("userID", req.UserID.String()))
		return nil, common.ErrInternalServer.WithDetails("Could not create notification.")
	}
	s.notify(n.UserID)
	return n, nil
}

func (s *service) GetNotificationsForUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]Notification, *common.Pagination, error) {
	notifications, pagination, err := s.repo.GetByUserID(ctx, userID, page, pageSize)
	if err != nil {
		s.logger.Error("Failed to list notifications", zap.Error(err), zap.String("userID", userID.String()))
		return nil, nil, common.ErrInternalServer.WithDetails("Could not retrieve notifications.")
	}
	return notifications, pagination, nil
}

func (s *service) GetUnread(ctx context.Context, userID uuid.UUID, limit int) ([]Notification, error) {
	notifications, err := s.repo.ListUnread(ctx, userID, limit)
	if err != nil {
		s.logger.Error("Failed to list unread notifications", zap.Error(err), zap.String("userID", userID.String()))
		return nil, common.ErrInternalServer.WithDetails("Could not retrieve notifications.")
	}
	return notifications, nil
}

func (s *service) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to count unread notifications", zap.Error(err), zap.String("userID", userID.String()))
		return 0, common.ErrInternalServer.WithDetails("Could not count notifications.")
	}
	return n, nil
}

func (s *service) MarkNotificationAsRead(ctx context.Context, notificationID, userID uuid.UUID) error {
	if err := s.repo.MarkAsRead(ctx, notificationID, userID); err != nil {
		return s.passAPIError(err, "Could not mark notification as read.")
	}
	s.notify(userID)
	return nil
}

func (s *service) MarkAllUserNotificationsAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.repo.MarkAllAsRead(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to mark all notifications read", zap.Error(err), zap.String("userID", userID.String()))
		return 0, common.ErrInternalServer.WithDetails("Could not mark all notifications as read.")
	}
	if count > 0 {
		s.notify(userID)
	}
	return count, nil
}

func (s *service) DeleteNotification(ctx context.Context, notificationID, userID uuid.UUID) error {
	if err := s.repo.Delete(ctx, notificationID, userID); err != nil {
		return s.passAPIError(err, "Could not delete notification.")
	}
	s.notify(userID)
	return nil
}

// Broadcast creates one notification per recipient in a single transaction.
func (s *service) Broadcast(ctx context.Context, req BroadcastRequest) (int, error) {
	if req.Type == "" {
		req.Type = TypeBroadcast
	}
	if !req.Type.BroadcastClass() {
		return 0, common.ErrBadRequest.WithDetails("Broadcast type must be one of broadcast, info, promotion, alert.")
	}

	ids := req.UserIDs
	if len(ids) == 0 {
		var err error
		if ids, err = s.recipients.ListIDs(ctx); err != nil {
			s.logger.Error("Failed to list broadcast recipients", zap.Error(err))
			return 0, common.ErrInternalServer.WithDetails("Could not send broadcast.")
		}
	}

	relatedType := "broadcast"
	batch := make([]Notification, 0, len(ids))
	for _, id := range ids {
		n := Notification{UserID: id, Title: req.Title, Message: req.Message, Type: req.Type, RelatedType: &relatedType}
		if len(req.Metadata) > 0 {
			n.Metadata = datatypes.JSONMap(req.Metadata)
		}
		batch = append(batch, n)
	}
	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		s.logger.Error("Broadcast insert failed", zap.Error(err), zap.Int("recipients", len(batch)))
		return 0, common.ErrInternalServer.WithDetails("Could not send broadcast.")
	}
	s.logger.Info("Broadcast sent", zap.Int("recipients", len(batch)), zap.String("type", string(req.Type)))
	for _, id := range ids {
		s.notify(id)
	}
	return len(batch), nil
}

// PurgeRead deletes read notifications older than olderThan.
func (s *service) PurgeRead(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.repo.DeleteReadOlderThan(ctx, time.Now().UTC().Add(-olderThan))
}

func (s *service) passAPIError(err error, fallback string) error {
	if apiErr, ok := common.IsAPIError(err); ok {
		return apiErr
	}
	s.logger.Error(fallback, zap.Error(err))
	return common.ErrInternalServer.WithDetails(fallback)
}

func (s *service) notify(userID uuid.UUID) {
	if s.hub != nil {
		s.hub.Publish(Change{Table: TableNotifications, UserID: userID})
	}
}
