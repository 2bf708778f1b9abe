package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"localfelo_backend/internal/common"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockNotificationRepository is a mock type for notification.Repository
type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, notification *Notification) error {
	args := m.Called(ctx, notification)
	if args.Error(0) == nil && notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockNotificationRepository) CreateBatch(ctx context.Context, notifications []Notification) error {
	return m.Called(ctx, notifications).Error(0)
}

func (m *MockNotificationRepository) GetByUserID(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]Notification, *common.Pagination, error) {
	args := m.Called(ctx, userID, page, pageSize)
	var notifications []Notification
	if args.Get(0) != nil {
		notifications = args.Get(0).([]Notification)
	}
	var pagination *common.Pagination
	if args.Get(1) != nil {
		pagination = args.Get(1).(*common.Pagination)
	}
	return notifications, pagination, args.Error(2)
}

func (m *MockNotificationRepository) ListUnread(ctx context.Context, userID uuid.UUID, limit int) ([]Notification, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Notification), args.Error(1)
}

func (m *MockNotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) FindByID(ctx context.Context, notificationID uuid.UUID, userID uuid.UUID) (*Notification, error) {
	args := m.Called(ctx, notificationID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Notification), args.Error(1)
}

func (m *MockNotificationRepository) MarkAsRead(ctx context.Context, notificationID uuid.UUID, userID uuid.UUID) error {
	return m.Called(ctx, notificationID, userID).Error(0)
}

func (m *MockNotificationRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) Delete(ctx context.Context, notificationID uuid.UUID, userID uuid.UUID) error {
	return m.Called(ctx, notificationID, userID).Error(0)
}

func (m *MockNotificationRepository) DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type staticRecipients []uuid.UUID

func (r staticRecipients) ListIDs(ctx context.Context) ([]uuid.UUID, error) { return r, nil }

// Test Suite Setup
type NotificationServiceTestSuite struct {
	service       Service
	mockNotifRepo *MockNotificationRepository
	hub           *Hub
	recipients    staticRecipients
}

func setupNotificationServiceTestSuite(t *testing.T) *NotificationServiceTestSuite {
	ts := &NotificationServiceTestSuite{
		mockNotifRepo: new(MockNotificationRepository),
		hub:           NewHub(zap.NewNop()),
		recipients:    staticRecipients{uuid.New(), uuid.New(), uuid.New()},
	}
	ts.service = NewService(ts.mockNotifRepo, ts.recipients, ts.hub, zap.NewNop())
	return ts
}

// --- Test Cases ---

func TestNotificationService_CreateNotification_Success(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()
	userID := uuid.New()
	relatedID := uuid.NewString()
	relatedType := "task"

	changes, unsubscribe := ts.hub.Subscribe(userID)
	defer unsubscribe()

	ts.mockNotifRepo.On("Create", ctx, mock.AnythingOfType("*notification.Notification")).Run(func(args mock.Arguments) {
		notifArg := args.Get(1).(*Notification)
		assert.Equal(t, userID, notifArg.UserID)
		assert.Equal(t, TypeTaskAccepted, notifArg.Type)
		assert.Equal(t, "Task accepted", notifArg.Title)
		assert.Equal(t, &relatedID, notifArg.RelatedID)
		assert.Equal(t, "Wakad", notifArg.Metadata["area"])
		assert.False(t, notifArg.IsRead)
	}).Return(nil)

	createdNotif, err := ts.service.CreateNotification(ctx, CreateNotificationRequest{
		UserID: userID, Title: "Task accepted", Message: "Ravi accepted your task.", Type: TypeTaskAccepted,
		RelatedType: &relatedType, RelatedID: &relatedID, Metadata: map[string]interface{}{"area": "Wakad"},
	})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, createdNotif.ID, "Expected notification ID to be set")
	assert.Equal(t, Change{Table: TableNotifications, UserID: userID}, <-changes)
	ts.mockNotifRepo.AssertExpectations(t)
}

func TestNotificationService_CreateNotification_Error(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()

	ts.mockNotifRepo.On("Create", ctx, mock.AnythingOfType("*notification.Notification")).Return(errors.New("repo error"))

	createdNotif, err := ts.service.CreateNotification(ctx, CreateNotificationRequest{UserID: uuid.New(), Message: "x", Type: TypeInfo})

	assert.Error(t, err)
	assert.Nil(t, createdNotif)
	assert.ErrorIs(t, err, common.ErrInternalServer)
	ts.mockNotifRepo.AssertExpectations(t)
}

func TestNotificationService_GetNotificationsForUser_Success(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()
	userID := uuid.New()
	page, pageSize := 1, 5

	mockNotifications := []Notification{
		{ID: uuid.New(), UserID: userID, Message: "Notif 1"},
		{ID: uuid.New(), UserID: userID, Message: "Notif 2"},
	}
	mockPagination := &common.Pagination{CurrentPage: page, PageSize: pageSize, TotalItems: 2, TotalPages: 1}

	ts.mockNotifRepo.On("GetByUserID", ctx, userID, page, pageSize).Return(mockNotifications, mockPagination, nil)

	notifications, pagination, err := ts.service.GetNotificationsForUser(ctx, userID, page, pageSize)

	assert.NoError(t, err)
	assert.Len(t, notifications, 2)
	assert.Equal(t, mockPagination, pagination)
	ts.mockNotifRepo.AssertExpectations(t)
}

func TestNotificationService_GetNotificationsForUser_Error(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()
	userID := uuid.New()
	page, pageSize := 1, 5

	ts.mockNotifRepo.On("GetByUserID", ctx, userID, page, pageSize).Return(nil, nil, errors.New("repo error"))

	notifications, pagination, err := ts.service.GetNotificationsForUser(ctx, userID, page, pageSize)

	assert.Error(t, err)
	assert.Nil(t, notifications)
	assert.Nil(t, pagination)
	apiErr, ok := err.(*common.APIError)
	assert.True(t, ok)
	assert.Equal(t, common.ErrInternalServer.Code, apiErr.Code)
	ts.mockNotifRepo.AssertExpectations(t)
}

func TestNotificationService_MarkNotificationAsRead_Success(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()
	userID := uuid.New()
	notificationID := uuid.New()

	ts.mockNotifRepo.On("MarkAsRead", ctx, notificationID, userID).Return(nil)

	assert.NoError(t, ts.service.MarkNotificationAsRead(ctx, notificationID, userID))
	ts.mockNotifRepo.AssertExpectations(t)
}

func TestNotificationService_MarkNotificationAsRead_NotFound(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()
	userID := uuid.New()
	notificationID := uuid.New()

	ts.mockNotifRepo.On("MarkAsRead", ctx, notificationID, userID).
		Return(common.ErrNotFound.WithDetails("Notification not found or not owned by user."))

	err := ts.service.MarkNotificationAsRead(ctx, notificationID, userID)

	assert.Error(t, err)
	apiErr, ok := err.(*common.APIError)
	assert.True(t, ok, "Error should be an APIError")
	assert.Equal(t, common.ErrNotFound.Code, apiErr.Code, "Error code should be NOT_FOUND")
	ts.mockNotifRepo.AssertExpectations(t)
}

func TestNotificationService_MarkAllUserNotificationsAsRead_Success(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()
	userID := uuid.New()

	ts.mockNotifRepo.On("MarkAllAsRead", ctx, userID).Return(int64(5), nil)

	count, err := ts.service.MarkAllUserNotificationsAsRead(ctx, userID)

	assert.NoError(t, err)
	assert.Equal(t, int64(5), count)
	ts.mockNotifRepo.AssertExpectations(t)
}

func TestNotificationService_MarkAllUserNotificationsAsRead_Error(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()
	userID := uuid.New()

	ts.mockNotifRepo.On("MarkAllAsRead", ctx, userID).Return(int64(0), errors.New("repo error"))

	count, err := ts.service.MarkAllUserNotificationsAsRead(ctx, userID)

	assert.Error(t, err)
	assert.Equal(t, int64(0), count)
	assert.ErrorIs(t, err, common.ErrInternalServer)
	ts.mockNotifRepo.AssertExpectations(t)
}

func TestNotificationService_Broadcast(t *testing.T) {
	ctx := context.Background()

	t.Run("all users", func(t *testing.T) {
		ts := setupNotificationServiceTestSuite(t)
		ts.mockNotifRepo.On("CreateBatch", ctx, mock.MatchedBy(func(batch []Notification) bool {
			if len(batch) != len(ts.recipients) {
				return false
			}
			for i, n := range batch {
				if n.UserID != ts.recipients[i] || n.Type != TypeBroadcast || n.Title != "Diwali sale" {
					return false
				}
			}
			return true
		})).Return(nil)

		n, err := ts.service.Broadcast(ctx, BroadcastRequest{Title: "Diwali sale", Message: "Listings are free this week."})
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		ts.mockNotifRepo.AssertExpectations(t)
	})

	t.Run("selected users", func(t *testing.T) {
		ts := setupNotificationServiceTestSuite(t)
		target := uuid.New()
		ts.mockNotifRepo.On("CreateBatch", ctx, mock.MatchedBy(func(batch []Notification) bool {
			return len(batch) == 1 && batch[0].UserID == target && batch[0].Type == TypeAlert
		})).Return(nil)

		n, err := ts.service.Broadcast(ctx, BroadcastRequest{Title: "Heads up", Message: "m", Type: TypeAlert, UserIDs: []uuid.UUID{target}})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("rejects task types", func(t *testing.T) {
		ts := setupNotificationServiceTestSuite(t)
		_, err := ts.service.Broadcast(ctx, BroadcastRequest{Title: "t", Message: "m", Type: TypeTaskAccepted})
		assert.ErrorIs(t, err, common.ErrBadRequest)
		ts.mockNotifRepo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
	})
}
