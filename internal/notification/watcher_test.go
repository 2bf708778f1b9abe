package notification

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unread(typ NotificationType) Notification {
	return Notification{ID: uuid.New(), Type: typ}
}

func TestWatcher_OnePopupAndOneToastOnce(t *testing.T) {
	w := NewWatcher()
	accepted := unread(TypeTaskAccepted)
	promo := unread(TypePromotion)
	list := []Notification{accepted, promo}

	first := w.Observe(list)
	require.NotNil(t, first.Popup)
	require.NotNil(t, first.Toast)
	assert.Equal(t, accepted.ID, first.Popup.ID)
	assert.Equal(t, promo.ID, first.Toast.ID)

	assert.True(t, w.Observe(list).Empty(), "re-rendering the same list shows nothing")
}

func TestWatcher_PicksFirstUnseenUnread(t *testing.T) {
	w := NewWatcher()
	read := unread(TypeTaskCompleted)
	read.IsRead = true
	a := unread(TypeTaskCancelled)
	b := unread(TypeTaskCompletionRequest)
	chat := unread(TypeChatMessage)

	s := w.Observe([]Notification{read, chat, a, b})
	require.NotNil(t, s.Popup)
	assert.Equal(t, a.ID, s.Popup.ID)
	assert.Nil(t, s.Toast)

	s = w.Observe([]Notification{read, chat, a, b})
	require.NotNil(t, s.Popup)
	assert.Equal(t, b.ID, s.Popup.ID)
}

func TestWatcher_ResetsWhenNothingUnread(t *testing.T) {
	w := NewWatcher()
	n := unread(TypeBroadcast)

	require.NotNil(t, w.Observe([]Notification{n}).Toast)
	assert.True(t, w.Observe([]Notification{n}).Empty())

	readCopy := n
	readCopy.IsRead = true
	assert.True(t, w.Observe([]Notification{readCopy}).Empty())

	s := w.Observe([]Notification{n})
	require.NotNil(t, s.Toast, "shown sets were cleared once unread reached zero")
	assert.Equal(t, n.ID, s.Toast.ID)
}

func TestNotificationType_Classes(t *testing.T) {
	for _, typ := range []NotificationType{TypeTaskAccepted, TypeTaskCancelled, TypeTaskCompletionRequest, TypeTaskCompleted} {
		assert.True(t, typ.Critical(), typ)
		assert.False(t, typ.BroadcastClass(), typ)
	}
	for _, typ := range []NotificationType{TypeBroadcast, TypeInfo, TypePromotion, TypeAlert} {
		assert.True(t, typ.BroadcastClass(), typ)
		assert.False(t, typ.Critical(), typ)
	}
	assert.False(t, TypeChatMessage.Critical())
	assert.False(t, TypeChatMessage.BroadcastClass())
}
