package notification

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Tables whose changes the hub carries.
const (
	TableNotifications = "notifications"
	TableMessages      = "messages"
	TableConversations = "conversations"
	TableTasks         = "tasks"
)

const subscriberBuffer = 16

// Change is one row-level change. A nil UserID reaches every subscriber.
type Change struct {
	Table  string    `json:"table"`
	UserID uuid.UUID `json:"user_id"`
}

type subscriber struct {
	userID uuid.UUID
	ch     chan Change
}

// Hub fans changes out to in-process subscribers.
type Hub struct {
	mu     sync.RWMutex
	next   uint64
	subs   map[uint64]subscriber
	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{subs: map[uint64]subscriber{}, logger: logger.Named("hub")}
}

// Subscribe returns a channel of changes for userID and a function that closes it.
func (h *Hub) Subscribe(userID uuid.UUID) (<-chan Change, func()) {
	h.mu.Lock()
	id := h.next
	h.next++
	sub := subscriber{userID: userID, ch: make(chan Change, subscriberBuffer)}
	h.subs[id] = sub
	h.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(sub.ch)
		})
	}
}

// Publish never blocks. Subscribers whose buffer is full miss the change; their next
// poll picks it up.
func (h *Hub) Publish(c Change) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if c.UserID != uuid.Nil && sub.userID != c.UserID {
			continue
		}
		select {
		case sub.ch <- c:
		default:
			h.logger.Debug("Dropping change for slow subscriber", zap.String("table", c.Table), zap.String("userID", sub.userID.String()))
		}
	}
}

// Subscribers reports how many subscriptions are open.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
