package notification

import (
	"sync"

	"localfelo_backend/internal/platform/metrics"

	"github.com/google/uuid"
)

// Surface is what a client shows for one observed list. Either field may be nil.
type Surface struct {
	Popup *Notification `json:"popup,omitempty"`
	Toast *Notification `json:"toast,omitempty"`
}

// Empty reports whether nothing is to be shown.
func (s Surface) Empty() bool {
	return s.Popup == nil && s.Toast == nil
}

// Watcher remembers which notifications a client has already seen as a pop-up or toast.
type Watcher struct {
	mu      sync.Mutex
	popped  map[uuid.UUID]struct{}
	toasted map[uuid.UUID]struct{}
}

func NewWatcher() *Watcher {
	return &Watcher{popped: map[uuid.UUID]struct{}{}, toasted: map[uuid.UUID]struct{}{}}
}

// Observe picks at most one new critical pop-up and one new broadcast toast from list.
// A list without unread items resets both shown sets.
func (w *Watcher) Observe(list []Notification) Surface {
	w.mu.Lock()
	defer w.mu.Unlock()

	var out Surface
	unread := 0
	for i := range list {
		n := &list[i]
		if n.IsRead {
			continue
		}
		unread++
		if out.Popup == nil && n.Type.Critical() {
			if _, seen := w.popped[n.ID]; !seen {
				w.popped[n.ID] = struct{}{}
				shown := *n
				out.Popup = &shown
			}
		}
		if out.Toast == nil && n.Type.BroadcastClass() {
			if _, seen := w.toasted[n.ID]; !seen {
				w.toasted[n.ID] = struct{}{}
				shown := *n
				out.Toast = &shown
			}
		}
	}
	if unread == 0 {
		w.popped = map[uuid.UUID]struct{}{}
		w.toasted = map[uuid.UUID]struct{}{}
	}

	if out.Popup != nil {
		metrics.TransientNotifications.WithLabelValues("popup").Inc()
	}
	if out.Toast != nil {
		metrics.TransientNotifications.WithLabelValues("toast").Inc()
	}
	return out
}

// Reset forgets everything, for logout.
func (w *Watcher) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.popped = map[uuid.UUID]struct{}{}
	w.toasted = map[uuid.UUID]struct{}{}
}
