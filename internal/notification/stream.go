package notification

import (
	"context"
	"time"

	"localfelo_backend/internal/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Counts is the badge state of one user.
type Counts struct {
	UnreadNotifications int64 `json:"unreadNotifications"`
	UnreadMessages      int64 `json:"unreadMessages"`
	ActiveTasks         int64 `json:"activeTasks"`
}

// ActivityCounter counts chat and task activity.
type ActivityCounter interface {
	UnreadMessages(ctx context.Context, userID uuid.UUID) (int64, error)
	ActiveTasks(ctx context.Context, userID uuid.UUID) (int64, error)
}

// StreamConfig holds the fallback poll intervals.
type StreamConfig struct {
	MessagesPoll      time.Duration
	TasksPoll         time.Duration
	NotificationsPoll time.Duration
}

// StreamConfigFromConfig reads the poll intervals. Notifications poll at the task cadence.
func StreamConfigFromConfig(cfg *config.Config) StreamConfig {
	return StreamConfig{
		MessagesPoll:      cfg.UnreadMessagesPoll,
		TasksPoll:         cfg.ActiveTasksPoll,
		NotificationsPoll: cfg.ActiveTasksPoll,
	}
}

type counter int

const (
	countNotifications counter = iota
	countMessages
	countTasks
)

// CountStream merges realtime changes and poll timers into one stream of Counts per user.
type CountStream struct {
	notifications Repository
	activity      ActivityCounter
	hub           *Hub
	cfg           StreamConfig
	logger        *zap.Logger
}

func NewCountStream(notifications Repository, activity ActivityCounter, hub *Hub, cfg StreamConfig, logger *zap.Logger) *CountStream {
	if cfg.MessagesPoll <= 0 {
		cfg.MessagesPoll = 3 * time.Second
	}
	if cfg.TasksPoll <= 0 {
		cfg.TasksPoll = 10 * time.Second
	}
	if cfg.NotificationsPoll <= 0 {
		cfg.NotificationsPoll = cfg.TasksPoll
	}
	return &CountStream{notifications: notifications, activity: activity, hub: hub, cfg: cfg, logger: logger.Named("counts")}
}

// Snapshot reads all three counters concurrently.
func (s *CountStream) Snapshot(ctx context.Context, userID uuid.UUID) (Counts, error) {
	var out Counts
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.UnreadNotifications, err = s.notifications.CountUnread(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		out.UnreadMessages, err = s.activity.UnreadMessages(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		out.ActiveTasks, err = s.activity.ActiveTasks(gctx, userID)
		return err
	})
	return out, g.Wait()
}

// Watch emits the initial counts and then every change until ctx is done, when the channel
// is closed. Read failures keep the last known value.
func (s *CountStream) Watch(ctx context.Context, userID uuid.UUID) <-chan Counts {
	out := make(chan Counts, 1)
	var changes <-chan Change
	unsubscribe := func() {}
	if s.hub != nil {
		changes, unsubscribe = s.hub.Subscribe(userID)
	}

	go func() {
		defer close(out)
		defer unsubscribe()

		current, err := s.Snapshot(ctx, userID)
		if err != nil {
			s.logger.Warn("Initial count read failed", zap.Error(err), zap.String("userID", userID.String()))
		}
		if !s.send(ctx, out, current) {
			return
		}

		messages := time.NewTicker(s.cfg.MessagesPoll)
		tasks := time.NewTicker(s.cfg.TasksPoll)
		notifications := time.NewTicker(s.cfg.NotificationsPoll)
		defer messages.Stop()
		defer tasks.Stop()
		defer notifications.Stop()

		for {
			var which counter
			select {
			case <-ctx.Done():
				return
			case <-messages.C:
				which = countMessages
			case <-tasks.C:
				which = countTasks
			case <-notifications.C:
				which = countNotifications
			case c, ok := <-changes:
				if !ok {
					changes = nil
					continue
				}
				switch c.Table {
				case TableNotifications:
					which = countNotifications
				case TableMessages, TableConversations:
					which = countMessages
				case TableTasks:
					which = countTasks
				default:
					continue
				}
			}

			next := s.refresh(ctx, userID, current, which)
			if next == current {
				continue
			}
			current = next
			if !s.send(ctx, out, current) {
				return
			}
		}
	}()
	return out
}

func (s *CountStream) refresh(ctx context.Context, userID uuid.UUID, c Counts, which counter) Counts {
	var (
		n   int64
		err error
	)
	switch which {
	case countNotifications:
		n, err = s.notifications.CountUnread(ctx, userID)
	case countMessages:
		n, err = s.activity.UnreadMessages(ctx, userID)
	case countTasks:
		n, err = s.activity.ActiveTasks(ctx, userID)
	}
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("Count refresh failed", zap.Error(err), zap.Int("counter", int(which)))
		}
		return c
	}
	switch which {
	case countNotifications:
		c.UnreadNotifications = n
	case countMessages:
		c.UnreadMessages = n
	case countTasks:
		c.ActiveTasks = n
	}
	return c
}

func (s *CountStream) send(ctx context.Context, out chan<- Counts, c Counts) bool {
	select {
	case out <- c:
		return true
	case <-ctx.Done():
		return false
	}
}
