// Package appstate owns the coordinator state of every connected client.
package appstate

import (
	"context"
	"sync"
	"time"

	"localfelo_backend/internal/clientstore"
	"localfelo_backend/internal/location"
	"localfelo_backend/internal/navigation"
	"localfelo_backend/internal/notification"
	"localfelo_backend/internal/session"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is the session, screen, and feed state of one client.
type State struct {
	ClientID  string
	CreatedAt time.Time

	deps *Deps
	nav  *navigation.Coordinator
	feed *notification.Watcher

	sessMu  sync.RWMutex
	session *session.Session

	boot    sync.Once
	landing sync.Once
	start   navigation.Transition

	seenMu   sync.Mutex
	lastSeen time.Time
}

func newState(clientID, initialPath string, deps *Deps, now time.Time) *State {
	s := &State{ClientID: clientID, CreatedAt: now, deps: deps, feed: notification.NewWatcher(), lastSeen: now}
	s.nav = navigation.NewCoordinator(initialPath, navigation.NewMemoryHistory(), s, deps.Listings, deps.Logger)
	return s
}

// Authenticated implements navigation.SessionView.
func (s *State) Authenticated() bool {
	s.sessMu.RLock()
	defer s.sessMu.RUnlock()
	return s.session != nil
}

// Admin implements navigation.SessionView.
func (s *State) Admin() bool {
	s.sessMu.RLock()
	defer s.sessMu.RUnlock()
	return s.session != nil && s.session.IsAdmin
}

// Session returns the current session, nil for a guest.
func (s *State) Session() *session.Session {
	s.sessMu.RLock()
	defer s.sessMu.RUnlock()
	return s.session
}

// UserID returns the signed-in profile id, nil for a guest.
func (s *State) UserID() *uuid.UUID {
	return s.Session().UserID()
}

// EnsureSession runs the bootstrap exactly once per state, before any answer is given.
func (s *State) EnsureSession(ctx context.Context, credential string) {
	s.boot.Do(func() {
		s.setSession(s.deps.Sessions.Bootstrap(ctx, s.ClientID, credential))
	})
}

// SignIn re-runs the bootstrap for a login event.
func (s *State) SignIn(ctx context.Context, credential string) *session.Session {
	s.boot.Do(func() {})
	sess := s.deps.Sessions.Bootstrap(ctx, s.ClientID, credential)
	s.setSession(sess)
	return sess
}

// SignOut ends the session and clears the locally persisted pair.
func (s *State) SignOut(ctx context.Context) error {
	err := s.deps.Sessions.Logout(ctx, s.ClientID, s.Session())
	s.setSession(nil)
	s.feed.Reset()
	return err
}

func (s *State) setSession(sess *session.Session) {
	s.sessMu.Lock()
	s.session = sess
	s.sessMu.Unlock()
}

// Landing returns the screen reconstructed from the first request's path. Later calls return
// the current screen.
func (s *State) Landing(ctx context.Context) navigation.Transition {
	first := false
	s.landing.Do(func() {
		s.start = s.nav.Start(ctx)
		first = true
	})
	if first {
		return s.start
	}
	return s.nav.Current()
}

// Navigator exposes the client's coordinator.
func (s *State) Navigator() *navigation.Coordinator {
	return s.nav
}

// Location resolves the client's effective location.
func (s *State) Location(ctx context.Context) *location.UserLocation {
	return s.deps.Resolver.Resolve(ctx, s.ClientID, s.UserID())
}

// Feed returns the unread list and what to surface from it. Guests have an empty feed.
func (s *State) Feed(ctx context.Context) ([]notification.Notification, notification.Surface, error) {
	uid := s.UserID()
	if uid == nil {
		return nil, notification.Surface{}, nil
	}
	list, err := s.deps.Notifications.GetUnread(ctx, *uid, s.deps.FeedLimit)
	if err != nil {
		return nil, notification.Surface{}, err
	}
	return list, s.feed.Observe(list), nil
}

// Flags returns the one-shot UI flags that are set.
func (s *State) Flags(ctx context.Context) (map[string]bool, error) {
	flags := map[string]bool{clientstore.KeyLocationModalShown: false, clientstore.KeyIntroSkipped: false}
	for key := range flags {
		v, ok, err := s.deps.Store.Get(ctx, s.ClientID, key)
		if err != nil {
			return nil, err
		}
		flags[key] = ok && v == clientstore.FlagTrue
	}
	return flags, nil
}

// SetFlag marks a one-shot flag.
func (s *State) SetFlag(ctx context.Context, key string) error {
	return s.deps.Store.Set(ctx, s.ClientID, key, clientstore.FlagTrue)
}

func (s *State) touch(now time.Time) {
	s.seenMu.Lock()
	s.lastSeen = now
	s.seenMu.Unlock()
}

// LastSeen is the time of the client's most recent request.
func (s *State) LastSeen() time.Time {
	s.seenMu.Lock()
	defer s.seenMu.Unlock()
	return s.lastSeen
}

func (s *State) logger() *zap.Logger {
	return s.deps.Logger.With(zap.String("clientID", s.ClientID))
}
