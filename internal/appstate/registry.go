package appstate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"localfelo_backend/internal/clientstore"
	"localfelo_backend/internal/config"
	"localfelo_backend/internal/listing"
	"localfelo_backend/internal/location"
	"localfelo_backend/internal/navigation"
	"localfelo_backend/internal/notification"
	"localfelo_backend/internal/platform/metrics"
	"localfelo_backend/internal/session"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// SessionBootstrapper resolves and ends sessions.
type SessionBootstrapper interface {
	Bootstrap(ctx context.Context, clientID, credential string) *session.Session
	Logout(ctx context.Context, clientID string, s *session.Session) error
}

// FeedSource lists a user's unread notifications.
type FeedSource interface {
	GetUnread(ctx context.Context, userID uuid.UUID, limit int) ([]notification.Notification, error)
}

// Deps are the services every client state shares.
type Deps struct {
	Store         clientstore.Store
	Resolver      *location.Resolver
	Sessions      SessionBootstrapper
	Listings      navigation.ListingLookup
	Notifications FeedSource
	Counts        *notification.CountStream
	FeedLimit     int
	MirrorLegacy  bool
	Logger        *zap.Logger
}

// NewDeps is the injector-facing constructor.
func NewDeps(
	store clientstore.Store,
	resolver *location.Resolver,
	sessions *session.Bootstrapper,
	listings listing.Service,
	notifications notification.Service,
	counts *notification.CountStream,
	cfg *config.Config,
	logger *zap.Logger,
) *Deps {
	return &Deps{
		Store:         store,
		Resolver:      resolver,
		Sessions:      sessions,
		Listings:      listings,
		Notifications: notifications,
		Counts:        counts,
		FeedLimit:     cfg.FeedUnreadPageSize,
		MirrorLegacy:  cfg.LocationMirrorLegacyKey,
		Logger:        logger.Named("appstate"),
	}
}

// Registry holds one State per client id, least recently used first out.
type Registry struct {
	deps   *Deps
	idle   time.Duration
	now    func() time.Time
	mu     sync.Mutex
	states *lru.Cache[string, *State]
}

// NewRegistry creates a Registry holding at most size states.
func NewRegistry(deps *Deps, size int, idle time.Duration) (*Registry, error) {
	states, err := lru.NewWithEvict[string, *State](size, func(clientID string, _ *State) {
		metrics.ActiveClientStates.Dec()
	})
	if err != nil {
		return nil, fmt.Errorf("create client state cache: %w", err)
	}
	return &Registry{deps: deps, idle: idle, now: time.Now, states: states}, nil
}

// NewRegistryFromConfig is the injector-facing constructor.
func NewRegistryFromConfig(deps *Deps, cfg *config.Config) (*Registry, error) {
	return NewRegistry(deps, cfg.ClientStateCacheSize, cfg.ClientStateIdle)
}

// Get returns the state for clientID, creating it on first sight. A new state migrates legacy
// local keys and starts its history at initialPath.
func (r *Registry) Get(ctx context.Context, clientID, initialPath string) (*State, error) {
	if !clientstore.ValidClientID(clientID) {
		return nil, ErrInvalidClientID
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if s, ok := r.states.Get(clientID); ok {
		s.touch(now)
		return s, nil
	}

	migrated, err := clientstore.MigrateLegacyKeys(ctx, r.deps.Store, clientID, r.deps.MirrorLegacy)
	if err != nil {
		r.deps.Logger.Warn("Legacy key migration failed", zap.Error(err), zap.String("clientID", clientID))
	} else if migrated {
		r.deps.Logger.Info("Migrated legacy guest location", zap.String("clientID", clientID))
	}

	s := newState(clientID, initialPath, r.deps, now)
	r.states.Add(clientID, s)
	metrics.ActiveClientStates.Inc()
	return s, nil
}

// Peek returns an existing state without creating one.
func (r *Registry) Peek(clientID string) (*State, bool) {
	return r.states.Peek(clientID)
}

// Remove drops the in-memory state of clientID.
func (r *Registry) Remove(clientID string) {
	r.states.Remove(clientID)
}

// EvictIdle drops states not seen within the idle window and reports how many went.
func (r *Registry) EvictIdle(ctx context.Context) (int, error) {
	if r.idle <= 0 {
		return 0, nil
	}
	cutoff := r.now().Add(-r.idle)
	evicted := 0
	for _, clientID := range r.states.Keys() {
		s, ok := r.states.Peek(clientID)
		if ok && s.LastSeen().Before(cutoff) {
			r.states.Remove(clientID)
			evicted++
		}
	}
	return evicted, nil
}

// Len reports how many states are held.
func (r *Registry) Len() int {
	return r.states.Len()
}
