// Package navigation keeps a client's current screen in step with its URL and history stack.
package navigation

import (
	"context"
	"sync"

	"localfelo_backend/internal/common"
	"localfelo_backend/internal/platform/metrics"

	"go.uber.org/zap"
)

const (
	msgInvalidID         = "That item could not be opened."
	msgListingNotFound   = "This listing is no longer available."
	msgListingLoadFailed = "Could not load the listing. Please try again."
	msgAdminOnly         = "You do not have access to the admin panel."
)

// SessionView is what the coordinator needs to know about the current session.
type SessionView interface {
	Authenticated() bool
	Admin() bool
}

// ListingLookup confirms that a deep-linked listing exists.
type ListingLookup interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// Transition is the outcome of one navigation request.
type Transition struct {
	Screen       Screen         `json:"screen"`
	Payload      Payload        `json:"payload,omitempty"`
	Path         string         `json:"path"`
	State        HistoryState   `json:"state"`
	Toasts       []common.Toast `json:"toasts,omitempty"`
	AuthRequired bool           `json:"authRequired,omitempty"`
	ScrollToTop  bool           `json:"scrollToTop"`
	Pushed       bool           `json:"pushed"`
}

// Coordinator owns the current screen of one client.
type Coordinator struct {
	mu       sync.Mutex
	history  History
	session  SessionView
	listings ListingLookup
	logger   *zap.Logger

	screen  Screen
	payload Payload
}

// NewCoordinator installs the sentinel entry for initialPath before returning, so the first
// back-press from a real screen lands inside the app.
func NewCoordinator(initialPath string, history History, session SessionView, listings ListingLookup, logger *zap.Logger) *Coordinator {
	if initialPath == "" {
		initialPath = "/"
	}
	history.Push(HistoryEntry{Path: initialPath, State: HistoryState{Sentinel: true}})
	return &Coordinator{
		history:  history,
		session:  session,
		listings: listings,
		logger:   logger.Named("navigation"),
		screen:   ScreenHome,
	}
}

// Start reconstructs the landing screen from the sentinel entry.
func (c *Coordinator) Start(ctx context.Context) Transition {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, _ := c.history.Current()
	return c.restore(ctx, entry)
}

// Navigate moves to screen. Guarded screens without a session only report AuthRequired.
// Invalid ids redirect home with a toast.
func (c *Coordinator) Navigate(ctx context.Context, screen Screen, payload Payload) Transition {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !screen.Valid() {
		c.logger.Warn("Navigation to unknown screen", zap.String("screen", string(screen)))
		return c.pushHome(common.ErrorToast(msgInvalidID), "unknown_screen")
	}
	if screen.RequiresSession() && !c.session.Authenticated() {
		metrics.NavigationTransitions.WithLabelValues(string(screen), "auth_required").Inc()
		t := c.snapshot()
		t.AuthRequired = true
		return t
	}
	if screen == ScreenAdmin && !c.session.Admin() {
		if !c.session.Authenticated() {
			metrics.NavigationTransitions.WithLabelValues(string(screen), "auth_required").Inc()
			t := c.snapshot()
			t.AuthRequired = true
			return t
		}
		return c.pushHome(common.ErrorToast(msgAdminOnly), "forbidden")
	}
	if payload != nil && payload.target() != screen {
		c.logger.Warn("Payload does not match screen", zap.String("screen", string(screen)))
		return c.pushHome(common.ErrorToast(msgInvalidID), "invalid_id")
	}
	if id, required := entityID(screen, payload); required && !ValidID(id) {
		c.logger.Warn("Navigation with invalid id", zap.String("screen", string(screen)), zap.String("id", id))
		return c.pushHome(common.ErrorToast(msgInvalidID), "invalid_id")
	}

	c.screen, c.payload = screen, payload
	entry := HistoryEntry{Path: PathFor(screen, payload), State: stateFor(screen, payload)}
	c.history.Push(entry)
	metrics.NavigationTransitions.WithLabelValues(string(screen), "pushed").Inc()
	return Transition{Screen: screen, Payload: payload, Path: entry.Path, State: entry.State, ScrollToTop: true, Pushed: true}
}

// PopState handles a browser back/forward landing on entry. When entry is adjacent in the
// mirrored stack the stack index follows it.
func (c *Coordinator) PopState(ctx context.Context, entry HistoryEntry) Transition {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.follow(entry)
	return c.restore(ctx, entry)
}

// Back steps the mirrored stack back one entry. At the first entry nothing changes.
func (c *Coordinator) Back(ctx context.Context) Transition {
	return c.step(ctx, -1)
}

// Forward steps the mirrored stack forward one entry.
func (c *Coordinator) Forward(ctx context.Context) Transition {
	return c.step(ctx, 1)
}

// Current reports the current screen without changing anything.
func (c *Coordinator) Current() Transition {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// History exposes the stack for diagnostics.
func (c *Coordinator) History() []HistoryEntry {
	return c.history.Entries()
}

func (c *Coordinator) step(ctx context.Context, delta int) Transition {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.history.Go(delta)
	if !ok {
		return c.snapshot()
	}
	return c.restore(ctx, entry)
}

func (c *Coordinator) follow(entry HistoryEntry) {
	entries, idx := c.history.Entries(), c.history.Index()
	for _, d := range []int{-1, 1} {
		j := idx + d
		if j >= 0 && j < len(entries) && entries[j] == entry {
			c.history.Go(d)
			return
		}
	}
}

// restore rebuilds a screen from a history entry. Redirects replace the current entry.
func (c *Coordinator) restore(ctx context.Context, entry HistoryEntry) Transition {
	screen, payload := c.decode(entry)

	if (screen.RequiresSession() || screen == ScreenAdmin) && !c.session.Authenticated() {
		metrics.NavigationTransitions.WithLabelValues(string(screen), "auth_required").Inc()
		t := c.replaceHome(entry.State.Sentinel)
		t.AuthRequired = true
		return t
	}
	if screen == ScreenAdmin && !c.session.Admin() {
		metrics.NavigationTransitions.WithLabelValues(string(screen), "forbidden").Inc()
		return c.replaceHome(entry.State.Sentinel, common.ErrorToast(msgAdminOnly))
	}

	if id, required := entityID(screen, payload); required {
		if !ValidID(id) {
			c.logger.Warn("History entry with invalid id", zap.String("path", entry.Path))
			metrics.NavigationTransitions.WithLabelValues(string(screen), "invalid_id").Inc()
			return c.replaceHome(entry.State.Sentinel, common.ErrorToast(msgInvalidID))
		}
		if screen.IDInPath() {
			exists, err := c.listings.Exists(ctx, id)
			if err != nil {
				c.logger.Error("Deep link lookup failed", zap.Error(err), zap.String("listingID", id))
				metrics.NavigationTransitions.WithLabelValues(string(screen), "deep_link_failed").Inc()
				return c.replaceHome(entry.State.Sentinel, common.ErrorToast(msgListingLoadFailed))
			}
			if !exists {
				metrics.NavigationTransitions.WithLabelValues(string(screen), "deep_link_failed").Inc()
				return c.replaceHome(entry.State.Sentinel, common.ErrorToast(msgListingNotFound))
			}
		}
	}

	c.screen, c.payload = screen, payload
	metrics.NavigationTransitions.WithLabelValues(string(screen), "popped").Inc()
	return Transition{
		Screen:      screen,
		Payload:     payload,
		Path:        PathFor(screen, payload),
		State:       stateFor(screen, payload),
		ScrollToTop: true,
	}
}

// decode prefers the state object and falls back to the path.
func (c *Coordinator) decode(entry HistoryEntry) (Screen, Payload) {
	if st := entry.State; st.Screen.Valid() {
		if st.Screen.IDInPath() && st.ListingID == "" {
			if _, id, ok := ScreenForPath(entry.Path); ok {
				st.ListingID = id
			}
		}
		return st.Screen, payloadFor(st.Screen, st)
	}
	screen, id, _ := ScreenForPath(entry.Path)
	return screen, payloadFor(screen, HistoryState{ListingID: id})
}

func (c *Coordinator) pushHome(toast common.Toast, outcome string) Transition {
	metrics.NavigationTransitions.WithLabelValues(string(ScreenHome), outcome).Inc()
	c.screen, c.payload = ScreenHome, nil
	entry := HistoryEntry{Path: staticPaths[ScreenHome], State: HistoryState{Screen: ScreenHome}}
	c.history.Push(entry)
	return Transition{Screen: ScreenHome, Path: entry.Path, State: entry.State, Toasts: []common.Toast{toast}, ScrollToTop: true, Pushed: true}
}

func (c *Coordinator) replaceHome(sentinel bool, toasts ...common.Toast) Transition {
	c.screen, c.payload = ScreenHome, nil
	entry := HistoryEntry{Path: staticPaths[ScreenHome], State: HistoryState{Screen: ScreenHome, Sentinel: sentinel}}
	c.history.Replace(entry)
	return Transition{Screen: ScreenHome, Path: entry.Path, State: entry.State, Toasts: toasts, ScrollToTop: true}
}

func (c *Coordinator) snapshot() Transition {
	return Transition{
		Screen:  c.screen,
		Payload: c.payload,
		Path:    PathFor(c.screen, c.payload),
		State:   stateFor(c.screen, c.payload),
	}
}
