package appstate

import (
	"context"
	"time"

	"localfelo_backend/internal/clientstore"
	"localfelo_backend/internal/location"
	"localfelo_backend/internal/navigation"
	"localfelo_backend/internal/session"

	"go.uber.org/zap"
)

// Diagnostics is a read-only snapshot of one client's state.
type Diagnostics struct {
	ClientID      string                    `json:"clientId"`
	Authenticated bool                      `json:"authenticated"`
	Admin         bool                      `json:"admin"`
	Source        session.Source            `json:"source,omitempty"`
	Screen        navigation.Screen         `json:"screen"`
	Path          string                    `json:"path"`
	History       []navigation.HistoryEntry `json:"history"`
	Location      *location.UserLocation    `json:"location"`
	Flags         map[string]bool           `json:"flags"`
	Storage       map[string]string         `json:"storage"`
	CreatedAt     time.Time                 `json:"createdAt"`
	LastSeen      time.Time                 `json:"lastSeen"`
	ActiveStates  int                       `json:"activeStates"`
}

// Diagnose snapshots s. Storage read failures leave the storage map empty.
func (r *Registry) Diagnose(ctx context.Context, s *State) Diagnostics {
	current := s.nav.Current()
	d := Diagnostics{
		ClientID:      s.ClientID,
		Authenticated: s.Authenticated(),
		Admin:         s.Admin(),
		Screen:        current.Screen,
		Path:          current.Path,
		History:       s.nav.History(),
		Location:      s.Location(ctx),
		CreatedAt:     s.CreatedAt,
		LastSeen:      s.LastSeen(),
		ActiveStates:  r.Len(),
	}
	if sess := s.Session(); sess != nil {
		d.Source = sess.Source
	}
	if flags, err := s.Flags(ctx); err == nil {
		d.Flags = flags
	}
	storage, err := r.deps.Store.Snapshot(ctx, s.ClientID)
	if err != nil {
		s.logger().Warn("Diagnostics storage snapshot failed", zap.Error(err))
		storage = map[string]string{}
	}
	// Credentials and contact details stay server-side.
	for _, key := range []string{clientstore.KeyToken, clientstore.KeyUser} {
		if _, ok := storage[key]; ok {
			storage[key] = "***"
		}
	}
	d.Storage = storage
	return d
}
