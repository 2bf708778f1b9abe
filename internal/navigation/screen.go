package navigation

import (
	"strings"

	"github.com/google/uuid"
)

// Screen is one named application view.
type Screen string

const (
	ScreenHome          Screen = "home"
	ScreenMarketplace   Screen = "marketplace"
	ScreenListing       Screen = "listing"
	ScreenEdit          Screen = "edit"
	ScreenChat          Screen = "chat"
	ScreenProfile       Screen = "profile"
	ScreenAdmin         Screen = "admin"
	ScreenCreate        Screen = "create"
	ScreenCreateWish    Screen = "create-wish"
	ScreenCreateTask    Screen = "create-task"
	ScreenWishes        Screen = "wishes"
	ScreenTasks         Screen = "tasks"
	ScreenWishDetail    Screen = "wish-detail"
	ScreenTaskDetail    Screen = "task-detail"
	ScreenNotifications Screen = "notifications"
	ScreenDiagnostic    Screen = "diagnostic"
	ScreenAbout         Screen = "about"
	ScreenTerms         Screen = "terms"
	ScreenPrivacy       Screen = "privacy"
	ScreenSafety        Screen = "safety"
	ScreenContact       Screen = "contact"
	ScreenFAQ           Screen = "faq"
)

// staticPaths maps every screen to its URL. Listing and edit append the id.
var staticPaths = map[Screen]string{
	ScreenHome:          "/",
	ScreenMarketplace:   "/marketplace",
	ScreenListing:       "/listing",
	ScreenEdit:          "/edit-listing",
	ScreenChat:          "/chat",
	ScreenProfile:       "/profile",
	ScreenAdmin:         "/admin",
	ScreenCreate:        "/create",
	ScreenCreateWish:    "/create-wish",
	ScreenCreateTask:    "/create-task",
	ScreenWishes:        "/wishes",
	ScreenTasks:         "/tasks",
	ScreenWishDetail:    "/wish",
	ScreenTaskDetail:    "/task",
	ScreenNotifications: "/notifications",
	ScreenDiagnostic:    "/diagnostic",
	ScreenAbout:         "/about",
	ScreenTerms:         "/terms",
	ScreenPrivacy:       "/privacy",
	ScreenSafety:        "/safety",
	ScreenContact:       "/contact",
	ScreenFAQ:           "/faq",
}

var screenByPath = func() map[string]Screen {
	m := make(map[string]Screen, len(staticPaths))
	for s, p := range staticPaths {
		m[p] = s
	}
	return m
}()

// screenOrder fixes the route table order.
var screenOrder = []Screen{
	ScreenHome, ScreenMarketplace, ScreenListing, ScreenEdit, ScreenChat, ScreenProfile, ScreenAdmin,
	ScreenCreate, ScreenCreateWish, ScreenCreateTask, ScreenWishes, ScreenTasks, ScreenWishDetail,
	ScreenTaskDetail, ScreenNotifications, ScreenDiagnostic, ScreenAbout, ScreenTerms, ScreenPrivacy,
	ScreenSafety, ScreenContact, ScreenFAQ,
}

// Valid reports whether s is a known screen.
func (s Screen) Valid() bool {
	_, ok := staticPaths[s]
	return ok
}

// RequiresSession reports whether s is closed to guests.
func (s Screen) RequiresSession() bool {
	switch s {
	case ScreenProfile, ScreenCreate, ScreenChat, ScreenCreateWish, ScreenCreateTask:
		return true
	}
	return false
}

// IDInPath reports whether the entity id is part of the URL.
func (s Screen) IDInPath() bool {
	return s == ScreenListing || s == ScreenEdit
}

// Route describes one entry of the URL surface.
type Route struct {
	Screen          Screen `json:"screen"`
	Path            string `json:"path"`
	RequiresSession bool   `json:"requiresSession"`
	AdminOnly       bool   `json:"adminOnly,omitempty"`
}

// RouteTable lists every screen with its path pattern.
func RouteTable() []Route {
	routes := make([]Route, 0, len(screenOrder))
	for _, s := range screenOrder {
		p := staticPaths[s]
		if s.IDInPath() {
			p += "/:id"
		}
		routes = append(routes, Route{Screen: s, Path: p, RequiresSession: s.RequiresSession(), AdminOnly: s == ScreenAdmin})
	}
	return routes
}

// PathFor returns the URL for screen with payload.
func PathFor(screen Screen, payload Payload) string {
	base, ok := staticPaths[screen]
	if !ok {
		return staticPaths[ScreenHome]
	}
	if screen.IDInPath() {
		if id := listingID(payload); id != "" {
			return base + "/" + id
		}
	}
	return base
}

// ScreenForPath maps a URL path back to a screen. Listing and edit paths also yield the id.
// Unknown paths map to home with ok false.
func ScreenForPath(path string) (screen Screen, id string, ok bool) {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		path = "/"
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	if s, found := screenByPath[path]; found {
		return s, "", true
	}
	for _, s := range []Screen{ScreenListing, ScreenEdit} {
		prefix := staticPaths[s] + "/"
		if strings.HasPrefix(path, prefix) {
			rest := strings.TrimPrefix(path, prefix)
			if rest != "" && !strings.Contains(rest, "/") {
				return s, rest, true
			}
		}
	}
	return ScreenHome, "", false
}

// ValidID reports whether id can address an entity: not empty, not a stringified
// undefined/null, and a well-formed UUID.
func ValidID(id string) bool {
	id = strings.TrimSpace(id)
	switch id {
	case "", "undefined", "null":
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
