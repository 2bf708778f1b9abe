package appstate

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"localfelo_backend/internal/clientstore"
	"localfelo_backend/internal/common"
	"localfelo_backend/internal/config"
	"localfelo_backend/internal/location"
	"localfelo_backend/internal/navigation"
	"localfelo_backend/internal/notification"
	"localfelo_backend/internal/platform/metrics"
	"localfelo_backend/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// InitialPathHeader carries the URL the browser first loaded, for deep links.
const InitialPathHeader = "X-Initial-Path"

const (
	stateKey  = "clientState"
	writeWait = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler serves the per-client state endpoints.
type Handler struct {
	registry    *Registry
	diagnostics bool
	logger      *zap.Logger
}

// NewHandler creates a new client state handler.
func NewHandler(registry *Registry, cfg *config.Config, logger *zap.Logger) *Handler {
	return &Handler{registry: registry, diagnostics: cfg.DiagnosticsEnabled, logger: logger.Named("client")}
}

// RegisterRoutes sets up the client state routes. clientMW validates the client id.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, clientMW gin.HandlerFunc) {
	router.GET("/routes", h.getRoutes)

	g := router.Group("/client", clientMW, h.attach)
	g.POST("/session", h.signIn)
	g.DELETE("/session", h.signOut)
	g.GET("/location", h.getLocation)
	g.PUT("/location", h.updateLocation)
	g.DELETE("/location", h.clearLocation)
	g.POST("/location/detect", h.detectLocation)
	g.GET("/location/distance", h.distance)
	g.GET("/screen", h.getScreen)
	g.POST("/navigate", h.navigate)
	g.POST("/popstate", h.popState)
	g.POST("/back", h.back)
	g.POST("/forward", h.forward)
	g.GET("/feed", h.getFeed)
	g.GET("/realtime", h.realtime)
	g.GET("/flags", h.getFlags)
	g.PUT("/flags/:flag", h.setFlag)

	if h.diagnostics {
		router.GET("/diagnostic", clientMW, h.attach, h.getDiagnostic)
	}
}

// attach loads the client's state and runs its one-time session bootstrap.
func (h *Handler) attach(c *gin.Context) {
	path := c.GetHeader(InitialPathHeader)
	if path == "" {
		path = c.Query("path")
	}
	s, err := h.registry.Get(c.Request.Context(), common.GetClientIDFromContext(c), path)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	s.EnsureSession(c.Request.Context(), c.GetHeader(common.IDTokenHeader))
	c.Set(stateKey, s)
	c.Next()
}

func stateFrom(c *gin.Context) *State {
	return c.MustGet(stateKey).(*State)
}

// --- DTOs ---

// SignInRequest carries the backend ID token of a login event.
type SignInRequest struct {
	IDToken string `json:"idToken"`
}

// SessionResponse describes the resolved session.
type SessionResponse struct {
	Authenticated bool                   `json:"authenticated"`
	Session       *session.Session       `json:"session,omitempty"`
	Location      *location.UserLocation `json:"location"`
	Toasts        []common.Toast         `json:"toasts,omitempty"`
}

// DetectRequest is a device geolocation fix.
type DetectRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" binding:"required,min=-180,max=180"`
}

// DistanceResponse is the distance from the client's area to a point.
type DistanceResponse struct {
	DistanceKM float64 `json:"distanceKm"`
}

// NavigateRequest names a screen and its payload ids.
type NavigateRequest struct {
	Screen         navigation.Screen `json:"screen" binding:"required"`
	ListingID      string            `json:"listingId"`
	ConversationID string            `json:"conversationId"`
	TaskID         string            `json:"taskId"`
	WishID         string            `json:"wishId"`
}

// FeedResponse is the unread feed with what to surface and the badge counts.
type FeedResponse struct {
	Notifications []notification.Notification `json:"notifications"`
	Surface       notification.Surface        `json:"surface"`
	Counts        *notification.Counts        `json:"counts,omitempty"`
}

// RealtimeFrame is one websocket message.
type RealtimeFrame struct {
	Type    string                `json:"type"`
	Counts  *notification.Counts  `json:"counts,omitempty"`
	Surface *notification.Surface `json:"surface,omitempty"`
}

// --- Routes ---

func (h *Handler) getRoutes(c *gin.Context) {
	common.RespondOK(c, "Routes retrieved successfully.", navigation.RouteTable())
}

// --- Session ---

func (h *Handler) signIn(c *gin.Context) {
	var req SignInRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			common.RespondBindError(c, err)
			return
		}
	}
	if req.IDToken == "" {
		req.IDToken = c.GetHeader(common.IDTokenHeader)
	}

	s := stateFrom(c)
	sess := s.SignIn(c.Request.Context(), req.IDToken)
	resp := SessionResponse{Authenticated: sess != nil, Session: sess, Location: s.Location(c.Request.Context())}
	if sess == nil && req.IDToken != "" {
		resp.Toasts = append(resp.Toasts, common.ErrorToast("Sign-in failed. You are browsing as a guest."))
	}
	common.RespondOK(c, "Session resolved.", resp)
}

func (h *Handler) signOut(c *gin.Context) {
	s := stateFrom(c)
	if err := s.SignOut(c.Request.Context()); err != nil {
		h.logger.Error("Sign-out failed", zap.Error(err), zap.String("clientID", s.ClientID))
		common.RespondWithError(c, common.ErrInternalServer.WithDetails("Could not sign out."))
		return
	}
	h.registry.Remove(s.ClientID)
	common.RespondNoContent(c)
}

// --- Location ---

func (h *Handler) getLocation(c *gin.Context) {
	common.RespondOK(c, "Location resolved.", stateFrom(c).Location(c.Request.Context()))
}

func (h *Handler) updateLocation(c *gin.Context) {
	var req location.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBindError(c, err)
		return
	}
	s := stateFrom(c)
	loc, err := h.registry.deps.Resolver.Update(c.Request.Context(), s.ClientID, s.UserID(), req)
	if err != nil {
		respondLocationError(c, err)
		return
	}
	common.RespondOK(c, "Location updated.", loc)
}

func (h *Handler) clearLocation(c *gin.Context) {
	s := stateFrom(c)
	if err := h.registry.deps.Resolver.Clear(c.Request.Context(), s.ClientID, s.UserID()); err != nil {
		respondLocationError(c, err)
		return
	}
	common.RespondNoContent(c)
}

func (h *Handler) detectLocation(c *gin.Context) {
	var req DetectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBindError(c, err)
		return
	}
	s := stateFrom(c)
	ctx := c.Request.Context()
	detected, err := h.registry.deps.Resolver.Detect(ctx, *req.Latitude, *req.Longitude)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	loc, err := h.registry.deps.Resolver.Update(ctx, s.ClientID, s.UserID(), location.RequestFrom(detected))
	if err != nil {
		respondLocationError(c, err)
		return
	}
	common.RespondOK(c, "Location detected.", loc)
}

func (h *Handler) distance(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lon, errLon := strconv.ParseFloat(c.Query("lon"), 64)
	if errLat != nil || errLon != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("lat and lon query parameters are required."))
		return
	}
	s := stateFrom(c)
	km := h.registry.deps.Resolver.DistanceKM(s.Location(c.Request.Context()), lat, lon)
	common.RespondOK(c, "Distance computed.", DistanceResponse{DistanceKM: km})
}

func respondLocationError(c *gin.Context, err error) {
	apiErr, ok := common.IsAPIError(err)
	if !ok {
		apiErr = location.ErrLocationSaveFailed
	}
	common.RespondWithError(c, apiErr.WithDetails(location.ToastFor(err)))
}

// --- Navigation ---

func (h *Handler) getScreen(c *gin.Context) {
	common.RespondOK(c, "Current screen.", stateFrom(c).Landing(c.Request.Context()))
}

func (h *Handler) navigate(c *gin.Context) {
	var req NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBindError(c, err)
		return
	}
	if !req.Screen.Valid() {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Unknown screen."))
		return
	}
	payload := navigation.PayloadFromState(navigation.HistoryState{
		Screen:         req.Screen,
		ListingID:      req.ListingID,
		ConversationID: req.ConversationID,
		TaskID:         req.TaskID,
		WishID:         req.WishID,
	})
	common.RespondOK(c, "Navigated.", stateFrom(c).Navigator().Navigate(c.Request.Context(), req.Screen, payload))
}

func (h *Handler) popState(c *gin.Context) {
	var entry navigation.HistoryEntry
	if err := c.ShouldBindJSON(&entry); err != nil {
		common.RespondBindError(c, err)
		return
	}
	common.RespondOK(c, "History restored.", stateFrom(c).Navigator().PopState(c.Request.Context(), entry))
}

func (h *Handler) back(c *gin.Context) {
	common.RespondOK(c, "Navigated back.", stateFrom(c).Navigator().Back(c.Request.Context()))
}

func (h *Handler) forward(c *gin.Context) {
	common.RespondOK(c, "Navigated forward.", stateFrom(c).Navigator().Forward(c.Request.Context()))
}

// --- Feed ---

func (h *Handler) getFeed(c *gin.Context) {
	s := stateFrom(c)
	ctx := c.Request.Context()
	list, surface, err := s.Feed(ctx)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	resp := FeedResponse{Notifications: list, Surface: surface}
	if uid := s.UserID(); uid != nil && h.registry.deps.Counts != nil {
		counts, err := h.registry.deps.Counts.Snapshot(ctx, *uid)
		if err != nil {
			h.logger.Warn("Count snapshot failed", zap.Error(err), zap.String("clientID", s.ClientID))
		} else {
			resp.Counts = &counts
		}
	}
	if resp.Notifications == nil {
		resp.Notifications = []notification.Notification{}
	}
	common.RespondOK(c, "Feed retrieved.", resp)
}

func (h *Handler) realtime(c *gin.Context) {
	s := stateFrom(c)
	uid := s.UserID()
	if uid == nil {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Sign in to receive live updates."))
		return
	}
	if h.registry.deps.Counts == nil {
		common.RespondWithError(c, common.ErrServiceUnavailable.WithDetails("Live updates are disabled."))
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err), zap.String("clientID", s.ClientID))
		return
	}
	defer ws.Close()
	metrics.RealtimeConnections.Inc()
	defer metrics.RealtimeConnections.Dec()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	// The client never sends frames; reading only detects the close.
	go func() {
		defer cancel()
		for {
			if _, _, err := ws.NextReader(); err != nil {
				return
			}
		}
	}()

	h.logger.Debug("Realtime client connected", zap.String("clientID", s.ClientID))
	var lastUnread int64 = -1
	for counts := range h.registry.deps.Counts.Watch(ctx, *uid) {
		if err := writeFrame(ws, RealtimeFrame{Type: "counts", Counts: &counts}); err != nil {
			return
		}
		if counts.UnreadNotifications == lastUnread {
			continue
		}
		lastUnread = counts.UnreadNotifications
		_, surface, err := s.Feed(ctx)
		if err != nil || surface.Empty() {
			continue
		}
		if err := writeFrame(ws, RealtimeFrame{Type: "surface", Surface: &surface}); err != nil {
			return
		}
	}
}

func writeFrame(ws *websocket.Conn, frame RealtimeFrame) error {
	if err := ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return ws.WriteJSON(frame)
}

// --- Flags ---

func (h *Handler) getFlags(c *gin.Context) {
	flags, err := stateFrom(c).Flags(c.Request.Context())
	if err != nil {
		h.logger.Error("Reading flags failed", zap.Error(err))
		common.RespondWithError(c, common.ErrInternalServer)
		return
	}
	common.RespondOK(c, "Flags retrieved.", flags)
}

func (h *Handler) setFlag(c *gin.Context) {
	key := c.Param("flag")
	if !clientstore.IsFlagKey(key) {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Unknown flag."))
		return
	}
	if err := stateFrom(c).SetFlag(c.Request.Context(), key); err != nil {
		h.logger.Error("Setting flag failed", zap.Error(err), zap.String("flag", key))
		common.RespondWithError(c, common.ErrInternalServer)
		return
	}
	common.RespondNoContent(c)
}

// --- Diagnostics ---

func (h *Handler) getDiagnostic(c *gin.Context) {
	common.RespondOK(c, "Diagnostics.", h.registry.Diagnose(c.Request.Context(), stateFrom(c)))
}
