// File: internal/listing/handler.go
package listing

import (
	"strconv"

	"localfelo_backend/internal/area"
	"localfelo_backend/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler serves listing lookups.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new listing handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes sets up the routes for listing operations. optionalAuthMW identifies the
// viewer when a token is present.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, optionalAuthMW gin.HandlerFunc) {
	router.GET("/listings/:id", optionalAuthMW, h.getListingByID)
}

func (h *Handler) getListingByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid listing ID format."))
		return
	}
	var viewer *uuid.UUID
	if uid := common.GetUserIDFromContext(c); uid != uuid.Nil {
		viewer = &uid
	}
	l, err := h.service.GetListingByID(c.Request.Context(), id, viewer)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	resp := ToListingResponse(l)
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lon, errLon := strconv.ParseFloat(c.Query("lon"), 64)
	if errLat == nil && errLon == nil && l.Latitude != nil && l.Longitude != nil {
		km := area.DistanceKM(lat, lon, *l.Latitude, *l.Longitude)
		resp.DistanceKM = &km
	}
	common.RespondOK(c, "Listing retrieved successfully.", resp)
}
