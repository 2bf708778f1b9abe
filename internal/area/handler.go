// File: internal/area/handler.go
package area

import (
	"strconv"

	"localfelo_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves the location hierarchy used by the dropdown and search pickers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new area handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes sets up the routes for area operations.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc, adminRoleMW gin.HandlerFunc) {
	router.GET("/cities", h.listCities)
	router.GET("/cities/:id/areas", h.listAreas)

	areas := router.Group("/areas")
	{
		areas.GET("/search", h.search)
		areas.GET("/nearest", h.nearest)
		areas.GET("/:id/sub-areas", h.listSubAreas)
	}

	admin := router.Group("/admin/areas")
	admin.Use(authMW, adminRoleMW)
	{
		admin.POST("", h.adminCreateArea)
	}
}

func (h *Handler) listCities(c *gin.Context) {
	cities, err := h.service.GetCities(c.Request.Context())
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Cities retrieved successfully.", cities)
}

func (h *Handler) listAreas(c *gin.Context) {
	areas, err := h.service.GetAreas(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Areas retrieved successfully.", toResponses(areas))
}

func (h *Handler) listSubAreas(c *gin.Context) {
	subs, err := h.service.GetSubAreas(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Sub-areas retrieved successfully.", subs)
}

func (h *Handler) search(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	areas, err := h.service.Search(c.Request.Context(), c.Query("q"), c.Query("city_id"), limit)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Areas retrieved successfully.", toResponses(areas))
}

func (h *Handler) nearest(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lon, errLon := strconv.ParseFloat(c.Query("lon"), 64)
	if errLat != nil || errLon != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("lat and lon must be valid coordinates."))
		return
	}
	a, km, err := h.service.Nearest(c.Request.Context(), lat, lon)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Nearest area resolved.", NearestAreaResponse{Area: ToAreaResponse(a), DistanceKM: km})
}

func (h *Handler) adminCreateArea(c *gin.Context) {
	var req AdminCreateAreaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Admin create area: Invalid request body", zap.Error(err))
		common.RespondBindError(c, err)
		return
	}
	a, err := h.service.AdminCreateArea(c.Request.Context(), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Area created successfully.", ToAreaResponse(a))
}

func toResponses(areas []Area) []AreaResponse {
	out := make([]AreaResponse, len(areas))
	for i := range areas {
		out[i] = ToAreaResponse(&areas[i])
	}
	return out
}
