// File: internal/area/service.go
package area

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"localfelo_backend/internal/common"
	"localfelo_backend/internal/config"
	"localfelo_backend/internal/platform/elasticsearch"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

const defaultSearchLimit = 20

var ErrNoNearbyArea = common.NewAPIError(http.StatusNotFound, "NO_NEARBY_AREA", "No serviceable area near this position.")

// Service defines area lookup and administration.
type Service interface {
	GetCities(ctx context.Context) ([]City, error)
	GetAreas(ctx context.Context, cityID string) ([]Area, error)
	GetArea(ctx context.Context, id string) (*Area, error)
	GetSubAreas(ctx context.Context, areaID string) ([]SubArea, error)
	GetSubArea(ctx context.Context, id string) (*SubArea, error)
	// Coordinates returns area-level coordinates, consulting the in-memory table before the database.
	// ok is false when the area is unknown.
	Coordinates(ctx context.Context, areaID string) (coords Coordinates, ok bool, err error)
	Nearest(ctx context.Context, lat, lon float64) (*Area, float64, error)
	Search(ctx context.Context, query, cityID string, limit int) ([]Area, error)
	AdminCreateArea(ctx context.Context, req AdminCreateAreaRequest) (*Area, error)
	SyncSearchIndex(ctx context.Context) (int, error)
}

type service struct {
	repo   Repository
	es     *elasticsearch.ESClientWrapper
	logger *zap.Logger
	maxKM  float64

	table *lru.Cache[string, Coordinates]

	mu       sync.RWMutex
	allAreas []Area
}

// NewService creates a new area service. es may be nil.
func NewService(repo Repository, es *elasticsearch.ESClientWrapper, logger *zap.Logger, cfg *config.Config) (Service, error) {
	table, err := lru.New[string, Coordinates](cfg.AreaCacheSize)
	if err != nil {
		return nil, fmt.Errorf("area coordinate table: %w", err)
	}
	return &service{
		repo:   repo,
		es:     es,
		logger: logger.Named("area"),
		maxKM:  cfg.NearestAreaMaxKM,
		table:  table,
	}, nil
}

func (s *service) GetCities(ctx context.Context) ([]City, error) {
	return s.repo.ListCities(ctx)
}

func (s *service) GetAreas(ctx context.Context, cityID string) ([]Area, error) {
	if _, err := s.repo.FindCityByID(ctx, cityID); err != nil {
		return nil, err
	}
	areas, err := s.repo.ListAreasByCity(ctx, cityID)
	if err != nil {
		return nil, err
	}
	for i := range areas {
		s.table.Add(areas[i].ID, Coordinates{Latitude: areas[i].Latitude, Longitude: areas[i].Longitude})
	}
	return areas, nil
}

func (s *service) GetArea(ctx context.Context, id string) (*Area, error) {
	return s.repo.FindAreaByID(ctx, id)
}

func (s *service) GetSubAreas(ctx context.Context, areaID string) ([]SubArea, error) {
	if _, err := s.repo.FindAreaByID(ctx, areaID); err != nil {
		return nil, err
	}
	return s.repo.ListSubAreasByArea(ctx, areaID)
}

func (s *service) GetSubArea(ctx context.Context, id string) (*SubArea, error) {
	return s.repo.FindSubAreaByID(ctx, id)
}

func (s *service) Coordinates(ctx context.Context, areaID string) (Coordinates, bool, error) {
	if areaID == "" {
		return Coordinates{}, false, nil
	}
	if c, ok := s.table.Get(areaID); ok {
		return c, true, nil
	}
	a, err := s.repo.FindAreaByID(ctx, areaID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return Coordinates{}, false, nil
		}
		return Coordinates{}, false, fmt.Errorf("area coordinates %s: %w", areaID, err)
	}
	c := Coordinates{Latitude: a.Latitude, Longitude: a.Longitude}
	s.table.Add(areaID, c)
	return c, true, nil
}

func (s *service) Nearest(ctx context.Context, lat, lon float64) (*Area, float64, error) {
	areas, err := s.areas(ctx)
	if err != nil {
		return nil, 0, err
	}
	i, km := nearest(areas, lat, lon)
	if i < 0 || (s.maxKM > 0 && km > s.maxKM) {
		return nil, 0, ErrNoNearbyArea
	}
	a := areas[i]
	return &a, km, nil
}

func (s *service) Search(ctx context.Context, query, cityID string, limit int) ([]Area, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, common.ErrBadRequest.WithDetails("Search query is required.")
	}
	if limit <= 0 || limit > common.MaxPageSize {
		limit = defaultSearchLimit
	}
	if s.es != nil {
		docs, err := elasticsearch.SearchAreas(ctx, s.es, query, cityID, limit)
		if err == nil {
			return s.hydrate(docs), nil
		}
		s.logger.Warn("Elasticsearch area search failed, using database", zap.Error(err))
	}
	return s.repo.SearchAreas(ctx, query, cityID, limit)
}

// hydrate turns search hits into areas without another database round trip.
func (s *service) hydrate(docs []elasticsearch.AreaDocument) []Area {
	out := make([]Area, 0, len(docs))
	for _, d := range docs {
		out = append(out, Area{
			ID:        d.ID,
			CityID:    d.CityID,
			City:      &City{ID: d.CityID, Name: d.City},
			Name:      d.Name,
			Slug:      d.Slug,
			Latitude:  d.Location.Lat,
			Longitude: d.Location.Lon,
		})
		s.table.Add(d.ID, Coordinates{Latitude: d.Location.Lat, Longitude: d.Location.Lon})
	}
	return out
}

func (s *service) AdminCreateArea(ctx context.Context, req AdminCreateAreaRequest) (*Area, error) {
	city, err := s.repo.FindCityByID(ctx, req.CityID)
	if err != nil {
		return nil, common.ErrBadRequest.WithDetails(fmt.Sprintf("City %s not found.", req.CityID))
	}
	a := &Area{
		CityID:    city.ID,
		Name:      strings.TrimSpace(req.Name),
		Slug:      req.Slug,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Pincode:   strings.TrimSpace(req.Pincode),
	}
	if err := s.repo.CreateArea(ctx, a); err != nil {
		s.logger.Error("Failed to create area", zap.Error(err), zap.String("name", req.Name))
		return nil, err
	}
	a.City = city
	s.table.Add(a.ID, Coordinates{Latitude: a.Latitude, Longitude: a.Longitude})
	s.invalidate()

	if s.es != nil {
		if err := elasticsearch.IndexArea(ctx, s.es, toDocument(a)); err != nil {
			s.logger.Error("Failed to index area", zap.Error(err), zap.String("id", a.ID))
		}
	}
	s.logger.Info("Area created", zap.String("id", a.ID), zap.String("slug", a.Slug))
	return a, nil
}

func (s *service) SyncSearchIndex(ctx context.Context) (int, error) {
	if s.es == nil {
		return 0, errors.New("elasticsearch is not configured")
	}
	if err := elasticsearch.CreateAreasIndexIfNotExists(ctx, s.es, s.logger); err != nil {
		return 0, err
	}
	areas, err := s.repo.ListAllAreas(ctx)
	if err != nil {
		return 0, fmt.Errorf("list areas: %w", err)
	}
	indexed := 0
	for i := range areas {
		if err := elasticsearch.IndexArea(ctx, s.es, toDocument(&areas[i])); err != nil {
			s.logger.Error("Failed to index area", zap.Error(err), zap.String("id", areas[i].ID))
			continue
		}
		indexed++
	}
	return indexed, nil
}

func (s *service) areas(ctx context.Context) ([]Area, error) {
	s.mu.RLock()
	cached := s.allAreas
	s.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}
	areas, err := s.repo.ListAllAreas(ctx)
	if err != nil {
		return nil, fmt.Errorf("list areas: %w", err)
	}
	s.mu.Lock()
	s.allAreas = areas
	s.mu.Unlock()
	for i := range areas {
		s.table.Add(areas[i].ID, Coordinates{Latitude: areas[i].Latitude, Longitude: areas[i].Longitude})
	}
	return areas, nil
}

func (s *service) invalidate() {
	s.mu.Lock()
	s.allAreas = nil
	s.mu.Unlock()
}

func toDocument(a *Area) elasticsearch.AreaDocument {
	doc := elasticsearch.AreaDocument{
		ID:       a.ID,
		CityID:   a.CityID,
		Name:     a.Name,
		Slug:     a.Slug,
		Location: elasticsearch.GeoPoint{Lat: a.Latitude, Lon: a.Longitude},
	}
	if a.City != nil {
		doc.City = a.City.Name
	}
	return doc
}
