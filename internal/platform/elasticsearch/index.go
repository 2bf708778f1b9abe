package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

const AreasIndexName = "areas"

// AreaDocument is the searchable projection of an area.
type AreaDocument struct {
	ID       string   `json:"id"`
	CityID   string   `json:"city_id"`
	City     string   `json:"city"`
	Name     string   `json:"name"`
	Slug     string   `json:"slug"`
	Location GeoPoint `json:"location"`
}

// GeoPoint matches the geo_point object form.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func defineAreasMapping() (string, error) {
	keywordSub := map[string]interface{}{"keyword": map[string]interface{}{"type": "keyword", "ignore_above": 256}}
	mapping := map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"id":       map[string]interface{}{"type": "keyword"},
				"city_id":  map[string]interface{}{"type": "keyword"},
				"city":     map[string]interface{}{"type": "text", "fields": keywordSub},
				"name":     map[string]interface{}{"type": "search_as_you_type"},
				"slug":     map[string]interface{}{"type": "keyword"},
				"location": map[string]interface{}{"type": "geo_point"},
			},
		},
	}
	b, err := json.Marshal(mapping)
	if err != nil {
		return "", fmt.Errorf("error marshalling areas mapping to JSON: %w", err)
	}
	return string(b), nil
}

// CreateAreasIndexIfNotExists creates the areas index with its mapping if it does not already exist.
func CreateAreasIndexIfNotExists(ctx context.Context, client *ESClientWrapper, logger *zap.Logger) error {
	log := logger.Named("elasticsearch_index_setup")

	res, err := esapi.IndicesExistsRequest{Index: []string{AreasIndexName}}.Do(ctx, client.Client)
	if err != nil {
		return fmt.Errorf("error checking if areas index exists: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		log.Debug("Areas index already exists", zap.String("index_name", AreasIndexName))
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("error checking if areas index exists: status %s", res.Status())
	}

	mappingJSON, err := defineAreasMapping()
	if err != nil {
		return err
	}

	createRes, err := esapi.IndicesCreateRequest{
		Index: AreasIndexName,
		Body:  strings.NewReader(mappingJSON),
	}.Do(ctx, client.Client)
	if err != nil {
		return fmt.Errorf("error creating areas index %s: %w", AreasIndexName, err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		log.Error("Failed to create areas index",
			zap.String("status", createRes.Status()),
			zap.String("body", responseBodyToString(createRes)),
		)
		return fmt.Errorf("failed to create areas index %s: status %s", AreasIndexName, createRes.Status())
	}

	log.Info("Areas index created", zap.String("index_name", AreasIndexName))
	return nil
}

// IndexArea upserts one area document.
func IndexArea(ctx context.Context, client *ESClientWrapper, doc AreaDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal area document: %w", err)
	}
	res, err := esapi.IndexRequest{
		Index:      AreasIndexName,
		DocumentID: doc.ID,
		Body:       bytes.NewReader(body),
		Refresh:    "false",
	}.Do(ctx, client.Client)
	if err != nil {
		return fmt.Errorf("index area %s: %w", doc.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index area %s: status %s: %s", doc.ID, res.Status(), responseBodyToString(res))
	}
	return nil
}

// SearchAreas runs a prefix-friendly match on area names, optionally restricted to one city.
func SearchAreas(ctx context.Context, client *ESClientWrapper, query, cityID string, limit int) ([]AreaDocument, error) {
	boolQuery := map[string]interface{}{
		"must": []interface{}{
			map[string]interface{}{
				"multi_match": map[string]interface{}{
					"query":  query,
					"type":   "bool_prefix",
					"fields": []string{"name", "name._2gram", "name._3gram", "city"},
				},
			},
		},
	}
	if cityID != "" {
		boolQuery["filter"] = []interface{}{
			map[string]interface{}{"term": map[string]interface{}{"city_id": cityID}},
		}
	}
	reqBody, err := json.Marshal(map[string]interface{}{
		"size":  limit,
		"query": map[string]interface{}{"bool": boolQuery},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal area search: %w", err)
	}

	res, err := client.Search(
		client.Search.WithContext(ctx),
		client.Search.WithIndex(AreasIndexName),
		client.Search.WithBody(bytes.NewReader(reqBody)),
	)
	if err != nil {
		return nil, fmt.Errorf("area search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("area search: status %s: %s", res.Status(), responseBodyToString(res))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source AreaDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := decodeJSON(res.Body, &parsed); err != nil {
		return nil, err
	}
	docs := make([]AreaDocument, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		docs = append(docs, h.Source)
	}
	return docs, nil
}

func responseBodyToString(res *esapi.Response) string {
	if res == nil || res.Body == nil {
		return ""
	}
	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(res.Body); err != nil {
		return fmt.Sprintf("failed to read response body: %v", err)
	}
	return buf.String()
}
