package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/harkencre/appraisal-platform/internal/domain/comp"
	"github.com/harkencre/appraisal-platform/internal/domain/valuation"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/monitoring/logging"
	"github.com/harkencre/appraisal-platform/pkg/errors"
	"github.com/harkencre/appraisal-platform/pkg/types/common"
)

const compIndexBase = "comps"

// compIndexMapping is applied when the index is first created. Text fields
// feed the multi_match query; keyword and numeric fields back the filters.
const compIndexMapping = `{
	"settings": {
		"number_of_shards": 1,
		"number_of_replicas": 1
	},
	"mappings": {
		"properties": {
			"business_name":     {"type": "text"},
			"street_address":    {"type": "text"},
			"city":              {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
			"state":             {"type": "keyword"},
			"zipcode":           {"type": "keyword"},
			"notes":             {"type": "text"},
			"sale_status":       {"type": "keyword"},
			"date_sold":         {"type": "date"},
			"sale_price":        {"type": "double"},
			"building_size":     {"type": "double"},
			"land_size":         {"type": "double"},
			"land_dimension":    {"type": "keyword"},
			"price_square_foot": {"type": "double"},
			"total_beds":        {"type": "double"},
			"total_units":       {"type": "double"},
			"comparison_basis":  {"type": "keyword"},
			"cover_photo_key":   {"type": "keyword"},
			"created_at":        {"type": "date"},
			"updated_at":        {"type": "date"}
		}
	}
}`

// compDoc is the indexed document shape.
type compDoc struct {
	BusinessName    string     `json:"business_name,omitempty"`
	StreetAddress   string     `json:"street_address,omitempty"`
	City            string     `json:"city,omitempty"`
	State           string     `json:"state,omitempty"`
	ZipCode         string     `json:"zipcode,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	SaleStatus      string     `json:"sale_status,omitempty"`
	DateSold        *time.Time `json:"date_sold,omitempty"`
	SalePrice       float64    `json:"sale_price"`
	BuildingSize    float64    `json:"building_size"`
	LandSize        float64    `json:"land_size"`
	LandDimension   string     `json:"land_dimension,omitempty"`
	PriceSquareFoot float64    `json:"price_square_foot"`
	TotalBeds       float64    `json:"total_beds"`
	TotalUnits      float64    `json:"total_units"`
	ComparisonBasis string     `json:"comparison_basis,omitempty"`
	CoverPhotoKey   string     `json:"cover_photo_key,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// CompIndex implements comp.SearchIndex on OpenSearch.
type CompIndex struct {
	client *Client
	logger logging.Logger
}

// NewCompIndex builds the comp search adapter.
func NewCompIndex(client *Client, log logging.Logger) *CompIndex {
	return &CompIndex{client: client, logger: log}
}

func (s *CompIndex) indexName() string {
	return s.client.IndexName(compIndexBase)
}

// EnsureIndex creates the comp index when absent. Called by the worker on
// startup.
func (s *CompIndex) EnsureIndex(ctx context.Context) error {
	existsReq := opensearchapi.IndicesExistsRequest{Index: []string{s.indexName()}}
	resp, err := existsReq.Do(ctx, s.client.Raw())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to check comp index")
	}
	resp.Body.Close()
	if resp.StatusCode == 200 {
		return nil
	}

	createReq := opensearchapi.IndicesCreateRequest{
		Index: s.indexName(),
		Body:  strings.NewReader(compIndexMapping),
	}
	resp, err = createReq.Do(ctx, s.client.Raw())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to create comp index")
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return errorFromResponse(resp, "create comp index failed")
	}

	s.logger.Info("created comp search index", logging.String("index", s.indexName()))
	return nil
}

// Index upserts the comp document.
func (s *CompIndex) Index(ctx context.Context, c *comp.Comp) error {
	doc := compDoc{
		BusinessName:    c.BusinessName,
		StreetAddress:   c.StreetAddress,
		City:            c.City,
		State:           c.State,
		ZipCode:         c.ZipCode,
		Notes:           c.Notes,
		SaleStatus:      string(c.SaleStatus),
		DateSold:        c.DateSold,
		SalePrice:       c.SalePrice,
		BuildingSize:    c.BuildingSize,
		LandSize:        c.LandSize,
		LandDimension:   string(c.LandDimension),
		PriceSquareFoot: c.PriceSquareFoot,
		TotalBeds:       c.TotalBeds,
		TotalUnits:      c.TotalUnits,
		ComparisonBasis: string(c.ComparisonBasis),
		CoverPhotoKey:   c.CoverPhotoKey,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode comp document")
	}

	req := opensearchapi.IndexRequest{
		Index:      s.indexName(),
		DocumentID: string(c.ID),
		Body:       bytes.NewReader(body),
	}
	resp, err := req.Do(ctx, s.client.Raw())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to index comp")
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return errorFromResponse(resp, "index comp failed")
	}
	return nil
}

// Remove deletes the comp document. A missing document is not an error: the
// worker may replay deletes.
func (s *CompIndex) Remove(ctx context.Context, id common.ID) error {
	req := opensearchapi.DeleteRequest{
		Index:      s.indexName(),
		DocumentID: string(id),
	}
	resp, err := req.Do(ctx, s.client.Raw())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to remove comp from index")
	}
	defer resp.Body.Close()
	if resp.StatusCode == 404 {
		return nil
	}
	if resp.IsError() {
		return errorFromResponse(resp, "remove comp failed")
	}
	return nil
}

// Search runs the comp query: full text over names, addresses, and notes,
// narrowed by the structured filters.
func (s *CompIndex) Search(ctx context.Context, q comp.SearchQuery) ([]*comp.Comp, int64, error) {
	page := q.Pagination
	if page.Page < 1 {
		page.Page = 1
	}
	if page.PageSize < 1 {
		page.PageSize = 20
	}

	body, err := json.Marshal(buildCompQuery(q, page))
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode search query")
	}

	req := opensearchapi.SearchRequest{
		Index: []string{s.indexName()},
		Body:  bytes.NewReader(body),
	}
	resp, err := req.Do(ctx, s.client.Raw())
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeExternalService, "comp search failed")
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return nil, 0, errorFromResponse(resp, "comp search failed")
	}

	var result struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID     string  `json:"_id"`
				Source compDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode search response")
	}

	comps := make([]*comp.Comp, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		comps = append(comps, hitToComp(hit.ID, hit.Source))
	}
	return comps, result.Hits.Total.Value, nil
}

func buildCompQuery(q comp.SearchQuery, page common.Pagination) map[string]interface{} {
	var must []interface{}
	if q.Text != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q.Text,
				"fields": []string{"business_name^2", "street_address", "city", "notes"},
			},
		})
	}

	var filter []interface{}
	if q.SaleStatus != "" {
		filter = append(filter, term("sale_status", string(q.SaleStatus)))
	}
	if q.City != "" {
		filter = append(filter, term("city.keyword", q.City))
	}
	if q.State != "" {
		filter = append(filter, term("state", q.State))
	}
	if q.MinPrice > 0 || q.MaxPrice > 0 {
		rng := map[string]interface{}{}
		if q.MinPrice > 0 {
			rng["gte"] = q.MinPrice
		}
		if q.MaxPrice > 0 {
			rng["lte"] = q.MaxPrice
		}
		filter = append(filter, map[string]interface{}{
			"range": map[string]interface{}{"sale_price": rng},
		})
	}

	boolQuery := map[string]interface{}{}
	if len(must) > 0 {
		boolQuery["must"] = must
	} else {
		boolQuery["must"] = []interface{}{map[string]interface{}{"match_all": map[string]interface{}{}}}
	}
	if len(filter) > 0 {
		boolQuery["filter"] = filter
	}

	return map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
		"from":  page.Offset(),
		"size":  page.PageSize,
		"sort": []interface{}{
			map[string]interface{}{"_score": "desc"},
			map[string]interface{}{"updated_at": "desc"},
		},
	}
}

func term(field string, value interface{}) map[string]interface{} {
	return map[string]interface{}{
		"term": map[string]interface{}{field: value},
	}
}

func hitToComp(id string, doc compDoc) *comp.Comp {
	c := &comp.Comp{
		BusinessName:    doc.BusinessName,
		StreetAddress:   doc.StreetAddress,
		City:            doc.City,
		State:           doc.State,
		ZipCode:         doc.ZipCode,
		Notes:           doc.Notes,
		SaleStatus:      comp.SaleStatus(doc.SaleStatus),
		DateSold:        doc.DateSold,
		SalePrice:       doc.SalePrice,
		BuildingSize:    doc.BuildingSize,
		LandSize:        doc.LandSize,
		LandDimension:   valuation.LandDimension(doc.LandDimension),
		PriceSquareFoot: doc.PriceSquareFoot,
		TotalBeds:       doc.TotalBeds,
		TotalUnits:      doc.TotalUnits,
		ComparisonBasis: valuation.ComparisonBasis(doc.ComparisonBasis),
		CoverPhotoKey:   doc.CoverPhotoKey,
	}
	c.ID = common.ID(id)
	c.CreatedAt = doc.CreatedAt
	c.UpdatedAt = doc.UpdatedAt
	return c
}

func errorFromResponse(resp *opensearchapi.Response, message string) error {
	raw, _ := io.ReadAll(resp.Body)
	return errors.Newf(errors.ErrCodeExternalService, "%s: %s: %s", message, resp.Status(), string(raw))
}
