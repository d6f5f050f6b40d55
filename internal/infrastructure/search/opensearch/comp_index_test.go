package opensearch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	opensearchgo "github.com/opensearch-project/opensearch-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harkencre/appraisal-platform/internal/domain/comp"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/monitoring/logging"
	"github.com/harkencre/appraisal-platform/pkg/types/common"
)

func newTestCompIndex(t *testing.T, handler http.HandlerFunc) *CompIndex {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	osClient, err := opensearchgo.NewClient(opensearchgo.Config{
		Addresses: []string{server.URL},
	})
	require.NoError(t, err)

	client := NewClientWithOpenSearch(osClient, "harken", logging.NewNopLogger())
	return NewCompIndex(client, logging.NewNopLogger())
}

func TestCompIndex_IndexNamePrefixed(t *testing.T) {
	var path string
	idx := newTestCompIndex(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `{}`)
	})

	c := &comp.Comp{BusinessName: "Dockside Flats"}
	c.ID = common.NewID()
	require.NoError(t, idx.Index(context.Background(), c))
	assert.True(t, strings.HasPrefix(path, "/harken-comps/"), path)
	assert.True(t, strings.HasSuffix(path, string(c.ID)), path)
}

func TestCompIndex_RemoveMissingIsNoError(t *testing.T) {
	idx := newTestCompIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"result":"not_found"}`)
	})

	assert.NoError(t, idx.Remove(context.Background(), common.NewID()))
}

func TestCompIndex_SearchBuildsFiltersAndDecodesHits(t *testing.T) {
	var captured map[string]interface{}
	sold := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	idx := newTestCompIndex(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "_search") {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		resp := map[string]interface{}{
			"hits": map[string]interface{}{
				"total": map[string]interface{}{"value": 1},
				"hits": []map[string]interface{}{
					{
						"_id": "abc-123",
						"_source": compDoc{
							BusinessName: "Dockside Flats",
							City:         "Tacoma",
							SaleStatus:   "Closed",
							DateSold:     &sold,
							SalePrice:    1850000,
						},
					},
				},
			},
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(resp)
	})

	results, total, err := idx.Search(context.Background(), comp.SearchQuery{
		Text:       "dockside",
		SaleStatus: comp.SaleClosed,
		State:      "WA",
		MinPrice:   1000000,
		Pagination: common.Pagination{Page: 2, PageSize: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, results, 1)
	assert.Equal(t, common.ID("abc-123"), results[0].ID)
	assert.Equal(t, comp.SaleClosed, results[0].SaleStatus)
	assert.Equal(t, 1850000.0, results[0].SalePrice)

	// Pagination was translated to from/size.
	assert.Equal(t, float64(10), captured["from"])
	assert.Equal(t, float64(10), captured["size"])

	boolQuery := captured["query"].(map[string]interface{})["bool"].(map[string]interface{})
	assert.Len(t, boolQuery["filter"], 3)
	assert.Len(t, boolQuery["must"], 1)
}

func TestCompIndex_SearchErrorResponse(t *testing.T) {
	idx := newTestCompIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":"shard failure"}`)
	})

	_, _, err := idx.Search(context.Background(), comp.SearchQuery{Text: "x"})
	assert.Error(t, err)
}
