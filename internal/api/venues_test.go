package api

import (
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/footfall/internal/store"
)

func getJSON(t *testing.T, router http.Handler, target string, out any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if out != nil && rr.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), out))
	}
	return rr
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)

	var body map[string]string
	rr := getJSON(t, router, "/api/health", &body)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestListVenues_Defaults(t *testing.T) {
	router, st := newTestRouter(t)
	seedVenues(t, st)

	var page store.VenuePage
	rr := getJSON(t, router, "/api/venues", &page)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 50, page.PerPage)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Items, 3)
}

func TestListVenues_FiltersAndBracketParams(t *testing.T) {
	router, st := newTestRouter(t)
	seedVenues(t, st)

	var page store.VenuePage
	rr := getJSON(t, router, "/api/venues?chain[]=walmart&chain[]=target&open_status=open", &page)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(2), page.Total) // gamma Outlet is closed
}

func TestListVenues_BadPagination(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, target := range []string{
		"/api/venues?page=0",
		"/api/venues?page=abc",
		"/api/venues?per_page=0",
		"/api/venues?per_page=501",
		"/api/venues?per_page=-1",
	} {
		rr := getJSON(t, router, target, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)
	}
}

func TestVenuesSummary(t *testing.T) {
	router, st := newTestRouter(t)
	seedVenues(t, st)

	var sum store.VenueSummary
	rr := getJSON(t, router, "/api/venues/summary?dma=chicago", &sum)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(2), sum.Venues)
	assert.Equal(t, int64(330), sum.TotalFootTraffic)
}

func TestDistinct_AllowList(t *testing.T) {
	router, st := newTestRouter(t)
	seedVenues(t, st)

	var values []string
	rr := getJSON(t, router, "/api/distinct/chain?q=walmart", &values)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.ElementsMatch(t, []string{"Walmart", "Walmart Supercenter"}, values)

	rr = getJSON(t, router, "/api/distinct/city", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestVenueNames(t *testing.T) {
	router, st := newTestRouter(t)
	seedVenues(t, st)

	var names []string
	rr := getJSON(t, router, "/api/pois", &names)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"Beta Store", "alpha Mart", "gamma Outlet"}, names)
}

func TestExportVenues_CSV(t *testing.T) {
	router, st := newTestRouter(t)
	seedVenues(t, st)

	req := httptest.NewRequest(http.MethodGet, "/api/venues/export?state=Illinois", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "attachment")

	records, err := csv.NewReader(strings.NewReader(rr.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3) // header + 2 Illinois venues
	assert.Equal(t, exportHeader, records[0])
	assert.Equal(t, "Beta Store", records[1][2])
	assert.Equal(t, "gamma Outlet", records[2][2])
	assert.Equal(t, "250", records[1][8])
}

func TestExportMatchesListOrdering(t *testing.T) {
	router, st := newTestRouter(t)
	seedVenues(t, st)

	var page store.VenuePage
	rr := getJSON(t, router, "/api/venues?per_page=500", &page)
	require.Equal(t, http.StatusOK, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/venues/export", nil)
	exportRR := httptest.NewRecorder()
	router.ServeHTTP(exportRR, req)
	records, err := csv.NewReader(strings.NewReader(exportRR.Body.String())).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, len(page.Items)+1)
	for i, item := range page.Items {
		assert.Equal(t, *item.Name, records[i+1][2])
	}
}
