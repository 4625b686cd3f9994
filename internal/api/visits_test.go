package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/footfall/internal/model"
	"github.com/sells-group/footfall/internal/store"
)

func seedVisits(t *testing.T, st store.Store) {
	t.Helper()
	dwell := func(f float64) *float64 { return &f }
	_, err := st.InsertVisits(context.Background(), []model.Visit{
		{POI: "Mall A", Date: "2025-10-18", Visitors: 120, Dwell: dwell(23.5)},
		{POI: "Mall A", Date: "2025-10-19", Visitors: 160, Dwell: dwell(25.1)},
		{POI: "Mall A", Date: "2025-10-20", Visitors: 140, Dwell: dwell(21.3)},
		{POI: "Kiosk B", Date: "2025-10-18", Visitors: 30},
	})
	require.NoError(t, err)
}

func TestVisitPOIs(t *testing.T) {
	router, st := newTestRouter(t)
	seedVisits(t, st)

	var pois []string
	rr := getJSON(t, router, "/api/visits/pois", &pois)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"Kiosk B", "Mall A"}, pois)
}

func TestListVisits_ByPOIAndRange(t *testing.T) {
	router, st := newTestRouter(t)
	seedVisits(t, st)

	var visits []model.Visit
	rr := getJSON(t, router, "/api/visits?poi=Mall+A&date_from=2025-10-19&date_to=2025-10-20", &visits)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, visits, 2)
	assert.Equal(t, "2025-10-19", visits[0].Date)
	assert.Equal(t, "2025-10-20", visits[1].Date)
}

func TestVisitsSummary_MallA(t *testing.T) {
	router, st := newTestRouter(t)
	seedVisits(t, st)

	var sum store.VisitSummary
	rr := getJSON(t, router, "/api/summary?poi=Mall+A", &sum)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(3), sum.Rows)
	assert.Equal(t, int64(420), sum.TotalVisitors)
	assert.InDelta(t, 140.0, sum.AvgVisitors, 0.001)
	assert.InDelta(t, 23.3, sum.AvgDwell, 0.001)
}

func TestVisitsSummary_Empty(t *testing.T) {
	router, _ := newTestRouter(t)

	var sum store.VisitSummary
	rr := getJSON(t, router, "/api/summary?poi=Nowhere", &sum)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Zero(t, sum.Rows)
	assert.Zero(t, sum.AvgVisitors)
}
