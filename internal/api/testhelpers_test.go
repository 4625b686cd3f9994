package api

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/footfall/internal/config"
	"github.com/sells-group/footfall/internal/model"
	"github.com/sells-group/footfall/internal/store"
)

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		Port:        0,
		CORSOrigins: []string{"*"},
		IngestRPS:   1000,
		IngestBurst: 1000,
	}
}

// newTestRouter builds the full router over a fresh SQLite store.
func newTestRouter(t *testing.T) (http.Handler, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	return NewRouter(st, testServerConfig()), st
}

func ptr(s string) *string { return &s }

func seedVenues(t *testing.T, st store.Store) {
	t.Helper()
	ft := func(n int64) *int64 { return &n }
	venues := []model.Venue{
		{Name: ptr("alpha Mart"), ChainName: ptr("Walmart"), SubCategory: ptr("Discount Store"),
			DMA: ptr("New York NY"), City: ptr("Albany"), StateName: ptr("New York"), FootTraffic: ft(100)},
		{Name: ptr("Beta Store"), ChainName: ptr("Walmart Supercenter"), SubCategory: ptr("Supercenter"),
			DMA: ptr("Chicago IL"), City: ptr("Chicago"), StateName: ptr("Illinois"), FootTraffic: ft(250)},
		{Name: ptr("gamma Outlet"), ChainName: ptr("Target"), SubCategory: ptr("Department Store"),
			DMA: ptr("Chicago IL"), City: ptr("Chicago"), StateName: ptr("Illinois"), FootTraffic: ft(80),
			DateClosed: ptr("2024-06-30")},
	}
	_, err := st.InsertVenues(context.Background(), venues)
	require.NoError(t, err)
}
