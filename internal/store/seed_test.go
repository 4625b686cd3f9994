package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedCSVHeader = "entity_id,entity_type,name,foot_traffic,sales,avg_dwell_time_min,area_sqft,ft_per_sqft," +
	"geolocation,country,state_code,state_name,city,postal_code,formatted_city,street_address," +
	"sub_category,dma,cbsa,chain_id,chain_name,store_id,date_opened,date_closed\n"

func writeSeedCSV(t *testing.T) string {
	t.Helper()
	content := seedCSVHeader +
		"e1,store,North Mall,1200,54000.5,22.4,85000,0.014,POINT (-73.9 40.7),US,NY,New York,Albany,12201,Albany,1 Main St,Discount Store,New York NY,10580,c1,Walmart,s1,2001-03-15,\n" +
		"e2,store,South Plaza,900,31000,18.1,42000,0.021,POINT (-87.6 41.8),US,IL,Illinois,Chicago,60601,Chicago,2 State St,Department Store,Chicago IL,16980,c2,Target,s2,2010-07-01,2024-02-29\n"
	path := filepath.Join(t.TempDir(), "venues.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSeedVenues_LoadsFirstExistingCandidate(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	csvPath := writeSeedCSV(t)

	missing := filepath.Join(t.TempDir(), "nope.csv")
	require.NoError(t, SeedVenues(ctx, st, []string{missing, csvPath}))

	n, err := st.CountVenues(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestSeedVenues_SkipsWhenNotEmpty(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	seedTestVenues(t, st)

	require.NoError(t, SeedVenues(ctx, st, []string{writeSeedCSV(t)}))

	n, err := st.CountVenues(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), n) // untouched
}

func TestSeedVenues_NoCandidateFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := SeedVenues(context.Background(), st, []string{"no-such-file.csv"})
	require.Error(t, err)
}

func TestSeedVisits_Idempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, SeedVisits(ctx, st))
	require.NoError(t, SeedVisits(ctx, st))

	n, err := st.CountVisits(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
}

func TestInit_SwallowsVenueSeedFailure(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	// No seed CSV anywhere: startup must still succeed with empty venues.
	require.NoError(t, Init(ctx, st, []string{"missing.csv"}))

	venues, err := st.CountVenues(ctx)
	require.NoError(t, err)
	assert.Zero(t, venues)

	visits, err := st.CountVisits(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(10), visits)
}
