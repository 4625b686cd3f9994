package store

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/footfall/internal/loader"
	"github.com/sells-group/footfall/internal/model"
)

// Init migrates the schema and seeds both tables when empty. Venue seeding
// failures are logged and swallowed so a missing or malformed CSV never stops
// startup; the table just stays empty.
func Init(ctx context.Context, st Store, seedCSVs []string) error {
	if err := st.Migrate(ctx); err != nil {
		return err
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := SeedVenues(gCtx, st, seedCSVs); err != nil {
			zap.L().Warn("failed to seed venues, leaving table empty", zap.Error(err))
		}
		return nil
	})
	g.Go(func() error {
		return SeedVisits(gCtx, st)
	})
	return g.Wait()
}

// SeedVenues bulk-loads the venue catalog from the first existing CSV
// candidate when the table is empty.
func SeedVenues(ctx context.Context, st Store, candidates []string) error {
	n, err := st.CountVenues(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var path string
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			path = c
			break
		}
	}
	if path == "" {
		return eris.Errorf("no seed CSV found in candidates %v", candidates)
	}

	venues, errs, err := loader.ReadVenues(path, loader.Options{})
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		zap.L().Warn("seed CSV rows skipped", zap.Int("skipped", len(errs)))
	}

	inserted, err := st.InsertVenues(ctx, venues)
	if err != nil {
		return err
	}
	zap.L().Info("seeded venues", zap.String("csv", path), zap.Int("rows", inserted))
	return nil
}

// sampleVisits is the deterministic development dataset: four POIs over three
// days in October 2025.
var sampleVisits = []model.Visit{
	{POI: "Mall A", Date: "2025-10-18", Visitors: 120, CBG: ptr("360610112021"), DMA: ptr("New York NY"), Dwell: fptr(23.5)},
	{POI: "Mall A", Date: "2025-10-19", Visitors: 160, CBG: ptr("360610112021"), DMA: ptr("New York NY"), Dwell: fptr(25.1)},
	{POI: "Mall A", Date: "2025-10-20", Visitors: 140, CBG: ptr("360610112021"), DMA: ptr("New York NY"), Dwell: fptr(21.3)},
	{POI: "Airport B", Date: "2025-10-18", Visitors: 540, CBG: ptr("170318306001"), DMA: ptr("Chicago IL"), Dwell: fptr(48.2)},
	{POI: "Airport B", Date: "2025-10-19", Visitors: 610, CBG: ptr("170318306001"), DMA: ptr("Chicago IL"), Dwell: fptr(51.7)},
	{POI: "Airport B", Date: "2025-10-20", Visitors: 580, CBG: ptr("170318306001"), DMA: ptr("Chicago IL"), Dwell: fptr(49.9)},
	{POI: "Plaza C", Date: "2025-10-18", Visitors: 75, CBG: ptr("060372074001"), DMA: ptr("Los Angeles CA"), Dwell: fptr(12.6)},
	{POI: "Plaza C", Date: "2025-10-20", Visitors: 88, CBG: ptr("060372074001"), DMA: ptr("Los Angeles CA"), Dwell: fptr(14.1)},
	{POI: "Station D", Date: "2025-10-19", Visitors: 230, CBG: ptr("480291101002"), DMA: ptr("San Antonio TX"), Dwell: fptr(8.4)},
	{POI: "Station D", Date: "2025-10-20", Visitors: 210, CBG: ptr("480291101002"), DMA: ptr("San Antonio TX"), Dwell: fptr(9.0)},
}

// SeedVisits inserts the fixed sample rows when the visits table is empty.
func SeedVisits(ctx context.Context, st Store) error {
	n, err := st.CountVisits(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	inserted, err := st.InsertVisits(ctx, sampleVisits)
	if err != nil {
		return err
	}
	zap.L().Info("seeded visits", zap.Int("rows", inserted))
	return nil
}

func ptr(s string) *string    { return &s }
func fptr(f float64) *float64 { return &f }
