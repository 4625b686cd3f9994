// Package store provides durable storage for the venue catalog and the
// visits time series, behind a driver-agnostic interface with SQLite and
// Postgres implementations.
package store

import (
	"context"
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/footfall/internal/model"
)

// Pagination bounds for venue listing.
const (
	MinPerPage = 1
	MaxPerPage = 500
)

// Distinct-suggestion row caps.
const (
	distinctLimitFiltered   = 100
	distinctLimitUnfiltered = 500
)

// VenueField is the closed set of columns exposed to distinct-value
// suggestions. Client field names map into this enum and nowhere else, so no
// user input ever reaches query text.
type VenueField string

const (
	FieldChain    VenueField = "chain"
	FieldCategory VenueField = "category"
	FieldDMA      VenueField = "dma"
)

// ParseVenueField maps a client-supplied field name to the allow-list.
func ParseVenueField(s string) (VenueField, error) {
	switch VenueField(s) {
	case FieldChain, FieldCategory, FieldDMA:
		return VenueField(s), nil
	default:
		return "", eris.Errorf("unsupported field %q", s)
	}
}

// column returns the venue column a field reads from.
func (f VenueField) column() string {
	switch f {
	case FieldChain:
		return "chain_name"
	case FieldCategory:
		return "sub_category"
	case FieldDMA:
		return "dma"
	}
	return ""
}

// VisitFilter narrows visit reads by POI and inclusive date range.
type VisitFilter struct {
	POI      string
	DateFrom string
	DateTo   string
}

// VenuePage is one page of the venue listing.
type VenuePage struct {
	Page    int              `json:"page"`
	PerPage int              `json:"per_page"`
	Total   int64            `json:"total"`
	Items   []model.VenueRow `json:"items"`
}

// VenueSummary aggregates the venues matched by a filter.
type VenueSummary struct {
	Venues           int64 `json:"venues"`
	TotalFootTraffic int64 `json:"total_foot_traffic"`
}

// VisitSummary aggregates the visits matched by a filter. Averages are
// rounded to 2 decimal places and zero when no rows match.
type VisitSummary struct {
	Rows          int64   `json:"rows"`
	TotalVisitors int64   `json:"total_visitors"`
	AvgVisitors   float64 `json:"avg_visitors"`
	AvgDwell      float64 `json:"avg_dwell"`
}

// Store is the persistence interface for venues and visits.
type Store interface {
	// Venues (read-only through the API; writes come from seeding and the
	// offline loader)
	ListVenues(ctx context.Context, f VenueFilter, page, perPage int) (*VenuePage, error)
	SummarizeVenues(ctx context.Context, f VenueFilter) (*VenueSummary, error)
	DistinctVenueValues(ctx context.Context, field VenueField, q string) ([]string, error)
	ExportVenues(ctx context.Context, f VenueFilter, fn func(model.VenueRow) error) error
	VenueNames(ctx context.Context) ([]string, error)
	InsertVenues(ctx context.Context, venues []model.Venue) (int, error)
	ClearVenues(ctx context.Context) error
	CountVenues(ctx context.Context) (int64, error)

	// Visits
	DistinctPOIs(ctx context.Context) ([]string, error)
	ListVisits(ctx context.Context, f VisitFilter) ([]model.Visit, error)
	SummarizeVisits(ctx context.Context, f VisitFilter) (*VisitSummary, error)
	InsertVisits(ctx context.Context, visits []model.Visit) (int, error)
	CountVisits(ctx context.Context) (int64, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// round2 rounds to 2 decimal places for summary averages.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
