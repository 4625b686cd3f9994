// Package model defines the venue and visit records shared by the store,
// loader, and API layers.
package model

// Venue is one physical store location with its traffic and sales metrics.
// All pointer fields are nullable in storage; empty CSV cells load as NULL.
type Venue struct {
	ID              int64    `json:"id"`
	EntityID        *string  `json:"entity_id"`
	EntityType      *string  `json:"entity_type"`
	Name            *string  `json:"name"`
	FootTraffic     *int64   `json:"foot_traffic"`
	Sales           *float64 `json:"sales"`
	AvgDwellTimeMin *float64 `json:"avg_dwell_time_min"`
	AreaSqft        *float64 `json:"area_sqft"`
	FtPerSqft       *float64 `json:"ft_per_sqft"`
	Geolocation     *string  `json:"geolocation"`
	Country         *string  `json:"country"`
	StateCode       *string  `json:"state_code"`
	StateName       *string  `json:"state_name"`
	City            *string  `json:"city"`
	PostalCode      *string  `json:"postal_code"`
	FormattedCity   *string  `json:"formatted_city"`
	StreetAddress   *string  `json:"street_address"`
	SubCategory     *string  `json:"sub_category"`
	DMA             *string  `json:"dma"`
	CBSA            *string  `json:"cbsa"`
	ChainID         *string  `json:"chain_id"`
	ChainName       *string  `json:"chain_name"`
	StoreID         *string  `json:"store_id"`
	DateOpened      *string  `json:"date_opened"`
	DateClosed      *string  `json:"date_closed"`
}

// VenueRow is the projection returned by the list and export operations.
// FootTraffic is null-coalesced to 0.
type VenueRow struct {
	ID          int64   `json:"id"`
	EntityID    *string `json:"entity_id"`
	Name        *string `json:"name"`
	ChainName   *string `json:"chain_name"`
	Category    *string `json:"category"`
	DMA         *string `json:"dma"`
	City        *string `json:"city"`
	State       *string `json:"state"`
	FootTraffic int64   `json:"foot_traffic"`
	DateOpened  *string `json:"date_opened"`
	DateClosed  *string `json:"date_closed"`
}

// VenueColumns lists the insertable venue columns in storage order, matching
// the header of the bulk-load CSV.
var VenueColumns = []string{
	"entity_id", "entity_type", "name", "foot_traffic", "sales",
	"avg_dwell_time_min", "area_sqft", "ft_per_sqft", "geolocation", "country",
	"state_code", "state_name", "city", "postal_code", "formatted_city",
	"street_address", "sub_category", "dma", "cbsa", "chain_id", "chain_name",
	"store_id", "date_opened", "date_closed",
}
