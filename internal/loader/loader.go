// Package loader reads venue catalog files (CSV or XLSX) and normalizes them
// into model.Venue rows for bulk insertion.
package loader

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"github.com/twpayne/go-geom/encoding/wkt"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/sells-group/footfall/internal/model"
)

// Options configures file reading.
type Options struct {
	// Encoding names a charset (per WHATWG labels, e.g. "windows-1252") to
	// decode CSV input with. Empty means UTF-8.
	Encoding string
}

// RowError records a source row that could not be normalized.
type RowError struct {
	Line int
	Err  error
}

// ReadVenues reads a venue file and returns normalized rows plus per-row
// errors for rows that were skipped. The file kind is chosen by extension:
// .xlsx workbooks, anything else is parsed as CSV.
func ReadVenues(path string, opts Options) ([]model.Venue, []RowError, error) {
	var header []string
	var records [][]string
	var err error

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		header, records, err = readXLSX(path)
	} else {
		header, records, err = readCSV(path, opts)
	}
	if err != nil {
		return nil, nil, err
	}
	if len(header) == 0 {
		return nil, nil, eris.Errorf("loader: %s has no header row", path)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var venues []model.Venue
	var errs []RowError
	for i, rec := range records {
		v, err := normalizeRow(index, rec)
		if err != nil {
			errs = append(errs, RowError{Line: i + 2, Err: err}) // +2: header is line 1
			continue
		}
		venues = append(venues, v)
	}
	return venues, errs, nil
}

func readCSV(path string, opts Options) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, eris.Wrap(err, "loader: open csv")
	}
	defer f.Close()

	var r io.Reader = f
	if opts.Encoding != "" {
		enc, err := htmlindex.Get(opts.Encoding)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "loader: unknown encoding %q", opts.Encoding)
		}
		r = enc.NewDecoder().Reader(f)
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // allow variable fields
	reader.LazyQuotes = true

	all, err := reader.ReadAll()
	if err != nil {
		return nil, nil, eris.Wrap(err, "loader: read csv")
	}
	if len(all) == 0 {
		return nil, nil, nil
	}
	return all[0], all[1:], nil
}

func readXLSX(path string) ([]string, [][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, nil, eris.Wrap(err, "loader: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, nil, eris.Errorf("loader: %s has no sheets", path)
	}

	var rows [][]string
	for _, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for i, c := range row.Cells {
			cells[i] = c.Value
		}
		rows = append(rows, cells)
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}
	return rows[0], rows[1:], nil
}

// normalizeRow maps one record through the fixed column set. Empty cells
// become NULLs; numeric fields fall back to nil when unparsable.
func normalizeRow(index map[string]int, rec []string) (model.Venue, error) {
	if len(rec) > len(index)+1 {
		return model.Venue{}, eris.Errorf("row has %d cells, header has %d columns", len(rec), len(index))
	}

	cell := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	text := func(name string) *string {
		if s := cell(name); s != "" {
			return &s
		}
		return nil
	}

	v := model.Venue{
		EntityID:        text("entity_id"),
		EntityType:      text("entity_type"),
		Name:            text("name"),
		FootTraffic:     parseInt(cell("foot_traffic")),
		Sales:           parseFloat(cell("sales")),
		AvgDwellTimeMin: parseFloat(cell("avg_dwell_time_min")),
		AreaSqft:        parseFloat(cell("area_sqft")),
		FtPerSqft:       parseFloat(cell("ft_per_sqft")),
		Geolocation:     normalizeGeolocation(cell("geolocation")),
		Country:         text("country"),
		StateCode:       text("state_code"),
		StateName:       text("state_name"),
		City:            text("city"),
		PostalCode:      text("postal_code"),
		FormattedCity:   text("formatted_city"),
		StreetAddress:   text("street_address"),
		SubCategory:     text("sub_category"),
		DMA:             text("dma"),
		CBSA:            text("cbsa"),
		ChainID:         text("chain_id"),
		ChainName:       text("chain_name"),
		StoreID:         text("store_id"),
		DateOpened:      text("date_opened"),
		DateClosed:      text("date_closed"),
	}
	return v, nil
}

// parseInt parses an integer cell, truncating float-formatted values
// ("12345.0") the way the upstream exports sometimes encode counts.
func parseInt(s string) *int64 {
	if s == "" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		n := int64(f)
		return &n
	}
	return nil
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return &f
	}
	return nil
}

// normalizeGeolocation re-encodes a geolocation cell as canonical WKT when it
// parses as WKT, and passes the raw value through otherwise.
func normalizeGeolocation(s string) *string {
	if s == "" {
		return nil
	}
	g, err := wkt.Unmarshal(s)
	if err != nil {
		return &s
	}
	canonical, err := wkt.Marshal(g)
	if err != nil {
		return &s
	}
	return &canonical
}
