package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/footfall/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS venues (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	entity_id TEXT,
	entity_type TEXT,
	name TEXT,
	foot_traffic INTEGER,
	sales REAL,
	avg_dwell_time_min REAL,
	area_sqft REAL,
	ft_per_sqft REAL,
	geolocation TEXT,
	country TEXT,
	state_code TEXT,
	state_name TEXT,
	city TEXT,
	postal_code TEXT,
	formatted_city TEXT,
	street_address TEXT,
	sub_category TEXT,
	dma TEXT,
	cbsa TEXT,
	chain_id TEXT,
	chain_name TEXT,
	store_id TEXT,
	date_opened TEXT,
	date_closed TEXT
);

CREATE TABLE IF NOT EXISTS visits (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	poi TEXT NOT NULL,
	date TEXT NOT NULL,
	visitors INTEGER NOT NULL,
	cbg TEXT,
	dma TEXT,
	dwell REAL
);

CREATE INDEX IF NOT EXISTS idx_venues_name ON venues(name);
CREATE INDEX IF NOT EXISTS idx_visits_poi_date ON visits(poi, date);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// venueRowColumns is the projection shared by list and export.
const venueRowColumns = `id, entity_id, name, chain_name, sub_category, dma, city, state_name, COALESCE(foot_traffic, 0), date_opened, date_closed`

func (s *SQLiteStore) ListVenues(ctx context.Context, f VenueFilter, page, perPage int) (*VenuePage, error) {
	where, args := whereClause(f, sqliteDialect{})

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM venues`+where, args...).Scan(&total); err != nil {
		return nil, eris.Wrap(err, "sqlite: count venues")
	}

	offset := (page - 1) * perPage
	query := `SELECT ` + venueRowColumns + ` FROM venues` + where +
		` ORDER BY name COLLATE NOCASE ASC LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, perPage, offset)...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list venues")
	}
	defer rows.Close()

	items := []model.VenueRow{}
	for rows.Next() {
		r, err := scanVenueRow(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan venue")
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: list venues iterate")
	}

	return &VenuePage{Page: page, PerPage: perPage, Total: total, Items: items}, nil
}

func (s *SQLiteStore) SummarizeVenues(ctx context.Context, f VenueFilter) (*VenueSummary, error) {
	where, args := whereClause(f, sqliteDialect{})

	var sum VenueSummary
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(foot_traffic), 0) FROM venues`+where, args...,
	).Scan(&sum.Venues, &sum.TotalFootTraffic)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: summarize venues")
	}
	return &sum, nil
}

func (s *SQLiteStore) DistinctVenueValues(ctx context.Context, field VenueField, q string) ([]string, error) {
	column := field.column()
	if column == "" {
		return nil, eris.Errorf("unsupported field %q", string(field))
	}

	query := `SELECT DISTINCT ` + column + ` FROM venues WHERE ` + column + ` IS NOT NULL AND ` + column + ` <> ''`
	var args []any
	limit := distinctLimitUnfiltered
	if q != "" {
		query += ` AND ` + column + ` LIKE ? COLLATE NOCASE`
		args = append(args, "%"+q+"%")
		limit = distinctLimitFiltered
	}
	query += ` ORDER BY ` + column + ` COLLATE NOCASE ASC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: distinct venue values")
	}
	defer rows.Close()
	return collectStrings(rows, "sqlite: distinct venue values")
}

func (s *SQLiteStore) ExportVenues(ctx context.Context, f VenueFilter, fn func(model.VenueRow) error) error {
	where, args := whereClause(f, sqliteDialect{})

	query := `SELECT ` + venueRowColumns + ` FROM venues` + where +
		` ORDER BY name COLLATE NOCASE ASC`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return eris.Wrap(err, "sqlite: export venues")
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanVenueRow(rows)
		if err != nil {
			return eris.Wrap(err, "sqlite: scan venue")
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return eris.Wrap(rows.Err(), "sqlite: export venues iterate")
}

func (s *SQLiteStore) VenueNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT name FROM venues WHERE name IS NOT NULL ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: venue names")
	}
	defer rows.Close()
	return collectStrings(rows, "sqlite: venue names")
}

func (s *SQLiteStore) InsertVenues(ctx context.Context, venues []model.Venue) (int, error) {
	if len(venues) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin insert venues")
	}
	defer tx.Rollback() //nolint:errcheck

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(model.VenueColumns)), ",")
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO venues (`+strings.Join(model.VenueColumns, ", ")+`) VALUES (`+placeholders+`)`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert venues")
	}
	defer stmt.Close()

	for i, v := range venues {
		if _, err := stmt.ExecContext(ctx, venueArgs(v)...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert venue %d", i)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit insert venues")
	}
	return len(venues), nil
}

func (s *SQLiteStore) ClearVenues(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM venues`)
	return eris.Wrap(err, "sqlite: clear venues")
}

func (s *SQLiteStore) CountVenues(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM venues`).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count venues")
}

func (s *SQLiteStore) DistinctPOIs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT poi FROM visits ORDER BY poi`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: distinct pois")
	}
	defer rows.Close()
	return collectStrings(rows, "sqlite: distinct pois")
}

// visitWhere builds the visit filter clause; both drivers bind identically
// since the clause uses equality and range comparisons only.
func visitWhere(f VisitFilter, d dialect) (string, []any) {
	var parts []string
	var args []any
	if f.POI != "" {
		args = append(args, f.POI)
		parts = append(parts, "poi = "+d.placeholder(len(args)))
	}
	if f.DateFrom != "" {
		args = append(args, f.DateFrom)
		parts = append(parts, "date >= "+d.placeholder(len(args)))
	}
	if f.DateTo != "" {
		args = append(args, f.DateTo)
		parts = append(parts, "date <= "+d.placeholder(len(args)))
	}
	if len(parts) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

func (s *SQLiteStore) ListVisits(ctx context.Context, f VisitFilter) ([]model.Visit, error) {
	where, args := visitWhere(f, sqliteDialect{})

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, poi, date, visitors, cbg, dma, dwell FROM visits`+where+` ORDER BY date ASC`, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list visits")
	}
	defer rows.Close()

	visits := []model.Visit{}
	for rows.Next() {
		var v model.Visit
		if err := rows.Scan(&v.ID, &v.POI, &v.Date, &v.Visitors, &v.CBG, &v.DMA, &v.Dwell); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan visit")
		}
		visits = append(visits, v)
	}
	return visits, eris.Wrap(rows.Err(), "sqlite: list visits iterate")
}

func (s *SQLiteStore) SummarizeVisits(ctx context.Context, f VisitFilter) (*VisitSummary, error) {
	where, args := visitWhere(f, sqliteDialect{})

	var sum VisitSummary
	var avgVisitors, avgDwell sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(visitors), 0), AVG(visitors), AVG(dwell) FROM visits`+where, args...,
	).Scan(&sum.Rows, &sum.TotalVisitors, &avgVisitors, &avgDwell)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: summarize visits")
	}
	if avgVisitors.Valid {
		sum.AvgVisitors = round2(avgVisitors.Float64)
	}
	if avgDwell.Valid {
		sum.AvgDwell = round2(avgDwell.Float64)
	}
	return &sum, nil
}

func (s *SQLiteStore) InsertVisits(ctx context.Context, visits []model.Visit) (int, error) {
	if len(visits) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin insert visits")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO visits (poi, date, visitors, cbg, dma, dwell) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert visits")
	}
	defer stmt.Close()

	for i, v := range visits {
		if _, err := stmt.ExecContext(ctx, v.POI, v.Date, v.Visitors, v.CBG, v.DMA, v.Dwell); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert visit %d", i)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit insert visits")
	}
	return len(visits), nil
}

func (s *SQLiteStore) CountVisits(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM visits`).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count visits")
}

// helpers

func scanVenueRow(rows *sql.Rows) (model.VenueRow, error) {
	var r model.VenueRow
	err := rows.Scan(&r.ID, &r.EntityID, &r.Name, &r.ChainName, &r.Category,
		&r.DMA, &r.City, &r.State, &r.FootTraffic, &r.DateOpened, &r.DateClosed)
	return r, err
}

func collectStrings(rows *sql.Rows, opName string) ([]string, error) {
	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, eris.Wrap(err, opName)
		}
		out = append(out, s)
	}
	return out, eris.Wrap(rows.Err(), opName)
}

// venueArgs orders a venue's insertable fields to match model.VenueColumns.
func venueArgs(v model.Venue) []any {
	return []any{
		v.EntityID, v.EntityType, v.Name, v.FootTraffic, v.Sales,
		v.AvgDwellTimeMin, v.AreaSqft, v.FtPerSqft, v.Geolocation, v.Country,
		v.StateCode, v.StateName, v.City, v.PostalCode, v.FormattedCity,
		v.StreetAddress, v.SubCategory, v.DMA, v.CBSA, v.ChainID, v.ChainName,
		v.StoreID, v.DateOpened, v.DateClosed,
	}
}
