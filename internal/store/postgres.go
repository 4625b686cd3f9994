package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/footfall/internal/model"
)

// Pool abstracts pgxpool.Pool so the store can be unit-tested with pgxmock.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS venues (
	id BIGSERIAL PRIMARY KEY,
	entity_id TEXT,
	entity_type TEXT,
	name TEXT,
	foot_traffic BIGINT,
	sales DOUBLE PRECISION,
	avg_dwell_time_min DOUBLE PRECISION,
	area_sqft DOUBLE PRECISION,
	ft_per_sqft DOUBLE PRECISION,
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
	id BIGSERIAL PRIMARY KEY,
	poi TEXT NOT NULL,
	date TEXT NOT NULL,
	visitors BIGINT NOT NULL,
	cbg TEXT,
	dma TEXT,
	dwell DOUBLE PRECISION
);

CREATE INDEX IF NOT EXISTS idx_venues_name ON venues(name);
CREATE INDEX IF NOT EXISTS idx_visits_poi_date ON visits(poi, date);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) ListVenues(ctx context.Context, f VenueFilter, page, perPage int) (*VenuePage, error) {
	where, args := whereClause(f, postgresDialect{})

	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM venues`+where, args...).Scan(&total); err != nil {
		return nil, eris.Wrap(err, "postgres: count venues")
	}

	offset := (page - 1) * perPage
	d := postgresDialect{}
	query := `SELECT ` + venueRowColumns + ` FROM venues` + where +
		` ORDER BY lower(name) ASC, name ASC LIMIT ` + d.placeholder(len(args)+1) +
		` OFFSET ` + d.placeholder(len(args)+2)
	rows, err := s.pool.Query(ctx, query, append(args, perPage, offset)...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list venues")
	}
	defer rows.Close()

	items := []model.VenueRow{}
	for rows.Next() {
		r, err := scanVenueRowPgx(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan venue")
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: list venues iterate")
	}

	return &VenuePage{Page: page, PerPage: perPage, Total: total, Items: items}, nil
}

func (s *PostgresStore) SummarizeVenues(ctx context.Context, f VenueFilter) (*VenueSummary, error) {
	where, args := whereClause(f, postgresDialect{})

	var sum VenueSummary
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(foot_traffic), 0) FROM venues`+where, args...,
	).Scan(&sum.Venues, &sum.TotalFootTraffic)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: summarize venues")
	}
	return &sum, nil
}

func (s *PostgresStore) DistinctVenueValues(ctx context.Context, field VenueField, q string) ([]string, error) {
	column := field.column()
	if column == "" {
		return nil, eris.Errorf("unsupported field %q", string(field))
	}

	query := `SELECT DISTINCT ` + column + ` FROM venues WHERE ` + column + ` IS NOT NULL AND ` + column + ` <> ''`
	var args []any
	limit := distinctLimitUnfiltered
	if q != "" {
		args = append(args, "%"+q+"%")
		query += ` AND ` + column + ` ILIKE $1`
		limit = distinctLimitFiltered
	}
	args = append(args, limit)
	query += ` ORDER BY ` + column + ` ASC LIMIT ` + postgresDialect{}.placeholder(len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: distinct venue values")
	}
	defer rows.Close()
	return collectStringsPgx(rows, "postgres: distinct venue values")
}

func (s *PostgresStore) ExportVenues(ctx context.Context, f VenueFilter, fn func(model.VenueRow) error) error {
	where, args := whereClause(f, postgresDialect{})

	query := `SELECT ` + venueRowColumns + ` FROM venues` + where +
		` ORDER BY lower(name) ASC, name ASC`
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return eris.Wrap(err, "postgres: export venues")
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanVenueRowPgx(rows)
		if err != nil {
			return eris.Wrap(err, "postgres: scan venue")
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return eris.Wrap(rows.Err(), "postgres: export venues iterate")
}

func (s *PostgresStore) VenueNames(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT name FROM venues WHERE name IS NOT NULL ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: venue names")
	}
	defer rows.Close()
	return collectStringsPgx(rows, "postgres: venue names")
}

// InsertVenues bulk-inserts via the COPY protocol, the fastest path for the
// seed and loader volumes.
func (s *PostgresStore) InsertVenues(ctx context.Context, venues []model.Venue) (int, error) {
	if len(venues) == 0 {
		return 0, nil
	}

	rows := make([][]any, len(venues))
	for i, v := range venues {
		rows[i] = venueArgs(v)
	}

	n, err := s.pool.CopyFrom(ctx, pgx.Identifier{"venues"}, model.VenueColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrap(err, "postgres: copy venues")
	}
	return int(n), nil
}

func (s *PostgresStore) ClearVenues(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM venues`)
	return eris.Wrap(err, "postgres: clear venues")
}

func (s *PostgresStore) CountVenues(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM venues`).Scan(&n)
	return n, eris.Wrap(err, "postgres: count venues")
}

func (s *PostgresStore) DistinctPOIs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT poi FROM visits ORDER BY poi`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: distinct pois")
	}
	defer rows.Close()
	return collectStringsPgx(rows, "postgres: distinct pois")
}

func (s *PostgresStore) ListVisits(ctx context.Context, f VisitFilter) ([]model.Visit, error) {
	where, args := visitWhere(f, postgresDialect{})

	rows, err := s.pool.Query(ctx,
		`SELECT id, poi, date, visitors, cbg, dma, dwell FROM visits`+where+` ORDER BY date ASC`, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list visits")
	}
	defer rows.Close()

	visits := []model.Visit{}
	for rows.Next() {
		var v model.Visit
		if err := rows.Scan(&v.ID, &v.POI, &v.Date, &v.Visitors, &v.CBG, &v.DMA, &v.Dwell); err != nil {
			return nil, eris.Wrap(err, "postgres: scan visit")
		}
		visits = append(visits, v)
	}
	return visits, eris.Wrap(rows.Err(), "postgres: list visits iterate")
}

func (s *PostgresStore) SummarizeVisits(ctx context.Context, f VisitFilter) (*VisitSummary, error) {
	where, args := visitWhere(f, postgresDialect{})

	var sum VisitSummary
	var avgVisitors, avgDwell *float64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(visitors), 0), AVG(visitors), AVG(dwell) FROM visits`+where, args...,
	).Scan(&sum.Rows, &sum.TotalVisitors, &avgVisitors, &avgDwell)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: summarize visits")
	}
	if avgVisitors != nil {
		sum.AvgVisitors = round2(*avgVisitors)
	}
	if avgDwell != nil {
		sum.AvgDwell = round2(*avgDwell)
	}
	return &sum, nil
}

func (s *PostgresStore) InsertVisits(ctx context.Context, visits []model.Visit) (int, error) {
	if len(visits) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: begin insert visits")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for i, v := range visits {
		_, err := tx.Exec(ctx,
			`INSERT INTO visits (poi, date, visitors, cbg, dma, dwell) VALUES ($1, $2, $3, $4, $5, $6)`,
			v.POI, v.Date, v.Visitors, v.CBG, v.DMA, v.Dwell)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: insert visit %d", i)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: commit insert visits")
	}
	return len(visits), nil
}

func (s *PostgresStore) CountVisits(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM visits`).Scan(&n)
	return n, eris.Wrap(err, "postgres: count visits")
}

// helpers

func scanVenueRowPgx(rows pgx.Rows) (model.VenueRow, error) {
	var r model.VenueRow
	err := rows.Scan(&r.ID, &r.EntityID, &r.Name, &r.ChainName, &r.Category,
		&r.DMA, &r.City, &r.State, &r.FootTraffic, &r.DateOpened, &r.DateClosed)
	return r, err
}

func collectStringsPgx(rows pgx.Rows, opName string) ([]string, error) {
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
