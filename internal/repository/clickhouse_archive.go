package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"MacroPull/internal/domain/models"
	domrepo "MacroPull/internal/domain/repository"
	pkgch "MacroPull/pkg/clickhouse"
	applogger "MacroPull/pkg/logger"
)

const (
	defaultArchiveTable = "macro_observations"
	insertChunkSize     = 2000
)

// ArchiveSchema returns the DDL for the observation archive. Re-fetched
// observations replace older copies on merge, keyed by (series_id, ts).
func ArchiveSchema(database, table string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
            series_id  LowCardinality(String),
            ts         Date,
            value      Float64,
            fetched_at DateTime64(3, 'UTC')
        )
        ENGINE = ReplacingMergeTree(fetched_at)
        ORDER BY (series_id, ts)`, database, table),
	}
}

// CHObservationArchive implements ObservationArchive backed by ClickHouse.
type CHObservationArchive struct {
	client *pkgch.Client
	db     *sql.DB
	table  string
	l      *applogger.Logger
	now    func() time.Time
}

var _ domrepo.ObservationArchive = (*CHObservationArchive)(nil)

func NewCHObservationArchive(ch *pkgch.Client, table string, l *applogger.Logger) *CHObservationArchive {
	if table == "" {
		table = defaultArchiveTable
	}
	if l == nil {
		l = applogger.NewNop()
	}
	return &CHObservationArchive{client: ch, db: ch.DB(), table: table, l: l, now: time.Now}
}

// Init creates the archive table if needed.
func (s *CHObservationArchive) Init(ctx context.Context, database string) error {
	return s.client.InitSchema(ctx, ArchiveSchema(database, s.table))
}

// StoreSeries appends every finite observation of series in multi-row batches.
func (s *CHObservationArchive) StoreSeries(ctx context.Context, series models.RawSeries) error {
	if series.Empty() {
		return nil
	}
	start := time.Now()
	fetchedAt := s.now().UTC()
	stored := 0
	for from := 0; from < len(series.Observations); from += insertChunkSize {
		to := min(from+insertChunkSize, len(series.Observations))
		q, args := buildInsert(s.table, series.ID, series.Observations[from:to], fetchedAt)
		if len(args) == 0 {
			continue
		}
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse archive insert error",
				applogger.String("table", s.table),
				applogger.String("series", series.ID),
				applogger.Error(err),
			)
			return fmt.Errorf("archive insert %s: %w", series.ID, err)
		}
		stored += len(args) / 4
	}
	s.l.Debug("clickhouse archive insert ok",
		applogger.String("series", series.ID),
		applogger.Int("rows", stored),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

// LoadSeries returns the archived observations of seriesID in [from, to], oldest first.
// A zero to means no upper bound.
func (s *CHObservationArchive) LoadSeries(ctx context.Context, seriesID string, from, to time.Time) (models.RawSeries, error) {
	if to.IsZero() {
		to = s.now().UTC()
	}
	q := fmt.Sprintf(`
        SELECT ts, value
        FROM %s FINAL
        WHERE series_id = ? AND ts >= ? AND ts <= ?
        ORDER BY ts ASC
    `, s.table)

	rows, err := s.db.QueryContext(ctx, q, seriesID, from.UTC(), to.UTC())
	if err != nil {
		s.l.Error("clickhouse archive query error",
			applogger.String("table", s.table),
			applogger.String("series", seriesID),
			applogger.Error(err),
		)
		return models.RawSeries{}, fmt.Errorf("archive load %s: %w", seriesID, err)
	}
	defer rows.Close()

	out := models.RawSeries{ID: seriesID, Observations: make([]models.Observation, 0, 1024)}
	for rows.Next() {
		var o models.Observation
		if err := rows.Scan(&o.Time, &o.Value); err != nil {
			return models.RawSeries{}, fmt.Errorf("scan observation: %w", err)
		}
		o.Time = o.Time.UTC()
		out.Observations = append(out.Observations, o)
	}
	if err := rows.Err(); err != nil {
		return models.RawSeries{}, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *CHObservationArchive) Health(ctx context.Context) error { return s.client.Health(ctx) }

func (s *CHObservationArchive) Close() error { return s.client.Close() }

// buildInsert renders one multi-row INSERT. Non-finite values are skipped.
func buildInsert(table, seriesID string, obs []models.Observation, fetchedAt time.Time) (string, []interface{}) {
	values := make([]string, 0, len(obs))
	args := make([]interface{}, 0, len(obs)*4)
	for _, o := range obs {
		if math.IsNaN(o.Value) || math.IsInf(o.Value, 0) {
			continue
		}
		values = append(values, "(?, ?, ?, ?)")
		args = append(args, seriesID, o.Time.UTC(), o.Value, fetchedAt)
	}
	q := fmt.Sprintf("INSERT INTO %s (series_id, ts, value, fetched_at) VALUES %s", table, strings.Join(values, ","))
	return q, args
}
