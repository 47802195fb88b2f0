// FilePath: internal/repository/postgres/postgres.readings.go
package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/aquasense/tdshub/internal/database"
	"github.com/aquasense/tdshub/internal/errors"
	"github.com/aquasense/tdshub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

type ReadingRepo struct {
	PostgresBaseRepo
}

func NewReadingRepository(db database.DB) *ReadingRepo {
	repo := &PostgresBaseRepo{db: db}
	return &ReadingRepo{PostgresBaseRepo: *repo}
}

// InitializeSchema creates the append-only reading tables and their
// (device_id, captured_at DESC) indexes.
func (r *ReadingRepo) InitializeSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS raw_readings (
			seq BIGSERIAL,
			id TEXT PRIMARY KEY,
			device_id TEXT NOT NULL,
			tds_ppm DOUBLE PRECISION NOT NULL,
			voltage DOUBLE PRECISION,
			raw DOUBLE PRECISION,
			captured_at TIMESTAMPTZ NOT NULL,
			captured_epoch BIGINT NOT NULL,
			session_id TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_raw_readings_device_time
			ON raw_readings(device_id, captured_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_raw_readings_device_seq
			ON raw_readings(device_id, seq DESC)`,
		`CREATE TABLE IF NOT EXISTS averaged_readings (
			id TEXT PRIMARY KEY,
			device_id TEXT NOT NULL,
			avg_tds_ppm DOUBLE PRECISION NOT NULL,
			window_count INTEGER NOT NULL,
			captured_at TIMESTAMPTZ NOT NULL,
			captured_epoch BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_averaged_readings_device_time
			ON averaged_readings(device_id, captured_at DESC)`,
	}

	for _, query := range queries {
		_, err := r.db.GetDB().Exec(query)
		if err != nil {
			return errors.NewDatabaseError("failed to initialize readings schema", err)
		}
	}
	return nil
}

func (r *ReadingRepo) AppendRaw(ctx context.Context, reading *models.RawReading) error {
	if reading.ID == "" {
		reading.ID = nuts.NID("rr", 12)
	}
	query := `
		INSERT INTO raw_readings (
			id, device_id, tds_ppm, voltage, raw,
			captured_at, captured_epoch, session_id
		) VALUES (
			:id, :device_id, :tds_ppm, :voltage, :raw,
			:captured_at, :captured_epoch, :session_id
		)`

	_, err := r.db.GetDB().NamedExecContext(ctx, query, reading)
	if err != nil {
		return errors.NewDatabaseError("failed to append raw reading", err)
	}
	return nil
}

func (r *ReadingRepo) RollingAverage(ctx context.Context, deviceID string, k int) (*float64, int, error) {
	var result struct {
		Avg   sql.NullFloat64 `db:"avg"`
		Count int             `db:"count"`
	}
	// Insertion order via seq, not captured_at: two readings in the
	// same second must still window deterministically.
	query := `
		SELECT AVG(tds_ppm) AS avg, COUNT(*) AS count FROM (
			SELECT tds_ppm FROM raw_readings
			WHERE device_id = $1
			ORDER BY seq DESC
			LIMIT $2
		) window_rows`

	err := r.db.GetDB().GetContext(ctx, &result, query, deviceID, k)
	if err != nil {
		return nil, 0, errors.NewDatabaseError("failed to compute rolling average", err)
	}
	if !result.Avg.Valid {
		return nil, 0, nil
	}
	avg := result.Avg.Float64
	return &avg, result.Count, nil
}

func (r *ReadingRepo) AppendAveraged(ctx context.Context, avg *models.AveragedReading) error {
	if avg.ID == "" {
		avg.ID = nuts.NID("ar", 12)
	}
	query := `
		INSERT INTO averaged_readings (
			id, device_id, avg_tds_ppm, window_count, captured_at, captured_epoch
		) VALUES (
			:id, :device_id, :avg_tds_ppm, :window_count, :captured_at, :captured_epoch
		)`

	_, err := r.db.GetDB().NamedExecContext(ctx, query, avg)
	if err != nil {
		return errors.NewDatabaseError("failed to append averaged reading", err)
	}
	return nil
}

func (r *ReadingRepo) LatestAveraged(ctx context.Context, deviceID string) (*models.AveragedReading, error) {
	avg := &models.AveragedReading{}
	query := `
		SELECT id, device_id, avg_tds_ppm, window_count, captured_at, captured_epoch
		FROM averaged_readings
		WHERE device_id = $1
		ORDER BY captured_at DESC
		LIMIT 1`

	err := r.db.GetDB().GetContext(ctx, avg, query, deviceID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.NewDatabaseError("failed to get latest averaged reading", err)
	}
	return avg, nil
}

func (r *ReadingRepo) HistoryAveraged(ctx context.Context, deviceID string, since time.Time) ([]models.AveragedReading, error) {
	rows := []models.AveragedReading{}
	query := `
		SELECT id, device_id, avg_tds_ppm, window_count, captured_at, captured_epoch
		FROM averaged_readings
		WHERE device_id = $1 AND captured_at >= $2
		ORDER BY captured_at ASC`

	err := r.db.GetDB().SelectContext(ctx, &rows, query, deviceID, since)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to get averaged history", err)
	}
	return rows, nil
}

func (r *ReadingRepo) CountRaw(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetDB().GetContext(ctx, &count, `SELECT COUNT(*) FROM raw_readings`)
	if err != nil {
		return 0, errors.NewDatabaseError("failed to count raw readings", err)
	}
	return count, nil
}
