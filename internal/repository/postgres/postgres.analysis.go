// FilePath: internal/repository/postgres/postgres.analysis.go
package postgres

import (
	"context"
	"database/sql"

	"github.com/aquasense/tdshub/internal/database"
	"github.com/aquasense/tdshub/internal/errors"
	"github.com/aquasense/tdshub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

type AnalysisRepo struct {
	PostgresBaseRepo
}

func NewAnalysisRepository(db database.DB) *AnalysisRepo {
	repo := &PostgresBaseRepo{db: db}
	return &AnalysisRepo{PostgresBaseRepo: *repo}
}

// InitializeSchema creates the analysis history table.
func (r *AnalysisRepo) InitializeSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS analysis_history (
			id TEXT PRIMARY KEY,
			device_id TEXT NOT NULL,
			avg_tds_ppm DOUBLE PRECISION NOT NULL,
			explanation TEXT NOT NULL,
			reading_count INTEGER NOT NULL,
			captured_at TIMESTAMPTZ NOT NULL,
			captured_epoch BIGINT NOT NULL,
			session_id TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_history_device_time
			ON analysis_history(device_id, captured_at DESC)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_analysis_history_session
			ON analysis_history(session_id)`,
	}

	for _, query := range queries {
		_, err := r.db.GetDB().Exec(query)
		if err != nil {
			return errors.NewDatabaseError("failed to initialize analysis schema", err)
		}
	}
	return nil
}

func (r *AnalysisRepo) Append(ctx context.Context, record *models.AnalysisRecord) error {
	if record.ID == "" {
		record.ID = nuts.NID("an", 12)
	}
	query := `
		INSERT INTO analysis_history (
			id, device_id, avg_tds_ppm, explanation, reading_count,
			captured_at, captured_epoch, session_id
		) VALUES (
			:id, :device_id, :avg_tds_ppm, :explanation, :reading_count,
			:captured_at, :captured_epoch, :session_id
		)`

	_, err := r.db.GetDB().NamedExecContext(ctx, query, record)
	if err != nil {
		return errors.NewDatabaseError("failed to append analysis record", err)
	}
	nuts.L.Infof("[AnalysisRepo] Stored analysis %s for device %s (avg %.2f ppm)",
		record.ID, record.DeviceID, record.AvgTDSPpm)
	return nil
}

func (r *AnalysisRepo) History(ctx context.Context, deviceID string, limit int) ([]models.AnalysisRecord, error) {
	records := []models.AnalysisRecord{}

	if deviceID != "" {
		query := `
			SELECT id, device_id, avg_tds_ppm, explanation, reading_count,
				captured_at, captured_epoch, session_id
			FROM analysis_history
			WHERE device_id = $1
			ORDER BY captured_at DESC
			LIMIT $2`
		if err := r.db.GetDB().SelectContext(ctx, &records, query, deviceID, limit); err != nil {
			return nil, errors.NewDatabaseError("failed to get analysis history", err)
		}
		return records, nil
	}

	query := `
		SELECT id, device_id, avg_tds_ppm, explanation, reading_count,
			captured_at, captured_epoch, session_id
		FROM analysis_history
		ORDER BY captured_at DESC
		LIMIT $1`
	if err := r.db.GetDB().SelectContext(ctx, &records, query, limit); err != nil {
		return nil, errors.NewDatabaseError("failed to get analysis history", err)
	}
	return records, nil
}

func (r *AnalysisRepo) ByID(ctx context.Context, id string) (*models.AnalysisRecord, error) {
	record := &models.AnalysisRecord{}
	query := `
		SELECT id, device_id, avg_tds_ppm, explanation, reading_count,
			captured_at, captured_epoch, session_id
		FROM analysis_history
		WHERE id = $1`

	err := r.db.GetDB().GetContext(ctx, record, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("analysis record not found", err)
		}
		return nil, errors.NewDatabaseError("failed to get analysis record", err)
	}
	return record, nil
}

func (r *AnalysisRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetDB().GetContext(ctx, &count, `SELECT COUNT(*) FROM analysis_history`)
	if err != nil {
		return 0, errors.NewDatabaseError("failed to count analysis records", err)
	}
	return count, nil
}
