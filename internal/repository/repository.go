// FilePath: internal/repository/repository.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/aquasense/tdshub/internal/models"
)

var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidInput indicates that the input data is invalid
	ErrInvalidInput = errors.New("invalid input")
)

// ReadingRepository defines persistence for raw readings and their
// rolling-average projections. All writes are append-only.
type ReadingRepository interface {
	AppendRaw(ctx context.Context, reading *models.RawReading) error
	// RollingAverage returns the mean of the k most recent raw readings
	// for a device by insertion order. count is the number of readings
	// actually averaged, which is less than k when history is shorter;
	// (nil, 0) when the device has no readings.
	RollingAverage(ctx context.Context, deviceID string, k int) (*float64, int, error)
	AppendAveraged(ctx context.Context, avg *models.AveragedReading) error
	// LatestAveraged returns nil when the device has no averaged rows.
	LatestAveraged(ctx context.Context, deviceID string) (*models.AveragedReading, error)
	// HistoryAveraged returns rows captured at or after since, ascending
	// by time. Empty slice, never an error, when nothing matches.
	HistoryAveraged(ctx context.Context, deviceID string, since time.Time) ([]models.AveragedReading, error)
	CountRaw(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}

// AnalysisRepository defines persistence for completed-session analysis
// records. Append-only; exactly one row per completed session.
type AnalysisRepository interface {
	Append(ctx context.Context, record *models.AnalysisRecord) error
	// History returns records newest first, filtered by device when
	// deviceID is non-empty, capped at limit.
	History(ctx context.Context, deviceID string, limit int) ([]models.AnalysisRecord, error)
	// ByID returns ErrNotFound (wrapped) when no record matches.
	ByID(ctx context.Context, id string) (*models.AnalysisRecord, error)
	Count(ctx context.Context) (int64, error)
}
