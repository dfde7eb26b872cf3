package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/safetrack-app/safetrack-go/internal/models"
)

// FixRepository handles database operations for raw GPS fixes
type FixRepository struct {
	db *sql.DB
}

// NewFixRepository creates a new fix repository
func NewFixRepository(db *sql.DB) *FixRepository {
	return &FixRepository{db: db}
}

// InsertBatch appends a batch of fixes in one transaction and returns the
// number of rows written.
func (r *FixRepository) InsertBatch(fixes []models.RawFix) (int, error) {
	if len(fixes) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO raw_fixes
		(user_id, latitude, longitude, timestamp, accuracy_meters, speed_mps)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	saved := 0
	for _, f := range fixes {
		_, err := stmt.Exec(
			f.UserID, f.Latitude, f.Longitude, f.Timestamp.UTC().Unix(),
			nullFloat(f.AccuracyMeters), nullFloat(f.SpeedMPS),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert fix: %w", err)
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return saved, nil
}

// GetSince retrieves a user's fixes with timestamp >= since, ordered by time.
func (r *FixRepository) GetSince(userID int64, since time.Time) ([]models.RawFix, error) {
	query := `SELECT id, user_id, latitude, longitude, timestamp, accuracy_meters, speed_mps, created_at
		FROM raw_fixes
		WHERE user_id = ? AND timestamp >= ?
		ORDER BY timestamp ASC`

	rows, err := r.db.Query(query, userID, since.UTC().Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query fixes: %w", err)
	}
	defer rows.Close()

	var fixes []models.RawFix
	for rows.Next() {
		var f models.RawFix
		var ts, created int64
		var accuracy, speed sql.NullFloat64

		if err := rows.Scan(
			&f.ID, &f.UserID, &f.Latitude, &f.Longitude, &ts, &accuracy, &speed, &created,
		); err != nil {
			return nil, fmt.Errorf("failed to scan fix: %w", err)
		}

		f.Timestamp = time.Unix(ts, 0).UTC()
		f.CreatedAt = time.Unix(created, 0).UTC()
		if accuracy.Valid {
			f.AccuracyMeters = &accuracy.Float64
		}
		if speed.Valid {
			f.SpeedMPS = &speed.Float64
		}
		fixes = append(fixes, f)
	}

	return fixes, rows.Err()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullTime(v *time.Time) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: v.UTC().Unix(), Valid: true}
}
