package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/safetrack-app/safetrack-go/internal/models"
)

// PatternRepository handles database operations for predictability patterns
type PatternRepository struct {
	db *sql.DB
}

// NewPatternRepository creates a new pattern repository
func NewPatternRepository(db *sql.DB) *PatternRepository {
	return &PatternRepository{db: db}
}

const patternColumns = `id, user_id, destination_location_id, total_trips, similar_trips,
	score, is_predictable, notification_sent, last_notification_at, updated_at`

// GetByUserAndDestination retrieves the pattern for one (user, destination)
// pair, or nil when none exists yet.
func (r *PatternRepository) GetByUserAndDestination(userID, destinationID int64) (*models.Pattern, error) {
	query := `SELECT ` + patternColumns + ` FROM predictability_patterns
		WHERE user_id = ? AND destination_location_id = ?`

	p, err := scanPattern(r.db.QueryRow(query, userID, destinationID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pattern: %w", err)
	}
	return p, nil
}

// GetByUser retrieves all patterns for a user.
func (r *PatternRepository) GetByUser(userID int64) ([]models.Pattern, error) {
	query := `SELECT ` + patternColumns + ` FROM predictability_patterns
		WHERE user_id = ? ORDER BY updated_at DESC`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query patterns: %w", err)
	}
	defer rows.Close()

	var patterns []models.Pattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pattern: %w", err)
		}
		patterns = append(patterns, *p)
	}
	return patterns, rows.Err()
}

// Upsert writes the analysis results for a (user, destination) pair. The
// notification bookkeeping columns are preserved on update; they change only
// through UpdateNotification.
func (r *PatternRepository) Upsert(p *models.Pattern) error {
	query := `INSERT INTO predictability_patterns
		(user_id, destination_location_id, total_trips, similar_trips, score, is_predictable, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, destination_location_id) DO UPDATE SET
			total_trips = excluded.total_trips,
			similar_trips = excluded.similar_trips,
			score = excluded.score,
			is_predictable = excluded.is_predictable,
			updated_at = excluded.updated_at`

	_, err := r.db.Exec(query,
		p.UserID, p.DestinationLocationID, p.TotalTrips, p.SimilarTrips,
		p.Score, p.IsPredictable, p.UpdatedAt.UTC().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert pattern: %w", err)
	}

	stored, err := r.GetByUserAndDestination(p.UserID, p.DestinationLocationID)
	if err != nil {
		return err
	}
	p.ID = stored.ID
	p.NotificationSent = stored.NotificationSent
	p.LastNotificationAt = stored.LastNotificationAt
	return nil
}

// UpdateNotification persists the notification bookkeeping of a pattern.
func (r *PatternRepository) UpdateNotification(id int64, sent bool, at *time.Time) error {
	_, err := r.db.Exec(
		`UPDATE predictability_patterns SET notification_sent = ?, last_notification_at = ? WHERE id = ?`,
		sent, nullTime(at), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update pattern notification: %w", err)
	}
	return nil
}

func scanPattern(row rowScanner) (*models.Pattern, error) {
	var p models.Pattern
	var lastNotif sql.NullInt64
	var updated int64

	err := row.Scan(
		&p.ID, &p.UserID, &p.DestinationLocationID, &p.TotalTrips, &p.SimilarTrips,
		&p.Score, &p.IsPredictable, &p.NotificationSent, &lastNotif, &updated,
	)
	if err != nil {
		return nil, err
	}

	if lastNotif.Valid {
		t := time.Unix(lastNotif.Int64, 0).UTC()
		p.LastNotificationAt = &t
	}
	p.UpdatedAt = time.Unix(updated, 0).UTC()
	return &p, nil
}
