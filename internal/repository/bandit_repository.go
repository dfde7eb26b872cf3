package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/safetrack-app/safetrack-go/internal/models"
)

// BanditRepository handles database operations for bandit arms and route
// outcome history
type BanditRepository struct {
	db *sql.DB
}

// NewBanditRepository creates a new bandit repository
func NewBanditRepository(db *sql.DB) *BanditRepository {
	return &BanditRepository{db: db}
}

const armColumns = `id, user_id, location_id, route_type, total_uses, total_rewards, created_at, updated_at`

// EnsureArms lazily creates the missing arms for a (user, location) pair and
// returns all of them in creation order.
func (r *BanditRepository) EnsureArms(userID, locationID int64) ([]models.BanditArm, error) {
	for _, rt := range models.RouteTypes {
		_, err := r.db.Exec(
			`INSERT OR IGNORE INTO bandit_arms (user_id, location_id, route_type)
			 VALUES (?, ?, ?)`,
			userID, locationID, rt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to ensure arm %s: %w", rt, err)
		}
	}
	return r.GetArms(userID, &locationID)
}

// GetArms retrieves a user's arms, optionally restricted to one location,
// in creation order.
func (r *BanditRepository) GetArms(userID int64, locationID *int64) ([]models.BanditArm, error) {
	query := `SELECT ` + armColumns + ` FROM bandit_arms WHERE user_id = ?`
	args := []interface{}{userID}
	if locationID != nil {
		query += " AND location_id = ?"
		args = append(args, *locationID)
	}
	query += " ORDER BY id"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query arms: %w", err)
	}
	defer rows.Close()

	var arms []models.BanditArm
	for rows.Next() {
		var a models.BanditArm
		var created, updated int64
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.LocationID, &a.RouteType,
			&a.TotalUses, &a.TotalRewards, &created, &updated,
		); err != nil {
			return nil, fmt.Errorf("failed to scan arm: %w", err)
		}
		a.CreatedAt = time.Unix(created, 0).UTC()
		a.UpdatedAt = time.Unix(updated, 0).UTC()
		arms = append(arms, a)
	}
	return arms, rows.Err()
}

// IncrementArm records one use of an arm within a transaction, adding the
// reward iff the trip completed.
func (r *BanditRepository) IncrementArm(tx *sql.Tx, userID, locationID int64, routeType string, reward int) error {
	_, err := tx.Exec(
		`UPDATE bandit_arms
		 SET total_uses = total_uses + 1,
		     total_rewards = total_rewards + ?,
		     updated_at = strftime('%s', 'now')
		 WHERE user_id = ? AND location_id = ? AND route_type = ?`,
		reward, userID, locationID, routeType,
	)
	if err != nil {
		return fmt.Errorf("failed to increment arm: %w", err)
	}
	return nil
}

// InsertOutcome appends a route outcome record within a transaction.
func (r *BanditRepository) InsertOutcome(tx *sql.Tx, o *models.RouteOutcome) error {
	_, err := tx.Exec(
		`INSERT INTO route_outcomes
		 (user_id, location_id, route_type, completed, distance_m, duration_s, started_at, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.UserID, o.LocationID, o.RouteType, o.Completed,
		nullFloat(o.DistanceM), nullFloat(o.DurationS),
		o.StartedAt.UTC().Unix(), nullTime(o.EndedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert outcome: %w", err)
	}
	return nil
}

// CountOutcomes returns the number of completed and abandoned outcomes for a
// user, optionally restricted to one location.
func (r *BanditRepository) CountOutcomes(userID int64, locationID *int64) (completed, abandoned int64, err error) {
	query := `SELECT
		COALESCE(SUM(CASE WHEN completed = 1 THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN completed = 0 THEN 1 ELSE 0 END), 0)
		FROM route_outcomes WHERE user_id = ?`
	args := []interface{}{userID}
	if locationID != nil {
		query += " AND location_id = ?"
		args = append(args, *locationID)
	}

	if err := r.db.QueryRow(query, args...).Scan(&completed, &abandoned); err != nil {
		return 0, 0, fmt.Errorf("failed to count outcomes: %w", err)
	}
	return completed, abandoned, nil
}

// GetCompletedDurations returns the recorded durations of completed trips
// grouped by route type.
func (r *BanditRepository) GetCompletedDurations(userID int64, locationID *int64) (map[string][]float64, error) {
	query := `SELECT route_type, duration_s FROM route_outcomes
		WHERE user_id = ? AND completed = 1 AND duration_s IS NOT NULL`
	args := []interface{}{userID}
	if locationID != nil {
		query += " AND location_id = ?"
		args = append(args, *locationID)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query durations: %w", err)
	}
	defer rows.Close()

	durations := make(map[string][]float64)
	for rows.Next() {
		var rt string
		var d float64
		if err := rows.Scan(&rt, &d); err != nil {
			return nil, fmt.Errorf("failed to scan duration: %w", err)
		}
		durations[rt] = append(durations[rt], d)
	}
	return durations, rows.Err()
}

// Reset deletes a user's arms and outcome history, optionally restricted to
// one location. Irreversible.
func (r *BanditRepository) Reset(userID int64, locationID *int64) error {
	for _, table := range []string{"bandit_arms", "route_outcomes"} {
		query := "DELETE FROM " + table + " WHERE user_id = ?"
		args := []interface{}{userID}
		if locationID != nil {
			query += " AND location_id = ?"
			args = append(args, *locationID)
		}
		if _, err := r.db.Exec(query, args...); err != nil {
			return fmt.Errorf("failed to reset %s: %w", strings.ReplaceAll(table, "_", " "), err)
		}
	}
	return nil
}

// DB exposes the underlying handle for transactional feedback recording.
func (r *BanditRepository) DB() *sql.DB {
	return r.db
}
