package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/safetrack-app/safetrack-go/internal/models"
)

// ErrDuplicateTrip is returned when a trip with the same (user_id, start_time)
// natural key already exists.
var ErrDuplicateTrip = errors.New("trip already exists for this start time")

// TripRepository handles database operations for trips
type TripRepository struct {
	db *sql.DB
}

// NewTripRepository creates a new trip repository
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{db: db}
}

const tripColumns = `id, user_id, origin_location_id, destination_location_id,
	start_lat, start_lon, end_lat, end_lon, start_time, end_time,
	geometry, geometry_hash, total_distance_m, duration_s, created_at`

// Insert persists a finalized trip. The UNIQUE(user_id, start_time) constraint
// is the backstop against concurrent detection passes finalizing the same
// window; a constraint hit maps to ErrDuplicateTrip.
func (r *TripRepository) Insert(t *models.Trip) error {
	query := `INSERT INTO trips
		(user_id, origin_location_id, destination_location_id,
		 start_lat, start_lon, end_lat, end_lon, start_time, end_time,
		 geometry, geometry_hash, total_distance_m, duration_s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := r.db.Exec(query,
		t.UserID, nullInt(t.OriginLocationID), nullInt(t.DestinationLocationID),
		t.StartLat, t.StartLon, t.EndLat, t.EndLon,
		t.StartTime.UTC().Unix(), t.EndTime.UTC().Unix(),
		t.Geometry, t.GeometryHash, t.TotalDistanceM, t.DurationS,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateTrip
		}
		return fmt.Errorf("failed to insert trip: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get trip id: %w", err)
	}
	t.ID = id
	return nil
}

// ExistsByUserAndStart reports whether a trip with this natural key exists.
func (r *TripRepository) ExistsByUserAndStart(userID int64, start time.Time) (bool, error) {
	var count int
	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM trips WHERE user_id = ? AND start_time = ?",
		userID, start.UTC().Unix(),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check trip existence: %w", err)
	}
	return count > 0, nil
}

// GetLatestByUser retrieves the user's most recently finished trip.
func (r *TripRepository) GetLatestByUser(userID int64) (*models.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips
		WHERE user_id = ? ORDER BY end_time DESC LIMIT 1`

	t, err := scanTrip(r.db.QueryRow(query, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest trip: %w", err)
	}
	return t, nil
}

// GetByUserAndDestination retrieves all trips to a destination, newest first.
func (r *TripRepository) GetByUserAndDestination(userID, destinationID int64) ([]models.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips
		WHERE user_id = ? AND destination_location_id = ?
		ORDER BY start_time DESC`

	rows, err := r.db.Query(query, userID, destinationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trips: %w", err)
	}
	defer rows.Close()

	return collectTrips(rows)
}

// GetTrips retrieves a user's trips with filtering and pagination
func (r *TripRepository) GetTrips(userID int64, filter models.TripFilter) ([]models.Trip, int64, error) {
	conditions := []string{"user_id = ?"}
	args := []interface{}{userID}

	if filter.StartTime > 0 {
		conditions = append(conditions, "start_time >= ?")
		args = append(args, filter.StartTime)
	}
	if filter.EndTime > 0 {
		conditions = append(conditions, "end_time <= ?")
		args = append(args, filter.EndTime)
	}
	if filter.LocationID > 0 {
		conditions = append(conditions, "destination_location_id = ?")
		args = append(args, filter.LocationID)
	}

	where := " WHERE " + strings.Join(conditions, " AND ")

	var total int64
	if err := r.db.QueryRow("SELECT COUNT(*) FROM trips"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count trips: %w", err)
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 100
	}
	if filter.PageSize > 1000 {
		filter.PageSize = 1000
	}
	offset := (filter.Page - 1) * filter.PageSize

	query := `SELECT ` + tripColumns + ` FROM trips` + where +
		` ORDER BY start_time DESC LIMIT ? OFFSET ?`
	args = append(args, filter.PageSize, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query trips: %w", err)
	}
	defer rows.Close()

	trips, err := collectTrips(rows)
	return trips, total, err
}

// DeleteByIDAndUser deletes a trip owned by the user. Returns whether a row
// was deleted.
func (r *TripRepository) DeleteByIDAndUser(id, userID int64) (bool, error) {
	res, err := r.db.Exec("DELETE FROM trips WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete trip: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTrip(row rowScanner) (*models.Trip, error) {
	var t models.Trip
	var origin, dest sql.NullInt64
	var start, end, created int64

	err := row.Scan(
		&t.ID, &t.UserID, &origin, &dest,
		&t.StartLat, &t.StartLon, &t.EndLat, &t.EndLon, &start, &end,
		&t.Geometry, &t.GeometryHash, &t.TotalDistanceM, &t.DurationS, &created,
	)
	if err != nil {
		return nil, err
	}

	if origin.Valid {
		t.OriginLocationID = &origin.Int64
	}
	if dest.Valid {
		t.DestinationLocationID = &dest.Int64
	}
	t.StartTime = time.Unix(start, 0).UTC()
	t.EndTime = time.Unix(end, 0).UTC()
	t.CreatedAt = time.Unix(created, 0).UTC()
	return &t, nil
}

func collectTrips(rows *sql.Rows) ([]models.Trip, error) {
	var trips []models.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, *t)
	}
	return trips, rows.Err()
}
