package repository

import (
	"database/sql"
	"fmt"

	"github.com/safetrack-app/safetrack-go/internal/models"
)

// LocationRepository handles database operations for saved locations
type LocationRepository struct {
	db *sql.DB
}

// NewLocationRepository creates a new location repository
func NewLocationRepository(db *sql.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

const locationColumns = `id, user_id, name, latitude, longitude, address, active`

// GetActiveByUser retrieves the user's active saved locations.
func (r *LocationRepository) GetActiveByUser(userID int64) ([]models.SavedLocation, error) {
	query := `SELECT ` + locationColumns + ` FROM saved_locations
		WHERE user_id = ? AND active = 1 ORDER BY id`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	return collectLocations(rows)
}

// GetByUser retrieves all of the user's saved locations, active or not.
func (r *LocationRepository) GetByUser(userID int64) ([]models.SavedLocation, error) {
	query := `SELECT ` + locationColumns + ` FROM saved_locations
		WHERE user_id = ? ORDER BY id`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	return collectLocations(rows)
}

// GetByIDAndUser retrieves a single location owned by the user.
func (r *LocationRepository) GetByIDAndUser(id, userID int64) (*models.SavedLocation, error) {
	query := `SELECT ` + locationColumns + ` FROM saved_locations
		WHERE id = ? AND user_id = ?`

	var l models.SavedLocation
	var address sql.NullString
	err := r.db.QueryRow(query, id, userID).Scan(
		&l.ID, &l.UserID, &l.Name, &l.Latitude, &l.Longitude, &address, &l.Active,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get location: %w", err)
	}
	if address.Valid {
		l.Address = &address.String
	}
	return &l, nil
}

// Insert creates a new saved location.
func (r *LocationRepository) Insert(l *models.SavedLocation) error {
	res, err := r.db.Exec(
		`INSERT INTO saved_locations (user_id, name, latitude, longitude, address, active)
		 VALUES (?, ?, ?, ?, ?, 1)`,
		l.UserID, l.Name, l.Latitude, l.Longitude, nullString(l.Address),
	)
	if err != nil {
		return fmt.Errorf("failed to insert location: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get location id: %w", err)
	}
	l.ID = id
	l.Active = true
	return nil
}

// Update rewrites a location's editable fields. Returns whether a row matched.
func (r *LocationRepository) Update(l *models.SavedLocation) (bool, error) {
	res, err := r.db.Exec(
		`UPDATE saved_locations SET name = ?, latitude = ?, longitude = ?, address = ?
		 WHERE id = ? AND user_id = ?`,
		l.Name, l.Latitude, l.Longitude, nullString(l.Address), l.ID, l.UserID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update location: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n > 0, nil
}

// Deactivate soft-deletes a location. Trips referencing it are untouched.
func (r *LocationRepository) Deactivate(id, userID int64) (bool, error) {
	res, err := r.db.Exec(
		"UPDATE saved_locations SET active = 0 WHERE id = ? AND user_id = ?",
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to deactivate location: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n > 0, nil
}

func collectLocations(rows *sql.Rows) ([]models.SavedLocation, error) {
	var locations []models.SavedLocation
	for rows.Next() {
		var l models.SavedLocation
		var address sql.NullString
		if err := rows.Scan(
			&l.ID, &l.UserID, &l.Name, &l.Latitude, &l.Longitude, &address, &l.Active,
		); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		if address.Valid {
			l.Address = &address.String
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
