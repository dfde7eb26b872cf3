package repository

import (
	"database/sql"
	"fmt"
)

// TokenRepository handles database operations for push device tokens
type TokenRepository struct {
	db *sql.DB
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Register stores a device token for a user. Re-registering the same token is
// a no-op.
func (r *TokenRepository) Register(userID int64, token string) error {
	_, err := r.db.Exec(
		"INSERT OR IGNORE INTO device_tokens (user_id, token) VALUES (?, ?)",
		userID, token,
	)
	if err != nil {
		return fmt.Errorf("failed to register token: %w", err)
	}
	return nil
}

// GetByUser retrieves all device tokens registered for a user.
func (r *TokenRepository) GetByUser(userID int64) ([]string, error) {
	rows, err := r.db.Query("SELECT token FROM device_tokens WHERE user_id = ?", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tokens: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan token: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// Delete removes a token (e.g., reported unregistered by the push transport).
func (r *TokenRepository) Delete(token string) error {
	if _, err := r.db.Exec("DELETE FROM device_tokens WHERE token = ?", token); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
