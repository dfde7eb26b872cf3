package models

import "time"

// Pattern tracks route predictability for one (user, destination) pair.
// At most one row per pair; mutated by the analyzer after each new trip that
// resolves to a known destination.
type Pattern struct {
	ID                    int64      `json:"id"`
	UserID                int64      `json:"userId"`
	DestinationLocationID int64      `json:"destinationLocationId"`
	TotalTrips            int        `json:"totalTrips"`
	SimilarTrips          int        `json:"similarTrips"`
	Score                 float64    `json:"score"`
	IsPredictable         bool       `json:"isPredictable"`
	NotificationSent      bool       `json:"notificationSent"`
	LastNotificationAt    *time.Time `json:"lastNotificationAt,omitempty"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}
