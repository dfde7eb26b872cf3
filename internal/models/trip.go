package models

import "time"

// Trip is a finalized episode of continuous user motion. Created exactly once
// when the segmenter finalizes a motion episode; immutable afterwards except
// for user-initiated deletion.
type Trip struct {
	ID                    int64     `json:"id"`
	UserID                int64     `json:"userId"`
	OriginLocationID      *int64    `json:"originLocationId,omitempty"`
	DestinationLocationID *int64    `json:"destinationLocationId,omitempty"`
	StartLat              float64   `json:"startLat"`
	StartLon              float64   `json:"startLon"`
	EndLat                float64   `json:"endLat"`
	EndLon                float64   `json:"endLon"`
	StartTime             time.Time `json:"startTime"`
	EndTime               time.Time `json:"endTime"`
	Geometry              string    `json:"geometry"`
	GeometryHash          string    `json:"geometryHash"`
	TotalDistanceM        float64   `json:"totalDistanceM"`
	DurationS             int64     `json:"durationS"`
	CreatedAt             time.Time `json:"createdAt"`
}

// TripFilter represents filter parameters for querying trips
type TripFilter struct {
	StartTime  int64 `form:"startTime"` // Unix timestamp
	EndTime    int64 `form:"endTime"`   // Unix timestamp
	LocationID int64 `form:"locationId"`
	Page       int   `form:"page"`
	PageSize   int   `form:"pageSize"`
}

// TripsResponse represents a paginated response of trips
type TripsResponse struct {
	Data       []Trip `json:"data"`
	Total      int64  `json:"total"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	TotalPages int    `json:"totalPages"`
}
