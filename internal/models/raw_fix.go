package models

import "time"

// RawFix represents a single raw GPS sample. Rows are append-only and are
// the source of truth for trip reconstruction.
type RawFix struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"userId"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	Timestamp      time.Time `json:"timestamp"`
	AccuracyMeters *float64  `json:"accuracyMeters,omitempty"`
	SpeedMPS       *float64  `json:"speedMps,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// FixInput is one entry of an ingestion batch as sent by the mobile client.
// Timestamp is RFC3339; when empty the server time is used.
type FixInput struct {
	Lat       float64  `json:"lat" binding:"min=-90,max=90"`
	Lon       float64  `json:"lon" binding:"min=-180,max=180"`
	Timestamp string   `json:"timestamp"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Speed     *float64 `json:"speed,omitempty"`
}

// FixBatchRequest is the ingestion payload.
type FixBatchRequest struct {
	Fixes []FixInput `json:"fixes" binding:"required,min=1,max=100,dive"`
}
