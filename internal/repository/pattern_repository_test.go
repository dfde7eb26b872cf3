package repository

import (
	"testing"
	"time"

	"github.com/safetrack-app/safetrack-go/internal/models"
)

func TestPatternUpsertPreservesNotificationState(t *testing.T) {
	repo := NewPatternRepository(newTestDB(t))
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	p := &models.Pattern{
		UserID:                1,
		DestinationLocationID: 7,
		TotalTrips:            5,
		SimilarTrips:          4,
		Score:                 0.8,
		IsPredictable:         true,
		UpdatedAt:             now,
	}
	if err := repo.Upsert(p); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}
	if p.ID == 0 {
		t.Fatal("Upsert() did not populate the pattern id")
	}

	notifiedAt := now.Add(time.Minute)
	if err := repo.UpdateNotification(p.ID, true, &notifiedAt); err != nil {
		t.Fatalf("UpdateNotification() error: %v", err)
	}

	// Re-analysis rewrites the scores but must not touch the bookkeeping.
	update := &models.Pattern{
		UserID:                1,
		DestinationLocationID: 7,
		TotalTrips:            6,
		SimilarTrips:          6,
		Score:                 1.0,
		IsPredictable:         true,
		UpdatedAt:             now.Add(time.Hour),
	}
	if err := repo.Upsert(update); err != nil {
		t.Fatalf("second Upsert() error: %v", err)
	}
	if update.ID != p.ID {
		t.Errorf("upsert created a new row: id %d vs %d", update.ID, p.ID)
	}
	if !update.NotificationSent {
		t.Error("NotificationSent lost on upsert")
	}
	if update.LastNotificationAt == nil || !update.LastNotificationAt.Equal(notifiedAt) {
		t.Errorf("LastNotificationAt = %v, want %v", update.LastNotificationAt, notifiedAt)
	}

	stored, err := repo.GetByUserAndDestination(1, 7)
	if err != nil || stored == nil {
		t.Fatalf("GetByUserAndDestination() = %v, %v", stored, err)
	}
	if stored.TotalTrips != 6 || stored.Score != 1.0 {
		t.Errorf("scores not updated: %+v", stored)
	}
}

func TestPatternGetByUser(t *testing.T) {
	repo := NewPatternRepository(newTestDB(t))
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	for i, dest := range []int64{7, 8} {
		p := &models.Pattern{
			UserID:                1,
			DestinationLocationID: dest,
			TotalTrips:            5,
			SimilarTrips:          3,
			Score:                 0.6,
			IsPredictable:         true,
			UpdatedAt:             now.Add(time.Duration(i) * time.Hour),
		}
		if err := repo.Upsert(p); err != nil {
			t.Fatalf("Upsert() error: %v", err)
		}
	}

	patterns, err := repo.GetByUser(1)
	if err != nil {
		t.Fatalf("GetByUser() error: %v", err)
	}
	if len(patterns) != 2 {
		t.Fatalf("pattern count = %d, want 2", len(patterns))
	}

	if patterns, err := repo.GetByUser(2); err != nil || len(patterns) != 0 {
		t.Errorf("GetByUser(2) = %v, %v; want empty", patterns, err)
	}

	missing, err := repo.GetByUserAndDestination(1, 99)
	if err != nil {
		t.Fatalf("GetByUserAndDestination() error: %v", err)
	}
	if missing != nil {
		t.Errorf("GetByUserAndDestination() = %+v, want nil", missing)
	}
}
