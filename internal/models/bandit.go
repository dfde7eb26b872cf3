package models

import "time"

// Route types selectable by the bandit. One arm exists per
// (user, location, route type) triple.
const (
	RouteTypeFastest     = "fastest"
	RouteTypeShortest    = "shortest"
	RouteTypeRecommended = "recommended"
)

// RouteTypes lists all selectable route types in arm-creation order.
var RouteTypes = []string{RouteTypeFastest, RouteTypeShortest, RouteTypeRecommended}

// ValidRouteType reports whether t is a known route type.
func ValidRouteType(t string) bool {
	for _, rt := range RouteTypes {
		if rt == t {
			return true
		}
	}
	return false
}

// BanditArm holds the reward statistics of one route type for a
// (user, location) pair. Invariant: TotalRewards <= TotalUses.
type BanditArm struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"userId"`
	LocationID   int64     `json:"locationId"`
	RouteType    string    `json:"routeType"`
	TotalUses    int64     `json:"totalUses"`
	TotalRewards int64     `json:"totalRewards"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// RouteOutcome is one append-only record of a route selection and how it
// ended. Not consulted by arm selection, only by reporting.
type RouteOutcome struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"userId"`
	LocationID int64      `json:"locationId"`
	RouteType  string     `json:"routeType"`
	Completed  bool       `json:"completed"`
	DistanceM  *float64   `json:"distanceM,omitempty"`
	DurationS  *float64   `json:"durationS,omitempty"`
	StartedAt  time.Time  `json:"startedAt"`
	EndedAt    *time.Time `json:"endedAt,omitempty"`
}

// RouteFeedbackRequest is the completion-feedback payload.
type RouteFeedbackRequest struct {
	LocationID int64    `json:"locationId" binding:"required"`
	RouteType  string   `json:"routeType" binding:"required"`
	Completed  *bool    `json:"completed" binding:"required"`
	DistanceM  *float64 `json:"distanceM,omitempty"`
	DurationS  *float64 `json:"durationS,omitempty"`
}

// ArmStats is the per-arm statistics view with the UCB score recomputed.
type ArmStats struct {
	LocationID   int64   `json:"locationId"`
	RouteType    string  `json:"routeType"`
	TotalUses    int64   `json:"totalUses"`
	TotalRewards int64   `json:"totalRewards"`
	SuccessRate  float64 `json:"successRate"`
	UCBScore     float64 `json:"ucbScore"`
}

// BanditStats aggregates the statistics answer for one user.
type BanditStats struct {
	UserID          int64              `json:"userId"`
	Arms            []ArmStats         `json:"arms"`
	CompletedTrips  int64              `json:"completedTrips"`
	AbandonedTrips  int64              `json:"abandonedTrips"`
	AvgDurationByRT map[string]float64 `json:"avgDurationByRouteType"`
}
