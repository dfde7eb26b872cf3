package tracking

import "testing"

// Roughly 0.00045 degrees of latitude is 50 meters.
const (
	homeLat = -0.1806
	homeLon = -78.4678
)

func TestMatcherWithinRadius(t *testing.T) {
	env := newTestEnv(t)
	home := env.addLocation(t, 1, "Home", homeLat, homeLon)

	tests := []struct {
		name     string
		lat, lon float64
		want     *int64
	}{
		{"exact position", homeLat, homeLon, &home.ID},
		{"fifty meters away", homeLat + 0.00045, homeLon, &home.ID},
		{"just inside radius", homeLat + 0.00088, homeLon, &home.ID},
		{"outside radius", homeLat + 0.002, homeLon, nil},
		{"far away", homeLat + 1, homeLon, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.matcher.Match(1, tt.lat, tt.lon)
			if err != nil {
				t.Fatalf("Match() error: %v", err)
			}
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("Match() = %v, want %v", got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("Match() = %d, want %d", *got, *tt.want)
			}
		})
	}
}

func TestMatcherPicksNearest(t *testing.T) {
	env := newTestEnv(t)
	env.addLocation(t, 1, "Gym", homeLat+0.0008, homeLon)
	home := env.addLocation(t, 1, "Home", homeLat, homeLon)

	// 20 meters from Home, about 70 from Gym. Both are in radius.
	got, err := env.matcher.Match(1, homeLat+0.00018, homeLon)
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}
	if got == nil || *got != home.ID {
		t.Errorf("Match() = %v, want Home (%d)", got, home.ID)
	}
}

func TestMatcherIgnoresInactiveLocations(t *testing.T) {
	env := newTestEnv(t)
	home := env.addLocation(t, 1, "Home", homeLat, homeLon)

	if _, err := env.locations.Deactivate(home.ID, 1); err != nil {
		t.Fatalf("Deactivate() error: %v", err)
	}
	env.matcher.Invalidate(1)

	got, err := env.matcher.Match(1, homeLat, homeLon)
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}
	if got != nil {
		t.Errorf("Match() = %d, want nil for deactivated location", *got)
	}
}

func TestMatcherIsolatesUsers(t *testing.T) {
	env := newTestEnv(t)
	env.addLocation(t, 1, "Home", homeLat, homeLon)

	got, err := env.matcher.Match(2, homeLat, homeLon)
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}
	if got != nil {
		t.Errorf("Match() = %d, want nil for another user's location", *got)
	}
}

func TestMatcherCacheInvalidation(t *testing.T) {
	env := newTestEnv(t)

	// Warm the cache with no locations.
	if got, err := env.matcher.Match(1, homeLat, homeLon); err != nil || got != nil {
		t.Fatalf("Match() = %v, %v; want nil, nil", got, err)
	}

	home := env.addLocation(t, 1, "Home", homeLat, homeLon)

	got, err := env.matcher.Match(1, homeLat, homeLon)
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}
	if got == nil || *got != home.ID {
		t.Errorf("Match() after invalidation = %v, want %d", got, home.ID)
	}
}
