package models

// SavedLocation is a user-named place. Trips and patterns reference it by id
// only; deactivating a location never touches the trips that point at it.
type SavedLocation struct {
	ID        int64   `json:"id"`
	UserID    int64   `json:"userId"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   *string `json:"address,omitempty"`
	Active    bool    `json:"active"`
}

// SavedLocationInput is the create/update payload.
type SavedLocationInput struct {
	Name      string  `json:"name" binding:"required,max=100"`
	Latitude  float64 `json:"latitude" binding:"min=-90,max=90"`
	Longitude float64 `json:"longitude" binding:"min=-180,max=180"`
	Address   *string `json:"address,omitempty"`
}
