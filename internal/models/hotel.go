package models

type Hotel struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	City        string   `json:"city"`
	Address     string   `json:"address"`
	Rating      float64  `json:"rating"`
	Amenities   []string `json:"amenities"`
	Rooms       []Room   `json:"rooms"`
	Description string   `json:"description"`
}

type Room struct {
	Type      string `json:"type"`
	BasePrice int64  `json:"base_price"`
	Capacity  int    `json:"capacity"`
	Available int    `json:"available"`
}

// Recommendation is a hotel suggested for the current user by the backend.
type Recommendation struct {
	Hotel  Hotel   `json:"hotel"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// RoomByType returns the room of the given type or nil.
func (h *Hotel) RoomByType(roomType string) *Room {
	for i := range h.Rooms {
		if h.Rooms[i].Type == roomType {
			return &h.Rooms[i]
		}
	}
	return nil
}
