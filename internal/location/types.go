package location

// House is the top-level container. It owns rooms.
type House struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ItemName returns the house name for reports.
func (h House) ItemName() string { return h.Name }

// ItemID returns the house id for reports.
func (h House) ItemID() string { return h.ID }

// Room belongs to exactly one house and owns devices.
type Room struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	House string `json:"house"`
}

// ItemName returns the room name for reports.
func (r Room) ItemName() string { return r.Name }

// ItemID returns the room id for reports.
func (r Room) ItemID() string { return r.ID }

// NewHouse is the create request for a house. The id is assigned on insert.
type NewHouse struct {
	Name string `json:"name"`
}

// NewRoom is the create request for a room.
type NewRoom struct {
	Name  string `json:"name"`
	House string `json:"house"`
}
