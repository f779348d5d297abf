package client

// House is a top-level container.
type House struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Room belongs to a house.
type Room struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	House string `json:"house"`
}

// Device belongs to a room.
type Device struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Type     string  `json:"type_"`
	Address  *string `json:"address"`
	State    bool    `json:"state"`
	Variable int32   `json:"variable"`
	Room     string  `json:"room"`
}

// NewHouse is the body of CreateHouse.
type NewHouse struct {
	Name string `json:"name"`
}

// NewRoom is the body of CreateRoom.
type NewRoom struct {
	Name  string `json:"name"`
	House string `json:"house"`
}

// NewDevice is the body of CreateDevice.
type NewDevice struct {
	Name    string  `json:"name"`
	Type    string  `json:"typ"`
	Address *string `json:"address"`
	Room    string  `json:"room"`
}
