package device

// Device is a leaf entity owned by a room. State is a boolean switch and
// Variable an integer reading reported by the device.
//
// The JSON field names match the wire format used by existing clients,
// including "type_" for Type.
type Device struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Type     string  `json:"type_"`
	Address  *string `json:"address"`
	State    bool    `json:"state"`
	Variable int32   `json:"variable"`
	Room     string  `json:"room"`
}

// ItemName returns the device name for reports.
func (d Device) ItemName() string { return d.Name }

// ItemID returns the device id for reports.
func (d Device) ItemID() string { return d.ID }

// NewDevice is the create request for a device. New devices start switched
// off with a zero variable.
type NewDevice struct {
	Name    string  `json:"name"`
	Typ     string  `json:"typ"`
	Address *string `json:"address"`
	Room    string  `json:"room"`
}
