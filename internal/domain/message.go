package domain

// RawMessage is one decoded AIS message as AIS-catcher emits it: an open
// key/value map. Numbers may arrive as float64, Go integers, or JSON number
// literals depending on how the packet was decoded.
type RawMessage map[string]any

// Receiver describes the AIS-catcher instance that produced a packet.
type Receiver struct {
	Description string `json:"description"`
	Version     uint32 `json:"version"`
	Engine      string `json:"engine"`
	Setting     string `json:"setting"`
}

// Device describes the SDR hardware behind the receiver.
type Device struct {
	Product string `json:"product"`
	Vendor  string `json:"vendor"`
	Serial  string `json:"serial"`
	Setting string `json:"setting"`
}

// Packet is the JSON document AIS-catcher POSTs in HTTP mode.
type Packet struct {
	Protocol   string `json:"protocol"`
	EncodeTime string `json:"encodetime"`
	// StationID is the name the receiver identifies itself with, not the
	// broadcasting station. Weather broadcasts only carry an MMSI.
	StationID string       `json:"stationid"`
	Receiver  Receiver     `json:"receiver"`
	Device    Device       `json:"device"`
	Msgs      []RawMessage `json:"msgs"`
}
