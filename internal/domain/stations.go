package domain

import "strconv"

// UnknownStation is published when an MMSI has no configured name.
const UnknownStation = "UNKNOWN"

// StationNameTable maps MMSIs (as decimal strings) to human-readable names.
type StationNameTable map[string]string

// Name resolves mmsi, falling back to UnknownStation.
func (t StationNameTable) Name(mmsi uint64) string {
	if name, ok := t[strconv.FormatUint(mmsi, 10)]; ok {
		return name
	}
	return UnknownStation
}
