package domain

import "time"

// StationRecord is the identity part of a weather broadcast: who sent it and
// when it was received. Position and signal power are optional.
type StationRecord struct {
	MMSI        uint64
	RxTime      time.Time
	Latitude    *float64
	Longitude   *float64
	SignalPower *float64
}

// DecodeStation reads mmsi and rxtime (required) plus lat, lon and
// signalpower when present.
func DecodeStation(m RawMessage) (StationRecord, error) {
	mmsi, err := requireUint(m, "mmsi")
	if err != nil {
		return StationRecord{}, err
	}
	rx, err := requireTimestamp(m, "rxtime")
	if err != nil {
		return StationRecord{}, err
	}
	lat, err := optionalFloat(m, "lat")
	if err != nil {
		return StationRecord{}, err
	}
	lon, err := optionalFloat(m, "lon")
	if err != nil {
		return StationRecord{}, err
	}
	power, err := optionalFloat(m, "signalpower")
	if err != nil {
		return StationRecord{}, err
	}
	return StationRecord{
		MMSI:        mmsi,
		RxTime:      rx,
		Latitude:    lat,
		Longitude:   lon,
		SignalPower: power,
	}, nil
}
