package domain

import (
	"fmt"
	"time"
)

// ObservationKind is the classification outcome for one raw message.
type ObservationKind int

const (
	// Unrecognized messages match no acceptance rule ("skipped").
	Unrecognized ObservationKind = iota
	// Excluded messages match a rule but come from an ignored MMSI ("ignored").
	Excluded
	// Accepted messages are fully decoded and ready to publish.
	Accepted
)

func (k ObservationKind) String() string {
	switch k {
	case Unrecognized:
		return "skipped"
	case Excluded:
		return "ignored"
	case Accepted:
		return "accepted"
	default:
		return "unknown"
	}
}

// Observation is the result of classifying a raw message. Station is fully
// set for Accepted; Excluded carries only its MMSI. Weather is only set for
// Accepted.
type Observation struct {
	Kind       ObservationKind
	Identifier MessageIdentifier
	Station    StationRecord
	Weather    WeatherRecord
	ReceivedAt time.Time
}

// Classify resolves, matches and decodes one message. Unknown identifiers and
// excluded stations are normal outcomes, not errors; nothing beyond the MMSI
// is decoded for them. An error means the message matched a rule but could not
// be decoded.
func Classify(m RawMessage, table *AcceptanceTable) (Observation, error) {
	id, err := ResolveIdentifier(m)
	if err != nil {
		return Observation{}, err
	}
	obs := Observation{Kind: Unrecognized, Identifier: id, ReceivedAt: clock.Now().UTC()}

	rule, ok := table.Lookup(id)
	if !ok {
		return obs, nil
	}

	mmsi, err := requireUint(m, "mmsi")
	if err != nil {
		return Observation{}, fmt.Errorf("decode station (%s): %w", id, err)
	}
	if rule.IsExcluded(mmsi) {
		obs.Station = StationRecord{MMSI: mmsi}
		obs.Kind = Excluded
		return obs, nil
	}

	station, err := DecodeStation(m)
	if err != nil {
		return Observation{}, fmt.Errorf("decode station (%s, mmsi %d): %w", id, mmsi, err)
	}
	obs.Station = station

	weather, err := DecodeWeather(m)
	if err != nil {
		return Observation{}, fmt.Errorf("decode weather (%s, mmsi %d): %w", id, station.MMSI, err)
	}
	obs.Weather = weather
	obs.Kind = Accepted
	return obs, nil
}
